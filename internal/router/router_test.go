package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/booking/bookingtest"
	"github.com/iliyamo/vehicle-reservation/internal/handler"
	"github.com/iliyamo/vehicle-reservation/internal/repository"
)

func TestRoutesRegistered(t *testing.T) {
	e := echo.New()
	svc := booking.NewService(bookingtest.NewStore(), nil, nil)
	RegisterRoutes(e, nil, true)
	RegisterBookings(e, handler.NewBookingHandler(svc, nil), "s", Guards{})
	RegisterResources(e, handler.NewResourceHandler(repository.NewResourceRepo(nil), nil), "s", Guards{})

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"POST /v1/bookings",
		"GET /v1/bookings",
		"GET /v1/bookings/:id",
		"GET /v1/bookings/code/:code",
		"POST /v1/bookings/:id/cancel",
		"POST /v1/bookings/:id/approve",
		"POST /v1/bookings/:id/reject",
		"PATCH /v1/bookings/:id",
		"GET /v1/bookings/:id/audit",
		"POST /v1/conflicts/check",
		"GET /v1/stats",
		"GET /v1/working-days",
		"GET /v1/drivers",
		"POST /v1/drivers",
		"PATCH /v1/drivers/:id",
		"GET /v1/vehicles",
		"POST /v1/vehicles",
		"PATCH /v1/vehicles/:id",
	} {
		require.True(t, got[want], want)
	}
	require.False(t, got["GET /readyz"])

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
