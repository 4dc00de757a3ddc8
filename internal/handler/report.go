package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
)

type conflictCheckRequest struct {
	Start            time.Time `json:"start" validate:"required"`
	End              time.Time `json:"end" validate:"required"`
	DriverID         *uint64   `json:"driver_id"`
	VehicleID        *uint64   `json:"vehicle_id"`
	ExcludeBookingID uint64    `json:"exclude_booking_id"`
}

// CheckConflicts handles POST /v1/conflicts/check.  It is read-only: the
// approval itself re-runs the check under row locks.
func (h *BookingHandler) CheckConflicts(c echo.Context) error {
	var req conflictCheckRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	found, err := h.Svc.CheckConflicts(c.Request().Context(), booking.Candidate{
		Start:     req.Start.UTC(),
		End:       req.End.UTC(),
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
	}, req.ExcludeBookingID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"has_conflict": len(found) > 0,
		"conflicts":    conflictViews(found),
	})
}

// Stats handles GET /v1/stats.
func (h *BookingHandler) Stats(c echo.Context) error {
	st, err := h.Svc.Stats(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}

// WorkingDays handles GET /v1/working-days?start=YYYY-MM-DD&end=YYYY-MM-DD.
// The start date itself never counts and an end before start yields 0.
func (h *BookingHandler) WorkingDays(c echo.Context) error {
	cal := h.Svc.Calendar()
	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(c.QueryParam("start")), cal.Location())
	if err != nil {
		return badRequest(c, "start must be YYYY-MM-DD")
	}
	end, err := time.ParseInLocation(dateLayout, strings.TrimSpace(c.QueryParam("end")), cal.Location())
	if err != nil {
		return badRequest(c, "end must be YYYY-MM-DD")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"start":        start.Format(dateLayout),
		"end":          end.Format(dateLayout),
		"working_days": cal.WorkingDays(start, end),
	})
}
