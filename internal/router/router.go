// Package router registers the HTTP routes of the reservation API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/vehicle-reservation/internal/handler"
)

// Guards are the optional shared middlewares for /v1 routes.  A nil
// field is skipped.
type Guards struct {
	RateLimit  echo.MiddlewareFunc // applied to every authenticated route
	Cache      echo.MiddlewareFunc // applied to read endpoints that are safe to cache
	Invalidate echo.MiddlewareFunc // applied to writes that change cached reads
}

func use(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers the unauthenticated operational endpoints:
// /healthz, /readyz and, when metrics is set, /metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metrics bool) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	if metrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}
