package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-reservation/internal/handler"
	"github.com/iliyamo/vehicle-reservation/internal/middleware"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// RegisterBookings mounts the reservation lifecycle under /v1.  Every
// route needs a valid access token; approve, reject, conflict checks and
// stats need APPROVER or ADMIN, and modify and audit need ADMIN.
// Ownership rules (cancel, employee visibility) live in the handler and
// service.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, gd Guards) {
	g := e.Group("/v1", use(middleware.JWTAuth(jwtSecret), gd.RateLimit)...)

	processors := middleware.RequireRole(model.RoleApprover, model.RoleAdmin)
	admin := middleware.RequireRole(model.RoleAdmin)
	writes := use(gd.Invalidate)
	cached := use(gd.Cache)

	g.POST("/bookings", h.Create, writes...)
	g.GET("/bookings", h.List)
	g.GET("/bookings/code/:code", h.GetByCode)
	g.GET("/bookings/:id", h.Get)
	g.POST("/bookings/:id/cancel", h.Cancel, writes...)
	g.POST("/bookings/:id/approve", h.Approve, append([]echo.MiddlewareFunc{processors}, writes...)...)
	g.POST("/bookings/:id/reject", h.Reject, append([]echo.MiddlewareFunc{processors}, writes...)...)
	g.PATCH("/bookings/:id", h.Modify, append([]echo.MiddlewareFunc{admin}, writes...)...)
	g.GET("/bookings/:id/audit", h.Audit, admin)

	g.POST("/conflicts/check", h.CheckConflicts, processors)
	g.GET("/stats", h.Stats, append([]echo.MiddlewareFunc{processors}, cached...)...)
	g.GET("/working-days", h.WorkingDays, cached...)
}
