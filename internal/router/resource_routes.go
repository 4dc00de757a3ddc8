package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-reservation/internal/handler"
	"github.com/iliyamo/vehicle-reservation/internal/middleware"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// RegisterResources mounts the driver and vehicle pools under /v1.  Any
// authenticated role may list them; only ADMIN creates or edits.
func RegisterResources(e *echo.Echo, h *handler.ResourceHandler, jwtSecret string, gd Guards) {
	g := e.Group("/v1", use(middleware.JWTAuth(jwtSecret), gd.RateLimit)...)

	admin := append([]echo.MiddlewareFunc{middleware.RequireRole(model.RoleAdmin)}, use(gd.Invalidate)...)
	cached := use(gd.Cache)

	g.GET("/drivers", h.ListDrivers, cached...)
	g.POST("/drivers", h.CreateDriver, admin...)
	g.PATCH("/drivers/:id", h.PatchDriver, admin...)

	g.GET("/vehicles", h.ListVehicles, cached...)
	g.POST("/vehicles", h.CreateVehicle, admin...)
	g.PATCH("/vehicles/:id", h.PatchVehicle, admin...)
}
