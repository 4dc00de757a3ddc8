package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// ResourceStore is the slice of repository.ResourceRepo the resource
// endpoints need.
type ResourceStore interface {
	GetDriver(ctx context.Context, id uint64) (*model.Driver, error)
	ListDrivers(ctx context.Context, activeOnly bool) ([]model.Driver, error)
	CreateDriver(ctx context.Context, d *model.Driver) error
	UpdateDriver(ctx context.Context, d *model.Driver) error
	GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error)
	ListVehicles(ctx context.Context, activeOnly bool) ([]model.Vehicle, error)
	CreateVehicle(ctx context.Context, v *model.Vehicle) error
	UpdateVehicle(ctx context.Context, v *model.Vehicle) error
}

// ResourceHandler manages the driver and vehicle pools.  Resources are
// deactivated, never deleted.
type ResourceHandler struct {
	Repo ResourceStore
	Log  *logrus.Entry
}

// NewResourceHandler panics when repo is nil.
func NewResourceHandler(repo ResourceStore, log *logrus.Entry) *ResourceHandler {
	if repo == nil {
		panic("nil repository passed to NewResourceHandler")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ResourceHandler{Repo: repo, Log: log.WithField("component", "http")}
}

// activeOnly reads ?active=true; anything else lists every resource.
func activeOnly(c echo.Context) bool {
	v, _ := strconv.ParseBool(c.QueryParam("active"))
	return v
}

// ListDrivers handles GET /v1/drivers.
func (h *ResourceHandler) ListDrivers(c echo.Context) error {
	ds, err := h.Repo.ListDrivers(c.Request().Context(), activeOnly(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": ds})
}

type createDriverRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"max=32"`
	IsActive *bool  `json:"is_active"`
}

// CreateDriver handles POST /v1/drivers.  New drivers are active unless
// is_active is false.
func (h *ResourceHandler) CreateDriver(c echo.Context) error {
	var req createDriverRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	d := &model.Driver{
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if d.Name == "" {
		return badRequest(c, "name is required")
	}
	if err := h.Repo.CreateDriver(c.Request().Context(), d); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, d)
}

type patchDriverRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	IsActive *bool   `json:"is_active"`
}

// PatchDriver handles PATCH /v1/drivers/:id.  Only the fields present in
// the body change.
func (h *ResourceHandler) PatchDriver(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid driver id")
	}
	var req patchDriverRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.Repo.GetDriver(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if req.Name != nil {
		if d.Name = strings.TrimSpace(*req.Name); d.Name == "" {
			return badRequest(c, "name must not be empty")
		}
	}
	if req.Phone != nil {
		d.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if err := h.Repo.UpdateDriver(ctx, d); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// ListVehicles handles GET /v1/vehicles.
func (h *ResourceHandler) ListVehicles(c echo.Context) error {
	vs, err := h.Repo.ListVehicles(c.Request().Context(), activeOnly(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": vs})
}

type createVehicleRequest struct {
	Model    string `json:"model" validate:"required,max=120"`
	Plate    string `json:"plate" validate:"required,max=20"`
	IsActive *bool  `json:"is_active"`
}

// CreateVehicle handles POST /v1/vehicles.  A plate already registered
// responds 409.
func (h *ResourceHandler) CreateVehicle(c echo.Context) error {
	var req createVehicleRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	v := &model.Vehicle{
		Model:    strings.TrimSpace(req.Model),
		Plate:    strings.ToUpper(strings.TrimSpace(req.Plate)),
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if v.Model == "" || v.Plate == "" {
		return badRequest(c, "model and plate are required")
	}
	if err := h.Repo.CreateVehicle(c.Request().Context(), v); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, v)
}

type patchVehicleRequest struct {
	Model    *string `json:"model" validate:"omitempty,max=120"`
	Plate    *string `json:"plate" validate:"omitempty,max=20"`
	IsActive *bool   `json:"is_active"`
}

// PatchVehicle handles PATCH /v1/vehicles/:id.
func (h *ResourceHandler) PatchVehicle(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid vehicle id")
	}
	var req patchVehicleRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx := c.Request().Context()
	v, err := h.Repo.GetVehicle(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if req.Model != nil {
		if v.Model = strings.TrimSpace(*req.Model); v.Model == "" {
			return badRequest(c, "model must not be empty")
		}
	}
	if req.Plate != nil {
		if v.Plate = strings.ToUpper(strings.TrimSpace(*req.Plate)); v.Plate == "" {
			return badRequest(c, "plate must not be empty")
		}
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if err := h.Repo.UpdateVehicle(ctx, v); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, v)
}
