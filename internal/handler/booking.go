package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// BookingHandler exposes the reservation lifecycle over HTTP.  All
// methods assume JWTAuth has run; role gates are applied by the router
// and repeated by the service where the rule depends on the booking.
type BookingHandler struct {
	Svc *booking.Service
	Log *logrus.Entry
}

// NewBookingHandler panics when svc is nil.
func NewBookingHandler(svc *booking.Service, log *logrus.Entry) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &BookingHandler{Svc: svc, Log: log.WithField("component", "http")}
}

type createBookingRequest struct {
	DepartureDate string  `json:"departure_date" validate:"required"`
	DepartureTime string  `json:"departure_time"`
	ReturnDate    string  `json:"return_date" validate:"required"`
	ReturnTime    string  `json:"return_time"`
	Destination   string  `json:"destination" validate:"required,max=255"`
	Purpose       string  `json:"purpose" validate:"required,max=255"`
	Notes         *string `json:"notes"`
	Passengers    *string `json:"passengers"`
}

// Create handles POST /v1/bookings.  Dates are YYYY-MM-DD and times HH:MM
// in the configured reference timezone.  A missing departure time means
// the start of that day; a missing return time means the start of the
// following day.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, ok, err := actorOr401(c)
	if !ok {
		return err
	}
	var req createBookingRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	loc := h.Svc.Calendar().Location()
	dep, err := moment(loc, req.DepartureDate, req.DepartureTime, false)
	if err != nil {
		return badRequest(c, "departure_date/departure_time must be YYYY-MM-DD and HH:MM")
	}
	ret, err := moment(loc, req.ReturnDate, req.ReturnTime, true)
	if err != nil {
		return badRequest(c, "return_date/return_time must be YYYY-MM-DD and HH:MM")
	}
	b, err := h.Svc.Create(c.Request().Context(), actor, booking.CreateInput{
		DepartureAt: dep,
		ReturnAt:    ret,
		Destination: req.Destination,
		Purpose:     req.Purpose,
		Notes:       req.Notes,
		Passengers:  req.Passengers,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, viewOf(h.Svc, b))
}

// List handles GET /v1/bookings.  Employees only ever see their own
// bookings regardless of the requester_id they pass.
func (h *BookingHandler) List(c echo.Context) error {
	actor, ok, err := actorOr401(c)
	if !ok {
		return err
	}
	f, err := filterFromQuery(c, h.Svc.Calendar().Location())
	if err != nil {
		return fail(c, h.Log, err)
	}
	if actor.Role == model.RoleEmployee {
		f.RequesterID = &actor.ID
	}
	items, total, err := h.Svc.Search(c.Request().Context(), f)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      viewsOf(h.Svc, items),
		"total":     total,
		"page":      f.Page,
		"page_size": f.PageSize,
	})
}

// visible hides other people's bookings from employees.
func visible(actor model.Actor, b *model.Booking) bool {
	return actor.Role != model.RoleEmployee || b.RequesterID == actor.ID
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	actor, ok, err := actorOr401(c)
	if !ok {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	b, err := h.Svc.Get(c.Request().Context(), id)
	if err == nil && !visible(actor, b) {
		err = booking.NotFound("booking", id)
	}
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, viewOf(h.Svc, b))
}

// GetByCode handles GET /v1/bookings/code/:code.
func (h *BookingHandler) GetByCode(c echo.Context) error {
	actor, ok, err := actorOr401(c)
	if !ok {
		return err
	}
	code := c.Param("code")
	b, err := h.Svc.GetByCode(c.Request().Context(), code)
	if err == nil && !visible(actor, b) {
		err = &booking.NotFoundError{Entity: "booking", Key: code}
	}
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, viewOf(h.Svc, b))
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor, ok, err := actorOr401(c)
	if !ok {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	b, err := h.Svc.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, viewOf(h.Svc, b))
}

type approveRequest struct {
	DriverID          *uint64 `json:"driver_id"`
	VehicleID         *uint64 `json:"vehicle_id"`
	DriverInstruction bool    `json:"driver_instruction"`
}

// Approve handles POST /v1/bookings/:id/approve.  A conflict responds
// 409 with every blocking booking.
func (h *BookingHandler) Approve(c echo.Context) error {
	actor, ok, err := actorOr401(c)
	if !ok {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req approveRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	b, err := h.Svc.Approve(c.Request().Context(), actor, id, booking.ApproveInput{
		DriverID:          req.DriverID,
		VehicleID:         req.VehicleID,
		DriverInstruction: req.DriverInstruction,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, viewOf(h.Svc, b))
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// Reject handles POST /v1/bookings/:id/reject.
func (h *BookingHandler) Reject(c echo.Context) error {
	actor, ok, err := actorOr401(c)
	if !ok {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req rejectRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	b, err := h.Svc.Reject(c.Request().Context(), actor, id, req.Reason)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, viewOf(h.Svc, b))
}

type modifyRequest struct {
	Status            string  `json:"status" validate:"required,oneof=approved rejected"`
	DriverID          *uint64 `json:"driver_id"`
	VehicleID         *uint64 `json:"vehicle_id"`
	DriverInstruction bool    `json:"driver_instruction"`
	Reason            *string `json:"reason" validate:"omitempty,max=1000"`
}

// Modify handles PATCH /v1/bookings/:id, the administrator's override of
// an approved or rejected booking.
func (h *BookingHandler) Modify(c echo.Context) error {
	actor, ok, err := actorOr401(c)
	if !ok {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req modifyRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	b, err := h.Svc.Modify(c.Request().Context(), actor, id, booking.ModifyInput{
		Status:            model.Status(req.Status),
		DriverID:          req.DriverID,
		VehicleID:         req.VehicleID,
		DriverInstruction: req.DriverInstruction,
		Reason:            req.Reason,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, viewOf(h.Svc, b))
}

// Audit handles GET /v1/bookings/:id/audit.
func (h *BookingHandler) Audit(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	entries, err := h.Svc.AuditTrail(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": entries})
}
