package handler

import (
	"time"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// bookingView is the JSON shape of a booking.  ProcessingWorkingDays is
// only present once the booking has been processed.
type bookingView struct {
	*model.Booking
	ProcessingWorkingDays *int `json:"processing_working_days,omitempty"`
}

func viewOf(svc *booking.Service, b *model.Booking) bookingView {
	v := bookingView{Booking: b}
	if d := svc.ProcessingDays(b); d >= 0 {
		v.ProcessingWorkingDays = &d
	}
	return v
}

func viewsOf(svc *booking.Service, bs []model.Booking) []bookingView {
	out := make([]bookingView, 0, len(bs))
	for i := range bs {
		out = append(out, viewOf(svc, &bs[i]))
	}
	return out
}

// conflictView is what a 409 tells the caller about each blocking booking.
type conflictView struct {
	ID          uint64    `json:"id"`
	Code        string    `json:"booking_code"`
	DepartureAt time.Time `json:"departure_at"`
	ReturnAt    time.Time `json:"return_at"`
	DriverID    *uint64   `json:"driver_id,omitempty"`
	VehicleID   *uint64   `json:"vehicle_id,omitempty"`
}

func conflictViews(bs []model.Booking) []conflictView {
	out := make([]conflictView, 0, len(bs))
	for _, b := range bs {
		out = append(out, conflictView{
			ID:          b.ID,
			Code:        b.Code,
			DepartureAt: b.DepartureAt,
			ReturnAt:    b.ReturnAt,
			DriverID:    b.DriverID,
			VehicleID:   b.VehicleID,
		})
	}
	return out
}
