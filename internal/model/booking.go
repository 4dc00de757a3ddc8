package model

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
    StatusPending   Status = "pending"
    StatusApproved  Status = "approved"
    StatusRejected  Status = "rejected"
    StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
    switch s {
    case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
        return true
    }
    return false
}

// Booking records a request to use a vehicle and driver over a time
// interval.  Departure and return instants are stored in UTC and form
// the half-open interval [DepartureAt, ReturnAt).  Driver and vehicle
// are only assigned while the booking is approved.
//
// Fields:
//  ID                – surrogate primary key.
//  Code              – year-scoped human facing code (e.g. 25001).
//  RequesterID       – user who submitted the booking.
//  RequesterUnit     – organizational unit of the requester at submission.
//  DepartureAt       – start of the trip.
//  ReturnAt          – end of the trip (must be after DepartureAt).
//  Destination       – free text destination.
//  Purpose           – free text purpose of the trip.
//  Notes             – optional notes, bounded length.
//  Passengers        – optional passenger info.
//  Status            – pending, approved, rejected or cancelled.
//  DriverID          – assigned driver (approved only).
//  VehicleID         – assigned vehicle (approved only).
//  DriverInstruction – whether the driver receives special instructions.
//  RejectionReason   – reason given when rejected.
//  SubmittedAt       – submission instant.
//  ProcessedAt       – when it was approved, rejected or cancelled.
//  ModifiedAt        – when a privileged actor last modified it.
//  ProcessedBy       – user who processed it.
type Booking struct {
    ID                uint64     `json:"id"`                         // bookings.id
    Code              string     `json:"booking_code"`               // bookings.booking_code
    RequesterID       uint64     `json:"requester_id"`               // bookings.requester_id
    RequesterUnit     string     `json:"requester_unit"`             // bookings.requester_unit
    DepartureAt       time.Time  `json:"departure_at"`               // bookings.departure_at
    ReturnAt          time.Time  `json:"return_at"`                  // bookings.return_at
    Destination       string     `json:"destination"`                // bookings.destination
    Purpose           string     `json:"purpose"`                    // bookings.purpose
    Notes             *string    `json:"notes,omitempty"`            // bookings.notes (nullable)
    Passengers        *string    `json:"passengers,omitempty"`       // bookings.passengers (nullable)
    Status            Status     `json:"status"`                     // bookings.status
    DriverID          *uint64    `json:"driver_id,omitempty"`        // bookings.driver_id (nullable)
    VehicleID         *uint64    `json:"vehicle_id,omitempty"`       // bookings.vehicle_id (nullable)
    DriverInstruction bool       `json:"driver_instruction"`         // bookings.driver_instruction
    RejectionReason   *string    `json:"rejection_reason,omitempty"` // bookings.rejection_reason (nullable)
    SubmittedAt       time.Time  `json:"submitted_at"`               // bookings.submitted_at
    ProcessedAt       *time.Time `json:"processed_at,omitempty"`     // bookings.processed_at (nullable)
    ModifiedAt        *time.Time `json:"modified_at,omitempty"`      // bookings.modified_at (nullable)
    ProcessedBy       *uint64    `json:"processed_by,omitempty"`     // bookings.processed_by (nullable)
}

// Clone returns a deep copy so snapshots taken before a transition are
// not affected by later field writes.
func (b *Booking) Clone() *Booking {
    if b == nil {
        return nil
    }
    c := *b
    c.Notes = cloneString(b.Notes)
    c.Passengers = cloneString(b.Passengers)
    c.RejectionReason = cloneString(b.RejectionReason)
    c.DriverID = cloneUint(b.DriverID)
    c.VehicleID = cloneUint(b.VehicleID)
    c.ProcessedBy = cloneUint(b.ProcessedBy)
    c.ProcessedAt = cloneTime(b.ProcessedAt)
    c.ModifiedAt = cloneTime(b.ModifiedAt)
    return &c
}

func cloneString(p *string) *string {
    if p == nil {
        return nil
    }
    v := *p
    return &v
}

func cloneUint(p *uint64) *uint64 {
    if p == nil {
        return nil
    }
    v := *p
    return &v
}

func cloneTime(p *time.Time) *time.Time {
    if p == nil {
        return nil
    }
    v := *p
    return &v
}
