package booking

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// Reader is the read side of the persistence contract.  Lookups of a
// missing row return a *NotFoundError.
type Reader interface {
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	GetBookingByCode(ctx context.Context, code string) (*model.Booking, error)
	SearchBookings(ctx context.Context, f Filter) ([]model.Booking, int64, error)
	ApprovedOverlapping(ctx context.Context, c Candidate, excludeID uint64) ([]model.Booking, error)
	ListAudit(ctx context.Context, bookingID uint64) ([]model.AuditEntry, error)
	CountByStatus(ctx context.Context) (map[model.Status]int64, error)
	CountVehicles(ctx context.Context) (active, total int64, err error)
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	GetDriver(ctx context.Context, id uint64) (*model.Driver, error)
	GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error)
}

// Tx is the write side available inside a transaction.  Lock* methods
// hold the row until the transaction ends so concurrent transitions on
// the same booking or resource serialize.
type Tx interface {
	LockCodeSequence(ctx context.Context, prefix string) error
	MaxBookingCode(ctx context.Context, prefix string) (string, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	LockBooking(ctx context.Context, id uint64) (*model.Booking, error)
	LockDriver(ctx context.Context, id uint64) (*model.Driver, error)
	LockVehicle(ctx context.Context, id uint64) (*model.Vehicle, error)
	ApprovedOverlapping(ctx context.Context, c Candidate, excludeID uint64) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, b *model.Booking) error
	AppendAudit(ctx context.Context, e *model.AuditEntry) error
}

// Store combines both sides.  InTx commits when fn returns nil and rolls
// back otherwise; nothing fn wrote is visible after a rollback.
type Store interface {
	Reader
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Filter selects bookings for listing.  Every field is optional and the
// set fields are combined with AND.  From/To select bookings whose trip
// interval overlaps [From, To).
type Filter struct {
	Status      *model.Status
	RequesterID *uint64
	DriverID    *uint64
	VehicleID   *uint64
	Destination string
	Purpose     string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

// Normalized clamps pagination to sane bounds.
func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	f.Destination = strings.TrimSpace(f.Destination)
	f.Purpose = strings.TrimSpace(f.Purpose)
	return f
}

// Offset is the number of rows skipped for the current page.
func (f Filter) Offset() int { return (f.Page - 1) * f.PageSize }

// Matches applies the filter to a single booking.  SQL stores express
// the same predicate in their WHERE clause.
func (f Filter) Matches(b model.Booking) bool {
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.RequesterID != nil && b.RequesterID != *f.RequesterID {
		return false
	}
	if f.DriverID != nil && (b.DriverID == nil || *b.DriverID != *f.DriverID) {
		return false
	}
	if f.VehicleID != nil && (b.VehicleID == nil || *b.VehicleID != *f.VehicleID) {
		return false
	}
	if f.Destination != "" && !containsFold(b.Destination, f.Destination) {
		return false
	}
	if f.Purpose != "" && !containsFold(b.Purpose, f.Purpose) {
		return false
	}
	if f.From != nil && !b.ReturnAt.After(*f.From) {
		return false
	}
	if f.To != nil && !b.DepartureAt.Before(*f.To) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
