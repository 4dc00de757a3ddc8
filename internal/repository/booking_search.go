package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likeContains builds a LIKE pattern matching sub literally anywhere in
// the lower-cased column.
func likeContains(sub string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(sub)) + "%"
}

// bookingWhere renders f as a WHERE condition.  It mirrors
// booking.Filter.Matches.
func bookingWhere(f booking.Filter) (string, []any) {
	where := []string{}
	args := []any{}

	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.RequesterID != nil {
		where = append(where, "requester_id = ?")
		args = append(args, *f.RequesterID)
	}
	if f.DriverID != nil {
		where = append(where, "driver_id = ?")
		args = append(args, *f.DriverID)
	}
	if f.VehicleID != nil {
		where = append(where, "vehicle_id = ?")
		args = append(args, *f.VehicleID)
	}
	if f.Destination != "" {
		where = append(where, "LOWER(destination) LIKE ?")
		args = append(args, likeContains(f.Destination))
	}
	if f.Purpose != "" {
		where = append(where, "LOWER(purpose) LIKE ?")
		args = append(args, likeContains(f.Purpose))
	}
	if f.From != nil {
		where = append(where, "return_at > ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "departure_at < ?")
		args = append(args, f.To.UTC())
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return cond, args
}

// SearchBookings returns one page of matching bookings, newest first,
// and the total number of matches.
func (r *BookingRepo) SearchBookings(ctx context.Context, f booking.Filter) ([]model.Booking, int64, error) {
	f = f.Normalized()
	cond, args := bookingWhere(f)

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count bookings")
	}

	dataSQL := "SELECT " + bookingColumns + `
		FROM bookings
		WHERE ` + cond + `
		ORDER BY id DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), f.PageSize, f.Offset())

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "search bookings")
	}
	out, err := scanBookings(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
