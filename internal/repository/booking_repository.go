package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

const bookingColumns = `id, booking_code, requester_id, requester_unit, departure_at, return_at,
	destination, purpose, notes, passengers, status, driver_id, vehicle_id, driver_instruction,
	rejection_reason, submitted_at, processed_at, modified_at, processed_by`

// BookingRepo implements booking.Store on MySQL.  Transactions run at
// READ COMMITTED so the overlap query issued after the resource locks
// sees approvals committed by the transaction that held them.
type BookingRepo struct {
	db *sql.DB
}

var _ booking.Store = (*BookingRepo)(nil)

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// InTx runs fn in a transaction and commits when it returns nil.
func (r *BookingRepo) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	committed = true
	return nil
}

func scanBooking(s rowScanner) (*model.Booking, error) {
	var (
		b                                model.Booking
		status                           string
		notes, passengers, reason        sql.NullString
		driverID, vehicleID, processedBy sql.NullInt64
		processedAt, modifiedAt          sql.NullTime
	)
	if err := s.Scan(
		&b.ID, &b.Code, &b.RequesterID, &b.RequesterUnit, &b.DepartureAt, &b.ReturnAt,
		&b.Destination, &b.Purpose, &notes, &passengers, &status, &driverID, &vehicleID, &b.DriverInstruction,
		&reason, &b.SubmittedAt, &processedAt, &modifiedAt, &processedBy,
	); err != nil {
		return nil, err
	}
	b.Status = model.Status(status)
	b.Notes = stringPtr(notes)
	b.Passengers = stringPtr(passengers)
	b.DriverID = uintPtr(driverID)
	b.VehicleID = uintPtr(vehicleID)
	b.RejectionReason = stringPtr(reason)
	b.ProcessedAt = timePtr(processedAt)
	b.ModifiedAt = timePtr(modifiedAt)
	b.ProcessedBy = uintPtr(processedBy)
	b.DepartureAt = b.DepartureAt.UTC()
	b.ReturnAt = b.ReturnAt.UTC()
	b.SubmittedAt = b.SubmittedAt.UTC()
	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan booking")
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate bookings")
	}
	return out, nil
}

func getBooking(ctx context.Context, q querier, id uint64, forUpdate bool) (*model.Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE id = ?"
	if forUpdate {
		query += " FOR UPDATE"
	}
	b, err := scanBooking(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrap(err, "select booking", "booking", id)
	}
	return b, nil
}

// approvedOverlapping selects approved bookings whose interval overlaps
// [c.Start, c.End) and that share c's driver or vehicle.
func approvedOverlapping(ctx context.Context, q querier, c booking.Candidate, excludeID uint64) ([]model.Booking, error) {
	if c.Unconstrained() {
		return []model.Booking{}, nil
	}
	args := []any{model.StatusApproved, excludeID, c.Start.UTC(), c.End.UTC()}
	shared := make([]string, 0, 2)
	if c.DriverID != nil {
		shared = append(shared, "driver_id = ?")
		args = append(args, *c.DriverID)
	}
	if c.VehicleID != nil {
		shared = append(shared, "vehicle_id = ?")
		args = append(args, *c.VehicleID)
	}
	query := "SELECT " + bookingColumns + ` FROM bookings
		WHERE status = ? AND id <> ? AND NOT (return_at <= ? OR departure_at >= ?)
		AND (` + strings.Join(shared, " OR ") + `)
		ORDER BY departure_at, id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select overlapping bookings")
	}
	return scanBookings(rows)
}

func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return getBooking(ctx, r.db, id, false)
}

func (r *BookingRepo) GetBookingByCode(ctx context.Context, code string) (*model.Booking, error) {
	const q = "SELECT " + bookingColumns + " FROM bookings WHERE booking_code = ?"
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &booking.NotFoundError{Entity: "booking", Key: code}
	}
	if err != nil {
		return nil, errors.Wrap(err, "select booking by code")
	}
	return b, nil
}

func (r *BookingRepo) ApprovedOverlapping(ctx context.Context, c booking.Candidate, excludeID uint64) ([]model.Booking, error) {
	return approvedOverlapping(ctx, r.db, c, excludeID)
}

func (r *BookingRepo) CountByStatus(ctx context.Context) (map[model.Status]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM bookings GROUP BY status")
	if err != nil {
		return nil, errors.Wrap(err, "count bookings")
	}
	defer rows.Close()
	out := map[model.Status]int64{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "scan booking count")
		}
		out[model.Status(status)] = n
	}
	return out, errors.Wrap(rows.Err(), "iterate booking counts")
}

func (r *BookingRepo) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	return getUser(ctx, r.db, id)
}

func (r *BookingRepo) GetDriver(ctx context.Context, id uint64) (*model.Driver, error) {
	return getDriver(ctx, r.db, id, false)
}

func (r *BookingRepo) GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error) {
	return getVehicle(ctx, r.db, id, false)
}

func (r *BookingRepo) CountVehicles(ctx context.Context) (int64, int64, error) {
	return countVehicles(ctx, r.db)
}

// bookingTx is the booking.Tx handed to InTx callbacks.
type bookingTx struct {
	tx *sql.Tx
}

// LockCodeSequence takes an exclusive lock on the year's lock row,
// creating it on first use, and holds it until the transaction ends.
// The upsert locks the row exclusively from the start; a plain insert
// that hits the existing row would only take a shared lock.
func (t *bookingTx) LockCodeSequence(ctx context.Context, prefix string) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO booking_code_locks (year_prefix) VALUES (?) ON DUPLICATE KEY UPDATE year_prefix = year_prefix",
		prefix)
	return errors.Wrap(err, "lock code sequence")
}

func (t *bookingTx) MaxBookingCode(ctx context.Context, prefix string) (string, error) {
	var code string
	err := t.tx.QueryRowContext(ctx,
		"SELECT booking_code FROM bookings WHERE booking_code LIKE ? ORDER BY booking_code DESC LIMIT 1",
		prefix+"%").Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "select max booking code")
	}
	return code, nil
}

func (t *bookingTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (booking_code, requester_id, requester_unit, departure_at, return_at,
		destination, purpose, notes, passengers, status, driver_id, vehicle_id, driver_instruction,
		rejection_reason, submitted_at, processed_at, modified_at, processed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		b.Code, b.RequesterID, b.RequesterUnit, b.DepartureAt.UTC(), b.ReturnAt.UTC(),
		b.Destination, b.Purpose, nullString(b.Notes), nullString(b.Passengers), string(b.Status),
		nullUint(b.DriverID), nullUint(b.VehicleID), b.DriverInstruction,
		nullString(b.RejectionReason), b.SubmittedAt.UTC(), nullTime(b.ProcessedAt), nullTime(b.ModifiedAt), nullUint(b.ProcessedBy),
	)
	if err != nil {
		return wrap(err, "insert booking", "booking", 0)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "booking insert id")
	}
	b.ID = uint64(id)
	return nil
}

func (t *bookingTx) LockBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return getBooking(ctx, t.tx, id, true)
}

func (t *bookingTx) LockDriver(ctx context.Context, id uint64) (*model.Driver, error) {
	return getDriver(ctx, t.tx, id, true)
}

func (t *bookingTx) LockVehicle(ctx context.Context, id uint64) (*model.Vehicle, error) {
	return getVehicle(ctx, t.tx, id, true)
}

func (t *bookingTx) ApprovedOverlapping(ctx context.Context, c booking.Candidate, excludeID uint64) ([]model.Booking, error) {
	return approvedOverlapping(ctx, t.tx, c, excludeID)
}

// UpdateBooking writes the mutable outcome columns.  Trip fields and the
// code never change after creation.
func (t *bookingTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	const q = `UPDATE bookings
		SET status = ?, driver_id = ?, vehicle_id = ?, driver_instruction = ?, rejection_reason = ?,
		    processed_at = ?, modified_at = ?, processed_by = ?
		WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, q,
		string(b.Status), nullUint(b.DriverID), nullUint(b.VehicleID), b.DriverInstruction, nullString(b.RejectionReason),
		nullTime(b.ProcessedAt), nullTime(b.ModifiedAt), nullUint(b.ProcessedBy),
		b.ID,
	)
	return errors.Wrap(err, "update booking")
}

func (t *bookingTx) AppendAudit(ctx context.Context, e *model.AuditEntry) error {
	return appendAudit(ctx, t.tx, e)
}
