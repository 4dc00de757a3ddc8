package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

var bookingCols = []string{
	"id", "booking_code", "requester_id", "requester_unit", "departure_at", "return_at",
	"destination", "purpose", "notes", "passengers", "status", "driver_id", "vehicle_id", "driver_instruction",
	"rejection_reason", "submitted_at", "processed_at", "modified_at", "processed_by",
}

var (
	dep       = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	ret       = time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	submitted = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func pendingRow(rows *sqlmock.Rows, id int64, code string) *sqlmock.Rows {
	return rows.AddRow(id, code, int64(1), "Finance", dep, ret,
		"Bandung", "Site visit", nil, nil, "pending", nil, nil, false,
		nil, submitted, nil, nil, nil)
}

func TestGetBooking(t *testing.T) {
	db, mock := newMock(t)
	processed := submitted.Add(48 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			int64(7), "25007", int64(1), "Finance", dep, ret,
			"Bandung", "Site visit", "bring projector", nil, "approved", int64(2), int64(3), true,
			nil, submitted, processed, nil, int64(10)))

	b, err := NewBookingRepo(db).GetBooking(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "25007", b.Code)
	require.Equal(t, model.StatusApproved, b.Status)
	require.Equal(t, "bring projector", *b.Notes)
	require.Nil(t, b.Passengers)
	require.Equal(t, uint64(2), *b.DriverID)
	require.Equal(t, uint64(3), *b.VehicleID)
	require.True(t, b.DriverInstruction)
	require.Equal(t, processed, *b.ProcessedAt)
	require.Nil(t, b.ModifiedAt)
	require.Equal(t, uint64(10), *b.ProcessedBy)
}

func TestGetBooking_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := NewBookingRepo(db).GetBooking(context.Background(), 9)
	require.True(t, booking.IsNotFound(err))
}

func TestGetBookingByCode_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE booking_code = ?")).
		WithArgs("25404").
		WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := NewBookingRepo(db).GetBookingByCode(context.Background(), "25404")
	var nf *booking.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "25404", nf.Key)
}

func TestApprovedOverlapping_BothResources(t *testing.T) {
	db, mock := newMock(t)
	driver, vehicle := uint64(2), uint64(3)
	mock.ExpectQuery(regexp.QuoteMeta("NOT (return_at <= ? OR departure_at >= ?)")).
		WithArgs(model.StatusApproved, uint64(5), dep, ret, driver, vehicle).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			int64(4), "25004", int64(2), "Logistics", dep, ret,
			"Bogor", "Audit", nil, nil, "approved", int64(2), int64(9), false,
			nil, submitted, submitted, nil, int64(10)))

	got, err := NewBookingRepo(db).ApprovedOverlapping(context.Background(),
		booking.Candidate{Start: dep, End: ret, DriverID: &driver, VehicleID: &vehicle}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "25004", got[0].Code)
}

func TestApprovedOverlapping_VehicleOnly(t *testing.T) {
	db, mock := newMock(t)
	vehicle := uint64(3)
	mock.ExpectQuery(`AND \(vehicle_id = \?\)`).
		WithArgs(model.StatusApproved, uint64(0), dep, ret, vehicle).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	got, err := NewBookingRepo(db).ApprovedOverlapping(context.Background(),
		booking.Candidate{Start: dep, End: ret, VehicleID: &vehicle}, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestApprovedOverlapping_UnconstrainedSkipsQuery(t *testing.T) {
	db, _ := newMock(t)
	got, err := NewBookingRepo(db).ApprovedOverlapping(context.Background(), booking.Candidate{Start: dep, End: ret}, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_code_locks (year_prefix) VALUES (?) ON DUPLICATE KEY UPDATE")).
		WithArgs("25").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE booking_code LIKE ? ORDER BY booking_code DESC LIMIT 1")).
		WithArgs("25%").
		WillReturnRows(sqlmock.NewRows([]string{"booking_code"}).AddRow("25041"))
	mock.ExpectCommit()

	var maxCode string
	err := NewBookingRepo(db).InTx(context.Background(), func(tx booking.Tx) error {
		if err := tx.LockCodeSequence(context.Background(), "25"); err != nil {
			return err
		}
		var err error
		maxCode, err = tx.MaxBookingCode(context.Background(), "25")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, "25041", maxCode)
}

// The lock row is taken exclusively by one upsert. Any follow-up read
// of the row would be an unexpected query and fail the mock.
func TestLockCodeSequence_ExclusiveUpsert(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`^INSERT INTO booking_code_locks \(year_prefix\) VALUES \(\?\) ON DUPLICATE KEY UPDATE year_prefix = year_prefix$`).
		WithArgs("26").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := NewBookingRepo(db).InTx(context.Background(), func(tx booking.Tx) error {
		return tx.LockCodeSequence(context.Background(), "26")
	})
	require.NoError(t, err)
}

func TestLockCodeSequence_Error(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_code_locks")).
		WithArgs("26").
		WillReturnError(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})
	mock.ExpectRollback()

	err := NewBookingRepo(db).InTx(context.Background(), func(tx booking.Tx) error {
		return tx.LockCodeSequence(context.Background(), "26")
	})
	require.ErrorContains(t, err, "lock code sequence")
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(3)).
		WillReturnRows(pendingRow(sqlmock.NewRows(bookingCols), 3, "25003"))
	mock.ExpectRollback()

	boom := errors.New("refused")
	err := NewBookingRepo(db).InTx(context.Background(), func(tx booking.Tx) error {
		b, err := tx.LockBooking(context.Background(), 3)
		require.NoError(t, err)
		require.Equal(t, model.StatusPending, b.Status)
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestMaxBookingCode_EmptyYear(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE booking_code LIKE ?")).
		WithArgs("26%").
		WillReturnRows(sqlmock.NewRows([]string{"booking_code"}))
	mock.ExpectCommit()

	err := NewBookingRepo(db).InTx(context.Background(), func(tx booking.Tx) error {
		code, err := tx.MaxBookingCode(context.Background(), "26")
		require.Empty(t, code)
		return err
	})
	require.NoError(t, err)
}

// The full approve path against SQL: lock booking, lock driver, lock
// vehicle, overlap query, update, audit, commit.
func TestServiceApprove_OverSQL(t *testing.T) {
	db, mock := newMock(t)
	now := submitted.Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(3)).
		WillReturnRows(pendingRow(sqlmock.NewRows(bookingCols), 3, "25003"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM drivers WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "is_active", "created_at", "updated_at"}).
			AddRow(int64(2), "Eko", nil, true, submitted, submitted))
	mock.ExpectQuery(regexp.QuoteMeta("FROM vehicles WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "model", "plate", "is_active", "created_at", "updated_at"}).
			AddRow(int64(4), "Avanza", "B 1234 XY", true, submitted, submitted))
	mock.ExpectQuery(regexp.QuoteMeta("NOT (return_at <= ? OR departure_at >= ?)")).
		WithArgs(model.StatusApproved, uint64(3), dep, ret, uint64(2), uint64(4)).
		WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings")).
		WithArgs("approved", uint64(2), uint64(4), true, nil, now, nil, uint64(10), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_audit")).
		WithArgs(uint64(3), uint64(10), "approved", sqlmock.AnyArg(), sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	svc := booking.NewService(NewBookingRepo(db), nil, nil, booking.WithClock(func() time.Time { return now }))
	driver, vehicle := uint64(2), uint64(4)
	b, err := svc.Approve(context.Background(), model.Actor{ID: 10, Role: model.RoleApprover}, 3,
		booking.ApproveInput{DriverID: &driver, VehicleID: &vehicle, DriverInstruction: true})
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, b.Status)
}

func TestServiceApprove_ConflictRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(3)).
		WillReturnRows(pendingRow(sqlmock.NewRows(bookingCols), 3, "25003"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM drivers WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "is_active", "created_at", "updated_at"}).
			AddRow(int64(2), "Eko", "0812", true, submitted, submitted))
	mock.ExpectQuery(regexp.QuoteMeta("NOT (return_at <= ? OR departure_at >= ?)")).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			int64(1), "25001", int64(2), "Logistics", dep.Add(-time.Hour), dep.Add(time.Hour),
			"Bogor", "Audit", nil, nil, "approved", int64(2), nil, false,
			nil, submitted, submitted, nil, int64(10)))
	mock.ExpectRollback()

	svc := booking.NewService(NewBookingRepo(db), nil, nil, booking.WithClock(func() time.Time { return submitted }))
	driver := uint64(2)
	_, err := svc.Approve(context.Background(), model.Actor{ID: 10, Role: model.RoleAdmin}, 3, booking.ApproveInput{DriverID: &driver})
	var ce *booking.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "25001", ce.Conflicts[0].Code)
}

func TestInsertBooking_DuplicateCode(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '25001'"})
	mock.ExpectRollback()

	err := NewBookingRepo(db).InTx(context.Background(), func(tx booking.Tx) error {
		return tx.InsertBooking(context.Background(), &model.Booking{Code: "25001", Status: model.StatusPending})
	})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestSearchBookings(t *testing.T) {
	db, mock := newMock(t)
	status := model.StatusPending
	requester := uint64(1)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE status = ? AND requester_id = ? AND LOWER(destination) LIKE ? AND return_at > ?")).
		WithArgs("pending", requester, "%band%", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id DESC")).
		WithArgs("pending", requester, "%band%", from, 2, 2).
		WillReturnRows(pendingRow(sqlmock.NewRows(bookingCols), 1, "25001"))

	out, total, err := NewBookingRepo(db).SearchBookings(context.Background(), booking.Filter{
		Status: &status, RequesterID: &requester, Destination: " Band ", From: &from, Page: 2, PageSize: 2,
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, out, 1)
}

func TestBookingWhere_EscapesLikeWildcards(t *testing.T) {
	cond, args := bookingWhere(booking.Filter{Destination: "_", Purpose: `50% off\`})
	require.Equal(t, "LOWER(destination) LIKE ? AND LOWER(purpose) LIKE ?", cond)
	require.Equal(t, []any{`%\_%`, `%50\% off\\%`}, args)

	f := booking.Filter{Destination: "_"}
	require.False(t, f.Matches(model.Booking{Destination: "Bandung"}))
	require.True(t, f.Matches(model.Booking{Destination: "site_b"}))
}

func TestCountByStatus(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", int64(4)).
			AddRow("approved", int64(2)))

	got, err := NewBookingRepo(db).CountByStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), got[model.StatusPending])
	require.Equal(t, int64(2), got[model.StatusApproved])
	require.Zero(t, got[model.StatusRejected])
}

func TestCountVehicles(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SUM(is_active)")).
		WillReturnRows(sqlmock.NewRows([]string{"active", "total"}).AddRow(int64(3), int64(5)))

	active, total, err := NewBookingRepo(db).CountVehicles(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), active)
	require.Equal(t, int64(5), total)
}

func TestAuditRoundTrip(t *testing.T) {
	db, mock := newMock(t)
	created := submitted
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_audit")).
		WithArgs(uint64(3), uint64(1), "created", nil, `{"id":3}`, created).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM booking_audit WHERE booking_id = ? ORDER BY id")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "actor_id", "action", "before_state", "after_state", "created_at"}).
			AddRow(int64(21), int64(3), int64(1), "created", nil, `{"id":3}`, created))

	repo := NewBookingRepo(db)
	e := &model.AuditEntry{BookingID: 3, ActorID: 1, Action: model.AuditCreated, After: []byte(`{"id":3}`), CreatedAt: created}
	require.NoError(t, repo.InTx(context.Background(), func(tx booking.Tx) error {
		return tx.AppendAudit(context.Background(), e)
	}))
	require.Equal(t, uint64(21), e.ID)

	trail, err := repo.ListAudit(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Nil(t, trail[0].Before)
	require.JSONEq(t, `{"id":3}`, string(trail[0].After))
}
