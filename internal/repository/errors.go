// Package repository is the MySQL side of the booking persistence
// contract.  Missing rows surface as *booking.NotFoundError and every
// other driver error is wrapped with the statement that produced it.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
)

// ErrDuplicate is returned when an insert or update violates a unique
// key, such as a second vehicle with the same plate.  Handlers translate
// it into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate key")

const mysqlDuplicateEntry = 1062

// querier is satisfied by both *sql.DB and *sql.Tx so reads can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// wrap translates sql.ErrNoRows into a NotFoundError for entity/id and
// annotates anything else with op.
func wrap(err error, op, entity string, id uint64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return booking.NotFound(entity, id)
	}
	if isDuplicate(err) {
		return errors.Wrap(ErrDuplicate, op)
	}
	return errors.Wrap(err, op)
}

func nullUint(p *uint64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

func uintPtr(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	u := uint64(v.Int64)
	return &u
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
