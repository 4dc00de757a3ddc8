package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// appendAudit inserts one booking_audit row.  The table is insert-only.
func appendAudit(ctx context.Context, q querier, e *model.AuditEntry) error {
	var before any
	if len(e.Before) > 0 {
		before = string(e.Before)
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO booking_audit (booking_id, actor_id, action, before_state, after_state, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.BookingID, e.ActorID, string(e.Action), before, string(e.After), e.CreatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "insert audit entry")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "audit insert id")
	}
	e.ID = uint64(id)
	return nil
}

// ListAudit returns a booking's audit trail in transition order.
func (r *BookingRepo) ListAudit(ctx context.Context, bookingID uint64) ([]model.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, booking_id, actor_id, action, before_state, after_state, created_at
		 FROM booking_audit WHERE booking_id = ? ORDER BY id`, bookingID)
	if err != nil {
		return nil, errors.Wrap(err, "select audit entries")
	}
	defer rows.Close()

	out := []model.AuditEntry{}
	for rows.Next() {
		var (
			e             model.AuditEntry
			action        string
			before, after sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.BookingID, &e.ActorID, &action, &before, &after, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan audit entry")
		}
		e.Action = model.AuditAction(action)
		if before.Valid {
			e.Before = json.RawMessage(before.String)
		}
		if after.Valid {
			e.After = json.RawMessage(after.String)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate audit entries")
	}
	return out, nil
}
