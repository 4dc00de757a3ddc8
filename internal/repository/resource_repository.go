package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// ResourceRepo manages the driver and vehicle pools.  Resources are
// never hard-deleted; deactivation keeps historical bookings resolvable.
type ResourceRepo struct {
	db *sql.DB
}

// NewResourceRepo constructs a ResourceRepo with the provided DB handle.
func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

func getDriver(ctx context.Context, q querier, id uint64, forUpdate bool) (*model.Driver, error) {
	query := "SELECT id, name, phone, is_active, created_at, updated_at FROM drivers WHERE id = ?"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var (
		d     model.Driver
		phone sql.NullString
	)
	if err := q.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &phone, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, wrap(err, "select driver", "driver", id)
	}
	d.Phone = phone.String
	return &d, nil
}

func getVehicle(ctx context.Context, q querier, id uint64, forUpdate bool) (*model.Vehicle, error) {
	query := "SELECT id, model, plate, is_active, created_at, updated_at FROM vehicles WHERE id = ?"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var v model.Vehicle
	if err := q.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.Model, &v.Plate, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, wrap(err, "select vehicle", "vehicle", id)
	}
	return &v, nil
}

func countVehicles(ctx context.Context, q querier) (int64, int64, error) {
	var active, total int64
	err := q.QueryRowContext(ctx, "SELECT COALESCE(SUM(is_active), 0), COUNT(*) FROM vehicles").Scan(&active, &total)
	if err != nil {
		return 0, 0, errors.Wrap(err, "count vehicles")
	}
	return active, total, nil
}

func (r *ResourceRepo) GetDriver(ctx context.Context, id uint64) (*model.Driver, error) {
	return getDriver(ctx, r.db, id, false)
}

func (r *ResourceRepo) GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error) {
	return getVehicle(ctx, r.db, id, false)
}

// ListDrivers returns drivers ordered by name, optionally only the active ones.
func (r *ResourceRepo) ListDrivers(ctx context.Context, activeOnly bool) ([]model.Driver, error) {
	q := "SELECT id, name, phone, is_active, created_at, updated_at FROM drivers"
	if activeOnly {
		q += " WHERE is_active = 1"
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY name, id")
	if err != nil {
		return nil, errors.Wrap(err, "list drivers")
	}
	defer rows.Close()

	out := []model.Driver{}
	for rows.Next() {
		var (
			d     model.Driver
			phone sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Name, &phone, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan driver")
		}
		d.Phone = phone.String
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate drivers")
	}
	return out, nil
}

// CreateDriver inserts d and reloads it so timestamps are populated.
func (r *ResourceRepo) CreateDriver(ctx context.Context, d *model.Driver) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO drivers (name, phone, is_active) VALUES (?, ?, ?)", d.Name, d.Phone, d.IsActive)
	if err != nil {
		return wrap(err, "insert driver", "driver", 0)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "driver insert id")
	}
	got, err := r.GetDriver(ctx, uint64(id))
	if err != nil {
		return err
	}
	*d = *got
	return nil
}

// UpdateDriver saves the editable fields of d.
func (r *ResourceRepo) UpdateDriver(ctx context.Context, d *model.Driver) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE drivers SET name = ?, phone = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		d.Name, d.Phone, d.IsActive, d.ID)
	if err != nil {
		return wrap(err, "update driver", "driver", d.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap(sql.ErrNoRows, "update driver", "driver", d.ID)
	}
	return nil
}

// ListVehicles returns vehicles ordered by model, optionally only the active ones.
func (r *ResourceRepo) ListVehicles(ctx context.Context, activeOnly bool) ([]model.Vehicle, error) {
	q := "SELECT id, model, plate, is_active, created_at, updated_at FROM vehicles"
	if activeOnly {
		q += " WHERE is_active = 1"
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY model, plate")
	if err != nil {
		return nil, errors.Wrap(err, "list vehicles")
	}
	defer rows.Close()

	out := []model.Vehicle{}
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.Model, &v.Plate, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan vehicle")
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate vehicles")
	}
	return out, nil
}

// CreateVehicle inserts v.  A plate already in use yields ErrDuplicate.
func (r *ResourceRepo) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO vehicles (model, plate, is_active) VALUES (?, ?, ?)", v.Model, v.Plate, v.IsActive)
	if err != nil {
		return wrap(err, "insert vehicle", "vehicle", 0)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "vehicle insert id")
	}
	got, err := r.GetVehicle(ctx, uint64(id))
	if err != nil {
		return err
	}
	*v = *got
	return nil
}

// UpdateVehicle saves the editable fields of v.
func (r *ResourceRepo) UpdateVehicle(ctx context.Context, v *model.Vehicle) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE vehicles SET model = ?, plate = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		v.Model, v.Plate, v.IsActive, v.ID)
	if err != nil {
		return wrap(err, "update vehicle", "vehicle", v.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap(sql.ErrNoRows, "update vehicle", "vehicle", v.ID)
	}
	return nil
}
