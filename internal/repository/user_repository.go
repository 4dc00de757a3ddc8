package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/iliyamo/vehicle-reservation/internal/model"
)

const userColumns = "id, name, email, unit, role, is_active, created_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(s rowScanner) (*model.User, error) {
	var u model.User
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Unit, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func getUser(ctx context.Context, q querier, id uint64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if err != nil {
		return nil, wrap(err, "select user", "user", id)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return getUser(ctx, r.DB, id)
}

// Create inserts u with a normalized email and sets its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, unit, role, is_active) VALUES (?,?,?,?,?)",
		u.Name, u.Email, u.Unit, u.Role, u.IsActive)
	if err != nil {
		return wrap(err, "insert user", "user", 0)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "user insert id")
	}
	u.ID = uint64(id)
	return nil
}
