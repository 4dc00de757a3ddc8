package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/model"
)

var vehicleCols = []string{"id", "model", "plate", "is_active", "created_at", "updated_at"}

func TestCreateVehicle(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vehicles (model, plate, is_active)")).
		WithArgs("Innova", "B 5678 XY", true).
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM vehicles WHERE id = ?")).
		WithArgs(uint64(6)).
		WillReturnRows(sqlmock.NewRows(vehicleCols).AddRow(int64(6), "Innova", "B 5678 XY", true, submitted, submitted))

	v := &model.Vehicle{Model: "Innova", Plate: "B 5678 XY", IsActive: true}
	require.NoError(t, NewResourceRepo(db).CreateVehicle(context.Background(), v))
	require.Equal(t, uint64(6), v.ID)
	require.Equal(t, submitted, v.CreatedAt)
}

func TestCreateVehicle_DuplicatePlate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vehicles")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'B 5678 XY'"})

	err := NewResourceRepo(db).CreateVehicle(context.Background(), &model.Vehicle{Model: "Innova", Plate: "B 5678 XY"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateDriver_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE drivers SET name = ?, phone = ?, is_active = ?")).
		WithArgs("Eko", "0812", false, uint64(44)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewResourceRepo(db).UpdateDriver(context.Background(), &model.Driver{ID: 44, Name: "Eko", Phone: "0812"})
	require.True(t, booking.IsNotFound(err))
}

func TestListDrivers_ActiveOnly(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM drivers WHERE is_active = 1 ORDER BY name, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "is_active", "created_at", "updated_at"}).
			AddRow(int64(1), "Eko", "0812", true, submitted, submitted).
			AddRow(int64(2), "Fajar", nil, true, submitted, submitted))

	got, err := NewResourceRepo(db).ListDrivers(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Empty(t, got[1].Phone)
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "unit", "role", "is_active", "created_at"}).
			AddRow(int64(1), "Ani", "ani@example.com", "Finance", "EMPLOYEE", true, submitted))

	u, err := NewUserRepo(db).GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Finance", u.Unit)
	require.Equal(t, model.RoleEmployee, u.Role)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = NewUserRepo(db).GetByID(context.Background(), 2)
	require.True(t, booking.IsNotFound(err))
}
