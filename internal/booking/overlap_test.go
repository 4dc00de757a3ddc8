package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vehicle-reservation/internal/model"
)

func ptr(v uint64) *uint64 { return &v }

func at(hour int) time.Time { return time.Date(2025, 6, 2, hour, 0, 0, 0, time.UTC) }

func approved(id uint64, start, end time.Time, driver, vehicle *uint64) model.Booking {
	return model.Booking{ID: id, Status: model.StatusApproved,
		DepartureAt: start, ReturnAt: end, DriverID: driver, VehicleID: vehicle}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	require.True(t, Overlaps(at(8), at(12), at(10), at(14)))
	require.True(t, Overlaps(at(8), at(12), at(9), at(10)))
	require.False(t, Overlaps(at(8), at(12), at(12), at(14)), "touching endpoints")
	require.False(t, Overlaps(at(12), at(14), at(8), at(12)), "touching endpoints, reversed")
	require.False(t, Overlaps(at(8), at(10), at(11), at(14)))
}

func TestFindConflicts(t *testing.T) {
	pool := []model.Booking{
		approved(1, at(8), at(12), ptr(1), ptr(10)),
		approved(2, at(8), at(12), ptr(2), ptr(20)),
		approved(3, at(12), at(16), ptr(1), ptr(10)),
		{ID: 4, Status: model.StatusPending, DepartureAt: at(8), ReturnAt: at(12), DriverID: ptr(1)},
		{ID: 5, Status: model.StatusCancelled, DepartureAt: at(8), ReturnAt: at(12), VehicleID: ptr(10)},
	}

	t.Run("same driver different vehicle", func(t *testing.T) {
		got := FindConflicts(Candidate{Start: at(9), End: at(11), DriverID: ptr(1), VehicleID: ptr(99)}, pool, 0)
		require.Len(t, got, 1)
		require.Equal(t, uint64(1), got[0].ID)
	})
	t.Run("same vehicle different driver", func(t *testing.T) {
		got := FindConflicts(Candidate{Start: at(9), End: at(11), DriverID: ptr(99), VehicleID: ptr(20)}, pool, 0)
		require.Len(t, got, 1)
		require.Equal(t, uint64(2), got[0].ID)
	})
	t.Run("all conflicts are returned", func(t *testing.T) {
		got := FindConflicts(Candidate{Start: at(10), End: at(13), DriverID: ptr(1), VehicleID: ptr(20)}, pool, 0)
		ids := []uint64{}
		for _, b := range got {
			ids = append(ids, b.ID)
		}
		require.ElementsMatch(t, []uint64{1, 2, 3}, ids)
	})
	t.Run("non approved never block", func(t *testing.T) {
		got := FindConflicts(Candidate{Start: at(8), End: at(12), DriverID: ptr(1)}, pool[3:], 0)
		require.Empty(t, got)
	})
	t.Run("touching boundary does not conflict", func(t *testing.T) {
		got := FindConflicts(Candidate{Start: at(16), End: at(18), DriverID: ptr(1), VehicleID: ptr(10)}, pool, 0)
		require.Empty(t, got)
	})
	t.Run("unconstrained candidate", func(t *testing.T) {
		require.Empty(t, FindConflicts(Candidate{Start: at(0), End: at(23)}, pool, 0))
	})
	t.Run("excluded booking", func(t *testing.T) {
		got := FindConflicts(Candidate{Start: at(9), End: at(11), DriverID: ptr(1)}, pool, 1)
		require.Empty(t, got)
	})
}

func TestFindConflicts_Symmetric(t *testing.T) {
	a := approved(1, at(8), at(12), ptr(1), ptr(10))
	b := approved(2, at(11), at(15), ptr(1), ptr(20))
	pool := []model.Booking{a, b}

	fromA := FindConflicts(Candidate{Start: a.DepartureAt, End: a.ReturnAt, DriverID: a.DriverID, VehicleID: a.VehicleID}, pool, a.ID)
	fromB := FindConflicts(Candidate{Start: b.DepartureAt, End: b.ReturnAt, DriverID: b.DriverID, VehicleID: b.VehicleID}, pool, b.ID)
	require.Len(t, fromA, 1)
	require.Len(t, fromB, 1)
	require.Equal(t, b.ID, fromA[0].ID)
	require.Equal(t, a.ID, fromB[0].ID)
}
