package booking

import (
	"time"

	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// Candidate is a proposed assignment checked for conflicts.  A nil
// DriverID or VehicleID means that dimension is not requested.
type Candidate struct {
	Start     time.Time
	End       time.Time
	DriverID  *uint64
	VehicleID *uint64
}

// Unconstrained reports whether the candidate requests no resource at
// all.  Such a candidate never conflicts.
func (c Candidate) Unconstrained() bool { return c.DriverID == nil && c.VehicleID == nil }

// Overlaps reports whether [s1,e1) and [s2,e2) intersect.  Touching
// endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// SharesResource reports whether b holds the candidate's driver or the
// candidate's vehicle.
func (c Candidate) SharesResource(b model.Booking) bool {
	if c.DriverID != nil && b.DriverID != nil && *c.DriverID == *b.DriverID {
		return true
	}
	if c.VehicleID != nil && b.VehicleID != nil && *c.VehicleID == *b.VehicleID {
		return true
	}
	return false
}

// FindConflicts returns every booking in pool that blocks c: approved,
// overlapping in time and sharing the driver or the vehicle.  excludeID
// (0 for none) is skipped.
func FindConflicts(c Candidate, pool []model.Booking, excludeID uint64) []model.Booking {
	if c.Unconstrained() {
		return nil
	}
	var out []model.Booking
	for _, b := range pool {
		if b.Status != model.StatusApproved || (excludeID != 0 && b.ID == excludeID) {
			continue
		}
		if !Overlaps(c.Start, c.End, b.DepartureAt, b.ReturnAt) {
			continue
		}
		if c.SharesResource(b) {
			out = append(out, b)
		}
	}
	return out
}
