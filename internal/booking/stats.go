package booking

import (
	"context"

	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// Stats is the dashboard rollup.
type Stats struct {
	Pending             int64   `json:"pending"`
	Approved            int64   `json:"approved"`
	Rejected            int64   `json:"rejected"`
	Cancelled           int64   `json:"cancelled"`
	VehiclesActive      int64   `json:"vehicles_active"`
	VehiclesTotal       int64   `json:"vehicles_total"`
	VehicleAvailability float64 `json:"vehicle_availability"`
}

// Stats aggregates counts by status and the active/total vehicle ratio.
// Empty tables yield zeros.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	active, total, err := s.store.CountVehicles(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		Pending:        counts[model.StatusPending],
		Approved:       counts[model.StatusApproved],
		Rejected:       counts[model.StatusRejected],
		Cancelled:      counts[model.StatusCancelled],
		VehiclesActive: active,
		VehiclesTotal:  total,
	}
	if total > 0 {
		st.VehicleAvailability = float64(active) / float64(total)
	}
	return st, nil
}
