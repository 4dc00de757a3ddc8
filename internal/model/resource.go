package model

import "time"

// Driver is an assignable driver.  Drivers are never hard-deleted;
// IsActive=false hides them from new assignments while historical
// bookings keep a valid reference.
type Driver struct {
    ID        uint64    `json:"id"`         // drivers.id
    Name      string    `json:"name"`       // drivers.name
    Phone     string    `json:"phone"`      // drivers.phone
    IsActive  bool      `json:"is_active"`  // drivers.is_active
    CreatedAt time.Time `json:"created_at"` // drivers.created_at
    UpdatedAt time.Time `json:"updated_at"` // drivers.updated_at
}

// Vehicle is an assignable vehicle.  Same soft-delete rule as Driver.
type Vehicle struct {
    ID        uint64    `json:"id"`         // vehicles.id
    Model     string    `json:"model"`      // vehicles.model
    Plate     string    `json:"plate"`      // vehicles.plate
    IsActive  bool      `json:"is_active"`  // vehicles.is_active
    CreatedAt time.Time `json:"created_at"` // vehicles.created_at
    UpdatedAt time.Time `json:"updated_at"` // vehicles.updated_at
}

// DisplayName is the label used in notifications, e.g. "Avanza (B 1234 XY)".
func (v Vehicle) DisplayName() string {
    if v.Plate == "" {
        return v.Model
    }
    return v.Model + " (" + v.Plate + ")"
}
