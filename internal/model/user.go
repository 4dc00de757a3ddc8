package model

import "time"

// Role names carried in the JWT "role" claim and stored on users.
const (
    RoleEmployee = "EMPLOYEE" // submits and cancels own bookings
    RoleApprover = "APPROVER" // approves and rejects pending bookings
    RoleAdmin    = "ADMIN"    // highest tier; may re-open processed bookings
)

// User represents a row in the `users` table.  The directory is
// maintained outside this service; bookings only read it for the
// requester's unit and for notification display names.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Name      – display name.
//  Email     – contact address used by notifications.
//  Unit      – organizational unit.
//  Role      – EMPLOYEE, APPROVER or ADMIN.
//  IsActive  – whether the account is active.
//  CreatedAt – timestamp of creation.
type User struct {
    ID        uint64    // users.id
    Name      string    // users.name
    Email     string    // users.email
    Unit      string    // users.unit
    Role      string    // users.role
    IsActive  bool      // users.is_active
    CreatedAt time.Time // users.created_at
}

// Actor identifies who performs a transition.
type Actor struct {
    ID   uint64
    Role string
}

// CanProcess reports whether the actor may approve or reject.
func (a Actor) CanProcess() bool { return a.Role == RoleApprover || a.Role == RoleAdmin }

// Privileged reports whether the actor holds the highest tier.
func (a Actor) Privileged() bool { return a.Role == RoleAdmin }
