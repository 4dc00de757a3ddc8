package model

import (
    "encoding/json"
    "time"
)

// AuditAction tags the transition an audit entry records.
type AuditAction string

const (
    AuditCreated   AuditAction = "created"
    AuditApproved  AuditAction = "approved"
    AuditRejected  AuditAction = "rejected"
    AuditModified  AuditAction = "modified"
    AuditCancelled AuditAction = "cancelled"
)

// AuditEntry is an immutable record of one booking transition.  Before
// is empty for the created action.  Entries are append-only and their
// order for a booking follows ID.
type AuditEntry struct {
    ID        uint64          `json:"id"`                     // booking_audit.id
    BookingID uint64          `json:"booking_id"`             // booking_audit.booking_id
    ActorID   uint64          `json:"actor_id"`               // booking_audit.actor_id
    Action    AuditAction     `json:"action"`                 // booking_audit.action
    Before    json.RawMessage `json:"before_state,omitempty"` // booking_audit.before_state (nullable)
    After     json.RawMessage `json:"after_state"`            // booking_audit.after_state
    CreatedAt time.Time       `json:"created_at"`             // booking_audit.created_at
}
