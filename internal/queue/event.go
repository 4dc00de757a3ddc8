// Package queue defines the notification payload exchanged over the
// message broker and the consumer that appends one line per delivery to
// the notification outbox log.
package queue

// NotificationQueue is the default queue applicant notifications are
// published to.
const NotificationQueue = "booking.notifications"

// NotificationEvent is published after a booking transition commits.  It
// is self-contained so consumers can render a message to the applicant
// without querying the primary database.  Times are RFC3339 in UTC.
type NotificationEvent struct {
    ID                string `json:"id"`
    Kind              string `json:"kind"`
    BookingCode       string `json:"booking_code"`
    Status            string `json:"status"`
    ApplicantName     string `json:"applicant_name"`
    ApplicantEmail    string `json:"applicant_email"`
    ApplicantUnit     string `json:"applicant_unit"`
    DepartureAt       string `json:"departure_at"`
    ReturnAt          string `json:"return_at"`
    Destination       string `json:"destination"`
    Purpose           string `json:"purpose"`
    Passengers        string `json:"passengers,omitempty"`
    Driver            string `json:"driver,omitempty"`
    Vehicle           string `json:"vehicle,omitempty"`
    DriverInstruction bool   `json:"driver_instruction"`
    Reason            string `json:"reason,omitempty"`
    Notes             string `json:"notes,omitempty"`
    ProcessedBy       string `json:"processed_by,omitempty"`
    SentAt            string `json:"sent_at"`
}
