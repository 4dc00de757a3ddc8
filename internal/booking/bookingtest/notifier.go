package bookingtest

import (
	"context"
	"sync"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
)

// Notifier records every notification it is asked to send.  When Err is
// set each call records the notification and then fails with Err.
type Notifier struct {
	mu   sync.Mutex
	sent []booking.Notification
	Err  error
}

var _ booking.Notifier = (*Notifier)(nil)

func (n *Notifier) record(x booking.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, x)
	return n.Err
}

func (n *Notifier) NotifyCreated(ctx context.Context, x booking.Notification) error {
	return n.record(x)
}

func (n *Notifier) NotifyApproved(ctx context.Context, x booking.Notification) error {
	return n.record(x)
}

func (n *Notifier) NotifyRejected(ctx context.Context, x booking.Notification) error {
	return n.record(x)
}

func (n *Notifier) NotifyModified(ctx context.Context, x booking.Notification) error {
	return n.record(x)
}

// Sent returns a copy of the recorded notifications.
func (n *Notifier) Sent() []booking.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]booking.Notification(nil), n.sent...)
}
