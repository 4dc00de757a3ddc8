package booking

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-reservation/internal/metrics"
)

// Kind names the notification sent for a transition.
type Kind string

const (
	KindCreated  Kind = "created"
	KindApproved Kind = "approved"
	KindRejected Kind = "rejected"
	KindModified Kind = "modified"
)

// Notification is the flat data bag handed to a Notifier.
type Notification struct {
	Kind              Kind
	BookingCode       string
	Status            string
	ApplicantName     string
	ApplicantEmail    string
	ApplicantUnit     string
	DepartureAt       time.Time
	ReturnAt          time.Time
	Destination       string
	Purpose           string
	Passengers        string
	Driver            string
	Vehicle           string
	DriverInstruction bool
	Reason            string
	Notes             string
	ProcessorName     string
}

// Notifier delivers notifications to applicants.  Implementations are
// chosen once at startup.
type Notifier interface {
	NotifyCreated(ctx context.Context, n Notification) error
	NotifyApproved(ctx context.Context, n Notification) error
	NotifyRejected(ctx context.Context, n Notification) error
	NotifyModified(ctx context.Context, n Notification) error
}

// Dispatcher sends notifications in the background after a transition
// has committed.  Failures are logged and counted, never returned.
type Dispatcher struct {
	notifier Notifier
	log      *logrus.Entry
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher wraps n.  A nil notifier makes every dispatch a no-op.
func NewDispatcher(n Notifier, log *logrus.Entry, timeout time.Duration) *Dispatcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{notifier: n, log: log.WithField("component", "notify"), timeout: timeout}
}

// Dispatch builds and sends one notification on its own goroutine.
func (d *Dispatcher) Dispatch(kind Kind, code string, build func(ctx context.Context) (Notification, error)) {
	if d == nil || d.notifier == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		entry := d.log.WithFields(logrus.Fields{"kind": kind, "booking_code": code})
		defer func() {
			if r := recover(); r != nil {
				metrics.RecordNotification(string(kind), false)
				entry.WithField("panic", r).Error("notifier panicked")
			}
		}()
		n, err := build(ctx)
		if err == nil {
			err = d.send(ctx, kind, n)
		}
		metrics.RecordNotification(string(kind), err == nil)
		if err != nil {
			entry.WithError(err).Warn("notification not delivered")
			return
		}
		entry.Debug("notification delivered")
	}()
}

func (d *Dispatcher) send(ctx context.Context, kind Kind, n Notification) error {
	switch kind {
	case KindCreated:
		return d.notifier.NotifyCreated(ctx, n)
	case KindApproved:
		return d.notifier.NotifyApproved(ctx, n)
	case KindRejected:
		return d.notifier.NotifyRejected(ctx, n)
	default:
		return d.notifier.NotifyModified(ctx, n)
	}
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
