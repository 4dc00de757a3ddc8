// Package notify holds the notifier strategies.  Exactly one is chosen at
// startup from configuration and handed to the booking dispatcher.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/queue"
)

// Providers accepted by New.
const (
	ProviderAMQP = "amqp"
	ProviderLog  = "log"
)

// Options selects and configures a notifier.
type Options struct {
	Provider string
	URL      string
	Queue    string
}

// New returns the notifier named by opts.Provider.
func New(opts Options, log *logrus.Entry) (booking.Notifier, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderAMQP:
		if opts.URL == "" {
			return nil, fmt.Errorf("notifier %q needs a broker url", ProviderAMQP)
		}
		return NewAMQPNotifier(opts.URL, opts.Queue, log), nil
	case ProviderLog, "":
		return NewLogNotifier(log), nil
	default:
		return nil, fmt.Errorf("unknown notifier provider %q", opts.Provider)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toEvent flattens a notification into the broker payload.
func toEvent(n booking.Notification, now time.Time) queue.NotificationEvent {
	return queue.NotificationEvent{
		ID:                uuid.NewString(),
		Kind:              string(n.Kind),
		BookingCode:       n.BookingCode,
		Status:            n.Status,
		ApplicantName:     n.ApplicantName,
		ApplicantEmail:    n.ApplicantEmail,
		ApplicantUnit:     n.ApplicantUnit,
		DepartureAt:       formatTime(n.DepartureAt),
		ReturnAt:          formatTime(n.ReturnAt),
		Destination:       n.Destination,
		Purpose:           n.Purpose,
		Passengers:        n.Passengers,
		Driver:            n.Driver,
		Vehicle:           n.Vehicle,
		DriverInstruction: n.DriverInstruction,
		Reason:            n.Reason,
		Notes:             n.Notes,
		ProcessedBy:       n.ProcessorName,
		SentAt:            formatTime(now),
	}
}
