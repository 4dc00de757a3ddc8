package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
)

// LogNotifier writes each notification as a structured log record.  It
// is the default provider for local development.
type LogNotifier struct {
	log *logrus.Entry
}

var _ booking.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log *logrus.Entry) *LogNotifier {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LogNotifier{log: log.WithField("component", "notify")}
}

func (l *LogNotifier) NotifyCreated(ctx context.Context, n booking.Notification) error {
	return l.write(n, "booking submitted")
}

func (l *LogNotifier) NotifyApproved(ctx context.Context, n booking.Notification) error {
	return l.write(n, "booking approved")
}

func (l *LogNotifier) NotifyRejected(ctx context.Context, n booking.Notification) error {
	return l.write(n, "booking rejected")
}

func (l *LogNotifier) NotifyModified(ctx context.Context, n booking.Notification) error {
	return l.write(n, "booking modified")
}

func (l *LogNotifier) write(n booking.Notification, msg string) error {
	fields := logrus.Fields{
		"kind":         n.Kind,
		"booking_code": n.BookingCode,
		"status":       n.Status,
		"to":           n.ApplicantEmail,
		"applicant":    n.ApplicantName,
		"unit":         n.ApplicantUnit,
		"departure_at": n.DepartureAt.UTC().Format(time.RFC3339),
		"return_at":    n.ReturnAt.UTC().Format(time.RFC3339),
		"destination":  n.Destination,
	}
	if n.Driver != "" {
		fields["driver"] = n.Driver
	}
	if n.Vehicle != "" {
		fields["vehicle"] = n.Vehicle
	}
	if n.Reason != "" {
		fields["reason"] = n.Reason
	}
	if n.ProcessorName != "" {
		fields["processed_by"] = n.ProcessorName
	}
	l.log.WithFields(fields).Info(msg)
	return nil
}
