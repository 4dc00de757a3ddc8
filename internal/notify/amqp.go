package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/queue"
)

// AMQPNotifier publishes every notification to a durable RabbitMQ queue
// as a persistent JSON message.  A connection is opened per publish;
// notification volume is a handful per booking.
type AMQPNotifier struct {
	url   string
	queue string
	log   *logrus.Entry
	now   func() time.Time
}

var _ booking.Notifier = (*AMQPNotifier)(nil)

// NewAMQPNotifier publishes to queueName (queue.NotificationQueue when
// empty) on the broker at url.
func NewAMQPNotifier(url, queueName string, log *logrus.Entry) *AMQPNotifier {
	if queueName == "" {
		queueName = queue.NotificationQueue
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &AMQPNotifier{url: url, queue: queueName, log: log.WithField("component", "notify"), now: time.Now}
}

func (a *AMQPNotifier) NotifyCreated(ctx context.Context, n booking.Notification) error {
	return a.publish(ctx, n)
}

func (a *AMQPNotifier) NotifyApproved(ctx context.Context, n booking.Notification) error {
	return a.publish(ctx, n)
}

func (a *AMQPNotifier) NotifyRejected(ctx context.Context, n booking.Notification) error {
	return a.publish(ctx, n)
}

func (a *AMQPNotifier) NotifyModified(ctx context.Context, n booking.Notification) error {
	return a.publish(ctx, n)
}

func (a *AMQPNotifier) publish(ctx context.Context, n booking.Notification) error {
	ev := toEvent(n, a.now())
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(a.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(a.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Kind,
		Timestamp:    a.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", a.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	a.log.WithFields(logrus.Fields{"booking_code": ev.BookingCode, "kind": ev.Kind, "message_id": ev.ID}).Debug("notification published")
	return nil
}
