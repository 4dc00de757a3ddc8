package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// ConsumerConfig describes where to read from and where to write.
type ConsumerConfig struct {
    URL     string // broker URL
    Queue   string // queue name, NotificationQueue when empty
    LogPath string // outbox file, logs/notifications.log when empty
}

// StartNotificationConsumer connects to RabbitMQ, declares the queue
// (durable) and consumes until ctx is cancelled.  Each message is
// appended to the outbox log in a single-line, human-friendly format.
// Broker failures trigger a reconnect with exponential backoff; a
// malformed message is rejected without requeue so the loop keeps going.
func StartNotificationConsumer(ctx context.Context, cfg ConsumerConfig, log *logrus.Entry) error {
    if cfg.Queue == "" {
        cfg.Queue = NotificationQueue
    }
    if cfg.LogPath == "" {
        cfg.LogPath = filepath.Join("logs", "notifications.log")
    }
    if log == nil {
        log = logrus.NewEntry(logrus.StandardLogger())
    }
    log = log.WithFields(logrus.Fields{"component": "notification-consumer", "queue": cfg.Queue})

    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, cfg, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, log *logrus.Entry) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.WithError(err).Warn("set QoS failed")
    }

    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(d.Body, cfg.LogPath); err != nil {
                log.WithError(err).Error("handle message failed")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(body []byte, path string) error {
    var ev NotificationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.BookingCode == "" || ev.Kind == "" {
        return errors.New("event without booking code or kind")
    }
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir outbox: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open outbox: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write outbox: %w", err)
    }
    return nil
}

// bare strips line breaks from the unquoted fields.
var bare = strings.NewReplacer("\r", " ", "\n", " ")

// formatLine renders ev as exactly one outbox line.  Free-text fields are
// Go-quoted so embedded line breaks stay escaped.
func formatLine(ev NotificationEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] Booking %s | code=%s | status=%s | to=%q <%s> | unit=%q | departure=%s | return=%s | destination=%q | purpose=%q",
        bare.Replace(ev.SentAt), bare.Replace(ev.Kind), bare.Replace(ev.BookingCode), bare.Replace(ev.Status),
        ev.ApplicantName, bare.Replace(ev.ApplicantEmail), ev.ApplicantUnit,
        bare.Replace(ev.DepartureAt), bare.Replace(ev.ReturnAt), ev.Destination, ev.Purpose)
    if ev.Driver != "" {
        fmt.Fprintf(&b, " | driver=%q", ev.Driver)
    }
    if ev.Vehicle != "" {
        fmt.Fprintf(&b, " | vehicle=%q", ev.Vehicle)
    }
    if ev.DriverInstruction {
        b.WriteString(" | driver_instruction=yes")
    }
    if ev.Reason != "" {
        fmt.Fprintf(&b, " | reason=%q", ev.Reason)
    }
    if ev.ProcessedBy != "" {
        fmt.Fprintf(&b, " | by=%q", ev.ProcessedBy)
    }
    b.WriteString("\n")
    return b.String()
}
