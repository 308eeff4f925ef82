package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends PollutionEvents to a durable queue.  It dials per publish:
// report mutations are rare enough that a long-lived channel is not worth
// the reconnect bookkeeping.
type Publisher struct {
	URL         string
	Queue       string
	DialTimeout time.Duration
}

// NewPublisher returns a Publisher for the given broker URL and queue.
func NewPublisher(url, queueName string) *Publisher {
	return &Publisher{URL: url, Queue: queueName, DialTimeout: 2 * time.Second}
}

// Publish marshals the event and publishes it as a persistent message.
// Errors are logged and returned; callers treat them as non-fatal.
func (p *Publisher) Publish(ctx context.Context, ev PollutionEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.DialTimeout)})
	if err != nil {
		slog.Warn("rabbitmq: dial failed", slog.String("err", err.Error()))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq: channel open failed", slog.String("err", err.Error()))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch, p.Queue); err != nil {
		slog.Warn("rabbitmq: queue declare failed", slog.String("err", err.Error()))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         ev.Type,
			Body:         body,
		})
}

// declare is idempotent; durable so events survive broker restarts.
func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, true, false, false, false, nil)
}

// NopPublisher drops every event.  Used when the queue is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PollutionEvent) error { return nil }
