package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartConsumer consumes the events queue and appends one line per event to
// <logDir>/pollution.log.  It reconnects with capped exponential backoff and
// returns only when ctx is cancelled.
func StartConsumer(ctx context.Context, url, queueName, logDir string) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			slog.Warn("pollution-consumer: dial failed", slog.String("err", err.Error()), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queueName, logDir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("pollution-consumer: loop ended, reconnecting", slog.String("err", err.Error()))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName, logDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		slog.Warn("pollution-consumer: set QoS failed", slog.String("err", err.Error()))
	}
	if _, err := declare(ch, queueName); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "pollution.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(f, d.Body); err != nil {
				slog.Warn("pollution-consumer: handle message failed", slog.String("err", err.Error()))
				_ = d.Nack(false, false) // reject without requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event body and writes its log line to w.
func HandleMessage(w io.Writer, body []byte) error {
	var ev PollutionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.PollutionID == 0 {
		return errors.New("event without type or pollution_id")
	}
	owner := ev.UtilisateurID
	if owner == "" {
		owner = "anonymous"
	}
	line := fmt.Sprintf("[%s] %s | pollution_id=%d | owner=%s | actor=%s | type=%q | lieu=%q | titre=%q\n",
		ev.OccurredAt, ev.Type, ev.PollutionID, owner, ev.ActorID, ev.TypePollution, ev.Lieu, ev.Titre)
	_, err := io.WriteString(w, line)
	return err
}
