package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPConfig wires the durable event transport.
type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// AMQP publishes stage-completion events onto a durable exchange and, when
// consuming, dispatches deliveries to a handler. Durable queues make the
// stage handoff at-least-once instead of a best-effort call that vanishes
// if the publishing process exits.
type AMQP struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	logger   *slog.Logger
}

// NewAMQP connects, declares the exchange and queue, and binds them.
func NewAMQP(cfg AMQPConfig, logger *slog.Logger) (*AMQP, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	// One queue receives every pipeline event; the routing key is the
	// event type.
	if err := ch.QueueBind(q.Name, "recording.*", cfg.Exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.Queue,
	)

	return &AMQP{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		queue:    q.Name,
		logger:   logger,
	}, nil
}

// Publish sends the event as a persistent message.
func (a *AMQP) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = a.channel.PublishWithContext(ctx, a.exchange, string(e.Type), false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	a.logger.Debug("published event",
		"type", string(e.Type),
		"recording_id", e.RecordingID,
	)
	return nil
}

// Consume delivers queued events to handler until ctx is canceled. Handler
// failures nack without requeue; the persisted recording status carries
// the failure, and re-invoking the stage is safe.
func (a *AMQP) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := a.channel.Consume(a.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			var e Event
			if err := json.Unmarshal(d.Body, &e); err != nil {
				a.logger.Error("undecodable event dropped", "error", err)
				d.Nack(false, false)
				continue
			}

			if err := handler.Handle(ctx, e); err != nil {
				a.logger.Error("event handler failed",
					"type", string(e.Type),
					"recording_id", e.RecordingID,
					"error", err,
				)
				d.Nack(false, false)
				continue
			}
			d.Ack(false)
		}
	}
}

// Close shuts down the channel and connection.
func (a *AMQP) Close() error {
	if a.channel != nil {
		a.channel.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
