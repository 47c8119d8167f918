// Package eventbus hides the broker's wire details behind publish and
// consume operations, injecting and extracting B3 trace-context headers
// on every message.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/mmodel"
)

// Connection owns a single AMQP connection and channel against a durable
// topic exchange, declared idempotently on connect.
type Connection struct {
	uri      string
	exchange string
	conn     *amqp.Connection
	channel  *amqp.Channel
	logger   mlog.Logger
	propagator propagation.TextMapPropagator
}

// Connect dials uri and declares exchange as a durable topic exchange.
func Connect(uri, exchange string, logger mlog.Logger) (*Connection, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("eventbus: failed to dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()

		return nil, fmt.Errorf("eventbus: failed to declare exchange: %w", err)
	}

	return &Connection{
		uri:        uri,
		exchange:   exchange,
		conn:       conn,
		channel:    ch,
		logger:     logger,
		propagator: b3.New(b3.WithInjectEncoding(b3.MultipleHeader)),
	}, nil
}

// Close tears down the channel and connection.
func (c *Connection) Close() error {
	if err := c.channel.Close(); err != nil {
		return err
	}

	return c.conn.Close()
}

type headerCarrier amqp.Table

func (h headerCarrier) Get(key string) string {
	v, ok := h[key]
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}

func (h headerCarrier) Set(key, value string) {
	h[key] = value
}

func (h headerCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}

	return keys
}

// Publish delivers event to routingKey on the configured exchange with a
// bounded retry budget. Terminal failure (retry budget exhausted) is
// returned so the caller (the outbox Dispatcher) can mark the row FAILED;
// transport errors during individual attempts are retried transparently.
func (c *Connection) Publish(ctx context.Context, routingKey string, event mmodel.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventbus: failed to encode event: %w", err)
	}

	headers := amqp.Table{}
	c.propagator.Inject(ctx, headerCarrier(headers))

	return c.publishWithRetry(ctx, routingKey, body, headers)
}

func (c *Connection) publishWithRetry(ctx context.Context, routingKey string, body []byte, headers amqp.Table) error {
	const maxAttempts = 5

	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := c.channel.PublishWithContext(ctx, c.exchange, routingKey, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      headers,
			Body:         body,
		})
		if err == nil {
			return nil
		}

		lastErr = err
		c.logger.Warnf("eventbus: publish attempt %d/%d failed: %v", attempt, maxAttempts, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	return fmt.Errorf("eventbus: publish exhausted retry budget: %w", lastErr)
}

// Delivery is a single consumed message paired with its ack/nack token and
// a context carrying the extracted trace span.
type Delivery struct {
	Ctx   context.Context
	Event mmodel.DomainEvent
	ack   func() error
	nack  func() error
}

// Ack acknowledges the delivery, removing it from the queue permanently.
func (d Delivery) Ack() error { return d.ack() }

// Nack negatively acknowledges the delivery and requeues it. A handler or
// composition failure is expected to be transient (a downstream timeout,
// an unreachable upstream), so the message is redelivered rather than
// discarded; a permanently malformed payload is rejected separately, at
// decode time, without ever reaching a Delivery.
func (d Delivery) Nack() error { return d.nack() }

// Consume declares a durable queue bound to routingKey on the configured
// exchange and streams deliveries one at a time.
func (c *Connection) Consume(ctx context.Context, queue, routingKey string) (<-chan Delivery, error) {
	if _, err := c.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("eventbus: failed to declare queue %s: %w", queue, err)
	}

	if err := c.channel.QueueBind(queue, routingKey, c.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("eventbus: failed to bind queue %s: %w", queue, err)
	}

	msgs, err := c.channel.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("eventbus: failed to start consuming %s: %w", queue, err)
	}

	out := make(chan Delivery)

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var event mmodel.DomainEvent
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					c.logger.Errorf("eventbus: failed to decode delivery on %s: %v", queue, err)
					_ = msg.Nack(false, false)

					continue
				}

				msgCtx := c.propagator.Extract(ctx, headerCarrier(msg.Headers))
				msgCtx, span := otel.Tracer("eventbus").Start(msgCtx, "eventbus.consume")

				delivery := Delivery{
					Ctx:   msgCtx,
					Event: event,
					ack:   func() error { defer span.End(); return msg.Ack(false) },
					nack:  func() error { defer span.End(); return msg.Nack(false, true) },
				}

				select {
				case out <- delivery:
				case <-ctx.Done():
					span.End()
					return
				}
			}
		}
	}()

	return out, nil
}
