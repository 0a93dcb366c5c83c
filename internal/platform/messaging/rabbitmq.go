// File: internal/platform/messaging/rabbitmq.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/events"
)

// RabbitPublisher publishes lifecycle events to a durable queue as persistent JSON messages.
type RabbitPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

var _ events.Publisher = (*RabbitPublisher)(nil)

// dial opens a connection and channel and declares the durable queue.
func dial(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp queue declare %s: %w", queue, err)
	}
	return conn, ch, nil
}

// NewRabbitPublisher connects to url and declares queue.
func NewRabbitPublisher(url, queue string, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, ch, err := dial(url, queue)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to RabbitMQ publisher", zap.String("queue", queue))
	return &RabbitPublisher{conn: conn, ch: ch, queue: queue, logger: logger.Named("amqp_publisher")}, nil
}

// Publish encodes event as JSON and sends it through the default exchange.
// Channels are not safe for concurrent publishing, hence the mutex.
func (p *RabbitPublisher) Publish(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Type:         string(event.Type),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Close releases the channel and connection.
func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Consumer reads lifecycle events from the queue and dispatches them.
type Consumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	prefetch   int
	dispatcher *events.Dispatcher
	logger     *zap.Logger
}

// NewConsumer connects to url, declares queue and sets the prefetch window.
func NewConsumer(url, queue string, prefetch int, dispatcher *events.Dispatcher, logger *zap.Logger) (*Consumer, error) {
	conn, ch, err := dial(url, queue)
	if err != nil {
		return nil, err
	}
	if prefetch <= 0 {
		prefetch = 16
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp qos: %w", err)
	}
	return &Consumer{
		conn:       conn,
		ch:         ch,
		queue:      queue,
		prefetch:   prefetch,
		dispatcher: dispatcher,
		logger:     logger.Named("amqp_consumer"),
	}, nil
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}
	c.logger.Info("Event worker listening", zap.String("queue", c.queue), zap.Int("prefetch", c.prefetch))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("amqp delivery channel closed")
			}
			c.handle(ctx, msg)
		}
	}
}

// handle acks processed messages, drops undecodable ones and requeues on handler failure.
func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery) {
	var event events.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Warn("Dropping malformed event", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	if err := c.dispatcher.Dispatch(ctx, event); err != nil {
		// Redelivered messages that fail again are dropped to avoid a poison loop.
		requeue := !msg.Redelivered
		c.logger.Warn("Event handling failed",
			zap.String("eventID", event.ID.String()), zap.Bool("requeue", requeue), zap.Error(err))
		_ = msg.Nack(false, requeue)
		return
	}
	_ = msg.Ack(false)
}

// Close releases the channel and connection.
func (c *Consumer) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
