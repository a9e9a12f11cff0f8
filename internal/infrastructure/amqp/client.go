package amqp

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nerrad567/batterygen/internal/infrastructure/config"
	"github.com/nerrad567/batterygen/internal/publisher"
)

const (
	defaultDialTimeout = 10 * time.Second

	// contentType marks bodies as schema-registry framed Avro.
	contentType = "application/vnd.confluent.avro"
)

// Logger interface for optional logging support.
type Logger interface {
	Warn(msg string, args ...any)
}

// Client publishes keyed records to a RabbitMQ exchange using publisher
// confirms.
//
// The record key is carried as the message id and the topic as the routing
// key. A broker ack reports partition 0 and the confirm delivery tag as
// offset; a nack is reported as publisher.ErrRejected.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string

	mu     sync.Mutex // serialises publishes so delivery tags match submission order
	closed bool

	logger   Logger
	loggerMu sync.RWMutex
}

// Connect dials the broker, opens a channel in confirm mode and declares
// the exchange when one is configured. An empty exchange publishes through
// the default exchange, routing directly to the queue named by the topic.
func Connect(ctx context.Context, cfg config.AMQPConfig) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Dial: amqp.DefaultDial(defaultDialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: open channel: %w", ErrConnectionFailed, err)
	}

	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, exchangeKind(cfg.ExchangeType), true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: declare exchange %q: %w", ErrConnectionFailed, cfg.Exchange, err)
		}
	}

	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: enable confirms: %w", ErrConnectionFailed, err)
	}

	c := &Client{conn: conn, ch: ch, exchange: cfg.Exchange}
	go c.watchClose(conn.NotifyClose(make(chan *amqp.Error, 1)))

	return c, nil
}

func exchangeKind(kind string) string {
	if kind == "" {
		return amqp.ExchangeTopic
	}
	return kind
}

func (c *Client) watchClose(ch <-chan *amqp.Error) {
	err, ok := <-ch
	if !ok || err == nil {
		return
	}
	if logger := c.getLogger(); logger != nil {
		logger.Warn("amqp connection closed", "code", err.Code, "reason", err.Reason)
	}
}

// Produce publishes one record and reports the broker confirm to done from a
// separate goroutine.
func (c *Client) Produce(ctx context.Context, topic string, key, value []byte, done func(partition int32, offset int64, err error)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		done(-1, -1, ErrClosed)
		return
	}
	dc, err := c.ch.PublishWithDeferredConfirmWithContext(ctx, c.exchange, topic, false, false,
		buildPublishing(key, value, time.Now()))
	c.mu.Unlock()

	if err != nil {
		done(-1, -1, fmt.Errorf("%w: %w", ErrPublishFailed, err))
		return
	}

	go func() {
		acked, err := dc.WaitContext(ctx)
		switch {
		case err != nil:
			done(-1, -1, fmt.Errorf("%w: %w", ErrPublishFailed, err))
		case !acked:
			done(-1, -1, nackError(dc.DeliveryTag))
		default:
			done(0, int64(dc.DeliveryTag), nil)
		}
	}()
}

// nackError marks a nack as a broker rejection for outcome classification.
func nackError(tag uint64) error {
	return fmt.Errorf("%w: delivery tag %d: %w", ErrNacked, tag, publisher.ErrRejected)
}

func buildPublishing(key, value []byte, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    string(key),
		Timestamp:    now,
		Body:         value,
	}
}

// HealthCheck reports whether the connection and channel are open.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("amqp health check: %w", err)
	}
	if c.conn == nil || c.conn.IsClosed() || c.ch.IsClosed() {
		return fmt.Errorf("amqp health check: %w", ErrClosed)
	}
	return nil
}

// SetLogger sets a logger for connection events.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Close closes the channel and connection. Unconfirmed messages are left to
// the caller's drain.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		c.closed = true
		return nil
	}
	c.closed = true

	if err := c.ch.Close(); err != nil && !c.conn.IsClosed() {
		c.conn.Close()
		return fmt.Errorf("amqp close channel: %w", err)
	}
	if err := c.conn.Close(); err != nil && err != amqp.ErrClosed {
		return fmt.Errorf("amqp close connection: %w", err)
	}
	return nil
}
