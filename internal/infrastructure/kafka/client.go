package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/nerrad567/batterygen/internal/infrastructure/config"
)

// Client is a Kafka producer.
//
// Records are produced asynchronously; the completion callback passed to
// Produce runs on a franz-go goroutine once the broker acknowledges the
// record or the client gives up on it.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client *kgo.Client
}

// Connect creates the producer and pings the cluster so an unreachable
// or misconfigured broker fails at startup rather than on the first record.
func Connect(ctx context.Context, cfg config.KafkaConfig) (*Client, error) {
	opts, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := cl.Ping(pingCtx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Client{client: cl}, nil
}

// Produce submits one keyed record. done receives the partition and offset
// assigned by the broker, or the error that ended the record.
func (c *Client) Produce(ctx context.Context, topic string, key, value []byte, done func(partition int32, offset int64, err error)) {
	rec := &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: value,
	}
	c.client.Produce(ctx, rec, func(r *kgo.Record, err error) {
		if err != nil {
			done(-1, -1, err)
			return
		}
		done(r.Partition, r.Offset, nil)
	})
}

// HealthCheck pings the cluster.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka health check: %w", err)
	}
	return nil
}

// Close flushes buffered records and closes the client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	err := c.client.Flush(ctx)
	c.client.Close()
	if err != nil {
		return fmt.Errorf("kafka flush on close: %w", err)
	}
	return nil
}
