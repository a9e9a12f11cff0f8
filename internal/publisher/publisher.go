package publisher

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transport hands keyed records to a broker.
//
// Produce must not block on delivery. It calls done exactly once, from any
// goroutine and possibly before Produce returns, with either the assigned
// position or an error.
type Transport interface {
	Produce(ctx context.Context, topic string, key, value []byte, done func(partition int32, offset int64, err error))
	Close() error
}

// Logger defines the logging interface used by the Publisher.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Stats counts records by terminal state.
type Stats struct {
	Submitted int
	Delivered int
	Failed    int
}

// Publisher submits records to a Transport and tracks each one until its
// delivery outcome is known.
//
// Every submitted record is reported exactly once: either by the transport's
// completion callback or, if a Drain deadline passes first, as a
// FailureTimeout. A transport callback that arrives after its record was
// expired is ignored. Failed records are never resubmitted.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Publisher struct {
	transport Transport
	topic     string
	logger    Logger
	observers []func(Outcome)
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]time.Time
	settled  chan struct{} // closed and replaced whenever a record settles
	stats    Stats
	closed   bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger outcomes are reported to.
func WithLogger(l Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// WithObserver registers a function called once per outcome, after it is
// logged. Observers must not call back into the Publisher.
func WithObserver(fn func(Outcome)) Option {
	return func(p *Publisher) { p.observers = append(p.observers, fn) }
}

// New creates a Publisher sending every record to topic.
func New(t Transport, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		transport: t,
		topic:     topic,
		logger:    noopLogger{},
		now:       time.Now,
		inflight:  make(map[string]time.Time),
		settled:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewKey returns a fresh random record key. Keys are never reused and carry
// no ordering meaning.
func NewKey() string {
	return uuid.NewString()
}

// Topic returns the destination topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// Publish submits a record without waiting for its delivery outcome.
//
// An error is returned only when the record could not be submitted at all
// (closed publisher or duplicate key); transport failures are reported
// through the outcome path instead.
func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if _, dup := p.inflight[key]; dup {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	p.inflight[key] = p.now()
	p.stats.Submitted++
	p.mu.Unlock()

	p.transport.Produce(ctx, p.topic, []byte(key), value, func(partition int32, offset int64, err error) {
		p.complete(key, partition, offset, err)
	})
	return nil
}

// complete records the transport's outcome for key.
func (p *Publisher) complete(key string, partition int32, offset int64, err error) {
	p.mu.Lock()
	submitted, ok := p.inflight[key]
	if !ok {
		p.mu.Unlock()
		p.logger.Warn("late delivery report ignored", "key", key, "topic", p.topic, "error", err)
		return
	}
	delete(p.inflight, key)
	if err == nil {
		p.stats.Delivered++
	} else {
		p.stats.Failed++
	}
	p.signalLocked()
	p.mu.Unlock()

	o := Outcome{
		Key:       key,
		Topic:     p.topic,
		Partition: partition,
		Offset:    offset,
		Latency:   p.now().Sub(submitted),
	}
	if err != nil {
		o.Err = fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
		o.Class = Classify(err)
	}
	p.report(o)
}

// Drain blocks until every outstanding record has an outcome or timeout
// elapses. Records still outstanding at the deadline are reported as
// FailureTimeout and their keys returned in sorted order; nil means
// everything settled.
func (p *Publisher) Drain(timeout time.Duration) []string {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		p.mu.Lock()
		if len(p.inflight) == 0 {
			p.mu.Unlock()
			return nil
		}
		wait := p.settled
		p.mu.Unlock()

		select {
		case <-wait:
		case <-timer.C:
			return p.expire()
		}
	}
}

// expire fails every outstanding record with ErrDrainTimeout.
func (p *Publisher) expire() []string {
	p.mu.Lock()
	if len(p.inflight) == 0 {
		p.mu.Unlock()
		return nil
	}
	now := p.now()
	expired := make(map[string]time.Time, len(p.inflight))
	for key, submitted := range p.inflight {
		expired[key] = submitted
	}
	p.stats.Failed += len(expired)
	p.inflight = make(map[string]time.Time)
	p.signalLocked()
	p.mu.Unlock()

	keys := make([]string, 0, len(expired))
	for key := range expired {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		p.report(Outcome{
			Key:     key,
			Topic:   p.topic,
			Err:     fmt.Errorf("%w: %w", ErrDeliveryFailed, ErrDrainTimeout),
			Class:   FailureTimeout,
			Latency: now.Sub(expired[key]),
		})
	}
	return keys
}

func (p *Publisher) signalLocked() {
	close(p.settled)
	p.settled = make(chan struct{})
}

// report logs an outcome and notifies observers.
func (p *Publisher) report(o Outcome) {
	if o.Delivered() {
		p.logger.Info("record produced",
			"key", o.Key,
			"topic", o.Topic,
			"partition", o.Partition,
			"offset", o.Offset,
			"latency", o.Latency,
		)
	} else {
		p.logger.Error("delivery failed",
			"key", o.Key,
			"topic", o.Topic,
			"class", string(o.Class),
			"error", o.Err,
		)
	}

	for _, fn := range p.observers {
		fn(o)
	}
}

// Outstanding returns the number of records awaiting an outcome.
func (p *Publisher) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// Stats returns a snapshot of the delivery counters.
func (p *Publisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Close stops accepting records, drains what is outstanding within timeout
// and closes the transport. It returns the keys that never settled.
func (p *Publisher) Close(timeout time.Duration) ([]string, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, nil
	}
	p.closed = true
	p.mu.Unlock()

	pending := p.Drain(timeout)
	if err := p.transport.Close(); err != nil {
		return pending, fmt.Errorf("closing transport: %w", err)
	}
	return pending, nil
}
