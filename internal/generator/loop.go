package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nerrad567/batterygen/internal/device"
	"github.com/nerrad567/batterygen/internal/event"
	"github.com/nerrad567/batterygen/internal/publisher"
)

// Status represents the state of the generator loop.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
)

// Default loop settings.
const (
	DefaultIterations   = 10000
	DefaultFlushEvery   = 1
	DefaultDrainTimeout = 5 * time.Second
)

// Config holds the loop settings.
type Config struct {
	// Iterations is the number of readings to generate. Zero generates none.
	Iterations int

	// FlushEvery is how many records are submitted between drains.
	// 1 waits for every record before generating the next.
	FlushEvery int

	// DrainTimeout bounds each drain; records still outstanding are
	// reported as timeout failures.
	DrainTimeout time.Duration

	// Seed fixes the device picker for reproducible runs. Zero seeds randomly.
	Seed uint64
}

// Encoder serialises a reading for publication.
type Encoder interface {
	Encode(r device.Reading) ([]byte, error)
}

// Publisher submits encoded records and tracks their delivery.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Drain(timeout time.Duration) []string
	Stats() publisher.Stats
	Topic() string
}

// Recorder receives every generated reading, whether or not it is published.
type Recorder interface {
	WriteReading(r device.Reading)
}

// Logger defines the logging interface for the loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Summary describes a finished run.
type Summary struct {
	Iterations  int  `json:"iterations"`
	Produced    int  `json:"produced"`
	Delivered   int  `json:"delivered"`
	Failed      int  `json:"failed"`
	Dropped     int  `json:"dropped"`
	Interrupted bool `json:"interrupted"`
}

// Loop drives the pick, simulate, encode, publish, drain cycle.
//
// Only Run's goroutine touches the registry; the mutex guards status so it
// can be read from elsewhere.
type Loop struct {
	cfg       Config
	registry  *device.Registry
	simulator device.Simulator
	encoder   Encoder
	publisher Publisher
	recorder  Recorder
	logger    Logger
	newKey    func() string

	mu        sync.RWMutex
	status    Status
	iteration int
}

// New creates a loop over the devices in registry.
func New(cfg Config, registry *device.Registry, sim device.Simulator, enc Encoder, pub Publisher) *Loop {
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = DefaultFlushEvery
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	return &Loop{
		cfg:       cfg,
		registry:  registry,
		simulator: sim,
		encoder:   enc,
		publisher: pub,
		logger:    noopLogger{},
		newKey:    publisher.NewKey,
		status:    StatusStopped,
	}
}

// SetLogger sets the logger for the loop.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// SetRecorder mirrors every generated reading to rec.
func (l *Loop) SetRecorder(rec Recorder) {
	l.recorder = rec
}

// Status returns the current loop state.
func (l *Loop) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Iteration returns how many iterations the current or last run completed.
func (l *Loop) Iteration() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.iteration
}

// Run generates cfg.Iterations readings and returns once every submitted
// record has an outcome or its drain expired.
//
// Cancelling ctx stops the loop between iterations. Records already
// submitted are still drained: publishing uses a context detached from
// ctx's cancellation so an interrupt does not abort in-flight deliveries.
//
// Schema violations drop the reading and delivery failures are counted;
// neither stops the loop. An error is returned only when the registry or
// publisher is unusable.
func (l *Loop) Run(ctx context.Context) (Summary, error) {
	ids := l.registry.IDs()
	if len(ids) == 0 {
		return Summary{}, ErrNoDevices
	}

	l.mu.Lock()
	if l.status == StatusRunning {
		l.mu.Unlock()
		return Summary{}, ErrAlreadyRunning
	}
	l.status = StatusRunning
	l.iteration = 0
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.status = StatusStopped
		l.mu.Unlock()
	}()

	l.logger.Info("generator started",
		"iterations", l.cfg.Iterations,
		"devices", len(ids),
		"topic", l.publisher.Topic(),
		"flush_every", l.cfg.FlushEvery,
	)

	pick := newPicker(l.cfg.Seed)
	publishCtx := context.WithoutCancel(ctx)
	before := l.publisher.Stats()

	var summary Summary
	pending := 0

	for remaining := l.cfg.Iterations; remaining > 0; remaining-- {
		if ctx.Err() != nil {
			summary.Interrupted = true
			l.logger.Warn("generator interrupted", "completed", summary.Iterations, "remaining", remaining)
			break
		}

		id := ids[pick.IntN(len(ids))]
		submitted, err := l.step(publishCtx, id, &summary)
		if err != nil {
			l.drain()
			return l.finish(summary, before), err
		}
		summary.Iterations++
		l.mu.Lock()
		l.iteration = summary.Iterations
		l.mu.Unlock()

		if submitted {
			pending++
		}
		if pending >= l.cfg.FlushEvery {
			l.drain()
			pending = 0
		}
	}

	if pending > 0 {
		l.drain()
	}

	summary = l.finish(summary, before)
	l.logger.Info("generator stopped",
		"iterations", summary.Iterations,
		"produced", summary.Produced,
		"delivered", summary.Delivered,
		"failed", summary.Failed,
		"dropped", summary.Dropped,
		"interrupted", summary.Interrupted,
	)
	return summary, nil
}

// step performs one iteration for device id. It reports whether a record
// was submitted.
func (l *Loop) step(ctx context.Context, id int64, summary *Summary) (bool, error) {
	reading, err := l.simulator.Advance(l.registry, id)
	if err != nil {
		return false, fmt.Errorf("advancing device %d: %w", id, err)
	}
	if l.recorder != nil {
		l.recorder.WriteReading(reading)
	}

	value, err := l.encoder.Encode(reading)
	if err != nil {
		if errors.Is(err, event.ErrSchemaViolation) {
			summary.Dropped++
			l.logger.Warn("reading dropped",
				"device_id", reading.DeviceID,
				"charge", reading.Charge.String(),
				"event_time", reading.EventTime,
				"error", err,
			)
			return false, nil
		}
		return false, fmt.Errorf("encoding reading for device %d: %w", id, err)
	}

	key := l.newKey()
	if err := l.publisher.Publish(ctx, key, value); err != nil {
		return false, fmt.Errorf("publishing reading for device %d: %w", id, err)
	}
	summary.Produced++

	l.logger.Debug("reading submitted",
		"key", key,
		"device_id", reading.DeviceID,
		"class", reading.Class,
		"charge", reading.Charge.StringFixed(device.ChargeScale),
		"event_time", reading.EventTime,
	)
	return true, nil
}

func (l *Loop) drain() {
	if expired := l.publisher.Drain(l.cfg.DrainTimeout); len(expired) > 0 {
		l.logger.Warn("drain timed out", "outstanding", len(expired), "timeout", l.cfg.DrainTimeout)
	}
}

// finish fills delivery counters from the publisher's stats delta.
func (l *Loop) finish(s Summary, before publisher.Stats) Summary {
	after := l.publisher.Stats()
	s.Delivered = after.Delivered - before.Delivered
	s.Failed = after.Failed - before.Failed
	return s
}

// newPicker returns the uniform device picker. A zero seed draws a random one.
func newPicker(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}
