package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/batterygen/internal/device"
	"github.com/nerrad567/batterygen/internal/event"
	"github.com/nerrad567/batterygen/internal/infrastructure/schemaregistry"
	"github.com/nerrad567/batterygen/internal/publisher"
)

const testTopic = "picker_robot_battery_status"

// fakeTransport completes records inline unless hold is set.
type fakeTransport struct {
	mu      sync.Mutex
	keys    []string
	values  [][]byte
	failErr error
	hold    bool
	offset  int64
}

func (f *fakeTransport) Produce(_ context.Context, _ string, key, value []byte, done func(int32, int64, error)) {
	f.mu.Lock()
	f.keys = append(f.keys, string(key))
	f.values = append(f.values, value)
	off := f.offset
	f.offset++
	hold, failErr := f.hold, f.failErr
	f.mu.Unlock()

	switch {
	case hold:
	case failErr != nil:
		done(-1, -1, failErr)
	default:
		done(0, off, nil)
	}
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

// readings records every generated reading in order.
type readings struct {
	list  []device.Reading
	onAdd func(n int)
}

func (r *readings) WriteReading(rd device.Reading) {
	r.list = append(r.list, rd)
	if r.onAdd != nil {
		r.onAdd(len(r.list))
	}
}

// failingEncoder rejects readings for one device and encodes the rest.
type failingEncoder struct {
	inner  Encoder
	device int64
}

func (e failingEncoder) Encode(r device.Reading) ([]byte, error) {
	if r.DeviceID == e.device {
		return nil, fmt.Errorf("%w: device %d", event.ErrSchemaViolation, r.DeviceID)
	}
	return e.inner.Encode(r)
}

func newRegistry(t *testing.T) *device.Registry {
	t.Helper()
	states, err := device.States(device.DefaultSeeds, 1710951030000)
	require.NoError(t, err)
	reg, err := device.NewRegistry(states)
	require.NoError(t, err)
	return reg
}

func newEncoder(t *testing.T) *event.Encoder {
	t.Helper()
	enc, err := event.NewEncoder(schemaregistry.Schema{
		Subject:    testTopic + "-value",
		Version:    1,
		ID:         100001,
		Definition: event.BatteryStatusSchema,
	})
	require.NoError(t, err)
	return enc
}

func newLoop(t *testing.T, cfg Config, enc Encoder, tr *fakeTransport) (*Loop, *device.Registry, *publisher.Publisher) {
	t.Helper()
	reg := newRegistry(t)
	pub := publisher.New(tr, testTopic)
	if enc == nil {
		enc = newEncoder(t)
	}
	return New(cfg, reg, device.NewSimulator(device.DefaultEventInterval), enc, pub), reg, pub
}

func TestNew_Defaults(t *testing.T) {
	loop, _, _ := newLoop(t, Config{Iterations: 1}, nil, &fakeTransport{})

	assert.Equal(t, DefaultFlushEvery, loop.cfg.FlushEvery)
	assert.Equal(t, DefaultDrainTimeout, loop.cfg.DrainTimeout)
	assert.Equal(t, StatusStopped, loop.Status())
}

func TestRun_Budget(t *testing.T) {
	tr := &fakeTransport{}
	loop, _, _ := newLoop(t, Config{Iterations: 50, Seed: 1}, nil, tr)

	summary, err := loop.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Iterations: 50, Produced: 50, Delivered: 50}, summary)
	assert.Equal(t, 50, tr.count())
	assert.Equal(t, 50, loop.Iteration())
	assert.Equal(t, StatusStopped, loop.Status())
}

func TestRun_ZeroIterations(t *testing.T) {
	tr := &fakeTransport{}
	loop, _, _ := newLoop(t, Config{Iterations: 0}, nil, tr)

	summary, err := loop.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{}, summary)
	assert.Zero(t, tr.count())
}

func TestRun_UniqueKeys(t *testing.T) {
	tr := &fakeTransport{}
	loop, _, _ := newLoop(t, Config{Iterations: 200, Seed: 3}, nil, tr)

	_, err := loop.Run(context.Background())
	require.NoError(t, err)

	seen := make(map[string]bool, len(tr.keys))
	for _, k := range tr.keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestRun_PerDeviceProgression(t *testing.T) {
	rec := &readings{}
	loop, reg, _ := newLoop(t, Config{Iterations: 500, Seed: 7}, nil, &fakeTransport{})
	loop.SetRecorder(rec)

	_, err := loop.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.list, 500)

	last := map[int64]device.Reading{}
	for _, r := range rec.list {
		if prev, ok := last[r.DeviceID]; ok {
			assert.Equal(t, prev.EventTime+60000, r.EventTime, "device %d", r.DeviceID)
			assert.True(t, r.Charge.LessThanOrEqual(prev.Charge), "device %d charge rose", r.DeviceID)
		} else {
			assert.Equal(t, int64(1710951030000+60000), r.EventTime)
		}
		assert.False(t, r.Charge.IsNegative())
		last[r.DeviceID] = r
	}

	for id, r := range last {
		state, err := reg.Get(id)
		require.NoError(t, err)
		assert.Equal(t, r.EventTime, state.LastEventTime)
	}
}

func TestRun_SeedReproducible(t *testing.T) {
	sequence := func() []int64 {
		rec := &readings{}
		loop, _, _ := newLoop(t, Config{Iterations: 30, Seed: 42}, nil, &fakeTransport{})
		loop.SetRecorder(rec)
		_, err := loop.Run(context.Background())
		require.NoError(t, err)

		ids := make([]int64, len(rec.list))
		for i, r := range rec.list {
			ids[i] = r.DeviceID
		}
		return ids
	}

	assert.Equal(t, sequence(), sequence())
}

func TestRun_SchemaViolationDropsAndContinues(t *testing.T) {
	tr := &fakeTransport{}
	rec := &readings{}
	reg := newRegistry(t)
	pub := publisher.New(tr, testTopic)
	enc := failingEncoder{inner: newEncoder(t), device: 1001}

	loop := New(Config{Iterations: 300, Seed: 11}, reg, device.NewSimulator(0), enc, pub)
	loop.SetRecorder(rec)

	summary, err := loop.Run(context.Background())
	require.NoError(t, err)

	dropped := 0
	for _, r := range rec.list {
		if r.DeviceID == 1001 {
			dropped++
		}
	}
	require.Positive(t, dropped)
	assert.Equal(t, 300, summary.Iterations)
	assert.Equal(t, dropped, summary.Dropped)
	assert.Equal(t, 300-dropped, summary.Produced)
	assert.Equal(t, 300-dropped, tr.count())

	// Dropped readings still advanced the device.
	state, err := reg.Get(1001)
	require.NoError(t, err)
	assert.Equal(t, int64(1710951030000)+int64(dropped)*60000, state.LastEventTime)
}

func TestRun_DeliveryFailureContinues(t *testing.T) {
	tr := &fakeTransport{failErr: errors.New("broker unavailable")}
	loop, reg, pub := newLoop(t, Config{Iterations: 20, Seed: 5}, nil, tr)

	var outcomes []publisher.Outcome
	var mu sync.Mutex
	pub = publisher.New(tr, testTopic, publisher.WithObserver(func(o publisher.Outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	}))
	loop.publisher = pub

	summary, err := loop.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, summary.Produced)
	assert.Equal(t, 20, summary.Failed)
	assert.Zero(t, summary.Delivered)
	assert.Len(t, outcomes, 20)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, publisher.ErrDeliveryFailed)
	}

	advanced := 0
	for _, id := range reg.IDs() {
		state, err := reg.Get(id)
		require.NoError(t, err)
		advanced += int((state.LastEventTime - 1710951030000) / 60000)
	}
	assert.Equal(t, 20, advanced)
}

func TestRun_DrainTimeoutCountsFailure(t *testing.T) {
	tr := &fakeTransport{hold: true}
	loop, _, _ := newLoop(t, Config{Iterations: 3, DrainTimeout: 10 * time.Millisecond, Seed: 9}, nil, tr)

	summary, err := loop.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Produced)
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, 3, tr.count())
}

// batchPublisher records how many records were submitted between drains.
type batchPublisher struct {
	*publisher.Publisher
	current int
	batches []int
}

func (b *batchPublisher) Publish(ctx context.Context, key string, value []byte) error {
	b.current++
	return b.Publisher.Publish(ctx, key, value)
}

func (b *batchPublisher) Drain(timeout time.Duration) []string {
	b.batches = append(b.batches, b.current)
	b.current = 0
	return b.Publisher.Drain(timeout)
}

func TestRun_FlushEvery(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
		flushEvery int
		want       []int
	}{
		{name: "every record", iterations: 3, flushEvery: 1, want: []int{1, 1, 1}},
		{name: "batched", iterations: 10, flushEvery: 4, want: []int{4, 4, 2}},
		{name: "single batch", iterations: 5, flushEvery: 5, want: []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := &batchPublisher{Publisher: publisher.New(&fakeTransport{}, testTopic)}
			loop := New(Config{Iterations: tt.iterations, FlushEvery: tt.flushEvery, Seed: 1},
				newRegistry(t), device.NewSimulator(0), newEncoder(t), bp)

			_, err := loop.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, bp.batches)
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &fakeTransport{}
	rec := &readings{onAdd: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	loop, _, _ := newLoop(t, Config{Iterations: 100, Seed: 2}, nil, tr)
	loop.SetRecorder(rec)

	summary, err := loop.Run(ctx)
	require.NoError(t, err)

	assert.True(t, summary.Interrupted)
	assert.Equal(t, 3, summary.Iterations)
	assert.Equal(t, 3, summary.Produced)
	assert.Equal(t, 3, summary.Delivered, "in-flight record drained after interrupt")
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := &fakeTransport{}
	loop, _, _ := newLoop(t, Config{Iterations: 10}, nil, tr)

	summary, err := loop.Run(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Interrupted)
	assert.Zero(t, tr.count())
}

func TestRun_NoDevices(t *testing.T) {
	loop := New(Config{Iterations: 1}, &device.Registry{}, device.NewSimulator(0), newEncoder(t),
		publisher.New(&fakeTransport{}, testTopic))

	_, err := loop.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoDevices)
}

func TestRun_PublisherClosed(t *testing.T) {
	tr := &fakeTransport{}
	loop, _, pub := newLoop(t, Config{Iterations: 5}, nil, tr)
	_, err := pub.Close(time.Second)
	require.NoError(t, err)

	_, err = loop.Run(context.Background())
	assert.ErrorIs(t, err, publisher.ErrClosed)
	assert.Equal(t, StatusStopped, loop.Status())
}

func TestRun_FirstRecordWireFormat(t *testing.T) {
	tr := &fakeTransport{}
	loop, _, _ := newLoop(t, Config{Iterations: 1, Seed: 1}, nil, tr)

	_, err := loop.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, tr.values, 1)

	v := tr.values[0]
	require.Greater(t, len(v), 5)
	assert.Equal(t, byte(0), v[0], "magic byte")
	assert.Equal(t, []byte{0x00, 0x01, 0x86, 0xa1}, v[1:5], "schema id 100001")
}
