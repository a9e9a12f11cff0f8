package device

import (
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the in-memory state table for every simulated device.
//
// It is created once at startup from a seed table and owned by the
// generator loop. The device set is fixed for the registry's lifetime;
// only Charge and LastEventTime change.
//
// All public methods are thread-safe.
type Registry struct {
	states map[int64]*State
	ids    []int64
	mu     sync.RWMutex
	logger Logger
}

// NewRegistry creates a registry holding a copy of each initial state.
//
// Every state must have a unique ID, a charge in [0, 1] and a positive
// decay step.
func NewRegistry(initial []State) (*Registry, error) {
	if len(initial) == 0 {
		return nil, ErrEmptySeed
	}

	r := &Registry{
		states: make(map[int64]*State, len(initial)),
		ids:    make([]int64, 0, len(initial)),
		logger: noopLogger{},
	}

	for i := range initial {
		s := initial[i]
		if _, dup := r.states[s.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDeviceExists, s.ID)
		}
		if err := validateCharge(s.ID, s.Charge); err != nil {
			return nil, err
		}
		if !s.DecayStep.IsPositive() {
			return nil, fmt.Errorf("%w: device %d step %s", ErrInvalidStep, s.ID, s.DecayStep)
		}
		r.states[s.ID] = &s
		r.ids = append(r.ids, s.ID)
	}
	slices.Sort(r.ids)

	return r, nil
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Get returns a copy of the current state of a device.
// Returns ErrDeviceNotFound if id is not in the seed set.
func (r *Registry) Get(id int64) (State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.states[id]
	if !ok {
		return State{}, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	return *s, nil
}

// Update stores a device's new charge and event time in place.
//
// The charge must stay within [0, 1] and the event time must not move
// backwards; either violation leaves the state untouched.
func (r *Registry) Update(id int64, charge decimal.Decimal, eventTime int64) error {
	if err := validateCharge(id, charge); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	if eventTime < s.LastEventTime {
		return fmt.Errorf("%w: device %d from %d to %d", ErrClockRegression, id, s.LastEventTime, eventTime)
	}

	if charge.IsZero() && !s.Charge.IsZero() {
		r.logger.Info("device battery depleted", "device_id", id, "event_time", eventTime)
	}

	s.Charge = charge
	s.LastEventTime = eventTime
	return nil
}

// IDs returns the seeded device IDs in ascending order.
func (r *Registry) IDs() []int64 {
	return slices.Clone(r.ids)
}

// Len returns the number of devices in the registry.
func (r *Registry) Len() int {
	return len(r.ids)
}

var (
	chargeFloor   = decimal.Zero
	chargeCeiling = decimal.NewFromInt(1)
)

func validateCharge(id int64, charge decimal.Decimal) error {
	if charge.LessThan(chargeFloor) || charge.GreaterThan(chargeCeiling) {
		return fmt.Errorf("%w: device %d charge %s", ErrInvalidCharge, id, charge)
	}
	return nil
}
