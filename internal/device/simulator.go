package device

import (
	"github.com/shopspring/decimal"
)

// Simulator derives the next charge and event time for a device.
//
// It is a pure function of the prior state: the same state always yields
// the same result. Time is a logical clock advanced by Interval per call,
// independent of wall-clock time.
type Simulator struct {
	// Interval is the logical clock quantum in milliseconds.
	Interval int64
}

// NewSimulator returns a Simulator advancing the clock by interval ms.
// A non-positive interval falls back to DefaultEventInterval.
func NewSimulator(interval int64) Simulator {
	if interval <= 0 {
		interval = DefaultEventInterval
	}
	return Simulator{Interval: interval}
}

// Next returns max(0, charge - decayStep) and lastEventTime + Interval.
// A depleted device stays at exactly zero; there is no recharge path.
func (s Simulator) Next(state State) (decimal.Decimal, int64) {
	charge := state.Charge.Sub(state.DecayStep)
	if !charge.IsPositive() {
		charge = decimal.Zero
	}
	return charge, state.LastEventTime + s.Interval
}

// Advance applies Next to the registry entry for id and returns the
// resulting reading. The registry is updated before the reading is
// returned, so state advances regardless of what happens to the reading.
func (s Simulator) Advance(r *Registry, id int64) (Reading, error) {
	state, err := r.Get(id)
	if err != nil {
		return Reading{}, err
	}

	charge, eventTime := s.Next(state)
	if err := r.Update(id, charge, eventTime); err != nil {
		return Reading{}, err
	}

	return NewReading(state.ID, state.Class, charge, eventTime), nil
}
