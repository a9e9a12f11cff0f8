package device

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Seed is one row of a device seed table before it is loaded into a Registry.
type Seed struct {
	ID     int64
	Class  int32
	Charge string
	Step   string
}

// DefaultSeeds is the picker robot fleet simulated when no devices are configured.
var DefaultSeeds = []Seed{
	{ID: 1001, Class: 111, Charge: "1.0", Step: "0.001"},
	{ID: 1002, Class: 222, Charge: "1.0", Step: "0.00002"},
	{ID: 1003, Class: 111, Charge: "1.0", Step: "0.00004"},
	{ID: 1004, Class: 333, Charge: "0.5", Step: "0.0008"},
	{ID: 1005, Class: 444, Charge: "1.0", Step: "0.00005"},
	{ID: 1006, Class: 111, Charge: "1.0", Step: "0.00007"},
	{ID: 1007, Class: 222, Charge: "1.0", Step: "0.00002"},
	{ID: 1008, Class: 111, Charge: "0.15", Step: "0.00005"},
	{ID: 1009, Class: 333, Charge: "1.0", Step: "0.00003"},
	{ID: 1010, Class: 111, Charge: "1.0", Step: "0.00006"},
}

// States converts seed rows into initial device states, all starting at
// initialTimestamp. Charges and steps are parsed as exact decimals.
func States(seeds []Seed, initialTimestamp int64) ([]State, error) {
	states := make([]State, 0, len(seeds))
	for _, s := range seeds {
		charge, err := decimal.NewFromString(s.Charge)
		if err != nil {
			return nil, fmt.Errorf("%w: device %d charge %q: %w", ErrInvalidCharge, s.ID, s.Charge, err)
		}
		step, err := decimal.NewFromString(s.Step)
		if err != nil {
			return nil, fmt.Errorf("%w: device %d step %q: %w", ErrInvalidStep, s.ID, s.Step, err)
		}
		states = append(states, State{
			ID:            s.ID,
			Class:         s.Class,
			Charge:        charge,
			LastEventTime: initialTimestamp,
			DecayStep:     step,
		})
	}
	return states, nil
}
