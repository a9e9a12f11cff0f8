// Package device holds the simulated battery fleet.
//
// A Registry is the in-memory state table seeded at startup; a Simulator
// advances one device per call by subtracting its decay step from the
// charge (floored at zero) and moving its logical clock forward by one
// interval. Charges are exact decimals, so repeated small decay steps do
// not drift the way binary floats would.
//
// # Usage
//
//	states, err := device.States(device.DefaultSeeds, 1710951030000)
//	if err != nil {
//	    return err
//	}
//	registry, err := device.NewRegistry(states)
//	if err != nil {
//	    return err
//	}
//
//	sim := device.NewSimulator(device.DefaultEventInterval)
//	reading, err := sim.Advance(registry, 1001)
//
// Readings carry the charge rounded to two places with round-half-even
// (see RoundCharge). The registry keeps the unrounded value.
package device
