package device

import (
	"github.com/shopspring/decimal"
)

// ChargeScale is the number of decimal places a published charge carries.
const ChargeScale = 2

// DefaultEventInterval is one simulated minute in milliseconds.
const DefaultEventInterval int64 = 60000

// State is the mutable record the registry keeps for one simulated device.
//
// Class and DecayStep never change after seeding. Charge and LastEventTime
// advance once per generated reading.
type State struct {
	ID            int64
	Class         int32
	Charge        decimal.Decimal
	LastEventTime int64
	DecayStep     decimal.Decimal
}

// Reading is one simulated battery status observation.
//
// Charge is already rounded to ChargeScale places; see RoundCharge.
type Reading struct {
	DeviceID  int64
	Class     int32
	Charge    decimal.Decimal
	EventTime int64
}

// NewReading builds the published view of a device after it has advanced.
func NewReading(id int64, class int32, charge decimal.Decimal, eventTime int64) Reading {
	return Reading{
		DeviceID:  id,
		Class:     class,
		Charge:    RoundCharge(charge),
		EventTime: eventTime,
	}
}

// RoundCharge rounds a charge to ChargeScale places using round-half-even
// on the exact decimal value: 0.995 -> 1.00, 0.005 -> 0.00, 0.015 -> 0.02.
func RoundCharge(charge decimal.Decimal) decimal.Decimal {
	return charge.RoundBank(ChargeScale)
}
