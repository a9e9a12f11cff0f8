package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID is not in the seed set.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when a seed table lists the same ID twice.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidCharge is returned when a charge is outside [0, 1].
	ErrInvalidCharge = errors.New("device: charge out of range")

	// ErrInvalidStep is returned when a decay step is not positive.
	ErrInvalidStep = errors.New("device: decay step must be positive")

	// ErrClockRegression is returned when an update would move a device's
	// event time backwards.
	ErrClockRegression = errors.New("device: event time moved backwards")

	// ErrEmptySeed is returned when a registry is created without devices.
	ErrEmptySeed = errors.New("device: seed table is empty")
)
