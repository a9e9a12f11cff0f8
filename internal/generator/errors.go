package generator

import "errors"

// Domain errors for the generator package.
var (
	// ErrAlreadyRunning is returned when Run is called on a running loop.
	ErrAlreadyRunning = errors.New("generator: already running")

	// ErrNoDevices is returned when the registry holds no devices to pick from.
	ErrNoDevices = errors.New("generator: no devices registered")
)
