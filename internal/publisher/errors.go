package publisher

import "errors"

// Domain errors for the publisher package.
var (
	// ErrDeliveryFailed wraps every failed delivery outcome.
	ErrDeliveryFailed = errors.New("publisher: delivery failed")

	// ErrDrainTimeout is the cause recorded for records still outstanding
	// when a drain expires.
	ErrDrainTimeout = errors.New("publisher: drain timed out")

	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("publisher: closed")
)

// ErrDuplicateKey is returned when a key is submitted while a record with
// the same key is still outstanding.
var ErrDuplicateKey = errors.New("publisher: key already in flight")
