package amqp

import "errors"

// Domain-specific errors for AMQP operations.
var (
	// ErrConnectionFailed is returned when the broker cannot be dialled or
	// the channel cannot be put into confirm mode.
	ErrConnectionFailed = errors.New("amqp: connection failed")

	// ErrPublishFailed is returned when a publish is not handed to the broker.
	ErrPublishFailed = errors.New("amqp: publish failed")

	// ErrNacked is returned when the broker negatively confirms a message.
	ErrNacked = errors.New("amqp: message nacked")

	// ErrClosed is returned by Produce after Close.
	ErrClosed = errors.New("amqp: client closed")
)
