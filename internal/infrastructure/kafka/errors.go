package kafka

import "errors"

// Sentinel errors for Kafka operations.
var (
	// ErrConnectionFailed is returned when the client cannot be built or the
	// cluster does not answer the startup ping.
	ErrConnectionFailed = errors.New("kafka: connection failed")

	// ErrInvalidAcks is returned for an unrecognised acks setting.
	ErrInvalidAcks = errors.New("kafka: invalid acks (must be all, leader, or none)")
)
