package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
)

// FailureClass categorises why a record was not delivered.
type FailureClass string

const (
	// FailureTimeout means no outcome arrived before the drain deadline or
	// the transport's own delivery timeout.
	FailureTimeout FailureClass = "timeout"

	// FailureRetriable means the transport gave up on an error that is
	// normally transient (leader moves, throttling) after its retry budget.
	FailureRetriable FailureClass = "retriable"

	// FailureRejected means the broker explicitly refused the record.
	FailureRejected FailureClass = "rejected"

	// FailureFatal covers everything else: authorisation, oversized
	// records, a closed client.
	FailureFatal FailureClass = "fatal"
)

// ErrRejected is returned by transports when a broker negatively
// acknowledges a record.
var ErrRejected = errors.New("publisher: record rejected by broker")

// Classify maps a transport error to a FailureClass.
func Classify(err error) FailureClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDrainTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, kerr.RequestTimedOut):
		return FailureTimeout
	case errors.Is(err, ErrRejected):
		return FailureRejected
	case kerr.IsRetriable(err):
		return FailureRetriable
	default:
		return FailureFatal
	}
}

// Outcome is the terminal result of one submitted record.
type Outcome struct {
	Key       string
	Topic     string
	Partition int32
	Offset    int64
	Err       error
	Class     FailureClass
	Latency   time.Duration
}

// Delivered reports whether the record reached the broker.
func (o Outcome) Delivered() bool {
	return o.Err == nil
}

func (o Outcome) String() string {
	if o.Delivered() {
		return fmt.Sprintf("record %s produced to %s [%d] at offset %d", o.Key, o.Topic, o.Partition, o.Offset)
	}
	return fmt.Sprintf("delivery failed for record %s to %s (%s): %v", o.Key, o.Topic, o.Class, o.Err)
}
