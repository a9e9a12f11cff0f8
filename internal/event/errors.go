package event

import "errors"

// Domain errors for the event package.
var (
	// ErrSchemaViolation is returned by Encode when a reading cannot be
	// represented by the resolved schema. The reading should be dropped.
	ErrSchemaViolation = errors.New("event: reading violates schema")

	// ErrResolution is returned when the schema cannot be fetched or does
	// not have the battery status shape. It is fatal at startup.
	ErrResolution = errors.New("event: schema resolution failed")
)
