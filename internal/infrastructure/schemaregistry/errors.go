package schemaregistry

import "errors"

// Sentinel errors for schema registry operations.
var (
	// ErrConnectionFailed indicates the registry client could not be built.
	ErrConnectionFailed = errors.New("schemaregistry: connection failed")

	// ErrLookupFailed indicates the registry did not return the requested subject.
	ErrLookupFailed = errors.New("schemaregistry: lookup failed")

	// ErrUnsupportedType indicates the registered schema is not Avro.
	ErrUnsupportedType = errors.New("schemaregistry: schema is not avro")
)
