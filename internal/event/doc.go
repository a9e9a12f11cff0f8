// Package event turns simulated readings into schema-registry framed Avro
// records.
//
// The schema is resolved once at startup from the registry (latest version
// of the value subject, never auto-registered). Resolution checks that the
// record has four fields in this order: device id (int or long), device
// class (int or long), charge (bytes decimal, scale 2) and event time (long
// or timestamp-millis). Field names come from the registered schema.
//
// Encode returns ErrSchemaViolation when a reading does not fit, for example
// a charge with more integer digits than the decimal precision allows. The
// caller drops that reading and carries on.
package event
