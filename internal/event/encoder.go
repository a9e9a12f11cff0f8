package event

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/sr"

	"github.com/nerrad567/batterygen/internal/device"
	"github.com/nerrad567/batterygen/internal/infrastructure/schemaregistry"
)

// Resolver looks up the latest registered schema for a subject.
// *schemaregistry.Client implements it.
type Resolver interface {
	Latest(ctx context.Context, subject string) (schemaregistry.Schema, error)
}

// Encoder serializes readings against one resolved schema version.
//
// Output is the Confluent wire format: a zero magic byte, the 4-byte
// big-endian schema ID, then the Avro binary record. An Encoder is built
// once per process and is safe for concurrent use.
type Encoder struct {
	schema   avro.Schema
	schemaID int
	version  int
	layout   layout
	serde    sr.Serde
}

// record is the registered Go type for Serde framing.
type record = map[string]any

// Resolve fetches the latest schema for subject and builds an Encoder.
// Any failure wraps ErrResolution.
func Resolve(ctx context.Context, r Resolver, subject string) (*Encoder, error) {
	s, err := r.Latest(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	return NewEncoder(s)
}

// NewEncoder parses a registered schema and checks it has the battery
// status shape: device id, class, scale-2 decimal charge, event time.
func NewEncoder(s schemaregistry.Schema) (*Encoder, error) {
	schema, err := avro.Parse(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing schema %d: %w", ErrResolution, s.ID, err)
	}

	l, err := parseLayout(schema)
	if err != nil {
		return nil, err
	}

	e := &Encoder{
		schema:   schema,
		schemaID: s.ID,
		version:  s.Version,
		layout:   l,
	}
	e.serde.Register(s.ID, record{}, sr.EncodeFn(func(v any) ([]byte, error) {
		return avro.Marshal(e.schema, v)
	}))

	return e, nil
}

// SchemaID returns the registry ID embedded in every encoded record.
func (e *Encoder) SchemaID() int {
	return e.schemaID
}

// Version returns the registry version the encoder was resolved against.
func (e *Encoder) Version() int {
	return e.version
}

// Encode serializes a reading. A reading whose values do not fit the
// schema's declared types or decimal precision returns ErrSchemaViolation.
func (e *Encoder) Encode(r device.Reading) ([]byte, error) {
	rec, err := e.record(r)
	if err != nil {
		return nil, err
	}

	b, err := e.serde.Encode(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %w", ErrSchemaViolation, r.DeviceID, err)
	}
	return b, nil
}

// record maps a reading onto the schema's field names and Go types.
func (e *Encoder) record(r device.Reading) (record, error) {
	l := e.layout

	id, err := integer(l.types[fieldDeviceID], r.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device id %d: %w", ErrSchemaViolation, r.DeviceID, err)
	}
	class, err := integer(l.types[fieldClass], int64(r.Class))
	if err != nil {
		return nil, fmt.Errorf("%w: device %d class %d: %w", ErrSchemaViolation, r.DeviceID, r.Class, err)
	}
	if err := e.checkDecimal(r.Charge); err != nil {
		return nil, fmt.Errorf("%w: device %d charge %s: %w", ErrSchemaViolation, r.DeviceID, r.Charge, err)
	}

	var eventTime any = r.EventTime
	if l.millis {
		eventTime = time.UnixMilli(r.EventTime).UTC()
	}

	return record{
		l.names[fieldDeviceID]:  id,
		l.names[fieldClass]:     class,
		l.names[fieldCharge]:    r.Charge.Rat(),
		l.names[fieldEventTime]: eventTime,
	}, nil
}

// checkDecimal verifies a value is exact at the schema scale and has no
// more digits than the schema precision allows.
func (e *Encoder) checkDecimal(v decimal.Decimal) error {
	scale := int32(e.layout.scale)
	if !v.Equal(v.Truncate(scale)) {
		return fmt.Errorf("more than %d decimal places", scale)
	}

	unscaled := v.Shift(scale).Abs().BigInt()
	if digits := len(unscaled.String()); digits > e.layout.precision {
		return fmt.Errorf("%d digits exceeds precision %d", digits, e.layout.precision)
	}
	return nil
}

// integer narrows v to the Go type hamba/avro expects for an int or long.
func integer(t avro.Type, v int64) (any, error) {
	if t == avro.Long {
		return v, nil
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, fmt.Errorf("out of range for avro int")
	}
	return int32(v), nil
}
