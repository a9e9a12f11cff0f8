package event

import (
	_ "embed"
	"fmt"

	"github.com/hamba/avro/v2"

	"github.com/nerrad567/batterygen/internal/device"
)

// BatteryStatusSchema is the Avro definition of a battery status event as
// registered for the value subject of the battery topic.
//
//go:embed schemas/battery.avsc
var BatteryStatusSchema string

// fieldKind identifies which reading attribute a schema field carries.
type fieldKind int

const (
	fieldDeviceID fieldKind = iota
	fieldClass
	fieldCharge
	fieldEventTime
	fieldCount
)

func (k fieldKind) String() string {
	switch k {
	case fieldDeviceID:
		return "device id"
	case fieldClass:
		return "device class"
	case fieldCharge:
		return "charge"
	case fieldEventTime:
		return "event time"
	default:
		return "unknown"
	}
}

// layout records how each reading attribute maps onto the resolved schema.
// Fields are matched by position: device id, class, charge, event time.
type layout struct {
	names     [fieldCount]string
	types     [fieldCount]avro.Type
	millis    bool // event time carries the timestamp-millis logical type
	precision int
	scale     int
}

// parseLayout checks that schema is a four-field battery status record and
// extracts the field names and decimal parameters.
func parseLayout(schema avro.Schema) (layout, error) {
	var l layout

	rec, ok := schema.(*avro.RecordSchema)
	if !ok {
		return l, fmt.Errorf("%w: schema is %s, want record", ErrResolution, schema.Type())
	}
	fields := rec.Fields()
	if len(fields) != int(fieldCount) {
		return l, fmt.Errorf("%w: record %s has %d fields, want %d", ErrResolution, rec.FullName(), len(fields), fieldCount)
	}

	for i, f := range fields {
		kind := fieldKind(i)
		l.names[i] = f.Name()
		l.types[i] = f.Type().Type()

		switch kind {
		case fieldDeviceID, fieldClass:
			if l.types[i] != avro.Int && l.types[i] != avro.Long {
				return l, fieldError(kind, f, "int or long")
			}
		case fieldEventTime:
			if l.types[i] != avro.Long {
				return l, fieldError(kind, f, "long")
			}
			if ls := logicalOf(f.Type()); ls != nil {
				if ls.Type() != avro.TimestampMillis {
					return l, fieldError(kind, f, "long or timestamp-millis")
				}
				l.millis = true
			}
		case fieldCharge:
			dec, ok := logicalOf(f.Type()).(*avro.DecimalLogicalSchema)
			if l.types[i] != avro.Bytes || !ok {
				return l, fieldError(kind, f, "bytes decimal")
			}
			if dec.Scale() != device.ChargeScale {
				return l, fmt.Errorf("%w: field %q has scale %d, want %d", ErrResolution, f.Name(), dec.Scale(), device.ChargeScale)
			}
			l.precision = dec.Precision()
			l.scale = dec.Scale()
		}
	}

	return l, nil
}

func logicalOf(s avro.Schema) avro.LogicalSchema {
	if p, ok := s.(*avro.PrimitiveSchema); ok {
		return p.Logical()
	}
	return nil
}

func fieldError(kind fieldKind, f *avro.Field, want string) error {
	return fmt.Errorf("%w: %s field %q is %s, want %s", ErrResolution, kind, f.Name(), f.Type().Type(), want)
}
