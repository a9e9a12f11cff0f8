package event

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/hamba/avro/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/batterygen/internal/device"
	"github.com/nerrad567/batterygen/internal/infrastructure/schemaregistry"
)

const t0 int64 = 1710951030000

type stubResolver struct {
	schema schemaregistry.Schema
	err    error
	calls  int
}

func (s *stubResolver) Latest(_ context.Context, subject string) (schemaregistry.Schema, error) {
	s.calls++
	if s.err != nil {
		return schemaregistry.Schema{}, s.err
	}
	out := s.schema
	out.Subject = subject
	return out, nil
}

func batterySchema(id int) schemaregistry.Schema {
	return schemaregistry.Schema{ID: id, Version: 1, Definition: BatteryStatusSchema}
}

func newTestEncoder(t *testing.T) *Encoder {
	t.Helper()
	enc, err := NewEncoder(batterySchema(100042))
	require.NoError(t, err)
	return enc
}

func reading(id int64, class int32, charge string, ts int64) device.Reading {
	return device.NewReading(id, class, decimal.RequireFromString(charge), ts)
}

// decode strips the wire header and decodes the Avro body.
func decode(t *testing.T, b []byte) (int, map[string]any) {
	t.Helper()
	require.GreaterOrEqual(t, len(b), 5)
	require.Equal(t, byte(0), b[0], "magic byte")
	id := int(binary.BigEndian.Uint32(b[1:5]))

	schema, err := avro.Parse(BatteryStatusSchema)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, avro.Unmarshal(schema, b[5:], &out))
	return id, out
}

func chargeString(t *testing.T, v any) string {
	t.Helper()
	r, ok := v.(*big.Rat)
	require.True(t, ok, "charge decoded as %T", v)
	return r.FloatString(2)
}

func TestEncode_FirstReadingScenario(t *testing.T) {
	enc := newTestEncoder(t)

	// Device 1001 at 1.00 with step 0.001 after one iteration.
	b, err := enc.Encode(reading(1001, 111, "0.999", t0+60000))
	require.NoError(t, err)

	id, rec := decode(t, b)
	assert.Equal(t, 100042, id)
	assert.EqualValues(t, 1001, rec["picker_robot_id"])
	assert.EqualValues(t, 111, rec["battery_type_id"])
	assert.Equal(t, "1.00", chargeString(t, rec["battery_charge"]))
	assert.EqualValues(t, t0+60000, rec["event_time"])
}

func TestEncode_Rounding(t *testing.T) {
	enc := newTestEncoder(t)

	tests := map[string]string{
		"0":        "0.00",
		"0.004999": "0.00",
		"0.005":    "0.00",
		"0.015":    "0.02",
		"0.995":    "1.00",
		"0.5":      "0.50",
	}
	for in, want := range tests {
		b, err := enc.Encode(reading(1002, 222, in, t0))
		require.NoError(t, err, in)

		_, rec := decode(t, b)
		assert.Equal(t, want, chargeString(t, rec["battery_charge"]), "charge %s", in)
	}
}

func TestEncode_FieldOrder(t *testing.T) {
	enc := newTestEncoder(t)

	b, err := enc.Encode(reading(1, 2, "0.03", 4))
	require.NoError(t, err)

	// zig-zag varints 1, 2; decimal bytes len 1 value 3; long 4.
	assert.Equal(t, []byte{0x02, 0x04, 0x02, 0x03, 0x08}, b[5:])
}

func TestEncode_SchemaViolation(t *testing.T) {
	enc := newTestEncoder(t)

	tests := []struct {
		name string
		r    device.Reading
	}{
		{
			name: "charge exceeds precision",
			r:    reading(1001, 111, "12.5", t0),
		},
		{
			name: "charge finer than scale",
			r:    device.Reading{DeviceID: 1001, Class: 111, Charge: decimal.RequireFromString("0.123"), EventTime: t0},
		},
		{
			name: "device id outside avro int",
			r:    reading(math.MaxInt32+1, 111, "0.5", t0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := enc.Encode(tt.r)
			assert.ErrorIs(t, err, ErrSchemaViolation)
			assert.Nil(t, b)
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	res := &stubResolver{schema: batterySchema(7)}

	first, err := Resolve(context.Background(), res, "battery-value")
	require.NoError(t, err)
	second, err := Resolve(context.Background(), res, "battery-value")
	require.NoError(t, err)

	r := reading(1004, 333, "0.4992", t0+120000)
	a, err := first.Encode(r)
	require.NoError(t, err)
	b, err := second.Encode(r)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 2, res.calls)
	assert.Equal(t, 7, first.SchemaID())
	assert.Equal(t, 1, first.Version())
}

func TestResolve_LookupFailure(t *testing.T) {
	res := &stubResolver{err: errors.New("dial tcp: connection refused")}

	_, err := Resolve(context.Background(), res, "battery-value")
	assert.ErrorIs(t, err, ErrResolution)
}

func TestNewEncoder_RejectsShape(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   string
	}{
		{
			name:   "not json",
			schema: `{`,
			want:   "parsing schema",
		},
		{
			name:   "not a record",
			schema: `"string"`,
			want:   "want record",
		},
		{
			name:   "three fields",
			schema: `{"type":"record","name":"B","fields":[{"name":"a","type":"int"},{"name":"b","type":"int"},{"name":"c","type":"long"}]}`,
			want:   "has 3 fields",
		},
		{
			name:   "charge is double",
			schema: strings.Replace(BatteryStatusSchema, `{"type": "bytes", "logicalType": "decimal", "precision": 3, "scale": 2}`, `"double"`, 1),
			want:   "bytes decimal",
		},
		{
			name:   "charge scale 3",
			schema: strings.Replace(BatteryStatusSchema, `"scale": 2`, `"scale": 3`, 1),
			want:   "scale 3",
		},
		{
			name:   "event time is string",
			schema: strings.Replace(BatteryStatusSchema, `{"name": "event_time", "type": "long"}`, `{"name": "event_time", "type": "string"}`, 1),
			want:   "event time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncoder(schemaregistry.Schema{ID: 1, Definition: tt.schema})
			require.ErrorIs(t, err, ErrResolution)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNewEncoder_RenamedFieldsAndLongs(t *testing.T) {
	def := `{"type":"record","name":"Status","fields":[
		{"name":"robot","type":"long"},
		{"name":"kind","type":"int"},
		{"name":"level","type":{"type":"bytes","logicalType":"decimal","precision":4,"scale":2}},
		{"name":"at","type":{"type":"long","logicalType":"timestamp-millis"}}]}`
	enc, err := NewEncoder(schemaregistry.Schema{ID: 3, Definition: def})
	require.NoError(t, err)

	b, err := enc.Encode(reading(math.MaxInt32+1, 9, "0.25", t0))
	require.NoError(t, err)

	schema, err := avro.Parse(def)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, avro.Unmarshal(schema, b[5:], &out))

	assert.EqualValues(t, int64(math.MaxInt32)+1, out["robot"])
	assert.EqualValues(t, 9, out["kind"])
	assert.Equal(t, "0.25", chargeString(t, out["level"]))
	assert.Contains(t, out, "at")
}
