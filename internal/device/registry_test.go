package device

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 int64 = 1710951030000

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newDefaultRegistry(t *testing.T) *Registry {
	t.Helper()
	states, err := States(DefaultSeeds, t0)
	require.NoError(t, err)
	r, err := NewRegistry(states)
	require.NoError(t, err)
	return r
}

func TestNewRegistry_DefaultSeeds(t *testing.T) {
	r := newDefaultRegistry(t)

	assert.Equal(t, 10, r.Len())
	assert.Equal(t, []int64{1001, 1002, 1003, 1004, 1005, 1006, 1007, 1008, 1009, 1010}, r.IDs())

	s, err := r.Get(1004)
	require.NoError(t, err)
	assert.Equal(t, int32(333), s.Class)
	assert.True(t, s.Charge.Equal(d("0.5")))
	assert.True(t, s.DecayStep.Equal(d("0.0008")))
	assert.Equal(t, t0, s.LastEventTime)
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		states []State
		want   error
	}{
		{name: "empty", states: nil, want: ErrEmptySeed},
		{
			name: "duplicate",
			states: []State{
				{ID: 1, Charge: d("1"), DecayStep: d("0.1")},
				{ID: 1, Charge: d("1"), DecayStep: d("0.1")},
			},
			want: ErrDeviceExists,
		},
		{
			name:   "charge above one",
			states: []State{{ID: 1, Charge: d("1.01"), DecayStep: d("0.1")}},
			want:   ErrInvalidCharge,
		},
		{
			name:   "negative charge",
			states: []State{{ID: 1, Charge: d("-0.1"), DecayStep: d("0.1")}},
			want:   ErrInvalidCharge,
		},
		{
			name:   "zero step",
			states: []State{{ID: 1, Charge: d("1"), DecayStep: decimal.Zero}},
			want:   ErrInvalidStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.states)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStates_InvalidDecimal(t *testing.T) {
	_, err := States([]Seed{{ID: 1, Charge: "full", Step: "0.1"}}, t0)
	assert.ErrorIs(t, err, ErrInvalidCharge)

	_, err = States([]Seed{{ID: 1, Charge: "1", Step: "slow"}}, t0)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := newDefaultRegistry(t)

	_, err := r.Get(42)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := newDefaultRegistry(t)

	s, err := r.Get(1001)
	require.NoError(t, err)
	s.Charge = decimal.Zero
	s.LastEventTime = 0

	again, err := r.Get(1001)
	require.NoError(t, err)
	assert.True(t, again.Charge.Equal(d("1")))
	assert.Equal(t, t0, again.LastEventTime)
}

func TestRegistry_Update(t *testing.T) {
	r := newDefaultRegistry(t)

	require.NoError(t, r.Update(1001, d("0.999"), t0+60000))

	s, err := r.Get(1001)
	require.NoError(t, err)
	assert.True(t, s.Charge.Equal(d("0.999")))
	assert.Equal(t, t0+60000, s.LastEventTime)
	assert.Equal(t, int32(111), s.Class)
	assert.True(t, s.DecayStep.Equal(d("0.001")))
}

func TestRegistry_UpdateRejects(t *testing.T) {
	r := newDefaultRegistry(t)

	assert.ErrorIs(t, r.Update(42, d("0.5"), t0), ErrDeviceNotFound)
	assert.ErrorIs(t, r.Update(1001, d("-0.001"), t0+60000), ErrInvalidCharge)
	assert.ErrorIs(t, r.Update(1001, d("0.5"), t0-1), ErrClockRegression)

	s, err := r.Get(1001)
	require.NoError(t, err)
	assert.True(t, s.Charge.Equal(d("1")))
	assert.Equal(t, t0, s.LastEventTime)
}

func TestRegistry_IDsIsCopy(t *testing.T) {
	r := newDefaultRegistry(t)

	ids := r.IDs()
	ids[0] = 0
	assert.Equal(t, int64(1001), r.IDs()[0])
}
