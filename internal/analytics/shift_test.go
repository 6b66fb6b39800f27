package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(values ...interface{}) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil:
			out[i] = nil
		case int:
			out[i] = Float(float64(x))
		case float64:
			out[i] = Float(x)
		default:
			panic("unsupported value")
		}
	}
	return out
}

func assertSeries(t *testing.T, expected, actual []*float64) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		if expected[i] == nil {
			assert.Nil(t, actual[i], "index %d should be nil", i)
			continue
		}
		if assert.NotNil(t, actual[i], "index %d should be set", i) {
			assert.InDelta(t, *expected[i], *actual[i], 1e-9, "index %d", i)
		}
	}
}

func TestShift(t *testing.T) {
	raw := series(1, -1, 2, nil, -3, 4)

	tests := []struct {
		name     string
		lag      int
		expected []*float64
	}{
		{name: "zero lag is identity", lag: 0, expected: series(1, -1, 2, nil, -3, 4)},
		{name: "lag one", lag: 1, expected: series(nil, 1, -1, 2, nil, -3)},
		{name: "lag three", lag: 3, expected: series(nil, nil, nil, 1, -1, 2)},
		{name: "lag equal to length", lag: 6, expected: series(nil, nil, nil, nil, nil, nil)},
		{name: "lag beyond length", lag: 20, expected: series(nil, nil, nil, nil, nil, nil)},
		{name: "negative lag treated as zero", lag: -2, expected: series(1, -1, 2, nil, -3, 4)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertSeries(t, tc.expected, Shift(raw, tc.lag))
		})
	}
}

func TestShift_IndexProperty(t *testing.T) {
	raw := series(0.5, nil, -1.25, 2, 3.5, -0.75, nil, 1)
	for lag := 0; lag <= len(raw)+1; lag++ {
		shifted := Shift(raw, lag)
		for i := range raw {
			si := i - lag
			if si < 0 || si >= len(raw) || raw[si] == nil {
				assert.Nil(t, shifted[i], "lag %d index %d", lag, i)
				continue
			}
			require.NotNil(t, shifted[i], "lag %d index %d", lag, i)
			assert.Equal(t, *raw[si], *shifted[i])
		}
	}
}

func TestShift_DoesNotAliasInput(t *testing.T) {
	raw := series(1, 2, 3)
	shifted := Shift(raw, 0)
	*shifted[0] = 99
	assert.Equal(t, 1.0, *raw[0])
}

func TestClip(t *testing.T) {
	tests := []struct {
		name     string
		value    *float64
		expected *float64
	}{
		{name: "nil stays nil", value: nil, expected: nil},
		{name: "inside bound unchanged", value: Float(1.5), expected: Float(1.5)},
		{name: "upper edge unchanged", value: Float(3), expected: Float(3)},
		{name: "above bound clamped", value: Float(7.2), expected: Float(3)},
		{name: "below bound clamped", value: Float(-4), expected: Float(-3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Clip(tc.value, DefaultClipBound)
			if tc.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.expected, *got)
		})
	}
}

func TestClipSeries_WithinBound(t *testing.T) {
	values := series(-12.5, -3.01, -1, 0, nil, 2.99, 8)
	for i, v := range ClipSeries(values, DefaultClipBound) {
		if values[i] == nil {
			assert.Nil(t, v)
			continue
		}
		require.NotNil(t, v)
		assert.GreaterOrEqual(t, *v, -DefaultClipBound)
		assert.LessOrEqual(t, *v, DefaultClipBound)
	}
}

func TestShiftAndClip_Scenario(t *testing.T) {
	raw := series(1, -1, 2, nil, -3, 4)
	shifted := Shift(raw, 1)
	assertSeries(t, series(nil, 1, -1, 2, nil, -3), shifted)
	assertSeries(t, shifted, ClipSeries(shifted, DefaultClipBound))
}
