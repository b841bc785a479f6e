package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{name: "median interpolates between middle pair", sorted: []float64{1, 2, 3, 4}, p: 0.5, want: 2.5},
		{name: "p40 of five values", sorted: []float64{15, 20, 35, 40, 50}, p: 0.4, want: 29},
		{name: "median of odd count is exact", sorted: []float64{1, 2, 3}, p: 0.5, want: 2},
		{name: "p0 is the minimum", sorted: []float64{3, 7, 9}, p: 0, want: 3},
		{name: "p1 is the maximum", sorted: []float64{3, 7, 9}, p: 1, want: 9},
		{name: "single sample for any p", sorted: []float64{42}, p: 0.95, want: 42},
		{name: "identical values", sorted: []float64{5, 5, 5, 5}, p: 0.75, want: 5},
		{name: "p05 of two values", sorted: []float64{10, 20}, p: 0.05, want: 10.5},
		{name: "p95 of two values", sorted: []float64{10, 20}, p: 0.95, want: 19.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(tt.sorted, tt.p), 1e-9)
		})
	}

	t.Run("empty sample panics", func(t *testing.T) {
		require.Panics(t, func() { Percentile(nil, 0.5) })
	})
}

func TestFnum(t *testing.T) {
	assert.Equal(t, "23", fnum(23))
	assert.Equal(t, "2", fnum(2))
	assert.Equal(t, "22.5", fnum(22.5))
	assert.Equal(t, "2.08", fnum(2.0833333))
	assert.Equal(t, "0", fnum(0))
	assert.Equal(t, "12345", fnum(12345))
}
