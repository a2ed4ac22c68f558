package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		q    float64
		want float64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []float64{7}, 0.9, 7},
		{"median of even count interpolates", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"median of odd count", []float64{1, 2, 3}, 0.5, 2},
		{"p90 interpolates", []float64{10, 20, 30, 40}, 0.9, 37},
		{"q=0 is min", []float64{10, 20, 30}, 0, 10},
		{"q=1 is max", []float64{10, 20, 30}, 1, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, quantile(tt.xs, tt.q), 0.001)
		})
	}
}

func TestMean(t *testing.T) {
	assert.Zero(t, mean(nil))
	assert.InDelta(t, 2.0, mean([]float64{1, 2, 3}), 0.001)
}

func TestRatio(t *testing.T) {
	assert.Zero(t, ratio(5, 0))
	assert.InDelta(t, 84.0, ratio(42, 50), 0.001)
	assert.InDelta(t, 100.0, ratio(3, 3), 0.001)
}

func TestSortedCopyLeavesInputAlone(t *testing.T) {
	in := []float64{3, 1, 2}
	out := sortedCopy(in)
	assert.Equal(t, []float64{1, 2, 3}, out)
	assert.Equal(t, []float64{3, 1, 2}, in)
}
