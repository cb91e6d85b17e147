package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"", MetricCosine, false},
		{"cosine", MetricCosine, false},
		{"l2", MetricL2, false},
		{"inner_product", MetricInnerProduct, false},
		{"manhattan", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMetric(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMetric)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestMetricOperator(t *testing.T) {
	assert.Equal(t, "<=>", MetricCosine.Operator())
	assert.Equal(t, "<->", MetricL2.Operator())
	assert.Equal(t, "<#>", MetricInnerProduct.Operator())
}

func TestMetricDistance(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{2, 0}

	t.Run("cosine", func(t *testing.T) {
		assert.InDelta(t, 0, MetricCosine.Distance(a, c), 1e-6)
		assert.InDelta(t, 1, MetricCosine.Distance(a, b), 1e-6)
		assert.InDelta(t, 2, MetricCosine.Distance(a, []float32{-1, 0}), 1e-6)
	})

	t.Run("cosine zero vector sorts last", func(t *testing.T) {
		assert.True(t, math.IsInf(float64(MetricCosine.Distance(a, []float32{0, 0})), 1))
	})

	t.Run("l2", func(t *testing.T) {
		assert.InDelta(t, math.Sqrt2, MetricL2.Distance(a, b), 1e-6)
		assert.InDelta(t, 1, MetricL2.Distance(a, c), 1e-6)
	})

	t.Run("inner product", func(t *testing.T) {
		assert.InDelta(t, -2, MetricInnerProduct.Distance(a, c), 1e-6)
		assert.InDelta(t, 0, MetricInnerProduct.Distance(a, b), 1e-6)
	})
}
