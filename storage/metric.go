package storage

import (
	"fmt"
	"math"
)

// Metric names the vector distance used for nearest-neighbor retrieval.
// Documents must be queried with the same metric the embedding model was
// designed for; nothing records which metric was used at ingestion time.
type Metric string

const (
	// MetricCosine is 1 - cosine similarity (pgvector operator <=>).
	MetricCosine Metric = "cosine"

	// MetricL2 is the Euclidean distance (pgvector operator <->).
	MetricL2 Metric = "l2"

	// MetricInnerProduct is the negated inner product (pgvector operator <#>).
	MetricInnerProduct Metric = "inner_product"
)

// DefaultMetric matches the operator the documents table is queried with
// and the metric OpenAI recommends for its embedding models.
const DefaultMetric = MetricCosine

// ParseMetric converts a configuration string into a Metric.
// An empty string selects DefaultMetric.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "":
		return DefaultMetric, nil
	case MetricCosine, MetricL2, MetricInnerProduct:
		return Metric(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Operator returns the pgvector SQL operator implementing the metric.
func (m Metric) Operator() string {
	switch m {
	case MetricL2:
		return "<->"
	case MetricInnerProduct:
		return "<#>"
	default:
		return "<=>"
	}
}

// Distance computes the metric between two vectors of equal length.
// Results agree with the pgvector operator returned by Operator.
func (m Metric) Distance(a, b []float32) float32 {
	switch m {
	case MetricL2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return float32(math.Sqrt(sum))

	case MetricInnerProduct:
		var dot float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
		}
		return float32(-dot)

	default:
		var dot, normA, normB float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			normA += float64(a[i]) * float64(a[i])
			normB += float64(b[i]) * float64(b[i])
		}
		if normA == 0 || normB == 0 {
			// pgvector yields NaN here; sort such rows last instead.
			return float32(math.Inf(1))
		}
		return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
	}
}
