package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func metricsOf(values ...float64) []MetricScore {
	metrics := make([]MetricScore, 0, len(values))
	for i, d := range Dimensions() {
		metrics = append(metrics, MetricScore{Dimension: d, Value: values[i], Available: true})
	}
	return metrics
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		overall    float64
		strengths  []Dimension
		weaknesses []Dimension
	}{
		{
			name:       "all zero",
			values:     []float64{0, 0, 0, 0, 0},
			overall:    0,
			strengths:  []Dimension{},
			weaknesses: Dimensions(),
		},
		{
			name:       "all ten",
			values:     []float64{10, 10, 10, 10, 10},
			overall:    10,
			strengths:  Dimensions(),
			weaknesses: []Dimension{},
		},
		{
			name:       "thresholds are inclusive",
			values:     []float64{7, 4, 5, 5, 5},
			overall:    5.4,
			strengths:  []Dimension{Activity},
			weaknesses: []Dimension{Diversity},
		},
		{
			name:       "out of range values are clamped",
			values:     []float64{15, -3, 10, 10, 10},
			overall:    8,
			strengths:  []Dimension{Activity, Community, Documentation, CodeQuality},
			weaknesses: []Dimension{Diversity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Aggregate(DefaultPolicy(), metricsOf(tt.values...))
			assert.InDelta(t, tt.overall, result.Overall, 1e-9)
			assert.Equal(t, tt.strengths, result.Strengths)
			assert.Equal(t, tt.weaknesses, result.Weaknesses)
			assert.Len(t, result.Recommendations, len(tt.weaknesses))
		})
	}
}

func TestAggregateRenormalisesUnavailable(t *testing.T) {
	metrics := metricsOf(0, 5, 5, 5, 5)
	metrics[0].Available = false

	result := Aggregate(DefaultPolicy(), metrics)
	assert.Equal(t, 5.0, result.Overall)
	assert.NotContains(t, result.Weaknesses, Activity)
}

func TestRecommendationsFollowDimensionOrder(t *testing.T) {
	result := Aggregate(DefaultPolicy(), metricsOf(1, 9, 2, 9, 3))

	assert.Equal(t, []Dimension{Activity, Community, CodeQuality}, result.Weaknesses)
	assert.Equal(t, []string{
		Recommendation(Activity),
		Recommendation(Community),
		Recommendation(CodeQuality),
	}, result.Recommendations)
	for _, r := range result.Recommendations {
		assert.NotEmpty(t, r)
	}
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		overall  float64
		contains string
	}{
		{9.5, "Outstanding"},
		{8, "Outstanding"},
		{7.99, "Great"},
		{6, "Great"},
		{4, "Good start"},
		{3.99, "just begun"},
		{0, "just begun"},
	}

	for _, tt := range tests {
		assert.Contains(t, Headline(tt.overall), tt.contains, "overall %.2f", tt.overall)
	}
}
