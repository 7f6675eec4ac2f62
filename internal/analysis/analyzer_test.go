package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(DefaultPolicy())
	require.NoError(t, err)
	return a
}

func TestNewAnalyzerRejectsBadPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.Weights.Activity = 0.9

	_, err := NewAnalyzer(p)
	assert.Error(t, err)
}

func TestScoreActiveUser(t *testing.T) {
	result := newTestAnalyzer(t).Score(activeSnapshot())

	assert.Equal(t, "known-active-user", result.Username)
	assert.Greater(t, result.Overall, 7.0)
	assert.InDelta(t, 8.71, result.Overall, 0.02)
	assert.Contains(t, result.Strengths, Activity)
	assert.Contains(t, result.Strengths, Diversity)
	assert.Empty(t, result.Weaknesses)
	assert.Empty(t, result.Recommendations)
	assert.False(t, result.Partial)
	assert.Contains(t, result.Headline, "Outstanding")
	assert.Equal(t, testAsOf, result.AsOf)

	require.Len(t, result.Metrics, 5)
	for i, d := range Dimensions() {
		assert.Equal(t, d, result.Metrics[i].Dimension)
	}
}

func TestScoreInactiveUser(t *testing.T) {
	result := newTestAnalyzer(t).Score(inactiveSnapshot())

	assert.Less(t, result.Overall, 2.0)
	assert.Equal(t, 0.88, result.Overall)
	assert.Equal(t, Dimensions(), result.Weaknesses)
	assert.Len(t, result.Recommendations, 5)
	assert.Empty(t, result.Strengths)
	assert.Contains(t, result.Headline, "just begun")
}

func TestScoreIsDeterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	s := activeSnapshot()

	first := a.Score(s)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, a.Score(s))
	}
}

func TestScoreOverallWithinBounds(t *testing.T) {
	a := newTestAnalyzer(t)

	for _, result := range []AnalysisResult{a.Score(activeSnapshot()), a.Score(inactiveSnapshot())} {
		assert.GreaterOrEqual(t, result.Overall, 0.0)
		assert.LessOrEqual(t, result.Overall, 10.0)
	}
}

func TestScorePartialData(t *testing.T) {
	s := activeSnapshot()
	s.Events = nil
	s.EventsAvailable = false

	result := newTestAnalyzer(t).Score(s)

	assert.True(t, result.Partial)
	require.Len(t, result.Warnings, 1)

	activity, ok := result.Metric(Activity)
	require.True(t, ok)
	assert.False(t, activity.Available)
	assert.NotContains(t, result.Weaknesses, Activity)

	available := 0
	for _, m := range result.Metrics {
		if m.Available {
			available++
		}
	}
	assert.Equal(t, 4, available)
	assert.InDelta(t, 8.17, result.Overall, 0.02)
}
