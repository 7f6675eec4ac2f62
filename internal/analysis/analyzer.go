package analysis

import (
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/types"
)

// Analyzer scores snapshots under a fixed policy. It holds no mutable state
// and is safe for concurrent use.
type Analyzer struct {
	policy Policy
}

// NewAnalyzer validates the policy and returns an analyzer for it
func NewAnalyzer(policy Policy) (*Analyzer, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{policy: policy}, nil
}

// Policy returns the scoring policy in use
func (a *Analyzer) Policy() Policy {
	return a.policy
}

// Extract runs the five extractors in presentation order
func (a *Analyzer) Extract(s types.Snapshot) []MetricScore {
	metrics := make([]MetricScore, 0, len(extractors))
	for _, e := range extractors {
		m := e.extract(s, a.policy)
		m.Value = round2(clip(m.Value, 0, 10))
		metrics = append(metrics, m)
	}
	return metrics
}

// Score turns a snapshot into an AnalysisResult. The same snapshot always
// gives the same result.
func (a *Analyzer) Score(s types.Snapshot) AnalysisResult {
	result := Aggregate(a.policy, a.Extract(s))
	result.Username = s.Profile.Login
	result.AvatarURL = s.Profile.AvatarURL
	result.AsOf = s.AsOf

	if !s.EventsAvailable {
		result.Partial = true
		result.Warnings = append(result.Warnings, "Recent activity could not be fetched; Activity was left out of the overall score.")
	}

	return result
}
