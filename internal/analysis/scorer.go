package analysis

var recommendations = map[Dimension]string{
	Activity:      "Commit more regularly. Small, frequent pushes and pull requests keep your profile alive.",
	Diversity:     "Try a new language or framework and tag your repositories with topics.",
	Community:     "Engage with other developers: follow people, star projects and contribute to open source.",
	Documentation: "Give every repository a description and a README so visitors understand it at a glance.",
	CodeQuality:   "Polish your best projects: triage open issues and build things others want to star.",
}

// Recommendation returns the static suggestion for a weak dimension
func Recommendation(d Dimension) string {
	return recommendations[d]
}

// headline tiers, highest first
var headlines = []struct {
	min  float64
	text string
}{
	{8, "Outstanding profile! You are setting a high bar for the community."},
	{6, "Great profile! A few improvements will make it shine."},
	{4, "Good start! Keep building and your profile will grow."},
}

const headlineJustStarted = "Your journey has just begun. Every repository counts!"

// Headline returns the appreciation text for an overall score
func Headline(overall float64) string {
	for _, h := range headlines {
		if overall >= h.min {
			return h.text
		}
	}
	return headlineJustStarted
}

// Aggregate combines the sub-scores into an overall score. Unavailable
// dimensions are left out and the remaining weights renormalised.
func Aggregate(p Policy, metrics []MetricScore) AnalysisResult {
	weighted, weightSum := 0.0, 0.0
	for _, m := range metrics {
		if !m.Available {
			continue
		}
		w := p.Weights.Of(m.Dimension)
		weighted += w * clip(m.Value, 0, 10)
		weightSum += w
	}

	overall := 0.0
	if weightSum > 0 {
		overall = round2(clip(weighted/weightSum, 0, 10))
	}

	result := AnalysisResult{
		Overall:         overall,
		Metrics:         metrics,
		Strengths:       []Dimension{},
		Weaknesses:      []Dimension{},
		Recommendations: []string{},
		Headline:        Headline(overall),
	}

	for _, m := range metrics {
		if !m.Available {
			continue
		}
		if m.Value >= p.StrengthThreshold {
			result.Strengths = append(result.Strengths, m.Dimension)
		}
		if m.Value <= p.WeaknessThreshold {
			result.Weaknesses = append(result.Weaknesses, m.Dimension)
			result.Recommendations = append(result.Recommendations, Recommendation(m.Dimension))
		}
	}

	return result
}
