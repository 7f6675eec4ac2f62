package analysis

import "time"

// Dimension names one of the five scored aspects of a profile
type Dimension string

const (
	Activity      Dimension = "Activity"
	Diversity     Dimension = "Diversity"
	Community     Dimension = "Community"
	Documentation Dimension = "Documentation"
	CodeQuality   Dimension = "Code Quality"
)

// Dimensions returns the five dimensions in presentation order
func Dimensions() []Dimension {
	return []Dimension{Activity, Diversity, Community, Documentation, CodeQuality}
}

// Factor is one raw input that went into a sub-score
type Factor struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MetricScore is the 0-10 sub-score of a single dimension
type MetricScore struct {
	Dimension Dimension `json:"dimension"`
	Value     float64   `json:"value"`
	Available bool      `json:"available"`
	Factors   []Factor  `json:"factors"`
}

// AnalysisResult is the outcome of one successful analysis
type AnalysisResult struct {
	Username        string        `json:"username"`
	AvatarURL       string        `json:"avatar_url,omitempty"`
	Overall         float64       `json:"overall"`
	Metrics         []MetricScore `json:"metrics"`
	Strengths       []Dimension   `json:"strengths"`
	Weaknesses      []Dimension   `json:"weaknesses"`
	Recommendations []string      `json:"recommendations"`
	Headline        string        `json:"headline"`
	Partial         bool          `json:"partial"`
	Warnings        []string      `json:"warnings,omitempty"`
	AsOf            time.Time     `json:"as_of"`
}

// Metric returns the score of dimension d
func (r AnalysisResult) Metric(d Dimension) (MetricScore, bool) {
	for _, m := range r.Metrics {
		if m.Dimension == d {
			return m, true
		}
	}
	return MetricScore{}, false
}
