package analysis

import (
	"fmt"
	"math"

	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
)

// Weights is the share of each dimension in the overall score. They sum to 1.
type Weights struct {
	Activity      float64 `koanf:"activity" json:"activity" validate:"gte=0,lte=1"`
	Diversity     float64 `koanf:"diversity" json:"diversity" validate:"gte=0,lte=1"`
	Community     float64 `koanf:"community" json:"community" validate:"gte=0,lte=1"`
	Documentation float64 `koanf:"documentation" json:"documentation" validate:"gte=0,lte=1"`
	CodeQuality   float64 `koanf:"code_quality" json:"code_quality" validate:"gte=0,lte=1"`
}

// Of returns the weight of d
func (w Weights) Of(d Dimension) float64 {
	switch d {
	case Activity:
		return w.Activity
	case Diversity:
		return w.Diversity
	case Community:
		return w.Community
	case Documentation:
		return w.Documentation
	case CodeQuality:
		return w.CodeQuality
	default:
		return 0
	}
}

// Sum of all five weights
func (w Weights) Sum() float64 {
	return w.Activity + w.Diversity + w.Community + w.Documentation + w.CodeQuality
}

// Policy holds every tunable scoring constant. Ceilings are the raw values at
// which a ratio saturates.
type Policy struct {
	Weights           Weights `koanf:"weights" json:"weights"`
	StrengthThreshold float64 `koanf:"strength_threshold" json:"strength_threshold" validate:"gte=0,lte=10"`
	WeaknessThreshold float64 `koanf:"weakness_threshold" json:"weakness_threshold" validate:"gte=0,lte=10"`

	WindowDays       int     `koanf:"window_days" json:"window_days" validate:"gt=0"`
	EventCeiling     float64 `koanf:"event_ceiling" json:"event_ceiling" validate:"gt=0"`
	ActiveDayCeiling float64 `koanf:"active_day_ceiling" json:"active_day_ceiling" validate:"gt=0"`
	RecencyTauDays   float64 `koanf:"recency_tau_days" json:"recency_tau_days" validate:"gt=0"`

	LanguageCeiling float64 `koanf:"language_ceiling" json:"language_ceiling" validate:"gt=0"`
	TopicCeiling    float64 `koanf:"topic_ceiling" json:"topic_ceiling" validate:"gt=0"`

	FollowerCeiling  float64 `koanf:"follower_ceiling" json:"follower_ceiling" validate:"gt=0"`
	FollowingCeiling float64 `koanf:"following_ceiling" json:"following_ceiling" validate:"gt=0"`
	ForkCeiling      float64 `koanf:"fork_ceiling" json:"fork_ceiling" validate:"gt=0"`

	StarCeiling float64 `koanf:"star_ceiling" json:"star_ceiling" validate:"gt=0"`
}

// DefaultPolicy returns the stock scoring policy
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			Activity:      0.30,
			Diversity:     0.20,
			Community:     0.20,
			Documentation: 0.15,
			CodeQuality:   0.15,
		},
		StrengthThreshold: 7.0,
		WeaknessThreshold: 4.0,

		WindowDays:       90,
		EventCeiling:     30,
		ActiveDayCeiling: 20,
		RecencyTauDays:   30,

		LanguageCeiling: 5,
		TopicCeiling:    10,

		FollowerCeiling:  100,
		FollowingCeiling: 50,
		ForkCeiling:      100,

		StarCeiling: 250,
	}
}

const weightTolerance = 1e-6

// Validate checks the cross-field rules struct tags cannot express
func (p Policy) Validate() error {
	if sum := p.Weights.Sum(); math.Abs(sum-1) > weightTolerance {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("scoring weights must sum to 1.0, got %.6f", sum), nil)
	}
	for _, d := range Dimensions() {
		if p.Weights.Of(d) < 0 {
			return apperrors.NewConfigurationError(fmt.Sprintf("weight of %s is negative", d), nil)
		}
	}
	if p.WeaknessThreshold >= p.StrengthThreshold {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("weakness threshold %.2f must be below strength threshold %.2f",
				p.WeaknessThreshold, p.StrengthThreshold), nil)
	}
	ceilings := map[string]float64{
		"event_ceiling":      p.EventCeiling,
		"active_day_ceiling": p.ActiveDayCeiling,
		"recency_tau_days":   p.RecencyTauDays,
		"language_ceiling":   p.LanguageCeiling,
		"topic_ceiling":      p.TopicCeiling,
		"follower_ceiling":   p.FollowerCeiling,
		"following_ceiling":  p.FollowingCeiling,
		"fork_ceiling":       p.ForkCeiling,
		"star_ceiling":       p.StarCeiling,
	}
	for _, name := range sortedKeys(ceilings) {
		if ceilings[name] <= 0 {
			return apperrors.NewConfigurationError(fmt.Sprintf("%s must be positive", name), nil)
		}
	}
	if p.WindowDays <= 0 {
		return apperrors.NewConfigurationError("window_days must be positive", nil)
	}
	return nil
}
