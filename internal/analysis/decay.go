package analysis

import "math"

// DecayWeight computes exp(-deltaDays/tau).
func DecayWeight(deltaDays float64, tau float64) float64 {
	if tau <= 0 {
		return 0
	}
	if deltaDays < 0 {
		deltaDays = 0
	}
	return math.Exp(-deltaDays / tau)
}
