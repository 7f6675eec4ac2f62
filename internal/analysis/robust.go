package analysis

import (
	"math"
	"sort"
)

func clip(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// saturate maps x onto [0,1], reaching 1 at ceiling
func saturate(x, ceiling float64) float64 {
	if ceiling <= 0 {
		return 0
	}
	return clip(x/ceiling, 0, 1)
}

// logSaturate is saturate on a log1p scale so early growth counts for more
func logSaturate(x, ceiling float64) float64 {
	if ceiling <= 0 || x <= 0 {
		return 0
	}
	return clip(math.Log1p(x)/math.Log1p(ceiling), 0, 1)
}

// fraction of n that matched; 0 when n is 0
func fraction(matched, n int) float64 {
	if n == 0 {
		return 0
	}
	return clip(float64(matched)/float64(n), 0, 1)
}

// round2 rounds to two decimals
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// toScore turns a [0,1] blend into a rounded 0-10 value
func toScore(blend float64) float64 {
	return round2(10 * clip(blend, 0, 1))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
