package scenariotree

import (
	"math"

	"github.com/vsinha/rollalloc/pkg/domain"
)

// SigmaRule selects how the supply deviation is derived from an estimate
type SigmaRule int

const (
	// SigmaSqrt is sqrt(expected * pct / 100)
	SigmaSqrt SigmaRule = iota
	// SigmaHalvedVariance is expected * pct / 100 / 2, the reading of the legacy sampler
	SigmaHalvedVariance
)

// String method for SigmaRule enum
func (r SigmaRule) String() string {
	switch r {
	case SigmaSqrt:
		return "sqrt"
	case SigmaHalvedVariance:
		return "halved_variance"
	default:
		return "unknown"
	}
}

// ParseSigmaRule reads sqrt or halved_variance
func ParseSigmaRule(s string) (SigmaRule, error) {
	switch s {
	case "sqrt", "":
		return SigmaSqrt, nil
	case "halved_variance":
		return SigmaHalvedVariance, nil
	default:
		return 0, domain.NewConfigurationError("sigma_rule", "unknown sigma rule %q", s)
	}
}

// Sigma returns the deviation in boxes of an estimated volume
func (r SigmaRule) Sigma(expected, averageDeviationPercent float64) float64 {
	variance := expected * averageDeviationPercent / 100
	if variance <= 0 {
		return 0
	}
	switch r {
	case SigmaHalvedVariance:
		return variance / 2
	default:
		return math.Sqrt(variance)
	}
}

// Volume returns the supply at a level: expected shifted by one sigma down or up, never below zero
// sigma is in boxes, so the level adds or subtracts it (expected ± sigma) rather than scaling
func Volume(expected float64, level Level, averageDeviationPercent float64, rule SigmaRule) float64 {
	sigma := rule.Sigma(expected, averageDeviationPercent)
	return math.Max(0, expected+float64(level-Mid)*sigma)
}
