// Package scenariotree enumerates the ternary tree of future supply realizations over a planning window.
//
// Scenario s of a window of H days is a base-3 number with H-1 digits. The digit at offset k (counting
// from the window's last day backwards) is the supply level of that day. The first window day is
// already realized and never branches.
package scenariotree

import (
	"math"

	"github.com/vsinha/rollalloc/pkg/domain"
)

// MaxDays bounds the window so that 3^(days-1) stays a manageable scenario count
const MaxDays = 12

// Level is the supply outcome of one branching day
type Level int

const (
	Low Level = iota
	Mid
	High
)

// String method for Level enum
func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case Mid:
		return "mid"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// ParseLevel reads low, mid or high
func ParseLevel(s string) (Level, error) {
	switch s {
	case "low", "0":
		return Low, nil
	case "mid", "1":
		return Mid, nil
	case "high", "2":
		return High, nil
	default:
		return 0, domain.NewConfigurationError("forced_level", "unknown supply level %q", s)
	}
}

// DefaultBranchProbabilities are the per-day probabilities of the low, mid and high branches
var DefaultBranchProbabilities = [3]float64{0.2, 0.6, 0.2}

const probabilityTolerance = 1e-9

// Options configures a tree
type Options struct {
	// Stochastic enables branching; when false the tree holds one expected-supply scenario
	Stochastic          bool
	BranchProbabilities [3]float64
	// Forced, when set, makes every branching day take this level in every scenario
	Forced *Level
}

// Tree is the scenario tree of one planning window
type Tree struct {
	days      int
	scenarios int
	probs     [3]float64
	forced    *Level
}

// New builds the tree of a window of the given number of days
func New(days int, opts Options) (*Tree, error) {
	if days < 1 || days > MaxDays {
		return nil, domain.NewConfigurationError("window_days", "must be in [1, %d], got %d", MaxDays, days)
	}
	if err := ValidateProbabilities(opts.BranchProbabilities); err != nil {
		return nil, err
	}
	if opts.Forced != nil && (*opts.Forced < Low || *opts.Forced > High) {
		return nil, domain.NewConfigurationError("forced_level", "invalid level %d", int(*opts.Forced))
	}

	scenarios := 1
	if opts.Stochastic {
		scenarios = pow3(days - 1)
	}
	return &Tree{days: days, scenarios: scenarios, probs: opts.BranchProbabilities, forced: opts.Forced}, nil
}

// ValidateProbabilities checks the branch probabilities are non-negative and sum to 1
func ValidateProbabilities(probs [3]float64) error {
	sum := 0.0
	for _, p := range probs {
		if p < 0 {
			return domain.NewConfigurationError("branch_probabilities", "negative probability %g", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return domain.NewConfigurationError("branch_probabilities", "must sum to 1, got %g", sum)
	}
	return nil
}

// Days returns the window length H
func (t *Tree) Days() int { return t.days }

// Scenarios returns the scenario count, 3^(H-1) or 1 when not stochastic
func (t *Tree) Scenarios() int { return t.scenarios }

// Stochastic reports whether the tree branches
func (t *Tree) Stochastic() bool { return t.scenarios > 1 }

// SupplyLevel is the level encoded by a scenario index at a day offset: floor(s / 3^offset) mod 3
func SupplyLevel(scenario, offset int) Level {
	return Level((scenario / pow3(offset)) % 3)
}

// Level returns the supply level of a window day (0 is the first window day) in a scenario
func (t *Tree) Level(scenario, dayIndex int) Level {
	if dayIndex <= 0 {
		return Mid
	}
	if t.forced != nil {
		return *t.forced
	}
	if t.scenarios == 1 {
		return Mid
	}
	return SupplyLevel(scenario, t.days-1-dayIndex)
}

// Probability returns the product of the branch probabilities along the scenario's path
func (t *Tree) Probability(scenario int) float64 {
	if t.scenarios == 1 {
		return 1
	}
	p := 1.0
	for offset := 0; offset < t.days-1; offset++ {
		p *= t.probs[SupplyLevel(scenario, offset)]
	}
	return p
}

// Path returns the levels of every window day in a scenario
func (t *Tree) Path(scenario int) []Level {
	path := make([]Level, t.days)
	for day := range path {
		path[day] = t.Level(scenario, day)
	}
	return path
}

// ClusterSize returns how many consecutive scenarios share the same realized information after
// daysElapsed window days. It fails when the count does not divide evenly.
func ClusterSize(totalScenarios, daysElapsed int) (int, error) {
	if totalScenarios < 1 {
		return 0, domain.NewConfigurationError("scenarios", "must be positive, got %d", totalScenarios)
	}
	if daysElapsed <= 0 {
		return totalScenarios, nil
	}
	if daysElapsed >= MaxDays*2 {
		return 0, domain.NewConfigurationError("days_elapsed", "too large: %d", daysElapsed)
	}
	divisor := pow3(daysElapsed)
	if totalScenarios%divisor != 0 {
		return 0, domain.NewConfigurationError(
			"non_anticipativity",
			"cluster size %d/3^%d is not a whole number",
			totalScenarios,
			daysElapsed,
		)
	}
	return totalScenarios / divisor, nil
}

func pow3(n int) int {
	result := 1
	for i := 0; i < n; i++ {
		result *= 3
	}
	return result
}
