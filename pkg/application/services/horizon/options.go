package horizon

import (
	"github.com/vsinha/rollalloc/pkg/domain"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
)

// Method selects how future supply enters each window's model
type Method int

const (
	// Stochastic branches every future window day into low, mid and high supply
	Stochastic Method = iota
	// Deterministic plans on the expected volumes only
	Deterministic
	// PerfectInformation plans on the realized volumes of the active outcome set
	PerfectInformation
)

// String method for Method enum
func (m Method) String() string {
	switch m {
	case Stochastic:
		return "stochastic"
	case Deterministic:
		return "deterministic"
	case PerfectInformation:
		return "perfect_information"
	default:
		return "unknown"
	}
}

// ParseMethod reads a method name
func ParseMethod(s string) (Method, error) {
	switch s {
	case "stochastic", "":
		return Stochastic, nil
	case "deterministic":
		return Deterministic, nil
	case "perfect_information", "perfect":
		return PerfectInformation, nil
	default:
		return 0, domain.NewConfigurationError("method", "unknown solution method %q", s)
	}
}

// Options configures a rolling-horizon run
type Options struct {
	StartDay   entities.Day
	EndDay     entities.Day
	WindowDays int
	Method     Method
	// BranchProbabilities are the low, mid and high branch probabilities of stochastic trees
	BranchProbabilities [3]float64
	// ForcedLevel pins every branching day to one level
	ForcedLevel *scenariotree.Level
	// PerProduct solves one model per grade instead of one joint model
	PerProduct bool
}

// DefaultOptions returns a three-day stochastic window starting at day 0
func DefaultOptions(endDay entities.Day) Options {
	return Options{
		StartDay:            0,
		EndDay:              endDay,
		WindowDays:          3,
		Method:              Stochastic,
		BranchProbabilities: scenariotree.DefaultBranchProbabilities,
	}
}

// Validate checks the run bounds and the tree settings
func (o Options) Validate() error {
	if o.StartDay < 0 {
		return domain.NewConfigurationError("start_day", "cannot be negative, got %d", o.StartDay)
	}
	if o.EndDay < o.StartDay {
		return domain.NewConfigurationError("end_day", "day %d is before start day %d", o.EndDay, o.StartDay)
	}
	if o.WindowDays < 1 || o.WindowDays > scenariotree.MaxDays {
		return domain.NewConfigurationError(
			"window_days", "must be in [1, %d], got %d", scenariotree.MaxDays, o.WindowDays,
		)
	}
	if o.Method < Stochastic || o.Method > PerfectInformation {
		return domain.NewConfigurationError("method", "unknown solution method %d", int(o.Method))
	}
	return scenariotree.ValidateProbabilities(o.BranchProbabilities)
}

// TreeOptions returns the scenario tree settings implied by the method
func (o Options) TreeOptions() scenariotree.Options {
	return scenariotree.Options{
		Stochastic:          o.Method == Stochastic,
		BranchProbabilities: o.BranchProbabilities,
		Forced:              o.ForcedLevel,
	}
}
