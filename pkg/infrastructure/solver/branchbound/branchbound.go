// Package branchbound is a pure-Go MILP solver: depth-first branch-and-bound over LP relaxations solved
// by a bounded-variable simplex. Variables tied by equality pairs are merged before the search. It is
// meant for small and medium models and for tests; large stochastic windows belong on the HiGHS adapter.
package branchbound

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

const (
	integralityTol = 1e-6
	pruneTol       = 1e-7
	// DefaultMaxNodes caps the search when no other limit applies
	DefaultMaxNodes = 500_000
)

// Solver is a branch-and-bound MILP solver
type Solver struct {
	maxNodes int
	logger   zerolog.Logger
}

var _ solver.Solver = (*Solver)(nil)

// Option configures a Solver
type Option func(*Solver)

// WithMaxNodes caps the number of explored nodes; the incumbent is returned as feasible when hit
func WithMaxNodes(n int) Option {
	return func(s *Solver) { s.maxNodes = n }
}

// WithLogger attaches a logger for search progress
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Solver) { s.logger = logger }
}

// New creates a solver
func New(opts ...Option) *Solver {
	s := &Solver{maxNodes: DefaultMaxNodes, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type node struct {
	lower []float64
	upper []float64
	// bound is the parent's relaxation value, a lower bound on anything below this node
	bound float64
}

// Solve runs the search until it proves optimality, the context ends, the time limit passes or the node
// cap is reached. In the last three cases the best incumbent is returned with status Feasible, or
// NotSolved when there is none. The limits are also checked between simplex pivots.
func (s *Solver) Solve(ctx context.Context, model *solver.Model, opts solver.Options) (*solver.Solution, error) {
	start := time.Now()
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}

	reduced := reduce(model)
	inner := reduced.model
	vars := inner.Variables()
	n := len(vars)
	sign := 1.0
	if inner.Maximize() {
		sign = -1
	}
	cost := make([]float64, n)
	for j, c := range inner.Objective() {
		cost[j] = sign * c
	}
	relax := newRelaxation(inner, cost)

	root := node{lower: make([]float64, n), upper: make([]float64, n), bound: math.Inf(-1)}
	for j, v := range vars {
		root.lower[j], root.upper[j] = v.Lower, v.Upper
	}
	if !relax.tighten(vars, root.lower, root.upper) {
		return &solver.Solution{Status: solver.Infeasible, Elapsed: time.Since(start)}, nil
	}

	var (
		best      []float64
		incumbent = math.Inf(1)
		nodes     int
		stopped   bool
		stack     = []node{root}
	)
	for len(stack) > 0 {
		if ctx.Err() != nil || (s.maxNodes > 0 && nodes >= s.maxNodes) {
			stopped = true
			break
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if best != nil && current.bound >= incumbent-s.tolerance(incumbent, opts.MIPGap) {
			continue
		}

		nodes++
		obj, x, status, err := relax.solve(ctx, current.lower, current.upper)
		if err != nil {
			return nil, err
		}
		switch status {
		case lpStopped:
			stopped = true
		case lpInfeasible:
			continue
		case lpUnbounded:
			if nodes == 1 {
				return &solver.Solution{Status: solver.Unbounded, Elapsed: time.Since(start), Nodes: nodes}, nil
			}
			continue
		}
		if stopped {
			break
		}
		if best != nil && obj >= incumbent-s.tolerance(incumbent, opts.MIPGap) {
			continue
		}

		j := mostFractional(vars, x)
		if j < 0 {
			for k, v := range vars {
				if v.Kind != solver.Continuous {
					x[k] = math.Round(x[k])
				}
			}
			best, incumbent = x, relax.objective(x)
			s.logger.Debug().Int("node", nodes).Float64("objective", sign*incumbent).Msg("new incumbent")
			continue
		}

		down := node{lower: clone(current.lower), upper: clone(current.upper), bound: obj}
		down.upper[j] = math.Floor(x[j])
		up := node{lower: clone(current.lower), upper: clone(current.upper), bound: obj}
		up.lower[j] = math.Ceil(x[j])
		stack = append(stack, down, up)
	}

	solution := &solver.Solution{Elapsed: time.Since(start), Nodes: nodes}
	switch {
	case best != nil && stopped:
		solution.Status = solver.Feasible
	case best != nil:
		solution.Status = solver.Optimal
	case stopped:
		solution.Status = solver.NotSolved
	default:
		solution.Status = solver.Infeasible
	}
	if best != nil {
		solution.Values = reduced.expand(best)
		solution.Objective = model.Evaluate(solution.Values)
	}
	s.logger.Debug().
		Int("nodes", nodes).
		Str("status", solution.Status.String()).
		Dur("elapsed", solution.Elapsed).
		Msg("branch and bound finished")
	return solution, nil
}

func (s *Solver) tolerance(incumbent, gap float64) float64 {
	return pruneTol + gap*math.Abs(incumbent)
}

// mostFractional picks the integer variable furthest from an integer value, -1 when all are integral
func mostFractional(vars []solver.Variable, x []float64) int {
	pick, worst := -1, integralityTol
	for j, v := range vars {
		if v.Kind == solver.Continuous {
			continue
		}
		frac := math.Abs(x[j] - math.Round(x[j]))
		if frac > worst {
			pick, worst = j, frac
		}
	}
	return pick
}

func clone(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
