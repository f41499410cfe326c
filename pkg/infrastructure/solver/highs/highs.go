// Package highs submits models to the HiGHS MIP provider through the nextmv SDK
package highs

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nextmv-io/sdk/mip"
	"github.com/rs/zerolog"

	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

// Provider is the nextmv solver provider name
const Provider = "highs"

// Solver adapts a solver.Model to nextmv's mip package
type Solver struct {
	logger zerolog.Logger
}

var _ solver.Solver = (*Solver)(nil)

// New creates a HiGHS-backed solver
func New(logger zerolog.Logger) *Solver {
	return &Solver{logger: logger}
}

// Solve translates the model, runs HiGHS and maps the result back
func (s *Solver) Solve(ctx context.Context, model *solver.Model, opts solver.Options) (*solver.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, vars := translate(model)

	highs, err := mip.NewSolver(Provider, m)
	if err != nil {
		return nil, fmt.Errorf("create %s solver: %w", Provider, err)
	}

	solveOptions := mip.NewSolveOptions()
	if limit := timeLimit(ctx, opts.TimeLimit); limit > 0 {
		if err := solveOptions.SetMaximumDuration(limit); err != nil {
			return nil, fmt.Errorf("set time limit: %w", err)
		}
	}
	if err := solveOptions.SetMIPGapRelative(opts.MIPGap); err != nil {
		return nil, fmt.Errorf("set mip gap: %w", err)
	}
	solveOptions.SetVerbosity(mip.Off)

	start := time.Now()
	result, err := highs.Solve(solveOptions)
	if err != nil {
		return nil, fmt.Errorf("%s solve: %w", Provider, err)
	}

	solution := &solver.Solution{Elapsed: time.Since(start)}
	if result == nil || !result.HasValues() {
		solution.Status = emptyStatus(result)
		s.logger.Debug().
			Dur("elapsed", solution.Elapsed).
			Str("status", solution.Status.String()).
			Msg("highs returned no assignment")
		return solution, nil
	}
	solution.Elapsed = result.RunTime()
	solution.Status = solver.Feasible
	if result.IsOptimal() {
		solution.Status = solver.Optimal
	}
	solution.Objective = result.ObjectiveValue()
	solution.Values = make([]float64, len(vars))
	for j, v := range vars {
		solution.Values[j] = result.Value(v)
	}
	return solution, nil
}

// verdict is the part of a HiGHS result that explains a missing assignment
type verdict interface {
	IsInfeasible() bool
	IsUnbounded() bool
}

// emptyStatus maps a result without values. Only a proven verdict is reported as such; a time out,
// numerical failure or missing result is NotSolved.
func emptyStatus(result verdict) solver.Status {
	switch {
	case result == nil:
		return solver.NotSolved
	case result.IsInfeasible():
		return solver.Infeasible
	case result.IsUnbounded():
		return solver.Unbounded
	default:
		return solver.NotSolved
	}
}

func translate(model *solver.Model) (mip.Model, []mip.Var) {
	m := mip.NewModel()
	vars := make([]mip.Var, model.NumVars())
	for j, v := range model.Variables() {
		switch v.Kind {
		case solver.Binary:
			vars[j] = m.NewBool()
		case solver.Integer:
			upper := int64(math.MaxInt32)
			if !math.IsInf(v.Upper, 1) {
				upper = int64(math.Floor(v.Upper))
			}
			vars[j] = m.NewInt(int64(math.Ceil(v.Lower)), upper)
		default:
			vars[j] = m.NewFloat(v.Lower, v.Upper)
		}
	}

	for _, c := range model.Constraints() {
		constraint := m.NewConstraint(sense(c.Sense), c.RHS)
		for _, term := range c.Terms {
			constraint.NewTerm(term.Coef, vars[term.Var])
		}
	}

	if model.Maximize() {
		m.Objective().SetMaximize()
	} else {
		m.Objective().SetMinimize()
	}
	for j, coef := range model.Objective() {
		if coef != 0 {
			m.Objective().NewTerm(coef, vars[j])
		}
	}
	return m, vars
}

func sense(s solver.Sense) mip.Sense {
	switch s {
	case solver.GreaterOrEqual:
		return mip.GreaterThanOrEqual
	case solver.Equal:
		return mip.Equal
	default:
		return mip.LessThanOrEqual
	}
}

// timeLimit is the smaller of the configured limit and the time left on the context
func timeLimit(ctx context.Context, configured time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return configured
	}
	remaining := time.Until(deadline)
	if configured <= 0 || remaining < configured {
		return remaining
	}
	return configured
}
