package branchbound

import (
	"context"
	"fmt"
	"math"

	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

const feasibilityTol = 1e-9

// relaxation is the continuous relaxation of a model. Each node of the search solves it under its own
// variable bounds.
type relaxation struct {
	n    int
	cost []float64
	rows []sparseRow
	// scale is the largest right-hand side, used to size the phase one tolerance
	scale float64
}

func newRelaxation(model *solver.Model, cost []float64) *relaxation {
	r := &relaxation{n: model.NumVars(), cost: cost, scale: 1}
	for _, c := range model.Constraints() {
		merged := make(map[int]float64, len(c.Terms))
		order := make([]int, 0, len(c.Terms))
		for _, term := range c.Terms {
			if _, seen := merged[int(term.Var)]; !seen {
				order = append(order, int(term.Var))
			}
			merged[int(term.Var)] += term.Coef
		}
		rw := sparseRow{sense: c.Sense, rhs: c.RHS}
		for _, j := range order {
			if merged[j] != 0 {
				rw.index = append(rw.index, j)
				rw.coef = append(rw.coef, merged[j])
			}
		}
		r.rows = append(r.rows, rw)
		r.scale = math.Max(r.scale, math.Abs(c.RHS))
	}
	return r
}

// tighten derives variable bounds from single-variable rows, rounding integer bounds inwards.
// It reports false when the bounds cross.
func (r *relaxation) tighten(vars []solver.Variable, lower, upper []float64) bool {
	for _, rw := range r.rows {
		if len(rw.index) != 1 {
			continue
		}
		j, a := rw.index[0], rw.coef[0]
		bound := rw.rhs / a
		lessThan := rw.sense == solver.LessOrEqual
		if a < 0 {
			lessThan = !lessThan
		}
		if rw.sense == solver.Equal || lessThan {
			upper[j] = math.Min(upper[j], bound)
		}
		if rw.sense == solver.Equal || !lessThan {
			lower[j] = math.Max(lower[j], bound)
		}
	}
	for j, v := range vars {
		if v.Kind != solver.Continuous {
			lower[j] = math.Ceil(lower[j] - 1e-9)
			if !math.IsInf(upper[j], 1) {
				upper[j] = math.Floor(upper[j] + 1e-9)
			}
		}
		if lower[j] > upper[j]+feasibilityTol {
			return false
		}
	}
	return true
}

// solve minimizes cost.x subject to the rows and lower <= x <= upper. Empty rows are checked directly;
// the rest go to a bounded simplex that returns lpStopped when ctx ends mid-solve.
func (r *relaxation) solve(ctx context.Context, lower, upper []float64) (float64, []float64, lpStatus, error) {
	for j := 0; j < r.n; j++ {
		if math.IsInf(lower[j], -1) {
			return 0, nil, 0, fmt.Errorf("variable %d has no finite lower bound", j)
		}
		if lower[j] > upper[j]+feasibilityTol {
			return 0, nil, lpInfeasible, nil
		}
	}

	rows := make([]sparseRow, 0, len(r.rows))
	for _, rw := range r.rows {
		if len(rw.index) > 0 {
			rows = append(rows, rw)
			continue
		}
		feasible := true
		switch rw.sense {
		case solver.LessOrEqual:
			feasible = rw.rhs >= -feasibilityTol
		case solver.GreaterOrEqual:
			feasible = rw.rhs <= feasibilityTol
		case solver.Equal:
			feasible = math.Abs(rw.rhs) <= feasibilityTol
		}
		if !feasible {
			return 0, nil, lpInfeasible, nil
		}
	}

	bounded := make([]float64, r.n)
	for j := range bounded {
		bounded[j] = math.Max(upper[j], lower[j])
	}
	t := newTableau(r.n, rows, lower, bounded)
	status := t.minimize(ctx, r.cost, feasibilityTol*r.scale*float64(len(rows)+1))
	if status != lpOptimal {
		return 0, nil, status, nil
	}

	x := make([]float64, r.n)
	for j := range x {
		x[j] = math.Min(math.Max(t.x[j], lower[j]), bounded[j])
	}
	return r.objective(x), x, lpOptimal, nil
}

func (r *relaxation) objective(x []float64) float64 {
	total := 0.0
	for j, c := range r.cost {
		total += c * x[j]
	}
	return total
}
