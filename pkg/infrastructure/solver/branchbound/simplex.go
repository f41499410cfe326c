package branchbound

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

const (
	pivotTol   = 1e-9
	reducedTol = 1e-9
	ratioTol   = 1e-12
	// checkEvery is the number of pivots between context checks
	checkEvery = 32
	// blandAfter switches pricing to the smallest eligible index after this many degenerate pivots
	blandAfter = 50
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
	// lpStopped means the context ended or the pivot limit was reached
	lpStopped
)

// sparseRow is sum(coef[k] * x[index[k]]) sense rhs over structural columns
type sparseRow struct {
	index []int
	coef  []float64
	sense solver.Sense
	rhs   float64
}

// tableau is a dense bounded-variable simplex tableau. Every row owns a slack whose bounds encode the
// sense: [0, inf) for <=, (-inf, 0] for >= and [0, 0] for =. Rows whose slack cannot absorb the
// starting residual get an artificial column for phase one.
type tableau struct {
	n         int
	rows      [][]float64
	rhs       []float64
	basis     []int
	basic     []bool
	lo, up    []float64
	x         []float64
	reduced   []float64
	artStart  int
	maxPivots int
}

func newTableau(n int, rows []sparseRow, lower, upper []float64) *tableau {
	m := len(rows)
	residual := make([]float64, m)
	artificials := 0
	for i, rw := range rows {
		r := rw.rhs
		for k, j := range rw.index {
			r -= rw.coef[k] * lower[j]
		}
		residual[i] = r
		if !slackAbsorbs(rw.sense, r) {
			artificials++
		}
	}

	cols := n + m + artificials
	t := &tableau{
		n:        n,
		rows:     make([][]float64, m),
		rhs:      make([]float64, m),
		basis:    make([]int, m),
		basic:    make([]bool, cols),
		lo:       make([]float64, cols),
		up:       make([]float64, cols),
		x:        make([]float64, cols),
		reduced:  make([]float64, cols),
		artStart: n + m,
	}
	t.maxPivots = 50*(m+cols) + 1000
	copy(t.lo, lower)
	copy(t.up, upper)
	copy(t.x, lower)

	next := t.artStart
	for i, rw := range rows {
		slack := n + i
		switch rw.sense {
		case solver.LessOrEqual:
			t.lo[slack], t.up[slack] = 0, math.Inf(1)
		case solver.GreaterOrEqual:
			t.lo[slack], t.up[slack] = math.Inf(-1), 0
		default:
			t.lo[slack], t.up[slack] = 0, 0
		}

		row := make([]float64, cols)
		if slackAbsorbs(rw.sense, residual[i]) {
			for k, j := range rw.index {
				row[j] += rw.coef[k]
			}
			row[slack] = 1
			t.rhs[i] = rw.rhs
			t.basis[i] = slack
			t.x[slack] = residual[i]
		} else {
			sign := 1.0
			if residual[i] < 0 {
				sign = -1
			}
			for k, j := range rw.index {
				row[j] += sign * rw.coef[k]
			}
			row[slack] = sign
			row[next] = 1
			t.rhs[i] = sign * rw.rhs
			t.basis[i] = next
			t.lo[next], t.up[next] = 0, math.Inf(1)
			t.x[next] = sign * residual[i]
			next++
		}
		t.rows[i] = row
		t.basic[t.basis[i]] = true
	}
	return t
}

func slackAbsorbs(sense solver.Sense, residual float64) bool {
	switch sense {
	case solver.LessOrEqual:
		return residual >= 0
	case solver.GreaterOrEqual:
		return residual <= 0
	default:
		return residual == 0
	}
}

// minimize runs phase one when artificials exist, then minimizes cost over the structural columns
func (t *tableau) minimize(ctx context.Context, cost []float64, feasTol float64) lpStatus {
	cols := len(t.x)
	if t.artStart < cols {
		phaseOne := make([]float64, cols)
		for j := t.artStart; j < cols; j++ {
			phaseOne[j] = 1
		}
		if status := t.run(ctx, phaseOne); status == lpStopped {
			return status
		}
		t.refresh()
		infeasibility := 0.0
		for j := t.artStart; j < cols; j++ {
			infeasibility += t.x[j]
		}
		if infeasibility > feasTol {
			return lpInfeasible
		}
		// artificials stay at zero from here on, basic ones leave on the first pivot through their row
		for j := t.artStart; j < cols; j++ {
			t.up[j] = 0
			if !t.basic[j] {
				t.x[j] = 0
			}
		}
	}

	phaseTwo := make([]float64, cols)
	copy(phaseTwo, cost)
	status := t.run(ctx, phaseTwo)
	t.refresh()
	return status
}

func (t *tableau) run(ctx context.Context, cost []float64) lpStatus {
	copy(t.reduced, cost)
	for i, b := range t.basis {
		if cb := cost[b]; cb != 0 {
			floats.AddScaled(t.reduced, -cb, t.rows[i])
		}
	}

	degenerate := 0
	for pivots := 0; ; pivots++ {
		if pivots%checkEvery == 0 && ctx.Err() != nil {
			return lpStopped
		}
		if pivots > t.maxPivots {
			return lpStopped
		}
		bland := degenerate > blandAfter

		j, dir := t.entering(bland)
		if j < 0 {
			return lpOptimal
		}
		r, step := t.leaving(j, dir, bland)
		if math.IsInf(step, 1) {
			return lpUnbounded
		}
		if step <= ratioTol {
			degenerate++
		} else {
			degenerate = 0
		}

		t.move(j, dir*step)
		if r < 0 {
			// bound flip
			if dir > 0 {
				t.x[j] = t.up[j]
			} else {
				t.x[j] = t.lo[j]
			}
			continue
		}
		t.pivot(r, j)
	}
}

// entering picks a nonbasic column whose move along dir lowers the objective
func (t *tableau) entering(bland bool) (int, float64) {
	pick, dir, best := -1, 0.0, reducedTol
	for j, d := range t.reduced {
		if t.basic[j] || t.lo[j] == t.up[j] {
			continue
		}
		var score, move float64
		switch {
		case d < -reducedTol && t.x[j] < t.up[j]:
			score, move = -d, 1
		case d > reducedTol && t.x[j] > t.lo[j]:
			score, move = d, -1
		default:
			continue
		}
		if bland {
			return j, move
		}
		if score > best {
			pick, dir, best = j, move, score
		}
	}
	return pick, dir
}

// leaving runs the ratio test. It returns row -1 when the entering column reaches its own opposite
// bound first.
func (t *tableau) leaving(j int, dir float64, bland bool) (int, float64) {
	row, step, bestAlpha := -1, t.up[j]-t.lo[j], 0.0
	for i, b := range t.basis {
		alpha := dir * t.rows[i][j]
		var limit float64
		switch {
		case alpha > pivotTol:
			if math.IsInf(t.lo[b], -1) {
				continue
			}
			limit = (t.x[b] - t.lo[b]) / alpha
		case alpha < -pivotTol:
			if math.IsInf(t.up[b], 1) {
				continue
			}
			limit = (t.up[b] - t.x[b]) / -alpha
		default:
			continue
		}
		limit = math.Max(limit, 0)
		size := math.Abs(alpha)
		switch {
		case limit < step-ratioTol:
			row, step, bestAlpha = i, limit, size
		case row >= 0 && limit <= step+ratioTol:
			if (bland && b < t.basis[row]) || (!bland && size > bestAlpha) {
				row, step, bestAlpha = i, math.Min(step, limit), size
			}
		}
	}
	return row, step
}

func (t *tableau) move(j int, delta float64) {
	if delta == 0 {
		return
	}
	t.x[j] += delta
	for i, b := range t.basis {
		if a := t.rows[i][j]; a != 0 {
			t.x[b] -= a * delta
		}
	}
}

func (t *tableau) pivot(r, j int) {
	leaving := t.basis[r]
	// the leaving column rests exactly on the bound it reached
	if math.Abs(t.x[leaving]-t.lo[leaving]) <= math.Abs(t.x[leaving]-t.up[leaving]) {
		t.x[leaving] = t.lo[leaving]
	} else {
		t.x[leaving] = t.up[leaving]
	}

	pivotRow := t.rows[r]
	p := pivotRow[j]
	floats.Scale(1/p, pivotRow)
	t.rhs[r] /= p
	pivotRow[j] = 1
	for i, rw := range t.rows {
		if i == r {
			continue
		}
		if f := rw[j]; f != 0 {
			floats.AddScaled(rw, -f, pivotRow)
			t.rhs[i] -= f * t.rhs[r]
			rw[j] = 0
		}
	}
	if f := t.reduced[j]; f != 0 {
		floats.AddScaled(t.reduced, -f, pivotRow)
		t.reduced[j] = 0
	}

	t.basic[leaving] = false
	t.basic[j] = true
	t.basis[r] = j
}

// refresh recomputes the basic values from the tableau to drop accumulated drift
func (t *tableau) refresh() {
	for i, b := range t.basis {
		value := t.rhs[i]
		for j, a := range t.rows[i] {
			if a != 0 && !t.basic[j] {
				value -= a * t.x[j]
			}
		}
		t.x[b] = value
	}
}
