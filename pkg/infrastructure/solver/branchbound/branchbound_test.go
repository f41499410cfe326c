package branchbound

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

func TestSolve_Knapsack(t *testing.T) {
	// max 5a + 4b + 3c  s.t. 2a + 3b + c <= 5, 4a + b + 2c <= 11, 3a + 4b + 2c <= 8, binaries
	m := solver.NewModel()
	a, b, c := m.NewBinary("a"), m.NewBinary("b"), m.NewBinary("c")
	m.AddConstraints(
		solver.Constraint{Name: "r1", Terms: []solver.Term{{Var: a, Coef: 2}, {Var: b, Coef: 3}, {Var: c, Coef: 1}}, Sense: solver.LessOrEqual, RHS: 5},
		solver.Constraint{Name: "r2", Terms: []solver.Term{{Var: a, Coef: 4}, {Var: b, Coef: 1}, {Var: c, Coef: 2}}, Sense: solver.LessOrEqual, RHS: 11},
		solver.Constraint{Name: "r3", Terms: []solver.Term{{Var: a, Coef: 3}, {Var: b, Coef: 4}, {Var: c, Coef: 2}}, Sense: solver.LessOrEqual, RHS: 8},
	)
	m.SetMaximize(true)
	m.AddObjectiveTerm(a, 5)
	m.AddObjectiveTerm(b, 4)
	m.AddObjectiveTerm(c, 3)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	assert.InDelta(t, 9.0, sol.Objective, 1e-6)
	assert.InDelta(t, 1.0, sol.Value(a), 1e-9)
	assert.InDelta(t, 1.0, sol.Value(b), 1e-9)
	assert.InDelta(t, 0.0, sol.Value(c), 1e-9)
	assert.Empty(t, m.Violations(sol.Values, 1e-6))
}

func TestSolve_IntegerRounding(t *testing.T) {
	// max x + y  s.t. 2x + 2y <= 7, integers: LP gives 3.5, MILP gives 3
	m := solver.NewModel()
	x, y := m.NewInteger("x"), m.NewInteger("y")
	m.AddConstraints(solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 2}, {Var: y, Coef: 2}}, Sense: solver.LessOrEqual, RHS: 7})
	m.SetMaximize(true)
	m.AddObjectiveTerm(x, 1)
	m.AddObjectiveTerm(y, 1)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.Optimal, sol.Status)
	assert.InDelta(t, 3.0, sol.Objective, 1e-6)
}

func TestSolve_EqualityAndGreaterRows(t *testing.T) {
	// min 3x + 2y  s.t. x + y = 10, x >= 4, y <= 5
	m := solver.NewModel()
	x, y := m.NewInteger("x"), m.NewContinuous("y")
	m.AddConstraints(
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, Sense: solver.Equal, RHS: 10},
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}}, Sense: solver.GreaterOrEqual, RHS: 4},
		solver.Constraint{Terms: []solver.Term{{Var: y, Coef: 1}}, Sense: solver.LessOrEqual, RHS: 5},
	)
	m.AddObjectiveTerm(x, 3)
	m.AddObjectiveTerm(y, 2)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	assert.InDelta(t, 5.0, sol.Value(x), 1e-6)
	assert.InDelta(t, 5.0, sol.Value(y), 1e-6)
	assert.InDelta(t, 25.0, sol.Objective, 1e-6)
}

func TestSolve_Infeasible(t *testing.T) {
	m := solver.NewModel()
	x := m.NewInteger("x")
	y := m.NewInteger("y")
	m.AddConstraints(
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, Sense: solver.GreaterOrEqual, RHS: 5},
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, Sense: solver.LessOrEqual, RHS: 3},
	)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, sol.Status)
	assert.False(t, sol.HasValues())
}

func TestSolve_SingletonRowsTightenBinaries(t *testing.T) {
	// M*z <= M - 1 forces z = 0 even though the relaxation allows z = 1 - 1/M
	const bigM = 1_000_000.0
	m := solver.NewModel()
	x, z := m.NewInteger("x"), m.NewBinary("z")
	m.AddConstraints(
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}, {Var: z, Coef: -bigM}}, Sense: solver.LessOrEqual, RHS: 0},
		solver.Constraint{Terms: []solver.Term{{Var: z, Coef: bigM}}, Sense: solver.LessOrEqual, RHS: bigM - 1},
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}}, Sense: solver.LessOrEqual, RHS: 50},
	)
	m.SetMaximize(true)
	m.AddObjectiveTerm(x, 1)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	assert.Equal(t, 0.0, sol.Value(x))
	assert.Equal(t, 0.0, sol.Value(z))
}

func TestSolve_Unbounded(t *testing.T) {
	m := solver.NewModel()
	x := m.NewContinuous("x")
	m.SetMaximize(true)
	m.AddObjectiveTerm(x, 1)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.Unbounded, sol.Status)
}

func TestSolve_NodeLimitReturnsIncumbent(t *testing.T) {
	m := solver.NewModel()
	var vars []solver.Var
	for i := 0; i < 12; i++ {
		v := m.NewBinary("b")
		vars = append(vars, v)
		m.AddObjectiveTerm(v, float64(i%5+1))
	}
	terms := make([]solver.Term, len(vars))
	for i, v := range vars {
		terms[i] = solver.Term{Var: v, Coef: float64(i%4 + 2)}
	}
	m.AddConstraints(solver.Constraint{Terms: terms, Sense: solver.LessOrEqual, RHS: 13.5})
	m.SetMaximize(true)

	sol, err := New(WithMaxNodes(3)).Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Contains(t, []solver.Status{solver.Feasible, solver.NotSolved}, sol.Status)
	if sol.HasValues() {
		assert.Empty(t, m.Violations(sol.Values, 1e-6))
	}
}

func TestSolve_CancelledContext(t *testing.T) {
	m := solver.NewModel()
	x := m.NewInteger("x")
	m.AddConstraints(solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}}, Sense: solver.LessOrEqual, RHS: 3})
	m.SetMaximize(true)
	m.AddObjectiveTerm(x, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err := New().Solve(ctx, m, solver.Options{TimeLimit: time.Second})
	require.NoError(t, err)
	assert.Equal(t, solver.NotSolved, sol.Status)
}

func TestSolve_TiedScenarioCopiesAgree(t *testing.T) {
	// max x0 + x1 + x2 with x0 = x1 = x2 and per-copy caps 3, 5, 4: every copy settles at 3
	m := solver.NewModel()
	caps := []float64{3, 5, 4}
	copies := make([]solver.Var, len(caps))
	for s, c := range caps {
		copies[s] = m.NewInteger("x")
		m.AddConstraints(solver.Constraint{Terms: []solver.Term{{Var: copies[s], Coef: 1}}, Sense: solver.LessOrEqual, RHS: c})
		m.AddObjectiveTerm(copies[s], 1)
	}
	m.AddConstraints(
		solver.Constraint{Name: "na1", Terms: []solver.Term{{Var: copies[0], Coef: 1}, {Var: copies[1], Coef: -1}}, Sense: solver.Equal},
		solver.Constraint{Name: "na2", Terms: []solver.Term{{Var: copies[2], Coef: 2}, {Var: copies[0], Coef: -2}}, Sense: solver.Equal},
	)
	m.SetMaximize(true)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	for s, v := range copies {
		assert.InDelta(t, 3.0, sol.Value(v), 1e-9, "copy %d", s)
	}
	assert.InDelta(t, 9.0, sol.Objective, 1e-9)
	assert.Empty(t, m.Violations(sol.Values, 1e-6))
}

func TestSolve_RedundantEqualityRows(t *testing.T) {
	// the three equalities describe one hyperplane
	m := solver.NewModel()
	x, y := m.NewContinuous("x"), m.NewContinuous("y")
	m.AddConstraints(
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, Sense: solver.Equal, RHS: 4},
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, Sense: solver.Equal, RHS: 4},
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 2}, {Var: y, Coef: 2}}, Sense: solver.Equal, RHS: 8},
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}}, Sense: solver.LessOrEqual, RHS: 3},
	)
	m.SetMaximize(true)
	m.AddObjectiveTerm(x, 2)
	m.AddObjectiveTerm(y, 1)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	assert.InDelta(t, 3.0, sol.Value(x), 1e-9)
	assert.InDelta(t, 1.0, sol.Value(y), 1e-9)
	assert.InDelta(t, 7.0, sol.Objective, 1e-9)
}

func TestSolve_ConflictingTiedBounds(t *testing.T) {
	m := solver.NewModel()
	x, y := m.NewContinuous("x"), m.NewContinuous("y")
	m.AddConstraints(
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}}, Sense: solver.GreaterOrEqual, RHS: 5},
		solver.Constraint{Terms: []solver.Term{{Var: y, Coef: 1}}, Sense: solver.LessOrEqual, RHS: 2},
		solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: -1}}, Sense: solver.Equal},
	)
	m.AddObjectiveTerm(x, 1)

	sol, err := New().Solve(context.Background(), m, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, sol.Status)
}

func TestReduce_MergesTiedColumns(t *testing.T) {
	m := solver.NewModel()
	a := m.NewBinary("a")
	b := m.NewVar("b", solver.Continuous, 0, 0.5)
	c := m.NewInteger("c")
	d := m.NewContinuous("d")
	m.AddConstraints(
		solver.Constraint{Terms: []solver.Term{{Var: b, Coef: 1}, {Var: a, Coef: -1}}, Sense: solver.Equal},
		solver.Constraint{Terms: []solver.Term{{Var: c, Coef: 1}, {Var: d, Coef: 1}}, Sense: solver.LessOrEqual, RHS: 7},
		solver.Constraint{Terms: []solver.Term{{Var: c, Coef: 1}, {Var: d, Coef: -1}}, Sense: solver.LessOrEqual},
	)
	m.AddObjectiveTerm(a, 1)
	m.AddObjectiveTerm(b, 2)

	r := reduce(m)
	require.Equal(t, 3, r.model.NumVars())
	assert.Equal(t, []int{0, 0, 1, 2}, r.class)
	assert.Equal(t, 2, r.model.NumConstraints())

	merged := r.model.Variable(0)
	assert.Equal(t, "a", merged.Name)
	assert.Equal(t, solver.Integer, merged.Kind)
	assert.Equal(t, 0.5, merged.Upper)
	assert.Equal(t, 3.0, r.model.Objective()[0])

	assert.Equal(t, []float64{1, 1, 4, 3}, r.expand([]float64{1, 4, 3}))
}

func TestRelaxation_StopsInsideSimplex(t *testing.T) {
	m := solver.NewModel()
	x, y := m.NewContinuous("x"), m.NewContinuous("y")
	m.AddConstraints(solver.Constraint{Terms: []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, Sense: solver.GreaterOrEqual, RHS: 4})
	cost := []float64{1, 1}
	relax := newRelaxation(m, cost)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, status, err := relax.solve(ctx, []float64{0, 0}, []float64{math.Inf(1), math.Inf(1)})
	require.NoError(t, err)
	assert.Equal(t, lpStopped, status)

	obj, values, status, err := relax.solve(context.Background(), []float64{0, 0}, []float64{math.Inf(1), math.Inf(1)})
	require.NoError(t, err)
	require.Equal(t, lpOptimal, status)
	assert.InDelta(t, 4.0, obj, 1e-9)
	assert.InDelta(t, 4.0, values[0]+values[1], 1e-9)
}
