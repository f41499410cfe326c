package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModel_Declarations(t *testing.T) {
	m := NewModel()
	x := m.NewInteger("x")
	b := m.NewVar("b", Binary, -3, 7)
	o := m.NewContinuous("o")

	assert.Equal(t, 3, m.NumVars())
	assert.Equal(t, Variable{Name: "b", Kind: Binary, Lower: 0, Upper: 1}, m.Variable(b))
	assert.True(t, math.IsInf(m.Variable(x).Upper, 1))

	m.AddObjectiveTerm(x, 2)
	m.AddObjectiveTerm(x, 3)
	m.AddObjectiveTerm(o, -1)
	assert.Equal(t, []float64{5, 0, -1}, m.Objective())
	assert.InDelta(t, 5*4-2, m.Evaluate([]float64{4, 1, 2}), 1e-12)
}

func TestModel_Violations(t *testing.T) {
	m := NewModel()
	x := m.NewInteger("x")
	z := m.NewBinary("z")
	m.AddConstraints(
		Constraint{Name: "cap", Terms: []Term{{x, 1}}, Sense: LessOrEqual, RHS: 10},
		Constraint{Name: "gate", Terms: []Term{{x, 1}, {z, -100}}, Sense: LessOrEqual, RHS: 0},
		Constraint{Name: "tie", Terms: []Term{{x, 1}}, Sense: Equal, RHS: 4},
	)

	assert.Empty(t, m.Violations([]float64{4, 1}, 1e-9))

	violations := m.Violations([]float64{4.5, 0}, 1e-9)
	assert.Len(t, violations, 3)
	assert.Contains(t, violations[0], "not integral")
	assert.Contains(t, violations[1], "gate")
	assert.Contains(t, violations[2], "tie")
}

func TestSolution_Value(t *testing.T) {
	sol := &Solution{Status: Infeasible, Values: []float64{3}}
	assert.False(t, sol.HasValues())
	assert.Equal(t, 0.0, sol.Value(0))

	sol.Status = Feasible
	assert.Equal(t, 3.0, sol.Value(0))
	assert.Equal(t, 0.0, sol.Value(5))
	assert.Equal(t, "feasible", sol.Status.String())
}
