// Package solver is the in-process boundary between the allocation model and a MILP solver: a model is a
// list of typed variables, linear constraints and a linear objective; a Solver turns it into a Solution.
package solver

import (
	"context"
	"fmt"
	"math"
	"time"
)

// VarKind is the domain of a variable
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// String method for VarKind enum
func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// Var is a handle to a model variable
type Var int

// Variable describes one decision variable
type Variable struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Sense is the relation of a linear constraint
type Sense int

const (
	LessOrEqual Sense = iota
	GreaterOrEqual
	Equal
)

// String method for Sense enum
func (s Sense) String() string {
	switch s {
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Term is coefficient * variable
type Term struct {
	Var  Var
	Coef float64
}

// Constraint is sum(terms) sense rhs
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a mixed-integer linear program
type Model struct {
	vars        []Variable
	constraints []Constraint
	objective   []float64
	maximize    bool
}

// NewModel creates an empty minimization model
func NewModel() *Model {
	return &Model{}
}

// NewVar declares a variable
func (m *Model) NewVar(name string, kind VarKind, lower, upper float64) Var {
	if kind == Binary {
		lower, upper = 0, 1
	}
	m.vars = append(m.vars, Variable{Name: name, Kind: kind, Lower: lower, Upper: upper})
	m.objective = append(m.objective, 0)
	return Var(len(m.vars) - 1)
}

// NewBinary declares a 0/1 variable
func (m *Model) NewBinary(name string) Var {
	return m.NewVar(name, Binary, 0, 1)
}

// NewInteger declares a non-negative integer variable without upper bound
func (m *Model) NewInteger(name string) Var {
	return m.NewVar(name, Integer, 0, math.Inf(1))
}

// NewContinuous declares a non-negative continuous variable without upper bound
func (m *Model) NewContinuous(name string) Var {
	return m.NewVar(name, Continuous, 0, math.Inf(1))
}

// AddConstraints appends constraints in order
func (m *Model) AddConstraints(constraints ...Constraint) {
	m.constraints = append(m.constraints, constraints...)
}

// SetMaximize switches the objective direction
func (m *Model) SetMaximize(maximize bool) {
	m.maximize = maximize
}

// AddObjectiveTerm adds coef to the objective coefficient of v
func (m *Model) AddObjectiveTerm(v Var, coef float64) {
	m.objective[v] += coef
}

// Maximize reports the objective direction
func (m *Model) Maximize() bool { return m.maximize }

// NumVars returns the variable count
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the constraint count
func (m *Model) NumConstraints() int { return len(m.constraints) }

// Variable returns the declaration of v
func (m *Model) Variable(v Var) Variable { return m.vars[v] }

// Variables returns every declaration, indexed by Var
func (m *Model) Variables() []Variable { return m.vars }

// Constraints returns every constraint in insertion order
func (m *Model) Constraints() []Constraint { return m.constraints }

// Objective returns the objective coefficients, indexed by Var
func (m *Model) Objective() []float64 { return m.objective }

// Evaluate computes the objective of an assignment
func (m *Model) Evaluate(values []float64) float64 {
	total := 0.0
	for i, coef := range m.objective {
		total += coef * values[i]
	}
	return total
}

// Violations lists the constraints and bounds an assignment breaks by more than tol
func (m *Model) Violations(values []float64, tol float64) []string {
	var violations []string
	for i, v := range m.vars {
		x := values[i]
		if x < v.Lower-tol || x > v.Upper+tol {
			violations = append(violations, fmt.Sprintf("%s=%g outside [%g, %g]", v.Name, x, v.Lower, v.Upper))
		}
		if v.Kind != Continuous && math.Abs(x-math.Round(x)) > tol {
			violations = append(violations, fmt.Sprintf("%s=%g is not integral", v.Name, x))
		}
	}
	for _, c := range m.constraints {
		lhs := 0.0
		for _, term := range c.Terms {
			lhs += term.Coef * values[term.Var]
		}
		broken := false
		switch c.Sense {
		case LessOrEqual:
			broken = lhs > c.RHS+tol
		case GreaterOrEqual:
			broken = lhs < c.RHS-tol
		case Equal:
			broken = math.Abs(lhs-c.RHS) > tol
		}
		if broken {
			violations = append(violations, fmt.Sprintf("%s: %g %s %g", c.Name, lhs, c.Sense, c.RHS))
		}
	}
	return violations
}

// Status is the outcome of a solve
type Status int

const (
	NotSolved Status = iota
	Optimal
	// Feasible is a best incumbent returned when the solve stopped early
	Feasible
	Infeasible
	Unbounded
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case NotSolved:
		return "not_solved"
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// Solution is the result of a solve
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Elapsed   time.Duration
	Nodes     int
}

// HasValues reports whether the solution carries an assignment
func (s *Solution) HasValues() bool {
	return (s.Status == Optimal || s.Status == Feasible) && s.Values != nil
}

// Value returns the value of v, zero when the solution has no assignment
func (s *Solution) Value(v Var) float64 {
	if !s.HasValues() || int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// Options bounds a solve
type Options struct {
	TimeLimit time.Duration
	// MIPGap is the relative gap at which the search may stop with the incumbent
	MIPGap float64
}

// Solver solves models
type Solver interface {
	Solve(ctx context.Context, model *Model, opts Options) (*Solution, error)
}
