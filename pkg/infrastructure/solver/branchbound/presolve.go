package branchbound

import (
	"math"

	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

// reduction is a model in which every group of variables joined by rows a*x - a*y = 0 is one column.
// Non-anticipativity rows take that shape, so stochastic models shrink to one column per cluster.
type reduction struct {
	class []int
	model *solver.Model
}

func reduce(model *solver.Model) *reduction {
	vars := model.Variables()
	constraints := model.Constraints()

	parent := make([]int, len(vars))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	tie := make([]bool, len(constraints))
	for i, c := range constraints {
		a, b, ok := tiedPair(c)
		if !ok {
			continue
		}
		tie[i] = true
		ra, rb := find(a), find(b)
		// the smaller index stays the root so classes are numbered in declaration order
		if ra < rb {
			parent[rb] = ra
		} else if rb < ra {
			parent[ra] = rb
		}
	}

	type group struct {
		root         int
		lower, upper float64
		integral     bool
		allBinary    bool
	}
	class := make([]int, len(vars))
	var groups []group
	index := make(map[int]int)
	for j, v := range vars {
		root := find(j)
		k, ok := index[root]
		if !ok {
			k = len(groups)
			index[root] = k
			groups = append(groups, group{root: root, lower: math.Inf(-1), upper: math.Inf(1), allBinary: true})
		}
		class[j] = k
		g := &groups[k]
		g.lower = math.Max(g.lower, v.Lower)
		g.upper = math.Min(g.upper, v.Upper)
		g.integral = g.integral || v.Kind != solver.Continuous
		g.allBinary = g.allBinary && v.Kind == solver.Binary
	}

	reduced := solver.NewModel()
	reduced.SetMaximize(model.Maximize())
	for _, g := range groups {
		kind := solver.Continuous
		switch {
		case g.allBinary:
			kind = solver.Binary
		case g.integral:
			kind = solver.Integer
		}
		reduced.NewVar(vars[g.root].Name, kind, g.lower, g.upper)
	}
	for j, coef := range model.Objective() {
		if coef != 0 {
			reduced.AddObjectiveTerm(solver.Var(class[j]), coef)
		}
	}
	for i, c := range constraints {
		if tie[i] {
			continue
		}
		terms := make([]solver.Term, len(c.Terms))
		for k, term := range c.Terms {
			terms[k] = solver.Term{Var: solver.Var(class[term.Var]), Coef: term.Coef}
		}
		reduced.AddConstraints(solver.Constraint{Name: c.Name, Terms: terms, Sense: c.Sense, RHS: c.RHS})
	}
	return &reduction{class: class, model: reduced}
}

// expand maps reduced values back onto the original variables
func (r *reduction) expand(values []float64) []float64 {
	out := make([]float64, len(r.class))
	for j, k := range r.class {
		out[j] = values[k]
	}
	return out
}

// tiedPair recognizes a*x - a*y = 0 over two distinct variables
func tiedPair(c solver.Constraint) (int, int, bool) {
	if c.Sense != solver.Equal || c.RHS != 0 || len(c.Terms) != 2 {
		return 0, 0, false
	}
	first, second := c.Terms[0], c.Terms[1]
	if first.Var == second.Var || first.Coef == 0 || first.Coef != -second.Coef {
		return 0, 0, false
	}
	return int(first.Var), int(second.Var), true
}
