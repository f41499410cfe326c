package allocation

import (
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

// buildObjective sets the probability-weighted profit: per box of x the price less customer transport
// and customs, per box of y the same less the extra purchase premium, less every o_term.
func buildObjective(m *solver.Model, vars *Variables, rates *rateBook, tree *scenariotree.Tree) {
	m.SetMaximize(true)
	for s := 0; s < vars.Scenarios; s++ {
		p := tree.Probability(s)
		for _, k := range vars.Flows {
			m.AddObjectiveTerm(vars.X[k.In(s)], p*rates.internalMargin(k.Demand()))
		}
		for _, k := range vars.Demands {
			m.AddObjectiveTerm(vars.Y[k.In(s)], p*rates.externalMargin(k))
		}
		for _, k := range vars.Shipments {
			m.AddObjectiveTerm(vars.O[k.In(s)], -p)
		}
	}
}
