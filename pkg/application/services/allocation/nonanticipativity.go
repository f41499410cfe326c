package allocation

import (
	"fmt"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

// nonAnticipativity ties every variable dated on window day j to the lowest-index scenario of its
// cluster, where a cluster is a block of S/3^j consecutive scenarios sharing the same supply history
// up to day j. A variable is dated by the departure day of its order.
func nonAnticipativity(vars *Variables, window Window) ([]solver.Constraint, error) {
	if vars.Scenarios <= 1 {
		return nil, nil
	}

	var rows []solver.Constraint
	tie := func(name string, rep, other solver.Var) {
		rows = append(rows, solver.Constraint{
			Name:  name,
			Terms: []solver.Term{{Var: rep, Coef: 1}, {Var: other, Coef: -1}},
			Sense: solver.Equal,
		})
	}

	for j := 0; j < window.Days(); j++ {
		size, err := scenariotree.ClusterSize(vars.Scenarios, j)
		if err != nil {
			return nil, err
		}
		if size == 1 {
			continue
		}
		day := window.Today + entities.Day(j)

		for rep := 0; rep < vars.Scenarios; rep += size {
			for s := rep + 1; s < rep+size; s++ {
				suffix := fmt.Sprintf("na_d%d_s%d_s%d", day, rep, s)
				for _, k := range vars.Flows {
					if vars.DecisionDay(k.OrderRef()) == day {
						tie("x_"+suffix, vars.X[k.In(rep)], vars.X[k.In(s)])
					}
				}
				for _, k := range vars.Demands {
					if vars.DecisionDay(k.OrderRef()) == day {
						tie("y_"+suffix, vars.Y[k.In(rep)], vars.Y[k.In(s)])
					}
				}
				for _, k := range vars.Shipments {
					if vars.DecisionDay(k.OrderRef()) == day {
						tie("z_"+suffix, vars.Z[k.In(rep)], vars.Z[k.In(s)])
						tie("d_"+suffix, vars.D[k.In(rep)], vars.D[k.In(s)])
						tie("o_"+suffix, vars.O[k.In(rep)], vars.O[k.In(s)])
					}
				}
				for _, k := range vars.Gates {
					if vars.DecisionDay(k.OrderRef()) == day {
						tie("t_"+suffix, vars.T[k.In(rep)], vars.T[k.In(s)])
					}
				}
			}
		}
	}
	return rows, nil
}
