package allocation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

// ConstraintBuilder generates the per-scenario rows of the allocation model: supply and demand caps,
// category priority, temporal feasibility and the cross-dock threshold.
type ConstraintBuilder struct {
	params  entities.ModelParameters
	catalog *entities.Catalog
	vars    *Variables
	rates   *rateBook
	supply  SupplyEstimator
}

// Build generates the rows of every scenario, spreading scenarios over up to workers goroutines. The
// result is indexed by scenario so the row order does not depend on scheduling.
func (b *ConstraintBuilder) Build(ctx context.Context, workers int) ([][]solver.Constraint, error) {
	rows := make([][]solver.Constraint, b.vars.Scenarios)
	g, ctx := errgroup.WithContext(ctx)
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for s := 0; s < b.vars.Scenarios; s++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[s] = b.Scenario(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Scenario generates every row of one scenario
func (b *ConstraintBuilder) Scenario(s int) []solver.Constraint {
	var rows []solver.Constraint
	rows = append(rows, b.supplyCaps(s)...)
	rows = append(rows, b.demandCaps(s)...)
	rows = append(rows, b.contractFloors(s)...)
	rows = append(rows, b.priorityGates(s)...)
	rows = append(rows, b.temporal(s)...)
	rows = append(rows, b.crossDock(s)...)
	return rows
}

// supplyCaps: sum over orders of x[s,v,d,.,.,p] <= supply(v,d,p,s)
func (b *ConstraintBuilder) supplyCaps(s int) []solver.Constraint {
	byLine := make(map[entities.InventoryKey][]solver.Term)
	for _, k := range b.vars.Flows {
		line := entities.InventoryKey{Vendor: k.Vendor, Delivery: k.Delivery, Product: k.Product}
		byLine[line] = append(byLine[line], solver.Term{Var: b.vars.X[k.In(s)], Coef: 1})
	}

	var rows []solver.Constraint
	for _, vendor := range b.catalog.Vendors {
		for i := range vendor.Deliveries {
			delivery := &vendor.Deliveries[i]
			for _, line := range delivery.Supply {
				key := entities.InventoryKey{Vendor: vendor.ID, Delivery: delivery.Number, Product: line.ProductType}
				terms := byLine[key]
				if len(terms) == 0 {
					continue
				}
				rows = append(rows, solver.Constraint{
					Name:  fmt.Sprintf("supply_s%d_%s", s, key),
					Terms: terms,
					Sense: solver.LessOrEqual,
					RHS:   b.supply.Volume(delivery, line, b.rates.deviate[line.ProductType], s),
				})
			}
		}
	}
	return rows
}

// served returns y + sum of x for a demand line
func (b *ConstraintBuilder) served(k DemandKey, s int) []solver.Term {
	terms := []solver.Term{{Var: b.vars.Y[k.In(s)], Coef: 1}}
	for _, flow := range b.vars.DemandFlows(k) {
		terms = append(terms, solver.Term{Var: b.vars.X[flow.In(s)], Coef: 1})
	}
	return terms
}

// demandCaps: y + sum x <= demand
func (b *ConstraintBuilder) demandCaps(s int) []solver.Constraint {
	rows := make([]solver.Constraint, 0, len(b.vars.Demands))
	for _, k := range b.vars.Demands {
		rows = append(rows, solver.Constraint{
			Name:  fmt.Sprintf("demand_s%d_%s_%d_%s", s, k.Customer, k.Order, k.Product),
			Terms: b.served(k, s),
			Sense: solver.LessOrEqual,
			RHS:   b.rates.line(k).volume,
		})
	}
	return rows
}

// contractFloors: contract lines are served in full, from deliveries or outside purchase
func (b *ConstraintBuilder) contractFloors(s int) []solver.Constraint {
	var rows []solver.Constraint
	for _, k := range b.vars.Demands {
		line := b.rates.line(k)
		if line.category != entities.Contract || line.volume <= 0 {
			continue
		}
		rows = append(rows, solver.Constraint{
			Name:  fmt.Sprintf("contract_s%d_%s_%d_%s", s, k.Customer, k.Order, k.Product),
			Terms: b.served(k, s),
			Sense: solver.GreaterOrEqual,
			RHS:   line.volume,
		})
	}
	return rows
}

// priorityGates pairs every A line with the B lines of the same grade departing no later. Opening the
// gate t of a B line requires the paired A line to be fully served; a closed gate keeps the B line at 0.
func (b *ConstraintBuilder) priorityGates(s int) []solver.Constraint {
	bigM := b.params.BigM
	var rows []solver.Constraint
	for _, a := range b.vars.Demands {
		lineA := b.rates.line(a)
		if lineA.category != entities.CategoryA || lineA.volume <= 0 {
			continue
		}
		departA := b.vars.DecisionDay(a.OrderRef())
		for _, gate := range b.vars.Gates {
			if gate.Product != a.Product || b.vars.DecisionDay(gate.OrderRef()) > departA {
				continue
			}
			terms := append(b.served(a, s), solver.Term{Var: b.vars.T[gate.In(s)], Coef: -bigM})
			rows = append(rows, solver.Constraint{
				Name: fmt.Sprintf(
					"priority_s%d_%s_%d_%s_%d_%s",
					s, a.Customer, a.Order, gate.Customer, gate.Order, a.Product,
				),
				Terms: terms,
				Sense: solver.GreaterOrEqual,
				RHS:   lineA.volume - bigM,
			})
		}
	}

	for _, gate := range b.vars.Gates {
		terms := append(b.served(gate, s), solver.Term{Var: b.vars.T[gate.In(s)], Coef: -bigM})
		rows = append(rows, solver.Constraint{
			Name:  fmt.Sprintf("gate_s%d_%s_%d_%s", s, gate.Customer, gate.Order, gate.Product),
			Terms: terms,
			Sense: solver.LessOrEqual,
			RHS:   0,
		})
	}
	return rows
}

func (b *ConstraintBuilder) shipmentTerms(k ShipmentKey, s int, coef func(FlowKey) float64) []solver.Term {
	flows := b.vars.ShipmentFlows(k)
	terms := make([]solver.Term, 0, len(flows)+1)
	for _, flow := range flows {
		terms = append(terms, solver.Term{Var: b.vars.X[flow.In(s)], Coef: coef(flow)})
	}
	return terms
}

// temporal: flow only when the delivery arrives on or before the order departs
func (b *ConstraintBuilder) temporal(s int) []solver.Constraint {
	bigM := b.params.BigM
	one := func(FlowKey) float64 { return 1 }
	rows := make([]solver.Constraint, 0, 2*len(b.vars.Shipments))
	for _, k := range b.vars.Shipments {
		z := b.vars.Z[k.In(s)]
		suffix := fmt.Sprintf("s%d_%s_%d_%s_%d", s, k.Vendor, k.Delivery, k.Customer, k.Order)
		rows = append(rows,
			solver.Constraint{
				Name:  "flow_" + suffix,
				Terms: append(b.shipmentTerms(k, s, one), solver.Term{Var: z, Coef: -bigM}),
				Sense: solver.LessOrEqual,
			},
			solver.Constraint{
				Name:  "time_" + suffix,
				Terms: []solver.Term{{Var: z, Coef: bigM}},
				Sense: solver.LessOrEqual,
				RHS:   float64(b.vars.DecisionDay(k.OrderRef())-b.vars.ArrivalDay(k)) + bigM,
			},
		)
	}
	return rows
}

// crossDock: shipments of at least the full-load threshold travel direct (d = 1); smaller ones pay the
// terminal proxy o_term >= sum x * (vendor rate + fee)
func (b *ConstraintBuilder) crossDock(s int) []solver.Constraint {
	bigM := b.params.BigM
	threshold := float64(b.params.FullLoadThreshold)
	one := func(FlowKey) float64 { return 1 }
	rows := make([]solver.Constraint, 0, 3*len(b.vars.Shipments))
	for _, k := range b.vars.Shipments {
		d, o := b.vars.D[k.In(s)], b.vars.O[k.In(s)]
		suffix := fmt.Sprintf("s%d_%s_%d_%s_%d", s, k.Vendor, k.Delivery, k.Customer, k.Order)
		terminal := b.shipmentTerms(k, s, func(f FlowKey) float64 { return -b.rates.terminalRate(f) })
		rows = append(rows,
			solver.Constraint{
				Name:  "full_load_on_" + suffix,
				Terms: append(b.shipmentTerms(k, s, one), solver.Term{Var: d, Coef: -bigM}),
				Sense: solver.LessOrEqual,
				RHS:   threshold - 1,
			},
			solver.Constraint{
				Name:  "full_load_off_" + suffix,
				Terms: append(b.shipmentTerms(k, s, one), solver.Term{Var: d, Coef: -threshold}),
				Sense: solver.GreaterOrEqual,
			},
			solver.Constraint{
				Name:  "terminal_" + suffix,
				Terms: append(terminal, solver.Term{Var: o, Coef: 1}, solver.Term{Var: d, Coef: bigM}),
				Sense: solver.GreaterOrEqual,
			},
		)
	}
	return rows
}
