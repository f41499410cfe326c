package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
)

// SolveDiagnostics summarizes one model solve
type SolveDiagnostics struct {
	Day             entities.Day  `json:"day"`
	WindowEnd       entities.Day  `json:"window_end"`
	Scenarios       int           `json:"scenarios"`
	ObjectiveValue  float64       `json:"objective_value"`
	VariableCount   int           `json:"variable_count"`
	ConstraintCount int           `json:"constraint_count"`
	Status          string        `json:"status"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Merge folds the diagnostics of another solve of the same day into d
func (d *SolveDiagnostics) Merge(other SolveDiagnostics) {
	d.ObjectiveValue += other.ObjectiveValue
	d.VariableCount += other.VariableCount
	d.ConstraintCount += other.ConstraintCount
	d.Elapsed += other.Elapsed
	if other.Scenarios > d.Scenarios {
		d.Scenarios = other.Scenarios
	}
	// a single time-limited part makes the whole day time-limited
	if d.Status == "" || other.Status != "optimal" {
		d.Status = other.Status
	}
}

// ProfitBreakdown is the realized economics of a set of actions
type ProfitBreakdown struct {
	Revenue       decimal.Decimal `json:"revenue"`
	ExtraCost     decimal.Decimal `json:"extra_cost"`
	TransportCost decimal.Decimal `json:"transport_cost"`
	CustomsCost   decimal.Decimal `json:"customs_cost"`
	TerminalCost  decimal.Decimal `json:"terminal_cost"`
	Profit        decimal.Decimal `json:"profit"`
}

// Add returns the sum of two breakdowns
func (p ProfitBreakdown) Add(other ProfitBreakdown) ProfitBreakdown {
	return ProfitBreakdown{
		Revenue:       p.Revenue.Add(other.Revenue),
		ExtraCost:     p.ExtraCost.Add(other.ExtraCost),
		TransportCost: p.TransportCost.Add(other.TransportCost),
		CustomsCost:   p.CustomsCost.Add(other.CustomsCost),
		TerminalCost:  p.TerminalCost.Add(other.TerminalCost),
		Profit:        p.Profit.Add(other.Profit),
	}
}

// DayReport is what one controller iteration committed
type DayReport struct {
	Day     entities.Day      `json:"day"`
	Actions []entities.Action `json:"actions"`
	Profit  ProfitBreakdown   `json:"profit"`
	// InternalVolume and ExternalVolume are the boxes shipped from deliveries and bought outside
	InternalVolume entities.Volume `json:"internal_volume"`
	ExternalVolume entities.Volume `json:"external_volume"`
	// SupplyAvailable is the booked volume of deliveries arrived by this day, before today's shipments
	SupplyAvailable entities.Volume `json:"supply_available"`
	DemandDeparting entities.Volume `json:"demand_departing"`
	// Diagnostics is nil when no order departed and the solve was skipped
	Diagnostics *SolveDiagnostics `json:"diagnostics,omitempty"`
}

// RunReport is the outcome of one rolling-horizon run over one outcome set
type RunReport struct {
	RunID      string          `json:"run_id"`
	OutcomeSet int             `json:"outcome_set"`
	Method     string          `json:"method"`
	StartDay   entities.Day    `json:"start_day"`
	EndDay     entities.Day    `json:"end_day"`
	Days       []DayReport     `json:"days"`
	Total      ProfitBreakdown `json:"total"`
	SolveTime  time.Duration   `json:"solve_time"`
}

// Actions returns every committed action of the run in day order
func (r *RunReport) Actions() []entities.Action {
	var actions []entities.Action
	for _, day := range r.Days {
		actions = append(actions, day.Actions...)
	}
	return actions
}

// SimulationReport aggregates runs over many outcome sets
type SimulationReport struct {
	Runs             []RunReport     `json:"runs"`
	AverageProfit    decimal.Decimal `json:"average_profit"`
	AverageSolveTime time.Duration   `json:"average_solve_time"`
}

// NewSimulationReport computes the averages over runs
func NewSimulationReport(runs []RunReport) *SimulationReport {
	report := &SimulationReport{Runs: runs}
	if len(runs) == 0 {
		return report
	}
	total := decimal.Zero
	var solveTime time.Duration
	for _, run := range runs {
		total = total.Add(run.Total.Profit)
		solveTime += run.SolveTime
	}
	count := int64(len(runs))
	report.AverageProfit = total.Div(decimal.NewFromInt(count))
	report.AverageSolveTime = solveTime / time.Duration(count)
	return report
}

// PlanReport is the result of one window solve without realization
type PlanReport struct {
	StartDay    entities.Day      `json:"start_day"`
	EndDay      entities.Day      `json:"end_day"`
	Actions     []entities.Action `json:"actions"`
	Diagnostics SolveDiagnostics  `json:"diagnostics"`
	// Profit covers only the actions dated on StartDay
	Profit ProfitBreakdown `json:"profit"`
}
