package output

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/rollalloc/pkg/application/dto"
)

var (
	runsHeader = []string{
		"outcome_set", "run_id", "method", "revenue", "extra_cost", "transport_cost",
		"customs_cost", "terminal_cost", "profit", "solve_seconds",
	}
	daysHeader = []string{
		"outcome_set", "day", "profit", "internal_volume", "external_volume",
		"supply_available", "demand_departing", "objective", "status", "scenarios",
	}
	actionsHeader = []string{
		"outcome_set", "transportation_day", "customer_id", "order_number", "product_type",
		"volume_delivered", "internal_delivery", "vendor_id", "delivery_number",
	}
)

// rows hold typed cells; csv renders them as text and xlsx keeps numbers numeric
type table struct {
	name   string
	header []string
	rows   [][]any
}

func tables(report *dto.SimulationReport) []table {
	return []table{
		{"Runs", runsHeader, runRows(report)},
		{"Days", daysHeader, dayRows(report)},
		{"Actions", actionsHeader, actionRows(report)},
	}
}

func runRows(report *dto.SimulationReport) [][]any {
	rows := make([][]any, 0, len(report.Runs))
	for _, run := range report.Runs {
		total := run.Total
		rows = append(rows, []any{
			run.OutcomeSet,
			run.RunID,
			run.Method,
			total.Revenue,
			total.ExtraCost,
			total.TransportCost,
			total.CustomsCost,
			total.TerminalCost,
			total.Profit,
			run.SolveTime.Seconds(),
		})
	}
	return rows
}

func dayRows(report *dto.SimulationReport) [][]any {
	var rows [][]any
	for _, run := range report.Runs {
		for _, day := range run.Days {
			var objective, scenarios any = "", ""
			status := "skipped"
			if day.Diagnostics != nil {
				objective = day.Diagnostics.ObjectiveValue
				status = day.Diagnostics.Status
				scenarios = day.Diagnostics.Scenarios
			}
			rows = append(rows, []any{
				run.OutcomeSet,
				int(day.Day),
				day.Profit.Profit,
				int(day.InternalVolume),
				int(day.ExternalVolume),
				int(day.SupplyAvailable),
				int(day.DemandDeparting),
				objective,
				status,
				scenarios,
			})
		}
	}
	return rows
}

func actionRows(report *dto.SimulationReport) [][]any {
	var rows [][]any
	for _, run := range report.Runs {
		for _, action := range run.Actions() {
			var vendor, delivery any = "", ""
			if action.Source != nil {
				vendor = string(action.Source.VendorID)
				delivery = int(action.Source.DeliveryNumber)
			}
			rows = append(rows, []any{
				run.OutcomeSet,
				int(action.TransportationDay),
				string(action.CustomerID),
				int(action.OrderNumber),
				action.ProductType.String(),
				int(action.Volume),
				action.Internal,
				vendor,
				delivery,
			})
		}
	}
	return rows
}

func textCell(v any) string {
	switch value := v.(type) {
	case float64:
		return fmt.Sprintf("%.4f", value)
	default:
		return fmt.Sprint(value)
	}
}

func sheetCell(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}
