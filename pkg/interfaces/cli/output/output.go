package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vsinha/rollalloc/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Writer receives text output and JSON when no output directory is set; defaults to stdout
	Writer io.Writer
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// Generate writes a simulation report in the configured format
func Generate(report *dto.SimulationReport, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(report, config)
	case "json":
		return writeJSON(report, "simulation.json", config)
	case "csv":
		return generateCSVOutput(report, config)
	case "xlsx":
		return generateWorkbook(report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GeneratePlan writes the result of a single window solve; only text and json apply
func GeneratePlan(plan *dto.PlanReport, config Config) error {
	switch config.Format {
	case "text", "":
		return generatePlanText(plan, config)
	case "json":
		return writeJSON(plan, "plan.json", config)
	default:
		return fmt.Errorf("unsupported output format for a single solve: %s", config.Format)
	}
}

func generateTextOutput(report *dto.SimulationReport, config Config) error {
	w := config.writer()
	fmt.Fprintf(w, "Rolling Horizon Simulation\n")
	fmt.Fprintf(w, "==========================\n\n")
	fmt.Fprintf(w, "Runs: %d\n", len(report.Runs))
	fmt.Fprintf(w, "Average profit: %s\n", report.AverageProfit.StringFixed(2))
	fmt.Fprintf(w, "Average solve time: %v\n\n", report.AverageSolveTime)

	for _, run := range report.Runs {
		fmt.Fprintf(w, "Outcome set %d (%s, run %s)\n", run.OutcomeSet, run.Method, run.RunID)
		fmt.Fprintf(w, "%-5s %-12s %-10s %-10s %-10s %-10s %-14s\n",
			"Day", "Profit", "Internal", "External", "Supply", "Demand", "Objective")
		fmt.Fprintf(w, "%-5s %-12s %-10s %-10s %-10s %-10s %-14s\n",
			"-----", "------------", "----------", "----------", "----------", "----------", "--------------")
		for _, day := range run.Days {
			objective := "-"
			if day.Diagnostics != nil {
				objective = fmt.Sprintf("%.2f", day.Diagnostics.ObjectiveValue)
			}
			fmt.Fprintf(w, "%-5d %-12s %-10d %-10d %-10d %-10d %-14s\n",
				day.Day,
				day.Profit.Profit.StringFixed(2),
				day.InternalVolume,
				day.ExternalVolume,
				day.SupplyAvailable,
				day.DemandDeparting,
				objective)
		}
		fmt.Fprintf(w, "Total profit: %s\n\n", run.Total.Profit.StringFixed(2))

		if config.Verbose {
			for _, action := range run.Actions() {
				fmt.Fprintf(w, "  %s\n", action.String())
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func generatePlanText(plan *dto.PlanReport, config Config) error {
	w := config.writer()
	d := plan.Diagnostics
	fmt.Fprintf(w, "Window [%d, %d]: %d scenarios, %d variables, %d constraints\n",
		d.Day, d.WindowEnd, d.Scenarios, d.VariableCount, d.ConstraintCount)
	fmt.Fprintf(w, "Status: %s, objective %.2f, elapsed %v\n\n", d.Status, d.ObjectiveValue, d.Elapsed)

	if len(plan.Actions) == 0 {
		fmt.Fprintln(w, "No actions.")
		return nil
	}
	fmt.Fprintf(w, "%-5s %-12s %-12s %-8s %-8s %-10s\n", "Day", "Customer", "Source", "Order", "Volume", "Product")
	for _, action := range plan.Actions {
		source := "external"
		if action.Source != nil {
			source = fmt.Sprintf("%s/%d", action.Source.VendorID, action.Source.DeliveryNumber)
		}
		fmt.Fprintf(w, "%-5d %-12s %-12s %-8d %-8d %-10s\n",
			action.TransportationDay, action.CustomerID, source, action.OrderNumber, action.Volume, action.ProductType)
	}
	fmt.Fprintf(w, "\nProfit of today's actions: %s\n", plan.Profit.Profit.StringFixed(2))
	return nil
}

func writeJSON(value any, name string, config Config) error {
	jsonData, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "JSON results saved to: %s\n", filename)
	}
	return nil
}
