package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/rollalloc/pkg/application/dto"
	"github.com/vsinha/rollalloc/pkg/application/services/horizon"
	"github.com/vsinha/rollalloc/pkg/infrastructure/scenarios"
	"github.com/vsinha/rollalloc/pkg/interfaces/cli/output"
)

// SimulateConfig holds configuration for the simulate command
type SimulateConfig struct {
	CommonConfig
	ScenarioDir string
	Method      string
	OutputDir   string
	Format      string
	// Estimates plays a single run with every delivery at its booked volume instead of reading
	// outcome sets
	Estimates bool
}

// SimulateCommand plays the rolling horizon against stored outcome sets
type SimulateCommand struct {
	config SimulateConfig
}

// NewSimulateCommand creates a new simulate command with the given configuration
func NewSimulateCommand(config SimulateConfig) *SimulateCommand {
	return &SimulateCommand{config: config}
}

// Execute runs the simulate command
func (c *SimulateCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	rt, err := loadRuntime(ctx, c.config.CommonConfig)
	if err != nil {
		return err
	}
	if c.config.ScenarioDir != "" {
		rt.config.Data.ScenarioDir = c.config.ScenarioDir
	}
	if c.config.Method != "" {
		rt.config.Horizon.Method = c.config.Method
	}

	options, err := rt.config.HorizonOptions(rt.catalog.LastDepartureDay())
	if err != nil {
		return fmt.Errorf("invalid horizon settings: %w", err)
	}
	controller, err := horizon.NewController(rt.engine, rt.accountant, rt.catalog, options, rt.logger.Zerolog())
	if err != nil {
		return err
	}

	startTime := time.Now()
	var report *dto.SimulationReport
	if c.config.Estimates {
		run, err := controller.Run(ctx, nil)
		if err != nil {
			return fmt.Errorf("error running horizon: %w", err)
		}
		report = dto.NewSimulationReport([]dto.RunReport{*run})
	} else {
		format, err := scenarios.ParseFormat(rt.config.Data.OutcomeFormat)
		if err != nil {
			return err
		}
		store := scenarios.NewFileStore(rt.config.Data.ScenarioDir, format)
		report, err = controller.Simulate(ctx, store)
		if err != nil {
			return fmt.Errorf("error running simulation: %w", err)
		}
	}

	if c.config.Verbose {
		fmt.Fprintf(c.config.stdout(), "Simulation of days %d-%d (%s) completed in %v\n\n",
			options.StartDay, options.EndDay, options.Method, time.Since(startTime))
	}

	return output.Generate(report, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    c.config.stdout(),
	})
}

func (c *SimulateCommand) showHelp() {
	fmt.Fprint(c.config.stdout(), `rollalloc simulate - play the rolling horizon against realized supply outcomes

USAGE:
    rollalloc simulate [options]

OPTIONS:
    -config <file>      Configuration file (default: rollalloc.yaml in . or ./config)
    -catalog <dir>      Catalog directory with the CSV tables
    -scenarios <dir>    Directory holding scenario<N>.json or .yaml outcome sets
    -method <name>      stochastic, deterministic or perfect_information
    -estimates          Run once with every delivery at its estimate
    -format <fmt>       Output format: text, json, csv, xlsx (default: text)
    -output <dir>       Output directory (required for csv and xlsx)
    -log-level <lvl>    trace, debug, info, warn, error
    -verbose            Print every committed action
    -help               Show this help message

EXAMPLES:
    rollalloc simulate -catalog data/catalog -scenarios data/scenarios
    rollalloc simulate -method deterministic -format xlsx -output results/
`)
}
