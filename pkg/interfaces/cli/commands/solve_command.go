package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/rollalloc/pkg/application/dto"
	"github.com/vsinha/rollalloc/pkg/application/services/allocation"
	"github.com/vsinha/rollalloc/pkg/application/services/horizon"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
	"github.com/vsinha/rollalloc/pkg/interfaces/cli/output"
)

// SolveConfig holds configuration for the solve command
type SolveConfig struct {
	CommonConfig
	// Day is the first day of the window; negative means the configured start day
	Day       int
	Method    string
	OutputDir string
	Format    string
}

// SolveCommand plans a single window at booked volumes without realizing anything
type SolveCommand struct {
	config SolveConfig
}

// NewSolveCommand creates a new solve command with the given configuration
func NewSolveCommand(config SolveConfig) *SolveCommand {
	return &SolveCommand{config: config}
}

// Execute runs the solve command
func (c *SolveCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	rt, err := loadRuntime(ctx, c.config.CommonConfig)
	if err != nil {
		return err
	}
	if c.config.Method != "" {
		rt.config.Horizon.Method = c.config.Method
	}
	if c.config.Day >= 0 {
		rt.config.Horizon.StartDay = c.config.Day
	}

	options, err := rt.config.HorizonOptions(rt.catalog.LastDepartureDay())
	if err != nil {
		return fmt.Errorf("invalid horizon settings: %w", err)
	}

	plan, err := planWindow(ctx, rt, options)
	if err != nil {
		return err
	}

	return output.GeneratePlan(plan, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    c.config.stdout(),
	})
}

// planWindow solves the window opening on the start day against the unrealized catalog
func planWindow(ctx context.Context, rt *runtime, options horizon.Options) (*dto.PlanReport, error) {
	window, err := allocation.NewWindow(options.StartDay, options.WindowDays, options.EndDay)
	if err != nil {
		return nil, err
	}
	tree, err := scenariotree.New(window.Days(), options.TreeOptions())
	if err != nil {
		return nil, err
	}
	problem := allocation.Problem{
		Catalog: rt.catalog.Narrow(window.Today, window.End),
		Window:  window,
		Tree:    tree,
	}

	var plan *allocation.Plan
	if options.PerProduct {
		plan, err = rt.engine.SolvePerProduct(ctx, problem)
	} else {
		plan, err = rt.engine.Solve(ctx, problem)
	}
	if err != nil {
		return nil, fmt.Errorf("error solving window %s: %w", window, err)
	}

	breakdown, err := rt.accountant.Calculate(rt.catalog, plan.ActionsOn(window.Today))
	if err != nil {
		return nil, fmt.Errorf("error pricing day %d: %w", window.Today, err)
	}

	return &dto.PlanReport{
		StartDay:    window.Today,
		EndDay:      window.End,
		Actions:     plan.Actions,
		Diagnostics: plan.Diagnostics,
		Profit:      breakdown,
	}, nil
}

func (c *SolveCommand) showHelp() {
	fmt.Fprint(c.config.stdout(), `rollalloc solve - plan one window at booked volumes

USAGE:
    rollalloc solve [options]

OPTIONS:
    -config <file>      Configuration file (default: rollalloc.yaml in . or ./config)
    -catalog <dir>      Catalog directory with the CSV tables
    -day <n>            First day of the window (default: horizon.start_day)
    -method <name>      stochastic, deterministic or perfect_information
    -format <fmt>       Output format: text, json (default: text)
    -output <dir>       Write plan.json here instead of stdout
    -log-level <lvl>    trace, debug, info, warn, error
    -help               Show this help message

The plan lists every action of the window read from scenario 0; only actions on the first day
are priced.
`)
}
