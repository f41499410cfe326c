// Package horizon runs the day-by-day rolling-horizon loop: each day re-plans a sliding window and
// commits only that day's decisions.
package horizon

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vsinha/rollalloc/pkg/application/dto"
	"github.com/vsinha/rollalloc/pkg/application/services/allocation"
	"github.com/vsinha/rollalloc/pkg/application/services/profit"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/repositories"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
	"github.com/vsinha/rollalloc/pkg/infrastructure/ledger"
)

// State is a step of the controller's day loop
type State int

const (
	LoadState State = iota
	BuildWindow
	Solve
	Realize
	Advance
	Done
)

// String method for State enum
func (s State) String() string {
	switch s {
	case LoadState:
		return "load_state"
	case BuildWindow:
		return "build_window"
	case Solve:
		return "solve"
	case Realize:
		return "realize"
	case Advance:
		return "advance"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Planner solves one window
type Planner interface {
	Solve(ctx context.Context, problem allocation.Problem) (*allocation.Plan, error)
	SolvePerProduct(ctx context.Context, problem allocation.Problem) (*allocation.Plan, error)
}

var _ Planner = (*allocation.Engine)(nil)

// Controller owns the inventory of one run and steps it through the horizon
type Controller struct {
	planner    Planner
	accountant *profit.Accountant
	catalog    *entities.Catalog
	options    Options
	baseLogger zerolog.Logger

	logger   zerolog.Logger
	state    State
	today    entities.Day
	ledger   *ledger.Ledger
	outcomes map[entities.InventoryKey]entities.Volume
	arrivals map[entities.InventoryKey]entities.Day
	problem  allocation.Problem
	plan     *allocation.Plan
	day      dto.DayReport
	report   *dto.RunReport
}

// NewController creates a controller over a master catalog
func NewController(
	planner Planner,
	accountant *profit.Accountant,
	catalog *entities.Catalog,
	options Options,
	logger zerolog.Logger,
) (*Controller, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	arrivals := make(map[entities.InventoryKey]entities.Day)
	for _, vendor := range catalog.Vendors {
		for _, delivery := range vendor.Deliveries {
			for _, line := range delivery.Supply {
				arrivals[entities.InventoryKey{Vendor: vendor.ID, Delivery: delivery.Number, Product: line.ProductType}] =
					delivery.ArrivalDay
			}
		}
	}

	return &Controller{
		planner:    planner,
		accountant: accountant,
		catalog:    catalog,
		options:    options,
		baseLogger: logger,
		logger:     logger,
		state:      Done,
		arrivals:   arrivals,
	}, nil
}

// State returns the current state
func (c *Controller) State() State { return c.state }

// Today returns the day being planned
func (c *Controller) Today() entities.Day { return c.today }

// Ledger returns the inventory ledger of the current run
func (c *Controller) Ledger() *ledger.Ledger { return c.ledger }

// Run plays the whole horizon against one outcome set. A nil set keeps every delivery at its estimate.
func (c *Controller) Run(ctx context.Context, outcomes *entities.OutcomeSet) (*dto.RunReport, error) {
	if err := c.Start(outcomes); err != nil {
		return nil, err
	}
	for c.state != Done {
		if err := c.Step(ctx); err != nil {
			return nil, err
		}
	}
	return c.report, nil
}

// Start resets the controller to LoadState on the first day
func (c *Controller) Start(outcomes *entities.OutcomeSet) error {
	if c.options.Method == PerfectInformation && outcomes == nil {
		return fmt.Errorf("method %s needs an outcome set", c.options.Method)
	}

	l, err := ledger.NewFromCatalog(c.catalog)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	index := -1
	c.outcomes = nil
	if outcomes != nil {
		index = outcomes.Index
		c.outcomes = outcomes.Volumes()
	}

	runID := uuid.NewString()
	c.logger = c.baseLogger.With().Str("run_id", runID).Int("outcome_set", index).Logger()
	c.ledger = l
	c.today = c.options.StartDay
	c.plan = nil
	c.report = &dto.RunReport{
		RunID:      runID,
		OutcomeSet: index,
		Method:     c.options.Method.String(),
		StartDay:   c.options.StartDay,
		EndDay:     c.options.EndDay,
	}
	c.state = LoadState
	c.logger.Info().
		Str("method", c.options.Method.String()).
		Int("start_day", int(c.options.StartDay)).
		Int("end_day", int(c.options.EndDay)).
		Int("window_days", c.options.WindowDays).
		Msg("run started")
	return nil
}

// Step executes the current state and moves to the next one
func (c *Controller) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := c.state
	var err error
	switch c.state {
	case LoadState:
		err = c.loadState()
	case BuildWindow:
		err = c.buildWindow()
	case Solve:
		err = c.solve(ctx)
	case Realize:
		err = c.realize()
	case Advance:
		c.advance()
	case Done:
		return fmt.Errorf("run already finished")
	}
	if err != nil {
		return fmt.Errorf("day %d %s: %w", c.today, from, err)
	}

	c.logger.Debug().
		Int("day", int(c.today)).
		Str("from", from.String()).
		Str("to", c.state.String()).
		Msg("state transition")
	return nil
}

// loadState books the realized volume of every delivery that has arrived by today
func (c *Controller) loadState() error {
	realized := 0
	for _, key := range c.catalog.SupplyKeys() {
		if c.arrivals[key] > c.today || c.ledger.IsRealized(key) {
			continue
		}
		actual, ok := c.outcomes[key]
		if !ok {
			continue
		}
		if err := c.ledger.Realize(c.today, key, actual); err != nil {
			return err
		}
		realized++
	}
	c.logger.Debug().Int("day", int(c.today)).Int("realized", realized).Msg("outcomes substituted")

	c.day = dto.DayReport{Day: c.today}
	c.state = BuildWindow
	return nil
}

func (c *Controller) buildWindow() error {
	window, err := allocation.NewWindow(c.today, c.options.WindowDays, c.options.EndDay)
	if err != nil {
		return err
	}

	snapshot := c.ledger.Snapshot()
	for key, arrival := range c.arrivals {
		if arrival <= c.today {
			c.day.SupplyAvailable += snapshot.Volume(key)
		}
	}
	for _, customer := range c.catalog.Customers {
		for i := range customer.Orders {
			if customer.Orders[i].DepartureDay == c.today {
				c.day.DemandDeparting += customer.Orders[i].TotalVolume()
			}
		}
	}

	c.plan = nil
	if c.day.DemandDeparting == 0 {
		c.logger.Debug().Int("day", int(c.today)).Msg("no order departs, skipping solve")
		c.state = Realize
		return nil
	}

	catalog := snapshot.Apply(c.catalog)
	if c.options.Method == PerfectInformation {
		catalog = catalog.WithSupplyVolumes(func(key entities.InventoryKey, line entities.SupplyLine) entities.Volume {
			if actual, ok := c.outcomes[key]; ok && !c.ledger.IsRealized(key) {
				return actual
			}
			return line.Volume
		})
	}

	tree, err := scenariotree.New(window.Days(), c.options.TreeOptions())
	if err != nil {
		return err
	}
	c.problem = allocation.Problem{
		Catalog: catalog.Narrow(c.today, window.End),
		Window:  window,
		Tree:    tree,
	}
	c.state = Solve
	return nil
}

func (c *Controller) solve(ctx context.Context) error {
	var plan *allocation.Plan
	var err error
	if c.options.PerProduct {
		plan, err = c.planner.SolvePerProduct(ctx, c.problem)
	} else {
		plan, err = c.planner.Solve(ctx, c.problem)
	}
	if err != nil {
		return err
	}
	c.plan = plan
	diagnostics := plan.Diagnostics
	c.day.Diagnostics = &diagnostics
	c.state = Realize
	return nil
}

// realize commits today's actions; later days of the plan are dropped and re-planned tomorrow
func (c *Controller) realize() error {
	var actions []entities.Action
	if c.plan != nil {
		actions = c.plan.ActionsOn(c.today)
	}

	for i := range actions {
		action := &actions[i]
		key, internal := action.InventoryKey()
		if !internal {
			c.day.ExternalVolume += action.Volume
			continue
		}
		if err := c.ledger.Allocate(c.today, key, action.Volume); err != nil {
			return err
		}
		c.day.InternalVolume += action.Volume
	}

	breakdown, err := c.accountant.Calculate(c.catalog, actions)
	if err != nil {
		return err
	}
	c.day.Actions = actions
	c.day.Profit = breakdown
	c.state = Advance
	return nil
}

func (c *Controller) advance() {
	c.report.Days = append(c.report.Days, c.day)
	c.report.Total = c.report.Total.Add(c.day.Profit)
	if c.day.Diagnostics != nil {
		c.report.SolveTime += c.day.Diagnostics.Elapsed
	}

	c.logger.Info().
		Int("day", int(c.today)).
		Int("actions", len(c.day.Actions)).
		Int("internal_volume", int(c.day.InternalVolume)).
		Int("external_volume", int(c.day.ExternalVolume)).
		Str("profit", c.day.Profit.Profit.String()).
		Msg("day committed")

	if c.today >= c.options.EndDay {
		c.state = Done
		c.logger.Info().
			Int("days", len(c.report.Days)).
			Str("profit", c.report.Total.Profit.String()).
			Dur("solve_time", c.report.SolveTime).
			Msg("run finished")
		return
	}
	c.today++
	c.state = LoadState
}

// Simulate runs the horizon once per stored outcome set and averages the results
func (c *Controller) Simulate(ctx context.Context, repo repositories.OutcomeRepository) (*dto.SimulationReport, error) {
	indexes, err := repo.ListOutcomeSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outcome sets: %w", err)
	}
	if len(indexes) == 0 {
		return nil, fmt.Errorf("no outcome sets to simulate")
	}

	runs := make([]dto.RunReport, 0, len(indexes))
	for _, index := range indexes {
		set, err := repo.GetOutcomeSet(ctx, index)
		if err != nil {
			return nil, fmt.Errorf("load outcome set %d: %w", index, err)
		}
		report, err := c.Run(ctx, set)
		if err != nil {
			return nil, fmt.Errorf("outcome set %d: %w", index, err)
		}
		runs = append(runs, *report)
	}

	simulation := dto.NewSimulationReport(runs)
	c.baseLogger.Info().
		Int("runs", len(runs)).
		Str("average_profit", simulation.AverageProfit.String()).
		Dur("average_solve_time", simulation.AverageSolveTime).
		Msg("simulation finished")
	return simulation, nil
}
