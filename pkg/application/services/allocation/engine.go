package allocation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/rollalloc/pkg/application/dto"
	"github.com/vsinha/rollalloc/pkg/domain"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

// EngineConfig holds the model constants and solve limits
type EngineConfig struct {
	Parameters entities.ModelParameters
	TimeLimit  time.Duration
	MIPGap     float64
	// BuildWorkers is the number of scenarios whose rows are generated concurrently
	BuildWorkers int
	SigmaRule    scenariotree.SigmaRule
}

// DefaultEngineConfig returns the production settings
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Parameters:   entities.DefaultModelParameters(),
		TimeLimit:    60 * time.Second,
		BuildWorkers: 1,
		SigmaRule:    scenariotree.SigmaSqrt,
	}
}

// Engine assembles the stochastic allocation model of one window, solves it and reads back the plan
type Engine struct {
	config EngineConfig
	solver solver.Solver
	logger zerolog.Logger
}

// NewEngine creates an engine with the default configuration
func NewEngine(s solver.Solver, logger zerolog.Logger) *Engine {
	engine, _ := NewEngineWithConfig(s, DefaultEngineConfig(), logger)
	return engine
}

// NewEngineWithConfig creates an engine with a custom configuration
func NewEngineWithConfig(s solver.Solver, config EngineConfig, logger zerolog.Logger) (*Engine, error) {
	if err := config.Parameters.Validate(); err != nil {
		return nil, err
	}
	if config.BuildWorkers < 1 {
		config.BuildWorkers = 1
	}
	return &Engine{config: config, solver: s, logger: logger}, nil
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig { return e.config }

// Problem is one window to plan. The catalog must already be narrowed to the window and carry the
// current booked supply volumes.
type Problem struct {
	Catalog *entities.Catalog
	Window  Window
	Tree    *scenariotree.Tree
}

// Assembly is a built model together with its variable bundle
type Assembly struct {
	Model     *solver.Model
	Variables *Variables
}

// Plan is the solved allocation of a window, read from scenario 0
type Plan struct {
	Window      Window
	Actions     []entities.Action
	Diagnostics dto.SolveDiagnostics
}

// ActionsOn returns the actions transported on a day
func (p *Plan) ActionsOn(day entities.Day) []entities.Action {
	var actions []entities.Action
	for _, action := range p.Actions {
		if action.TransportationDay == day {
			actions = append(actions, action)
		}
	}
	return actions
}

// Build assembles the model: variables, per-scenario rows, non-anticipativity rows and the objective.
// Any missing rate aborts before rows are generated.
func (e *Engine) Build(ctx context.Context, problem Problem) (*Assembly, error) {
	if problem.Tree.Days() != problem.Window.Days() {
		return nil, fmt.Errorf(
			"scenario tree spans %d days but window %s spans %d",
			problem.Tree.Days(), problem.Window, problem.Window.Days(),
		)
	}

	model := solver.NewModel()
	vars := DeclareVariables(model, problem.Catalog, problem.Tree.Scenarios())
	rates, err := newRateBook(problem.Catalog, vars, e.config.Parameters)
	if err != nil {
		return nil, fmt.Errorf("resolve rates for window %s: %w", problem.Window, err)
	}

	builder := &ConstraintBuilder{
		params:  e.config.Parameters,
		catalog: problem.Catalog,
		vars:    vars,
		rates:   rates,
		supply:  SupplyEstimator{Tree: problem.Tree, Window: problem.Window, Rule: e.config.SigmaRule},
	}
	rows, err := builder.Build(ctx, e.config.BuildWorkers)
	if err != nil {
		return nil, fmt.Errorf("build constraints: %w", err)
	}
	for _, scenarioRows := range rows {
		model.AddConstraints(scenarioRows...)
	}

	tied, err := nonAnticipativity(vars, problem.Window)
	if err != nil {
		return nil, err
	}
	model.AddConstraints(tied...)

	buildObjective(model, vars, rates, problem.Tree)
	return &Assembly{Model: model, Variables: vars}, nil
}

// Solve builds and solves one window. A time-limited incumbent is accepted with a warning; no
// assignment at all is an InfeasibleModelError for the window's first day.
func (e *Engine) Solve(ctx context.Context, problem Problem) (*Plan, error) {
	assembly, err := e.Build(ctx, problem)
	if err != nil {
		return nil, err
	}

	solution, err := e.solver.Solve(ctx, assembly.Model, solver.Options{
		TimeLimit: e.config.TimeLimit,
		MIPGap:    e.config.MIPGap,
	})
	if err != nil {
		return nil, fmt.Errorf("solve window %s: %w", problem.Window, err)
	}

	diagnostics := dto.SolveDiagnostics{
		Day:             problem.Window.Today,
		WindowEnd:       problem.Window.End,
		Scenarios:       problem.Tree.Scenarios(),
		ObjectiveValue:  solution.Objective,
		VariableCount:   assembly.Model.NumVars(),
		ConstraintCount: assembly.Model.NumConstraints(),
		Status:          solution.Status.String(),
		Elapsed:         solution.Elapsed,
	}

	switch solution.Status {
	case solver.Optimal:
	case solver.Feasible:
		e.logger.Warn().
			Int("day", int(problem.Window.Today)).
			Float64("objective", solution.Objective).
			Msg("solve stopped early, using incumbent solution")
	default:
		return nil, &domain.InfeasibleModelError{Day: int(problem.Window.Today), Status: solution.Status.String()}
	}

	actions, err := extractActions(assembly.Variables, solution)
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Int("day", int(problem.Window.Today)).
		Int("window_end", int(problem.Window.End)).
		Int("scenarios", diagnostics.Scenarios).
		Int("variables", diagnostics.VariableCount).
		Int("constraints", diagnostics.ConstraintCount).
		Float64("objective", diagnostics.ObjectiveValue).
		Str("status", diagnostics.Status).
		Dur("elapsed", diagnostics.Elapsed).
		Msg("window solved")

	return &Plan{Window: problem.Window, Actions: actions, Diagnostics: diagnostics}, nil
}

// SolvePerProduct solves one model per demanded grade and unions the plans. Only the shipment-level
// variables couple grades, so this trades exact terminal accounting for much smaller models.
func (e *Engine) SolvePerProduct(ctx context.Context, problem Problem) (*Plan, error) {
	plan := &Plan{
		Window: problem.Window,
		Diagnostics: dto.SolveDiagnostics{
			Day:       problem.Window.Today,
			WindowEnd: problem.Window.End,
		},
	}
	for _, product := range problem.Catalog.DemandProducts() {
		part, err := e.Solve(ctx, Problem{
			Catalog: problem.Catalog.OnlyProduct(product),
			Window:  problem.Window,
			Tree:    problem.Tree,
		})
		if err != nil {
			return nil, fmt.Errorf("solve %s: %w", product, err)
		}
		plan.Actions = append(plan.Actions, part.Actions...)
		plan.Diagnostics.Merge(part.Diagnostics)
	}
	if plan.Diagnostics.Status == "" {
		plan.Diagnostics.Status = solver.Optimal.String()
		plan.Diagnostics.Scenarios = problem.Tree.Scenarios()
	}
	return plan, nil
}

// extractActions reads scenario 0: every x and y above one half becomes an action on its order's
// departure day
func extractActions(vars *Variables, solution *solver.Solution) ([]entities.Action, error) {
	var actions []entities.Action
	for _, k := range vars.Flows {
		volume := math.Round(solution.Value(vars.X[k]))
		if volume < 0.5 {
			continue
		}
		action, err := entities.NewInternalAction(
			entities.Volume(volume), k.Customer, k.Order, k.Vendor, k.Delivery, k.Product,
			vars.DecisionDay(k.OrderRef()),
		)
		if err != nil {
			return nil, fmt.Errorf("extract %v: %w", k, err)
		}
		actions = append(actions, *action)
	}
	for _, k := range vars.Demands {
		volume := math.Round(solution.Value(vars.Y[k]))
		if volume < 0.5 {
			continue
		}
		action, err := entities.NewExternalAction(
			entities.Volume(volume), k.Customer, k.Order, k.Product, vars.DecisionDay(k.OrderRef()),
		)
		if err != nil {
			return nil, fmt.Errorf("extract %v: %w", k, err)
		}
		actions = append(actions, *action)
	}
	return actions, nil
}
