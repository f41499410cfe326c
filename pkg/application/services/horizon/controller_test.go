package horizon

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/rollalloc/pkg/application/services/allocation"
	"github.com/vsinha/rollalloc/pkg/application/services/profit"
	"github.com/vsinha/rollalloc/pkg/domain"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver/branchbound"
	testhelpers "github.com/vsinha/rollalloc/pkg/infrastructure/testing"
)

func newEngine(t *testing.T) *allocation.Engine {
	t.Helper()
	config := allocation.DefaultEngineConfig()
	config.Parameters = testhelpers.TestParameters()
	engine, err := allocation.NewEngineWithConfig(branchbound.New(), config, zerolog.Nop())
	require.NoError(t, err)
	return engine
}

func newController(t *testing.T, planner Planner, catalog *entities.Catalog, options Options) *Controller {
	t.Helper()
	controller, err := NewController(
		planner, profit.NewAccountant(testhelpers.TestParameters()), catalog, options, zerolog.Nop(),
	)
	require.NoError(t, err)
	return controller
}

func actionStrings(actions []entities.Action) []string {
	out := make([]string, 0, len(actions))
	for i := range actions {
		out = append(out, actions[i].String())
	}
	sort.Strings(out)
	return out
}

func TestController_ForcedMidMatchesDeterministicSolve(t *testing.T) {
	catalog := testhelpers.BuildTwoDayCatalog()
	engine := newEngine(t)

	mid := scenariotree.Mid
	options := DefaultOptions(1)
	options.WindowDays = 2
	options.ForcedLevel = &mid
	report, err := newController(t, engine, catalog, options).Run(context.Background(), nil)
	require.NoError(t, err)

	window, err := allocation.NewWindow(0, 2, 1)
	require.NoError(t, err)
	tree, err := scenariotree.New(2, scenariotree.Options{BranchProbabilities: scenariotree.DefaultBranchProbabilities})
	require.NoError(t, err)
	plan, err := engine.Solve(context.Background(), allocation.Problem{
		Catalog: catalog.Narrow(0, 1),
		Window:  window,
		Tree:    tree,
	})
	require.NoError(t, err)

	assert.Equal(t, actionStrings(plan.Actions), actionStrings(report.Actions()))
	assert.Equal(t, []string{
		"day 0: 30 x SALMON_1_2 V1/0 -> C1/0",
		"day 1: 20 x SALMON_1_2 V1/0 -> C2/0",
		"day 1: 40 x SALMON_1_2 V1/1 -> C2/0",
	}, actionStrings(report.Actions()))
	assert.Equal(t, 3, report.Days[0].Diagnostics.Scenarios)
	assert.Equal(t, 1, report.Days[1].Diagnostics.Scenarios)
}

func TestController_StateTransitions(t *testing.T) {
	controller := newController(t, newEngine(t), testhelpers.BuildSingleContractCatalog(), Options{
		StartDay:            0,
		EndDay:              1,
		WindowDays:          1,
		Method:              Deterministic,
		BranchProbabilities: scenariotree.DefaultBranchProbabilities,
	})
	assert.Equal(t, Done, controller.State())

	require.NoError(t, controller.Start(nil))
	expected := []State{
		BuildWindow, Solve, Realize, Advance, LoadState,
		// nothing departs on day 1
		BuildWindow, Realize, Advance, Done,
	}
	for i, want := range expected {
		require.NoError(t, controller.Step(context.Background()), "step %d", i)
		if controller.State() != want {
			t.Fatalf("Expected state %s after step %d, got %s", want, i, controller.State())
		}
	}

	err := controller.Step(context.Background())
	assert.Error(t, err)

	balance, ok := controller.Ledger().Balance(entities.InventoryKey{Vendor: "V1", Delivery: 0, Product: entities.Salmon1To2})
	require.True(t, ok)
	assert.Equal(t, entities.Volume(0), balance)
}

func TestController_RunReport(t *testing.T) {
	controller := newController(t, newEngine(t), testhelpers.BuildSingleContractCatalog(), Options{
		EndDay:              1,
		WindowDays:          2,
		Method:              Stochastic,
		BranchProbabilities: scenariotree.DefaultBranchProbabilities,
	})

	report, err := controller.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, -1, report.OutcomeSet)
	assert.Equal(t, "stochastic", report.Method)
	require.Len(t, report.Days, 2)

	day0 := report.Days[0]
	assert.Equal(t, entities.Volume(100), day0.SupplyAvailable)
	assert.Equal(t, entities.Volume(100), day0.DemandDeparting)
	assert.Equal(t, entities.Volume(100), day0.InternalVolume)
	assert.Equal(t, entities.Volume(0), day0.ExternalVolume)
	assert.Equal(t, "200", day0.Profit.Profit.String())
	require.NotNil(t, day0.Diagnostics)

	day1 := report.Days[1]
	assert.Nil(t, day1.Diagnostics)
	assert.Empty(t, day1.Actions)
	assert.Equal(t, entities.Volume(0), day1.SupplyAvailable)
	assert.True(t, day1.Profit.Profit.IsZero())

	assert.Equal(t, "200", report.Total.Profit.String())
}

func TestController_EndToEndWithOutcomes(t *testing.T) {
	catalogRepo, outcomeRepo := testhelpers.BuildSalmonTestData()
	catalog, err := catalogRepo.LoadCatalog(context.Background())
	require.NoError(t, err)
	outcomes, err := outcomeRepo.GetOutcomeSet(context.Background(), 0)
	require.NoError(t, err)

	options := DefaultOptions(2)
	options.WindowDays = 2
	controller := newController(t, newEngine(t), catalog, options)
	report, err := controller.Run(context.Background(), outcomes)
	require.NoError(t, err)
	require.Len(t, report.Days, 3)
	assert.Equal(t, 0, report.OutcomeSet)

	total := decimal.Zero
	served := make(map[entities.OrderNumber]entities.Volume)
	for _, day := range report.Days {
		total = total.Add(day.Profit.Profit)
		for _, action := range day.Actions {
			assert.Equal(t, day.Day, action.TransportationDay)
			if action.CustomerID == "OSLO" {
				served[action.OrderNumber] += action.Volume
			}
		}
	}
	assert.True(t, total.Equal(report.Total.Profit), "expected %s, got %s", total, report.Total.Profit)

	// contract orders are always served in full
	assert.Equal(t, entities.Volume(50), served[0])
	assert.Equal(t, entities.Volume(60), served[1])

	for _, key := range catalog.SupplyKeys() {
		balance, _ := controller.Ledger().Balance(key)
		assert.GreaterOrEqual(t, int(balance), 0, "balance of %s", key)
		assert.True(t, controller.Ledger().IsRealized(key), "%s not realized", key)
	}
	// NORD delivery 0 arrives at 90% of its 120 box estimate
	first := controller.Ledger().ReadEntries(entities.InventoryKey{Vendor: "NORD", Delivery: 0, Product: entities.Salmon1To2}, 1)
	require.GreaterOrEqual(t, len(first), 2)
	assert.Equal(t, entities.Volume(108), first[1].Balance)
}

func TestController_Simulate(t *testing.T) {
	catalogRepo, outcomeRepo := testhelpers.BuildSalmonTestData()
	catalog, err := catalogRepo.LoadCatalog(context.Background())
	require.NoError(t, err)

	options := DefaultOptions(2)
	options.WindowDays = 1
	options.Method = PerfectInformation
	simulation, err := newController(t, newEngine(t), catalog, options).Simulate(context.Background(), outcomeRepo)
	require.NoError(t, err)
	require.Len(t, simulation.Runs, 2)

	sum := simulation.Runs[0].Total.Profit.Add(simulation.Runs[1].Total.Profit)
	assert.True(t, sum.Div(decimal.NewFromInt(2)).Equal(simulation.AverageProfit))
	assert.NotEqual(t, simulation.Runs[0].RunID, simulation.Runs[1].RunID)
}

func TestController_PerfectInformationNeedsOutcomes(t *testing.T) {
	options := DefaultOptions(0)
	options.Method = PerfectInformation
	controller := newController(t, newEngine(t), testhelpers.BuildSingleContractCatalog(), options)

	_, err := controller.Run(context.Background(), nil)
	assert.Error(t, err)
}

type failingPlanner struct{}

func (failingPlanner) Solve(ctx context.Context, problem allocation.Problem) (*allocation.Plan, error) {
	return nil, &domain.InfeasibleModelError{Day: int(problem.Window.Today), Status: "infeasible"}
}

func (p failingPlanner) SolvePerProduct(ctx context.Context, problem allocation.Problem) (*allocation.Plan, error) {
	return p.Solve(ctx, problem)
}

func TestController_InfeasibleDayAbortsRun(t *testing.T) {
	controller := newController(t, failingPlanner{}, testhelpers.BuildSingleContractCatalog(), DefaultOptions(0))

	_, err := controller.Run(context.Background(), nil)
	var infeasible *domain.InfeasibleModelError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, 0, infeasible.Day)
	assert.True(t, errors.Is(err, domain.ErrInfeasible))
}

func TestParseMethod(t *testing.T) {
	testCases := []struct {
		input    string
		expected Method
		wantErr  bool
	}{
		{"stochastic", Stochastic, false},
		{"deterministic", Deterministic, false},
		{"perfect_information", PerfectInformation, false},
		{"oracle", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			method, err := ParseMethod(tc.input)
			if tc.wantErr {
				assert.True(t, errors.Is(err, domain.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, method)
			assert.Equal(t, tc.input, method.String())
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Options)
	}{
		{"end before start", func(o *Options) { o.StartDay = 3 }},
		{"empty window", func(o *Options) { o.WindowDays = 0 }},
		{"window too long", func(o *Options) { o.WindowDays = scenariotree.MaxDays + 1 }},
		{"bad probabilities", func(o *Options) { o.BranchProbabilities = [3]float64{0.5, 0.5, 0.5} }},
	}

	assert.NoError(t, DefaultOptions(2).Validate())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			options := DefaultOptions(2)
			tc.modify(&options)
			assert.True(t, errors.Is(options.Validate(), domain.ErrConfiguration))
		})
	}
}
