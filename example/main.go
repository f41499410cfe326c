package main

import (
	"context"
	"fmt"

	"github.com/vsinha/rollalloc/pkg/application/services/allocation"
	"github.com/vsinha/rollalloc/pkg/application/services/horizon"
	"github.com/vsinha/rollalloc/pkg/application/services/profit"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
	"github.com/vsinha/rollalloc/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/rollalloc/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/rollalloc/pkg/infrastructure/scenarios"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver/branchbound"
	"github.com/vsinha/rollalloc/pkg/logger"
)

func main() {
	ctx := context.Background()
	log := logger.New(logger.Config{Env: "development", Level: "warn"})

	catalog, err := csv.NewCatalogRepository("data/catalog").LoadCatalog(ctx)
	if err != nil {
		fmt.Printf("Failed to load catalog: %v\n", err)
		return
	}

	// Draw three realizations of the deliveries and keep them in memory
	outcomes := memory.NewOutcomeRepository()
	sets, err := scenarios.NewGenerator(2024, scenariotree.SigmaSqrt).Generate(catalog, 0, 3)
	if err != nil {
		fmt.Printf("Failed to generate outcomes: %v\n", err)
		return
	}
	for _, set := range sets {
		if err := outcomes.SaveOutcomeSet(ctx, set); err != nil {
			fmt.Printf("Failed to store outcome set: %v\n", err)
			return
		}
	}

	config := allocation.DefaultEngineConfig()
	config.Parameters.BigM = 10_000
	engine, err := allocation.NewEngineWithConfig(branchbound.New(), config, log.Zerolog())
	if err != nil {
		fmt.Printf("Failed to create engine: %v\n", err)
		return
	}

	options := horizon.DefaultOptions(catalog.LastDepartureDay())
	options.Method = horizon.Deterministic
	controller, err := horizon.NewController(engine, profit.NewAccountant(config.Parameters), catalog, options,
		log.Zerolog())
	if err != nil {
		fmt.Printf("Failed to create controller: %v\n", err)
		return
	}

	report, err := controller.Simulate(ctx, outcomes)
	if err != nil {
		fmt.Printf("Simulation failed: %v\n", err)
		return
	}

	for _, run := range report.Runs {
		fmt.Printf("Outcome set %d: profit %s\n", run.OutcomeSet, run.Total.Profit.StringFixed(2))
		for _, action := range run.Actions() {
			fmt.Printf("  %s\n", action.String())
		}
	}
	fmt.Printf("\nAverage profit: %s\n", report.AverageProfit.StringFixed(2))
}
