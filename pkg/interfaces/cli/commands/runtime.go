package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vsinha/rollalloc/pkg/application/services/allocation"
	"github.com/vsinha/rollalloc/pkg/application/services/profit"
	"github.com/vsinha/rollalloc/pkg/config"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver/branchbound"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver/highs"
	"github.com/vsinha/rollalloc/pkg/logger"
)

// CommonConfig holds the flags every subcommand accepts. Non-empty values override the loaded
// configuration.
type CommonConfig struct {
	ConfigFile string
	CatalogDir string
	LogLevel   string
	Verbose    bool
	Help       bool
	// Stdout receives reports and help text; defaults to os.Stdout
	Stdout io.Writer
}

func (c CommonConfig) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// runtime is everything a subcommand needs after loading settings and the catalog
type runtime struct {
	config     *config.Config
	logger     *logger.Logger
	catalog    *entities.Catalog
	engine     *allocation.Engine
	accountant *profit.Accountant
}

func loadRuntime(ctx context.Context, common CommonConfig) (*runtime, error) {
	cfg, err := config.Load(common.ConfigFile)
	if err != nil {
		return nil, err
	}
	if common.CatalogDir != "" {
		cfg.Data.CatalogDir = common.CatalogDir
	}
	if common.LogLevel != "" {
		cfg.App.LogLevel = common.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	catalog, err := csv.NewCatalogRepository(cfg.Data.CatalogDir).
		WithEstimateAdjustment(cfg.Data.AdjustEstimatePercent).
		LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", cfg.Data.CatalogDir, err)
	}
	log.Info().
		Str("dir", cfg.Data.CatalogDir).
		Int("vendors", len(catalog.Vendors)).
		Int("customers", len(catalog.Customers)).
		Msg("catalog loaded")

	engineConfig, err := cfg.AllocationConfig()
	if err != nil {
		return nil, err
	}
	engine, err := allocation.NewEngineWithConfig(NewSolver(cfg.Engine, log), engineConfig, log.Zerolog())
	if err != nil {
		return nil, err
	}

	return &runtime{
		config:     cfg,
		logger:     log,
		catalog:    catalog,
		engine:     engine,
		accountant: profit.NewAccountant(engineConfig.Parameters),
	}, nil
}

// NewSolver returns the MIP backend named by the engine settings
func NewSolver(cfg config.EngineConfig, log *logger.Logger) solver.Solver {
	switch cfg.Solver {
	case "highs":
		return highs.New(log.Zerolog())
	default:
		return branchbound.New(
			branchbound.WithMaxNodes(cfg.MaxNodes),
			branchbound.WithLogger(log.Zerolog()),
		)
	}
}
