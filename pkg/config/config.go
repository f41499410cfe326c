// Package config reads run settings from defaults, an optional rollalloc.yaml and ROLLALLOC_*
// environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/vsinha/rollalloc/pkg/application/services/allocation"
	"github.com/vsinha/rollalloc/pkg/application/services/horizon"
	"github.com/vsinha/rollalloc/pkg/domain"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
)

// EnvPrefix prefixes every environment override, e.g. ROLLALLOC_ENGINE_BIG_M
const EnvPrefix = "ROLLALLOC"

// Config groups the settings of the application
type Config struct {
	App     AppConfig
	Engine  EngineConfig
	Horizon HorizonConfig
	Data    DataConfig
}

// AppConfig holds logging settings
type AppConfig struct {
	Env      string // development or production
	LogLevel string
}

// EngineConfig holds the model constants and solver limits
type EngineConfig struct {
	BigM              float64
	FullLoadThreshold int
	TerminalFee       decimal.Decimal
	SolveTimeLimit    time.Duration
	MIPGap            float64
	Solver            string // branchbound or highs
	SigmaRule         string
	BuildWorkers      int
	MaxNodes          int
}

// HorizonConfig holds the rolling-horizon settings
type HorizonConfig struct {
	WindowDays int
	StartDay   int
	// EndDay below zero means the last order departure day of the catalog
	EndDay              int
	Method              string
	ForcedLevel         string
	BranchProbabilities [3]float64
	PerProduct          bool
}

// DataConfig locates the input and output files
type DataConfig struct {
	CatalogDir            string
	ScenarioDir           string
	OutcomeFormat         string
	AdjustEstimatePercent float64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("engine.big_m", 1_000_000.0)
	v.SetDefault("engine.full_load_threshold", 864)
	v.SetDefault("engine.terminal_fee", "10")
	v.SetDefault("engine.solve_time_limit", "60s")
	v.SetDefault("engine.mip_gap", 0.0)
	v.SetDefault("engine.solver", "branchbound")
	v.SetDefault("engine.sigma_rule", "sqrt")
	v.SetDefault("engine.build_workers", 1)
	v.SetDefault("engine.max_nodes", 100_000)

	v.SetDefault("horizon.window_days", 3)
	v.SetDefault("horizon.start_day", 0)
	v.SetDefault("horizon.end_day", -1)
	v.SetDefault("horizon.method", "stochastic")
	v.SetDefault("horizon.forced_level", "")
	v.SetDefault("horizon.branch_probabilities", "0.2,0.6,0.2")
	v.SetDefault("horizon.per_product", false)

	v.SetDefault("data.catalog_dir", "data/catalog")
	v.SetDefault("data.scenario_dir", "data/scenarios")
	v.SetDefault("data.outcome_format", "json")
	v.SetDefault("data.adjust_estimate_percent", 0.0)
}

// Load reads the configuration. An empty path searches rollalloc.yaml in . and ./config and
// tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("rollalloc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	fee, err := decimal.NewFromString(v.GetString("engine.terminal_fee"))
	if err != nil {
		return nil, domain.NewConfigurationError("engine.terminal_fee", "not a number: %v", err)
	}
	probabilities, err := parseProbabilities(v.Get("horizon.branch_probabilities"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("app.env"),
			LogLevel: v.GetString("app.log_level"),
		},
		Engine: EngineConfig{
			BigM:              v.GetFloat64("engine.big_m"),
			FullLoadThreshold: v.GetInt("engine.full_load_threshold"),
			TerminalFee:       fee,
			SolveTimeLimit:    v.GetDuration("engine.solve_time_limit"),
			MIPGap:            v.GetFloat64("engine.mip_gap"),
			Solver:            v.GetString("engine.solver"),
			SigmaRule:         v.GetString("engine.sigma_rule"),
			BuildWorkers:      v.GetInt("engine.build_workers"),
			MaxNodes:          v.GetInt("engine.max_nodes"),
		},
		Horizon: HorizonConfig{
			WindowDays:          v.GetInt("horizon.window_days"),
			StartDay:            v.GetInt("horizon.start_day"),
			EndDay:              v.GetInt("horizon.end_day"),
			Method:              v.GetString("horizon.method"),
			ForcedLevel:         v.GetString("horizon.forced_level"),
			BranchProbabilities: probabilities,
			PerProduct:          v.GetBool("horizon.per_product"),
		},
		Data: DataConfig{
			CatalogDir:            v.GetString("data.catalog_dir"),
			ScenarioDir:           v.GetString("data.scenario_dir"),
			OutcomeFormat:         v.GetString("data.outcome_format"),
			AdjustEstimatePercent: v.GetFloat64("data.adjust_estimate_percent"),
		},
	}
	return cfg, nil
}

// parseProbabilities accepts a YAML list or a comma separated string
func parseProbabilities(raw any) ([3]float64, error) {
	var probs [3]float64
	var parts []string
	switch value := raw.(type) {
	case string:
		parts = strings.Split(value, ",")
	case []any:
		for _, item := range value {
			parts = append(parts, fmt.Sprint(item))
		}
	case []float64:
		for _, item := range value {
			parts = append(parts, strconv.FormatFloat(item, 'g', -1, 64))
		}
	default:
		return probs, domain.NewConfigurationError("horizon.branch_probabilities", "unsupported value %v", raw)
	}
	if len(parts) != 3 {
		return probs, domain.NewConfigurationError(
			"horizon.branch_probabilities", "need 3 values (low, mid, high), got %d", len(parts),
		)
	}
	for i, part := range parts {
		p, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return probs, domain.NewConfigurationError("horizon.branch_probabilities", "not a number: %q", part)
		}
		probs[i] = p
	}
	return probs, nil
}

// Validate checks every setting that does not need the catalog
func (c *Config) Validate() error {
	if _, err := c.Parameters(); err != nil {
		return err
	}
	if _, err := c.AllocationConfig(); err != nil {
		return err
	}
	switch c.Engine.Solver {
	case "branchbound", "highs":
	default:
		return domain.NewConfigurationError("engine.solver", "unknown solver %q", c.Engine.Solver)
	}
	if c.Engine.SolveTimeLimit < 0 {
		return domain.NewConfigurationError("engine.solve_time_limit", "cannot be negative")
	}
	if c.Engine.MIPGap < 0 || c.Engine.MIPGap >= 1 {
		return domain.NewConfigurationError("engine.mip_gap", "must be in [0, 1), got %g", c.Engine.MIPGap)
	}
	if c.Horizon.EndDay >= 0 && c.Horizon.EndDay < c.Horizon.StartDay {
		return domain.NewConfigurationError(
			"horizon.end_day", "day %d is before start day %d", c.Horizon.EndDay, c.Horizon.StartDay,
		)
	}
	_, err := c.HorizonOptions(entities.Day(c.Horizon.StartDay))
	return err
}

// Parameters returns the model constants
func (c *Config) Parameters() (entities.ModelParameters, error) {
	params := entities.ModelParameters{
		BigM:              c.Engine.BigM,
		FullLoadThreshold: entities.Volume(c.Engine.FullLoadThreshold),
		TerminalFee:       c.Engine.TerminalFee,
	}
	return params, params.Validate()
}

// AllocationConfig returns the allocation engine settings
func (c *Config) AllocationConfig() (allocation.EngineConfig, error) {
	params, err := c.Parameters()
	if err != nil {
		return allocation.EngineConfig{}, err
	}
	rule, err := scenariotree.ParseSigmaRule(c.Engine.SigmaRule)
	if err != nil {
		return allocation.EngineConfig{}, err
	}
	return allocation.EngineConfig{
		Parameters:   params,
		TimeLimit:    c.Engine.SolveTimeLimit,
		MIPGap:       c.Engine.MIPGap,
		BuildWorkers: c.Engine.BuildWorkers,
		SigmaRule:    rule,
	}, nil
}

// HorizonOptions returns the controller options; lastDay replaces a negative end day
func (c *Config) HorizonOptions(lastDay entities.Day) (horizon.Options, error) {
	method, err := horizon.ParseMethod(c.Horizon.Method)
	if err != nil {
		return horizon.Options{}, err
	}

	options := horizon.Options{
		StartDay:            entities.Day(c.Horizon.StartDay),
		EndDay:              entities.Day(c.Horizon.EndDay),
		WindowDays:          c.Horizon.WindowDays,
		Method:              method,
		BranchProbabilities: c.Horizon.BranchProbabilities,
		PerProduct:          c.Horizon.PerProduct,
	}
	if c.Horizon.EndDay < 0 {
		options.EndDay = lastDay
		if options.EndDay < options.StartDay {
			options.EndDay = options.StartDay
		}
	}
	if c.Horizon.ForcedLevel != "" {
		level, err := scenariotree.ParseLevel(c.Horizon.ForcedLevel)
		if err != nil {
			return horizon.Options{}, err
		}
		options.ForcedLevel = &level
	}
	return options, options.Validate()
}
