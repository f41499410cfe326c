package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vsinha/rollalloc/pkg/interfaces/cli/commands"
)

const usage = `rollalloc - rolling-horizon allocation of perishable deliveries

USAGE:
    rollalloc <command> [options]

COMMANDS:
    simulate    Play the horizon against stored outcome sets
    solve       Plan one window at booked volumes
    generate    Draw outcome sets around the catalog estimates

Run 'rollalloc <command> -help' for the options of a command.
`

// Executor is implemented by every subcommand
type Executor interface {
	Execute(ctx context.Context) error
}

func main() {
	// a missing .env is fine, the environment and rollalloc.yaml still apply
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, err := parse(os.Args[1], os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if cmd == nil {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func commonFlags(fs *flag.FlagSet, common *commands.CommonConfig) {
	fs.StringVar(&common.ConfigFile, "config", "", "Configuration file")
	fs.StringVar(&common.CatalogDir, "catalog", "", "Catalog directory with the CSV tables")
	fs.StringVar(&common.LogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	fs.BoolVar(&common.Verbose, "verbose", false, "Enable verbose output")
	fs.BoolVar(&common.Help, "help", false, "Show help message")
}

// parse returns nil without error when only the usage was asked for
func parse(name string, args []string) (Executor, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	switch name {
	case "simulate":
		var config commands.SimulateConfig
		commonFlags(fs, &config.CommonConfig)
		fs.StringVar(&config.ScenarioDir, "scenarios", "", "Directory holding the outcome sets")
		fs.StringVar(&config.Method, "method", "", "Solution method: stochastic, deterministic, perfect_information")
		fs.BoolVar(&config.Estimates, "estimates", false, "Run once at estimated volumes")
		fs.StringVar(&config.Format, "format", "text", "Output format: text, json, csv, xlsx")
		fs.StringVar(&config.OutputDir, "output", "", "Output directory for results")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return commands.NewSimulateCommand(config), nil

	case "solve":
		var config commands.SolveConfig
		commonFlags(fs, &config.CommonConfig)
		fs.IntVar(&config.Day, "day", -1, "First day of the window")
		fs.StringVar(&config.Method, "method", "", "Solution method: stochastic, deterministic, perfect_information")
		fs.StringVar(&config.Format, "format", "text", "Output format: text, json")
		fs.StringVar(&config.OutputDir, "output", "", "Output directory for results")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return commands.NewSolveCommand(config), nil

	case "generate":
		var config commands.GenerateConfig
		commonFlags(fs, &config.CommonConfig)
		fs.StringVar(&config.OutputDir, "output", "", "Directory for the outcome sets")
		fs.StringVar(&config.Format, "format", "", "Outcome set format: json, yaml")
		fs.IntVar(&config.Count, "count", 10, "Number of outcome sets")
		fs.IntVar(&config.First, "first", 0, "Index of the first outcome set")
		fs.Uint64Var(&config.Seed, "seed", 0, "Random seed (0 picks one from the clock)")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return commands.NewGenerateCommand(config), nil

	case "help", "-help", "--help", "-h":
		fmt.Print(usage)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown command %q\n\n%s", name, usage)
	}
}
