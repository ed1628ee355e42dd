package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/wicket/internal/seeder"
	"github.com/spf13/cobra"
)

// Default configuration constants.
const (
	defaultBaseURL     = "http://localhost:8080"
	defaultNumPlayers  = 200
	defaultTopN        = 20
	defaultCompares    = 25
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

// seedOptions holds the parsed command-line flags.
type seedOptions struct {
	baseURL    string
	numPlayers int
	topN       int
	compares   int
	workers    int
	rate       float64
	timeout    time.Duration
	outputFile string
	logFile    string
	verbose    bool
}

// config converts the flags into a run configuration.
func (o *seedOptions) config() *seeder.Config {
	return &seeder.Config{
		BaseURL:     o.baseURL,
		NumPlayers:  o.numPlayers,
		TopN:        o.topN,
		Comparisons: o.compares,
		Workers:     max(o.workers, 1),
		Rate:        o.rate,
		Timeout:     o.timeout,
		OutputFile:  o.outputFile,
		Verbose:     o.verbose,
	}
}

var opts seedOptions

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill a running wicket service with synthetic players",
	Long: `Fills a running wicket service with synthetic players, retrains the
classifier and checks the ranking and comparison endpoints.`,
	Example: `  # Seed a local service with default settings
  seed

  # Larger run against another address
  seed --players 2000 --workers 16 --url http://localhost:9090`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd.Context(), &opts)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.baseURL, "url", defaultBaseURL, "Base URL of the service")
	f.IntVar(&opts.numPlayers, "players", defaultNumPlayers, "Number of players to generate and submit")
	f.IntVar(&opts.topN, "top", defaultTopN, "Number of top players to fetch and verify")
	f.IntVar(&opts.compares, "compare", defaultCompares, "Number of pairwise comparisons to run")
	f.IntVar(&opts.workers, "workers", runtime.NumCPU(), "Number of concurrent workers")
	f.Float64Var(&opts.rate, "rate", 0, "Create requests per second across workers, 0 for unlimited")
	f.DurationVar(&opts.timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.StringVar(&opts.outputFile, "output", "", "Write the stored players to this JSON file")
	f.StringVar(&opts.logFile, "log", "", "Also write logs to this file")
	f.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
}

func runSeed(parent context.Context, o *seedOptions) error {
	closer, err := seeder.SetupLogging(o.logFile, o.verbose)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, defaultTestTimeout)
	defer cancel()

	if _, err := seeder.Run(ctx, o.config()); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	return nil
}
