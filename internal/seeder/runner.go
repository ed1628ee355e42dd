// Package seeder drives a running service with synthetic players and checks
// that ranking and comparison answers are consistent with what was stored.
package seeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/wicket/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes a complete seeding run and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting wicket seeding run",
		logger.String("run", stats.RunID),
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.NumPlayers),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate players
	players, err := generatePlayers(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("player generation failed: %w", err)
	}

	// Step 3: Submit players concurrently; every create retrains
	stored, err := submitPlayers(ctx, config, players, stats)
	if err != nil {
		return stats, fmt.Errorf("player submission failed: %w", err)
	}
	if len(stored) == 0 {
		return stats, errors.New("no players were stored")
	}

	// Step 4: Manual retrain so the model reflects the final dataset
	if err := trainModel(ctx, config); err != nil {
		return stats, fmt.Errorf("manual training failed: %w", err)
	}

	// Step 5: Fetch and verify the top players
	top, err := getTopPlayers(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("top players retrieval failed: %w", err)
	}
	if err := verifyTopPlayers(stored, top, config.TopN); err != nil {
		return stats, err
	}
	displayTopPlayers(ctx, top)

	// Step 6: Pairwise comparisons
	if err := runComparisons(ctx, config, stored, stats); err != nil {
		return stats, fmt.Errorf("comparisons failed: %w", err)
	}

	// Step 7: Save players to file
	if config.OutputFile != "" {
		if err := savePlayersToFile(ctx, config.OutputFile, stored); err != nil {
			logger.Get().Warn(ctx, "failed to save players to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "seeding run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	resp, err := client.request(ctx).Get(client.url("/healthz"))
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode() != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode())
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// savePlayersToFile writes the stored players as a JSON array.
func savePlayersToFile(ctx context.Context, filename string, players []Player) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "players saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, playersPerSecond float64

	if stats.PlayersGenerated > 0 {
		successRate = float64(stats.PlayersCreated) / float64(stats.PlayersGenerated) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		playersPerSecond = float64(stats.PlayersCreated) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("run", stats.RunID),
		logger.Int("playersGenerated", stats.PlayersGenerated),
		logger.Int("playersCreated", stats.PlayersCreated),
		logger.Int("playersFailed", stats.PlayersFailed),
		logger.Int("retrainFailures", stats.RetrainFailures),
		logger.Int("topEntries", stats.TopEntries),
		logger.Int("comparisons", stats.Comparisons),
		logger.Any("verdicts", stats.Verdicts),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("playersPerSecond", playersPerSecond))
}
