package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/wicket/internal/domain/scoring"
	"github.com/okian/wicket/internal/domain/types"
	"github.com/okian/wicket/pkg/logger"
)

// ErrVerification marks a response that contradicts the stored dataset.
var ErrVerification = errors.New("verification failed")

// trainModel triggers a manual retrain.
func trainModel(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	resp, err := client.request(ctx).Post(client.url("/api/performance/train"))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != StatusOK {
		return statusError(resp)
	}
	logger.Get().Info(ctx, "model trained", logger.String("response", resp.String()))
	return nil
}

// getTopPlayers retrieves the top N players.
func getTopPlayers(ctx context.Context, config *Config, stats *Stats) ([]Player, error) {
	client := newHTTPClient(config.BaseURL, config.Timeout)

	var top []Player
	resp, err := client.request(ctx).
		SetResult(&top).
		Get(client.url(fmt.Sprintf("/api/performance/top/%d", config.TopN)))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != StatusOK {
		return nil, statusError(resp)
	}

	stats.TopEntries = len(top)
	logger.Get().Info(ctx, "retrieved top players", logger.Int("count", len(top)))
	return top, nil
}

// verifyTopPlayers checks that top is sorted by score, has the expected
// length and is led by the best scoring stored player.
func verifyTopPlayers(stored, top []Player, n int) error {
	want := minInt(n, len(stored))
	if n < 0 {
		want = 0
	}
	if len(top) != want {
		return fmt.Errorf("%w: got %d top players, want %d", ErrVerification, len(top), want)
	}
	for i := 1; i < len(top); i++ {
		if scoring.Score(top[i]) > scoring.Score(top[i-1]) {
			return fmt.Errorf("%w: top players not sorted: entry %d outscores entry %d", ErrVerification, i, i-1)
		}
	}
	if len(top) == 0 {
		return nil
	}
	best := 0.0
	for _, p := range stored {
		best = max(best, scoring.Score(p))
	}
	if got := scoring.Score(top[0]); got != best {
		return fmt.Errorf("%w: top score %.3f does not match best stored score %.3f", ErrVerification, got, best)
	}
	return nil
}

// runComparisons compares consecutive stored players and tallies verdicts.
func runComparisons(ctx context.Context, config *Config, stored []Player, stats *Stats) error {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	stats.Verdicts = make(map[types.Verdict]int)

	for i := 0; i+1 < len(stored) && stats.Comparisons < config.Comparisons; i += 2 {
		a, b := stored[i], stored[i+1]
		var c types.Comparison
		resp, err := client.request(ctx).
			SetHeader("Accept", "application/json").
			SetResult(&c).
			Get(client.url(fmt.Sprintf("/api/performance/compare/%s/%s", a.ID, b.ID)))
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if resp.StatusCode() != StatusOK {
			return statusError(resp)
		}
		if c.Verdict == types.VerdictNotFound {
			return fmt.Errorf("%w: stored players %s and %s reported missing", ErrVerification, a.ID, b.ID)
		}

		stats.Comparisons++
		stats.Verdicts[c.Verdict]++
		if config.Verbose {
			logger.Get().Info(ctx, "comparison", logger.String("a", a.ID), logger.String("b", b.ID), logger.String("message", c.Message))
		}
	}
	return nil
}

// displayTopPlayers logs the leading players with their scores.
func displayTopPlayers(ctx context.Context, top []Player) {
	n := minInt(10, len(top))
	for i := 0; i < n; i++ {
		logger.Get().Info(ctx, "top player",
			logger.Int("rank", i+1),
			logger.String("id", top[i].ID),
			logger.Float64("score", scoring.Score(top[i])),
			logger.Int("label", top[i].Label))
	}
}
