package seeder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/okian/wicket/pkg/logger"
	"golang.org/x/time/rate"
)

// HTTPClient is a thin resty wrapper bound to the service base URL.
type HTTPClient struct {
	base string
	rest *resty.Client
}

// newHTTPClient creates a client with the given request timeout.
func newHTTPClient(base string, timeout time.Duration) *HTTPClient {
	r := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &HTTPClient{base: base, rest: r}
}

// request starts a context-bound request.
func (c *HTTPClient) request(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx)
}

// url joins path onto the base URL.
func (c *HTTPClient) url(path string) string {
	return c.base + path
}

// statusError reports an unexpected status with the response body.
func statusError(resp *resty.Response) error {
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
}

// Outcomes of a single create request.
const (
	resultCreated       = "created"
	resultRetrainFailed = "retrain_failed"
	resultFailed        = "failed"
)

// retrainFailedBody is the 500 body of a write kept despite a failed retrain.
type retrainFailedBody struct {
	Code   string  `json:"code"`
	Record *Player `json:"record"`
}

// newLimiter paces create requests. A non-positive rate never blocks.
func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// submitPlayers creates players concurrently using a worker pool and returns
// the stored records, in no particular order.
func submitPlayers(ctx context.Context, config *Config, players []Player, stats *Stats) ([]Player, error) {
	log := logger.Get()
	log.Info(ctx, "submitting players", logger.Int("players", len(players)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.BaseURL, config.Timeout)
	limiter := newLimiter(config.Rate, config.Workers)

	var (
		created       int64
		retrainFailed int64
		failed        int64
		submitted     int64
		lastReport    atomic.Int64
		mu            sync.Mutex
		stored        = make([]Player, 0, len(players))
	)

	playerChan := make(chan Player, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for p := range playerChan {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				rec, result := submitSinglePlayer(ctx, client, p)

				atomic.AddInt64(&submitted, 1)
				switch result {
				case resultCreated:
					atomic.AddInt64(&created, 1)
				case resultRetrainFailed:
					atomic.AddInt64(&retrainFailed, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
				if rec.ID != "" {
					mu.Lock()
					stored = append(stored, rec)
					mu.Unlock()
				}

				// Progress reporting
				now := time.Now().UnixNano()
				last := lastReport.Load()
				if config.Verbose && now-last >= int64(ProgressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "submission progress",
						logger.Int("submitted", int(atomic.LoadInt64(&submitted))),
						logger.Int("total", len(players)),
						logger.Int("failed", int(atomic.LoadInt64(&failed))))
				}
			}
		}()
	}

	go func() {
		defer close(playerChan)
		for _, p := range players {
			select {
			case <-ctx.Done():
				return
			case playerChan <- p:
			}
		}
	}()

	wg.Wait()

	stats.PlayersCreated = int(created + retrainFailed)
	stats.RetrainFailures = int(retrainFailed)
	stats.PlayersFailed = int(failed)

	log.Info(ctx, "player submission completed",
		logger.Int("created", stats.PlayersCreated),
		logger.Int("retrainFailures", stats.RetrainFailures),
		logger.Int("failed", stats.PlayersFailed))

	if err := ctx.Err(); err != nil {
		return stored, fmt.Errorf("submission interrupted: %w", err)
	}
	return stored, nil
}

// submitSinglePlayer creates p and returns the stored record with the outcome.
func submitSinglePlayer(ctx context.Context, client *HTTPClient, p Player) (Player, string) {
	var (
		rec Player
		rf  retrainFailedBody
	)
	resp, err := client.request(ctx).
		SetBody(p).
		SetResult(&rec).
		SetError(&rf).
		Post(client.url("/api/performance"))
	if err != nil {
		return Player{}, resultFailed
	}

	switch resp.StatusCode() {
	case StatusCreated:
		if rec.ID == "" {
			return Player{}, resultFailed
		}
		return rec, resultCreated
	case StatusInternal:
		if rf.Code == resultRetrainFailed && rf.Record != nil {
			return *rf.Record, resultRetrainFailed
		}
		return Player{}, resultFailed
	default:
		return Player{}, resultFailed
	}
}
