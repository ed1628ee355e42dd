// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/classifier"
	"github.com/okian/wicket/internal/domain/features"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/scoring"
	"github.com/okian/wicket/internal/domain/training"
	"github.com/okian/wicket/internal/domain/types"
	"github.com/okian/wicket/pkg/logger"
	"github.com/okian/wicket/pkg/metrics"
)

// Average statistic keys.
const (
	StatAverage        = "Average Batting"
	StatStrikeRate     = "Strike Rate"
	StatBowlingAverage = "Bowling Average"
	StatEconomyRate    = "Economy Rate"
	StatFielding       = "Fielding Stats"
)

// TrendError is the single key of a trend lookup for an unknown id.
const TrendError = "error"

// Service implements the API dependencies for the suitability system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.Store
	trainer      classifier.Trainer
	holder       *classifier.Holder
	orchestrator *training.Orchestrator

	// Configuration
	retrainOnStart bool
	maxTopLimit    int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore sets the record store. The service owns it and closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithTrainer sets the classifier trainer.
func WithTrainer(t classifier.Trainer) Option {
	return func(s *Service) {
		if t != nil {
			s.trainer = t
		}
	}
}

// WithHolder sets the holder the trained classifier is installed into.
func WithHolder(h *classifier.Holder) Option {
	return func(s *Service) {
		if h != nil {
			s.holder = h
		}
	}
}

// WithRetrainOnStart trains on the existing dataset during Start.
func WithRetrainOnStart(enabled bool) Option {
	return func(s *Service) {
		s.retrainOnStart = enabled
	}
}

// WithMaxTopLimit caps the count accepted by TopPlayers.
func WithMaxTopLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTopLimit = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		retrainOnStart: true,
		maxTopLimit:    1000,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components. With retrain-on-start
// enabled, a non-empty dataset is trained before Start returns; a
// failure there is logged and the service starts untrained.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting suitability service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.trainer == nil {
		s.trainer = classifier.NewLogistic()
	}
	if s.holder == nil {
		s.holder = classifier.NewHolder()
	}
	s.orchestrator = training.New(s.store, s.trainer, s.holder,
		training.WithLogger(s.logger),
	)

	records := s.store.Count(ctx)
	metrics.UpdateTotalRecords(records)
	if s.retrainOnStart && records > 0 {
		if _, err := s.orchestrator.Retrain(ctx, training.TriggerStartup); err != nil {
			s.logger.Warn(ctx, "starting without a trained classifier", logger.Error(err))
		}
	}

	s.started = true
	s.logger.Info(ctx, "suitability service started",
		logger.Int("records", records),
		logger.Bool("trained", s.holder.Trained()),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping suitability service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "suitability service stopped")
}

// List returns every record in creation order.
func (s *Service) List(ctx context.Context) ([]model.PerformanceRecord, error) {
	return s.store.FindAll(ctx)
}

// Get returns the record with id.
func (s *Service) Get(ctx context.Context, id string) (model.PerformanceRecord, error) {
	return s.store.FindByID(ctx, id)
}

// Create stores rec under a new id and retrains the classifier.
// Any id on rec is ignored. If the retrain fails the record stays stored
// and is returned together with an error wrapping training.ErrRetrain.
func (s *Service) Create(ctx context.Context, rec model.PerformanceRecord) (model.PerformanceRecord, error) {
	if err := rec.Validate(); err != nil {
		return model.PerformanceRecord{}, err
	}
	rec.ID = ""
	saved, err := s.store.Save(ctx, rec)
	if err != nil {
		return model.PerformanceRecord{}, fmt.Errorf("save record: %w", err)
	}
	metrics.RecordMutation("create")
	s.logger.Debug(ctx, "record created", logger.String("id", saved.ID))

	_, err = s.retrainAfterWrite(ctx, training.TriggerCreate)
	return saved, err
}

// Update replaces the record with id and retrains the classifier.
// Unknown ids, including ids deleted concurrently, return
// repository.ErrNotFound without retraining.
func (s *Service) Update(ctx context.Context, id string, rec model.PerformanceRecord) (model.PerformanceRecord, error) {
	if err := rec.Validate(); err != nil {
		return model.PerformanceRecord{}, err
	}
	rec.ID = id
	saved, err := s.store.Save(ctx, rec)
	if err != nil {
		return model.PerformanceRecord{}, fmt.Errorf("save record: %w", err)
	}
	metrics.RecordMutation("update")
	s.logger.Debug(ctx, "record updated", logger.String("id", id))

	_, err = s.retrainAfterWrite(ctx, training.TriggerUpdate)
	return saved, err
}

// Delete removes the record with id and retrains the classifier.
// Unknown ids return repository.ErrNotFound without retraining. Deleting
// the last record uninstalls the classifier.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	metrics.RecordMutation("delete")
	s.logger.Debug(ctx, "record deleted", logger.String("id", id))

	_, err := s.retrainAfterWrite(ctx, training.TriggerDelete)
	return err
}

// retrainAfterWrite retrains once a write is stored. The retrain outlives
// the caller's cancellation so the installed model never lags a kept write.
func (s *Service) retrainAfterWrite(ctx context.Context, trigger string) (types.TrainResult, error) {
	return s.orchestrator.Retrain(context.WithoutCancel(ctx), trigger)
}

// Predict returns the classifier verdict for v.
func (s *Service) Predict(ctx context.Context, v features.Vector) (bool, error) {
	ok, err := s.holder.Predict(v)
	if err != nil {
		return false, err
	}
	metrics.RecordPrediction(ok)
	return ok, nil
}

// Train retrains the classifier on the full dataset.
func (s *Service) Train(ctx context.Context) (types.TrainResult, error) {
	return s.orchestrator.Retrain(ctx, training.TriggerManual)
}

// TopPlayers returns up to n records by descending score. Ties keep
// creation order.
func (s *Service) TopPlayers(ctx context.Context, n int) ([]model.PerformanceRecord, error) {
	if n > s.maxTopLimit {
		n = s.maxTopLimit
	}
	records, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return scoring.Top(records, n), nil
}

// Compare picks the more suitable of two players by classifier verdict.
// A missing id yields VerdictNotFound without consulting the classifier.
func (s *Service) Compare(ctx context.Context, idA, idB string) (types.Comparison, error) {
	a, errA := s.store.FindByID(ctx, idA)
	b, errB := s.store.FindByID(ctx, idB)
	for _, err := range []error{errA, errB} {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return types.Comparison{}, err
		}
	}
	if errA != nil || errB != nil {
		metrics.RecordComparison(string(types.VerdictNotFound))
		return types.NewComparison(types.VerdictNotFound, ""), nil
	}

	m, ok := s.holder.Load()
	if !ok {
		return types.Comparison{}, classifier.ErrUntrained
	}
	// Both verdicts come from the same model even if a retrain lands
	// between them.
	pa := m.Predict(features.Build(a))
	pb := m.Predict(features.Build(b))

	var c types.Comparison
	switch {
	case pa && !pb:
		c = types.NewComparison(types.VerdictA, a.ID)
	case pb && !pa:
		c = types.NewComparison(types.VerdictB, b.ID)
	default:
		c = types.NewComparison(types.VerdictTie, "")
	}
	metrics.RecordComparison(string(c.Verdict))
	return c, nil
}

// AverageStats returns the mean of each metric. An empty dataset yields an
// empty map.
func (s *Service) AverageStats(ctx context.Context) (map[string]float64, error) {
	records, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	if len(records) == 0 {
		return out, nil
	}
	var sum [features.Size]float64
	for _, r := range records {
		v := features.Build(r)
		for i := range sum {
			sum[i] += v[i]
		}
	}
	n := float64(len(records))
	keys := [features.Size]string{StatAverage, StatStrikeRate, StatBowlingAverage, StatEconomyRate, StatFielding}
	for i, k := range keys {
		out[k] = sum[i] / n
	}
	return out, nil
}

// Filter returns the records meeting every threshold in c, in creation order.
func (s *Service) Filter(ctx context.Context, c model.Criteria) ([]model.PerformanceRecord, error) {
	records, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.PerformanceRecord, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Trend returns the synthetic three-point trend of a player's score.
// An unknown id yields a map with the single key TrendError set to -1.
func (s *Service) Trend(ctx context.Context, id string) (map[string]float64, error) {
	rec, err := s.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return map[string]float64{TrendError: -1}, nil
	}
	if err != nil {
		return nil, err
	}
	return scoring.Trend(rec), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"maxTopLimit": s.maxTopLimit,
	}

	if s.started {
		total := s.store.Count(context.Background())
		stats["totalRecords"] = total
		stats["trained"] = s.holder.Trained()
		stats["modelGeneration"] = s.holder.Generation()

		metrics.UpdateTotalRecords(total)
	}

	return stats
}
