// Package training keeps the installed classifier consistent with the
// stored dataset by retraining it from scratch on demand.
package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/wicket/internal/domain/classifier"
	"github.com/okian/wicket/internal/domain/features"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/types"
	"github.com/okian/wicket/pkg/logger"
	"github.com/okian/wicket/pkg/metrics"
)

// ErrRetrain wraps every retrain failure.
var ErrRetrain = errors.New("retrain failed")

// Retrain triggers.
const (
	TriggerManual  = "manual"
	TriggerCreate  = "create"
	TriggerUpdate  = "update"
	TriggerDelete  = "delete"
	TriggerStartup = "startup"
)

// Dataset reads the full current set of records.
type Dataset interface {
	FindAll(ctx context.Context) ([]model.PerformanceRecord, error)
}

// Orchestrator runs full-dataset retrains and installs the result.
//
// Retrains are serialized: each one reads the dataset, trains a fresh
// model and swaps it into the holder before the next may start. A failed
// retrain leaves the previously installed model in place. A retrain
// triggered by a write that finds the dataset empty uninstalls the model
// instead of failing; a manual retrain over an empty dataset fails.
type Orchestrator struct {
	mu      sync.Mutex
	dataset Dataset
	trainer classifier.Trainer
	holder  *classifier.Holder
	logger  logger.Logger
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an Orchestrator that installs models into holder.
func New(dataset Dataset, trainer classifier.Trainer, holder *classifier.Holder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dataset: dataset,
		trainer: trainer,
		holder:  holder,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Named("training")
	}
	return o
}

// Retrain trains on the entire dataset and installs the new model.
func (o *Orchestrator) Retrain(ctx context.Context, trigger string) (types.TrainResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	res, err := o.retrain(ctx, trigger)
	res.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		metrics.RecordRetrainFailure(trigger)
		metrics.RecordErrorLatency("training", "retrain_failed", float64(time.Since(start).Microseconds())/1000)
		o.logger.Error(ctx, "retrain failed",
			logger.String("trigger", trigger),
			logger.Int("samples", res.Samples),
			logger.Error(err),
		)
		return res, fmt.Errorf("%w: %w", ErrRetrain, err)
	}

	if res.Generation == 0 {
		o.logger.Info(ctx, "dataset empty, classifier uninstalled", logger.String("trigger", trigger))
		return res, nil
	}

	metrics.RecordRetrain(float64(time.Since(start).Microseconds())/1000, res.Samples, res.Generation)
	o.logger.Info(ctx, "classifier retrained",
		logger.String("trigger", trigger),
		logger.Int("samples", res.Samples),
		logger.Uint64("generation", res.Generation),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (o *Orchestrator) retrain(ctx context.Context, trigger string) (types.TrainResult, error) {
	records, err := o.dataset.FindAll(ctx)
	if err != nil {
		return types.TrainResult{}, fmt.Errorf("read dataset: %w", err)
	}
	if len(records) == 0 && isWrite(trigger) {
		o.holder.Reset()
		return types.TrainResult{}, nil
	}

	samples := Samples(records)
	res := types.TrainResult{Samples: len(samples)}

	m, err := o.trainer.Train(ctx, samples)
	if err != nil {
		return res, err
	}
	res.Generation = o.holder.Store(m)
	return res, nil
}

// isWrite reports whether trigger is a record mutation.
func isWrite(trigger string) bool {
	switch trigger {
	case TriggerCreate, TriggerUpdate, TriggerDelete:
		return true
	}
	return false
}

// Samples maps records to labelled training samples.
func Samples(records []model.PerformanceRecord) []classifier.Sample {
	out := make([]classifier.Sample, len(records))
	for i, r := range records {
		out[i] = classifier.Sample{Vector: features.Build(r), Label: r.Label}
	}
	return out
}
