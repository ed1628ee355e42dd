// Package classifier defines the trainable suitability classifier boundary
// and the guarded holder of the most recently trained model.
package classifier

import (
	"context"
	"errors"

	"github.com/okian/wicket/internal/domain/features"
)

// Sentinel errors for training and prediction.
var (
	ErrEmptyDataset = errors.New("cannot train on an empty dataset")
	ErrInvalidLabel = errors.New("label must be 0 or 1")
	ErrUntrained    = errors.New("classifier has not been trained")
)

// Sample is one labelled training example.
type Sample struct {
	Vector features.Vector
	Label  int
}

// Model is a trained verdict function. Implementations must be safe for
// concurrent use and must not change after Train returns them.
type Model interface {
	Predict(v features.Vector) bool
}

// Trainer builds a fresh Model from a full dataset.
type Trainer interface {
	// Train fits a new model, honoring ctx for cancellation.
	Train(ctx context.Context, samples []Sample) (Model, error)
}

// TrainerFunc adapts a function to the Trainer interface.
type TrainerFunc func(ctx context.Context, samples []Sample) (Model, error)

// Train calls f(ctx, samples).
func (f TrainerFunc) Train(ctx context.Context, samples []Sample) (Model, error) {
	return f(ctx, samples)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(v features.Vector) bool

// Predict calls f(v).
func (f ModelFunc) Predict(v features.Vector) bool { return f(v) }
