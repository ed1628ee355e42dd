package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/wicket/internal/domain/features"
)

// Default training parameters.
const (
	defaultEpochs       = 500
	defaultLearningRate = 0.1
	defaultL2           = 0.001
	defaultThreshold    = 0.5
)

// LogisticOption configures a Logistic trainer.
type LogisticOption func(*Logistic)

// WithEpochs sets the number of full-batch gradient steps.
func WithEpochs(n int) LogisticOption {
	return func(l *Logistic) {
		if n > 0 {
			l.epochs = n
		}
	}
}

// WithLearningRate sets the gradient step size.
func WithLearningRate(rate float64) LogisticOption {
	return func(l *Logistic) {
		if rate > 0 {
			l.learningRate = rate
		}
	}
}

// WithL2 sets the weight decay coefficient.
func WithL2(lambda float64) LogisticOption {
	return func(l *Logistic) {
		if lambda >= 0 {
			l.l2 = lambda
		}
	}
}

// WithThreshold sets the probability above which a vector is suitable.
func WithThreshold(t float64) LogisticOption {
	return func(l *Logistic) {
		if t > 0 && t < 1 {
			l.threshold = t
		}
	}
}

// Logistic trains standardized logistic-regression models with full-batch
// gradient descent. Training is deterministic for a given dataset.
type Logistic struct {
	epochs       int
	learningRate float64
	l2           float64
	threshold    float64
}

// NewLogistic creates a Logistic trainer.
func NewLogistic(opts ...LogisticOption) *Logistic {
	l := &Logistic{
		epochs:       defaultEpochs,
		learningRate: defaultLearningRate,
		l2:           defaultL2,
		threshold:    defaultThreshold,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// logisticModel is an immutable trained model.
type logisticModel struct {
	mean      features.Vector
	scale     features.Vector
	weights   features.Vector
	bias      float64
	threshold float64
}

func (m *logisticModel) Predict(v features.Vector) bool {
	return m.probability(v) >= m.threshold
}

func (m *logisticModel) probability(v features.Vector) float64 {
	z := m.bias
	for i := range v {
		z += m.weights[i] * (v[i] - m.mean[i]) / m.scale[i]
	}
	return sigmoid(z)
}

// constantModel answers the same verdict for every vector. It is produced
// when the dataset holds a single class.
type constantModel bool

func (c constantModel) Predict(features.Vector) bool { return bool(c) }

// Train fits a new model over samples.
func (l *Logistic) Train(ctx context.Context, samples []Sample) (Model, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyDataset
	}
	positives := 0
	for i, s := range samples {
		if s.Label != 0 && s.Label != 1 {
			return nil, fmt.Errorf("%w: sample %d has label %d", ErrInvalidLabel, i, s.Label)
		}
		positives += s.Label
	}
	switch positives {
	case 0:
		return constantModel(false), nil
	case len(samples):
		return constantModel(true), nil
	}

	m := &logisticModel{threshold: l.threshold}
	m.mean, m.scale = standardize(samples)

	n := float64(len(samples))
	x := make([]features.Vector, len(samples))
	for i, s := range samples {
		for j := range s.Vector {
			x[i][j] = (s.Vector[j] - m.mean[j]) / m.scale[j]
		}
	}

	for epoch := 0; epoch < l.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training cancelled at epoch %d: %w", epoch, err)
		}
		var gradW features.Vector
		var gradB float64
		for i, s := range samples {
			z := m.bias
			for j := range x[i] {
				z += m.weights[j] * x[i][j]
			}
			diff := sigmoid(z) - float64(s.Label)
			for j := range x[i] {
				gradW[j] += diff * x[i][j]
			}
			gradB += diff
		}
		for j := range m.weights {
			m.weights[j] -= l.learningRate * (gradW[j]/n + l.l2*m.weights[j])
		}
		m.bias -= l.learningRate * gradB / n
	}
	return m, nil
}

// standardize returns per-feature mean and standard deviation. A feature
// with zero variance is given unit scale.
func standardize(samples []Sample) (mean, scale features.Vector) {
	n := float64(len(samples))
	for _, s := range samples {
		for j, v := range s.Vector {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, s := range samples {
		for j, v := range s.Vector {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return mean, scale
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
