// Package features maps performance records to the fixed-order numeric
// vector consumed by the classifier.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/wicket/internal/domain/model"
)

// Size is the number of features in a Vector.
const Size = 5

// Feature names in vector order. The classifier is trained and queried
// with this exact order.
const (
	Average        = "average"
	StrikeRate     = "strikeRate"
	BowlingAverage = "bowlingAverage"
	EconomyRate    = "economyRate"
	FieldingStats  = "fieldingStats"
)

var names = [Size]string{Average, StrikeRate, BowlingAverage, EconomyRate, FieldingStats}

// Sentinel validation errors.
var (
	ErrMissingMetric = errors.New("missing metric")
	ErrInvalidMetric = errors.New("invalid metric")
)

// Vector is (average, strikeRate, bowlingAverage, economyRate, fieldingStats).
type Vector [Size]float64

// Names returns the feature names in vector order.
func Names() [Size]string { return names }

// Build derives the feature vector of rec. The label is excluded.
func Build(rec model.PerformanceRecord) Vector {
	return Vector{
		rec.Average,
		rec.StrikeRate,
		rec.BowlingAverage,
		rec.EconomyRate,
		float64(rec.FieldingStats),
	}
}

// FromMetrics builds a vector from raw metrics keyed by feature name.
// Every feature must be present and finite.
func FromMetrics(m map[string]*float64) (Vector, error) {
	var v Vector
	for i, name := range names {
		p, ok := m[name]
		if !ok || p == nil {
			return Vector{}, fmt.Errorf("%w: %s", ErrMissingMetric, name)
		}
		if math.IsNaN(*p) || math.IsInf(*p, 0) {
			return Vector{}, fmt.Errorf("%w: %s", ErrInvalidMetric, name)
		}
		v[i] = *p
	}
	return v, nil
}
