// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRecord marks a record rejected by Validate.
var ErrInvalidRecord = errors.New("invalid performance record")

// PerformanceRecord is one player's performance line as stored.
// Label is ground-truth suitability used only as a training signal.
type PerformanceRecord struct {
	ID             string  `json:"id"`
	Average        float64 `json:"average"`
	StrikeRate     float64 `json:"strikeRate"`
	BowlingAverage float64 `json:"bowlingAverage"`
	EconomyRate    float64 `json:"economyRate"`
	FieldingStats  int     `json:"fieldingStats"`
	Label          int     `json:"label"` // 1 for suitable, 0 for not
}

// Criteria holds the lower bounds used by threshold filtering.
type Criteria struct {
	MinAverage    float64 `json:"minAverage"`
	MinStrikeRate float64 `json:"minStrikeRate"`
	MinFielding   int     `json:"minFielding"`
}

// Matches reports whether r meets every bound in c.
func (c Criteria) Matches(r PerformanceRecord) bool {
	return r.Average >= c.MinAverage &&
		r.StrikeRate >= c.MinStrikeRate &&
		r.FieldingStats >= c.MinFielding
}

// Validate rejects labels outside {0,1} and negative or non-finite metrics.
func (r PerformanceRecord) Validate() error {
	if r.Label != 0 && r.Label != 1 {
		return fmt.Errorf("%w: label must be 0 or 1, got %d", ErrInvalidRecord, r.Label)
	}
	metrics := []struct {
		name string
		v    float64
	}{
		{"average", r.Average},
		{"strikeRate", r.StrikeRate},
		{"bowlingAverage", r.BowlingAverage},
		{"economyRate", r.EconomyRate},
		{"fieldingStats", float64(r.FieldingStats)},
	}
	for _, m := range metrics {
		if math.IsNaN(m.v) || math.IsInf(m.v, 0) || m.v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidRecord, m.name)
		}
	}
	return nil
}
