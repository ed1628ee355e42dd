// Package scoring computes the heuristic performance score used for ranking.
// It never consults the classifier, so rankings stay defined while the
// model is absent or stale.
package scoring

import (
	"sort"

	"github.com/okian/wicket/internal/domain/model"
)

// Fixed weights of the performance score.
const (
	averageWeight        = 0.4
	strikeRateWeight     = 0.2
	bowlingAverageWeight = 0.2
	economyRateWeight    = 0.1
	fieldingWeight       = 0.1

	// invertCeiling flips "lower is better" metrics before weighting.
	invertCeiling = 100
)

// Trend multipliers for the synthetic three-point ramp.
const (
	initialFactor = 0.8
	midFactor     = 0.9
)

// Trend period labels.
const (
	PeriodInitial = "Initial Score"
	PeriodMid     = "Mid Season"
	PeriodRecent  = "Recent"
)

// Score returns the weighted performance score of rec.
func Score(rec model.PerformanceRecord) float64 {
	return averageWeight*rec.Average +
		strikeRateWeight*rec.StrikeRate +
		bowlingAverageWeight*(invertCeiling-rec.BowlingAverage) +
		economyRateWeight*(invertCeiling-rec.EconomyRate) +
		fieldingWeight*float64(rec.FieldingStats)
}

// Top returns up to n records ordered by Score descending. Equal scores
// keep their input order. n <= 0 yields an empty slice.
func Top(records []model.PerformanceRecord, n int) []model.PerformanceRecord {
	if n <= 0 || len(records) == 0 {
		return []model.PerformanceRecord{}
	}

	type scored struct {
		rec   model.PerformanceRecord
		score float64
	}
	ranked := make([]scored, len(records))
	for i, r := range records {
		ranked[i] = scored{rec: r, score: Score(r)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]model.PerformanceRecord, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].rec
	}
	return out
}

// Trend projects a placeholder ramp at 80%, 90% and 100% of the current
// score. The data model has no temporal history to derive a real series.
func Trend(rec model.PerformanceRecord) map[string]float64 {
	s := Score(rec)
	return map[string]float64{
		PeriodInitial: s * initialFactor,
		PeriodMid:     s * midFactor,
		PeriodRecent:  s,
	}
}
