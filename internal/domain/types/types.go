// Package types contains common types used across the application
package types

import "fmt"

// Verdict is the outcome of a pairwise comparison.
type Verdict string

// Comparison verdicts.
const (
	VerdictA        Verdict = "A"
	VerdictB        Verdict = "B"
	VerdictTie      Verdict = "tie"
	VerdictNotFound Verdict = "not_found"
)

// Comparison messages.
const (
	MessageNotFound = "One or both player IDs not found."
	MessageTie      = "Both players are equally suitable based on AI prediction."
)

// Comparison is the result of comparing two players by classifier verdict.
type Comparison struct {
	Verdict Verdict `json:"verdict"`
	// Winner is the id of the more suitable player; empty on tie or not found.
	Winner  string `json:"winner,omitempty"`
	Message string `json:"message"`
}

// NewComparison builds a Comparison with its descriptive message.
func NewComparison(v Verdict, winner string) Comparison {
	c := Comparison{Verdict: v, Winner: winner}
	switch v {
	case VerdictA, VerdictB:
		c.Message = fmt.Sprintf("%s is predicted to be more suitable.", winner)
	case VerdictTie:
		c.Message = MessageTie
	default:
		c.Message = MessageNotFound
	}
	return c
}

// TrainResult describes one completed retrain.
type TrainResult struct {
	Samples    int    `json:"samples"`
	Generation uint64 `json:"generation"`
	DurationMs int64  `json:"duration_ms"`
}
