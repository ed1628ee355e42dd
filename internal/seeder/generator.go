package seeder

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/okian/wicket/pkg/logger"
)

// randomFloatDivisor sets the resolution of getRandomFloat.
const randomFloatDivisor = 1000000

// profile describes a band of plausible player statistics.
type profile struct {
	name    string
	weight  int // relative frequency
	label   int
	average [2]float64
	strike  [2]float64
	bowling [2]float64
	economy [2]float64
	field   [2]int
}

// Profiles from rare elite all-rounders to out-of-form tail-enders.
var profiles = []profile{
	{name: "elite", weight: 1, label: 1, average: [2]float64{45, 65}, strike: [2]float64{130, 180}, bowling: [2]float64{15, 25}, economy: [2]float64{3.5, 5}, field: [2]int{12, 25}},
	{name: "strong", weight: 3, label: 1, average: [2]float64{35, 50}, strike: [2]float64{110, 145}, bowling: [2]float64{22, 32}, economy: [2]float64{4.5, 6}, field: [2]int{8, 16}},
	{name: "average", weight: 4, label: 0, average: [2]float64{20, 35}, strike: [2]float64{80, 115}, bowling: [2]float64{30, 42}, economy: [2]float64{5.5, 7.5}, field: [2]int{3, 10}},
	{name: "weak", weight: 2, label: 0, average: [2]float64{5, 20}, strike: [2]float64{50, 85}, bowling: [2]float64{40, 60}, economy: [2]float64{7, 10}, field: [2]int{0, 5}},
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// between returns a value in [r[0], r[1]) rounded to two decimals.
func between(r [2]float64) float64 {
	v := r[0] + getRandomFloat()*(r[1]-r[0])
	return math.Round(v*100) / 100
}

// pickProfile chooses a profile by weight.
func pickProfile() profile {
	total := 0
	for _, p := range profiles {
		total += p.weight
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(total)))
	pick := int(n.Int64())
	for _, p := range profiles {
		if pick < p.weight {
			return p
		}
		pick -= p.weight
	}
	return profiles[len(profiles)-1]
}

// generatePlayer draws one player from a random profile.
func generatePlayer() Player {
	p := pickProfile()
	span := p.field[1] - p.field[0] + 1
	f, _ := rand.Int(rand.Reader, big.NewInt(int64(span)))
	return Player{
		Average:        between(p.average),
		StrikeRate:     between(p.strike),
		BowlingAverage: between(p.bowling),
		EconomyRate:    between(p.economy),
		FieldingStats:  p.field[0] + int(f.Int64()),
		Label:          p.label,
	}
}

// generatePlayers creates config.NumPlayers players. Both labels are always
// present when at least two players are requested so the first retrain has
// two classes to separate.
func generatePlayers(ctx context.Context, config *Config, stats *Stats) ([]Player, error) {
	logger.Get().Info(ctx, "generating players", logger.Int("numPlayers", config.NumPlayers))

	players := make([]Player, config.NumPlayers)
	for i := range players {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during player generation: %w", err)
		}
		players[i] = generatePlayer()
	}
	if len(players) >= 2 {
		players[0].Label = 1
		players[1].Label = 0
	}

	stats.PlayersGenerated = len(players)
	logger.Get().Info(ctx, "generated players successfully", logger.Int("count", len(players)))
	return players, nil
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
