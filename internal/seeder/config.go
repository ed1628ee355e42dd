package seeder

import (
	"time"

	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/types"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumPlayers  int           // Number of players to generate
	TopN        int           // Number of top players to fetch
	Comparisons int           // Number of pairwise comparisons to run
	Workers     int           // Number of concurrent workers
	Rate        float64       // Create requests per second across workers, 0 for unlimited
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated players
	Verbose     bool          // Enable verbose logging
}

// Player is a generated performance record before the service assigns an id.
type Player = model.PerformanceRecord

// Stats holds run statistics.
type Stats struct {
	RunID            string
	PlayersGenerated int
	PlayersCreated   int
	PlayersFailed    int
	RetrainFailures  int
	TopEntries       int
	Comparisons      int
	Verdicts         map[types.Verdict]int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
