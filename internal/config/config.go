// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers a YAML file and WICKET_* environment variables on top.
// - Validation errors wrap ErrInvalidConfig; load errors wrap ErrLoadConfig.
package config

// Store backends.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, mirrors logs into a size-rotated file.
	LogFile       string `koanf:"log_file"`
	LogMaxSizeMB  int    `koanf:"log_max_size_mb"`
	LogMaxBackups int    `koanf:"log_max_backups"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the record backend: memory or bolt.
	Store string `koanf:"store"`

	// DataPath is the directory holding the bolt database file.
	DataPath string `koanf:"data_path"`

	// MaxTopLimit caps GET /api/performance/top/{count}.
	MaxTopLimit int `koanf:"max_top_limit"`

	// TrainEpochs, LearningRate and L2 tune the logistic classifier.
	TrainEpochs  int     `koanf:"train_epochs"`
	LearningRate float64 `koanf:"learning_rate"`
	L2           float64 `koanf:"l2"`

	// DecisionThreshold is the probability at or above which a player is suitable.
	DecisionThreshold float64 `koanf:"decision_threshold"`

	// RetrainOnStart trains once at startup when the store already holds records.
	RetrainOnStart bool `koanf:"retrain_on_start"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		LogMaxSizeMB:      100,
		LogMaxBackups:     3,
		Addr:              ":8080",
		Store:             StoreMemory,
		DataPath:          "data",
		MaxTopLimit:       1000,
		TrainEpochs:       500,
		LearningRate:      0.1,
		L2:                0.001,
		DecisionThreshold: 0.5,
		RetrainOnStart:    true,
	}
}
