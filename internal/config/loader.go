package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	envPrefix = "WICKET_"
	envFile   = "WICKET_CONFIG"
	envDotEnv = "WICKET_ENV_FILE"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if WICKET_CONFIG is set
//  3. env (prefix WICKET_), after loading WICKET_ENV_FILE into the process
//     environment when set. Variables already present are not overridden.
func Load(_ context.Context) (*Config, error) {
	base := New()

	if path := os.Getenv(envDotEnv); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	k := koanf.New(".")

	if path := os.Getenv(envFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like WICKET_MAX_TOP_LIMIT -> max_top_limit (flat keys).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "wicket_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field combinations that would fail at startup.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreBolt:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StoreBolt && strings.TrimSpace(c.DataPath) == "":
		return fmt.Errorf("%w: data_path is required for the bolt store", ErrInvalidConfig)
	case c.LogFile != "" && (c.LogMaxSizeMB < 1 || c.LogMaxBackups < 0):
		return fmt.Errorf("%w: log rotation needs a positive size and non-negative backups", ErrInvalidConfig)
	case c.MaxTopLimit < 1:
		return fmt.Errorf("%w: max_top_limit must be positive", ErrInvalidConfig)
	case c.TrainEpochs < 1:
		return fmt.Errorf("%w: train_epochs must be positive", ErrInvalidConfig)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning_rate must be positive", ErrInvalidConfig)
	case c.L2 < 0:
		return fmt.Errorf("%w: l2 must not be negative", ErrInvalidConfig)
	case c.DecisionThreshold <= 0 || c.DecisionThreshold >= 1:
		return fmt.Errorf("%w: decision_threshold must be within (0, 1)", ErrInvalidConfig)
	}
	return nil
}
