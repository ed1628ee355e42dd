package repository

import (
	"os"
	"time"
)

// Default BoltDB settings.
const (
	defaultBoltFileName = "wicket.db"
	defaultBoltFileMode = 0o600
	defaultBoltTimeout  = time.Second
	dataDirMode         = 0o750
)

// BoltOption applies a configuration option to the BoltStore.
type BoltOption func(*BoltStore)

// WithFileName sets the database file name inside the data directory.
func WithFileName(name string) BoltOption {
	return func(s *BoltStore) {
		if name != "" {
			s.fileName = name
		}
	}
}

// WithFileMode sets the permissions used when creating the database file.
func WithFileMode(mode os.FileMode) BoltOption {
	return func(s *BoltStore) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithOpenTimeout bounds how long Open waits for the file lock.
func WithOpenTimeout(timeout time.Duration) BoltOption {
	return func(s *BoltStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}
