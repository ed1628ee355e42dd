package seeder

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/wicket/pkg/logger"
)

// Rotation limits for the seeder log file.
const (
	logFileMaxSizeMB = 10
	logFileBackups   = 2
)

// SetupLogging initializes the logger, writing to stdout and, when logFile
// is set, also to that file. The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)
	if logFile != "" {
		file := logger.RotatingFile(logFile, logFileMaxSizeMB, logFileBackups)
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	logger.SetOutput(out)
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}
