// Package corelog configures the structured logger shared by every
// core package. It wraps logrus the way the teacher's command layer
// wraps its logging setup: one process-wide logger, text output by
// default, switchable to JSON for machine consumption by the GUI host.
package corelog

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once   sync.Once
	logger *logrus.Logger
)

// Logger returns the process-wide logger, initializing it on first
// use with a plain-text formatter suitable for terminal output.
func Logger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	})
	return logger
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	Logger().SetOutput(w)
}

// SetJSON switches the logger to JSON output, for embedding inside a
// GUI host that wants to parse log lines as structured events.
func SetJSON(enabled bool) {
	if enabled {
		Logger().SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger().SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetVerbose raises the log level to Debug.
func SetVerbose(verbose bool) {
	if verbose {
		Logger().SetLevel(logrus.DebugLevel)
	} else {
		Logger().SetLevel(logrus.InfoLevel)
	}
}

// WithField is a convenience wrapper over Logger().WithField, used
// pervasively across the overlay builder and library store to attach
// structured context (mod id, wad name, ...) to a log line.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger().WithField(key, value)
}
