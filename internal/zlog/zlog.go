// Package zlog builds the zerolog loggers used across the module.
package zlog

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// timeFormatOnce applies the process-wide timestamp format exactly
// once, no matter how many loggers are constructed.
var timeFormatOnce sync.Once

// New returns a timestamped JSON logger writing to stderr.
//
// Environment switches mirror the usual local-dev toggles:
// PRETTY=1 enables console output, DEBUG=1 lowers the level to debug.
// The default level is info.
func New() zerolog.Logger {
	timeFormatOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
	})

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)

	if os.Getenv("PRETTY") == "1" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if os.Getenv("DEBUG") == "1" {
		logger = logger.Level(zerolog.DebugLevel)
	}

	return logger
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() zerolog.Logger {
	return zerolog.New(io.Discard)
}
