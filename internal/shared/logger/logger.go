package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New initializes the base zerolog.Logger every component derives from.
// 'devMode' enables human-readable console logging and debug level.
func New(devMode bool) zerolog.Logger {
	var logger zerolog.Logger

	if devMode {
		// Human-readable, colorful output for local development
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(consoleWriter).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	} else {
		// Efficient JSON output for production
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	}

	return logger
}
