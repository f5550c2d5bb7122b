package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger. Format is "json" for machine-readable
// output, anything else selects a colored console writer.
func New(level, format string) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLogLevel(level))

	if strings.ToLower(format) == "json" {
		return zerolog.New(os.Stdout).With().
			Timestamp().
			Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	}
	return zerolog.New(output).With().
		Timestamp().
		Logger()
}

// parseLogLevel parses string log level to zerolog level
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}
