package internal

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global zerolog logger from config. Output goes
// to stderr (console-formatted) unless a log file is configured.
func SetupLogging(config *Config) error {
	level := parseLogLevel(config.LogLevel)
	if config.EnableDebug {
		level = zerolog.DebugLevel
	}
	if config.QuietMode {
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if config.LogFile != "" {
		file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return NewValidationError("log_file", "failed to open log file: "+err.Error())
		}
		output = file
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return nil
}

// parseLogLevel converts a string log level to a zerolog level.
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
	default:
		return zerolog.InfoLevel
	}
}
