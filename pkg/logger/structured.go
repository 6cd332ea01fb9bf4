package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var zlog = zerolog.Nop()

// InitStructured initializes the structured zerolog logger. Development
// environments get console output, everything else JSON. LOG_LEVEL overrides
// the default info level.
func InitStructured(env string) {
	var w io.Writer = os.Stdout
	if isDevEnv(env) {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zlog = zerolog.New(w).
		Level(ParseLevel(os.Getenv("LOG_LEVEL"))).
		With().
		Timestamp().
		Str("service", "leadform-backend").
		Str("env", env).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func isDevEnv(env string) bool {
	switch env {
	case "development", "dev", "local":
		return true
	}
	return false
}

// SetLogger replaces the global logger (used by tests to capture output)
func SetLogger(l zerolog.Logger) {
	zlog = l
}

// GetLogger returns the global zerolog logger
func GetLogger() *zerolog.Logger {
	return &zlog
}

// WithRequestID returns a logger with request_id field
func WithRequestID(requestID string) zerolog.Logger {
	return zlog.With().Str("request_id", requestID).Logger()
}

// WithDraftID returns a logger with draft_id field
func WithDraftID(draftID string) zerolog.Logger {
	return zlog.With().Str("draft_id", draftID).Logger()
}
