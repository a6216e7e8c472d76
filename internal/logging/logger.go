// internal/logging/logger.go

// Package logging wraps a process-wide zerolog logger.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("table", name).Msg("snapshot selected")
//	logging.Ctx(ctx).Warn().Err(err).Msg("trend fetch failed")
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds logging configuration
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

type contextKey string

const requestIDKey contextKey = "request_id"

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	initLogger(Config{Level: "info", Format: "json"})
}

// Init configures the global logger. Safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	log = zerolog.New(output).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns a copy of the global logger
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With returns a child logger carrying a component field
func With(component string) zerolog.Logger {
	l := Logger()
	return l.With().Str("component", component).Logger()
}

func Debug() *zerolog.Event { l := Logger(); return l.Debug() }
func Info() *zerolog.Event  { l := Logger(); return l.Info() }
func Warn() *zerolog.Event  { l := Logger(); return l.Warn() }
func Error() *zerolog.Event { l := Logger(); return l.Error() }

// Ctx returns the global logger enriched with the request id found in ctx, if any
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if id := RequestIDFromContext(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}

// GenerateRequestID creates a new request id
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID stores a request id on ctx
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id stored on ctx, or ""
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
