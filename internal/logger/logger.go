// Package logger provides structured logging for the Esperanto viewer
package logger

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with viewer-specific functionality
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// NewLogger creates a new structured logger. When no output is
// configured and stdout is a terminal, console formatting is used
// even without Pretty set.
func NewLogger(cfg Config) *Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	pretty := cfg.Pretty
	if output == nil {
		output = os.Stdout
		if isatty.IsTerminal(os.Stdout.Fd()) {
			pretty = true
		}
	}

	if pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		With().
		Timestamp().
		Str("service", "esperanto").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// GetZerolog returns the underlying zerolog logger
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

// Info logs an info message
func (l *Logger) Info(msg string) *zerolog.Event {
	return l.zlog.Info().Str("msg", msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) *zerolog.Event {
	return l.zlog.Debug().Str("msg", msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) *zerolog.Event {
	return l.zlog.Warn().Str("msg", msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) *zerolog.Event {
	return l.zlog.Error().Str("msg", msg)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string) *zerolog.Event {
	return l.zlog.Fatal().Str("msg", msg)
}

// HTTPLogger returns a logger scoped to HTTP handling
func (l *Logger) HTTPLogger(route string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "http").
			Str("route", route).
			Logger(),
	}
}

// DatasetLogger returns a logger scoped to dataset operations
func (l *Logger) DatasetLogger(operation string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "dataset").
			Str("operation", operation).
			Logger(),
	}
}

// LogHTTPRequest logs a completed HTTP request with structured fields
func (l *Logger) LogHTTPRequest(method, path, requestID string, status int, duration time.Duration) {
	scoped := l.HTTPLogger(path).zlog
	event := scoped.Info()
	if status >= 500 {
		event = scoped.Error()
	}

	event.
		Str("method", method).
		Str("request_id", requestID).
		Int("status", status).
		Dur("duration_ms", duration).
		Msg("HTTP request completed")
}

// LogDatasetLoad logs a dataset load attempt
func (l *Logger) LogDatasetLoad(source string, records int, duration time.Duration, err error) {
	scoped := l.DatasetLogger("load").zlog
	event := scoped.Info().
		Str("source", source).
		Int("records", records).
		Dur("duration_ms", duration)

	if err != nil {
		event = scoped.Error().
			Str("source", source).
			Dur("duration_ms", duration).
			Err(err)
	}

	event.Msg("Dataset load completed")
}

// LogServerStart logs server startup
func (l *Logger) LogServerStart(addr, dataSource string) {
	l.zlog.Info().
		Str("event", "server_start").
		Str("addr", addr).
		Str("data_source", dataSource).
		Msg("Esperanto viewer starting")
}

// LogServerReady logs when the server is ready
func (l *Logger) LogServerReady(addr string, records int) {
	l.zlog.Info().
		Str("event", "server_ready").
		Str("addr", addr).
		Int("records", records).
		Msg("Esperanto viewer ready to accept connections")
}

// LogServerShutdown logs server shutdown
func (l *Logger) LogServerShutdown() {
	l.zlog.Info().
		Str("event", "server_shutdown").
		Msg("Esperanto viewer shutting down")
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg Config) {
	globalLogger = NewLogger(cfg)
	log.Logger = *globalLogger.GetZerolog()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		InitGlobalLogger(Config{Level: "info"})
	}
	return globalLogger
}
