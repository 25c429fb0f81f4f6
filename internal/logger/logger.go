package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging interface used throughout the application.
// args are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	SetLevel(level zapcore.Level)
	GetLevel() zapcore.Level
	EnableHTTPLogging()
	DisableHTTPLogging()
	IsHTTPLoggingEnabled() bool
}

// ZapLogger wraps a zap SugaredLogger to implement our Logger interface
type ZapLogger struct {
	logger      *zap.SugaredLogger
	level       zap.AtomicLevel
	httpLogging atomic.Bool
}

// New creates a new ZapLogger with default settings (info level)
func New() *ZapLogger {
	return NewWithLevel(zapcore.InfoLevel)
}

// NewWithLevel creates a new ZapLogger writing JSON to stdout at the given level
func NewWithLevel(level zapcore.Level) *ZapLogger {
	return NewWithEncoding(level, "json")
}

// NewConsole creates a ZapLogger with the human-readable console encoder, for interactive terminals
func NewConsole(level zapcore.Level) *ZapLogger {
	return NewWithEncoding(level, "console")
}

// NewWithEncoding creates a ZapLogger writing to stdout with the given zap encoding ("json" or "console")
func NewWithEncoding(level zapcore.Level, encoding string) *ZapLogger {
	atomicLevel := zap.NewAtomicLevelAt(level)

	cfg := zap.NewProductionConfig()
	cfg.Encoding = encoding
	if encoding == "console" {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = atomicLevel
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		// the production config only fails on bad sinks; stdout is always available
		base = zap.NewNop()
	}
	return NewFromCore(base.Core(), atomicLevel)
}

// NewFromCore builds a ZapLogger around an existing core. Used by tests to capture output.
func NewFromCore(core zapcore.Core, level zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{
		logger: zap.New(core).Sugar(),
		level:  level,
	}
}

// ParseLevel converts a string log level to zapcore.Level.
// Accepts: debug, info, warn, error (case-insensitive).
// Returns zapcore.InfoLevel if the level is not recognized.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) Debug(msg string, args ...any) {
	l.logger.Debugw(msg, args...)
}

func (l *ZapLogger) Info(msg string, args ...any) {
	l.logger.Infow(msg, args...)
}

func (l *ZapLogger) Warn(msg string, args ...any) {
	l.logger.Warnw(msg, args...)
}

func (l *ZapLogger) Error(msg string, args ...any) {
	l.logger.Errorw(msg, args...)
}

// Sync flushes buffered log entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// SetLevel changes the logging level dynamically
func (l *ZapLogger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

// GetLevel returns the current logging level
func (l *ZapLogger) GetLevel() zapcore.Level {
	return l.level.Level()
}

// EnableHTTPLogging enables HTTP request logging
func (l *ZapLogger) EnableHTTPLogging() {
	l.httpLogging.Store(true)
}

// DisableHTTPLogging disables HTTP request logging
func (l *ZapLogger) DisableHTTPLogging() {
	l.httpLogging.Store(false)
}

// IsHTTPLoggingEnabled returns whether HTTP logging is enabled
func (l *ZapLogger) IsHTTPLoggingEnabled() bool {
	return l.httpLogging.Load()
}

// Nop returns a logger that discards everything
func Nop() *ZapLogger {
	return NewFromCore(zapcore.NewNopCore(), zap.NewAtomicLevelAt(zapcore.InfoLevel))
}
