// Package logger provides the structured zap logger shared by the pools, the
// benchmark harness and the CLI.
package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	mu           sync.RWMutex
)

// contextKey is the type for context keys
type contextKey string

const (
	// RunIDKey is the context key for a benchmark run ID
	RunIDKey contextKey = "run_id"
	// VariantKey is the context key for the pool variant under test
	VariantKey contextKey = "variant"
	// ScenarioKey is the context key for the benchmark scenario
	ScenarioKey contextKey = "scenario"
)

// Config represents logger configuration
type Config struct {
	Level       string   `yaml:"level" json:"level"`
	Development bool     `yaml:"development" json:"development"`
	Encoding    string   `yaml:"encoding" json:"encoding"` // json or console
	OutputPaths []string `yaml:"output_paths" json:"output_paths"`
}

// DefaultConfig returns an info level JSON logger writing to stdout.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Encoding: "json",
	}
}

// Init builds a logger from cfg and installs it as the global logger.
// Unlike a sync.Once based setup it may be called again, e.g. after the CLI
// has parsed its flags.
func Init(cfg Config) error {
	l, err := newLogger(cfg)
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set installs l as the global logger.
func Set(l *zap.Logger) {
	mu.Lock()
	globalLogger = l
	mu.Unlock()
}

// newLogger creates a new zap logger
func newLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "json"
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.Development {
		logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return logger, nil
}

// Get returns the global logger, building a default one on first use.
func Get() *zap.Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		built, err := newLogger(DefaultConfig())
		if err != nil {
			// Fallback to basic logger
			built, _ = zap.NewProduction()
		}
		globalLogger = built
	}
	return globalLogger
}

// WithContext returns the global logger tagged with the context values
func WithContext(ctx context.Context) *zap.Logger {
	return Get().With(ContextFields(ctx)...)
}

// ContextFields returns the run, variant and scenario values in ctx as
// log fields
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field

	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		fields = append(fields, zap.String("run_id", runID))
	}

	if variant, ok := ctx.Value(VariantKey).(string); ok {
		fields = append(fields, zap.String("variant", variant))
	}

	if scenario, ok := ctx.Value(ScenarioKey).(string); ok {
		fields = append(fields, zap.String("scenario", scenario))
	}

	return fields
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l.Sync()
	}
	return nil
}
