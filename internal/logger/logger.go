// Package logger provides structured logging for the application.
package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Interface defines the logger contract used across the application.
type Interface interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	With(fields ...any) Interface
}

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Encoding is "console" or "json".
	Encoding string
	// Development enables colored, human-friendly output.
	Development bool
}

// Logger implements Interface on top of zap's sugared logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

var logLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// New creates a new logger from the given configuration.
func New(cfg Config) (Interface, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "console"
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
		}
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	level, ok := logLevels[cfg.Level]
	if !ok {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	zl, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &Logger{sugar: zl.Sugar()}, nil
}

// Debug logs a debug message with structured fields.
func (l *Logger) Debug(msg string, fields ...any) {
	l.sugar.Debugw(msg, fields...)
}

// Info logs an info message with structured fields.
func (l *Logger) Info(msg string, fields ...any) {
	l.sugar.Infow(msg, fields...)
}

// Warn logs a warning message with structured fields.
func (l *Logger) Warn(msg string, fields ...any) {
	l.sugar.Warnw(msg, fields...)
}

// Error logs an error message with structured fields.
func (l *Logger) Error(msg string, fields ...any) {
	l.sugar.Errorw(msg, fields...)
}

// With returns a logger with the given fields attached to every entry.
func (l *Logger) With(fields ...any) Interface {
	return &Logger{sugar: l.sugar.With(fields...)}
}
