package logger

// NoopLogger is a logger that discards all messages. Used in tests.
type NoopLogger struct{}

// NewNoop creates a new no-op logger.
func NewNoop() Interface {
	return &NoopLogger{}
}

// Debug does nothing.
func (l *NoopLogger) Debug(msg string, fields ...any) {}

// Info does nothing.
func (l *NoopLogger) Info(msg string, fields ...any) {}

// Warn does nothing.
func (l *NoopLogger) Warn(msg string, fields ...any) {}

// Error does nothing.
func (l *NoopLogger) Error(msg string, fields ...any) {}

// With returns the same no-op logger.
func (l *NoopLogger) With(fields ...any) Interface { return l }
