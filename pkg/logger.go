package pkg

import "go.uber.org/zap"

// Logger is the subset of *zap.Logger the economy depends on. Debug carries
// per-commit tracing that production config drops.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
}
