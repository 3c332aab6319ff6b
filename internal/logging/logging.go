// Package logging constructs the structured logger used across the
// engine. The level comes from TASKMILL_LOG_LEVEL; library packages take
// a *zap.Logger rather than reaching for a global.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const levelEnvVar = "TASKMILL_LOG_LEVEL"

// New builds a production logger at the level configured through the
// environment. Falls back to a nop logger if construction fails.
func New() *zap.Logger {
	return NewAtLevel(levelFromEnv())
}

// NewAtLevel builds a production logger at an explicit level.
func NewAtLevel(level zapcore.Level) *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	logger, err := config.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func levelFromEnv() zapcore.Level {
	raw, _ := os.LookupEnv(levelEnvVar)
	switch strings.ToLower(raw) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warning", "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}
