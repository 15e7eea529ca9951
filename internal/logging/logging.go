// Package logging builds the zap loggers used across dicombids.
package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a development logger for the DEVELOPMENT environment and a
// production JSON logger otherwise. A logger that cannot be built falls back
// to a no-op logger.
func New(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	switch strings.ToUpper(strings.TrimSpace(env)) {
	case "DEVELOPMENT":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
