// Package logging builds the zap loggers shared by the CLI and the bot.
package logging

import "go.uber.org/zap"

// New returns a zap logger. When debug is true it uses the development
// config (human-readable, debug level); otherwise the production config
// (JSON, info level).
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewOrNop is New without the error: construction failures fall back to a
// no-op logger.
func NewOrNop(debug bool) *zap.Logger {
	logger, err := New(debug)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
