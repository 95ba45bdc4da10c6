// Package logging builds the zap loggers used across translation-sync.
package logging

import (
	"github.com/petert82/go-translation-sync/trans"
	"go.uber.org/zap"
)

// New returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Stats turns a sync's counters into log fields.
func Stats(s trans.Stats) []zap.Field {
	return []zap.Field{
		zap.Int("added", s.Added),
		zap.Int("updated", s.Updated),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("deactivated", s.Deactivated),
	}
}
