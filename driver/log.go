// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards all records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var logger atomic.Pointer[slog.Logger]

func init() { logger.Store(slog.New(nopHandler{})) }

// SetLogger sets the logger used by driver and all
// backend packages.
// By default, nothing is logged. Passing nil restores
// the default.
//
// Levels in use:
//   - slog.LevelDebug: object creation and naming
//   - slog.LevelInfo: adapter and device lifecycle
//   - slog.LevelWarn: objects released on device teardown
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	logger.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger { return logger.Load() }

// LoggerFor returns cfg.Logger if set, and Logger otherwise.
// The result carries a "driver" attribute with the given
// driver name.
func LoggerFor(cfg *Config, name string) *slog.Logger {
	l := Logger()
	if cfg != nil && cfg.Logger != nil {
		l = cfg.Logger
	}
	return l.With("driver", name)
}
