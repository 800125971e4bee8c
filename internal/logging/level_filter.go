package logging

import (
	"context"
	"log/slog"
)

// LevelFilter wraps a slog.Handler and drops records below a minimum level.
// Used to keep the errors log at warn and above regardless of the main level.
type LevelFilter struct {
	handler  slog.Handler
	minLevel slog.Level
}

// NewLevelFilter creates a new level filter handler.
func NewLevelFilter(handler slog.Handler, minLevel slog.Level) *LevelFilter {
	return &LevelFilter{handler: handler, minLevel: minLevel}
}

func (h *LevelFilter) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.minLevel {
		return false
	}
	return h.handler.Enabled(ctx, level)
}

func (h *LevelFilter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.minLevel {
		return nil
	}
	return h.handler.Handle(ctx, r)
}

func (h *LevelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelFilter{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *LevelFilter) WithGroup(name string) slog.Handler {
	return &LevelFilter{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}
