package logging

import (
	"context"
	"log/slog"
)

type teeHandler struct {
	handlers []slog.Handler
}

// TeeLogger duplicates log output from base into the provided handlers.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base != nil {
		handlers = append([]slog.Handler{base.Handler()}, handlers...)
	}
	return slog.New(newTeeHandler(handlers...))
}

func newTeeHandler(handlers ...slog.Handler) slog.Handler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopHandler{}
	case 1:
		return filtered[0]
	default:
		return &teeHandler{handlers: filtered}
	}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}

// StatusFunc receives the level and message of each record at or above the
// status handler's level.
type StatusFunc func(level slog.Level, msg string)

type statusHandler struct {
	level slog.Level
	fn    StatusFunc
}

// NewStatusHandler returns a handler that forwards messages to fn. Attributes
// are dropped; the viewer only shows the message.
func NewStatusHandler(level slog.Level, fn StatusFunc) slog.Handler {
	if fn == nil {
		return NoopHandler{}
	}
	return statusHandler{level: level, fn: fn}
}

func (h statusHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h statusHandler) Handle(_ context.Context, record slog.Record) error {
	h.fn(record.Level, record.Message)
	return nil
}

func (h statusHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h statusHandler) WithGroup(string) slog.Handler { return h }
