package logging

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// New returns a text logger writing to w at the given level, and a handler
// that remembers whether anything was logged at ERROR.
func New(w io.Writer, level slog.Leveler) (*slog.Logger, *ErrorHandler) {
	h := &ErrorHandler{
		Handler:  slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
		hadError: &atomic.Bool{},
	}
	return slog.New(h), h
}

type ErrorHandler struct {
	slog.Handler
	hadError *atomic.Bool
}

func (h *ErrorHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		h.hadError.Store(true)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ErrorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrorHandler{Handler: h.Handler.WithAttrs(attrs), hadError: h.hadError}
}

func (h *ErrorHandler) WithGroup(name string) slog.Handler {
	return &ErrorHandler{Handler: h.Handler.WithGroup(name), hadError: h.hadError}
}

// HadError reports whether an ERROR record was handled by h or any handler
// derived from it.
func (h *ErrorHandler) HadError() bool {
	return h.hadError.Load()
}

// ExitCode is 1 if an error was logged.
func (h *ErrorHandler) ExitCode() int {
	if h.HadError() {
		return 1
	}
	return 0
}
