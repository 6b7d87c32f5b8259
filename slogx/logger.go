package slogx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var (
	ErrInvalidLevel = errors.New("invalid log level")
)

// Options control how [New] writes log records.
type Options struct {
	Level     slog.Leveler
	JSON      bool // JSON selects JSON output instead of text.
	AddSource bool
}

// NewHandler creates a text or JSON handler that writes to w, wrapped in a [DedupeHandler].
func NewHandler(w io.Writer, opts Options) slog.Handler {
	hopts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}
	var impl slog.Handler
	if opts.JSON {
		impl = slog.NewJSONHandler(w, hopts)
	} else {
		impl = slog.NewTextHandler(w, hopts)
	}
	return NewDedupeHandler(impl)
}

// New creates a logger that writes to w.
func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(NewHandler(w, opts))
}

// ParseLevel accepts the names debug, info, warn/warning and error, in any case.
// Offsets like "info+2" are accepted as well.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: '%s'", ErrInvalidLevel, s)
	}
	return level, nil
}

var _ slog.Handler = nopHandler{}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}
