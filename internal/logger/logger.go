// Package logger wraps log/slog with a handler that writes every record to
// a log file and, at warning level and above (or for every record when
// verbose logging is enabled), echoes it to stderr as well.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is a slog.Handler that fans a record out to a log file and,
// conditionally, to stderr.
type Handler struct {
	out     io.Writer
	wrapped slog.Handler
	mu      *sync.Mutex
	verbose bool
	attrs   []slog.Attr
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.wrapped.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &Handler{out: h.out, wrapped: h.wrapped.WithAttrs(attrs), mu: h.mu, verbose: h.verbose, attrs: merged}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, wrapped: h.wrapped.WithGroup(name), mu: h.mu, verbose: h.verbose, attrs: h.attrs}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	for _, a := range h.attrs {
		parts = append(parts, a.Key+"="+a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})
	line := []byte(strings.Join(parts, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(line)
	}
	if h.verbose || r.Level >= slog.LevelWarn {
		_, werr := os.Stderr.Write(line)
		if err == nil {
			err = werr
		}
	}
	return err
}

// SetVerbose toggles whether every record (not just warnings and above)
// also goes to stderr.
func (h *Handler) SetVerbose(verbose bool) { h.verbose = verbose }

// New builds a Handler writing to file (nil disables the file sink) at the
// given minimum level.
func New(file io.Writer, level slog.Level, verbose bool) *Handler {
	return &Handler{
		out:     file,
		wrapped: slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level}),
		mu:      &sync.Mutex{},
		verbose: verbose,
	}
}

// Install opens logPath (if non-empty) and makes a Handler built around it
// the default slog logger for the process.
func Install(logPath string, level slog.Level, verbose bool) (*Handler, error) {
	var file *os.File
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		file = f
	}
	h := New(file, level, verbose)
	slog.SetDefault(slog.New(h))
	return h, nil
}
