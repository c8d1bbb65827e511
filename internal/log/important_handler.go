package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// LevelImportant sits between Info and Warn, so important lines are hidden
// on the console unless verbose output is requested but always reach the
// important log file.
const LevelImportant = slog.Level(2)

// importantLabel is how LevelImportant is rendered by the handlers built in
// this package.
const importantLabel = "IMPORTANT"

// ImportantHandler wraps an slog.Handler and appends the message of every
// LevelImportant record to a file.
type ImportantHandler struct {
	// handler receives every record it is enabled for.
	handler slog.Handler

	// sink is shared by handlers derived through WithAttrs and WithGroup.
	sink *importantSink
}

type importantSink struct {
	mu   sync.Mutex
	path string
}

// append opens the file for each line so concurrent test processes that
// share the file interleave whole lines.
func (s *importantSink) append(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open important log: %w", err)
	}
	if _, err := fmt.Fprintln(f, msg); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write important log: %w", err)
	}
	return f.Close()
}

// NewImportantHandler creates an ImportantHandler writing to path.
// If handler is nil, slog.Default().Handler() is used.
func NewImportantHandler(handler slog.Handler, path string) *ImportantHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &ImportantHandler{handler: handler, sink: &importantSink{path: path}}
}

// Enabled reports whether the handler handles records at the given level.
// Important records are always handled.
func (h *ImportantHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level == LevelImportant || h.handler.Enabled(ctx, level)
}

// Handle writes important records to the file, then forwards the record to
// the wrapped handler if it is enabled for it.
func (h *ImportantHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level == LevelImportant {
		if err := h.sink.append(r.Message); err != nil {
			return err
		}
	}
	if !h.handler.Enabled(ctx, r.Level) {
		return nil
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *ImportantHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ImportantHandler{handler: h.handler.WithAttrs(attrs), sink: h.sink}
}

// WithGroup returns a new handler with the given group name.
func (h *ImportantHandler) WithGroup(name string) slog.Handler {
	return &ImportantHandler{handler: h.handler.WithGroup(name), sink: h.sink}
}

// Important logs a formatted line at LevelImportant.
func Important(ctx context.Context, logger *slog.Logger, format string, args ...any) {
	logger.Log(ctx, LevelImportant, fmt.Sprintf(format, args...))
}

// NewLogger creates the application logger.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//   - jsonFormat: If true, emits JSON records instead of text
//   - importantPath: The important log file; empty disables it
func NewLogger(w io.Writer, verbose, jsonFormat bool, importantPath string) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: renderLevel,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if importantPath == "" {
		return slog.New(handler)
	}
	return slog.New(NewImportantHandler(handler, importantPath))
}

// renderLevel prints LevelImportant by name instead of "INFO+2".
func renderLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 || a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelImportant {
		a.Value = slog.StringValue(importantLabel)
	}
	return a
}
