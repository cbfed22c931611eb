// Package logger provides slog handlers for the CLI and server: a colored
// text handler for terminals and a JSON fallback for log shippers.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// ColorHandler is a slog.Handler that writes human-readable lines with
// ANSI colors: errors red, warnings yellow, debug gray. Persistence and
// ingestion messages are highlighted green so the write path stands out.
type ColorHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	out    io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewColorHandler creates a ColorHandler writing to out. opts may be nil.
func NewColorHandler(out io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	h := &ColorHandler{out: out, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled implements slog.Handler.
func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle implements slog.Handler.
func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(r.Time.Format("15:04:05"))
	b.WriteByte(' ')

	color := levelColor(r.Level)
	if color == "" && highlighted(r.Message) {
		color = colorGreen
	}
	if color != "" {
		b.WriteString(color)
	}
	b.WriteString(fmt.Sprintf("%-5s", r.Level.String()))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	prefix := strings.Join(h.groups, ".")
	for _, attr := range h.attrs {
		writeAttr(&b, prefix, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, prefix, attr)
		return true
	})

	if color != "" {
		b.WriteString(colorReset)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level < slog.LevelInfo:
		return colorGray
	default:
		return ""
	}
}

func highlighted(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "persist") || strings.Contains(lower, "ingest")
}

func writeAttr(b *strings.Builder, prefix string, attr slog.Attr) {
	b.WriteByte(' ')
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte('.')
	}
	b.WriteString(attr.Key)
	b.WriteByte('=')
	b.WriteString(attr.Value.String())
}

// NewDefaultLogger returns a colored stderr logger at the given level.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return slog.New(NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// New builds a logger from textual level and format settings, as found in
// configuration. format "json" selects slog's JSON handler; anything else
// gets the colored text handler.
func New(level, format string, out io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(NewColorHandler(out, opts))
}

// ParseLevel maps a level name onto a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
