// Package logging builds the process-wide slog handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures the handler returned by NewHandler.
type Options struct {
	// Format is auto, text, or json. Auto picks text when Output is a terminal.
	Format string
	// Level is debug, info, warn, or error.
	Level string
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewHandler returns a colorized tint handler for terminals and a JSON handler otherwise.
func NewHandler(out io.Writer, opts Options) (slog.Handler, error) {
	level := slog.LevelInfo
	if opts.Level != "" {
		l, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	format := strings.ToLower(opts.Format)
	if format == "" || format == FormatAuto {
		format = FormatJSON
		if isTerminal(out) {
			format = FormatText
		}
	}

	switch format {
	case FormatText:
		return tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(out),
		}), nil
	case FormatJSON:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}

// Setup installs a handler writing to stderr as the default logger.
func Setup(opts Options) error {
	h, err := NewHandler(os.Stderr, opts)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
