package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewDiagnostic constructs a zerolog logger writing to w in the given level
// and format ("console" or "json").
func NewDiagnostic(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
	}

	var logger zerolog.Logger
	switch strings.ToLower(format) {
	case "json":
		logger = zerolog.New(w).With().Timestamp().Logger()
	case "console":
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    w != os.Stderr && w != os.Stdout,
		}).With().Timestamp().Logger()
	default:
		return zerolog.Logger{}, fmt.Errorf("unsupported log format %q", format)
	}

	return logger.Level(lvl), nil
}

// OpenDiagnosticFile opens .policydesk/policydesk.log inside dir for
// appending. The TUI owns the terminal, so diagnostics go here instead.
func OpenDiagnosticFile(dir string) (*os.File, error) {
	stateDir := filepath.Join(dir, ".policydesk")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create .policydesk directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(stateDir, "policydesk.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open diagnostic log: %w", err)
	}
	return f, nil
}
