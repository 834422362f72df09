// Package logging builds the structured logger shared by the server and the client.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pterm/pterm"
	"github.com/sanity-io/litter"
)

// New returns a slog logger printing through pterm at the given level
// ("debug", "info", "warn" or "error")
func New(level string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := pterm.DefaultLogger.WithLevel(lvl)
	return slog.New(pterm.NewSlogHandler(logger)), nil
}

// Discard returns a logger that drops everything, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) (pterm.LogLevel, error) {
	switch strings.ToLower(level) {
	case "trace":
		return pterm.LogLevelTrace, nil
	case "debug":
		return pterm.LogLevelDebug, nil
	case "info", "":
		return pterm.LogLevelInfo, nil
	case "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	}
	return pterm.LogLevelInfo, fmt.Errorf("unknown log level %q", level)
}

var dumper = litter.Options{Compact: true, StripPackageNames: true}

// Dump renders a value for debug logs
func Dump(v any) string {
	return dumper.Sdump(v)
}
