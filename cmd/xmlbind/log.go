package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
)

// logConfig holds CLI flag values for logging, grounded on
// MacroPower-x's log.Config/RegisterFlags pattern but trimmed to the two
// flags this CLI actually exposes.
type logConfig struct {
	level  string
	format string
}

func newLogConfig() *logConfig {
	return &logConfig{level: "info", format: "text"}
}

func (c *logConfig) registerFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.level, "log-level", c.level, "log level: debug, info, warn, error")
	flags.StringVar(&c.format, "log-format", c.format, "log format: text, json")
}

func (c *logConfig) newHandler(w io.Writer) (slog.Handler, error) {
	level, err := parseLevel(c.level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.format) {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
