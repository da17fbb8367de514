// Package cli implements the image-stipple-mcp command-line interface.
//
// The default command serves MCP over stdin and stdout. The render command
// stipples a single image to an SVG or JSON file, and the cache command
// inspects and prunes the SQLite result cache. The CLI is built using cobra
// and logs through charmbracelet/log to stderr, since stdout carries the MCP
// protocol.
//
// # Commands
//
//   - serve: Run the MCP server (default when no command is given)
//   - render: Stipple an image to SVG or JSON
//   - cache stats, cache prune: Inspect or trim the result cache
//
// # Configuration
//
// --config names a TOML file; IMAGE_STIPPLE_* environment variables override
// it. Render flags override both when set explicitly.
//
// # Logging
//
// The level comes from server.log_level (or IMAGE_STIPPLE_LOG_LEVEL);
// --verbose (-v) forces debug. Loggers are passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ironsheep/image-stipple-mcp/internal/config"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// logLevel resolves the configured level name, with verbose forcing debug.
// An empty name means info.
func logLevel(name string, verbose bool) (log.Level, error) {
	if verbose {
		return log.DebugLevel, nil
	}
	if name == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(name)
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Stippled 2000 dots (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

const (
	loggerKey ctxKey = iota
	configKey
)

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

func withConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// configFromContext returns the loaded configuration, or the built-in
// defaults when none is attached.
func configFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey).(config.Config); ok {
		return cfg
	}
	return config.Default()
}
