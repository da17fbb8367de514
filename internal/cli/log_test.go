package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ironsheep/image-stipple-mcp/internal/config"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
		{
			name:    "info at warn level",
			level:   log.WarnLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			if hasLog := buf.Len() > 0; hasLog != tt.wantLog {
				t.Errorf("logged = %v, want %v", hasLog, tt.wantLog)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		want    log.Level
		wantErr bool
	}{
		{"empty is info", "", false, log.InfoLevel, false},
		{"info", "info", false, log.InfoLevel, false},
		{"warn", "warn", false, log.WarnLevel, false},
		{"upper case", "ERROR", false, log.ErrorLevel, false},
		{"verbose wins", "error", true, log.DebugLevel, false},
		{"verbose with empty", "", true, log.DebugLevel, false},
		{"unknown", "chatty", false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := logLevel(tt.level, tt.verbose)
			if (err != nil) != tt.wantErr {
				t.Fatalf("logLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("logLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	p.start = p.start.Add(-1500 * time.Millisecond)
	p.done("Stippled 10 dots")

	out := buf.String()
	if !strings.Contains(out, "Stippled 10 dots (1.5") {
		t.Errorf("progress output %q should report the message and elapsed time", out)
	}
}

func TestLoggerContext(t *testing.T) {
	ctx := context.Background()

	if got := loggerFromContext(ctx); got != log.Default() {
		t.Error("empty context should yield the default logger")
	}

	logger := newLogger(&bytes.Buffer{}, log.InfoLevel)
	ctx = withLogger(ctx, logger)
	if got := loggerFromContext(ctx); got != logger {
		t.Error("loggerFromContext did not return the attached logger")
	}
}

func TestConfigContext(t *testing.T) {
	ctx := context.Background()

	if got := configFromContext(ctx); got != config.Default() {
		t.Errorf("empty context should yield defaults, got %+v", got)
	}

	cfg := config.Default()
	cfg.Stipple.Points = 17
	ctx = withConfig(ctx, cfg)
	if got := configFromContext(ctx); got.Stipple.Points != 17 {
		t.Errorf("configFromContext: points %d, want 17", got.Stipple.Points)
	}
}
