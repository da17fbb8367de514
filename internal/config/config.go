// Package config loads stippling defaults and server settings from a TOML
// file and IMAGE_STIPPLE_* environment variables.
//
// Precedence, lowest first: built-in defaults, the TOML file, environment
// variables. Command-line flags and tool arguments override the result.
//
// Example file:
//
//	[stipple]
//	points = 4000
//	iterations = 60
//	mode = "lab"
//
//	[server]
//	cache_path = "/var/cache/image-stipple/results.db"
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ironsheep/image-stipple-mcp/internal/imaging"
	"github.com/ironsheep/image-stipple-mcp/internal/render"
	"github.com/ironsheep/image-stipple-mcp/internal/stipple"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "IMAGE_STIPPLE_"

// Config is the complete runtime configuration.
type Config struct {
	Stipple StippleConfig `toml:"stipple"`
	Server  ServerConfig  `toml:"server"`
}

// StippleConfig holds the defaults for a stipple request.
type StippleConfig struct {
	Points     int     `toml:"points"`
	MinRadius  float64 `toml:"min_radius"`
	MaxRadius  float64 `toml:"max_radius"`
	Iterations int     `toml:"iterations"`
	Seed       uint64  `toml:"seed"`
	Workers    int     `toml:"workers"`
	MaxSize    int     `toml:"max_size"`
	Mode       string  `toml:"mode"`
	Gamma      float64 `toml:"gamma"`
	Contrast   float64 `toml:"contrast"`
	Blur       float64 `toml:"blur"`
	Invert     bool    `toml:"invert"`
	Background string  `toml:"background"`
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	// CachePath is the SQLite result cache. Empty disables caching.
	CachePath string `toml:"cache_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Stipple: StippleConfig{
			Points:     2000,
			MinRadius:  2.0,
			MaxRadius:  8.0,
			Iterations: 100,
			Seed:       42,
			MaxSize:    1024,
			Mode:       imaging.ModeLuma,
			Background: "#ffffff",
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return Config{}, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"POINTS":     &c.Stipple.Points,
		"ITERATIONS": &c.Stipple.Iterations,
		"WORKERS":    &c.Stipple.Workers,
		"MAX_SIZE":   &c.Stipple.MaxSize,
	}
	floats := map[string]*float64{
		"MIN_RADIUS": &c.Stipple.MinRadius,
		"MAX_RADIUS": &c.Stipple.MaxRadius,
		"GAMMA":      &c.Stipple.Gamma,
		"CONTRAST":   &c.Stipple.Contrast,
		"BLUR":       &c.Stipple.Blur,
	}
	strs := map[string]*string{
		"MODE":       &c.Stipple.Mode,
		"BACKGROUND": &c.Stipple.Background,
		"CACHE_PATH": &c.Server.CachePath,
		"LOG_LEVEL":  &c.Server.LogLevel,
	}

	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, v, err)
			}
			*dst = n
		}
	}
	for name, dst := range floats {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, v, err)
			}
			*dst = f
		}
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		seed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sSEED=%q: %w", EnvPrefix, v, err)
		}
		c.Stipple.Seed = seed
	}
	if v, ok := lookup(EnvPrefix + "INVERT"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sINVERT=%q: %w", EnvPrefix, v, err)
		}
		c.Stipple.Invert = b
	}
	return nil
}

// Validate rejects values no request could run with.
func (c Config) Validate() error {
	s := c.Stipple
	if s.Points < 0 {
		return fmt.Errorf("stipple.points must be >= 0, got %d", s.Points)
	}
	if s.Iterations < 0 {
		return fmt.Errorf("stipple.iterations must be >= 0, got %d", s.Iterations)
	}
	if s.Workers < 0 {
		return fmt.Errorf("stipple.workers must be >= 0, got %d", s.Workers)
	}
	if err := s.FieldOptions().Validate(); err != nil {
		return fmt.Errorf("stipple: %w", err)
	}
	if err := s.RenderOptions().Validate(); err != nil {
		return fmt.Errorf("stipple: %w", err)
	}

	switch strings.ToLower(c.Server.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level must be debug, info, warn or error, got %q", c.Server.LogLevel)
	}
	return nil
}

// FieldOptions converts the image preparation settings.
func (s StippleConfig) FieldOptions() imaging.FieldOptions {
	return imaging.FieldOptions{
		MaxSize:  s.MaxSize,
		Mode:     s.Mode,
		Gamma:    s.Gamma,
		Contrast: s.Contrast,
		Blur:     s.Blur,
		Invert:   s.Invert,
	}
}

// RenderOptions converts the drawing settings.
func (s StippleConfig) RenderOptions() render.Options {
	return render.Options{
		MinRadius:  s.MinRadius,
		MaxRadius:  s.MaxRadius,
		Background: s.Background,
	}
}

// Params converts the engine settings.
func (s StippleConfig) Params() stipple.Params {
	return stipple.Params{
		Points:     s.Points,
		Seed:       s.Seed,
		Iterations: s.Iterations,
		Workers:    s.Workers,
	}
}
