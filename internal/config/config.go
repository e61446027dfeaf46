// Package config loads shadeir.toml, the settings file of the shadeir CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"shadeir/internal/lower"
	"shadeir/internal/trace"
)

// FileName is the settings file looked up by Find.
const FileName = "shadeir.toml"

type Config struct {
	Trace  TraceConfig  `toml:"trace"`
	Output OutputConfig `toml:"output"`
	Lower  LowerConfig  `toml:"lower"`
}

type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize int    `toml:"ring_size"`
}

type OutputConfig struct {
	Color          string `toml:"color"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

type LowerConfig struct {
	Validate bool `toml:"validate"`
	// Jobs bounds the files processed at once; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
}

// ColorMode selects when diagnostics are coloured.
type ColorMode uint8

const (
	ColorAuto ColorMode = iota
	ColorOn
	ColorOff
)

func (m ColorMode) String() string {
	switch m {
	case ColorOn:
		return "on"
	case ColorOff:
		return "off"
	default:
		return "auto"
	}
}

// ParseColorMode accepts auto, on and off.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "on", "always":
		return ColorOn, nil
	case "off", "never":
		return ColorOff, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode: %q (expected: auto|on|off)", s)
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Trace: TraceConfig{
			Level:    "off",
			Mode:     "stream",
			Output:   "-",
			RingSize: 4096,
		},
		Output: OutputConfig{
			Color:          "auto",
			MaxDiagnostics: 100,
		},
		Lower: LowerConfig{
			Validate: true,
		},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads path. A missing file yields Default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode parses settings from r on top of Default. name prefixes errors.
func Decode(r io.Reader, name string) (Config, error) {
	cfg := Default()
	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", name, strings.Join(keys, ", "))
	}
	if err := cfg.Check(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

// Check validates enum strings and bounds.
func (c Config) Check() error {
	var errs []error
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("[trace].level: %w", err))
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		errs = append(errs, fmt.Errorf("[trace].mode: %w", err))
	}
	if c.Trace.RingSize < 0 {
		errs = append(errs, fmt.Errorf("[trace].ring_size: must not be negative, got %d", c.Trace.RingSize))
	}
	if _, err := ParseColorMode(c.Output.Color); err != nil {
		errs = append(errs, fmt.Errorf("[output].color: %w", err))
	}
	if c.Output.MaxDiagnostics < 0 {
		errs = append(errs, fmt.Errorf("[output].max_diagnostics: must not be negative, got %d", c.Output.MaxDiagnostics))
	}
	if c.Lower.Jobs < 0 {
		errs = append(errs, fmt.Errorf("[lower].jobs: must not be negative, got %d", c.Lower.Jobs))
	}
	return errors.Join(errs...)
}

// TraceConfig converts the [trace] table for trace.New.
func (c Config) TraceConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, fmt.Errorf("[trace].level: %w", err)
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, fmt.Errorf("[trace].mode: %w", err)
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
	}, nil
}

// ColorMode returns the parsed [output].color.
func (c Config) ColorMode() ColorMode {
	m, _ := ParseColorMode(c.Output.Color)
	return m
}

// LowerOptions returns the options passed to lower.BuildWithOptions.
func (c Config) LowerOptions() lower.Options {
	return lower.Options{
		Validate:       c.Lower.Validate,
		MaxDiagnostics: c.Output.MaxDiagnostics,
	}
}
