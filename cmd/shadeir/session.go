package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shadeir/internal/config"
	"shadeir/internal/observ"
	"shadeir/internal/trace"
)

// session holds the settings resolved once per invocation.
type session struct {
	cfg     config.Config
	color   bool
	quiet   bool
	timings bool
	timer   *observ.Timer
	tracer  trace.Tracer
	cleanup func()
}

var current *session

func prepareSession(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}

	s := &session{cfg: cfg, timer: observ.NewTimer()}
	if s.quiet, err = cmd.Flags().GetBool("quiet"); err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = cmd.Flags().GetBool("timings"); err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	s.color = resolveColor(cfg.ColorMode(), os.Stdout)
	color.NoColor = !s.color

	s.tracer, s.cleanup, err = setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	s.timer.Attach(s.tracer, 0)
	current = s
	return nil
}

func closeSession() {
	if current == nil {
		return
	}
	if current.timings {
		printTimings(os.Stderr, current.timer)
	}
	if current.cleanup != nil {
		current.cleanup()
	}
	current = nil
}

// loadConfig reads --config, or the nearest shadeir.toml above the working
// directory. No file means defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		found, ok, err := config.Find(".")
		if err != nil {
			return config.Config{}, err
		}
		if !ok {
			return config.Default(), nil
		}
		path = found
	} else if _, err := os.Stat(path); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return config.Load(path)
}

// applyFlags overrides cfg with the flags given explicitly on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	strFlags := map[string]*string{
		"color":       &cfg.Output.Color,
		"trace":       &cfg.Trace.Output,
		"trace-level": &cfg.Trace.Level,
		"trace-mode":  &cfg.Trace.Mode,
	}
	for name, dst := range strFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
	}
	intFlags := map[string]*int{
		"max-diagnostics": &cfg.Output.MaxDiagnostics,
		"jobs":            &cfg.Lower.Jobs,
		"trace-ring-size": &cfg.Trace.RingSize,
	}
	for name, dst := range intFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
	}
	// --trace alone turns tracing on at phase level.
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
	}
	return cfg.Check()
}

func resolveColor(mode config.ColorMode, f *os.File) bool {
	switch mode {
	case config.ColorOn:
		return true
	case config.ColorOff:
		return false
	}
	return os.Getenv("NO_COLOR") == "" && isTerminal(f)
}

func (s *session) jobs() int {
	if s.cfg.Lower.Jobs > 0 {
		return s.cfg.Lower.Jobs
	}
	return runtime.GOMAXPROCS(0)
}
