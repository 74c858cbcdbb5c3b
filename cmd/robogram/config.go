package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/chazu/robogram/pkg/kernel/sdfx"
)

const defaultConfigFile = "robogram.yaml"

// Config is the run config read from robogram.yaml. Command line flags
// override individual fields.
type Config struct {
	// Grammars lists grammar files or doublestar patterns such as
	// "grammars/**/*.dot".
	Grammars []string `yaml:"grammars"`
	// Start names the graph derivations begin from.
	Start string `yaml:"start"`
	// Rules is the default rule sequence, as accepted by
	// grammar.ParseRuleSequence.
	Rules     string `yaml:"rules"`
	MeshCells int    `yaml:"mesh_cells"`
	LogLevel  string `yaml:"log_level"`
}

func defaultConfig() *Config {
	return &Config{
		MeshCells: sdfx.DefaultMeshCells,
		LogLevel:  "info",
	}
}

// loadConfig reads the config at path on top of the defaults. A missing
// file is only an error when the path was given explicitly.
func loadConfig(path string, explicit bool) (*Config, error) {
	c := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return c, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

// override applies the flags the user set.
func (c *Config) override(flags *pflag.FlagSet) {
	if flags.Changed("grammar") {
		c.Grammars = grammarFlags
	}
	if flags.Changed("start") {
		c.Start = startFlag
	}
	if flags.Changed("rules") {
		c.Rules = rulesFlag
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevelFlag
	}
	if flags.Changed("cells") {
		c.MeshCells = meshCells
	}
}

func (c *Config) validate() error {
	if c.MeshCells < 8 {
		return fmt.Errorf("config: mesh_cells must be at least 8, got %d", c.MeshCells)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", s, err)
	}
	return level, nil
}

// newLogger returns a text logger writing to w at the named level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	l, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}
