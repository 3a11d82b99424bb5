// Package config holds the settings of the goff command line tool.
//
// It does no I/O. Loading from files, environment and flags is done by
// internal/ioconfig.
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// Environment variables use the GOFF_ prefix, with underscores for
// nesting:
//
//	GOFF_MIXING_RULE=geometric
//	GOFF_DIHEDRAL_FORM=RB
//	GOFF_LOG_LEVEL=debug
package config

import (
	"fmt"
	"slices"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
)

// Valid values of the enumerated settings.
var (
	DihedralForms = []string{"charmmfsw", "RB"}
	Backends      = []string{"memory", "sqlite"}
	LogLevels     = []string{"debug", "info", "warn", "error"}
	LogFormats    = []string{"console", "json"}
)

// Config is the complete goff configuration.
type Config struct {
	// MixingRule replaces the mixing rule read from the input files.
	// Empty keeps the rule of the input.
	MixingRule string `mapstructure:"mixing_rule" yaml:"mixing_rule"`

	// DihedralForm is the form proper dihedrals are written in GROMACS
	// topologies: "charmmfsw" (function 9) or "RB" (function 3).
	DihedralForm string `mapstructure:"dihedral_form" yaml:"dihedral_form"`

	// Backend stores the parameter tables in memory or in an SQLite file.
	Backend string `mapstructure:"backend" yaml:"backend"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig sets up the logger.
type LogConfig struct {
	// Level of logging: "debug", "info", "warn" or "error".
	Level string `mapstructure:"level" yaml:"level"`
	// Format is "console" (human readable) or "json".
	Format string `mapstructure:"format" yaml:"format"`
}

// New returns a Config with default values, which is always valid.
func New() *Config {
	return &Config{
		DihedralForm: "charmmfsw",
		Backend:      "memory",
		SQLitePath:   "goff.db",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func checkEnum(name, v string, valid []string) error {
	if !slices.Contains(valid, v) {
		return fmt.Errorf("%w: %s %q not valid, use one of %v", goff.ErrValue, name, v, valid)
	}
	return nil
}

// Validate checks every field, as needed for a Config filled from a file
// or the environment rather than through Options.
func (c *Config) Validate() error {
	if c.MixingRule != "" {
		if err := metadata.CheckMixingRule(c.MixingRule); err != nil {
			return fmt.Errorf("mixing_rule: %w", err)
		}
	}
	checks := []struct {
		name, v string
		valid   []string
	}{
		{"dihedral_form", c.DihedralForm, DihedralForms},
		{"backend", c.Backend, Backends},
		{"log.level", c.Log.Level, LogLevels},
		{"log.format", c.Log.Format, LogFormats},
	}
	for _, ch := range checks {
		if err := checkEnum(ch.name, ch.v, ch.valid); err != nil {
			return err
		}
	}
	if c.Backend == "sqlite" && c.SQLitePath == "" {
		return fmt.Errorf("%w: the sqlite backend needs sqlite_path", goff.ErrValue)
	}
	return nil
}

// MergeWithDefaults fills the empty fields with their default values.
func (c *Config) MergeWithDefaults() {
	d := New()
	if c.DihedralForm == "" {
		c.DihedralForm = d.DihedralForm
	}
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.SQLitePath == "" {
		c.SQLitePath = d.SQLitePath
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}
