package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
)

// Option is a function that modifies a Config. An Option with an invalid
// value returns an error and leaves the Config unchanged.
type Option func(*Config) error

func enumOption(field, s string, valid []string, set func(*Config, string)) Option {
	return func(c *Config) error {
		if err := checkEnum(field, s, valid); err != nil {
			return err
		}
		set(c, s)
		return nil
	}
}

// OptMixingRule sets the mixing rule that replaces the input's one.
func OptMixingRule(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) error {
		if err := metadata.CheckMixingRule(s); err != nil {
			return err
		}
		c.MixingRule = s
		return nil
	}
}

// OptDihedralForm sets the form of written dihedrals, "charmmfsw" or "RB".
func OptDihedralForm(s string) Option {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "rb") {
		s = "RB"
	}
	return enumOption("dihedral_form", s, DihedralForms, func(c *Config, s string) { c.DihedralForm = s })
}

// OptBackend sets the storage backend, "memory" or "sqlite".
func OptBackend(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return enumOption("backend", s, Backends, func(c *Config, s string) { c.Backend = s })
}

func OptSQLitePath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) error {
		if s == "" {
			return fmt.Errorf("%w: empty sqlite_path", goff.ErrValue)
		}
		c.SQLitePath = s
		return nil
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return enumOption("log.level", s, LogLevels, func(c *Config, s string) { c.Log.Level = s })
}

// OptLogFormat sets the log output format.
// Valid values: "console", "json".
func OptLogFormat(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return enumOption("log.format", s, LogFormats, func(c *Config, s string) { c.Log.Format = s })
}

// Update applies opts to the Config, in order. Every option is tried, and
// the errors of the rejected ones are returned together.
func (c *Config) Update(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		errs = append(errs, opt(c))
	}
	return errors.Join(errs...)
}
