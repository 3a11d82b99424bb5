package config

import (
	"testing"

	"github.com/rmera/goff"
	"github.com/stretchr/testify/assert"
)

func TestNewIsValid(t *testing.T) {
	c := New()
	assert.NoError(t, c.Validate())
	assert.Equal(t, "charmmfsw", c.DihedralForm)
	assert.Empty(t, c.MixingRule)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		bad   bool
		check func(*testing.T, *Config)
	}{
		{"mixing rule", OptMixingRule(" Geometric "), false, func(t *testing.T, c *Config) {
			assert.Equal(t, "geometric", c.MixingRule)
		}},
		{"bad mixing rule", OptMixingRule("average"), true, func(t *testing.T, c *Config) {
			assert.Empty(t, c.MixingRule)
		}},
		{"rb", OptDihedralForm("rb"), false, func(t *testing.T, c *Config) {
			assert.Equal(t, "RB", c.DihedralForm)
		}},
		{"bad dihedral form", OptDihedralForm("opls"), true, func(t *testing.T, c *Config) {
			assert.Equal(t, "charmmfsw", c.DihedralForm)
		}},
		{"backend", OptBackend("SQLite"), false, func(t *testing.T, c *Config) {
			assert.Equal(t, "sqlite", c.Backend)
		}},
		{"empty sqlite path", OptSQLitePath("  "), true, func(t *testing.T, c *Config) {
			assert.Equal(t, "goff.db", c.SQLitePath)
		}},
		{"log level", OptLogLevel("DEBUG"), false, func(t *testing.T, c *Config) {
			assert.Equal(t, "debug", c.Log.Level)
		}},
		{"bad log format", OptLogFormat("tint"), true, func(t *testing.T, c *Config) {
			assert.Equal(t, "console", c.Log.Format)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			err := c.Update(tt.opt)
			if tt.bad {
				assert.ErrorIs(t, err, goff.ErrValue)
			} else {
				assert.NoError(t, err)
			}
			tt.check(t, c)
			assert.NoError(t, c.Validate())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"mixing rule", func(c *Config) { c.MixingRule = "average" }},
		{"dihedral form", func(c *Config) { c.DihedralForm = "rb" }},
		{"backend", func(c *Config) { c.Backend = "postgres" }},
		{"sqlite path", func(c *Config) { c.Backend, c.SQLitePath = "sqlite", "" }},
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			tt.modify(c)
			assert.ErrorIs(t, c.Validate(), goff.ErrValue)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	c := &Config{MixingRule: "kong", Log: LogConfig{Level: "error"}}
	c.MergeWithDefaults()
	assert.Equal(t, "kong", c.MixingRule)
	assert.Equal(t, "error", c.Log.Level)
	assert.Equal(t, "console", c.Log.Format)
	assert.Equal(t, "memory", c.Backend)
	assert.NoError(t, c.Validate())
}
