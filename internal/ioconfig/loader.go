// Package ioconfig loads the goff configuration from files, the
// environment and command line flags, and writes default config files.
package ioconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rmera/goff/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables read.
const EnvPrefix = "GOFF"

// LoadResult contains the loaded configuration and where it came from.
type LoadResult struct {
	Config     *config.Config
	SourcePath string // config file used, empty if none
	Source     string // "file", "defaults" or "defaults+env"
}

// Load reads configuration from a YAML file and the environment, and
// returns a validated Config. If configPath is empty, the default path
// (~/.config/goff/config.yaml) is used when it exists. An explicit path
// that does not exist is an error.
func Load(configPath string) (*LoadResult, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only finds keys viper already knows.
	d := config.New()
	v.SetDefault("mixing_rule", d.MixingRule)
	v.SetDefault("dihedral_form", d.DihedralForm)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("sqlite_path", d.SQLitePath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	path := configPath
	if path == "" {
		if def, err := GetDefaultConfigPath(); err == nil {
			if _, err := os.Stat(def); err == nil {
				path = def
			}
		}
	}
	read := false
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			read = true
		}
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.MergeWithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	res := &LoadResult{Config: &cfg, Source: "defaults"}
	switch {
	case read:
		res.Source = "file"
		res.SourcePath = v.ConfigFileUsed()
	case hasEnvVars():
		res.Source = "defaults+env"
	}
	return res, nil
}

func hasEnvVars() bool {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			return true
		}
	}
	return false
}

// BindFlags overrides cfg with the flags of cmd that were set, and
// validates the result.
func BindFlags(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	set := func(flag string) bool {
		f := cmd.Flags().Lookup(flag)
		return f != nil && f.Changed
	}
	var opts []config.Option
	if set("mixing-rule") {
		opts = append(opts, config.OptMixingRule(v.GetString("mixing-rule")))
	}
	if set("dihedral-form") {
		opts = append(opts, config.OptDihedralForm(v.GetString("dihedral-form")))
	}
	if set("backend") {
		opts = append(opts, config.OptBackend(v.GetString("backend")))
	}
	if set("sqlite-path") {
		opts = append(opts, config.OptSQLitePath(v.GetString("sqlite-path")))
	}
	if set("log-level") {
		opts = append(opts, config.OptLogLevel(v.GetString("log-level")))
	}
	if err := cfg.Update(opts...); err != nil {
		return nil, fmt.Errorf("invalid flag: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration after flag binding: %w", err)
	}
	return cfg, nil
}
