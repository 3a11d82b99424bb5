package main

import (
	"fmt"

	"github.com/rmera/goff/internal/config"
	"github.com/rmera/goff/internal/ioconfig"
	"github.com/rmera/goff/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	cfg     *config.Config
	sugar   *zap.SugaredLogger
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "goff",
		Short: "goff converts force field topologies between MD packages",
		Long: `goff reads a molecular system and its force field from one MD package
format, stores it with explicit units and deduplicated parameters, and
writes it in another format with the same energies.

Supported inputs:
  - AMBER prmtop (.prmtop, .parm7), with coordinates from --coords (inpcrd)
  - GROMACS topologies (.top)
  - goff archives (.goff) and SQLite stores (.db, .sqlite)

Configuration precedence (highest to lowest):
  1. CLI flags (--mixing-rule, --dihedral-form, etc.)
  2. Environment variables (GOFF_*)
  3. Config file (~/.config/goff/config.yaml)
  4. Built-in defaults

  Examples:
    GOFF_MIXING_RULE     Mixing rule that replaces the input's one
    GOFF_DIHEDRAL_FORM   charmmfsw or RB
    GOFF_LOG_LEVEL       Log level (debug/info/warn/error)`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			result, err := ioconfig.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			c, err := ioconfig.BindFlags(cmd, result.Config)
			if err != nil {
				return err
			}
			cfg = c
			if sugar, err = logger.New(cfg.Log); err != nil {
				return err
			}
			sugar.Debugw("configuration loaded", "source", result.Source, "path", result.SourcePath)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/goff/config.yaml)")
	pf.String("mixing-rule", "", "mixing rule replacing the one of the input")
	pf.String("dihedral-form", "charmmfsw", "form of written GROMACS dihedrals: charmmfsw or RB")
	pf.String("backend", "memory", "parameter storage: memory or sqlite")
	pf.String("sqlite-path", "goff.db", "database file for the sqlite backend")
	pf.String("log-level", "info", "log level: debug, info, warn or error")

	rootCmd.Flags().BoolP("version", "V", false, "version for goff")

	rootCmd.AddCommand(
		getConvertCmd(),
		getEnergyCmd(),
		getInfoCmd(),
		getPlotCmd(),
		getConfigCmd(),
	)
	return rootCmd
}
