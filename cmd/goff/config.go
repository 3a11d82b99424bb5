package main

import (
	"fmt"

	"github.com/rmera/goff/internal/ioconfig"
	"github.com/spf13/cobra"
)

func getConfigCmd() *cobra.Command {
	var path string
	var show bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write a default config file",
		Long: `Config writes a documented default configuration to --path, or to
~/.config/goff/config.yaml. Existing files are never overwritten.
With --show, the default configuration is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if show {
				b, err := ioconfig.DefaultYAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			p, err := ioconfig.GenerateDefault(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default config at: %s\n", p)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "file to write")
	cmd.Flags().BoolVar(&show, "show", false, "print the default configuration")
	return cmd
}
