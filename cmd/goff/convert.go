package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/storage"
	"github.com/rmera/goff/top"
	"github.com/spf13/cobra"
)

func inputFlags(cmd *cobra.Command, in *input) {
	cmd.Flags().StringVarP(&in.coords, "coords", "c", "", "AMBER inpcrd file with the coordinates")
	cmd.Flags().StringSliceVarP(&in.defines, "define", "D", nil, "macros defined for GROMACS #ifdef blocks")
}

func getConvertCmd() *cobra.Command {
	var in input
	var molName string
	cmd := &cobra.Command{
		Use:   "convert INPUT OUTPUT",
		Short: "Convert a topology to another format",
		Long: `Convert reads INPUT and writes it as OUTPUT. The output format is
given by the extension of OUTPUT:
  .top           GROMACS topology
  .goff          compressed goff archive
  .db, .sqlite   SQLite store`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.path = args[0]
			D, err := load(in)
			if err != nil {
				return err
			}
			defer D.Close()
			if err := save(D, args[1], molName); err != nil {
				return fmt.Errorf("writing %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s atoms to %s\n", humanize.Comma(int64(D.AtomCount())), args[1])
			return nil
		},
	}
	inputFlags(cmd, &in)
	cmd.Flags().StringVarP(&molName, "molecule", "m", "", "molecule type name for GROMACS topologies")
	return cmd
}

func save(D *datalayer.DataLayer, out, molName string) error {
	switch ext(out) {
	case ".top":
		opts := top.Options{DihedralForm: cfg.DihedralForm, MoleculeName: molName, Log: sugar}
		return writeFile(out, func(f *os.File) error { return top.Write(f, D, opts) })
	case ".goff":
		if err := D.Save(); err != nil {
			return err
		}
		return writeFile(out, func(f *os.File) error { return storage.WriteArchive(f, D.Backend()) })
	case ".db", ".sqlite":
		if err := D.Save(); err != nil {
			return err
		}
		B, err := storage.OpenSQLite(out)
		if err != nil {
			return err
		}
		if err := storage.CopyTables(B, D.Backend()); err != nil {
			B.Close()
			return err
		}
		return B.Close()
	}
	return fmt.Errorf("unknown output format %q", out)
}
