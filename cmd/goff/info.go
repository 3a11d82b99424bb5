package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/energy"
	"github.com/rmera/goff/metadata"
	"github.com/spf13/cobra"
)

func getInfoCmd() *cobra.Command {
	var in input
	cmd := &cobra.Command{
		Use:   "info INPUT",
		Short: "Summarize a system and its parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.path = args[0]
			D, err := load(in)
			if err != nil {
				return err
			}
			defer D.Close()
			return printInfo(cmd.OutOrStdout(), D)
		},
	}
	inputFlags(cmd, &in)
	return cmd
}

func printInfo(w io.Writer, D *datalayer.DataLayer) error {
	fmt.Fprintf(w, "System:       %s\n", D.Name)
	fmt.Fprintf(w, "Atoms:        %s\n", humanize.Comma(int64(D.AtomCount())))
	fmt.Fprintf(w, "Atom types:   %s\n", humanize.Comma(int64(len(D.AtomTypeNames()))))
	names := map[int]string{metadata.Bond: "Bonds", metadata.Angle: "Angles", metadata.Dihedral: "Dihedrals"}
	for _, o := range []int{metadata.Bond, metadata.Angle, metadata.Dihedral} {
		n, err := D.TermCount(o)
		if err != nil {
			return err
		}
		uids, err := D.ListTermUIDs(o)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-13s %s (%s parameter sets)\n", names[o]+":", humanize.Comma(int64(n)), humanize.Comma(int64(len(uids))))
	}
	explicit := 0
	for _, k := range D.NBKeys() {
		if k.Pair && D.IsExplicit(k) {
			explicit++
		}
	}
	rule := D.MixingRule()
	if rule == "" {
		rule = "none"
	}
	fmt.Fprintf(w, "Mixing rule:  %s (%s explicit pairs)\n", rule, humanize.Comma(int64(explicit)))
	for _, kind := range []string{"vdw", "coul"} {
		s, err := D.NBScaling(kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-13s 1-2: %g  1-3: %g  1-4: %.4g\n", kind+" scaling:", s["scale12"], s["scale13"], s["scale14"])
	}
	return nil
}

func getEnergyCmd() *cobra.Command {
	var in input
	cmd := &cobra.Command{
		Use:   "energy INPUT",
		Short: "Print the potential energy of a system, by component",
		Long: `Energy evaluates the bonded, Lennard-Jones and Coulomb energy of INPUT
in kJ/mol, without cutoffs. The system needs coordinates, from --coords
for topologies without them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.path = args[0]
			D, err := load(in)
			if err != nil {
				return err
			}
			defer D.Close()
			E, err := energy.System(D)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, c := range []struct {
				name string
				v    float64
			}{
				{"Bonds", E.Bond}, {"Angles", E.Angle}, {"Dihedrals", E.Dihedral},
				{"Lennard-Jones", E.VdW}, {"Coulomb", E.Coulomb}, {"Total", E.Total()},
			} {
				fmt.Fprintf(w, "%-14s %16.6f kJ/mol\n", c.name, c.v)
			}
			return nil
		},
	}
	inputFlags(cmd, &in)
	return cmd
}
