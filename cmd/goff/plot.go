package main

import (
	"fmt"

	"github.com/rmera/goff/chemplot"
	"github.com/spf13/cobra"
)

func getPlotCmd() *cobra.Command {
	var in input
	var (
		dihedral, bond int
		pair           []int
		compare        string
		points         int
		size           float64
		title          string
	)
	cmd := &cobra.Command{
		Use:   "plot INPUT OUTPUT",
		Short: "Plot the energy profile of a parameter set",
		Long: `Plot samples the energy of one dihedral or bond parameter set (by uid),
or of a pair of atom types, and writes the plot to OUTPUT (.png, .svg,
.pdf...). With --compare, the parameters are also converted to that form
and both curves are drawn.`,
		Example: `  goff plot butane.prmtop dihedral.png --dihedral 0 --compare RB
  goff plot butane.prmtop ct-hc.svg --pair 1,2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.path = args[0]
			D, err := load(in)
			if err != nil {
				return err
			}
			defer D.Close()
			var profiles []chemplot.Profile
			var xlabel string
			add := func(p chemplot.Profile, err error) error {
				if err == nil {
					profiles = append(profiles, p)
				}
				return err
			}
			switch {
			case dihedral >= 0:
				xlabel = "Dihedral (degrees)"
				err = add(chemplot.DihedralProfile(D, dihedral, "", points))
				if err == nil && compare != "" {
					err = add(chemplot.DihedralProfile(D, dihedral, compare, points))
				}
			case bond >= 0:
				xlabel = "Distance (A)"
				err = add(chemplot.BondProfile(D, bond, "", 0.7, 2.2, points))
				if err == nil && compare != "" {
					err = add(chemplot.BondProfile(D, bond, compare, 0.7, 2.2, points))
				}
			case len(pair) == 2:
				xlabel = "Distance (A)"
				err = add(chemplot.PairProfile(D, pair[0], pair[1], 2.5, 10, points))
			default:
				return fmt.Errorf("one of --dihedral, --bond or --pair is needed")
			}
			if err != nil {
				return err
			}
			if len(profiles) == 2 {
				dev, err := chemplot.MaxDeviation(profiles[0], profiles[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Largest difference between forms: %.3g kJ/mol\n", dev)
			}
			if title == "" {
				title = D.Name
			}
			p, err := chemplot.Plot(profiles, title, xlabel)
			if err != nil {
				return err
			}
			return chemplot.Save(p, args[1], size)
		},
	}
	inputFlags(cmd, &in)
	f := cmd.Flags()
	f.IntVar(&dihedral, "dihedral", -1, "uid of the dihedral parameters to plot")
	f.IntVar(&bond, "bond", -1, "uid of the bond parameters to plot")
	f.IntSliceVar(&pair, "pair", nil, "two atom types, whose pair energy is plotted")
	f.StringVar(&compare, "compare", "", "form to convert the parameters to, for comparison")
	f.IntVar(&points, "points", 181, "number of points sampled")
	f.Float64Var(&size, "size", 12, "plot size in cm")
	f.StringVar(&title, "title", "", "plot title (default: the system name)")
	return cmd
}
