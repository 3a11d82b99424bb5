/*
 * profile.go, part of goFF
 *
 * Copyright 2024 Raul Mera <rmeraa{at}academicos(dot)uta(dot)cl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

// Package chemplot samples the energy of stored terms and non-bonded
// pairs and plots the resulting profiles, which is a quick visual check
// that a conversion between forms did not change a potential.
package chemplot

import (
	"fmt"
	"math"

	"github.com/rmera/goff"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/energy"
	"github.com/rmera/goff/metadata"
	"gonum.org/v1/plot/plotter"
)

// Profile is an energy curve. Y is in kJ/mol, X in angstrom for
// distances and in degrees for angles.
type Profile struct {
	Name string
	XY   plotter.XYs
}

func sample(from, to float64, n int, f func(x float64) (float64, error)) (plotter.XYs, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: a profile needs at least 2 points, got %d", goff.ErrValue, n)
	}
	if to <= from {
		return nil, fmt.Errorf("%w: empty range [%g, %g]", goff.ErrValue, from, to)
	}
	ret := make(plotter.XYs, n)
	step := (to - from) / float64(n-1)
	for i := range ret {
		x := from + float64(i)*step
		y, err := f(x)
		if err != nil {
			return nil, err
		}
		ret[i].X, ret[i].Y = x, y
	}
	return ret, nil
}

// termParameters returns the parameters under uid, converted to form
// unless form is empty.
func termParameters(D *datalayer.DataLayer, order, uid int, form string) (string, map[string]float64, error) {
	stored, p, err := D.GetTermParameter(order, uid, nil)
	if err != nil || form == "" || form == stored {
		return stored, p, err
	}
	p, err = D.ConvertTermParameter(order, uid, form, nil)
	return form, p, err
}

// DihedralProfile samples the dihedral parameters uid at n points
// between -180 and 180 degrees. If form is not empty, the parameters are
// first converted to it.
func DihedralProfile(D *datalayer.DataLayer, uid int, form string, n int) (Profile, error) {
	f, p, err := termParameters(D, metadata.Dihedral, uid, form)
	if err != nil {
		return Profile{}, err
	}
	xy, err := sample(-180, 180, n, func(x float64) (float64, error) {
		return energy.Dihedral(f, p, x*math.Pi/180)
	})
	return Profile{Name: fmt.Sprintf("%s %d", f, uid), XY: xy}, err
}

// BondProfile samples the bond parameters uid at n distances between
// from and to, in angstrom.
func BondProfile(D *datalayer.DataLayer, uid int, form string, from, to float64, n int) (Profile, error) {
	f, p, err := termParameters(D, metadata.Bond, uid, form)
	if err != nil {
		return Profile{}, err
	}
	xy, err := sample(from, to, n, func(x float64) (float64, error) {
		return energy.Bond(f, p, x)
	})
	return Profile{Name: fmt.Sprintf("%s %d", f, uid), XY: xy}, err
}

// PairProfile samples the non-bonded energy between atoms of types a and
// b, mixing their parameters if the pair is not stored.
func PairProfile(D *datalayer.DataLayer, a, b int, from, to float64, n int) (Profile, error) {
	if from <= 0 {
		return Profile{}, fmt.Errorf("%w: pair distances must be positive, got %g", goff.ErrValue, from)
	}
	form, p, err := energy.PairParameters(D, a, b)
	if err != nil {
		return Profile{}, err
	}
	xy, err := sample(from, to, n, func(x float64) (float64, error) {
		return energy.Pair(form, "", p, x)
	})
	return Profile{Name: fmt.Sprintf("%s %s", form, datalayer.Pair(a, b)), XY: xy}, err
}

// MaxDeviation returns the largest absolute difference in energy between
// two profiles sampled at the same points.
func MaxDeviation(a, b Profile) (float64, error) {
	if len(a.XY) != len(b.XY) {
		return 0, fmt.Errorf("%w: profiles have %d and %d points", goff.ErrValue, len(a.XY), len(b.XY))
	}
	var m float64
	for i := range a.XY {
		if a.XY[i].X != b.XY[i].X {
			return 0, fmt.Errorf("%w: profiles sampled at different points", goff.ErrValue)
		}
		m = max(m, math.Abs(a.XY[i].Y-b.XY[i].Y))
	}
	return m, nil
}
