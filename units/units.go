/*
 * units.go, part of goFF
 *
 * Copyright 2025 Raul Mera A. (rmeraaatacademicosdotutadotcl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package units parses unit expressions such as "kcal/mol/angstrom**2" or
// "0.5 * kJ * mol**-1 * nm**-2" and returns the factors needed to go from
// one unit to another. Expressions can contain dimensional contexts
// ("[energy]", "[length]"...) which are replaced by the default unit of
// the context. Nothing in this package mutates caller data: it returns
// multipliers, and applying them (once) is the caller's job.
package units

import (
	"fmt"
	"math"
	"strings"

	"github.com/rmera/goff"
)

// Base dimensions. Angles are kept as a dimension of their own so
// radians and degrees can't be silently mixed with dimensionless numbers.
const (
	Length = iota
	Mass
	Time
	Substance
	Charge
	Temperature
	Angle
	nDims
)

var dimNames = [nDims]string{"length", "mass", "time", "substance", "charge", "temperature", "angle"}

// Dims holds the exponent of each base dimension.
type Dims [nDims]float64

const dimTol = 1e-9

// Equal returns true if both dimensionalities are the same.
func (D Dims) Equal(o Dims) bool {
	for i := range D {
		if math.Abs(D[i]-o[i]) > dimTol {
			return false
		}
	}
	return true
}

func (D Dims) String() string {
	parts := make([]string, 0, nDims)
	for i, v := range D {
		if math.Abs(v) < dimTol {
			continue
		}
		if v == 1 {
			parts = append(parts, "["+dimNames[i]+"]")
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s]**%g", dimNames[i], v))
	}
	if len(parts) == 0 {
		return "dimensionless"
	}
	return strings.Join(parts, " * ")
}

// Quantity is a magnitude in SI base units (radians for angles,
// moles for amounts) together with its dimensionality.
type Quantity struct {
	Value float64
	Dims  Dims
}

func (Q Quantity) String() string {
	return fmt.Sprintf("%g %s", Q.Value, Q.Dims)
}

// Mul returns Q*o.
func (Q Quantity) Mul(o Quantity) Quantity {
	r := Quantity{Value: Q.Value * o.Value}
	for i := range r.Dims {
		r.Dims[i] = Q.Dims[i] + o.Dims[i]
	}
	return r
}

// Div returns Q/o.
func (Q Quantity) Div(o Quantity) Quantity {
	r := Quantity{Value: Q.Value / o.Value}
	for i := range r.Dims {
		r.Dims[i] = Q.Dims[i] - o.Dims[i]
	}
	return r
}

// Pow returns Q**e.
func (Q Quantity) Pow(e float64) Quantity {
	r := Quantity{Value: math.Pow(Q.Value, e)}
	for i := range r.Dims {
		r.Dims[i] = Q.Dims[i] * e
	}
	return r
}

// Compatible returns true if Q can be converted into o.
func (Q Quantity) Compatible(o Quantity) bool {
	return Q.Dims.Equal(o.Dims)
}

func dim(d int, e float64) Dims {
	var r Dims
	r[d] = e
	return r
}

func unit(v float64, d Dims) Quantity {
	return Quantity{Value: v, Dims: d}
}

var energyDims = Dims{Length: 2, Mass: 1, Time: -2}

// the unit names known, with their value in SI.
var unitTable = map[string]Quantity{
	"dimensionless": unit(1, Dims{}),
	"count":         unit(1, Dims{}),

	"meter":    unit(1, dim(Length, 1)),
	"metre":    unit(1, dim(Length, 1)),
	"m":        unit(1, dim(Length, 1)),
	"angstrom": unit(1e-10, dim(Length, 1)),
	"Angstrom": unit(1e-10, dim(Length, 1)),
	"ang":      unit(1e-10, dim(Length, 1)),
	"Å":        unit(1e-10, dim(Length, 1)),
	"bohr":     unit(5.29177210903e-11, dim(Length, 1)),

	"gram":   unit(1e-3, dim(Mass, 1)),
	"g":      unit(1e-3, dim(Mass, 1)),
	"amu":    unit(1.66053906660e-27, dim(Mass, 1)),
	"dalton": unit(1.66053906660e-27, dim(Mass, 1)),
	"Da":     unit(1.66053906660e-27, dim(Mass, 1)),
	"u":      unit(1.66053906660e-27, dim(Mass, 1)),

	"second": unit(1, dim(Time, 1)),
	"s":      unit(1, dim(Time, 1)),

	"mole": unit(1, dim(Substance, 1)),
	"mol":  unit(1, dim(Substance, 1)),

	"joule":         unit(1, energyDims),
	"J":             unit(1, energyDims),
	"calorie":       unit(4.184, energyDims),
	"cal":           unit(4.184, energyDims),
	"electron_volt": unit(1.602176634e-19, energyDims),
	"eV":            unit(1.602176634e-19, energyDims),
	"hartree":       unit(4.3597447222071e-18, energyDims),
	"Eh":            unit(4.3597447222071e-18, energyDims),

	"kelvin": unit(1, dim(Temperature, 1)),
	"K":      unit(1, dim(Temperature, 1)),

	"coulomb":           unit(1, dim(Charge, 1)),
	"C":                 unit(1, dim(Charge, 1)),
	"elementary_charge": unit(1.602176634e-19, dim(Charge, 1)),
	"e":                 unit(1.602176634e-19, dim(Charge, 1)),

	"radian": unit(1, dim(Angle, 1)),
	"rad":    unit(1, dim(Angle, 1)),
	"degree": unit(math.Pi/180, dim(Angle, 1)),
	"deg":    unit(math.Pi/180, dim(Angle, 1)),
}

// units that accept an SI prefix.
var prefixable = map[string]bool{
	"meter": true, "metre": true, "m": true,
	"gram": true, "g": true,
	"second": true, "s": true,
	"mole": true, "mol": true,
	"joule": true, "J": true,
	"calorie": true, "cal": true,
	"electron_volt": true, "eV": true,
	"coulomb": true, "C": true,
	"dalton": true, "Da": true,
}

type prefix struct {
	name   string
	factor float64
}

// longest first, so "micro" is tried before "m".
var prefixes = []prefix{
	{"femto", 1e-15}, {"micro", 1e-6}, {"milli", 1e-3}, {"centi", 1e-2},
	{"kilo", 1e3}, {"mega", 1e6}, {"nano", 1e-9}, {"pico", 1e-12},
	{"µ", 1e-6}, {"f", 1e-15}, {"p", 1e-12}, {"n", 1e-9}, {"u", 1e-6},
	{"m", 1e-3}, {"c", 1e-2}, {"k", 1e3}, {"M", 1e6},
}

// lookup returns the quantity for a unit name, trying SI prefixes and
// plural forms if the name is not in the table.
func lookup(name string) (Quantity, error) {
	if q, ok := unitTable[name]; ok {
		return q, nil
	}
	for _, p := range prefixes {
		rest, found := strings.CutPrefix(name, p.name)
		if !found || !prefixable[rest] {
			continue
		}
		q := unitTable[rest]
		q.Value *= p.factor
		return q, nil
	}
	if sing, found := strings.CutSuffix(name, "s"); found && len(sing) > 1 {
		if q, err := lookup(sing); err == nil {
			return q, nil
		}
	}
	return Quantity{}, fmt.Errorf("%w: unknown unit %q", goff.ErrKey, name)
}

// Parse returns the quantity described by the unit expression expr.
// Contexts in the expression are replaced by their default units.
func Parse(expr string) (Quantity, error) {
	p, err := newParser(expr)
	if err != nil {
		return Quantity{}, err
	}
	return p.parse()
}

// ConversionFactor returns the factor f such that a value expressed in
// from, multiplied by f, is the same value expressed in to. Either unit
// can carry a numeric prefactor, so ConversionFactor("2*meter", "meter") is 2.
func ConversionFactor(from, to string) (float64, error) {
	qf, err := Parse(from)
	if err != nil {
		return 0, err
	}
	qt, err := Parse(to)
	if err != nil {
		return 0, err
	}
	f, err := QuantityFactor(qf, qt)
	if err != nil {
		return 0, fmt.Errorf("converting %q to %q: %w", from, to, err)
	}
	return f, nil
}

// QuantityFactor is ConversionFactor for already parsed quantities.
func QuantityFactor(from, to Quantity) (float64, error) {
	if !from.Compatible(to) {
		return 0, fmt.Errorf("%w: can't convert %s to %s", goff.ErrValue, from.Dims, to.Dims)
	}
	if to.Value == 0 {
		return 0, fmt.Errorf("%w: target unit has zero magnitude", goff.ErrValue)
	}
	return from.Value / to.Value, nil
}

// ConversionDict returns, for each key, the factor that converts from[key]
// into to[key]. Both maps must have exactly the same keys.
func ConversionDict(from, to map[string]string) (map[string]float64, error) {
	if err := sameKeys(from, to); err != nil {
		return nil, err
	}
	ret := make(map[string]float64, len(from))
	for k, v := range from {
		f, err := ConversionFactor(v, to[k])
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		ret[k] = f
	}
	return ret, nil
}

func sameKeys(a, b map[string]string) error {
	for k := range a {
		if _, ok := b[k]; !ok {
			return fmt.Errorf("%w: key %q present only in the origin units", goff.ErrKey, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			return fmt.Errorf("%w: key %q present only in the target units", goff.ErrKey, k)
		}
	}
	return nil
}
