/*
 * metadata.go, part of goFF
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

// Package metadata holds the catalog of functional forms goFF knows about,
// together with the atom properties and configuration keywords a
// datalayer accepts. The catalog is built at init and never modified.
package metadata

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/rmera/goff"
	"github.com/rmera/goff/units"
)

// The orders of bonded terms.
const (
	Bond     = 2
	Angle    = 3
	Dihedral = 4
)

// Term describes one bonded functional form.
type Term struct {
	Name          string
	Order         int
	Form          string //the algebraic expression, for humans
	Parameters    []string
	Units         map[string]string //parameter -> unit context expression
	CanonicalForm string
	Description   string
}

func (T Term) clone() Term {
	T.Parameters = slices.Clone(T.Parameters)
	T.Units = maps.Clone(T.Units)
	return T
}

// Order normalizes an order given as a number or as one of its names
// ("bond", "bonds", "angle"...).
func Order(order any) (int, error) {
	switch o := order.(type) {
	case int:
		if o >= Bond && o <= Dihedral {
			return o, nil
		}
	case int64:
		return Order(int(o))
	case string:
		switch strings.ToLower(strings.TrimSpace(o)) {
		case "2", "bond", "bonds":
			return Bond, nil
		case "3", "angle", "angles":
			return Angle, nil
		case "4", "dihedral", "dihedrals":
			return Dihedral, nil
		}
	}
	return 0, fmt.Errorf("%w: order %v not understood, valid orders are 2 (bonds), 3 (angles) and 4 (dihedrals)", goff.ErrKey, order)
}

// TermForms returns a copy of the whole catalog for the given order.
func TermForms(order any) (map[string]Term, error) {
	o, err := Order(order)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]Term, len(termCatalog[o]))
	for k, v := range termCatalog[o] {
		ret[k] = v.clone()
	}
	return ret, nil
}

// TermMetadata returns the descriptor of the form name of the given order.
func TermMetadata(order any, name string) (Term, error) {
	o, err := Order(order)
	if err != nil {
		return Term{}, err
	}
	t, ok := termCatalog[o][name]
	if !ok {
		return Term{}, fmt.Errorf("%w: unknown functional form %q for order %d, valid forms: %v", goff.ErrKey, name, o, slices.Sorted(maps.Keys(termCatalog[o])))
	}
	return t.clone(), nil
}

// CanonicalGroups returns, for each canonical form of the order, the forms
// that can be converted into it (the canonical form included).
func CanonicalGroups(order any) (map[string][]string, error) {
	o, err := Order(order)
	if err != nil {
		return nil, err
	}
	ret := make(map[string][]string, len(canonicalGroups[o]))
	for k, v := range canonicalGroups[o] {
		ret[k] = slices.Clone(v)
	}
	return ret, nil
}

// Compatible returns true if forms a and b of the given order share a
// canonical form, so one can be converted into the other.
func Compatible(order any, a, b string) bool {
	ta, err := TermMetadata(order, a)
	if err != nil {
		return false
	}
	tb, err := TermMetadata(order, b)
	if err != nil {
		return false
	}
	return ta.CanonicalForm == tb.CanonicalForm
}

// ValidateTermDict checks values against the descriptor of the form name and
// returns them as a slice in the descriptor's parameter order. values can be
// a positional []float64 / []any, or a map[string]float64 / map[string]any
// keyed by parameter name. If utype is not nil, it must give a unit for each
// parameter, and the values are converted from those units to the canonical ones.
func ValidateTermDict(name string, desc Term, values any, utype map[string]string) ([]float64, error) {
	return validate(name, desc.Parameters, desc.Units, values, utype)
}

func validate(name string, params []string, punits map[string]string, values any, utype map[string]string) ([]float64, error) {
	var ret []float64
	var err error
	switch v := values.(type) {
	case []float64:
		ret, err = positional(name, params, v)
	case []int:
		f := make([]float64, len(v))
		for i, j := range v {
			f[i] = float64(j)
		}
		ret, err = positional(name, params, f)
	case []any:
		f := make([]float64, len(v))
		for i, j := range v {
			f[i], err = ToFloat(j)
			if err != nil {
				return nil, fmt.Errorf("form %s, parameter %d: %w", name, i, err)
			}
		}
		ret, err = positional(name, params, f)
	case map[string]float64:
		ret, err = keyed(name, params, v)
	case map[string]any:
		f := make(map[string]float64, len(v))
		for k, j := range v {
			f[k], err = ToFloat(j)
			if err != nil {
				return nil, fmt.Errorf("form %s, parameter %s: %w", name, k, err)
			}
		}
		ret, err = keyed(name, params, f)
	default:
		return nil, fmt.Errorf("%w: parameters for form %s must be a slice or a map, got %T", goff.ErrType, name, values)
	}
	if err != nil {
		return nil, err
	}
	for i, f := range ret {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: parameter %s of form %s is not finite", goff.ErrValue, params[i], name)
		}
	}
	if utype == nil {
		return ret, nil
	}
	for i, p := range params {
		u, ok := utype[p]
		if !ok {
			return nil, fmt.Errorf("%w: no unit given for parameter %s of form %s", goff.ErrKey, p, name)
		}
		f, err := units.ConversionFactor(u, punits[p])
		if err != nil {
			return nil, fmt.Errorf("form %s, parameter %s: %w", name, p, err)
		}
		ret[i] *= f
	}
	if len(utype) != len(params) {
		for k := range utype {
			if !slices.Contains(params, k) {
				return nil, fmt.Errorf("%w: unit given for unknown parameter %s of form %s", goff.ErrKey, k, name)
			}
		}
	}
	return ret, nil
}

func positional(name string, params []string, v []float64) ([]float64, error) {
	if len(v) != len(params) {
		return nil, fmt.Errorf("%w: form %s takes %d parameters %v, got %d", goff.ErrValue, name, len(params), params, len(v))
	}
	return slices.Clone(v), nil
}

func keyed(name string, params []string, v map[string]float64) ([]float64, error) {
	for k := range v {
		if !slices.Contains(params, k) {
			return nil, fmt.Errorf("%w: unexpected parameter %s for form %s, valid parameters: %v", goff.ErrKey, k, name, params)
		}
	}
	ret := make([]float64, len(params))
	for i, p := range params {
		f, ok := v[p]
		if !ok {
			return nil, fmt.Errorf("%w: missing parameter %s for form %s", goff.ErrKey, p, name)
		}
		ret[i] = f
	}
	return ret, nil
}

// ToFloat returns v as a float64, or an ErrType error if v is not a number.
func ToFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: %v (%T) is not a number", goff.ErrType, v, v)
}

// ToMap zips values with the parameter names of a form.
func ToMap(params []string, values []float64) map[string]float64 {
	ret := make(map[string]float64, len(params))
	for i, p := range params {
		ret[p] = values[i]
	}
	return ret
}

// checkCatalog panics if a descriptor is inconsistent. The catalog is
// static, so a failure here is a programming error.
func checkCatalog(name string, params []string, punits map[string]string) {
	if len(params) != len(punits) {
		panic(fmt.Sprintf("metadata: form %s has %d parameters but %d units", name, len(params), len(punits)))
	}
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p] {
			panic(fmt.Sprintf("metadata: form %s repeats parameter %s", name, p))
		}
		seen[p] = true
		u, ok := punits[p]
		if !ok {
			panic(fmt.Sprintf("metadata: form %s has no unit for parameter %s", name, p))
		}
		if _, err := units.ConvertContexts(u); err != nil {
			panic(fmt.Sprintf("metadata: form %s, parameter %s: %s", name, p, err))
		}
	}
}
