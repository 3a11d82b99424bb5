/*
 * forms.go, part of goFF
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

// Package forms converts parameters between equivalent functional forms.
// Every form can be converted to the canonical form of its group and back,
// and any conversion goes through the canonical form, so only two
// converters per form are needed.
//
// Errors wrapping goff.ErrValue mean the parameters can't be represented
// in the requested form. goff.ErrKey and goff.ErrType mean the request
// itself is wrong (unknown forms, missing converters, bad parameter sets).
package forms

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
)

// Converter takes parameters in one form and returns them in another.
// Converters never modify their input.
type Converter func(map[string]float64) (map[string]float64, error)

// group -> "origin_to_destination" -> converter. Groups are the bonded
// orders ("2", "3", "4") and the non-bonded form names ("LJ").
var registry = map[string]map[string]Converter{}

func register(group, origin, dest string, fn Converter) {
	if registry[group] == nil {
		registry[group] = make(map[string]Converter)
	}
	name := origin + "_to_" + dest
	if _, ok := registry[group][name]; ok {
		panic("forms: converter " + name + " registered twice for " + group)
	}
	registry[group][name] = fn
}

func orderGroup(order int) string {
	return strconv.Itoa(order)
}

// Registered returns the names of the converters available for an order.
func Registered(order any) ([]string, error) {
	o, err := metadata.Order(order)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(registry[orderGroup(o)])), nil
}

func lookup(group, origin, dest string) (Converter, error) {
	name := origin + "_to_" + dest
	fn, ok := registry[group][name]
	if !ok {
		return nil, fmt.Errorf("%w: conversion %s not registered for %s", goff.ErrKey, name, group)
	}
	return fn, nil
}

// Convert returns coeffs, given in the form origin of the given order, in
// the form final. If origin and final are the same form, coeffs is returned
// as is. Otherwise the coefficients go origin -> canonical -> final.
func Convert(order any, coeffs map[string]float64, origin, final string) (map[string]float64, error) {
	o, err := metadata.Order(order)
	if err != nil {
		return nil, err
	}
	od, err := metadata.TermMetadata(o, origin)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(origin, od.Parameters, coeffs); err != nil {
		return nil, err
	}
	if origin == final {
		return coeffs, nil
	}
	if _, err := metadata.TermMetadata(o, final); err != nil {
		return nil, err
	}
	return twoHops(orderGroup(o), od.CanonicalForm, coeffs, origin, final)
}

func twoHops(group, canonical string, coeffs map[string]float64, origin, final string) (map[string]float64, error) {
	var err error
	var first, second Converter
	if origin != canonical {
		if first, err = lookup(group, origin, canonical); err != nil {
			return nil, err
		}
	}
	if final != canonical {
		if second, err = lookup(group, canonical, final); err != nil {
			return nil, err
		}
	}
	ret := coeffs
	if first != nil {
		if ret, err = first(ret); err != nil {
			return nil, fmt.Errorf("converting %s to %s: %w", origin, canonical, err)
		}
	}
	if second != nil {
		if ret, err = second(ret); err != nil {
			return nil, fmt.Errorf("converting %s to %s: %w", canonical, final, err)
		}
	}
	return ret, nil
}

// ConvertNB is Convert for the models of a non-bonded form ("AB",
// "epsilon/sigma"... for "LJ"). The internal model is the canonical one,
// and an empty model name means the internal model.
func ConvertNB(form string, coeffs map[string]float64, origin, final string) (map[string]float64, error) {
	od, err := metadata.NBMetadata(form, origin)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(form+"/"+od.Model, od.Parameters, coeffs); err != nil {
		return nil, err
	}
	fd, err := metadata.NBMetadata(form, final)
	if err != nil {
		return nil, err
	}
	if od.Model == fd.Model {
		return coeffs, nil
	}
	return twoHops(form, od.Internal, coeffs, od.Model, fd.Model)
}

func checkKeys(name string, params []string, coeffs map[string]float64) error {
	if coeffs == nil {
		return fmt.Errorf("%w: nil parameters for form %s", goff.ErrType, name)
	}
	for _, p := range params {
		if _, ok := coeffs[p]; !ok {
			return fmt.Errorf("%w: missing parameter %s for form %s", goff.ErrKey, p, name)
		}
	}
	if len(coeffs) != len(params) {
		for k := range coeffs {
			if !slices.Contains(params, k) {
				return fmt.Errorf("%w: unexpected parameter %s for form %s", goff.ErrKey, k, name)
			}
		}
	}
	return nil
}
