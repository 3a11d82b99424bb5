/*
 * gromacsheaders.go, part of goFF
 *
 *
 * Copyright 2024 Raul Mera  <rmeraa{at}academicos(dot)uta(dot)cl>
 *
 *
 *  This program is free software; you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation; either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  This program is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *  GNU General Public License for more details.
 *
 *  You should have received a copy of the GNU General Public License along
 *  with this program; if not, write to the Free Software Foundation, Inc.,
 *  51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 *
 *
 */

package top

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rmera/goff"
)

// Utility functions

func qerr(err error) {
	if err != nil {
		panic(err)
	}
}

// recovered turns a panic raised through qerr back into an error.
func recovered(r any, context string) error {
	e, ok := r.(error)
	if !ok {
		panic(r)
	}
	return fmt.Errorf("%s: %w", context, e)
}

var fi = strings.Fields

func parseints(s ...string) ([]int, error) {
	r := make([]int, 0, len(s))
	for _, v := range s {
		i, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", goff.ErrType, v)
		}
		r = append(r, i)
	}
	return r, nil
}

func parsefloats(s ...string) ([]float64, error) {
	r := make([]float64, 0, len(s))
	for _, v := range s {
		i, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", goff.ErrType, v)
		}
		r = append(r, i)
	}
	return r, nil
}

// Returns a string without gromacs comments (sequences starting with ';'),
// trailing and leading spaces, tabs and newlines
func cleanString(s string) string {
	f, _, _ := strings.Cut(s, ";")
	return strings.Trim(f, "\r\n\t ")
}

type topHeader struct {
	wany *regexp.Regexp
	spec map[string]*regexp.Regexp
}

func header(name string) *regexp.Regexp {
	return regexp.MustCompile(`^\[\p{Zs}*` + name + `\p{Zs}*\]$`)
}

func newTopHeader() *topHeader {
	T := new(topHeader)
	T.wany = regexp.MustCompile(`^\[\p{Zs}*.*\p{Zs}*\]$`)
	T.spec = map[string]*regexp.Regexp{
		"defaults":     header("defaults"),
		"atomtypes":    header("atomtypes"),
		"nonbond":      header("nonbond_params"),
		"moleculetype": header("moleculetype"),
		"atoms":        header("atoms"),
		"bonds":        header("bonds"),
		"pairs":        header("pairs"),
		"angles":       header("angles"),
		"dihedrals":    header("dihedrals"),
		"exclusions":   header("exclusions"),
		"system":       header("system"),
		"molecules":    header("molecules"),
	}
	return T
}

// Returns true if the line is a Gromacs header. It discards comments.
func (T *topHeader) Is(line string) bool {
	return T.wany.MatchString(cleanString(line))
}

// Returns a string indicating which Gromacs top file header
// the line is, or an empty string if the line is not a header
// or a header not supported.
func (T *topHeader) Which(line string) string {
	line = cleanString(line)
	if !T.wany.MatchString(line) {
		return ""
	}
	for k, v := range T.spec {
		if v.MatchString(line) {
			return k
		}
	}
	return ""
}

// cond follows the preprocessor conditionals of a topology
// (#ifdef, #ifndef, #else, #endif), which can be nested.
type cond struct {
	stack   []bool
	defines []string
}

func newCond(defines []string) *cond {
	return &cond{defines: slices.Clone(defines)}
}

func (c *cond) reading() bool {
	return !slices.Contains(c.stack, false)
}

// read processes a line and returns true if the line is to be parsed,
// false if it is a directive or it is in an excluded block.
func (c *cond) read(line string) (bool, error) {
	f := fi(line)
	switch f[0] {
	case "#ifdef", "#ifndef":
		if len(f) < 2 {
			return false, fmt.Errorf("%w: %s without a macro name", goff.ErrValue, f[0])
		}
		defined := slices.Contains(c.defines, f[1])
		c.stack = append(c.stack, defined == (f[0] == "#ifdef"))
		return false, nil
	case "#else":
		if len(c.stack) == 0 {
			return false, fmt.Errorf("%w: #else without #ifdef", goff.ErrValue)
		}
		c.stack[len(c.stack)-1] = !c.stack[len(c.stack)-1]
		return false, nil
	case "#endif":
		if len(c.stack) == 0 {
			return false, fmt.Errorf("%w: #endif without #ifdef", goff.ErrValue)
		}
		c.stack = c.stack[:len(c.stack)-1]
		return false, nil
	case "#define":
		if c.reading() && len(f) > 1 {
			c.defines = append(c.defines, f[1])
		}
		return false, nil
	}
	return c.reading(), nil
}
