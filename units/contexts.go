package units

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/rmera/goff"
)

// The default unit for each dimensional context. These are the canonical
// units in which the datalayer stores everything.
var contexts = map[string]string{
	"[length]":        "angstrom",
	"[mass]":          "amu",
	"[time]":          "picosecond",
	"[substance]":     "mol",
	"[charge]":        "e",
	"[energy]":        "kJ / mol",
	"[temperature]":   "kelvin",
	"[arcunit]":       "radian",
	"[dimensionless]": "dimensionless",
}

var contextRe = regexp.MustCompile(`\[\s*[a-z_]+\s*\]`)

// Contexts returns a copy of the context table.
func Contexts() map[string]string {
	return maps.Clone(contexts)
}

// ContextNames returns the sorted names of the known contexts.
func ContextNames() []string {
	return slices.Sorted(maps.Keys(contexts))
}

// SubstituteContexts returns expr with every context replaced by its
// (parenthesized) default unit.
func SubstituteContexts(expr string) (string, error) {
	var err error
	ret := contextRe.ReplaceAllStringFunc(expr, func(s string) string {
		key := "[" + trimSpaces(s[1:len(s)-1]) + "]"
		u, ok := contexts[key]
		if !ok {
			if err == nil {
				err = fmt.Errorf("%w: unknown unit context %s, valid contexts: %v", goff.ErrKey, key, ContextNames())
			}
			return s
		}
		return "(" + u + ")"
	})
	if err != nil {
		return "", err
	}
	return ret, nil
}

// ConvertContexts returns the concrete quantity for an expression that
// contains contexts, for instance "[energy] * [length] ** -2".
func ConvertContexts(expr string) (Quantity, error) {
	s, err := SubstituteContexts(expr)
	if err != nil {
		return Quantity{}, err
	}
	return Parse(s)
}

func trimSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
