package metadata

import (
	"fmt"
	"slices"

	"github.com/rmera/goff"
)

// Mixing rules a datalayer can be configured with. Custom means pair
// parameters are given explicitly and nothing is mixed.
var MixingRules = []string{"lorentz_berthelot", "geometric", "sixth_power", "arithmetic", "kong", "custom"}

// Boundary condition keywords, per box dimension.
var BoundaryKeywords = []string{"periodic", "fixed", "shrink-wrapped"}

// BoundaryDimensions are the keys accepted when setting boundary conditions.
var BoundaryDimensions = []string{"x", "y", "z"}

// ScalingKeys are the keys of the non-bonded exclusion scaling factors,
// for 1-2, 1-3 and 1-4 interactions.
var ScalingKeys = []string{"scale12", "scale13", "scale14"}

// ScalingKinds are the interactions scaling factors apply to.
var ScalingKinds = []string{"vdw", "coul"}

// BoxUnits gives the unit context of each box parameter.
var BoxUnits = map[string]string{
	"a":     "[length]",
	"b":     "[length]",
	"c":     "[length]",
	"alpha": "[arcunit]",
	"beta":  "[arcunit]",
	"gamma": "[arcunit]",
}

func checkEnum(what, value string, valid []string) error {
	if slices.Contains(valid, value) {
		return nil
	}
	return fmt.Errorf("%w: %s %q not supported, valid values: %v", goff.ErrValue, what, value, valid)
}

// CheckMixingRule returns an error if rule is not a known mixing rule.
func CheckMixingRule(rule string) error {
	return checkEnum("mixing rule", rule, MixingRules)
}

// CheckBoundary returns an error if kw is not a boundary keyword.
func CheckBoundary(kw string) error {
	return checkEnum("boundary condition", kw, BoundaryKeywords)
}
