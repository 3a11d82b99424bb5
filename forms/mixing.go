package forms

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
)

// MixingRule combines the epsilon/sigma parameters of two atom types into
// the epsilon and sigma of their pair.
type MixingRule func(e1, s1, e2, s2 float64) (eps, sigma float64)

var mixingRules = map[string]MixingRule{
	"lorentz_berthelot": lorentzBerthelot,
	"geometric":         geometric,
	"sixth_power":       sixthPower,
	//LAMMPS' "arithmetic" is Lorentz-Berthelot
	"arithmetic": lorentzBerthelot,
	"kong":       kong,
}

func init() {
	for name := range mixingRules {
		if err := metadata.CheckMixingRule(name); err != nil {
			panic("forms: " + err.Error())
		}
	}
}

// MixingRules returns the names of the rules that have a mixing function.
func MixingRules() []string {
	return slices.Sorted(maps.Keys(mixingRules))
}

func lorentzBerthelot(e1, s1, e2, s2 float64) (float64, float64) {
	return math.Sqrt(e1 * e2), (s1 + s2) / 2
}

func geometric(e1, s1, e2, s2 float64) (float64, float64) {
	return math.Sqrt(e1 * e2), math.Sqrt(s1 * s2)
}

// Waldman-Hagler.
func sixthPower(e1, s1, e2, s2 float64) (float64, float64) {
	s16, s26 := math.Pow(s1, 6), math.Pow(s2, 6)
	if s16+s26 == 0 {
		return 0, 0
	}
	sigma := math.Pow((s16+s26)/2, 1.0/6.0)
	eps := 2 * math.Sqrt(e1*e2) * math.Pow(s1, 3) * math.Pow(s2, 3) / (s16 + s26)
	return eps, sigma
}

// Kong, J. Chem. Phys. 59, 2464 (1973), applied on A=4*eps*sigma**12
// and B=4*eps*sigma**6.
func kong(e1, s1, e2, s2 float64) (float64, float64) {
	a1, b1 := 4*e1*math.Pow(s1, 12), 4*e1*math.Pow(s1, 6)
	a2, b2 := 4*e2*math.Pow(s2, 12), 4*e2*math.Pow(s2, 6)
	a := math.Pow((math.Pow(a1, 1.0/13.0)+math.Pow(a2, 1.0/13.0))/2, 13)
	b := math.Sqrt(b1 * b2)
	if a == 0 || b == 0 {
		return 0, 0
	}
	return b * b / (4 * a), math.Pow(a/b, 1.0/6.0)
}

// MixLJ applies the mixing rule to two sets of Lennard-Jones parameters in the
// epsilon/sigma model. "custom" and unknown rules return an error wrapping
// goff.ErrValue.
func MixLJ(a, b map[string]float64, rule string) (map[string]float64, error) {
	fn, ok := mixingRules[rule]
	if !ok {
		return nil, fmt.Errorf("%w: no mixing function for rule %q, valid rules: %v", goff.ErrValue, rule, MixingRules())
	}
	d, _ := metadata.NBMetadata(metadata.LJ, "epsilon/sigma")
	for _, p := range []map[string]float64{a, b} {
		if err := checkKeys("LJ/epsilon/sigma", d.Parameters, p); err != nil {
			return nil, err
		}
	}
	eps, sigma := fn(a["epsilon"], a["sigma"], b["epsilon"], b["sigma"])
	return map[string]float64{"epsilon": eps, "sigma": sigma}, nil
}
