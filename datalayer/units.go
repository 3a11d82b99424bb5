package datalayer

import (
	"fmt"

	"github.com/rmera/goff"
	"github.com/rmera/goff/units"
)

// toUnits zips values with params, converting each one from its canonical
// unit in punits to the unit utype gives for it. A nil utype leaves the
// values in canonical units.
func toUnits(name string, params []string, punits map[string]string, values []float64, utype map[string]string) (map[string]float64, error) {
	ret := make(map[string]float64, len(params))
	for i, p := range params {
		ret[p] = values[i]
		if utype == nil {
			continue
		}
		u, ok := utype[p]
		if !ok {
			return nil, fmt.Errorf("%w: no unit given for parameter %s of %s", goff.ErrKey, p, name)
		}
		f, err := units.ConversionFactor(punits[p], u)
		if err != nil {
			return nil, fmt.Errorf("%s, parameter %s: %w", name, p, err)
		}
		ret[p] *= f
	}
	return ret, nil
}

// factor returns the factor from unit "from" to "to", or 1 if from is empty.
func factor(from, to string) (float64, error) {
	if from == "" || to == "" {
		return 1, nil
	}
	return units.ConversionFactor(from, to)
}
