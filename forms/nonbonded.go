package forms

import (
	"fmt"
	"math"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
)

func init() {
	register(metadata.LJ, "epsilon/sigma", "AB", func(c map[string]float64) (map[string]float64, error) {
		e, s6 := c["epsilon"], math.Pow(c["sigma"], 6)
		return map[string]float64{"A": 4 * e * s6 * s6, "B": 4 * e * s6}, nil
	})
	register(metadata.LJ, "AB", "epsilon/sigma", func(c map[string]float64) (map[string]float64, error) {
		A, B, err := checkAB(c)
		if err != nil {
			return nil, err
		}
		if A == 0 {
			return map[string]float64{"epsilon": 0, "sigma": 0}, nil
		}
		s6 := A / B
		return map[string]float64{"epsilon": B * B / (4 * A), "sigma": math.Pow(s6, 1.0/6.0)}, nil
	})
	register(metadata.LJ, "epsilon/Rmin", "AB", func(c map[string]float64) (map[string]float64, error) {
		e, r6 := c["epsilon"], math.Pow(c["Rmin"], 6)
		return map[string]float64{"A": e * r6 * r6, "B": 2 * e * r6}, nil
	})
	register(metadata.LJ, "AB", "epsilon/Rmin", func(c map[string]float64) (map[string]float64, error) {
		A, B, err := checkAB(c)
		if err != nil {
			return nil, err
		}
		if A == 0 {
			return map[string]float64{"epsilon": 0, "Rmin": 0}, nil
		}
		r6 := 2 * A / B
		return map[string]float64{"epsilon": B * B / (4 * A), "Rmin": math.Pow(r6, 1.0/6.0)}, nil
	})
}

// checkAB returns A and B. Both zero (a non-interacting pair) is valid,
// as is A and B of the same sign; anything else has no epsilon/sigma
// equivalent.
func checkAB(c map[string]float64) (float64, float64, error) {
	A, B := c["A"], c["B"]
	if A == 0 && B == 0 {
		return 0, 0, nil
	}
	if A == 0 || B == 0 {
		return 0, 0, fmt.Errorf("%w: Lennard-Jones A=%g B=%g, both or neither must be zero", goff.ErrValue, A, B)
	}
	if A/B < 0 {
		return 0, 0, fmt.Errorf("%w: Lennard-Jones A=%g B=%g have different signs", goff.ErrValue, A, B)
	}
	return A, B, nil
}

// ConvertLJ converts Lennard-Jones parameters between the models
// "AB", "epsilon/sigma" and "epsilon/Rmin".
func ConvertLJ(coeffs map[string]float64, origin, final string) (map[string]float64, error) {
	return ConvertNB(metadata.LJ, coeffs, origin, final)
}
