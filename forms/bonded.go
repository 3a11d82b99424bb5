package forms

import (
	"fmt"
	"math"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
)

// relative tolerance used to decide that a coefficient that must vanish
// for a conversion to be exact, does vanish.
const zeroTol = 1e-10

func isZero(v, scale float64) bool {
	return math.Abs(v) <= zeroTol*math.Max(1, math.Abs(scale))
}

func mustVanish(form string, c map[string]float64, scale float64, keys ...string) error {
	for _, k := range keys {
		if !isZero(c[k], scale) {
			return fmt.Errorf("%w: %s can't represent a non-zero %s (%g)", goff.ErrValue, form, k, c[k])
		}
	}
	return nil
}

func init() {
	b := orderGroup(metadata.Bond)
	register(b, "harmonic", "class2", func(c map[string]float64) (map[string]float64, error) {
		return map[string]float64{"K2": c["K"], "K3": 0, "K4": 0, "R0": c["R0"]}, nil
	})
	register(b, "class2", "harmonic", func(c map[string]float64) (map[string]float64, error) {
		if err := mustVanish("harmonic", c, c["K2"], "K3", "K4"); err != nil {
			return nil, err
		}
		return map[string]float64{"K": c["K2"], "R0": c["R0"]}, nil
	})
	register(b, "cubic", "class2", func(c map[string]float64) (map[string]float64, error) {
		return map[string]float64{"K2": c["K"], "K3": c["K"] * c["K_cub"], "K4": 0, "R0": c["R0"]}, nil
	})
	register(b, "class2", "cubic", func(c map[string]float64) (map[string]float64, error) {
		if err := mustVanish("cubic", c, c["K2"], "K4"); err != nil {
			return nil, err
		}
		ret := map[string]float64{"K": c["K2"], "K_cub": 0, "R0": c["R0"]}
		if c["K2"] != 0 {
			ret["K_cub"] = c["K3"] / c["K2"]
		} else if c["K3"] != 0 {
			return nil, fmt.Errorf("%w: cubic can't represent a cubic term without a quadratic one", goff.ErrValue)
		}
		return ret, nil
	})

	a := orderGroup(metadata.Angle)
	register(a, "harmonic", "urey_bradley", func(c map[string]float64) (map[string]float64, error) {
		return map[string]float64{"K": c["K"], "theta0": c["theta0"], "K_ub": 0, "R_ub": 0}, nil
	})
	register(a, "urey_bradley", "harmonic", func(c map[string]float64) (map[string]float64, error) {
		if err := mustVanish("harmonic", c, c["K"], "K_ub"); err != nil {
			return nil, err
		}
		return map[string]float64{"K": c["K"], "theta0": c["theta0"]}, nil
	})
}
