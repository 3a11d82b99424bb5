// Package energy evaluates the potential energy of bonded terms, of
// non-bonded pairs and of a whole DataLayer, in canonical units (kJ/mol,
// angstrom, radian, e). It exists to check that conversions between forms,
// units and programs leave energies unchanged, so it favors clarity
// over speed.
package energy

import (
	"fmt"
	"math"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
)

// Coulomb's constant in kJ/mol * angstrom / e**2.
const CoulombConstant = 1389.35457644382

func unknown(order int, form string) error {
	return fmt.Errorf("%w: no energy function for form %s of order %d", goff.ErrKey, form, order)
}

// Bond returns the energy of a bond of the given form at distance r.
func Bond(form string, p map[string]float64, r float64) (float64, error) {
	switch form {
	case "harmonic":
		dr := r - p["R0"]
		return p["K"] * dr * dr, nil
	case "cubic":
		dr := r - p["R0"]
		return p["K"]*dr*dr + p["K"]*p["K_cub"]*dr*dr*dr, nil
	case "class2":
		dr := r - p["R0"]
		return p["K2"]*dr*dr + p["K3"]*dr*dr*dr + p["K4"]*dr*dr*dr*dr, nil
	case "morse":
		x := 1 - math.Exp(-p["alpha"]*(r-p["R0"]))
		return p["D"] * x * x, nil
	case "fene":
		x := r / p["R0"]
		if x >= 1 {
			return math.Inf(1), nil
		}
		e := -0.5 * p["K"] * p["R0"] * p["R0"] * math.Log(1-x*x)
		if r < math.Pow(2, 1.0/6.0)*p["sigma"] {
			s6 := math.Pow(p["sigma"]/r, 6)
			e += 4*p["epsilon"]*(s6*s6-s6) + p["epsilon"]
		}
		return e, nil
	}
	return 0, unknown(metadata.Bond, form)
}

// Angle returns the energy of an angle term at angle theta, where the
// outer atoms are r13 apart.
func Angle(form string, p map[string]float64, theta, r13 float64) (float64, error) {
	switch form {
	case "harmonic":
		d := theta - p["theta0"]
		return p["K"] * d * d, nil
	case "urey_bradley":
		d := theta - p["theta0"]
		dr := r13 - p["R_ub"]
		return p["K"]*d*d + p["K_ub"]*dr*dr, nil
	case "cosine":
		return p["K"] * (1 + math.Cos(theta)), nil
	case "cosine_squared":
		d := math.Cos(theta) - math.Cos(p["theta0"])
		return p["K"] * d * d, nil
	}
	return 0, unknown(metadata.Angle, form)
}

// Dihedral returns the energy of a dihedral term at angle phi, where
// phi=0 is the cis conformation.
func Dihedral(form string, p map[string]float64, phi float64) (float64, error) {
	switch form {
	case "charmmfsw":
		return p["K"] * (1 + math.Cos(p["n"]*phi-p["d"])), nil
	case "harmonic":
		return p["K"] * (1 + p["d"]*math.Cos(p["n"]*phi)), nil
	case "opls":
		return 0.5*p["K_1"]*(1+math.Cos(phi)) + 0.5*p["K_2"]*(1-math.Cos(2*phi)) +
			0.5*p["K_3"]*(1+math.Cos(3*phi)) + 0.5*p["K_4"]*(1-math.Cos(4*phi)), nil
	case "multi/harmonic":
		e, c := 0.0, math.Cos(phi)
		for n, k := range []string{"A_1", "A_2", "A_3", "A_4", "A_5"} {
			e += p[k] * math.Pow(c, float64(n))
		}
		return e, nil
	case "RB":
		e, c := 0.0, math.Cos(phi-math.Pi)
		for n, k := range []string{"A_0", "A_1", "A_2", "A_3", "A_4", "A_5"} {
			e += p[k] * math.Pow(c, float64(n))
		}
		return e, nil
	}
	return 0, unknown(metadata.Dihedral, form)
}

// Pair returns the non-bonded energy of two atoms r apart, given the
// parameters of their pair in the given form and model.
func Pair(form, model string, p map[string]float64, r float64) (float64, error) {
	d, err := metadata.NBMetadata(form, model)
	if err != nil {
		return 0, err
	}
	switch form + "/" + d.Model {
	case "LJ/AB":
		r6 := math.Pow(r, 6)
		return p["A"]/(r6*r6) - p["B"]/r6, nil
	case "LJ/epsilon/sigma":
		s6 := math.Pow(p["sigma"]/r, 6)
		return 4 * p["epsilon"] * (s6*s6 - s6), nil
	case "LJ/epsilon/Rmin":
		s6 := math.Pow(p["Rmin"]/r, 6)
		return p["epsilon"] * (s6*s6 - 2*s6), nil
	case "Buckingham/A/B/C":
		return p["A"]*math.Exp(-p["B"]*r) - p["C"]/math.Pow(r, 6), nil
	}
	return 0, fmt.Errorf("%w: no energy function for non-bonded %s/%s", goff.ErrKey, form, d.Model)
}

// Coulomb returns the electrostatic energy of charges qi and qj r apart.
func Coulomb(qi, qj, r float64) float64 {
	return CoulombConstant * qi * qj / r
}
