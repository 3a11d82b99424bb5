package metadata

import "slices"

const (
	energy     = "[energy]"
	length     = "[length]"
	arc        = "[arcunit]"
	unitless   = "[dimensionless]"
	kLength2   = "[energy] * [length] ** -2"
	kLength3   = "[energy] * [length] ** -3"
	kLength4   = "[energy] * [length] ** -4"
	kArc2      = "[energy] * [arcunit] ** -2"
	iLength    = "[length] ** -1"
	phiComment = "phi is the IUPAC dihedral angle, 0 for cis"
)

var termCatalog = map[int]map[string]*Term{
	Bond: {
		"harmonic": {
			Form:          "K*(r-R0)**2",
			Parameters:    []string{"K", "R0"},
			Units:         map[string]string{"K": kLength2, "R0": length},
			CanonicalForm: "class2",
			Description:   "Harmonic bond, without the 1/2 prefactor (AMBER, LAMMPS convention)",
		},
		"cubic": {
			Form:          "K*(r-R0)**2 + K*K_cub*(r-R0)**3",
			Parameters:    []string{"K", "K_cub", "R0"},
			Units:         map[string]string{"K": kLength2, "K_cub": iLength, "R0": length},
			CanonicalForm: "class2",
			Description:   "Cubic bond (GROMACS type 4 without the 1/2 prefactor)",
		},
		"class2": {
			Form:          "K2*(r-R0)**2 + K3*(r-R0)**3 + K4*(r-R0)**4",
			Parameters:    []string{"K2", "K3", "K4", "R0"},
			Units:         map[string]string{"K2": kLength2, "K3": kLength3, "K4": kLength4, "R0": length},
			CanonicalForm: "class2",
			Description:   "COMPASS/class2 quartic bond",
		},
		"morse": {
			Form:          "D*(1 - exp(-alpha*(r-R0)))**2",
			Parameters:    []string{"D", "alpha", "R0"},
			Units:         map[string]string{"D": energy, "alpha": iLength, "R0": length},
			CanonicalForm: "morse",
			Description:   "Morse bond",
		},
		"fene": {
			Form:          "-0.5*K*R0**2*ln(1-(r/R0)**2) + 4*epsilon*((sigma/r)**12 - (sigma/r)**6) + epsilon",
			Parameters:    []string{"K", "R0", "epsilon", "sigma"},
			Units:         map[string]string{"K": kLength2, "R0": length, "epsilon": energy, "sigma": length},
			CanonicalForm: "fene",
			Description:   "Finite extensible nonlinear elastic bond (Kremer-Grest)",
		},
	},
	Angle: {
		"harmonic": {
			Form:          "K*(theta-theta0)**2",
			Parameters:    []string{"K", "theta0"},
			Units:         map[string]string{"K": kArc2, "theta0": arc},
			CanonicalForm: "urey_bradley",
			Description:   "Harmonic angle, without the 1/2 prefactor",
		},
		"urey_bradley": {
			Form:          "K*(theta-theta0)**2 + K_ub*(r13-R_ub)**2",
			Parameters:    []string{"K", "theta0", "K_ub", "R_ub"},
			Units:         map[string]string{"K": kArc2, "theta0": arc, "K_ub": kLength2, "R_ub": length},
			CanonicalForm: "urey_bradley",
			Description:   "Harmonic angle plus a 1-3 distance term (CHARMM)",
		},
		"cosine": {
			Form:          "K*(1+cos(theta))",
			Parameters:    []string{"K"},
			Units:         map[string]string{"K": energy},
			CanonicalForm: "cosine",
			Description:   "Cosine angle",
		},
		"cosine_squared": {
			Form:          "K*(cos(theta)-cos(theta0))**2",
			Parameters:    []string{"K", "theta0"},
			Units:         map[string]string{"K": energy, "theta0": arc},
			CanonicalForm: "cosine_squared",
			Description:   "Cosine-squared angle (GROMOS)",
		},
	},
	Dihedral: {
		"charmmfsw": {
			Form:          "K*(1 + cos(n*phi - d))",
			Parameters:    []string{"K", "n", "d"},
			Units:         map[string]string{"K": energy, "n": unitless, "d": arc},
			CanonicalForm: "RB",
			Description:   "Periodic proper dihedral (CHARMM, AMBER, GROMACS type 9). " + phiComment,
		},
		"harmonic": {
			Form:          "K*(1 + d*cos(n*phi))",
			Parameters:    []string{"K", "d", "n"},
			Units:         map[string]string{"K": energy, "d": unitless, "n": unitless},
			CanonicalForm: "RB",
			Description:   "LAMMPS harmonic dihedral, d is +1 or -1. " + phiComment,
		},
		"opls": {
			Form:          "0.5*K_1*(1+cos(phi)) + 0.5*K_2*(1-cos(2*phi)) + 0.5*K_3*(1+cos(3*phi)) + 0.5*K_4*(1-cos(4*phi))",
			Parameters:    []string{"K_1", "K_2", "K_3", "K_4"},
			Units:         map[string]string{"K_1": energy, "K_2": energy, "K_3": energy, "K_4": energy},
			CanonicalForm: "RB",
			Description:   "OPLS Fourier dihedral. " + phiComment,
		},
		"multi/harmonic": {
			Form:          "A_1 + A_2*cos(phi) + A_3*cos(phi)**2 + A_4*cos(phi)**3 + A_5*cos(phi)**4",
			Parameters:    []string{"A_1", "A_2", "A_3", "A_4", "A_5"},
			Units:         map[string]string{"A_1": energy, "A_2": energy, "A_3": energy, "A_4": energy, "A_5": energy},
			CanonicalForm: "RB",
			Description:   "LAMMPS multi/harmonic dihedral. " + phiComment,
		},
		"RB": {
			Form:          "A_0 + A_1*cos(psi) + A_2*cos(psi)**2 + A_3*cos(psi)**3 + A_4*cos(psi)**4 + A_5*cos(psi)**5",
			Parameters:    []string{"A_0", "A_1", "A_2", "A_3", "A_4", "A_5"},
			Units:         map[string]string{"A_0": energy, "A_1": energy, "A_2": energy, "A_3": energy, "A_4": energy, "A_5": energy},
			CanonicalForm: "RB",
			Description:   "Ryckaert-Bellemans dihedral (GROMACS type 3), psi = phi - 180 degrees",
		},
	},
}

// canonical form -> member forms, per order.
var canonicalGroups = map[int]map[string][]string{}

func init() {
	for order, forms := range termCatalog {
		groups := make(map[string][]string)
		for name, t := range forms {
			t.Name = name
			t.Order = order
			checkCatalog(name, t.Parameters, t.Units)
			if _, ok := forms[t.CanonicalForm]; !ok {
				panic("metadata: form " + name + " has an unknown canonical form " + t.CanonicalForm)
			}
			groups[t.CanonicalForm] = append(groups[t.CanonicalForm], name)
		}
		for _, v := range groups {
			slices.Sort(v)
		}
		canonicalGroups[order] = groups
	}
}
