package top

import "math"

// Masses and atomic numbers of the common "bio-elements", used to fill
// the at.num column of [ atomtypes ].
var elements = []struct {
	symbol string
	number int
	mass   float64
}{
	{"H", 1, 1.008},
	{"Be", 4, 9.012},
	{"C", 6, 12.01},
	{"N", 7, 14.01},
	{"O", 8, 16.00},
	{"F", 9, 18.998},
	{"Na", 11, 22.99},
	{"Mg", 12, 24.30},
	{"Si", 14, 28.08},
	{"P", 15, 30.97},
	{"S", 16, 32.06},
	{"Cl", 17, 35.45},
	{"K", 19, 39.1},
	{"Ca", 20, 40.08},
	{"Cr", 24, 51.996},
	{"Mn", 25, 54.94},
	{"Fe", 26, 55.84},
	{"Co", 27, 58.93},
	{"Cu", 29, 63.55},
	{"Zn", 30, 65.38},
	{"Se", 34, 78.96},
	{"Br", 35, 79.904},
	{"I", 53, 126.90},
}

// atomicNumber returns the atomic number of the element whose mass is
// closest to mass, or 0 if none is within 0.5 amu. Virtual sites
// (mass 0) and heavy hydrogens get 0 and 1 respectively.
func atomicNumber(mass float64) int {
	best, diff := 0, 0.5
	for _, e := range elements {
		if d := math.Abs(e.mass - mass); d < diff {
			best, diff = e.number, d
		}
	}
	//hydrogen mass repartitioning gives H masses of 2-4 amu
	if best == 0 && mass > 1.5 && mass < 4.1 {
		return 1
	}
	return best
}
