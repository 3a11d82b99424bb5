package forms

import (
	"fmt"
	"math"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
)

// rbTerms is the number of coefficients of the Ryckaert-Bellemans
// polynomial, so the largest multiplicity a single cosine can have and
// still be expressed as an RB dihedral is rbTerms-1.
const rbTerms = 6

var rbKeys = [rbTerms]string{"A_0", "A_1", "A_2", "A_3", "A_4", "A_5"}

// chebyshev returns the coefficients of T_n, so that
// cos(n*x) = sum_i ret[i]*cos(x)**i.
func chebyshev(n int) []float64 {
	prev := make([]float64, n+1)
	prev[0] = 1
	if n == 0 {
		return prev
	}
	curr := make([]float64, n+1)
	curr[1] = 1
	for k := 1; k < n; k++ {
		//T_{k+1} = 2x*T_k - T_{k-1}
		next := make([]float64, n+1)
		for i := 0; i <= k; i++ {
			next[i+1] += 2 * curr[i]
		}
		for i := 0; i <= k-1; i++ {
			next[i] -= prev[i]
		}
		prev, curr = curr, next
	}
	return curr
}

// multiplicity returns n as an int if it is a whole number that a single
// RB polynomial can hold.
func multiplicity(n float64) (int, error) {
	r := math.Round(n)
	if math.Abs(n-r) > 1e-8 {
		return 0, fmt.Errorf("%w: multiplicity %g is not an integer", goff.ErrValue, n)
	}
	if r < 0 || r >= rbTerms {
		return 0, fmt.Errorf("%w: multiplicity %g out of range, must be between 0 and %d", goff.ErrValue, n, rbTerms-1)
	}
	return int(r), nil
}

// phaseSign returns (-1)**round(d/pi) for phases that are multiples of pi.
func phaseSign(d float64) (float64, error) {
	k := math.Round(d / math.Pi)
	if math.Abs(d/math.Pi-k) > 1e-6 {
		return 0, fmt.Errorf("%w: phase %g is not a multiple of pi, it has no Ryckaert-Bellemans equivalent", goff.ErrValue, d)
	}
	if math.Mod(k, 2) == 0 {
		return 1, nil
	}
	return -1, nil
}

// cosineToRB expands K*(1 + s*cos(n*phi)) into RB coefficients.
// RB uses psi = phi - pi, so cos(phi)**i = (-1)**i * cos(psi)**i.
func cosineToRB(K, s float64, n int) map[string]float64 {
	t := chebyshev(n)
	ret := make(map[string]float64, rbTerms)
	for i, k := range rbKeys {
		if i > n {
			ret[k] = 0
			continue
		}
		parity := 1.0
		if i%2 == 1 {
			parity = -1
		}
		ret[k] = K * s * parity * t[i]
	}
	ret["A_0"] += K
	return ret
}

// rbToCosine finds K, s and n such that K*(1 + s*cos(n*phi)) equals the RB
// polynomial c, with s = +1 or -1. K keeps its sign.
func rbToCosine(c map[string]float64) (K, s float64, n int, err error) {
	scale := 0.0
	for _, k := range rbKeys {
		scale = math.Max(scale, math.Abs(c[k]))
	}
	if scale == 0 {
		return 0, 0, 0, fmt.Errorf("%w: all Ryckaert-Bellemans coefficients are zero, there is no cosine term to extract", goff.ErrValue)
	}
	n = 0
	for i := rbTerms - 1; i > 0; i-- {
		if !isZero(c[rbKeys[i]], scale) {
			n = i
			break
		}
	}
	if n == 0 {
		//only a constant: K*(1+cos(0))
		return c["A_0"] / 2, 1, 0, nil
	}
	notCosine := fmt.Errorf("%w: Ryckaert-Bellemans polynomial %v is not a single cosine term", goff.ErrValue, rbSlice(c))
	//the leading coefficient of T_n is 2**(n-1), and A_0 = K + K*s*T_n[0]
	ks := c[rbKeys[n]] / math.Pow(2, float64(n-1))
	if n%2 == 1 {
		ks = -ks
	}
	K = c["A_0"] - ks*chebyshev(n)[0]
	if isZero(K, scale) || math.Abs(math.Abs(ks)-math.Abs(K)) > 1e-8*math.Max(1, scale) {
		return 0, 0, 0, notCosine
	}
	s = 1
	if ks/K < 0 {
		s = -1
	}
	expected := cosineToRB(K, s, n)
	for _, k := range rbKeys {
		if math.Abs(expected[k]-c[k]) > 1e-8*math.Max(1, scale) {
			return 0, 0, 0, notCosine
		}
	}
	return K, s, n, nil
}

func rbSlice(c map[string]float64) []float64 {
	r := make([]float64, rbTerms)
	for i, k := range rbKeys {
		r[i] = c[k]
	}
	return r
}

func charmmToRB(c map[string]float64) (map[string]float64, error) {
	n, err := multiplicity(c["n"])
	if err != nil {
		return nil, err
	}
	s, err := phaseSign(c["d"])
	if err != nil {
		return nil, err
	}
	return cosineToRB(c["K"], s, n), nil
}

func rbToCharmm(c map[string]float64) (map[string]float64, error) {
	K, s, n, err := rbToCosine(c)
	if err != nil {
		return nil, err
	}
	d := 0.0
	if s < 0 {
		d = math.Pi
	}
	return map[string]float64{"K": K, "n": float64(n), "d": d}, nil
}

func harmonicToRB(c map[string]float64) (map[string]float64, error) {
	if c["d"] != 1 && c["d"] != -1 {
		return nil, fmt.Errorf("%w: d must be 1 or -1 in a harmonic dihedral, got %g", goff.ErrValue, c["d"])
	}
	n, err := multiplicity(c["n"])
	if err != nil {
		return nil, err
	}
	return cosineToRB(c["K"], c["d"], n), nil
}

func rbToHarmonic(c map[string]float64) (map[string]float64, error) {
	K, s, n, err := rbToCosine(c)
	if err != nil {
		return nil, err
	}
	return map[string]float64{"K": K, "d": s, "n": float64(n)}, nil
}

func oplsToRB(c map[string]float64) (map[string]float64, error) {
	k1, k2, k3, k4 := c["K_1"], c["K_2"], c["K_3"], c["K_4"]
	return map[string]float64{
		"A_0": k2 + 0.5*(k1+k3),
		"A_1": 0.5 * (-k1 + 3*k3),
		"A_2": -k2 + 4*k4,
		"A_3": -2 * k3,
		"A_4": -4 * k4,
		"A_5": 0,
	}, nil
}

func rbToOPLS(c map[string]float64) (map[string]float64, error) {
	scale := 0.0
	for _, k := range rbKeys {
		scale = math.Max(scale, math.Abs(c[k]))
	}
	if !isZero(c["A_5"], scale) {
		higher := !isZero(c["A_2"], scale) || !isZero(c["A_3"], scale) || !isZero(c["A_4"], scale)
		if higher {
			return nil, fmt.Errorf("%w: OPLS can't represent a fifth order term together with second to fourth order ones (A_5=%g)", goff.ErrValue, c["A_5"])
		}
		return nil, fmt.Errorf("%w: OPLS can't represent a fifth order term (A_5=%g)", goff.ErrValue, c["A_5"])
	}
	k3 := -c["A_3"] / 2
	k4 := -c["A_4"] / 4
	k2 := -c["A_2"] - c["A_4"]
	k1 := -1.5*c["A_3"] - 2*c["A_1"]
	//OPLS is zero at phi=180 (psi=0), so the RB coefficients must add up to 0
	if a0 := k2 + 0.5*(k1+k3); math.Abs(a0-c["A_0"]) > 1e-8*math.Max(1, scale) {
		return nil, fmt.Errorf("%w: OPLS can't represent a constant offset, A_0 should be %g, got %g", goff.ErrValue, a0, c["A_0"])
	}
	return map[string]float64{"K_1": k1, "K_2": k2, "K_3": k3, "K_4": k4}, nil
}

// multi/harmonic is a polynomial in cos(phi), RB in cos(psi) = -cos(phi).
func multiHarmonicToRB(c map[string]float64) (map[string]float64, error) {
	ret := make(map[string]float64, rbTerms)
	for i, k := range rbKeys {
		if i == rbTerms-1 {
			ret[k] = 0
			continue
		}
		v := c[fmt.Sprintf("A_%d", i+1)]
		if i%2 == 1 {
			v = -v
		}
		ret[k] = v
	}
	return ret, nil
}

func rbToMultiHarmonic(c map[string]float64) (map[string]float64, error) {
	if err := mustVanish("multi/harmonic", c, c["A_0"], "A_5"); err != nil {
		return nil, err
	}
	ret := make(map[string]float64, rbTerms-1)
	for i, k := range rbKeys[:rbTerms-1] {
		v := c[k]
		if i%2 == 1 {
			v = -v
		}
		ret[fmt.Sprintf("A_%d", i+1)] = v
	}
	return ret, nil
}

func init() {
	d := orderGroup(metadata.Dihedral)
	register(d, "charmmfsw", "RB", charmmToRB)
	register(d, "RB", "charmmfsw", rbToCharmm)
	register(d, "harmonic", "RB", harmonicToRB)
	register(d, "RB", "harmonic", rbToHarmonic)
	register(d, "opls", "RB", oplsToRB)
	register(d, "RB", "opls", rbToOPLS)
	register(d, "multi/harmonic", "RB", multiHarmonicToRB)
	register(d, "RB", "multi/harmonic", rbToMultiHarmonic)
}

// SumRB adds up RB dihedrals. Since the RB form is linear in its
// coefficients, several terms acting on the same four atoms can be merged
// into one.
func SumRB(terms ...map[string]float64) map[string]float64 {
	ret := make(map[string]float64, rbTerms)
	for _, k := range rbKeys {
		ret[k] = 0
	}
	for _, t := range terms {
		for _, k := range rbKeys {
			ret[k] += t[k]
		}
	}
	return ret
}
