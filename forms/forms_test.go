package forms

import (
	"math"
	"testing"

	"github.com/rmera/goff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func rbEnergy(c map[string]float64, phi float64) float64 {
	psi := phi - math.Pi
	e := 0.0
	for i, k := range rbKeys {
		e += c[k] * math.Pow(math.Cos(psi), float64(i))
	}
	return e
}

func charmmEnergy(c map[string]float64, phi float64) float64 {
	return c["K"] * (1 + math.Cos(c["n"]*phi-c["d"]))
}

func oplsEnergy(c map[string]float64, phi float64) float64 {
	return 0.5*c["K_1"]*(1+math.Cos(phi)) + 0.5*c["K_2"]*(1-math.Cos(2*phi)) +
		0.5*c["K_3"]*(1+math.Cos(3*phi)) + 0.5*c["K_4"]*(1-math.Cos(4*phi))
}

func multiHarmonicEnergy(c map[string]float64, phi float64) float64 {
	e := 0.0
	for n := 1; n <= 5; n++ {
		e += c["A_"+string(rune('0'+n))] * math.Pow(math.Cos(phi), float64(n-1))
	}
	return e
}

func grid() []float64 {
	return floats.Span(make([]float64, 100), -10, 10)
}

func TestChebyshev(t *testing.T) {
	assert.Equal(t, []float64{1}, chebyshev(0))
	assert.Equal(t, []float64{0, 1}, chebyshev(1))
	assert.Equal(t, []float64{-1, 0, 2}, chebyshev(2))
	assert.Equal(t, []float64{0, -3, 0, 4}, chebyshev(3))
	assert.Equal(t, []float64{1, 0, -8, 0, 8}, chebyshev(4))
	assert.Equal(t, []float64{0, 5, 0, -20, 0, 16}, chebyshev(5))
}

func TestCharmmRBEnergy(t *testing.T) {
	for _, K := range []float64{1.3, -0.5} {
		for n := 0; n <= 5; n++ {
			for _, d := range []float64{0, math.Pi, -math.Pi, 2 * math.Pi} {
				c := map[string]float64{"K": K, "n": float64(n), "d": d}
				rb, err := Convert(4, c, "charmmfsw", "RB")
				require.NoError(t, err, "K=%g n=%d d=%g", K, n, d)
				for _, phi := range grid() {
					assert.InDelta(t, charmmEnergy(c, phi), rbEnergy(rb, phi), 1e-9, "K=%g n=%d d=%g phi=%g", K, n, d, phi)
				}
				if n == 0 {
					continue
				}
				back, err := Convert(4, rb, "RB", "charmmfsw")
				require.NoError(t, err, "K=%g n=%d d=%g", K, n, d)
				assert.InDelta(t, K, back["K"], 1e-12)
				assert.InDelta(t, float64(n), back["n"], 1e-12)
				for _, phi := range grid() {
					assert.InDelta(t, charmmEnergy(c, phi), charmmEnergy(back, phi), 1e-9)
				}
			}
		}
	}
}

func TestNegativeKRoundTrip(t *testing.T) {
	rb, err := Convert(4, map[string]float64{"K": -0.5, "n": 3, "d": 0}, "charmmfsw", "RB")
	require.NoError(t, err)
	for i, want := range []float64{-0.5, -1.5, 0, 2, 0, 0} {
		assert.InDelta(t, want, rb[rbKeys[i]], 1e-12, rbKeys[i])
	}
	back, err := Convert(4, rb, "RB", "charmmfsw")
	require.NoError(t, err)
	assert.InDelta(t, -0.5, back["K"], 1e-12)
	assert.InDelta(t, 3, back["n"], 1e-12)
	assert.InDelta(t, 0, back["d"], 1e-12)

	c := map[string]float64{"K": -1.2, "n": 2, "d": math.Pi}
	rb, err = Convert(4, c, "charmmfsw", "RB")
	require.NoError(t, err)
	back, err = Convert(4, rb, "RB", "charmmfsw")
	require.NoError(t, err)
	assert.InDelta(t, -1.2, back["K"], 1e-12)
	assert.InDelta(t, math.Pi, back["d"], 1e-12)

	h := map[string]float64{"K": -2, "d": 1, "n": 1}
	rb, err = Convert(4, h, "harmonic", "RB")
	require.NoError(t, err)
	hb, err := Convert(4, rb, "RB", "harmonic")
	require.NoError(t, err)
	assert.InDelta(t, -2, hb["K"], 1e-12)
	assert.InDelta(t, 1, hb["d"], 1e-12)
	assert.InDelta(t, 1, hb["n"], 1e-12)
}

func TestCharmmRBErrors(t *testing.T) {
	_, err := Convert(4, map[string]float64{"K": 1, "n": 2, "d": math.Pi / 2}, "charmmfsw", "RB")
	assert.ErrorIs(t, err, goff.ErrValue)
	_, err = Convert(4, map[string]float64{"K": 1, "n": 6, "d": 0}, "charmmfsw", "RB")
	assert.ErrorIs(t, err, goff.ErrValue)
	_, err = Convert(4, map[string]float64{"K": 1, "n": 1.5, "d": 0}, "charmmfsw", "RB")
	assert.ErrorIs(t, err, goff.ErrValue)

	zero := map[string]float64{"A_0": 0, "A_1": 0, "A_2": 0, "A_3": 0, "A_4": 0, "A_5": 0}
	_, err = Convert(4, zero, "RB", "charmmfsw")
	assert.ErrorIs(t, err, goff.ErrValue)

	//two cosines can't become one
	sum := SumRB(
		cosineToRB(1, 1, 1),
		cosineToRB(1, 1, 3),
	)
	_, err = Convert(4, sum, "RB", "charmmfsw")
	assert.ErrorIs(t, err, goff.ErrValue)
}

func TestOPLSRB(t *testing.T) {
	opls := map[string]float64{"K_1": 1.411, "K_2": -0.271, "K_3": 3.145, "K_4": 0}
	rb, err := Convert("dihedral", opls, "opls", "RB")
	require.NoError(t, err)
	want := []float64{2.007, 4.012, 0.271, -6.29, 0, 0}
	for i, k := range rbKeys {
		assert.InDelta(t, want[i], rb[k], 1e-12, k)
	}
	for _, phi := range grid() {
		assert.InDelta(t, oplsEnergy(opls, phi), rbEnergy(rb, phi), 1e-9)
	}
	back, err := Convert(4, rb, "RB", "opls")
	require.NoError(t, err)
	for k, v := range opls {
		assert.InDelta(t, v, back[k], 1e-12, k)
	}

	rb["A_5"] = 1
	_, err = Convert(4, rb, "RB", "opls")
	assert.ErrorIs(t, err, goff.ErrValue)
	rb["A_5"] = 0
	rb["A_0"] += 1
	_, err = Convert(4, rb, "RB", "opls")
	assert.ErrorIs(t, err, goff.ErrValue)
}

func TestMultiHarmonicAndHarmonic(t *testing.T) {
	mh := map[string]float64{"A_1": 1, "A_2": -0.5, "A_3": 0.25, "A_4": 2, "A_5": -1}
	rb, err := Convert(4, mh, "multi/harmonic", "RB")
	require.NoError(t, err)
	for _, phi := range grid() {
		assert.InDelta(t, multiHarmonicEnergy(mh, phi), rbEnergy(rb, phi), 1e-9)
	}
	back, err := Convert(4, rb, "RB", "multi/harmonic")
	require.NoError(t, err)
	assert.InDeltaMapValues(t, mh, back, 1e-12)

	//harmonic -> charmmfsw goes through RB
	h := map[string]float64{"K": 2, "d": -1, "n": 3}
	c, err := Convert(4, h, "harmonic", "charmmfsw")
	require.NoError(t, err)
	assert.InDelta(t, 2, c["K"], 1e-12)
	assert.InDelta(t, 3, c["n"], 1e-12)
	assert.InDelta(t, math.Pi, c["d"], 1e-12)

	_, err = Convert(4, map[string]float64{"K": 2, "d": 0.5, "n": 3}, "harmonic", "RB")
	assert.ErrorIs(t, err, goff.ErrValue)

	//OPLS to multi/harmonic, both non-canonical
	opls := map[string]float64{"K_1": 1.411, "K_2": -0.271, "K_3": 3.145, "K_4": 0.5}
	mh, err = Convert(4, opls, "opls", "multi/harmonic")
	require.NoError(t, err)
	for _, phi := range grid() {
		assert.InDelta(t, oplsEnergy(opls, phi), multiHarmonicEnergy(mh, phi), 1e-9)
	}
}

func TestBondedConversions(t *testing.T) {
	in := map[string]float64{"K": 300, "R0": 1.5}
	c2, err := Convert("bond", in, "harmonic", "class2")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"K2": 300, "K3": 0, "K4": 0, "R0": 1.5}, c2)

	cub, err := Convert(2, in, "harmonic", "cubic")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cub["K_cub"])

	same, err := Convert(2, in, "harmonic", "harmonic")
	require.NoError(t, err)
	assert.Equal(t, in, same)

	c2["K4"] = 1
	_, err = Convert(2, c2, "class2", "harmonic")
	assert.ErrorIs(t, err, goff.ErrValue)

	_, err = Convert(2, in, "harmonic", "morse")
	assert.ErrorIs(t, err, goff.ErrKey)
	_, err = Convert(2, map[string]float64{"K": 1}, "harmonic", "class2")
	assert.ErrorIs(t, err, goff.ErrKey)
	_, err = Convert(2, nil, "harmonic", "class2")
	assert.ErrorIs(t, err, goff.ErrType)

	ub, err := Convert(3, map[string]float64{"K": 1, "theta0": 2}, "harmonic", "urey_bradley")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ub["K_ub"])
	ub["K_ub"] = 5
	_, err = Convert(3, ub, "urey_bradley", "harmonic")
	assert.ErrorIs(t, err, goff.ErrValue)

	names, err := Registered(4)
	require.NoError(t, err)
	assert.Contains(t, names, "RB_to_opls")
}

func TestLJModels(t *testing.T) {
	es := map[string]float64{"epsilon": 0.5, "sigma": 3.2}
	ab, err := ConvertLJ(es, "epsilon/sigma", "AB")
	require.NoError(t, err)
	assert.InDelta(t, 4*0.5*math.Pow(3.2, 12), ab["A"], 1e-3)
	assert.InDelta(t, 4*0.5*math.Pow(3.2, 6), ab["B"], 1e-9)

	rmin, err := ConvertLJ(es, "epsilon/sigma", "epsilon/Rmin")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rmin["epsilon"], 1e-12)
	assert.InDelta(t, 3.2*math.Pow(2, 1.0/6.0), rmin["Rmin"], 1e-12)

	back, err := ConvertLJ(rmin, "epsilon/Rmin", "epsilon/sigma")
	require.NoError(t, err)
	assert.InDeltaMapValues(t, es, back, 1e-12)

	zero, err := ConvertLJ(map[string]float64{"A": 0, "B": 0}, "AB", "epsilon/sigma")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"epsilon": 0, "sigma": 0}, zero)

	_, err = ConvertLJ(map[string]float64{"A": 1, "B": 0}, "AB", "epsilon/sigma")
	assert.ErrorIs(t, err, goff.ErrValue)
	_, err = ConvertLJ(map[string]float64{"A": 0, "B": 1}, "", "epsilon/Rmin")
	assert.ErrorIs(t, err, goff.ErrValue)
	_, err = ConvertLJ(es, "epsilon/sigma", "C6/C12")
	assert.ErrorIs(t, err, goff.ErrKey)
}

func TestMixLJ(t *testing.T) {
	a := map[string]float64{"epsilon": 1, "sigma": 1}
	b := map[string]float64{"epsilon": 2, "sigma": 2}

	g, err := MixLJ(a, b, "geometric")
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, g["epsilon"], 1e-12)
	assert.InDelta(t, math.Sqrt2, g["sigma"], 1e-12)

	for _, rule := range []string{"lorentz_berthelot", "arithmetic"} {
		lb, err := MixLJ(a, b, rule)
		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt2, lb["epsilon"], 1e-12)
		assert.InDelta(t, 1.5, lb["sigma"], 1e-12)
	}

	//every rule leaves identical types alone
	for _, rule := range MixingRules() {
		s, err := MixLJ(b, b, rule)
		require.NoError(t, err)
		assert.InDelta(t, 2, s["epsilon"], 1e-9, rule)
		assert.InDelta(t, 2, s["sigma"], 1e-9, rule)
		//and is symmetric
		ab, _ := MixLJ(a, b, rule)
		ba, _ := MixLJ(b, a, rule)
		assert.InDeltaMapValues(t, ab, ba, 1e-12, rule)
	}

	sp, err := MixLJ(a, b, "sixth_power")
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(32.5, 1.0/6.0), sp["sigma"], 1e-12)
	assert.InDelta(t, 2*math.Sqrt2*8/65, sp["epsilon"], 1e-12)

	z, err := MixLJ(map[string]float64{"epsilon": 0, "sigma": 0}, map[string]float64{"epsilon": 0, "sigma": 0}, "sixth_power")
	require.NoError(t, err)
	assert.Equal(t, 0.0, z["sigma"])

	_, err = MixLJ(a, b, "custom")
	assert.ErrorIs(t, err, goff.ErrValue)
	_, err = MixLJ(a, b, "nope")
	assert.ErrorIs(t, err, goff.ErrValue)
	_, err = MixLJ(a, map[string]float64{"epsilon": 1}, "geometric")
	assert.ErrorIs(t, err, goff.ErrKey)
}
