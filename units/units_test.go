package units

import (
	"math"
	"testing"

	"github.com/rmera/goff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionFactor(t *testing.T) {
	tests := []struct {
		msg, from, to string
		want          float64
	}{
		{"prefactor", "2*meter", "meter", 2},
		{"prefactor spaced", "0.5 * angstrom", "angstrom", 0.5},
		{"nm to A", "nanometer", "angstrom", 10},
		{"kcal to kJ", "kcal/mol", "kJ/mol", 4.184},
		{"degree", "degree", "radian", math.Pi / 180},
		{"force constant", "kcal/mol/angstrom**2", "kJ * mol ** -1 * nm ** -2", 418.4},
		{"caret", "kcal mol^-1 Å^-2", "kcal/mol/angstrom**2", 1},
		{"plural", "angstroms", "nm", 0.1},
		{"amber charge", "e / 18.2223", "e", 1 / 18.2223},
		{"context", "[energy]", "kJ/mol", 1},
		{"context pow", "[energy] * [length] ** -2", "kJ/mol/angstrom**2", 1},
		{"scientific", "1e-3 * kg", "gram", 1},
		{"dalton", "kDa", "amu", 1000},
		{"picosecond", "ps", "fs", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			f, err := ConversionFactor(tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, f, 1e-9*math.Max(1, math.Abs(tt.want)))
		})
	}
}

func TestConversionRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"kcal/mol", "kJ/mol"},
		{"hartree", "eV"},
		{"bohr", "nm"},
		{"0.5 * kJ/mol/nm**2", "kcal/mol/angstrom**2"},
		{"degree**-2", "radian**-2"},
		{"amu * angstrom**2 / ps**2", "kJ/mol * mol"},
	}
	for _, p := range pairs {
		a, err := ConversionFactor(p[0], p[1])
		require.NoError(t, err)
		b, err := ConversionFactor(p[1], p[0])
		require.NoError(t, err)
		assert.InDelta(t, 1, a*b, 1e-12, "%s <-> %s", p[0], p[1])
	}
}

func TestConversionErrors(t *testing.T) {
	_, err := ConversionFactor("meter", "second")
	assert.ErrorIs(t, err, goff.ErrValue)

	_, err = ConversionFactor("[nonsense]", "meter")
	assert.ErrorIs(t, err, goff.ErrKey)

	_, err = ConversionFactor("furlong", "meter")
	assert.ErrorIs(t, err, goff.ErrKey)

	_, err = ConversionFactor("kJ ** mol", "kJ")
	assert.ErrorIs(t, err, goff.ErrType)

	_, err = ConversionFactor("(kJ", "kJ")
	assert.ErrorIs(t, err, goff.ErrType)

	_, err = ConversionFactor("", "kJ")
	assert.ErrorIs(t, err, goff.ErrType)
}

func TestConvertContexts(t *testing.T) {
	q, err := ConvertContexts("[energy]")
	require.NoError(t, err)
	kjmol, err := Parse("kJ/mol")
	require.NoError(t, err)
	assert.True(t, q.Compatible(kjmol))
	assert.InDelta(t, kjmol.Value, q.Value, 1e-12)

	s, err := SubstituteContexts("[energy] * [ length ] ** -2")
	require.NoError(t, err)
	assert.Equal(t, "(kJ / mol) * (angstrom) ** -2", s)

	_, err = ConvertContexts("[energy] / [flux]")
	assert.ErrorIs(t, err, goff.ErrKey)
}

func TestConversionDict(t *testing.T) {
	from := map[string]string{"K": "kcal/mol", "R0": "nm"}
	to := map[string]string{"K": "kJ/mol", "R0": "angstrom"}
	d, err := ConversionDict(from, to)
	require.NoError(t, err)
	assert.InDelta(t, 4.184, d["K"], 1e-12)
	assert.InDelta(t, 10, d["R0"], 1e-12)

	delete(to, "R0")
	_, err = ConversionDict(from, to)
	assert.ErrorIs(t, err, goff.ErrKey)
}

func TestContextsCopy(t *testing.T) {
	c := Contexts()
	c["[energy]"] = "hartree"
	f, err := ConversionFactor("[energy]", "kJ/mol")
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)
	assert.Contains(t, ContextNames(), "[arcunit]")
}
