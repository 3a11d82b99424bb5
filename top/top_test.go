package top

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/goff"
	"github.com/rmera/goff/amber"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/energy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func butane(t *testing.T, prmtop string) *datalayer.DataLayer {
	t.Helper()
	D := datalayer.New("butane", nil)
	f, err := os.Open(filepath.Join("..", "amber", "testdata", prmtop))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, amber.ReadPrmtop(f, D, nil))
	c, err := os.Open(filepath.Join("..", "amber", "testdata", "butane.inpcrd"))
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, amber.ReadInpcrd(c, D, nil))
	return D
}

// roundTrip writes D as a GROMACS topology, reads it back and copies the
// coordinates over.
func roundTrip(t *testing.T, D *datalayer.DataLayer, opts Options) (*datalayer.DataLayer, string) {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, Write(&b, D, opts))
	D2 := datalayer.New("", nil)
	require.NoError(t, Read(strings.NewReader(b.String()), D2, ReadOptions{}))
	xyz, err := D.GetAtoms([]string{"xyz"}, true, nil)
	require.NoError(t, err)
	require.NoError(t, D2.AddAtoms(xyz, nil))
	return D2, b.String()
}

func TestEnergyRoundTrip(t *testing.T) {
	D := butane(t, "butane.prmtop")
	E, err := energy.System(D)
	require.NoError(t, err)

	for _, form := range []string{"charmmfsw", "RB"} {
		t.Run(form, func(t *testing.T) {
			D2, text := roundTrip(t, D, Options{DihedralForm: form, MoleculeName: "BUT"})
			assert.Contains(t, text, "[ pairs ]")
			assert.Contains(t, text, "CT"+strings.Repeat(" ", 10)+"6")
			assert.Contains(t, text, "HC"+strings.Repeat(" ", 10)+"1")
			assert.NotContains(t, text, "[ nonbond_params ]")
			assert.Equal(t, "butane", D2.Name)
			assert.Equal(t, "lorentz_berthelot", D2.MixingRule())
			E2, err := energy.System(D2)
			require.NoError(t, err)
			assert.InDelta(t, E.Bond, E2.Bond, 1e-8)
			assert.InDelta(t, E.Angle, E2.Angle, 1e-8)
			assert.InDelta(t, E.Dihedral, E2.Dihedral, 1e-8)
			assert.InDelta(t, E.VdW, E2.VdW, 1e-7)
			assert.InDelta(t, E.Coulomb, E2.Coulomb, 1e-7)

			n, err := D2.TermCount(4)
			require.NoError(t, err)
			if form == "RB" {
				//the two terms on atoms 1-4 are summed into one
				assert.Equal(t, 3, n)
				form, _, err := D2.GetTermParameter(4, 0, nil)
				require.NoError(t, err)
				assert.Equal(t, "RB", form)
			} else {
				assert.Equal(t, 4, n)
			}
			name, err := D2.AtomTypeName(2)
			require.NoError(t, err)
			assert.Equal(t, "HC", name)
		})
	}
}

func TestWriteExplicitPairs(t *testing.T) {
	D := butane(t, "butane_nbfix.prmtop")
	D2, text := roundTrip(t, D, Options{})
	assert.Contains(t, text, "[ nonbond_params ]")
	assert.True(t, D2.IsExplicit(datalayer.Pair(1, 2)))
	p, err := D.GetNBParameter(1, "AB", 2)
	require.NoError(t, err)
	p2, err := D2.GetNBParameter(1, "AB", 2)
	require.NoError(t, err)
	assert.InEpsilon(t, p["A"], p2["A"], 1e-9)
	assert.InEpsilon(t, p["B"], p2["B"], 1e-9)

	//a rule without a GROMACS combination rule writes every pair
	require.NoError(t, D.SetMixingRule("kong"))
	_, text = roundTrip(t, D, Options{})
	assert.Contains(t, text, "[ nonbond_params ]")
}

func TestWriteErrors(t *testing.T) {
	D := butane(t, "butane.prmtop")
	var b bytes.Buffer
	assert.ErrorIs(t, Write(&b, D, Options{DihedralForm: "opls"}), goff.ErrValue)
	require.NoError(t, D.SetNBScaling("vdw", map[string]float64{"scale13": 0.5}))
	assert.ErrorIs(t, Write(&b, D, Options{}), goff.ErrValue)
	assert.ErrorIs(t, Write(&b, nil, Options{}), goff.ErrType)
}

const water = `; TIP3P
[ defaults ]
; nbfunc comb-rule gen-pairs fudgeLJ fudgeQQ
1 2 yes 0.5 0.8333

#include "ff.itp"

[ moleculetype ]
SOL   2

[ atoms ]
1  OW  1  SOL  OW   1  -0.834  15.9994
2  HW  1  SOL  HW1  1   0.417
3  HW  1  SOL  HW2  1   0.417   1.008

#ifdef FLEXIBLE
[ bonds ]
1 2 1 0.09572 502416.0
1 3 1 0.09572 502416.0 ; O-H
[ angles ]
2 1 3 1 104.52 628.02
#else
[ settles ]
1 1 0.09572 0.15139
#endif

[ system ]
Two waters

[ molecules ]
SOL  2
`

const waterTypes = `[ atomtypes ]
OW  8  15.9994  0.0  A  3.15061e-01  6.36386e-01
HW  1  1.008    0.0  A  0.0          0.0
`

func TestRead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ff.itp"), []byte(waterTypes), 0o644))

	D := datalayer.New("", nil)
	err := Read(strings.NewReader(water), D, ReadOptions{Defines: []string{"FLEXIBLE"}, FollowIncludes: true, IncludeDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "Two waters", D.Name)
	assert.Equal(t, 6, D.AtomCount())
	T, err := D.GetAtoms([]string{"atom_name", "mass", "molecule_index", "residue_index"}, true, nil)
	require.NoError(t, err)
	names, _ := T.Column("atom_name")
	assert.Equal(t, []any{"OW", "HW1", "HW2", "OW", "HW1", "HW2"}, names)
	masses, _ := T.Column("mass")
	//the second atom takes the mass of its type
	assert.InDelta(t, 1.008, masses[1], 1e-12)
	mols, _ := T.Column("molecule_index")
	assert.Equal(t, []any{0, 0, 0, 1, 1, 1}, mols)
	res, _ := T.Column("residue_index")
	assert.Equal(t, []any{0, 0, 0, 1, 1, 1}, res)

	bonds, err := D.Terms(2)
	require.NoError(t, err)
	require.Len(t, bonds, 4)
	assert.Equal(t, []int{3, 5}, bonds[3].Atoms)
	assert.Equal(t, bonds[0].UID, bonds[3].UID)
	_, p, err := D.GetTermParameter(2, bonds[0].UID, nil)
	require.NoError(t, err)
	assert.InDelta(t, 502416.0/2/100, p["K"], 1e-9)
	assert.InDelta(t, 0.9572, p["R0"], 1e-12)
	n, err := D.TermCount(3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	vdw, err := D.NBScaling("vdw")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, vdw["scale14"], 1e-12)
	ow, err := D.GetNBParameter(1, "epsilon/sigma")
	require.NoError(t, err)
	assert.InDelta(t, 3.15061, ow["sigma"], 1e-9)
	assert.InDelta(t, 0.636386, ow["epsilon"], 1e-12)

	//without the define, the settles block is read and ignored
	D = datalayer.New("", nil)
	require.NoError(t, Read(strings.NewReader(water), D, ReadOptions{FollowIncludes: true, IncludeDir: dir}))
	n, err = D.TermCount(2)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReadErrors(t *testing.T) {
	head := "[ defaults ]\n1 2 yes 0.5 0.8333\n[ atomtypes ]\nC 12.01 0.0 A 0.3 0.4\n[ moleculetype ]\nM 3\n[ atoms ]\n1 C 1 RES C1 1 0.0\n2 C 1 RES C2 1 0.0\n"
	cases := []struct {
		name string
		top  string
		err  error
	}{
		{"bond without parameters", head + "[ bonds ]\n1 2 1\n", goff.ErrValue},
		{"unsupported function", head + "[ bonds ]\n1 2 7 0.1 0.2 0.3\n", goff.ErrValue},
		{"atom outside the molecule", head + "[ bonds ]\n1 3 1 0.1 1000\n", goff.ErrValue},
		{"bad number", head + "[ bonds ]\n1 2 1 0.1 x\n", goff.ErrType},
		{"unknown type", head + "3 O 1 RES O1 1 0.0\n[ molecules ]\nM 1\n", goff.ErrKey},
		{"unknown molecule", head + "[ molecules ]\nW 1\n", goff.ErrKey},
		{"unbalanced endif", head + "#endif\n", goff.ErrValue},
		{"types before defaults", "[ atomtypes ]\nC 12.01 0.0 A 0.3 0.4\n", goff.ErrValue},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Read(strings.NewReader(c.top), datalayer.New("", nil), ReadOptions{})
			assert.ErrorIs(t, err, c.err)
		})
	}
}

func TestCond(t *testing.T) {
	c := newCond([]string{"A"})
	lines := []string{"#ifdef A", "x", "#ifndef B", "y", "#else", "z", "#endif", "#else", "w", "#endif", "v"}
	var read []string
	for _, l := range lines {
		ok, err := c.read(l)
		require.NoError(t, err)
		if ok {
			read = append(read, l)
		}
	}
	assert.Equal(t, []string{"x", "y", "v"}, read)
}

func TestAtomicNumber(t *testing.T) {
	for mass, n := range map[float64]int{12.011: 6, 1.008: 1, 3.024: 1, 15.9994: 8, 32.06: 16, 0: 0, 200: 0} {
		assert.Equal(t, n, atomicNumber(mass), "mass %g", mass)
	}
}
