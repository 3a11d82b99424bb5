package datalayer

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/rmera/goff"
	"github.com/rmera/goff/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermParameters(t *testing.T) {
	D := New("test", nil)
	uid, err := D.AddTermParameter(2, "harmonic", []float64{300, 1.5}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, uid)

	//same parameters, within tolerance, given differently
	uid, err = D.AddTermParameter("bond", "harmonic", map[string]any{"K": 300, "R0": 1.500000001}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, uid)

	uid, err = D.AddTermParameter(2, "harmonic", []float64{300, 0.15}, map[string]string{"K": "kJ/mol/angstrom**2", "R0": "nm"})
	require.NoError(t, err)
	assert.Equal(t, 0, uid)

	uid, err = D.AddTermParameter(2, "harmonic", []float64{100, 1.0}, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, uid)
	uid, err = D.AddTermParameter(2, "morse", []float64{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, uid)

	_, err = D.AddTermParameter(2, "harmonic", []float64{5, 5}, nil, 4)
	assert.ErrorIs(t, err, goff.ErrConflict)
	_, err = D.AddTermParameter(2, "harmonic", []float64{5}, nil)
	assert.ErrorIs(t, err, goff.ErrValue)
	_, err = D.AddTermParameter(5, "harmonic", []float64{5, 5}, nil)
	assert.ErrorIs(t, err, goff.ErrKey)
	uids, err := D.ListTermUIDs(2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 4}, uids)

	form, p, err := D.GetTermParameter(2, 0, map[string]string{"K": "kcal/mol/angstrom**2", "R0": "nm"})
	require.NoError(t, err)
	assert.Equal(t, "harmonic", form)
	assert.InDelta(t, 300/4.184, p["K"], 1e-9)
	assert.InDelta(t, 0.15, p["R0"], 1e-12)
	_, _, err = D.GetTermParameter(2, 7, nil)
	assert.ErrorIs(t, err, goff.ErrKey)

	c2, err := D.ConvertTermParameter(2, 0, "class2", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"K2": 300, "K3": 0, "K4": 0, "R0": 1.5}, c2)
	_, err = D.ConvertTermParameter(2, 1, "harmonic", nil)
	assert.ErrorIs(t, err, goff.ErrKey)

	forms, err := D.ListTermParameters(2)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "harmonic", 1: "morse", 4: "harmonic"}, forms)

	//dihedral parameters in degrees come out in radians
	uid, err = D.AddTermParameter(4, "charmmfsw", map[string]float64{"K": 1, "n": 2, "d": 180}, map[string]string{"K": "kcal/mol", "n": "dimensionless", "d": "degree"})
	require.NoError(t, err)
	_, p, err = D.GetTermParameter(4, uid, nil)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, p["d"], 1e-12)
	assert.InDelta(t, 4.184, p["K"], 1e-12)
}

func atomTable(t *testing.T) *storage.Table {
	T := storage.NewTable("atom_index", "atom_name", "charge", "atom_type", "X", "Y", "Z")
	require.NoError(t, T.Append(0, "C1", 0.5, 1, 0.0, 0.0, 0.0))
	require.NoError(t, T.Append(1, "H1", -0.25, 2, 1.0, 0.0, 0.0))
	require.NoError(t, T.Append(2, "H2", -0.25, 2, 0.0, 1.0, 0.0))
	require.NoError(t, T.Append(3, "H3", nil, 2, 0.0, 0.0, 1.0))
	return T
}

func TestAtoms(t *testing.T) {
	D := New("test", nil)
	require.NoError(t, D.AddAtoms(atomTable(t), map[string]string{"xyz": "nm"}))
	assert.Equal(t, 4, D.AtomCount())

	T, err := D.GetAtoms([]string{"charge", "xyz"}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"atom_index", "charge", "X", "Y", "Z"}, T.Columns)
	//the two -0.25 charges share a uid
	assert.Equal(t, T.Rows[1][1], T.Rows[2][1])
	assert.Nil(t, T.Rows[3][1])
	assert.InDelta(t, 10.0, T.Rows[1][2], 1e-12)

	T, err = D.GetAtoms([]string{"charge", "xyz"}, true, map[string]string{"xyz": "nm"})
	require.NoError(t, err)
	assert.Equal(t, -0.25, T.Rows[1][1])
	assert.InDelta(t, 1.0, T.Rows[1][2], 1e-12)

	v, err := D.AtomParameter("atom_name", 0)
	require.NoError(t, err)
	assert.Equal(t, "C1", v)

	//adding a property to atoms that lack it is fine, repeating one is not
	more := storage.NewTable("atom_index", "charge")
	require.NoError(t, more.Append(3, 0.0))
	require.NoError(t, D.AddAtoms(more, nil))
	bad := storage.NewTable("atom_index", "charge", "mass")
	require.NoError(t, bad.Append(4, 0.0, 1.0))
	require.NoError(t, bad.Append(3, 0.1, 1.0))
	assert.ErrorIs(t, D.AddAtoms(bad, nil), goff.ErrKey)
	//nothing was added
	assert.Equal(t, 4, D.AtomCount())

	unknown := storage.NewTable("atom_index", "spin")
	assert.ErrorIs(t, D.AddAtoms(unknown, nil), goff.ErrKey)
	partial := storage.NewTable("atom_index", "X", "Y")
	assert.ErrorIs(t, D.AddAtoms(partial, nil), goff.ErrKey)
	noindex := storage.NewTable("charge")
	assert.ErrorIs(t, D.AddAtoms(noindex, nil), goff.ErrKey)
}

func TestTerms(t *testing.T) {
	D := New("test", nil)
	T := storage.NewTable("term_index", "atom1", "atom2", "term_name", "K", "R0", "D", "alpha")
	require.NoError(t, T.Append(0, 0, 1, "harmonic", 300.0, 1.0, nil, nil))
	require.NoError(t, T.Append(1, 0, 2, "harmonic", 300.0, 1.0, nil, nil))
	require.NoError(t, T.Append(2, 0, 3, "morse", nil, 1.0, 100.0, 2.0))
	require.NoError(t, D.AddTerms(2, T, nil))
	n, err := D.TermCount(2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	uids, _ := D.ListTermUIDs(2)
	assert.Equal(t, []int{0, 1}, uids)

	byUID := storage.NewTable("term_index", "atom1", "atom2", "term_uid")
	require.NoError(t, byUID.Append(3, 1, 2, 1))
	require.NoError(t, D.AddTerms("bonds", byUID, nil))

	got, err := D.GetTerms(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"term_index", "atom1", "atom2", "term_uid"}, got.Columns)
	assert.Equal(t, []any{3, 1, 2, 1}, got.Rows[3])

	//errors leave everything as it was
	bad := storage.NewTable("term_index", "atom1", "atom2", "term_uid")
	require.NoError(t, bad.Append(4, 1, 2, 0))
	require.NoError(t, bad.Append(5, 1, 2, 9))
	assert.ErrorIs(t, D.AddTerms(2, bad, nil), goff.ErrKey)
	dup := storage.NewTable("term_index", "atom1", "atom2", "term_uid")
	require.NoError(t, dup.Append(0, 1, 2, 0))
	assert.ErrorIs(t, D.AddTerms(2, dup, nil), goff.ErrKey)
	missing := storage.NewTable("term_index", "atom1", "atom2", "term_name", "K")
	require.NoError(t, missing.Append(6, 1, 2, "harmonic", 1.0))
	assert.ErrorIs(t, D.AddTerms(2, missing, nil), goff.ErrKey)
	n, _ = D.TermCount(2)
	assert.Equal(t, 4, n)

	terms, err := D.Terms(2)
	require.NoError(t, err)
	assert.Equal(t, Term{Index: 2, Atoms: []int{0, 3}, UID: 1}, terms[2])
}

func TestNonBonded(t *testing.T) {
	D := New("test", nil)
	es := map[string]string{"epsilon": "kJ/mol", "sigma": "angstrom"}
	require.NoError(t, D.AddNBParameter(0, "LJ", "epsilon/sigma", map[string]float64{"epsilon": 1, "sigma": 1}, es))
	require.NoError(t, D.AddNBParameter(1, "LJ", "epsilon/sigma", []float64{2, 2}, nil))

	p, err := D.GetNBParameter(0, "AB")
	require.NoError(t, err)
	assert.InDelta(t, 4, p["A"], 1e-12)
	assert.InDelta(t, 4, p["B"], 1e-12)

	_, err = D.GetNBParameter(0, "epsilon/sigma", 1)
	assert.ErrorIs(t, err, goff.ErrKey)

	assert.ErrorIs(t, D.MixLJParameters(0, 1, ""), goff.ErrValue)
	require.NoError(t, D.MixLJParameters(1, 0, "geometric"))
	p, err = D.GetNBParameter(0, "epsilon/sigma", 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, p["epsilon"], 1e-12)
	assert.InDelta(t, math.Sqrt2, p["sigma"], 1e-12)
	p2, err := D.GetNBParameter(1, "epsilon/sigma", 0)
	require.NoError(t, err)
	assert.Equal(t, p, p2)
	assert.ErrorIs(t, D.MixLJParameters(0, 7, "geometric"), goff.ErrKey)

	//an explicit pair survives the mixing table
	require.NoError(t, D.AddNBParameter(1, "LJ", "epsilon/sigma", []float64{5, 5}, nil, 1))
	require.NoError(t, D.SetMixingRule("lorentz_berthelot"))
	require.NoError(t, D.BuildMixingTable())
	p, err = D.GetNBParameter(1, "epsilon/sigma", 1)
	require.NoError(t, err)
	assert.InDelta(t, 5, p["epsilon"], 1e-9)
	p, err = D.GetNBParameter(0, "epsilon/sigma", 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, p["sigma"], 1e-12)
	assert.True(t, D.IsExplicit(Pair(1, 1)))
	assert.False(t, D.IsExplicit(Pair(0, 1)))

	m, types, err := D.PairMatrix("epsilon/sigma", "sigma")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, types)
	assert.InDelta(t, 1.5, m.At(1, 0), 1e-12)
	assert.InDelta(t, 5, m.At(1, 1), 1e-9)

	singles, err := D.ListNBParameters("LJ", "epsilon/sigma", "single", map[string]string{"epsilon": "kcal/mol", "sigma": "nm"})
	require.NoError(t, err)
	assert.Len(t, singles, 2)
	assert.InDelta(t, 0.2, singles[Single(1)]["sigma"], 1e-12)
	pairs, err := D.ListNBParameters("LJ", "", "pair", nil)
	require.NoError(t, err)
	assert.Len(t, pairs, 3)
	_, err = D.ListNBParameters("LJ", "", "triple", nil)
	assert.ErrorIs(t, err, goff.ErrValue)

	require.NoError(t, D.AddNBParameter(2, "Buckingham", "", []float64{1, 2, 3}, nil))
	assert.ErrorIs(t, D.MixLJParameters(2, 0, "geometric"), goff.ErrValue)
	require.NoError(t, D.SetMixingRule("custom"))
	assert.ErrorIs(t, D.BuildMixingTable(), goff.ErrValue)
	assert.ErrorIs(t, D.AddNBParameter(-1, "LJ", "", []float64{1, 1}, nil), goff.ErrValue)
	//stored as given, but it has no epsilon/sigma equivalent
	require.NoError(t, D.AddNBParameter(3, "LJ", "", []float64{1, 0}, nil))
	_, err = D.GetNBParameter(3, "epsilon/sigma")
	assert.ErrorIs(t, err, goff.ErrValue)
}

func TestNBPairKeySymmetry(t *testing.T) {
	D := New("test", nil)
	require.NoError(t, D.AddNBParameter(2, "LJ", "epsilon/sigma", []float64{1, 3}, nil, 1))
	assert.Equal(t, []NBKey{Pair(1, 2)}, D.NBKeys())
	assert.Equal(t, NBKey{A: 1, B: 2, Pair: true}, Pair(2, 1))
	assert.True(t, D.IsExplicit(Pair(1, 2)))
	p12, err := D.GetNBParameter(1, "epsilon/sigma", 2)
	require.NoError(t, err)
	p21, err := D.GetNBParameter(2, "epsilon/sigma", 1)
	require.NoError(t, err)
	assert.Equal(t, p12, p21)
	assert.InDelta(t, 3, p12["sigma"], 1e-12)

	//the same pair given the other way round replaces the entry
	require.NoError(t, D.AddNBParameter(1, "LJ", "epsilon/sigma", []float64{2, 3}, nil, 2))
	assert.Len(t, D.NBKeys(), 1)
	p21, err = D.GetNBParameter(2, "epsilon/sigma", 1)
	require.NoError(t, err)
	assert.InDelta(t, 2, p21["epsilon"], 1e-12)
}

func TestSystem(t *testing.T) {
	D := New("test", nil)
	assert.ErrorIs(t, D.SetMixingRule("nope"), goff.ErrValue)
	require.NoError(t, D.SetNBScaling("coul", map[string]float64{"scale14": 1 / 1.2}))
	s, err := D.NBScaling("coul")
	require.NoError(t, err)
	assert.InDelta(t, 0.8333333, s["scale14"], 1e-6)
	assert.Equal(t, 0.0, s["scale12"])
	assert.ErrorIs(t, D.SetNBScaling("coul", map[string]float64{"scale15": 1}), goff.ErrKey)
	assert.ErrorIs(t, D.SetNBScaling("coul", map[string]float64{"scale14": 2}), goff.ErrValue)
	assert.ErrorIs(t, D.SetNBScaling("magnetic", nil), goff.ErrValue)

	require.NoError(t, D.SetBoxSize(map[string]float64{"a": 3, "alpha": 90}, map[string]string{"a": "nm", "alpha": "degree"}))
	b, err := D.BoxSize(nil)
	require.NoError(t, err)
	assert.InDelta(t, 30, b["a"], 1e-12)
	assert.InDelta(t, math.Pi/2, b["alpha"], 1e-12)
	assert.ErrorIs(t, D.SetBoxSize(map[string]float64{"d": 1}, nil), goff.ErrKey)

	require.NoError(t, D.SetBoundaryConditions(map[string]string{"x": "periodic"}))
	assert.ErrorIs(t, D.SetBoundaryConditions(map[string]string{"w": "periodic"}), goff.ErrKey)
	assert.ErrorIs(t, D.SetBoundaryConditions(map[string]string{"y": "open"}), goff.ErrValue)
	assert.Equal(t, map[string]string{"x": "periodic"}, D.BoundaryConditions())

	require.NoError(t, D.SetAtomTypeName(1, "CT"))
	n, err := D.AtomTypeName(1)
	require.NoError(t, err)
	assert.Equal(t, "CT", n)
	_, err = D.AtomTypeName(2)
	assert.ErrorIs(t, err, goff.ErrKey)
}

func filled(t *testing.T, B storage.Backend) *DataLayer {
	D := New("butane", B)
	require.NoError(t, D.AddAtoms(atomTable(t), nil))
	_, err := D.AddTermParameter(2, "harmonic", []float64{300, 1.5}, nil, 3)
	require.NoError(t, err)
	T := storage.NewTable("term_index", "atom1", "atom2", "term_uid")
	require.NoError(t, T.Append(0, 0, 1, 3))
	require.NoError(t, D.AddTerms(2, T, nil))
	_, err = D.AddTermParameter(4, "RB", []float64{1, 2, 3, 4, 5, 6}, nil)
	require.NoError(t, err)
	require.NoError(t, D.AddNBParameter(1, "LJ", "epsilon/sigma", []float64{1, 3}, nil))
	require.NoError(t, D.AddNBParameter(1, "LJ", "epsilon/sigma", []float64{1, 3.5}, nil, 2))
	require.NoError(t, D.SetMixingRule("geometric"))
	require.NoError(t, D.SetNBScaling("vdw", map[string]float64{"scale14": 0.5}))
	require.NoError(t, D.SetBoxSize(map[string]float64{"a": 20}, nil))
	require.NoError(t, D.SetBoundaryConditions(map[string]string{"z": "fixed"}))
	require.NoError(t, D.SetAtomTypeName(1, "CT"))
	return D
}

func checkLoaded(t *testing.T, D, L *DataLayer) {
	assert.Equal(t, D.ID, L.ID)
	assert.Equal(t, "butane", L.Name)
	want, err := D.GetAtoms(nil, true, nil)
	require.NoError(t, err)
	got, err := L.GetAtoms(nil, true, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	uids, _ := L.ListTermUIDs(2)
	assert.Equal(t, []int{3}, uids)
	wt, _ := D.GetTerms(2)
	gt, _ := L.GetTerms(2)
	assert.Equal(t, wt, gt)
	_, p, err := L.GetTermParameter(4, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 6.0, p["A_5"])

	assert.Equal(t, D.NBKeys(), L.NBKeys())
	assert.True(t, L.IsExplicit(Pair(1, 2)))
	assert.Equal(t, "geometric", L.MixingRule())
	s, _ := L.NBScaling("vdw")
	assert.Equal(t, 0.5, s["scale14"])
	b, _ := L.BoxSize(nil)
	assert.Equal(t, 20.0, b["a"])
	assert.Equal(t, "fixed", L.BoundaryConditions()["z"])
	n, _ := L.AtomTypeName(1)
	assert.Equal(t, "CT", n)
}

func TestSaveLoad(t *testing.T) {
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "butane.db"))
	require.NoError(t, err)
	defer db.Close()
	for name, B := range map[string]storage.Backend{"memory": storage.NewMemory(), "sqlite": db} {
		t.Run(name, func(t *testing.T) {
			D := filled(t, B)
			require.NoError(t, D.Save())
			L, err := Load(B)
			require.NoError(t, err)
			checkLoaded(t, D, L)
		})
	}

	D := filled(t, nil)
	require.NoError(t, D.Save())
	var buf bytes.Buffer
	require.NoError(t, storage.WriteArchive(&buf, D.Backend()))
	M, err := storage.ReadArchive(&buf)
	require.NoError(t, err)
	L, err := Load(M)
	require.NoError(t, err)
	checkLoaded(t, D, L)
}

func TestSaveRows(t *testing.T) {
	row, err := padded([]float64{1, 2}, 4)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, nil, nil}, row)
	_, err = padded([]float64{1, 2, 3}, 2)
	assert.ErrorIs(t, err, goff.ErrValue)

	D := filled(t, nil)
	S, err := D.settings()
	require.NoError(t, err)
	keys, err := S.Column("key")
	require.NoError(t, err)
	assert.Equal(t, []any{"id", "name"}, keys[:2])
	for _, r := range S.Rows {
		assert.Len(t, r, 3)
	}
}
