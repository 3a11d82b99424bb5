package top

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/rmera/goff"
	"github.com/rmera/goff/chemgraph"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/energy"
	"github.com/rmera/goff/forms"
	"github.com/rmera/goff/metadata"
	"github.com/rmera/goff/units"
	"go.uber.org/zap"
)

var sf = fmt.Sprintf

// Units of the GROMACS parameters of each supported function, per order.
// GROMACS harmonic potentials carry a 1/2 prefactor, which goes into the
// unit of the force constant.
var (
	ljUnits = map[string]string{"epsilon": "kJ/mol", "sigma": "nm"}

	bondUnits = map[string]map[string]string{
		"harmonic": {"K": "0.5 * kJ/mol/nm**2", "R0": "nm"},
		"cubic":    {"K": "kJ/mol/nm**2", "K_cub": "nm**-1", "R0": "nm"},
		"morse":    {"D": "kJ/mol", "alpha": "nm**-1", "R0": "nm"},
	}
	angleUnits = map[string]map[string]string{
		"harmonic":       {"K": "0.5 * kJ/mol/radian**2", "theta0": "degree"},
		"urey_bradley":   {"K": "0.5 * kJ/mol/radian**2", "theta0": "degree", "K_ub": "0.5 * kJ/mol/nm**2", "R_ub": "nm"},
		"cosine_squared": {"K": "0.5 * kJ/mol", "theta0": "degree"},
	}
	dihedralUnits = map[string]map[string]string{
		"charmmfsw": {"K": "kJ/mol", "n": "dimensionless", "d": "degree"},
		"RB":        {"A_0": "kJ/mol", "A_1": "kJ/mol", "A_2": "kJ/mol", "A_3": "kJ/mol", "A_4": "kJ/mol", "A_5": "kJ/mol"},
	}
)

// GROMACS function number and parameter order of each form.
type groFunc struct {
	number int
	params []string
}

var groFuncs = map[int]map[string]groFunc{
	metadata.Bond: {
		"harmonic": {1, []string{"R0", "K"}},
		"morse":    {3, []string{"R0", "D", "alpha"}},
		"cubic":    {4, []string{"R0", "K", "K_cub"}},
	},
	metadata.Angle: {
		"harmonic":       {1, []string{"theta0", "K"}},
		"cosine_squared": {2, []string{"theta0", "K"}},
		"urey_bradley":   {5, []string{"theta0", "K", "R_ub", "K_ub"}},
	},
	metadata.Dihedral: {
		"charmmfsw": {9, []string{"d", "K", "n"}},
		"RB":        {3, []string{"A_0", "A_1", "A_2", "A_3", "A_4", "A_5"}},
	},
}

var termUnits = map[int]map[string]map[string]string{
	metadata.Bond:     bondUnits,
	metadata.Angle:    angleUnits,
	metadata.Dihedral: dihedralUnits,
}

var sectionNames = map[int]string{
	metadata.Bond:     "bonds",
	metadata.Angle:    "angles",
	metadata.Dihedral: "dihedrals",
}

// Options control how a topology is written.
type Options struct {
	//DihedralForm is "charmmfsw" (the default), to write periodic
	//dihedrals (function 9), or "RB", to sum every dihedral acting on the
	//same four atoms into one Ryckaert-Bellemans term (function 3).
	DihedralForm string
	MoleculeName string
	Log          *zap.SugaredLogger
}

type groer interface {
	ToGro() (string, error)
}

func printGro[G ~[]E, E groer](r io.StringWriter, g G) error {
	for _, v := range g {
		m, e := v.ToGro()
		if e != nil {
			return e
		}
		_, e = r.WriteString(m)
		if e != nil {
			return e
		}
	}
	return nil
}

type atomType struct {
	Name           string
	Mass           float64
	Sigma, Epsilon float64
}

func (A atomType) ToGro() (string, error) {
	return sf("%-8s %4d %12.6f %10.6f  A  %.12e %.12e\n", A.Name, atomicNumber(A.Mass), A.Mass, 0.0, A.Sigma, A.Epsilon), nil
}

type ljPair struct {
	Names          [2]string
	Sigma, Epsilon float64
}

func (L ljPair) ToGro() (string, error) {
	return sf("%-8s %-8s 1  %.12e %.12e\n", L.Names[0], L.Names[1], L.Sigma, L.Epsilon), nil
}

type groAtom struct {
	Nr      int
	Type    string
	Resnr   int
	Residue string
	Name    string
	Charge  float64
	Mass    float64
}

func (A groAtom) ToGro() (string, error) {
	return sf("%6d %8s %6d %6s %6s %6d %14.10f %12.6f\n", A.Nr, A.Type, A.Resnr, A.Residue, A.Name, A.Nr, A.Charge, A.Mass), nil
}

type groTerm struct {
	Atoms  []int //1-based
	Func   int
	Params []float64
}

func (T groTerm) ToGro() (string, error) {
	r := make([]string, 0, len(T.Atoms)+len(T.Params)+1)
	for _, v := range T.Atoms {
		r = append(r, sf("%6d", v))
	}
	r = append(r, sf("%3d", T.Func))
	for i, v := range T.Params {
		if T.Func == 9 && i == 2 {
			//multiplicity
			r = append(r, sf("%d", int(math.Round(v))))
			continue
		}
		r = append(r, sf("%.12g", v))
	}
	return strings.Join(r, " ") + "\n", nil
}

type pair [2]int

func (P pair) ToGro() (string, error) {
	return sf("%6d %6d   1\n", P[0], P[1]), nil
}

// Write writes D as a GROMACS topology with a single molecule type that
// holds every atom. Lengths go in nm, energies in kJ/mol and angles in
// degrees. The non-bonded 1-2 and 1-3 interactions must be fully excluded
// (scaled by 0), as GROMACS does with nrexcl=3, and 1-4 pairs are written
// for every pair of atoms 3 bonds apart, scaled by fudgeLJ and fudgeQQ.
// Mixing rules other than Lorentz-Berthelot and geometric have no GROMACS
// combination rule, so all the pairs are written in [ nonbond_params ].
func Write(w io.Writer, D *datalayer.DataLayer, opts Options) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r, "top: writing GROMACS topology")
		}
	}()
	if D == nil {
		return fmt.Errorf("%w: nil datalayer", goff.ErrType)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.DihedralForm == "" {
		opts.DihedralForm = "charmmfsw"
	}
	if opts.DihedralForm != "charmmfsw" && opts.DihedralForm != "RB" {
		return fmt.Errorf("%w: dihedral form must be charmmfsw or RB, got %q", goff.ErrValue, opts.DihedralForm)
	}
	if opts.MoleculeName == "" {
		opts.MoleculeName = "MOL"
	}
	bw := bufio.NewWriter(w)

	atoms, typeOf, err := groAtoms(D)
	qerr(err)
	nr := make(map[int]int, len(atoms))
	for i, ai := range D.AtomIndices() {
		nr[ai] = i + 1
	}
	types, names, err := groTypes(D, atoms, typeOf)
	qerr(err)
	comb, pairs, err := groPairs(D, names)
	qerr(err)
	fudgeLJ, fudgeQQ, err := fudges(D)
	qerr(err)

	ws := func(s string) {
		_, err := bw.WriteString(s)
		qerr(err)
	}
	ws("; written by goFF\n\n[ defaults ]\n; nbfunc  comb-rule  gen-pairs  fudgeLJ  fudgeQQ\n")
	ws(sf("  1  %d  yes  %.10g  %.10g\n", comb, fudgeLJ, fudgeQQ))
	ws("\n[ atomtypes ]\n; name  at.num  mass  charge  ptype  sigma  epsilon\n")
	qerr(printGro(bw, types))
	if len(pairs) > 0 {
		ws("\n[ nonbond_params ]\n; i  j  func  sigma  epsilon\n")
		qerr(printGro(bw, pairs))
	}
	ws(sf("\n[ moleculetype ]\n; name  nrexcl\n%s  3\n", opts.MoleculeName))
	ws("\n[ atoms ]\n;   nr     type  resnr    res   atom   cgnr         charge         mass\n")
	qerr(printGro(bw, atoms))

	for _, o := range []int{metadata.Bond, metadata.Angle, metadata.Dihedral} {
		terms, err := groTerms(D, o, nr, opts)
		qerr(err)
		if len(terms) == 0 {
			continue
		}
		ws(sf("\n[ %s ]\n", sectionNames[o]))
		qerr(printGro(bw, terms))
		if o != metadata.Bond || (fudgeLJ == 0 && fudgeQQ == 0) {
			continue
		}
		g, err := chemgraph.FromDataLayer(D)
		qerr(err)
		var p14 []pair
		for _, p := range g.Pairs().P14 {
			p14 = append(p14, pair{nr[p[0]], nr[p[1]]})
		}
		if len(p14) > 0 {
			ws("\n[ pairs ]\n")
			qerr(printGro(bw, p14))
		}
	}
	name := D.Name
	if name == "" {
		name = opts.MoleculeName
	}
	ws(sf("\n[ system ]\n%s\n\n[ molecules ]\n%s  1\n", name, opts.MoleculeName))
	opts.Log.Infow("wrote GROMACS topology", "atoms", len(atoms), "atom_types", len(types), "nonbond_params", len(pairs), "combination_rule", comb)
	return bw.Flush()
}

func typeName(D *datalayer.DataLayer, t int) string {
	if n, err := D.AtomTypeName(t); err == nil && n != "" {
		return n
	}
	return sf("T%d", t)
}

// groAtoms returns the [ atoms ] lines and the atom type of each one.
func groAtoms(D *datalayer.DataLayer) ([]groAtom, []int, error) {
	T, err := D.GetAtoms([]string{"atom_name", "atom_type", "charge", "mass", "residue_index", "residue_name"}, true, nil)
	if err != nil {
		return nil, nil, err
	}
	atoms := make([]groAtom, 0, T.Len())
	types := make([]int, 0, T.Len())
	for i, row := range T.Rows {
		a := groAtom{Nr: i + 1, Name: sf("A%d", i+1), Resnr: 1, Residue: "UNK"}
		if row[2] == nil {
			return nil, nil, fmt.Errorf("%w: atom %v has no atom type", goff.ErrKey, row[0])
		}
		t := row[2].(int)
		a.Type = typeName(D, t)
		if row[1] != nil {
			a.Name = row[1].(string)
		}
		if row[3] != nil {
			a.Charge = row[3].(float64)
		}
		if row[4] != nil {
			a.Mass = row[4].(float64)
		}
		if row[5] != nil {
			a.Resnr = row[5].(int) + 1
		}
		if row[6] != nil {
			a.Residue = row[6].(string)
		}
		atoms = append(atoms, a)
		types = append(types, t)
	}
	return atoms, types, nil
}

func groTypes(D *datalayer.DataLayer, atoms []groAtom, typeOf []int) ([]atomType, map[int]string, error) {
	singles, err := D.ListNBParameters(metadata.LJ, "epsilon/sigma", "single", ljUnits)
	if err != nil {
		return nil, nil, err
	}
	mass := make(map[int]float64)
	for i, t := range typeOf {
		if _, ok := mass[t]; !ok {
			mass[t] = atoms[i].Mass
		}
	}
	names := make(map[int]string, len(mass))
	seen := make(map[string]int, len(mass))
	ret := make([]atomType, 0, len(mass))
	for _, t := range slices.Sorted(maps.Keys(mass)) {
		p, ok := singles[datalayer.Single(t)]
		if !ok {
			return nil, nil, fmt.Errorf("%w: atom type %d has no Lennard-Jones parameters", goff.ErrKey, t)
		}
		n := typeName(D, t)
		if other, ok := seen[n]; ok {
			return nil, nil, fmt.Errorf("%w: atom types %d and %d are both named %s", goff.ErrValue, other, t, n)
		}
		seen[n] = t
		names[t] = n
		ret = append(ret, atomType{Name: n, Mass: mass[t], Sigma: p["sigma"], Epsilon: p["epsilon"]})
	}
	return ret, names, nil
}

// groPairs returns the combination rule and the [ nonbond_params ] lines.
func groPairs(D *datalayer.DataLayer, names map[int]string) (int, []ljPair, error) {
	nm, err := units.ConversionFactor("[length]", "nm")
	if err != nil {
		return 0, nil, err
	}
	comb := 2
	all := true
	switch D.MixingRule() {
	case "lorentz_berthelot", "arithmetic":
		all = false
	case "geometric":
		comb = 3
		all = false
	}
	types := slices.Sorted(maps.Keys(names))
	var ret []ljPair
	for i, a := range types {
		for _, b := range types[i+1:] {
			if !all && !D.IsExplicit(datalayer.Pair(a, b)) {
				continue
			}
			form, ab, err := energy.PairParameters(D, a, b)
			if err != nil {
				return 0, nil, err
			}
			if form != metadata.LJ {
				return 0, nil, fmt.Errorf("%w: only Lennard-Jones pairs can be written, types %d and %d have %s", goff.ErrValue, a, b, form)
			}
			es, err := forms.ConvertLJ(ab, "AB", "epsilon/sigma")
			if err != nil {
				return 0, nil, fmt.Errorf("types %d and %d: %w", a, b, err)
			}
			ret = append(ret, ljPair{Names: [2]string{names[a], names[b]}, Sigma: es["sigma"] * nm, Epsilon: es["epsilon"]})
		}
	}
	return comb, ret, nil
}

func fudges(D *datalayer.DataLayer) (float64, float64, error) {
	var f [2]float64
	for i, kind := range []string{"vdw", "coul"} {
		s, err := D.NBScaling(kind)
		if err != nil {
			return 0, 0, err
		}
		if s["scale12"] != 0 || s["scale13"] != 0 {
			return 0, 0, fmt.Errorf("%w: GROMACS topologies exclude 1-2 and 1-3 interactions, %s scaling is %g and %g", goff.ErrValue, kind, s["scale12"], s["scale13"])
		}
		f[i] = s["scale14"]
	}
	return f[0], f[1], nil
}

// groParams returns the GROMACS line of a parameter set. Forms without a
// GROMACS function are converted to an equivalent form that has one,
// when possible.
func groParams(D *datalayer.DataLayer, order, uid int, form string, candidates ...string) (groTerm, string, error) {
	try := append([]string{form}, candidates...)
	var lastErr error
	for _, f := range try {
		gf, ok := groFuncs[order][f]
		if !ok {
			continue
		}
		p, err := D.ConvertTermParameter(order, uid, f, termUnits[order][f])
		if err != nil {
			lastErr = err
			continue
		}
		t := groTerm{Func: gf.number, Params: make([]float64, len(gf.params))}
		for i, k := range gf.params {
			t.Params[i] = p[k]
		}
		return t, f, nil
	}
	if lastErr != nil {
		return groTerm{}, "", fmt.Errorf("%w: %s parameters %d can't be written as a GROMACS function: %w", goff.ErrValue, form, uid, lastErr)
	}
	return groTerm{}, "", fmt.Errorf("%w: no GROMACS function for %s parameters of order %d", goff.ErrValue, form, order)
}

func groTerms(D *datalayer.DataLayer, order int, nr map[int]int, opts Options) ([]groTerm, error) {
	terms, err := D.Terms(order)
	if err != nil {
		return nil, err
	}
	uidForms, err := D.ListTermParameters(order)
	if err != nil {
		return nil, err
	}
	var candidates []string
	switch order {
	case metadata.Bond:
		candidates = []string{"harmonic", "cubic"}
	case metadata.Angle:
		candidates = []string{"harmonic"}
	case metadata.Dihedral:
		candidates = []string{"charmmfsw", "RB"}
		if opts.DihedralForm == "RB" {
			candidates = []string{"RB", "charmmfsw"}
		}
	}
	cache := make(map[int]groTerm)
	used := make(map[int]string)
	ret := make([]groTerm, 0, len(terms))
	rbAt := make(map[[4]int]int) //atoms -> position in ret of their summed RB term
	for _, t := range terms {
		g, ok := cache[t.UID]
		if !ok {
			form := uidForms[t.UID]
			if order == metadata.Dihedral {
				form = candidates[0]
			}
			var f string
			if g, f, err = groParams(D, order, t.UID, form, candidates...); err != nil {
				return nil, fmt.Errorf("term %d: %w", t.Index, err)
			}
			cache[t.UID] = g
			used[t.UID] = f
			if f != uidForms[t.UID] {
				opts.Log.Debugw("converted parameters", "order", order, "uid", t.UID, "from", uidForms[t.UID], "to", f)
			}
		}
		g.Atoms = make([]int, len(t.Atoms))
		for i, a := range t.Atoms {
			g.Atoms[i] = nr[a]
		}
		if order == metadata.Dihedral && opts.DihedralForm == "RB" {
			if used[t.UID] != "RB" {
				opts.Log.Warnw("dihedral has no Ryckaert-Bellemans equivalent, written as a periodic one", "term", t.Index)
			} else {
				key := [4]int(t.Atoms)
				if i, ok := rbAt[key]; ok {
					ret[i].Params = sumRB(ret[i].Params, g.Params)
					continue
				}
				rbAt[key] = len(ret)
				g.Params = slices.Clone(g.Params)
			}
		}
		ret = append(ret, g)
	}
	return ret, nil
}

func sumRB(a, b []float64) []float64 {
	ma := make(map[string]float64, len(a))
	mb := make(map[string]float64, len(b))
	keys := groFuncs[metadata.Dihedral]["RB"].params
	for i, k := range keys {
		ma[k], mb[k] = a[i], b[i]
	}
	s := forms.SumRB(ma, mb)
	ret := make([]float64, len(keys))
	for i, k := range keys {
		ret[i] = s[k]
	}
	return ret
}
