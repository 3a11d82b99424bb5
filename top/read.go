package top

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rmera/goff"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/metadata"
	"github.com/rmera/goff/storage"
	"github.com/rmera/goff/units"
	"go.uber.org/zap"
)

// ReadOptions control how a topology is read.
type ReadOptions struct {
	//Defines are the macros considered defined for #ifdef blocks.
	Defines []string
	//FollowIncludes makes #include statements open and read the included
	//files, relative to IncludeDir. Otherwise they are ignored.
	FollowIncludes bool
	IncludeDir     string
	Log            *zap.SugaredLogger
}

type readAtom struct {
	typ     string
	resnr   int
	residue string
	name    string
	charge  float64
	mass    float64
	hasMass bool
}

type readTerm struct {
	atoms  []int //0-based, within the molecule
	form   string
	params map[string]float64 //canonical units
}

type molType struct {
	name  string
	atoms []readAtom
	terms map[int][]readTerm
}

type molCount struct {
	name  string
	count int
}

// reader holds the state of a topology being read.
type reader struct {
	opts     ReadOptions
	header   string
	h        *topHeader
	c        *cond
	comb     int
	fudges   [2]float64
	defaults bool
	typeMass map[string]float64
	lj       []ljEntry
	mols     map[string]*molType
	molOrder []string
	cur      *molType
	system   string
	counts   []molCount
}

// Read reads a GROMACS topology into D. The sections written by Write
// are supported, plus any number of molecule types, which are replicated
// as [ molecules ] says. Atom types get integer ids, starting after the
// largest one D already names, in order of appearance, and their names
// are stored in D. Parameters must be given in the topology lines:
// bonded types sections ([ bondtypes ] and the like) are not supported.
// [ pairs ] lines are not needed, 1-4 pairs come from the bond graph and
// the fudge factors of [ defaults ] become the 1-4 scaling factors.
func Read(r io.Reader, D *datalayer.DataLayer, opts ReadOptions) error {
	if D == nil {
		return fmt.Errorf("%w: nil datalayer", goff.ErrType)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	R := &reader{
		opts:     opts,
		h:        newTopHeader(),
		c:        newCond(opts.Defines),
		typeMass: make(map[string]float64),
		mols:     make(map[string]*molType),
	}
	if err := R.read(bufio.NewReader(r)); err != nil {
		return fmt.Errorf("top: %w", err)
	}
	if err := R.fill(D); err != nil {
		return fmt.Errorf("top: %w", err)
	}
	return nil
}

func (R *reader) read(r *bufio.Reader) error {
	var err error
	var s string
	lineno := 0
	for {
		s, err = r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil
		lineno++
		s = cleanString(s)
		if s != "" {
			if perr := R.line(s); perr != nil {
				return fmt.Errorf("line %d (%s): %w", lineno, s, perr)
			}
		}
		if eof {
			return nil
		}
	}
}

func (R *reader) line(s string) error {
	ok, err := R.c.read(s)
	if err != nil || !ok {
		return err
	}
	if strings.HasPrefix(s, "#include") {
		return R.include(s)
	}
	if strings.HasPrefix(s, "#") {
		R.opts.Log.Debugw("ignoring preprocessor directive", "line", s)
		return nil
	}
	if R.h.Is(s) {
		R.header = R.h.Which(s)
		if R.header == "" {
			R.opts.Log.Warnw("unsupported section, ignored", "header", s)
		}
		return nil
	}
	switch R.header {
	case "defaults":
		return R.defaultsLine(s)
	case "atomtypes":
		return R.atomTypeLine(s)
	case "nonbond":
		return R.pairLine(s)
	case "moleculetype":
		f := fi(s)
		R.cur = &molType{name: f[0], terms: make(map[int][]readTerm)}
		if _, ok := R.mols[f[0]]; ok {
			return fmt.Errorf("%w: molecule type %s defined twice", goff.ErrKey, f[0])
		}
		R.mols[f[0]] = R.cur
		R.molOrder = append(R.molOrder, f[0])
	case "atoms":
		return R.atomLine(s)
	case "bonds":
		return R.termLine(s, metadata.Bond)
	case "angles":
		return R.termLine(s, metadata.Angle)
	case "dihedrals":
		return R.termLine(s, metadata.Dihedral)
	case "system":
		if R.system == "" {
			R.system = s
		}
	case "molecules":
		f := fi(s)
		if len(f) < 2 {
			return fmt.Errorf("%w: molecules line needs a name and a count", goff.ErrValue)
		}
		n, err := strconv.Atoi(f[1])
		if err != nil || n < 0 {
			return fmt.Errorf("%w: bad molecule count %q", goff.ErrType, f[1])
		}
		R.counts = append(R.counts, molCount{f[0], n})
	}
	return nil
}

// This should allow us to 'follow' include files. Probably a risky thing to use.
func (R *reader) include(s string) error {
	if !R.opts.FollowIncludes {
		R.opts.Log.Debugw("not following include", "line", s)
		return nil
	}
	f := fi(s)
	fname := strings.Trim(f[len(f)-1], "\"'<>")
	if !filepath.IsAbs(fname) {
		fname = filepath.Join(R.opts.IncludeDir, fname)
	}
	file, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("failed to include file %s: %w", fname, err)
	}
	defer file.Close()
	dir := R.opts.IncludeDir
	R.opts.IncludeDir = filepath.Dir(fname)
	defer func() { R.opts.IncludeDir = dir }()
	if err := R.read(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("included file %s: %w", fname, err)
	}
	return nil
}

func (R *reader) defaultsLine(s string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r, "defaults")
		}
	}()
	f := fi(s)
	if len(f) < 2 {
		qerr(fmt.Errorf("%w: defaults need at least nbfunc and comb-rule", goff.ErrValue))
	}
	v, err := parseints(f[:2]...)
	qerr(err)
	if v[0] != 1 {
		qerr(fmt.Errorf("%w: only Lennard-Jones (nbfunc 1) is supported, got %d", goff.ErrValue, v[0]))
	}
	if v[1] < 1 || v[1] > 3 {
		qerr(fmt.Errorf("%w: unknown combination rule %d", goff.ErrValue, v[1]))
	}
	R.comb = v[1]
	R.fudges = [2]float64{1, 1}
	if len(f) >= 3 && strings.ToLower(f[2]) == "no" {
		R.fudges = [2]float64{0, 0}
	} else if len(f) >= 5 {
		fu, err := parsefloats(f[3:5]...)
		qerr(err)
		R.fudges = [2]float64{fu[0], fu[1]}
	}
	R.defaults = true
	return nil
}

type ljEntry struct {
	names  [2]string //the second one is empty for atom types
	model  string
	params map[string]float64
	units  map[string]string
}

// parseLJ interprets the V and W columns of atom types and pairs.
func (R *reader) parseLJ(a, b, v, w string) (ljEntry, error) {
	p, err := parsefloats(v, w)
	if err != nil {
		return ljEntry{}, err
	}
	if R.comb == 1 {
		return ljEntry{[2]string{a, b}, "AB", map[string]float64{"B": p[0], "A": p[1]}, map[string]string{"A": "kJ/mol*nm**12", "B": "kJ/mol*nm**6"}}, nil
	}
	return ljEntry{[2]string{a, b}, "epsilon/sigma", map[string]float64{"sigma": p[0], "epsilon": p[1]}, ljUnits}, nil
}

// name [at.num] [bond_type] mass charge ptype V W
func (R *reader) atomTypeLine(s string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r, "atom type")
		}
	}()
	if !R.defaults {
		qerr(fmt.Errorf("%w: [ atomtypes ] before [ defaults ]", goff.ErrValue))
	}
	f := fi(s)
	n := len(f)
	if n < 6 {
		qerr(fmt.Errorf("%w: atom type line with %d fields", goff.ErrValue, n))
	}
	mass, err := parsefloats(f[n-5])
	qerr(err)
	if _, ok := R.typeMass[f[0]]; ok {
		qerr(fmt.Errorf("%w: atom type %s defined twice", goff.ErrKey, f[0]))
	}
	R.typeMass[f[0]] = mass[0]
	e, err := R.parseLJ(f[0], "", f[n-2], f[n-1])
	qerr(err)
	R.lj = append(R.lj, e)
	return nil
}

func (R *reader) pairLine(s string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r, "nonbond_params")
		}
	}()
	f := fi(s)
	if len(f) < 5 {
		qerr(fmt.Errorf("%w: nonbond_params line with %d fields", goff.ErrValue, len(f)))
	}
	if f[2] != "1" {
		qerr(fmt.Errorf("%w: only Lennard-Jones pairs (function 1) are supported, got %s", goff.ErrValue, f[2]))
	}
	e, err := R.parseLJ(f[0], f[1], f[3], f[4])
	qerr(err)
	R.lj = append(R.lj, e)
	return nil
}

// nr type resnr residue atom cgnr charge [mass]
func (R *reader) atomLine(s string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r, "atom")
		}
	}()
	if R.cur == nil {
		qerr(fmt.Errorf("%w: [ atoms ] outside of a molecule type", goff.ErrValue))
	}
	f := fi(s)
	if len(f) < 7 {
		qerr(fmt.Errorf("%w: atom line with %d fields", goff.ErrValue, len(f)))
	}
	ints, err := parseints(f[0], f[2])
	qerr(err)
	if ints[0] != len(R.cur.atoms)+1 {
		qerr(fmt.Errorf("%w: atom number %d out of sequence, expected %d", goff.ErrValue, ints[0], len(R.cur.atoms)+1))
	}
	a := readAtom{typ: f[1], resnr: ints[1], residue: f[3], name: f[4]}
	q, err := parsefloats(f[6:min(len(f), 8)]...)
	qerr(err)
	a.charge = q[0]
	if len(q) > 1 {
		a.mass = q[1]
		a.hasMass = true
	}
	R.cur.atoms = append(R.cur.atoms, a)
	return nil
}

// groForms maps a GROMACS function number to a form, per order.
var groForms = func() map[int]map[int]string {
	ret := make(map[int]map[int]string)
	for o, m := range groFuncs {
		ret[o] = make(map[int]string)
		for form, g := range m {
			ret[o][g.number] = form
		}
	}
	//proper and improper periodic dihedrals
	ret[metadata.Dihedral][1] = "charmmfsw"
	ret[metadata.Dihedral][4] = "charmmfsw"
	return ret
}()

// Returns a term containing the information in the GromacsTop-formatted
// string s: atom1 ... atomN function parameters...
func (R *reader) termLine(s string, order int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r, sectionNames[order])
		}
	}()
	if R.cur == nil {
		qerr(fmt.Errorf("%w: [ %s ] outside of a molecule type", goff.ErrValue, sectionNames[order]))
	}
	l := fi(s)
	if len(l) < order+1 {
		qerr(fmt.Errorf("%w: %s line with %d fields", goff.ErrValue, sectionNames[order], len(l)))
	}
	ids, err := parseints(l[:order+1]...)
	qerr(err)
	fn := ids[order]
	form, ok := groForms[order][fn]
	if !ok {
		qerr(fmt.Errorf("%w: %s function %d not supported", goff.ErrValue, sectionNames[order], fn))
	}
	gf := groFuncs[order][form]
	vals := l[order+1:]
	if len(vals) == 0 {
		qerr(fmt.Errorf("%w: %s without parameters, parameters from bonded types sections are not supported", goff.ErrValue, sectionNames[order]))
	}
	if len(vals) < len(gf.params) {
		qerr(fmt.Errorf("%w: %s function %d needs %d parameters, got %d", goff.ErrValue, sectionNames[order], fn, len(gf.params), len(vals)))
	}
	p, err := parsefloats(vals[:len(gf.params)]...)
	qerr(err)
	t := readTerm{atoms: make([]int, order), form: form, params: make(map[string]float64, len(p))}
	for i, a := range ids[:order] {
		if a < 1 || a > len(R.cur.atoms) {
			qerr(fmt.Errorf("%w: atom %d not in molecule %s", goff.ErrValue, a, R.cur.name))
		}
		t.atoms[i] = a - 1
	}
	desc, err := metadata.TermMetadata(order, form)
	qerr(err)
	for i, k := range gf.params {
		f, err := units.ConversionFactor(termUnits[order][form][k], desc.Units[k])
		qerr(err)
		t.params[k] = p[i] * f
	}
	R.cur.terms[order] = append(R.cur.terms[order], t)
	return nil
}

var mixingRules = map[int]string{1: "geometric", 2: "lorentz_berthelot", 3: "geometric"}

// typeIDs gives an integer id to each atom type read, reusing the ids of
// the types D already names.
func (R *reader) typeIDs(D *datalayer.DataLayer) map[string]int {
	ids := make(map[string]int)
	next := 1
	for id, name := range D.AtomTypeNames() {
		ids[name] = id
		next = max(next, id+1)
	}
	for _, k := range D.NBKeys() {
		next = max(next, k.A+1, k.B+1)
	}
	for _, e := range R.lj {
		if _, ok := ids[e.names[0]]; !ok && e.names[1] == "" {
			ids[e.names[0]] = next
			next++
		}
	}
	return ids
}

func (R *reader) fill(D *datalayer.DataLayer) error {
	if R.defaults {
		if err := D.SetMixingRule(mixingRules[R.comb]); err != nil {
			return err
		}
		for i, kind := range []string{"vdw", "coul"} {
			if err := D.SetNBScaling(kind, map[string]float64{"scale12": 0, "scale13": 0, "scale14": R.fudges[i]}); err != nil {
				return err
			}
		}
	}
	ids := R.typeIDs(D)
	for _, e := range R.lj {
		a, ok := ids[e.names[0]]
		if !ok {
			return fmt.Errorf("%w: unknown atom type %s", goff.ErrKey, e.names[0])
		}
		if e.names[1] == "" {
			if err := D.SetAtomTypeName(a, e.names[0]); err != nil {
				return err
			}
			if err := D.AddNBParameter(a, metadata.LJ, e.model, e.params, e.units); err != nil {
				return fmt.Errorf("atom type %s: %w", e.names[0], err)
			}
			continue
		}
		b, ok := ids[e.names[1]]
		if !ok {
			return fmt.Errorf("%w: unknown atom type %s", goff.ErrKey, e.names[1])
		}
		if err := D.AddNBParameter(a, metadata.LJ, e.model, e.params, e.units, b); err != nil {
			return fmt.Errorf("atom types %s and %s: %w", e.names[0], e.names[1], err)
		}
	}
	if R.system != "" && D.Name == "" {
		D.Name = R.system
	}
	counts := R.counts
	if len(counts) == 0 && len(R.molOrder) == 1 {
		R.opts.Log.Warnw("no [ molecules ] section, reading one copy of the only molecule type", "molecule", R.molOrder[0])
		counts = []molCount{{R.molOrder[0], 1}}
	}
	first, err := freeIndices(D)
	if err != nil {
		return err
	}
	for _, c := range counts {
		m, ok := R.mols[c.name]
		if !ok {
			return fmt.Errorf("%w: molecule type %s not defined", goff.ErrKey, c.name)
		}
		for range c.count {
			if err := R.instantiate(D, m, ids, &first); err != nil {
				return fmt.Errorf("molecule %s: %w", c.name, err)
			}
		}
		R.opts.Log.Infow("read molecules", "molecule", c.name, "count", c.count, "atoms", len(m.atoms))
	}
	return nil
}

// offsets are the first free indices of the datalayer.
type offsets struct {
	atom, residue, molecule int
	term                    map[int]int
}

func freeIndices(D *datalayer.DataLayer) (offsets, error) {
	o := offsets{term: make(map[int]int)}
	T, err := D.GetAtoms([]string{"residue_index", "molecule_index"}, false, nil)
	if err != nil {
		return o, err
	}
	for _, row := range T.Rows {
		o.atom = max(o.atom, row[0].(int)+1)
		if row[1] != nil {
			o.residue = max(o.residue, row[1].(int)+1)
		}
		if row[2] != nil {
			o.molecule = max(o.molecule, row[2].(int)+1)
		}
	}
	for _, order := range []int{metadata.Bond, metadata.Angle, metadata.Dihedral} {
		terms, err := D.Terms(order)
		if err != nil {
			return o, err
		}
		if len(terms) > 0 {
			o.term[order] = terms[len(terms)-1].Index + 1
		}
	}
	return o, nil
}

// instantiate adds one copy of the molecule m to D, and advances the
// offsets past it.
func (R *reader) instantiate(D *datalayer.DataLayer, m *molType, ids map[string]int, o *offsets) error {
	T := storage.NewTable(metadata.AtomIndex, "atom_name", "atom_type", "charge", "mass", "residue_index", "residue_name", "molecule_index")
	lastRes := 0
	for i, a := range m.atoms {
		t, ok := ids[a.typ]
		if !ok {
			return fmt.Errorf("%w: atom %d has an unknown type %s", goff.ErrKey, i+1, a.typ)
		}
		var mass any
		if a.hasMass {
			mass = a.mass
		} else if tm, ok := R.typeMass[a.typ]; ok {
			mass = tm
		}
		if a.resnr < 1 {
			return fmt.Errorf("%w: atom %d has residue number %d", goff.ErrValue, i+1, a.resnr)
		}
		lastRes = max(lastRes, a.resnr)
		err := T.Append(o.atom+i, a.name, t, a.charge, mass, o.residue+a.resnr-1, a.residue, o.molecule)
		if err != nil {
			return err
		}
	}
	if err := D.AddAtoms(T, nil); err != nil {
		return err
	}
	for _, order := range []int{metadata.Bond, metadata.Angle, metadata.Dihedral} {
		terms := m.terms[order]
		if len(terms) == 0 {
			continue
		}
		tt := storage.NewTable(append(append([]string{"term_index"}, atomColumnNames(order)...), "term_uid")...)
		for _, t := range terms {
			uid, err := D.AddTermParameter(order, t.form, t.params, nil)
			if err != nil {
				return fmt.Errorf("%s: %w", sectionNames[order], err)
			}
			row := []any{o.term[order]}
			for _, a := range t.atoms {
				row = append(row, o.atom+a)
			}
			if err := tt.Append(append(row, uid)...); err != nil {
				return err
			}
			o.term[order]++
		}
		if err := D.AddTerms(order, tt, nil); err != nil {
			return err
		}
	}
	o.atom += len(m.atoms)
	o.residue += lastRes
	o.molecule++
	return nil
}

func atomColumnNames(order int) []string {
	ret := make([]string, order)
	for i := range ret {
		ret[i] = "atom" + strconv.Itoa(i+1)
	}
	return ret
}
