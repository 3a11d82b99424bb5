/*
 * prmtop.go, part of goFF
 *
 * Copyright 2025 Raul Mera A. (rmeraaatacademicosdotutadotcl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package amber reads AMBER parameter/topology (prmtop) and coordinate
// (inpcrd) files into a datalayer.
package amber

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rmera/goff"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/forms"
	"github.com/rmera/goff/metadata"
	"github.com/rmera/goff/storage"
	"go.uber.org/zap"
)

// Positions in the POINTERS section.
const (
	natom  = 0
	ntypes = 1
	nres   = 11
	ifbox  = 27
)

// AMBER stores charges multiplied by this number, so Coulomb energies
// come out in kcal/mol.
const ChargeFactor = 18.2223

// Units of the values in a prmtop file.
var (
	bondUnits     = map[string]string{"K": "kcal/mol/angstrom**2", "R0": "angstrom"}
	angleUnits    = map[string]string{"K": "kcal/mol/radian**2", "theta0": "radian"}
	dihedralUnits = map[string]string{"K": "kcal/mol", "n": "dimensionless", "d": "radian"}
	ljUnits       = map[string]string{"A": "kcal/mol*angstrom**12", "B": "kcal/mol*angstrom**6"}
	atomUnits     = map[string]string{"charge": "e / 18.2223", "mass": "amu"}
)

// relative difference above which an off-diagonal LJ entry is not the
// Lorentz-Berthelot combination of the diagonal ones.
const mixTol = 1e-6

var formatRe = regexp.MustCompile(`[(]([0-9]+)([aAIiEeFf])([0-9]+)(?:[.][0-9]+)?[)]`)

type section struct {
	kind  byte //'a', 'I' or 'E'
	width int
	data  []string
}

// prmtop holds the raw fields of each %FLAG section.
type prmtop map[string]*section

func qerr(err error) {
	if err != nil {
		panic(err)
	}
}

func parsePrmtop(r io.Reader) (prmtop, error) {
	p := make(prmtop)
	var cur *section
	var curName string
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for s.Scan() {
		lineno++
		line := strings.TrimRight(s.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "%VERSION"), strings.HasPrefix(line, "%COMMENT"):
			continue
		case strings.HasPrefix(line, "%FLAG"):
			curName = strings.TrimSpace(strings.TrimPrefix(line, "%FLAG"))
			cur = nil
			continue
		case strings.HasPrefix(line, "%FORMAT"):
			m := formatRe.FindStringSubmatch(line)
			if m == nil || curName == "" {
				return nil, fmt.Errorf("%w: line %d: bad format line %q", goff.ErrValue, lineno, line)
			}
			w, _ := strconv.Atoi(m[3])
			if w <= 0 {
				return nil, fmt.Errorf("%w: line %d: zero field width", goff.ErrValue, lineno)
			}
			kind := m[2][0]
			switch kind {
			case 'A':
				kind = 'a'
			case 'i':
				kind = 'I'
			case 'e', 'F', 'f':
				kind = 'E'
			}
			cur = &section{kind: kind, width: w}
			p[curName] = cur
			continue
		}
		if cur == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: data outside of a %%FLAG/%%FORMAT section", goff.ErrValue, lineno)
		}
		cur.data = append(cur.data, chunks(line, cur.width, cur.kind == 'a')...)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// chunks splits a fixed-width line. Blank numeric fields are dropped,
// string fields are trimmed and kept.
func chunks(line string, width int, keepBlank bool) []string {
	var ret []string
	for i := 0; i < len(line); i += width {
		f := line[i:min(i+width, len(line))]
		f = strings.TrimSpace(f)
		if f == "" && !keepBlank {
			continue
		}
		ret = append(ret, f)
	}
	return ret
}

func (P prmtop) section(flag string) *section {
	s, ok := P[flag]
	if !ok {
		qerr(fmt.Errorf("%w: missing %%FLAG %s", goff.ErrKey, flag))
	}
	return s
}

func (P prmtop) has(flag string) bool {
	_, ok := P[flag]
	return ok
}

func (P prmtop) ints(flag string) []int {
	s := P.section(flag)
	ret := make([]int, len(s.data))
	var err error
	for i, v := range s.data {
		ret[i], err = strconv.Atoi(v)
		if err != nil {
			qerr(fmt.Errorf("%w: %s field %d: %q is not an integer", goff.ErrType, flag, i, v))
		}
	}
	return ret
}

func (P prmtop) floats(flag string) []float64 {
	s := P.section(flag)
	ret := make([]float64, len(s.data))
	var err error
	for i, v := range s.data {
		ret[i], err = strconv.ParseFloat(strings.Replace(v, "D", "E", 1), 64)
		if err != nil {
			qerr(fmt.Errorf("%w: %s field %d: %q is not a number", goff.ErrType, flag, i, v))
		}
	}
	return ret
}

func (P prmtop) strings(flag string) []string {
	return P.section(flag).data
}

// atLeast panics unless v has at least n elements.
func atLeast[T any](flag string, v []T, n int) []T {
	if len(v) < n {
		qerr(fmt.Errorf("%w: %%FLAG %s has %d fields, expected %d", goff.ErrValue, flag, len(v), n))
	}
	return v
}

// ReadPrmtop reads an AMBER prmtop file into D: atoms, bonds, angles,
// dihedrals (including impropers and multi-term ones, as charmmfsw terms),
// Lennard-Jones parameters, 1-4 scaling factors and, if present, the box.
// AMBER combines LJ parameters with the Lorentz-Berthelot rule, which is
// set as D's mixing rule, and only the off-diagonal entries of the
// coefficient table that differ from the combination are stored as
// explicit pairs. A nil log discards messages.
func ReadPrmtop(r io.Reader, D *datalayer.DataLayer, log *zap.SugaredLogger) (err error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if D == nil {
		return fmt.Errorf("%w: nil datalayer", goff.ErrType)
	}
	p, err := parsePrmtop(r)
	if err != nil {
		return fmt.Errorf("amber: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("amber: %w", e)
		}
	}()
	pointers := atLeast("POINTERS", p.ints("POINTERS"), ifbox+1)
	n := pointers[natom]
	log.Infow("reading prmtop", "atoms", n, "types", pointers[ntypes], "residues", pointers[nres])

	qerr(readAtoms(p, D, pointers, log))
	qerr(readBonded(p, D, n, log))
	qerr(readLJ(p, D, pointers[ntypes], log))
	qerr(readScaling(p, D, log))
	if pointers[ifbox] > 0 && p.has("BOX_DIMENSIONS") {
		//beta, a, b, c
		box := atLeast("BOX_DIMENSIONS", p.floats("BOX_DIMENSIONS"), 4)
		qerr(D.SetBoxSize(map[string]float64{"a": box[1], "b": box[2], "c": box[3], "alpha": 90, "beta": box[0], "gamma": 90},
			map[string]string{"a": "angstrom", "b": "angstrom", "c": "angstrom", "alpha": "degree", "beta": "degree", "gamma": "degree"}))
		qerr(D.SetBoundaryConditions(map[string]string{"x": "periodic", "y": "periodic", "z": "periodic"}))
	}
	return nil
}

func readAtoms(p prmtop, D *datalayer.DataLayer, pointers []int, log *zap.SugaredLogger) error {
	n := pointers[natom]
	names := atLeast("ATOM_NAME", p.strings("ATOM_NAME"), n)
	charges := atLeast("CHARGE", p.floats("CHARGE"), n)
	masses := atLeast("MASS", p.floats("MASS"), n)
	types := atLeast("ATOM_TYPE_INDEX", p.ints("ATOM_TYPE_INDEX"), n)
	rlabels := atLeast("RESIDUE_LABEL", p.strings("RESIDUE_LABEL"), pointers[nres])
	rpointers := atLeast("RESIDUE_POINTER", p.ints("RESIDUE_POINTER"), pointers[nres])
	var typeNames []string
	if p.has("AMBER_ATOM_TYPE") {
		typeNames = atLeast("AMBER_ATOM_TYPE", p.strings("AMBER_ATOM_TYPE"), n)
	}
	var molecules []int
	if p.has("ATOMS_PER_MOLECULE") {
		molecules = p.ints("ATOMS_PER_MOLECULE")
	}

	cols := []string{metadata.AtomIndex, "atom_name", "charge", "mass", "atom_type", "residue_index", "residue_name"}
	if molecules != nil {
		cols = append(cols, "molecule_index")
	}
	T := storage.NewTable(cols...)
	res, mol, inMol := 0, 0, 0
	for i := 0; i < n; i++ {
		//residue pointers are 1-based indices of the first atom
		for res+1 < len(rpointers) && i+1 >= rpointers[res+1] {
			res++
		}
		row := []any{i, names[i], charges[i], masses[i], types[i], res, rlabels[res]}
		if molecules != nil {
			for mol < len(molecules) && inMol >= molecules[mol] {
				mol++
				inMol = 0
			}
			row = append(row, mol)
			inMol++
		}
		if err := T.Append(row...); err != nil {
			return err
		}
		if typeNames == nil {
			continue
		}
		if prev, err := D.AtomTypeName(types[i]); err == nil {
			if prev != typeNames[i] {
				log.Debugw("atom type shares its LJ type with another name", "type", types[i], "name", typeNames[i], "kept", prev)
			}
			continue
		}
		if err := D.SetAtomTypeName(types[i], typeNames[i]); err != nil {
			return err
		}
	}
	return D.AddAtoms(T, atomUnits)
}

// readTerms adds the terms in the flags (one with hydrogens, one without)
// of the given order. Every entry has order atom fields, given as 3 times
// the 0-based atom index, and a 1-based parameter type. It returns the
// number of terms added.
func readTerms(p prmtop, D *datalayer.DataLayer, n, order int, flags []string, uids []int, onAtoms func([]int)) (int, error) {
	next := 0
	stride := order + 1
	T := storage.NewTable(append(append([]string{"term_index"}, atomColumns(order)...), "term_uid")...)
	for _, flag := range flags {
		if !p.has(flag) {
			continue
		}
		v := p.ints(flag)
		if len(v)%stride != 0 {
			return 0, fmt.Errorf("%w: %%FLAG %s has %d fields, not a multiple of %d", goff.ErrValue, flag, len(v), stride)
		}
		for i := 0; i < len(v); i += stride {
			row := []any{next}
			atoms := make([]int, order)
			for j := 0; j < order; j++ {
				//negative third and fourth atoms flag dihedrals without 1-4
				//interactions and impropers.
				a := v[i+j]
				if a < 0 {
					a = -a
				}
				atoms[j] = a / 3
				if atoms[j] >= n {
					return 0, fmt.Errorf("%w: %%FLAG %s references atom %d, there are %d", goff.ErrValue, flag, atoms[j], n)
				}
				row = append(row, atoms[j])
			}
			t := v[i+order] - 1
			if t < 0 || t >= len(uids) {
				return 0, fmt.Errorf("%w: %%FLAG %s references parameter type %d, there are %d", goff.ErrValue, flag, t+1, len(uids))
			}
			if onAtoms != nil {
				onAtoms(v[i : i+stride])
			}
			if err := T.Append(append(row, uids[t])...); err != nil {
				return 0, err
			}
			next++
		}
	}
	return next, D.AddTerms(order, T, nil)
}

func atomColumns(order int) []string {
	ret := make([]string, order)
	for i := range ret {
		ret[i] = "atom" + strconv.Itoa(i+1)
	}
	return ret
}

// addParams stores one parameter set per prmtop type and returns their uids.
func addParams(D *datalayer.DataLayer, order int, form string, keys []string, utype map[string]string, values ...[]float64) ([]int, error) {
	uids := make([]int, len(values[0]))
	for i := range uids {
		params := make(map[string]float64, len(keys))
		for j, k := range keys {
			if i >= len(values[j]) {
				return nil, fmt.Errorf("%w: parameter %s missing for type %d", goff.ErrValue, k, i+1)
			}
			params[k] = values[j][i]
		}
		var err error
		if uids[i], err = D.AddTermParameter(order, form, params, utype); err != nil {
			return nil, fmt.Errorf("type %d: %w", i+1, err)
		}
	}
	return uids, nil
}

func readBonded(p prmtop, D *datalayer.DataLayer, n int, log *zap.SugaredLogger) error {
	buids, err := addParams(D, metadata.Bond, "harmonic", []string{"K", "R0"}, bondUnits,
		p.floats("BOND_FORCE_CONSTANT"), p.floats("BOND_EQUIL_VALUE"))
	if err != nil {
		return fmt.Errorf("bonds: %w", err)
	}
	if _, err := readTerms(p, D, n, metadata.Bond, []string{"BONDS_INC_HYDROGEN", "BONDS_WITHOUT_HYDROGEN"}, buids, nil); err != nil {
		return fmt.Errorf("bonds: %w", err)
	}
	auids, err := addParams(D, metadata.Angle, "harmonic", []string{"K", "theta0"}, angleUnits,
		p.floats("ANGLE_FORCE_CONSTANT"), p.floats("ANGLE_EQUIL_VALUE"))
	if err != nil {
		return fmt.Errorf("angles: %w", err)
	}
	if _, err := readTerms(p, D, n, metadata.Angle, []string{"ANGLES_INC_HYDROGEN", "ANGLES_WITHOUT_HYDROGEN"}, auids, nil); err != nil {
		return fmt.Errorf("angles: %w", err)
	}
	duids, err := addParams(D, metadata.Dihedral, "charmmfsw", []string{"K", "n", "d"}, dihedralUnits,
		p.floats("DIHEDRAL_FORCE_CONSTANT"), p.floats("DIHEDRAL_PERIODICITY"), p.floats("DIHEDRAL_PHASE"))
	if err != nil {
		return fmt.Errorf("dihedrals: %w", err)
	}
	impropers := 0
	count := func(v []int) {
		if v[3] < 0 {
			impropers++
		}
	}
	nd, err := readTerms(p, D, n, metadata.Dihedral, []string{"DIHEDRALS_INC_HYDROGEN", "DIHEDRALS_WITHOUT_HYDROGEN"}, duids, count)
	if err != nil {
		return fmt.Errorf("dihedrals: %w", err)
	}
	log.Infow("read bonded terms", "dihedral_types", len(duids), "dihedrals", nd, "impropers", impropers)
	return nil
}

func readLJ(p prmtop, D *datalayer.DataLayer, nt int, log *zap.SugaredLogger) error {
	index := atLeast("NONBONDED_PARM_INDEX", p.ints("NONBONDED_PARM_INDEX"), nt*nt)
	acoef := p.floats("LENNARD_JONES_ACOEF")
	bcoef := p.floats("LENNARD_JONES_BCOEF")
	ab := func(i, j int) (map[string]float64, bool) {
		k := index[nt*(i-1)+j-1]
		if k <= 0 || k > len(acoef) || k > len(bcoef) {
			//negative indices point to the 10-12 hydrogen bond table
			return nil, false
		}
		return map[string]float64{"A": acoef[k-1], "B": bcoef[k-1]}, true
	}
	if err := D.SetMixingRule("lorentz_berthelot"); err != nil {
		return err
	}
	singles := make(map[int]map[string]float64, nt)
	for i := 1; i <= nt; i++ {
		c, ok := ab(i, i)
		if !ok {
			log.Warnw("atom type has no Lennard-Jones parameters", "type", i)
			continue
		}
		if err := D.AddNBParameter(i, metadata.LJ, "AB", c, ljUnits); err != nil {
			return err
		}
		es, err := forms.ConvertLJ(c, "AB", "epsilon/sigma")
		if err != nil {
			return fmt.Errorf("atom type %d: %w", i, err)
		}
		singles[i] = es
	}
	explicit := 0
	for i := 1; i <= nt; i++ {
		for j := i + 1; j <= nt; j++ {
			c, ok := ab(i, j)
			if !ok {
				log.Warnw("10-12 hydrogen bond terms are not supported, pair ignored", "type_a", i, "type_b", j)
				continue
			}
			if mixes(singles[i], singles[j], c) {
				continue
			}
			if err := D.AddNBParameter(i, metadata.LJ, "AB", c, ljUnits, j); err != nil {
				return err
			}
			explicit++
		}
	}
	log.Infow("read Lennard-Jones parameters", "types", len(singles), "explicit_pairs", explicit)
	return nil
}

// mixes returns true if c is the Lorentz-Berthelot combination of the
// types a and b, given in epsilon/sigma.
func mixes(a, b, c map[string]float64) bool {
	if a == nil || b == nil {
		return false
	}
	m, err := forms.MixLJ(a, b, "lorentz_berthelot")
	if err != nil {
		return false
	}
	mab, err := forms.ConvertLJ(m, "epsilon/sigma", "AB")
	if err != nil {
		return false
	}
	for _, k := range []string{"A", "B"} {
		scale := math.Max(math.Abs(c[k]), math.Abs(mab[k]))
		if scale > 0 && math.Abs(c[k]-mab[k]) > mixTol*scale {
			return false
		}
	}
	return true
}

// readScaling sets the 1-4 scaling from the SCEE and SCNB factors of the
// dihedral types that carry 1-4 interactions. Old files lack them, and
// get the usual AMBER values, 1.2 and 2.0.
func readScaling(p prmtop, D *datalayer.DataLayer, log *zap.SugaredLogger) error {
	scee, scnb := 1.2, 2.0
	if p.has("SCEE_SCALE_FACTOR") && p.has("SCNB_SCALE_FACTOR") {
		ee, nb := p.floats("SCEE_SCALE_FACTOR"), p.floats("SCNB_SCALE_FACTOR")
		first := true
		for _, t := range usedWith14(p) {
			if t >= len(ee) || t >= len(nb) || ee[t] == 0 || nb[t] == 0 {
				continue
			}
			if first {
				scee, scnb = ee[t], nb[t]
				first = false
				continue
			}
			if ee[t] != scee || nb[t] != scnb {
				log.Warnw("dihedral types with different 1-4 scaling, only one set is kept", "scee", scee, "scnb", scnb, "type", t+1, "type_scee", ee[t], "type_scnb", nb[t])
			}
		}
	}
	if err := D.SetNBScaling("coul", map[string]float64{"scale12": 0, "scale13": 0, "scale14": 1 / scee}); err != nil {
		return err
	}
	return D.SetNBScaling("vdw", map[string]float64{"scale12": 0, "scale13": 0, "scale14": 1 / scnb})
}

// usedWith14 returns the 0-based dihedral types used by dihedrals that
// compute 1-4 interactions (positive third and fourth atoms), sorted.
func usedWith14(p prmtop) []int {
	used := make(map[int]bool)
	for _, flag := range []string{"DIHEDRALS_INC_HYDROGEN", "DIHEDRALS_WITHOUT_HYDROGEN"} {
		if !p.has(flag) {
			continue
		}
		v := p.ints(flag)
		for i := 0; i+4 < len(v); i += 5 {
			if v[i+2] >= 0 && v[i+3] >= 0 {
				used[v[i+4]-1] = true
			}
		}
	}
	return slices.Sorted(maps.Keys(used))
}
