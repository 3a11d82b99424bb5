package datalayer

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
	"github.com/rmera/goff/storage"
)

// Names of the tables a DataLayer is saved as.
const (
	atomsTable    = "atoms"
	nbTable       = "nb_parameters"
	settingsTable = "settings"
	typesTable    = "atom_types"
)

func atomValuesTable(prop string) string { return "atom_values_" + prop }
func paramsTable(order int) string       { return "term_parameters_" + strconv.Itoa(order) }
func termsTable(order int) string        { return "terms_" + strconv.Itoa(order) }

func valueColumns(n int) []string {
	ret := make([]string, n)
	for i := range ret {
		ret[i] = "v" + strconv.Itoa(i)
	}
	return ret
}

// padded returns v as a row of n values, filling with nils.
func padded(v []float64, n int) ([]any, error) {
	if len(v) > n {
		return nil, fmt.Errorf("%w: %d parameter values don't fit in %d columns", goff.ErrValue, len(v), n)
	}
	ret := make([]any, n)
	for i, f := range v {
		ret[i] = f
	}
	return ret, nil
}

func maxTermParameters() int {
	m := 0
	for _, o := range []int{metadata.Bond, metadata.Angle, metadata.Dihedral} {
		f, _ := metadata.TermForms(o)
		for _, t := range f {
			m = max(m, len(t.Parameters))
		}
	}
	return m
}

func maxNBParameters() int {
	m := 0
	for form := range metadata.NBForms() {
		d, _ := metadata.NBMetadata(form, "")
		m = max(m, len(d.Parameters))
	}
	return m
}

// Save writes the whole DataLayer to its backend, replacing anything
// saved before.
func (D *DataLayer) Save() error {
	B := D.backend
	atoms, err := D.GetAtoms(nil, false, nil)
	if err != nil {
		return err
	}
	if err := B.AddTable(atomsTable, atoms, false); err != nil {
		return err
	}
	for _, p := range slices.Sorted(maps.Keys(D.atomValues)) {
		u := D.atomValues[p]
		T := storage.NewTable("uid", "value")
		for _, id := range u.uids() {
			if err := T.Append(id, u.byUID[id]); err != nil {
				return err
			}
		}
		if err := B.AddTable(atomValuesTable(p), T, false); err != nil {
			return err
		}
	}
	nt := maxTermParameters()
	for o, u := range D.params {
		T := storage.NewTable(append([]string{"uid", "form"}, valueColumns(nt)...)...)
		for _, id := range u.uids() {
			p := u.byUID[id]
			vals, err := padded(p.Values, nt)
			if err != nil {
				return fmt.Errorf("order %d parameter %d: %w", o, id, err)
			}
			if err := T.Append(append([]any{id, p.Form}, vals...)...); err != nil {
				return err
			}
		}
		if err := B.AddTable(paramsTable(o), T, false); err != nil {
			return err
		}
		terms, err := D.GetTerms(o)
		if err != nil {
			return err
		}
		if err := B.AddTable(termsTable(o), terms, false); err != nil {
			return err
		}
	}
	nn := maxNBParameters()
	T := storage.NewTable(append([]string{"type_a", "type_b", "pair", "form", "explicit"}, valueColumns(nn)...)...)
	for _, k := range D.NBKeys() {
		e := D.nb[k]
		vals, err := padded(e.Values, nn)
		if err != nil {
			return fmt.Errorf("non-bonded parameter %d-%d: %w", k.A, k.B, err)
		}
		if err := T.Append(append([]any{k.A, k.B, boolInt(k.Pair), e.Form, boolInt(e.Explicit)}, vals...)...); err != nil {
			return err
		}
	}
	if err := B.AddTable(nbTable, T, false); err != nil {
		return err
	}
	types := storage.NewTable("atom_type", "name")
	for _, t := range slices.Sorted(maps.Keys(D.typeNames)) {
		if err := types.Append(t, D.typeNames[t]); err != nil {
			return err
		}
	}
	if err := B.AddTable(typesTable, types, false); err != nil {
		return err
	}
	settings, err := D.settings()
	if err != nil {
		return err
	}
	return B.AddTable(settingsTable, settings, false)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// settings returns the system configuration as key/text/number rows.
func (D *DataLayer) settings() (*storage.Table, error) {
	T := storage.NewTable("key", "text", "number")
	rows := [][]any{{"id", D.ID, nil}, {"name", D.Name, nil}}
	if D.mixingRule != "" {
		rows = append(rows, []any{"mixing_rule", D.mixingRule, nil})
	}
	for _, k := range slices.Sorted(maps.Keys(D.boundary)) {
		rows = append(rows, []any{"boundary." + k, D.boundary[k], nil})
	}
	for _, k := range slices.Sorted(maps.Keys(D.box)) {
		rows = append(rows, []any{"box." + k, nil, D.box[k]})
	}
	for _, kind := range slices.Sorted(maps.Keys(D.scaling)) {
		for _, k := range slices.Sorted(maps.Keys(D.scaling[kind])) {
			rows = append(rows, []any{"scaling." + kind + "." + k, nil, D.scaling[kind][k]})
		}
	}
	for _, r := range rows {
		if err := T.Append(r...); err != nil {
			return nil, err
		}
	}
	return T, nil
}

// Load rebuilds a DataLayer saved with Save. The loaded DataLayer keeps
// B as its backend. All uids are preserved.
func Load(B storage.Backend) (*DataLayer, error) {
	D := New("", B)
	if err := D.loadSettings(); err != nil {
		return nil, err
	}
	for p, u := range D.atomValues {
		T, err := readOptional(B, atomValuesTable(p))
		if err != nil {
			return nil, err
		}
		for _, row := range T.Rows {
			id, err := storage.Int(row[0])
			if err != nil {
				return nil, fmt.Errorf("loading %s values: %w", p, err)
			}
			v := row[1]
			if d, _ := metadata.AtomMetadata(p); d.Kind == metadata.Float {
				if v, err = storage.Float(v); err != nil {
					return nil, fmt.Errorf("loading %s values: %w", p, err)
				}
			}
			if _, err := u.add(v, v, id); err != nil {
				return nil, fmt.Errorf("loading %s values: %w", p, err)
			}
		}
	}
	if err := D.loadAtoms(); err != nil {
		return nil, err
	}
	for _, o := range []int{metadata.Bond, metadata.Angle, metadata.Dihedral} {
		T, err := readOptional(B, paramsTable(o))
		if err != nil {
			return nil, err
		}
		for _, row := range T.Rows {
			id, err := storage.Int(row[0])
			if err != nil {
				return nil, err
			}
			form, _ := row[1].(string)
			desc, err := metadata.TermMetadata(o, form)
			if err != nil {
				return nil, fmt.Errorf("loading order %d parameter %d: %w", o, id, err)
			}
			vals, err := floats(row[2 : 2+len(desc.Parameters)])
			if err != nil {
				return nil, fmt.Errorf("loading order %d parameter %d: %w", o, id, err)
			}
			if _, err := D.AddTermParameter(o, form, vals, nil, id); err != nil {
				return nil, fmt.Errorf("loading order %d parameter %d: %w", o, id, err)
			}
		}
		terms, err := readOptional(B, termsTable(o))
		if err != nil {
			return nil, err
		}
		if terms.Len() > 0 {
			if err := D.AddTerms(o, terms, nil); err != nil {
				return nil, fmt.Errorf("loading order %d terms: %w", o, err)
			}
		}
	}
	if err := D.loadNB(); err != nil {
		return nil, err
	}
	return D, nil
}

// readOptional returns an empty table if name doesn't exist in B.
func readOptional(B storage.Backend, name string) (*storage.Table, error) {
	T, err := B.ReadTable(name)
	if errors.Is(err, goff.ErrKey) {
		return storage.NewTable(), nil
	}
	return T, err
}

func floats(v []any) ([]float64, error) {
	ret := make([]float64, len(v))
	for i, c := range v {
		f, err := storage.Float(c)
		if err != nil {
			return nil, err
		}
		ret[i] = f
	}
	return ret, nil
}

func (D *DataLayer) loadSettings() error {
	T, err := readOptional(D.backend, settingsTable)
	if err != nil {
		return err
	}
	for _, row := range T.Rows {
		key, _ := row[0].(string)
		text, _ := row[1].(string)
		var err error
		if k, ok := strings.CutPrefix(key, "boundary."); ok {
			err = D.SetBoundaryConditions(map[string]string{k: text})
		} else if k, ok := strings.CutPrefix(key, "box."); ok {
			var f float64
			if f, err = storage.Float(row[2]); err == nil {
				err = D.SetBoxSize(map[string]float64{k: f}, nil)
			}
		} else if k, ok := strings.CutPrefix(key, "scaling."); ok {
			kind, sk, _ := strings.Cut(k, ".")
			var f float64
			if f, err = storage.Float(row[2]); err == nil {
				err = D.SetNBScaling(kind, map[string]float64{sk: f})
			}
		} else {
			switch key {
			case "id":
				D.ID = text
			case "name":
				D.Name = text
			case "mixing_rule":
				err = D.SetMixingRule(text)
			}
		}
		if err != nil {
			return fmt.Errorf("loading setting %s: %w", key, err)
		}
	}
	types, err := readOptional(D.backend, typesTable)
	if err != nil {
		return err
	}
	for _, row := range types.Rows {
		t, err := storage.Int(row[0])
		if err != nil {
			return err
		}
		name, _ := row[1].(string)
		D.typeNames[t] = name
	}
	return nil
}

func (D *DataLayer) loadAtoms() error {
	T, err := readOptional(D.backend, atomsTable)
	if err != nil || T.Len() == 0 {
		return err
	}
	idx := T.Index(metadata.AtomIndex)
	if idx < 0 {
		return fmt.Errorf("%w: saved atom table lacks the %s column", goff.ErrKey, metadata.AtomIndex)
	}
	acols, err := atomTableColumns(T, nil)
	if err != nil {
		return err
	}
	for _, row := range T.Rows {
		ai, err := storage.Int(row[idx])
		if err != nil {
			return err
		}
		a := &atom{values: make(map[string]any)}
		D.atoms[ai] = a
		for _, ac := range acols {
			if allNil(row, ac.cols) {
				continue
			}
			var v any
			if u, ok := D.atomValues[ac.prop.Name]; ok {
				id, err := storage.Int(row[ac.cols[0]])
				if err != nil {
					return err
				}
				if !u.has(id) {
					return fmt.Errorf("%w: atom %d references %s uid %d, which doesn't exist", goff.ErrKey, ai, ac.prop.Name, id)
				}
				v = id
			} else if v, err = atomValue(ac.prop, row, ac.cols, 1); err != nil {
				return fmt.Errorf("atom %d, property %s: %w", ai, ac.prop.Name, err)
			}
			a.values[ac.prop.Name] = v
		}
	}
	return nil
}

func (D *DataLayer) loadNB() error {
	T, err := readOptional(D.backend, nbTable)
	if err != nil {
		return err
	}
	for _, row := range T.Rows {
		ints := make([]int, 5)
		for _, i := range []int{0, 1, 2, 4} {
			if ints[i], err = storage.Int(row[i]); err != nil {
				return fmt.Errorf("loading non-bonded parameters: %w", err)
			}
		}
		form, _ := row[3].(string)
		desc, err := metadata.NBMetadata(form, "")
		if err != nil {
			return fmt.Errorf("loading non-bonded parameters: %w", err)
		}
		vals, err := floats(row[5 : 5+len(desc.Parameters)])
		if err != nil {
			return fmt.Errorf("loading non-bonded parameters: %w", err)
		}
		key := NBKey{A: ints[0], B: ints[1], Pair: ints[2] == 1}
		D.nb[key] = &nbEntry{Form: form, Values: vals, Explicit: ints[4] == 1}
	}
	return nil
}
