package datalayer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
	"github.com/rmera/goff/storage"
)

// atom holds, per property, the uid of the value for unique properties,
// an int, or a [3]float64 for xyz.
type atom struct {
	values map[string]any
}

type atomColumns struct {
	prop metadata.AtomProperty
	cols []int
	fac  float64
}

// atomTableColumns maps the columns of T to atom properties.
func atomTableColumns(T *storage.Table, utype map[string]string) ([]atomColumns, error) {
	if T.Index(metadata.AtomIndex) < 0 {
		return nil, fmt.Errorf("%w: atom table lacks the %s column", goff.ErrKey, metadata.AtomIndex)
	}
	seen := make(map[string]bool)
	var ret []atomColumns
	for _, c := range T.Columns {
		if c == metadata.AtomIndex {
			continue
		}
		name, err := metadata.ColumnProperty(c)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		p, _ := metadata.AtomMetadata(name)
		ac := atomColumns{prop: p, fac: 1}
		for _, pc := range p.Columns {
			i := T.Index(pc)
			if i < 0 {
				return nil, fmt.Errorf("%w: property %s needs the columns %v, %s is missing", goff.ErrKey, name, p.Columns, pc)
			}
			ac.cols = append(ac.cols, i)
		}
		if u, ok := utype[name]; ok {
			if p.Units == "" {
				return nil, fmt.Errorf("%w: atom property %s has no units", goff.ErrKey, name)
			}
			f, err := factor(u, p.Units)
			if err != nil {
				return nil, fmt.Errorf("atom property %s: %w", name, err)
			}
			ac.fac = f
		}
		ret = append(ret, ac)
	}
	for k := range utype {
		if !seen[k] {
			return nil, fmt.Errorf("%w: unit given for atom property %s, which is not in the table", goff.ErrKey, k)
		}
	}
	return ret, nil
}

func atomValue(p metadata.AtomProperty, row []any, cols []int, fac float64) (any, error) {
	switch {
	case p.Name == "xyz":
		var r [3]float64
		for i, c := range cols {
			f, err := storage.Float(row[c])
			if err != nil {
				return nil, err
			}
			r[i] = f * fac
		}
		return r, nil
	case p.Kind == metadata.Int:
		return storage.Int(row[cols[0]])
	case p.Kind == metadata.Float:
		f, err := storage.Float(row[cols[0]])
		return f * fac, err
	}
	s, ok := row[cols[0]].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %v (%T) is not a string", goff.ErrType, row[cols[0]], row[cols[0]])
	}
	return s, nil
}

func allNil(row []any, cols []int) bool {
	for _, c := range cols {
		if row[c] != nil {
			return false
		}
	}
	return true
}

// AddAtoms adds the atoms, or the properties of already existing atoms, in
// T. T must have an atom_index column, and every other column must belong
// to an atom property (X, Y and Z together make up xyz). nil cells are
// skipped. utype gives, for properties with units, the units used in T.
// Adding a property to an atom that already has it is an error, and
// nothing is added if any row fails.
func (D *DataLayer) AddAtoms(T *storage.Table, utype map[string]string) error {
	if T == nil {
		return fmt.Errorf("%w: nil atom table", goff.ErrType)
	}
	acols, err := atomTableColumns(T, utype)
	if err != nil {
		return err
	}
	idx := T.Index(metadata.AtomIndex)
	type pending struct {
		index int
		prop  string
		value any
	}
	var todo []pending
	type atomProp struct {
		index int
		prop  string
	}
	inTable := make(map[atomProp]bool)
	for r, row := range T.Rows {
		ai, err := storage.Int(row[idx])
		if err != nil {
			return fmt.Errorf("atom table row %d: %w", r, err)
		}
		if ai < 0 {
			return fmt.Errorf("%w: atom table row %d: negative atom index %d", goff.ErrValue, r, ai)
		}
		for _, ac := range acols {
			if allNil(row, ac.cols) {
				continue
			}
			name := ac.prop.Name
			v, err := atomValue(ac.prop, row, ac.cols, ac.fac)
			if err != nil {
				return fmt.Errorf("atom %d, property %s: %w", ai, name, err)
			}
			if a, ok := D.atoms[ai]; ok {
				if _, ok := a.values[name]; ok {
					return fmt.Errorf("%w: atom %d already has property %s", goff.ErrKey, ai, name)
				}
			}
			if inTable[atomProp{ai, name}] {
				return fmt.Errorf("%w: property %s given twice for atom %d", goff.ErrKey, name, ai)
			}
			inTable[atomProp{ai, name}] = true
			if u, ok := D.atomValues[name]; ok {
				if err := u.check(v); err != nil {
					return fmt.Errorf("atom %d, property %s: %w", ai, name, err)
				}
			}
			todo = append(todo, pending{ai, name, v})
		}
		if _, ok := D.atoms[ai]; !ok {
			todo = append(todo, pending{index: ai})
		}
	}
	for _, p := range todo {
		a, ok := D.atoms[p.index]
		if !ok {
			a = &atom{values: make(map[string]any)}
			D.atoms[p.index] = a
		}
		if p.prop == "" {
			continue
		}
		v := p.value
		if u, ok := D.atomValues[p.prop]; ok {
			if v, err = u.add(v, v); err != nil {
				return err
			}
		}
		a.values[p.prop] = v
	}
	return nil
}

// AtomCount returns the number of atoms.
func (D *DataLayer) AtomCount() int {
	return len(D.atoms)
}

// AtomIndices returns the indices of all atoms, sorted.
func (D *DataLayer) AtomIndices() []int {
	return slices.Sorted(maps.Keys(D.atoms))
}

// AtomParameter returns the value stored under uid for a unique atom
// property, in canonical units.
func (D *DataLayer) AtomParameter(property string, uid int) (any, error) {
	p, err := metadata.AtomMetadata(property)
	if err != nil {
		return nil, err
	}
	u, ok := D.atomValues[p.Name]
	if !ok {
		return nil, fmt.Errorf("%w: atom property %s is not stored by uid", goff.ErrKey, property)
	}
	return u.get(uid)
}

// GetAtoms returns a table with the atom_index column and the columns of
// each requested property, one row per atom, sorted by index. A nil props
// returns all properties. For unique properties, the uid is returned
// unless byValue is true. utype gives the units for the returned values
// of properties with units. Atoms lacking a property get nil cells.
func (D *DataLayer) GetAtoms(props []string, byValue bool, utype map[string]string) (*storage.Table, error) {
	if props == nil {
		props = metadata.AtomProperties()
	}
	cols := []string{metadata.AtomIndex}
	descs := make([]metadata.AtomProperty, len(props))
	facs := make([]float64, len(props))
	for i, name := range props {
		p, err := metadata.AtomMetadata(name)
		if err != nil {
			return nil, err
		}
		descs[i] = p
		facs[i] = 1
		if u, ok := utype[name]; ok {
			if p.Units == "" {
				return nil, fmt.Errorf("%w: atom property %s has no units", goff.ErrKey, name)
			}
			if facs[i], err = factor(p.Units, u); err != nil {
				return nil, fmt.Errorf("atom property %s: %w", name, err)
			}
		}
		cols = append(cols, p.Columns...)
	}
	T := storage.NewTable(cols...)
	for _, ai := range D.AtomIndices() {
		a := D.atoms[ai]
		row := []any{ai}
		for i, p := range descs {
			v, ok := a.values[p.Name]
			if !ok {
				for range p.Columns {
					row = append(row, nil)
				}
				continue
			}
			if u, ok := D.atomValues[p.Name]; ok && byValue {
				v, _ = u.get(v.(int))
			}
			switch t := v.(type) {
			case [3]float64:
				row = append(row, t[0]*facs[i], t[1]*facs[i], t[2]*facs[i])
			case float64:
				row = append(row, t*facs[i])
			default:
				row = append(row, t)
			}
		}
		if err := T.Append(row...); err != nil {
			return nil, err
		}
	}
	return T, nil
}
