package datalayer

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/rmera/goff"
	"github.com/rmera/goff/forms"
	"github.com/rmera/goff/metadata"
	"github.com/rmera/goff/storage"
)

// termParameter is a parameter set in canonical units, in the order of
// the form's parameters.
type termParameter struct {
	Form   string
	Values []float64
}

func (t termParameter) key() any {
	return []any{t.Form, t.Values}
}

// Term is a bonded interaction between Order atoms.
type Term struct {
	Index int
	Atoms []int
	UID   int //the uid of the term's parameters
}

type term struct {
	atoms []int
	uid   int
}

func (D *DataLayer) paramTable(order any) (int, *uniqueTable[termParameter], error) {
	o, err := metadata.Order(order)
	if err != nil {
		return 0, nil, err
	}
	return o, D.params[o], nil
}

func (D *DataLayer) validateTermParameter(o int, form string, params any, utype map[string]string) (termParameter, error) {
	desc, err := metadata.TermMetadata(o, form)
	if err != nil {
		return termParameter{}, err
	}
	v, err := metadata.ValidateTermDict(form, desc, params, utype)
	if err != nil {
		return termParameter{}, err
	}
	return termParameter{Form: form, Values: v}, nil
}

// AddTermParameter stores a parameter set of the given form and order and
// returns its uid. params is a positional slice or a map keyed by
// parameter name. If utype is not nil, it gives the units of each
// parameter. If the same parameters (within tolerance) are already
// stored, their uid is returned. An explicit uid can be given, which
// fails with an error wrapping goff.ErrConflict if the uid holds
// different parameters.
func (D *DataLayer) AddTermParameter(order any, form string, params any, utype map[string]string, uid ...int) (int, error) {
	o, u, err := D.paramTable(order)
	if err != nil {
		return -1, err
	}
	p, err := D.validateTermParameter(o, form, params, utype)
	if err != nil {
		return -1, err
	}
	return u.add(p.key(), p, uid...)
}

// GetTermParameter returns the form and parameters stored under uid. If
// utype is not nil, it gives the units in which each parameter is returned.
func (D *DataLayer) GetTermParameter(order any, uid int, utype map[string]string) (string, map[string]float64, error) {
	o, u, err := D.paramTable(order)
	if err != nil {
		return "", nil, err
	}
	p, err := u.get(uid)
	if err != nil {
		return "", nil, fmt.Errorf("order %d: %w", o, err)
	}
	desc, _ := metadata.TermMetadata(o, p.Form)
	ret, err := toUnits(p.Form, desc.Parameters, desc.Units, p.Values, utype)
	return p.Form, ret, err
}

// ConvertTermParameter returns the parameters stored under uid, converted
// to the given form.
func (D *DataLayer) ConvertTermParameter(order any, uid int, form string, utype map[string]string) (map[string]float64, error) {
	o, u, err := D.paramTable(order)
	if err != nil {
		return nil, err
	}
	p, err := u.get(uid)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", o, err)
	}
	desc, _ := metadata.TermMetadata(o, p.Form)
	conv, err := forms.Convert(o, metadata.ToMap(desc.Parameters, p.Values), p.Form, form)
	if err != nil {
		return nil, fmt.Errorf("parameter %d: %w", uid, err)
	}
	fdesc, _ := metadata.TermMetadata(o, form)
	vals := make([]float64, len(fdesc.Parameters))
	for i, k := range fdesc.Parameters {
		vals[i] = conv[k]
	}
	return toUnits(form, fdesc.Parameters, fdesc.Units, vals, utype)
}

// ListTermParameters returns the form of each stored parameter set, by uid.
func (D *DataLayer) ListTermParameters(order any) (map[int]string, error) {
	_, u, err := D.paramTable(order)
	if err != nil {
		return nil, err
	}
	ret := make(map[int]string, u.len())
	for id, p := range u.byUID {
		ret[id] = p.Form
	}
	return ret, nil
}

// ListTermUIDs returns the uids of the stored parameter sets, sorted.
func (D *DataLayer) ListTermUIDs(order any) ([]int, error) {
	_, u, err := D.paramTable(order)
	if err != nil {
		return nil, err
	}
	return u.uids(), nil
}

func atomColumnNames(order int) []string {
	ret := make([]string, order)
	for i := range ret {
		ret[i] = "atom" + strconv.Itoa(i+1)
	}
	return ret
}

// AddTerms adds bonded terms of the given order. T has a term_index
// column, one atomN column per atom (atom1, atom2...), and either a
// term_uid column referencing stored parameters or a term_name column
// with the form name plus a column per parameter of that form. Parameter
// columns of different forms can coexist in one table, cells that don't
// apply to a row's form are ignored. utype gives the units of the
// parameter columns. Nothing is added if any row fails.
func (D *DataLayer) AddTerms(order any, T *storage.Table, utype map[string]string) error {
	o, u, err := D.paramTable(order)
	if err != nil {
		return err
	}
	if T == nil {
		return fmt.Errorf("%w: nil term table", goff.ErrType)
	}
	acols := atomColumnNames(o)
	if !T.Has(append([]string{"term_index"}, acols...)...) {
		return fmt.Errorf("%w: a table of order %d terms needs the columns term_index and %v, got %v", goff.ErrKey, o, acols, T.Columns)
	}
	byUID, byName := T.Has("term_uid"), T.Has("term_name")
	if byUID == byName {
		return fmt.Errorf("%w: a term table needs exactly one of the term_uid and term_name columns", goff.ErrKey)
	}
	type pending struct {
		index int
		atoms []int
		uid   int
		param termParameter
	}
	todo := make([]pending, 0, T.Len())
	seen := make(map[int]bool, T.Len())
	ti, tu, tn := T.Index("term_index"), T.Index("term_uid"), T.Index("term_name")
	for r, row := range T.Rows {
		p := pending{atoms: make([]int, o), uid: -1}
		if p.index, err = storage.Int(row[ti]); err != nil {
			return fmt.Errorf("term table row %d: %w", r, err)
		}
		if _, ok := D.terms[o][p.index]; ok || seen[p.index] {
			return fmt.Errorf("%w: term %d of order %d already exists", goff.ErrKey, p.index, o)
		}
		seen[p.index] = true
		for i, c := range acols {
			if p.atoms[i], err = storage.Int(row[T.Index(c)]); err != nil {
				return fmt.Errorf("term %d, %s: %w", p.index, c, err)
			}
		}
		if byUID {
			if p.uid, err = storage.Int(row[tu]); err != nil {
				return fmt.Errorf("term %d: %w", p.index, err)
			}
			if !u.has(p.uid) {
				return fmt.Errorf("%w: term %d references parameter uid %d, which doesn't exist", goff.ErrKey, p.index, p.uid)
			}
			todo = append(todo, p)
			continue
		}
		form, ok := row[tn].(string)
		if !ok {
			return fmt.Errorf("%w: term %d has a non-string form name %v", goff.ErrType, p.index, row[tn])
		}
		desc, err := metadata.TermMetadata(o, form)
		if err != nil {
			return fmt.Errorf("term %d: %w", p.index, err)
		}
		values := make(map[string]any, len(desc.Parameters))
		var ut map[string]string
		if utype != nil {
			ut = make(map[string]string, len(desc.Parameters))
		}
		for _, k := range desc.Parameters {
			c := T.Index(k)
			if c < 0 {
				return fmt.Errorf("%w: term %d of form %s needs a %s column", goff.ErrKey, p.index, form, k)
			}
			if row[c] == nil {
				return fmt.Errorf("%w: term %d of form %s has no value for %s", goff.ErrValue, p.index, form, k)
			}
			values[k] = row[c]
			if u, ok := utype[k]; ok {
				ut[k] = u
			}
		}
		if p.param, err = D.validateTermParameter(o, form, values, ut); err != nil {
			return fmt.Errorf("term %d: %w", p.index, err)
		}
		todo = append(todo, p)
	}
	for _, p := range todo {
		if p.uid < 0 {
			if p.uid, err = u.add(p.param.key(), p.param); err != nil {
				return err
			}
		}
		D.terms[o][p.index] = &term{atoms: p.atoms, uid: p.uid}
	}
	return nil
}

// Terms returns the terms of an order, sorted by index.
func (D *DataLayer) Terms(order any) ([]Term, error) {
	o, err := metadata.Order(order)
	if err != nil {
		return nil, err
	}
	ret := make([]Term, 0, len(D.terms[o]))
	for _, i := range slices.Sorted(maps.Keys(D.terms[o])) {
		t := D.terms[o][i]
		ret = append(ret, Term{Index: i, Atoms: slices.Clone(t.atoms), UID: t.uid})
	}
	return ret, nil
}

// GetTerms returns the terms of an order as a table with the columns
// term_index, atom1...atomN and term_uid.
func (D *DataLayer) GetTerms(order any) (*storage.Table, error) {
	terms, err := D.Terms(order)
	if err != nil {
		return nil, err
	}
	o, _ := metadata.Order(order)
	T := storage.NewTable(append(append([]string{"term_index"}, atomColumnNames(o)...), "term_uid")...)
	for _, t := range terms {
		row := []any{t.Index}
		for _, a := range t.Atoms {
			row = append(row, a)
		}
		if err := T.Append(append(row, t.UID)...); err != nil {
			return nil, err
		}
	}
	return T, nil
}

// TermCount returns the number of terms of an order.
func (D *DataLayer) TermCount(order any) (int, error) {
	o, err := metadata.Order(order)
	if err != nil {
		return 0, err
	}
	return len(D.terms[o]), nil
}
