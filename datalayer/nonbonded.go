package datalayer

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/rmera/goff"
	"github.com/rmera/goff/forms"
	"github.com/rmera/goff/metadata"
	"gonum.org/v1/gonum/mat"
)

// NBKey identifies a non-bonded parameter set: the parameters of a single
// atom type, or those of a pair of types. Pair keys are sorted, so (1,2)
// and (2,1) are the same key.
type NBKey struct {
	A, B int
	Pair bool
}

// Single returns the key for the parameters of one atom type.
func Single(t int) NBKey {
	return NBKey{A: t, B: t}
}

// Pair returns the key for the parameters between two atom types.
func Pair(a, b int) NBKey {
	if a > b {
		a, b = b, a
	}
	return NBKey{A: a, B: b, Pair: true}
}

func (K NBKey) String() string {
	if K.Pair {
		return fmt.Sprintf("(%d, %d)", K.A, K.B)
	}
	return fmt.Sprintf("%d", K.A)
}

func compareKeys(a, b NBKey) int {
	if a.Pair != b.Pair {
		if a.Pair {
			return 1
		}
		return -1
	}
	return cmp.Or(cmp.Compare(a.A, b.A), cmp.Compare(a.B, b.B))
}

// nbEntry is a non-bonded parameter set in the internal model of its form,
// in canonical units. Explicit pairs were given by the user, the rest come
// from mixing.
type nbEntry struct {
	Form     string
	Values   []float64
	Explicit bool
}

func nbKeyFor(atomType int, atomType2 []int) (NBKey, error) {
	if atomType < 0 {
		return NBKey{}, fmt.Errorf("%w: negative atom type %d", goff.ErrValue, atomType)
	}
	switch len(atomType2) {
	case 0:
		return Single(atomType), nil
	case 1:
		if atomType2[0] < 0 {
			return NBKey{}, fmt.Errorf("%w: negative atom type %d", goff.ErrValue, atomType2[0])
		}
		return Pair(atomType, atomType2[0]), nil
	}
	return NBKey{}, fmt.Errorf("%w: a non-bonded parameter applies to one or two atom types, got %d", goff.ErrValue, 1+len(atomType2))
}

// AddNBParameter stores the non-bonded parameters of an atom type or, if
// atomType2 is given, of a pair of types. model is the parameterization
// of the form params are given in (empty means the internal one), and
// utype their units. Parameters are stored in the form's internal model.
// A pair added this way is explicit, and mixing will not replace it.
func (D *DataLayer) AddNBParameter(atomType int, form, model string, params any, utype map[string]string, atomType2 ...int) error {
	key, err := nbKeyFor(atomType, atomType2)
	if err != nil {
		return err
	}
	desc, err := metadata.NBMetadata(form, model)
	if err != nil {
		return err
	}
	v, err := metadata.ValidateNB(desc, params, utype)
	if err != nil {
		return err
	}
	internal, err := forms.ConvertNB(form, metadata.ToMap(desc.Parameters, v), desc.Model, "")
	if err != nil {
		return fmt.Errorf("atom type %s: %w", key, err)
	}
	D.setNB(key, form, internal, key.Pair)
	return nil
}

func (D *DataLayer) setNB(key NBKey, form string, internal map[string]float64, explicit bool) {
	idesc, _ := metadata.NBMetadata(form, "")
	vals := make([]float64, len(idesc.Parameters))
	for i, p := range idesc.Parameters {
		vals[i] = internal[p]
	}
	D.nb[key] = &nbEntry{Form: form, Values: vals, Explicit: explicit}
}

func (D *DataLayer) nbAs(key NBKey, model string, utype map[string]string) (string, map[string]float64, error) {
	e, ok := D.nb[key]
	if !ok {
		return "", nil, fmt.Errorf("%w: no non-bonded parameters for atom type %s", goff.ErrKey, key)
	}
	idesc, _ := metadata.NBMetadata(e.Form, "")
	fdesc, err := metadata.NBMetadata(e.Form, model)
	if err != nil {
		return "", nil, err
	}
	conv, err := forms.ConvertNB(e.Form, metadata.ToMap(idesc.Parameters, e.Values), "", fdesc.Model)
	if err != nil {
		return "", nil, fmt.Errorf("atom type %s: %w", key, err)
	}
	vals := make([]float64, len(fdesc.Parameters))
	for i, p := range fdesc.Parameters {
		vals[i] = conv[p]
	}
	ret, err := toUnits(e.Form+"/"+fdesc.Model, fdesc.Parameters, fdesc.Units, vals, utype)
	return e.Form, ret, err
}

// GetNBParameter returns the parameters of an atom type, or of a pair of
// types, in the given model (empty for the internal one) and canonical
// units.
func (D *DataLayer) GetNBParameter(atomType int, model string, atomType2 ...int) (map[string]float64, error) {
	key, err := nbKeyFor(atomType, atomType2)
	if err != nil {
		return nil, err
	}
	_, ret, err := D.nbAs(key, model, nil)
	return ret, err
}

// NBForm returns the form of the parameters stored under key.
func (D *DataLayer) NBForm(key NBKey) (string, error) {
	e, ok := D.nb[key]
	if !ok {
		return "", fmt.Errorf("%w: no non-bonded parameters for atom type %s", goff.ErrKey, key)
	}
	return e.Form, nil
}

// IsExplicit returns true if the pair under key was given explicitly
// rather than obtained by mixing.
func (D *DataLayer) IsExplicit(key NBKey) bool {
	e, ok := D.nb[key]
	return ok && e.Explicit
}

func (D *DataLayer) singleLJ(t int) (map[string]float64, error) {
	e, ok := D.nb[Single(t)]
	if !ok {
		return nil, fmt.Errorf("%w: no non-bonded parameters for atom type %d", goff.ErrKey, t)
	}
	if e.Form != metadata.LJ {
		return nil, fmt.Errorf("%w: atom type %d has %s parameters, only %s can be mixed", goff.ErrValue, t, e.Form, metadata.LJ)
	}
	_, ret, err := D.nbAs(Single(t), "epsilon/sigma", nil)
	return ret, err
}

func (D *DataLayer) rule(rule string) (string, error) {
	if rule == "" {
		rule = D.mixingRule
	}
	if rule == "" {
		return "", fmt.Errorf("%w: no mixing rule given or set", goff.ErrValue)
	}
	if err := metadata.CheckMixingRule(rule); err != nil {
		return "", err
	}
	return rule, nil
}

// MixLJParameters obtains the Lennard-Jones parameters of the pair of
// types a and b from those of each type, using rule or, if rule is empty,
// the mixing rule of the DataLayer. The pair is stored, replacing any
// previous parameters for it.
func (D *DataLayer) MixLJParameters(a, b int, rule string) error {
	r, err := D.rule(rule)
	if err != nil {
		return err
	}
	pa, err := D.singleLJ(a)
	if err != nil {
		return err
	}
	pb, err := D.singleLJ(b)
	if err != nil {
		return err
	}
	return D.mix(Pair(a, b), pa, pb, r)
}

func (D *DataLayer) mix(key NBKey, pa, pb map[string]float64, rule string) error {
	m, err := forms.MixLJ(pa, pb, rule)
	if err != nil {
		return err
	}
	ab, err := forms.ConvertLJ(m, "epsilon/sigma", "AB")
	if err != nil {
		return fmt.Errorf("atom types %s: %w", key, err)
	}
	D.setNB(key, metadata.LJ, ab, false)
	return nil
}

func (D *DataLayer) nbTypes(form string) []int {
	var ret []int
	for k, e := range D.nb {
		if !k.Pair && (form == "" || e.Form == form) {
			ret = append(ret, k.A)
		}
	}
	slices.Sort(ret)
	return ret
}

// BuildMixingTable fills the pair table with every pair of types with
// Lennard-Jones parameters, self-pairs included, using the mixing rule of
// the DataLayer. Explicit pairs are kept.
func (D *DataLayer) BuildMixingTable() error {
	rule, err := D.rule("")
	if err != nil {
		return err
	}
	if rule == "custom" {
		return fmt.Errorf("%w: with the custom mixing rule, pair parameters must be given explicitly", goff.ErrValue)
	}
	types := D.nbTypes(metadata.LJ)
	singles := make(map[int]map[string]float64, len(types))
	for _, t := range types {
		if singles[t], err = D.singleLJ(t); err != nil {
			return err
		}
	}
	for i, a := range types {
		for _, b := range types[i:] {
			key := Pair(a, b)
			if D.IsExplicit(key) {
				continue
			}
			if err := D.mix(key, singles[a], singles[b], rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListNBParameters returns the parameters of the given form, in model
// (empty for the internal one) and utype units (nil for canonical ones).
// itype selects "single" types, "pair"s or "all".
func (D *DataLayer) ListNBParameters(form, model, itype string, utype map[string]string) (map[NBKey]map[string]float64, error) {
	if _, err := metadata.NBMetadata(form, model); err != nil {
		return nil, err
	}
	if itype != "single" && itype != "pair" && itype != "all" {
		return nil, fmt.Errorf("%w: itype must be single, pair or all, got %q", goff.ErrValue, itype)
	}
	ret := make(map[NBKey]map[string]float64)
	for k, e := range D.nb {
		if e.Form != form || (itype == "single" && k.Pair) || (itype == "pair" && !k.Pair) {
			continue
		}
		_, v, err := D.nbAs(k, model, utype)
		if err != nil {
			return nil, err
		}
		ret[k] = v
	}
	return ret, nil
}

// NBKeys returns the keys with stored parameters, singles first, sorted.
func (D *DataLayer) NBKeys() []NBKey {
	return slices.SortedFunc(maps.Keys(D.nb), compareKeys)
}

// PairMatrix returns the parameter param, in the given Lennard-Jones
// model, for every pair of types with LJ parameters, as a symmetric
// matrix. The second return value gives the type of each row. Every pair
// must be present, as after BuildMixingTable.
func (D *DataLayer) PairMatrix(model, param string) (*mat.SymDense, []int, error) {
	desc, err := metadata.NBMetadata(metadata.LJ, model)
	if err != nil {
		return nil, nil, err
	}
	if !slices.Contains(desc.Parameters, param) {
		return nil, nil, fmt.Errorf("%w: model %s has no parameter %s, parameters: %v", goff.ErrKey, desc.Model, param, desc.Parameters)
	}
	types := D.nbTypes(metadata.LJ)
	if len(types) == 0 {
		return nil, nil, fmt.Errorf("%w: no atom types with %s parameters", goff.ErrKey, metadata.LJ)
	}
	m := mat.NewSymDense(len(types), nil)
	for i, a := range types {
		for j := i; j < len(types); j++ {
			_, v, err := D.nbAs(Pair(a, types[j]), desc.Model, nil)
			if err != nil {
				return nil, nil, err
			}
			m.SetSym(i, j, v[param])
		}
	}
	return m, types, nil
}
