package metadata

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rmera/goff"
)

// Kind is the type of value an atom property holds.
type Kind int

const (
	Int Kind = iota
	Float
	String
)

func (K Kind) String() string {
	switch K {
	case Int:
		return "int"
	case Float:
		return "float"
	}
	return "string"
}

// AtomProperty describes one per-atom property.
type AtomProperty struct {
	Name    string
	Columns []string //the table columns holding the property
	Kind    Kind
	//Unique properties are stored once per distinct value and referenced
	//by uid from each atom.
	Unique    bool
	Tolerance int    //decimal digits kept when hashing floats
	Units     string //unit context, empty for unitless properties
}

// DefaultTolerance is the number of decimals used to decide whether two
// floating point parameters are the same one.
const DefaultTolerance = 8

// AtomIndex is the column that identifies the atom in atom tables.
const AtomIndex = "atom_index"

var atomCatalog = map[string]*AtomProperty{
	"atom_name":      {Columns: []string{"atom_name"}, Kind: String, Unique: true},
	"atom_type":      {Columns: []string{"atom_type"}, Kind: Int},
	"charge":         {Columns: []string{"charge"}, Kind: Float, Unique: true, Tolerance: 6, Units: "[charge]"},
	"mass":           {Columns: []string{"mass"}, Kind: Float, Unique: true, Tolerance: 6, Units: "[mass]"},
	"molecule_index": {Columns: []string{"molecule_index"}, Kind: Int},
	"residue_index":  {Columns: []string{"residue_index"}, Kind: Int},
	"residue_name":   {Columns: []string{"residue_name"}, Kind: String, Unique: true},
	"xyz":            {Columns: []string{"X", "Y", "Z"}, Kind: Float, Units: "[length]"},
}

var columnProperty = map[string]string{}

func init() {
	for name, p := range atomCatalog {
		p.Name = name
		for _, c := range p.Columns {
			columnProperty[c] = name
		}
		if p.Units != "" {
			checkCatalog(name, []string{name}, map[string]string{name: p.Units})
		}
	}
}

// AtomProperties returns the names of all known atom properties.
func AtomProperties() []string {
	return slices.Sorted(maps.Keys(atomCatalog))
}

// AtomMetadata returns the descriptor of an atom property.
func AtomMetadata(name string) (AtomProperty, error) {
	p, ok := atomCatalog[name]
	if !ok {
		return AtomProperty{}, fmt.Errorf("%w: unknown atom property %q, valid properties: %v", goff.ErrKey, name, AtomProperties())
	}
	r := *p
	r.Columns = slices.Clone(p.Columns)
	return r, nil
}

// ColumnProperty returns the property a table column belongs to
// ("X" belongs to "xyz", "charge" to "charge").
func ColumnProperty(column string) (string, error) {
	p, ok := columnProperty[column]
	if !ok {
		return "", fmt.Errorf("%w: column %q doesn't belong to any atom property", goff.ErrKey, column)
	}
	return p, nil
}
