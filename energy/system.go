package energy

import (
	"fmt"

	"github.com/rmera/goff"
	"github.com/rmera/goff/chemgraph"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/forms"
	"github.com/rmera/goff/metadata"
	"github.com/rmera/goff/storage"
	"gonum.org/v1/gonum/spatial/r3"
)

// Breakdown is the energy of a system, by component.
type Breakdown struct {
	Bond, Angle, Dihedral float64
	VdW, Coulomb          float64
}

// Total returns the sum of all components.
func (B Breakdown) Total() float64 {
	return B.Bond + B.Angle + B.Dihedral + B.VdW + B.Coulomb
}

type site struct {
	xyz    r3.Vec
	q      float64
	typ    int
	hasTyp bool
}

func sites(D *datalayer.DataLayer) (map[int]*site, error) {
	T, err := D.GetAtoms([]string{"xyz", "charge", "atom_type"}, true, nil)
	if err != nil {
		return nil, err
	}
	ret := make(map[int]*site, T.Len())
	for _, row := range T.Rows {
		i, _ := storage.Int(row[0])
		if row[1] == nil {
			return nil, fmt.Errorf("%w: atom %d has no coordinates", goff.ErrKey, i)
		}
		s := &site{xyz: r3.Vec{X: row[1].(float64), Y: row[2].(float64), Z: row[3].(float64)}}
		if row[4] != nil {
			s.q = row[4].(float64)
		}
		if row[5] != nil {
			s.typ, s.hasTyp = row[5].(int), true
		}
		ret[i] = s
	}
	return ret, nil
}

func (B *Breakdown) bonded(D *datalayer.DataLayer, at map[int]*site) error {
	for _, o := range []int{metadata.Bond, metadata.Angle, metadata.Dihedral} {
		terms, err := D.Terms(o)
		if err != nil {
			return err
		}
		for _, t := range terms {
			x := make([]r3.Vec, len(t.Atoms))
			for i, a := range t.Atoms {
				s, ok := at[a]
				if !ok {
					return fmt.Errorf("%w: term %d of order %d uses atom %d, which doesn't exist", goff.ErrKey, t.Index, o, a)
				}
				x[i] = s.xyz
			}
			form, p, err := D.GetTermParameter(o, t.UID, nil)
			if err != nil {
				return err
			}
			var e float64
			switch o {
			case metadata.Bond:
				e, err = Bond(form, p, Distance(x[0], x[1]))
				B.Bond += e
			case metadata.Angle:
				e, err = Angle(form, p, BondAngle(x[0], x[1], x[2]), Distance(x[0], x[2]))
				B.Angle += e
			case metadata.Dihedral:
				e, err = Dihedral(form, p, DihedralAngle(x[0], x[1], x[2], x[3]))
				B.Dihedral += e
			}
			if err != nil {
				return fmt.Errorf("term %d of order %d: %w", t.Index, o, err)
			}
		}
	}
	return nil
}

// PairParameters returns the stored parameters for a pair of atom types,
// in the internal model, or mixes them with the DataLayer's rule if the
// pair isn't stored.
func PairParameters(D *datalayer.DataLayer, a, b int) (string, map[string]float64, error) {
	key := datalayer.Pair(a, b)
	form, err := D.NBForm(key)
	if err == nil {
		p, err := D.GetNBParameter(a, "", b)
		return form, p, err
	}
	rule := D.MixingRule()
	if rule == "" || rule == "custom" {
		return "", nil, fmt.Errorf("%w: no parameters for atom type pair %s and no mixing rule to obtain them", goff.ErrKey, key)
	}
	pa, err := D.GetNBParameter(a, "epsilon/sigma")
	if err != nil {
		return "", nil, err
	}
	pb, err := D.GetNBParameter(b, "epsilon/sigma")
	if err != nil {
		return "", nil, err
	}
	m, err := forms.MixLJ(pa, pb, rule)
	if err != nil {
		return "", nil, err
	}
	ab, err := forms.ConvertLJ(m, "epsilon/sigma", "AB")
	return metadata.LJ, ab, err
}

func (B *Breakdown) nonBonded(D *datalayer.DataLayer, at map[int]*site) error {
	top, err := chemgraph.FromDataLayer(D)
	if err != nil {
		return err
	}
	vdw, _ := D.NBScaling("vdw")
	coul, _ := D.NBScaling("coul")
	scaled := make(map[[2]int]string)
	pairs := top.Pairs()
	for key, list := range map[string][][2]int{"scale12": pairs.P12, "scale13": pairs.P13, "scale14": pairs.P14} {
		for _, p := range list {
			scaled[p] = key
		}
	}
	idx := D.AtomIndices()
	cache := make(map[datalayer.NBKey]map[string]float64)
	pforms := make(map[datalayer.NBKey]string)
	for x, i := range idx {
		for _, j := range idx[x+1:] {
			sv, sc := 1.0, 1.0
			if k, ok := scaled[[2]int{i, j}]; ok {
				sv, sc = vdw[k], coul[k]
			}
			si, sj := at[i], at[j]
			r := Distance(si.xyz, sj.xyz)
			B.Coulomb += sc * Coulomb(si.q, sj.q, r)
			if !si.hasTyp || !sj.hasTyp || sv == 0 {
				continue
			}
			key := datalayer.Pair(si.typ, sj.typ)
			p, ok := cache[key]
			if !ok {
				form, pp, err := PairParameters(D, si.typ, sj.typ)
				if err != nil {
					return err
				}
				cache[key], pforms[key], p = pp, form, pp
			}
			e, err := Pair(pforms[key], "", p, r)
			if err != nil {
				return err
			}
			B.VdW += sv * e
		}
	}
	return nil
}

// System returns the energy of the whole system in D, with the
// coordinates stored in D. Non-bonded interactions between atoms 1-2, 1-3
// and 1-4 bonded are scaled by the DataLayer's scaling factors.
// No cutoffs or periodic images are used.
func System(D *datalayer.DataLayer) (Breakdown, error) {
	var B Breakdown
	at, err := sites(D)
	if err != nil {
		return B, err
	}
	if err := B.bonded(D, at); err != nil {
		return B, err
	}
	if err := B.nonBonded(D, at); err != nil {
		return B, err
	}
	return B, nil
}
