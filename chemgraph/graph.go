// Package chemgraph builds the bond graph of a system and finds the atom
// pairs separated by one, two and three bonds, which force fields exclude
// from, or scale in, the non-bonded interactions.
package chemgraph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/rmera/goff"
	"github.com/rmera/goff/datalayer"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

type Atom struct {
	Index int
}

func (A *Atom) ID() int64 {
	return int64(A.Index)
}

type Bond struct {
	At1, At2 *Atom
}

func (B *Bond) From() graph.Node {
	return B.At1
}

func (B *Bond) To() graph.Node {
	return B.At2
}

// bonds are not directional, so we just switch the atoms in a copy.
func (B *Bond) ReversedEdge() graph.Edge {
	return &Bond{At1: B.At2, At2: B.At1}
}

// Topology is the undirected graph of atoms and bonds.
type Topology struct {
	g *simple.UndirectedGraph
}

// FromBonds returns the topology defined by the pairs of bonded atom
// indices in bonds.
func FromBonds(bonds [][2]int) (*Topology, error) {
	T := &Topology{g: simple.NewUndirectedGraph()}
	for _, b := range bonds {
		if err := T.AddBond(b[0], b[1]); err != nil {
			return nil, err
		}
	}
	return T, nil
}

// FromDataLayer returns the topology given by the bond terms of D, with
// every atom of D as a node, bonded or not.
func FromDataLayer(D *datalayer.DataLayer) (*Topology, error) {
	terms, err := D.Terms(2)
	if err != nil {
		return nil, err
	}
	bonds := make([][2]int, len(terms))
	for i, t := range terms {
		bonds[i] = [2]int{t.Atoms[0], t.Atoms[1]}
	}
	T, err := FromBonds(bonds)
	if err != nil {
		return nil, err
	}
	for _, i := range D.AtomIndices() {
		T.AddAtom(i)
	}
	return T, nil
}

// AddAtom adds an atom, if it is not already there.
func (T *Topology) AddAtom(i int) {
	if T.g.Node(int64(i)) == nil {
		T.g.AddNode(&Atom{Index: i})
	}
}

// AddBond bonds atoms i and j, adding them if needed.
func (T *Topology) AddBond(i, j int) error {
	if i == j {
		return fmt.Errorf("%w: atom %d can't be bonded to itself", goff.ErrValue, i)
	}
	if i < 0 || j < 0 {
		return fmt.Errorf("%w: negative atom index in bond %d-%d", goff.ErrValue, i, j)
	}
	T.AddAtom(i)
	T.AddAtom(j)
	T.g.SetEdge(&Bond{At1: T.g.Node(int64(i)).(*Atom), At2: T.g.Node(int64(j)).(*Atom)})
	return nil
}

// Len returns the number of atoms.
func (T *Topology) Len() int {
	return T.g.Nodes().Len()
}

// Bonded returns true if atoms i and j are bonded.
func (T *Topology) Bonded(i, j int) bool {
	return T.g.HasEdgeBetween(int64(i), int64(j))
}

// Neighbors returns the atoms bonded to atom i, sorted.
func (T *Topology) Neighbors(i int) []int {
	if T.g.Node(int64(i)) == nil {
		return nil
	}
	var ret []int
	nodes := T.g.From(int64(i))
	for nodes.Next() {
		ret = append(ret, int(nodes.Node().ID()))
	}
	slices.Sort(ret)
	return ret
}

// Separation returns the number of bonds in the shortest path between
// atoms i and j, up to maxBonds. It returns -1 if the atoms are farther
// apart, or not connected.
func (T *Topology) Separation(i, j, maxBonds int) int {
	from := T.g.Node(int64(i))
	if from == nil || T.g.Node(int64(j)) == nil {
		return -1
	}
	found := -1
	bf := traverse.BreadthFirst{}
	bf.Walk(T.g, from, func(n graph.Node, d int) bool {
		if d > maxBonds {
			return true
		}
		if n.ID() == int64(j) {
			found = d
			return true
		}
		return false
	})
	return found
}

// Pairs holds the atom pairs separated by exactly one, two and three bonds
// along the shortest path. Each pair is sorted, and so are the lists.
type Pairs struct {
	P12, P13, P14 [][2]int
}

// Pairs returns the 1-2, 1-3 and 1-4 pairs. A pair is only counted at its
// shortest separation, so in small rings a pair that is both 1-3 and 1-4
// is a 1-3 pair.
func (T *Topology) Pairs() Pairs {
	var ret Pairs
	nodes := graph.NodesOf(T.g.Nodes())
	slices.SortFunc(nodes, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
	for _, n := range nodes {
		i := int(n.ID())
		bf := traverse.BreadthFirst{}
		bf.Walk(T.g, n, func(m graph.Node, d int) bool {
			if d > 3 {
				return true
			}
			j := int(m.ID())
			if j <= i {
				return false
			}
			switch d {
			case 1:
				ret.P12 = append(ret.P12, [2]int{i, j})
			case 2:
				ret.P13 = append(ret.P13, [2]int{i, j})
			case 3:
				ret.P14 = append(ret.P14, [2]int{i, j})
			}
			return false
		})
	}
	for _, p := range [][][2]int{ret.P12, ret.P13, ret.P14} {
		slices.SortFunc(p, comparePairs)
	}
	return ret
}

func comparePairs(a, b [2]int) int {
	return cmp.Or(cmp.Compare(a[0], b[0]), cmp.Compare(a[1], b[1]))
}

// Angles returns every triplet of atoms i-j-k with i-j and j-k bonded and
// i < k, sorted by central atom.
func (T *Topology) Angles() [][3]int {
	var ret [][3]int
	for _, j := range T.atoms() {
		nb := T.Neighbors(j)
		for x, i := range nb {
			for _, k := range nb[x+1:] {
				ret = append(ret, [3]int{i, j, k})
			}
		}
	}
	return ret
}

// Dihedrals returns every proper dihedral i-j-k-l with j < k.
func (T *Topology) Dihedrals() [][4]int {
	var ret [][4]int
	for _, j := range T.atoms() {
		for _, k := range T.Neighbors(j) {
			if k <= j {
				continue
			}
			for _, i := range T.Neighbors(j) {
				if i == k {
					continue
				}
				for _, l := range T.Neighbors(k) {
					if l == j || l == i {
						continue
					}
					ret = append(ret, [4]int{i, j, k, l})
				}
			}
		}
	}
	return ret
}

func (T *Topology) atoms() []int {
	var ret []int
	nodes := T.g.Nodes()
	for nodes.Next() {
		ret = append(ret, int(nodes.Node().ID()))
	}
	slices.Sort(ret)
	return ret
}
