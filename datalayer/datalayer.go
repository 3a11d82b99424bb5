/*
 * datalayer.go, part of goFF
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

// Package datalayer is the normalized store for a molecular system and its
// force field. Atoms, bonded terms and non-bonded parameters are kept in
// canonical units, and physical parameters are deduplicated: a parameter
// set that appears in many terms is stored once and referenced by uid.
//
// A DataLayer is not safe for concurrent use.
package datalayer

import (
	"github.com/google/uuid"
	"github.com/rmera/goff/metadata"
	"github.com/rmera/goff/storage"
)

// DataLayer holds one molecular system.
type DataLayer struct {
	ID      string
	Name    string
	backend storage.Backend

	atoms      map[int]*atom
	atomValues map[string]*uniqueTable[any] //unique atom properties

	params map[int]*uniqueTable[termParameter] //by order
	terms  map[int]map[int]*term               //order -> term_index

	nb map[NBKey]*nbEntry

	mixingRule string
	scaling    map[string]map[string]float64
	box        map[string]float64
	boundary   map[string]string
	typeNames  map[int]string
}

// New returns an empty DataLayer that will persist to backend when
// saved. If backend is nil, an in-memory one is used.
func New(name string, backend storage.Backend) *DataLayer {
	if backend == nil {
		backend = storage.NewMemory()
	}
	D := &DataLayer{
		ID:         uuid.NewString(),
		Name:       name,
		backend:    backend,
		atoms:      make(map[int]*atom),
		atomValues: make(map[string]*uniqueTable[any]),
		params:     make(map[int]*uniqueTable[termParameter]),
		terms:      make(map[int]map[int]*term),
		nb:         make(map[NBKey]*nbEntry),
		scaling:    make(map[string]map[string]float64),
		box:        make(map[string]float64),
		boundary:   make(map[string]string),
		typeNames:  make(map[int]string),
	}
	for _, p := range metadata.AtomProperties() {
		d, _ := metadata.AtomMetadata(p)
		if !d.Unique {
			continue
		}
		tol := d.Tolerance
		if tol == 0 {
			tol = metadata.DefaultTolerance
		}
		D.atomValues[p] = newUniqueTable[any](tol)
	}
	for _, o := range []int{metadata.Bond, metadata.Angle, metadata.Dihedral} {
		D.params[o] = newUniqueTable[termParameter](metadata.DefaultTolerance)
		D.terms[o] = make(map[int]*term)
	}
	return D
}

// Backend returns the backend the DataLayer saves to.
func (D *DataLayer) Backend() storage.Backend {
	return D.backend
}

// Close closes the backend.
func (D *DataLayer) Close() error {
	return D.backend.Close()
}
