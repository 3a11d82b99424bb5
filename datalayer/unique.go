package datalayer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rmera/goff"
)

// conflict wraps both goff.ErrKey and goff.ErrConflict.
func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", goff.ErrKey, goff.ErrConflict, fmt.Sprintf(format, args...))
}

// uniqueTable stores each distinct value once, under an integer uid.
// byUID and byHash are always modified together.
type uniqueTable[V any] struct {
	tol    int
	byUID  map[int]V
	hashes map[int]string
	byHash map[string]int
}

func newUniqueTable[V any](tol int) *uniqueTable[V] {
	return &uniqueTable[V]{
		tol:    tol,
		byUID:  make(map[int]V),
		hashes: make(map[int]string),
		byHash: make(map[string]int),
	}
}

// hashOf is split from add so callers can validate a whole batch before
// adding anything.
func (u *uniqueTable[V]) hashOf(key any) (string, error) {
	return Hash(key, u.tol)
}

// add registers value, identified by key (the hashed representation).
// Adding a value that is already there returns its uid. Without an explicit
// uid, the lowest free uid is used. An explicit uid that is taken by a
// different value is a conflict. An explicit free uid is always used,
// even if the value is already stored under another uid.
func (u *uniqueTable[V]) add(key any, value V, uid ...int) (int, error) {
	h, err := u.hashOf(key)
	if err != nil {
		return -1, err
	}
	if len(uid) > 0 {
		id := uid[0]
		if id < 0 {
			return -1, fmt.Errorf("%w: uid must be non-negative, got %d", goff.ErrValue, id)
		}
		if old, ok := u.hashes[id]; ok {
			if old == h {
				return id, nil
			}
			return -1, conflict("uid %d already holds a different value", id)
		}
		u.set(id, h, value)
		return id, nil
	}
	if id, ok := u.byHash[h]; ok {
		return id, nil
	}
	id := FindLowestHole(slices.Collect(maps.Keys(u.byUID)))
	u.set(id, h, value)
	return id, nil
}

func (u *uniqueTable[V]) set(id int, h string, value V) {
	u.byUID[id] = value
	u.hashes[id] = h
	if _, ok := u.byHash[h]; !ok {
		u.byHash[h] = id
	}
}

// check returns an error if adding key under uid would fail.
func (u *uniqueTable[V]) check(key any, uid ...int) error {
	h, err := u.hashOf(key)
	if err != nil {
		return err
	}
	if len(uid) == 0 {
		return nil
	}
	if uid[0] < 0 {
		return fmt.Errorf("%w: uid must be non-negative, got %d", goff.ErrValue, uid[0])
	}
	if old, ok := u.hashes[uid[0]]; ok && old != h {
		return conflict("uid %d already holds a different value", uid[0])
	}
	return nil
}

func (u *uniqueTable[V]) get(uid int) (V, error) {
	v, ok := u.byUID[uid]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: uid %d not found", goff.ErrKey, uid)
	}
	return v, nil
}

func (u *uniqueTable[V]) has(uid int) bool {
	_, ok := u.byUID[uid]
	return ok
}

func (u *uniqueTable[V]) uids() []int {
	return slices.Sorted(maps.Keys(u.byUID))
}

func (u *uniqueTable[V]) len() int {
	return len(u.byUID)
}
