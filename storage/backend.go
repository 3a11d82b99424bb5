package storage

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rmera/goff"
)

// Backend stores named tables.
type Backend interface {
	// AddTable stores a copy of T under name. If app is true and the table
	// exists, the rows are appended to it, which requires both tables to
	// have the same columns. Otherwise the table is replaced.
	AddTable(name string, T *Table, app bool) error
	// ReadTable returns a copy of a stored table.
	ReadTable(name string) (*Table, error)
	// ListTables returns the names of the stored tables, sorted.
	ListTables() ([]string, error)
	Close() error
}

// Memory is a Backend that keeps everything in memory.
type Memory struct {
	tables map[string]*Table
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*Table)}
}

func (M *Memory) AddTable(name string, T *Table, app bool) error {
	if err := checkShape(name, T); err != nil {
		return err
	}
	old, ok := M.tables[name]
	if !app || !ok {
		M.tables[name] = normalized(T)
		return nil
	}
	if !slices.Equal(old.Columns, T.Columns) {
		return fmt.Errorf("%w: can't append columns %v to table %s with columns %v", goff.ErrValue, T.Columns, name, old.Columns)
	}
	old.Rows = append(old.Rows, normalized(T).Rows...)
	return nil
}

func (M *Memory) ReadTable(name string) (*Table, error) {
	T, ok := M.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: no table %s", goff.ErrKey, name)
	}
	return T.Copy(), nil
}

func (M *Memory) ListTables() ([]string, error) {
	return slices.Sorted(maps.Keys(M.tables)), nil
}

// Close does nothing, a Memory backend can still be used after it.
func (M *Memory) Close() error {
	return nil
}

// CopyTables copies every table in src into dst, replacing tables with the
// same name.
func CopyTables(dst, src Backend) error {
	names, err := src.ListTables()
	if err != nil {
		return err
	}
	for _, n := range names {
		T, err := src.ReadTable(n)
		if err != nil {
			return err
		}
		if err := dst.AddTable(n, T, false); err != nil {
			return fmt.Errorf("copying table %s: %w", n, err)
		}
	}
	return nil
}
