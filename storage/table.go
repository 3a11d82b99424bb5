/*
 * table.go, part of goFF
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

// Package storage holds the tables a datalayer is made of. A Backend
// stores named tables, either in memory or in an SQLite database, and a
// whole backend can be written to, and read from, a compressed archive.
//
// Cells are int, float64, string or nil. Backends normalize other integer
// and float types on the way in.
package storage

import (
	"fmt"
	"slices"

	"github.com/rmera/goff"
)

// Table is a set of rows sharing the same named columns.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows in the table.
func (T *Table) Len() int {
	return len(T.Rows)
}

// Index returns the position of a column, or -1 if there is no such column.
func (T *Table) Index(col string) int {
	return slices.Index(T.Columns, col)
}

// Has returns true if T has all the given columns.
func (T *Table) Has(cols ...string) bool {
	for _, c := range cols {
		if T.Index(c) < 0 {
			return false
		}
	}
	return true
}

// Column returns the values of a column, in row order.
func (T *Table) Column(col string) ([]any, error) {
	i := T.Index(col)
	if i < 0 {
		return nil, fmt.Errorf("%w: no column %q in table, columns: %v", goff.ErrKey, col, T.Columns)
	}
	ret := make([]any, len(T.Rows))
	for j, r := range T.Rows {
		ret[j] = r[i]
	}
	return ret, nil
}

// Append adds a row. The row must have one value per column.
func (T *Table) Append(row ...any) error {
	if len(row) != len(T.Columns) {
		return fmt.Errorf("%w: row with %d values for a table with %d columns", goff.ErrValue, len(row), len(T.Columns))
	}
	r := make([]any, len(row))
	for i, v := range row {
		r[i] = normalize(v)
	}
	T.Rows = append(T.Rows, r)
	return nil
}

// Copy returns a deep copy of the table.
func (T *Table) Copy() *Table {
	ret := &Table{Columns: slices.Clone(T.Columns), Rows: make([][]any, len(T.Rows))}
	for i, r := range T.Rows {
		ret.Rows[i] = slices.Clone(r)
	}
	return ret
}

func normalize(v any) any {
	switch t := v.(type) {
	case int8:
		return int(t)
	case int16:
		return int(t)
	case int32:
		return int(t)
	case int64:
		return int(t)
	case uint8:
		return int(t)
	case uint16:
		return int(t)
	case uint32:
		return int(t)
	case float32:
		return float64(t)
	case []byte:
		return string(t)
	}
	return v
}

func normalized(T *Table) *Table {
	ret := &Table{Columns: slices.Clone(T.Columns), Rows: make([][]any, len(T.Rows))}
	for i, r := range T.Rows {
		ret.Rows[i] = make([]any, len(r))
		for j, v := range r {
			ret.Rows[i][j] = normalize(v)
		}
	}
	return ret
}

func checkShape(name string, T *Table) error {
	if T == nil {
		return fmt.Errorf("%w: nil table %s", goff.ErrType, name)
	}
	if len(T.Columns) == 0 {
		return fmt.Errorf("%w: table %s has no columns", goff.ErrValue, name)
	}
	seen := make(map[string]bool, len(T.Columns))
	for _, c := range T.Columns {
		if seen[c] {
			return fmt.Errorf("%w: repeated column %q in table %s", goff.ErrValue, c, name)
		}
		seen[c] = true
	}
	for i, r := range T.Rows {
		if len(r) != len(T.Columns) {
			return fmt.Errorf("%w: row %d of table %s has %d values, expected %d", goff.ErrValue, i, name, len(r), len(T.Columns))
		}
	}
	return nil
}

// Int returns v as an int. Whole floats are accepted.
func Int(v any) (int, error) {
	switch t := normalize(v).(type) {
	case int:
		return t, nil
	case float64:
		if t == float64(int(t)) {
			return int(t), nil
		}
		return 0, fmt.Errorf("%w: %g is not an integer", goff.ErrValue, t)
	}
	return 0, fmt.Errorf("%w: %v (%T) is not an integer", goff.ErrType, v, v)
}

// Float returns v as a float64.
func Float(v any) (float64, error) {
	switch t := normalize(v).(type) {
	case int:
		return float64(t), nil
	case float64:
		return t, nil
	}
	return 0, fmt.Errorf("%w: %v (%T) is not a number", goff.ErrType, v, v)
}
