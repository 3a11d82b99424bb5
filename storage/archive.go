package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rmera/goff"
)

// archiveVersion is written to every archive and checked when reading.
const archiveVersion = 1

type archiveTable struct {
	Columns []string `json:"columns"`
	//"int", "float", "string" or "" for columns with only nil values.
	Kinds []string `json:"kinds"`
	Rows  [][]any  `json:"rows"`
}

type archive struct {
	Version int                      `json:"version"`
	Tables  map[string]*archiveTable `json:"tables"`
}

func columnKind(T *Table, col int) string {
	kind := ""
	for _, r := range T.Rows {
		switch normalize(r[col]).(type) {
		case int:
			if kind == "" {
				kind = "int"
			}
		case float64:
			kind = "float"
		case string:
			return "string"
		}
	}
	return kind
}

// WriteArchive writes every table in B to w, as zstd-compressed JSON.
func WriteArchive(w io.Writer, B Backend) error {
	names, err := B.ListTables()
	if err != nil {
		return err
	}
	a := archive{Version: archiveVersion, Tables: make(map[string]*archiveTable, len(names))}
	for _, n := range names {
		T, err := B.ReadTable(n)
		if err != nil {
			return err
		}
		at := &archiveTable{Columns: T.Columns, Kinds: make([]string, len(T.Columns)), Rows: T.Rows}
		for i := range T.Columns {
			at.Kinds[i] = columnKind(T, i)
		}
		a.Tables[n] = at
	}
	z, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(z).Encode(a); err != nil {
		z.Close()
		return fmt.Errorf("writing archive: %w", err)
	}
	return z.Close()
}

// ReadArchive reads an archive written by WriteArchive into a new
// Memory backend.
func ReadArchive(r io.Reader) (*Memory, error) {
	z, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer z.Close()
	dec := json.NewDecoder(z)
	dec.UseNumber()
	var a archive
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: reading archive: %w", goff.ErrValue, err)
	}
	if a.Version != archiveVersion {
		return nil, fmt.Errorf("%w: archive version %d, expected %d", goff.ErrValue, a.Version, archiveVersion)
	}
	M := NewMemory()
	for n, at := range a.Tables {
		if len(at.Kinds) != len(at.Columns) {
			return nil, fmt.Errorf("%w: archive table %s has %d kinds for %d columns", goff.ErrValue, n, len(at.Kinds), len(at.Columns))
		}
		T := NewTable(at.Columns...)
		for _, r := range at.Rows {
			if len(r) != len(at.Columns) {
				return nil, fmt.Errorf("%w: archive table %s has a row with %d values, expected %d", goff.ErrValue, n, len(r), len(at.Columns))
			}
			for i, v := range r {
				if r[i], err = decodeCell(v, at.Kinds[i]); err != nil {
					return nil, fmt.Errorf("archive table %s, column %s: %w", n, at.Columns[i], err)
				}
			}
			T.Rows = append(T.Rows, r)
		}
		M.tables[n] = T
	}
	return M, nil
}

func decodeCell(v any, kind string) (any, error) {
	num, ok := v.(json.Number)
	if !ok {
		return v, nil
	}
	switch kind {
	case "int":
		if !strings.ContainsAny(num.String(), ".eE") {
			i, err := num.Int64()
			return int(i), err
		}
		return nil, fmt.Errorf("%w: %s is not an integer", goff.ErrValue, num)
	case "float":
		return num.Float64()
	}
	return nil, fmt.Errorf("%w: number %s in a %q column", goff.ErrType, num, kind)
}
