package storage

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/rmera/goff"
	_ "modernc.org/sqlite"
)

// SQLite is a Backend on an SQLite database. Each table is an SQL table
// whose column types are taken from the first row stored.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens, or creates, the database at path. Use ":memory:" for a
// database that is never written to disk.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	//a ":memory:" database exists once per connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	return &SQLite{db: db, path: path}, nil
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlType(T *Table, col int) string {
	for _, r := range T.Rows {
		switch normalize(r[col]).(type) {
		case int:
			return "INTEGER"
		case float64:
			return "REAL"
		case string:
			return "TEXT"
		}
	}
	return ""
}

func (S *SQLite) columns(name string) ([]string, error) {
	rows, err := S.db.Query("SELECT name FROM pragma_table_info(?) ORDER BY cid", name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, rows.Err()
}

func (S *SQLite) AddTable(name string, T *Table, app bool) (err error) {
	if err := checkShape(name, T); err != nil {
		return err
	}
	old, err := S.columns(name)
	if err != nil {
		return err
	}
	exists := len(old) > 0
	if app && exists && !slices.Equal(old, T.Columns) {
		return fmt.Errorf("%w: can't append columns %v to table %s with columns %v", goff.ErrValue, T.Columns, name, old)
	}
	tx, err := S.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	if exists && !app {
		if _, err = tx.Exec("DROP TABLE " + quote(name)); err != nil {
			return err
		}
	}
	if !exists || !app {
		defs := make([]string, len(T.Columns))
		for i, c := range T.Columns {
			defs[i] = strings.TrimSpace(quote(c) + " " + sqlType(T, i))
		}
		if _, err = tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", "))); err != nil {
			return fmt.Errorf("creating table %s: %w", name, err)
		}
	}
	if len(T.Rows) == 0 {
		return nil
	}
	cols := make([]string, len(T.Columns))
	for i, c := range T.Columns {
		cols[i] = quote(c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(name), strings.Join(cols, ", "), marks))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range T.Rows {
		if _, err = stmt.Exec(r...); err != nil {
			return fmt.Errorf("inserting into %s: %w", name, err)
		}
	}
	return nil
}

func (S *SQLite) ReadTable(name string) (*Table, error) {
	cols, err := S.columns(name)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no table %s", goff.ErrKey, name)
	}
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = quote(c)
	}
	rows, err := S.db.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(q, ", "), quote(name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	T := NewTable(cols...)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		if err := T.Append(vals...); err != nil {
			return nil, err
		}
	}
	return T, rows.Err()
}

func (S *SQLite) ListTables() ([]string, error) {
	rows, err := S.db.Query("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		ret = append(ret, n)
	}
	return ret, rows.Err()
}

func (S *SQLite) Close() error {
	return S.db.Close()
}
