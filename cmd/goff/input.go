package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmera/goff/amber"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/storage"
	"github.com/rmera/goff/top"
)

// input describes where a system is read from.
type input struct {
	path    string
	coords  string   // inpcrd file, optional
	defines []string // for GROMACS #ifdef blocks
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// openSQLite opens the stores of the sqlite backend.
var openSQLite = storage.OpenSQLite

// newDataLayer returns an empty DataLayer on the configured backend.
func newDataLayer(name string) (*datalayer.DataLayer, error) {
	if cfg.Backend != "sqlite" {
		return datalayer.New(name, nil), nil
	}
	B, err := openSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	return datalayer.New(name, B), nil
}

// load reads the system in in, choosing the reader by file extension.
// On error, the backend of the partially read system is closed.
func load(in input) (*datalayer.DataLayer, error) {
	name := strings.TrimSuffix(filepath.Base(in.path), filepath.Ext(in.path))
	var D *datalayer.DataLayer
	fail := func(err error) (*datalayer.DataLayer, error) {
		if D != nil {
			if cerr := D.Close(); cerr != nil {
				sugar.Warnw("closing the parameter store", "error", cerr)
			}
		}
		return nil, err
	}
	var err error
	switch ext(in.path) {
	case ".prmtop", ".parm7", ".top7":
		D, err = newDataLayer(name)
		if err != nil {
			return nil, err
		}
		err = readFile(in.path, func(f *os.File) error { return amber.ReadPrmtop(f, D, sugar) })
	case ".top":
		D, err = newDataLayer("")
		if err != nil {
			return nil, err
		}
		opts := top.ReadOptions{Defines: in.defines, FollowIncludes: true, IncludeDir: filepath.Dir(in.path), Log: sugar}
		err = readFile(in.path, func(f *os.File) error { return top.Read(f, D, opts) })
		if err == nil && D.Name == "" {
			D.Name = name
		}
	case ".goff":
		err = readFile(in.path, func(f *os.File) error {
			B, err := storage.ReadArchive(f)
			if err != nil {
				return err
			}
			D, err = datalayer.Load(B)
			return err
		})
	case ".db", ".sqlite":
		var B *storage.SQLite
		if B, err = openSQLite(in.path); err != nil {
			return nil, err
		}
		if D, err = datalayer.Load(B); err != nil {
			B.Close()
		}
	default:
		return nil, fmt.Errorf("unknown input format %q", filepath.Ext(in.path))
	}
	if err != nil {
		return fail(fmt.Errorf("reading %s: %w", in.path, err))
	}
	if in.coords != "" {
		err = readFile(in.coords, func(f *os.File) error { return amber.ReadInpcrd(f, D, sugar) })
		if err != nil {
			return fail(fmt.Errorf("reading %s: %w", in.coords, err))
		}
	}
	if cfg.MixingRule != "" && cfg.MixingRule != D.MixingRule() {
		sugar.Infow("replacing mixing rule", "from", D.MixingRule(), "to", cfg.MixingRule)
		if err := D.SetMixingRule(cfg.MixingRule); err != nil {
			return fail(err)
		}
	}
	return D, nil
}

func readFile(path string, read func(f *os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return read(f)
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
