package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rmera/goff/internal/config"
	"github.com/rmera/goff/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	prmtop = filepath.Join("..", "..", "amber", "testdata", "butane.prmtop")
	inpcrd = filepath.Join("..", "..", "amber", "testdata", "butane.inpcrd")
)

// run executes goff with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := getRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "GOFF_")
	for _, c := range []string{"convert", "energy", "info", "plot", "config"} {
		assert.Contains(t, out, c)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "-V")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func totalEnergy(t *testing.T, out string) float64 {
	t.Helper()
	for _, l := range strings.Split(out, "\n") {
		if f := strings.Fields(l); len(f) == 3 && f[0] == "Total" {
			e, err := strconv.ParseFloat(f[1], 64)
			require.NoError(t, err)
			return e
		}
	}
	t.Fatalf("no total energy in %q", out)
	return 0
}

func TestConvertPreservesEnergy(t *testing.T) {
	out, err := run(t, "energy", prmtop, "--coords", inpcrd)
	require.NoError(t, err)
	want := totalEnergy(t, out)

	dir := t.TempDir()
	for _, f := range []string{"butane.top", "butane.goff", "butane.db"} {
		t.Run(f, func(t *testing.T) {
			dst := filepath.Join(dir, f)
			out, err := run(t, "convert", prmtop, dst, "--coords", inpcrd, "--dihedral-form", "RB")
			require.NoError(t, err)
			assert.Contains(t, out, "Wrote 5 atoms")
			_, err = os.Stat(dst)
			require.NoError(t, err)

			coords := []string{}
			if f == "butane.top" {
				coords = []string{"--coords", inpcrd}
			}
			out, err = run(t, append([]string{"energy", dst}, coords...)...)
			require.NoError(t, err)
			assert.InDelta(t, want, totalEnergy(t, out), 1e-4)
		})
	}
}

func TestInfo(t *testing.T) {
	out, err := run(t, "info", prmtop)
	require.NoError(t, err)
	assert.Contains(t, out, "butane")
	assert.Contains(t, out, "Atoms:        5")
	assert.Contains(t, out, "Bonds:        4 (2 parameter sets)")
	assert.Contains(t, out, "lorentz_berthelot (0 explicit pairs)")

	out, err = run(t, "info", prmtop, "--mixing-rule", "geometric")
	require.NoError(t, err)
	assert.Contains(t, out, "Mixing rule:  geometric")
}

func TestPlot(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "dihedral.png")
	out, err := run(t, "plot", prmtop, dst, "--dihedral", "0", "--compare", "RB", "--points", "37")
	require.NoError(t, err)
	assert.Contains(t, out, "Largest difference")
	_, err = os.Stat(dst)
	assert.NoError(t, err)

	_, err = run(t, "plot", prmtop, dst)
	assert.Error(t, err)
}

func TestConfigCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goff.yaml")
	out, err := run(t, "config", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	//the generated file can be used
	_, err = run(t, "info", prmtop, "--config", path)
	assert.NoError(t, err)

	_, err = run(t, "config", "--path", path)
	assert.Error(t, err)

	out, err = run(t, "config", "--show")
	require.NoError(t, err)
	assert.Contains(t, out, "dihedral_form: charmmfsw")
}

func TestBadInput(t *testing.T) {
	_, err := run(t, "info", "system.xyz")
	assert.Error(t, err)
	_, err = run(t, "convert", prmtop, filepath.Join(t.TempDir(), "out.pdb"))
	assert.Error(t, err)
	_, err = run(t, "info", prmtop, "--dihedral-form", "opls")
	assert.Error(t, err)
}

func TestLoadClosesStoreOnError(t *testing.T) {
	cfg = config.New()
	cfg.Backend = "sqlite"
	sugar = zap.NewNop().Sugar()
	var opened []*storage.SQLite
	openSQLite = func(path string) (*storage.SQLite, error) {
		S, err := storage.OpenSQLite(path)
		if err == nil {
			opened = append(opened, S)
		}
		return S, err
	}
	t.Cleanup(func() { openSQLite = storage.OpenSQLite })

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.prmtop")
	require.NoError(t, os.WriteFile(bad, []byte("%VERSION  VERSION_STAMP = V0001.000\n"), 0o644))
	cases := []input{
		{path: bad},
		{path: prmtop, coords: filepath.Join(dir, "missing.inpcrd")},
	}
	for i, in := range cases {
		cfg.SQLitePath = filepath.Join(dir, "store"+strconv.Itoa(i)+".db")
		D, err := load(in)
		assert.Error(t, err)
		assert.Nil(t, D)
		require.Len(t, opened, i+1)
		_, err = opened[i].ListTables()
		assert.Error(t, err, "store of %s left open", in.path)
	}
}
