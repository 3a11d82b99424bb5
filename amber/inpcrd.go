package amber

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rmera/goff"
	"github.com/rmera/goff/datalayer"
	"github.com/rmera/goff/metadata"
	"github.com/rmera/goff/storage"
	"go.uber.org/zap"
)

const (
	crdWidth   = 12
	crdPerLine = 6
)

// ReadInpcrd reads the coordinates, and the box if the file has one, of
// an AMBER restart/inpcrd file into D. Velocities are skipped. If D
// already has atoms, the file must have the same number of them.
func ReadInpcrd(r io.Reader, D *datalayer.DataLayer, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if D == nil {
		return fmt.Errorf("%w: nil datalayer", goff.ErrType)
	}
	var lines []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		lines = append(lines, strings.TrimRight(s.Text(), "\r"))
	}
	if err := s.Err(); err != nil {
		return err
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 2 {
		return fmt.Errorf("%w: amber: inpcrd file too short", goff.ErrValue)
	}
	head := strings.Fields(lines[1])
	if len(head) == 0 {
		return fmt.Errorf("%w: amber: inpcrd file without an atom count", goff.ErrValue)
	}
	n, err := strconv.Atoi(head[0])
	if err != nil {
		return fmt.Errorf("%w: amber: bad atom count %q", goff.ErrType, head[0])
	}
	if c := D.AtomCount(); c > 0 && c != n {
		return fmt.Errorf("%w: amber: inpcrd file has %d atoms, the datalayer %d", goff.ErrValue, n, c)
	}
	nlines := (3*n + crdPerLine - 1) / crdPerLine
	body := lines[2:]
	if len(body) < nlines {
		return fmt.Errorf("%w: amber: inpcrd file has %d coordinate lines, %d atoms need %d", goff.ErrValue, len(body), n, nlines)
	}
	crd, err := crdFloats(body[:nlines])
	if err != nil {
		return err
	}
	if len(crd) != 3*n {
		return fmt.Errorf("%w: amber: %d coordinates read for %d atoms", goff.ErrValue, len(crd), n)
	}
	T := storage.NewTable(metadata.AtomIndex, "X", "Y", "Z")
	for i := 0; i < n; i++ {
		if err := T.Append(i, crd[3*i], crd[3*i+1], crd[3*i+2]); err != nil {
			return err
		}
	}
	if err := D.AddAtoms(T, map[string]string{"xyz": "angstrom"}); err != nil {
		return fmt.Errorf("amber: %w", err)
	}
	rest := body[nlines:]
	if len(rest) >= nlines && nlines > 0 {
		log.Debugw("skipping velocities", "atoms", n)
		rest = rest[nlines:]
	}
	if len(rest) == 0 {
		return nil
	}
	box, err := crdFloats(rest[:1])
	if err != nil {
		return err
	}
	if len(box) < 3 {
		return fmt.Errorf("%w: amber: box line with %d values", goff.ErrValue, len(box))
	}
	b := map[string]float64{"a": box[0], "b": box[1], "c": box[2]}
	if len(box) >= 6 {
		b["alpha"], b["beta"], b["gamma"] = box[3], box[4], box[5]
	}
	log.Debugw("read box", "box", b)
	return D.SetBoxSize(b, map[string]string{"a": "angstrom", "b": "angstrom", "c": "angstrom", "alpha": "degree", "beta": "degree", "gamma": "degree"})
}

func crdFloats(lines []string) ([]float64, error) {
	var ret []float64
	for _, l := range lines {
		for _, f := range chunks(l, crdWidth, false) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: amber: %q is not a number", goff.ErrType, f)
			}
			ret = append(ret, v)
		}
	}
	return ret, nil
}
