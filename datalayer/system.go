package datalayer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
)

// SetMixingRule sets the rule used to obtain pair parameters.
func (D *DataLayer) SetMixingRule(rule string) error {
	if err := metadata.CheckMixingRule(rule); err != nil {
		return err
	}
	D.mixingRule = rule
	return nil
}

// MixingRule returns the mixing rule, or an empty string if none is set.
func (D *DataLayer) MixingRule() string {
	return D.mixingRule
}

// SetNBScaling sets the factors by which the "vdw" or "coul" interactions
// between atoms 1-2, 1-3 and 1-4 bonded are scaled. Only the given keys
// are modified.
func (D *DataLayer) SetNBScaling(kind string, scale map[string]float64) error {
	if !slices.Contains(metadata.ScalingKinds, kind) {
		return fmt.Errorf("%w: scaling kind %q not supported, valid kinds: %v", goff.ErrValue, kind, metadata.ScalingKinds)
	}
	for k, v := range scale {
		if !slices.Contains(metadata.ScalingKeys, k) {
			return fmt.Errorf("%w: unknown scaling key %q, valid keys: %v", goff.ErrKey, k, metadata.ScalingKeys)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: scaling factor %s=%g must be between 0 and 1", goff.ErrValue, k, v)
		}
	}
	if D.scaling[kind] == nil {
		D.scaling[kind] = make(map[string]float64)
	}
	maps.Copy(D.scaling[kind], scale)
	return nil
}

// NBScaling returns the scaling factors of kind. Factors that were never
// set are 1 for scale14 and 0 for the rest.
func (D *DataLayer) NBScaling(kind string) (map[string]float64, error) {
	if !slices.Contains(metadata.ScalingKinds, kind) {
		return nil, fmt.Errorf("%w: scaling kind %q not supported, valid kinds: %v", goff.ErrValue, kind, metadata.ScalingKinds)
	}
	ret := map[string]float64{"scale12": 0, "scale13": 0, "scale14": 1}
	maps.Copy(ret, D.scaling[kind])
	return ret, nil
}

// SetBoxSize sets the periodic box. Lengths are in utype units (canonical
// ones if utype is nil or doesn't give them) and so are angles.
func (D *DataLayer) SetBoxSize(box map[string]float64, utype map[string]string) error {
	conv := make(map[string]float64, len(box))
	for k, v := range box {
		u, ok := metadata.BoxUnits[k]
		if !ok {
			return fmt.Errorf("%w: unknown box parameter %q", goff.ErrKey, k)
		}
		f, err := factor(utype[k], u)
		if err != nil {
			return fmt.Errorf("box parameter %s: %w", k, err)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative box parameter %s=%g", goff.ErrValue, k, v)
		}
		conv[k] = v * f
	}
	maps.Copy(D.box, conv)
	return nil
}

// BoxSize returns the box parameters that have been set, in utype units.
func (D *DataLayer) BoxSize(utype map[string]string) (map[string]float64, error) {
	ret := make(map[string]float64, len(D.box))
	for k, v := range D.box {
		f, err := factor(metadata.BoxUnits[k], utype[k])
		if err != nil {
			return nil, fmt.Errorf("box parameter %s: %w", k, err)
		}
		ret[k] = v * f
	}
	return ret, nil
}

// SetBoundaryConditions sets the boundary condition along x, y and/or z.
func (D *DataLayer) SetBoundaryConditions(bc map[string]string) error {
	for k, v := range bc {
		if !slices.Contains(metadata.BoundaryDimensions, k) {
			return fmt.Errorf("%w: unknown boundary dimension %q, valid dimensions: %v", goff.ErrKey, k, metadata.BoundaryDimensions)
		}
		if err := metadata.CheckBoundary(v); err != nil {
			return err
		}
	}
	maps.Copy(D.boundary, bc)
	return nil
}

// BoundaryConditions returns the boundary conditions set.
func (D *DataLayer) BoundaryConditions() map[string]string {
	return maps.Clone(D.boundary)
}

// SetAtomTypeName gives a name to an atom type.
func (D *DataLayer) SetAtomTypeName(t int, name string) error {
	if t < 0 {
		return fmt.Errorf("%w: negative atom type %d", goff.ErrValue, t)
	}
	D.typeNames[t] = name
	return nil
}

// AtomTypeName returns the name of an atom type.
func (D *DataLayer) AtomTypeName(t int) (string, error) {
	n, ok := D.typeNames[t]
	if !ok {
		return "", fmt.Errorf("%w: atom type %d has no name", goff.ErrKey, t)
	}
	return n, nil
}

// AtomTypeNames returns the named atom types.
func (D *DataLayer) AtomTypeNames() map[int]string {
	return maps.Clone(D.typeNames)
}
