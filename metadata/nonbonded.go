package metadata

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rmera/goff"
)

// NB describes one model (parameterization) of a non-bonded form.
type NB struct {
	Form        string
	Model       string
	Expression  string
	Parameters  []string
	Units       map[string]string
	Internal    string //the model in which the datalayer stores this form
	Description string
}

func (N NB) clone() NB {
	N.Parameters = slices.Clone(N.Parameters)
	N.Units = maps.Clone(N.Units)
	return N
}

// Non-bonded form names.
const (
	LJ         = "LJ"
	Buckingham = "Buckingham"
)

var nbCatalog = map[string]map[string]*NB{
	LJ: {
		"AB": {
			Expression:  "A/r**12 - B/r**6",
			Parameters:  []string{"A", "B"},
			Units:       map[string]string{"A": "[energy] * [length] ** 12", "B": "[energy] * [length] ** 6"},
			Description: "Lennard-Jones, A/B (C12/C6) coefficients",
		},
		"epsilon/sigma": {
			Expression:  "4*epsilon*((sigma/r)**12 - (sigma/r)**6)",
			Parameters:  []string{"epsilon", "sigma"},
			Units:       map[string]string{"epsilon": energy, "sigma": length},
			Description: "Lennard-Jones, well depth and zero-energy distance",
		},
		"epsilon/Rmin": {
			Expression:  "epsilon*((Rmin/r)**12 - 2*(Rmin/r)**6)",
			Parameters:  []string{"epsilon", "Rmin"},
			Units:       map[string]string{"epsilon": energy, "Rmin": length},
			Description: "Lennard-Jones, well depth and distance of the minimum",
		},
	},
	Buckingham: {
		"A/B/C": {
			Expression:  "A*exp(-B*r) - C/r**6",
			Parameters:  []string{"A", "B", "C"},
			Units:       map[string]string{"A": energy, "B": "[length] ** -1", "C": "[energy] * [length] ** 6"},
			Description: "Buckingham exp-6",
		},
	},
}

var nbInternal = map[string]string{LJ: "AB", Buckingham: "A/B/C"}

func init() {
	for form, models := range nbCatalog {
		if _, ok := models[nbInternal[form]]; !ok {
			panic("metadata: non-bonded form " + form + " lacks its internal model")
		}
		for model, n := range models {
			n.Form = form
			n.Model = model
			n.Internal = nbInternal[form]
			checkCatalog(form+"/"+model, n.Parameters, n.Units)
		}
	}
}

// NBForms returns the known non-bonded forms and, for each, its models.
func NBForms() map[string][]string {
	ret := make(map[string][]string, len(nbCatalog))
	for f, m := range nbCatalog {
		ret[f] = slices.Sorted(maps.Keys(m))
	}
	return ret
}

// NBMetadata returns the descriptor for the given non-bonded form and model.
// If model is empty, the internal model of the form is returned.
func NBMetadata(form, model string) (NB, error) {
	models, ok := nbCatalog[form]
	if !ok {
		return NB{}, fmt.Errorf("%w: unknown non-bonded form %q, valid forms: %v", goff.ErrKey, form, slices.Sorted(maps.Keys(nbCatalog)))
	}
	if model == "" {
		model = nbInternal[form]
	}
	n, ok := models[model]
	if !ok {
		return NB{}, fmt.Errorf("%w: unknown model %q for non-bonded form %s, valid models: %v", goff.ErrKey, model, form, slices.Sorted(maps.Keys(models)))
	}
	return n.clone(), nil
}

// ValidateNB is ValidateTermDict for non-bonded parameters.
func ValidateNB(desc NB, values any, utype map[string]string) ([]float64, error) {
	return validate(desc.Form+"/"+desc.Model, desc.Parameters, desc.Units, values, utype)
}
