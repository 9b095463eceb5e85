/*
Copyright © 2024 the fatesmetrics authors.
This file is part of fatesmetrics.

fatesmetrics is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fatesmetrics is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fatesmetrics.  If not, see <http://www.gnu.org/licenses/>.
*/

package fatesmetrics

import (
	"errors"
	"fmt"

	"github.com/ctessum/unit"
)

// A Dataset is a read-only collection of named model output variables.
// Arrays returned by Variable may be shared between callers and must not
// be modified.
type Dataset interface {
	Variable(name string) (*Array, error)
}

// MapDataset is a Dataset held in memory.
type MapDataset map[string]*Array

// Variable returns the named variable.
func (m MapDataset) Variable(name string) (*Array, error) {
	a, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("fatesmetrics: %q: %w", name, ErrUnknownVariable)
	}
	return a, nil
}

// Datasets is a Dataset made of several others, for example the
// monthly and size-class output files of one simulation. Variable returns
// the named variable from the first dataset that holds it.
type Datasets []Dataset

// Variable returns the named variable.
func (d Datasets) Variable(name string) (*Array, error) {
	for _, ds := range d {
		a, err := ds.Variable(name)
		if errors.Is(err, ErrUnknownVariable) {
			continue
		}
		return a, err
	}
	return nil, fmt.Errorf("fatesmetrics: %q: %w", name, ErrUnknownVariable)
}

// FileType specifies how a model output variable is laid out.
type FileType int

const (
	// MonthlyEcosystem variables hold one ecosystem-wide value per month,
	// indexed (parameter_set, month) or (parameter_set, month, k).
	MonthlyEcosystem FileType = iota

	// AnnualBySizeClass variables hold annual values per tree size class,
	// indexed (parameter_set, year, size_class), and are stored under the
	// variable name with SizeClassSuffix appended.
	AnnualBySizeClass
)

// SizeClassSuffix is appended to a variable name to find its
// size-class-resolved output.
const SizeClassSuffix = "_SCLS"

func (t FileType) String() string {
	switch t {
	case MonthlyEcosystem:
		return "monthly-ecosystem"
	case AnnualBySizeClass:
		return "annual-by-size-class"
	default:
		return fmt.Sprintf("FileType(%d)", int(t))
	}
}

// Variable describes a model output variable to be evaluated.
type Variable struct {
	// Name is the variable name in the model output.
	Name string

	// Type is the layout of the variable in the model output.
	Type FileType

	// Conversion is the factor raw model values are multiplied by. Its
	// dimensions are the units of the converted annual means. A nil
	// Conversion leaves values unchanged.
	Conversion *unit.Unit

	// Label is the units label of the converted annual means, such as
	// "gC m-2 yr-1". If empty, the dimensions of Conversion are used.
	Label string

	// Weight is the weight of the variable in the aggregate NRMSE.
	Weight float64
}

// ConvFactor returns the multiplier applied to raw model values.
func (v Variable) ConvFactor() float64 {
	if v.Conversion == nil {
		return 1
	}
	return v.Conversion.Value()
}

// Units returns the units of the converted annual means.
func (v Variable) Units() string {
	if v.Label != "" {
		return v.Label
	}
	if v.Conversion == nil {
		return ""
	}
	return v.Conversion.Dimensions().String()
}

// AnnualMean calculates the annual mean time series of v for the last
// nyrs years of ds. See AnnualMeanModel.
func (v Variable) AnnualMean(ds Dataset, reg DerivedVariables, nyrs int) (*Array, error) {
	return AnnualMeanModel(ds, reg, v.Name, v.Type, nyrs, v.ConvFactor())
}
