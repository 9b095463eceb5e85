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
	"testing"

	"github.com/ctessum/unit"
)

func TestDatasets(t *testing.T) {
	monthlyFile := MapDataset{"GPP": mustFloats(t, []float64{1}, 1)}
	sclsFile := MapDataset{
		"GPP":                  mustFloats(t, []float64{2}, 1),
		"BA" + SizeClassSuffix: mustFloats(t, []float64{3}, 1),
	}
	ds := Datasets{monthlyFile, sclsFile}

	a, err := ds.Variable("GPP")
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "GPP", a, []float64{1})
	a, err = ds.Variable("BA" + SizeClassSuffix)
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "BA", a, []float64{3})
	if _, err := ds.Variable("NPP"); !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("unknown variable: have %v", err)
	}
}

func TestDerivedVariables(t *testing.T) {
	ds := MapDataset{
		"FCTR": mustFloats(t, []float64{1, 1, nan}, 3),
		"FGEV": mustFloats(t, []float64{2, nan, 2}, 3),
		"FCEV": mustFloats(t, []float64{3, 3, 3}, 3),
		"TLAI": mustFloats(t, []float64{3, 3}, 2),
	}
	a, err := DefaultDerived.Variable(ds, "FLH")
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "FLH", a, []float64{6, nan, nan})
	if v, _ := ds["FCTR"].Get(0); v != 1 {
		t.Error("component was modified")
	}

	reg := DerivedVariables{
		"BAD":   {Components: []string{"FCTR", "TLAI"}},
		"EMPTY": {},
	}
	if _, err := reg.Variable(ds, "BAD"); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("shape mismatch: have %v", err)
	}
	if _, err := reg.Variable(ds, "EMPTY"); err == nil {
		t.Error("no components: no error")
	}
	a, err = reg.Variable(ds, "TLAI")
	if err != nil {
		t.Fatal(err)
	}
	checkFloats(t, "TLAI", a, []float64{3, 3})
}

func TestVariableUnits(t *testing.T) {
	v := Variable{Name: "GPP"}
	if v.ConvFactor() != 1 || v.Units() != "" {
		t.Errorf("no conversion: factor %g, units %q", v.ConvFactor(), v.Units())
	}
	v.Conversion = unit.New(2, unit.Dimensions{unit.MassDim: 1})
	if v.ConvFactor() != 2 {
		t.Errorf("factor %g", v.ConvFactor())
	}
	if v.Units() == "" {
		t.Error("no units from conversion")
	}
	v.Label = "gC m-2 yr-1"
	if v.Units() != "gC m-2 yr-1" {
		t.Errorf("label: have %q", v.Units())
	}
	if AnnualBySizeClass.String() != "annual-by-size-class" {
		t.Errorf("file type %v", AnnualBySizeClass)
	}
}
