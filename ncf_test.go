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
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ctessum/cdf"
)

// writeTestNCF writes a netCDF file with variables GPP (with a
// _FillValue attribute) and TLAI (without fill attributes), both indexed
// (ps, month).
func writeTestNCF(t *testing.T, path string) {
	t.Helper()
	h := cdf.NewHeader([]string{"ps", "month"}, []int{2, 12})
	h.AddVariable("GPP", []string{"ps", "month"}, []float32{0})
	h.AddAttribute("GPP", "_FillValue", []float32{-999})
	h.AddVariable("TLAI", []string{"ps", "month"}, []float64{0})
	h.Define()
	for _, err := range h.Check() {
		if err != nil {
			t.Fatal(err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	nc, err := cdf.Create(f, h)
	if err != nil {
		t.Fatal(err)
	}
	gpp := make([]float32, 24)
	tlai := make([]float64, 24)
	for i := range gpp {
		gpp[i] = float32(i)
		tlai[i] = float64(i) / 2
	}
	gpp[3] = -999
	tlai[5] = ncfDefaultFill
	tlai[6] = math.NaN()
	if _, err := nc.Writer("GPP", nil, nil).Write(gpp); err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if _, err := nc.Writer("TLAI", nil, nil).Write(tlai); err != nil && err != io.EOF {
		t.Fatal(err)
	}
}

func TestNCF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ens.nc")
	writeTestNCF(t, path)

	f, err := OpenNCF(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gpp, err := f.Variable("GPP")
	if err != nil {
		t.Fatal(err)
	}
	if s := gpp.Shape(); len(s) != 2 || s[0] != 2 || s[1] != 12 {
		t.Fatalf("GPP shape %v", s)
	}
	want := make([]float64, 24)
	for i := range want {
		want[i] = float64(i)
	}
	want[3] = math.NaN()
	checkFloats(t, "GPP", gpp, want)

	tlai, err := f.Variable("TLAI")
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		want[i] = float64(i) / 2
	}
	want[5], want[6] = math.NaN(), math.NaN()
	checkFloats(t, "TLAI", tlai, want)

	again, err := f.Variable("GPP")
	if err != nil {
		t.Fatal(err)
	}
	if again != gpp {
		t.Error("second read was not cached")
	}

	if _, err := f.Variable("NPP"); !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("unknown variable: have %v", err)
	}
	if vars := f.Variables(); len(vars) != 2 {
		t.Errorf("variables: have %v", vars)
	}
}

func TestNCFConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ens.nc")
	writeTestNCF(t, path)
	f, err := OpenNCF(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var wg sync.WaitGroup
	results := make([]*Array, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := AnnualMeanModel(f, DefaultDerived, "GPP", MonthlyEcosystem, 1, 1)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = a
		}(i)
	}
	wg.Wait()
	for i, a := range results {
		if a == nil {
			continue
		}
		// Parameter set 1 skips month 3: (66 - 3) / 11.
		checkFloats(t, "GPP", a, []float64{63. / 11, 17.5})
		if t.Failed() {
			t.Fatalf("result %d", i)
		}
	}
}

// writeRecordNCF writes an ensemble file whose parameter-set axis is the
// unlimited record dimension, as ncecat does. GPP (float32) and TLAI
// (float64) are both record variables, so their records are interleaved.
func writeRecordNCF(t *testing.T, path string, nrec int) {
	t.Helper()
	h := cdf.NewHeader([]string{"record", "time"}, []int{0, 24})
	h.AddVariable("GPP", []string{"record", "time"}, []float32{0})
	h.AddVariable("TLAI", []string{"record", "time"}, []float64{0})
	h.Define()
	for _, err := range h.Check() {
		if err != nil {
			t.Fatal(err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	nc, err := cdf.Create(f, h)
	if err != nil {
		t.Fatal(err)
	}
	gpp := make([]float32, 24*nrec)
	tlai := make([]float64, 24*nrec)
	for i := range gpp {
		gpp[i] = float32(i/24 + 1)
		tlai[i] = float64(i)
	}
	if _, err := nc.Writer("GPP", nil, nil).Write(gpp); err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if _, err := nc.Writer("TLAI", nil, nil).Write(tlai); err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		t.Fatal(err)
	}
}

func TestNCFRecordDimension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ens_rec.nc")
	writeRecordNCF(t, path, 2)
	f, err := OpenNCF(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tlai, err := f.Variable("TLAI")
	if err != nil {
		t.Fatal(err)
	}
	if s := tlai.Shape(); len(s) != 2 || s[0] != 2 || s[1] != 24 {
		t.Fatalf("TLAI shape %v", s)
	}
	want := make([]float64, 48)
	for i := range want {
		want[i] = float64(i)
	}
	checkFloats(t, "TLAI", tlai, want)

	am, err := AnnualMeanModel(f, DefaultDerived, "GPP", MonthlyEcosystem, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s := am.Shape(); len(s) != 2 || s[0] != 2 || s[1] != 2 {
		t.Fatalf("annual mean shape %v", s)
	}
	checkFloats(t, "GPP", am, []float64{1, 1, 2, 2})
}

func TestNCFNoRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.nc")
	writeRecordNCF(t, path, 0)
	f, err := OpenNCF(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.Variable("GPP"); err == nil {
		t.Error("no error for a variable without records")
	}
}

func TestOpenNCFMissing(t *testing.T) {
	if _, err := OpenNCF(filepath.Join(t.TempDir(), "none.nc")); err == nil {
		t.Error("no error for missing file")
	}
}
