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

package fatesutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kovenock/fatesmetrics"
)

const monthsPerYear = 12

// LoadObs reads the observation files of v and aligns them to annual means.
func LoadObs(v *VariableConfig) (fatesmetrics.ObservationInput, error) {
	raws := make([]fatesmetrics.NamedSeries, len(v.Obs.Files))
	for i, f := range v.Obs.Files {
		var (
			a   *fatesmetrics.Array
			err error
		)
		if strings.EqualFold(filepath.Ext(f), ".csv") {
			a, err = readObsCSV(f)
		} else {
			a, err = readObsNCF(f, v.Obs.NCVariable)
		}
		if err != nil {
			return nil, fmt.Errorf("fatesutil: variable %q: %v", v.Name, err)
		}
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		raws[i] = fatesmetrics.NamedSeries{Name: name, Series: a}
	}
	obs, err := fatesmetrics.AnnualMeanObsSet(raws, v.Obs.StartMonth)
	if err != nil {
		return nil, fmt.Errorf("fatesutil: variable %q: %w", v.Name, err)
	}
	return obs, nil
}

// readObsCSV reads monthly observations with one row per year. Rows hold
// either 12 monthly values or a year label followed by 12 values. A first
// row with no numeric month fields is a header and is skipped. Empty cells
// and NaN are missing.
func readObsCSV(path string) (*fatesmetrics.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var vals []float64
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		line++
		switch len(rec) {
		case monthsPerYear:
		case monthsPerYear + 1:
			rec = rec[1:]
		default:
			return nil, fmt.Errorf("%s line %d: %d fields, want %d or %d",
				path, line, len(rec), monthsPerYear, monthsPerYear+1)
		}
		row := make([]float64, monthsPerYear)
		var perr error
		nums := 0
		for i, s := range rec {
			s = strings.TrimSpace(s)
			if s == "" {
				row[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				if perr == nil {
					perr = err
				}
				continue
			}
			row[i] = v
			nums++
		}
		if perr != nil {
			if line == 1 && nums == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%s line %d: %v", path, line, perr)
		}
		vals = append(vals, row...)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s: no observations", path)
	}
	return fatesmetrics.FromFloats(vals, len(vals)/monthsPerYear, monthsPerYear)
}

// readObsNCF reads monthly observations of variable name from a netCDF
// file. The variable is indexed either (month) or (year, month).
func readObsNCF(path, name string) (*fatesmetrics.Array, error) {
	f, err := fatesmetrics.OpenNCF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := f.Variable(name)
	if err != nil {
		return nil, err
	}
	shape := a.Shape()
	switch {
	case len(shape) == 1 && shape[0]%monthsPerYear == 0,
		len(shape) == 2 && shape[1] == monthsPerYear:
	default:
		return nil, fmt.Errorf("%s: %q must be indexed (month) or (year, month) "+
			"with whole years, got shape %v: %w", path, name, shape, fatesmetrics.ErrShapeMismatch)
	}
	return fatesmetrics.FromFloats(a.Floats(math.NaN()), a.Len()/monthsPerYear, monthsPerYear)
}
