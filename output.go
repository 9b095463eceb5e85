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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ctessum/cdf"
)

// Version is the version of the metric file format.
const Version = "0.1.0"

// WriteNCF writes the metric arrays in r to a netCDF file at path, for use
// by plotting tools. Missing values are written as the netCDF default fill
// value. High-performing parameter set lists shorter than the longest one
// are padded with zeros.
func WriteNCF(path string, r *Results) error {
	if err := r.Check(); err != nil {
		return err
	}
	nco2, nvar, nps := len(r.Scenarios), len(r.Variables), r.NParameterSets()
	nrank := 0
	for _, hp := range r.HighPerforming {
		if len(hp) > nrank {
			nrank = len(hp)
		}
	}

	dims := []string{"co2", "variable", "parameter_set"}
	lengths := []int{nco2, nvar, nps}
	if nrank > 0 {
		dims = append(dims, "rank")
		lengths = append(lengths, nrank)
	}
	h := cdf.NewHeader(dims, lengths)

	h.AddAttribute("", "title", "FATES ensemble performance metrics (fatesmetrics version "+Version+")")
	if r.RunID != "" {
		h.AddAttribute("", "run_id", r.RunID)
	}
	h.AddAttribute("", "scenarios", strings.Join(r.Scenarios, ","))
	names, units := make([]string, nvar), make([]string, nvar)
	for i, v := range r.Variables {
		names[i] = v.Name
		units[i] = v.Units()
	}
	h.AddAttribute("", "variables", strings.Join(names, ","))
	h.AddAttribute("", "variable_units", strings.Join(units, ","))
	h.AddAttribute("", "weights", r.Weights())
	h.AddAttribute("", "nyears", []int32{int32(r.NYears)})
	h.AddAttribute("", "start_month", []int32{int32(r.StartMonth)})
	h.AddAttribute("", "range_expansion", []float64{r.RangeExpansion})

	addMetricVar(h, "error_rate", []string{"co2", "variable", "parameter_set"},
		"percent", "Percentage of model annual means outside the observed range")
	addMetricVar(h, "nrmse", []string{"co2", "variable", "parameter_set"},
		"1", "Normalized root mean square error")
	addMetricVar(h, "avg_nrmse", []string{"co2", "parameter_set"},
		"1", "Weighted aggregate normalized root mean square error")
	if nrank > 0 {
		h.AddVariable("high_performing", []string{"co2", "rank"}, []int32{0})
		h.AddAttribute("high_performing", "description",
			"High-performing parameter set numbers, starting at 1, best first")
		h.AddAttribute("high_performing", "_FillValue", []int32{0})
	}

	h.Define()
	for _, err := range h.Check() {
		if err != nil {
			return fmt.Errorf("fatesmetrics: writing %s: %v", path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	nc, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return fmt.Errorf("fatesmetrics: writing %s: %v", path, err)
	}
	write := func(name string, data interface{}) error {
		w := nc.Writer(name, nil, nil)
		// Filling the variable ends the write with io.EOF.
		if _, err := w.Write(data); err != nil && err != io.EOF {
			return fmt.Errorf("fatesmetrics: writing %s to %s: %v", name, path, err)
		}
		return nil
	}
	if err := write("error_rate", float32s(r.ErrorRate)); err != nil {
		f.Close()
		return err
	}
	if err := write("nrmse", float32s(r.NRMSE)); err != nil {
		f.Close()
		return err
	}
	if err := write("avg_nrmse", float32s(r.AvgNRMSE)); err != nil {
		f.Close()
		return err
	}
	if nrank > 0 {
		hp := make([]int32, nco2*nrank)
		for c, ids := range r.HighPerforming {
			for i, id := range ids {
				hp[c*nrank+i] = int32(id)
			}
		}
		if err := write("high_performing", hp); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func addMetricVar(h *cdf.Header, name string, dims []string, units, description string) {
	h.AddVariable(name, dims, []float32{0.})
	h.AddAttribute(name, "units", units)
	h.AddAttribute(name, "description", description)
	h.AddAttribute(name, "_FillValue", []float32{ncfDefaultFill})
}

// float32s converts a to float32, writing missing values as the netCDF
// default fill value.
func float32s(a *Array) []float32 {
	o := make([]float32, a.Len())
	for i := range o {
		if v, ok := a.at1d(i); ok {
			o[i] = float32(v)
		} else {
			o[i] = ncfDefaultFill
		}
	}
	return o
}
