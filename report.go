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
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"
)

// Metric names accepted by Results.Table.
const (
	MetricErrorRate = "error_rate"
	MetricNRMSE     = "nrmse"
)

// A Table holds a text representation of report data.
type Table [][]string

// Tabbed writes the table to w with tab-aligned columns.
func (t Table) Tabbed(w io.Writer) (n int, err error) {
	ww := new(tabwriter.Writer)
	ww.Init(w, 0, 2, 0, '\t', 0)
	var nn int
	for _, l := range t {
		for _, r := range l {
			nn, err = fmt.Fprint(ww, r+"\t")
			if err != nil {
				return
			}
			n += nn
		}
		nn, err = fmt.Fprint(ww, "\n")
		if err != nil {
			return
		}
		n += nn
	}
	err = ww.Flush()
	return
}

// Table returns a table of one metric for one CO2 scenario, where the
// rows are the parameter sets and the columns are the variables. NRMSE
// tables end with a column holding the aggregate NRMSE. Missing values are
// left blank.
func (r *Results) Table(metric string, scenario int) (Table, error) {
	var cube *Array
	switch metric {
	case MetricErrorRate:
		cube = r.ErrorRate
	case MetricNRMSE:
		cube = r.NRMSE
	default:
		return nil, fmt.Errorf("fatesmetrics: unknown metric %q", metric)
	}
	if scenario < 0 || scenario >= len(r.Scenarios) {
		return nil, fmt.Errorf("fatesmetrics: scenario %d out of range [0, %d)", scenario, len(r.Scenarios))
	}
	nps := r.NParameterSets()
	t := make(Table, nps+1)
	t[0] = []string{"Parameter set"}
	for _, v := range r.Variables {
		t[0] = append(t[0], v.Name)
	}
	if metric == MetricNRMSE {
		t[0] = append(t[0], "Aggregate")
	}
	for p := 0; p < nps; p++ {
		row := []string{strconv.Itoa(p + 1)}
		for v := range r.Variables {
			row = append(row, formatValue(cube.Get(scenario, v, p)))
		}
		if metric == MetricNRMSE {
			row = append(row, formatValue(r.AvgNRMSE.Get(scenario, p)))
		}
		t[p+1] = row
	}
	return t, nil
}

func formatValue(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return fmt.Sprintf("%g", v)
}

// WriteXLSX writes one worksheet per metric and CO2 scenario to an Excel
// workbook at path, plus a worksheet listing the high-performing
// parameter sets.
func WriteXLSX(path string, r *Results) error {
	if err := r.Check(); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for s, scen := range r.Scenarios {
		for _, metric := range []string{MetricErrorRate, MetricNRMSE} {
			t, err := r.Table(metric, s)
			if err != nil {
				return err
			}
			sheet := sheetName(metric + " " + scen)
			if first {
				if err := f.SetSheetName("Sheet1", sheet); err != nil {
					return err
				}
				first = false
			} else if _, err := f.NewSheet(sheet); err != nil {
				return err
			}
			if err := writeSheet(f, sheet, t); err != nil {
				return err
			}
		}
	}

	if len(r.HighPerforming) > 0 {
		const sheet = "high performing"
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		t := Table{{"Scenario", "Rank", "Parameter set"}}
		for s, ids := range r.HighPerforming {
			for i, id := range ids {
				t = append(t, []string{r.Scenarios[s], strconv.Itoa(i + 1), strconv.Itoa(id)})
			}
		}
		if err := writeSheet(f, sheet, t); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// writeSheet writes t to sheet, storing numeric cells as numbers.
func writeSheet(f *excelize.File, sheet string, t Table) error {
	for i, row := range t {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			if v, err := strconv.ParseFloat(c, 64); err == nil && i > 0 && !math.IsInf(v, 0) {
				cells[j] = v
			} else {
				cells[j] = c
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return nil
}

// sheetName trims s to the 31 characters Excel allows.
func sheetName(s string) string {
	const maxLen = 31
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
