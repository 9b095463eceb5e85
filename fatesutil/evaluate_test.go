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
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/kovenock/fatesmetrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ncVar struct {
	name string
	dims []string
	data []float64
}

// writeNCF writes vars to a netCDF file at path.
func writeNCF(t *testing.T, path string, dims []string, lengths []int, vars ...ncVar) {
	t.Helper()
	h := cdf.NewHeader(dims, lengths)
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, []float64{0})
	}
	h.Define()
	for _, err := range h.Check() {
		require.NoError(t, err)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	nc, err := cdf.Create(f, h)
	require.NoError(t, err)
	for _, v := range vars {
		_, err := nc.Writer(v.name, nil, nil).Write(v.data)
		if err != io.EOF {
			require.NoError(t, err)
		}
	}
}

// constMonths returns nmonths months for each parameter set, where every
// month of parameter set p has value vals[p].
func constMonths(nmonths int, vals ...float64) []float64 {
	var o []float64
	for _, v := range vals {
		for m := 0; m < nmonths; m++ {
			o = append(o, v)
		}
	}
	return o
}

// writeEnsemble writes the model output of one scenario. GPP is constant
// at gpp[p] and the BA size classes of parameter set p each hold ba[p].
func writeEnsemble(t *testing.T, dir, name string, gpp, ba [2]float64) {
	t.Helper()
	writeNCF(t, filepath.Join(dir, name+".nc"),
		[]string{"ps", "time"}, []int{2, 36},
		ncVar{"GPP", []string{"ps", "time"}, constMonths(36, gpp[0], gpp[1])},
	)
	writeNCF(t, filepath.Join(dir, name+"_scls.nc"),
		[]string{"ps", "year", "scls"}, []int{2, 3, 3},
		ncVar{"BA_SCLS", []string{"ps", "year", "scls"}, constMonths(9, ba[0], ba[1])},
	)
}

func writeTestInputs(t *testing.T, dir string) {
	writeEnsemble(t, dir, "ambient", [2]float64{2, 6}, [2]float64{1, 2})
	writeEnsemble(t, dir, "elevated", [2]float64{6, 2}, [2]float64{2, 1})

	// Two estimates of GPP: annual means [1, 3] and [3, 5].
	writeFile(t, filepath.Join(dir, "gpp_a.csv"), "year,"+strings.Repeat("m,", 11)+"m\n"+
		"2001,"+strings.Repeat("1,", 11)+"1\n"+
		"2002,"+strings.Repeat("3,", 11)+"3\n")
	writeFile(t, filepath.Join(dir, "gpp_b.csv"),
		strings.Repeat("3,", 11)+"3\n"+
			strings.Repeat("5,", 11)+"\n")

	// BA observations: annual means [2, 4].
	writeNCF(t, filepath.Join(dir, "ba_obs.nc"),
		[]string{"time"}, []int{24},
		ncVar{"basal_area", []string{"time"}, constMonths(12, 2, 4)},
	)
}

func testConfig(dir string) string {
	return fmt.Sprintf(`
NYears = 2
HighPerforming = 1

[Dirs]
Input = %q
Output = %q

[[Scenarios]]
Name = "ambient"
Files = ["$Input/ambient.nc", "$Input/ambient_scls.nc"]

[[Scenarios]]
Name = "elevated"
Files = ["$Input/elevated.nc", "$Input/elevated_scls.nc"]

[[Variables]]
Name = "GPP"
Units = "gC m-2 s-1"
[Variables.Obs]
Files = ["$Input/gpp_a.csv", "$Input/gpp_b.csv"]

[[Variables]]
Name = "BA"
FileType = "sizeclass"
Units = "m2 ha-1"
[Variables.Obs]
Files = ["$Input/ba_obs.nc"]
NCVariable = "basal_area"

[Output]
NCF = "$Output/metrics.nc"
XLSX = "$Output/metrics.xlsx"
`, dir, dir)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeTestInputs(t, dir)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, testConfig(dir))

	c, err := ReadConfigFile(path)
	require.NoError(t, err)
	r, err := Run(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, []string{"ambient", "elevated"}, r.Scenarios)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, []int{2, 2, 2}, r.NRMSE.Shape())
	assert.Equal(t, []int{2, 2, 2}, r.ErrorRate.Shape())
	assert.Equal(t, []int{2, 2}, r.AvgNRMSE.Shape())

	wantNRMSE := []float64{
		0, 1, // ambient GPP
		0, 1.5, // ambient BA
		1, 0, // elevated GPP
		1.5, 0, // elevated BA
	}
	assert.InDeltaSlice(t, wantNRMSE, r.NRMSE.Floats(math.NaN()), 1e-10)

	// GPP is checked against the pooled range [1, 5] and BA against [2, 4].
	wantER := []float64{
		0, 100,
		0, 100,
		100, 0,
		100, 0,
	}
	assert.InDeltaSlice(t, wantER, r.ErrorRate.Floats(math.NaN()), 1e-10)

	wantAvg := []float64{0, math.Sqrt(3.25), math.Sqrt(3.25), 0}
	assert.InDeltaSlice(t, wantAvg, r.AvgNRMSE.Floats(math.NaN()), 1e-10)
	assert.Equal(t, [][]int{{1}, {2}}, r.HighPerforming)

	assert.FileExists(t, c.Output.NCF)
	assert.FileExists(t, c.Output.XLSX)
	f, err := fatesmetrics.OpenNCF(c.Output.NCF)
	require.NoError(t, err)
	defer f.Close()
	avg, err := f.Variable("avg_nrmse")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, avg.Shape())
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	dir := t.TempDir()
	writeTestInputs(t, dir)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, strings.Replace(testConfig(dir), "NYears = 2", "NYears = 4", 1))

	c, err := ReadConfigFile(path)
	require.NoError(t, err)
	_, err = Evaluate(context.Background(), c)
	assert.True(t, errors.Is(err, fatesmetrics.ErrInsufficientHistory), "have %v", err)
}

func TestEvaluateCanceled(t *testing.T) {
	dir := t.TempDir()
	writeTestInputs(t, dir)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, testConfig(dir))
	c, err := ReadConfigFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Evaluate(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadObsCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "obs.csv"),
		strings.Repeat("1,", 11)+"NaN\n"+
			strings.Repeat("2,", 11)+"\n"+
			strings.Repeat("3,", 11)+"3\n")
	v := &VariableConfig{
		Name: "GPP",
		Obs:  ObsConfig{Files: []string{filepath.Join(dir, "obs.csv")}, StartMonth: 7},
	}
	obs, err := LoadObs(v)
	require.NoError(t, err)
	s, ok := obs.(fatesmetrics.Single)
	require.True(t, ok, "have %T", obs)
	// July of year 1 to June of year 2, then July to June of year 3.
	assert.InDeltaSlice(t, []float64{(5 + 6*2) / 11., (5*2 + 6*3) / 11.}, s.Series.Floats(math.NaN()), 1e-10)
}

func TestLoadObsBadCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "obs.csv"), "1,2,3\n")
	v := &VariableConfig{
		Name: "GPP",
		Obs:  ObsConfig{Files: []string{filepath.Join(dir, "obs.csv")}, StartMonth: 1},
	}
	_, err := LoadObs(v)
	assert.Error(t, err)
}

func TestLoadObsCSVBadFirstRow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "obs.csv"),
		"1,2,x,"+strings.Repeat("1,", 8)+"1\n"+
			strings.Repeat("3,", 11)+"3\n")
	v := &VariableConfig{
		Name: "GPP",
		Obs:  ObsConfig{Files: []string{filepath.Join(dir, "obs.csv")}, StartMonth: 1},
	}
	_, err := LoadObs(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}
