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
	"fmt"
	"log"
	"runtime"

	"github.com/google/uuid"
	"github.com/kovenock/fatesmetrics"
	"golang.org/x/sync/errgroup"
)

// unitResult holds the metrics of one scenario and variable.
type unitResult struct {
	errorRate, nrmse *fatesmetrics.Array
}

// Evaluate calculates the metrics of every configured scenario and
// variable. Scenario-variable pairs are evaluated concurrently; the first
// error stops the evaluation.
func Evaluate(ctx context.Context, c *Config) (*fatesmetrics.Results, error) {
	vars, err := c.ModelVariables()
	if err != nil {
		return nil, err
	}
	reg := c.DerivedVariables()

	obs := make([]fatesmetrics.ObservationInput, len(c.Variables))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range c.Variables {
		i, v := i, v
		g.Go(func() error {
			o, err := LoadObs(v)
			if err != nil {
				return err
			}
			obs[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	datasets := make([]fatesmetrics.Dataset, len(c.Scenarios))
	for s, scen := range c.Scenarios {
		var ds fatesmetrics.Datasets
		for _, path := range scen.Files {
			f, err := fatesmetrics.OpenNCF(path)
			if err != nil {
				return nil, fmt.Errorf("fatesutil: scenario %q: %v", scen.Name, err)
			}
			defer f.Close()
			ds = append(ds, f)
		}
		datasets[s] = ds
	}

	units := make([][]unitResult, len(c.Scenarios))
	for s := range units {
		units[s] = make([]unitResult, len(vars))
	}
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for s := range c.Scenarios {
		for v := range vars {
			s, v := s, v
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				u, err := evaluateUnit(datasets[s], reg, vars[v], obs[v], c.NYears, c.RangeExpansion)
				if err != nil {
					return fmt.Errorf("fatesutil: scenario %q: %w", c.Scenarios[s].Name, err)
				}
				units[s][v] = u
				log.Printf("Finished %s for scenario %s.", vars[v].Name, c.Scenarios[s].Name)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r, err := assemble(units, vars)
	if err != nil {
		return nil, err
	}
	r.RunID = uuid.NewString()
	for _, scen := range c.Scenarios {
		r.Scenarios = append(r.Scenarios, scen.Name)
	}
	r.NYears = c.NYears
	r.StartMonth = c.StartMonth
	r.RangeExpansion = c.RangeExpansion

	if c.HighPerforming > 0 {
		r.HighPerforming = make([][]int, len(c.Scenarios))
		for s := range c.Scenarios {
			r.HighPerforming[s], err = fatesmetrics.HighPerforming(r.AvgNRMSE, s, c.HighPerforming)
			if err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// evaluateUnit reduces one variable of one scenario to annual means and
// calculates its metrics.
func evaluateUnit(ds fatesmetrics.Dataset, reg fatesmetrics.DerivedVariables, v fatesmetrics.Variable,
	obs fatesmetrics.ObservationInput, nyrs int, dg float64) (unitResult, error) {
	am, err := v.AnnualMean(ds, reg, nyrs)
	if err != nil {
		return unitResult{}, err
	}
	er, err := fatesmetrics.ErrorRate(am, obs, dg)
	if err != nil {
		return unitResult{}, fmt.Errorf("%s: %w", v.Name, err)
	}
	n, err := fatesmetrics.NRMSE(am, obs)
	if err != nil {
		return unitResult{}, fmt.Errorf("%s: %w", v.Name, err)
	}
	return unitResult{errorRate: er, nrmse: n}, nil
}

// assemble combines the per-unit metrics into Results arrays and
// calculates the aggregate NRMSE. units is indexed [scenario][variable].
func assemble(units [][]unitResult, vars []fatesmetrics.Variable) (*fatesmetrics.Results, error) {
	if len(units) == 0 || len(vars) == 0 {
		return nil, fmt.Errorf("fatesutil: nothing to assemble")
	}
	nps := units[0][0].nrmse.Len()
	nco2, nvar := len(units), len(vars)
	r := &fatesmetrics.Results{
		Variables: vars,
		ErrorRate: fatesmetrics.NewArray(nco2, nvar, nps),
		NRMSE:     fatesmetrics.NewArray(nco2, nvar, nps),
	}
	for s, row := range units {
		for v, u := range row {
			if u.nrmse.Len() != nps {
				return nil, fmt.Errorf("fatesutil: %s in scenario %d has %d parameter sets, want %d: %w",
					vars[v].Name, s+1, u.nrmse.Len(), nps, fatesmetrics.ErrShapeMismatch)
			}
			if err := r.ErrorRate.SetRow(u.errorRate, s, v); err != nil {
				return nil, err
			}
			if err := r.NRMSE.SetRow(u.nrmse, s, v); err != nil {
				return nil, err
			}
		}
	}
	var err error
	r.AvgNRMSE, err = fatesmetrics.WeightedNRMSE(r.NRMSE, r.Weights())
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Run evaluates the ensemble and writes the metrics to the configured
// output files.
func Run(ctx context.Context, c *Config) (*fatesmetrics.Results, error) {
	r, err := Evaluate(ctx, c)
	if err != nil {
		return nil, err
	}
	if c.Output.NCF != "" {
		if err := fatesmetrics.WriteNCF(c.Output.NCF, r); err != nil {
			return nil, err
		}
		log.Printf("Wrote metrics to %s.", c.Output.NCF)
	}
	if c.Output.XLSX != "" {
		if err := fatesmetrics.WriteXLSX(c.Output.XLSX, r); err != nil {
			return nil, err
		}
		log.Printf("Wrote metrics to %s.", c.Output.XLSX)
	}
	return r, nil
}
