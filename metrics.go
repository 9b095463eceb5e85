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
	"math"
)

func checkModel(model *Array) (nps, nyrs int, err error) {
	if model.NDims() != 2 {
		return 0, 0, fmt.Errorf("fatesmetrics: model time series must be indexed "+
			"(parameter_set, year), got shape %v: %w", model.Shape(), ErrShapeMismatch)
	}
	return model.Shape()[0], model.Shape()[1], nil
}

// ErrorRate calculates, for each parameter set, the percentage of model
// annual means that fall outside the observed range. The observed range
// spans every observed value (all years and all estimates) and is
// extended by the fraction dg in both directions: a value v is outside
// when v <= min*(1-dg) or v >= max*(1+dg).
//
// The percentage is taken of the full number of years in model, so
// missing model years lower the error rate. A parameter set with no
// present years, or observations with no present values, give a missing
// error rate.
func ErrorRate(model *Array, obs ObservationInput, dg float64) (*Array, error) {
	nps, nyrs, err := checkModel(model)
	if err != nil {
		return nil, err
	}
	o := NewArray(nps)
	obsMin, obsMax, ok := rangeValid(pooled(obs))
	if !ok {
		return o, nil
	}
	lo, hi := obsMin*(1-dg), obsMax*(1+dg)

	for p := 0; p < nps; p++ {
		vals := model.validRow(p)
		if len(vals) == 0 {
			continue
		}
		outside := 0
		for _, v := range vals {
			if v <= lo || v >= hi {
				outside++
			}
		}
		o.Set(100*float64(outside)/float64(nyrs), p)
	}
	return o, nil
}

// NRMSE calculates the normalized root mean square error of each parameter
// set: the root mean square difference between the model annual means and
// the observed mean, divided by the observed range.
//
// For Multiple observations the NRMSE is calculated against each estimate
// using that estimate's own mean and range, and the lowest value is kept
// for each parameter set.
//
// Missing model years are left out of the mean square. When the observed
// range is zero the result is +Inf, or missing if the model matches the
// observed mean exactly.
func NRMSE(model *Array, obs ObservationInput) (*Array, error) {
	if _, _, err := checkModel(model); err != nil {
		return nil, err
	}
	switch obs := obs.(type) {
	case Single:
		return nrmseSeries(model, obs.Series)
	case Multiple:
		return nrmseMin(model, obs)
	default:
		return nil, fmt.Errorf("fatesmetrics: unsupported observation input %T", obs)
	}
}

// nrmseMin returns the lowest NRMSE across observational estimates.
func nrmseMin(model *Array, obs Multiple) (*Array, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("fatesmetrics: no observational estimates")
	}
	o := NewArray(model.Shape()[0])
	for _, e := range obs {
		n, err := nrmseSeries(model, e.Series)
		if err != nil {
			return nil, fmt.Errorf("fatesmetrics: observations %q: %w", e.Name, err)
		}
		for p := range n.valid {
			v, ok := n.at1d(p)
			if !ok {
				continue
			}
			if cur, cok := o.at1d(p); !cok || v < cur {
				o.set1d(v, p)
			}
		}
	}
	return o, nil
}

// nrmseSeries calculates the NRMSE of each parameter set against a single
// observed series.
func nrmseSeries(model *Array, obs *Array) (*Array, error) {
	if obs.NDims() != 1 {
		return nil, fmt.Errorf("fatesmetrics: observed time series must have one "+
			"dimension, got shape %v: %w", obs.Shape(), ErrShapeMismatch)
	}
	nps := model.Shape()[0]
	o := NewArray(nps)

	ov := obs.validAll()
	obsMean, ok := meanValid(ov)
	if !ok {
		return o, nil
	}
	obsMin, obsMax, _ := rangeValid(ov)
	obsRange := obsMax - obsMin

	for p := 0; p < nps; p++ {
		vals := model.validRow(p)
		if len(vals) == 0 {
			continue
		}
		var ss float64
		for _, v := range vals {
			d := v - obsMean
			ss += d * d
		}
		rmse := math.Sqrt(ss / float64(len(vals)))
		if obsRange == 0 {
			if rmse == 0 {
				continue
			}
			o.Set(math.Inf(1), p)
			continue
		}
		o.Set(rmse/obsRange, p)
	}
	return o, nil
}

// WeightedNRMSE combines the NRMSE of several variables into one value per
// CO2 scenario and parameter set, calculated as the weighted Euclidean
// norm sqrt(sum(weights[v] * nrmse[v]^2)). nrmse is indexed
// (co2_scenario, variable, parameter_set) and the result
// (co2_scenario, parameter_set). A parameter set whose NRMSE is missing
// for any variable has a missing result.
func WeightedNRMSE(nrmse *Array, weights []float64) (*Array, error) {
	shape := nrmse.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("fatesmetrics: NRMSE array must be indexed (co2, "+
			"variable, parameter_set), got shape %v: %w", shape, ErrShapeMismatch)
	}
	nco2, nvar, nps := shape[0], shape[1], shape[2]
	if len(weights) != nvar {
		return nil, fmt.Errorf("fatesmetrics: %d weights for %d variables: %w",
			len(weights), nvar, ErrShapeMismatch)
	}

	o := NewArray(nco2, nps)
	for c := 0; c < nco2; c++ {
		for p := 0; p < nps; p++ {
			var sum float64
			ok := true
			for v, w := range weights {
				val, present := nrmse.Get(c, v, p)
				if !present {
					ok = false
					break
				}
				sum += w * val * val
			}
			if ok {
				o.Set(math.Sqrt(sum), c, p)
			}
		}
	}
	return o, nil
}
