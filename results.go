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
)

// Results holds the metrics of one evaluation of an ensemble.
type Results struct {
	// RunID identifies the evaluation run.
	RunID string

	// Scenarios are the names of the CO2 scenarios.
	Scenarios []string

	// Variables are the evaluated variables.
	Variables []Variable

	NYears         int     // number of model years evaluated
	StartMonth     int     // first month of the observation year
	RangeExpansion float64 // fractional extension of the observed range

	// ErrorRate and NRMSE are indexed (co2_scenario, variable, parameter_set).
	ErrorRate, NRMSE *Array

	// AvgNRMSE is the weighted aggregate NRMSE, indexed
	// (co2_scenario, parameter_set).
	AvgNRMSE *Array

	// HighPerforming holds, for each scenario, the numbers (starting at 1)
	// of the parameter sets with the lowest AvgNRMSE, best first.
	HighPerforming [][]int
}

// NParameterSets returns the number of parameter sets evaluated.
func (r *Results) NParameterSets() int {
	if r.NRMSE == nil {
		return 0
	}
	return r.NRMSE.Shape()[2]
}

// Weights returns the aggregate NRMSE weight of each variable.
func (r *Results) Weights() []float64 {
	w := make([]float64, len(r.Variables))
	for i, v := range r.Variables {
		w[i] = v.Weight
	}
	return w
}

// Check returns an error if the arrays in r do not agree with each other
// and with the scenario and variable lists.
func (r *Results) Check() error {
	if r.ErrorRate == nil || r.NRMSE == nil || r.AvgNRMSE == nil {
		return fmt.Errorf("fatesmetrics: results are incomplete")
	}
	want := []int{len(r.Scenarios), len(r.Variables), r.NRMSE.Shape()[len(r.NRMSE.Shape())-1]}
	for name, a := range map[string]*Array{"error rate": r.ErrorRate, "NRMSE": r.NRMSE} {
		if !sameShape(a.Shape(), want) {
			return fmt.Errorf("fatesmetrics: %s shape %v, want %v: %w", name, a.Shape(), want, ErrShapeMismatch)
		}
	}
	if !sameShape(r.AvgNRMSE.Shape(), []int{want[0], want[2]}) {
		return fmt.Errorf("fatesmetrics: aggregate NRMSE shape %v, want %v: %w",
			r.AvgNRMSE.Shape(), []int{want[0], want[2]}, ErrShapeMismatch)
	}
	if r.HighPerforming != nil && len(r.HighPerforming) != want[0] {
		return fmt.Errorf("fatesmetrics: %d high-performing lists for %d scenarios: %w",
			len(r.HighPerforming), want[0], ErrShapeMismatch)
	}
	return nil
}
