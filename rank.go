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
	"sort"
)

type ranked struct {
	id  int
	val float64
}

type byValue []ranked

func (r byValue) Len() int      { return len(r) }
func (r byValue) Swap(i, j int) { r[i], r[j] = r[j], r[i] }
func (r byValue) Less(i, j int) bool {
	if r[i].val == r[j].val {
		return r[i].id < r[j].id
	}
	return r[i].val < r[j].val
}

// HighPerforming returns the numbers of the n parameter sets with the
// lowest aggregate NRMSE in the given CO2 scenario, best first. agg is
// indexed (co2_scenario, parameter_set). Parameter sets are numbered from
// 1. Parameter sets with a missing aggregate NRMSE are never selected, so
// fewer than n numbers may be returned.
func HighPerforming(agg *Array, scenario, n int) ([]int, error) {
	shape := agg.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("fatesmetrics: aggregate NRMSE must be indexed "+
			"(co2, parameter_set), got shape %v: %w", shape, ErrShapeMismatch)
	}
	if scenario < 0 || scenario >= shape[0] {
		return nil, fmt.Errorf("fatesmetrics: scenario %d out of range [0, %d)", scenario, shape[0])
	}
	if n < 0 {
		return nil, fmt.Errorf("fatesmetrics: negative number of parameter sets %d", n)
	}
	var r byValue
	for p := 0; p < shape[1]; p++ {
		if v, ok := agg.Get(scenario, p); ok {
			r = append(r, ranked{id: p + 1, val: v})
		}
	}
	sort.Sort(r)
	if n < len(r) {
		r = r[:n]
	}
	o := make([]int, len(r))
	for i, rr := range r {
		o[i] = rr.id
	}
	return o, nil
}
