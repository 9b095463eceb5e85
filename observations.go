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

// ObservationInput holds observed annual mean time series for one
// variable. It is either Single or Multiple.
type ObservationInput interface {
	// estimates returns every observed series.
	estimates() []NamedSeries
}

// Single is one observed annual mean time series.
type Single struct {
	Series *Array
}

func (s Single) estimates() []NamedSeries {
	return []NamedSeries{{Series: s.Series}}
}

// NamedSeries is a time series with a name, such as the source of an
// observational estimate.
type NamedSeries struct {
	Name   string
	Series *Array
}

// Multiple holds several independent observational estimates of the same
// variable, each a complete annual mean time series.
type Multiple []NamedSeries

func (m Multiple) estimates() []NamedSeries { return m }

// pooled returns every present observed value across all years and
// estimates.
func pooled(obs ObservationInput) []float64 {
	var o []float64
	for _, e := range obs.estimates() {
		o = append(o, e.Series.validAll()...)
	}
	return o
}
