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

const monthsPerYear = 12

// AnnualMeanModel calculates the time series of model annual means of one
// variable for the last nyrs years in ds, multiplied by convFactor. The
// result is indexed (parameter_set, year).
//
// MonthlyEcosystem variables are averaged over the months of each year.
// Derived variables in reg are calculated from their components first.
// AnnualBySizeClass variables are read from name+SizeClassSuffix and summed
// over size classes. Missing values are left out of means and sums; a year
// with no present values is missing.
//
// ErrInsufficientHistory is returned when ds holds fewer than nyrs years.
func AnnualMeanModel(ds Dataset, reg DerivedVariables, name string, ft FileType, nyrs int, convFactor float64) (*Array, error) {
	if nyrs <= 0 {
		return nil, fmt.Errorf("fatesmetrics: %s: number of years must be positive, got %d", name, nyrs)
	}
	switch ft {
	case MonthlyEcosystem:
		raw, err := reg.Variable(ds, name)
		if err != nil {
			return nil, err
		}
		return monthlyToAnnual(raw, name, nyrs, convFactor)
	case AnnualBySizeClass:
		raw, err := ds.Variable(name + SizeClassSuffix)
		if err != nil {
			return nil, err
		}
		return sizeClassToAnnual(raw, name, nyrs, convFactor)
	default:
		return nil, fmt.Errorf("fatesmetrics: %s: invalid file type %v", name, ft)
	}
}

// monthlyToAnnual averages the trailing nyrs*12 months of raw.
// When raw has a third axis, its first element is used.
func monthlyToAnnual(raw *Array, name string, nyrs int, convFactor float64) (*Array, error) {
	shape := raw.Shape()
	stride := 1
	switch len(shape) {
	case 2:
	case 3:
		stride = shape[2]
	default:
		return nil, fmt.Errorf("fatesmetrics: %s: monthly variable must have 2 or 3 "+
			"dimensions, got shape %v: %w", name, shape, ErrShapeMismatch)
	}
	nps, nmonths := shape[0], shape[1]
	if nmonths < nyrs*monthsPerYear {
		return nil, fmt.Errorf("fatesmetrics: %s: %d years requested but only %d months "+
			"available: %w", name, nyrs, nmonths, ErrInsufficientHistory)
	}
	first := nmonths - nyrs*monthsPerYear

	o := NewArray(nps, nyrs)
	for p := 0; p < nps; p++ {
		for y := 0; y < nyrs; y++ {
			start := (p*nmonths + first + y*monthsPerYear) * stride
			m, ok := meanValid(raw.validRange(start, monthsPerYear, stride))
			if ok {
				o.Set(m*convFactor, p, y)
			}
		}
	}
	return o, nil
}

// sizeClassToAnnual sums the trailing nyrs years of raw over size classes.
func sizeClassToAnnual(raw *Array, name string, nyrs int, convFactor float64) (*Array, error) {
	shape := raw.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("fatesmetrics: %s: size-class variable must have 3 "+
			"dimensions, got shape %v: %w", name, shape, ErrShapeMismatch)
	}
	nps, nyears := shape[0], shape[1]
	if nyears < nyrs {
		return nil, fmt.Errorf("fatesmetrics: %s: %d years requested but only %d "+
			"available: %w", name, nyrs, nyears, ErrInsufficientHistory)
	}
	first := nyears - nyrs

	o := NewArray(nps, nyrs)
	for p := 0; p < nps; p++ {
		for y := 0; y < nyrs; y++ {
			s, ok := sumValid(raw.validRow(p, first+y))
			if ok {
				o.Set(s*convFactor, p, y)
			}
		}
	}
	return o, nil
}

// AnnualMeanObs calculates an annual mean time series from monthly
// observations indexed (year, month). The series starts at startMonth
// (1 = January, 7 = July, 10 = October, ...): the months before
// startMonth in the first year are dropped, as is any incomplete year at
// the end. Missing months are left out of the means.
func AnnualMeanObs(raw *Array, startMonth int) (*Array, error) {
	if startMonth < 1 || startMonth > monthsPerYear {
		return nil, fmt.Errorf("fatesmetrics: start month %d: %w", startMonth, ErrBadStartMonth)
	}
	shape := raw.Shape()
	if len(shape) != 2 || shape[1] != monthsPerYear {
		return nil, fmt.Errorf("fatesmetrics: monthly observations must be indexed "+
			"(year, month), got shape %v: %w", shape, ErrShapeMismatch)
	}
	first := startMonth - 1
	nyears := (raw.Len() - first) / monthsPerYear
	if nyears < 1 {
		return nil, fmt.Errorf("fatesmetrics: no complete year of observations starting "+
			"in month %d: %w", startMonth, ErrInsufficientHistory)
	}

	o := NewArray(nyears)
	for y := 0; y < nyears; y++ {
		m, ok := meanValid(raw.validRange(first+y*monthsPerYear, monthsPerYear, 1))
		if ok {
			o.Set(m, y)
		}
	}
	return o, nil
}

// AnnualMeanObsSet aligns each of several independent monthly observation
// estimates with AnnualMeanObs. A single estimate is returned as Single,
// more than one as Multiple.
func AnnualMeanObsSet(raws []NamedSeries, startMonth int) (ObservationInput, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("fatesmetrics: no observations")
	}
	o := make(Multiple, len(raws))
	for i, r := range raws {
		a, err := AnnualMeanObs(r.Series, startMonth)
		if err != nil {
			return nil, fmt.Errorf("fatesmetrics: observations %q: %w", r.Name, err)
		}
		o[i] = NamedSeries{Name: r.Name, Series: a}
	}
	if len(o) == 1 {
		return Single{Series: o[0].Series}, nil
	}
	return o, nil
}
