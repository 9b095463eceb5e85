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

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Array is a dense array with an arbitrary number of dimensions in which
// every element is either a value or missing. Missing elements are tracked
// in a validity mask rather than with NaN sentinels.
type Array struct {
	data  *sparse.DenseArray
	valid []bool
}

// NewArray returns an array with the given dimensions in which every
// element is missing.
func NewArray(dims ...int) *Array {
	d := sparse.ZerosDense(dims...)
	return &Array{
		data:  d,
		valid: make([]bool, len(d.Elements)),
	}
}

// FromDense wraps d, marking the elements for which missing returns true.
// If missing is nil, NaN elements are considered missing. d is not copied.
func FromDense(d *sparse.DenseArray, missing func(float64) bool) *Array {
	if missing == nil {
		missing = math.IsNaN
	}
	a := &Array{data: d, valid: make([]bool, len(d.Elements))}
	for i, v := range d.Elements {
		a.valid[i] = !missing(v)
	}
	return a
}

// FromFloats copies vals into a new array with the given dimensions.
// NaN values are considered missing.
func FromFloats(vals []float64, dims ...int) (*Array, error) {
	a := NewArray(dims...)
	if len(vals) != len(a.valid) {
		return nil, fmt.Errorf("fatesmetrics: %d values do not fit shape %v: %w",
			len(vals), dims, ErrShapeMismatch)
	}
	for i, v := range vals {
		if !math.IsNaN(v) {
			a.set1d(v, i)
		}
	}
	return a, nil
}

// Shape returns the array dimensions.
func (a *Array) Shape() []int { return a.data.Shape }

// NDims returns the number of dimensions.
func (a *Array) NDims() int { return len(a.data.Shape) }

// Len returns the total number of elements.
func (a *Array) Len() int { return len(a.valid) }

// Get returns the value at index and whether it is present.
func (a *Array) Get(index ...int) (float64, bool) {
	i := a.index1d(index)
	return a.data.Elements[i], a.valid[i]
}

// Set sets the value at index and marks it present.
func (a *Array) Set(val float64, index ...int) {
	a.set1d(val, a.index1d(index))
}

// SetMissing marks the value at index as missing.
func (a *Array) SetMissing(index ...int) {
	i := a.index1d(index)
	a.data.Elements[i] = 0
	a.valid[i] = false
}

// Valid returns whether the value at index is present.
func (a *Array) Valid(index ...int) bool {
	return a.valid[a.index1d(index)]
}

// CountValid returns the number of present elements.
func (a *Array) CountValid() int {
	n := 0
	for _, ok := range a.valid {
		if ok {
			n++
		}
	}
	return n
}

func (a *Array) at1d(i int) (float64, bool) { return a.data.Elements[i], a.valid[i] }

func (a *Array) set1d(val float64, i int) {
	a.data.Elements[i] = val
	a.valid[i] = true
}

// Dense returns a copy of the array as a DenseArray with missing
// elements replaced by fill.
func (a *Array) Dense(fill float64) *sparse.DenseArray {
	o := sparse.ZerosDense(a.data.Shape...)
	for i, v := range a.data.Elements {
		if a.valid[i] {
			o.Elements[i] = v
		} else {
			o.Elements[i] = fill
		}
	}
	return o
}

// Floats returns a flat, row-major copy of the array with missing
// elements replaced by fill.
func (a *Array) Floats(fill float64) []float64 {
	return a.Dense(fill).Elements
}

// Copy returns a deep copy of the array.
func (a *Array) Copy() *Array {
	o := NewArray(a.data.Shape...)
	copy(o.data.Elements, a.data.Elements)
	copy(o.valid, a.valid)
	return o
}

// Row returns a one-dimensional copy of the last axis of the array at the
// given leading indices. For a (scenario, variable, parameter_set) array,
// Row(s, v) returns the values for every parameter set.
func (a *Array) Row(prefix ...int) *Array {
	start, n := a.rowRange(prefix)
	o := NewArray(n)
	copy(o.data.Elements, a.data.Elements[start:start+n])
	copy(o.valid, a.valid[start:start+n])
	return o
}

// SetRow copies the one-dimensional array row into the last axis of the
// array at the given leading indices.
func (a *Array) SetRow(row *Array, prefix ...int) error {
	start, n := a.rowRange(prefix)
	if row.NDims() != 1 || row.Len() != n {
		return fmt.Errorf("fatesmetrics: row of shape %v does not fit last axis "+
			"of shape %v: %w", row.Shape(), a.Shape(), ErrShapeMismatch)
	}
	copy(a.data.Elements[start:start+n], row.data.Elements)
	copy(a.valid[start:start+n], row.valid)
	return nil
}

// validRow returns the present values along the last axis at the given
// leading indices.
func (a *Array) validRow(prefix ...int) []float64 {
	start, n := a.rowRange(prefix)
	return a.validRange(start, n, 1)
}

// validAll returns every present value in the array.
func (a *Array) validAll() []float64 {
	return a.validRange(0, len(a.valid), 1)
}

// validRange returns the present values among n elements starting at the
// one-dimensional index start and separated by stride.
func (a *Array) validRange(start, n, stride int) []float64 {
	o := make([]float64, 0, n)
	for k := 0; k < n; k++ {
		i := start + k*stride
		if a.valid[i] {
			o = append(o, a.data.Elements[i])
		}
	}
	return o
}

func (a *Array) rowRange(prefix []int) (start, n int) {
	nd := len(a.data.Shape)
	if len(prefix) != nd-1 {
		panic(fmt.Errorf("fatesmetrics: row prefix %v needs %d indices for shape %v",
			prefix, nd-1, a.data.Shape))
	}
	n = a.data.Shape[nd-1]
	start = a.index1d(append(append([]int{}, prefix...), 0))
	return start, n
}

// index1d converts an n-dimensional index into an index into the
// row-major element slice.
func (a *Array) index1d(index []int) int {
	if len(index) != len(a.data.Shape) {
		panic(fmt.Errorf("fatesmetrics: index number of dimensions (%d) does not "+
			"match array number of dimensions (%d)", len(index), len(a.data.Shape)))
	}
	i1d := 0
	for i, dim := range a.data.Shape {
		if index[i] < 0 || index[i] >= dim {
			panic(fmt.Errorf("fatesmetrics: index %d of dimension %d is out of "+
				"range for dimension size %d", index[i], i, dim))
		}
		i1d = i1d*dim + index[i]
	}
	return i1d
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// meanValid returns the mean of x, which holds only present values.
// The result is missing when x is empty.
func meanValid(x []float64) (float64, bool) {
	if len(x) == 0 {
		return 0, false
	}
	return stat.Mean(x, nil), true
}

// sumValid returns the sum of x, which holds only present values.
// The result is missing when x is empty.
func sumValid(x []float64) (float64, bool) {
	if len(x) == 0 {
		return 0, false
	}
	return floats.Sum(x), true
}

// rangeValid returns the minimum and maximum of x.
// The result is missing when x is empty.
func rangeValid(x []float64) (min, max float64, ok bool) {
	if len(x) == 0 {
		return 0, 0, false
	}
	return floats.Min(x), floats.Max(x), true
}
