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
	"os"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/patrickmn/go-cache"
)

// ncfDefaultFill is the netCDF default fill value for floating point
// variables. It is used when a variable has no fill attributes.
const ncfDefaultFill = 9.9692099683868690e+36

// NCF is a Dataset backed by a netCDF file. Variables are decoded once and
// cached, so repeated requests for the same variable (for example the
// components of several derived variables) do not reread the file.
type NCF struct {
	path string
	f    *os.File
	nc   *cdf.File

	mu    sync.Mutex // guards reads from nc
	cache *cache.Cache
}

// OpenNCF opens the netCDF file at path.
func OpenNCF(path string) (*NCF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("fatesmetrics: opening netCDF file %s: %v", path, err)
	}
	return &NCF{
		path:  path,
		f:     f,
		nc:    nc,
		cache: cache.New(cache.NoExpiration, 0),
	}, nil
}

// Close closes the underlying file.
func (n *NCF) Close() error {
	n.cache.Flush()
	return n.f.Close()
}

// Variables returns the names of the variables in the file.
func (n *NCF) Variables() []string {
	return n.nc.Header.Variables()
}

// Variable reads the named variable. NaN elements and elements equal to
// the variable's _FillValue or missing_value attribute are missing. For
// variables without those attributes the netCDF default fill value marks
// missing elements.
func (n *NCF) Variable(name string) (*Array, error) {
	if a, ok := n.cache.Get(name); ok {
		return a.(*Array), nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if a, ok := n.cache.Get(name); ok {
		return a.(*Array), nil
	}
	if !hasString(n.nc.Header.Variables(), name) {
		return nil, fmt.Errorf("fatesmetrics: %s: %q: %w", n.path, name, ErrUnknownVariable)
	}
	dims := append([]int(nil), n.nc.Header.Lengths(name)...)
	var begin, end []int
	if n.nc.Header.IsRecordVariable(name) {
		// The record dimension has length 0 in the header.
		nrec, err := n.numRecs()
		if err != nil {
			return nil, err
		}
		dims[0] = nrec
		begin = make([]int, len(dims))
		end = make([]int, len(dims))
		for i, d := range dims {
			end[i] = d - 1
		}
	}
	size := 1
	for _, d := range dims {
		size *= d
	}
	if size == 0 {
		return nil, fmt.Errorf("fatesmetrics: %s: %q has no data", n.path, name)
	}

	r := n.nc.Reader(name, begin, end)
	buf := r.Zero(size)
	if _, err := r.Read(buf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("fatesmetrics: %s: reading %q: %v", n.path, name, err)
	}
	vals, err := toFloat64(buf)
	if err != nil {
		return nil, fmt.Errorf("fatesmetrics: %s: %q: %v", n.path, name, err)
	}
	if len(vals) != size {
		return nil, fmt.Errorf("fatesmetrics: %s: %q: read %d values, want %d",
			n.path, name, len(vals), size)
	}

	d := sparse.ZerosDense(dims...)
	copy(d.Elements, vals)
	fills := n.fillValues(name)
	a := FromDense(d, func(v float64) bool {
		if math.IsNaN(v) {
			return true
		}
		for _, f := range fills {
			if v == f {
				return true
			}
		}
		return false
	})
	n.cache.Set(name, a, cache.NoExpiration)
	return a, nil
}

// numRecs returns the number of complete records in the file.
func (n *NCF) numRecs() (int, error) {
	fi, err := n.f.Stat()
	if err != nil {
		return 0, err
	}
	return int(n.nc.Header.NumRecs(fi.Size())), nil
}

// fillValues returns the values of the fill attributes of variable v.
func (n *NCF) fillValues(v string) []float64 {
	var o []float64
	for _, attr := range []string{"_FillValue", "missing_value"} {
		a := n.nc.Header.GetAttribute(v, attr)
		if a == nil {
			continue
		}
		if f, err := toFloat64(a); err == nil {
			o = append(o, f...)
		}
	}
	if len(o) == 0 {
		o = append(o, ncfDefaultFill, float64(float32(ncfDefaultFill)))
	}
	return o
}

func toFloat64(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int16:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int8:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported netCDF data type %T", buf)
	}
}

func hasString(a []string, s string) bool {
	for _, val := range a {
		if val == s {
			return true
		}
	}
	return false
}
