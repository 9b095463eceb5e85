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
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/unit"
)

// unitSymbols holds the dimensions of the unit symbols that may appear in
// variable units. Only dimensions are tracked; scaling between, for
// example, seconds and years is done by the conversion factor.
var unitSymbols = map[string]unit.Dimensions{
	"g":     {unit.MassDim: 1},
	"gC":    {unit.MassDim: 1},
	"kg":    {unit.MassDim: 1},
	"kgC":   {unit.MassDim: 1},
	"Mg":    {unit.MassDim: 1},
	"MgC":   {unit.MassDim: 1},
	"Pg":    {unit.MassDim: 1},
	"PgC":   {unit.MassDim: 1},
	"m":     {unit.LengthDim: 1},
	"km":    {unit.LengthDim: 1},
	"mm":    {unit.LengthDim: 1},
	"ha":    {unit.LengthDim: 2},
	"s":     {unit.TimeDim: 1},
	"d":     {unit.TimeDim: 1},
	"day":   {unit.TimeDim: 1},
	"mon":   {unit.TimeDim: 1},
	"month": {unit.TimeDim: 1},
	"y":     {unit.TimeDim: 1},
	"yr":    {unit.TimeDim: 1},
	"W":     {unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -3},
	"J":     {unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -2},
	"1":     {},
	"%":     {},
}

// parseUnits returns the dimensions of a units string made of
// space-separated symbols with optional integer exponents, such as
// "gC m-2 yr-1".
func parseUnits(s string) (unit.Dimensions, error) {
	d := make(unit.Dimensions)
	for _, f := range strings.Fields(s) {
		i := strings.IndexAny(f, "-0123456789")
		sym, exp := f, 1
		if i > 0 {
			sym = f[:i]
			var err error
			if exp, err = strconv.Atoi(f[i:]); err != nil {
				return nil, fmt.Errorf("invalid exponent in units %q", s)
			}
		}
		dims, ok := unitSymbols[sym]
		if !ok {
			return nil, fmt.Errorf("unknown unit %q in %q", sym, s)
		}
		for dim, n := range dims {
			d[dim] += n * exp
			if d[dim] == 0 {
				delete(d, dim)
			}
		}
	}
	return d, nil
}

// newConversion returns a conversion factor carrying dims.
func newConversion(factor float64, dims unit.Dimensions) *unit.Unit {
	return unit.New(factor, dims)
}
