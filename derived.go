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

// Derived is a variable that is not stored in model output but is
// calculated from other variables.
type Derived struct {
	// Components are the names of the stored variables the derived
	// variable is calculated from.
	Components []string
}

// DerivedVariables maps the names of derived variables to their
// definitions.
type DerivedVariables map[string]Derived

// DefaultDerived holds the derived variables of FATES monthly output.
var DefaultDerived = DerivedVariables{
	// Latent heat flux: transpiration, ground evaporation and canopy evaporation.
	"FLH": {Components: []string{"FCTR", "FGEV", "FCEV"}},
}

// Variable returns the named variable from ds, calculating it from its
// components when it is a derived variable. Derived values are the sum of
// the component values and are missing wherever any component is missing.
func (r DerivedVariables) Variable(ds Dataset, name string) (*Array, error) {
	d, ok := r[name]
	if !ok {
		return ds.Variable(name)
	}
	if len(d.Components) == 0 {
		return nil, fmt.Errorf("fatesmetrics: derived variable %q has no components", name)
	}
	var o *Array
	for _, c := range d.Components {
		a, err := ds.Variable(c)
		if err != nil {
			return nil, fmt.Errorf("fatesmetrics: derived variable %q: %w", name, err)
		}
		if o == nil {
			o = a.Copy()
			continue
		}
		if !sameShape(o.Shape(), a.Shape()) {
			return nil, fmt.Errorf("fatesmetrics: derived variable %q: component %q "+
				"shape %v != %v: %w", name, c, a.Shape(), o.Shape(), ErrShapeMismatch)
		}
		for i := range o.valid {
			v, ok := a.at1d(i)
			if !ok || !o.valid[i] {
				o.data.Elements[i] = 0
				o.valid[i] = false
				continue
			}
			o.data.Elements[i] += v
		}
	}
	return o, nil
}
