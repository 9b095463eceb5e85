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
	"errors"
	"strings"
)

var (
	// ErrShapeMismatch is returned when array dimensions are incompatible,
	// for example when the number of weights differs from the number of
	// variables.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInsufficientHistory is returned when a series is shorter than the
	// number of months or years requested.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrUnknownVariable is returned when a dataset does not hold the
	// requested variable.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrBadStartMonth is returned for start months outside 1..12.
	ErrBadStartMonth = errors.New("start month must be between 1 and 12")
)

// The ErrCat type collects errors so that all of them can be reported at
// once instead of just the first one. Repeated messages are kept once.
type ErrCat struct {
	errs []error
	seen map[string]bool
}

// Add adds err to the catalogue. Nil errors are ignored.
func (e *ErrCat) Add(err error) {
	if err == nil {
		return
	}
	if e.seen == nil {
		e.seen = make(map[string]bool)
	}
	if e.seen[err.Error()] {
		return
	}
	e.seen[err.Error()] = true
	e.errs = append(e.errs, err)
}

// Err returns nil if no errors were added, and otherwise an error listing
// every error added. The returned error matches each added error with
// errors.Is.
func (e *ErrCat) Err() error {
	if len(e.errs) == 0 {
		return nil
	}
	return catError(e.errs)
}

type catError []error

func (c catError) Error() string {
	s := make([]string, len(c))
	for i, err := range c {
		s[i] = err.Error()
	}
	return "the following errors were found:\n" + strings.Join(s, "\n")
}

func (c catError) Unwrap() []error { return c }
