// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package field

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// An Element of the base prime field, with p = 2^64 - 2^32 + 1.  This wraps
// the underlying gnark-crypto element to give a value-oriented API: every
// operation returns a fresh element and never mutates its receiver.
type Element struct {
	inner goldilocks.Element
}

// Zero constructs a field element representing 0.
func Zero() Element {
	return Element{}
}

// One constructs a field element representing 1.
func One() Element {
	return New(1)
}

// New constructs a field element from a given uint64.
func New(val uint64) Element {
	var elem goldilocks.Element
	//
	elem.SetUint64(val)
	//
	return Element{elem}
}

// FromInt64 constructs a field element from a given int64, mapping negative
// values to their additive inverses.
func FromInt64(val int64) Element {
	if val >= 0 {
		return New(uint64(val))
	}
	//
	return New(uint64(-val)).Neg()
}

// Add x + y
func (x Element) Add(y Element) Element {
	var elem goldilocks.Element
	//
	elem.Add(&x.inner, &y.inner)
	//
	return Element{elem}
}

// Sub x - y
func (x Element) Sub(y Element) Element {
	var elem goldilocks.Element
	//
	elem.Sub(&x.inner, &y.inner)
	//
	return Element{elem}
}

// Mul x * y
func (x Element) Mul(y Element) Element {
	var elem goldilocks.Element
	//
	elem.Mul(&x.inner, &y.inner)
	//
	return Element{elem}
}

// Neg -x
func (x Element) Neg() Element {
	var elem goldilocks.Element
	//
	elem.Neg(&x.inner)
	//
	return Element{elem}
}

// Inverse x⁻¹, or 0 if x = 0.  The zero sentinel is relied upon by the
// inverse helper columns of the trace tables (see pkg/tables), whose
// constraints are arranged so that zero is the correct value at exactly the
// rows where the inverse does not exist.
func (x Element) Inverse() Element {
	var elem goldilocks.Element
	//
	elem.Inverse(&x.inner)
	//
	return Element{elem}
}

// IsZero checks whether this value is zero (or not).
func (x Element) IsZero() bool {
	return x.inner.IsZero()
}

// IsOne checks whether this value is one (or not).
func (x Element) IsOne() bool {
	return x.inner.IsOne()
}

// Equals checks whether two elements represent the same value.
func (x Element) Equals(y Element) bool {
	return x.inner.Equal(&y.inner)
}

// Uint64 returns the canonical (non-Montgomery) value of x.
func (x Element) Uint64() uint64 {
	return x.inner.Uint64()
}

// String returns a decimal rendering of x, for diagnostics.
func (x Element) String() string {
	return x.inner.String()
}
