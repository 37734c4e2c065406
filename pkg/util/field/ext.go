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

import "fmt"

// Ext is an element of the cubic extension of the base field, taken modulo
// the irreducible polynomial x³ - x + 1.  An element c0 + c1·x + c2·x² is
// stored by its three coefficients.  Like Element, the API is value
// oriented: operations never mutate their receiver.
type Ext struct {
	c0, c1, c2 Element
}

// ZeroExt constructs the additive identity of the extension field.
func ZeroExt() Ext {
	return Ext{}
}

// OneExt constructs the multiplicative identity of the extension field.
func OneExt() Ext {
	return Ext{c0: One()}
}

// NewExt constructs an extension element from its three coefficients.
func NewExt(c0, c1, c2 Element) Ext {
	return Ext{c0, c1, c2}
}

// Lift embeds a base-field element into the extension field.
func Lift(e Element) Ext {
	return Ext{c0: e}
}

// LiftUint64 embeds a uint64 constant into the extension field.
func LiftUint64(val uint64) Ext {
	return Lift(New(val))
}

// Coeffs returns the three coefficients of x, lowest degree first.
func (x Ext) Coeffs() (Element, Element, Element) {
	return x.c0, x.c1, x.c2
}

// Add x + y
func (x Ext) Add(y Ext) Ext {
	return Ext{x.c0.Add(y.c0), x.c1.Add(y.c1), x.c2.Add(y.c2)}
}

// Sub x - y
func (x Ext) Sub(y Ext) Ext {
	return Ext{x.c0.Sub(y.c0), x.c1.Sub(y.c1), x.c2.Sub(y.c2)}
}

// Neg -x
func (x Ext) Neg() Ext {
	return Ext{x.c0.Neg(), x.c1.Neg(), x.c2.Neg()}
}

// Mul x * y, reducing modulo x³ - x + 1 (so x³ ≡ x - 1 and x⁴ ≡ x² - x).
func (x Ext) Mul(y Ext) Ext {
	var (
		d0 = x.c0.Mul(y.c0)
		d1 = x.c0.Mul(y.c1).Add(x.c1.Mul(y.c0))
		d2 = x.c0.Mul(y.c2).Add(x.c1.Mul(y.c1)).Add(x.c2.Mul(y.c0))
		d3 = x.c1.Mul(y.c2).Add(x.c2.Mul(y.c1))
		d4 = x.c2.Mul(y.c2)
	)
	//
	return Ext{
		d0.Sub(d3),
		d1.Add(d3).Sub(d4),
		d2.Add(d4),
	}
}

// ScalarMul multiplies every coefficient of x by the base-field element s.
func (x Ext) ScalarMul(s Element) Ext {
	return Ext{x.c0.Mul(s), x.c1.Mul(s), x.c2.Mul(s)}
}

// Inverse x⁻¹, or 0 if x = 0.  Computed by solving M(x)·v = 1 where M(x) is
// the 3x3 matrix of multiplication by x over the coefficient basis; the
// cofactor expansion below is that solve written out.  Since the
// determinant vanishes exactly when x = 0, the base-field zero sentinel of
// Element.Inverse carries the sentinel through for free.
func (x Ext) Inverse() Ext {
	a0, a1, a2 := x.c0, x.c1, x.c2
	// a0PlusA2 appears in two cofactors
	a0PlusA2 := a0.Add(a2)
	// cofactors of the first row of M(x)
	c00 := a0PlusA2.Mul(a0PlusA2).Sub(a1.Mul(a1.Sub(a2)))
	c01 := a0.Mul(a1).Add(a2.Mul(a2)).Neg()
	c02 := a1.Mul(a1).Sub(a2.Mul(a0PlusA2))
	// det(M) by expansion along the first row of M(x)
	det := a0.Mul(c00).Sub(a2.Mul(c01)).Sub(a1.Mul(c02))
	detInv := det.Inverse()
	//
	return Ext{c00.Mul(detInv), c01.Mul(detInv), c02.Mul(detInv)}
}

// IsZero checks whether this value is zero (or not).
func (x Ext) IsZero() bool {
	return x.c0.IsZero() && x.c1.IsZero() && x.c2.IsZero()
}

// IsOne checks whether this value is one (or not).
func (x Ext) IsOne() bool {
	return x.c0.IsOne() && x.c1.IsZero() && x.c2.IsZero()
}

// Equals checks whether two extension elements represent the same value.
func (x Ext) Equals(y Ext) bool {
	return x.c0.Equals(y.c0) && x.c1.Equals(y.c1) && x.c2.Equals(y.c2)
}

// String renders x as a coefficient triple, for diagnostics.
func (x Ext) String() string {
	return fmt.Sprintf("(%s, %s, %s)", x.c0, x.c1, x.c2)
}
