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

// BatchInvert efficiently inverts the list of elements s, in place, using a
// single field inversion (Montgomery's trick).  Zero entries stay zero,
// matching the sentinel behaviour of Element.Inverse; this is what the
// trace fillers rely on when populating inverse helper columns in bulk.
func BatchInvert(s []Element) {
	if len(s) == 0 {
		return
	}
	//
	var (
		one = One()
		// identifies entries which are zero
		isZero = make([]bool, len(s))
		// m[i] = s[i] * s[i+1] * ...
		m = make([]Element, len(s))
	)
	//
	last := len(s) - 1
	isZero[last] = s[last].IsZero()
	//
	if isZero[last] {
		s[last] = one
	}
	//
	m[last] = s[last]
	//
	for i := last - 1; i >= 0; i-- {
		isZero[i] = s[i].IsZero()
		//
		if isZero[i] {
			s[i] = one
		}
		//
		m[i] = m[i+1].Mul(s[i])
	}
	// inv = s[0]⁻¹ * s[1]⁻¹ * ...
	inv := m[0].Inverse()
	//
	for i := 0; i < last; i++ {
		// newInv = s[i+1]⁻¹ * s[i+2]⁻¹ * ...
		newInv := inv.Mul(s[i])
		s[i] = inv.Mul(m[i+1])
		inv = newInv
	}
	//
	s[last] = inv
	// restore sentinel entries
	for i := range s {
		if isZero[i] {
			s[i] = Zero()
		}
	}
}
