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
package circuit

// Constraint is a named circuit which must evaluate to zero wherever its
// family (initial, consistency, transition, terminal) is evaluated.  The
// handle is diagnostic only; it identifies the violated identity in panics
// and test failures.
type Constraint struct {
	// Handle names the identity, e.g. "osp-increases-by-1-or-does-not-change".
	Handle string
	// Circuit is the polynomial identity itself.
	Circuit Node
}

// NewConstraint constructs a named constraint.
func NewConstraint(handle string, c Node) Constraint {
	return Constraint{handle, c}
}

// Degree of the underlying circuit.
func (p Constraint) Degree() uint {
	return p.Circuit.Degree()
}

// MaxDegree returns the largest degree among the given constraints, or
// zero if there are none.
func MaxDegree(constraints []Constraint) uint {
	var deg uint
	//
	for _, c := range constraints {
		deg = max(deg, c.Degree())
	}
	//
	return deg
}

// AssertSingleRow panics if any of the given constraints references a
// next-row input; used by the table builders when assembling their
// initial, consistency and terminal families.
func AssertSingleRow(constraints []Constraint) {
	for _, c := range constraints {
		if c.Circuit.RefsNextRow() {
			panic("single-row constraint references next row: " + c.Handle)
		}
	}
}
