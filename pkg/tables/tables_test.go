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
package tables

import (
	"testing"

	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
	"github.com/stretchr/testify/assert"
)

// checkClkDiffInverses verifies a batch-filled clock-jump helper column
// cell by cell against its per-pair definition, and that the column is
// not vacuously zero.
func checkClkDiffInverses(
	t *testing.T, tbl *trace.Table[field.Element], clkCol, invCol uint,
	sameGroup func(curr, next []field.Element) bool,
) {
	t.Helper()
	//
	nonzero := false
	//
	for i := uint(0); i < tbl.Height(); i++ {
		expected := field.Zero()
		//
		if i+1 < tbl.Height() && sameGroup(tbl.Row(i), tbl.Row(i+1)) {
			expected = clkDiffMinusOneInverse(tbl.Cell(i, clkCol), tbl.Cell(i+1, clkCol))
		}
		//
		assert.True(t, tbl.Cell(i, invCol).Equals(expected), "%s row %d", tbl.Name(), i)
		nonzero = nonzero || !expected.IsZero()
	}
	//
	assert.True(t, nonzero, "%s trace exercises no clock jump", tbl.Name())
}

func TestOpStackInversesMatchDefinition(t *testing.T) {
	tbl := BuildOpStackTable(coverageTrace(t)).Base()
	//
	checkClkDiffInverses(t, tbl, OpStackClk, OpStackClkDiffInverse,
		func(curr, next []field.Element) bool {
			return curr[OpStackOsp].Equals(next[OpStackOsp])
		})
}

func TestJumpStackInversesMatchDefinition(t *testing.T) {
	tbl := BuildJumpStackTable(coverageTrace(t)).Base()
	//
	checkClkDiffInverses(t, tbl, JumpStackClk, JumpStackClkDiffInverse,
		func(curr, next []field.Element) bool {
			return curr[JumpStackJsp].Equals(next[JumpStackJsp])
		})
}

func TestRamInversesMatchDefinition(t *testing.T) {
	tbl := BuildRamTable(coverageTrace(t)).Base()
	//
	checkClkDiffInverses(t, tbl, RamClk, RamClkDiffInverse,
		func(curr, next []field.Element) bool {
			return curr[RamRamp].Equals(next[RamRamp])
		})
	// the ramp-difference inverse column, over group breaks and within
	// groups alike
	breaks := false
	//
	for i := uint(0); i < tbl.Height(); i++ {
		expected := field.Zero()
		//
		if i+1 < tbl.Height() {
			expected = tbl.Cell(i+1, RamRamp).Sub(tbl.Cell(i, RamRamp)).Inverse()
		}
		//
		assert.True(t, tbl.Cell(i, RamRampDiffInverse).Equals(expected), "row %d", i)
		breaks = breaks || !expected.IsZero()
	}
	//
	assert.True(t, breaks, "trace exercises no address change")
}
