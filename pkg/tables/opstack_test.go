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
	"math/rand"
	"testing"

	"github.com/argon-vm/go-argon/internal/tinyvm"
	"github.com/argon-vm/go-argon/pkg/isa"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustRun executes the given program and returns its trace.
func mustRun(t *testing.T, ops []tinyvm.Op, input ...uint64) *trace.AlgebraicExecutionTrace {
	t.Helper()
	//
	symbols := make([]field.Element, len(input))
	for i, v := range input {
		symbols[i] = field.New(v)
	}
	//
	aet, err := tinyvm.Run(tinyvm.Assemble(ops), symbols, 0)
	require.NoError(t, err)
	//
	return aet
}

func testChallenges(seed int64) *Challenges {
	return SampleChallenges(rand.New(rand.NewSource(seed)))
}

// The canonical four-cycle example: the stack grows across a push, idles
// for one cycle, shrinks across a pop and halts.  The observed stack
// depths are 16, 17, 17, 16, so re-sorting by depth interleaves the
// halt row directly behind the push row.
func opStackScenario(t *testing.T) *trace.AlgebraicExecutionTrace {
	return mustRun(t, []tinyvm.Op{
		{Instr: isa.Push, Arg: 42},
		{Instr: isa.Nop},
		{Instr: isa.Pop},
		{Instr: isa.Halt},
	})
}

func TestOpStackSortsByPointerThenClock(t *testing.T) {
	tbl := BuildOpStackTable(opStackScenario(t)).Base()
	require.Equal(t, uint(4), tbl.Height())
	//
	wantClk := []uint64{0, 3, 1, 2}
	wantOsp := []uint64{16, 16, 17, 17}
	//
	for i := range wantClk {
		assert.Equal(t, wantClk[i], tbl.Cell(uint(i), OpStackClk).Uint64(), "clk of row %d", i)
		assert.Equal(t, wantOsp[i], tbl.Cell(uint(i), OpStackOsp).Uint64(), "osp of row %d", i)
	}
	// only the pop row carries the shrink bit
	assert.True(t, tbl.Cell(0, OpStackIb1ShrinkStack).IsZero())
	assert.True(t, tbl.Cell(1, OpStackIb1ShrinkStack).IsZero())
	assert.True(t, tbl.Cell(2, OpStackIb1ShrinkStack).IsZero())
	assert.True(t, tbl.Cell(3, OpStackIb1ShrinkStack).IsOne())
}

func TestOpStackClockJumpInverses(t *testing.T) {
	tbl := BuildOpStackTable(opStackScenario(t)).Base()
	// rows 0 and 1 share depth 16 with clocks 0 and 3: the helper cell
	// holds the inverse of the jump minus one, i.e. of 2
	inv := tbl.Cell(0, OpStackClkDiffInverse)
	assert.True(t, inv.Mul(field.New(2)).IsOne())
	// row 1 ends its depth group
	assert.True(t, tbl.Cell(1, OpStackClkDiffInverse).IsZero())
	// rows 2 and 3 are adjacent in clock, so the minus-one inverse is zero
	assert.True(t, tbl.Cell(2, OpStackClkDiffInverse).IsZero())
}

func TestOpStackExtension(t *testing.T) {
	ch := testChallenges(7)
	table := BuildOpStackTable(opStackScenario(t))
	table.Pad(4)
	ext := table.Extend(ch)
	//
	require.Equal(t, uint(4), ext.Height())
	// the clock jump product absorbed exactly the one jump of size 3
	terminal := ext.Cell(3, OpStackClockJumpProduct)
	expected := PermArgStep(PermArgDefaultInitial(), ch.ClockJumpDifferencePerm, field.LiftUint64(3))
	assert.True(t, terminal.Equals(expected))
	// the running product absorbed all four rows
	acc := PermArgDefaultInitial()
	//
	for i := uint(0); i < 4; i++ {
		compressed := ext.Cell(i, OpStackClk).Mul(ch.OpStackClkWeight).
			Add(ext.Cell(i, OpStackIb1ShrinkStack).Mul(ch.OpStackIb1Weight)).
			Add(ext.Cell(i, OpStackOsp).Mul(ch.OpStackOspWeight)).
			Add(ext.Cell(i, OpStackOsv).Mul(ch.OpStackOsvWeight))
		acc = PermArgStep(acc, ch.OpStackPerm, compressed)
	}
	//
	assert.True(t, ext.Cell(3, OpStackRunningProduct).Equals(acc))
}

func TestOpStackConstraintsVanish(t *testing.T) {
	ch := testChallenges(11)
	table := BuildOpStackTable(opStackScenario(t))
	table.Pad(8)
	//
	errs := CheckTable(table, table.Extend(ch), ch)
	assert.Empty(t, errs)
}

func TestOpStackPaddingPreservesSortOrder(t *testing.T) {
	table := BuildOpStackTable(opStackScenario(t))
	table.Pad(8)
	tbl := table.Base()
	require.Equal(t, uint(8), tbl.Height())
	// padding clones the maximal-clock row (depth 16, clk 3) in place,
	// continuing the clock upward before the depth-17 group starts
	wantClk := []uint64{0, 3, 4, 5, 6, 7, 1, 2}
	wantOsp := []uint64{16, 16, 16, 16, 16, 16, 17, 17}
	//
	for i := range wantClk {
		assert.Equal(t, wantClk[i], tbl.Cell(uint(i), OpStackClk).Uint64(), "clk of row %d", i)
		assert.Equal(t, wantOsp[i], tbl.Cell(uint(i), OpStackOsp).Uint64(), "osp of row %d", i)
	}
	// the splice repaired the inverse column: clocks 3..7 are adjacent
	for i := uint(1); i < 5; i++ {
		assert.True(t, tbl.Cell(i, OpStackClkDiffInverse).IsZero(), "inverse of row %d", i)
	}
}

func TestOpStackRejectsOverfullPadding(t *testing.T) {
	table := BuildOpStackTable(opStackScenario(t))
	//
	assert.Panics(t, func() { table.Pad(2) })
}
