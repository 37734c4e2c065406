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
	"fmt"

	"github.com/argon-vm/go-argon/pkg/circuit"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// TraceTable is the contract every arithmetized table implements.  The
// lifecycle is fill (done by the table's Build constructor), then Pad to
// the common height, then Extend under a challenge vector.  The four
// constraint families are built on demand against an arena sized for the
// table's full (base plus extension) width; every circuit they return
// reads columns by the table's exported column indices and challenges by
// the table's dense challenge indices.
type TraceTable interface {
	// Name identifies the table in logs and error messages.
	Name() string
	// BaseWidth is the number of base columns.
	BaseWidth() uint
	// FullWidth is the number of base plus extension columns.
	FullWidth() uint
	// Base exposes the filled (and, after Pad, padded) base table.
	Base() *trace.Table[field.Element]
	// Pad brings the base table up to the given height.  Panics if the
	// table is already taller.
	Pad(height uint)
	// Extend computes the extension columns under the given challenges,
	// returning a full-width table over the extension field.
	Extend(ch *Challenges) *trace.Table[field.Ext]
	// ChallengeVector is the dense challenge slice this table's circuits
	// index into.
	ChallengeVector(ch *Challenges) []field.Ext
	// InitialConstraints hold on the first row only.
	InitialConstraints(b *circuit.Builder) []circuit.Constraint
	// ConsistencyConstraints hold on every row.
	ConsistencyConstraints(b *circuit.Builder) []circuit.Constraint
	// TransitionConstraints hold on every pair of consecutive rows.
	TransitionConstraints(b *circuit.Builder) []circuit.Constraint
	// TerminalConstraints hold on the last row only.
	TerminalConstraints(b *circuit.Builder) []circuit.Constraint
}

// padByClockTemplate pads a clock-ordered memory-like table up to the
// given height.  The template row is the one carrying the maximal clock
// value; padding rows clone it with clocks continuing upward, and are
// spliced in directly after it.  This keeps the table sorted and makes
// the padding rows' compressions coincide with the processor's own
// padding rows, so the permutation argument is preserved.
//
// repair recomputes a row's inverse helper columns against its successor;
// it is invoked for the template and every padding row (with a nil
// successor for a final row).
func padByClockTemplate(
	tbl *trace.Table[field.Element], height uint, clkCol uint,
	repair func(curr, next []field.Element),
) {
	if tbl.Height() > height {
		panic(fmt.Sprintf("%s table higher than padded height (%d > %d)", tbl.Name(), tbl.Height(), height))
	} else if tbl.Height() == height {
		return
	}
	// Locate template row (maximal clock equals height-1 of the unpadded
	// trace, since every cycle contributes exactly one row).
	maxClk := field.New(uint64(tbl.Height() - 1))
	templateIdx := -1
	//
	for i := uint(0); i < tbl.Height(); i++ {
		if tbl.Cell(i, clkCol).Equals(maxClk) {
			templateIdx = int(i)
			break
		}
	}
	//
	if templateIdx < 0 {
		panic(fmt.Sprintf("%s table has no row at maximal clock %s", tbl.Name(), maxClk))
	}
	// Clone the template, bumping clocks.
	n := height - tbl.Height()
	padding := make([][]field.Element, n)
	//
	for i := uint(0); i < n; i++ {
		row := make([]field.Element, tbl.Width())
		copy(row, tbl.Row(uint(templateIdx)))
		row[clkCol] = maxClk.Add(field.New(uint64(i + 1)))
		padding[i] = row
	}
	// Successor of the padding run, if any.
	var successor []field.Element
	if uint(templateIdx)+1 < tbl.Height() {
		successor = tbl.Row(uint(templateIdx) + 1)
	}
	// Repair inverse columns across the splice.
	repair(tbl.Row(uint(templateIdx)), padding[0])
	//
	for i := uint(0); i+1 < n; i++ {
		repair(padding[i], padding[i+1])
	}
	//
	repair(padding[n-1], successor)
	//
	tbl.InsertRows(uint(templateIdx)+1, padding...)
}

// clkDiffMinusOneInverse is the canonical value of an
// inverse-of-clock-difference-minus-one helper column: the inverse of
// (next clock - current clock - 1), with inverse-of-zero pinned to zero.
// The pad repairs use it for individual rows; whole-column fills go
// through fillClkDiffInverses instead.
func clkDiffMinusOneInverse(currClk, nextClk field.Element) field.Element {
	one := field.One()
	return nextClk.Sub(currClk).Sub(one).Inverse()
}

// fillClkDiffInverses populates a clock-jump inverse helper column over a
// sorted table in a single batch inversion: entry i receives the inverse
// of (clk(i+1) - clk(i) - 1) whenever rows i and i+1 belong to the same
// group, and zero otherwise.  The final row always ends its group.
func fillClkDiffInverses(
	tbl *trace.Table[field.Element], clkCol, invCol uint,
	sameGroup func(curr, next []field.Element) bool,
) {
	if tbl.Height() == 0 {
		return
	}
	//
	one := field.One()
	diffs := make([]field.Element, tbl.Height())
	//
	for i := uint(0); i+1 < tbl.Height(); i++ {
		if sameGroup(tbl.Row(i), tbl.Row(i+1)) {
			diffs[i] = tbl.Cell(i+1, clkCol).Sub(tbl.Cell(i, clkCol)).Sub(one)
		}
	}
	//
	field.BatchInvert(diffs)
	//
	for i := uint(0); i < tbl.Height(); i++ {
		tbl.SetCell(i, invCol, diffs[i])
	}
}

// liftRows lifts every base row of a table into the extension field,
// leaving room for width-Base extension columns.  Helper for the Extend
// implementations.
func liftRows(tbl *trace.Table[field.Element], fullWidth uint) [][]field.Ext {
	rows := make([][]field.Ext, tbl.Height())
	//
	for i := uint(0); i < tbl.Height(); i++ {
		rows[i] = trace.Lifted(tbl.Row(i), fullWidth)
	}
	//
	return rows
}
