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
	"sort"

	"github.com/argon-vm/go-argon/pkg/circuit"
	"github.com/argon-vm/go-argon/pkg/isa"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Ram table columns.
const (
	// RamClk is the cycle at which this row was observed.
	RamClk uint = iota
	// RamRamp is the ram pointer, i.e. the address accessed.
	RamRamp
	// RamRamv is the value visible at that address.
	RamRamv
	// RamInstructionType is zero for a write access and one otherwise.
	RamInstructionType
	// RamRampDiffInverse is the inverse of (next ramp - ramp), or zero.
	RamRampDiffInverse
	// RamClkDiffInverse is the inverse of (next clk - clk - 1) within an
	// address group, or zero.
	RamClkDiffInverse
	// RamBaseWidth is the number of base columns.
	RamBaseWidth
)

// Ram table extension columns.
const (
	// RamRunningProduct ties this table's rows to the processor's.
	RamRunningProduct uint = RamBaseWidth + iota
	// RamClockJumpProduct accumulates all clock jump differences greater
	// than one within an address group.
	RamClockJumpProduct
	// RamFullWidth is the number of base plus extension columns.
	RamFullWidth
)

// Ram table challenge indices.
const (
	ramChPerm uint = iota
	ramChClkWeight
	ramChRampWeight
	ramChRamvWeight
	ramChInstructionTypeWeight
	ramChClockJumpPerm
	numRamChallenges
)

// RamTable proves the integrity of random-access memory: one row per
// cycle, re-sorted by address and then by cycle.  Every cycle counts as
// an access of the address held in stack register one; a write pins the
// next value, a read must reproduce the previous one, and the first read
// of any address must see zero.
type RamTable struct {
	base *trace.Table[field.Element]
}

// BuildRamTable fills the ram table from the trace.
func BuildRamTable(aet *trace.AlgebraicExecutionTrace) *RamTable {
	writeOpc := field.New(isa.WriteMem.Opcode())
	rows := make([][]field.Element, 0, len(aet.ProcessorMatrix))
	//
	for _, row := range aet.ProcessorMatrix {
		itype := field.One()
		//
		if row[trace.RegCi].Equals(writeOpc) {
			itype = field.Zero()
		}
		//
		rows = append(rows, []field.Element{
			row[trace.RegClk],
			row[trace.RegSt1],
			row[trace.RegRamv],
			itype,
			field.Zero(),
			field.Zero(),
		})
	}
	//
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i][RamRamp].Uint64(), rows[j][RamRamp].Uint64()
		//
		if ri != rj {
			return ri < rj
		}
		//
		return rows[i][RamClk].Uint64() < rows[j][RamClk].Uint64()
	})
	//
	tbl := trace.NewTable[field.Element]("ram", RamBaseWidth)
	//
	for _, row := range rows {
		tbl.AppendRow(row)
	}
	//
	repairRamInverses(tbl)
	//
	return &RamTable{base: tbl}
}

// repairRamInverses recomputes both inverse helper columns over the whole
// table, batching the inversions.
func repairRamInverses(tbl *trace.Table[field.Element]) {
	if tbl.Height() == 0 {
		return
	}
	//
	iords := make([]field.Element, tbl.Height())
	//
	for i := uint(0); i+1 < tbl.Height(); i++ {
		iords[i] = tbl.Cell(i+1, RamRamp).Sub(tbl.Cell(i, RamRamp))
	}
	//
	field.BatchInvert(iords)
	//
	for i := uint(0); i < tbl.Height(); i++ {
		tbl.SetCell(i, RamRampDiffInverse, iords[i])
	}
	//
	fillClkDiffInverses(tbl, RamClk, RamClkDiffInverse,
		func(curr, next []field.Element) bool {
			return curr[RamRamp].Equals(next[RamRamp])
		})
}

// ramRepairRow sets a row's inverse helper columns from its successor.
func ramRepairRow(curr, next []field.Element) {
	iord, clkDi := field.Zero(), field.Zero()
	//
	if next != nil {
		iord = next[RamRamp].Sub(curr[RamRamp]).Inverse()
		//
		if curr[RamRamp].Equals(next[RamRamp]) {
			clkDi = clkDiffMinusOneInverse(curr[RamClk], next[RamClk])
		}
	}
	//
	curr[RamRampDiffInverse] = iord
	curr[RamClkDiffInverse] = clkDi
}

// Name implementation for the TraceTable interface.
func (p *RamTable) Name() string {
	return p.base.Name()
}

// BaseWidth implementation for the TraceTable interface.
func (p *RamTable) BaseWidth() uint {
	return RamBaseWidth
}

// FullWidth implementation for the TraceTable interface.
func (p *RamTable) FullWidth() uint {
	return RamFullWidth
}

// Base implementation for the TraceTable interface.
func (p *RamTable) Base() *trace.Table[field.Element] {
	return p.base
}

// Pad implementation for the TraceTable interface.
func (p *RamTable) Pad(height uint) {
	padByClockTemplate(p.base, height, RamClk, ramRepairRow)
}

// Extend implementation for the TraceTable interface.
func (p *RamTable) Extend(ch *Challenges) *trace.Table[field.Ext] {
	rows := liftRows(p.base, RamFullWidth)
	rppa := PermArgDefaultInitial()
	rpcjd := PermArgDefaultInitial()
	//
	for i := range rows {
		compressed := rows[i][RamClk].Mul(ch.RamClkWeight).
			Add(rows[i][RamRamp].Mul(ch.RamRampWeight)).
			Add(rows[i][RamRamv].Mul(ch.RamRamvWeight)).
			Add(rows[i][RamInstructionType].Mul(ch.RamInstructionTypeWeight))
		rppa = PermArgStep(rppa, ch.RamPerm, compressed)
		//
		if i > 0 && rows[i][RamRamp].Equals(rows[i-1][RamRamp]) {
			diff := rows[i][RamClk].Sub(rows[i-1][RamClk])
			//
			if !diff.IsOne() {
				rpcjd = PermArgStep(rpcjd, ch.ClockJumpDifferencePerm, diff)
			}
		}
		//
		rows[i][RamRunningProduct] = rppa
		rows[i][RamClockJumpProduct] = rpcjd
	}
	//
	ext := trace.NewTable[field.Ext]("ram", RamFullWidth)
	//
	for _, row := range rows {
		ext.AppendRow(row)
	}
	//
	return ext
}

// ChallengeVector implementation for the TraceTable interface.
func (p *RamTable) ChallengeVector(ch *Challenges) []field.Ext {
	return []field.Ext{
		ramChPerm:                  ch.RamPerm,
		ramChClkWeight:             ch.RamClkWeight,
		ramChRampWeight:            ch.RamRampWeight,
		ramChRamvWeight:            ch.RamRamvWeight,
		ramChInstructionTypeWeight: ch.RamInstructionTypeWeight,
		ramChClockJumpPerm:         ch.ClockJumpDifferencePerm,
	}
}

// InitialConstraints implementation for the TraceTable interface.
func (p *RamTable) InitialConstraints(b *circuit.Builder) []circuit.Constraint {
	clk := b.Curr(RamClk)
	itype := b.Curr(RamInstructionType)
	ramv := b.Curr(RamRamv)
	rppa := b.Curr(RamRunningProduct)
	rpcjd := b.Curr(RamClockJumpProduct)
	// clk is zero on the first row, so the first compression omits it.
	compressed := b.Curr(RamRamp).Mul(b.Challenge(ramChRampWeight)).
		Add(ramv.Mul(b.Challenge(ramChRamvWeight))).
		Add(itype.Mul(b.Challenge(ramChInstructionTypeWeight)))
	//
	return []circuit.Constraint{
		circuit.NewConstraint("ram.clk_starts_at_zero", clk),
		circuit.NewConstraint("ram.first_read_sees_zero", itype.Mul(ramv)),
		circuit.NewConstraint("ram.running_product_absorbs_first_row",
			rppa.Sub(b.Challenge(ramChPerm).Sub(compressed))),
		circuit.NewConstraint("ram.clock_jump_product_starts_default",
			rpcjd.Sub(b.One())),
	}
}

// ConsistencyConstraints implementation for the TraceTable interface.
func (p *RamTable) ConsistencyConstraints(b *circuit.Builder) []circuit.Constraint {
	itype := b.Curr(RamInstructionType)
	//
	return []circuit.Constraint{
		circuit.NewConstraint("ram.instruction_type_is_bit",
			itype.Mul(itype.Sub(b.One()))),
	}
}

// TransitionConstraints implementation for the TraceTable interface.
func (p *RamTable) TransitionConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	clk, clkNext := b.Curr(RamClk), b.Next(RamClk)
	ramp, rampNext := b.Curr(RamRamp), b.Next(RamRamp)
	ramv, ramvNext := b.Curr(RamRamv), b.Next(RamRamv)
	itypeNext := b.Next(RamInstructionType)
	iord := b.Curr(RamRampDiffInverse)
	clkDi := b.Curr(RamClkDiffInverse)
	rppa, rppaNext := b.Curr(RamRunningProduct), b.Next(RamRunningProduct)
	rpcjd, rpcjdNext := b.Curr(RamClockJumpProduct), b.Next(RamClockJumpProduct)
	//
	rampDiff := rampNext.Sub(ramp)
	iordWellFormed := iord.Mul(rampDiff).Sub(one)
	// rampStays is one within an address group and zero across groups,
	// provided iord is well formed.
	rampStays := one.Sub(iord.Mul(rampDiff))
	clkDiffMinusOne := clkNext.Sub(clk).Sub(one)
	clkDiWellFormed := clkDi.Mul(clkDiffMinusOne).Sub(one)
	//
	compressedNext := clkNext.Mul(b.Challenge(ramChClkWeight)).
		Add(rampNext.Mul(b.Challenge(ramChRampWeight))).
		Add(ramvNext.Mul(b.Challenge(ramChRamvWeight))).
		Add(itypeNext.Mul(b.Challenge(ramChInstructionTypeWeight)))
	//
	cjdUpdate := rpcjdNext.Sub(rpcjd.Mul(b.Challenge(ramChClockJumpPerm).Sub(clkNext.Sub(clk))))
	cjdKeep := rpcjdNext.Sub(rpcjd)
	//
	return []circuit.Constraint{
		// the ramp-difference inverse column is well formed
		circuit.NewConstraint("ram.ramp_diff_inverse_is_inverse",
			iordWellFormed.Mul(iord)),
		circuit.NewConstraint("ram.ramp_diff_inverse_cancels_diff",
			iordWellFormed.Mul(rampDiff)),
		// within a group, a read reproduces the previous value
		circuit.NewConstraint("ram.read_preserves_value",
			rampStays.Mul(itypeNext).Mul(ramvNext.Sub(ramv))),
		// the first read of a fresh address sees zero
		circuit.NewConstraint("ram.fresh_address_reads_zero",
			rampDiff.Mul(itypeNext).Mul(ramvNext)),
		// the clock-difference inverse column is well formed
		circuit.NewConstraint("ram.clk_diff_inverse_is_inverse",
			rampStays.Mul(clkDiWellFormed).Mul(clkDi)),
		circuit.NewConstraint("ram.clk_diff_inverse_cancels_diff",
			rampStays.Mul(clkDiWellFormed).Mul(clkDiffMinusOne)),
		// clock jumps greater than one feed the clock jump product
		circuit.NewConstraint("ram.clock_jump_product_updates",
			clkDiffMinusOne.Mul(rampStays).Mul(cjdUpdate).
				Add(one.Sub(clkDiffMinusOne.Mul(clkDi)).Mul(cjdKeep)).
				Add(one.Sub(rampStays).Mul(cjdKeep))),
		// every row feeds the processor permutation
		circuit.NewConstraint("ram.running_product_absorbs_next_row",
			rppaNext.Sub(rppa.Mul(b.Challenge(ramChPerm).Sub(compressedNext)))),
	}
}

// TerminalConstraints implementation for the TraceTable interface.
func (p *RamTable) TerminalConstraints(b *circuit.Builder) []circuit.Constraint {
	return nil
}
