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
	"github.com/argon-vm/go-argon/pkg/isa"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Op-stack table columns.
const (
	// OpStackClk is the cycle at which this row was observed.
	OpStackClk uint = iota
	// OpStackIb1ShrinkStack is the shrink-stack bit of the instruction
	// executed at that cycle.
	OpStackIb1ShrinkStack
	// OpStackOsp is the op-stack pointer, i.e. the stack depth.
	OpStackOsp
	// OpStackOsv is the op-stack value, i.e. the topmost underflow word.
	OpStackOsv
	// OpStackClkDiffInverse is the inverse of (next clk - clk - 1), or
	// zero when that difference is zero.
	OpStackClkDiffInverse
	// OpStackBaseWidth is the number of base columns.
	OpStackBaseWidth
)

// Op-stack table extension columns.
const (
	// OpStackRunningProduct ties this table's rows to the processor's.
	OpStackRunningProduct uint = OpStackBaseWidth + iota
	// OpStackClockJumpProduct accumulates all clock jump differences
	// greater than one within a stack-pointer group.
	OpStackClockJumpProduct
	// OpStackFullWidth is the number of base plus extension columns.
	OpStackFullWidth
)

// Op-stack table challenge indices.
const (
	osChPerm uint = iota
	osChClkWeight
	osChIb1Weight
	osChOspWeight
	osChOsvWeight
	osChClockJumpPerm
	numOpStackChallenges
)

// OpStackTable proves the integrity of the op-stack underflow memory: one
// row per cycle, re-sorted by stack pointer and then by cycle.  Within a
// stack-pointer group the underflow word may only change when the
// instruction shrinks the stack; the clock-jump-difference product lets
// the protocol layer cross-check the sort against the processor's clock.
type OpStackTable struct {
	base *trace.Table[field.Element]
}

// BuildOpStackTable fills the op-stack table from the trace.
func BuildOpStackTable(aet *trace.AlgebraicExecutionTrace) *OpStackTable {
	// Bucket rows by stack depth; depth grows by at most one per cycle,
	// so buckets can be discovered in order.
	var buckets [][][]field.Element
	//
	for _, row := range aet.ProcessorMatrix {
		depth := row[trace.RegOsp].Uint64()
		//
		if depth < trace.OpStackRegCount {
			panic(fmt.Sprintf("op-stack pointer %d below register count at cycle %s",
				depth, row[trace.RegClk]))
		}
		//
		bucket := depth - trace.OpStackRegCount
		//
		if bucket == uint64(len(buckets)) {
			buckets = append(buckets, nil)
		} else if bucket > uint64(len(buckets)) {
			panic(fmt.Sprintf("op-stack pointer jumped to %d at cycle %s", depth, row[trace.RegClk]))
		}
		//
		ci, ok := isa.FromOpcode(row[trace.RegCi].Uint64())
		if !ok {
			panic(fmt.Sprintf("unknown opcode %s at cycle %s", row[trace.RegCi], row[trace.RegClk]))
		}
		//
		buckets[bucket] = append(buckets[bucket], []field.Element{
			row[trace.RegClk],
			field.New(ci.IB(1)),
			row[trace.RegOsp],
			row[trace.RegOsv],
			field.Zero(),
		})
	}
	// Flatten; buckets are already clock-ordered.
	tbl := trace.NewTable[field.Element]("op-stack", OpStackBaseWidth)
	//
	for _, bucket := range buckets {
		for _, row := range bucket {
			tbl.AppendRow(row)
		}
	}
	// Inverse helper column for clock jumps within a group.
	fillClkDiffInverses(tbl, OpStackClk, OpStackClkDiffInverse,
		func(curr, next []field.Element) bool {
			return curr[OpStackOsp].Equals(next[OpStackOsp])
		})
	//
	return &OpStackTable{base: tbl}
}

// Name implementation for the TraceTable interface.
func (p *OpStackTable) Name() string {
	return p.base.Name()
}

// BaseWidth implementation for the TraceTable interface.
func (p *OpStackTable) BaseWidth() uint {
	return OpStackBaseWidth
}

// FullWidth implementation for the TraceTable interface.
func (p *OpStackTable) FullWidth() uint {
	return OpStackFullWidth
}

// Base implementation for the TraceTable interface.
func (p *OpStackTable) Base() *trace.Table[field.Element] {
	return p.base
}

// Pad implementation for the TraceTable interface.
func (p *OpStackTable) Pad(height uint) {
	padByClockTemplate(p.base, height, OpStackClk, func(curr, next []field.Element) {
		inv := field.Zero()
		//
		if next != nil && curr[OpStackOsp].Equals(next[OpStackOsp]) {
			inv = clkDiffMinusOneInverse(curr[OpStackClk], next[OpStackClk])
		}
		//
		curr[OpStackClkDiffInverse] = inv
	})
}

// Extend implementation for the TraceTable interface.
func (p *OpStackTable) Extend(ch *Challenges) *trace.Table[field.Ext] {
	rows := liftRows(p.base, OpStackFullWidth)
	rppa := PermArgDefaultInitial()
	rpcjd := PermArgDefaultInitial()
	//
	for i := range rows {
		compressed := rows[i][OpStackClk].Mul(ch.OpStackClkWeight).
			Add(rows[i][OpStackIb1ShrinkStack].Mul(ch.OpStackIb1Weight)).
			Add(rows[i][OpStackOsp].Mul(ch.OpStackOspWeight)).
			Add(rows[i][OpStackOsv].Mul(ch.OpStackOsvWeight))
		rppa = PermArgStep(rppa, ch.OpStackPerm, compressed)
		//
		if i > 0 && rows[i][OpStackOsp].Equals(rows[i-1][OpStackOsp]) {
			diff := rows[i][OpStackClk].Sub(rows[i-1][OpStackClk])
			//
			if !diff.IsOne() {
				rpcjd = PermArgStep(rpcjd, ch.ClockJumpDifferencePerm, diff)
			}
		}
		//
		rows[i][OpStackRunningProduct] = rppa
		rows[i][OpStackClockJumpProduct] = rpcjd
	}
	//
	ext := trace.NewTable[field.Ext]("op-stack", OpStackFullWidth)
	//
	for _, row := range rows {
		ext.AppendRow(row)
	}
	//
	return ext
}

// ChallengeVector implementation for the TraceTable interface.
func (p *OpStackTable) ChallengeVector(ch *Challenges) []field.Ext {
	return []field.Ext{
		osChPerm:          ch.OpStackPerm,
		osChClkWeight:     ch.OpStackClkWeight,
		osChIb1Weight:     ch.OpStackIb1Weight,
		osChOspWeight:     ch.OpStackOspWeight,
		osChOsvWeight:     ch.OpStackOsvWeight,
		osChClockJumpPerm: ch.ClockJumpDifferencePerm,
	}
}

// InitialConstraints implementation for the TraceTable interface.
func (p *OpStackTable) InitialConstraints(b *circuit.Builder) []circuit.Constraint {
	clk := b.Curr(OpStackClk)
	ib1 := b.Curr(OpStackIb1ShrinkStack)
	osp := b.Curr(OpStackOsp)
	osv := b.Curr(OpStackOsv)
	rppa := b.Curr(OpStackRunningProduct)
	rpcjd := b.Curr(OpStackClockJumpProduct)
	// clk and osv are zero on the first row, so the first compression
	// reduces to the ib1 and osp terms.
	compressed := ib1.Mul(b.Challenge(osChIb1Weight)).
		Add(osp.Mul(b.Challenge(osChOspWeight)))
	//
	return []circuit.Constraint{
		circuit.NewConstraint("op-stack.clk_starts_at_zero", clk),
		circuit.NewConstraint("op-stack.osv_starts_at_zero", osv),
		circuit.NewConstraint("op-stack.osp_starts_at_stack_size",
			osp.Sub(b.Constant(trace.OpStackRegCount))),
		circuit.NewConstraint("op-stack.running_product_absorbs_first_row",
			rppa.Sub(b.Challenge(osChPerm).Sub(compressed))),
		circuit.NewConstraint("op-stack.clock_jump_product_starts_default",
			rpcjd.Sub(b.One())),
	}
}

// ConsistencyConstraints implementation for the TraceTable interface.
func (p *OpStackTable) ConsistencyConstraints(b *circuit.Builder) []circuit.Constraint {
	return nil
}

// TransitionConstraints implementation for the TraceTable interface.
func (p *OpStackTable) TransitionConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	clk, clkNext := b.Curr(OpStackClk), b.Next(OpStackClk)
	ib1 := b.Curr(OpStackIb1ShrinkStack)
	osp, ospNext := b.Curr(OpStackOsp), b.Next(OpStackOsp)
	osv, osvNext := b.Curr(OpStackOsv), b.Next(OpStackOsv)
	clkDi := b.Curr(OpStackClkDiffInverse)
	rppa, rppaNext := b.Curr(OpStackRunningProduct), b.Next(OpStackRunningProduct)
	rpcjd, rpcjdNext := b.Curr(OpStackClockJumpProduct), b.Next(OpStackClockJumpProduct)
	// ospStays is nonzero exactly when the stack pointer group continues.
	ospSteps := ospNext.Sub(osp)
	ospStays := ospSteps.Sub(one)
	clkDiffMinusOne := clkNext.Sub(clk).Sub(one)
	clkDiWellFormed := clkDi.Mul(clkDiffMinusOne).Sub(one)
	//
	compressedNext := clkNext.Mul(b.Challenge(osChClkWeight)).
		Add(b.Next(OpStackIb1ShrinkStack).Mul(b.Challenge(osChIb1Weight))).
		Add(ospNext.Mul(b.Challenge(osChOspWeight))).
		Add(osvNext.Mul(b.Challenge(osChOsvWeight)))
	//
	cjdUpdate := rpcjdNext.Sub(rpcjd.Mul(b.Challenge(osChClockJumpPerm).Sub(clkNext.Sub(clk))))
	cjdKeep := rpcjdNext.Sub(rpcjd)
	//
	return []circuit.Constraint{
		// the stack pointer stays or grows by one
		circuit.NewConstraint("op-stack.osp_increments_by_at_most_one",
			ospSteps.Mul(ospStays)),
		// within a group, osv only changes on a shrink
		circuit.NewConstraint("op-stack.osv_changes_only_on_shrink",
			ospStays.Mul(osvNext.Sub(osv)).Mul(one.Sub(ib1))),
		// the clock-difference inverse column is well formed
		circuit.NewConstraint("op-stack.clk_diff_inverse_is_inverse",
			ospStays.Mul(clkDiWellFormed).Mul(clkDi)),
		circuit.NewConstraint("op-stack.clk_diff_inverse_cancels_diff",
			ospStays.Mul(clkDiWellFormed).Mul(clkDiffMinusOne)),
		// clock jumps greater than one feed the clock jump product
		circuit.NewConstraint("op-stack.clock_jump_product_updates",
			clkDiffMinusOne.Mul(ospStays.Neg()).Mul(cjdUpdate).
				Add(one.Sub(clkDiffMinusOne.Mul(clkDi)).Mul(cjdKeep)).
				Add(ospSteps.Mul(cjdKeep))),
		// every row feeds the processor permutation
		circuit.NewConstraint("op-stack.running_product_absorbs_next_row",
			rppaNext.Sub(rppa.Mul(b.Challenge(osChPerm).Sub(compressedNext)))),
	}
}

// TerminalConstraints implementation for the TraceTable interface.
func (p *OpStackTable) TerminalConstraints(b *circuit.Builder) []circuit.Constraint {
	return nil
}
