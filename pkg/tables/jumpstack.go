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

// Jump-stack table columns.
const (
	// JumpStackClk is the cycle at which this row was observed.
	JumpStackClk uint = iota
	// JumpStackCi is the instruction executed at that cycle.
	JumpStackCi
	// JumpStackJsp is the jump-stack pointer, i.e. the call depth.
	JumpStackJsp
	// JumpStackJso is the jump-stack origin, i.e. the return address of
	// the topmost frame.
	JumpStackJso
	// JumpStackJsd is the jump-stack destination of the topmost frame.
	JumpStackJsd
	// JumpStackClkDiffInverse is the inverse of (next clk - clk - 1)
	// within a call-depth group, or zero.
	JumpStackClkDiffInverse
	// JumpStackBaseWidth is the number of base columns.
	JumpStackBaseWidth
)

// Jump-stack table extension columns.
const (
	// JumpStackRunningProduct ties this table's rows to the processor's.
	JumpStackRunningProduct uint = JumpStackBaseWidth + iota
	// JumpStackClockJumpProduct accumulates all clock jump differences
	// greater than one within a call-depth group.
	JumpStackClockJumpProduct
	// JumpStackFullWidth is the number of base plus extension columns.
	JumpStackFullWidth
)

// Jump-stack table challenge indices.
const (
	jsChPerm uint = iota
	jsChClkWeight
	jsChCiWeight
	jsChJspWeight
	jsChJsoWeight
	jsChJsdWeight
	jsChClockJumpPerm
	numJumpStackChallenges
)

// JumpStackTable proves the integrity of the call stack: one row per
// cycle, re-sorted by call depth and then by cycle.  Within a depth
// group the topmost frame may only change across a call or return.
type JumpStackTable struct {
	base *trace.Table[field.Element]
}

// BuildJumpStackTable fills the jump-stack table from the trace.
func BuildJumpStackTable(aet *trace.AlgebraicExecutionTrace) *JumpStackTable {
	rows := make([][]field.Element, 0, len(aet.ProcessorMatrix))
	//
	for _, row := range aet.ProcessorMatrix {
		rows = append(rows, []field.Element{
			row[trace.RegClk],
			row[trace.RegCi],
			row[trace.RegJsp],
			row[trace.RegJso],
			row[trace.RegJsd],
			field.Zero(),
		})
	}
	//
	sort.SliceStable(rows, func(i, j int) bool {
		ji, jj := rows[i][JumpStackJsp].Uint64(), rows[j][JumpStackJsp].Uint64()
		//
		if ji != jj {
			return ji < jj
		}
		//
		return rows[i][JumpStackClk].Uint64() < rows[j][JumpStackClk].Uint64()
	})
	//
	tbl := trace.NewTable[field.Element]("jump-stack", JumpStackBaseWidth)
	//
	for _, row := range rows {
		tbl.AppendRow(row)
	}
	//
	fillClkDiffInverses(tbl, JumpStackClk, JumpStackClkDiffInverse,
		func(curr, next []field.Element) bool {
			return curr[JumpStackJsp].Equals(next[JumpStackJsp])
		})
	//
	return &JumpStackTable{base: tbl}
}

// jumpStackRepairRow sets a row's inverse helper column from its
// successor.
func jumpStackRepairRow(curr, next []field.Element) {
	inv := field.Zero()
	//
	if next != nil && curr[JumpStackJsp].Equals(next[JumpStackJsp]) {
		inv = clkDiffMinusOneInverse(curr[JumpStackClk], next[JumpStackClk])
	}
	//
	curr[JumpStackClkDiffInverse] = inv
}

// Name implementation for the TraceTable interface.
func (p *JumpStackTable) Name() string {
	return p.base.Name()
}

// BaseWidth implementation for the TraceTable interface.
func (p *JumpStackTable) BaseWidth() uint {
	return JumpStackBaseWidth
}

// FullWidth implementation for the TraceTable interface.
func (p *JumpStackTable) FullWidth() uint {
	return JumpStackFullWidth
}

// Base implementation for the TraceTable interface.
func (p *JumpStackTable) Base() *trace.Table[field.Element] {
	return p.base
}

// Pad implementation for the TraceTable interface.
func (p *JumpStackTable) Pad(height uint) {
	padByClockTemplate(p.base, height, JumpStackClk, jumpStackRepairRow)
}

// Extend implementation for the TraceTable interface.
func (p *JumpStackTable) Extend(ch *Challenges) *trace.Table[field.Ext] {
	rows := liftRows(p.base, JumpStackFullWidth)
	rppa := PermArgDefaultInitial()
	rpcjd := PermArgDefaultInitial()
	//
	for i := range rows {
		compressed := rows[i][JumpStackClk].Mul(ch.JumpStackClkWeight).
			Add(rows[i][JumpStackCi].Mul(ch.JumpStackCiWeight)).
			Add(rows[i][JumpStackJsp].Mul(ch.JumpStackJspWeight)).
			Add(rows[i][JumpStackJso].Mul(ch.JumpStackJsoWeight)).
			Add(rows[i][JumpStackJsd].Mul(ch.JumpStackJsdWeight))
		rppa = PermArgStep(rppa, ch.JumpStackPerm, compressed)
		//
		if i > 0 && rows[i][JumpStackJsp].Equals(rows[i-1][JumpStackJsp]) {
			diff := rows[i][JumpStackClk].Sub(rows[i-1][JumpStackClk])
			//
			if !diff.IsOne() {
				rpcjd = PermArgStep(rpcjd, ch.ClockJumpDifferencePerm, diff)
			}
		}
		//
		rows[i][JumpStackRunningProduct] = rppa
		rows[i][JumpStackClockJumpProduct] = rpcjd
	}
	//
	ext := trace.NewTable[field.Ext]("jump-stack", JumpStackFullWidth)
	//
	for _, row := range rows {
		ext.AppendRow(row)
	}
	//
	return ext
}

// ChallengeVector implementation for the TraceTable interface.
func (p *JumpStackTable) ChallengeVector(ch *Challenges) []field.Ext {
	return []field.Ext{
		jsChPerm:          ch.JumpStackPerm,
		jsChClkWeight:     ch.JumpStackClkWeight,
		jsChCiWeight:      ch.JumpStackCiWeight,
		jsChJspWeight:     ch.JumpStackJspWeight,
		jsChJsoWeight:     ch.JumpStackJsoWeight,
		jsChJsdWeight:     ch.JumpStackJsdWeight,
		jsChClockJumpPerm: ch.ClockJumpDifferencePerm,
	}
}

// InitialConstraints implementation for the TraceTable interface.
func (p *JumpStackTable) InitialConstraints(b *circuit.Builder) []circuit.Constraint {
	clk := b.Curr(JumpStackClk)
	jsp := b.Curr(JumpStackJsp)
	jso := b.Curr(JumpStackJso)
	jsd := b.Curr(JumpStackJsd)
	rppa := b.Curr(JumpStackRunningProduct)
	rpcjd := b.Curr(JumpStackClockJumpProduct)
	// only ci can be nonzero on the first row
	compressed := b.Curr(JumpStackCi).Mul(b.Challenge(jsChCiWeight))
	//
	return []circuit.Constraint{
		circuit.NewConstraint("jump-stack.clk_starts_at_zero", clk),
		circuit.NewConstraint("jump-stack.jsp_starts_at_zero", jsp),
		circuit.NewConstraint("jump-stack.jso_starts_at_zero", jso),
		circuit.NewConstraint("jump-stack.jsd_starts_at_zero", jsd),
		circuit.NewConstraint("jump-stack.running_product_absorbs_first_row",
			rppa.Sub(b.Challenge(jsChPerm).Sub(compressed))),
		circuit.NewConstraint("jump-stack.clock_jump_product_starts_default",
			rpcjd.Sub(b.One())),
	}
}

// ConsistencyConstraints implementation for the TraceTable interface.
func (p *JumpStackTable) ConsistencyConstraints(b *circuit.Builder) []circuit.Constraint {
	return nil
}

// TransitionConstraints implementation for the TraceTable interface.
func (p *JumpStackTable) TransitionConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	clk, clkNext := b.Curr(JumpStackClk), b.Next(JumpStackClk)
	ci := b.Curr(JumpStackCi)
	jsp, jspNext := b.Curr(JumpStackJsp), b.Next(JumpStackJsp)
	jso, jsoNext := b.Curr(JumpStackJso), b.Next(JumpStackJso)
	jsd, jsdNext := b.Curr(JumpStackJsd), b.Next(JumpStackJsd)
	clkDi := b.Curr(JumpStackClkDiffInverse)
	rppa, rppaNext := b.Curr(JumpStackRunningProduct), b.Next(JumpStackRunningProduct)
	rpcjd, rpcjdNext := b.Curr(JumpStackClockJumpProduct), b.Next(JumpStackClockJumpProduct)
	// jspStays is -1 when the call depth repeats, 0 when it increments.
	jspSteps := jspNext.Sub(jsp)
	jspStays := jspSteps.Sub(one)
	clkDiffMinusOne := clkNext.Sub(clk).Sub(one)
	clkDiWellFormed := clkDi.Mul(clkDiffMinusOne).Sub(one)
	// nonzero exactly when ci is neither call nor return
	noFrameChange := ci.Sub(b.Constant(isa.Call.Opcode())).
		Mul(ci.Sub(b.Constant(isa.Return.Opcode())))
	//
	compressedNext := clkNext.Mul(b.Challenge(jsChClkWeight)).
		Add(b.Next(JumpStackCi).Mul(b.Challenge(jsChCiWeight))).
		Add(jspNext.Mul(b.Challenge(jsChJspWeight))).
		Add(jsoNext.Mul(b.Challenge(jsChJsoWeight))).
		Add(jsdNext.Mul(b.Challenge(jsChJsdWeight)))
	//
	cjdUpdate := rpcjdNext.Sub(rpcjd.Mul(b.Challenge(jsChClockJumpPerm).Sub(clkNext.Sub(clk))))
	cjdKeep := rpcjdNext.Sub(rpcjd)
	//
	return []circuit.Constraint{
		// the call depth stays or grows by one
		circuit.NewConstraint("jump-stack.jsp_increments_by_at_most_one",
			jspSteps.Mul(jspStays)),
		// within a group, the frame only changes across a call or return
		circuit.NewConstraint("jump-stack.jso_changes_only_on_call_or_return",
			jspStays.Mul(noFrameChange).Mul(jsoNext.Sub(jso))),
		circuit.NewConstraint("jump-stack.jsd_changes_only_on_call_or_return",
			jspStays.Mul(noFrameChange).Mul(jsdNext.Sub(jsd))),
		// the clock-difference inverse column is well formed
		circuit.NewConstraint("jump-stack.clk_diff_inverse_is_inverse",
			jspStays.Mul(clkDiWellFormed).Mul(clkDi)),
		circuit.NewConstraint("jump-stack.clk_diff_inverse_cancels_diff",
			jspStays.Mul(clkDiWellFormed).Mul(clkDiffMinusOne)),
		// clock jumps greater than one feed the clock jump product
		circuit.NewConstraint("jump-stack.clock_jump_product_updates",
			clkDiffMinusOne.Mul(jspStays.Neg()).Mul(cjdUpdate).
				Add(one.Sub(clkDiffMinusOne.Mul(clkDi)).Mul(cjdKeep)).
				Add(jspSteps.Mul(cjdKeep))),
		// every row feeds the processor permutation
		circuit.NewConstraint("jump-stack.running_product_absorbs_next_row",
			rppaNext.Sub(rppa.Mul(b.Challenge(jsChPerm).Sub(compressedNext)))),
	}
}

// TerminalConstraints implementation for the TraceTable interface.
func (p *JumpStackTable) TerminalConstraints(b *circuit.Builder) []circuit.Constraint {
	return nil
}
