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

// Instruction table columns.
const (
	// InstructionAddress is a program address.
	InstructionAddress uint = iota
	// InstructionCi is the program word at that address.
	InstructionCi
	// InstructionNia is the program word at the following address, or
	// zero past the end of the program.
	InstructionNia
	// InstructionIsPadding flags rows beyond the table's natural height.
	InstructionIsPadding
	// InstructionBaseWidth is the number of base columns.
	InstructionBaseWidth
)

// Instruction table extension columns.
const (
	// InstructionRunningProduct accumulates the duplicated rows, i.e. one
	// factor per processor cycle; its terminal must match the processor's
	// instruction permutation terminal.
	InstructionRunningProduct uint = InstructionBaseWidth + iota
	// InstructionProgramEvaluation accumulates the first row of every
	// address group; its terminal must match the program table's running
	// evaluation terminal.
	InstructionProgramEvaluation
	// InstructionFullWidth is the number of base plus extension columns.
	InstructionFullWidth
)

// Instruction table challenge indices.
const (
	insChPerm uint = iota
	insChIpWeight
	insChCiWeight
	insChNiaWeight
	insChProgramEval
	insChAddressWeight
	insChInstructionWeight
	insChNextInstructionWeight
	numInstructionChallenges
)

// InstructionTable proves that every instruction the processor executed
// was fetched from the committed program.  It holds one row per program
// address plus one duplicate row per processor cycle, sorted by address;
// an evaluation argument ties the address groups to the program table and
// a permutation argument ties the duplicates to the processor table.
type InstructionTable struct {
	base *trace.Table[field.Element]
}

// BuildInstructionTable fills the instruction table from the trace.
func BuildInstructionTable(aet *trace.AlgebraicExecutionTrace) *InstructionTable {
	// Bucket processor rows by instruction pointer.
	executed := make(map[uint64][][]field.Element)
	//
	for _, row := range aet.ProcessorMatrix {
		ip := row[trace.RegIp].Uint64()
		executed[ip] = append(executed[ip], row)
	}
	//
	tbl := trace.NewTable[field.Element]("instruction", InstructionBaseWidth)
	duplicates := 0
	appendRow := func(addr, ci, nia field.Element) {
		tbl.AppendRow([]field.Element{addr, ci, nia, field.Zero()})
	}
	// One row per program word, followed by its duplicates.
	for i, word := range aet.Program {
		addr := field.New(uint64(i))
		nia := field.Zero()
		//
		if i+1 < len(aet.Program) {
			nia = aet.Program[i+1]
		}
		//
		appendRow(addr, word, nia)
		//
		for _, row := range executed[uint64(i)] {
			if !row[trace.RegCi].Equals(word) || !row[trace.RegNia].Equals(nia) {
				panic(fmt.Sprintf("cycle fetched (%s, %s) at address %d, program holds (%s, %s)",
					row[trace.RegCi], row[trace.RegNia], i, word, nia))
			}
			//
			appendRow(addr, row[trace.RegCi], row[trace.RegNia])
			duplicates++
		}
	}
	// Every cycle must have fetched from within the program.
	if duplicates != len(aet.ProcessorMatrix) {
		panic(fmt.Sprintf("%d of %d cycles fetched outside the program",
			len(aet.ProcessorMatrix)-duplicates, len(aet.ProcessorMatrix)))
	}
	//
	return &InstructionTable{base: tbl}
}

// Name implementation for the TraceTable interface.
func (p *InstructionTable) Name() string {
	return p.base.Name()
}

// BaseWidth implementation for the TraceTable interface.
func (p *InstructionTable) BaseWidth() uint {
	return InstructionBaseWidth
}

// FullWidth implementation for the TraceTable interface.
func (p *InstructionTable) FullWidth() uint {
	return InstructionFullWidth
}

// Base implementation for the TraceTable interface.
func (p *InstructionTable) Base() *trace.Table[field.Element] {
	return p.base
}

// Pad implementation for the TraceTable interface.  Padding duplicates
// the last row with the padding flag set; both running accumulators skip
// flagged rows.
func (p *InstructionTable) Pad(height uint) {
	template := p.base.LastRow()
	//
	for p.base.Height() < height {
		row := make([]field.Element, InstructionBaseWidth)
		copy(row, template)
		row[InstructionIsPadding] = field.One()
		p.base.AppendRow(row)
	}
}

// Extend implementation for the TraceTable interface.
func (p *InstructionTable) Extend(ch *Challenges) *trace.Table[field.Ext] {
	rows := liftRows(p.base, InstructionFullWidth)
	rp := PermArgDefaultInitial()
	re := EvalArgDefaultInitial()
	//
	for i := range rows {
		if rows[i][InstructionIsPadding].IsZero() {
			compressed := rows[i][InstructionAddress].Mul(ch.InstructionIpWeight).
				Add(rows[i][InstructionCi].Mul(ch.InstructionCiWeight)).
				Add(rows[i][InstructionNia].Mul(ch.InstructionNiaWeight))
			// First row of an address group feeds the program evaluation;
			// every later row of the group is an executed duplicate and
			// feeds the processor permutation.
			if i == 0 || !rows[i][InstructionAddress].Equals(rows[i-1][InstructionAddress]) {
				programside := rows[i][InstructionAddress].Mul(ch.ProgramAddressWeight).
					Add(rows[i][InstructionCi].Mul(ch.ProgramInstructionWeight)).
					Add(rows[i][InstructionNia].Mul(ch.ProgramNextInstructionWeight))
				re = EvalArgStep(re, ch.ProgramEval, programside)
			} else {
				rp = PermArgStep(rp, ch.InstructionPerm, compressed)
			}
		}
		//
		rows[i][InstructionRunningProduct] = rp
		rows[i][InstructionProgramEvaluation] = re
	}
	//
	ext := trace.NewTable[field.Ext]("instruction", InstructionFullWidth)
	//
	for _, row := range rows {
		ext.AppendRow(row)
	}
	//
	return ext
}

// ChallengeVector implementation for the TraceTable interface.
func (p *InstructionTable) ChallengeVector(ch *Challenges) []field.Ext {
	return []field.Ext{
		insChPerm:                  ch.InstructionPerm,
		insChIpWeight:              ch.InstructionIpWeight,
		insChCiWeight:              ch.InstructionCiWeight,
		insChNiaWeight:             ch.InstructionNiaWeight,
		insChProgramEval:           ch.ProgramEval,
		insChAddressWeight:         ch.ProgramAddressWeight,
		insChInstructionWeight:     ch.ProgramInstructionWeight,
		insChNextInstructionWeight: ch.ProgramNextInstructionWeight,
	}
}

// InitialConstraints implementation for the TraceTable interface.
func (p *InstructionTable) InitialConstraints(b *circuit.Builder) []circuit.Constraint {
	addr := b.Curr(InstructionAddress)
	pad := b.Curr(InstructionIsPadding)
	rp := b.Curr(InstructionRunningProduct)
	re := b.Curr(InstructionProgramEvaluation)
	//
	compressed := addr.Mul(b.Challenge(insChAddressWeight)).
		Add(b.Curr(InstructionCi).Mul(b.Challenge(insChInstructionWeight))).
		Add(b.Curr(InstructionNia).Mul(b.Challenge(insChNextInstructionWeight)))
	//
	return []circuit.Constraint{
		circuit.NewConstraint("instruction.first_address_is_zero", addr),
		circuit.NewConstraint("instruction.first_row_is_not_padding", pad),
		circuit.NewConstraint("instruction.running_product_starts_default", rp.Sub(b.One())),
		circuit.NewConstraint("instruction.program_evaluation_absorbs_first_row",
			re.Sub(b.Challenge(insChProgramEval)).Sub(compressed)),
	}
}

// ConsistencyConstraints implementation for the TraceTable interface.
func (p *InstructionTable) ConsistencyConstraints(b *circuit.Builder) []circuit.Constraint {
	pad := b.Curr(InstructionIsPadding)
	//
	return []circuit.Constraint{
		circuit.NewConstraint("instruction.padding_is_bit", pad.Mul(pad.Sub(b.One()))),
	}
}

// TransitionConstraints implementation for the TraceTable interface.
func (p *InstructionTable) TransitionConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	addr, addrNext := b.Curr(InstructionAddress), b.Next(InstructionAddress)
	ciNext, niaNext := b.Next(InstructionCi), b.Next(InstructionNia)
	pad, padNext := b.Curr(InstructionIsPadding), b.Next(InstructionIsPadding)
	rp, rpNext := b.Curr(InstructionRunningProduct), b.Next(InstructionRunningProduct)
	re, reNext := b.Curr(InstructionProgramEvaluation), b.Next(InstructionProgramEvaluation)
	// addrStays is -1 when the address repeats, 0 when it increments.
	addrStays := addrNext.Sub(addr).Sub(one)
	addrSteps := addrNext.Sub(addr)
	//
	compressed := addrNext.Mul(b.Challenge(insChIpWeight)).
		Add(ciNext.Mul(b.Challenge(insChCiWeight))).
		Add(niaNext.Mul(b.Challenge(insChNiaWeight)))
	rpUpdate := rpNext.Sub(rp.Mul(b.Challenge(insChPerm).Sub(compressed)))
	rpKeep := rpNext.Sub(rp)
	//
	programside := addrNext.Mul(b.Challenge(insChAddressWeight)).
		Add(ciNext.Mul(b.Challenge(insChInstructionWeight))).
		Add(niaNext.Mul(b.Challenge(insChNextInstructionWeight)))
	reUpdate := reNext.Sub(re.Mul(b.Challenge(insChProgramEval))).Sub(programside)
	reKeep := reNext.Sub(re)
	//
	return []circuit.Constraint{
		circuit.NewConstraint("instruction.address_increments_by_at_most_one",
			addrSteps.Mul(addrStays)),
		circuit.NewConstraint("instruction.duplicate_rows_agree_on_ci",
			addrStays.Mul(ciNext.Sub(b.Curr(InstructionCi)))),
		circuit.NewConstraint("instruction.duplicate_rows_agree_on_nia",
			addrStays.Mul(niaNext.Sub(b.Curr(InstructionNia)))),
		circuit.NewConstraint("instruction.padding_is_monotonic", pad.Mul(padNext.Sub(one))),
		circuit.NewConstraint("instruction.padding_repeats_address", padNext.Mul(addrSteps)),
		circuit.NewConstraint("instruction.running_product_absorbs_duplicates",
			addrStays.Mul(one.Sub(padNext)).Mul(rpUpdate)),
		circuit.NewConstraint("instruction.running_product_skips_group_starts",
			addrSteps.Mul(rpKeep)),
		circuit.NewConstraint("instruction.running_product_skips_padding",
			padNext.Mul(rpKeep)),
		circuit.NewConstraint("instruction.program_evaluation_absorbs_group_starts",
			addrSteps.Mul(one.Sub(padNext)).Mul(reUpdate)),
		circuit.NewConstraint("instruction.program_evaluation_skips_duplicates",
			addrStays.Mul(reKeep)),
		circuit.NewConstraint("instruction.program_evaluation_skips_padding",
			padNext.Mul(reKeep)),
	}
}

// TerminalConstraints implementation for the TraceTable interface.
func (p *InstructionTable) TerminalConstraints(b *circuit.Builder) []circuit.Constraint {
	return nil
}
