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
	"github.com/argon-vm/go-argon/pkg/circuit"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Program table columns.
const (
	// ProgramAddress is the address of this program word.
	ProgramAddress uint = iota
	// ProgramInstruction is the program word at this address (an opcode
	// word or an immediate-argument word).
	ProgramInstruction
	// ProgramIsPadding flags rows below the program's natural length.
	ProgramIsPadding
	// ProgramBaseWidth is the number of base columns.
	ProgramBaseWidth
)

// Program table extension columns.
const (
	// ProgramRunningEvaluation accumulates (address, instruction, next
	// instruction) triples of non-padding rows; its terminal ties the
	// committed program to the instruction table.
	ProgramRunningEvaluation uint = ProgramBaseWidth
	// ProgramFullWidth is the number of base plus extension columns.
	ProgramFullWidth uint = ProgramBaseWidth + 1
)

// Program table challenge indices.
const (
	prgChEval uint = iota
	prgChAddressWeight
	prgChInstructionWeight
	prgChNextInstructionWeight
	numProgramChallenges
)

// ProgramTable commits to the executed program, one word per row.  A
// word's successor rides along in the running evaluation so that the
// instruction table can match (ip, ci, nia) triples against it.
type ProgramTable struct {
	base *trace.Table[field.Element]
}

// BuildProgramTable fills the program table from the trace, one row per
// program word in address order.
func BuildProgramTable(aet *trace.AlgebraicExecutionTrace) *ProgramTable {
	tbl := trace.NewTable[field.Element]("program", ProgramBaseWidth)
	//
	for i, word := range aet.Program {
		row := make([]field.Element, ProgramBaseWidth)
		row[ProgramAddress] = field.New(uint64(i))
		row[ProgramInstruction] = word
		row[ProgramIsPadding] = field.Zero()
		tbl.AppendRow(row)
	}
	//
	return &ProgramTable{base: tbl}
}

// Name implementation for the TraceTable interface.
func (p *ProgramTable) Name() string {
	return p.base.Name()
}

// BaseWidth implementation for the TraceTable interface.
func (p *ProgramTable) BaseWidth() uint {
	return ProgramBaseWidth
}

// FullWidth implementation for the TraceTable interface.
func (p *ProgramTable) FullWidth() uint {
	return ProgramFullWidth
}

// Base implementation for the TraceTable interface.
func (p *ProgramTable) Base() *trace.Table[field.Element] {
	return p.base
}

// Pad implementation for the TraceTable interface.  Padding continues the
// address sequence with flagged rows.  The common height always exceeds
// the program length (the instruction table alone is taller), so at least
// one padding row exists and every program word gets accumulated.
func (p *ProgramTable) Pad(height uint) {
	for p.base.Height() < height {
		row := make([]field.Element, ProgramBaseWidth)
		row[ProgramAddress] = field.New(uint64(p.base.Height()))
		row[ProgramInstruction] = field.Zero()
		row[ProgramIsPadding] = field.One()
		p.base.AppendRow(row)
	}
}

// Extend implementation for the TraceTable interface.
func (p *ProgramTable) Extend(ch *Challenges) *trace.Table[field.Ext] {
	rows := liftRows(p.base, ProgramFullWidth)
	acc := EvalArgDefaultInitial()
	//
	for i := range rows {
		// Accumulation of row i-1 needs row i's instruction, hence the
		// value lands in row i.  Row 0 carries the default initial.
		if i > 0 && rows[i-1][ProgramIsPadding].IsZero() {
			compressed := rows[i-1][ProgramAddress].Mul(ch.ProgramAddressWeight).
				Add(rows[i-1][ProgramInstruction].Mul(ch.ProgramInstructionWeight)).
				Add(rows[i][ProgramInstruction].Mul(ch.ProgramNextInstructionWeight))
			acc = EvalArgStep(acc, ch.ProgramEval, compressed)
		}
		//
		rows[i][ProgramRunningEvaluation] = acc
	}
	//
	ext := trace.NewTable[field.Ext]("program", ProgramFullWidth)
	//
	for _, row := range rows {
		ext.AppendRow(row)
	}
	//
	return ext
}

// ChallengeVector implementation for the TraceTable interface.
func (p *ProgramTable) ChallengeVector(ch *Challenges) []field.Ext {
	return []field.Ext{
		prgChEval:                  ch.ProgramEval,
		prgChAddressWeight:         ch.ProgramAddressWeight,
		prgChInstructionWeight:     ch.ProgramInstructionWeight,
		prgChNextInstructionWeight: ch.ProgramNextInstructionWeight,
	}
}

// InitialConstraints implementation for the TraceTable interface.
func (p *ProgramTable) InitialConstraints(b *circuit.Builder) []circuit.Constraint {
	addr := b.Curr(ProgramAddress)
	pad := b.Curr(ProgramIsPadding)
	re := b.Curr(ProgramRunningEvaluation)
	//
	return []circuit.Constraint{
		circuit.NewConstraint("program.first_address_is_zero", addr),
		circuit.NewConstraint("program.first_row_is_not_padding", pad),
		circuit.NewConstraint("program.running_evaluation_starts_default", re.Sub(b.One())),
	}
}

// ConsistencyConstraints implementation for the TraceTable interface.
func (p *ProgramTable) ConsistencyConstraints(b *circuit.Builder) []circuit.Constraint {
	pad := b.Curr(ProgramIsPadding)
	//
	return []circuit.Constraint{
		circuit.NewConstraint("program.padding_is_bit", pad.Mul(pad.Sub(b.One()))),
	}
}

// TransitionConstraints implementation for the TraceTable interface.
func (p *ProgramTable) TransitionConstraints(b *circuit.Builder) []circuit.Constraint {
	addr, addrNext := b.Curr(ProgramAddress), b.Next(ProgramAddress)
	instr, instrNext := b.Curr(ProgramInstruction), b.Next(ProgramInstruction)
	pad, padNext := b.Curr(ProgramIsPadding), b.Next(ProgramIsPadding)
	re, reNext := b.Curr(ProgramRunningEvaluation), b.Next(ProgramRunningEvaluation)
	//
	compressed := addr.Mul(b.Challenge(prgChAddressWeight)).
		Add(instr.Mul(b.Challenge(prgChInstructionWeight))).
		Add(instrNext.Mul(b.Challenge(prgChNextInstructionWeight)))
	update := reNext.Sub(re.Mul(b.Challenge(prgChEval))).Sub(compressed)
	keep := reNext.Sub(re)
	//
	return []circuit.Constraint{
		circuit.NewConstraint("program.address_increments", addrNext.Sub(addr).Sub(b.One())),
		circuit.NewConstraint("program.padding_is_monotonic", pad.Mul(padNext.Sub(b.One()))),
		circuit.NewConstraint("program.running_evaluation_updates",
			b.One().Sub(pad).Mul(update).Add(pad.Mul(keep))),
	}
}

// TerminalConstraints implementation for the TraceTable interface.
func (p *ProgramTable) TerminalConstraints(b *circuit.Builder) []circuit.Constraint {
	return nil
}
