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

// Processor table columns.
const (
	// ProcClk is the machine cycle.
	ProcClk uint = iota
	// ProcIsPadding flags rows beyond the trace's natural height.
	ProcIsPadding
	// ProcIp is the instruction pointer.
	ProcIp
	// ProcCi is the current instruction's opcode.
	ProcCi
	// ProcNia is the word following the current instruction: its argument
	// if it takes one, otherwise the next opcode.
	ProcNia
	// ProcIb0 through ProcIb6 hold the bits of ci; constraints select
	// instructions through these rather than through ci itself.
	ProcIb0
	ProcIb1
	ProcIb2
	ProcIb3
	ProcIb4
	ProcIb5
	ProcIb6
	// ProcJsp, ProcJso and ProcJsd mirror the topmost jump-stack frame.
	ProcJsp
	ProcJso
	ProcJsd
	// ProcSt0 is the top of the op-stack; the fifteen further stack
	// registers follow contiguously.
	ProcSt0
	ProcSt1
	ProcSt2
	ProcSt3
	ProcSt4
	ProcSt5
	ProcSt6
	ProcSt7
	ProcSt8
	ProcSt9
	ProcSt10
	ProcSt11
	ProcSt12
	ProcSt13
	ProcSt14
	ProcSt15
	// ProcOsp is the op-stack pointer, i.e. the stack depth.
	ProcOsp
	// ProcOsv is the topmost op-stack underflow word.
	ProcOsv
	// ProcRamv is the ram value visible at address st1.
	ProcRamv
	// ProcIsRamWrite is one exactly on write_mem rows; its negation is the
	// instruction type the ram table records.
	ProcIsRamWrite
	// ProcBaseWidth is the number of base columns.
	ProcBaseWidth
)

// Processor table extension columns.
const (
	// ProcInputEval accumulates the symbols read from standard input.
	ProcInputEval uint = ProcBaseWidth + iota
	// ProcOutputEval accumulates the symbols written to standard output.
	ProcOutputEval
	// ProcInstructionPerm ties every cycle's fetch to the instruction
	// table.
	ProcInstructionPerm
	// ProcOpStackPerm ties every cycle to the op-stack table.
	ProcOpStackPerm
	// ProcRamPerm ties every cycle to the ram table.
	ProcRamPerm
	// ProcJumpStackPerm ties every cycle to the jump-stack table.
	ProcJumpStackPerm
	// ProcToHashEval accumulates the operands sent to the hash
	// coprocessor.
	ProcToHashEval
	// ProcFromHashEval accumulates the digests received back.
	ProcFromHashEval
	// ProcU32Perm ties every delegated u32 operation to the u32 table.
	ProcU32Perm
	// ProcFullWidth is the number of base plus extension columns.
	ProcFullWidth
)

// Processor table challenge indices.
const (
	procChInputEval uint = iota
	procChOutputEval
	procChInstructionPerm
	procChIpWeight
	procChCiWeight
	procChNiaWeight
	procChOpStackPerm
	procChOsClkWeight
	procChOsIb1Weight
	procChOsOspWeight
	procChOsOsvWeight
	procChRamPerm
	procChRamClkWeight
	procChRamRampWeight
	procChRamRamvWeight
	procChRamItypeWeight
	procChJumpStackPerm
	procChJsClkWeight
	procChJsCiWeight
	procChJsJspWeight
	procChJsJsoWeight
	procChJsJsdWeight
	procChU32Perm
	procChU32CiWeight
	procChU32LhsWeight
	procChU32RhsWeight
	procChU32ResultWeight
	procChHashInputEval
	procChHashDigestEval
	procChHashStateWeight0
	numProcessorChallenges = procChHashStateWeight0 + trace.HashRate
)

// ProcessorTable is the master record of the computation: one row per
// machine cycle, holding the full register state.  Its transition
// constraints encode the semantics of every instruction, selected via the
// instruction bit columns, and its extension columns feed every
// cross-table argument.
type ProcessorTable struct {
	base *trace.Table[field.Element]
}

// BuildProcessorTable fills the processor table from the trace.
func BuildProcessorTable(aet *trace.AlgebraicExecutionTrace) *ProcessorTable {
	writeOpc := field.New(isa.WriteMem.Opcode())
	tbl := trace.NewTable[field.Element]("processor", ProcBaseWidth)
	//
	for _, reg := range aet.ProcessorMatrix {
		ci, ok := isa.FromOpcode(reg[trace.RegCi].Uint64())
		if !ok {
			panic(fmt.Sprintf("unknown opcode %s at cycle %s", reg[trace.RegCi], reg[trace.RegClk]))
		}
		//
		row := make([]field.Element, ProcBaseWidth)
		row[ProcClk] = reg[trace.RegClk]
		row[ProcIsPadding] = field.Zero()
		row[ProcIp] = reg[trace.RegIp]
		row[ProcCi] = reg[trace.RegCi]
		row[ProcNia] = reg[trace.RegNia]
		//
		for bit := uint(0); bit < isa.NumInstructionBits; bit++ {
			row[ProcIb0+bit] = field.New(ci.IB(bit))
		}
		//
		row[ProcJsp] = reg[trace.RegJsp]
		row[ProcJso] = reg[trace.RegJso]
		row[ProcJsd] = reg[trace.RegJsd]
		//
		for i := uint(0); i < trace.OpStackRegCount; i++ {
			row[ProcSt0+i] = reg[trace.RegSt0+i]
		}
		//
		row[ProcOsp] = reg[trace.RegOsp]
		row[ProcOsv] = reg[trace.RegOsv]
		row[ProcRamv] = reg[trace.RegRamv]
		//
		if reg[trace.RegCi].Equals(writeOpc) {
			row[ProcIsRamWrite] = field.One()
		}
		//
		tbl.AppendRow(row)
	}
	//
	return &ProcessorTable{base: tbl}
}

// Name implementation for the TraceTable interface.
func (p *ProcessorTable) Name() string {
	return p.base.Name()
}

// BaseWidth implementation for the TraceTable interface.
func (p *ProcessorTable) BaseWidth() uint {
	return ProcBaseWidth
}

// FullWidth implementation for the TraceTable interface.
func (p *ProcessorTable) FullWidth() uint {
	return ProcFullWidth
}

// Base implementation for the TraceTable interface.
func (p *ProcessorTable) Base() *trace.Table[field.Element] {
	return p.base
}

// Pad implementation for the TraceTable interface.  A padding row repeats
// the final halt row with the clock advanced, which satisfies halt's own
// transition semantics; only the padding flag tells the two apart.
func (p *ProcessorTable) Pad(height uint) {
	for p.base.Height() < height {
		last := p.base.LastRow()
		row := make([]field.Element, ProcBaseWidth)
		copy(row, last)
		row[ProcClk] = last[ProcClk].Add(field.One())
		row[ProcIsPadding] = field.One()
		p.base.AppendRow(row)
	}
}

// Extend implementation for the TraceTable interface.
func (p *ProcessorTable) Extend(ch *Challenges) *trace.Table[field.Ext] {
	readIo := field.New(isa.ReadIo.Opcode())
	writeIo := field.New(isa.WriteIo.Opcode())
	hashOpc := field.New(isa.Hash.Opcode())
	//
	rows := liftRows(p.base, ProcFullWidth)
	inputEval := EvalArgDefaultInitial()
	outputEval := EvalArgDefaultInitial()
	instrPerm := PermArgDefaultInitial()
	opStackPerm := PermArgDefaultInitial()
	ramPerm := PermArgDefaultInitial()
	jumpStackPerm := PermArgDefaultInitial()
	toHash := EvalArgDefaultInitial()
	fromHash := EvalArgDefaultInitial()
	u32Perm := PermArgDefaultInitial()
	//
	for i := range rows {
		row := rows[i]
		// Arguments conditioned on the previous row's instruction.
		if i > 0 {
			prev := rows[i-1]
			prevCi := p.base.Cell(uint(i-1), ProcCi)
			//
			switch {
			case prevCi.Equals(readIo):
				inputEval = EvalArgStep(inputEval, ch.StandardInputEval, row[ProcSt0])
			case prevCi.Equals(writeIo):
				outputEval = EvalArgStep(outputEval, ch.StandardOutputEval, prev[ProcSt0])
			case prevCi.Equals(hashOpc):
				sent, received := field.ZeroExt(), field.ZeroExt()
				//
				for j := uint(0); j < trace.HashRate; j++ {
					sent = sent.Add(prev[ProcSt0+j].Mul(ch.HashStateWeights[j]))
				}
				//
				for j := uint(0); j < trace.DigestWidth; j++ {
					received = received.Add(row[ProcSt0+j].Mul(ch.HashStateWeights[j]))
				}
				//
				toHash = EvalArgStep(toHash, ch.HashInputEval, sent)
				fromHash = EvalArgStep(fromHash, ch.HashDigestEval, received)
			}
			// ib2 selects the u32 bucket
			if p.base.Cell(uint(i-1), ProcIb2).IsOne() {
				compressed := prev[ProcCi].Mul(ch.U32CiWeight).
					Add(prev[ProcSt0].Mul(ch.U32LhsWeight)).
					Add(prev[ProcSt1].Mul(ch.U32RhsWeight)).
					Add(row[ProcSt0].Mul(ch.U32ResultWeight))
				u32Perm = PermArgStep(u32Perm, ch.U32Perm, compressed)
			}
		}
		// Arguments absorbing every (non-padding) row.
		if row[ProcIsPadding].IsZero() {
			fetch := row[ProcIp].Mul(ch.InstructionIpWeight).
				Add(row[ProcCi].Mul(ch.InstructionCiWeight)).
				Add(row[ProcNia].Mul(ch.InstructionNiaWeight))
			instrPerm = PermArgStep(instrPerm, ch.InstructionPerm, fetch)
		}
		//
		opStackPerm = PermArgStep(opStackPerm, ch.OpStackPerm,
			row[ProcClk].Mul(ch.OpStackClkWeight).
				Add(row[ProcIb1].Mul(ch.OpStackIb1Weight)).
				Add(row[ProcOsp].Mul(ch.OpStackOspWeight)).
				Add(row[ProcOsv].Mul(ch.OpStackOsvWeight)))
		//
		itype := field.OneExt().Sub(row[ProcIsRamWrite])
		ramPerm = PermArgStep(ramPerm, ch.RamPerm,
			row[ProcClk].Mul(ch.RamClkWeight).
				Add(row[ProcSt1].Mul(ch.RamRampWeight)).
				Add(row[ProcRamv].Mul(ch.RamRamvWeight)).
				Add(itype.Mul(ch.RamInstructionTypeWeight)))
		//
		jumpStackPerm = PermArgStep(jumpStackPerm, ch.JumpStackPerm,
			row[ProcClk].Mul(ch.JumpStackClkWeight).
				Add(row[ProcCi].Mul(ch.JumpStackCiWeight)).
				Add(row[ProcJsp].Mul(ch.JumpStackJspWeight)).
				Add(row[ProcJso].Mul(ch.JumpStackJsoWeight)).
				Add(row[ProcJsd].Mul(ch.JumpStackJsdWeight)))
		//
		row[ProcInputEval] = inputEval
		row[ProcOutputEval] = outputEval
		row[ProcInstructionPerm] = instrPerm
		row[ProcOpStackPerm] = opStackPerm
		row[ProcRamPerm] = ramPerm
		row[ProcJumpStackPerm] = jumpStackPerm
		row[ProcToHashEval] = toHash
		row[ProcFromHashEval] = fromHash
		row[ProcU32Perm] = u32Perm
	}
	//
	ext := trace.NewTable[field.Ext]("processor", ProcFullWidth)
	//
	for _, row := range rows {
		ext.AppendRow(row)
	}
	//
	return ext
}

// ChallengeVector implementation for the TraceTable interface.
func (p *ProcessorTable) ChallengeVector(ch *Challenges) []field.Ext {
	vec := make([]field.Ext, numProcessorChallenges)
	vec[procChInputEval] = ch.StandardInputEval
	vec[procChOutputEval] = ch.StandardOutputEval
	vec[procChInstructionPerm] = ch.InstructionPerm
	vec[procChIpWeight] = ch.InstructionIpWeight
	vec[procChCiWeight] = ch.InstructionCiWeight
	vec[procChNiaWeight] = ch.InstructionNiaWeight
	vec[procChOpStackPerm] = ch.OpStackPerm
	vec[procChOsClkWeight] = ch.OpStackClkWeight
	vec[procChOsIb1Weight] = ch.OpStackIb1Weight
	vec[procChOsOspWeight] = ch.OpStackOspWeight
	vec[procChOsOsvWeight] = ch.OpStackOsvWeight
	vec[procChRamPerm] = ch.RamPerm
	vec[procChRamClkWeight] = ch.RamClkWeight
	vec[procChRamRampWeight] = ch.RamRampWeight
	vec[procChRamRamvWeight] = ch.RamRamvWeight
	vec[procChRamItypeWeight] = ch.RamInstructionTypeWeight
	vec[procChJumpStackPerm] = ch.JumpStackPerm
	vec[procChJsClkWeight] = ch.JumpStackClkWeight
	vec[procChJsCiWeight] = ch.JumpStackCiWeight
	vec[procChJsJspWeight] = ch.JumpStackJspWeight
	vec[procChJsJsoWeight] = ch.JumpStackJsoWeight
	vec[procChJsJsdWeight] = ch.JumpStackJsdWeight
	vec[procChU32Perm] = ch.U32Perm
	vec[procChU32CiWeight] = ch.U32CiWeight
	vec[procChU32LhsWeight] = ch.U32LhsWeight
	vec[procChU32RhsWeight] = ch.U32RhsWeight
	vec[procChU32ResultWeight] = ch.U32ResultWeight
	vec[procChHashInputEval] = ch.HashInputEval
	vec[procChHashDigestEval] = ch.HashDigestEval
	copy(vec[procChHashStateWeight0:], ch.HashStateWeights[:])
	//
	return vec
}

// deselector is one on rows executing the given instruction and zero on
// every other row, assuming the instruction bit columns are consistent.
func deselector(b *circuit.Builder, instr isa.Instruction) circuit.Node {
	sel := b.One()
	//
	for bit := uint(0); bit < isa.NumInstructionBits; bit++ {
		ib := b.Curr(ProcIb0 + bit)
		//
		if instr.IB(bit) == 1 {
			sel = sel.Mul(ib)
		} else {
			sel = sel.Mul(b.One().Sub(ib))
		}
	}
	//
	return sel
}

// InitialConstraints implementation for the TraceTable interface.
func (p *ProcessorTable) InitialConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	out := []circuit.Constraint{
		circuit.NewConstraint("processor.clk_starts_at_zero", b.Curr(ProcClk)),
		circuit.NewConstraint("processor.first_row_is_not_padding", b.Curr(ProcIsPadding)),
		circuit.NewConstraint("processor.ip_starts_at_zero", b.Curr(ProcIp)),
		circuit.NewConstraint("processor.jsp_starts_at_zero", b.Curr(ProcJsp)),
		circuit.NewConstraint("processor.jso_starts_at_zero", b.Curr(ProcJso)),
		circuit.NewConstraint("processor.jsd_starts_at_zero", b.Curr(ProcJsd)),
		circuit.NewConstraint("processor.osp_starts_at_stack_size",
			b.Curr(ProcOsp).Sub(b.Constant(trace.OpStackRegCount))),
		circuit.NewConstraint("processor.osv_starts_at_zero", b.Curr(ProcOsv)),
		circuit.NewConstraint("processor.ramv_starts_at_zero", b.Curr(ProcRamv)),
	}
	//
	for i := uint(0); i < trace.OpStackRegCount; i++ {
		out = append(out, circuit.NewConstraint(
			fmt.Sprintf("processor.st%d_starts_at_zero", i), b.Curr(ProcSt0+i)))
	}
	// Every evaluation argument starts from its default initial; every
	// permutation argument absorbing all rows absorbs the first one.
	fetch := b.Curr(ProcIp).Mul(b.Challenge(procChIpWeight)).
		Add(b.Curr(ProcCi).Mul(b.Challenge(procChCiWeight))).
		Add(b.Curr(ProcNia).Mul(b.Challenge(procChNiaWeight)))
	opStack := b.Curr(ProcClk).Mul(b.Challenge(procChOsClkWeight)).
		Add(b.Curr(ProcIb1).Mul(b.Challenge(procChOsIb1Weight))).
		Add(b.Curr(ProcOsp).Mul(b.Challenge(procChOsOspWeight))).
		Add(b.Curr(ProcOsv).Mul(b.Challenge(procChOsOsvWeight)))
	ram := b.Curr(ProcClk).Mul(b.Challenge(procChRamClkWeight)).
		Add(b.Curr(ProcSt1).Mul(b.Challenge(procChRamRampWeight))).
		Add(b.Curr(ProcRamv).Mul(b.Challenge(procChRamRamvWeight))).
		Add(one.Sub(b.Curr(ProcIsRamWrite)).Mul(b.Challenge(procChRamItypeWeight)))
	jumpStack := b.Curr(ProcClk).Mul(b.Challenge(procChJsClkWeight)).
		Add(b.Curr(ProcCi).Mul(b.Challenge(procChJsCiWeight))).
		Add(b.Curr(ProcJsp).Mul(b.Challenge(procChJsJspWeight))).
		Add(b.Curr(ProcJso).Mul(b.Challenge(procChJsJsoWeight))).
		Add(b.Curr(ProcJsd).Mul(b.Challenge(procChJsJsdWeight)))
	//
	return append(out,
		circuit.NewConstraint("processor.input_evaluation_starts_default",
			b.Curr(ProcInputEval).Sub(one)),
		circuit.NewConstraint("processor.output_evaluation_starts_default",
			b.Curr(ProcOutputEval).Sub(one)),
		circuit.NewConstraint("processor.instruction_permutation_absorbs_first_row",
			b.Curr(ProcInstructionPerm).Sub(b.Challenge(procChInstructionPerm).Sub(fetch))),
		circuit.NewConstraint("processor.op_stack_permutation_absorbs_first_row",
			b.Curr(ProcOpStackPerm).Sub(b.Challenge(procChOpStackPerm).Sub(opStack))),
		circuit.NewConstraint("processor.ram_permutation_absorbs_first_row",
			b.Curr(ProcRamPerm).Sub(b.Challenge(procChRamPerm).Sub(ram))),
		circuit.NewConstraint("processor.jump_stack_permutation_absorbs_first_row",
			b.Curr(ProcJumpStackPerm).Sub(b.Challenge(procChJumpStackPerm).Sub(jumpStack))),
		circuit.NewConstraint("processor.to_hash_evaluation_starts_default",
			b.Curr(ProcToHashEval).Sub(one)),
		circuit.NewConstraint("processor.from_hash_evaluation_starts_default",
			b.Curr(ProcFromHashEval).Sub(one)),
		circuit.NewConstraint("processor.u32_permutation_starts_default",
			b.Curr(ProcU32Perm).Sub(one)),
	)
}

// ConsistencyConstraints implementation for the TraceTable interface.
func (p *ProcessorTable) ConsistencyConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	pad := b.Curr(ProcIsPadding)
	isWrite := b.Curr(ProcIsRamWrite)
	out := []circuit.Constraint{
		circuit.NewConstraint("processor.padding_is_bit", pad.Mul(pad.Sub(one))),
		circuit.NewConstraint("processor.is_ram_write_selects_write_mem",
			isWrite.Sub(deselector(b, isa.WriteMem))),
	}
	// ci decomposes into its bits
	decomposition := b.Zero()
	//
	for bit := uint(0); bit < isa.NumInstructionBits; bit++ {
		ib := b.Curr(ProcIb0 + bit)
		out = append(out, circuit.NewConstraint(
			fmt.Sprintf("processor.ib%d_is_bit", bit), ib.Mul(ib.Sub(one))))
		decomposition = decomposition.Add(ib.Mul(b.Constant(1 << bit)))
	}
	//
	return append(out, circuit.NewConstraint("processor.ci_decomposes_into_bits",
		b.Curr(ProcCi).Sub(decomposition)))
}

// TransitionConstraints implementation for the TraceTable interface.
func (p *ProcessorTable) TransitionConstraints(b *circuit.Builder) []circuit.Constraint {
	out := []circuit.Constraint{
		circuit.NewConstraint("processor.clk_increments",
			b.Next(ProcClk).Sub(b.Curr(ProcClk)).Sub(b.One())),
		circuit.NewConstraint("processor.padding_is_monotonic",
			b.Curr(ProcIsPadding).Mul(b.Next(ProcIsPadding).Sub(b.One()))),
	}
	//
	out = append(out, p.instructionConstraints(b)...)
	//
	return append(out, p.argumentConstraints(b)...)
}

// instructionConstraints encodes the semantics of each instruction,
// guarded by its deselector.
func (p *ProcessorTable) instructionConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	st := func(i uint) circuit.Node { return b.Curr(ProcSt0 + i) }
	stNext := func(i uint) circuit.Node { return b.Next(ProcSt0 + i) }
	//
	type cc struct {
		name string
		node circuit.Node
	}
	// register bookkeeping helpers, shared between instruction groups
	ipAdvances := func(by uint64) cc {
		return cc{"ip_advances", b.Next(ProcIp).Sub(b.Curr(ProcIp)).Sub(b.Constant(by))}
	}
	ramvRemains := cc{"ramv_remains", b.Next(ProcRamv).Sub(b.Curr(ProcRamv))}
	//
	stackRemains := func() []cc {
		ccs := make([]cc, 0, trace.OpStackRegCount+2)
		//
		for i := uint(0); i < trace.OpStackRegCount; i++ {
			ccs = append(ccs, cc{fmt.Sprintf("st%d_remains", i), stNext(i).Sub(st(i))})
		}
		//
		return append(ccs,
			cc{"osp_remains", b.Next(ProcOsp).Sub(b.Curr(ProcOsp))},
			cc{"osv_remains", b.Next(ProcOsv).Sub(b.Curr(ProcOsv))})
	}
	// stack grows: st0 is freed up for the instruction's own semantics
	stackGrows := func() []cc {
		ccs := make([]cc, 0, trace.OpStackRegCount+1)
		//
		for i := uint(0); i+1 < trace.OpStackRegCount; i++ {
			ccs = append(ccs, cc{fmt.Sprintf("st%d_shifts_down", i), stNext(i + 1).Sub(st(i))})
		}
		//
		return append(ccs,
			cc{"osv_catches_st15", b.Next(ProcOsv).Sub(st(trace.OpStackRegCount - 1))},
			cc{"osp_grows", b.Next(ProcOsp).Sub(b.Curr(ProcOsp)).Sub(one)})
	}
	// stack shrinks: registers from the given index upward shift one up
	stackShrinks := func(from uint) []cc {
		var ccs []cc
		//
		for i := from; i+1 < trace.OpStackRegCount; i++ {
			ccs = append(ccs, cc{fmt.Sprintf("st%d_shifts_up", i), stNext(i).Sub(st(i + 1))})
		}
		//
		return append(ccs,
			cc{"st15_catches_osv", stNext(trace.OpStackRegCount - 1).Sub(b.Curr(ProcOsv))},
			cc{"osp_shrinks", b.Next(ProcOsp).Sub(b.Curr(ProcOsp)).Add(one)})
	}
	stackKeepsUpper := func(from uint) []cc {
		var ccs []cc
		//
		for i := from; i < trace.OpStackRegCount; i++ {
			ccs = append(ccs, cc{fmt.Sprintf("st%d_remains", i), stNext(i).Sub(st(i))})
		}
		//
		return append(ccs,
			cc{"osp_remains", b.Next(ProcOsp).Sub(b.Curr(ProcOsp))},
			cc{"osv_remains", b.Next(ProcOsv).Sub(b.Curr(ProcOsv))})
	}
	jumpStackRemains := []cc{
		{"jsp_remains", b.Next(ProcJsp).Sub(b.Curr(ProcJsp))},
		{"jso_remains", b.Next(ProcJso).Sub(b.Curr(ProcJso))},
		{"jsd_remains", b.Next(ProcJsd).Sub(b.Curr(ProcJsd))},
	}
	//
	groups := map[isa.Instruction][]cc{
		isa.Halt: {
			{"ip_remains", b.Next(ProcIp).Sub(b.Curr(ProcIp))},
			{"ci_remains", b.Next(ProcCi).Sub(b.Curr(ProcCi))},
			{"nia_remains", b.Next(ProcNia).Sub(b.Curr(ProcNia))},
			ramvRemains,
		},
		isa.Nop:     {ipAdvances(1), ramvRemains},
		isa.Push:    {ipAdvances(2), {"st0_becomes_argument", stNext(0).Sub(b.Curr(ProcNia))}},
		isa.Pop:     {ipAdvances(1)},
		isa.Add:     {ipAdvances(1), {"st0_becomes_sum", stNext(0).Sub(st(0)).Sub(st(1))}},
		isa.Mul:     {ipAdvances(1), {"st0_becomes_product", stNext(0).Sub(st(0).Mul(st(1)))}},
		isa.ReadIo:  {ipAdvances(1)},
		isa.WriteIo: {ipAdvances(1)},
		isa.Call: {
			{"ip_jumps_to_destination", b.Next(ProcIp).Sub(b.Curr(ProcNia))},
			{"jsp_grows", b.Next(ProcJsp).Sub(b.Curr(ProcJsp)).Sub(one)},
			{"jso_records_return_address", b.Next(ProcJso).Sub(b.Curr(ProcIp)).Sub(b.Constant(2))},
			{"jsd_records_destination", b.Next(ProcJsd).Sub(b.Curr(ProcNia))},
			ramvRemains,
		},
		isa.Return: {
			{"ip_returns_to_origin", b.Next(ProcIp).Sub(b.Curr(ProcJso))},
			{"jsp_shrinks", b.Next(ProcJsp).Sub(b.Curr(ProcJsp)).Add(one)},
			ramvRemains,
		},
		isa.ReadMem: {
			ipAdvances(1),
			{"st0_becomes_ramv", stNext(0).Sub(b.Curr(ProcRamv))},
			ramvRemains,
		},
		isa.WriteMem: {
			ipAdvances(1),
			{"ramv_becomes_st0", b.Next(ProcRamv).Sub(st(0))},
		},
		isa.Hash: {ipAdvances(1)},
		isa.Lt:   {ipAdvances(1), ramvRemains},
		isa.And:  {ipAdvances(1), ramvRemains},
		isa.Xor:  {ipAdvances(1), ramvRemains},
	}
	// stack discipline per group
	for _, instr := range []isa.Instruction{isa.Halt, isa.Nop, isa.Call, isa.Return, isa.WriteMem} {
		groups[instr] = append(groups[instr], stackRemains()...)
	}
	//
	groups[isa.Push] = append(groups[isa.Push], stackGrows()...)
	groups[isa.ReadIo] = append(groups[isa.ReadIo], stackGrows()...)
	groups[isa.Pop] = append(groups[isa.Pop], stackShrinks(0)...)
	groups[isa.WriteIo] = append(groups[isa.WriteIo], stackShrinks(0)...)
	groups[isa.Add] = append(groups[isa.Add], stackShrinks(1)...)
	groups[isa.Mul] = append(groups[isa.Mul], stackShrinks(1)...)
	groups[isa.ReadMem] = append(groups[isa.ReadMem], stackKeepsUpper(1)...)
	groups[isa.Lt] = append(groups[isa.Lt], stackKeepsUpper(1)...)
	groups[isa.And] = append(groups[isa.And], stackKeepsUpper(1)...)
	groups[isa.Xor] = append(groups[isa.Xor], stackKeepsUpper(1)...)
	// hash zeroes the rest of the rate and keeps the capacity registers
	hashGroup := groups[isa.Hash]
	//
	for i := uint(trace.DigestWidth); i < trace.HashRate; i++ {
		hashGroup = append(hashGroup, cc{fmt.Sprintf("st%d_zeroes", i), stNext(i)})
	}
	//
	for i := uint(trace.HashRate); i < trace.OpStackRegCount; i++ {
		hashGroup = append(hashGroup, cc{fmt.Sprintf("st%d_remains", i), stNext(i).Sub(st(i))})
	}
	//
	groups[isa.Hash] = append(hashGroup,
		cc{"osp_remains", b.Next(ProcOsp).Sub(b.Curr(ProcOsp))},
		cc{"osv_remains", b.Next(ProcOsv).Sub(b.Curr(ProcOsv))})
	// every instruction except call and return freezes the jump stack
	for instr := range groups {
		if instr != isa.Call && instr != isa.Return {
			groups[instr] = append(groups[instr], jumpStackRemains...)
		}
	}
	//
	var out []circuit.Constraint
	//
	for instr := isa.Instruction(0); instr < isa.Count; instr++ {
		group, ok := groups[instr]
		if !ok {
			continue
		}
		//
		desel := deselector(b, instr)
		//
		for _, c := range group {
			out = append(out, circuit.NewConstraint(
				fmt.Sprintf("processor.%s.%s", instr, c.name), desel.Mul(c.node)))
		}
	}
	//
	return out
}

// argumentConstraints updates every cross-table accumulator.
func (p *ProcessorTable) argumentConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	conditional := func(name string, cond, acc, accNext, update circuit.Node) circuit.Constraint {
		keep := accNext.Sub(acc)
		return circuit.NewConstraint(name, cond.Mul(update).Add(one.Sub(cond).Mul(keep)))
	}
	// standard input: a read delivers the symbol to the next row's st0
	inEval, inEvalNext := b.Curr(ProcInputEval), b.Next(ProcInputEval)
	inUpdate := inEvalNext.Sub(inEval.Mul(b.Challenge(procChInputEval))).Sub(b.Next(ProcSt0))
	// standard output: a write takes the symbol from the current st0
	outEval, outEvalNext := b.Curr(ProcOutputEval), b.Next(ProcOutputEval)
	outUpdate := outEvalNext.Sub(outEval.Mul(b.Challenge(procChOutputEval))).Sub(b.Curr(ProcSt0))
	// instruction fetch of the next row, skipped once padding begins
	fetch := b.Next(ProcIp).Mul(b.Challenge(procChIpWeight)).
		Add(b.Next(ProcCi).Mul(b.Challenge(procChCiWeight))).
		Add(b.Next(ProcNia).Mul(b.Challenge(procChNiaWeight)))
	instrPerm, instrPermNext := b.Curr(ProcInstructionPerm), b.Next(ProcInstructionPerm)
	instrUpdate := instrPermNext.Sub(instrPerm.Mul(b.Challenge(procChInstructionPerm).Sub(fetch)))
	// memory-like tables absorb every row
	opStack := b.Next(ProcClk).Mul(b.Challenge(procChOsClkWeight)).
		Add(b.Next(ProcIb1).Mul(b.Challenge(procChOsIb1Weight))).
		Add(b.Next(ProcOsp).Mul(b.Challenge(procChOsOspWeight))).
		Add(b.Next(ProcOsv).Mul(b.Challenge(procChOsOsvWeight)))
	ram := b.Next(ProcClk).Mul(b.Challenge(procChRamClkWeight)).
		Add(b.Next(ProcSt1).Mul(b.Challenge(procChRamRampWeight))).
		Add(b.Next(ProcRamv).Mul(b.Challenge(procChRamRamvWeight))).
		Add(one.Sub(b.Next(ProcIsRamWrite)).Mul(b.Challenge(procChRamItypeWeight)))
	jumpStack := b.Next(ProcClk).Mul(b.Challenge(procChJsClkWeight)).
		Add(b.Next(ProcCi).Mul(b.Challenge(procChJsCiWeight))).
		Add(b.Next(ProcJsp).Mul(b.Challenge(procChJsJspWeight))).
		Add(b.Next(ProcJso).Mul(b.Challenge(procChJsJsoWeight))).
		Add(b.Next(ProcJsd).Mul(b.Challenge(procChJsJsdWeight)))
	// hash bus: operands leave from the current row, digests land on the next
	sent, received := b.Zero(), b.Zero()
	//
	for j := uint(0); j < trace.HashRate; j++ {
		sent = sent.Add(b.Curr(ProcSt0 + j).Mul(b.Challenge(procChHashStateWeight0 + j)))
	}
	//
	for j := uint(0); j < trace.DigestWidth; j++ {
		received = received.Add(b.Next(ProcSt0 + j).Mul(b.Challenge(procChHashStateWeight0 + j)))
	}
	//
	toHash, toHashNext := b.Curr(ProcToHashEval), b.Next(ProcToHashEval)
	toHashUpdate := toHashNext.Sub(toHash.Mul(b.Challenge(procChHashInputEval))).Sub(sent)
	fromHash, fromHashNext := b.Curr(ProcFromHashEval), b.Next(ProcFromHashEval)
	fromHashUpdate := fromHashNext.Sub(fromHash.Mul(b.Challenge(procChHashDigestEval))).Sub(received)
	// u32 bus: operands from the current row, result from the next
	u32 := b.Curr(ProcCi).Mul(b.Challenge(procChU32CiWeight)).
		Add(b.Curr(ProcSt0).Mul(b.Challenge(procChU32LhsWeight))).
		Add(b.Curr(ProcSt1).Mul(b.Challenge(procChU32RhsWeight))).
		Add(b.Next(ProcSt0).Mul(b.Challenge(procChU32ResultWeight)))
	u32Perm, u32PermNext := b.Curr(ProcU32Perm), b.Next(ProcU32Perm)
	u32Update := u32PermNext.Sub(u32Perm.Mul(b.Challenge(procChU32Perm).Sub(u32)))
	//
	return []circuit.Constraint{
		conditional("processor.input_evaluation_absorbs_read_symbols",
			deselector(b, isa.ReadIo), inEval, inEvalNext, inUpdate),
		conditional("processor.output_evaluation_absorbs_written_symbols",
			deselector(b, isa.WriteIo), outEval, outEvalNext, outUpdate),
		conditional("processor.instruction_permutation_absorbs_fetches",
			one.Sub(b.Next(ProcIsPadding)), instrPerm, instrPermNext, instrUpdate),
		circuit.NewConstraint("processor.op_stack_permutation_absorbs_next_row",
			b.Next(ProcOpStackPerm).Sub(
				b.Curr(ProcOpStackPerm).Mul(b.Challenge(procChOpStackPerm).Sub(opStack)))),
		circuit.NewConstraint("processor.ram_permutation_absorbs_next_row",
			b.Next(ProcRamPerm).Sub(
				b.Curr(ProcRamPerm).Mul(b.Challenge(procChRamPerm).Sub(ram)))),
		circuit.NewConstraint("processor.jump_stack_permutation_absorbs_next_row",
			b.Next(ProcJumpStackPerm).Sub(
				b.Curr(ProcJumpStackPerm).Mul(b.Challenge(procChJumpStackPerm).Sub(jumpStack)))),
		conditional("processor.to_hash_evaluation_absorbs_operands",
			deselector(b, isa.Hash), toHash, toHashNext, toHashUpdate),
		conditional("processor.from_hash_evaluation_absorbs_digests",
			deselector(b, isa.Hash), fromHash, fromHashNext, fromHashUpdate),
		conditional("processor.u32_permutation_absorbs_delegations",
			b.Curr(ProcIb2), u32Perm, u32PermNext, u32Update),
	}
}

// TerminalConstraints implementation for the TraceTable interface.
func (p *ProcessorTable) TerminalConstraints(b *circuit.Builder) []circuit.Constraint {
	// halt has opcode zero
	return []circuit.Constraint{
		circuit.NewConstraint("processor.last_instruction_halts", b.Curr(ProcCi)),
	}
}
