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

	"github.com/argon-vm/go-argon/internal/tinyvm"
	"github.com/argon-vm/go-argon/pkg/circuit"
	"github.com/argon-vm/go-argon/pkg/isa"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullCoverageProgram touches every supported instruction at least once:
// it reads two inputs, combines them in a subroutine, stores and reloads
// the result through ram, hashes and writes the digest word out.
func fullCoverageProgram() []tinyvm.Op {
	return []tinyvm.Op{
		{Instr: isa.ReadIo},           // word 0
		{Instr: isa.ReadIo},           // word 1
		{Instr: isa.Call, Arg: 15},    // words 2-3
		{Instr: isa.Push, Arg: 7},     // words 4-5
		{Instr: isa.WriteMem},         // word 6
		{Instr: isa.Pop},              // word 7
		{Instr: isa.Push, Arg: 0},     // words 8-9
		{Instr: isa.ReadMem},          // word 10
		{Instr: isa.Add},              // word 11
		{Instr: isa.Hash},             // word 12
		{Instr: isa.WriteIo},          // word 13
		{Instr: isa.Halt},             // word 14
		// subroutine at word 15
		{Instr: isa.Add},              // word 15
		{Instr: isa.Push, Arg: 21},    // words 16-17
		{Instr: isa.Xor},              // word 18
		{Instr: isa.Push, Arg: 2},     // words 19-20
		{Instr: isa.Mul},              // word 21
		{Instr: isa.Push, Arg: 3},     // words 22-23
		{Instr: isa.Lt},               // word 24
		{Instr: isa.Push, Arg: 6},     // words 25-26
		{Instr: isa.And},              // word 27
		{Instr: isa.Nop},              // word 28
		{Instr: isa.Return},           // word 29
	}
}

func coverageTrace(t *testing.T) *trace.AlgebraicExecutionTrace {
	return mustRun(t, fullCoverageProgram(), 3, 5)
}

func TestEndToEndConstraintsVanish(t *testing.T) {
	aet := coverageTrace(t)
	ch := testChallenges(42)
	//
	m := Fill(aet)
	m.Pad()
	ext := m.Extend(ch)
	//
	errs := ext.Check(ch, aet.Input, aet.Output)
	//
	for _, err := range errs {
		t.Error(err)
	}
}

func TestPaddedHeight(t *testing.T) {
	m := Fill(coverageTrace(t))
	height := m.PaddedHeight()
	// power of two
	assert.Zero(t, height&(height-1))
	// at least as tall as every table; the instruction table is the
	// tallest, holding one row per program word plus one per cycle
	for _, tt := range m.All() {
		assert.GreaterOrEqual(t, height, tt.Base().Height(), tt.Name())
	}
	//
	m.Pad()
	//
	for _, tt := range m.All() {
		assert.Equal(t, height, tt.Base().Height(), tt.Name())
	}
}

func TestTerminalsAgree(t *testing.T) {
	aet := coverageTrace(t)
	ch := testChallenges(43)
	//
	m := Fill(aet)
	m.Pad()
	terminals := m.Extend(ch).Terminals()
	//
	assert.True(t, terminals.ProgramEvaluation.Equals(terminals.InstructionProgramEvaluation))
	assert.True(t, terminals.ProcessorInstructionPerm.Processor.Equals(terminals.ProcessorInstructionPerm.Instruction))
	assert.True(t, terminals.OpStackPerm.Processor.Equals(terminals.OpStackPerm.Table))
	assert.True(t, terminals.RamPerm.Processor.Equals(terminals.RamPerm.Table))
	assert.True(t, terminals.JumpStackPerm.Processor.Equals(terminals.JumpStackPerm.Table))
	assert.True(t, terminals.HashInputEvaluation.Processor.Equals(terminals.HashInputEvaluation.Table))
	assert.True(t, terminals.HashDigestEvaluation.Processor.Equals(terminals.HashDigestEvaluation.Table))
	assert.True(t, terminals.U32Perm.Processor.Equals(terminals.U32Perm.Table))
	assert.True(t, terminals.StandardInputEvaluation.Equals(EvalArgTerminal(aet.Input, ch.StandardInputEval)))
	assert.True(t, terminals.StandardOutputEvaluation.Equals(EvalArgTerminal(aet.Output, ch.StandardOutputEval)))
}

func TestCheckRejectsWrongOutput(t *testing.T) {
	aet := coverageTrace(t)
	ch := testChallenges(44)
	//
	m := Fill(aet)
	m.Pad()
	ext := m.Extend(ch)
	// claim an output tape the execution never produced
	errs := ext.Check(ch, aet.Input, []field.Element{field.New(99)})
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "standard output")
}

func TestCheckDetectsTamperedTrace(t *testing.T) {
	aet := coverageTrace(t)
	ch := testChallenges(45)
	//
	m := Fill(aet)
	m.Pad()
	// rewrite one clock cell after filling; extension columns are
	// recomputed over the tampered base, so the cross-table arguments
	// cannot absorb the discrepancy
	m.Processor.Base().SetCell(2, ProcClk, field.New(99))
	ext := m.Extend(ch)
	//
	errs := ext.Check(ch, aet.Input, aet.Output)
	assert.NotEmpty(t, errs)
}

func TestConstraintDegrees(t *testing.T) {
	m := Fill(coverageTrace(t))
	// the deepest processor transitions multiply a degree-7 instruction
	// deselector into a degree-2 semantic polynomial
	b := circuit.NewBuilder(m.Processor.FullWidth())
	assert.Equal(t, uint(9), circuit.MaxDegree(m.Processor.TransitionConstraints(b)))
	// the hash table pins its round number via an eight-case selector
	b = circuit.NewBuilder(m.Hash.FullWidth())
	assert.Equal(t, uint(9), circuit.MaxDegree(m.Hash.ConsistencyConstraints(b)))
	b = circuit.NewBuilder(m.Hash.FullWidth())
	assert.Equal(t, uint(10), circuit.MaxDegree(m.Hash.TransitionConstraints(b)))
	// nothing anywhere exceeds degree 10
	for _, tt := range m.All() {
		for _, f := range []Family{Initial, Consistency, Transition, Terminal} {
			b := circuit.NewBuilder(tt.FullWidth())
			cs := FamilyConstraints(tt, f, b)
			assert.LessOrEqual(t, circuit.MaxDegree(cs), uint(10), "%s %s", tt.Name(), f)
		}
	}
}

func TestSingleRowTableHasNoTransitions(t *testing.T) {
	// a bare halt gives a one-word program, so the program table is a
	// single row and its transition family is vacuous
	aet := mustRun(t, []tinyvm.Op{{Instr: isa.Halt}})
	ch := testChallenges(46)
	//
	table := BuildProgramTable(aet)
	require.Equal(t, uint(1), table.Base().Height())
	// already a power of two; no padding required
	errs := CheckTable(table, table.Extend(ch), ch)
	assert.Empty(t, errs)
}
