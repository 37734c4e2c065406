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
package tinyvm

import (
	"testing"

	"github.com/argon-vm/go-argon/pkg/isa"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	prog := Assemble([]Op{
		{Instr: isa.Push, Arg: 42},
		{Instr: isa.Nop},
		{Instr: isa.Halt},
	})
	//
	require.Len(t, prog, 4)
	assert.Equal(t, isa.Push.Opcode(), prog[0].Uint64())
	assert.Equal(t, uint64(42), prog[1].Uint64())
	assert.Equal(t, isa.Nop.Opcode(), prog[2].Uint64())
	assert.Equal(t, isa.Halt.Opcode(), prog[3].Uint64())
}

func TestAssembleRejectsSpuriousArgument(t *testing.T) {
	assert.Panics(t, func() {
		Assemble([]Op{{Instr: isa.Nop, Arg: 1}})
	})
}

func run(t *testing.T, ops []Op, input ...uint64) *trace.AlgebraicExecutionTrace {
	t.Helper()
	//
	symbols := make([]field.Element, len(input))
	for i, v := range input {
		symbols[i] = field.New(v)
	}
	//
	aet, err := Run(Assemble(ops), symbols, 0)
	require.NoError(t, err)
	require.NoError(t, aet.Validate())
	//
	return aet
}

func TestArithmetic(t *testing.T) {
	aet := run(t, []Op{
		{Instr: isa.Push, Arg: 2},
		{Instr: isa.Push, Arg: 3},
		{Instr: isa.Add},
		{Instr: isa.Push, Arg: 4},
		{Instr: isa.Mul},
		{Instr: isa.WriteIo},
		{Instr: isa.Halt},
	})
	// (2 + 3) * 4
	require.Len(t, aet.Output, 1)
	assert.Equal(t, uint64(20), aet.Output[0].Uint64())
	// one row per cycle, clocks consecutive from zero
	for i, row := range aet.ProcessorMatrix {
		assert.Equal(t, uint64(i), row[trace.RegClk].Uint64())
	}
	// the final recorded instruction is halt
	assert.Equal(t, isa.Halt.Opcode(), aet.ProcessorMatrix[aet.Height()-1][trace.RegCi].Uint64())
}

func TestStandardIo(t *testing.T) {
	aet := run(t, []Op{
		{Instr: isa.ReadIo},
		{Instr: isa.ReadIo},
		{Instr: isa.Add},
		{Instr: isa.WriteIo},
		{Instr: isa.Halt},
	}, 10, 32)
	//
	require.Len(t, aet.Output, 1)
	assert.Equal(t, uint64(42), aet.Output[0].Uint64())
}

func TestReadIoExhaustsInput(t *testing.T) {
	_, err := Run(Assemble([]Op{{Instr: isa.ReadIo}, {Instr: isa.Halt}}), nil, 0)
	assert.ErrorContains(t, err, "input exhausted")
}

func TestOpStackUnderflow(t *testing.T) {
	_, err := Run(Assemble([]Op{{Instr: isa.Pop}, {Instr: isa.Halt}}), nil, 0)
	assert.ErrorContains(t, err, "underflow")
}

func TestCallReturn(t *testing.T) {
	aet := run(t, []Op{
		{Instr: isa.Call, Arg: 3}, // words 0..1
		{Instr: isa.Halt},         // word 2
		{Instr: isa.Push, Arg: 5}, // words 3..4, the subroutine
		{Instr: isa.WriteIo},      // word 5
		{Instr: isa.Return},       // word 6
	})
	//
	require.Len(t, aet.Output, 1)
	assert.Equal(t, uint64(5), aet.Output[0].Uint64())
	// jump stack depth: 0 before the call, 1 inside, 0 after the return
	depths := []uint64{0, 1, 1, 1, 0}
	ips := []uint64{0, 3, 5, 6, 2}
	//
	require.Equal(t, uint(len(depths)), aet.Height())
	//
	for i, row := range aet.ProcessorMatrix {
		assert.Equal(t, depths[i], row[trace.RegJsp].Uint64(), "jsp at cycle %d", i)
		assert.Equal(t, ips[i], row[trace.RegIp].Uint64(), "ip at cycle %d", i)
	}
}

func TestReturnWithoutCall(t *testing.T) {
	_, err := Run(Assemble([]Op{{Instr: isa.Return}, {Instr: isa.Halt}}), nil, 0)
	assert.ErrorContains(t, err, "jump-stack underflow")
}

func TestRamRoundTrip(t *testing.T) {
	aet := run(t, []Op{
		{Instr: isa.Push, Arg: 9},
		{Instr: isa.Push, Arg: 5},
		{Instr: isa.WriteMem}, // mem[9] = 5
		{Instr: isa.Pop},
		{Instr: isa.Push, Arg: 9},
		{Instr: isa.ReadMem}, // st0 = mem[9]
		{Instr: isa.WriteIo},
		{Instr: isa.Halt},
	})
	//
	require.Len(t, aet.Output, 1)
	assert.Equal(t, uint64(5), aet.Output[0].Uint64())
}

func TestU32Delegation(t *testing.T) {
	aet := run(t, []Op{
		{Instr: isa.Push, Arg: 12},
		{Instr: isa.Push, Arg: 10},
		{Instr: isa.And}, // 10 & 12
		{Instr: isa.WriteIo},
		{Instr: isa.Halt},
	})
	//
	require.Len(t, aet.Output, 1)
	assert.Equal(t, uint64(8), aet.Output[0].Uint64())
	// the coprocessor saw the operation
	require.Len(t, aet.U32Entries, 1)
	entry := aet.U32Entries[0]
	assert.Equal(t, isa.And.Opcode(), entry.Ci)
	assert.Equal(t, uint64(10), entry.Lhs)
	assert.Equal(t, uint64(12), entry.Rhs)
	assert.Equal(t, uint64(8), entry.Result)
}

func TestU32OperandsOutOfRange(t *testing.T) {
	_, err := Run(Assemble([]Op{
		{Instr: isa.Push, Arg: 1 << 33},
		{Instr: isa.Push, Arg: 1},
		{Instr: isa.Lt},
		{Instr: isa.Halt},
	}), nil, 0)
	//
	assert.ErrorContains(t, err, "out of range")
}

func TestHashRecordsCoprocessorTrace(t *testing.T) {
	aet := run(t, []Op{
		{Instr: isa.Push, Arg: 7},
		{Instr: isa.Hash},
		{Instr: isa.WriteIo},
		{Instr: isa.Halt},
	})
	//
	require.Len(t, aet.HashTraces, 1)
	ht := aet.HashTraces[0]
	require.Len(t, ht, trace.NumHashRounds)
	// the first recorded state is the absorbed rate
	assert.Equal(t, uint64(7), ht[0][0].Uint64())
	// the digest lands on top of the op-stack
	digest := ht[trace.NumHashRounds-1][0]
	row := aet.ProcessorMatrix[2]
	assert.True(t, digest.Equals(row[trace.RegSt0]))
	assert.True(t, digest.Equals(aet.Output[0]))
	// the rest of the rate is zeroed
	for i := trace.DigestWidth; i < trace.HashRate; i++ {
		assert.True(t, row[trace.RegSt0+uint(i)].IsZero(), "st%d after hash", i)
	}
}

func TestHashIsDeterministic(t *testing.T) {
	ops := []Op{{Instr: isa.Push, Arg: 3}, {Instr: isa.Hash}, {Instr: isa.Halt}}
	//
	first := run(t, ops)
	second := run(t, ops)
	//
	require.Len(t, second.HashTraces, 1)
	for r := range first.HashTraces[0] {
		for c := range first.HashTraces[0][r] {
			assert.True(t, first.HashTraces[0][r][c].Equals(second.HashTraces[0][r][c]))
		}
	}
}

func TestUnsupportedInstruction(t *testing.T) {
	_, err := Run(Assemble([]Op{{Instr: isa.Divine}, {Instr: isa.Halt}}), nil, 0)
	assert.ErrorContains(t, err, "unsupported")
}

func TestCycleBudget(t *testing.T) {
	// call 0 loops forever
	_, err := Run(Assemble([]Op{{Instr: isa.Call, Arg: 0}}), nil, 100)
	assert.ErrorContains(t, err, "no halt")
}

func TestRunawayInstructionPointer(t *testing.T) {
	_, err := Run(Assemble([]Op{{Instr: isa.Nop}}), nil, 0)
	assert.ErrorContains(t, err, "outside program")
}
