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
package trace

import (
	"fmt"

	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Register indices within one processor row of the algebraic execution
// trace.  This is the raw per-cycle register record the interpreter
// produces; the trace fillers project and derive the actual table columns
// from it.
const (
	RegClk uint = iota
	RegIp
	RegCi
	RegNia
	RegJsp
	RegJso
	RegJsd
	RegSt0
	RegSt1
	RegSt2
	RegSt3
	RegSt4
	RegSt5
	RegSt6
	RegSt7
	RegSt8
	RegSt9
	RegSt10
	RegSt11
	RegSt12
	RegSt13
	RegSt14
	RegSt15
	RegOsp
	RegOsv
	RegRamv
	// NumRegisters is the width of one processor row of the AET.
	NumRegisters
)

// OpStackRegCount is the number of on-chip op-stack registers (ST0..ST15);
// the op-stack pointer of an empty stack, and hence the minimum legal OSP
// value, equals this count.
const OpStackRegCount = 16

// HashStateWidth is the number of state registers of the hash coprocessor.
const HashStateWidth = 16

// HashRate is the number of state registers absorbed from, and exposed to,
// the processor's op-stack on a hash instruction.
const HashRate = 10

// DigestWidth is the number of state registers forming a hash digest.
const DigestWidth = 5

// NumHashRounds is the number of recorded rows per hash invocation; row 1
// holds the absorbed input and row NumHashRounds the squeezed digest.
const NumHashRounds = 8

// U32Entry records one delegated u32 operation: the delegating
// instruction's opcode, both operands, and the result the coprocessor is
// expected to justify bit by bit.
type U32Entry struct {
	Ci     uint64
	Lhs    uint64
	Rhs    uint64
	Result uint64
}

// AlgebraicExecutionTrace is the raw output of running a program: one row
// per machine cycle per relevant sub-trace, plus the auxiliary lookup data
// the coprocessor tables need.  It is owned by the interpreter and is a
// read-only input to arithmetization; nothing in this engine mutates it.
type AlgebraicExecutionTrace struct {
	// Program is the executed program, one field element per word
	// (opcode words interleaved with immediate-argument words).
	Program []field.Element
	// ProcessorMatrix holds one row of NumRegisters cells per machine
	// cycle, in cycle order.
	ProcessorMatrix [][]field.Element
	// HashTraces holds, per hash instruction in call order, the
	// NumHashRounds x HashStateWidth state matrix of the coprocessor.
	HashTraces [][][]field.Element
	// U32Entries holds one entry per delegated u32 operation, in call
	// order.
	U32Entries []U32Entry
	// Input is the standard input consumed via read_io, in read order.
	Input []field.Element
	// Output is the standard output produced via write_io, in write order.
	Output []field.Element
}

// Height returns the number of machine cycles recorded.
func (p *AlgebraicExecutionTrace) Height() uint {
	return uint(len(p.ProcessorMatrix))
}

// Validate applies basic shape checks to the trace.  A malformed AET is an
// interpreter bug, so any failure here is fatal for the caller.
func (p *AlgebraicExecutionTrace) Validate() error {
	if len(p.ProcessorMatrix) == 0 {
		return fmt.Errorf("empty processor matrix")
	}
	//
	for i, row := range p.ProcessorMatrix {
		if uint(len(row)) != NumRegisters {
			return fmt.Errorf("processor row %d has %d registers, expected %d", i, len(row), NumRegisters)
		}
	}
	//
	for i, ht := range p.HashTraces {
		if len(ht) != NumHashRounds {
			return fmt.Errorf("hash trace %d has %d rows, expected %d", i, len(ht), NumHashRounds)
		}
		//
		for j, row := range ht {
			if len(row) != HashStateWidth {
				return fmt.Errorf("hash trace %d row %d has %d cells, expected %d", i, j, len(row), HashStateWidth)
			}
		}
	}
	//
	return nil
}
