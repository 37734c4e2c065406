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

// Package isa defines the instruction set of the register machine whose
// execution traces this engine arithmetizes.  Opcodes are not assigned
// arbitrarily: an instruction's opcode packs its bucket flags into the
// low bits, so that the corresponding bit columns of the processor table
// (IB0 upwards) can be used directly as selectors inside constraints.
package isa

// Instruction enumerates every instruction of the machine, in canonical
// order.  The enumeration index is *not* the opcode; see Opcode.
type Instruction uint8

// The canonical instruction ordering.
const (
	Halt Instruction = iota
	Pop
	Push
	Divine
	Dup
	Swap
	Nop
	Skiz
	Call
	Return
	Recurse
	Assert
	ReadMem
	WriteMem
	Hash
	DivineSibling
	AssertVector
	Add
	Mul
	Invert
	Eq
	Split
	Lt
	And
	Xor
	Log2Floor
	Pow
	Div
	XxAdd
	XxMul
	XInvert
	XbMul
	ReadIo
	WriteIo
)

// Count is the number of instructions in the set.
const Count = 34

// NumInstructionBits is the number of bits needed to hold any opcode; the
// processor table carries one column per bit (IB0 .. IB6).
const NumInstructionBits = 7

// bucket flags occupying the low opcode bits
const (
	flagHasArg      = 1
	flagShrinkStack = 2
	flagU32         = 4
	numFlags        = 3
)

// HasArg reports whether the instruction occupies two words in the program:
// itself plus an immediate argument.
func (i Instruction) HasArg() bool {
	switch i {
	case Push, Dup, Swap, Call:
		return true
	}
	//
	return false
}

// ShrinksStack reports whether the instruction carries the op-stack shrink
// flag; this flag is what the IB1ShrinkStack column of the op-stack table
// records.
func (i Instruction) ShrinksStack() bool {
	switch i {
	case Pop, Skiz, Assert, WriteIo, Add, Mul, Eq, XbMul:
		return true
	}
	//
	return false
}

// IsU32 reports whether the instruction is delegated to the u32 coprocessor
// table.
func (i Instruction) IsU32() bool {
	switch i {
	case Lt, And, Xor, Log2Floor, Pow, Div, Split:
		return true
	}
	//
	return false
}

// flags packs the bucket membership of this instruction into the low
// opcode bits.
func (i Instruction) flags() uint64 {
	var fs uint64
	//
	if i.HasArg() {
		fs |= flagHasArg
	}
	//
	if i.ShrinksStack() {
		fs |= flagShrinkStack
	}
	//
	if i.IsU32() {
		fs |= flagU32
	}
	//
	return fs
}

// opcodes caches Opcode for every instruction; built once at package
// initialisation, no reflection at runtime.
var opcodes [Count]uint64

// byOpcode maps an opcode back to its instruction; entries not covered by
// any instruction hold Count as an out-of-range marker.
var byOpcode [1 << NumInstructionBits]Instruction

func init() {
	for i := range byOpcode {
		byOpcode[i] = Count
	}
	//
	for i := Instruction(0); i < Count; i++ {
		// index of this instruction within its flag bucket
		index := uint64(0)
		//
		for j := Instruction(0); j < i; j++ {
			if j.flags() == i.flags() {
				index++
			}
		}
		//
		opc := index<<numFlags | i.flags()
		opcodes[i] = opc
		byOpcode[opc] = i
	}
}

// Opcode returns the machine encoding of this instruction: the index of the
// instruction within its flag bucket, shifted above the bucket flags.
func (i Instruction) Opcode() uint64 {
	return opcodes[i]
}

// IB returns the given bit of the instruction's opcode.
func (i Instruction) IB(bit uint) uint64 {
	return (i.Opcode() >> bit) & 1
}

// FromOpcode recovers the instruction encoded by the given opcode,
// reporting failure via the second return.
func FromOpcode(opc uint64) (Instruction, bool) {
	if opc < uint64(len(byOpcode)) && byOpcode[opc] != Count {
		return byOpcode[opc], true
	}
	//
	return Count, false
}

// String returns the assembly mnemonic for this instruction.
func (i Instruction) String() string {
	if int(i) < len(mnemonics) {
		return mnemonics[i]
	}
	//
	return "??"
}

var mnemonics = [Count]string{
	"halt", "pop", "push", "divine", "dup", "swap", "nop", "skiz",
	"call", "return", "recurse", "assert", "read_mem", "write_mem",
	"hash", "divine_sibling", "assert_vector", "add", "mul", "invert",
	"eq", "split", "lt", "and", "xor", "log_2_floor", "pow", "div",
	"xxadd", "xxmul", "xinvert", "xbmul", "read_io", "write_io",
}
