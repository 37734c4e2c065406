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

// Package tinyvm interprets programs of the machine this engine
// arithmetizes, producing the algebraic execution traces the tables are
// filled from.  It implements the instruction subset the constraints
// cover and rejects anything else; it exists to exercise the
// arithmetization, not to be a production virtual machine.
package tinyvm

import (
	"fmt"

	"github.com/argon-vm/go-argon/pkg/isa"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// DefaultMaxCycles bounds a run unless the caller says otherwise.
const DefaultMaxCycles = 1 << 16

// maxU32 bounds the operands of delegated u32 instructions.
const maxU32 = 1<<32 - 1

// Op is one assembly-level operation: an instruction plus, where the
// instruction takes one, its immediate argument.
type Op struct {
	Instr isa.Instruction
	Arg   uint64
}

// Assemble lowers a sequence of operations into program memory, one word
// per opcode and one per immediate argument.
func Assemble(ops []Op) []field.Element {
	var prog []field.Element
	//
	for _, op := range ops {
		prog = append(prog, field.New(op.Instr.Opcode()))
		//
		if op.Instr.HasArg() {
			prog = append(prog, field.New(op.Arg))
		} else if op.Arg != 0 {
			panic(fmt.Sprintf("instruction %s takes no argument", op.Instr))
		}
	}
	//
	return prog
}

// machine is the full interpreter state.
type machine struct {
	prog      []field.Element
	ip        uint64
	stack     [trace.OpStackRegCount]field.Element
	underflow []field.Element
	mem       map[uint64]field.Element
	frames    []frame
	input     []field.Element
	aet       *trace.AlgebraicExecutionTrace
}

// frame is one jump-stack entry.
type frame struct {
	origin, destination field.Element
}

// Run interprets the given program against the given standard input,
// returning the full execution trace.  Execution stops at halt; it fails
// on any instruction outside the supported subset, on stack or jump-stack
// underflow, on out-of-range u32 operands, on exhausted input, and once
// the cycle budget runs out.
func Run(program, input []field.Element, maxCycles uint) (*trace.AlgebraicExecutionTrace, error) {
	if maxCycles == 0 {
		maxCycles = DefaultMaxCycles
	}
	//
	m := &machine{
		prog:  program,
		mem:   make(map[uint64]field.Element),
		input: input,
		aet: &trace.AlgebraicExecutionTrace{
			Program: program,
			Input:   input,
		},
	}
	//
	for cycle := uint(0); cycle < maxCycles; cycle++ {
		instr, err := m.record(cycle)
		if err != nil {
			return nil, err
		}
		//
		if instr == isa.Halt {
			return m.aet, nil
		}
		//
		if err := m.execute(instr); err != nil {
			return nil, fmt.Errorf("cycle %d (%s at ip %d): %w", cycle, instr, m.ip, err)
		}
	}
	//
	return nil, fmt.Errorf("no halt within %d cycles", maxCycles)
}

// record appends the current register state to the trace and decodes the
// current instruction.
func (m *machine) record(cycle uint) (isa.Instruction, error) {
	if m.ip >= uint64(len(m.prog)) {
		return 0, fmt.Errorf("instruction pointer %d outside program of length %d", m.ip, len(m.prog))
	}
	//
	ci := m.prog[m.ip]
	instr, ok := isa.FromOpcode(ci.Uint64())
	//
	if !ok {
		return 0, fmt.Errorf("invalid opcode %s at address %d", ci, m.ip)
	}
	//
	nia := field.Zero()
	if m.ip+1 < uint64(len(m.prog)) {
		nia = m.prog[m.ip+1]
	}
	//
	jso, jsd := field.Zero(), field.Zero()
	if n := len(m.frames); n > 0 {
		jso, jsd = m.frames[n-1].origin, m.frames[n-1].destination
	}
	//
	osv := field.Zero()
	if n := len(m.underflow); n > 0 {
		osv = m.underflow[n-1]
	}
	//
	row := make([]field.Element, trace.NumRegisters)
	row[trace.RegClk] = field.New(uint64(cycle))
	row[trace.RegIp] = field.New(m.ip)
	row[trace.RegCi] = ci
	row[trace.RegNia] = nia
	row[trace.RegJsp] = field.New(uint64(len(m.frames)))
	row[trace.RegJso] = jso
	row[trace.RegJsd] = jsd
	//
	for i := uint(0); i < trace.OpStackRegCount; i++ {
		row[trace.RegSt0+i] = m.stack[i]
	}
	//
	row[trace.RegOsp] = field.New(trace.OpStackRegCount + uint64(len(m.underflow)))
	row[trace.RegOsv] = osv
	row[trace.RegRamv] = m.mem[m.stack[1].Uint64()]
	m.aet.ProcessorMatrix = append(m.aet.ProcessorMatrix, row)
	//
	return instr, nil
}

// push makes room on top of the stack, spilling st15 to the underflow.
func (m *machine) push(val field.Element) {
	m.underflow = append(m.underflow, m.stack[trace.OpStackRegCount-1])
	copy(m.stack[1:], m.stack[:trace.OpStackRegCount-1])
	m.stack[0] = val
}

// shrink drops the stack registers from the given index upward, refilling
// st15 from the underflow.
func (m *machine) shrink(from int) error {
	n := len(m.underflow)
	//
	if n == 0 {
		return fmt.Errorf("op-stack underflow")
	}
	//
	copy(m.stack[from:], m.stack[from+1:])
	m.stack[trace.OpStackRegCount-1] = m.underflow[n-1]
	m.underflow = m.underflow[:n-1]
	//
	return nil
}

// u32Operands checks both operands fit the coprocessor.
func (m *machine) u32Operands() (uint64, uint64, error) {
	lhs, rhs := m.stack[0].Uint64(), m.stack[1].Uint64()
	//
	if lhs > maxU32 || rhs > maxU32 {
		return 0, 0, fmt.Errorf("u32 operands (%d, %d) out of range", lhs, rhs)
	}
	//
	return lhs, rhs, nil
}

// delegate records a u32 operation and replaces st0 with its result.
func (m *machine) delegate(instr isa.Instruction, result uint64) {
	m.aet.U32Entries = append(m.aet.U32Entries, trace.U32Entry{
		Ci:     instr.Opcode(),
		Lhs:    m.stack[0].Uint64(),
		Rhs:    m.stack[1].Uint64(),
		Result: result,
	})
	m.stack[0] = field.New(result)
	m.ip++
}

// execute applies one instruction's semantics.
func (m *machine) execute(instr isa.Instruction) error {
	switch instr {
	case isa.Nop:
		m.ip++
	case isa.Push:
		m.push(m.arg())
		m.ip += 2
	case isa.Pop:
		m.ip++
		return m.shrink(0)
	case isa.Add:
		m.stack[0] = m.stack[0].Add(m.stack[1])
		m.ip++
		return m.shrink(1)
	case isa.Mul:
		m.stack[0] = m.stack[0].Mul(m.stack[1])
		m.ip++
		return m.shrink(1)
	case isa.Call:
		m.frames = append(m.frames, frame{
			origin:      field.New(m.ip + 2),
			destination: m.arg(),
		})
		m.ip = m.arg().Uint64()
	case isa.Return:
		if len(m.frames) == 0 {
			return fmt.Errorf("jump-stack underflow")
		}
		//
		m.ip = m.frames[len(m.frames)-1].origin.Uint64()
		m.frames = m.frames[:len(m.frames)-1]
	case isa.ReadMem:
		m.stack[0] = m.mem[m.stack[1].Uint64()]
		m.ip++
	case isa.WriteMem:
		m.mem[m.stack[1].Uint64()] = m.stack[0]
		m.ip++
	case isa.Hash:
		st := m.hash()
		copy(m.stack[:trace.HashRate], st)
		m.ip++
	case isa.Lt:
		lhs, rhs, err := m.u32Operands()
		if err != nil {
			return err
		}
		//
		var result uint64
		if lhs < rhs {
			result = 1
		}
		//
		m.delegate(isa.Lt, result)
	case isa.And:
		lhs, rhs, err := m.u32Operands()
		if err != nil {
			return err
		}
		//
		m.delegate(isa.And, lhs&rhs)
	case isa.Xor:
		lhs, rhs, err := m.u32Operands()
		if err != nil {
			return err
		}
		//
		m.delegate(isa.Xor, lhs^rhs)
	case isa.ReadIo:
		if len(m.input) == 0 {
			return fmt.Errorf("standard input exhausted")
		}
		//
		m.push(m.input[0])
		m.input = m.input[1:]
		m.ip++
	case isa.WriteIo:
		m.aet.Output = append(m.aet.Output, m.stack[0])
		m.ip++
		return m.shrink(0)
	default:
		return fmt.Errorf("unsupported instruction")
	}
	//
	return nil
}

// arg reads the current instruction's immediate argument.
func (m *machine) arg() field.Element {
	if m.ip+1 < uint64(len(m.prog)) {
		return m.prog[m.ip+1]
	}
	//
	return field.Zero()
}

// hash runs the coprocessor on the current rate registers, records its
// full state trace, and returns the resulting digest row.
func (m *machine) hash() []field.Element {
	state := make([]field.Element, trace.HashStateWidth)
	copy(state, m.stack[:trace.HashRate])
	//
	rounds := make([][]field.Element, trace.NumHashRounds)
	rounds[0] = state
	//
	for r := 1; r < trace.NumHashRounds; r++ {
		rounds[r] = permute(rounds[r-1], r)
	}
	//
	m.aet.HashTraces = append(m.aet.HashTraces, rounds)
	// digest plus zeroed remainder of the rate
	out := make([]field.Element, trace.HashRate)
	copy(out, rounds[trace.NumHashRounds-1][:trace.DigestWidth])
	//
	return out
}

// permute is one round of the coprocessor's permutation: a cube layer, a
// rotate-and-sum mixing layer, and round constants.  The constraints for
// it live with the generated hash AIR, not in this engine, so any fixed
// permutation serves; this one just needs to be deterministic and
// non-trivial.
func permute(state []field.Element, round int) []field.Element {
	width := len(state)
	next := make([]field.Element, width)
	//
	sum := field.Zero()
	for _, s := range state {
		sum = sum.Add(s)
	}
	//
	for i := range next {
		cube := state[i].Mul(state[i]).Mul(state[i])
		rotated := state[(i+1)%width]
		constant := field.New(uint64(round*31 + i*17 + 1))
		next[i] = cube.Add(rotated).Add(sum).Add(constant)
	}
	//
	return next
}
