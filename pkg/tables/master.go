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

// Package tables arithmetizes algebraic execution traces: it fills one
// trace table per machine component, pads them all to a common
// power-of-two height, extends them under verifier challenges, and
// declares the constraint circuits and cross-table arguments that make
// the whole ensemble sound.
package tables

import (
	"math/bits"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// MasterTables bundles every trace table of one execution.
type MasterTables struct {
	Program     *ProgramTable
	Instruction *InstructionTable
	Processor   *ProcessorTable
	OpStack     *OpStackTable
	Ram         *RamTable
	JumpStack   *JumpStackTable
	Hash        *HashTable
	U32         *U32Table
}

// Fill constructs all trace tables from the given execution trace,
// filling them concurrently; each filler reads only its own slice of the
// trace.  Panics on a malformed trace, since that is an interpreter bug
// rather than a prover-facing input.
func Fill(aet *trace.AlgebraicExecutionTrace) *MasterTables {
	if err := aet.Validate(); err != nil {
		panic(err.Error())
	}
	//
	start := time.Now()
	m := &MasterTables{}
	fillers := []func(){
		func() { m.Program = BuildProgramTable(aet) },
		func() { m.Instruction = BuildInstructionTable(aet) },
		func() { m.Processor = BuildProcessorTable(aet) },
		func() { m.OpStack = BuildOpStackTable(aet) },
		func() { m.Ram = BuildRamTable(aet) },
		func() { m.JumpStack = BuildJumpStackTable(aet) },
		func() { m.Hash = BuildHashTable(aet) },
		func() { m.U32 = BuildU32Table(aet) },
	}
	//
	var wg sync.WaitGroup
	wg.Add(len(fillers))
	//
	for _, fill := range fillers {
		go func(fill func()) {
			defer wg.Done()
			fill()
		}(fill)
	}
	//
	wg.Wait()
	log.Debugf("filled %d tables from %d cycles in %s", len(fillers), aet.Height(), time.Since(start))
	//
	return m
}

// All lists every table, in canonical order.
func (m *MasterTables) All() []TraceTable {
	return []TraceTable{
		m.Program, m.Instruction, m.Processor, m.OpStack,
		m.Ram, m.JumpStack, m.Hash, m.U32,
	}
}

// PaddedHeight is the common height every table is padded to: the next
// power of two of the tallest table.
func (m *MasterTables) PaddedHeight() uint {
	var max uint
	//
	for _, t := range m.All() {
		if h := t.Base().Height(); h > max {
			max = h
		}
	}
	//
	return nextPowerOfTwo(max)
}

// Pad brings every table to the common padded height.
func (m *MasterTables) Pad() {
	height := m.PaddedHeight()
	//
	for _, t := range m.All() {
		t.Pad(height)
	}
	//
	log.Debugf("padded all tables to height %d", height)
}

// Extend computes every table's extension columns under the given
// challenges, concurrently.  Tables must have been padded first.
func (m *MasterTables) Extend(ch *Challenges) *Extended {
	start := time.Now()
	ext := &Extended{tables: m}
	targets := []struct {
		table TraceTable
		out   **trace.Table[field.Ext]
	}{
		{m.Program, &ext.Program},
		{m.Instruction, &ext.Instruction},
		{m.Processor, &ext.Processor},
		{m.OpStack, &ext.OpStack},
		{m.Ram, &ext.Ram},
		{m.JumpStack, &ext.JumpStack},
		{m.Hash, &ext.Hash},
		{m.U32, &ext.U32},
	}
	//
	var wg sync.WaitGroup
	wg.Add(len(targets))
	//
	for _, t := range targets {
		go func(table TraceTable, out **trace.Table[field.Ext]) {
			defer wg.Done()
			*out = table.Extend(ch)
		}(t.table, t.out)
	}
	//
	wg.Wait()
	log.Debugf("extended %d tables in %s", len(targets), time.Since(start))
	//
	return ext
}

// Extended bundles the extension tables of one execution under one
// challenge vector.
type Extended struct {
	tables      *MasterTables
	Program     *trace.Table[field.Ext]
	Instruction *trace.Table[field.Ext]
	Processor   *trace.Table[field.Ext]
	OpStack     *trace.Table[field.Ext]
	Ram         *trace.Table[field.Ext]
	JumpStack   *trace.Table[field.Ext]
	Hash        *trace.Table[field.Ext]
	U32         *trace.Table[field.Ext]
}

// Terminals reads every cross-table argument's final accumulator value
// off the last row of its extension column.
func (e *Extended) Terminals() Terminals {
	last := func(t *trace.Table[field.Ext], col uint) field.Ext {
		return t.Cell(t.Height()-1, col)
	}
	//
	return Terminals{
		ProgramEvaluation:            last(e.Program, ProgramRunningEvaluation),
		InstructionProgramEvaluation: last(e.Instruction, InstructionProgramEvaluation),
		ProcessorInstructionPerm: InstructionPermPair{
			Processor:   last(e.Processor, ProcInstructionPerm),
			Instruction: last(e.Instruction, InstructionRunningProduct),
		},
		OpStackPerm: PermPair{
			Processor: last(e.Processor, ProcOpStackPerm),
			Table:     last(e.OpStack, OpStackRunningProduct),
		},
		RamPerm: PermPair{
			Processor: last(e.Processor, ProcRamPerm),
			Table:     last(e.Ram, RamRunningProduct),
		},
		JumpStackPerm: PermPair{
			Processor: last(e.Processor, ProcJumpStackPerm),
			Table:     last(e.JumpStack, JumpStackRunningProduct),
		},
		HashInputEvaluation: EvalPair{
			Processor: last(e.Processor, ProcToHashEval),
			Table:     last(e.Hash, HashFromProcessor),
		},
		HashDigestEvaluation: EvalPair{
			Processor: last(e.Processor, ProcFromHashEval),
			Table:     last(e.Hash, HashToProcessor),
		},
		U32Perm: PermPair{
			Processor: last(e.Processor, ProcU32Perm),
			Table:     last(e.U32, U32RunningProduct),
		},
		StandardInputEvaluation:  last(e.Processor, ProcInputEval),
		StandardOutputEvaluation: last(e.Processor, ProcOutputEval),
	}
}

// Check evaluates every table's four constraint families and every
// cross-table argument, returning all violations.  The public input and
// output pin down the terminals of the standard io evaluations.
func (e *Extended) Check(ch *Challenges, input, output []field.Element) []error {
	exts := []*trace.Table[field.Ext]{
		e.Program, e.Instruction, e.Processor, e.OpStack,
		e.Ram, e.JumpStack, e.Hash, e.U32,
	}
	//
	var errs []error
	//
	for i, tt := range e.tables.All() {
		errs = append(errs, CheckTable(tt, exts[i], ch)...)
	}
	//
	return append(errs, VerifyCrossArguments(e.Terminals(), ch, input, output)...)
}

// nextPowerOfTwo rounds n up to a power of two; zero rounds to one.
func nextPowerOfTwo(n uint) uint {
	if n <= 1 {
		return 1
	}
	//
	return 1 << bits.Len(uint(n-1))
}
