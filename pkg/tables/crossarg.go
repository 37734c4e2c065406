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

	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Cross-table arguments bind pairs of tables together.  A permutation
// argument shows two tables hold the same multiset of (compressed) rows by
// comparing running products of (indeterminate - row); an evaluation
// argument shows two tables hold the same sequence of rows by comparing
// Horner-style running evaluations.  Both sides start from the same
// default initial and must land on the same terminal.

// PermArgDefaultInitial is the running product before any row has been
// absorbed.
func PermArgDefaultInitial() field.Ext {
	return field.OneExt()
}

// EvalArgDefaultInitial is the running evaluation before any row has been
// absorbed.
func EvalArgDefaultInitial() field.Ext {
	return field.OneExt()
}

// PermArgStep absorbs one compressed row into a running product.
func PermArgStep(acc, indeterminate, row field.Ext) field.Ext {
	return acc.Mul(indeterminate.Sub(row))
}

// EvalArgStep absorbs one compressed row into a running evaluation.
func EvalArgStep(acc, indeterminate, row field.Ext) field.Ext {
	return acc.Mul(indeterminate).Add(row)
}

// EvalArgTerminal folds a sequence of symbols into the terminal its
// running evaluation would reach.  Used to recompute the standard input
// and output terminals directly from the public tapes.
func EvalArgTerminal(symbols []field.Element, indeterminate field.Ext) field.Ext {
	acc := EvalArgDefaultInitial()
	//
	for _, s := range symbols {
		acc = EvalArgStep(acc, indeterminate, field.Lift(s))
	}
	//
	return acc
}

// Terminals collects the final accumulator value of every cross-table
// argument, read from the last row of each extended table.
type Terminals struct {
	// program <-> instruction (evaluation)
	ProgramEvaluation            field.Ext
	InstructionProgramEvaluation field.Ext
	// processor <-> instruction (permutation)
	ProcessorInstructionPerm InstructionPermPair
	// processor <-> memory-like tables (permutation)
	OpStackPerm   PermPair
	RamPerm       PermPair
	JumpStackPerm PermPair
	// processor <-> hash (evaluation)
	HashInputEvaluation  EvalPair
	HashDigestEvaluation EvalPair
	// processor <-> u32 (permutation)
	U32Perm PermPair
	// processor <-> public tapes (evaluation)
	StandardInputEvaluation  field.Ext
	StandardOutputEvaluation field.Ext
}

// PermPair holds the two terminals of one permutation argument.
type PermPair struct {
	Processor field.Ext
	Table     field.Ext
}

// EvalPair holds the two terminals of one evaluation argument.
type EvalPair struct {
	Processor field.Ext
	Table     field.Ext
}

// InstructionPermPair is the processor/instruction permutation argument.
type InstructionPermPair struct {
	Processor   field.Ext
	Instruction field.Ext
}

// VerifyCrossArguments checks every cross-table link: each argument's two
// terminals must agree, and the standard input and output terminals must
// match the values recomputed from the public tapes.  Returns one error
// per violated link.
func VerifyCrossArguments(t Terminals, ch *Challenges, input, output []field.Element) []error {
	var errs []error
	//
	check := func(name string, lhs, rhs field.Ext) {
		if !lhs.Equals(rhs) {
			errs = append(errs, fmt.Errorf("cross-table argument %q: terminals differ (%s vs %s)", name, lhs, rhs))
		}
	}
	//
	check("program evaluation", t.ProgramEvaluation, t.InstructionProgramEvaluation)
	check("instruction permutation", t.ProcessorInstructionPerm.Processor, t.ProcessorInstructionPerm.Instruction)
	check("op-stack permutation", t.OpStackPerm.Processor, t.OpStackPerm.Table)
	check("ram permutation", t.RamPerm.Processor, t.RamPerm.Table)
	check("jump-stack permutation", t.JumpStackPerm.Processor, t.JumpStackPerm.Table)
	check("hash input evaluation", t.HashInputEvaluation.Processor, t.HashInputEvaluation.Table)
	check("hash digest evaluation", t.HashDigestEvaluation.Processor, t.HashDigestEvaluation.Table)
	check("u32 permutation", t.U32Perm.Processor, t.U32Perm.Table)
	check("standard input", t.StandardInputEvaluation, EvalArgTerminal(input, ch.StandardInputEval))
	check("standard output", t.StandardOutputEvaluation, EvalArgTerminal(output, ch.StandardOutputEval))
	//
	return errs
}
