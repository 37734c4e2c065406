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

	"github.com/argon-vm/go-argon/pkg/util/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermArgStep(t *testing.T) {
	x := field.LiftUint64(100)
	acc := PermArgDefaultInitial()
	require.True(t, acc.IsOne())
	// absorbing rows 3 and 7 yields (x-3)(x-7) regardless of order
	lhs := PermArgStep(PermArgStep(acc, x, field.LiftUint64(3)), x, field.LiftUint64(7))
	rhs := PermArgStep(PermArgStep(acc, x, field.LiftUint64(7)), x, field.LiftUint64(3))
	//
	assert.True(t, lhs.Equals(rhs))
	assert.True(t, lhs.Equals(field.LiftUint64(97).Mul(field.LiftUint64(93))))
}

func TestEvalArgStep(t *testing.T) {
	x := field.LiftUint64(10)
	acc := EvalArgDefaultInitial()
	require.True(t, acc.IsOne())
	// Horner: ((1*x + 3)*x + 7) = 137 for x = 10
	acc = EvalArgStep(acc, x, field.LiftUint64(3))
	acc = EvalArgStep(acc, x, field.LiftUint64(7))
	//
	assert.True(t, acc.Equals(field.LiftUint64(137)))
	// order matters for evaluation arguments
	other := EvalArgStep(EvalArgStep(EvalArgDefaultInitial(), x, field.LiftUint64(7)), x, field.LiftUint64(3))
	assert.False(t, acc.Equals(other))
}

func TestEvalArgTerminal(t *testing.T) {
	x := field.LiftUint64(10)
	symbols := []field.Element{field.New(3), field.New(7)}
	//
	assert.True(t, EvalArgTerminal(symbols, x).Equals(field.LiftUint64(137)))
	assert.True(t, EvalArgTerminal(nil, x).IsOne())
}

// agreedTerminals constructs a terminal set in which every link agrees,
// given the public tapes.
func agreedTerminals(ch *Challenges, input, output []field.Element) Terminals {
	prog := field.LiftUint64(1234)
	pair := func(v uint64) PermPair {
		return PermPair{Processor: field.LiftUint64(v), Table: field.LiftUint64(v)}
	}
	//
	return Terminals{
		ProgramEvaluation:            prog,
		InstructionProgramEvaluation: prog,
		ProcessorInstructionPerm: InstructionPermPair{
			Processor:   field.LiftUint64(2),
			Instruction: field.LiftUint64(2),
		},
		OpStackPerm:   pair(3),
		RamPerm:       pair(4),
		JumpStackPerm: pair(5),
		HashInputEvaluation: EvalPair{
			Processor: field.LiftUint64(6),
			Table:     field.LiftUint64(6),
		},
		HashDigestEvaluation: EvalPair{
			Processor: field.LiftUint64(7),
			Table:     field.LiftUint64(7),
		},
		U32Perm:                  pair(8),
		StandardInputEvaluation:  EvalArgTerminal(input, ch.StandardInputEval),
		StandardOutputEvaluation: EvalArgTerminal(output, ch.StandardOutputEval),
	}
}

func TestVerifyCrossArgumentsAccepts(t *testing.T) {
	ch := testChallenges(17)
	input := []field.Element{field.New(3), field.New(5)}
	output := []field.Element{field.New(8)}
	//
	errs := VerifyCrossArguments(agreedTerminals(ch, input, output), ch, input, output)
	assert.Empty(t, errs)
}

func TestVerifyCrossArgumentsReportsEachLink(t *testing.T) {
	ch := testChallenges(17)
	terminals := agreedTerminals(ch, nil, nil)
	terminals.OpStackPerm.Table = field.LiftUint64(999)
	terminals.HashDigestEvaluation.Processor = field.LiftUint64(999)
	//
	errs := VerifyCrossArguments(terminals, ch, nil, nil)
	require.Len(t, errs, 2)
	assert.ErrorContains(t, errs[0], "op-stack permutation")
	assert.ErrorContains(t, errs[1], "hash digest evaluation")
}

func TestVerifyCrossArgumentsChecksPublicTapes(t *testing.T) {
	ch := testChallenges(17)
	input := []field.Element{field.New(3)}
	terminals := agreedTerminals(ch, input, nil)
	// the claimed output tape does not match the recorded terminal
	errs := VerifyCrossArguments(terminals, ch, input, []field.Element{field.New(1)})
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "standard output")
}
