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
	"math/rand"

	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Challenges holds every verifier-supplied random scalar the engine
// consumes: one indeterminate per cross-table argument, plus the weights
// used to compress a row into a single extension-field value.  The
// protocol layer samples these after the base tables are committed; this
// engine treats them as opaque, uniformly random inputs.
//
// Each table consumes a dense, enumerated slice of these (see the
// xxxChallengeVector methods); the set a table's constraints consume must
// be exactly the set it declares, which the tests check via
// circuit.Node.Challenges.
type Challenges struct {
	// program / instruction bus
	ProgramEval                  field.Ext
	ProgramAddressWeight         field.Ext
	ProgramInstructionWeight     field.Ext
	ProgramNextInstructionWeight field.Ext
	InstructionPerm              field.Ext
	InstructionIpWeight          field.Ext
	InstructionCiWeight          field.Ext
	InstructionNiaWeight         field.Ext
	// op-stack bus
	OpStackPerm      field.Ext
	OpStackClkWeight field.Ext
	OpStackIb1Weight field.Ext
	OpStackOspWeight field.Ext
	OpStackOsvWeight field.Ext
	// ram bus
	RamPerm                  field.Ext
	RamClkWeight             field.Ext
	RamRampWeight            field.Ext
	RamRamvWeight            field.Ext
	RamInstructionTypeWeight field.Ext
	// jump-stack bus
	JumpStackPerm      field.Ext
	JumpStackClkWeight field.Ext
	JumpStackCiWeight  field.Ext
	JumpStackJspWeight field.Ext
	JumpStackJsoWeight field.Ext
	JumpStackJsdWeight field.Ext
	// hash bus
	HashInputEval    field.Ext
	HashDigestEval   field.Ext
	HashStateWeights [trace.HashRate]field.Ext
	// u32 bus
	U32Perm         field.Ext
	U32CiWeight     field.Ext
	U32LhsWeight    field.Ext
	U32RhsWeight    field.Ext
	U32ResultWeight field.Ext
	// standard input / output
	StandardInputEval  field.Ext
	StandardOutputEval field.Ext
	// clock-jump-difference argument, shared by the memory-like tables
	ClockJumpDifferencePerm field.Ext
}

// SampleChallenges draws a full challenge vector from the given source of
// randomness.  Production challenges come from the protocol layer's random
// oracle; this is for tests and diagnostics, where any seedable source
// will do.
func SampleChallenges(rng *rand.Rand) *Challenges {
	ext := func() field.Ext {
		return field.NewExt(field.New(rng.Uint64()), field.New(rng.Uint64()), field.New(rng.Uint64()))
	}
	//
	ch := &Challenges{
		ProgramEval:                  ext(),
		ProgramAddressWeight:         ext(),
		ProgramInstructionWeight:     ext(),
		ProgramNextInstructionWeight: ext(),
		InstructionPerm:              ext(),
		InstructionIpWeight:          ext(),
		InstructionCiWeight:          ext(),
		InstructionNiaWeight:         ext(),
		OpStackPerm:                  ext(),
		OpStackClkWeight:             ext(),
		OpStackIb1Weight:             ext(),
		OpStackOspWeight:             ext(),
		OpStackOsvWeight:             ext(),
		RamPerm:                      ext(),
		RamClkWeight:                 ext(),
		RamRampWeight:                ext(),
		RamRamvWeight:                ext(),
		RamInstructionTypeWeight:     ext(),
		JumpStackPerm:                ext(),
		JumpStackClkWeight:           ext(),
		JumpStackCiWeight:            ext(),
		JumpStackJspWeight:           ext(),
		JumpStackJsoWeight:           ext(),
		JumpStackJsdWeight:           ext(),
		HashInputEval:                ext(),
		HashDigestEval:               ext(),
		U32Perm:                      ext(),
		U32CiWeight:                  ext(),
		U32LhsWeight:                 ext(),
		U32RhsWeight:                 ext(),
		U32ResultWeight:              ext(),
		StandardInputEval:            ext(),
		StandardOutputEval:           ext(),
		ClockJumpDifferencePerm:      ext(),
	}
	//
	for i := range ch.HashStateWeights {
		ch.HashStateWeights[i] = ext()
	}
	//
	return ch
}
