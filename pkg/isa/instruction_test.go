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
package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodesAreUnique(t *testing.T) {
	seen := make(map[uint64]Instruction)
	//
	for i := Instruction(0); i < Count; i++ {
		opc := i.Opcode()
		require.Less(t, opc, uint64(1)<<NumInstructionBits)
		//
		prev, clash := seen[opc]
		require.False(t, clash, "%s and %s share opcode %d", prev, i, opc)
		seen[opc] = i
	}
}

// Halt encodes as zero, which is what lets padding rows cloned from the
// final processor row satisfy every instruction bit constraint for free.
func TestHaltOpcodeIsZero(t *testing.T) {
	assert.Equal(t, uint64(0), Halt.Opcode())
}

func TestOpcodeFlagBits(t *testing.T) {
	for i := Instruction(0); i < Count; i++ {
		opc := i.Opcode()
		//
		assert.Equal(t, i.HasArg(), opc&1 != 0, "%s", i)
		assert.Equal(t, i.ShrinksStack(), opc&2 != 0, "%s", i)
		assert.Equal(t, i.IsU32(), opc&4 != 0, "%s", i)
	}
}

func TestOpcodeRoundTrip(t *testing.T) {
	for i := Instruction(0); i < Count; i++ {
		back, ok := FromOpcode(i.Opcode())
		require.True(t, ok, "%s", i)
		assert.Equal(t, i, back)
	}
}

func TestFromOpcodeRejectsUnassigned(t *testing.T) {
	assigned := make(map[uint64]bool)
	for i := Instruction(0); i < Count; i++ {
		assigned[i.Opcode()] = true
	}
	//
	for opc := uint64(0); opc < 1<<NumInstructionBits; opc++ {
		_, ok := FromOpcode(opc)
		assert.Equal(t, assigned[opc], ok, "opcode %d", opc)
	}
	//
	_, ok := FromOpcode(1 << NumInstructionBits)
	assert.False(t, ok)
}

// The opcode is fully determined by its bits, which is what the processor
// table's ci decomposition constraint relies on.
func TestInstructionBitsRecompose(t *testing.T) {
	for i := Instruction(0); i < Count; i++ {
		var opc uint64
		//
		for bit := uint(0); bit < NumInstructionBits; bit++ {
			opc |= i.IB(bit) << bit
		}
		//
		assert.Equal(t, i.Opcode(), opc, "%s", i)
	}
}

func TestMnemonics(t *testing.T) {
	assert.Equal(t, "halt", Halt.String())
	assert.Equal(t, "write_io", WriteIo.String())
	assert.Equal(t, "??", Instruction(Count).String())
	//
	for i := Instruction(0); i < Count; i++ {
		assert.NotEmpty(t, i.String())
	}
}
