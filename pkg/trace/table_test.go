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
	"testing"

	"github.com/argon-vm/go-argon/pkg/util/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(vals ...uint64) []field.Element {
	cells := make([]field.Element, len(vals))
	//
	for i, v := range vals {
		cells[i] = field.New(v)
	}
	//
	return cells
}

func TestTableBasics(t *testing.T) {
	tbl := NewTable[field.Element]("demo", 3)
	//
	assert.Equal(t, "demo", tbl.Name())
	assert.Equal(t, uint(3), tbl.Width())
	assert.Equal(t, uint(0), tbl.Height())
	//
	tbl.AppendRow(row(1, 2, 3))
	tbl.AppendRow(row(4, 5, 6))
	//
	require.Equal(t, uint(2), tbl.Height())
	assert.Equal(t, uint64(5), tbl.Cell(1, 1).Uint64())
	assert.Equal(t, uint64(6), tbl.LastRow()[2].Uint64())
	//
	tbl.SetCell(0, 2, field.New(9))
	assert.Equal(t, uint64(9), tbl.Row(0)[2].Uint64())
}

func TestTableRejectsRaggedRows(t *testing.T) {
	tbl := NewTable[field.Element]("demo", 2)
	//
	assert.Panics(t, func() { tbl.AppendRow(row(1)) })
	assert.Panics(t, func() { tbl.InsertRows(0, row(1, 2, 3)) })
}

func TestTableInsertRows(t *testing.T) {
	tbl := NewTable[field.Element]("demo", 1)
	tbl.AppendRow(row(0))
	tbl.AppendRow(row(3))
	// splice between the existing rows
	tbl.InsertRows(1, row(1), row(2))
	//
	require.Equal(t, uint(4), tbl.Height())
	//
	for i := uint(0); i < 4; i++ {
		assert.Equal(t, uint64(i), tbl.Cell(i, 0).Uint64())
	}
	// insertion at the end appends
	tbl.InsertRows(4, row(4))
	assert.Equal(t, uint64(4), tbl.LastRow()[0].Uint64())
}

func TestLifted(t *testing.T) {
	lifted := Lifted(row(7, 8), 4)
	//
	require.Len(t, lifted, 4)
	assert.True(t, lifted[0].Equals(field.LiftUint64(7)))
	assert.True(t, lifted[1].Equals(field.LiftUint64(8)))
	assert.True(t, lifted[2].IsZero())
	assert.True(t, lifted[3].IsZero())
}

func TestValidate(t *testing.T) {
	aet := &AlgebraicExecutionTrace{}
	assert.Error(t, aet.Validate(), "empty trace must not validate")
	//
	aet.ProcessorMatrix = [][]field.Element{make([]field.Element, NumRegisters)}
	assert.NoError(t, aet.Validate())
	assert.Equal(t, uint(1), aet.Height())
	//
	aet.ProcessorMatrix = append(aet.ProcessorMatrix, make([]field.Element, 3))
	assert.Error(t, aet.Validate(), "short processor row must not validate")
}

func TestValidateHashTraces(t *testing.T) {
	aet := &AlgebraicExecutionTrace{
		ProcessorMatrix: [][]field.Element{make([]field.Element, NumRegisters)},
	}
	//
	ht := make([][]field.Element, NumHashRounds)
	for i := range ht {
		ht[i] = make([]field.Element, HashStateWidth)
	}
	//
	aet.HashTraces = [][][]field.Element{ht}
	assert.NoError(t, aet.Validate())
	//
	aet.HashTraces = [][][]field.Element{ht[:NumHashRounds-1]}
	assert.Error(t, aet.Validate(), "truncated hash trace must not validate")
}
