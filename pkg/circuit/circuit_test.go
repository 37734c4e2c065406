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
package circuit

import (
	"testing"

	"github.com/argon-vm/go-argon/pkg/util/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterning(t *testing.T) {
	b := NewBuilder(4)
	//
	x := b.Curr(0)
	y := b.Curr(0)
	assert.Equal(t, x, y)
	// structurally equal expressions share a node
	e1 := x.Mul(b.Curr(1)).Add(b.Constant(5))
	size := b.Size()
	e2 := b.Curr(0).Mul(b.Curr(1)).Add(b.Constant(5))
	//
	assert.Equal(t, e1, e2)
	assert.Equal(t, size, b.Size())
}

func TestDegree(t *testing.T) {
	b := NewBuilder(4)
	//
	assert.Equal(t, uint(0), b.Constant(7).Degree())
	assert.Equal(t, uint(0), b.Challenge(0).Degree())
	assert.Equal(t, uint(1), b.Curr(0).Degree())
	assert.Equal(t, uint(1), b.Next(1).Degree())
	//
	prod := b.Curr(0).Mul(b.Next(1)).Mul(b.Curr(2))
	assert.Equal(t, uint(3), prod.Degree())
	// addition takes the max
	assert.Equal(t, uint(3), prod.Add(b.Curr(3)).Degree())
	// challenges do not contribute degree
	assert.Equal(t, uint(3), prod.Mul(b.Challenge(2)).Degree())
}

func TestRefsNextRow(t *testing.T) {
	b := NewBuilder(4)
	//
	assert.False(t, b.Curr(0).Mul(b.Curr(1)).Add(b.Challenge(0)).RefsNextRow())
	assert.True(t, b.Curr(0).Sub(b.Next(0)).RefsNextRow())
}

func TestChallengeSet(t *testing.T) {
	b := NewBuilder(4)
	//
	e := b.Challenge(3).Mul(b.Curr(0)).Add(b.Challenge(7))
	cs := e.Challenges()
	//
	assert.Len(t, cs, 2)
	assert.True(t, cs[3])
	assert.True(t, cs[7])
}

func TestEval(t *testing.T) {
	b := NewBuilder(2)
	// (c0 - next0) * ch0 + 3
	e := b.Curr(0).Sub(b.Next(0)).Mul(b.Challenge(0)).Add(b.Constant(3))
	//
	ev := NewEvaluator(b)
	asn := Assignment{
		Curr:       []field.Ext{field.LiftUint64(10), field.LiftUint64(0)},
		Next:       []field.Ext{field.LiftUint64(4), field.LiftUint64(0)},
		Challenges: []field.Ext{field.LiftUint64(5)},
	}
	// (10 - 4) * 5 + 3 == 33
	got := ev.Eval(e, asn)
	assert.True(t, got.Equals(field.LiftUint64(33)), "got %s", got)
}

func TestEvalMemoAcrossReset(t *testing.T) {
	b := NewBuilder(1)
	e := b.Curr(0).Mul(b.Curr(0))
	ev := NewEvaluator(b)
	//
	first := ev.Eval(e, Assignment{Curr: []field.Ext{field.LiftUint64(3)}})
	assert.True(t, first.Equals(field.LiftUint64(9)))
	// without a reset the memoised value survives a changed assignment
	stale := ev.Eval(e, Assignment{Curr: []field.Ext{field.LiftUint64(4)}})
	assert.True(t, stale.Equals(field.LiftUint64(9)))
	//
	ev.Reset()
	fresh := ev.Eval(e, Assignment{Curr: []field.Ext{field.LiftUint64(4)}})
	assert.True(t, fresh.Equals(field.LiftUint64(16)))
}

func TestEvalNextInSingleRowContextPanics(t *testing.T) {
	b := NewBuilder(1)
	e := b.Next(0)
	ev := NewEvaluator(b)
	//
	assert.Panics(t, func() {
		ev.Eval(e, Assignment{Curr: []field.Ext{field.ZeroExt()}})
	})
}

func TestMixingBuildersPanics(t *testing.T) {
	b1 := NewBuilder(1)
	b2 := NewBuilder(1)
	//
	assert.Panics(t, func() {
		b1.Curr(0).Add(b2.Curr(0))
	})
	//
	assert.Panics(t, func() {
		NewEvaluator(b1).Eval(b2.Curr(0), Assignment{})
	})
}

func TestConstraintHelpers(t *testing.T) {
	b := NewBuilder(2)
	//
	cs := []Constraint{
		NewConstraint("square", b.Curr(0).Mul(b.Curr(0))),
		NewConstraint("linear", b.Curr(1).Sub(b.Constant(1))),
	}
	//
	require.Equal(t, uint(2), MaxDegree(cs))
	assert.Equal(t, uint(2), cs[0].Degree())
	// no constraint references the next row, so this must not panic
	AssertSingleRow(cs)
	//
	cs = append(cs, NewConstraint("step", b.Next(0).Sub(b.Curr(0))))
	assert.Panics(t, func() { AssertSingleRow(cs) })
}

func TestNeg(t *testing.T) {
	b := NewBuilder(1)
	neg := b.Curr(0).Neg()
	ev := NewEvaluator(b)
	//
	got := ev.Eval(neg, Assignment{Curr: []field.Ext{field.LiftUint64(7)}})
	assert.True(t, got.Add(field.LiftUint64(7)).IsZero())
}

func TestConstants(t *testing.T) {
	var (
		b    = NewBuilder(1)
		one  = b.One()
		zero = b.Zero()
		nine = b.BConst(field.New(9))
		x    = field.NewExt(field.New(1), field.New(2), field.New(3))
		ext  = b.XConst(x)
		ev   = NewEvaluator(b)
	)
	//
	assert.True(t, ev.Eval(one, Assignment{}).IsOne())
	assert.True(t, ev.Eval(zero, Assignment{}).IsZero())
	assert.True(t, ev.Eval(nine, Assignment{}).Equals(field.LiftUint64(9)))
	assert.True(t, ev.Eval(ext, Assignment{}).Equals(x))
}
