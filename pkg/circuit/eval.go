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
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Assignment carries the inputs a circuit evaluation reads: the current
// row, the next row (nil for single-row roles) and the challenge vector.
// Rows are full-width vectors over the extension field, with base columns
// already lifted.
type Assignment struct {
	Curr       []field.Ext
	Next       []field.Ext
	Challenges []field.Ext
}

// Evaluator evaluates circuits of one builder numerically, memoising
// shared subexpressions within a single assignment.  Reuse across rows is
// cheap: Reset clears the memo without reallocating.
type Evaluator struct {
	builder *Builder
	memo    []field.Ext
	seen    []bool
}

// NewEvaluator constructs an evaluator over the given builder's arena.
func NewEvaluator(builder *Builder) *Evaluator {
	return &Evaluator{
		builder: builder,
		memo:    make([]field.Ext, len(builder.nodes)),
		seen:    make([]bool, len(builder.nodes)),
	}
}

// Reset forgets all memoised values, readying the evaluator for the next
// assignment.
func (p *Evaluator) Reset() {
	for i := range p.seen {
		p.seen[i] = false
	}
}

// Eval computes the value of the given circuit under the given assignment.
// Evaluating a next-row leaf with a nil next row is a programming error
// (a single-row circuit family referencing the next row) and panics.
func (p *Evaluator) Eval(n Node, asn Assignment) field.Ext {
	if n.builder != p.builder {
		panic("circuit evaluated against foreign builder")
	}
	//
	return p.eval(n.index, asn)
}

func (p *Evaluator) eval(idx uint32, asn Assignment) field.Ext {
	if p.seen[idx] {
		return p.memo[idx]
	}
	//
	var (
		n   = p.builder.nodes[idx]
		val field.Ext
	)
	//
	switch n.op {
	case opConst:
		val = n.constant
	case opCurr:
		val = asn.Curr[n.arg1]
	case opNext:
		if asn.Next == nil {
			panic("next-row input evaluated in single-row context")
		}
		//
		val = asn.Next[n.arg1]
	case opChallenge:
		val = asn.Challenges[n.arg1]
	case opAdd:
		val = p.eval(n.arg1, asn).Add(p.eval(n.arg2, asn))
	case opSub:
		val = p.eval(n.arg1, asn).Sub(p.eval(n.arg2, asn))
	case opMul:
		lhs := p.eval(n.arg1, asn)
		// short-circuit multiplications by zero
		if lhs.IsZero() {
			val = lhs
		} else {
			val = lhs.Mul(p.eval(n.arg2, asn))
		}
	}
	//
	p.memo[idx] = val
	p.seen[idx] = true
	//
	return val
}
