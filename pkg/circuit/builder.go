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

// Package circuit provides a builder and DAG representation for the
// polynomial identities ("constraint circuits") a trace table declares.  A
// circuit is a node in an arena owned by its Builder; builder calls return
// lightweight node handles, and structurally identical subexpressions are
// interned onto the same arena slot.  Two handles may therefore denote the
// same node, sharing is explicit, and cycles cannot be constructed.
package circuit

import (
	"fmt"

	"github.com/argon-vm/go-argon/pkg/util/field"
)

type opcode uint8

const (
	opConst opcode = iota
	opCurr
	opNext
	opChallenge
	opAdd
	opSub
	opMul
)

// node is one arena slot.  For leaf opcodes, arg1 holds the column or
// challenge index; for interior opcodes, arg1 and arg2 are arena indices.
type node struct {
	op         opcode
	arg1, arg2 uint32
	constant   field.Ext
}

// Builder owns the node arena for one table's constraint circuits.  It is
// not safe for concurrent use; each table builds its circuits once, up
// front, and the resulting nodes are immutable thereafter.
type Builder struct {
	width uint
	nodes []node
	cache map[node]uint32
}

// NewBuilder constructs an empty builder for a table of the given full
// width (base plus extension columns).
func NewBuilder(width uint) *Builder {
	return &Builder{
		width: width,
		cache: make(map[node]uint32),
	}
}

// Width returns the table width this builder was constructed for.
func (p *Builder) Width() uint {
	return p.width
}

// Size returns the number of distinct nodes in the arena.
func (p *Builder) Size() uint {
	return uint(len(p.nodes))
}

// intern returns the arena index for n, reusing an existing slot when an
// identical node was already built.
func (p *Builder) intern(n node) Node {
	if idx, ok := p.cache[n]; ok {
		return Node{p, idx}
	}
	//
	idx := uint32(len(p.nodes))
	p.nodes = append(p.nodes, n)
	p.cache[n] = idx
	//
	return Node{p, idx}
}

// Curr constructs a leaf reading the given column of the current row.
func (p *Builder) Curr(column uint) Node {
	if column >= p.width {
		panic(fmt.Sprintf("column %d out of range for width %d", column, p.width))
	}
	//
	return p.intern(node{op: opCurr, arg1: uint32(column)})
}

// Next constructs a leaf reading the given column of the next row.
func (p *Builder) Next(column uint) Node {
	if column >= p.width {
		panic(fmt.Sprintf("column %d out of range for width %d", column, p.width))
	}
	//
	return p.intern(node{op: opNext, arg1: uint32(column)})
}

// Challenge constructs a leaf reading the given verifier challenge.
func (p *Builder) Challenge(id uint) Node {
	return p.intern(node{op: opChallenge, arg1: uint32(id)})
}

// Constant constructs a leaf holding the given small constant.
func (p *Builder) Constant(val uint64) Node {
	return p.XConst(field.LiftUint64(val))
}

// BConst constructs a leaf holding the given base-field constant.
func (p *Builder) BConst(val field.Element) Node {
	return p.XConst(field.Lift(val))
}

// XConst constructs a leaf holding the given extension-field constant.
func (p *Builder) XConst(val field.Ext) Node {
	return p.intern(node{op: opConst, constant: val})
}

// One is shorthand for Constant(1).
func (p *Builder) One() Node {
	return p.Constant(1)
}

// Zero is shorthand for Constant(0).
func (p *Builder) Zero() Node {
	return p.Constant(0)
}

// Node is a handle on a circuit in some builder's arena.
type Node struct {
	builder *Builder
	index   uint32
}

// checkShared panics unless both operands live in the same arena; mixing
// arenas is always a programming error in a constraint definition.
func (n Node) checkShared(m Node) {
	if n.builder != m.builder {
		panic("constraint circuit operands built by different builders")
	}
}

// Add n + m
func (n Node) Add(m Node) Node {
	n.checkShared(m)
	return n.builder.intern(node{op: opAdd, arg1: n.index, arg2: m.index})
}

// Sub n - m
func (n Node) Sub(m Node) Node {
	n.checkShared(m)
	return n.builder.intern(node{op: opSub, arg1: n.index, arg2: m.index})
}

// Mul n * m
func (n Node) Mul(m Node) Node {
	n.checkShared(m)
	return n.builder.intern(node{op: opMul, arg1: n.index, arg2: m.index})
}

// Neg 0 - n
func (n Node) Neg() Node {
	return n.builder.Zero().Sub(n)
}
