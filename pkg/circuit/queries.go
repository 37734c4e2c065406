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

// Degree returns the total degree of the polynomial this circuit denotes,
// counting every row input (current or next) as degree one.  The maximum
// transition degree a table declares bounds the proving system's blow-up
// factor, so tests pin this value rather than just correctness.
func (n Node) Degree() uint {
	var (
		b    = n.builder
		memo = make([]uint, len(b.nodes))
		seen = make([]bool, len(b.nodes))
	)
	//
	return b.degree(n.index, memo, seen)
}

func (p *Builder) degree(idx uint32, memo []uint, seen []bool) uint {
	if seen[idx] {
		return memo[idx]
	}
	//
	var (
		n = p.nodes[idx]
		d uint
	)
	//
	switch n.op {
	case opConst, opChallenge:
		d = 0
	case opCurr, opNext:
		d = 1
	case opAdd, opSub:
		d = max(p.degree(n.arg1, memo, seen), p.degree(n.arg2, memo, seen))
	case opMul:
		d = p.degree(n.arg1, memo, seen) + p.degree(n.arg2, memo, seen)
	}
	//
	memo[idx] = d
	seen[idx] = true
	//
	return d
}

// RefsNextRow reports whether this circuit reads any next-row input.
// Circuits playing the initial, consistency or terminal role must not; the
// table constraint builders assert this when assembling their families.
func (n Node) RefsNextRow() bool {
	return n.builder.refsNextRow(n.index, make([]bool, len(n.builder.nodes)))
}

func (p *Builder) refsNextRow(idx uint32, visited []bool) bool {
	if visited[idx] {
		return false
	}
	//
	visited[idx] = true
	n := p.nodes[idx]
	//
	switch n.op {
	case opNext:
		return true
	case opAdd, opSub, opMul:
		return p.refsNextRow(n.arg1, visited) || p.refsNextRow(n.arg2, visited)
	}
	//
	return false
}

// Challenges returns the set of challenge indices this circuit consumes.
// Tables use this to check that the challenges their constraints consume
// are exactly the challenges they declare.
func (n Node) Challenges() map[uint]bool {
	challenges := make(map[uint]bool)
	n.builder.challenges(n.index, make([]bool, len(n.builder.nodes)), challenges)
	//
	return challenges
}

func (p *Builder) challenges(idx uint32, visited []bool, out map[uint]bool) {
	if visited[idx] {
		return
	}
	//
	visited[idx] = true
	n := p.nodes[idx]
	//
	switch n.op {
	case opChallenge:
		out[uint(n.arg1)] = true
	case opAdd, opSub, opMul:
		p.challenges(n.arg1, visited, out)
		p.challenges(n.arg2, visited, out)
	}
}
