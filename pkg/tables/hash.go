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
	"github.com/argon-vm/go-argon/pkg/circuit"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Hash table columns.
const (
	// HashRoundNumber is zero on padding rows and counts 1 upwards
	// through the rounds of one coprocessor invocation otherwise.
	HashRoundNumber uint = iota
	// HashState0 is the first of HashStateWidth state columns; the
	// remaining state columns follow contiguously.
	HashState0
	// HashBaseWidth is the number of base columns.
	HashBaseWidth = HashState0 + trace.HashStateWidth
)

// Hash table extension columns.
const (
	// HashFromProcessor accumulates the rate portion of every first-round
	// state; its terminal must match the processor's to-hash terminal.
	HashFromProcessor uint = HashBaseWidth + iota
	// HashToProcessor accumulates the digest portion of every last-round
	// state; its terminal must match the processor's from-hash terminal.
	HashToProcessor
	// HashFullWidth is the number of base plus extension columns.
	HashFullWidth
)

// Hash table challenge indices: the two indeterminates followed by the
// HashRate state weights.
const (
	hashChInputEval uint = iota
	hashChDigestEval
	hashChStateWeight0
	numHashChallenges = hashChStateWeight0 + trace.HashRate
)

// HashTable traces the hash coprocessor: one block of NumHashRounds rows
// per hash instruction, in call order, followed by all-zero padding rows.
// Two evaluation arguments tie the first-round states to the operands the
// processor sent and the last-round digests to the results it received.
// The round function itself is constrained by generated AIR which is out
// of scope here; this table pins down the round structure and the bus.
type HashTable struct {
	base *trace.Table[field.Element]
}

// BuildHashTable fills the hash table from the trace.
func BuildHashTable(aet *trace.AlgebraicExecutionTrace) *HashTable {
	tbl := trace.NewTable[field.Element]("hash", HashBaseWidth)
	//
	for _, ht := range aet.HashTraces {
		for round, state := range ht {
			row := make([]field.Element, HashBaseWidth)
			row[HashRoundNumber] = field.New(uint64(round + 1))
			copy(row[HashState0:], state)
			tbl.AppendRow(row)
		}
	}
	//
	return &HashTable{base: tbl}
}

// Name implementation for the TraceTable interface.
func (p *HashTable) Name() string {
	return p.base.Name()
}

// BaseWidth implementation for the TraceTable interface.
func (p *HashTable) BaseWidth() uint {
	return HashBaseWidth
}

// FullWidth implementation for the TraceTable interface.
func (p *HashTable) FullWidth() uint {
	return HashFullWidth
}

// Base implementation for the TraceTable interface.
func (p *HashTable) Base() *trace.Table[field.Element] {
	return p.base
}

// Pad implementation for the TraceTable interface.  Padding rows are
// all zero; round number zero deselects every constraint group.
func (p *HashTable) Pad(height uint) {
	for p.base.Height() < height {
		p.base.AppendRow(make([]field.Element, HashBaseWidth))
	}
}

// Extend implementation for the TraceTable interface.
func (p *HashTable) Extend(ch *Challenges) *trace.Table[field.Ext] {
	firstRound := field.New(1)
	lastRound := field.New(trace.NumHashRounds)
	rows := liftRows(p.base, HashFullWidth)
	from := EvalArgDefaultInitial()
	to := EvalArgDefaultInitial()
	//
	for i := range rows {
		rn := p.base.Cell(uint(i), HashRoundNumber)
		//
		if rn.Equals(firstRound) {
			compressed := field.ZeroExt()
			//
			for j := uint(0); j < trace.HashRate; j++ {
				compressed = compressed.Add(rows[i][HashState0+j].Mul(ch.HashStateWeights[j]))
			}
			//
			from = EvalArgStep(from, ch.HashInputEval, compressed)
		}
		//
		if rn.Equals(lastRound) {
			compressed := field.ZeroExt()
			//
			for j := uint(0); j < trace.DigestWidth; j++ {
				compressed = compressed.Add(rows[i][HashState0+j].Mul(ch.HashStateWeights[j]))
			}
			//
			to = EvalArgStep(to, ch.HashDigestEval, compressed)
		}
		//
		rows[i][HashFromProcessor] = from
		rows[i][HashToProcessor] = to
	}
	//
	ext := trace.NewTable[field.Ext]("hash", HashFullWidth)
	//
	for _, row := range rows {
		ext.AppendRow(row)
	}
	//
	return ext
}

// ChallengeVector implementation for the TraceTable interface.
func (p *HashTable) ChallengeVector(ch *Challenges) []field.Ext {
	vec := make([]field.Ext, numHashChallenges)
	vec[hashChInputEval] = ch.HashInputEval
	vec[hashChDigestEval] = ch.HashDigestEval
	copy(vec[hashChStateWeight0:], ch.HashStateWeights[:])
	//
	return vec
}

// rateCompression compresses the rate portion of the next row's state.
func (p *HashTable) rateCompression(b *circuit.Builder) circuit.Node {
	compressed := b.Zero()
	//
	for j := uint(0); j < trace.HashRate; j++ {
		compressed = compressed.Add(b.Next(HashState0 + j).Mul(b.Challenge(hashChStateWeight0 + j)))
	}
	//
	return compressed
}

// digestCompression compresses the digest portion of the next row's state.
func (p *HashTable) digestCompression(b *circuit.Builder) circuit.Node {
	compressed := b.Zero()
	//
	for j := uint(0); j < trace.DigestWidth; j++ {
		compressed = compressed.Add(b.Next(HashState0 + j).Mul(b.Challenge(hashChStateWeight0 + j)))
	}
	//
	return compressed
}

// roundSelector vanishes whenever rn hits any round in [lo, hi].
func roundSelector(b *circuit.Builder, rn circuit.Node, lo, hi uint64) circuit.Node {
	sel := b.One()
	//
	for i := lo; i <= hi; i++ {
		sel = sel.Mul(rn.Sub(b.Constant(i)))
	}
	//
	return sel
}

// roundDeselector vanishes on every valid round number except keep.
func roundDeselector(b *circuit.Builder, rn circuit.Node, keep uint64) circuit.Node {
	sel := b.One()
	//
	for i := uint64(0); i <= trace.NumHashRounds; i++ {
		if i != keep {
			sel = sel.Mul(rn.Sub(b.Constant(i)))
		}
	}
	//
	return sel
}

// InitialConstraints implementation for the TraceTable interface.
func (p *HashTable) InitialConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	rn := b.Curr(HashRoundNumber)
	from := b.Curr(HashFromProcessor)
	to := b.Curr(HashToProcessor)
	// first-row rate compression, over the current row
	compressed := b.Zero()
	//
	for j := uint(0); j < trace.HashRate; j++ {
		compressed = compressed.Add(b.Curr(HashState0 + j).Mul(b.Challenge(hashChStateWeight0 + j)))
	}
	//
	return []circuit.Constraint{
		// an empty table starts padded, otherwise with round one
		circuit.NewConstraint("hash.first_round_is_zero_or_one", rn.Mul(rn.Sub(one))),
		circuit.NewConstraint("hash.input_evaluation_absorbs_first_row",
			rn.Mul(from.Sub(b.Challenge(hashChInputEval)).Sub(compressed))),
		circuit.NewConstraint("hash.input_evaluation_starts_default_when_padded",
			rn.Sub(one).Mul(from.Sub(one))),
		circuit.NewConstraint("hash.digest_evaluation_starts_default", to.Sub(one)),
	}
}

// ConsistencyConstraints implementation for the TraceTable interface.
func (p *HashTable) ConsistencyConstraints(b *circuit.Builder) []circuit.Constraint {
	rn := b.Curr(HashRoundNumber)
	//
	return []circuit.Constraint{
		circuit.NewConstraint("hash.round_number_in_range",
			roundSelector(b, rn, 0, trace.NumHashRounds)),
	}
}

// TransitionConstraints implementation for the TraceTable interface.
func (p *HashTable) TransitionConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	rn, rnNext := b.Curr(HashRoundNumber), b.Next(HashRoundNumber)
	from, fromNext := b.Curr(HashFromProcessor), b.Next(HashFromProcessor)
	to, toNext := b.Curr(HashToProcessor), b.Next(HashToProcessor)
	last := b.Constant(trace.NumHashRounds)
	//
	fromUpdate := fromNext.Sub(from.Mul(b.Challenge(hashChInputEval))).Sub(p.rateCompression(b))
	toUpdate := toNext.Sub(to.Mul(b.Challenge(hashChDigestEval))).Sub(p.digestCompression(b))
	//
	return []circuit.Constraint{
		// padding, once begun, never ends
		circuit.NewConstraint("hash.padding_is_terminal",
			roundSelector(b, rn, 1, trace.NumHashRounds).Mul(rnNext)),
		// mid-invocation rounds increment
		circuit.NewConstraint("hash.round_number_increments",
			rn.Mul(rn.Sub(last)).Mul(rnNext.Sub(rn).Sub(one))),
		// a finished invocation is followed by another or by padding
		circuit.NewConstraint("hash.last_round_starts_over_or_pads",
			roundSelector(b, rn, 0, trace.NumHashRounds-1).Mul(rnNext).Mul(rnNext.Sub(one))),
		// first-round states feed the input evaluation
		circuit.NewConstraint("hash.input_evaluation_absorbs_first_rounds",
			roundDeselector(b, rnNext, 1).Mul(fromUpdate)),
		circuit.NewConstraint("hash.input_evaluation_skips_other_rounds",
			rnNext.Sub(one).Mul(fromNext.Sub(from))),
		// last-round digests feed the digest evaluation
		circuit.NewConstraint("hash.digest_evaluation_absorbs_last_rounds",
			roundDeselector(b, rnNext, trace.NumHashRounds).Mul(toUpdate)),
		circuit.NewConstraint("hash.digest_evaluation_skips_other_rounds",
			rnNext.Sub(last).Mul(toNext.Sub(to))),
	}
}

// TerminalConstraints implementation for the TraceTable interface.
func (p *HashTable) TerminalConstraints(b *circuit.Builder) []circuit.Constraint {
	return nil
}
