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

	"github.com/argon-vm/go-argon/pkg/circuit"
	"github.com/argon-vm/go-argon/pkg/isa"
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// U32 table columns.
const (
	// U32CopyFlag is one on the first row of a section, the row whose
	// operands and result the processor permutation absorbs.
	U32CopyFlag uint = iota
	// U32Bits counts the remaining rows of the section below this one.
	U32Bits
	// U32BitsMinus33Inverse is the inverse of (bits - 33); well-formedness
	// forces bits away from 33, bounding operands to 32 bits.
	U32BitsMinus33Inverse
	// U32Ci is the delegated instruction's opcode.
	U32Ci
	// U32Lhs is the left operand, shifted right once per row.
	U32Lhs
	// U32LhsInverse is the inverse of lhs, or zero.
	U32LhsInverse
	// U32Rhs is the right operand, shifted right once per row.
	U32Rhs
	// U32RhsInverse is the inverse of rhs, or zero.
	U32RhsInverse
	// U32Lt is the less-than accumulator: 0, 1, or the sentinel 2 while
	// the compared prefixes are still equal.
	U32Lt
	// U32And is the bitwise-and accumulator.
	U32And
	// U32Xor is the bitwise-xor accumulator.
	U32Xor
	// U32Result is the delegated instruction's result, derived from the
	// accumulator the opcode selects.
	U32Result
	// U32BaseWidth is the number of base columns.
	U32BaseWidth
)

// U32 table extension columns.
const (
	// U32RunningProduct ties the copy-flag rows to the processor's
	// delegated operations.
	U32RunningProduct uint = U32BaseWidth + iota
	// U32FullWidth is the number of base plus extension columns.
	U32FullWidth
)

// U32 table challenge indices.
const (
	u32ChPerm uint = iota
	u32ChCiWeight
	u32ChLhsWeight
	u32ChRhsWeight
	u32ChResultWeight
	numU32Challenges
)

// maxU32 bounds the operands the coprocessor accepts.
const maxU32 = 1<<32 - 1

// U32Table justifies every delegated u32 operation bit by bit: one
// section per operation, with both operands shifted right by one on each
// row until they vanish, and the bitwise accumulators recomputed upward
// from the final all-zero row.
type U32Table struct {
	base *trace.Table[field.Element]
}

// BuildU32Table fills the u32 table from the trace.
func BuildU32Table(aet *trace.AlgebraicExecutionTrace) *U32Table {
	tbl := trace.NewTable[field.Element]("u32", U32BaseWidth)
	//
	for _, entry := range aet.U32Entries {
		appendU32Section(tbl, entry)
	}
	//
	return &U32Table{base: tbl}
}

// appendU32Section appends the full bit-decomposition section for one
// delegated operation.
func appendU32Section(tbl *trace.Table[field.Element], entry trace.U32Entry) {
	if entry.Lhs > maxU32 || entry.Rhs > maxU32 {
		panic(fmt.Sprintf("u32 operands (%d, %d) out of range", entry.Lhs, entry.Rhs))
	}
	// Shift sequence, ending on the all-zero row.
	type operands struct{ lhs, rhs uint64 }
	seq := []operands{{entry.Lhs, entry.Rhs}}
	//
	for seq[len(seq)-1].lhs != 0 || seq[len(seq)-1].rhs != 0 {
		last := seq[len(seq)-1]
		seq = append(seq, operands{last.lhs >> 1, last.rhs >> 1})
	}
	// Accumulators, computed from the bottom row upward.
	n := len(seq)
	lt := make([]uint64, n)
	and := make([]uint64, n)
	xor := make([]uint64, n)
	lt[n-1] = 2
	//
	for i := n - 2; i >= 0; i-- {
		bl, br := seq[i].lhs&1, seq[i].rhs&1
		and[i] = and[i+1]<<1 | bl&br
		xor[i] = xor[i+1]<<1 | bl^br
		//
		switch {
		case lt[i+1] != 2:
			lt[i] = lt[i+1]
		case bl < br:
			lt[i] = 1
		case bl > br:
			lt[i] = 0
		default:
			lt[i] = 2
		}
	}
	//
	for i := 0; i < n; i++ {
		var result uint64
		//
		switch mustFromOpcode(entry.Ci) {
		case isa.Lt:
			if lt[i] != 2 {
				result = lt[i]
			}
		case isa.And:
			result = and[i]
		case isa.Xor:
			result = xor[i]
		default:
			panic(fmt.Sprintf("u32 coprocessor cannot justify instruction %d", entry.Ci))
		}
		//
		row := make([]field.Element, U32BaseWidth)
		//
		if i == 0 {
			row[U32CopyFlag] = field.One()
		}
		//
		row[U32Bits] = field.New(uint64(n - 1 - i))
		row[U32BitsMinus33Inverse] = field.New(uint64(n - 1 - i)).Sub(field.New(33)).Inverse()
		row[U32Ci] = field.New(entry.Ci)
		row[U32Lhs] = field.New(seq[i].lhs)
		row[U32LhsInverse] = field.New(seq[i].lhs).Inverse()
		row[U32Rhs] = field.New(seq[i].rhs)
		row[U32RhsInverse] = field.New(seq[i].rhs).Inverse()
		row[U32Lt] = field.New(lt[i])
		row[U32And] = field.New(and[i])
		row[U32Xor] = field.New(xor[i])
		row[U32Result] = field.New(result)
		tbl.AppendRow(row)
	}
}

// mustFromOpcode panics on opcodes that decode to no instruction.
func mustFromOpcode(opc uint64) isa.Instruction {
	instr, ok := isa.FromOpcode(opc)
	//
	if !ok {
		panic(fmt.Sprintf("invalid opcode %d in u32 entry", opc))
	}
	//
	return instr
}

// Name implementation for the TraceTable interface.
func (p *U32Table) Name() string {
	return p.base.Name()
}

// BaseWidth implementation for the TraceTable interface.
func (p *U32Table) BaseWidth() uint {
	return U32BaseWidth
}

// FullWidth implementation for the TraceTable interface.
func (p *U32Table) FullWidth() uint {
	return U32FullWidth
}

// Base implementation for the TraceTable interface.
func (p *U32Table) Base() *trace.Table[field.Element] {
	return p.base
}

// Pad implementation for the TraceTable interface.  A padding row is an
// all-zero row, which is exactly the terminal row of a section: its only
// nonzero cells are the less-than sentinel and the bits inverse.
func (p *U32Table) Pad(height uint) {
	for p.base.Height() < height {
		row := make([]field.Element, U32BaseWidth)
		row[U32Lt] = field.New(2)
		row[U32BitsMinus33Inverse] = field.New(33).Neg().Inverse()
		p.base.AppendRow(row)
	}
}

// Extend implementation for the TraceTable interface.
func (p *U32Table) Extend(ch *Challenges) *trace.Table[field.Ext] {
	rows := liftRows(p.base, U32FullWidth)
	rp := PermArgDefaultInitial()
	//
	for i := range rows {
		if rows[i][U32CopyFlag].IsOne() {
			compressed := rows[i][U32Ci].Mul(ch.U32CiWeight).
				Add(rows[i][U32Lhs].Mul(ch.U32LhsWeight)).
				Add(rows[i][U32Rhs].Mul(ch.U32RhsWeight)).
				Add(rows[i][U32Result].Mul(ch.U32ResultWeight))
			rp = PermArgStep(rp, ch.U32Perm, compressed)
		}
		//
		rows[i][U32RunningProduct] = rp
	}
	//
	ext := trace.NewTable[field.Ext]("u32", U32FullWidth)
	//
	for _, row := range rows {
		ext.AppendRow(row)
	}
	//
	return ext
}

// ChallengeVector implementation for the TraceTable interface.
func (p *U32Table) ChallengeVector(ch *Challenges) []field.Ext {
	return []field.Ext{
		u32ChPerm:         ch.U32Perm,
		u32ChCiWeight:     ch.U32CiWeight,
		u32ChLhsWeight:    ch.U32LhsWeight,
		u32ChRhsWeight:    ch.U32RhsWeight,
		u32ChResultWeight: ch.U32ResultWeight,
	}
}

// compression compresses the given row selection for the permutation.
func (p *U32Table) compression(b *circuit.Builder, col func(uint) circuit.Node) circuit.Node {
	return col(U32Ci).Mul(b.Challenge(u32ChCiWeight)).
		Add(col(U32Lhs).Mul(b.Challenge(u32ChLhsWeight))).
		Add(col(U32Rhs).Mul(b.Challenge(u32ChRhsWeight))).
		Add(col(U32Result).Mul(b.Challenge(u32ChResultWeight)))
}

// zeroIndicator is one when both operands are zero and zero otherwise,
// provided the inverse columns are well formed.
func zeroIndicator(b *circuit.Builder, col func(uint) circuit.Node) circuit.Node {
	one := b.One()
	//
	return one.Sub(col(U32Lhs).Mul(col(U32LhsInverse))).
		Mul(one.Sub(col(U32Rhs).Mul(col(U32RhsInverse))))
}

// InitialConstraints implementation for the TraceTable interface.
func (p *U32Table) InitialConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	copyFlag := b.Curr(U32CopyFlag)
	rp := b.Curr(U32RunningProduct)
	//
	update := rp.Sub(b.Challenge(u32ChPerm).Sub(p.compression(b, b.Curr)))
	keep := rp.Sub(one)
	//
	return []circuit.Constraint{
		// a nonempty table opens with a section, a padded one with padding
		circuit.NewConstraint("u32.running_product_absorbs_first_row",
			copyFlag.Mul(update).Add(one.Sub(copyFlag).Mul(keep))),
	}
}

// ConsistencyConstraints implementation for the TraceTable interface.
func (p *U32Table) ConsistencyConstraints(b *circuit.Builder) []circuit.Constraint {
	one := b.One()
	copyFlag := b.Curr(U32CopyFlag)
	bits := b.Curr(U32Bits)
	bitsInv := b.Curr(U32BitsMinus33Inverse)
	ci := b.Curr(U32Ci)
	lhs, lhsInv := b.Curr(U32Lhs), b.Curr(U32LhsInverse)
	rhs, rhsInv := b.Curr(U32Rhs), b.Curr(U32RhsInverse)
	lt, and, xor := b.Curr(U32Lt), b.Curr(U32And), b.Curr(U32Xor)
	result := b.Curr(U32Result)
	zero := zeroIndicator(b, b.Curr)
	//
	ltOpc := b.Constant(isa.Lt.Opcode())
	andOpc := b.Constant(isa.And.Opcode())
	xorOpc := b.Constant(isa.Xor.Opcode())
	//
	return []circuit.Constraint{
		circuit.NewConstraint("u32.copy_flag_is_bit", copyFlag.Mul(copyFlag.Sub(one))),
		circuit.NewConstraint("u32.ci_is_delegable",
			ci.Mul(ci.Sub(ltOpc)).Mul(ci.Sub(andOpc)).Mul(ci.Sub(xorOpc))),
		circuit.NewConstraint("u32.bits_inverse_avoids_33",
			bits.Sub(b.Constant(33)).Mul(bitsInv).Sub(one)),
		circuit.NewConstraint("u32.lhs_inverse_well_formed",
			lhs.Mul(lhs.Mul(lhsInv).Sub(one))),
		circuit.NewConstraint("u32.lhs_inverse_well_formed_conversely",
			lhsInv.Mul(lhs.Mul(lhsInv).Sub(one))),
		circuit.NewConstraint("u32.rhs_inverse_well_formed",
			rhs.Mul(rhs.Mul(rhsInv).Sub(one))),
		circuit.NewConstraint("u32.rhs_inverse_well_formed_conversely",
			rhsInv.Mul(rhs.Mul(rhsInv).Sub(one))),
		// the terminal row of a section is fully pinned down
		circuit.NewConstraint("u32.exhausted_operands_have_zero_and", zero.Mul(and)),
		circuit.NewConstraint("u32.exhausted_operands_have_zero_xor", zero.Mul(xor)),
		circuit.NewConstraint("u32.exhausted_operands_have_sentinel_lt",
			zero.Mul(lt.Sub(b.Constant(2)))),
		circuit.NewConstraint("u32.exhausted_operands_have_zero_bits", zero.Mul(bits)),
		// the result column mirrors the accumulator ci selects
		circuit.NewConstraint("u32.lt_result",
			ci.Mul(ci.Sub(andOpc)).Mul(ci.Sub(xorOpc)).
				Mul(result.Sub(lt.Mul(b.Constant(2).Sub(lt))))),
		circuit.NewConstraint("u32.and_result",
			ci.Mul(ci.Sub(ltOpc)).Mul(ci.Sub(xorOpc)).Mul(result.Sub(and))),
		circuit.NewConstraint("u32.xor_result",
			ci.Mul(ci.Sub(ltOpc)).Mul(ci.Sub(andOpc)).Mul(result.Sub(xor))),
	}
}

// TransitionConstraints implementation for the TraceTable interface.
func (p *U32Table) TransitionConstraints(b *circuit.Builder) []circuit.Constraint {
	one, two := b.One(), b.Constant(2)
	copyFlagNext := b.Next(U32CopyFlag)
	bits, bitsNext := b.Curr(U32Bits), b.Next(U32Bits)
	ci, ciNext := b.Curr(U32Ci), b.Next(U32Ci)
	lhs, lhsNext := b.Curr(U32Lhs), b.Next(U32Lhs)
	rhs, rhsNext := b.Curr(U32Rhs), b.Next(U32Rhs)
	lt, ltNext := b.Curr(U32Lt), b.Next(U32Lt)
	and, andNext := b.Curr(U32And), b.Next(U32And)
	xor, xorNext := b.Curr(U32Xor), b.Next(U32Xor)
	rp, rpNext := b.Curr(U32RunningProduct), b.Next(U32RunningProduct)
	// Both operands' low bits, and the within-section selector.
	bl := lhs.Sub(lhsNext.Mul(two))
	br := rhs.Sub(rhsNext.Mul(two))
	nz := one.Sub(zeroIndicator(b, b.Curr))
	// Equality indicator over the two low bits.
	beq := one.Sub(bl).Sub(br).Add(bl.Mul(br).Mul(two))
	// Indicator for the next less-than accumulator having left its
	// sentinel state; lt' is 0, 1 or 2, so this is lt'(lt'-1)/2.
	half := b.BConst(field.New(2).Inverse())
	decided := ltNext.Mul(ltNext.Sub(one)).Mul(half)
	//
	ltFromBelow := one.Sub(decided).Mul(ltNext).
		Add(decided.Mul(one.Sub(bl).Mul(br).Add(beq.Mul(two))))
	//
	update := rpNext.Sub(rp.Mul(b.Challenge(u32ChPerm).Sub(p.compression(b, b.Next))))
	keep := rpNext.Sub(rp)
	//
	return []circuit.Constraint{
		// a section only ends once its operands are exhausted
		circuit.NewConstraint("u32.section_continues_without_copy_flag",
			nz.Mul(copyFlagNext)),
		circuit.NewConstraint("u32.section_shares_ci", nz.Mul(ciNext.Sub(ci))),
		circuit.NewConstraint("u32.bits_count_down", nz.Mul(bits.Sub(bitsNext).Sub(one))),
		// operands shift one bit per row
		circuit.NewConstraint("u32.lhs_low_bit_is_bit", nz.Mul(bl).Mul(bl.Sub(one))),
		circuit.NewConstraint("u32.rhs_low_bit_is_bit", nz.Mul(br).Mul(br.Sub(one))),
		// accumulators recompose from the row below
		circuit.NewConstraint("u32.and_recomposes",
			nz.Mul(and.Sub(andNext.Mul(two)).Sub(bl.Mul(br)))),
		circuit.NewConstraint("u32.xor_recomposes",
			nz.Mul(xor.Sub(xorNext.Mul(two)).Sub(bl).Sub(br).Add(bl.Mul(br).Mul(two)))),
		circuit.NewConstraint("u32.lt_recomposes", nz.Mul(lt.Sub(ltFromBelow))),
		// copy-flag rows feed the processor permutation
		circuit.NewConstraint("u32.running_product_absorbs_copy_rows",
			copyFlagNext.Mul(update).Add(one.Sub(copyFlagNext).Mul(keep))),
	}
}

// TerminalConstraints implementation for the TraceTable interface.
func (p *U32Table) TerminalConstraints(b *circuit.Builder) []circuit.Constraint {
	return nil
}
