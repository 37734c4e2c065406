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
	"github.com/argon-vm/go-argon/pkg/trace"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Family identifies one of the four constraint families of a table.
type Family uint8

const (
	// Initial constraints hold on the first row only.
	Initial Family = iota
	// Consistency constraints hold on every row in isolation.
	Consistency
	// Transition constraints hold on every pair of consecutive rows.
	Transition
	// Terminal constraints hold on the last row only.
	Terminal
)

// String implementation for the Stringer interface.
func (f Family) String() string {
	switch f {
	case Initial:
		return "initial"
	case Consistency:
		return "consistency"
	case Transition:
		return "transition"
	case Terminal:
		return "terminal"
	}
	//
	return "??"
}

// Violation reports one constraint evaluating to a nonzero value on some
// row of an extended table.
type Violation struct {
	// Table names the offending table.
	Table string
	// Family is the constraint family the handle belongs to.
	Family Family
	// Handle names the offending constraint.
	Handle string
	// Row is the row the constraint was anchored at.
	Row uint
	// Value is the nonzero evaluation.
	Value field.Ext
}

// Error implementation for the error interface.
func (p *Violation) Error() string {
	return fmt.Sprintf("%s table, %s constraint %q violated at row %d (= %s)",
		p.Table, p.Family, p.Handle, p.Row, p.Value)
}

// FamilyConstraints builds the requested constraint family of the given
// table on the given builder.
func FamilyConstraints(tt TraceTable, f Family, b *circuit.Builder) []circuit.Constraint {
	switch f {
	case Initial:
		return tt.InitialConstraints(b)
	case Consistency:
		return tt.ConsistencyConstraints(b)
	case Transition:
		return tt.TransitionConstraints(b)
	case Terminal:
		return tt.TerminalConstraints(b)
	}
	//
	panic(fmt.Sprintf("unknown constraint family %d", f))
}

// CheckTable evaluates all four constraint families of one table over its
// extended trace, returning one Violation per (constraint, row) pair that
// fails to vanish.  This is the engine's own correctness oracle; the
// prover proper replaces pointwise evaluation with low-degree machinery.
func CheckTable(tt TraceTable, ext *trace.Table[field.Ext], ch *Challenges) []error {
	if ext.Height() == 0 {
		return nil
	}
	//
	b := circuit.NewBuilder(tt.FullWidth())
	challenges := tt.ChallengeVector(ch)
	//
	var (
		errs []error
		ev   *circuit.Evaluator
	)
	//
	check := func(f Family, cs []circuit.Constraint, rows []uint, withNext bool) {
		for _, row := range rows {
			asn := circuit.Assignment{Curr: ext.Row(row), Challenges: challenges}
			//
			if withNext {
				asn.Next = ext.Row(row + 1)
			}
			//
			ev.Reset()
			//
			for _, c := range cs {
				if val := ev.Eval(c.Circuit, asn); !val.IsZero() {
					errs = append(errs, &Violation{tt.Name(), f, c.Handle, row, val})
				}
			}
		}
	}
	//
	all := make([]uint, ext.Height())
	pairs := make([]uint, 0, ext.Height())
	//
	for i := uint(0); i < ext.Height(); i++ {
		all[i] = i
		//
		if i+1 < ext.Height() {
			pairs = append(pairs, i)
		}
	}
	//
	initial := FamilyConstraints(tt, Initial, b)
	circuit.AssertSingleRow(initial)
	consistency := FamilyConstraints(tt, Consistency, b)
	circuit.AssertSingleRow(consistency)
	transition := FamilyConstraints(tt, Transition, b)
	terminal := FamilyConstraints(tt, Terminal, b)
	circuit.AssertSingleRow(terminal)
	// The evaluator's memo is sized to the arena, so every circuit must
	// be built before it is constructed.
	ev = circuit.NewEvaluator(b)
	//
	check(Initial, initial, []uint{0}, false)
	check(Consistency, consistency, all, false)
	check(Transition, transition, pairs, true)
	check(Terminal, terminal, []uint{ext.Height() - 1}, false)
	//
	return errs
}
