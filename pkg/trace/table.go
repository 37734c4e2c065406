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

// Package trace provides the rectangular trace containers the
// arithmetization engine operates on, and the algebraic execution trace
// which is its input.
package trace

import (
	"fmt"

	"github.com/argon-vm/go-argon/pkg/util/field"
)

// Table is a rectangular trace container: an ordered sequence of rows,
// each a fixed-length vector of cells.  The cell type is the base prime
// field for tables produced by trace fillers, and the extension field for
// tables produced by extension.  Row order is semantically significant: it
// encodes execution or sort order, which the transition constraints
// consume.  The name is diagnostic only.
type Table[E any] struct {
	name  string
	width uint
	rows  [][]E
}

// NewTable constructs an empty table of the given width.
func NewTable[E any](name string, width uint) *Table[E] {
	return &Table[E]{name: name, width: width}
}

// Name returns the diagnostic name of this table.
func (p *Table[E]) Name() string {
	return p.name
}

// Width returns the number of cells in every row.
func (p *Table[E]) Width() uint {
	return p.width
}

// Height returns the number of rows currently in the table.
func (p *Table[E]) Height() uint {
	return uint(len(p.rows))
}

// Row returns the ith row.  The returned slice aliases the table; callers
// which only borrow the table must not mutate it.
func (p *Table[E]) Row(i uint) []E {
	return p.rows[i]
}

// Cell returns the cell at the given row and column.
func (p *Table[E]) Cell(row, col uint) E {
	return p.rows[row][col]
}

// SetCell assigns the cell at the given row and column.
func (p *Table[E]) SetCell(row, col uint, val E) {
	p.rows[row][col] = val
}

// AppendRow adds a row at the end of the table, panicking if the row does
// not match the table width (a trace-filler bug, never a runtime
// condition).
func (p *Table[E]) AppendRow(row []E) {
	if uint(len(row)) != p.width {
		panic(fmt.Sprintf("%s: row has %d cells, table width is %d", p.name, len(row), p.width))
	}
	//
	p.rows = append(p.rows, row)
}

// InsertRows inserts the given rows immediately before index at, shifting
// the current suffix down.  Padding uses this to place template clones
// mid-table while preserving sort order.
func (p *Table[E]) InsertRows(at uint, rows ...[]E) {
	for _, row := range rows {
		if uint(len(row)) != p.width {
			panic(fmt.Sprintf("%s: row has %d cells, table width is %d", p.name, len(row), p.width))
		}
	}
	//
	suffix := p.rows[at:]
	prefix := p.rows[:at:at]
	p.rows = append(append(prefix, rows...), suffix...)
}

// LastRow returns the final row of the table.
func (p *Table[E]) LastRow() []E {
	return p.rows[len(p.rows)-1]
}

// Lifted returns the lifting of a base-field row into the extension field,
// widened to the given full width with zero cells for the extension
// columns yet to be filled.
func Lifted(row []field.Element, fullWidth uint) []field.Ext {
	lifted := make([]field.Ext, fullWidth)
	//
	for i, cell := range row {
		lifted[i] = field.Lift(cell)
	}
	//
	return lifted
}
