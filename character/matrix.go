// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package character

import (
	"fmt"
	"slices"
)

// A Matrix is a collection of character state observations
// for a set of cells.
// Rows are cells
// and columns are characters,
// so every row must have the same number of states.
type Matrix struct {
	rows map[string][]State
}

// NewMatrix creates a new empty character matrix.
func NewMatrix() *Matrix {
	return &Matrix{
		rows: make(map[string][]State),
	}
}

// Add adds or replaces the observation row of a cell.
// All rows in a matrix must have the same length.
func (m *Matrix) Add(cell string, states []State) error {
	if cell == "" {
		return fmt.Errorf("character matrix: empty cell name")
	}
	if len(states) == 0 {
		return fmt.Errorf("character matrix: cell %q: empty state vector", cell)
	}
	if nc := m.Characters(); nc > 0 && len(states) != nc {
		return fmt.Errorf("character matrix: cell %q: got %d states, want %d", cell, len(states), nc)
	}

	m.rows[cell] = slices.Clone(states)
	return nil
}

// Cells returns the cells defined in a matrix,
// sorted by name.
func (m *Matrix) Cells() []string {
	cells := make([]string, 0, len(m.rows))
	for c := range m.rows {
		cells = append(cells, c)
	}
	slices.Sort(cells)
	return cells
}

// Characters returns the number of characters
// (i.e. the number of columns)
// in a matrix.
func (m *Matrix) Characters() int {
	for _, r := range m.rows {
		return len(r)
	}
	return 0
}

// Clone returns a deep copy of a matrix.
func (m *Matrix) Clone() *Matrix {
	nm := NewMatrix()
	for c, r := range m.rows {
		nm.rows[c] = slices.Clone(r)
	}
	return nm
}

// Drop removes the observation row of a cell.
func (m *Matrix) Drop(cell string) {
	delete(m.rows, cell)
}

// HasCell returns true if the cell
// has an observation row in the matrix.
func (m *Matrix) HasCell(cell string) bool {
	_, ok := m.rows[cell]
	return ok
}

// IsAmbiguous returns true if any observation in the matrix
// is an ambiguous state.
func (m *Matrix) IsAmbiguous() bool {
	for _, r := range m.rows {
		if IsAmbiguous(r) {
			return true
		}
	}
	return false
}

// Len returns the number of cells in a matrix.
func (m *Matrix) Len() int {
	return len(m.rows)
}

// States returns a copy of the observation row of a cell,
// or nil if the cell is not in the matrix.
func (m *Matrix) States(cell string) []State {
	r, ok := m.rows[cell]
	if !ok {
		return nil
	}
	return slices.Clone(r)
}
