// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"fmt"
	"slices"

	"github.com/js-arias/lineage/character"
)

// Missing returns the indicator value
// used by the tree
// for a missing character observation.
func (t *Tree) Missing() int {
	return t.missing
}

// CharacterStates returns a copy of the character states
// stored on a node.
func (t *Tree) CharacterStates(node string) ([]character.State, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("character states: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return nil, fmt.Errorf("character states: node %q: %w", node, ErrUnknownNode)
	}
	return cp(t.states[node]), nil
}

// SetCharacterStates sets the character states of a node.
// The state vector must have as many states
// as characters in the tree.
// On a leaf,
// the states can only be set
// if the leaf was already initialized,
// and the new states update the row of the leaf
// in the current character matrix.
func (t *Tree) SetCharacterStates(node string, states []character.State) error {
	if !t.isInit() {
		return fmt.Errorf("set character states: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return fmt.Errorf("set character states: node %q: %w", node, ErrUnknownNode)
	}

	nc := t.NumCharacters()
	if nc == 0 {
		return fmt.Errorf("set character states: character states not initialized")
	}
	if len(states) != nc {
		return fmt.Errorf("set character states: node %q: got %d states, want %d", node, len(states), nc)
	}
	if len(t.children[node]) == 0 {
		if len(t.states[node]) == 0 {
			return fmt.Errorf("set character states: leaf %q: states not instantiated", node)
		}
	}

	t.states[node] = slices.Clone(states)
	if len(t.children[node]) == 0 && t.current != nil {
		if err := t.current.Add(node, states); err != nil {
			return fmt.Errorf("set character states: %v", err)
		}
	}
	return nil
}

// InitializeCharacterStatesAtLeaves assigns character states
// to the leaves of the tree
// from a character matrix.
// The matrix must have a row
// for every leaf of the tree.
// The matrix becomes both the original
// and the current character matrix of the tree.
func (t *Tree) InitializeCharacterStatesAtLeaves(m *character.Matrix) error {
	if !t.isInit() {
		return fmt.Errorf("initialize character states: %w", ErrTreeNoInit)
	}

	leaves := t.leaves()
	cells := m.Cells()
	if len(cells) != len(leaves) {
		return fmt.Errorf("initialize character states: matrix with %d cells, tree with %d leaves", len(cells), len(leaves))
	}
	for _, l := range leaves {
		if !m.HasCell(l) {
			return fmt.Errorf("initialize character states: leaf %q without a matrix row", l)
		}
	}

	for _, l := range leaves {
		t.states[l] = m.States(l)
	}
	t.original = m.Clone()
	t.current = m.Clone()
	return nil
}

// InitializeAllCharacterStates assigns character states
// to every node of the tree.
// The map must have an entry for every node.
// The leaf states become both the original
// and the current character matrix of the tree.
func (t *Tree) InitializeAllCharacterStates(states map[string][]character.State) error {
	if !t.isInit() {
		return fmt.Errorf("initialize all character states: %w", ErrTreeNoInit)
	}
	for n := range states {
		if _, ok := t.children[n]; !ok {
			return fmt.Errorf("initialize all character states: node %q: %w", n, ErrUnknownNode)
		}
	}
	for n := range t.children {
		if _, ok := states[n]; !ok {
			return fmt.Errorf("initialize all character states: node %q without states", n)
		}
	}

	m := character.NewMatrix()
	for n, s := range states {
		if len(t.children[n]) > 0 {
			continue
		}
		if err := m.Add(n, s); err != nil {
			return fmt.Errorf("initialize all character states: %v", err)
		}
	}
	for n, s := range states {
		t.states[n] = slices.Clone(s)
	}
	t.original = m
	t.current = m.Clone()
	return nil
}

// OriginalCharacterMatrix returns a copy
// of the character matrix
// as it was given at initialization,
// without any of the changes
// made after building the tree.
func (t *Tree) OriginalCharacterMatrix() (*character.Matrix, error) {
	if t.original == nil {
		return nil, fmt.Errorf("original character matrix: character matrix not defined")
	}
	return t.original.Clone(), nil
}

// CurrentCharacterMatrix returns a copy
// of the character matrix
// with all the changes made to leaf states
// after building the tree.
func (t *Tree) CurrentCharacterMatrix() (*character.Matrix, error) {
	if t.current == nil {
		return nil, fmt.Errorf("current character matrix: character matrix not defined")
	}
	return t.current.Clone(), nil
}

// IsAmbiguous returns true if any character state of the node
// is ambiguous.
func (t *Tree) IsAmbiguous(node string) (bool, error) {
	if !t.isInit() {
		return false, fmt.Errorf("is ambiguous: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return false, fmt.Errorf("is ambiguous: node %q: %w", node, ErrUnknownNode)
	}
	return character.IsAmbiguous(t.states[node]), nil
}

// CollapseAmbiguousCharacters removes repeated candidates
// from every ambiguous state in the tree,
// keeping only the distinct candidate values.
// The operation is idempotent
// and does nothing on a tree
// without ambiguous states.
func (t *Tree) CollapseAmbiguousCharacters() error {
	if !t.isInit() {
		return fmt.Errorf("collapse ambiguous characters: %w", ErrTreeNoInit)
	}

	for _, n := range t.nodes() {
		states := t.states[n]
		if !character.IsAmbiguous(states) {
			continue
		}
		ns := make([]character.State, len(states))
		modified := false
		for i, s := range states {
			c := s.Collapse()
			if !c.Equal(s) {
				modified = true
			}
			ns[i] = c
		}
		if !modified {
			continue
		}
		t.states[n] = ns
		if len(t.children[n]) == 0 && t.current != nil {
			if err := t.current.Add(n, ns); err != nil {
				return fmt.Errorf("collapse ambiguous characters: %v", err)
			}
		}
	}
	return nil
}

// ResolveAmbiguousCharacters replaces every ambiguous state
// in the tree
// with a single state value.
// If a resolver function is given,
// it is called once per ambiguous state
// with the candidate values
// (with their multiplicities)
// and must return the resolved value.
// By default the most frequent candidate is used,
// picking at random among ties
// with the randomness source of the tree.
func (t *Tree) ResolveAmbiguousCharacters(resolver func(candidates []int) int) error {
	if !t.isInit() {
		return fmt.Errorf("resolve ambiguous characters: %w", ErrTreeNoInit)
	}
	if resolver == nil {
		resolver = t.mostFrequent
	}

	for _, n := range t.nodes() {
		states := t.states[n]
		if !character.IsAmbiguous(states) {
			continue
		}
		ns := make([]character.State, len(states))
		for i, s := range states {
			if !s.IsAmbiguous() {
				ns[i] = s
				continue
			}
			ns[i] = character.Scalar(resolver(s.Values()))
		}
		t.states[n] = ns
		if len(t.children[n]) == 0 && t.current != nil {
			if err := t.current.Add(n, ns); err != nil {
				return fmt.Errorf("resolve ambiguous characters: %v", err)
			}
		}
	}
	return nil
}

// mostFrequent is the default resolver:
// it picks the most frequent candidate value,
// at random among ties.
func (t *Tree) mostFrequent(candidates []int) int {
	count := make(map[int]int, len(candidates))
	max := 0
	for _, v := range candidates {
		count[v]++
		if count[v] > max {
			max = count[v]
		}
	}

	// keep first-appearance order of the candidates
	var top []int
	seen := make(map[int]bool, len(count))
	for _, v := range candidates {
		if seen[v] {
			continue
		}
		seen[v] = true
		if count[v] == max {
			top = append(top, v)
		}
	}
	return top[t.rnd.Intn(len(top))]
}

// CellMeta returns a copy of the metadata table
// for the cells at the leaves of the tree,
// or nil if no table was given.
func (t *Tree) CellMeta() *character.Meta {
	if t.cellMeta == nil {
		return nil
	}
	return t.cellMeta.Clone()
}

// CharacterMeta returns a copy of the metadata table
// for the characters of the matrix,
// or nil if no table was given.
func (t *Tree) CharacterMeta() *character.Meta {
	if t.charMeta == nil {
		return nil
	}
	return t.charMeta.Clone()
}

// Priors returns a copy of the prior probability
// of observing each state on each character.
func (t *Tree) Priors() map[int]map[int]float64 {
	if t.priors == nil {
		return nil
	}
	return clonePriors(t.priors)
}

// A Mutation is a character state change
// along a branch of the tree.
type Mutation struct {
	// Character is the zero based index
	// of the mutated character.
	Character int

	// State is the state of the character
	// at the child node of the branch.
	State character.State
}

// Mutations returns the character state changes
// along the branch between a parent and a child node.
func (t *Tree) Mutations(parent, child string) ([]Mutation, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("mutations: %w", ErrTreeNoInit)
	}
	if _, ok := t.length[edge{parent, child}]; !ok {
		return nil, fmt.Errorf("mutations: edge %q-%q: %w", parent, child, ErrUnknownEdge)
	}

	nc := t.NumCharacters()
	ps := t.states[parent]
	cs := t.states[child]
	if len(ps) != nc || len(cs) != nc {
		return nil, fmt.Errorf("mutations: edge %q-%q: character states not initialized", parent, child)
	}

	var muts []Mutation
	for i := range nc {
		if ps[i].Equal(cs[i]) {
			continue
		}
		muts = append(muts, Mutation{Character: i, State: cs[i]})
	}
	return muts, nil
}
