// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"fmt"

	"github.com/js-arias/lineage/character"
)

// ReconstructAncestralCharacters assigns character states
// to the internal nodes of the tree
// using the Camin-Sokal (irreversible) parsimony criterion:
// at each character,
// if all the children of a node
// share the same non missing state,
// the node inherits that state;
// on any disagreement,
// or if any child is missing,
// the node is set as missing,
// as a mutation can not revert
// to the ancestral condition.
//
// The reconstruction is made from the leaves to the root,
// and every leaf must have its states initialized.
// Leaf states are never modified.
func (t *Tree) ReconstructAncestralCharacters() error {
	if !t.isInit() {
		return fmt.Errorf("reconstruct ancestral characters: %w", ErrTreeNoInit)
	}

	for _, n := range t.postOrder(t.root()) {
		if len(t.children[n]) == 0 {
			if len(t.states[n]) == 0 {
				return fmt.Errorf("reconstruct ancestral characters: leaf %q: states not initialized", n)
			}
			continue
		}

		desc := t.children[n]
		nc := len(t.states[desc[0]])
		for _, c := range desc[1:] {
			if len(t.states[c]) != nc {
				return fmt.Errorf("reconstruct ancestral characters: node %q: children with different state vector lengths", n)
			}
		}

		states := make([]character.State, nc)
		for i := range nc {
			states[i] = t.ancestralState(desc, i)
		}
		t.states[n] = states
	}
	return nil
}

// ancestralState returns the Camin-Sokal state
// of a character for a set of children nodes.
func (t *Tree) ancestralState(children []string, char int) character.State {
	s := t.states[children[0]][char]
	if s.IsMissing(t.missing) {
		return character.Scalar(t.missing)
	}
	for _, c := range children[1:] {
		if !t.states[c][char].Equal(s) {
			return character.Scalar(t.missing)
		}
	}
	return s
}
