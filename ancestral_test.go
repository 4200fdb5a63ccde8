// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage_test

import (
	"testing"

	"github.com/js-arias/lineage"
	"github.com/js-arias/lineage/character"
)

func TestReconstructAncestralCharacters(t *testing.T) {
	tr := newTree(t)

	if err := tr.ReconstructAncestralCharacters(); err != nil {
		t.Fatalf("unable to reconstruct states: %v", err)
	}

	// children a = [1, -1, 2] and b = [1, 3, 2]:
	// a missing observation,
	// or any disagreement,
	// makes the ancestor missing
	wp := []character.State{character.Scalar(1), character.Scalar(character.Missing), character.Scalar(2)}
	if g, _ := tr.CharacterStates("p"); !character.Equal(g, wp) {
		t.Errorf("states of %q: got %v, want %v", "p", g, wp)
	}

	// children p = [1, -1, 2] and c = [1, 4, 2]
	wr := []character.State{character.Scalar(1), character.Scalar(character.Missing), character.Scalar(2)}
	if g, _ := tr.CharacterStates("root"); !character.Equal(g, wr) {
		t.Errorf("states of root: got %v, want %v", g, wr)
	}

	// leaf states are never modified
	wb := []character.State{character.Scalar(1), character.Scalar(3), character.Scalar(2)}
	if g, _ := tr.CharacterStates("b"); !character.Equal(g, wb) {
		t.Errorf("states of %q: got %v, want %v", "b", g, wb)
	}
}

func TestReconstructAgreement(t *testing.T) {
	m := character.NewMatrix()
	m.Add("a", []character.State{character.Scalar(7)})
	m.Add("b", []character.State{character.Scalar(7)})
	m.Add("c", []character.State{character.Scalar(7)})

	tr := lineage.New(lineage.Param{CharacterMatrix: m})
	if err := tr.Populate(treeEdges()); err != nil {
		t.Fatalf("unable to populate tree: %v", err)
	}
	if err := tr.ReconstructAncestralCharacters(); err != nil {
		t.Fatalf("unable to reconstruct states: %v", err)
	}

	// all children agree on a non missing state
	w := []character.State{character.Scalar(7)}
	for _, n := range []string{"p", "root"} {
		if g, _ := tr.CharacterStates(n); !character.Equal(g, w) {
			t.Errorf("states of %q: got %v, want %v", n, g, w)
		}
	}
}

func TestReconstructWithoutLeafStates(t *testing.T) {
	tr := lineage.New(lineage.Param{})
	if err := tr.Populate(treeEdges()); err != nil {
		t.Fatalf("unable to populate tree: %v", err)
	}

	if err := tr.ReconstructAncestralCharacters(); err == nil {
		t.Errorf("leaves without states: expecting error")
	}
}
