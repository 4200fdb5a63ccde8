// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"fmt"
	"math"
	"slices"

	"github.com/js-arias/lineage/character"
)

// AddLeaf adds a new leaf as a child of the given parent node.
// The parent can not be a leaf itself.
//
// The new leaf starts at the time of its parent
// (i.e. with a zero length branch);
// use SetTime or SetBranchLength to place it.
// If the tree has leaf data,
// the new leaf is registered with default values:
// an all missing character row,
// an empty metadata entry,
// and infinite dissimilarity to every other leaf.
func (t *Tree) AddLeaf(parent, node string) error {
	if !t.isInit() {
		return fmt.Errorf("add leaf: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; ok {
		return fmt.Errorf("add leaf: node %q already in tree", node)
	}
	if node == "" {
		return fmt.Errorf("add leaf: empty node name")
	}
	if _, ok := t.children[parent]; !ok {
		return fmt.Errorf("add leaf: node %q: %w", parent, ErrUnknownNode)
	}
	if len(t.children[parent]) == 0 {
		return fmt.Errorf("add leaf: node %q is a leaf", parent)
	}

	t.children[parent] = append(t.children[parent], node)
	t.children[node] = nil
	t.parent[node] = parent
	t.length[edge{parent, node}] = 0
	t.time[node] = t.time[parent]
	t.states[node] = nil

	t.c.clear()
	t.registerData()
	return nil
}

// RemoveLeafAndPruneLineage removes a leaf from the tree,
// and then removes every ancestor
// that was left without descendant leaves,
// up to the first ancestor that keeps a child
// (or the root).
// All leaf data of the removed leaf
// is removed from the tree.
//
// Removing the last node of a tree
// leaves the tree uninitialized.
func (t *Tree) RemoveLeafAndPruneLineage(node string) error {
	if !t.isInit() {
		return fmt.Errorf("remove leaf: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return fmt.Errorf("remove leaf: node %q: %w", node, ErrUnknownNode)
	}
	if len(t.children[node]) > 0 {
		return fmt.Errorf("remove leaf: node %q is not a leaf", node)
	}

	if len(t.children) == 1 {
		t.parent = nil
		t.children = nil
		t.time = nil
		t.length = nil
		t.states = nil
		t.attr = nil
		t.c.clear()
		return nil
	}

	curr := t.parent[node]
	t.removeNode(node)
	for len(t.children[curr]) == 0 {
		p, ok := t.parent[curr]
		if !ok {
			break
		}
		t.removeNode(curr)
		curr = p
	}

	t.c.clear()
	t.registerData()
	return nil
}

// CollapseUnifurcations removes the internal nodes
// with a single child
// in the subtree rooted at the source node,
// connecting the parent of each removed node
// directly to its child
// with a branch length equal to the sum
// of the two removed branches,
// so the times of all surviving nodes are preserved.
// If the source is empty,
// the whole tree is collapsed.
//
// If the source node itself has a single child,
// and that child is internal,
// the child is removed
// and the source is connected to its grandchildren.
// Leaves are never removed.
func (t *Tree) CollapseUnifurcations(source string) error {
	if !t.isInit() {
		return fmt.Errorf("collapse unifurcations: %w", ErrTreeNoInit)
	}
	if source == "" {
		source = t.root()
	}
	if _, ok := t.children[source]; !ok {
		return fmt.Errorf("collapse unifurcations: node %q: %w", source, ErrUnknownNode)
	}

	for _, n := range t.postOrder(source) {
		if len(t.children[n]) != 1 {
			continue
		}
		if n == source {
			// the source has no usable parent:
			// remove its only child instead
			c := t.children[n][0]
			if len(t.children[c]) == 0 {
				continue
			}
			l := t.length[edge{n, c}]
			for _, gc := range slices.Clone(t.children[c]) {
				t.rehome(c, gc, n, l+t.length[edge{c, gc}])
			}
			t.removeNode(c)
			continue
		}

		p := t.parent[n]
		c := t.children[n][0]
		t.rehome(n, c, p, t.length[edge{p, n}]+t.length[edge{n, c}])
		t.removeNode(n)
	}

	t.c.clear()
	return nil
}

// CollapseMutationlessEdges removes the internal nodes
// whose character states are identical
// to the states of their parent,
// connecting the parent directly to the children
// of each removed node
// with summed branch lengths,
// so the times of all surviving nodes are preserved.
// Leaves are never removed.
//
// If inferAncestral is true,
// the internal states are first reconstructed
// with ReconstructAncestralCharacters.
func (t *Tree) CollapseMutationlessEdges(inferAncestral bool) error {
	if !t.isInit() {
		return fmt.Errorf("collapse mutationless edges: %w", ErrTreeNoInit)
	}
	if inferAncestral {
		if err := t.ReconstructAncestralCharacters(); err != nil {
			return fmt.Errorf("collapse mutationless edges: %v", err)
		}
	}

	for _, n := range t.postOrder(t.root()) {
		if len(t.children[n]) == 0 {
			continue
		}
		for _, c := range slices.Clone(t.children[n]) {
			if len(t.children[c]) == 0 {
				continue
			}
			if !character.Equal(t.states[n], t.states[c]) {
				continue
			}
			l := t.length[edge{n, c}]
			for _, gc := range slices.Clone(t.children[c]) {
				t.rehome(c, gc, n, l+t.length[edge{c, gc}])
			}
			t.removeNode(c)
		}
	}

	t.c.clear()
	return nil
}

// rehome moves a child node from its current parent
// to a new parent,
// with the given branch length.
func (t *Tree) rehome(parent, child, newParent string, length float64) {
	ci := slices.Index(t.children[parent], child)
	t.children[parent] = slices.Delete(t.children[parent], ci, ci+1)
	delete(t.length, edge{parent, child})

	t.children[newParent] = append(t.children[newParent], child)
	t.parent[child] = newParent
	t.length[edge{newParent, child}] = length
}

// removeNode removes a node without children
// (or whose children were already moved away)
// from all the internal maps of the tree.
func (t *Tree) removeNode(n string) {
	if p, ok := t.parent[n]; ok {
		ci := slices.Index(t.children[p], n)
		t.children[p] = slices.Delete(t.children[p], ci, ci+1)
		delete(t.length, edge{p, n})
		delete(t.parent, n)
	}
	delete(t.children, n)
	delete(t.time, n)
	delete(t.states, n)
	delete(t.attr, n)
}

// registerData keeps the leaf indexed data of the tree
// in sync with the current leaf set:
// rows for removed leaves are dropped,
// and new leaves get default values
// (an all missing character row,
// an empty metadata entry,
// and infinite dissimilarity to every other leaf).
func (t *Tree) registerData() {
	leaves := make(map[string]bool)
	for _, l := range t.leaves() {
		leaves[l] = true
	}

	if t.current != nil && t.current.Characters() > 0 {
		for _, c := range t.current.Cells() {
			if !leaves[c] {
				t.current.Drop(c)
			}
		}
		nc := t.current.Characters()
		for l := range leaves {
			if t.current.HasCell(l) {
				continue
			}
			row := make([]character.State, nc)
			for i := range row {
				row[i] = character.Scalar(t.missing)
			}
			t.states[l] = slices.Clone(row)
			t.current.Add(l, row)
		}
	}

	if t.cellMeta != nil {
		for _, k := range t.cellMeta.Keys() {
			if !leaves[k] {
				t.cellMeta.Drop(k)
			}
		}
		for l := range leaves {
			t.cellMeta.AddKey(l)
		}
	}

	if t.dis != nil {
		for c := range t.dis {
			if !leaves[c] {
				delete(t.dis, c)
				continue
			}
			for o := range t.dis[c] {
				if !leaves[o] {
					delete(t.dis[c], o)
				}
			}
		}
		for l := range leaves {
			if _, ok := t.dis[l]; ok {
				continue
			}
			row := make(map[string]float64, len(leaves))
			for o := range t.dis {
				if o == l {
					continue
				}
				row[o] = math.Inf(1)
				t.dis[o][l] = math.Inf(1)
			}
			row[l] = 0
			t.dis[l] = row
		}
	}
}
