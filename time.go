// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Time returns the time of a node,
// defined as the sum of branch lengths
// from the root to the node.
func (t *Tree) Time(node string) (float64, error) {
	if !t.isInit() {
		return 0, fmt.Errorf("time: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return 0, fmt.Errorf("time: node %q: %w", node, ErrUnknownNode)
	}
	return t.time[node], nil
}

// Times returns the time of every node of the tree.
func (t *Tree) Times() (map[string]float64, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("times: %w", ErrTreeNoInit)
	}
	times := make(map[string]float64, len(t.time))
	for n, v := range t.time {
		times[n] = v
	}
	return times, nil
}

// SetTime sets the time of a node,
// keeping the tree consistent:
// the length of the branch into the node,
// and of every branch out of the node,
// is updated to match the new time.
//
// The new time must not be smaller
// than the time of the parent,
// nor greater than the time of any child.
func (t *Tree) SetTime(node string, age float64) error {
	if !t.isInit() {
		return fmt.Errorf("set time: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return fmt.Errorf("set time: node %q: %w", node, ErrUnknownNode)
	}

	p, hasParent := t.parent[node]
	if hasParent {
		if age < t.time[p] {
			return fmt.Errorf("set time: node %q: time %g before parent %q at %g: %w", node, age, p, t.time[p], ErrInvalidTime)
		}
	} else if age < 0 {
		return fmt.Errorf("set time: node %q: negative root time %g: %w", node, age, ErrInvalidTime)
	}
	for _, c := range t.children[node] {
		if age > t.time[c] {
			return fmt.Errorf("set time: node %q: time %g after child %q at %g: %w", node, age, c, t.time[c], ErrInvalidTime)
		}
	}

	t.time[node] = age
	if hasParent {
		t.length[edge{p, node}] = age - t.time[p]
	}
	for _, c := range t.children[node] {
		t.length[edge{node, c}] = t.time[c] - age
	}
	t.c.clearDistances()
	return nil
}

// SetTimes sets the time of multiple nodes at once,
// updating every branch length
// to match the new times.
// For any branch with both ends in the map,
// the time of the parent
// must not be greater than the time of the child.
// On any error the tree is left unchanged.
//
// A node absent from the map keeps its stored time,
// which is used when updating the branches
// to and from that node.
func (t *Tree) SetTimes(times map[string]float64) error {
	if !t.isInit() {
		return fmt.Errorf("set times: %w", ErrTreeNoInit)
	}
	for n := range times {
		if _, ok := t.children[n]; !ok {
			return fmt.Errorf("set times: node %q: %w", n, ErrUnknownNode)
		}
	}

	timeOf := func(n string) float64 {
		if v, ok := times[n]; ok {
			return v
		}
		return t.time[n]
	}
	lengths := make(map[edge]float64, len(t.length))
	for e := range t.length {
		pt := timeOf(e.parent)
		ct := timeOf(e.child)
		if pt > ct {
			return fmt.Errorf("set times: edge %q-%q: parent at %g after child at %g: %w", e.parent, e.child, pt, ct, ErrInvalidTime)
		}
		lengths[e] = ct - pt
	}

	t.length = lengths
	for n, v := range times {
		t.time[n] = v
	}
	t.c.clearDistances()
	return nil
}

// BranchLength returns the length of the branch
// between a parent and a child node.
func (t *Tree) BranchLength(parent, child string) (float64, error) {
	if !t.isInit() {
		return 0, fmt.Errorf("branch length: %w", ErrTreeNoInit)
	}
	l, ok := t.length[edge{parent, child}]
	if !ok {
		return 0, fmt.Errorf("branch length: edge %q-%q: %w", parent, child, ErrUnknownEdge)
	}
	return l, nil
}

// SetBranchLength sets the length of the branch
// between a parent and a child node,
// keeping the tree consistent:
// the time of the child,
// and of every node below it,
// is updated to match the new length.
// The length must not be negative.
func (t *Tree) SetBranchLength(parent, child string, length float64) error {
	if !t.isInit() {
		return fmt.Errorf("set branch length: %w", ErrTreeNoInit)
	}
	if _, ok := t.length[edge{parent, child}]; !ok {
		return fmt.Errorf("set branch length: edge %q-%q: %w", parent, child, ErrUnknownEdge)
	}
	if length < 0 {
		return fmt.Errorf("set branch length: edge %q-%q: negative length %g", parent, child, length)
	}

	t.length[edge{parent, child}] = length
	t.time[child] = t.time[parent] + length
	t.updateTimes(child)
	t.c.clearDistances()
	return nil
}

// SetBranchLengths sets the length of multiple branches at once,
// and then updates the time of every node of the tree
// to match the new lengths.
// Every branch must exist
// and no length can be negative;
// on any error the tree is left unchanged.
func (t *Tree) SetBranchLengths(lengths map[Edge]float64) error {
	if !t.isInit() {
		return fmt.Errorf("set branch lengths: %w", ErrTreeNoInit)
	}
	for e, l := range lengths {
		if _, ok := t.length[edge{e.Parent, e.Child}]; !ok {
			return fmt.Errorf("set branch lengths: edge %q-%q: %w", e.Parent, e.Child, ErrUnknownEdge)
		}
		if l < 0 {
			return fmt.Errorf("set branch lengths: edge %q-%q: negative length %g", e.Parent, e.Child, l)
		}
	}

	for e, l := range lengths {
		t.length[edge{e.Parent, e.Child}] = l
	}
	t.updateTimes(t.root())
	t.c.clearDistances()
	return nil
}

// MeanDepth returns the mean time of the leaves of the tree.
func (t *Tree) MeanDepth() (float64, error) {
	if !t.isInit() {
		return 0, fmt.Errorf("mean depth: %w", ErrTreeNoInit)
	}
	return stat.Mean(t.leafDepths(), nil), nil
}

// MaxDepth returns the maximum time of a leaf of the tree.
func (t *Tree) MaxDepth() (float64, error) {
	if !t.isInit() {
		return 0, fmt.Errorf("max depth: %w", ErrTreeNoInit)
	}
	return floats.Max(t.leafDepths()), nil
}

func (t *Tree) leafDepths() []float64 {
	leaves := t.leaves()
	depths := make([]float64, len(leaves))
	for i, l := range leaves {
		depths[i] = t.time[l]
	}
	return depths
}

func (t *Tree) updateTimes(source string) {
	for _, n := range t.preOrder(source) {
		for _, c := range t.children[n] {
			t.time[c] = t.time[n] + t.length[edge{n, c}]
		}
	}
}
