// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/js-arias/lineage"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestSetTime(t *testing.T) {
	tr := newTree(t)

	if err := tr.SetTime("p", 1.5); err != nil {
		t.Fatalf("unable to set time: %v", err)
	}
	if g, _ := tr.Time("p"); g != 1.5 {
		t.Errorf("time of %q: got %.6f, want %.6f", "p", g, 1.5)
	}

	// the branch into the node,
	// and the branches out of the node,
	// absorb the change
	if g, _ := tr.BranchLength("root", "p"); g != 1.5 {
		t.Errorf("length of root-p: got %.6f, want %.6f", g, 1.5)
	}
	if g, _ := tr.BranchLength("p", "a"); g != 0.5 {
		t.Errorf("length of p-a: got %.6f, want %.6f", g, 0.5)
	}
	if g, _ := tr.Time("a"); g != 2 {
		t.Errorf("time of %q: got %.6f, want %.6f", "a", g, 2.0)
	}
	testConsistent(t, "set time", tr)
}

func TestSetTimeErrors(t *testing.T) {
	tr := newTree(t)

	if err := tr.SetTime("nope", 1); !errors.Is(err, lineage.ErrUnknownNode) {
		t.Errorf("unknown node: got error %v, want %v", err, lineage.ErrUnknownNode)
	}
	// before the parent
	if err := tr.SetTime("a", 0.5); !errors.Is(err, lineage.ErrInvalidTime) {
		t.Errorf("time before parent: got error %v, want %v", err, lineage.ErrInvalidTime)
	}
	// after a child
	if err := tr.SetTime("p", 3); !errors.Is(err, lineage.ErrInvalidTime) {
		t.Errorf("time after child: got error %v, want %v", err, lineage.ErrInvalidTime)
	}
	// negative root time
	if err := tr.SetTime("root", -1); !errors.Is(err, lineage.ErrInvalidTime) {
		t.Errorf("negative root time: got error %v, want %v", err, lineage.ErrInvalidTime)
	}

	wantTimes := map[string]float64{"root": 0, "p": 1, "c": 1, "a": 2, "b": 2}
	if g, _ := tr.Times(); !reflect.DeepEqual(g, wantTimes) {
		t.Errorf("times after failed updates: got %v, want %v", g, wantTimes)
	}
}

func TestSetTimes(t *testing.T) {
	tr := newTree(t)

	times := map[string]float64{"p": 0.5, "a": 3, "b": 2.5}
	if err := tr.SetTimes(times); err != nil {
		t.Fatalf("unable to set times: %v", err)
	}

	wantTimes := map[string]float64{"root": 0, "p": 0.5, "c": 1, "a": 3, "b": 2.5}
	if g, _ := tr.Times(); !reflect.DeepEqual(g, wantTimes) {
		t.Errorf("times: got %v, want %v", g, wantTimes)
	}
	if g, _ := tr.BranchLength("p", "a"); g != 2.5 {
		t.Errorf("length of p-a: got %.6f, want %.6f", g, 2.5)
	}
	// a node absent from the map keeps its time
	if g, _ := tr.BranchLength("root", "c"); g != 1 {
		t.Errorf("length of root-c: got %.6f, want %.6f", g, 1.0)
	}
	testConsistent(t, "set times", tr)
}

func TestSetTimesErrors(t *testing.T) {
	tr := newTree(t)

	if err := tr.SetTimes(map[string]float64{"nope": 1}); !errors.Is(err, lineage.ErrUnknownNode) {
		t.Errorf("unknown node: got error %v, want %v", err, lineage.ErrUnknownNode)
	}

	// an inverted edge fails,
	// and the tree is left unchanged,
	// even if other assignments were valid
	times := map[string]float64{"p": 0.5, "a": 0.2}
	if err := tr.SetTimes(times); !errors.Is(err, lineage.ErrInvalidTime) {
		t.Errorf("inverted edge: got error %v, want %v", err, lineage.ErrInvalidTime)
	}
	wantTimes := map[string]float64{"root": 0, "p": 1, "c": 1, "a": 2, "b": 2}
	if g, _ := tr.Times(); !reflect.DeepEqual(g, wantTimes) {
		t.Errorf("times after failed update: got %v, want %v", g, wantTimes)
	}
	if g, _ := tr.BranchLength("root", "p"); g != 1 {
		t.Errorf("length of root-p after failed update: got %.6f, want %.6f", g, 1.0)
	}
}

func TestSetBranchLength(t *testing.T) {
	tr := newTree(t)

	if err := tr.SetBranchLength("root", "p", 4); err != nil {
		t.Fatalf("unable to set branch length: %v", err)
	}
	if g, _ := tr.BranchLength("root", "p"); g != 4 {
		t.Errorf("length of root-p: got %.6f, want %.6f", g, 4.0)
	}

	// the whole subtree shifts with the child
	if g, _ := tr.Time("p"); g != 4 {
		t.Errorf("time of %q: got %.6f, want %.6f", "p", g, 4.0)
	}
	if g, _ := tr.Time("a"); g != 5 {
		t.Errorf("time of %q: got %.6f, want %.6f", "a", g, 5.0)
	}
	if g, _ := tr.Time("c"); g != 1 {
		t.Errorf("time of %q: got %.6f, want %.6f", "c", g, 1.0)
	}
	testConsistent(t, "set branch length", tr)

	if err := tr.SetBranchLength("root", "a", 1); !errors.Is(err, lineage.ErrUnknownEdge) {
		t.Errorf("unknown edge: got error %v, want %v", err, lineage.ErrUnknownEdge)
	}
	if err := tr.SetBranchLength("root", "p", -1); err == nil {
		t.Errorf("negative length: expecting error")
	}
	if _, err := tr.BranchLength("a", "p"); !errors.Is(err, lineage.ErrUnknownEdge) {
		t.Errorf("branch length: got error %v, want %v", err, lineage.ErrUnknownEdge)
	}
}

func TestSetBranchLengths(t *testing.T) {
	tr := newTree(t)

	lengths := map[lineage.Edge]float64{
		{Parent: "root", Child: "p"}: 2,
		{Parent: "p", Child: "a"}:    0.5,
	}
	if err := tr.SetBranchLengths(lengths); err != nil {
		t.Fatalf("unable to set branch lengths: %v", err)
	}

	wantTimes := map[string]float64{"root": 0, "p": 2, "c": 1, "a": 2.5, "b": 3}
	if g, _ := tr.Times(); !reflect.DeepEqual(g, wantTimes) {
		t.Errorf("times: got %v, want %v", g, wantTimes)
	}
	testConsistent(t, "set branch lengths", tr)

	// errors leave the tree unchanged
	bad := map[lineage.Edge]float64{
		{Parent: "root", Child: "c"}: 3,
		{Parent: "p", Child: "b"}:    -1,
	}
	if err := tr.SetBranchLengths(bad); err == nil {
		t.Errorf("negative length: expecting error")
	}
	if g, _ := tr.BranchLength("root", "c"); g != 1 {
		t.Errorf("length of root-c after failed update: got %.6f, want %.6f", g, 1.0)
	}
}

func TestDepth(t *testing.T) {
	tr := newTree(t)

	if err := tr.SetTime("c", 4); err != nil {
		t.Fatalf("unable to set time: %v", err)
	}

	// leaves at times 2, 2, and 4
	if g, err := tr.MeanDepth(); err != nil || !scalar.EqualWithinAbs(g, 8.0/3, 1e-9) {
		t.Errorf("mean depth: got %.6f (err %v), want %.6f", g, err, 8.0/3)
	}
	if g, err := tr.MaxDepth(); err != nil || g != 4 {
		t.Errorf("max depth: got %.6f (err %v), want %.6f", g, err, 4.0)
	}
}
