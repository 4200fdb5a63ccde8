// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage_test

import (
	"math"
	"testing"

	"github.com/js-arias/lineage"
	"github.com/js-arias/lineage/character"
	"gonum.org/v1/gonum/floats/scalar"
)

// hamming counts the differing characters
// between two cells,
// ignoring missing observations.
func hamming(s1, s2 []character.State, missing int, weights map[int]map[int]float64) float64 {
	var d float64
	for i := range s1 {
		if s1[i].IsMissing(missing) || s2[i].IsMissing(missing) {
			continue
		}
		if s1[i].Equal(s2[i]) {
			continue
		}
		d++
	}
	return d
}

func TestComputeDissimilarityMap(t *testing.T) {
	tr := newTree(t)

	if err := tr.ComputeDissimilarityMap(hamming, ""); err != nil {
		t.Fatalf("unable to compute dissimilarity: %v", err)
	}
	dm := tr.DissimilarityMap()

	// a = [1, -1, 2], b = [1, 3, 2], c = [1, 4, 2]
	want := map[string]map[string]float64{
		"a": {"a": 0, "b": 0, "c": 0},
		"b": {"a": 0, "b": 0, "c": 1},
		"c": {"a": 0, "b": 1, "c": 0},
	}
	for c1, row := range want {
		for c2, w := range row {
			if g := dm[c1][c2]; g != w {
				t.Errorf("dissimilarity %s-%s: got %.6f, want %.6f", c1, c2, g, w)
			}
		}
	}
}

func TestComputeDissimilarityMapErrors(t *testing.T) {
	tr := lineage.New(lineage.Param{})
	if err := tr.Populate(treeEdges()); err != nil {
		t.Fatalf("unable to populate tree: %v", err)
	}

	if err := tr.ComputeDissimilarityMap(hamming, ""); err == nil {
		t.Errorf("tree without matrix: expecting error")
	}

	tr = newTree(t)
	if err := tr.ComputeDissimilarityMap(nil, ""); err == nil {
		t.Errorf("undefined function: expecting error")
	}
	if g := tr.DissimilarityMap(); g != nil {
		t.Errorf("dissimilarity map: got %v, want nil", g)
	}
}

func TestPriorTransforms(t *testing.T) {
	// a weighted count of the differing characters
	weighted := func(s1, s2 []character.State, missing int, weights map[int]map[int]float64) float64 {
		var d float64
		for i := range s1 {
			if s1[i].IsMissing(missing) || s2[i].IsMissing(missing) {
				continue
			}
			if s1[i].Equal(s2[i]) {
				continue
			}
			d += weights[i][s2[i].Value()]
		}
		return d
	}
	priors := map[int]map[int]float64{
		0: {1: 1},
		1: {3: 0.25, 4: 0.75},
		2: {2: 1},
	}

	tests := map[lineage.PriorTransform]float64{
		// b = [1, 3, 2] vs c = [1, 4, 2]
		// differ only at the second character
		lineage.NegativeLog:       -math.Log(0.75),
		lineage.Inverse:           1 / 0.75,
		lineage.SquareRootInverse: math.Sqrt(1 / 0.75),
	}
	for pt, w := range tests {
		tr := lineage.New(lineage.Param{
			CharacterMatrix: newCellMatrix(),
			Priors:          priors,
		})
		if err := tr.Populate(treeEdges()); err != nil {
			t.Fatalf("unable to populate tree: %v", err)
		}
		if err := tr.ComputeDissimilarityMap(weighted, pt); err != nil {
			t.Fatalf("transform %q: unable to compute dissimilarity: %v", pt, err)
		}
		dm := tr.DissimilarityMap()
		if g := dm["b"]["c"]; !scalar.EqualWithinAbs(g, w, 1e-9) {
			t.Errorf("transform %q: dissimilarity b-c: got %.6f, want %.6f", pt, g, w)
		}
	}

	// an unknown transformation is rejected
	tr := lineage.New(lineage.Param{
		CharacterMatrix: newCellMatrix(),
		Priors:          priors,
	})
	if err := tr.Populate(treeEdges()); err != nil {
		t.Fatalf("unable to populate tree: %v", err)
	}
	if err := tr.ComputeDissimilarityMap(weighted, "exponential"); err == nil {
		t.Errorf("unknown transform: expecting error")
	}
}

func TestSetDissimilarityMap(t *testing.T) {
	tr := newTree(t)

	var warned string
	warn := lineage.Warn
	lineage.Warn = func(msg string) { warned = msg }
	defer func() { lineage.Warn = warn }()

	dm := map[string]map[string]float64{
		"a": {"b": 1, "c": 2},
		"b": {"a": 1, "c": 2},
		"c": {"a": 2, "b": 2},
	}
	tr.SetDissimilarityMap(dm)
	if warned != "" {
		t.Errorf("matching samples: unexpected warning %q", warned)
	}
	if g := tr.DissimilarityMap()["a"]["c"]; g != 2 {
		t.Errorf("dissimilarity a-c: got %.6f, want %.6f", g, 2.0)
	}

	// the stored map is a copy
	dm["a"]["c"] = 100
	if g := tr.DissimilarityMap()["a"]["c"]; g != 2 {
		t.Errorf("dissimilarity a-c after change: got %.6f, want %.6f", g, 2.0)
	}

	// a sample mismatch is advisory, not an error
	tr.SetDissimilarityMap(map[string]map[string]float64{
		"a": {"x": 1},
		"x": {"a": 1},
	})
	if warned == "" {
		t.Errorf("mismatched samples: expecting a warning")
	}
	if g := tr.DissimilarityMap()["a"]["x"]; g != 1 {
		t.Errorf("dissimilarity a-x: got %.6f, want %.6f", g, 1.0)
	}
}

func TestComputeDissimilarityAmbiguousWarning(t *testing.T) {
	tr := newAmbiguousTree(t)

	var warned string
	warn := lineage.Warn
	lineage.Warn = func(msg string) { warned = msg }
	defer func() { lineage.Warn = warn }()

	if err := tr.ComputeDissimilarityMap(hamming, ""); err != nil {
		t.Fatalf("unable to compute dissimilarity: %v", err)
	}
	if warned == "" {
		t.Errorf("ambiguous matrix: expecting a warning")
	}
}
