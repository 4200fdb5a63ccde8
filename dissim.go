// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"errors"
	"fmt"
	"math"

	"github.com/js-arias/lineage/character"
)

// A DissimFunc scores the dissimilarity
// between the character state vectors
// of two cells.
// The missing value is the indicator
// for a missing observation,
// and weights is an optional table
// of transformed prior probabilities
// (character -> state -> weight)
// that the function may use
// to weight the shared or differing states.
type DissimFunc func(s1, s2 []character.State, missing int, weights map[int]map[int]float64) float64

// A PriorTransform is a transformation
// applied to the prior probabilities of the tree
// to build the weights
// used by a dissimilarity function.
type PriorTransform string

// Valid prior transformations.
const (
	// Weight each probability by its negative logarithm.
	NegativeLog PriorTransform = "negative_log"

	// Weight each probability p by 1/p.
	Inverse PriorTransform = "inverse"

	// Weight each probability p by the square root of 1/p.
	SquareRootInverse PriorTransform = "square_root_inverse"
)

// SetDissimilarityMap stores a pairwise dissimilarity map
// for the cells of the tree.
// If the samples of the map
// do not agree with the cells
// of the current character matrix,
// an advisory warning is emitted
// and the map is stored anyway.
func (t *Tree) SetDissimilarityMap(dm map[string]map[string]float64) {
	if t.current != nil {
		match := t.current.Len() == len(dm)
		if match {
			for _, c := range t.current.Cells() {
				if _, ok := dm[c]; !ok {
					match = false
					break
				}
			}
		}
		if !match {
			Warn("samples in the character matrix and the dissimilarity map do not agree")
		}
	}

	nd := make(map[string]map[string]float64, len(dm))
	for c, row := range dm {
		nr := make(map[string]float64, len(row))
		for o, d := range row {
			nr[o] = d
		}
		nd[c] = nr
	}
	t.dis = nd
}

// DissimilarityMap returns a copy
// of the pairwise dissimilarity map of the tree,
// or nil if no map was stored or computed.
func (t *Tree) DissimilarityMap() map[string]map[string]float64 {
	if t.dis == nil {
		return nil
	}
	dm := make(map[string]map[string]float64, len(t.dis))
	for c, row := range t.dis {
		nr := make(map[string]float64, len(row))
		for o, d := range row {
			nr[o] = d
		}
		dm[c] = nr
	}
	return dm
}

// ComputeDissimilarityMap computes the pairwise dissimilarity
// between every pair of cells
// of the current character matrix,
// using the given dissimilarity function,
// and stores the resulting map on the tree.
// If the tree has priors,
// they are transformed with the given prior transformation
// and passed to the dissimilarity function as weights.
// An advisory warning is emitted
// if the matrix contains ambiguous states.
func (t *Tree) ComputeDissimilarityMap(fn DissimFunc, pt PriorTransform) error {
	if t.current == nil {
		return errors.New("compute dissimilarity map: character matrix not defined")
	}
	if fn == nil {
		return errors.New("compute dissimilarity map: undefined dissimilarity function")
	}
	if t.current.IsAmbiguous() {
		Warn("character matrix contains ambiguous states")
	}

	var weights map[int]map[int]float64
	if t.priors != nil {
		var err error
		weights, err = transformPriors(t.priors, pt)
		if err != nil {
			return fmt.Errorf("compute dissimilarity map: %v", err)
		}
	}

	cells := t.current.Cells()
	dm := make(map[string]map[string]float64, len(cells))
	for _, c := range cells {
		dm[c] = make(map[string]float64, len(cells))
		dm[c][c] = 0
	}
	for i, c1 := range cells {
		s1 := t.current.States(c1)
		for _, c2 := range cells[i+1:] {
			d := fn(s1, t.current.States(c2), t.missing, weights)
			dm[c1][c2] = d
			dm[c2][c1] = d
		}
	}
	t.dis = dm
	return nil
}

// transformPriors builds the weights
// used by a dissimilarity function
// from the prior probabilities of the tree.
func transformPriors(priors map[int]map[int]float64, pt PriorTransform) (map[int]map[int]float64, error) {
	var fn func(p float64) float64
	switch pt {
	case NegativeLog:
		fn = func(p float64) float64 { return -math.Log(p) }
	case Inverse:
		fn = func(p float64) float64 { return 1 / p }
	case SquareRootInverse:
		fn = func(p float64) float64 { return math.Sqrt(1 / p) }
	default:
		return nil, fmt.Errorf("unknown prior transformation %q", pt)
	}

	weights := make(map[int]map[int]float64, len(priors))
	for c, sp := range priors {
		w := make(map[int]float64, len(sp))
		for s, p := range sp {
			w[s] = fn(p)
		}
		weights[c] = w
	}
	return weights, nil
}
