// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package character provides character state observations
// for cells in a lineage tracing experiment.
//
// A character is a genomic target site
// that records heritable edits (indels)
// as integer coded states.
// An observation is either a single state,
// an ambiguous collection of candidate states,
// or a missing observation
// represented by a caller-defined sentinel value.
package character

import "slices"

// Missing is the default indicator value
// for a missing observation.
const Missing = -1

// A State is the observed outcome of a single character
// in a single cell or reconstructed ancestor.
type State struct {
	v   int
	amb []int
}

// Scalar returns a state with a single value.
func Scalar(v int) State {
	return State{v: v}
}

// Ambiguous returns a state with one or more candidate values.
// The candidates are stored with their multiplicity,
// so a repeated candidate can encode
// the relative abundance of a value
// in the ambiguous observation.
func Ambiguous(vs ...int) State {
	if len(vs) == 0 {
		return Scalar(Missing)
	}
	amb := make([]int, len(vs))
	copy(amb, vs)
	return State{amb: amb}
}

// IsAmbiguous returns true if the state
// has multiple candidate values.
func (s State) IsAmbiguous() bool {
	return s.amb != nil
}

// IsMissing returns true if the state is a scalar
// equal to the given missing indicator.
func (s State) IsMissing(missing int) bool {
	return s.amb == nil && s.v == missing
}

// Value returns the value of a scalar state.
// On an ambiguous state
// it returns the first candidate value.
func (s State) Value() int {
	if s.amb != nil {
		return s.amb[0]
	}
	return s.v
}

// Values returns the candidate values of a state.
// On a scalar state
// it returns a single element slice.
func (s State) Values() []int {
	if s.amb == nil {
		return []int{s.v}
	}
	vs := make([]int, len(s.amb))
	copy(vs, s.amb)
	return vs
}

// Equal returns true if two states are equal.
// Ambiguous states are equal
// if they have the same candidates
// with the same multiplicities,
// without regard to order.
func (s State) Equal(o State) bool {
	if (s.amb == nil) != (o.amb == nil) {
		return false
	}
	if s.amb == nil {
		return s.v == o.v
	}
	if len(s.amb) != len(o.amb) {
		return false
	}
	sc := slices.Clone(s.amb)
	oc := slices.Clone(o.amb)
	slices.Sort(sc)
	slices.Sort(oc)
	return slices.Equal(sc, oc)
}

// Collapse returns a state in which repeated candidates
// of an ambiguous state are removed,
// keeping a single sorted copy of each distinct value.
// Scalar states are returned unchanged.
func (s State) Collapse() State {
	if s.amb == nil {
		return s
	}
	amb := slices.Clone(s.amb)
	slices.Sort(amb)
	amb = slices.Compact(amb)
	return State{amb: amb}
}

// Equal returns true if two state vectors
// have the same length
// and are equal at every position.
func Equal(a, b []State) bool {
	return slices.EqualFunc(a, b, State.Equal)
}

// IsAmbiguous returns true if any position
// of a state vector is ambiguous.
func IsAmbiguous(states []State) bool {
	return slices.ContainsFunc(states, State.IsAmbiguous)
}
