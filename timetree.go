// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"fmt"
	"strconv"

	"github.com/js-arias/timetree"
)

// millionYears is the age unit of a timetree
// relative to the time unit of a lineage tree.
const millionYears = 1_000_000

// FromTimetree creates a new tree
// from a time calibrated tree
// (for example a tree read from a newick file
// or from a TSV tree collection).
//
// Node identifiers are forced to strings:
// a named node uses its taxon name,
// and any other node uses its numeric ID.
// Ages (in years before present)
// are translated to times in million years
// from the root.
func FromTimetree(src *timetree.Tree, p Param) (*Tree, error) {
	ids := make(map[int]string)
	seen := make(map[string]bool)
	rootAge := src.Age(src.Root())

	nodes := src.Nodes()
	for _, id := range nodes {
		n := src.Taxon(id)
		if n == "" {
			n = strconv.Itoa(id)
		}
		if seen[n] {
			return nil, fmt.Errorf("from timetree %q: node %q: duplicate name", src.Name(), n)
		}
		seen[n] = true
		ids[id] = n
	}

	var edges []Edge
	times := make(map[string]float64, len(nodes))
	for _, id := range nodes {
		times[ids[id]] = float64(rootAge-src.Age(id)) / millionYears
		if src.IsRoot(id) {
			continue
		}
		edges = append(edges, Edge{
			Parent: ids[src.Parent(id)],
			Child:  ids[id],
		})
	}

	t := New(p)
	if err := t.Populate(edges); err != nil {
		return nil, fmt.Errorf("from timetree %q: %v", src.Name(), err)
	}
	if err := t.SetTimes(times); err != nil {
		return nil, fmt.Errorf("from timetree %q: %v", src.Name(), err)
	}
	return t, nil
}
