// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"fmt"
	"strconv"
	"strings"
)

// Newick returns the tree
// in newick (parenthetical) format.
// If branchLengths is true,
// the length of each branch
// is written after its child node.
//
// As the comma is the node separator of the format,
// no node name can contain a comma;
// a tree with such a name
// can not be serialized.
func (t *Tree) Newick(branchLengths bool) (string, error) {
	if !t.isInit() {
		return "", fmt.Errorf("newick: %w", ErrTreeNoInit)
	}
	for n := range t.children {
		if strings.ContainsRune(n, ',') {
			return "", fmt.Errorf("newick: node %q: name with a comma", n)
		}
	}

	var sb strings.Builder
	var write func(n string)
	write = func(n string) {
		if desc := t.children[n]; len(desc) > 0 {
			sb.WriteByte('(')
			for i, c := range desc {
				if i > 0 {
					sb.WriteByte(',')
				}
				write(c)
			}
			sb.WriteByte(')')
		}
		sb.WriteString(n)
		p, ok := t.parent[n]
		if ok && branchLengths {
			sb.WriteByte(':')
			sb.WriteString(strconv.FormatFloat(t.length[edge{p, n}], 'f', -1, 64))
		}
	}
	write(t.root())
	sb.WriteByte(';')

	return sb.String(), nil
}
