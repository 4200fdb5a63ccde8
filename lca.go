// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat/combin"
)

// LCAsOfPairs returns the lowest common ancestor
// of each given pair of nodes.
// If the pair list is nil,
// the LCA of every unordered pair of nodes is returned.
// All the answers are computed
// in a single walk over the tree
// (the offline algorithm of Tarjan).
func (t *Tree) LCAsOfPairs(pairs [][2]string) (map[[2]string]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("lcas of pairs: %w", ErrTreeNoInit)
	}

	if pairs == nil {
		nodes := t.nodes()
		pairs = make([][2]string, 0, combin.Binomial(len(nodes), 2))
		gen := combin.NewCombinationGenerator(len(nodes), 2)
		for gen.Next() {
			c := gen.Combination(nil)
			pairs = append(pairs, [2]string{nodes[c[0]], nodes[c[1]]})
		}
	}
	for _, p := range pairs {
		for _, n := range p {
			if _, ok := t.children[n]; !ok {
				return nil, fmt.Errorf("lcas of pairs: node %q: %w", n, ErrUnknownNode)
			}
		}
	}

	queries := make(map[string][]int)
	for i, p := range pairs {
		queries[p[0]] = append(queries[p[0]], i)
		queries[p[1]] = append(queries[p[1]], i)
	}

	uf := newUnionFind()
	anc := make(map[string]string, len(t.children))
	visited := make(map[string]bool, len(t.children))
	lcas := make(map[[2]string]string, len(pairs))

	var walk func(n string)
	walk = func(n string) {
		uf.add(n)
		anc[uf.find(n)] = n
		for _, c := range t.children[n] {
			walk(c)
			uf.union(n, c)
			anc[uf.find(n)] = n
		}
		visited[n] = true

		for _, i := range queries[n] {
			p := pairs[i]
			o := p[0]
			if o == n {
				o = p[1]
			}
			if o == n {
				// a pair of a node with itself
				lcas[p] = n
				continue
			}
			if visited[o] {
				lcas[p] = anc[uf.find(o)]
			}
		}
	}
	walk(t.root())

	return lcas, nil
}

// LCA returns the lowest common ancestor
// of two or more distinct nodes.
// The node set is reduced iteratively:
// the LCAs of all pairs of the set
// replace the set,
// until a single node remains.
func (t *Tree) LCA(nodes ...string) (string, error) {
	if !t.isInit() {
		return "", fmt.Errorf("lca: %w", ErrTreeNoInit)
	}

	set := slices.Clone(nodes)
	slices.Sort(set)
	set = slices.Compact(set)
	if len(set) < 2 {
		return "", fmt.Errorf("lca: at least two distinct nodes required")
	}

	for len(set) > 1 {
		pairs := make([][2]string, 0, combin.Binomial(len(set), 2))
		gen := combin.NewCombinationGenerator(len(set), 2)
		for gen.Next() {
			c := gen.Combination(nil)
			pairs = append(pairs, [2]string{set[c[0]], set[c[1]]})
		}
		lcas, err := t.LCAsOfPairs(pairs)
		if err != nil {
			return "", fmt.Errorf("lca: %v", err)
		}

		set = set[:0]
		for _, l := range lcas {
			set = append(set, l)
		}
		slices.Sort(set)
		set = slices.Compact(set)
	}
	return set[0], nil
}

// Distance returns the distance between two nodes,
// measured as the time from each node
// to their lowest common ancestor.
func (t *Tree) Distance(n1, n2 string) (float64, error) {
	if !t.isInit() {
		return 0, fmt.Errorf("distance: %w", ErrTreeNoInit)
	}
	for _, n := range []string{n1, n2} {
		if _, ok := t.children[n]; !ok {
			return 0, fmt.Errorf("distance: node %q: %w", n, ErrUnknownNode)
		}
	}

	if d, ok := t.c.distances[n1][n2]; ok {
		return d, nil
	}

	var d float64
	if n1 != n2 {
		lca, err := t.LCA(n1, n2)
		if err != nil {
			return 0, fmt.Errorf("distance: %v", err)
		}
		d = (t.time[n1] - t.time[lca]) + (t.time[n2] - t.time[lca])
	}

	if t.c.distances == nil {
		t.c.distances = make(map[string]map[string]float64)
	}
	if t.c.distances[n1] == nil {
		t.c.distances[n1] = make(map[string]float64)
	}
	if t.c.distances[n2] == nil {
		t.c.distances[n2] = make(map[string]float64)
	}
	t.c.distances[n1][n2] = d
	t.c.distances[n2][n1] = d
	return d, nil
}

// Distances returns the distance from a node
// to every other node of the tree,
// computed with a single walk
// over each subtree:
// first down to all the descendants of the node,
// and then up through each ancestor
// and down into the other subtrees of that ancestor.
// If leavesOnly is true,
// only the distances to the leaves are returned.
func (t *Tree) Distances(node string, leavesOnly bool) (map[string]float64, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("distances: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return nil, fmt.Errorf("distances: node %q: %w", node, ErrUnknownNode)
	}

	dist := t.c.distances[node]
	if len(dist) < len(t.children) {
		dist = make(map[string]float64, len(t.children))
		nodeTime := t.time[node]
		for _, d := range t.preOrder(node) {
			dist[d] = t.time[d] - nodeTime
		}
		for _, anc := range t.ancestors(node) {
			ancTime := t.time[anc]
			ancDist := nodeTime - ancTime
			dist[anc] = ancDist
			for _, d := range t.preOrder(anc) {
				if _, ok := dist[d]; ok {
					continue
				}
				dist[d] = ancDist + (t.time[d] - ancTime)
			}
		}

		if t.c.distances == nil {
			t.c.distances = make(map[string]map[string]float64)
		}
		t.c.distances[node] = dist
	}

	res := make(map[string]float64, len(dist))
	for n, d := range dist {
		if leavesOnly && len(t.children[n]) > 0 {
			continue
		}
		res[n] = d
	}
	return res, nil
}

// A unionFind is a disjoint set forest
// over string labeled elements,
// with union by rank
// and path compression.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[string]string),
		rank:   make(map[string]int),
	}
}

func (u *unionFind) add(x string) {
	u.parent[x] = x
}

func (u *unionFind) find(x string) string {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(x, y string) {
	rx := u.find(x)
	ry := u.find(y)
	if rx == ry {
		return
	}
	if u.rank[rx] < u.rank[ry] {
		rx, ry = ry, rx
	}
	u.parent[ry] = rx
	if u.rank[rx] == u.rank[ry] {
		u.rank[rx]++
	}
}
