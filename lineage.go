// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package lineage provides a phylogenetic tree
// for cell lineage tracing experiments.
//
// The tree is rooted,
// nodes are identified by unique strings
// and store a vector of character states
// (see package character)
// and a time
// (the distance from the root
// measured as the sum of branch lengths).
// The tree keeps times and branch lengths consistent:
// for any edge the time of the child
// is the time of the parent
// plus the length of the branch.
//
// The topology of a tree is defined upstream,
// either as an explicit list of parent-child edges
// or from a time calibrated tree
// of the timetree package.
package lineage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/js-arias/lineage/character"
	"golang.org/x/exp/rand"
)

// Errors of the basic tree contract.
var (
	// ErrTreeNoInit is returned by any query or mutation
	// made before the tree topology is defined.
	ErrTreeNoInit = errors.New("tree not initialized")

	// ErrUnknownNode is returned when a node
	// is not part of the tree.
	ErrUnknownNode = errors.New("node not in tree")

	// ErrUnknownEdge is returned when a parent-child pair
	// is not an edge of the tree.
	ErrUnknownEdge = errors.New("edge not in tree")

	// ErrInvalidTime is returned when a time assignment
	// breaks the monotonicity of times
	// between a parent and a child.
	ErrInvalidTime = errors.New("time not monotonic")

	// ErrNoAttribute is returned when reading an attribute
	// that was never set on a node.
	ErrNoAttribute = errors.New("attribute not set")
)

// Warn is called to report advisory conditions
// that do not stop an operation.
// By default it prints to the standard error.
var Warn = func(msg string) {
	fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
}

// An Edge is a parent-child relationship
// between two nodes of a tree.
type Edge struct {
	Parent string
	Child  string
}

// A Topology is a raw snapshot of a tree:
// the edge list
// with the time of each node
// and the length of each branch.
type Topology struct {
	Root    string
	Edges   []Edge
	Times   map[string]float64
	Lengths map[Edge]float64
}

// Param is a collection of parameters
// for the initialization of a tree.
type Param struct {
	// CharacterMatrix is the matrix of observed states
	// for the cells at the leaves of the tree.
	CharacterMatrix *character.Matrix

	// Missing is the indicator value
	// for a missing character observation.
	// Any integer can be used,
	// including zero;
	// if nil,
	// character.Missing is used.
	Missing *int

	// CellMeta is an optional table of metadata
	// for the cells at the leaves.
	CellMeta *character.Meta

	// CharacterMeta is an optional table of metadata
	// for the characters of the matrix.
	CharacterMeta *character.Meta

	// Priors is the probability of observing a state
	// on a given character
	// (character -> state -> probability).
	Priors map[int]map[int]float64

	// Rand is the source of randomness
	// used to break ties
	// when resolving ambiguous states.
	// If nil,
	// a time seeded source is used.
	Rand *rand.Rand
}

type edge struct {
	parent string
	child  string
}

// A Tree is a rooted phylogenetic tree
// with character states at its nodes.
type Tree struct {
	parent   map[string]string
	children map[string][]string
	time     map[string]float64
	length   map[edge]float64
	states   map[string][]character.State
	attr     map[string]map[string]any

	missing int
	rnd     *rand.Rand
	priors  map[int]map[int]float64

	original *character.Matrix
	current  *character.Matrix
	cellMeta *character.Meta
	charMeta *character.Meta
	dis      map[string]map[string]float64

	c cache
}

// New creates a new tree without a topology.
// Use the Populate method,
// or the FromTimetree function,
// to define the topology of the tree.
func New(p Param) *Tree {
	missing := character.Missing
	if p.Missing != nil {
		missing = *p.Missing
	}
	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	t := &Tree{
		missing: missing,
		rnd:     rnd,
	}
	if p.CharacterMatrix != nil {
		t.original = p.CharacterMatrix.Clone()
		t.current = p.CharacterMatrix.Clone()
	}
	if p.CellMeta != nil {
		t.cellMeta = p.CellMeta.Clone()
	}
	if p.CharacterMeta != nil {
		t.charMeta = p.CharacterMeta.Clone()
	}
	if p.Priors != nil {
		t.priors = clonePriors(p.Priors)
	}
	return t
}

// Populate defines the topology of a tree
// from a list of parent-child edges.
// The edge list must define a single root,
// a single parent per node,
// and no cycles.
//
// Every branch is initialized with length 1,
// the root at time 0,
// and every other node at the time
// implied by the branch lengths.
// Leaves named in the character matrix of the tree
// take their states from the matrix;
// any other node starts without states.
func (t *Tree) Populate(edges []Edge) error {
	if len(edges) == 0 {
		return fmt.Errorf("populate: empty edge list")
	}

	children := make(map[string][]string)
	parent := make(map[string]string)
	for _, e := range edges {
		if e.Parent == "" || e.Child == "" {
			return fmt.Errorf("populate: edge %q-%q: empty node name", e.Parent, e.Child)
		}
		if p, dup := parent[e.Child]; dup {
			return fmt.Errorf("populate: node %q: multiple parents (%q, %q)", e.Child, p, e.Parent)
		}
		parent[e.Child] = e.Parent
		children[e.Parent] = append(children[e.Parent], e.Child)
		if _, ok := children[e.Child]; !ok {
			children[e.Child] = nil
		}
	}

	root := ""
	for n := range children {
		if _, ok := parent[n]; ok {
			continue
		}
		if root != "" {
			return fmt.Errorf("populate: multiple roots (%q, %q)", root, n)
		}
		root = n
	}
	if root == "" {
		return fmt.Errorf("populate: no root (the edge list has a cycle)")
	}

	// An unreachable node indicates a cycle
	// detached from the root.
	reach := 0
	stack := []string{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reach++
		stack = append(stack, children[n]...)
	}
	if reach != len(children) {
		return fmt.Errorf("populate: %d nodes not reachable from root %q", len(children)-reach, root)
	}

	t.parent = parent
	t.children = children
	t.length = make(map[edge]float64, len(edges))
	t.time = make(map[string]float64, len(children))
	t.states = make(map[string][]character.State, len(children))
	t.attr = make(map[string]map[string]any)
	t.c.clear()

	for _, e := range edges {
		t.length[edge{e.Parent, e.Child}] = 1
	}
	t.time[root] = 0
	t.updateTimes(root)

	for n := range t.children {
		if t.original != nil && t.original.HasCell(n) {
			t.states[n] = t.original.States(n)
			continue
		}
		t.states[n] = nil
	}

	t.registerData()
	return nil
}

// Root returns the root of the tree.
func (t *Tree) Root() (string, error) {
	if !t.isInit() {
		return "", fmt.Errorf("root: %w", ErrTreeNoInit)
	}
	return t.root(), nil
}

// Leaves returns the leaves of the tree.
func (t *Tree) Leaves() ([]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("leaves: %w", ErrTreeNoInit)
	}
	return cp(t.leaves()), nil
}

// InternalNodes returns the internal nodes of the tree,
// including the root.
func (t *Tree) InternalNodes() ([]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("internal nodes: %w", ErrTreeNoInit)
	}
	if t.c.internal == nil {
		var ins []string
		for _, n := range t.nodes() {
			if len(t.children[n]) > 0 {
				ins = append(ins, n)
			}
		}
		t.c.internal = ins
	}
	return cp(t.c.internal), nil
}

// Nodes returns all the nodes of the tree
// in pre-order from the root.
func (t *Tree) Nodes() ([]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("nodes: %w", ErrTreeNoInit)
	}
	return cp(t.nodes()), nil
}

// Edges returns all the edges of the tree
// in pre-order from the root.
func (t *Tree) Edges() ([]Edge, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("edges: %w", ErrTreeNoInit)
	}
	if t.c.edges == nil {
		var es []Edge
		for _, n := range t.nodes() {
			for _, c := range t.children[n] {
				es = append(es, Edge{Parent: n, Child: c})
			}
		}
		t.c.edges = es
	}
	return cp(t.c.edges), nil
}

// EdgesFrom returns the edges of the subtree
// rooted at the source node
// in pre-order from the source.
// If the source is empty,
// the traversal starts at the root.
func (t *Tree) EdgesFrom(source string) ([]Edge, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("edges from: %w", ErrTreeNoInit)
	}
	if source == "" {
		source = t.root()
	}
	if _, ok := t.children[source]; !ok {
		return nil, fmt.Errorf("edges from: node %q: %w", source, ErrUnknownNode)
	}

	var es []Edge
	for _, n := range t.preOrder(source) {
		for _, c := range t.children[n] {
			es = append(es, Edge{Parent: n, Child: c})
		}
	}
	return es, nil
}

// Parent returns the parent of a node.
func (t *Tree) Parent(node string) (string, error) {
	if !t.isInit() {
		return "", fmt.Errorf("parent: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return "", fmt.Errorf("parent: node %q: %w", node, ErrUnknownNode)
	}
	p, ok := t.parent[node]
	if !ok {
		return "", fmt.Errorf("parent: node %q is the root", node)
	}
	return p, nil
}

// Children returns the children of a node.
func (t *Tree) Children(node string) ([]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("children: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return nil, fmt.Errorf("children: node %q: %w", node, ErrUnknownNode)
	}
	return cp(t.children[node]), nil
}

// IsLeaf returns true if the node has no children.
func (t *Tree) IsLeaf(node string) (bool, error) {
	if !t.isInit() {
		return false, fmt.Errorf("is leaf: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return false, fmt.Errorf("is leaf: node %q: %w", node, ErrUnknownNode)
	}
	return len(t.children[node]) == 0, nil
}

// IsRoot returns true if the node has no parent.
func (t *Tree) IsRoot(node string) (bool, error) {
	if !t.isInit() {
		return false, fmt.Errorf("is root: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return false, fmt.Errorf("is root: node %q: %w", node, ErrUnknownNode)
	}
	_, ok := t.parent[node]
	return !ok, nil
}

// IsInternal returns true if the node has children.
// The root is an internal node
// as long as it has at least one child.
func (t *Tree) IsInternal(node string) (bool, error) {
	if !t.isInit() {
		return false, fmt.Errorf("is internal: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return false, fmt.Errorf("is internal: node %q: %w", node, ErrUnknownNode)
	}
	return len(t.children[node]) > 0, nil
}

// Ancestors returns the ancestors of a node,
// from its parent up to the root.
func (t *Tree) Ancestors(node string) ([]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("ancestors: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return nil, fmt.Errorf("ancestors: node %q: %w", node, ErrUnknownNode)
	}
	return cp(t.ancestors(node)), nil
}

// LeavesInSubtree returns the leaves of the subtree
// rooted at the given node.
func (t *Tree) LeavesInSubtree(node string) ([]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("leaves in subtree: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return nil, fmt.Errorf("leaves in subtree: node %q: %w", node, ErrUnknownNode)
	}
	if t.c.subtree == nil {
		sub := make(map[string][]string, len(t.children))
		for _, n := range t.postOrder(t.root()) {
			if len(t.children[n]) == 0 {
				sub[n] = []string{n}
				continue
			}
			var leaves []string
			for _, c := range t.children[n] {
				leaves = append(leaves, sub[c]...)
			}
			sub[n] = leaves
		}
		t.c.subtree = sub
	}
	return cp(t.c.subtree[node]), nil
}

// PostOrder returns the nodes of the subtree
// rooted at the source node
// in depth first post-order.
// If the source is empty,
// the traversal starts at the root.
func (t *Tree) PostOrder(source string) ([]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("post order: %w", ErrTreeNoInit)
	}
	if source == "" {
		source = t.root()
	}
	if _, ok := t.children[source]; !ok {
		return nil, fmt.Errorf("post order: node %q: %w", source, ErrUnknownNode)
	}
	return t.postOrder(source), nil
}

// PreOrder returns the nodes of the subtree
// rooted at the source node
// in depth first pre-order.
// If the source is empty,
// the traversal starts at the root.
func (t *Tree) PreOrder(source string) ([]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("pre order: %w", ErrTreeNoInit)
	}
	if source == "" {
		source = t.root()
	}
	if _, ok := t.children[source]; !ok {
		return nil, fmt.Errorf("pre order: node %q: %w", source, ErrUnknownNode)
	}
	return t.preOrder(source), nil
}

// Filter returns the nodes that fulfill a condition,
// in pre-order from the root.
func (t *Tree) Filter(condition func(node string) bool) ([]string, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("filter: %w", ErrTreeNoInit)
	}
	var ns []string
	for _, n := range t.nodes() {
		if condition(n) {
			ns = append(ns, n)
		}
	}
	return ns, nil
}

// Relabel renames the nodes of a tree
// following a map of old to new names.
// Nodes not in the map keep their names.
func (t *Tree) Relabel(names map[string]string) error {
	if !t.isInit() {
		return fmt.Errorf("relabel: %w", ErrTreeNoInit)
	}

	relabel := func(n string) string {
		if nn, ok := names[n]; ok {
			return nn
		}
		return n
	}
	for o, n := range names {
		if _, ok := t.children[o]; !ok {
			return fmt.Errorf("relabel: node %q: %w", o, ErrUnknownNode)
		}
		if n == "" {
			return fmt.Errorf("relabel: node %q: empty new name", o)
		}
	}
	seen := make(map[string]bool, len(t.children))
	for n := range t.children {
		nn := relabel(n)
		if seen[nn] {
			return fmt.Errorf("relabel: duplicate node name %q", nn)
		}
		seen[nn] = true
	}

	children := make(map[string][]string, len(t.children))
	parent := make(map[string]string, len(t.parent))
	tm := make(map[string]float64, len(t.time))
	length := make(map[edge]float64, len(t.length))
	states := make(map[string][]character.State, len(t.states))
	attr := make(map[string]map[string]any, len(t.attr))
	for n, desc := range t.children {
		nd := make([]string, len(desc))
		for i, c := range desc {
			nd[i] = relabel(c)
		}
		children[relabel(n)] = nd
	}
	for n, p := range t.parent {
		parent[relabel(n)] = relabel(p)
	}
	for n, v := range t.time {
		tm[relabel(n)] = v
	}
	for e, l := range t.length {
		length[edge{relabel(e.parent), relabel(e.child)}] = l
	}
	for n, s := range t.states {
		states[relabel(n)] = s
	}
	for n, a := range t.attr {
		attr[relabel(n)] = a
	}
	t.children = children
	t.parent = parent
	t.time = tm
	t.length = length
	t.states = states
	t.attr = attr

	// rename the leaf indexed data
	if t.current != nil {
		nm := character.NewMatrix()
		for _, c := range t.current.Cells() {
			nm.Add(relabel(c), t.current.States(c))
		}
		t.current = nm
	}
	if t.cellMeta != nil {
		nm := character.NewMeta()
		for _, k := range t.cellMeta.Keys() {
			r := t.cellMeta.Row(k)
			if r == nil {
				nm.AddKey(relabel(k))
				continue
			}
			for f, v := range r {
				nm.Set(relabel(k), f, v)
			}
		}
		t.cellMeta = nm
	}
	if t.dis != nil {
		nd := make(map[string]map[string]float64, len(t.dis))
		for c, row := range t.dis {
			nr := make(map[string]float64, len(row))
			for o, d := range row {
				nr[relabel(o)] = d
			}
			nd[relabel(c)] = nr
		}
		t.dis = nd
	}

	t.c.clear()
	return nil
}

// SetAttribute stores an arbitrary named value on a node.
func (t *Tree) SetAttribute(node, name string, value any) error {
	if !t.isInit() {
		return fmt.Errorf("set attribute: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return fmt.Errorf("set attribute: node %q: %w", node, ErrUnknownNode)
	}
	a := t.attr[node]
	if a == nil {
		a = make(map[string]any)
		t.attr[node] = a
	}
	a[name] = value
	return nil
}

// Attribute returns the value of a named attribute on a node.
func (t *Tree) Attribute(node, name string) (any, error) {
	if !t.isInit() {
		return nil, fmt.Errorf("attribute: %w", ErrTreeNoInit)
	}
	if _, ok := t.children[node]; !ok {
		return nil, fmt.Errorf("attribute: node %q: %w", node, ErrUnknownNode)
	}
	v, ok := t.attr[node][name]
	if !ok {
		return nil, fmt.Errorf("attribute: node %q: %q: %w", node, name, ErrNoAttribute)
	}
	return v, nil
}

// Topology returns a raw snapshot of the tree,
// with its edges,
// node times,
// and branch lengths.
func (t *Tree) Topology() (Topology, error) {
	if !t.isInit() {
		return Topology{}, fmt.Errorf("topology: %w", ErrTreeNoInit)
	}

	top := Topology{
		Root:    t.root(),
		Times:   make(map[string]float64, len(t.time)),
		Lengths: make(map[Edge]float64, len(t.length)),
	}
	for _, n := range t.nodes() {
		top.Times[n] = t.time[n]
		for _, c := range t.children[n] {
			e := Edge{Parent: n, Child: c}
			top.Edges = append(top.Edges, e)
			top.Lengths[e] = t.length[edge{n, c}]
		}
	}
	return top, nil
}

// NumCells returns the number of cells in the tree,
// that is the number of rows
// of the current character matrix,
// or the number of leaves
// if there is no character data.
func (t *Tree) NumCells() int {
	if t.current != nil {
		return t.current.Len()
	}
	if !t.isInit() {
		return 0
	}
	return len(t.leaves())
}

// NumCharacters returns the number of characters
// scored on the cells of the tree.
func (t *Tree) NumCharacters() int {
	if t.current != nil {
		return t.current.Characters()
	}
	if !t.isInit() {
		return 0
	}
	for _, l := range t.leaves() {
		if len(t.states[l]) > 0 {
			return len(t.states[l])
		}
	}
	return 0
}

func (t *Tree) isInit() bool {
	return t.children != nil
}

func (t *Tree) root() string {
	if !t.c.hasRoot {
		for n := range t.children {
			if _, ok := t.parent[n]; !ok {
				t.c.root = n
				t.c.hasRoot = true
				break
			}
		}
	}
	return t.c.root
}

func (t *Tree) leaves() []string {
	if t.c.leaves == nil {
		var ls []string
		for _, n := range t.nodes() {
			if len(t.children[n]) == 0 {
				ls = append(ls, n)
			}
		}
		t.c.leaves = ls
	}
	return t.c.leaves
}

func (t *Tree) nodes() []string {
	if t.c.nodes == nil {
		t.c.nodes = t.preOrder(t.root())
	}
	return t.c.nodes
}

func (t *Tree) ancestors(node string) []string {
	if t.c.ancestors == nil {
		t.c.ancestors = make(map[string][]string)
	}
	if _, ok := t.c.ancestors[node]; !ok {
		var anc []string
		for n := node; ; {
			p, ok := t.parent[n]
			if !ok {
				break
			}
			anc = append(anc, p)
			n = p
		}
		t.c.ancestors[node] = anc
	}
	return t.c.ancestors[node]
}

func (t *Tree) preOrder(source string) []string {
	ns := make([]string, 0, len(t.children))
	var walk func(n string)
	walk = func(n string) {
		ns = append(ns, n)
		for _, c := range t.children[n] {
			walk(c)
		}
	}
	walk(source)
	return ns
}

func (t *Tree) postOrder(source string) []string {
	ns := make([]string, 0, len(t.children))
	var walk func(n string)
	walk = func(n string) {
		for _, c := range t.children[n] {
			walk(c)
		}
		ns = append(ns, n)
	}
	walk(source)
	return ns
}

func cp[T any](s []T) []T {
	if s == nil {
		return nil
	}
	ns := make([]T, len(s))
	copy(ns, s)
	return ns
}

func clonePriors(priors map[int]map[int]float64) map[int]map[int]float64 {
	np := make(map[int]map[int]float64, len(priors))
	for c, sp := range priors {
		ns := make(map[int]float64, len(sp))
		for s, p := range sp {
			ns[s] = p
		}
		np[c] = ns
	}
	return np
}

// A cache memoizes the structural facts of a tree.
// Any change in the topology of the tree,
// or in the node names,
// must drop the whole cache;
// a change in any time value
// must drop at least the distances.
type cache struct {
	root      string
	hasRoot   bool
	leaves    []string
	internal  []string
	nodes     []string
	edges     []Edge
	ancestors map[string][]string
	subtree   map[string][]string
	distances map[string]map[string]float64
}

func (c *cache) clear() {
	*c = cache{}
}

func (c *cache) clearDistances() {
	c.distances = nil
}
