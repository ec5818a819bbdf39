// Package graph is a small directed graph used to order service instantiation.
//
// Nodes are keyed by a caller-supplied hash of their payload. An edge from A to B
// means "A depends on B", so a root is a node with no outgoing edges: everything
// it depends on has already been dealt with.
package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Node is a vertex in a [Graph].
type Node[T any] struct {
	Data     T
	Incoming map[string]*Node[T]
	Outgoing map[string]*Node[T]

	key string
}

// Key returns the hash the node is stored under.
func (n *Node[T]) Key() string {
	return n.key
}

// Graph is a directed graph keyed by a hash function.
//
// Iteration order (for [Graph.Roots] and [Graph.String]) follows node insertion order,
// so results are deterministic for a given sequence of insertions.
type Graph[T any] struct {
	hash  func(T) string
	nodes map[string]*Node[T]
	order []string
}

// New creates an empty graph using hash to key nodes.
func New[T any](hash func(T) string) *Graph[T] {
	return &Graph[T]{
		hash:  hash,
		nodes: make(map[string]*Node[T]),
	}
}

// LookupOrInsertNode returns the node for data, creating it if needed.
func (g *Graph[T]) LookupOrInsertNode(data T) *Node[T] {
	key := g.hash(data)
	if n, ok := g.nodes[key]; ok {
		return n
	}

	n := &Node[T]{
		Data:     data,
		Incoming: make(map[string]*Node[T]),
		Outgoing: make(map[string]*Node[T]),
		key:      key,
	}
	g.nodes[key] = n
	g.order = append(g.order, key)
	return n
}

// Lookup returns the node for data, or nil.
func (g *Graph[T]) Lookup(data T) *Node[T] {
	return g.nodes[g.hash(data)]
}

// InsertEdge links from -> to, creating either endpoint if needed.
// Inserting the same edge twice has no additional effect.
func (g *Graph[T]) InsertEdge(from, to T) {
	fromNode := g.LookupOrInsertNode(from)
	toNode := g.LookupOrInsertNode(to)

	fromNode.Outgoing[toNode.key] = toNode
	toNode.Incoming[fromNode.key] = fromNode
}

// RemoveNode deletes the node for data and every edge that touches it.
func (g *Graph[T]) RemoveNode(data T) {
	key := g.hash(data)
	if _, ok := g.nodes[key]; !ok {
		return
	}

	delete(g.nodes, key)
	g.order = slices.DeleteFunc(g.order, func(k string) bool { return k == key })

	for _, n := range g.nodes {
		delete(n.Outgoing, key)
		delete(n.Incoming, key)
	}
}

// Roots returns all nodes without outgoing edges.
func (g *Graph[T]) Roots() []*Node[T] {
	var roots []*Node[T]
	for _, key := range g.order {
		n := g.nodes[key]
		if len(n.Outgoing) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// IsEmpty reports whether the graph has no nodes.
func (g *Graph[T]) IsEmpty() bool {
	return len(g.nodes) == 0
}

// Len returns the number of nodes.
func (g *Graph[T]) Len() int {
	return len(g.nodes)
}

// FindCycle returns the keys along one cycle in the graph, with the first key
// repeated at the end, or nil if the graph is acyclic.
func (g *Graph[T]) FindCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var path []string
	var cycle []string

	var visit func(key string) bool
	visit = func(key string) bool {
		color[key] = gray
		path = append(path, key)

		n := g.nodes[key]
		for _, next := range slices.Sorted(maps.Keys(n.Outgoing)) {
			switch color[next] {
			case gray:
				start := slices.Index(path, next)
				cycle = append(slices.Clone(path[start:]), next)
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		color[key] = black
		return false
	}

	for _, key := range g.order {
		if color[key] == white && visit(key) {
			return cycle
		}
	}
	return nil
}

// String lists each node with the keys of its incoming and outgoing neighbors.
func (g *Graph[T]) String() string {
	lines := make([]string, 0, len(g.order))
	for _, key := range g.order {
		n := g.nodes[key]
		lines = append(lines, fmt.Sprintf("%s, (incoming)[%s], (outgoing)[%s]",
			key,
			strings.Join(slices.Sorted(maps.Keys(n.Incoming)), ", "),
			strings.Join(slices.Sorted(maps.Keys(n.Outgoing)), ", "),
		))
	}
	return strings.Join(lines, "\n")
}
