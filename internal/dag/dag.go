// SPDX-License-Identifier: MPL-2.0

// Package dag orders named nodes along "must start before" edges and reports
// dependency cycles. Compose descriptors use it to order services by their
// depends_on lists.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError lists the nodes left unordered because they sit on, or behind, a cycle.
	CycleError struct {
		Nodes []string
	}

	// Graph is a directed graph. An edge from A to B means A must start before B.
	// Node order is insertion order, which makes sorting deterministic.
	Graph struct {
		adjacency map[string][]string
		nodes     []string
		nodeSet   map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle between %s", strings.Join(e.Nodes, ", "))
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// FromDependencies builds a graph over nodes where deps(n) lists what n
// depends on. Dependencies that are not in nodes are added as extra nodes.
func FromDependencies(nodes []string, deps func(string) []string) *Graph {
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, n := range nodes {
		for _, dep := range deps(n) {
			g.AddEdge(dep, n)
		}
	}
	return g
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that from must start before to, adding both nodes if needed.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// TopologicalSort returns a start order using Kahn's algorithm. Nodes that
// become ready together keep their insertion order. A cycle yields a
// *CycleError.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, targets := range g.adjacency {
		for _, to := range targets {
			inDegree[to]++
		}
	}

	queue := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, to := range g.adjacency[node] {
			inDegree[to]--
			if inDegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) == len(g.nodes) {
		return order, nil
	}
	var stuck []string
	for _, node := range g.nodes {
		if inDegree[node] > 0 {
			stuck = append(stuck, node)
		}
	}
	return nil, &CycleError{Nodes: stuck}
}
