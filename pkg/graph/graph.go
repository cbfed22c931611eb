// Package graph builds a knowledge graph from a document's stored entities
// and relationships and answers analytics queries over it: centrality,
// community assignment, neighbor rings, path enumeration, node similarity
// and aggregate statistics.
package graph

import (
	"errors"

	"github.com/lexigraph/lexigraph/pkg/types"
)

// Errors returned by graph operations.
var (
	ErrNodeNotFound = errors.New("graph node not found")
	ErrNoEntities   = errors.New("document has no extractable entities")
)

// Graph is an undirected simple graph over entity nodes. Nodes live in an
// arena slice and adjacency is by arena index, so traversals allocate
// nothing per step.
type Graph struct {
	Nodes []types.GraphNode
	Edges []types.GraphEdge

	index map[string]int
	adj   [][]int
}

// NewGraph assembles a graph from derived nodes and edges. Edges referring
// to unknown nodes, self loops and duplicate pairs are dropped so the
// result is simple. Centrality and community ids are filled in here.
func NewGraph(nodes []types.GraphNode, edges []types.GraphEdge) *Graph {
	g := &Graph{
		Nodes: append([]types.GraphNode(nil), nodes...),
		index: make(map[string]int, len(nodes)),
		adj:   make([][]int, len(nodes)),
	}
	for i, node := range g.Nodes {
		g.index[node.ID] = i
	}

	seenPairs := make(map[[2]int]bool)
	for _, edge := range edges {
		si, ok := g.index[edge.Source]
		if !ok {
			continue
		}
		ti, ok := g.index[edge.Target]
		if !ok || si == ti {
			continue
		}

		pair := [2]int{si, ti}
		if si > ti {
			pair = [2]int{ti, si}
		}
		if seenPairs[pair] {
			continue
		}
		seenPairs[pair] = true

		g.Edges = append(g.Edges, edge)
		g.adj[si] = append(g.adj[si], ti)
		g.adj[ti] = append(g.adj[ti], si)
	}

	g.computeMetrics()
	return g
}

// NodeByID returns the node with the given graph id.
func (g *Graph) NodeByID(id string) (types.GraphNode, bool) {
	i, ok := g.index[id]
	if !ok {
		return types.GraphNode{}, false
	}
	return g.Nodes[i], true
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// bfsDistances returns shortest-path distances from start to every node,
// -1 where unreachable.
func (g *Graph) bfsDistances(start int) []int {
	dist := make([]int, len(g.Nodes))
	for i := range dist {
		dist[i] = -1
	}
	dist[start] = 0

	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.adj[cur] {
			if dist[next] == -1 {
				dist[next] = dist[cur] + 1
				queue = append(queue, next)
			}
		}
	}
	return dist
}

// neighborSet returns the arena indices adjacent to i as a set.
func (g *Graph) neighborSet(i int) map[int]bool {
	set := make(map[int]bool, len(g.adj[i]))
	for _, j := range g.adj[i] {
		set[j] = true
	}
	return set
}
