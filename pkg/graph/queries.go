package graph

import (
	"fmt"
	"sort"

	"github.com/lexigraph/lexigraph/pkg/types"
)

// Neighbors returns the nodes at exact shortest-path distance 1..depth from
// the given node, keyed by distance. Rings with no nodes are omitted.
func (g *Graph) Neighbors(nodeID string, depth int) (map[int][]types.GraphNode, error) {
	start, ok := g.index[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if depth <= 0 {
		return map[int][]types.GraphNode{}, nil
	}

	dist := g.bfsDistances(start)
	rings := make(map[int][]types.GraphNode)
	for i, d := range dist {
		if d >= 1 && d <= depth {
			rings[d] = append(rings[d], g.Nodes[i])
		}
	}
	for d := range rings {
		ring := rings[d]
		sort.Slice(ring, func(i, j int) bool { return ring[i].ID < ring[j].ID })
	}
	return rings, nil
}

// FindPaths enumerates every simple path from source to target with at most
// maxDepth edges, as ordered node-label sequences. A node is not a path to
// itself, and maxDepth <= 0 yields no paths; both return an empty list, not
// an error.
func (g *Graph) FindPaths(sourceID, targetID string, maxDepth int) ([][]string, error) {
	src, ok := g.index[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, sourceID)
	}
	dst, ok := g.index[targetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, targetID)
	}

	paths := [][]string{}
	if src == dst || maxDepth <= 0 {
		return paths, nil
	}

	// Iterative DFS. Each frame tracks which neighbor to try next, onPath
	// keeps the walk simple.
	type frame struct {
		node int
		next int
	}
	onPath := make([]bool, len(g.Nodes))
	path := []int{src}
	onPath[src] = true
	stack := []frame{{node: src}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.next >= len(g.adj[top.node]) || len(stack) > maxDepth {
			onPath[top.node] = false
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
			continue
		}

		nb := g.adj[top.node][top.next]
		top.next++

		if nb == dst {
			labels := make([]string, 0, len(path)+1)
			for _, i := range path {
				labels = append(labels, g.Nodes[i].Label)
			}
			labels = append(labels, g.Nodes[dst].Label)
			paths = append(paths, labels)
			continue
		}
		if onPath[nb] {
			continue
		}

		onPath[nb] = true
		path = append(path, nb)
		stack = append(stack, frame{node: nb})
	}

	return paths, nil
}

// SimilarNode is one similarity hit with its component scores kept for
// explainability.
type SimilarNode struct {
	Node          types.GraphNode `json:"node"`
	Score         float64         `json:"score"`
	TypeScore     float64         `json:"type_score"`
	NeighborScore float64         `json:"neighbor_score"`
}

// SimilarNodes scores every other node against the target as
// 0.6*(same type) + 0.4*(neighbor-set Jaccard) and returns the top
// maxResults, ties broken by node id.
func (g *Graph) SimilarNodes(nodeID string, maxResults int) ([]SimilarNode, error) {
	target, ok := g.index[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if maxResults <= 0 {
		return nil, types.ErrInvalidLimit
	}

	targetNeighbors := g.neighborSet(target)
	results := make([]SimilarNode, 0, len(g.Nodes)-1)
	for i := range g.Nodes {
		if i == target {
			continue
		}

		typeScore := 0.0
		if g.Nodes[i].Type == g.Nodes[target].Type {
			typeScore = 1.0
		}
		neighborScore := jaccard(targetNeighbors, g.neighborSet(i))

		results = append(results, SimilarNode{
			Node:          g.Nodes[i],
			Score:         0.6*typeScore + 0.4*neighborScore,
			TypeScore:     typeScore,
			NeighborScore: neighborScore,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Node.ID < results[j].Node.ID
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func jaccard(a, b map[int]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for i := range a {
		if b[i] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Aggregate summarizes one centrality measure across all nodes.
type Aggregate struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Statistics aggregates the whole graph.
type Statistics struct {
	NodeCount      int                  `json:"node_count"`
	EdgeCount      int                  `json:"edge_count"`
	CommunityCount int                  `json:"community_count"`
	EntityTypes    map[string]int       `json:"entity_types"`
	RelationTypes  map[string]int       `json:"relation_types"`
	Centrality     map[string]Aggregate `json:"centrality"`
}

// Statistics computes node/edge counts, type histograms and the min/max/avg
// of every centrality measure.
func (g *Graph) Statistics() Statistics {
	stats := Statistics{
		NodeCount:     len(g.Nodes),
		EdgeCount:     len(g.Edges),
		EntityTypes:   make(map[string]int),
		RelationTypes: make(map[string]int),
		Centrality:    make(map[string]Aggregate),
	}

	communities := make(map[int]bool)
	degrees := make([]float64, 0, len(g.Nodes))
	closeness := make([]float64, 0, len(g.Nodes))
	betweenness := make([]float64, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		stats.EntityTypes[string(node.Type)]++
		communities[node.CommunityID] = true
		degrees = append(degrees, node.Centrality.Degree)
		closeness = append(closeness, node.Centrality.Closeness)
		betweenness = append(betweenness, node.Centrality.Betweenness)
	}
	stats.CommunityCount = len(communities)

	for _, edge := range g.Edges {
		stats.RelationTypes[edge.RelationType]++
	}

	stats.Centrality["degree"] = aggregate(degrees)
	stats.Centrality["closeness"] = aggregate(closeness)
	stats.Centrality["betweenness"] = aggregate(betweenness)
	return stats
}

func aggregate(values []float64) Aggregate {
	if len(values) == 0 {
		return Aggregate{}
	}
	agg := Aggregate{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		if v < agg.Min {
			agg.Min = v
		}
		if v > agg.Max {
			agg.Max = v
		}
		sum += v
	}
	agg.Avg = sum / float64(len(values))
	return agg
}
