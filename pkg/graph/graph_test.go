package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigraph/lexigraph/pkg/types"
)

func node(id string, et types.EntityType) types.GraphNode {
	return types.GraphNode{ID: id, Label: id, Type: et}
}

func edge(source, target string) types.GraphEdge {
	return types.GraphEdge{Source: source, Target: target, RelationType: "related", Confidence: 0.7}
}

// pathGraph builds A-B-C.
func pathGraph() *Graph {
	return NewGraph(
		[]types.GraphNode{
			node("A", types.EntityTypePerson),
			node("B", types.EntityTypePerson),
			node("C", types.EntityTypeOrg),
		},
		[]types.GraphEdge{edge("A", "B"), edge("B", "C")},
	)
}

func TestDegreeAndCommunity(t *testing.T) {
	g := pathGraph()

	a, _ := g.NodeByID("A")
	b, _ := g.NodeByID("B")
	c, _ := g.NodeByID("C")
	assert.Equal(t, 2.0, b.Centrality.Degree)
	assert.Equal(t, 1.0, a.Centrality.Degree)
	assert.Equal(t, 1.0, c.Centrality.Degree)

	// One connected component, one community.
	assert.Equal(t, a.CommunityID, b.CommunityID)
	assert.Equal(t, b.CommunityID, c.CommunityID)
}

func TestCloseness(t *testing.T) {
	g := pathGraph()

	b, _ := g.NodeByID("B")
	assert.InDelta(t, 0.5, b.Centrality.Closeness, 1e-9, "1/(1+1)")
	a, _ := g.NodeByID("A")
	assert.InDelta(t, 1.0/3.0, a.Centrality.Closeness, 1e-9, "1/(1+2)")
}

func TestBetweenness(t *testing.T) {
	g := pathGraph()

	// B sits on the only A-C shortest path; A and C sit on none.
	b, _ := g.NodeByID("B")
	assert.InDelta(t, 1.0, b.Centrality.Betweenness, 1e-9)
	a, _ := g.NodeByID("A")
	assert.InDelta(t, 0.0, a.Centrality.Betweenness, 1e-9)
}

func TestDisconnectedCommunities(t *testing.T) {
	g := NewGraph(
		[]types.GraphNode{
			node("A", types.EntityTypePerson),
			node("B", types.EntityTypePerson),
			node("C", types.EntityTypeOrg),
		},
		[]types.GraphEdge{edge("A", "B")},
	)

	a, _ := g.NodeByID("A")
	b, _ := g.NodeByID("B")
	c, _ := g.NodeByID("C")
	assert.Equal(t, a.CommunityID, b.CommunityID)
	assert.NotEqual(t, a.CommunityID, c.CommunityID)

	assert.Equal(t, 0.0, c.Centrality.Closeness, "isolated node")
	assert.Equal(t, 2, g.Statistics().CommunityCount)
}

func TestGraphStaysSimple(t *testing.T) {
	g := NewGraph(
		[]types.GraphNode{node("A", types.EntityTypePerson), node("B", types.EntityTypePerson)},
		[]types.GraphEdge{
			edge("A", "B"),
			edge("B", "A"), // duplicate pair
			edge("A", "A"), // self loop
			edge("A", "Z"), // unknown endpoint
		},
	)

	assert.Equal(t, 1, g.EdgeCount())
	a, _ := g.NodeByID("A")
	assert.Equal(t, 1.0, a.Centrality.Degree)
}

func TestNeighborsRings(t *testing.T) {
	g := NewGraph(
		[]types.GraphNode{
			node("A", types.EntityTypePerson),
			node("B", types.EntityTypePerson),
			node("C", types.EntityTypePerson),
			node("D", types.EntityTypePerson),
		},
		[]types.GraphEdge{edge("A", "B"), edge("B", "C"), edge("C", "D")},
	)

	rings, err := g.Neighbors("A", 2)
	require.NoError(t, err)
	require.Len(t, rings, 2)
	require.Len(t, rings[1], 1)
	assert.Equal(t, "B", rings[1][0].ID)
	require.Len(t, rings[2], 1)
	assert.Equal(t, "C", rings[2][0].ID)

	rings, err = g.Neighbors("A", 0)
	require.NoError(t, err)
	assert.Empty(t, rings)

	_, err = g.Neighbors("missing", 1)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestFindPaths(t *testing.T) {
	// A diamond: A-B-C and A-D-C.
	g := NewGraph(
		[]types.GraphNode{
			node("A", types.EntityTypePerson),
			node("B", types.EntityTypePerson),
			node("C", types.EntityTypePerson),
			node("D", types.EntityTypePerson),
		},
		[]types.GraphEdge{edge("A", "B"), edge("B", "C"), edge("A", "D"), edge("D", "C")},
	)

	paths, err := g.FindPaths("A", "C", 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]string{{"A", "B", "C"}, {"A", "D", "C"}}, paths)

	paths, err = g.FindPaths("A", "C", 1)
	require.NoError(t, err)
	assert.Empty(t, paths)

	paths, err = g.FindPaths("A", "A", 3)
	require.NoError(t, err)
	assert.Empty(t, paths, "a node is not its own path")

	paths, err = g.FindPaths("A", "C", 0)
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = g.FindPaths("A", "missing", 2)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestFindPathsLongerBound(t *testing.T) {
	g := NewGraph(
		[]types.GraphNode{
			node("A", types.EntityTypePerson),
			node("B", types.EntityTypePerson),
			node("C", types.EntityTypePerson),
			node("D", types.EntityTypePerson),
		},
		[]types.GraphEdge{edge("A", "B"), edge("B", "C"), edge("A", "D"), edge("D", "C")},
	)

	// Depth 3 additionally admits nothing: every simple A-C path here has
	// exactly 2 edges.
	paths, err := g.FindPaths("A", "C", 3)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestSimilarNodes(t *testing.T) {
	// X shares A's type and full neighbor set; Y shares neither.
	g := NewGraph(
		[]types.GraphNode{
			node("A", types.EntityTypePerson),
			node("X", types.EntityTypePerson),
			node("Y", types.EntityTypeOrg),
			node("B", types.EntityTypeConcept),
		},
		[]types.GraphEdge{edge("A", "B"), edge("X", "B")},
	)

	results, err := g.SimilarNodes("A", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "X", results[0].Node.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, 1.0, results[0].TypeScore)
	assert.Equal(t, 1.0, results[0].NeighborScore)

	last := results[len(results)-1]
	assert.Equal(t, "Y", last.Node.ID)
	assert.InDelta(t, 0.0, last.Score, 1e-9)

	_, err = g.SimilarNodes("A", 0)
	assert.ErrorIs(t, err, types.ErrInvalidLimit)
	_, err = g.SimilarNodes("missing", 3)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestStatistics(t *testing.T) {
	g := pathGraph()
	stats := g.Statistics()

	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 2, stats.EdgeCount)
	assert.Equal(t, 1, stats.CommunityCount)
	assert.Equal(t, 2, stats.EntityTypes["PERSON"])
	assert.Equal(t, 1, stats.EntityTypes["ORG"])
	assert.Equal(t, 2, stats.RelationTypes["related"])

	degree := stats.Centrality["degree"]
	assert.Equal(t, 1.0, degree.Min)
	assert.Equal(t, 2.0, degree.Max)
	assert.InDelta(t, 4.0/3.0, degree.Avg, 1e-9)
}

func TestEmptyGraph(t *testing.T) {
	g := NewGraph(nil, nil)
	assert.Equal(t, 0, g.NodeCount())
	stats := g.Statistics()
	assert.Equal(t, 0, stats.NodeCount)
	assert.Equal(t, Aggregate{}, stats.Centrality["degree"])
}
