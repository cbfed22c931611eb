package graph

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigraph/lexigraph/pkg/extractor"
	"github.com/lexigraph/lexigraph/pkg/store"
	"github.com/lexigraph/lexigraph/pkg/types"
)

func newTestBuilder(t *testing.T) (*Builder, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	ex := extractor.New(extractor.DefaultConfig(), nil)
	return NewBuilder(s, ex, nil), s
}

func saveDoc(t *testing.T, s store.Store, id, content string) {
	t.Helper()
	require.NoError(t, s.SaveDocument(context.Background(), &types.Document{
		ID:        id,
		Content:   content,
		CreatedAt: time.Now(),
	}))
}

func TestBuildMissingDocument(t *testing.T) {
	b, _ := newTestBuilder(t)
	_, err := b.Build(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
}

func TestBuildExtractsOnFirstCall(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBuilder(t)
	saveDoc(t, s, "doc1", "张三在ABC公司工作。")

	g, err := b.Build(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, 2, g.NodeCount())
	require.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, "工作于", g.Edges[0].RelationType)

	labels := map[string]types.EntityType{}
	for _, n := range g.Nodes {
		labels[n.Label] = n.Type
	}
	assert.Equal(t, types.EntityTypePerson, labels["张三"])
	assert.Equal(t, types.EntityTypeOrg, labels["ABC公司"])

	// Extraction results were persisted.
	has, err := s.HasEntities(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestBuildDoesNotReextract(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBuilder(t)
	saveDoc(t, s, "doc1", "张三在ABC公司工作。")

	_, err := b.Build(ctx, "doc1")
	require.NoError(t, err)
	first, err := s.GetEntities(ctx, "doc1")
	require.NoError(t, err)

	_, err = b.Build(ctx, "doc1")
	require.NoError(t, err)
	second, err := s.GetEntities(ctx, "doc1")
	require.NoError(t, err)
	assert.Len(t, second, len(first), "second build reuses stored entities")
}

func TestBuildNoEntities(t *testing.T) {
	b, s := newTestBuilder(t)
	saveDoc(t, s, "doc1", "nothing recognizable here.")

	_, err := b.Build(context.Background(), "doc1")
	assert.ErrorIs(t, err, ErrNoEntities)
}

func TestConcurrentFirstBuildExtractsOnce(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBuilder(t)
	saveDoc(t, s, "doc1", "张三在ABC公司工作。")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Build(ctx, "doc1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// A single sequential build on a fresh store yields the baseline count.
	baseline, bs := newTestBuilder(t)
	saveDoc(t, bs, "doc1", "张三在ABC公司工作。")
	_, err := baseline.Build(ctx, "doc1")
	require.NoError(t, err)
	want, err := bs.GetEntities(ctx, "doc1")
	require.NoError(t, err)

	got, err := s.GetEntities(ctx, "doc1")
	require.NoError(t, err)
	assert.Len(t, got, len(want), "concurrent first builds must not duplicate entities")
}

func TestBuildDropsDanglingEdges(t *testing.T) {
	ctx := context.Background()
	b, s := newTestBuilder(t)
	saveDoc(t, s, "doc1", "placeholder.")

	// Persist entities and a relationship whose target entity is missing so
	// extraction is skipped and the dangling edge must be dropped.
	require.NoError(t, s.SaveEntities(ctx, []*types.Entity{
		{ID: "e1", DocumentID: "doc1", Text: "张三", Type: types.EntityTypePerson, StartPos: 0, EndPos: 6, Confidence: 0.7},
	}))
	require.NoError(t, s.SaveRelationships(ctx, []*types.Relationship{
		{ID: "r1", DocumentID: "doc1", SourceEntityID: "e1", TargetEntityID: "gone", RelationType: "related", Confidence: 0.7},
	}))

	g, err := b.Build(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}
