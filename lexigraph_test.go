package lexigraph

import (
	"context"
	"hash/fnv"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigraph/lexigraph/pkg/cache"
	"github.com/lexigraph/lexigraph/pkg/chunker"
	"github.com/lexigraph/lexigraph/pkg/store"
	"github.com/lexigraph/lexigraph/pkg/textutil"
	"github.com/lexigraph/lexigraph/pkg/types"
	"github.com/lexigraph/lexigraph/pkg/vectorindex"
)

const testDims = 64

// hashEmbedder maps token hashes into a fixed-size bag-of-words vector, so
// texts sharing tokens get positive cosine similarity without a model.
type hashEmbedder struct{}

func (hashEmbedder) embed(text string) []float32 {
	v := make([]float32, testDims)
	for _, tok := range textutil.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		v[h.Sum32()%testDims]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}

func (h hashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.embed(t)
	}
	return out, nil
}

func (h hashEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

func (hashEmbedder) Dimensions() int { return testDims }
func (hashEmbedder) Close() error    { return nil }

func testOptions() Options {
	opts := DefaultOptions()
	opts.Chunking = chunker.Options{MaxSize: 60, MinSize: 1, Overlap: 0}
	opts.Adaptive = chunker.AdaptiveOptions{TargetSize: 40, MinSize: 1, MaxSize: 60}
	opts.Retrieval.Breaker.Enabled = false
	return opts
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	engine, err := New(store.NewMemoryStore(), vectorindex.NewMemoryIndex(), hashEmbedder{}, opts, nil)
	require.NoError(t, err)
	return engine
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New(nil, vectorindex.NewMemoryIndex(), hashEmbedder{}, Options{}, nil)
	assert.ErrorIs(t, err, ErrNilStore)

	_, err = New(store.NewMemoryStore(), nil, hashEmbedder{}, Options{}, nil)
	assert.ErrorIs(t, err, ErrNilIndex)

	_, err = New(store.NewMemoryStore(), vectorindex.NewMemoryIndex(), nil, Options{}, nil)
	assert.ErrorIs(t, err, ErrNilEmbedder)
}

func TestIngestDocumentStoresAndIndexesChunks(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testOptions())

	content := "张三在ABC公司工作。李四在XYZ大学学习。他们都住在北京市。"
	result, err := engine.IngestDocument(ctx, content, &IngestOptions{Title: "简介"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.DocumentID)
	assert.Positive(t, result.ChunkCount)
	assert.Equal(t, result.ChunkCount, result.Quality.Count)

	doc, err := engine.Document(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "简介", doc.Title)
	assert.Equal(t, content, doc.Content)

	chunks, err := engine.Chunks(ctx, result.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, result.ChunkCount)
	for _, chunk := range chunks {
		assert.Equal(t, 1, chunk.Generation)
		assert.Positive(t, chunk.WordCount)
	}

	n, err := engine.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.ChunkCount, n)
}

func TestIngestDocumentEmptyContent(t *testing.T) {
	engine := newTestEngine(t, testOptions())

	_, err := engine.IngestDocument(context.Background(), "", nil)
	assert.ErrorIs(t, err, types.ErrEmptyContent)
}

func TestIngestDocumentAdaptiveMode(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testOptions())

	result, err := engine.IngestDocument(ctx, "第一句话。第二句话。第三句话。", &IngestOptions{Mode: ChunkAdaptive})
	require.NoError(t, err)
	assert.Positive(t, result.ChunkCount)
}

func TestIngestDocumentFillsSummaries(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.Summarize = true
	engine := newTestEngine(t, opts)

	result, err := engine.IngestDocument(ctx, "张三在ABC公司工作。李四在XYZ大学学习。", nil)
	require.NoError(t, err)

	chunks, err := engine.Chunks(ctx, result.DocumentID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Summary)
	}
}

func TestIngestDocumentEagerExtract(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.EagerExtract = true
	engine := newTestEngine(t, opts)

	result, err := engine.IngestDocument(ctx, "张三在ABC公司工作。", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Entities)
	assert.Equal(t, 1, result.Relationships)
}

func TestSearchFindsIngestedChunk(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testOptions())

	result, err := engine.IngestDocument(ctx, "张三在ABC公司工作。", nil)
	require.NoError(t, err)
	_, err = engine.IngestDocument(ctx, "completely unrelated english text about weather.", nil)
	require.NoError(t, err)

	results, err := engine.Search(ctx, "张三", 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, result.DocumentID, results[0].Metadata["document_id"])
	assert.Positive(t, results[0].Score)
}

func TestSearchFilterByDocument(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testOptions())

	first, err := engine.IngestDocument(ctx, "张三在ABC公司工作。", nil)
	require.NoError(t, err)
	_, err = engine.IngestDocument(ctx, "张三在XYZ大学学习。", nil)
	require.NoError(t, err)

	results, err := engine.Search(ctx, "张三", 10, map[string]interface{}{"document_id": first.DocumentID})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, res := range results {
		assert.Equal(t, first.DocumentID, res.Metadata["document_id"])
	}
}

func TestSearchUsesCache(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.Cache = cache.NewMemoryCache(16, time.Minute)
	engine := newTestEngine(t, opts)

	_, err := engine.IngestDocument(ctx, "张三在ABC公司工作。", nil)
	require.NoError(t, err)

	_, err = engine.Search(ctx, "张三", 5, nil)
	require.NoError(t, err)
	_, err = engine.Search(ctx, "张三", 5, nil)
	require.NoError(t, err)

	stats := engine.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestHybridSearchPrefersKeywordMatch(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testOptions())

	target, err := engine.IngestDocument(ctx, "张三在ABC公司工作。", nil)
	require.NoError(t, err)
	_, err = engine.IngestDocument(ctx, "some english filler sentence here.", nil)
	require.NoError(t, err)

	results, err := engine.HybridSearch(ctx, "张三", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, target.DocumentID, results[0].Metadata["document_id"])
}

func TestDeleteDocumentRemovesEverything(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testOptions())

	result, err := engine.IngestDocument(ctx, "张三在ABC公司工作。", nil)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteDocument(ctx, result.DocumentID))

	_, err = engine.Document(ctx, result.DocumentID)
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)

	n, err := engine.index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBuildGraphAndAnalytics(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testOptions())

	result, err := engine.IngestDocument(ctx, "张三在ABC公司工作。李四在ABC公司工作。", nil)
	require.NoError(t, err)

	g, err := engine.BuildGraph(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Positive(t, g.NodeCount())
	assert.Positive(t, g.EdgeCount())

	stats, err := engine.GraphStatistics(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, g.NodeCount(), stats.NodeCount)
	assert.Equal(t, g.EdgeCount(), stats.EdgeCount)

	rings, err := engine.Neighbors(ctx, result.DocumentID, g.Nodes[0].ID, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, rings)
}

func TestBuildGraphMissingDocument(t *testing.T) {
	engine := newTestEngine(t, testOptions())

	_, err := engine.BuildGraph(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
}

func TestKeywordsAndSimilarity(t *testing.T) {
	engine := newTestEngine(t, testOptions())

	keywords := engine.Keywords("张三在ABC公司工作。张三喜欢编程。", 3)
	assert.NotEmpty(t, keywords)

	assert.Equal(t, 1.0, engine.Similarity("张三", "张三"))
	assert.Zero(t, engine.Similarity("张三", "completely different"))
}

func TestAnalyzeChunking(t *testing.T) {
	engine := newTestEngine(t, testOptions())

	quality := engine.AnalyzeChunking("第一句话。第二句话。第三句话。", ChunkSemantic)
	assert.Positive(t, quality.Count)
	assert.Positive(t, quality.AvgSize)
}

func TestClose(t *testing.T) {
	engine := newTestEngine(t, testOptions())
	assert.NoError(t, engine.Close())
}
