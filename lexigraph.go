package lexigraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexigraph/lexigraph/pkg/cache"
	"github.com/lexigraph/lexigraph/pkg/chunker"
	"github.com/lexigraph/lexigraph/pkg/embedder"
	"github.com/lexigraph/lexigraph/pkg/extractor"
	"github.com/lexigraph/lexigraph/pkg/graph"
	"github.com/lexigraph/lexigraph/pkg/retrieval"
	"github.com/lexigraph/lexigraph/pkg/store"
	"github.com/lexigraph/lexigraph/pkg/summarizer"
	"github.com/lexigraph/lexigraph/pkg/telemetry"
	"github.com/lexigraph/lexigraph/pkg/textutil"
	"github.com/lexigraph/lexigraph/pkg/types"
	"github.com/lexigraph/lexigraph/pkg/vectorindex"
)

// Errors returned by the Engine.
var (
	ErrNilStore    = errors.New("store is required")
	ErrNilIndex    = errors.New("vector index is required")
	ErrNilEmbedder = errors.New("embedder is required")
)

// ChunkMode selects the chunking strategy used at ingestion time.
type ChunkMode string

const (
	ChunkSemantic ChunkMode = "semantic"
	ChunkAdaptive ChunkMode = "adaptive"
)

// Options configures an Engine. The zero value gives semantic chunking with
// default bounds, 0.3/0.7 hybrid weights, no cache and no telemetry.
type Options struct {
	// ChunkMode is the default chunking strategy (default: semantic).
	ChunkMode ChunkMode
	Chunking  chunker.Options
	Adaptive  chunker.AdaptiveOptions

	// Retrieval configures the search coordinator (timeout, retry, breaker).
	Retrieval retrieval.Config

	// Hybrid fusion weights (defaults: keyword 0.3, vector 0.7).
	KeywordWeight float64
	VectorWeight  float64

	// Extraction overrides the built-in extraction configuration.
	Extraction *extractor.Config

	// Summarize fills Chunk.Summary during ingestion. When Summarizer is
	// nil the lead-sentence heuristic is used.
	Summarize  bool
	Summarizer summarizer.Summarizer

	// EagerExtract runs entity extraction at ingestion time instead of on
	// the first graph build.
	EagerExtract bool

	// Cache and Metrics are optional; nil disables query caching and
	// latency recording respectively.
	Cache   cache.QueryCache
	Metrics *telemetry.Recorder
}

// DefaultOptions returns the Engine defaults.
func DefaultOptions() Options {
	return Options{
		ChunkMode:     ChunkSemantic,
		Chunking:      chunker.DefaultOptions(),
		Adaptive:      chunker.DefaultAdaptiveOptions(),
		Retrieval:     retrieval.DefaultConfig(),
		KeywordWeight: 0.3,
		VectorWeight:  0.7,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ChunkMode == "" {
		o.ChunkMode = def.ChunkMode
	}
	if o.KeywordWeight == 0 && o.VectorWeight == 0 {
		o.KeywordWeight = def.KeywordWeight
		o.VectorWeight = def.VectorWeight
	}
	if o.Summarize && o.Summarizer == nil {
		o.Summarizer = summarizer.NewLeadSentence(0)
	}
	return o
}

// Engine is the top-level entry point: it owns the ingestion pipeline, the
// retrieval coordinator and the graph builder.
type Engine struct {
	store       store.Store
	index       vectorindex.Index
	embed       embedder.Client
	extractor   *extractor.Extractor
	coordinator *retrieval.Coordinator
	ranker      *retrieval.HybridRanker
	builder     *graph.Builder
	opts        Options
	logger      *slog.Logger
}

// New creates an Engine over the given store, vector index and embedder.
// logger may be nil, in which case slog.Default() is used.
func New(s store.Store, index vectorindex.Index, embed embedder.Client, opts Options, logger *slog.Logger) (*Engine, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	if index == nil {
		return nil, ErrNilIndex
	}
	if embed == nil {
		return nil, ErrNilEmbedder
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	extractionCfg := extractor.DefaultConfig()
	if opts.Extraction != nil {
		extractionCfg = *opts.Extraction
	}
	ex := extractor.New(extractionCfg, logger)

	coordinator := retrieval.NewCoordinator(index, embed, opts.Cache, opts.Metrics, opts.Retrieval, logger)

	return &Engine{
		store:       s,
		index:       index,
		embed:       embed,
		extractor:   ex,
		coordinator: coordinator,
		ranker:      retrieval.NewHybridRanker(coordinator, index),
		builder:     graph.NewBuilder(s, ex, logger),
		opts:        opts,
		logger:      logger,
	}, nil
}

// IngestOptions tunes a single IngestDocument call.
type IngestOptions struct {
	Title    string
	Metadata map[string]interface{}
	// Mode overrides the engine's default chunking strategy.
	Mode ChunkMode
}

// IngestResult reports what one ingestion produced.
type IngestResult struct {
	DocumentID    string          `json:"document_id"`
	ChunkCount    int             `json:"chunk_count"`
	Quality       chunker.Quality `json:"quality"`
	Entities      int             `json:"entities"`
	Relationships int             `json:"relationships"`
}

// IngestDocument stores the text as a new document, chunks it, indexes the
// chunks into the vector index and, when eager extraction is enabled, runs
// entity extraction immediately. The query cache is cleared because new
// content can change any cached result set.
func (e *Engine) IngestDocument(ctx context.Context, content string, opts *IngestOptions) (*IngestResult, error) {
	if content == "" {
		return nil, types.ErrEmptyContent
	}
	if opts == nil {
		opts = &IngestOptions{}
	}

	doc := &types.Document{
		ID:        uuid.NewString(),
		Title:     opts.Title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Metadata:  opts.Metadata,
	}
	if err := e.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	pieces := e.chunk(content, opts.Mode)
	result := &IngestResult{DocumentID: doc.ID, ChunkCount: len(pieces), Quality: chunker.AnalyzeQuality(pieces)}

	if len(pieces) > 0 {
		if err := e.indexChunks(ctx, doc.ID, pieces); err != nil {
			return nil, err
		}
	}

	if err := e.coordinator.ClearCache(ctx); err != nil {
		e.logger.Warn("failed to clear query cache after ingestion", "error", err)
	}

	if e.opts.EagerExtract {
		if _, err := e.builder.Build(ctx, doc.ID); err != nil && !errors.Is(err, graph.ErrNoEntities) {
			return nil, err
		}
		entities, err := e.store.GetEntities(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load entities: %w", err)
		}
		relationships, err := e.store.GetRelationships(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load relationships: %w", err)
		}
		result.Entities = len(entities)
		result.Relationships = len(relationships)
	}

	e.logger.Info("document ingested",
		"document_id", doc.ID, "chunks", result.ChunkCount, "entities", result.Entities)
	return result, nil
}

func (e *Engine) chunk(content string, mode ChunkMode) []string {
	if mode == "" {
		mode = e.opts.ChunkMode
	}
	if mode == ChunkAdaptive {
		return chunker.Adaptive(content, e.opts.Adaptive)
	}
	return chunker.Semantic(content, e.opts.Chunking)
}

// indexChunks persists the chunk records and adds their embeddings to the
// vector index, tagged with the document id and the stored generation.
func (e *Engine) indexChunks(ctx context.Context, documentID string, pieces []string) error {
	chunks := make([]*types.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunk := &types.Chunk{
			ID:               uuid.NewString(),
			ParentDocumentID: documentID,
			Content:          piece,
			ChunkIndex:       i,
			WordCount:        len(textutil.Tokenize(piece)),
		}
		if e.opts.Summarizer != nil {
			summary, err := e.opts.Summarizer.Summarize(ctx, piece)
			if err != nil {
				return fmt.Errorf("failed to summarize chunk: %w", err)
			}
			chunk.Summary = summary
		}
		chunks = append(chunks, chunk)
	}

	if err := e.store.SaveChunks(ctx, documentID, chunks); err != nil {
		return fmt.Errorf("failed to save chunks: %w", err)
	}
	stored, err := e.store.GetChunks(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load stored chunks: %w", err)
	}

	contents := make([]string, 0, len(stored))
	for _, chunk := range stored {
		contents = append(contents, chunk.Content)
	}
	vectors, err := e.embed.Embed(ctx, contents)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(stored) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(stored))
	}

	docs := make([]vectorindex.Document, 0, len(stored))
	for i, chunk := range stored {
		docs = append(docs, vectorindex.Document{
			ID:        chunk.ID,
			Content:   chunk.Content,
			Embedding: vectors[i],
			Metadata: map[string]interface{}{
				"document_id": documentID,
				"chunk_index": chunk.ChunkIndex,
				"generation":  chunk.Generation,
			},
		})
	}
	if err := e.index.Add(ctx, docs); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	return nil
}

// Document returns one stored document by id.
func (e *Engine) Document(ctx context.Context, id string) (*types.Document, error) {
	return e.store.GetDocument(ctx, id)
}

// Documents lists every stored document.
func (e *Engine) Documents(ctx context.Context) ([]*types.Document, error) {
	return e.store.ListDocuments(ctx)
}

// Chunks returns the current-generation chunks of a document.
func (e *Engine) Chunks(ctx context.Context, documentID string) ([]*types.Chunk, error) {
	return e.store.GetChunks(ctx, documentID)
}

// DeleteDocument removes the document, its stored chunks, entities and
// relationships, and its vectors, then clears the query cache.
func (e *Engine) DeleteDocument(ctx context.Context, id string) error {
	if err := e.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if _, err := e.index.DeleteByMetadata(ctx, map[string]interface{}{"document_id": id}); err != nil {
		return fmt.Errorf("failed to remove document vectors: %w", err)
	}
	return e.coordinator.ClearCache(ctx)
}

// Search runs a cached vector search. filters restricts results to chunks
// whose metadata matches every entry, e.g. {"document_id": id}.
func (e *Engine) Search(ctx context.Context, query string, limit int, filters map[string]interface{}) ([]types.RankedResult, error) {
	return e.coordinator.Search(ctx, query, limit, filters)
}

// HybridSearch blends keyword coverage and vector similarity using the
// engine's configured weights.
func (e *Engine) HybridSearch(ctx context.Context, query string, nResults int) ([]types.RankedResult, error) {
	return e.ranker.Fuse(ctx, query, e.opts.KeywordWeight, e.opts.VectorWeight, nResults)
}

// BuildGraph returns the knowledge graph for a document, extracting entities
// first if the document has never been extracted.
func (e *Engine) BuildGraph(ctx context.Context, documentID string) (*graph.Graph, error) {
	return e.builder.Build(ctx, documentID)
}

// GraphStatistics builds the document graph and summarizes it.
func (e *Engine) GraphStatistics(ctx context.Context, documentID string) (graph.Statistics, error) {
	g, err := e.builder.Build(ctx, documentID)
	if err != nil {
		return graph.Statistics{}, err
	}
	return g.Statistics(), nil
}

// Neighbors returns the nodes reachable from nodeID grouped by exact
// distance, up to depth hops.
func (e *Engine) Neighbors(ctx context.Context, documentID, nodeID string, depth int) (map[int][]types.GraphNode, error) {
	g, err := e.builder.Build(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return g.Neighbors(nodeID, depth)
}

// FindPaths enumerates simple paths between two nodes up to maxDepth edges.
func (e *Engine) FindPaths(ctx context.Context, documentID, sourceID, targetID string, maxDepth int) ([][]string, error) {
	g, err := e.builder.Build(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return g.FindPaths(sourceID, targetID, maxDepth)
}

// SimilarNodes ranks the nodes most similar to nodeID by type and shared
// neighborhood.
func (e *Engine) SimilarNodes(ctx context.Context, documentID, nodeID string, maxResults int) ([]graph.SimilarNode, error) {
	g, err := e.builder.Build(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return g.SimilarNodes(nodeID, maxResults)
}

// Keywords returns the topN most frequent content tokens of the text.
func (e *Engine) Keywords(text string, topN int) []textutil.KeywordCount {
	return e.extractor.Keywords(text, topN)
}

// Similarity computes token-Jaccard similarity between two texts.
func (e *Engine) Similarity(a, b string) float64 {
	return e.extractor.Similarity(a, b)
}

// AnalyzeChunking chunks the text without ingesting it and reports quality
// statistics, for previewing chunking settings.
func (e *Engine) AnalyzeChunking(text string, mode ChunkMode) chunker.Quality {
	return chunker.AnalyzeQuality(e.chunk(text, mode))
}

// ClearCache drops every cached query result.
func (e *Engine) ClearCache(ctx context.Context) error {
	return e.coordinator.ClearCache(ctx)
}

// CacheStats reports query cache hit/miss counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.coordinator.CacheStats()
}

// SearchStats aggregates latency samples for a search metric over the
// trailing window.
func (e *Engine) SearchStats(metric string, window time.Duration) telemetry.MetricStats {
	return e.coordinator.SearchStats(metric, window)
}

// Close releases the store and the embedder.
func (e *Engine) Close() error {
	return errors.Join(e.store.Close(), e.embed.Close())
}
