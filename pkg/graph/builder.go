package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lexigraph/lexigraph/pkg/extractor"
	"github.com/lexigraph/lexigraph/pkg/store"
	"github.com/lexigraph/lexigraph/pkg/types"
)

// Builder turns a document's stored entities and relationships into a
// Graph, running extraction first if the document has never been extracted.
type Builder struct {
	store     store.Store
	extractor *extractor.Extractor
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewBuilder creates a graph builder.
func NewBuilder(s store.Store, ex *extractor.Extractor, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		store:     s,
		extractor: ex,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// documentLock returns the mutex serializing extraction for one document.
// Two concurrent first-time builds of the same document must not both
// observe "no entities" and extract twice.
func (b *Builder) documentLock(documentID string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[documentID] = lock
	}
	return lock
}

// Build constructs the knowledge graph for a document. A missing document
// surfaces store.ErrDocumentNotFound; a document whose text yields no
// entities surfaces ErrNoEntities. Edges whose endpoints are not both among
// the built nodes are dropped.
func (b *Builder) Build(ctx context.Context, documentID string) (*Graph, error) {
	doc, err := b.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	lock := b.documentLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	has, err := b.store.HasEntities(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check extraction state: %w", err)
	}
	if !has {
		if err := b.extractAndPersist(ctx, doc); err != nil {
			return nil, err
		}
	}

	entities, err := b.store.GetEntities(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	if len(entities) == 0 {
		return nil, ErrNoEntities
	}
	relationships, err := b.store.GetRelationships(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	nodes := make([]types.GraphNode, 0, len(entities))
	for _, entity := range entities {
		nodes = append(nodes, types.GraphNode{
			ID:    types.GraphNodeID(entity.ID),
			Label: entity.Text,
			Type:  entity.Type,
		})
	}

	edges := make([]types.GraphEdge, 0, len(relationships))
	for _, rel := range relationships {
		edges = append(edges, types.GraphEdge{
			Source:       types.GraphNodeID(rel.SourceEntityID),
			Target:       types.GraphNodeID(rel.TargetEntityID),
			RelationType: rel.RelationType,
			Confidence:   rel.Confidence,
		})
	}

	g := NewGraph(nodes, edges)
	b.logger.Debug("graph built",
		"document_id", documentID, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}

// extractAndPersist runs the extractor over the document text and stores
// the results. Zero extracted entities is reported as ErrNoEntities and
// nothing is persisted.
func (b *Builder) extractAndPersist(ctx context.Context, doc *types.Document) error {
	result := b.extractor.Extract(doc.ID, doc.Content)
	if len(result.Entities) == 0 {
		return ErrNoEntities
	}

	entities := make([]*types.Entity, 0, len(result.Entities))
	for i := range result.Entities {
		entities = append(entities, &result.Entities[i])
	}
	if err := b.store.SaveEntities(ctx, entities); err != nil {
		return fmt.Errorf("failed to persist entities: %w", err)
	}

	if len(result.Relationships) > 0 {
		relationships := make([]*types.Relationship, 0, len(result.Relationships))
		for i := range result.Relationships {
			relationships = append(relationships, &result.Relationships[i])
		}
		if err := b.store.SaveRelationships(ctx, relationships); err != nil {
			return fmt.Errorf("failed to persist relationships: %w", err)
		}
	}

	b.logger.Info("extracted document",
		"document_id", doc.ID,
		"entities", len(result.Entities),
		"relationships", len(result.Relationships))
	return nil
}
