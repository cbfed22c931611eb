package store

import (
	"context"
	"sort"
	"sync"

	"github.com/lexigraph/lexigraph/pkg/types"
)

// MemoryStore is a mutex-guarded in-memory Store.
type MemoryStore struct {
	mu            sync.RWMutex
	documents     map[string]*types.Document
	chunks        map[string][]*types.Chunk
	generations   map[string]int
	entities      map[string][]*types.Entity
	relationships map[string][]*types.Relationship
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents:     make(map[string]*types.Document),
		chunks:        make(map[string][]*types.Chunk),
		generations:   make(map[string]int),
		entities:      make(map[string][]*types.Entity),
		relationships: make(map[string][]*types.Relationship),
	}
}

// SaveDocument implements Store.
func (s *MemoryStore) SaveDocument(ctx context.Context, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.documents[doc.ID] = &copied
	return nil
}

// GetDocument implements Store.
func (s *MemoryStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	copied := *doc
	return &copied, nil
}

// ListDocuments implements Store. Documents come back ordered by id.
func (s *MemoryStore) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		copied := *doc
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteDocument implements Store.
func (s *MemoryStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	delete(s.generations, id)
	delete(s.entities, id)
	delete(s.relationships, id)
	return nil
}

// SaveChunks implements Store. The chunks are stamped with the next
// generation for the document; earlier generations stay stored but are no
// longer returned by GetChunks.
func (s *MemoryStore) SaveChunks(ctx context.Context, documentID string, chunks []*types.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return ErrDocumentNotFound
	}

	gen := s.generations[documentID] + 1
	s.generations[documentID] = gen
	for _, chunk := range chunks {
		copied := *chunk
		copied.Generation = gen
		s.chunks[documentID] = append(s.chunks[documentID], &copied)
	}
	return nil
}

// GetChunks implements Store. Only the current generation is returned, in
// chunk_index order.
func (s *MemoryStore) GetChunks(ctx context.Context, documentID string) ([]*types.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gen := s.generations[documentID]
	var out []*types.Chunk
	for _, chunk := range s.chunks[documentID] {
		if chunk.Generation == gen {
			copied := *chunk
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

// SaveEntities implements Store.
func (s *MemoryStore) SaveEntities(ctx context.Context, entities []*types.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entity := range entities {
		if err := entity.Validate(); err != nil {
			return err
		}
		copied := *entity
		s.entities[entity.DocumentID] = append(s.entities[entity.DocumentID], &copied)
	}
	return nil
}

// GetEntities implements Store.
func (s *MemoryStore) GetEntities(ctx context.Context, documentID string) ([]*types.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Entity, 0, len(s.entities[documentID]))
	for _, entity := range s.entities[documentID] {
		copied := *entity
		out = append(out, &copied)
	}
	return out, nil
}

// HasEntities implements Store.
func (s *MemoryStore) HasEntities(ctx context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities[documentID]) > 0, nil
}

// SaveRelationships implements Store.
func (s *MemoryStore) SaveRelationships(ctx context.Context, relationships []*types.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rel := range relationships {
		if err := rel.Validate(); err != nil {
			return err
		}
		copied := *rel
		s.relationships[rel.DocumentID] = append(s.relationships[rel.DocumentID], &copied)
	}
	return nil
}

// GetRelationships implements Store.
func (s *MemoryStore) GetRelationships(ctx context.Context, documentID string) ([]*types.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Relationship, 0, len(s.relationships[documentID]))
	for _, rel := range s.relationships[documentID] {
		copied := *rel
		out = append(out, &copied)
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
