package vectorindex

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// MemoryIndex is a mutex-guarded in-memory Index doing exact brute-force
// cosine search. Search is O(n) per query, which is fine for the corpus
// sizes this library targets; larger deployments substitute an ANN-backed
// implementation behind the same interface.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]Document
	dims int
}

// NewMemoryIndex creates an empty index. The embedding width is fixed by
// the first document added.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]Document)}
}

// Add implements Index.
func (m *MemoryIndex) Add(ctx context.Context, docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range docs {
		if doc.ID == "" {
			return ErrEmptyID
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingVector, doc.ID)
		}
		if m.dims == 0 {
			m.dims = len(doc.Embedding)
		} else if len(doc.Embedding) != m.dims {
			return fmt.Errorf("%w: %s has %d, index has %d", ErrDimensionMatch, doc.ID, len(doc.Embedding), m.dims)
		}
		m.docs[doc.ID] = doc
	}
	return nil
}

// SimilaritySearch implements Index. Ties on distance break by ascending id
// so results are deterministic.
func (m *MemoryIndex) SimilaritySearch(ctx context.Context, embedding []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dims != 0 && len(embedding) != m.dims {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMatch, len(embedding), m.dims)
	}

	hits := make([]Hit, 0, len(m.docs))
	for _, doc := range m.docs {
		hits = append(hits, Hit{Document: doc, Distance: CosineDistance(embedding, doc.Embedding)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Delete implements Index.
func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.docs, id)
	}
	return nil
}

// DeleteByMetadata implements Index.
func (m *MemoryIndex) DeleteByMetadata(ctx context.Context, filter map[string]interface{}) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, doc := range m.docs {
		if metadataMatches(doc.Metadata, filter) {
			delete(m.docs, id)
			removed++
		}
	}
	return removed, nil
}

// GetByMetadata implements Index. Results are ordered by id.
func (m *MemoryIndex) GetByMetadata(ctx context.Context, filter map[string]interface{}, limit int) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, doc := range m.docs {
		if metadataMatches(doc.Metadata, filter) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count implements Index.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

// metadataMatches reports whether every filter entry is present and equal in
// the document metadata. An empty filter matches everything.
func metadataMatches(metadata, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
