// Package vectorindex defines the vector store used for similarity search
// over chunk embeddings, plus an in-memory implementation suitable for tests
// and small corpora.
package vectorindex

import (
	"context"
	"errors"
)

// Errors returned by Index implementations.
var (
	ErrEmptyID        = errors.New("vector document id must not be empty")
	ErrMissingVector  = errors.New("vector document has no embedding")
	ErrDimensionMatch = errors.New("embedding dimensions do not match")
)

// Document is one indexed item: an id, the text it represents, its
// embedding, and free-form metadata used for filtered lookups and deletes.
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Embedding []float32              `json:"embedding"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Hit is a similarity search result. Distance is cosine distance, so lower
// is closer; callers converting to a score use 1 - Distance.
type Hit struct {
	Document
	Distance float64 `json:"distance"`
}

// Index stores embedded documents and answers nearest-neighbor queries.
type Index interface {
	// Add upserts documents. A document with an existing id replaces the
	// stored one.
	Add(ctx context.Context, docs []Document) error

	// SimilaritySearch returns up to limit hits ordered by ascending
	// distance to the query embedding.
	SimilaritySearch(ctx context.Context, embedding []float32, limit int) ([]Hit, error)

	// Delete removes documents by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// DeleteByMetadata removes every document whose metadata matches all
	// filter entries and reports how many were removed.
	DeleteByMetadata(ctx context.Context, filter map[string]interface{}) (int, error)

	// GetByMetadata returns up to limit documents whose metadata matches
	// all filter entries. limit <= 0 means no limit.
	GetByMetadata(ctx context.Context, filter map[string]interface{}, limit int) ([]Document, error)

	// Count reports the number of stored documents.
	Count(ctx context.Context) (int, error)
}
