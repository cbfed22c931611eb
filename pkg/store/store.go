// Package store persists documents, chunks, entities and relationships.
//
// Three backends ship with the library: an in-memory store for tests and
// experimentation, an embedded BadgerDB store for single-node persistence,
// and a Neo4j store for deployments that want the knowledge graph queryable
// in a real graph database.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexigraph/lexigraph/pkg/types"
)

// Errors returned by Store implementations.
var (
	ErrDocumentNotFound = errors.New("document not found")
)

// Store is the persistence contract for the ingestion and graph pipelines.
//
// Chunks are generational: each SaveChunks call stamps its chunks with the
// next generation for the document and GetChunks returns only the current
// generation, so re-chunking supersedes rather than mutates.
type Store interface {
	SaveDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, id string) (*types.Document, error)
	ListDocuments(ctx context.Context) ([]*types.Document, error)
	// DeleteDocument removes the document and everything hanging off it.
	DeleteDocument(ctx context.Context, id string) error

	SaveChunks(ctx context.Context, documentID string, chunks []*types.Chunk) error
	GetChunks(ctx context.Context, documentID string) ([]*types.Chunk, error)

	SaveEntities(ctx context.Context, entities []*types.Entity) error
	GetEntities(ctx context.Context, documentID string) ([]*types.Entity, error)
	// HasEntities reports whether any entity is stored for the document.
	HasEntities(ctx context.Context, documentID string) (bool, error)

	SaveRelationships(ctx context.Context, relationships []*types.Relationship) error
	GetRelationships(ctx context.Context, documentID string) ([]*types.Relationship, error)

	Close() error
}

// Type selects a Store backend.
type Type string

const (
	TypeMemory Type = "memory"
	TypeBadger Type = "badger"
	TypeNeo4j  Type = "neo4j"
)

// Config selects and configures a backend.
type Config struct {
	// Type is the backend type: "memory", "badger" or "neo4j" (default:
	// memory).
	Type Type `json:"type,omitempty" mapstructure:"type"`

	// Path is the data directory for the badger backend. Empty means
	// badger runs fully in memory.
	Path string `json:"path,omitempty" mapstructure:"path"`

	// Neo4j connection settings.
	URI      string `json:"uri,omitempty" mapstructure:"uri"`
	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" mapstructure:"password"`
	Database string `json:"database,omitempty" mapstructure:"database"`
}

// New creates a Store for the configured backend.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeMemory, "":
		return NewMemoryStore(), nil
	case TypeBadger:
		return NewBadgerStore(cfg.Path)
	case TypeNeo4j:
		return NewNeo4jStore(cfg.URI, cfg.Username, cfg.Password, cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported store type: %s (supported: memory, badger, neo4j)", cfg.Type)
	}
}
