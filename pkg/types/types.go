package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyContent    = errors.New("content cannot be empty")
	ErrEmptyID         = errors.New("id cannot be empty")
	ErrEmptyDocumentID = errors.New("document_id cannot be empty")
	ErrInvalidSpan     = errors.New("entity span is invalid")
	ErrInvalidLimit    = errors.New("limit must be positive")
	ErrConfidenceRange = errors.New("confidence must be between 0 and 1")
)

// EntityType is an open, configuration-driven tag for extracted entities.
// The built-in types below are always available; user configuration can
// register additional types.
type EntityType string

const (
	EntityTypePerson  EntityType = "PERSON"
	EntityTypeOrg     EntityType = "ORG"
	EntityTypeLoc     EntityType = "LOC"
	EntityTypeTech    EntityType = "TECH"
	EntityTypeProduct EntityType = "PRODUCT"
	EntityTypeEvent   EntityType = "EVENT"
	EntityTypeConcept EntityType = "CONCEPT"
)

// BuiltinEntityTypes returns the entity types that are always registered.
func BuiltinEntityTypes() []EntityType {
	return []EntityType{
		EntityTypePerson,
		EntityTypeOrg,
		EntityTypeLoc,
		EntityTypeTech,
		EntityTypeProduct,
		EntityTypeEvent,
		EntityTypeConcept,
	}
}

// Document is a unit of ingested text. Chunks, entities and relationships
// all hang off a document by ID.
type Document struct {
	ID        string                 `json:"id" mapstructure:"id"`
	Title     string                 `json:"title,omitempty" mapstructure:"title"`
	Content   string                 `json:"content" mapstructure:"content"`
	CreatedAt time.Time              `json:"created_at" mapstructure:"created_at"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Validate checks if the Document has all required fields set.
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if d.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// Chunk is a bounded, possibly overlapping substring of a document prepared
// for indexing. Chunks are immutable once created; re-chunking a document
// produces a new generation that supersedes the old one.
type Chunk struct {
	ID               string `json:"id" mapstructure:"id"`
	ParentDocumentID string `json:"parent_document_id" mapstructure:"parent_document_id"`
	Content          string `json:"content" mapstructure:"content"`
	ChunkIndex       int    `json:"chunk_index" mapstructure:"chunk_index"`
	WordCount        int    `json:"word_count" mapstructure:"word_count"`
	Summary          string `json:"summary,omitempty" mapstructure:"summary"`
	Generation       int    `json:"generation" mapstructure:"generation"`
}

// Validate checks if the Chunk has all required fields set.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if c.ParentDocumentID == "" {
		return ErrEmptyDocumentID
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// Entity is a typed, positioned span of text recognized as a named concept.
// StartPos and EndPos are byte offsets into the source document text.
type Entity struct {
	ID         string     `json:"id" mapstructure:"id"`
	DocumentID string     `json:"document_id" mapstructure:"document_id"`
	Text       string     `json:"text" mapstructure:"text"`
	Type       EntityType `json:"type" mapstructure:"type"`
	StartPos   int        `json:"start_pos" mapstructure:"start_pos"`
	EndPos     int        `json:"end_pos" mapstructure:"end_pos"`
	Confidence float64    `json:"confidence" mapstructure:"confidence"`
}

// Validate checks if the Entity has all required fields set and a valid span.
func (e *Entity) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if e.DocumentID == "" {
		return ErrEmptyDocumentID
	}
	if e.StartPos < 0 || e.StartPos >= e.EndPos {
		return ErrInvalidSpan
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return ErrConfidenceRange
	}
	return nil
}

// Relationship is a typed association between two entities of the same
// document that co-occur in a sentence.
type Relationship struct {
	ID             string  `json:"id" mapstructure:"id"`
	DocumentID     string  `json:"document_id" mapstructure:"document_id"`
	SourceEntityID string  `json:"source_entity_id" mapstructure:"source_entity_id"`
	TargetEntityID string  `json:"target_entity_id" mapstructure:"target_entity_id"`
	RelationType   string  `json:"relation_type" mapstructure:"relation_type"`
	Confidence     float64 `json:"confidence" mapstructure:"confidence"`
}

// RelationTypeDefault is used when no inference rule matches a sentence.
const RelationTypeDefault = "related"

// Validate checks if the Relationship has all required fields set.
func (r *Relationship) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if r.DocumentID == "" {
		return ErrEmptyDocumentID
	}
	if r.SourceEntityID == "" || r.TargetEntityID == "" {
		return ErrEmptyID
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return ErrConfidenceRange
	}
	return nil
}

// RankedResult is one scored hit from vector, keyword or hybrid search.
type RankedResult struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Centrality holds the three centrality measures computed for a graph node.
type Centrality struct {
	Degree      float64 `json:"degree"`
	Closeness   float64 `json:"closeness"`
	Betweenness float64 `json:"betweenness"`
}

// GraphNode is a knowledge-graph node derived from an Entity. It is
// recomputed on every graph build and never persisted separately.
type GraphNode struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Type        EntityType `json:"type"`
	Centrality  Centrality `json:"centrality"`
	CommunityID int        `json:"community_id"`
}

// GraphEdge is a knowledge-graph edge derived from a Relationship.
type GraphEdge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	RelationType string  `json:"relation_type"`
	Confidence   float64 `json:"confidence"`
}

// GraphNodeID derives the graph node ID for an entity.
func GraphNodeID(entityID string) string {
	return "entity_" + entityID
}
