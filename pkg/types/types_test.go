package types

import (
	"testing"
)

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     Document{ID: "doc-1", Content: "hello"},
			wantErr: nil,
		},
		{
			name:    "empty id",
			doc:     Document{Content: "hello"},
			wantErr: ErrEmptyID,
		},
		{
			name:    "empty content",
			doc:     Document{ID: "doc-1"},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if err != tt.wantErr {
				t.Errorf("Document.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChunkValidate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   Chunk{ID: "chunk-1", ParentDocumentID: "doc-1", Content: "text"},
			wantErr: nil,
		},
		{
			name:    "missing parent document",
			chunk:   Chunk{ID: "chunk-1", Content: "text"},
			wantErr: ErrEmptyDocumentID,
		},
		{
			name:    "empty content",
			chunk:   Chunk{ID: "chunk-1", ParentDocumentID: "doc-1"},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if err != tt.wantErr {
				t.Errorf("Chunk.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntityValidate(t *testing.T) {
	tests := []struct {
		name    string
		entity  Entity
		wantErr error
	}{
		{
			name: "valid entity",
			entity: Entity{
				ID: "ent-1", DocumentID: "doc-1", Text: "张三",
				Type: EntityTypePerson, StartPos: 0, EndPos: 6, Confidence: 0.9,
			},
			wantErr: nil,
		},
		{
			name: "inverted span",
			entity: Entity{
				ID: "ent-1", DocumentID: "doc-1", Text: "x",
				StartPos: 5, EndPos: 2, Confidence: 0.5,
			},
			wantErr: ErrInvalidSpan,
		},
		{
			name: "zero-width span",
			entity: Entity{
				ID: "ent-1", DocumentID: "doc-1", Text: "x",
				StartPos: 3, EndPos: 3, Confidence: 0.5,
			},
			wantErr: ErrInvalidSpan,
		},
		{
			name: "confidence out of range",
			entity: Entity{
				ID: "ent-1", DocumentID: "doc-1", Text: "x",
				StartPos: 0, EndPos: 1, Confidence: 1.5,
			},
			wantErr: ErrConfidenceRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate()
			if err != tt.wantErr {
				t.Errorf("Entity.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRelationshipValidate(t *testing.T) {
	valid := Relationship{
		ID: "rel-1", DocumentID: "doc-1",
		SourceEntityID: "ent-1", TargetEntityID: "ent-2",
		RelationType: RelationTypeDefault, Confidence: 0.7,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Relationship.Validate() unexpected error: %v", err)
	}

	missingEndpoint := valid
	missingEndpoint.TargetEntityID = ""
	if err := missingEndpoint.Validate(); err != ErrEmptyID {
		t.Errorf("Relationship.Validate() error = %v, want %v", err, ErrEmptyID)
	}
}

func TestGraphNodeID(t *testing.T) {
	if got := GraphNodeID("abc"); got != "entity_abc" {
		t.Errorf("GraphNodeID() = %q, want %q", got, "entity_abc")
	}
}
