package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/lexigraph/lexigraph/pkg/types"
)

// Neo4jStore implements Store on a Neo4j database. Documents, chunks and
// entities are nodes; relationships become RELATES edges between entity
// nodes, so the knowledge graph is directly queryable in Cypher.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore creates a Neo4j-backed store.
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jStore{client: driver, database: database}, nil
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

// SaveDocument implements Store.
func (s *Neo4jStore) SaveDocument(ctx context.Context, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode document metadata: %w", err)
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (d:Document {id: $id})
			SET d.title = $title,
			    d.content = $content,
			    d.created_at = $created_at,
			    d.metadata = $metadata
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":         doc.ID,
			"title":      doc.Title,
			"content":    doc.Content,
			"created_at": doc.CreatedAt.UTC().Format(time.RFC3339Nano),
			"metadata":   string(metadata),
		})
		return nil, err
	})
	return err
}

// GetDocument implements Store.
func (s *Neo4jStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Document {id: $id})
			RETURN d.id AS id, d.title AS title, d.content AS content,
			       d.created_at AS created_at, d.metadata AS metadata
		`
		res, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrDocumentNotFound
		}
		return recordToDocument(records[0])
	})
	if err != nil {
		return nil, err
	}
	return result.(*types.Document), nil
}

// ListDocuments implements Store.
func (s *Neo4jStore) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Document)
			RETURN d.id AS id, d.title AS title, d.content AS content,
			       d.created_at AS created_at, d.metadata AS metadata
			ORDER BY d.id
		`
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		docs := make([]*types.Document, 0, len(records))
		for _, record := range records {
			doc, err := recordToDocument(record)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*types.Document), nil
}

// DeleteDocument implements Store.
func (s *Neo4jStore) DeleteDocument(ctx context.Context, id string) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Document {id: $id})
			OPTIONAL MATCH (c:Chunk {document_id: $id})
			OPTIONAL MATCH (e:Entity {document_id: $id})
			DETACH DELETE d, c, e
			RETURN count(d) AS deleted
		`
		res, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		deleted, _ := record.Get("deleted")
		if n, ok := deleted.(int64); !ok || n == 0 {
			return nil, ErrDocumentNotFound
		}
		return nil, nil
	})
	return err
}

// SaveChunks implements Store. The document's chunk_generation counter is
// bumped inside the same transaction that writes the chunks.
func (s *Neo4jStore) SaveChunks(ctx context.Context, documentID string, chunks []*types.Chunk) error {
	payload := make([]map[string]any, 0, len(chunks))
	for _, chunk := range chunks {
		payload = append(payload, map[string]any{
			"id":          chunk.ID,
			"content":     chunk.Content,
			"chunk_index": chunk.ChunkIndex,
			"word_count":  chunk.WordCount,
			"summary":     chunk.Summary,
		})
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Document {id: $document_id})
			SET d.chunk_generation = coalesce(d.chunk_generation, 0) + 1
			WITH d
			UNWIND $chunks AS chunk
			CREATE (c:Chunk {
				id: chunk.id,
				document_id: $document_id,
				content: chunk.content,
				chunk_index: chunk.chunk_index,
				word_count: chunk.word_count,
				summary: chunk.summary,
				generation: d.chunk_generation
			})
			CREATE (c)-[:PART_OF]->(d)
			RETURN count(c)
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"document_id": documentID,
			"chunks":      payload,
		})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		if summary.Counters().NodesCreated() == 0 && len(chunks) > 0 {
			return nil, ErrDocumentNotFound
		}
		return nil, nil
	})
	return err
}

// GetChunks implements Store.
func (s *Neo4jStore) GetChunks(ctx context.Context, documentID string) ([]*types.Chunk, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (c:Chunk)-[:PART_OF]->(d:Document {id: $document_id})
			WHERE c.generation = d.chunk_generation
			RETURN c.id AS id, c.content AS content, c.chunk_index AS chunk_index,
			       c.word_count AS word_count, c.summary AS summary, c.generation AS generation
			ORDER BY c.chunk_index
		`
		res, err := tx.Run(ctx, query, map[string]any{"document_id": documentID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		chunks := make([]*types.Chunk, 0, len(records))
		for _, record := range records {
			chunks = append(chunks, &types.Chunk{
				ID:               stringValue(record, "id"),
				ParentDocumentID: documentID,
				Content:          stringValue(record, "content"),
				ChunkIndex:       intValue(record, "chunk_index"),
				WordCount:        intValue(record, "word_count"),
				Summary:          stringValue(record, "summary"),
				Generation:       intValue(record, "generation"),
			})
		}
		return chunks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*types.Chunk), nil
}

// SaveEntities implements Store.
func (s *Neo4jStore) SaveEntities(ctx context.Context, entities []*types.Entity) error {
	payload := make([]map[string]any, 0, len(entities))
	for _, entity := range entities {
		if err := entity.Validate(); err != nil {
			return err
		}
		payload = append(payload, map[string]any{
			"id":          entity.ID,
			"document_id": entity.DocumentID,
			"text":        entity.Text,
			"type":        string(entity.Type),
			"start_pos":   entity.StartPos,
			"end_pos":     entity.EndPos,
			"confidence":  entity.Confidence,
		})
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			UNWIND $entities AS entity
			MERGE (e:Entity {id: entity.id})
			SET e.document_id = entity.document_id,
			    e.text = entity.text,
			    e.type = entity.type,
			    e.start_pos = entity.start_pos,
			    e.end_pos = entity.end_pos,
			    e.confidence = entity.confidence
			WITH e, entity
			MATCH (d:Document {id: entity.document_id})
			MERGE (e)-[:MENTIONED_IN]->(d)
		`
		_, err := tx.Run(ctx, query, map[string]any{"entities": payload})
		return nil, err
	})
	return err
}

// GetEntities implements Store.
func (s *Neo4jStore) GetEntities(ctx context.Context, documentID string) ([]*types.Entity, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e:Entity {document_id: $document_id})
			RETURN e.id AS id, e.text AS text, e.type AS type,
			       e.start_pos AS start_pos, e.end_pos AS end_pos, e.confidence AS confidence
			ORDER BY e.start_pos
		`
		res, err := tx.Run(ctx, query, map[string]any{"document_id": documentID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		entities := make([]*types.Entity, 0, len(records))
		for _, record := range records {
			entities = append(entities, &types.Entity{
				ID:         stringValue(record, "id"),
				DocumentID: documentID,
				Text:       stringValue(record, "text"),
				Type:       types.EntityType(stringValue(record, "type")),
				StartPos:   intValue(record, "start_pos"),
				EndPos:     intValue(record, "end_pos"),
				Confidence: floatValue(record, "confidence"),
			})
		}
		return entities, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*types.Entity), nil
}

// HasEntities implements Store.
func (s *Neo4jStore) HasEntities(ctx context.Context, documentID string) (bool, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e:Entity {document_id: $document_id})
			RETURN e.id
			LIMIT 1
		`
		res, err := tx.Run(ctx, query, map[string]any{"document_id": documentID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return len(records) > 0, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// SaveRelationships implements Store.
func (s *Neo4jStore) SaveRelationships(ctx context.Context, relationships []*types.Relationship) error {
	payload := make([]map[string]any, 0, len(relationships))
	for _, rel := range relationships {
		if err := rel.Validate(); err != nil {
			return err
		}
		payload = append(payload, map[string]any{
			"id":            rel.ID,
			"document_id":   rel.DocumentID,
			"source_id":     rel.SourceEntityID,
			"target_id":     rel.TargetEntityID,
			"relation_type": rel.RelationType,
			"confidence":    rel.Confidence,
		})
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			UNWIND $relationships AS rel
			MATCH (s:Entity {id: rel.source_id})
			MATCH (t:Entity {id: rel.target_id})
			MERGE (s)-[r:RELATES {id: rel.id}]->(t)
			SET r.document_id = rel.document_id,
			    r.relation_type = rel.relation_type,
			    r.confidence = rel.confidence
		`
		_, err := tx.Run(ctx, query, map[string]any{"relationships": payload})
		return nil, err
	})
	return err
}

// GetRelationships implements Store.
func (s *Neo4jStore) GetRelationships(ctx context.Context, documentID string) ([]*types.Relationship, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (s:Entity)-[r:RELATES {document_id: $document_id}]->(t:Entity)
			RETURN r.id AS id, s.id AS source_id, t.id AS target_id,
			       r.relation_type AS relation_type, r.confidence AS confidence
		`
		res, err := tx.Run(ctx, query, map[string]any{"document_id": documentID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		rels := make([]*types.Relationship, 0, len(records))
		for _, record := range records {
			rels = append(rels, &types.Relationship{
				ID:             stringValue(record, "id"),
				DocumentID:     documentID,
				SourceEntityID: stringValue(record, "source_id"),
				TargetEntityID: stringValue(record, "target_id"),
				RelationType:   stringValue(record, "relation_type"),
				Confidence:     floatValue(record, "confidence"),
			})
		}
		return rels, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*types.Relationship), nil
}

// Close implements Store.
func (s *Neo4jStore) Close() error {
	return s.client.Close(context.Background())
}

func recordToDocument(record *neo4j.Record) (*types.Document, error) {
	doc := &types.Document{
		ID:      stringValue(record, "id"),
		Title:   stringValue(record, "title"),
		Content: stringValue(record, "content"),
	}
	if raw := stringValue(record, "created_at"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse document created_at: %w", err)
		}
		doc.CreatedAt = ts
	}
	if raw := stringValue(record, "metadata"); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode document metadata: %w", err)
		}
	}
	return doc, nil
}

func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func intValue(record *neo4j.Record, key string) int {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return 0
	}
	n, _ := v.(int64)
	return int(n)
}

func floatValue(record *neo4j.Record, key string) float64 {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return 0
	}
	f, _ := v.(float64)
	return f
}
