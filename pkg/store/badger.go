package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/lexigraph/lexigraph/pkg/types"
)

// Key layout. Chunk keys embed the zero-padded generation and index so a
// prefix scan yields the current generation in chunk_index order.
const (
	prefixDocument   = "doc:"
	prefixGeneration = "gen:"
	prefixChunk      = "chunk:"
	prefixEntity     = "ent:"
	prefixRel        = "rel:"
)

// BadgerStore is an embedded persistent Store on BadgerDB. JSON values,
// prefix-scanned secondary keys per document.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database at path. An empty
// path opens an in-memory database, which is what the tests use.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func documentKey(id string) []byte { return []byte(prefixDocument + id) }

func generationKey(documentID string) []byte { return []byte(prefixGeneration + documentID) }

func chunkKey(documentID string, generation, index int) []byte {
	return []byte(fmt.Sprintf("%s%s:%08d:%08d", prefixChunk, documentID, generation, index))
}

func entityKey(documentID, entityID string) []byte {
	return []byte(prefixEntity + documentID + ":" + entityID)
}

func relationshipKey(documentID, relID string) []byte {
	return []byte(prefixRel + documentID + ":" + relID)
}

func setJSON(txn *badger.Txn, key []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, raw)
}

func getJSON(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// SaveDocument implements Store.
func (s *BadgerStore) SaveDocument(ctx context.Context, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, documentKey(doc.ID), doc)
	})
}

// GetDocument implements Store.
func (s *BadgerStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	var doc types.Document
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, documentKey(id), &doc)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &doc, nil
}

// ListDocuments implements Store.
func (s *BadgerStore) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	var out []*types.Document
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixDocument)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var doc types.Document
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return err
			}
			out = append(out, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteDocument implements Store. Everything under the document's chunk,
// entity and relationship prefixes is removed with it.
func (s *BadgerStore) DeleteDocument(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(documentKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}

		keys := [][]byte{documentKey(id), generationKey(id)}
		prefixes := [][]byte{
			[]byte(prefixChunk + id + ":"),
			[]byte(prefixEntity + id + ":"),
			[]byte(prefixRel + id + ":"),
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		for _, prefix := range prefixes {
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveChunks implements Store.
func (s *BadgerStore) SaveChunks(ctx context.Context, documentID string, chunks []*types.Chunk) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(documentKey(documentID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}

		gen, err := s.currentGeneration(txn, documentID)
		if err != nil {
			return err
		}
		gen++
		if err := txn.Set(generationKey(documentID), []byte(strconv.Itoa(gen))); err != nil {
			return err
		}

		for _, chunk := range chunks {
			stamped := *chunk
			stamped.Generation = gen
			if err := setJSON(txn, chunkKey(documentID, gen, stamped.ChunkIndex), &stamped); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChunks implements Store.
func (s *BadgerStore) GetChunks(ctx context.Context, documentID string) ([]*types.Chunk, error) {
	var out []*types.Chunk
	err := s.db.View(func(txn *badger.Txn) error {
		gen, err := s.currentGeneration(txn, documentID)
		if err != nil {
			return err
		}
		if gen == 0 {
			return nil
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("%s%s:%08d:", prefixChunk, documentID, gen))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var chunk types.Chunk
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &chunk)
			})
			if err != nil {
				return err
			}
			out = append(out, &chunk)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) currentGeneration(txn *badger.Txn, documentID string) (int, error) {
	item, err := txn.Get(generationKey(documentID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	gen := 0
	err = item.Value(func(val []byte) error {
		gen, err = strconv.Atoi(string(val))
		return err
	})
	return gen, err
}

// SaveEntities implements Store.
func (s *BadgerStore) SaveEntities(ctx context.Context, entities []*types.Entity) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, entity := range entities {
			if err := entity.Validate(); err != nil {
				return err
			}
			if err := setJSON(txn, entityKey(entity.DocumentID, entity.ID), entity); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetEntities implements Store.
func (s *BadgerStore) GetEntities(ctx context.Context, documentID string) ([]*types.Entity, error) {
	var out []*types.Entity
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixEntity + documentID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entity types.Entity
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entity)
			})
			if err != nil {
				return err
			}
			out = append(out, &entity)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	return out, nil
}

// HasEntities implements Store without decoding any values.
func (s *BadgerStore) HasEntities(ctx context.Context, documentID string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixEntity + documentID + ":")
		it.Seek(prefix)
		found = it.ValidForPrefix(prefix)
		return nil
	})
	return found, err
}

// SaveRelationships implements Store.
func (s *BadgerStore) SaveRelationships(ctx context.Context, relationships []*types.Relationship) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, rel := range relationships {
			if err := rel.Validate(); err != nil {
				return err
			}
			if err := setJSON(txn, relationshipKey(rel.DocumentID, rel.ID), rel); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRelationships implements Store.
func (s *BadgerStore) GetRelationships(ctx context.Context, documentID string) ([]*types.Relationship, error) {
	var out []*types.Relationship
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixRel + documentID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rel types.Relationship
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rel)
			})
			if err != nil {
				return err
			}
			out = append(out, &rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
