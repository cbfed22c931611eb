// Package extractor implements the rule and dictionary driven entity and
// relationship extractor. Extraction is a pure function of the input text
// and the immutable configuration compiled into the Extractor, so one
// Extractor is safe for concurrent use across documents.
package extractor

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lexigraph/lexigraph/pkg/textutil"
	"github.com/lexigraph/lexigraph/pkg/types"
)

// Confidence constants per extraction source. Relationships inferred from
// co-occurrence rules always carry RelationConfidence.
const (
	DictionaryConfidence = 0.9
	RuleConfidence       = 0.8
	HeuristicConfidence  = 0.7
	RelationConfidence   = 0.7
)

// Extractor detects typed entity spans and infers relationships between
// entities that co-occur in a sentence.
type Extractor struct {
	cfg    Config
	rules  []compiledRule
	logger *slog.Logger
}

// New compiles the configuration into an Extractor. Invalid rule patterns
// are logged and skipped, never fatal.
func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		cfg:    cfg,
		rules:  compileRules(cfg.Rules, logger),
		logger: logger,
	}
}

// Result bundles one extraction pass over a document.
type Result struct {
	Entities      []types.Entity
	Relationships []types.Relationship
}

type span struct {
	start, end int
}

// Extract runs the dictionary pass, the rule pass and the built-in
// heuristics over text, deduplicates the entity set and infers
// sentence-scoped relationships. Offsets are byte offsets into text.
func (e *Extractor) Extract(documentID, text string) Result {
	if text == "" {
		return Result{}
	}

	var entities []types.Entity
	seenSpans := make(map[span]bool)

	entities = e.dictionaryPass(documentID, text, entities, seenSpans)
	entities = e.rulePass(documentID, text, entities, seenSpans)
	entities = e.heuristicPass(documentID, text, entities, seenSpans)
	entities = dedupeEntities(entities)

	sort.Slice(entities, func(i, j int) bool {
		if entities[i].StartPos != entities[j].StartPos {
			return entities[i].StartPos < entities[j].StartPos
		}
		if entities[i].EndPos != entities[j].EndPos {
			return entities[i].EndPos < entities[j].EndPos
		}
		return entities[i].Type < entities[j].Type
	})

	return Result{
		Entities:      entities,
		Relationships: e.inferRelationships(documentID, text, entities),
	}
}

// dictionaryPass emits one entity per occurrence of every enabled
// dictionary term. A (term, type) pair already handled is skipped so
// duplicate dictionary entries cannot double-emit.
func (e *Extractor) dictionaryPass(documentID, text string, entities []types.Entity, seen map[span]bool) []types.Entity {
	type termKey struct {
		term string
		et   types.EntityType
	}
	handled := make(map[termKey]bool)

	for et, terms := range e.cfg.Dictionaries {
		if !e.cfg.enabledType(et) {
			continue
		}
		for _, term := range terms {
			if term == "" {
				continue
			}
			key := termKey{term, et}
			if handled[key] {
				continue
			}
			handled[key] = true

			for from := 0; ; {
				idx := strings.Index(text[from:], term)
				if idx < 0 {
					break
				}
				start := from + idx
				end := start + len(term)
				from = end
				if seen[span{start, end}] {
					continue
				}
				seen[span{start, end}] = true
				entities = append(entities, types.Entity{
					ID:         uuid.New().String(),
					DocumentID: documentID,
					Text:       term,
					Type:       et,
					StartPos:   start,
					EndPos:     end,
					Confidence: DictionaryConfidence,
				})
			}
		}
	}
	return entities
}

// rulePass applies every compiled rule, skipping matches whose span was
// already emitted by an earlier pass or rule.
func (e *Extractor) rulePass(documentID, text string, entities []types.Entity, seen map[span]bool) []types.Entity {
	for _, rule := range e.rules {
		for _, loc := range rule.pattern.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if start == end || seen[span{start, end}] {
				continue
			}
			seen[span{start, end}] = true
			entities = append(entities, types.Entity{
				ID:         uuid.New().String(),
				DocumentID: documentID,
				Text:       text[start:end],
				Type:       rule.entityType,
				StartPos:   start,
				EndPos:     end,
				Confidence: RuleConfidence,
			})
		}
	}
	return entities
}

// dedupeEntities drops exact duplicates by (text, start, end). The first
// occurrence wins, so dictionary hits shadow later heuristic hits.
func dedupeEntities(entities []types.Entity) []types.Entity {
	type key struct {
		text       string
		start, end int
	}
	seen := make(map[key]bool, len(entities))
	out := entities[:0]
	for _, ent := range entities {
		k := key{ent.Text, ent.StartPos, ent.EndPos}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, ent)
	}
	return out
}

// Keywords returns the topN most frequent content tokens of text with their
// occurrence counts.
func (e *Extractor) Keywords(text string, topN int) []textutil.KeywordCount {
	return textutil.TopKeywords(text, topN)
}

// Similarity returns the token-set Jaccard similarity of two texts.
func (e *Extractor) Similarity(a, b string) float64 {
	return textutil.Similarity(a, b)
}
