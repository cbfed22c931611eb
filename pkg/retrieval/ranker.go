package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/lexigraph/lexigraph/pkg/textutil"
	"github.com/lexigraph/lexigraph/pkg/types"
	"github.com/lexigraph/lexigraph/pkg/vectorindex"
)

// HybridRanker blends a keyword-coverage scan over the indexed documents
// with vector similarity from the Coordinator.
type HybridRanker struct {
	coordinator *Coordinator
	index       vectorindex.Index
}

// NewHybridRanker creates a ranker sharing the coordinator's index.
func NewHybridRanker(coordinator *Coordinator, index vectorindex.Index) *HybridRanker {
	return &HybridRanker{coordinator: coordinator, index: index}
}

// Fuse runs both scans for the query, unions the result sets by document
// id, and scores each id as keywordScore*keywordWeight +
// vectorScore*vectorWeight with a missing side scored 0. Results come back
// sorted by descending fused score, ties broken by ascending id, truncated
// to nResults.
func (r *HybridRanker) Fuse(ctx context.Context, query string, keywordWeight, vectorWeight float64, nResults int) ([]types.RankedResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if nResults <= 0 {
		return nil, types.ErrInvalidLimit
	}

	type fused struct {
		keyword  float64
		vector   float64
		content  string
		metadata map[string]interface{}
	}
	byID := make(map[string]*fused)

	keywordScores, err := r.keywordScan(ctx, query)
	if err != nil {
		return nil, err
	}
	for id, entry := range keywordScores {
		byID[id] = &fused{keyword: entry.score, content: entry.content, metadata: entry.metadata}
	}

	vectorResults, err := r.coordinator.Search(ctx, query, nResults, nil)
	if err != nil {
		return nil, err
	}
	for _, res := range vectorResults {
		f, ok := byID[res.ID]
		if !ok {
			f = &fused{content: res.Content, metadata: res.Metadata}
			byID[res.ID] = f
		}
		f.vector = res.Score
	}

	results := make([]types.RankedResult, 0, len(byID))
	for id, f := range byID {
		results = append(results, types.RankedResult{
			ID:       id,
			Content:  f.content,
			Score:    f.keyword*keywordWeight + f.vector*vectorWeight,
			Metadata: f.metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > nResults {
		results = results[:nResults]
	}
	return results, nil
}

type keywordEntry struct {
	score    float64
	content  string
	metadata map[string]interface{}
}

// keywordScan scores every indexed document by the fraction of query tokens
// present in its content. Documents matching no token are left out of the
// result set.
func (r *HybridRanker) keywordScan(ctx context.Context, query string) (map[string]keywordEntry, error) {
	queryTokens := textutil.ContentTokens(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	docs, err := r.index.GetByMetadata(ctx, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("keyword scan failed: %w", err)
	}

	scores := make(map[string]keywordEntry)
	for _, doc := range docs {
		docTokens := textutil.TokenSet(doc.Content)
		matched := 0
		for _, token := range queryTokens {
			if docTokens[token] {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		scores[doc.ID] = keywordEntry{
			score:    float64(matched) / float64(len(queryTokens)),
			content:  doc.Content,
			metadata: doc.Metadata,
		}
	}
	return scores, nil
}
