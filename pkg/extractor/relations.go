package extractor

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lexigraph/lexigraph/pkg/textutil"
	"github.com/lexigraph/lexigraph/pkg/types"
)

// relationRule maps an unordered entity-type pair plus a sentence keyword
// set to a relation type. Rules are checked in order; the first whose
// keywords appear in the sentence wins.
type relationRule struct {
	a, b     types.EntityType
	keywords []string
	relation string
}

var relationRules = []relationRule{
	{types.EntityTypePerson, types.EntityTypeOrg, []string{"在", "担任", "工作", "任职", "就职", "加入"}, "工作于"},
	{types.EntityTypePerson, types.EntityTypePerson, []string{"认识", "朋友", "同事", "合作", "一起"}, "认识"},
	{types.EntityTypeOrg, types.EntityTypeOrg, []string{"合作", "联合", "携手", "收购", "投资"}, "合作关系"},
	{types.EntityTypePerson, types.EntityTypeLoc, []string{"住", "位于", "居住", "生活", "来自", "出生"}, "位于"},
	{types.EntityTypeOrg, types.EntityTypeLoc, []string{"位于", "总部", "设立", "落户"}, "位于"},
	{types.EntityTypeTech, types.EntityTypeTech, []string{"基于", "使用", "依赖", "支持", "集成"}, "依赖"},
	{types.EntityTypeProduct, types.EntityTypeTech, []string{"基于", "使用", "采用"}, "依赖"},
}

// sentenceSpan is one sentence with its byte range in the source text.
type sentenceSpan struct {
	start, end int
	text       string
}

// splitSentenceSpans splits text on sentence terminators, keeping byte
// offsets so entity spans can be assigned to sentences. Unlike
// textutil.SplitSentences it does not trim fragments; offsets must stay
// exact.
func splitSentenceSpans(text string) []sentenceSpan {
	var spans []sentenceSpan
	start := 0
	for off, r := range text {
		if textutil.IsSentenceTerminator(r) {
			if off > start {
				spans = append(spans, sentenceSpan{start: start, end: off, text: text[start:off]})
			}
			start = off + len(string(r))
		}
	}
	if start < len(text) {
		spans = append(spans, sentenceSpan{start: start, end: len(text), text: text[start:]})
	}
	return spans
}

// inferRelationships pairs up entities that co-occur in a sentence and
// resolves each pair's relation type through the ordered rule table,
// defaulting to "related". Entities must already be sorted by StartPos so
// the earlier entity becomes the relationship source.
func (e *Extractor) inferRelationships(documentID, text string, entities []types.Entity) []types.Relationship {
	if len(entities) < 2 {
		return nil
	}

	var relationships []types.Relationship
	for _, sentence := range splitSentenceSpans(text) {
		var inSentence []types.Entity
		for _, ent := range entities {
			if ent.StartPos >= sentence.start && ent.EndPos <= sentence.end {
				inSentence = append(inSentence, ent)
			}
		}

		for i := 0; i < len(inSentence); i++ {
			for j := i + 1; j < len(inSentence); j++ {
				src, dst := inSentence[i], inSentence[j]
				if src.ID == dst.ID {
					continue
				}
				relationships = append(relationships, types.Relationship{
					ID:             uuid.New().String(),
					DocumentID:     documentID,
					SourceEntityID: src.ID,
					TargetEntityID: dst.ID,
					RelationType:   resolveRelation(src.Type, dst.Type, sentence.text),
					Confidence:     RelationConfidence,
				})
			}
		}
	}
	return relationships
}

// resolveRelation returns the relation type for an entity-type pair within
// a sentence, or the default when no rule's keyword set matches.
func resolveRelation(a, b types.EntityType, sentence string) string {
	for _, rule := range relationRules {
		if !((rule.a == a && rule.b == b) || (rule.a == b && rule.b == a)) {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(sentence, kw) {
				return rule.relation
			}
		}
	}
	return types.RelationTypeDefault
}
