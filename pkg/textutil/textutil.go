// Package textutil provides the shared text primitives used by the chunking
// engine and the entity extractor: sentence splitting, tokenization with a
// CJK bigram fallback, stopword filtering, and token-set Jaccard similarity.
package textutil

import (
	"sort"
	"strings"
	"unicode"
)

// sentenceTerminators covers Latin and CJK full stops, exclamation and
// question marks.
var sentenceTerminators = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
}

// IsSentenceTerminator reports whether r ends a sentence.
func IsSentenceTerminator(r rune) bool {
	return sentenceTerminators[r]
}

// SplitSentences splits text on sentence-terminator punctuation, trims each
// fragment and drops empty ones. Terminators are not retained.
func SplitSentences(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	var buf strings.Builder
	for _, r := range text {
		if sentenceTerminators[r] {
			if s := strings.TrimSpace(buf.String()); s != "" {
				sentences = append(sentences, s)
			}
			buf.Reset()
			continue
		}
		buf.WriteRune(r)
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// stopwords shared by keyword extraction and similarity. Mixed
// Chinese/English set matching the corpora this library is used on.
var stopwords = map[string]bool{
	"的": true, "了": true, "和": true, "是": true, "在": true,
	"我": true, "有": true, "他": true, "这": true, "中": true,
	"们": true, "与": true, "及": true, "对": true, "为": true,
	"也": true, "就": true, "都": true, "而": true, "或": true,
	"一个": true, "我们": true, "可以": true, "这个": true, "没有": true,
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"of": true, "to": true, "in": true, "on": true, "at": true,
	"for": true, "with": true, "by": true, "from": true, "as": true,
	"it": true, "this": true, "that": true, "not": true, "but": true,
}

// IsStopword reports whether the token is in the built-in stopword set.
// Matching is case-insensitive for Latin tokens.
func IsStopword(token string) bool {
	return stopwords[strings.ToLower(token)]
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// Tokenize splits text into lowercase tokens. Latin script is split on
// word boundaries; runs of Han characters, which carry no delimiters, fall
// back to overlapping bigrams (single characters when the run has length 1).
func Tokenize(text string) []string {
	var tokens []string
	var latin []rune
	var cjk []rune

	flushLatin := func() {
		if len(latin) > 0 {
			tokens = append(tokens, strings.ToLower(string(latin)))
			latin = latin[:0]
		}
	}
	flushCJK := func() {
		switch {
		case len(cjk) == 1:
			tokens = append(tokens, string(cjk))
		case len(cjk) > 1:
			for i := 0; i+1 < len(cjk); i++ {
				tokens = append(tokens, string(cjk[i:i+2]))
			}
		}
		cjk = cjk[:0]
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flushLatin()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			latin = append(latin, r)
		default:
			flushLatin()
			flushCJK()
		}
	}
	flushLatin()
	flushCJK()

	return tokens
}

// ContentTokens tokenizes text and drops stopwords and single-character
// Latin tokens, which carry no signal for similarity or keyword ranking.
func ContentTokens(text string) []string {
	var out []string
	for _, tok := range Tokenize(text) {
		if IsStopword(tok) {
			continue
		}
		if len([]rune(tok)) < 2 && !containsCJK(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func containsCJK(s string) bool {
	for _, r := range s {
		if isCJK(r) {
			return true
		}
	}
	return false
}

// TokenSet returns the deduplicated content tokens of text.
func TokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range ContentTokens(text) {
		set[tok] = true
	}
	return set
}

// Jaccard computes the Jaccard similarity of two token sets. Returns 0 when
// either set is empty.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Similarity computes the token-set Jaccard similarity of two texts.
// Similarity(a, a) is 1 for any text that yields at least one token, and the
// function is symmetric in its arguments.
func Similarity(a, b string) float64 {
	return Jaccard(TokenSet(a), TokenSet(b))
}

// KeywordCount is one ranked keyword with its occurrence count.
type KeywordCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// TopKeywords returns the topN most frequent content tokens of text.
// Ties break lexicographically so the ranking is deterministic.
func TopKeywords(text string, topN int) []KeywordCount {
	if topN <= 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, tok := range ContentTokens(text) {
		counts[tok]++
	}

	ranked := make([]KeywordCount, 0, len(counts))
	for tok, n := range counts {
		ranked = append(ranked, KeywordCount{Token: tok, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Token < ranked[j].Token
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
