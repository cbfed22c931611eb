// Package summarizer fills Chunk.Summary during ingestion. The default
// implementation is a cheap lead-sentence heuristic; an OpenAI-backed one
// is available when a model should write the summaries instead.
package summarizer

import (
	"context"
	"strings"

	"github.com/lexigraph/lexigraph/pkg/textutil"
)

// Summarizer produces a short summary for one chunk of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// LeadSentence summarizes by taking the first sentences of the text up to a
// rune budget. It never fails and needs no model, so it is the default.
type LeadSentence struct {
	// MaxRunes bounds the summary length (default 80).
	MaxRunes int
}

// NewLeadSentence creates the heuristic summarizer.
func NewLeadSentence(maxRunes int) *LeadSentence {
	if maxRunes <= 0 {
		maxRunes = 80
	}
	return &LeadSentence{MaxRunes: maxRunes}
}

// Summarize implements Summarizer.
func (l *LeadSentence) Summarize(ctx context.Context, text string) (string, error) {
	sentences := textutil.SplitSentences(text)
	if len(sentences) == 0 {
		return "", nil
	}

	var b strings.Builder
	used := 0
	for _, sentence := range sentences {
		n := len([]rune(sentence))
		if used > 0 && used+n > l.MaxRunes {
			break
		}
		b.WriteString(sentence)
		used += n
		if used >= l.MaxRunes {
			break
		}
	}

	summary := []rune(b.String())
	if len(summary) > l.MaxRunes {
		summary = summary[:l.MaxRunes]
	}
	return string(summary), nil
}
