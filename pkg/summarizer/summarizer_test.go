package summarizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadSentence(t *testing.T) {
	s := NewLeadSentence(10)

	summary, err := s.Summarize(context.Background(), "第一句话。第二句话比较长一些会被截断。")
	require.NoError(t, err)
	assert.Equal(t, "第一句话", summary)
}

func TestLeadSentenceTruncatesOversizedFirstSentence(t *testing.T) {
	s := NewLeadSentence(5)

	summary, err := s.Summarize(context.Background(), "这是一个很长的句子。")
	require.NoError(t, err)
	assert.Equal(t, "这是一个很", summary)
}

func TestLeadSentenceEmptyInput(t *testing.T) {
	s := NewLeadSentence(0)

	summary, err := s.Summarize(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestSummarizerInterface(t *testing.T) {
	var _ Summarizer = (*LeadSentence)(nil)
	var _ Summarizer = (*OpenAISummarizer)(nil)
}
