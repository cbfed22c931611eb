package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "latin terminators",
			text: "First sentence. Second one! Third?",
			want: []string{"First sentence", "Second one", "Third"},
		},
		{
			name: "cjk terminators",
			text: "张三在公司工作。李四住在北京！你好吗？",
			want: []string{"张三在公司工作", "李四住在北京", "你好吗"},
		},
		{
			name: "no terminator keeps trailing fragment",
			text: "no punctuation here",
			want: []string{"no punctuation here"},
		},
		{
			name: "empty fragments dropped",
			text: "a.. b.",
			want: []string{"a", "b"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.text))
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "latin words lowered",
			text: "Go is Fast",
			want: []string{"go", "is", "fast"},
		},
		{
			name: "cjk run becomes bigrams",
			text: "知识图谱",
			want: []string{"知识", "识图", "图谱"},
		},
		{
			name: "single han char kept",
			text: "山",
			want: []string{"山"},
		},
		{
			name: "mixed scripts",
			text: "用Go构建",
			want: []string{"用", "go", "构建"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestSimilarityProperties(t *testing.T) {
	a := "knowledge graphs connect typed entities"
	b := "vector search ranks indexed passages"

	assert.Equal(t, 1.0, Similarity(a, a), "identity")
	assert.Equal(t, Similarity(a, b), Similarity(b, a), "symmetry")
	assert.Equal(t, 0.0, Similarity("", a), "empty side")
	assert.Equal(t, 0.0, Similarity("the a of", a), "stopword-only side")
}

func TestSimilarityCJK(t *testing.T) {
	s := Similarity("张三在北京工作", "李四在北京工作")
	assert.Greater(t, s, 0.0)
	assert.Less(t, s, 1.0)
}

func TestTopKeywords(t *testing.T) {
	text := "graph graph graph search search index"
	got := TopKeywords(text, 2)

	assert.Equal(t, []KeywordCount{
		{Token: "graph", Count: 3},
		{Token: "search", Count: 2},
	}, got)
}

func TestTopKeywordsFiltersStopwordsAndShortTokens(t *testing.T) {
	got := TopKeywords("the cat sat on a mat x", 10)
	for _, kw := range got {
		assert.False(t, IsStopword(kw.Token))
		assert.GreaterOrEqual(t, len([]rune(kw.Token)), 2)
	}
}

func TestTopKeywordsDeterministicTieBreak(t *testing.T) {
	got := TopKeywords("beta alpha", 2)
	assert.Equal(t, []KeywordCount{
		{Token: "alpha", Count: 1},
		{Token: "beta", Count: 1},
	}, got)
}
