package summarizer

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const summaryPrompt = "用一句话概括以下文本的核心内容，直接输出概括，不要任何前缀。"

// OpenAISummarizer asks an OpenAI-compatible chat model for a one-sentence
// summary.
type OpenAISummarizer struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAISummarizer creates a model-backed summarizer. An empty model
// defaults to gpt-4o-mini.
func NewOpenAISummarizer(apiKey, baseURL, model string) *OpenAISummarizer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAISummarizer{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: 128,
	}
}

// Summarize implements Summarizer.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summaryPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize chunk: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarization returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
