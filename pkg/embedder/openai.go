package embedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder implements Client against the OpenAI embeddings API or any
// OpenAI-compatible endpoint (set Config.BaseURL).
type OpenAIEmbedder struct {
	client *openai.Client
	config Config
}

// NewOpenAIEmbedder creates an OpenAI embedding client. An empty model
// defaults to text-embedding-ada-002.
func NewOpenAIEmbedder(apiKey string, config Config) *OpenAIEmbedder {
	if config.Model == "" {
		config.Model = "text-embedding-ada-002"
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Embed generates embeddings for the given texts, batching requests by the
// configured batch size.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(e.config.Model),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, len(resp.Data))
		}
		for _, d := range resp.Data {
			embeddings = append(embeddings, d.Embedding)
		}
	}
	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *OpenAIEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// Dimensions returns the number of dimensions in the embeddings.
func (e *OpenAIEmbedder) Dimensions() int {
	return dimensionsFor(e.config)
}

// Close cleans up any resources.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
