package embedder

import (
	"context"
	"fmt"

	embedeverything "github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// EmbedEverythingClient runs a go-embedeverything model in process. It is
// the default provider: chunks are embedded locally during ingestion
// without any API key or network dependency.
type EmbedEverythingClient struct {
	model  *embedeverything.Embedder
	config Config
}

// NewEmbedEverythingClient downloads the model on first use and loads it
// into memory.
func NewEmbedEverythingClient(config Config) (*EmbedEverythingClient, error) {
	model, err := embedeverything.NewEmbedder(config.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding model %q: %w", config.Model, err)
	}

	return &EmbedEverythingClient{
		model:  model,
		config: config,
	}, nil
}

// Embed embeds a batch of texts, one vector per input in order. The
// underlying model call is synchronous and ignores ctx.
func (e *EmbedEverythingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.model.Embed(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return vectors, nil
}

// EmbedSingle embeds one text.
func (e *EmbedEverythingClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return vectors[0], nil
}

// Dimensions reports the configured output vector size.
func (e *EmbedEverythingClient) Dimensions() int {
	return e.config.Dimensions
}

// Close releases the loaded model.
func (e *EmbedEverythingClient) Close() error {
	e.model.Close()
	return nil
}
