// Package embedder provides text embedding clients for vector representations.
//
// The Client interface abstracts the embedding provider. Two implementations
// ship with the library: OpenAIEmbedder for OpenAI-compatible HTTP APIs and
// EmbedEverythingClient for local in-process models.
package embedder

import "context"

// Client generates vector embeddings for text.
type Client interface {
	// Embed generates embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embeddings.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds embedding client settings.
type Config struct {
	Model      string `json:"model"`
	BaseURL    string `json:"base_url,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
	BatchSize  int    `json:"batch_size,omitempty"`
}

// DefaultBatchSize is the number of texts sent per embedding request when
// Config.BatchSize is unset.
const DefaultBatchSize = 100

// modelDimensions maps known model names to their embedding width.
var modelDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// dimensionsFor resolves the embedding width for a config, preferring an
// explicit override over the known-model table.
func dimensionsFor(cfg Config) int {
	if cfg.Dimensions > 0 {
		return cfg.Dimensions
	}
	if d, ok := modelDimensions[cfg.Model]; ok {
		return d
	}
	return modelDimensions["text-embedding-ada-002"]
}
