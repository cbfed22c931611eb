package dto

import "errors"

// Request validation errors.
var (
	ErrContentRequired = errors.New("content field is required")
	ErrQueryRequired   = errors.New("query field is required")
	ErrTextRequired    = errors.New("text field is required")
)

// IngestRequest is the body of POST /api/v1/documents.
type IngestRequest struct {
	Content  string                 `json:"content"`
	Title    string                 `json:"title,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	// Mode optionally overrides the chunking strategy: semantic or adaptive.
	Mode string `json:"mode,omitempty"`
}

// Validate checks required fields.
func (r *IngestRequest) Validate() error {
	if r.Content == "" {
		return ErrContentRequired
	}
	return nil
}

// SearchRequest is the body of POST /api/v1/search and /api/v1/search/hybrid.
type SearchRequest struct {
	Query   string                 `json:"query"`
	Limit   int                    `json:"limit,omitempty"`
	Filters map[string]interface{} `json:"filters,omitempty"`
}

// Validate checks required fields and applies the default limit.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return ErrQueryRequired
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
	return nil
}

// AnalyzeRequest is the body of POST /api/v1/analyze/chunking.
type AnalyzeRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// Validate checks required fields.
func (r *AnalyzeRequest) Validate() error {
	if r.Text == "" {
		return ErrTextRequired
	}
	return nil
}
