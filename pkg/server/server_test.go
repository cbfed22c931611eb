package server

import (
	"bytes"
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigraph/lexigraph"
	"github.com/lexigraph/lexigraph/pkg/chunker"
	"github.com/lexigraph/lexigraph/pkg/config"
	"github.com/lexigraph/lexigraph/pkg/store"
	"github.com/lexigraph/lexigraph/pkg/textutil"
	"github.com/lexigraph/lexigraph/pkg/vectorindex"
)

const testDims = 64

type hashEmbedder struct{}

func (hashEmbedder) embed(text string) []float32 {
	v := make([]float32, testDims)
	for _, tok := range textutil.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		v[h.Sum32()%testDims]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}

func (h hashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.embed(t)
	}
	return out, nil
}

func (h hashEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

func (hashEmbedder) Dimensions() int { return testDims }
func (hashEmbedder) Close() error    { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	opts := lexigraph.DefaultOptions()
	opts.Chunking = chunker.Options{MaxSize: 60, MinSize: 1, Overlap: 0}
	opts.Retrieval.Breaker.Enabled = false

	engine, err := lexigraph.New(store.NewMemoryStore(), vectorindex.NewMemoryIndex(), hashEmbedder{}, opts, nil)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Mode = ginTestMode
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 0

	extraction := config.NewExtractionStore(filepath.Join(t.TempDir(), "extraction.json"), nil)

	srv := New(cfg, engine, extraction, nil)
	srv.Setup()
	return srv
}

const ginTestMode = "test"

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func ingest(t *testing.T, srv *Server, content string) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/v1/documents", map[string]interface{}{"content": content})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["document_id"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestReadyEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["status"])
}

func TestIngestAndListDocuments(t *testing.T) {
	srv := newTestServer(t)

	id := ingest(t, srv, "张三在ABC公司工作。")

	w := doJSON(t, srv, http.MethodGet, "/api/v1/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = doJSON(t, srv, http.MethodGet, "/api/v1/documents/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["id"])

	w = doJSON(t, srv, http.MethodGet, "/api/v1/documents/"+id+"/chunks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])
}

func TestIngestValidation(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/documents", map[string]interface{}{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t)

	id := ingest(t, srv, "张三在ABC公司工作。")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/search", map[string]interface{}{"query": "张三"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.NotEmpty(t, body["results"])
	first := body["results"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, id, first["metadata"].(map[string]interface{})["document_id"])
}

func TestSearchValidation(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/search", map[string]interface{}{"query": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHybridSearchEndpoint(t *testing.T) {
	srv := newTestServer(t)

	ingest(t, srv, "张三在ABC公司工作。")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/search/hybrid", map[string]interface{}{"query": "张三", "limit": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["results"])
}

func TestGraphEndpoints(t *testing.T) {
	srv := newTestServer(t)

	id := ingest(t, srv, "张三在ABC公司工作。")

	w := doJSON(t, srv, http.MethodGet, "/api/v1/documents/"+id+"/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	nodes := body["nodes"].([]interface{})
	require.Len(t, nodes, 2)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/documents/"+id+"/graph/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["node_count"])

	nodeID := nodes[0].(map[string]interface{})["id"].(string)
	w = doJSON(t, srv, http.MethodGet, "/api/v1/documents/"+id+"/graph/neighbors?node_id="+nodeID+"&depth=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["neighbors"])
}

func TestGraphMissingDocument(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/documents/missing/graph", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGraphNeighborsRequiresNodeID(t *testing.T) {
	srv := newTestServer(t)

	id := ingest(t, srv, "张三在ABC公司工作。")
	w := doJSON(t, srv, http.MethodGet, "/api/v1/documents/"+id+"/graph/neighbors", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteDocument(t *testing.T) {
	srv := newTestServer(t)

	id := ingest(t, srv, "张三在ABC公司工作。")

	w := doJSON(t, srv, http.MethodDelete, "/api/v1/documents/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/documents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeChunkingEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/analyze/chunking", map[string]interface{}{"text": "第一句话。第二句话。"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestSearchStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/search/stats?window_seconds=60", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(60), decode(t, w)["window_seconds"])

	w = doJSON(t, srv, http.MethodGet, "/api/v1/search/stats?window_seconds=bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractionConfigEndpoints(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/config/extraction", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	require.NotEmpty(t, cfg["entity_types"])

	w = doJSON(t, srv, http.MethodPut, "/api/v1/config/extraction", cfg)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/config/extraction/reset", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
