package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexigraph/lexigraph"
	"github.com/lexigraph/lexigraph/pkg/server/dto"
)

// DocumentsHandler handles document ingestion and lifecycle requests.
type DocumentsHandler struct {
	engine *lexigraph.Engine
}

// NewDocumentsHandler creates a documents handler.
func NewDocumentsHandler(engine *lexigraph.Engine) *DocumentsHandler {
	return &DocumentsHandler{engine: engine}
}

// Ingest handles POST /api/v1/documents.
func (h *DocumentsHandler) Ingest(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.engine.IngestDocument(c.Request.Context(), req.Content, &lexigraph.IngestOptions{
		Title:    req.Title,
		Metadata: req.Metadata,
		Mode:     lexigraph.ChunkMode(req.Mode),
	})
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// List handles GET /api/v1/documents.
func (h *DocumentsHandler) List(c *gin.Context) {
	docs, err := h.engine.Documents(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "total": len(docs)})
}

// Get handles GET /api/v1/documents/:id.
func (h *DocumentsHandler) Get(c *gin.Context) {
	doc, err := h.engine.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Chunks handles GET /api/v1/documents/:id/chunks.
func (h *DocumentsHandler) Chunks(c *gin.Context) {
	documentID := c.Param("id")
	if _, err := h.engine.Document(c.Request.Context(), documentID); err != nil {
		writeEngineError(c, err)
		return
	}
	chunks, err := h.engine.Chunks(c.Request.Context(), documentID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chunks": chunks, "total": len(chunks)})
}

// Delete handles DELETE /api/v1/documents/:id.
func (h *DocumentsHandler) Delete(c *gin.Context) {
	if err := h.engine.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		writeEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Analyze handles POST /api/v1/analyze/chunking.
func (h *DocumentsHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	c.JSON(http.StatusOK, h.engine.AnalyzeChunking(req.Text, lexigraph.ChunkMode(req.Mode)))
}
