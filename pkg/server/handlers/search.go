package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexigraph/lexigraph"
	"github.com/lexigraph/lexigraph/pkg/retrieval"
	"github.com/lexigraph/lexigraph/pkg/server/dto"
)

// SearchHandler handles retrieval requests.
type SearchHandler struct {
	engine *lexigraph.Engine
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(engine *lexigraph.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	results, err := h.engine.Search(c.Request.Context(), req.Query, req.Limit, req.Filters)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

// HybridSearch handles POST /api/v1/search/hybrid.
func (h *SearchHandler) HybridSearch(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	results, err := h.engine.HybridSearch(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

// Stats handles GET /api/v1/search/stats. window_seconds defaults to 300.
func (h *SearchHandler) Stats(c *gin.Context) {
	window := 300
	if raw := c.Query("window_seconds"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "invalid_request", errInvalidWindow)
			return
		}
		window = n
	}

	d := time.Duration(window) * time.Second
	c.JSON(http.StatusOK, gin.H{
		"window_seconds": window,
		"cached":         h.engine.SearchStats(retrieval.MetricCached, d),
		"search":         h.engine.SearchStats(retrieval.MetricSearch, d),
		"cache":          h.engine.CacheStats(),
	})
}

// ClearCache handles DELETE /api/v1/cache.
func (h *SearchHandler) ClearCache(c *gin.Context) {
	if err := h.engine.ClearCache(c.Request.Context()); err != nil {
		writeEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
