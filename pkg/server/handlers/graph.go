package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lexigraph/lexigraph"
)

// GraphHandler handles knowledge-graph requests. Graphs are built on demand
// per document; the first build of a document triggers entity extraction.
type GraphHandler struct {
	engine *lexigraph.Engine
}

// NewGraphHandler creates a graph handler.
func NewGraphHandler(engine *lexigraph.Engine) *GraphHandler {
	return &GraphHandler{engine: engine}
}

// Build handles GET /api/v1/documents/:id/graph.
func (h *GraphHandler) Build(c *gin.Context) {
	g, err := h.engine.BuildGraph(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": g.Nodes, "edges": g.Edges})
}

// Statistics handles GET /api/v1/documents/:id/graph/statistics.
func (h *GraphHandler) Statistics(c *gin.Context) {
	stats, err := h.engine.GraphStatistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Neighbors handles GET /api/v1/documents/:id/graph/neighbors.
func (h *GraphHandler) Neighbors(c *gin.Context) {
	nodeID := c.Query("node_id")
	if nodeID == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", errors.New("node_id parameter is required"))
		return
	}
	depth, ok := intQuery(c, "depth", 1)
	if !ok {
		return
	}

	rings, err := h.engine.Neighbors(c.Request.Context(), c.Param("id"), nodeID, depth)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"neighbors": rings})
}

// Paths handles GET /api/v1/documents/:id/graph/paths.
func (h *GraphHandler) Paths(c *gin.Context) {
	source := c.Query("source")
	target := c.Query("target")
	if source == "" || target == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", errors.New("source and target parameters are required"))
		return
	}
	maxDepth, ok := intQuery(c, "max_depth", 3)
	if !ok {
		return
	}

	paths, err := h.engine.FindPaths(c.Request.Context(), c.Param("id"), source, target, maxDepth)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paths": paths, "total": len(paths)})
}

// Similar handles GET /api/v1/documents/:id/graph/similar.
func (h *GraphHandler) Similar(c *gin.Context) {
	nodeID := c.Query("node_id")
	if nodeID == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", errors.New("node_id parameter is required"))
		return
	}
	limit, ok := intQuery(c, "limit", 5)
	if !ok {
		return
	}

	similar, err := h.engine.SimilarNodes(c.Request.Context(), c.Param("id"), nodeID, limit)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"similar": similar})
}

// intQuery parses an optional positive integer query parameter, writing a
// 400 response and returning ok=false on a bad value.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request",
			errors.New(name+" parameter must be an integer"))
		return 0, false
	}
	return n, true
}
