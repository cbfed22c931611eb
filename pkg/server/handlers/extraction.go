package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexigraph/lexigraph/pkg/config"
	"github.com/lexigraph/lexigraph/pkg/extractor"
)

// ExtractionHandler manages the user-editable extraction configuration.
// Changes affect only documents extracted after the update.
type ExtractionHandler struct {
	store *config.ExtractionStore
}

// NewExtractionHandler creates an extraction-config handler.
func NewExtractionHandler(store *config.ExtractionStore) *ExtractionHandler {
	return &ExtractionHandler{store: store}
}

// Get handles GET /api/v1/config/extraction.
func (h *ExtractionHandler) Get(c *gin.Context) {
	cfg, err := h.store.Load()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Put handles PUT /api/v1/config/extraction.
func (h *ExtractionHandler) Put(c *gin.Context) {
	var cfg extractor.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.store.Save(cfg); err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Reset handles POST /api/v1/config/extraction/reset.
func (h *ExtractionHandler) Reset(c *gin.Context) {
	cfg, err := h.store.Reset()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// ExportYAML handles GET /api/v1/config/extraction/yaml.
func (h *ExtractionHandler) ExportYAML(c *gin.Context) {
	raw, err := h.store.ExportYAML()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	c.Data(http.StatusOK, "application/yaml", raw)
}

// ImportYAML handles PUT /api/v1/config/extraction/yaml.
func (h *ExtractionHandler) ImportYAML(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cfg, err := h.store.ImportYAML(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
