// Package handlers implements the gin handlers of the HTTP API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexigraph/lexigraph/pkg/graph"
	"github.com/lexigraph/lexigraph/pkg/retrieval"
	"github.com/lexigraph/lexigraph/pkg/server/dto"
	"github.com/lexigraph/lexigraph/pkg/store"
	"github.com/lexigraph/lexigraph/pkg/types"
)

var errInvalidWindow = errors.New("window_seconds must be a positive integer")

func writeError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, dto.ErrorResponse{Error: code, Message: err.Error()})
}

// writeEngineError maps engine errors onto HTTP statuses: missing resources
// become 404, caller mistakes 400, extraction of entity-free text 422, and
// anything else 500.
func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrDocumentNotFound), errors.Is(err, graph.ErrNodeNotFound):
		writeError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, graph.ErrNoEntities):
		writeError(c, http.StatusUnprocessableEntity, "no_entities", err)
	case errors.Is(err, types.ErrEmptyContent),
		errors.Is(err, types.ErrInvalidLimit),
		errors.Is(err, retrieval.ErrEmptyQuery):
		writeError(c, http.StatusBadRequest, "invalid_request", err)
	default:
		writeError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
