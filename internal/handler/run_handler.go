package handler

import (
	"github.com/gin-gonic/gin"

	"spotter/internal/domain"
	"spotter/internal/service"
)

// RunHandler handles run registry endpoints.
type RunHandler struct {
	catalog service.CatalogService
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(catalog service.CatalogService) *RunHandler {
	return &RunHandler{catalog: catalog}
}

// List handles GET /api/v1/runs?store=&offset=&limit=
func (h *RunHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	runs, total, err := h.catalog.ListRuns(c.Request.Context(), c.Query("store"), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if runs == nil {
		runs = []domain.SpotterRun{}
	}
	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}
