package handler

import (
	"github.com/gin-gonic/gin"

	"spotter/internal/domain"
	"spotter/internal/port"
	"spotter/internal/service"
)

// ProductHandler handles extracted product endpoints.
type ProductHandler struct {
	catalog service.CatalogService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalog service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List handles GET /api/v1/products?q=&supermarket=&offset=&limit=
func (h *ProductHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)
	filter := port.ProductFilter{
		Query:       c.Query("q"),
		Supermarket: c.Query("supermarket"),
	}

	products, total, err := h.catalog.SearchProducts(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if products == nil {
		products = []domain.ProductRecord{}
	}
	RespondPaginated(c, products, PagMeta{Total: total, Offset: offset, Limit: limit})
}
