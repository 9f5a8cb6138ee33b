package service

import (
	"context"
	"strings"

	"spotter/internal/domain"
	"spotter/internal/port"
)

// CatalogService defines the read side over persisted products and runs.
type CatalogService interface {
	SearchProducts(ctx context.Context, filter port.ProductFilter, offset, limit int) ([]domain.ProductRecord, int, error)
	ListRuns(ctx context.Context, storeKey string, offset, limit int) ([]domain.SpotterRun, int, error)
}

type catalogService struct {
	products port.ProductRepository
	runs     port.RunRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(products port.ProductRepository, runs port.RunRepository) CatalogService {
	return &catalogService{products: products, runs: runs}
}

func (s *catalogService) SearchProducts(ctx context.Context, filter port.ProductFilter, offset, limit int) ([]domain.ProductRecord, int, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Supermarket = strings.TrimSpace(filter.Supermarket)
	return s.products.Search(ctx, filter, offset, limit)
}

func (s *catalogService) ListRuns(ctx context.Context, storeKey string, offset, limit int) ([]domain.SpotterRun, int, error) {
	return s.runs.List(ctx, strings.ToLower(strings.TrimSpace(storeKey)), offset, limit)
}
