package port

import (
	"context"

	"spotter/internal/domain"
)

// ProductFilter narrows a product search. Empty fields match everything.
type ProductFilter struct {
	Query       string
	Supermarket string
}

// ProductRepository defines the contract for extracted product persistence.
type ProductRepository interface {
	// CreateBatch inserts records and returns how many were new. Rows that
	// collide on (product_name, supermarket, offer_start_date) are skipped.
	CreateBatch(ctx context.Context, records []domain.ProductRecord) (int, error)
	Search(ctx context.Context, filter ProductFilter, offset, limit int) ([]domain.ProductRecord, int, error)
}

// RunRepository defines the contract for the run registry.
type RunRepository interface {
	Create(ctx context.Context, run *domain.SpotterRun) error
	// Latest returns the most recent completed run for the store and flyer URL,
	// or domain.ErrNotFound.
	Latest(ctx context.Context, storeKey, flyerURL string) (*domain.SpotterRun, error)
	List(ctx context.Context, storeKey string, offset, limit int) ([]domain.SpotterRun, int, error)
}
