package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spotter/internal/domain"
	"spotter/internal/port"
)

// MockCatalogService is a mock implementation of service.CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) SearchProducts(ctx context.Context, filter port.ProductFilter, offset, limit int) ([]domain.ProductRecord, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ProductRecord), args.Int(1), args.Error(2)
}

func (m *MockCatalogService) ListRuns(ctx context.Context, storeKey string, offset, limit int) ([]domain.SpotterRun, int, error) {
	args := m.Called(ctx, storeKey, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.SpotterRun), args.Int(1), args.Error(2)
}
