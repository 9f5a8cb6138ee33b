package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spotter/internal/domain"
	"spotter/internal/port"
)

// MockProductRepo is a mock implementation of port.ProductRepository.
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) CreateBatch(ctx context.Context, records []domain.ProductRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepo) Search(ctx context.Context, filter port.ProductFilter, offset, limit int) ([]domain.ProductRecord, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ProductRecord), args.Int(1), args.Error(2)
}
