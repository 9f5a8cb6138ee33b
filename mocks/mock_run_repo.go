package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spotter/internal/domain"
)

// MockRunRepo is a mock implementation of port.RunRepository.
type MockRunRepo struct {
	mock.Mock
}

func (m *MockRunRepo) Create(ctx context.Context, run *domain.SpotterRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepo) Latest(ctx context.Context, storeKey, flyerURL string) (*domain.SpotterRun, error) {
	args := m.Called(ctx, storeKey, flyerURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SpotterRun), args.Error(1)
}

func (m *MockRunRepo) List(ctx context.Context, storeKey string, offset, limit int) ([]domain.SpotterRun, int, error) {
	args := m.Called(ctx, storeKey, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.SpotterRun), args.Int(1), args.Error(2)
}
