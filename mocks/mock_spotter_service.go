package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spotter/internal/service"
)

// MockSpotterService is a mock implementation of service.SpotterService.
type MockSpotterService struct {
	mock.Mock
}

func (m *MockSpotterService) Run(ctx context.Context, req service.RunRequest) (*service.RunResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RunResult), args.Error(1)
}

func (m *MockSpotterService) AnalyzeImages(ctx context.Context, req service.AnalyzeRequest) (*service.RunResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RunResult), args.Error(1)
}
