package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spotter/internal/domain"
)

// MockImageAnalyzer is a mock implementation of service.ImageAnalyzer.
type MockImageAnalyzer struct {
	mock.Mock
}

func (m *MockImageAnalyzer) AnalyzeBatch(ctx context.Context, paths []string) *domain.BatchSummary {
	args := m.Called(ctx, paths)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.BatchSummary)
}
