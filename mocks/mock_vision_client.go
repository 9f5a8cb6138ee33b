package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spotter/internal/port"
)

// MockVisionClient is a mock implementation of port.VisionClient.
type MockVisionClient struct {
	mock.Mock
}

func (m *MockVisionClient) Complete(ctx context.Context, req port.VisionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
