package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spotter/internal/port"
)

// MockScreenshotSource is a mock implementation of port.ScreenshotSource.
type MockScreenshotSource struct {
	mock.Mock
}

func (m *MockScreenshotSource) Capture(ctx context.Context, req port.CaptureRequest) ([]string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
