package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTokenSource is a mock implementation of port.TokenSource.
type MockTokenSource struct {
	mock.Mock
}

func (m *MockTokenSource) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
