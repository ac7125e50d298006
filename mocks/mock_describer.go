package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDescriber is a mock implementation of port.Describer.
type MockDescriber struct {
	mock.Mock
}

func (m *MockDescriber) DescribeImage(ctx context.Context, fileBytes []byte, filename, contentType string) (string, error) {
	args := m.Called(ctx, fileBytes, filename, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockDescriber) SummarizeText(ctx context.Context, text, filename string) (string, error) {
	args := m.Called(ctx, text, filename)
	return args.String(0), args.Error(1)
}
