package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docbench/internal/domain"
	"docbench/internal/port"
)

// MockAnalyzer is a mock implementation of port.DocumentAnalyzer.
type MockAnalyzer struct {
	mock.Mock
	label string
}

// NewMockAnalyzer creates a mock analyzer reporting the given label.
func NewMockAnalyzer(label string) *MockAnalyzer {
	return &MockAnalyzer{label: label}
}

func (m *MockAnalyzer) Label() string {
	return m.label
}

func (m *MockAnalyzer) Analyze(ctx context.Context, input port.AnalyzeInput) *domain.AnalysisResult {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.AnalysisResult)
}
