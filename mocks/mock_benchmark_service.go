package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docbench/internal/domain"
	"docbench/internal/service"
)

// MockBenchmarkService is a mock implementation of service.BenchmarkService.
type MockBenchmarkService struct {
	mock.Mock
}

func (m *MockBenchmarkService) Run(ctx context.Context, input service.RunInput) (*domain.BenchmarkRun, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BenchmarkRun), args.Error(1)
}

func (m *MockBenchmarkService) GetRun(id uuid.UUID) (*domain.BenchmarkRun, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BenchmarkRun), args.Error(1)
}

func (m *MockBenchmarkService) ListRuns() []domain.RunListing {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.RunListing)
}

func (m *MockBenchmarkService) AvailableBackends() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}
