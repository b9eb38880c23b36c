// Package mocks provides mock implementations for testing transaction use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/chronoshq/chronos/internal/transaction/domain"
)

// MockPendingSyncRepository is a mock implementation of PendingSyncRepository for testing.
type MockPendingSyncRepository struct {
	mock.Mock
}

// Create mocks the Create method of PendingSyncRepository.
func (m *MockPendingSyncRepository) Create(ctx context.Context, ps *domain.PendingSync) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}

// GetByTransactionID mocks the GetByTransactionID method of PendingSyncRepository.
func (m *MockPendingSyncRepository) GetByTransactionID(
	ctx context.Context,
	transactionID string,
) (*domain.PendingSync, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingSync), args.Error(1)
}

// GetStalePending mocks the GetStalePending method of PendingSyncRepository.
func (m *MockPendingSyncRepository) GetStalePending(
	ctx context.Context,
	olderThan time.Time,
	limit int,
) ([]*domain.PendingSync, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PendingSync), args.Error(1)
}

// MarkCompleted mocks the MarkCompleted method of PendingSyncRepository.
func (m *MockPendingSyncRepository) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

// RecordAttemptFailure mocks the RecordAttemptFailure method of PendingSyncRepository.
func (m *MockPendingSyncRepository) RecordAttemptFailure(
	ctx context.Context,
	id uuid.UUID,
	errMsg string,
	now time.Time,
	maxRetries int,
) error {
	args := m.Called(ctx, id, errMsg, now, maxRetries)
	return args.Error(0)
}

// MockReplayer is a mock implementation of Replayer for testing.
type MockReplayer struct {
	mock.Mock
}

// ReplayLocal mocks the ReplayLocal method of Replayer.
func (m *MockReplayer) ReplayLocal(ctx context.Context, ps *domain.PendingSync) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}

// ReplayExternal mocks the ReplayExternal method of Replayer.
func (m *MockReplayer) ReplayExternal(ctx context.Context, ps *domain.PendingSync) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}
