// Package mocks provides mock implementations for testing outbox use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/chronoshq/chronos/internal/outbox/domain"
)

// MockOutboxRepository is a mock implementation of OutboxRepository for testing.
type MockOutboxRepository struct {
	mock.Mock
}

// Create mocks the Create method of OutboxRepository.
func (m *MockOutboxRepository) Create(ctx context.Context, entry *domain.OutboxEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// GetByID mocks the GetByID method of OutboxRepository.
func (m *MockOutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboxEntry), args.Error(1)
}

// GetByIdempotencyKey mocks the GetByIdempotencyKey method of OutboxRepository.
func (m *MockOutboxRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.OutboxEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboxEntry), args.Error(1)
}

// GetDueEntries mocks the GetDueEntries method of OutboxRepository.
func (m *MockOutboxRepository) GetDueEntries(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.OutboxEntry, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEntry), args.Error(1)
}

// MarkProcessing mocks the MarkProcessing method of OutboxRepository.
func (m *MockOutboxRepository) MarkProcessing(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

// MarkCompleted mocks the MarkCompleted method of OutboxRepository.
func (m *MockOutboxRepository) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

// MarkFailed mocks the MarkFailed method of OutboxRepository.
func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, now time.Time) error {
	args := m.Called(ctx, id, errMsg, now)
	return args.Error(0)
}

// Retry mocks the Retry method of OutboxRepository.
func (m *MockOutboxRepository) Retry(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
