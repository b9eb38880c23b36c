// Package mocks provides mock implementations for testing command use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/chronoshq/chronos/internal/command/domain"
)

// MockCommandRepository is a mock implementation of CommandRepository for testing.
type MockCommandRepository struct {
	mock.Mock
}

// Create mocks the Create method of CommandRepository.
func (m *MockCommandRepository) Create(ctx context.Context, cmd *domain.ExternalCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

// GetByID mocks the GetByID method of CommandRepository.
func (m *MockCommandRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExternalCommand, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExternalCommand), args.Error(1)
}

// ClaimPending mocks the ClaimPending method of CommandRepository.
func (m *MockCommandRepository) ClaimPending(
	ctx context.Context,
	targetSystem string,
	now time.Time,
	limit int,
) ([]*domain.ExternalCommand, error) {
	args := m.Called(ctx, targetSystem, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ExternalCommand), args.Error(1)
}

// MarkCompleted mocks the MarkCompleted method of CommandRepository.
func (m *MockCommandRepository) MarkCompleted(ctx context.Context, id uuid.UUID, result string, now time.Time) error {
	args := m.Called(ctx, id, result, now)
	return args.Error(0)
}

// MarkFailed mocks the MarkFailed method of CommandRepository.
func (m *MockCommandRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, now time.Time) error {
	args := m.Called(ctx, id, errMsg, now)
	return args.Error(0)
}

// MockNoteRepository is a mock implementation of NoteRepository for testing.
type MockNoteRepository struct {
	mock.Mock
}

// Create mocks the Create method of NoteRepository.
func (m *MockNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

// MockURLPayloadRepository is a mock implementation of URLPayloadRepository for testing.
type MockURLPayloadRepository struct {
	mock.Mock
}

// Create mocks the Create method of URLPayloadRepository.
func (m *MockURLPayloadRepository) Create(ctx context.Context, payload *domain.URLPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// MockWorkflowTrigger is a mock implementation of WorkflowTrigger for testing.
type MockWorkflowTrigger struct {
	mock.Mock
}

// Fire mocks the Fire method of WorkflowTrigger.
func (m *MockWorkflowTrigger) Fire(ctx context.Context, cmd *domain.ExternalCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}
