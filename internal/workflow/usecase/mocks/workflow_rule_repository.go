// Package mocks provides mock implementations for testing workflow use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	commandDomain "github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/workflow/domain"
)

// MockWorkflowRuleRepository is a mock implementation of WorkflowRuleRepository for testing.
type MockWorkflowRuleRepository struct {
	mock.Mock
}

// Create mocks the Create method of WorkflowRuleRepository.
func (m *MockWorkflowRuleRepository) Create(ctx context.Context, rule *domain.WorkflowRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// GetByID mocks the GetByID method of WorkflowRuleRepository.
func (m *MockWorkflowRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkflowRule), args.Error(1)
}

// GetEnabledByTrigger mocks the GetEnabledByTrigger method of WorkflowRuleRepository.
func (m *MockWorkflowRuleRepository) GetEnabledByTrigger(
	ctx context.Context,
	triggerCommand string,
	triggerSystem string,
) ([]*domain.WorkflowRule, error) {
	args := m.Called(ctx, triggerCommand, triggerSystem)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WorkflowRule), args.Error(1)
}

// List mocks the List method of WorkflowRuleRepository.
func (m *MockWorkflowRuleRepository) List(ctx context.Context, limit, offset int) ([]*domain.WorkflowRule, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WorkflowRule), args.Error(1)
}

// MockCommandCreator is a mock implementation of CommandCreator for testing.
type MockCommandCreator struct {
	mock.Mock
}

// Create mocks the Create method of CommandCreator.
func (m *MockCommandCreator) Create(ctx context.Context, cmd *commandDomain.ExternalCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}
