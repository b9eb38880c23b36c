// Package mocks provides mock implementations for metrics interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockBusinessMetrics is a mock implementation of metrics.BusinessMetrics.
type MockBusinessMetrics struct {
	mock.Mock
}

// RecordOperation mocks the RecordOperation method.
func (m *MockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

// RecordDuration mocks the RecordDuration method.
func (m *MockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

// RecordOutcome mocks the RecordOutcome method.
func (m *MockBusinessMetrics) RecordOutcome(ctx context.Context, kind string, modified bool) {
	m.Called(ctx, kind, modified)
}

// RecordRetry mocks the RecordRetry method.
func (m *MockBusinessMetrics) RecordRetry(ctx context.Context, domain, target string) {
	m.Called(ctx, domain, target)
}
