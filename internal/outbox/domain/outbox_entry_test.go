package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestOutboxEntry_BackoffAfter tests the exponential backoff schedule.
func TestOutboxEntry_BackoffAfter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		retryCount int
		want       time.Duration
	}{
		{1, 2 * time.Minute},
		{2, 4 * time.Minute},
		{3, 8 * time.Minute},
		{4, 16 * time.Minute},
	}

	for _, tt := range tests {
		got := BackoffAfter(now, tt.retryCount)
		assert.Equal(t, now.Add(tt.want), got, "retry %d", tt.retryCount)
	}
}

// TestOutboxEntry_Timeout tests the timeout floor.
func TestOutboxEntry_Timeout(t *testing.T) {
	entry := &OutboxEntry{TimeoutSeconds: 10}
	assert.Equal(t, 10*time.Second, entry.Timeout())

	entry.TimeoutSeconds = 0
	assert.Equal(t, time.Duration(DefaultTimeoutSeconds)*time.Second, entry.Timeout())
}

// TestOutboxEntry_IsTerminal tests terminal status detection.
func TestOutboxEntry_IsTerminal(t *testing.T) {
	tests := []struct {
		status OutboxEntryStatus
		want   bool
	}{
		{OutboxEntryStatusPending, false},
		{OutboxEntryStatusProcessing, false},
		{OutboxEntryStatusFailed, false},
		{OutboxEntryStatusCompleted, true},
		{OutboxEntryStatusDeadLetter, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.IsTerminal(), "status %s", tt.status)
	}
}
