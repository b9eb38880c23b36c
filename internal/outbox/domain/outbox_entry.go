// Package domain defines the core outbox domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEntryStatus represents the status of an outbox entry
type OutboxEntryStatus string

const (
	OutboxEntryStatusPending    OutboxEntryStatus = "pending"
	OutboxEntryStatusProcessing OutboxEntryStatus = "processing"
	OutboxEntryStatusCompleted  OutboxEntryStatus = "completed"
	OutboxEntryStatusFailed     OutboxEntryStatus = "failed"
	OutboxEntryStatusDeadLetter OutboxEntryStatus = "dead_letter"
)

// Default budgets applied when the producer does not specify them.
const (
	DefaultMaxRetries     = 3
	DefaultTimeoutSeconds = 30
)

// OutboxEntry represents one pending or historical cross-system side effect.
// Entries are created by any producer that needs a durable external effect and
// are mutated only by the dispatcher. Terminal states are completed and
// dead_letter; a manual retry may re-enter pending from failed or dead_letter.
type OutboxEntry struct {
	ID             uuid.UUID
	IdempotencyKey string
	TargetSystem   string
	EventType      string
	Payload        string
	Headers        string
	Status         OutboxEntryStatus
	RetryCount     int
	MaxRetries     int
	NextRetryAt    *time.Time
	TimeoutSeconds int
	LastError      *string
	CreatedAt      time.Time
	ProcessedAt    *time.Time
	CompletedAt    *time.Time
	UpdatedAt      time.Time
}

// Timeout returns the handler invocation timeout for this entry.
func (e *OutboxEntry) Timeout() time.Duration {
	seconds := e.TimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// BackoffAfter returns when the entry becomes due again after its n-th failure.
// The delay doubles with every failure: 2^1, 2^2, 2^3 minutes and so on.
func BackoffAfter(now time.Time, retryCount int) time.Time {
	return now.Add(time.Duration(1<<retryCount) * time.Minute)
}

// IsTerminal reports whether the status admits no further automatic processing.
func (s OutboxEntryStatus) IsTerminal() bool {
	return s == OutboxEntryStatusCompleted || s == OutboxEntryStatusDeadLetter
}
