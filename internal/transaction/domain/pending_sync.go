// Package domain defines the pending sync entity used by the transaction
// manager for eventual consistency between the local database and external
// services.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperationType classifies the replayable operation captured by a pending sync.
type OperationType string

const (
	OperationTypeCreate OperationType = "create"
	OperationTypeUpdate OperationType = "update"
	OperationTypeDelete OperationType = "delete"
)

// PendingSyncStatus represents the status of a pending sync record.
type PendingSyncStatus string

const (
	PendingSyncStatusPending   PendingSyncStatus = "pending"
	PendingSyncStatusCompleted PendingSyncStatus = "completed"
	PendingSyncStatusFailed    PendingSyncStatus = "failed"
)

// DefaultMaxRetries is the replay budget before a pending sync is marked
// permanently failed.
const DefaultMaxRetries = 3

// PendingSync is a deferred retry record for a paired local/external operation
// whose external half failed. Under the rollback-both model the local half was
// undone together with the failed external call, so a pending row means the
// whole pair still needs to happen: the recovery loop replays both halves
// atomically, or neither.
type PendingSync struct {
	ID            uuid.UUID
	TransactionID string
	OperationType OperationType
	EntityType    string
	EntityID      string
	DBData        string
	APIData       string
	Status        PendingSyncStatus
	RetryCount    int
	LastError     *string
	CreatedAt     time.Time
	LastAttemptAt *time.Time
	CompletedAt   *time.Time
}

// IsValid reports whether the operation type is one of the known values.
func (t OperationType) IsValid() bool {
	switch t {
	case OperationTypeCreate, OperationTypeUpdate, OperationTypeDelete:
		return true
	}
	return false
}
