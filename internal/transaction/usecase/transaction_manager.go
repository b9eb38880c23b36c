// Package usecase implements the paired-operation transaction manager and the
// recovery loop that replays operations deferred after external failures.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/transaction/domain"
	appValidation "github.com/chronoshq/chronos/internal/validation"
)

// PendingSyncRepository defines pending sync repository operations
type PendingSyncRepository interface {
	Create(ctx context.Context, ps *domain.PendingSync) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.PendingSync, error)
	GetStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*domain.PendingSync, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error
	RecordAttemptFailure(ctx context.Context, id uuid.UUID, errMsg string, now time.Time, maxRetries int) error
}

// ExecuteInput describes one paired local/external operation.
type ExecuteInput struct {
	// TransactionID identifies the pair across retries. The same id never
	// produces two pending sync records.
	TransactionID string
	OperationType domain.OperationType
	EntityType    string
	EntityID      string

	// DBData and APIData are the serialized arguments a replayer needs to
	// re-execute each half later without the original closures.
	DBData  string
	APIData string

	// DBOperation is the local database half. It runs inside a transaction and
	// may use the repositories normally; their writes join the transaction.
	DBOperation func(ctx context.Context) error

	// APIOperation is the external half. It runs after the local half
	// succeeded but before anything commits.
	APIOperation func(ctx context.Context) error
}

// TransactionManager executes paired local/external operations with
// all-or-nothing semantics per attempt.
type TransactionManager interface {
	Execute(ctx context.Context, input ExecuteInput) error
}

// PairedTransactionManager implements TransactionManager over a TxManager and
// a pending sync repository.
//
// The consistency model is rollback-both: when the external half fails, the
// already-applied local half is rolled back with it and a pending sync record
// is written so the recovery loop can replay the whole pair. At no point is
// the local database ahead of the external service on a committed state.
type PairedTransactionManager struct {
	txManager database.TxManager
	syncRepo  PendingSyncRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewPairedTransactionManager creates a new PairedTransactionManager
func NewPairedTransactionManager(
	txManager database.TxManager,
	syncRepo PendingSyncRepository,
	logger *slog.Logger,
) *PairedTransactionManager {
	return &PairedTransactionManager{
		txManager: txManager,
		syncRepo:  syncRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// validateExecuteInput validates the execute input using jellydator/validation.
func (m *PairedTransactionManager) validateExecuteInput(input ExecuteInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.TransactionID,
			validation.Required.Error("transaction id is required"),
			appValidation.NotBlank,
		),
		validation.Field(&input.OperationType,
			validation.Required.Error("operation type is required"),
			validation.By(func(value any) error {
				t, _ := value.(domain.OperationType)
				if !t.IsValid() {
					return apperrors.New("operation type must be create, update or delete")
				}
				return nil
			}),
		),
		validation.Field(&input.EntityType,
			validation.Required.Error("entity type is required"),
			appValidation.NotBlank,
			appValidation.Identifier,
		),
		validation.Field(&input.EntityID,
			validation.Required.Error("entity id is required"),
			appValidation.NotBlank,
		),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}

	if input.DBOperation == nil || input.APIOperation == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "both operations are required")
	}
	return nil
}

// Execute runs the paired operation. Outcomes:
//
//   - Both halves succeed: the transaction commits and Execute returns nil.
//   - The local half fails: everything is rolled back and the error wraps
//     ErrDBOperationFailed. Nothing is queued for replay.
//   - The external half fails: the local half is rolled back with it, a
//     pending sync record is written in its own transaction, and the error
//     wraps ErrAPIOperationFailed.
func (m *PairedTransactionManager) Execute(ctx context.Context, input ExecuteInput) error {
	if err := m.validateExecuteInput(input); err != nil {
		return err
	}

	err := m.txManager.WithTx(ctx, func(txCtx context.Context) error {
		// The savepoint keeps a local failure from poisoning the outer
		// transaction, so a caller composing several pairs can continue.
		if dbErr := m.txManager.WithSavepoint(txCtx, input.DBOperation); dbErr != nil {
			return fmt.Errorf("%w: %v", domain.ErrDBOperationFailed, dbErr)
		}

		if apiErr := input.APIOperation(txCtx); apiErr != nil {
			return fmt.Errorf("%w: %v", domain.ErrAPIOperationFailed, apiErr)
		}

		return nil
	})
	if err == nil {
		return nil
	}

	if apperrors.Is(err, domain.ErrAPIOperationFailed) {
		// The rollback already happened; queue the whole pair for replay.
		// The queue write must not share the rolled-back transaction.
		if queueErr := m.recordPendingSync(ctx, input, err.Error()); queueErr != nil {
			if m.logger != nil {
				m.logger.Error("failed to record pending sync",
					slog.String("transaction_id", input.TransactionID),
					slog.Any("error", queueErr),
				)
			}
			return apperrors.Wrap(queueErr, err.Error())
		}

		if m.logger != nil {
			m.logger.Warn("external operation failed, queued for replay",
				slog.String("transaction_id", input.TransactionID),
				slog.String("entity_type", input.EntityType),
				slog.String("entity_id", input.EntityID),
			)
		}
	}

	return err
}

// recordPendingSync writes the replay record in a fresh transaction.
func (m *PairedTransactionManager) recordPendingSync(ctx context.Context, input ExecuteInput, errMsg string) error {
	ps := &domain.PendingSync{
		ID:            uuid.Must(uuid.NewV7()),
		TransactionID: input.TransactionID,
		OperationType: input.OperationType,
		EntityType:    input.EntityType,
		EntityID:      input.EntityID,
		DBData:        input.DBData,
		APIData:       input.APIData,
		Status:        domain.PendingSyncStatusPending,
		LastError:     &errMsg,
	}

	return m.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return m.syncRepo.Create(txCtx, ps)
	})
}
