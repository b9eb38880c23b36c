// Package repository provides data persistence implementations for pending syncs.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/transaction/domain"
)

const postgresPendingSyncColumns = `id, transaction_id, operation_type, entity_type, entity_id,
	db_data, api_data, status, retry_count, last_error, created_at, last_attempt_at, completed_at`

// PostgreSQLPendingSyncRepository handles pending sync persistence for PostgreSQL
type PostgreSQLPendingSyncRepository struct {
	db *sql.DB
}

// NewPostgreSQLPendingSyncRepository creates a new PostgreSQLPendingSyncRepository
func NewPostgreSQLPendingSyncRepository(db *sql.DB) *PostgreSQLPendingSyncRepository {
	return &PostgreSQLPendingSyncRepository{
		db: db,
	}
}

// Create inserts a new pending sync. A duplicate transaction id is a no-op so
// a retried caller cannot queue the same replay twice.
func (r *PostgreSQLPendingSyncRepository) Create(ctx context.Context, ps *domain.PendingSync) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO pending_syncs (id, transaction_id, operation_type, entity_type, entity_id,
				  db_data, api_data, status, retry_count, last_error, created_at, last_attempt_at, completed_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), $11, $12)
			  ON CONFLICT (transaction_id) DO NOTHING`

	_, err := querier.ExecContext(ctx, query, ps.ID, ps.TransactionID, ps.OperationType,
		ps.EntityType, ps.EntityID, ps.DBData, ps.APIData, ps.Status, ps.RetryCount,
		ps.LastError, ps.LastAttemptAt, ps.CompletedAt)

	return err
}

// GetByTransactionID retrieves a pending sync by its transaction id.
func (r *PostgreSQLPendingSyncRepository) GetByTransactionID(
	ctx context.Context,
	transactionID string,
) (*domain.PendingSync, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresPendingSyncColumns + ` FROM pending_syncs WHERE transaction_id = $1`

	ps, err := scanPostgresPendingSync(querier.QueryRowContext(ctx, query, transactionID))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return ps, err
}

// GetStalePending retrieves pending records created before the given cutoff,
// oldest first. The cutoff implements the grace window that avoids racing the
// transaction that just created a record.
func (r *PostgreSQLPendingSyncRepository) GetStalePending(
	ctx context.Context,
	olderThan time.Time,
	limit int,
) ([]*domain.PendingSync, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresPendingSyncColumns + `
			  FROM pending_syncs
			  WHERE status = $1 AND created_at < $2
			  ORDER BY created_at ASC
			  LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, domain.PendingSyncStatusPending, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var records []*domain.PendingSync
	for rows.Next() {
		ps, err := scanPostgresPendingSync(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, ps)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// MarkCompleted transitions a pending record to completed after a successful replay.
func (r *PostgreSQLPendingSyncRepository) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE pending_syncs
			  SET status = $1, completed_at = $2, last_attempt_at = $2, last_error = NULL
			  WHERE id = $3 AND status = $4`

	result, err := querier.ExecContext(ctx, query,
		domain.PendingSyncStatusCompleted, now, id, domain.PendingSyncStatusPending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// RecordAttemptFailure persists one failed replay attempt: it increments the
// retry count, stores the error, and marks the record permanently failed when
// the budget is exhausted. Progress survives process restarts because every
// attempt is written before the next one starts.
func (r *PostgreSQLPendingSyncRepository) RecordAttemptFailure(
	ctx context.Context,
	id uuid.UUID,
	errMsg string,
	now time.Time,
	maxRetries int,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE pending_syncs
			  SET retry_count = retry_count + 1,
			      last_error = $1,
			      last_attempt_at = $2,
			      status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE status END
			  WHERE id = $5 AND status = $6`

	result, err := querier.ExecContext(ctx, query, errMsg, now, maxRetries,
		domain.PendingSyncStatusFailed, id, domain.PendingSyncStatusPending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPostgresPendingSync scans one pending sync row.
func scanPostgresPendingSync(row rowScanner) (*domain.PendingSync, error) {
	var ps domain.PendingSync

	err := row.Scan(&ps.ID, &ps.TransactionID, &ps.OperationType, &ps.EntityType, &ps.EntityID,
		&ps.DBData, &ps.APIData, &ps.Status, &ps.RetryCount, &ps.LastError,
		&ps.CreatedAt, &ps.LastAttemptAt, &ps.CompletedAt)
	if err != nil {
		return nil, err
	}

	return &ps, nil
}
