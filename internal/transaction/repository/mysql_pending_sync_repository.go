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

const mysqlPendingSyncColumns = `id, transaction_id, operation_type, entity_type, entity_id,
	db_data, api_data, status, retry_count, last_error, created_at, last_attempt_at, completed_at`

// MySQLPendingSyncRepository handles pending sync persistence for MySQL
type MySQLPendingSyncRepository struct {
	db *sql.DB
}

// NewMySQLPendingSyncRepository creates a new MySQLPendingSyncRepository
func NewMySQLPendingSyncRepository(db *sql.DB) *MySQLPendingSyncRepository {
	return &MySQLPendingSyncRepository{
		db: db,
	}
}

// Create inserts a new pending sync. INSERT IGNORE makes a duplicate
// transaction id a no-op.
func (r *MySQLPendingSyncRepository) Create(ctx context.Context, ps *domain.PendingSync) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT IGNORE INTO pending_syncs (id, transaction_id, operation_type, entity_type, entity_id,
				  db_data, api_data, status, retry_count, last_error, created_at, last_attempt_at, completed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), ?, ?)`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := ps.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, ps.TransactionID, ps.OperationType,
		ps.EntityType, ps.EntityID, ps.DBData, ps.APIData, ps.Status, ps.RetryCount,
		ps.LastError, ps.LastAttemptAt, ps.CompletedAt)

	return err
}

// GetByTransactionID retrieves a pending sync by its transaction id.
func (r *MySQLPendingSyncRepository) GetByTransactionID(
	ctx context.Context,
	transactionID string,
) (*domain.PendingSync, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlPendingSyncColumns + ` FROM pending_syncs WHERE transaction_id = ?`

	ps, err := scanMySQLPendingSync(querier.QueryRowContext(ctx, query, transactionID))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return ps, err
}

// GetStalePending retrieves pending records created before the given cutoff, oldest first.
func (r *MySQLPendingSyncRepository) GetStalePending(
	ctx context.Context,
	olderThan time.Time,
	limit int,
) ([]*domain.PendingSync, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlPendingSyncColumns + `
			  FROM pending_syncs
			  WHERE status = ? AND created_at < ?
			  ORDER BY created_at ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, domain.PendingSyncStatusPending, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var records []*domain.PendingSync
	for rows.Next() {
		ps, err := scanMySQLPendingSync(rows)
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
func (r *MySQLPendingSyncRepository) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return err
	}

	query := `UPDATE pending_syncs
			  SET status = ?, completed_at = ?, last_attempt_at = ?, last_error = NULL
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query,
		domain.PendingSyncStatusCompleted, now, now, idBytes, domain.PendingSyncStatusPending)
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

// RecordAttemptFailure persists one failed replay attempt, marking the record
// permanently failed when the retry budget is exhausted.
func (r *MySQLPendingSyncRepository) RecordAttemptFailure(
	ctx context.Context,
	id uuid.UUID,
	errMsg string,
	now time.Time,
	maxRetries int,
) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return err
	}

	query := `UPDATE pending_syncs
			  SET last_error = ?,
			      last_attempt_at = ?,
			      status = CASE WHEN retry_count + 1 >= ? THEN ? ELSE status END,
			      retry_count = retry_count + 1
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query, errMsg, now, maxRetries,
		domain.PendingSyncStatusFailed, idBytes, domain.PendingSyncStatusPending)
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

// scanMySQLPendingSync scans one pending sync row, decoding the BINARY(16) id.
func scanMySQLPendingSync(row rowScanner) (*domain.PendingSync, error) {
	var ps domain.PendingSync
	var idBytes []byte

	err := row.Scan(&idBytes, &ps.TransactionID, &ps.OperationType, &ps.EntityType, &ps.EntityID,
		&ps.DBData, &ps.APIData, &ps.Status, &ps.RetryCount, &ps.LastError,
		&ps.CreatedAt, &ps.LastAttemptAt, &ps.CompletedAt)
	if err != nil {
		return nil, err
	}

	if err := ps.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, err
	}

	return &ps, nil
}
