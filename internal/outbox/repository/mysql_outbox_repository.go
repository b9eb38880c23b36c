// Package repository provides data persistence implementations for outbox entries.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/outbox/domain"
)

const mysqlOutboxColumns = `id, idempotency_key, target_system, event_type, payload, headers, status,
	retry_count, max_retries, next_retry_at, timeout_seconds, last_error,
	created_at, processed_at, completed_at, updated_at`

// MySQLOutboxRepository handles outbox entry persistence for MySQL
type MySQLOutboxRepository struct {
	db *sql.DB
}

// NewMySQLOutboxRepository creates a new MySQLOutboxRepository
func NewMySQLOutboxRepository(db *sql.DB) *MySQLOutboxRepository {
	return &MySQLOutboxRepository{
		db: db,
	}
}

// Create inserts a new outbox entry. INSERT IGNORE makes a duplicate
// idempotency key a no-op, mirroring the PostgreSQL ON CONFLICT behavior.
func (r *MySQLOutboxRepository) Create(ctx context.Context, entry *domain.OutboxEntry) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT IGNORE INTO outbox_entries (id, idempotency_key, target_system, event_type, payload, headers,
				  status, retry_count, max_retries, next_retry_at, timeout_seconds, last_error,
				  created_at, processed_at, completed_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), ?, ?, NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := entry.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, entry.IdempotencyKey, entry.TargetSystem,
		entry.EventType, entry.Payload, entry.Headers, entry.Status, entry.RetryCount,
		entry.MaxRetries, entry.NextRetryAt, entry.TimeoutSeconds, entry.LastError,
		entry.ProcessedAt, entry.CompletedAt)

	return err
}

// GetByID retrieves an outbox entry by its surrogate key.
func (r *MySQLOutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEntry, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + mysqlOutboxColumns + ` FROM outbox_entries WHERE id = ?`

	entry, err := scanMySQLOutboxEntry(querier.QueryRowContext(ctx, query, idBytes))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return entry, err
}

// GetByIdempotencyKey retrieves an outbox entry by its idempotency key.
func (r *MySQLOutboxRepository) GetByIdempotencyKey(
	ctx context.Context,
	key string,
) (*domain.OutboxEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlOutboxColumns + ` FROM outbox_entries WHERE idempotency_key = ?`

	entry, err := scanMySQLOutboxEntry(querier.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return entry, err
}

// GetDueEntries retrieves entries ready for dispatch in FIFO order.
func (r *MySQLOutboxRepository) GetDueEntries(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.OutboxEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlOutboxColumns + `
			  FROM outbox_entries
			  WHERE status = ?
			     OR (status = ? AND next_retry_at <= ? AND retry_count < max_retries)
			  ORDER BY created_at ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query,
		domain.OutboxEntryStatusPending, domain.OutboxEntryStatusFailed, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var entries []*domain.OutboxEntry
	for rows.Next() {
		entry, err := scanMySQLOutboxEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// MarkProcessing atomically claims an entry for dispatch via a conditional update.
func (r *MySQLOutboxRepository) MarkProcessing(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return false, err
	}

	query := `UPDATE outbox_entries
			  SET status = ?, processed_at = ?, updated_at = NOW()
			  WHERE id = ? AND status IN (?, ?)`

	result, err := querier.ExecContext(ctx, query,
		domain.OutboxEntryStatusProcessing, now, idBytes,
		domain.OutboxEntryStatusPending, domain.OutboxEntryStatusFailed)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// MarkCompleted transitions a processing entry to completed.
func (r *MySQLOutboxRepository) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return err
	}

	query := `UPDATE outbox_entries
			  SET status = ?, completed_at = ?, last_error = NULL, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query,
		domain.OutboxEntryStatusCompleted, now, idBytes, domain.OutboxEntryStatusProcessing)
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

// MarkFailed records a dispatch failure with exponential backoff or dead-letters
// the entry when the retry budget is exhausted.
func (r *MySQLOutboxRepository) MarkFailed(
	ctx context.Context,
	id uuid.UUID,
	errMsg string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return err
	}

	query := `UPDATE outbox_entries
			  SET last_error = ?,
			      status = CASE WHEN retry_count + 1 >= max_retries THEN ? ELSE ? END,
			      next_retry_at = CASE WHEN retry_count + 1 >= max_retries THEN NULL
			                          ELSE DATE_ADD(?, INTERVAL POW(2, retry_count + 1) MINUTE) END,
			      retry_count = retry_count + 1,
			      updated_at = NOW()
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query, errMsg,
		domain.OutboxEntryStatusDeadLetter, domain.OutboxEntryStatusFailed,
		now, idBytes, domain.OutboxEntryStatusProcessing)
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

// Retry manually re-enters a failed or dead-letter entry into the pending state.
func (r *MySQLOutboxRepository) Retry(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return err
	}

	query := `UPDATE outbox_entries
			  SET status = ?, retry_count = 0, next_retry_at = NULL, updated_at = NOW()
			  WHERE id = ? AND status IN (?, ?)`

	result, err := querier.ExecContext(ctx, query,
		domain.OutboxEntryStatusPending, idBytes,
		domain.OutboxEntryStatusFailed, domain.OutboxEntryStatusDeadLetter)
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

// scanMySQLOutboxEntry scans one outbox entry row, decoding the BINARY(16) id.
func scanMySQLOutboxEntry(row rowScanner) (*domain.OutboxEntry, error) {
	var entry domain.OutboxEntry
	var idBytes []byte

	err := row.Scan(&idBytes, &entry.IdempotencyKey, &entry.TargetSystem, &entry.EventType,
		&entry.Payload, &entry.Headers, &entry.Status, &entry.RetryCount, &entry.MaxRetries,
		&entry.NextRetryAt, &entry.TimeoutSeconds, &entry.LastError,
		&entry.CreatedAt, &entry.ProcessedAt, &entry.CompletedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := entry.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, err
	}

	return &entry, nil
}
