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

const postgresOutboxColumns = `id, idempotency_key, target_system, event_type, payload, headers, status,
	retry_count, max_retries, next_retry_at, timeout_seconds, last_error,
	created_at, processed_at, completed_at, updated_at`

// PostgreSQLOutboxRepository handles outbox entry persistence for PostgreSQL
type PostgreSQLOutboxRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxRepository creates a new PostgreSQLOutboxRepository
func NewPostgreSQLOutboxRepository(db *sql.DB) *PostgreSQLOutboxRepository {
	return &PostgreSQLOutboxRepository{
		db: db,
	}
}

// Create inserts a new outbox entry. A duplicate idempotency key is a no-op:
// the existing row is left untouched and no error is returned.
func (r *PostgreSQLOutboxRepository) Create(ctx context.Context, entry *domain.OutboxEntry) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_entries (id, idempotency_key, target_system, event_type, payload, headers,
				  status, retry_count, max_retries, next_retry_at, timeout_seconds, last_error,
				  created_at, processed_at, completed_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), $13, $14, NOW())
			  ON CONFLICT (idempotency_key) DO NOTHING`

	_, err := querier.ExecContext(ctx, query, entry.ID, entry.IdempotencyKey, entry.TargetSystem,
		entry.EventType, entry.Payload, entry.Headers, entry.Status, entry.RetryCount,
		entry.MaxRetries, entry.NextRetryAt, entry.TimeoutSeconds, entry.LastError,
		entry.ProcessedAt, entry.CompletedAt)

	return err
}

// GetByID retrieves an outbox entry by its surrogate key.
func (r *PostgreSQLOutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresOutboxColumns + ` FROM outbox_entries WHERE id = $1`

	entry, err := scanPostgresOutboxEntry(querier.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return entry, err
}

// GetByIdempotencyKey retrieves an outbox entry by its idempotency key.
func (r *PostgreSQLOutboxRepository) GetByIdempotencyKey(
	ctx context.Context,
	key string,
) (*domain.OutboxEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresOutboxColumns + ` FROM outbox_entries WHERE idempotency_key = $1`

	entry, err := scanPostgresOutboxEntry(querier.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return entry, err
}

// GetDueEntries retrieves entries ready for dispatch in FIFO order: pending
// entries, plus failed entries whose next retry is due and whose retry budget
// is not exhausted. Dead-letter entries are never returned.
func (r *PostgreSQLOutboxRepository) GetDueEntries(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.OutboxEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresOutboxColumns + `
			  FROM outbox_entries
			  WHERE status = $1
			     OR (status = $2 AND next_retry_at <= $3 AND retry_count < max_retries)
			  ORDER BY created_at ASC
			  LIMIT $4`

	rows, err := querier.QueryContext(ctx, query,
		domain.OutboxEntryStatusPending, domain.OutboxEntryStatusFailed, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var entries []*domain.OutboxEntry
	for rows.Next() {
		entry, err := scanPostgresOutboxEntry(rows)
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

// MarkProcessing atomically claims an entry for dispatch. The conditional
// update is the concurrency guard: it succeeds only from pending or failed,
// so two workers can never double-handle the same entry.
func (r *PostgreSQLOutboxRepository) MarkProcessing(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_entries
			  SET status = $1, processed_at = $2, updated_at = NOW()
			  WHERE id = $3 AND status IN ($4, $5)`

	result, err := querier.ExecContext(ctx, query,
		domain.OutboxEntryStatusProcessing, now, id,
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
func (r *PostgreSQLOutboxRepository) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_entries
			  SET status = $1, completed_at = $2, last_error = NULL, updated_at = NOW()
			  WHERE id = $3 AND status = $4`

	result, err := querier.ExecContext(ctx, query,
		domain.OutboxEntryStatusCompleted, now, id, domain.OutboxEntryStatusProcessing)
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

// MarkFailed records a dispatch failure in one statement: it increments the
// retry count, stores the error, and either schedules the next attempt with
// exponential backoff or dead-letters the entry when the budget is exhausted.
func (r *PostgreSQLOutboxRepository) MarkFailed(
	ctx context.Context,
	id uuid.UUID,
	errMsg string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_entries
			  SET retry_count = retry_count + 1,
			      last_error = $1,
			      status = CASE WHEN retry_count + 1 >= max_retries THEN $2 ELSE $3 END,
			      next_retry_at = CASE WHEN retry_count + 1 >= max_retries THEN NULL
			                          ELSE $4::timestamptz + (power(2, retry_count + 1) * interval '1 minute') END,
			      updated_at = NOW()
			  WHERE id = $5 AND status = $6`

	result, err := querier.ExecContext(ctx, query, errMsg,
		domain.OutboxEntryStatusDeadLetter, domain.OutboxEntryStatusFailed,
		now, id, domain.OutboxEntryStatusProcessing)
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

// Retry manually re-enters a failed or dead-letter entry into the pending
// state with a fresh retry budget. Dead-letter entries are never retried
// automatically; this is the operator escape hatch.
func (r *PostgreSQLOutboxRepository) Retry(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_entries
			  SET status = $1, retry_count = 0, next_retry_at = NULL, updated_at = NOW()
			  WHERE id = $2 AND status IN ($3, $4)`

	result, err := querier.ExecContext(ctx, query,
		domain.OutboxEntryStatusPending, id,
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

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPostgresOutboxEntry scans one outbox entry row.
func scanPostgresOutboxEntry(row rowScanner) (*domain.OutboxEntry, error) {
	var entry domain.OutboxEntry

	err := row.Scan(&entry.ID, &entry.IdempotencyKey, &entry.TargetSystem, &entry.EventType,
		&entry.Payload, &entry.Headers, &entry.Status, &entry.RetryCount, &entry.MaxRetries,
		&entry.NextRetryAt, &entry.TimeoutSeconds, &entry.LastError,
		&entry.CreatedAt, &entry.ProcessedAt, &entry.CompletedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}
