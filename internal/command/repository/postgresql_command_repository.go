// Package repository provides data persistence implementations for command
// pipeline records.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
)

const postgresCommandColumns = `id, command, target_system, parameters, status, scheduled_at,
	result, error_message, created_at, processed_at, completed_at`

// PostgreSQLCommandRepository handles external command persistence for PostgreSQL
type PostgreSQLCommandRepository struct {
	db *sql.DB
}

// NewPostgreSQLCommandRepository creates a new PostgreSQLCommandRepository
func NewPostgreSQLCommandRepository(db *sql.DB) *PostgreSQLCommandRepository {
	return &PostgreSQLCommandRepository{
		db: db,
	}
}

// Create inserts a new external command.
func (r *PostgreSQLCommandRepository) Create(ctx context.Context, cmd *domain.ExternalCommand) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO external_commands (id, command, target_system, parameters, status,
				  scheduled_at, result, error_message, created_at, processed_at, completed_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), $9, $10)`

	_, err := querier.ExecContext(ctx, query, cmd.ID, cmd.Command, cmd.TargetSystem,
		cmd.Parameters, cmd.Status, cmd.ScheduledAt, cmd.Result, cmd.ErrorMessage,
		cmd.ProcessedAt, cmd.CompletedAt)

	return err
}

// GetByID retrieves an external command by its ID.
func (r *PostgreSQLCommandRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExternalCommand, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresCommandColumns + ` FROM external_commands WHERE id = $1`

	cmd, err := scanPostgresCommand(querier.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return cmd, err
}

// ClaimPending atomically claims up to limit due pending commands for one
// target system, flipping them to processing. The single statement is the
// concurrency guard: two pollers can never claim the same command.
func (r *PostgreSQLCommandRepository) ClaimPending(
	ctx context.Context,
	targetSystem string,
	now time.Time,
	limit int,
) ([]*domain.ExternalCommand, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE external_commands
			  SET status = $1, processed_at = $2
			  WHERE id IN (
				  SELECT id FROM external_commands
				  WHERE status = $3
					AND target_system = $4
					AND (scheduled_at IS NULL OR scheduled_at <= $2)
				  ORDER BY created_at ASC
				  LIMIT $5
				  FOR UPDATE SKIP LOCKED
			  )
			  RETURNING ` + postgresCommandColumns

	rows, err := querier.QueryContext(ctx, query, domain.CommandStatusProcessing, now,
		domain.CommandStatusPending, targetSystem, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var commands []*domain.ExternalCommand
	for rows.Next() {
		cmd, err := scanPostgresCommand(rows)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return commands, nil
}

// MarkCompleted stores the result and transitions the command to completed.
// Only a claimed (processing) command can complete.
func (r *PostgreSQLCommandRepository) MarkCompleted(
	ctx context.Context,
	id uuid.UUID,
	result string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE external_commands
			  SET status = $1, result = $2, completed_at = $3
			  WHERE id = $4 AND status = $5`

	res, err := querier.ExecContext(ctx, query,
		domain.CommandStatusCompleted, result, now, id, domain.CommandStatusProcessing)
	if err != nil {
		return err
	}

	return requirePostgresTransition(ctx, querier, res, id)
}

// MarkFailed stores the error message and transitions the command to failed.
func (r *PostgreSQLCommandRepository) MarkFailed(
	ctx context.Context,
	id uuid.UUID,
	errMsg string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE external_commands
			  SET status = $1, error_message = $2, completed_at = $3
			  WHERE id = $4 AND status = $5`

	res, err := querier.ExecContext(ctx, query,
		domain.CommandStatusFailed, errMsg, now, id, domain.CommandStatusProcessing)
	if err != nil {
		return err
	}

	return requirePostgresTransition(ctx, querier, res, id)
}

// requirePostgresTransition distinguishes a missing command from an invalid status.
func requirePostgresTransition(ctx context.Context, querier database.Querier, res sql.Result, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM external_commands WHERE id = $1)`
	if err := querier.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrInvalidTransition
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPostgresCommand scans one external command row.
func scanPostgresCommand(row rowScanner) (*domain.ExternalCommand, error) {
	var cmd domain.ExternalCommand

	err := row.Scan(&cmd.ID, &cmd.Command, &cmd.TargetSystem, &cmd.Parameters, &cmd.Status,
		&cmd.ScheduledAt, &cmd.Result, &cmd.ErrorMessage,
		&cmd.CreatedAt, &cmd.ProcessedAt, &cmd.CompletedAt)
	if err != nil {
		return nil, err
	}

	return &cmd, nil
}
