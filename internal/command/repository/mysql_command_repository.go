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

const mysqlCommandColumns = `id, command, target_system, parameters, status, scheduled_at,
	result, error_message, created_at, processed_at, completed_at`

// MySQLCommandRepository handles external command persistence for MySQL
type MySQLCommandRepository struct {
	db *sql.DB
}

// NewMySQLCommandRepository creates a new MySQLCommandRepository
func NewMySQLCommandRepository(db *sql.DB) *MySQLCommandRepository {
	return &MySQLCommandRepository{
		db: db,
	}
}

// Create inserts a new external command.
func (r *MySQLCommandRepository) Create(ctx context.Context, cmd *domain.ExternalCommand) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO external_commands (id, command, target_system, parameters, status,
				  scheduled_at, result, error_message, created_at, processed_at, completed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), ?, ?)`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := cmd.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, cmd.Command, cmd.TargetSystem,
		cmd.Parameters, cmd.Status, cmd.ScheduledAt, cmd.Result, cmd.ErrorMessage,
		cmd.ProcessedAt, cmd.CompletedAt)

	return err
}

// GetByID retrieves an external command by its ID.
func (r *MySQLCommandRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExternalCommand, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + mysqlCommandColumns + ` FROM external_commands WHERE id = ?`

	cmd, err := scanMySQLCommand(querier.QueryRowContext(ctx, query, idBytes))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return cmd, err
}

// ClaimPending claims up to limit due pending commands for one target system.
// MySQL has no UPDATE ... RETURNING, so the claim runs as a locked select
// followed by an update; callers must wrap it in a transaction.
func (r *MySQLCommandRepository) ClaimPending(
	ctx context.Context,
	targetSystem string,
	now time.Time,
	limit int,
) ([]*domain.ExternalCommand, error) {
	querier := database.GetTx(ctx, r.db)

	selectQuery := `SELECT ` + mysqlCommandColumns + `
			  FROM external_commands
			  WHERE status = ?
				AND target_system = ?
				AND (scheduled_at IS NULL OR scheduled_at <= ?)
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, selectQuery,
		domain.CommandStatusPending, targetSystem, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var commands []*domain.ExternalCommand
	for rows.Next() {
		cmd, err := scanMySQLCommand(rows)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	updateQuery := `UPDATE external_commands SET status = ?, processed_at = ? WHERE id = ?`
	for _, cmd := range commands {
		idBytes, err := cmd.ID.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if _, err := querier.ExecContext(ctx, updateQuery,
			domain.CommandStatusProcessing, now, idBytes); err != nil {
			return nil, err
		}
		cmd.Status = domain.CommandStatusProcessing
		processedAt := now
		cmd.ProcessedAt = &processedAt
	}

	return commands, nil
}

// MarkCompleted stores the result and transitions the command to completed.
func (r *MySQLCommandRepository) MarkCompleted(
	ctx context.Context,
	id uuid.UUID,
	result string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return err
	}

	query := `UPDATE external_commands
			  SET status = ?, result = ?, completed_at = ?
			  WHERE id = ? AND status = ?`

	res, err := querier.ExecContext(ctx, query,
		domain.CommandStatusCompleted, result, now, idBytes, domain.CommandStatusProcessing)
	if err != nil {
		return err
	}

	return requireMySQLTransition(ctx, querier, res, idBytes)
}

// MarkFailed stores the error message and transitions the command to failed.
func (r *MySQLCommandRepository) MarkFailed(
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

	query := `UPDATE external_commands
			  SET status = ?, error_message = ?, completed_at = ?
			  WHERE id = ? AND status = ?`

	res, err := querier.ExecContext(ctx, query,
		domain.CommandStatusFailed, errMsg, now, idBytes, domain.CommandStatusProcessing)
	if err != nil {
		return err
	}

	return requireMySQLTransition(ctx, querier, res, idBytes)
}

// requireMySQLTransition distinguishes a missing command from an invalid status.
func requireMySQLTransition(ctx context.Context, querier database.Querier, res sql.Result, idBytes []byte) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM external_commands WHERE id = ?)`
	if err := querier.QueryRowContext(ctx, query, idBytes).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrInvalidTransition
}

// scanMySQLCommand scans one external command row, decoding the BINARY(16) id.
func scanMySQLCommand(row rowScanner) (*domain.ExternalCommand, error) {
	var cmd domain.ExternalCommand
	var idBytes []byte

	err := row.Scan(&idBytes, &cmd.Command, &cmd.TargetSystem, &cmd.Parameters, &cmd.Status,
		&cmd.ScheduledAt, &cmd.Result, &cmd.ErrorMessage,
		&cmd.CreatedAt, &cmd.ProcessedAt, &cmd.CompletedAt)
	if err != nil {
		return nil, err
	}

	if err := cmd.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, err
	}

	return &cmd, nil
}
