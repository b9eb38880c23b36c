package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
)

// PostgreSQLURLPayloadRepository handles url payload persistence for PostgreSQL
type PostgreSQLURLPayloadRepository struct {
	db *sql.DB
}

// NewPostgreSQLURLPayloadRepository creates a new PostgreSQLURLPayloadRepository
func NewPostgreSQLURLPayloadRepository(db *sql.DB) *PostgreSQLURLPayloadRepository {
	return &PostgreSQLURLPayloadRepository{
		db: db,
	}
}

// Create inserts a new url payload.
func (r *PostgreSQLURLPayloadRepository) Create(ctx context.Context, payload *domain.URLPayload) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO url_payloads (id, url, title, calendar_id, source_event_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, NOW())`

	_, err := querier.ExecContext(ctx, query, payload.ID, payload.URL, payload.Title,
		payload.CalendarID, payload.SourceEventID)

	return err
}

// GetByID retrieves a url payload by its ID.
func (r *PostgreSQLURLPayloadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.URLPayload, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, url, title, calendar_id, source_event_id, created_at
			  FROM url_payloads WHERE id = $1`

	var payload domain.URLPayload
	err := querier.QueryRowContext(ctx, query, id).Scan(&payload.ID, &payload.URL,
		&payload.Title, &payload.CalendarID, &payload.SourceEventID, &payload.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payload, nil
}
