package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
)

// MySQLURLPayloadRepository handles url payload persistence for MySQL
type MySQLURLPayloadRepository struct {
	db *sql.DB
}

// NewMySQLURLPayloadRepository creates a new MySQLURLPayloadRepository
func NewMySQLURLPayloadRepository(db *sql.DB) *MySQLURLPayloadRepository {
	return &MySQLURLPayloadRepository{
		db: db,
	}
}

// Create inserts a new url payload.
func (r *MySQLURLPayloadRepository) Create(ctx context.Context, payload *domain.URLPayload) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO url_payloads (id, url, title, calendar_id, source_event_id, created_at)
			  VALUES (?, ?, ?, ?, ?, NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := payload.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, payload.URL, payload.Title,
		payload.CalendarID, payload.SourceEventID)

	return err
}

// GetByID retrieves a url payload by its ID.
func (r *MySQLURLPayloadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.URLPayload, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	query := `SELECT id, url, title, calendar_id, source_event_id, created_at
			  FROM url_payloads WHERE id = ?`

	var payload domain.URLPayload
	var payloadIDBytes []byte
	err = querier.QueryRowContext(ctx, query, idBytes).Scan(&payloadIDBytes, &payload.URL,
		&payload.Title, &payload.CalendarID, &payload.SourceEventID, &payload.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := payload.ID.UnmarshalBinary(payloadIDBytes); err != nil {
		return nil, err
	}
	return &payload, nil
}
