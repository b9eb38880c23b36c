package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
)

const postgresNoteColumns = `id, content, location, attendees, tags, event_time,
	calendar_id, source_event_id, created_at`

// PostgreSQLNoteRepository handles note persistence for PostgreSQL
type PostgreSQLNoteRepository struct {
	db *sql.DB
}

// NewPostgreSQLNoteRepository creates a new PostgreSQLNoteRepository
func NewPostgreSQLNoteRepository(db *sql.DB) *PostgreSQLNoteRepository {
	return &PostgreSQLNoteRepository{
		db: db,
	}
}

// Create inserts a new note.
func (r *PostgreSQLNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO notes (id, content, location, attendees, tags, event_time,
				  calendar_id, source_event_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	_, err := querier.ExecContext(ctx, query, note.ID, note.Content, note.Location,
		note.Attendees, note.Tags, note.EventTime, note.CalendarID, note.SourceEventID)

	return err
}

// GetByID retrieves a note by its ID.
func (r *PostgreSQLNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresNoteColumns + ` FROM notes WHERE id = $1`

	var note domain.Note
	err := querier.QueryRowContext(ctx, query, id).Scan(&note.ID, &note.Content,
		&note.Location, &note.Attendees, &note.Tags, &note.EventTime,
		&note.CalendarID, &note.SourceEventID, &note.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}
