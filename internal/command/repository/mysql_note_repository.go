package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
)

const mysqlNoteColumns = `id, content, location, attendees, tags, event_time,
	calendar_id, source_event_id, created_at`

// MySQLNoteRepository handles note persistence for MySQL
type MySQLNoteRepository struct {
	db *sql.DB
}

// NewMySQLNoteRepository creates a new MySQLNoteRepository
func NewMySQLNoteRepository(db *sql.DB) *MySQLNoteRepository {
	return &MySQLNoteRepository{
		db: db,
	}
}

// Create inserts a new note.
func (r *MySQLNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO notes (id, content, location, attendees, tags, event_time,
				  calendar_id, source_event_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := note.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, note.Content, note.Location,
		note.Attendees, note.Tags, note.EventTime, note.CalendarID, note.SourceEventID)

	return err
}

// GetByID retrieves a note by its ID.
func (r *MySQLNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + mysqlNoteColumns + ` FROM notes WHERE id = ?`

	var note domain.Note
	var noteIDBytes []byte
	err = querier.QueryRowContext(ctx, query, idBytes).Scan(&noteIDBytes, &note.Content,
		&note.Location, &note.Attendees, &note.Tags, &note.EventTime,
		&note.CalendarID, &note.SourceEventID, &note.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := note.ID.UnmarshalBinary(noteIDBytes); err != nil {
		return nil, err
	}
	return &note, nil
}
