package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	commandDomain "github.com/chronoshq/chronos/internal/command/domain"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	outboxUsecase "github.com/chronoshq/chronos/internal/outbox/usecase"
	"github.com/chronoshq/chronos/internal/transaction/domain"
)

// EntityTypeNote is the entity type served by the note replayer.
const EntityTypeNote = "note"

// NoteSyncData is the serialized local half of a paired note operation. It is
// what producers put into ExecuteInput.DBData for EntityTypeNote.
type NoteSyncData struct {
	ID            uuid.UUID `json:"id"`
	Content       string    `json:"content"`
	Location      string    `json:"location,omitempty"`
	Attendees     string    `json:"attendees,omitempty"`
	Tags          string    `json:"tags,omitempty"`
	CalendarID    string    `json:"calendar_id"`
	SourceEventID string    `json:"source_event_id"`
}

// ExternalSyncData is the serialized external half of a paired operation,
// carried in ExecuteInput.APIData.
type ExternalSyncData struct {
	TargetSystem string            `json:"target_system"`
	EventType    string            `json:"event_type"`
	Payload      map[string]any    `json:"payload"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// NoteStore persists notes. Satisfied by the command feature's note
// repositories.
type NoteStore interface {
	Create(ctx context.Context, note *commandDomain.Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*commandDomain.Note, error)
}

// OutboxEnqueuer enqueues durable outbox entries. Satisfied by the outbox use
// case.
type OutboxEnqueuer interface {
	Enqueue(ctx context.Context, input outboxUsecase.EnqueueInput) (string, error)
}

// NoteReplayer replays paired note operations. The local half re-creates the
// note; the external half is routed through the outbox instead of calling the
// webhook inline, so the recovery transaction stays free of network calls and
// delivery inherits the outbox's retry and dead-letter handling. Because the
// note store and the outbox repository both join the ambient transaction, a
// replay lands atomically with the record's completion mark.
type NoteReplayer struct {
	noteStore NoteStore
	enqueuer  OutboxEnqueuer
	logger    *slog.Logger
}

// NewNoteReplayer creates a new NoteReplayer
func NewNoteReplayer(noteStore NoteStore, enqueuer OutboxEnqueuer, logger *slog.Logger) *NoteReplayer {
	return &NoteReplayer{
		noteStore: noteStore,
		enqueuer:  enqueuer,
		logger:    logger,
	}
}

// ReplayLocal re-creates the note captured in DBData. A note that already
// exists is left alone, which makes a repeated replay of the same record a
// no-op.
func (r *NoteReplayer) ReplayLocal(ctx context.Context, ps *domain.PendingSync) error {
	var data NoteSyncData
	if err := json.Unmarshal([]byte(ps.DBData), &data); err != nil {
		return apperrors.Wrap(err, "invalid note sync data")
	}
	if data.ID == uuid.Nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "note sync data has no id")
	}

	_, err := r.noteStore.GetByID(ctx, data.ID)
	if err == nil {
		if r.logger != nil {
			r.logger.Info("note already present, skipping local replay",
				slog.String("note_id", data.ID.String()),
			)
		}
		return nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	note := &commandDomain.Note{
		ID:            data.ID,
		Content:       data.Content,
		Location:      data.Location,
		Attendees:     data.Attendees,
		Tags:          data.Tags,
		CalendarID:    data.CalendarID,
		SourceEventID: data.SourceEventID,
	}
	return r.noteStore.Create(ctx, note)
}

// ReplayExternal enqueues the external half captured in APIData as an outbox
// entry. The idempotency key is derived from the transaction id, so replaying
// the same record twice never produces a second delivery.
func (r *NoteReplayer) ReplayExternal(ctx context.Context, ps *domain.PendingSync) error {
	var data ExternalSyncData
	if err := json.Unmarshal([]byte(ps.APIData), &data); err != nil {
		return apperrors.Wrap(err, "invalid external sync data")
	}
	if data.TargetSystem == "" || data.EventType == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "external sync data missing target system or event type")
	}

	_, err := r.enqueuer.Enqueue(ctx, outboxUsecase.EnqueueInput{
		TargetSystem:   data.TargetSystem,
		EventType:      data.EventType,
		Payload:        data.Payload,
		Headers:        data.Headers,
		IdempotencyKey: "sync:" + ps.TransactionID,
	})
	return err
}
