package domain

import (
	"time"

	"github.com/google/uuid"
)

// Note is the durable record produced by a NOTIZ: event title. The note text
// is the title remainder; the rest is metadata captured from the source event.
type Note struct {
	ID            uuid.UUID
	Content       string
	Location      string
	// Attendees and Tags are JSON arrays serialized as text.
	Attendees     string
	Tags          string
	EventTime     *time.Time
	CalendarID    string
	SourceEventID string
	CreatedAt     time.Time
}
