package domain

import (
	"time"

	"github.com/google/uuid"
)

// URLPayload is the durable record produced by a URL: event title. The first
// token of the remainder is the URL, the rest an optional title override.
type URLPayload struct {
	ID            uuid.UUID
	URL           string
	Title         string
	CalendarID    string
	SourceEventID string
	CreatedAt     time.Time
}
