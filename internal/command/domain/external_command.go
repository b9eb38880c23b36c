// Package domain defines the durable records produced by the command pipeline:
// notes, url payloads, and external commands dispatched to other systems.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CommandStatus represents the status of an external command.
type CommandStatus string

const (
	CommandStatusPending    CommandStatus = "pending"
	CommandStatusProcessing CommandStatus = "processing"
	CommandStatusCompleted  CommandStatus = "completed"
	CommandStatusFailed     CommandStatus = "failed"
)

// ExternalCommand is a whitelisted command destined for an external system.
// External systems poll for pending commands, flip them to processing, execute
// them, and report the outcome through the completion API.
type ExternalCommand struct {
	ID           uuid.UUID
	Command      string
	TargetSystem string
	// Parameters is a JSON document carrying positional args plus the
	// originating event context (source event id, calendar id, time window).
	Parameters   string
	Status       CommandStatus
	// ScheduledAt defers visibility to pollers; nil means immediately due.
	ScheduledAt  *time.Time
	Result       *string
	ErrorMessage *string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
	CompletedAt  *time.Time
}

// CommandParameters is the canonical shape of ExternalCommand.Parameters.
// Extra holds workflow-injected keys that have no fixed field.
type CommandParameters struct {
	Args          []string       `json:"args"`
	SourceEventID string         `json:"source_event_id,omitempty"`
	CalendarID    string         `json:"calendar_id,omitempty"`
	EventStart    *time.Time     `json:"event_start,omitempty"`
	EventEnd      *time.Time     `json:"event_end,omitempty"`
	Extra         map[string]any `json:"-"`
}

// Encode serializes the parameters into the JSON document stored on the
// command, folding Extra keys into the top-level object.
func (p CommandParameters) Encode() (string, error) {
	base, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	if len(p.Extra) == 0 {
		return string(base), nil
	}

	merged := make(map[string]any, len(p.Extra)+5)
	if err := json.Unmarshal(base, &merged); err != nil {
		return "", err
	}
	for key, value := range p.Extra {
		merged[key] = value
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
