package dto

import (
	"encoding/json"
	"time"

	calendarDomain "github.com/chronoshq/chronos/internal/calendar/domain"
	"github.com/chronoshq/chronos/internal/command/domain"
)

// CommandResponse is one claimed external command as returned to a poller.
type CommandResponse struct {
	ID          string          `json:"id"`
	Command     string          `json:"command"`
	Parameters  json.RawMessage `json:"parameters"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

// ListCommandsResponse wraps a claimed batch.
type ListCommandsResponse struct {
	Commands []CommandResponse `json:"commands"`
}

// MapCommandsToListResponse maps claimed commands to the polling response.
func MapCommandsToListResponse(commands []*domain.ExternalCommand) ListCommandsResponse {
	response := ListCommandsResponse{Commands: make([]CommandResponse, 0, len(commands))}
	for _, cmd := range commands {
		response.Commands = append(response.Commands, CommandResponse{
			ID:          cmd.ID.String(),
			Command:     cmd.Command,
			Parameters:  json.RawMessage(cmd.Parameters),
			Status:      string(cmd.Status),
			CreatedAt:   cmd.CreatedAt,
			ProcessedAt: cmd.ProcessedAt,
		})
	}
	return response
}

// EventResponse mirrors the event after pipeline processing.
type EventResponse struct {
	ID          string     `json:"id"`
	CalendarID  string     `json:"calendar_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Attendees   []string   `json:"attendees,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Status      string     `json:"status,omitempty"`
	Origin      string     `json:"origin,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
}

// ProcessEventResponse reports the pipeline outcome for a submitted event.
type ProcessEventResponse struct {
	Outcome  string         `json:"outcome"`
	Reason   string         `json:"reason,omitempty"`
	Modified bool           `json:"modified"`
	Event    *EventResponse `json:"event,omitempty"`
}

// MapOutcomeToResponse maps a pipeline outcome to the response payload.
func MapOutcomeToResponse(outcome domain.ProcessingOutcome) ProcessEventResponse {
	response := ProcessEventResponse{
		Outcome:  string(outcome.Kind),
		Reason:   outcome.Reason,
		Modified: outcome.Modified,
	}
	if outcome.Event != nil {
		response.Event = mapEvent(outcome.Event)
	}
	return response
}

func mapEvent(event *calendarDomain.Event) *EventResponse {
	response := &EventResponse{
		ID:          event.ID,
		CalendarID:  event.CalendarID,
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		Attendees:   event.Attendees,
		Tags:        event.Tags,
		Status:      string(event.Status),
		Origin:      event.Origin,
		CreatedBy:   event.CreatedBy,
	}
	if !event.StartTime.IsZero() {
		startTime := event.StartTime
		response.StartTime = &startTime
	}
	if !event.EndTime.IsZero() {
		endTime := event.EndTime
		response.EndTime = &endTime
	}
	return response
}
