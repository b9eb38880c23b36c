// Package dto defines request and response payloads for the command API.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	calendarDomain "github.com/chronoshq/chronos/internal/calendar/domain"
)

// CompleteCommandRequest carries the execution result reported by an external system.
type CompleteCommandRequest struct {
	Result string `json:"result"`
}

// Validate validates the request.
func (r CompleteCommandRequest) Validate() error {
	return nil
}

// FailCommandRequest carries the execution error reported by an external system.
type FailCommandRequest struct {
	Error string `json:"error"`
}

// Validate validates the request.
func (r FailCommandRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Error, validation.Required.Error("error is required")),
	)
}

// ProcessEventRequest is a calendar event submitted by a sync adapter for
// pipeline processing.
type ProcessEventRequest struct {
	ID          string     `json:"id"`
	CalendarID  string     `json:"calendar_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Attendees   []string   `json:"attendees"`
	Tags        []string   `json:"tags"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Status      string     `json:"status"`
	Origin      string     `json:"origin"`
	CreatedBy   string     `json:"created_by"`
}

// Validate validates the request.
func (r ProcessEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required.Error("id is required")),
		validation.Field(&r.Title, validation.Required.Error("title is required")),
	)
}

// ToEvent maps the request to the domain event.
func (r ProcessEventRequest) ToEvent() *calendarDomain.Event {
	event := &calendarDomain.Event{
		ID:          r.ID,
		CalendarID:  r.CalendarID,
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Attendees:   r.Attendees,
		Tags:        r.Tags,
		Status:      calendarDomain.EventStatus(r.Status),
		Origin:      r.Origin,
		CreatedBy:   r.CreatedBy,
	}
	if r.StartTime != nil {
		event.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		event.EndTime = *r.EndTime
	}
	return event
}
