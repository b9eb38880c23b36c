// Package domain defines the calendar event value passed through the command
// pipeline. Events are owned by the calendar provider; Chronos only inspects
// and annotates them, it never persists them.
package domain

import (
	"strings"
	"time"
)

// EventStatus represents the lifecycle state of a calendar event.
type EventStatus string

const (
	EventStatusConfirmed  EventStatus = "confirmed"
	EventStatusTentative  EventStatus = "tentative"
	EventStatusCancelled  EventStatus = "cancelled"
	EventStatusInProgress EventStatus = "in_progress"
)

// Origin markers set by automated producers. Events carrying these markers
// must never be rewritten by the undefined guard.
const (
	OriginSystem = "system"
	OriginUser   = "user"
)

// Event is a calendar event as handed over by a provider sync adapter.
type Event struct {
	ID          string
	CalendarID  string
	Title       string
	Description string
	Location    string
	Attendees   []string
	Tags        []string
	StartTime   time.Time
	EndTime     time.Time
	Status      EventStatus
	Origin      string
	CreatedBy   string
}

// Clone returns a deep copy of the event. Pipeline stages that may rewrite an
// event operate on a copy so the original survives processing errors.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Attendees = append([]string(nil), e.Attendees...)
	clone.Tags = append([]string(nil), e.Tags...)
	return &clone
}

// IsSystemOwned reports whether the event was produced by an automated system
// and must not be modified by the undefined guard. localCalendarID identifies
// the calendar this instance owns; events from any other calendar are treated
// as foreign and therefore system-owned.
func (e *Event) IsSystemOwned(localCalendarID string) bool {
	if e == nil {
		return true
	}
	if e.Origin == OriginSystem {
		return true
	}
	if strings.EqualFold(e.CreatedBy, OriginSystem) {
		return true
	}
	if e.Status == EventStatusInProgress {
		return true
	}
	if localCalendarID != "" && e.CalendarID != "" && e.CalendarID != localCalendarID {
		return true
	}
	return false
}
