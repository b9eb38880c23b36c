package domain

import (
	calendarDomain "github.com/chronoshq/chronos/internal/calendar/domain"
)

// OutcomeKind discriminates what the pipeline decided about an event.
type OutcomeKind string

const (
	// OutcomeConsumed means a durable record was persisted and the caller
	// should delete the source calendar event.
	OutcomeConsumed OutcomeKind = "consumed"

	// OutcomePreserved means the event was left untouched for human review
	// (not whitelisted, malformed syntax, or a processing error).
	OutcomePreserved OutcomeKind = "preserved"

	// OutcomePassed means no command prefix matched; the event flows on to
	// downstream processing, possibly rewritten by the undefined guard.
	OutcomePassed OutcomeKind = "passed"
)

// ProcessingOutcome is the single discriminated result of processing one
// event. Validation failures are outcomes here, never errors: a rejected
// command must not abort batch processing.
type ProcessingOutcome struct {
	Kind OutcomeKind

	// Reason explains a preserved outcome.
	Reason string

	// Event is the event after processing. For preserved outcomes this is the
	// original event unchanged; for passed outcomes it may carry a guard
	// rewrite, with Modified set.
	Event *calendarDomain.Event

	// Modified reports that the guard rewrote the event and the caller should
	// persist the new title and description back to the calendar.
	Modified bool
}

// Consumed builds a consumed outcome.
func Consumed(event *calendarDomain.Event) ProcessingOutcome {
	return ProcessingOutcome{Kind: OutcomeConsumed, Event: event}
}

// Preserved builds a preserved outcome carrying the untouched event.
func Preserved(event *calendarDomain.Event, reason string) ProcessingOutcome {
	return ProcessingOutcome{Kind: OutcomePreserved, Event: event, Reason: reason}
}

// Passed builds a passed outcome.
func Passed(event *calendarDomain.Event, modified bool) ProcessingOutcome {
	return ProcessingOutcome{Kind: OutcomePassed, Event: event, Modified: modified}
}
