package usecase

import (
	"log/slog"
	"strings"

	calendarDomain "github.com/chronoshq/chronos/internal/calendar/domain"
)

// undefinedExplanation is prepended to the description of a rewritten event.
const undefinedExplanation = "This event looked like a command but did not match any known command syntax. " +
	"Fix the title (NOTIZ:, URL:, or ACTION: with exact capitalization) or remove the UNDEFINED: prefix."

// UndefinedGuard rewrites events whose titles look like commands but do not
// match the case-exact syntax, so typos surface instead of silently passing
// through. It never touches system-originated events.
type UndefinedGuard struct {
	localCalendarID string
	logger          *slog.Logger
}

// NewUndefinedGuard creates a new UndefinedGuard. localCalendarID identifies
// the calendar this instance owns; events from other calendars are treated as
// system-owned and skipped.
func NewUndefinedGuard(localCalendarID string, logger *slog.Logger) *UndefinedGuard {
	return &UndefinedGuard{
		localCalendarID: localCalendarID,
		logger:          logger,
	}
}

// Apply evaluates one event and returns it, possibly rewritten, plus whether
// it was modified. The input event is never mutated; a rewrite returns a copy.
//
// An existing UNDEFINED: prefix is stripped before evaluation so an event can
// never accumulate two prefixes no matter how often it is reprocessed. Any
// panic while evaluating origin falls back to treating the event as
// system-owned and skipping it.
func (g *UndefinedGuard) Apply(event *calendarDomain.Event) (result *calendarDomain.Event, modified bool) {
	if event == nil {
		return nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			if g.logger != nil {
				g.logger.Error("undefined guard evaluation panicked, skipping event",
					slog.String("event_id", event.ID),
					slog.Any("panic", r),
				)
			}
			result = event
			modified = false
		}
	}()

	if event.IsSystemOwned(g.localCalendarID) {
		return event, false
	}

	title := strings.TrimSpace(event.Title)

	// Loop prevention: evaluate the bare title behind an existing mark.
	if bare, marked := strings.CutPrefix(title, prefixUndefined); marked {
		bare = strings.TrimSpace(bare)
		if isNearMiss(bare) {
			// Still a near miss; the single existing mark stands.
			return event, false
		}
		// The title no longer looks like a broken command; leave it for a
		// human to clean up rather than silently unmarking.
		return event, false
	}

	if !isNearMiss(title) {
		return event, false
	}

	rewritten := event.Clone()
	rewritten.Title = prefixUndefined + " " + title
	if rewritten.Description != "" {
		rewritten.Description = undefinedExplanation + "\n\n" + rewritten.Description
	} else {
		rewritten.Description = undefinedExplanation
	}

	if g.logger != nil {
		g.logger.Info("marked near-miss command title",
			slog.String("event_id", event.ID),
			slog.String("title", title),
		)
	}

	return rewritten, true
}
