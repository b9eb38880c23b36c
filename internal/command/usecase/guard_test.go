package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	calendarDomain "github.com/chronoshq/chronos/internal/calendar/domain"
)

func guardEvent(title string) *calendarDomain.Event {
	return &calendarDomain.Event{
		ID:         "evt-1",
		CalendarID: "local-cal",
		Title:      title,
		Origin:     calendarDomain.OriginUser,
		CreatedBy:  "alice",
	}
}

// TestUndefinedGuard_Apply tests near-miss rewriting and its boundaries.
func TestUndefinedGuard_Apply(t *testing.T) {
	guard := NewUndefinedGuard("local-cal", nil)

	t.Run("NearMissTitles_AreMarked", func(t *testing.T) {
		tests := []string{
			"notiz: buy milk",
			"url: http://x",
			"action: deploy sys",
			"Notiz: buy milk",
			"note: buy milk",
			"aktion: deploy sys",
			"aktian: deploy sys",
			"link: http://x",
			"cmd: deploy sys",
			"command: deploy sys",
		}
		for _, title := range tests {
			result, modified := guard.Apply(guardEvent(title))

			assert.True(t, modified, "title %q", title)
			assert.Equal(t, "UNDEFINED: "+title, result.Title, "title %q", title)
		}
	})

	t.Run("ProperPrefixes_NeverMarked", func(t *testing.T) {
		tests := []string{
			"NOTIZ: foo",
			"URL: http://x",
			"ACTION: DEPLOY sys",
		}
		for _, title := range tests {
			result, modified := guard.Apply(guardEvent(title))

			assert.False(t, modified, "title %q", title)
			assert.Equal(t, title, result.Title, "title %q", title)
		}
	})

	t.Run("PlainTitles_Untouched", func(t *testing.T) {
		result, modified := guard.Apply(guardEvent("Team standup"))

		assert.False(t, modified)
		assert.Equal(t, "Team standup", result.Title)
	})

	t.Run("AlreadyMarked_NeverDoublePrefixed", func(t *testing.T) {
		event := guardEvent("UNDEFINED: action: deploy prod")

		// Reprocess several times; the single mark must stand.
		for i := 0; i < 3; i++ {
			result, modified := guard.Apply(event)
			assert.False(t, modified)
			assert.Equal(t, "UNDEFINED: action: deploy prod", result.Title)
			event = result
		}
	})

	t.Run("MarkPrependsExplanationToDescription", func(t *testing.T) {
		event := guardEvent("notiz: buy milk")
		event.Description = "original description"

		result, modified := guard.Apply(event)

		assert.True(t, modified)
		assert.Contains(t, result.Description, "did not match any known command syntax")
		assert.Contains(t, result.Description, "original description")
		// The input event is never mutated.
		assert.Equal(t, "notiz: buy milk", event.Title)
		assert.Equal(t, "original description", event.Description)
	})

	t.Run("SystemOwnedEvents_Skipped", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(e *calendarDomain.Event)
		}{
			{"OriginSystem", func(e *calendarDomain.Event) { e.Origin = calendarDomain.OriginSystem }},
			{"CreatedBySystem", func(e *calendarDomain.Event) { e.CreatedBy = "system" }},
			{"InProgressStatus", func(e *calendarDomain.Event) { e.Status = calendarDomain.EventStatusInProgress }},
			{"ForeignCalendar", func(e *calendarDomain.Event) { e.CalendarID = "someone-else" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				event := guardEvent("action: deploy prod")
				tt.mutate(event)

				result, modified := guard.Apply(event)

				assert.False(t, modified)
				assert.Equal(t, "action: deploy prod", result.Title)
			})
		}
	})

	t.Run("NilEvent_Skipped", func(t *testing.T) {
		result, modified := guard.Apply(nil)

		assert.Nil(t, result)
		assert.False(t, modified)
	})
}
