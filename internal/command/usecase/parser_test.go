package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseTitle tests first-whitespace-boundary tokenization.
func TestParseTitle(t *testing.T) {
	tests := []struct {
		title     string
		prefix    string
		remainder string
	}{
		{"NOTIZ: buy milk", "NOTIZ:", "buy milk"},
		{"  NOTIZ:   buy milk  ", "NOTIZ:", "buy milk"},
		{"ACTION: DEPLOY prod restart", "ACTION:", "DEPLOY prod restart"},
		{"NOTIZ:", "NOTIZ:", ""},
		{"", "", ""},
		{"single", "single", ""},
	}

	for _, tt := range tests {
		parsed := parseTitle(tt.title)
		assert.Equal(t, tt.prefix, parsed.prefix, "title %q", tt.title)
		assert.Equal(t, tt.remainder, parsed.remainder, "title %q", tt.title)
	}
}

// TestIsNearMiss tests near-miss detection against proper prefixes.
func TestIsNearMiss(t *testing.T) {
	nearMisses := []string{
		"notiz: foo",
		"url: http://x",
		"action: deploy sys",
		"Notiz: foo",
		"URL:http://x",
		"note: foo",
		"NOTE: foo",
		"aktion: deploy",
		"aktian: deploy",
		"link: http://x",
		"cmd: deploy",
		"command: deploy",
	}
	for _, title := range nearMisses {
		assert.True(t, isNearMiss(title), "title %q", title)
	}

	proper := []string{
		"NOTIZ: foo",
		"URL: http://x",
		"ACTION: DEPLOY sys",
	}
	for _, title := range proper {
		assert.False(t, isNearMiss(title), "title %q", title)
	}

	plain := []string{
		"Team standup",
		"Lunch with notizen team",
		"",
	}
	for _, title := range plain {
		assert.False(t, isNearMiss(title), "title %q", title)
	}
}

// TestParseAction tests ACTION: remainder tokenization.
func TestParseAction(t *testing.T) {
	t.Run("FullCommand", func(t *testing.T) {
		action, ok := parseAction("DEPLOY prod restart --force")

		assert.True(t, ok)
		assert.Equal(t, "DEPLOY", action.command)
		assert.Equal(t, "prod", action.targetSystem)
		assert.Equal(t, []string{"restart", "--force"}, action.args)
	})

	t.Run("CommandIsUppercased", func(t *testing.T) {
		action, ok := parseAction("deploy prod")

		assert.True(t, ok)
		assert.Equal(t, "DEPLOY", action.command)
		assert.Empty(t, action.args)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, remainder := range []string{"", "DEPLOY", "   "} {
			_, ok := parseAction(remainder)
			assert.False(t, ok, "remainder %q", remainder)
		}
	})
}

// TestParseURL tests URL: remainder splitting.
func TestParseURL(t *testing.T) {
	url, title := parseURL("https://example.com/doc Design Document")
	assert.Equal(t, "https://example.com/doc", url)
	assert.Equal(t, "Design Document", title)

	url, title = parseURL("https://example.com")
	assert.Equal(t, "https://example.com", url)
	assert.Empty(t, title)

	url, title = parseURL("")
	assert.Empty(t, url)
	assert.Empty(t, title)
}
