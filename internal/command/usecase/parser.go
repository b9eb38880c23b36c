package usecase

import (
	"regexp"
	"strings"
)

// Proper command prefixes. Recognition is case-exact: only these spellings
// produce domain records, anything close but different is a near miss.
const (
	prefixNote      = "NOTIZ:"
	prefixURL       = "URL:"
	prefixAction    = "ACTION:"
	prefixUndefined = "UNDEFINED:"
)

// nearMissPattern matches titles whose first token looks like a command prefix
// but is not a proper one: wrong-case variants and common misspellings.
var nearMissPattern = regexp.MustCompile(`(?i)^(notiz|url|action|note|akti[oa]n|link|cmd|command):`)

// parsedTitle is the result of tokenizing an event title on its first
// whitespace boundary.
type parsedTitle struct {
	prefix    string
	remainder string
}

// parseTitle splits the trimmed title into its first token and the remainder.
func parseTitle(title string) parsedTitle {
	title = strings.TrimSpace(title)

	prefix, remainder, found := strings.Cut(title, " ")
	if !found {
		return parsedTitle{prefix: title}
	}
	return parsedTitle{prefix: prefix, remainder: strings.TrimSpace(remainder)}
}

// hasProperPrefix reports whether the title's first token is exactly one of
// the proper command prefixes.
func hasProperPrefix(title string) bool {
	switch parseTitle(title).prefix {
	case prefixNote, prefixURL, prefixAction:
		return true
	}
	return false
}

// isNearMiss reports whether the title starts with a near-miss command prefix.
// Proper prefixes are excluded: `NOTIZ: foo` is never a near miss, while
// `notiz: foo`, `Notiz: foo`, and `note: foo` always are.
func isNearMiss(title string) bool {
	title = strings.TrimSpace(title)
	if hasProperPrefix(title) {
		return false
	}
	return nearMissPattern.MatchString(title)
}

// actionCommand is a tokenized ACTION: remainder.
type actionCommand struct {
	command      string
	targetSystem string
	args         []string
}

// parseAction tokenizes an ACTION: remainder into command, target system, and
// positional args. ok is false when the remainder is malformed (fewer than two
// tokens); the caller preserves the event for human review.
func parseAction(remainder string) (actionCommand, bool) {
	tokens := strings.Fields(remainder)
	if len(tokens) < 2 {
		return actionCommand{}, false
	}

	return actionCommand{
		command:      strings.ToUpper(tokens[0]),
		targetSystem: tokens[1],
		args:         tokens[2:],
	}, true
}

// parseURL splits a URL: remainder into the URL (first token) and an optional
// title override (the rest).
func parseURL(remainder string) (url, title string) {
	url, title, _ = strings.Cut(remainder, " ")
	return url, strings.TrimSpace(title)
}
