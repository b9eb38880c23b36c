// Package usecase implements the command pipeline: title parsing, whitelist
// gating, the undefined guard, and the polling/completion flow used by
// external systems.
package usecase

import (
	"sort"
	"strings"
	"sync"
)

// Whitelist is the authoritative set of command names allowed to produce an
// ExternalCommand. It is read-only shared state during a processing cycle;
// Reload swaps the whole set atomically.
type Whitelist struct {
	mu       sync.RWMutex
	commands map[string]struct{}
}

// NewWhitelist creates a whitelist from the given command names. Names are
// upper-cased; comparison is always against the upper-cased command token.
func NewWhitelist(commands []string) *Whitelist {
	w := &Whitelist{}
	w.Reload(commands)
	return w
}

// Contains reports whether the upper-cased command is whitelisted.
func (w *Whitelist) Contains(command string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	_, ok := w.commands[strings.ToUpper(strings.TrimSpace(command))]
	return ok
}

// Reload replaces the whole set.
func (w *Whitelist) Reload(commands []string) {
	set := make(map[string]struct{}, len(commands))
	for _, command := range commands {
		command = strings.ToUpper(strings.TrimSpace(command))
		if command == "" {
			continue
		}
		set[command] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.commands = set
}

// Commands returns the whitelisted command names, sorted.
func (w *Whitelist) Commands() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	commands := make([]string, 0, len(w.commands))
	for command := range w.commands {
		commands = append(commands, command)
	}
	sort.Strings(commands)
	return commands
}
