package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/chronoshq/chronos/internal/outbox/domain"
)

// Handler delivers one outbox entry to its target system. Implementations are
// registered per target system tag; the dispatcher has no built-in knowledge
// of what any tag means beyond the registered handler.
type Handler func(ctx context.Context, entry *domain.OutboxEntry) error

// Registry maps target system tags to delivery handlers. It is safe for
// concurrent use; registration normally happens once during startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register installs a handler for the given target system, replacing any
// previous registration for the same tag.
func (r *Registry) Register(targetSystem string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[targetSystem] = handler
}

// Get returns the handler for the given target system.
func (r *Registry) Get(targetSystem string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[targetSystem]
	return handler, ok
}

// TargetSystems returns the registered target system tags in sorted order.
func (r *Registry) TargetSystems() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	systems := make([]string, 0, len(r.handlers))
	for system := range r.handlers {
		systems = append(systems, system)
	}
	sort.Strings(systems)
	return systems
}
