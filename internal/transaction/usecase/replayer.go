package usecase

import (
	"context"
	"sync"

	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/transaction/domain"
)

// Replayer re-executes both halves of a rolled-back paired operation from the
// serialized data captured on its pending sync record.
type Replayer interface {
	// ReplayLocal re-applies the local database half from DBData. It runs
	// inside the recovery transaction, so a failure rolls the attempt back.
	ReplayLocal(ctx context.Context, ps *domain.PendingSync) error

	// ReplayExternal re-applies the external half from APIData. Implementations
	// must be idempotent against the external service: a replay may repeat a
	// call whose effect already landed.
	ReplayExternal(ctx context.Context, ps *domain.PendingSync) error
}

// ReplayerRegistry maps entity types to their replayers.
type ReplayerRegistry struct {
	mu        sync.RWMutex
	replayers map[string]Replayer
}

// NewReplayerRegistry creates an empty ReplayerRegistry.
func NewReplayerRegistry() *ReplayerRegistry {
	return &ReplayerRegistry{
		replayers: make(map[string]Replayer),
	}
}

// Register binds a replayer to an entity type, replacing any previous binding.
func (r *ReplayerRegistry) Register(entityType string, replayer Replayer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replayers[entityType] = replayer
}

// Get returns the replayer for an entity type.
func (r *ReplayerRegistry) Get(entityType string) (Replayer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	replayer, ok := r.replayers[entityType]
	if !ok {
		return nil, apperrors.Wrap(domain.ErrNoReplayer, entityType)
	}
	return replayer, nil
}

// EntityTypes returns the registered entity types.
func (r *ReplayerRegistry) EntityTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.replayers))
	for entityType := range r.replayers {
		types = append(types, entityType)
	}
	return types
}
