// Package domain defines the declarative trigger→follow-up workflow rules.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowRule maps a completed or created trigger command to one follow-up
// command. Rules are authored out-of-band and read-only to the pipeline; a
// single trigger may match several rules, each yielding one follow-up.
type WorkflowRule struct {
	ID              uuid.UUID
	TriggerCommand  string
	TriggerSystem   string
	FollowUpCommand string
	FollowUpSystem  string
	// FollowUpParams is a JSON object template merged with the runtime
	// trigger context before the follow-up is persisted.
	FollowUpParams string
	// DelaySeconds defers the follow-up's visibility to pollers.
	DelaySeconds int
	Enabled      bool
	CreatedAt    time.Time
}
