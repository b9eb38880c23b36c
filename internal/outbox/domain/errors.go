package domain

import apperrors "github.com/chronoshq/chronos/internal/errors"

// Outbox-specific domain errors.
var (
	// ErrNoHandler indicates no handler is registered for an entry's target system.
	ErrNoHandler = apperrors.New("no handler registered for target system")

	// ErrHandlerTimeout indicates a handler exceeded the entry's timeout budget.
	ErrHandlerTimeout = apperrors.New("handler invocation timed out")
)
