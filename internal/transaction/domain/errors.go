package domain

import apperrors "github.com/chronoshq/chronos/internal/errors"

// Transaction-specific domain errors.
var (
	// ErrDBOperationFailed indicates the local database half of a paired
	// operation failed. Nothing is replayed; the caller sees a hard failure.
	ErrDBOperationFailed = apperrors.New("DB operation failed")

	// ErrAPIOperationFailed indicates the external half of a paired operation
	// failed after the local half succeeded. The pair was rolled back and a
	// pending sync recorded for later replay.
	ErrAPIOperationFailed = apperrors.New("API operation failed")

	// ErrNoReplayer indicates no replayer is registered for a pending sync's
	// entity type.
	ErrNoReplayer = apperrors.New("no replayer registered for entity type")
)
