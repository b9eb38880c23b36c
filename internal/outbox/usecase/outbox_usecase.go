// Package usecase implements the outbox business logic: durable enqueue with
// idempotency keys and the dispatch loop that delivers entries to registered
// target system handlers with retry, backoff, and dead-lettering.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/metrics"
	"github.com/chronoshq/chronos/internal/outbox/domain"
	appValidation "github.com/chronoshq/chronos/internal/validation"
)

// Config holds outbox dispatcher configuration
type Config struct {
	Interval          time.Duration
	BatchSize         int
	DefaultMaxRetries int
	DefaultTimeout    int
}

// OutboxRepository defines outbox entry repository operations
type OutboxRepository interface {
	Create(ctx context.Context, entry *domain.OutboxEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEntry, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.OutboxEntry, error)
	GetDueEntries(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEntry, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, now time.Time) error
	Retry(ctx context.Context, id uuid.UUID) error
}

// UseCase defines the interface for outbox operations
type UseCase interface {
	Enqueue(ctx context.Context, input EnqueueInput) (string, error)
	RetryEntry(ctx context.Context, id uuid.UUID) error
	Start(ctx context.Context) error
	DispatchDue(ctx context.Context) error
}

// EnqueueInput carries one durable side-effect intent into the outbox.
type EnqueueInput struct {
	TargetSystem   string
	EventType      string
	Payload        map[string]any
	Headers        map[string]string
	IdempotencyKey string
	MaxRetries     int
	TimeoutSeconds int
}

// OutboxUseCase implements enqueue and the dispatch loop
type OutboxUseCase struct {
	config          Config
	outboxRepo      OutboxRepository
	registry        *Registry
	logger          *slog.Logger
	businessMetrics metrics.BusinessMetrics
	now             func() time.Time
}

// NewOutboxUseCase creates a new OutboxUseCase. A nil businessMetrics falls
// back to the no-op recorder.
func NewOutboxUseCase(
	config Config,
	outboxRepo OutboxRepository,
	registry *Registry,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *OutboxUseCase {
	if config.DefaultMaxRetries <= 0 {
		config.DefaultMaxRetries = domain.DefaultMaxRetries
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = domain.DefaultTimeoutSeconds
	}
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}

	return &OutboxUseCase{
		config:          config,
		outboxRepo:      outboxRepo,
		registry:        registry,
		logger:          logger,
		businessMetrics: businessMetrics,
		now:             time.Now,
	}
}

// validateEnqueueInput validates the enqueue input using jellydator/validation.
func (uc *OutboxUseCase) validateEnqueueInput(input EnqueueInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.TargetSystem,
			validation.Required.Error("target system is required"),
			appValidation.NotBlank,
			appValidation.Identifier,
		),
		validation.Field(&input.EventType,
			validation.Required.Error("event type is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("event type must be between 1 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Enqueue inserts one durable outbox entry and returns its idempotency key.
// When the caller supplies a key that already exists, the existing row is left
// untouched and the same key is returned: enqueue is exactly-once per key even
// under caller retries. A missing key is replaced with a fresh UUID.
func (uc *OutboxUseCase) Enqueue(ctx context.Context, input EnqueueInput) (string, error) {
	if err := uc.validateEnqueueInput(input); err != nil {
		return "", err
	}

	key := input.IdempotencyKey
	if key == "" {
		key = uuid.Must(uuid.NewV7()).String()
	}

	payloadJSON, err := json.Marshal(input.Payload)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to marshal payload")
	}

	headers := input.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to marshal headers")
	}

	maxRetries := input.MaxRetries
	if maxRetries <= 0 {
		maxRetries = uc.config.DefaultMaxRetries
	}
	timeoutSeconds := input.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = uc.config.DefaultTimeout
	}

	entry := &domain.OutboxEntry{
		ID:             uuid.Must(uuid.NewV7()),
		IdempotencyKey: key,
		TargetSystem:   input.TargetSystem,
		EventType:      input.EventType,
		Payload:        string(payloadJSON),
		Headers:        string(headersJSON),
		Status:         domain.OutboxEntryStatusPending,
		MaxRetries:     maxRetries,
		TimeoutSeconds: timeoutSeconds,
	}

	if err := uc.outboxRepo.Create(ctx, entry); err != nil {
		uc.businessMetrics.RecordOperation(ctx, "outbox", "enqueue", "error")
		return "", apperrors.Wrap(err, "failed to create outbox entry")
	}

	uc.businessMetrics.RecordOperation(ctx, "outbox", "enqueue", "success")
	return key, nil
}

// RetryEntry manually re-enters a failed or dead-letter entry into pending.
func (uc *OutboxUseCase) RetryEntry(ctx context.Context, id uuid.UUID) error {
	if err := uc.outboxRepo.Retry(ctx, id); err != nil {
		return err
	}
	uc.businessMetrics.RecordRetry(ctx, "outbox", "manual")
	return nil
}

// Start starts the outbox dispatch loop
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting outbox dispatcher",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping outbox dispatcher")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.DispatchDue(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to dispatch due entries", slog.Any("error", err))
				}
			}
		}
	}
}

// DispatchDue fetches one batch of due entries and dispatches each to its
// registered handler. Handler errors never propagate: each failure is recorded
// on its entry and the loop continues with the next one.
func (uc *OutboxUseCase) DispatchDue(ctx context.Context) error {
	entries, err := uc.outboxRepo.GetDueEntries(ctx, uc.now(), uc.config.BatchSize)
	if err != nil {
		return apperrors.Wrap(err, "failed to fetch due entries")
	}

	if len(entries) == 0 {
		return nil
	}

	if uc.logger != nil {
		uc.logger.Info("dispatching entries", slog.Int("count", len(entries)))
	}

	for _, entry := range entries {
		uc.dispatchEntry(ctx, entry)
	}

	return nil
}

// dispatchEntry claims and delivers a single entry.
func (uc *OutboxUseCase) dispatchEntry(ctx context.Context, entry *domain.OutboxEntry) {
	// The conditional claim is the sole concurrency guard: another worker may
	// have taken the entry between fetch and claim.
	claimed, err := uc.outboxRepo.MarkProcessing(ctx, entry.ID, uc.now())
	if err != nil {
		if uc.logger != nil {
			uc.logger.Error("failed to claim entry",
				slog.String("entry_id", entry.ID.String()),
				slog.Any("error", err),
			)
		}
		return
	}
	if !claimed {
		return
	}

	start := time.Now()
	err = uc.invokeHandler(ctx, entry)

	status := "success"
	if err != nil {
		status = "error"
	}
	uc.businessMetrics.RecordOperation(ctx, "outbox", "dispatch", status)
	uc.businessMetrics.RecordDuration(ctx, "outbox", "dispatch", time.Since(start), status)

	if err != nil {
		if uc.logger != nil {
			uc.logger.Error("entry dispatch failed",
				slog.String("entry_id", entry.ID.String()),
				slog.String("target_system", entry.TargetSystem),
				slog.String("event_type", entry.EventType),
				slog.Any("error", err),
			)
		}

		if markErr := uc.outboxRepo.MarkFailed(ctx, entry.ID, err.Error(), uc.now()); markErr != nil {
			if uc.logger != nil {
				uc.logger.Error("failed to record entry failure",
					slog.String("entry_id", entry.ID.String()),
					slog.Any("error", markErr),
				)
			}
		}
		return
	}

	if err := uc.outboxRepo.MarkCompleted(ctx, entry.ID, uc.now()); err != nil {
		if uc.logger != nil {
			uc.logger.Error("failed to mark entry completed",
				slog.String("entry_id", entry.ID.String()),
				slog.Any("error", err),
			)
		}
	}
}

// invokeHandler runs the registered handler under the entry's timeout budget.
// A panicking handler is converted into a failure; a handler that outlives the
// timeout is abandoned and the entry treated as failed.
func (uc *OutboxUseCase) invokeHandler(ctx context.Context, entry *domain.OutboxEntry) error {
	handler, ok := uc.registry.Get(entry.TargetSystem)
	if !ok {
		return apperrors.Wrap(domain.ErrNoHandler, entry.TargetSystem)
	}

	hctx, cancel := context.WithTimeout(ctx, entry.Timeout())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		done <- handler(hctx, entry)
	}()

	select {
	case err := <-done:
		return err
	case <-hctx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w after %s", domain.ErrHandlerTimeout, entry.Timeout())
	}
}
