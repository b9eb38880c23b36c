package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/app"
	"github.com/chronoshq/chronos/internal/config"
	outboxUsecase "github.com/chronoshq/chronos/internal/outbox/usecase"
)

// RunRetryOutbox re-enqueues a failed or dead-letter outbox entry so the
// dispatcher picks it up again on its next cycle.
//
// Requirements: Database must be migrated and accessible.
func RunRetryOutbox(ctx context.Context, idStr string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	useCase, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox use case: %w", err)
	}

	return retryOutboxEntry(ctx, useCase, logger, idStr, DefaultIO())
}

// retryOutboxEntry parses the entry ID and resets the entry for redelivery.
func retryOutboxEntry(
	ctx context.Context,
	useCase outboxUsecase.UseCase,
	logger *slog.Logger,
	idStr string,
	io IOTuple,
) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid outbox entry id %q: %w", idStr, err)
	}

	if err := useCase.RetryEntry(ctx, id); err != nil {
		return fmt.Errorf("failed to retry outbox entry: %w", err)
	}

	logger.Info("outbox entry queued for retry", slog.String("entry_id", id.String()))
	_, _ = fmt.Fprintf(io.Writer, "Outbox entry %s queued for retry.\n", id.String())

	return nil
}
