package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/chronoshq/chronos/internal/app"
	"github.com/chronoshq/chronos/internal/config"
)

// RunWorker starts the background processing loops: the outbox dispatcher and
// the sync recovery service. Blocks until receiving SIGINT/SIGTERM or until
// one of the loops fails. Context cancellation from a shutdown signal is a
// clean exit, not an error.
func RunWorker(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting worker")

	defer closeContainer(container, logger)

	outboxUseCase, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox use case: %w", err)
	}

	syncRecovery, err := container.SyncRecoveryService()
	if err != nil {
		return fmt.Errorf("failed to initialize sync recovery service: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return outboxUseCase.Start(groupCtx)
	})
	group.Go(func() error {
		return syncRecovery.Start(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker error: %w", err)
	}

	logger.Info("worker stopped")
	return nil
}
