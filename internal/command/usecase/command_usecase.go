package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
)

// DefaultClaimLimit caps how many commands one poll may claim.
const DefaultClaimLimit = 10

// CommandUseCase implements the polling and completion flow used by external
// systems executing commands.
type CommandUseCase struct {
	txManager   database.TxManager
	commandRepo CommandRepository
	trigger     WorkflowTrigger
	claimLimit  int
	logger      *slog.Logger
	now         func() time.Time
}

// NewCommandUseCase creates a new CommandUseCase
func NewCommandUseCase(
	txManager database.TxManager,
	commandRepo CommandRepository,
	trigger WorkflowTrigger,
	claimLimit int,
	logger *slog.Logger,
) *CommandUseCase {
	if claimLimit <= 0 {
		claimLimit = DefaultClaimLimit
	}

	return &CommandUseCase{
		txManager:   txManager,
		commandRepo: commandRepo,
		trigger:     trigger,
		claimLimit:  claimLimit,
		logger:      logger,
		now:         time.Now,
	}
}

// ClaimPending atomically claims up to limit due pending commands for the
// target system and flips them to processing. The claim runs in its own
// transaction so the select and update are indivisible on every driver.
func (uc *CommandUseCase) ClaimPending(
	ctx context.Context,
	targetSystem string,
	limit int,
) ([]*domain.ExternalCommand, error) {
	if limit <= 0 || limit > uc.claimLimit {
		limit = uc.claimLimit
	}

	var claimed []*domain.ExternalCommand
	err := uc.txManager.WithTx(ctx, func(txCtx context.Context) error {
		commands, err := uc.commandRepo.ClaimPending(txCtx, targetSystem, uc.now(), limit)
		if err != nil {
			return err
		}
		claimed = commands
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to claim pending commands")
	}

	return claimed, nil
}

// Complete stores the result, marks the command completed, and fires the
// workflow trigger for follow-up chaining.
func (uc *CommandUseCase) Complete(ctx context.Context, id uuid.UUID, result string) error {
	if err := uc.commandRepo.MarkCompleted(ctx, id, result, uc.now()); err != nil {
		return err
	}

	if uc.trigger == nil {
		return nil
	}

	cmd, err := uc.commandRepo.GetByID(ctx, id)
	if err != nil {
		if uc.logger != nil {
			uc.logger.Error("failed to load completed command for fan-out",
				slog.String("command_id", id.String()),
				slog.Any("error", err),
			)
		}
		return nil
	}

	// The command's completion is already durable; fan-out is best-effort.
	if err := uc.trigger.Fire(ctx, cmd); err != nil && uc.logger != nil {
		uc.logger.Error("workflow fan-out failed",
			slog.String("command_id", id.String()),
			slog.Any("error", err),
		)
	}

	return nil
}

// Fail stores the error message and marks the command failed.
func (uc *CommandUseCase) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	return uc.commandRepo.MarkFailed(ctx, id, errMsg, uc.now())
}
