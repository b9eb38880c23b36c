package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/metrics"
	"github.com/chronoshq/chronos/internal/transaction/domain"
)

// RecoveryConfig holds sync recovery loop configuration
type RecoveryConfig struct {
	Interval   time.Duration
	Grace      time.Duration
	BatchSize  int
	MaxRetries int
}

// SyncRecoveryService periodically replays pending sync records left behind by
// failed paired operations.
type SyncRecoveryService struct {
	config          RecoveryConfig
	txManager       database.TxManager
	syncRepo        PendingSyncRepository
	replayers       *ReplayerRegistry
	logger          *slog.Logger
	businessMetrics metrics.BusinessMetrics
	now             func() time.Time
}

// NewSyncRecoveryService creates a new SyncRecoveryService. A nil
// businessMetrics falls back to the no-op recorder.
func NewSyncRecoveryService(
	config RecoveryConfig,
	txManager database.TxManager,
	syncRepo PendingSyncRepository,
	replayers *ReplayerRegistry,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *SyncRecoveryService {
	if config.MaxRetries <= 0 {
		config.MaxRetries = domain.DefaultMaxRetries
	}
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}

	return &SyncRecoveryService{
		config:          config,
		txManager:       txManager,
		syncRepo:        syncRepo,
		replayers:       replayers,
		logger:          logger,
		businessMetrics: businessMetrics,
		now:             time.Now,
	}
}

// Start starts the sync recovery loop
func (s *SyncRecoveryService) Start(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("starting sync recovery",
			slog.Duration("interval", s.config.Interval),
			slog.Duration("grace", s.config.Grace),
			slog.Int("batch_size", s.config.BatchSize),
		)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.Info("stopping sync recovery")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := s.RecoverStale(ctx); err != nil {
				if s.logger != nil {
					s.logger.Error("failed to recover stale syncs", slog.Any("error", err))
				}
			}
		}
	}
}

// RecoverStale fetches one batch of stale pending records and replays each.
// The grace window excludes records a live transaction may still be writing.
// Per-record failures are recorded on the record and never stop the batch.
func (s *SyncRecoveryService) RecoverStale(ctx context.Context) error {
	cutoff := s.now().Add(-s.config.Grace)

	records, err := s.syncRepo.GetStalePending(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		return apperrors.Wrap(err, "failed to fetch stale pending syncs")
	}

	if len(records) == 0 {
		return nil
	}

	if s.logger != nil {
		s.logger.Info("replaying pending syncs", slog.Int("count", len(records)))
	}

	for _, ps := range records {
		s.recoverOne(ctx, ps)
	}

	return nil
}

// recoverOne replays a single pending sync. Both halves run inside one
// transaction together with the completion mark, so an attempt either lands
// entirely or leaves the record pending with its failure recorded. A record
// whose entity type has no registered replayer is left pending without
// spending a retry: the gap is a deployment problem, not a record problem.
func (s *SyncRecoveryService) recoverOne(ctx context.Context, ps *domain.PendingSync) {
	start := s.now()
	err := s.replay(ctx, ps)

	status := "success"
	if err != nil {
		status = "error"
	}
	s.businessMetrics.RecordOperation(ctx, "sync", "replay", status)
	s.businessMetrics.RecordDuration(ctx, "sync", "replay", time.Since(start), status)

	if err == nil {
		if s.logger != nil {
			s.logger.Info("pending sync replayed",
				slog.String("transaction_id", ps.TransactionID),
				slog.String("entity_type", ps.EntityType),
				slog.String("entity_id", ps.EntityID),
			)
		}
		return
	}

	if apperrors.Is(err, domain.ErrNoReplayer) {
		if s.logger != nil {
			s.logger.Warn("no replayer registered, leaving record pending",
				slog.String("transaction_id", ps.TransactionID),
				slog.String("entity_type", ps.EntityType),
			)
		}
		return
	}

	s.businessMetrics.RecordRetry(ctx, "sync", ps.EntityType)

	if s.logger != nil {
		s.logger.Error("pending sync replay failed",
			slog.String("transaction_id", ps.TransactionID),
			slog.String("entity_type", ps.EntityType),
			slog.Int("retry_count", ps.RetryCount+1),
			slog.Any("error", err),
		)
	}

	if recErr := s.syncRepo.RecordAttemptFailure(ctx, ps.ID, err.Error(), s.now(), s.config.MaxRetries); recErr != nil {
		if s.logger != nil {
			s.logger.Error("failed to record replay failure",
				slog.String("transaction_id", ps.TransactionID),
				slog.Any("error", recErr),
			)
		}
	}
}

// replay runs one replay attempt in a single transaction.
func (s *SyncRecoveryService) replay(ctx context.Context, ps *domain.PendingSync) error {
	replayer, err := s.replayers.Get(ps.EntityType)
	if err != nil {
		return err
	}

	return s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := replayer.ReplayLocal(txCtx, ps); err != nil {
			return fmt.Errorf("local replay: %w", err)
		}
		if err := replayer.ReplayExternal(txCtx, ps); err != nil {
			return fmt.Errorf("external replay: %w", err)
		}
		return s.syncRepo.MarkCompleted(txCtx, ps.ID, s.now())
	})
}
