package app

import (
	"fmt"

	transactionRepository "github.com/chronoshq/chronos/internal/transaction/repository"
	transactionUsecase "github.com/chronoshq/chronos/internal/transaction/usecase"
)

// PendingSyncRepository returns the pending sync repository instance.
func (c *Container) PendingSyncRepository() (transactionUsecase.PendingSyncRepository, error) {
	var err error
	c.pendingSyncRepoInit.Do(func() {
		c.pendingSyncRepo, err = c.initPendingSyncRepository()
		if err != nil {
			c.initErrors["pendingSyncRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pendingSyncRepo"]; exists {
		return nil, storedErr
	}
	return c.pendingSyncRepo, nil
}

// ReplayerRegistry returns the replayer registry instance. Entity replayers
// are registered in initSyncRecoveryService before the recovery loop starts.
func (c *Container) ReplayerRegistry() *transactionUsecase.ReplayerRegistry {
	c.replayerRegistryInit.Do(func() {
		c.replayerRegistry = transactionUsecase.NewReplayerRegistry()
	})
	return c.replayerRegistry
}

// PairedTransactionManager returns the paired transaction manager instance.
func (c *Container) PairedTransactionManager() (*transactionUsecase.PairedTransactionManager, error) {
	var err error
	c.pairedTxManagerInit.Do(func() {
		c.pairedTxManager, err = c.initPairedTransactionManager()
		if err != nil {
			c.initErrors["pairedTxManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pairedTxManager"]; exists {
		return nil, storedErr
	}
	return c.pairedTxManager, nil
}

// SyncRecoveryService returns the sync recovery service instance.
func (c *Container) SyncRecoveryService() (*transactionUsecase.SyncRecoveryService, error) {
	var err error
	c.syncRecoveryInit.Do(func() {
		c.syncRecovery, err = c.initSyncRecoveryService()
		if err != nil {
			c.initErrors["syncRecovery"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["syncRecovery"]; exists {
		return nil, storedErr
	}
	return c.syncRecovery, nil
}

// initPendingSyncRepository creates the pending sync repository instance.
func (c *Container) initPendingSyncRepository() (transactionUsecase.PendingSyncRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for pending sync repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return transactionRepository.NewMySQLPendingSyncRepository(db), nil
	case "postgres":
		return transactionRepository.NewPostgreSQLPendingSyncRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPairedTransactionManager creates the paired transaction manager with its dependencies.
func (c *Container) initPairedTransactionManager() (*transactionUsecase.PairedTransactionManager, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for paired transaction manager: %w", err)
	}

	syncRepo, err := c.PendingSyncRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sync repository for paired transaction manager: %w", err)
	}

	return transactionUsecase.NewPairedTransactionManager(txManager, syncRepo, c.Logger()), nil
}

// initSyncRecoveryService creates the sync recovery service with its dependencies.
func (c *Container) initSyncRecoveryService() (*transactionUsecase.SyncRecoveryService, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for sync recovery: %w", err)
	}

	syncRepo, err := c.PendingSyncRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sync repository for sync recovery: %w", err)
	}

	registry, err := c.initReplayers()
	if err != nil {
		return nil, fmt.Errorf("failed to register replayers for sync recovery: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for sync recovery: %w", err)
	}

	recoveryConfig := transactionUsecase.RecoveryConfig{
		Interval:   c.config.SyncRecoveryInterval,
		Grace:      c.config.SyncRecoveryGrace,
		BatchSize:  c.config.SyncRecoveryBatchSize,
		MaxRetries: c.config.SyncRecoveryMaxRetries,
	}

	return transactionUsecase.NewSyncRecoveryService(
		recoveryConfig,
		txManager,
		syncRepo,
		registry,
		c.Logger(),
		businessMetrics,
	), nil
}

// initReplayers registers the entity replayers on the shared registry.
func (c *Container) initReplayers() (*transactionUsecase.ReplayerRegistry, error) {
	noteRepo, err := c.NoteRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get note repository: %w", err)
	}

	noteStore, ok := noteRepo.(transactionUsecase.NoteStore)
	if !ok {
		return nil, fmt.Errorf("note repository %T does not support replay lookups", noteRepo)
	}

	outboxUseCase, err := c.OutboxUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox use case: %w", err)
	}

	registry := c.ReplayerRegistry()
	registry.Register(
		transactionUsecase.EntityTypeNote,
		transactionUsecase.NewNoteReplayer(noteStore, outboxUseCase, c.Logger()),
	)
	return registry, nil
}
