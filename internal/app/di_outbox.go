package app

import (
	"fmt"

	"github.com/chronoshq/chronos/internal/integrations"
	outboxHTTP "github.com/chronoshq/chronos/internal/outbox/http"
	outboxRepository "github.com/chronoshq/chronos/internal/outbox/repository"
	outboxUsecase "github.com/chronoshq/chronos/internal/outbox/usecase"
)

// OutboxRepository returns the outbox entry repository instance.
func (c *Container) OutboxRepository() (outboxUsecase.OutboxRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// OutboxRegistry returns the outbox handler registry with the configured
// webhook integrations registered.
func (c *Container) OutboxRegistry() (*outboxUsecase.Registry, error) {
	c.outboxRegistryInit.Do(func() {
		registry := outboxUsecase.NewRegistry()

		delivery := integrations.NewWebhookDelivery(integrations.WebhookConfig{
			N8NURL:      c.config.N8NWebhookURL,
			TelegramURL: c.config.TelegramWebhookURL,
			AuthToken:   c.config.WebhookAuthToken,
		}, c.Logger())
		delivery.Register(registry)

		c.outboxRegistry = registry
	})
	return c.outboxRegistry, nil
}

// OutboxUseCase returns the outbox use case instance.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// OutboxHandler returns the outbox HTTP handler instance.
func (c *Container) OutboxHandler() (*outboxHTTP.OutboxHandler, error) {
	var err error
	c.outboxHandlerInit.Do(func() {
		var useCase outboxUsecase.UseCase
		useCase, err = c.OutboxUseCase()
		if err != nil {
			c.initErrors["outboxHandler"] = err
			return
		}
		c.outboxHandler = outboxHTTP.NewOutboxHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxHandler"]; exists {
		return nil, storedErr
	}
	return c.outboxHandler, nil
}

// initOutboxRepository creates the outbox entry repository instance.
func (c *Container) initOutboxRepository() (outboxUsecase.OutboxRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLOutboxRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOutboxUseCase creates the outbox use case with all its dependencies.
func (c *Container) initOutboxUseCase() (outboxUsecase.UseCase, error) {
	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	registry, err := c.OutboxRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox registry for outbox use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for outbox use case: %w", err)
	}

	useCaseConfig := outboxUsecase.Config{
		Interval:          c.config.OutboxDispatchInterval,
		BatchSize:         c.config.OutboxBatchSize,
		DefaultMaxRetries: c.config.OutboxMaxRetries,
		DefaultTimeout:    c.config.OutboxHandlerTimeout,
	}

	return outboxUsecase.NewOutboxUseCase(useCaseConfig, outboxRepo, registry, c.Logger(), businessMetrics), nil
}
