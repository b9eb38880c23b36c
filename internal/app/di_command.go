package app

import (
	"fmt"

	commandHTTP "github.com/chronoshq/chronos/internal/command/http"
	commandRepository "github.com/chronoshq/chronos/internal/command/repository"
	commandUsecase "github.com/chronoshq/chronos/internal/command/usecase"
)

// CommandRepository returns the external command repository instance.
func (c *Container) CommandRepository() (commandUsecase.CommandRepository, error) {
	var err error
	c.commandRepoInit.Do(func() {
		c.commandRepo, err = c.initCommandRepository()
		if err != nil {
			c.initErrors["commandRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["commandRepo"]; exists {
		return nil, storedErr
	}
	return c.commandRepo, nil
}

// NoteRepository returns the note repository instance.
func (c *Container) NoteRepository() (commandUsecase.NoteRepository, error) {
	var err error
	c.noteRepoInit.Do(func() {
		c.noteRepo, err = c.initNoteRepository()
		if err != nil {
			c.initErrors["noteRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["noteRepo"]; exists {
		return nil, storedErr
	}
	return c.noteRepo, nil
}

// URLPayloadRepository returns the url payload repository instance.
func (c *Container) URLPayloadRepository() (commandUsecase.URLPayloadRepository, error) {
	var err error
	c.urlPayloadRepoInit.Do(func() {
		c.urlPayloadRepo, err = c.initURLPayloadRepository()
		if err != nil {
			c.initErrors["urlPayloadRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["urlPayloadRepo"]; exists {
		return nil, storedErr
	}
	return c.urlPayloadRepo, nil
}

// Whitelist returns the command whitelist built from configuration.
func (c *Container) Whitelist() *commandUsecase.Whitelist {
	c.whitelistInit.Do(func() {
		c.whitelist = commandUsecase.NewWhitelist(c.config.WhitelistedCommands())
	})
	return c.whitelist
}

// UndefinedGuard returns the undefined guard instance.
func (c *Container) UndefinedGuard() *commandUsecase.UndefinedGuard {
	c.undefinedGuardInit.Do(func() {
		c.undefinedGuard = commandUsecase.NewUndefinedGuard(c.config.LocalCalendarID, c.Logger())
	})
	return c.undefinedGuard
}

// CommandPipeline returns the command pipeline instance.
func (c *Container) CommandPipeline() (*commandUsecase.CommandPipeline, error) {
	var err error
	c.commandPipelineInit.Do(func() {
		c.commandPipeline, err = c.initCommandPipeline()
		if err != nil {
			c.initErrors["commandPipeline"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["commandPipeline"]; exists {
		return nil, storedErr
	}
	return c.commandPipeline, nil
}

// CommandUseCase returns the command use case instance.
func (c *Container) CommandUseCase() (*commandUsecase.CommandUseCase, error) {
	var err error
	c.commandUseCaseInit.Do(func() {
		c.commandUseCase, err = c.initCommandUseCase()
		if err != nil {
			c.initErrors["commandUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["commandUseCase"]; exists {
		return nil, storedErr
	}
	return c.commandUseCase, nil
}

// CommandHandler returns the command HTTP handler instance.
func (c *Container) CommandHandler() (*commandHTTP.CommandHandler, error) {
	var err error
	c.commandHandlerInit.Do(func() {
		c.commandHandler, err = c.initCommandHandler()
		if err != nil {
			c.initErrors["commandHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["commandHandler"]; exists {
		return nil, storedErr
	}
	return c.commandHandler, nil
}

// initCommandRepository creates the external command repository instance.
func (c *Container) initCommandRepository() (commandUsecase.CommandRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for command repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return commandRepository.NewMySQLCommandRepository(db), nil
	case "postgres":
		return commandRepository.NewPostgreSQLCommandRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initNoteRepository creates the note repository instance.
func (c *Container) initNoteRepository() (commandUsecase.NoteRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for note repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return commandRepository.NewMySQLNoteRepository(db), nil
	case "postgres":
		return commandRepository.NewPostgreSQLNoteRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initURLPayloadRepository creates the url payload repository instance.
func (c *Container) initURLPayloadRepository() (commandUsecase.URLPayloadRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for url payload repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return commandRepository.NewMySQLURLPayloadRepository(db), nil
	case "postgres":
		return commandRepository.NewPostgreSQLURLPayloadRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCommandPipeline creates the command pipeline with all its dependencies.
func (c *Container) initCommandPipeline() (*commandUsecase.CommandPipeline, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for command pipeline: %w", err)
	}

	commandRepo, err := c.CommandRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get command repository for command pipeline: %w", err)
	}

	noteRepo, err := c.NoteRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get note repository for command pipeline: %w", err)
	}

	urlRepo, err := c.URLPayloadRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get url payload repository for command pipeline: %w", err)
	}

	trigger, err := c.WorkflowTrigger()
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow trigger for command pipeline: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for command pipeline: %w", err)
	}

	return commandUsecase.NewCommandPipeline(
		txManager,
		commandRepo,
		noteRepo,
		urlRepo,
		c.Whitelist(),
		c.UndefinedGuard(),
		trigger,
		c.Logger(),
		businessMetrics,
	), nil
}

// initCommandUseCase creates the command use case with all its dependencies.
func (c *Container) initCommandUseCase() (*commandUsecase.CommandUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for command use case: %w", err)
	}

	commandRepo, err := c.CommandRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get command repository for command use case: %w", err)
	}

	trigger, err := c.WorkflowTrigger()
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow trigger for command use case: %w", err)
	}

	return commandUsecase.NewCommandUseCase(
		txManager,
		commandRepo,
		trigger,
		c.config.CommandClaimLimit,
		c.Logger(),
	), nil
}

// initCommandHandler creates the command HTTP handler with its dependencies.
func (c *Container) initCommandHandler() (*commandHTTP.CommandHandler, error) {
	useCase, err := c.CommandUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get command use case for command handler: %w", err)
	}

	pipeline, err := c.CommandPipeline()
	if err != nil {
		return nil, fmt.Errorf("failed to get command pipeline for command handler: %w", err)
	}

	return commandHTTP.NewCommandHandler(useCase, pipeline, c.Logger()), nil
}
