package app

import (
	"fmt"

	workflowHTTP "github.com/chronoshq/chronos/internal/workflow/http"
	workflowRepository "github.com/chronoshq/chronos/internal/workflow/repository"
	workflowUsecase "github.com/chronoshq/chronos/internal/workflow/usecase"
)

// WorkflowRuleRepository returns the workflow rule repository instance.
func (c *Container) WorkflowRuleRepository() (workflowUsecase.WorkflowRuleRepository, error) {
	var err error
	c.workflowRuleRepoInit.Do(func() {
		c.workflowRuleRepo, err = c.initWorkflowRuleRepository()
		if err != nil {
			c.initErrors["workflowRuleRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["workflowRuleRepo"]; exists {
		return nil, storedErr
	}
	return c.workflowRuleRepo, nil
}

// WorkflowTrigger returns the workflow trigger instance.
func (c *Container) WorkflowTrigger() (*workflowUsecase.Trigger, error) {
	var err error
	c.workflowTriggerInit.Do(func() {
		c.workflowTrigger, err = c.initWorkflowTrigger()
		if err != nil {
			c.initErrors["workflowTrigger"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["workflowTrigger"]; exists {
		return nil, storedErr
	}
	return c.workflowTrigger, nil
}

// WorkflowHandler returns the workflow HTTP handler instance.
func (c *Container) WorkflowHandler() (*workflowHTTP.WorkflowHandler, error) {
	var err error
	c.workflowHandlerInit.Do(func() {
		var ruleRepo workflowUsecase.WorkflowRuleRepository
		ruleRepo, err = c.WorkflowRuleRepository()
		if err != nil {
			c.initErrors["workflowHandler"] = err
			return
		}
		c.workflowHandler = workflowHTTP.NewWorkflowHandler(ruleRepo, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["workflowHandler"]; exists {
		return nil, storedErr
	}
	return c.workflowHandler, nil
}

// initWorkflowRuleRepository creates the workflow rule repository instance.
func (c *Container) initWorkflowRuleRepository() (workflowUsecase.WorkflowRuleRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for workflow rule repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return workflowRepository.NewMySQLWorkflowRuleRepository(db), nil
	case "postgres":
		return workflowRepository.NewPostgreSQLWorkflowRuleRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initWorkflowTrigger creates the workflow trigger with its dependencies.
func (c *Container) initWorkflowTrigger() (*workflowUsecase.Trigger, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for workflow trigger: %w", err)
	}

	ruleRepo, err := c.WorkflowRuleRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow rule repository for workflow trigger: %w", err)
	}

	commandRepo, err := c.CommandRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get command repository for workflow trigger: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for workflow trigger: %w", err)
	}

	return workflowUsecase.NewTrigger(txManager, ruleRepo, commandRepo, c.Logger(), businessMetrics), nil
}
