package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/app"
	"github.com/chronoshq/chronos/internal/config"
	workflowDomain "github.com/chronoshq/chronos/internal/workflow/domain"
	workflowUsecase "github.com/chronoshq/chronos/internal/workflow/usecase"
)

// CreateWorkflowRuleInput carries the CLI flags for the create-workflow-rule command.
type CreateWorkflowRuleInput struct {
	TriggerCommand  string
	TriggerSystem   string
	FollowUpCommand string
	FollowUpSystem  string
	FollowUpParams  string
	DelaySeconds    int
	Enabled         bool
	Format          string
}

// RunCreateWorkflowRule persists a new declarative workflow rule.
// Outputs the created rule in either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateWorkflowRule(ctx context.Context, input CreateWorkflowRuleInput) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	ruleRepo, err := container.WorkflowRuleRepository()
	if err != nil {
		return fmt.Errorf("failed to initialize workflow rule repository: %w", err)
	}

	return createWorkflowRule(ctx, ruleRepo, logger, input, DefaultIO())
}

// createWorkflowRule validates the input, builds the rule, and persists it.
func createWorkflowRule(
	ctx context.Context,
	ruleRepo workflowUsecase.WorkflowRuleRepository,
	logger *slog.Logger,
	input CreateWorkflowRuleInput,
	io IOTuple,
) error {
	rule, err := buildWorkflowRule(input)
	if err != nil {
		return err
	}

	if err := ruleRepo.Create(ctx, rule); err != nil {
		return fmt.Errorf("failed to create workflow rule: %w", err)
	}

	logger.Info("workflow rule created",
		slog.String("rule_id", rule.ID.String()),
		slog.String("trigger_command", rule.TriggerCommand),
		slog.String("trigger_system", rule.TriggerSystem),
		slog.String("follow_up_command", rule.FollowUpCommand),
		slog.String("follow_up_system", rule.FollowUpSystem),
	)

	// Output result based on format
	if input.Format == "json" {
		outputJSON(map[string]any{
			"rule_id":           rule.ID.String(),
			"trigger_command":   rule.TriggerCommand,
			"trigger_system":    rule.TriggerSystem,
			"follow_up_command": rule.FollowUpCommand,
			"follow_up_system":  rule.FollowUpSystem,
			"follow_up_params":  rule.FollowUpParams,
			"delay_seconds":     rule.DelaySeconds,
			"enabled":           rule.Enabled,
		}, io.Writer)
	} else {
		outputWorkflowRuleText(rule, io)
	}

	return nil
}

// buildWorkflowRule validates the CLI input and converts it into a domain rule.
func buildWorkflowRule(input CreateWorkflowRuleInput) (*workflowDomain.WorkflowRule, error) {
	triggerCommand := strings.TrimSpace(input.TriggerCommand)
	triggerSystem := strings.TrimSpace(input.TriggerSystem)
	followUpCommand := strings.TrimSpace(input.FollowUpCommand)
	followUpSystem := strings.TrimSpace(input.FollowUpSystem)

	if triggerCommand == "" || triggerSystem == "" {
		return nil, fmt.Errorf("trigger command and trigger system are required")
	}
	if followUpCommand == "" || followUpSystem == "" {
		return nil, fmt.Errorf("follow-up command and follow-up system are required")
	}
	if input.DelaySeconds < 0 {
		return nil, fmt.Errorf("delay must not be negative")
	}

	if input.FollowUpParams != "" {
		var params map[string]any
		if err := json.Unmarshal([]byte(input.FollowUpParams), &params); err != nil {
			return nil, fmt.Errorf("failed to parse params JSON: %w", err)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate rule id: %w", err)
	}

	return &workflowDomain.WorkflowRule{
		ID:              id,
		TriggerCommand:  triggerCommand,
		TriggerSystem:   triggerSystem,
		FollowUpCommand: followUpCommand,
		FollowUpSystem:  followUpSystem,
		FollowUpParams:  input.FollowUpParams,
		DelaySeconds:    input.DelaySeconds,
		Enabled:         input.Enabled,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// outputWorkflowRuleText outputs the created rule in human-readable text format.
func outputWorkflowRuleText(rule *workflowDomain.WorkflowRule, io IOTuple) {
	_, _ = fmt.Fprintln(io.Writer, "\nWorkflow rule created successfully!")
	_, _ = fmt.Fprintf(io.Writer, "Rule ID: %s\n", rule.ID.String())
	_, _ = fmt.Fprintf(io.Writer, "Trigger: %s on %s\n", rule.TriggerCommand, rule.TriggerSystem)
	_, _ = fmt.Fprintf(io.Writer, "Follow-up: %s on %s\n", rule.FollowUpCommand, rule.FollowUpSystem)
	if rule.DelaySeconds > 0 {
		_, _ = fmt.Fprintf(io.Writer, "Delay: %ds\n", rule.DelaySeconds)
	}
	if !rule.Enabled {
		_, _ = fmt.Fprintln(io.Writer, "Rule is disabled and will not fire until enabled.")
	}
}
