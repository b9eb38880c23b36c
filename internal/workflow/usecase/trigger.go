// Package usecase implements the workflow trigger that fans a command out to
// its declarative follow-up rules.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	commandDomain "github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/metrics"
	"github.com/chronoshq/chronos/internal/workflow/domain"
)

// WorkflowRuleRepository defines workflow rule repository operations
type WorkflowRuleRepository interface {
	Create(ctx context.Context, rule *domain.WorkflowRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowRule, error)
	GetEnabledByTrigger(ctx context.Context, triggerCommand, triggerSystem string) ([]*domain.WorkflowRule, error)
	List(ctx context.Context, limit, offset int) ([]*domain.WorkflowRule, error)
}

// CommandCreator persists follow-up commands. Satisfied by the command
// feature's repositories.
type CommandCreator interface {
	Create(ctx context.Context, cmd *commandDomain.ExternalCommand) error
}

// Trigger fans a triggering command out to the enabled rules matching its
// command and target system. Each matching rule yields exactly one follow-up
// ExternalCommand; no de-duplication is performed across rules. Fan-out is
// best-effort per rule: a failing rule is logged and the rest still fire.
type Trigger struct {
	txManager       database.TxManager
	ruleRepo        WorkflowRuleRepository
	commandCreator  CommandCreator
	logger          *slog.Logger
	businessMetrics metrics.BusinessMetrics
	now             func() time.Time
}

// NewTrigger creates a new Trigger. A nil businessMetrics falls back to the
// no-op recorder.
func NewTrigger(
	txManager database.TxManager,
	ruleRepo WorkflowRuleRepository,
	commandCreator CommandCreator,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *Trigger {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &Trigger{
		txManager:       txManager,
		ruleRepo:        ruleRepo,
		commandCreator:  commandCreator,
		logger:          logger,
		businessMetrics: businessMetrics,
		now:             time.Now,
	}
}

// Fire looks up the matching rules and persists one pending follow-up command
// per rule. The returned error covers only the rule lookup; per-rule creation
// failures are logged and never propagate, since the triggering command's own
// persistence must not be affected by fan-out problems.
func (t *Trigger) Fire(ctx context.Context, cmd *commandDomain.ExternalCommand) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		t.businessMetrics.RecordOperation(ctx, "workflow", "fire_trigger", status)
		t.businessMetrics.RecordDuration(ctx, "workflow", "fire_trigger", time.Since(start), status)
	}()

	rules, err := t.ruleRepo.GetEnabledByTrigger(ctx, cmd.Command, cmd.TargetSystem)
	if err != nil {
		return apperrors.Wrap(err, "failed to look up workflow rules")
	}

	if len(rules) == 0 {
		return nil
	}

	now := t.now()
	for _, rule := range rules {
		followUp, err := t.buildFollowUp(rule, cmd, now)
		if err != nil {
			t.logRuleFailure(rule, cmd, err)
			continue
		}

		err = t.txManager.WithTx(ctx, func(txCtx context.Context) error {
			return t.commandCreator.Create(txCtx, followUp)
		})
		if err != nil {
			t.logRuleFailure(rule, cmd, err)
			continue
		}

		if t.logger != nil {
			t.logger.Info("workflow follow-up enqueued",
				slog.String("rule_id", rule.ID.String()),
				slog.String("trigger_command_id", cmd.ID.String()),
				slog.String("follow_up_command", rule.FollowUpCommand),
				slog.String("follow_up_system", rule.FollowUpSystem),
			)
		}
	}

	return nil
}

// buildFollowUp merges the rule's parameter template with the trigger context
// and builds the pending follow-up command.
func (t *Trigger) buildFollowUp(
	rule *domain.WorkflowRule,
	cmd *commandDomain.ExternalCommand,
	now time.Time,
) (*commandDomain.ExternalCommand, error) {
	params := map[string]any{}
	if rule.FollowUpParams != "" {
		if err := json.Unmarshal([]byte(rule.FollowUpParams), &params); err != nil {
			return nil, apperrors.Wrap(err, "invalid follow-up params template")
		}
	}
	params["triggered_by_command_id"] = cmd.ID.String()
	params["trigger_timestamp"] = now.UTC().Format(time.RFC3339)

	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	followUp := &commandDomain.ExternalCommand{
		ID:           uuid.Must(uuid.NewV7()),
		Command:      rule.FollowUpCommand,
		TargetSystem: rule.FollowUpSystem,
		Parameters:   string(encoded),
		Status:       commandDomain.CommandStatusPending,
	}
	if rule.DelaySeconds > 0 {
		scheduledAt := now.Add(time.Duration(rule.DelaySeconds) * time.Second)
		followUp.ScheduledAt = &scheduledAt
	}

	return followUp, nil
}

func (t *Trigger) logRuleFailure(rule *domain.WorkflowRule, cmd *commandDomain.ExternalCommand, err error) {
	if t.logger != nil {
		t.logger.Error("workflow rule fan-out failed",
			slog.String("rule_id", rule.ID.String()),
			slog.String("trigger_command_id", cmd.ID.String()),
			slog.Any("error", err),
		)
	}
}
