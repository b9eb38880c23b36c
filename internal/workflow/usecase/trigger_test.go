package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	commandDomain "github.com/chronoshq/chronos/internal/command/domain"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	metricsMocks "github.com/chronoshq/chronos/internal/metrics/mocks"
	"github.com/chronoshq/chronos/internal/workflow/domain"
	"github.com/chronoshq/chronos/internal/workflow/usecase/mocks"
)

// fakeTxManager executes transaction functions directly.
type fakeTxManager struct{}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTxManager) WithSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func triggerCommand() *commandDomain.ExternalCommand {
	return &commandDomain.ExternalCommand{
		ID:           uuid.Must(uuid.NewV7()),
		Command:      "DEPLOY",
		TargetSystem: "prod",
		Status:       commandDomain.CommandStatusCompleted,
	}
}

func ruleFixture(followUpCommand string) *domain.WorkflowRule {
	return &domain.WorkflowRule{
		ID:              uuid.Must(uuid.NewV7()),
		TriggerCommand:  "DEPLOY",
		TriggerSystem:   "prod",
		FollowUpCommand: followUpCommand,
		FollowUpSystem:  "monitoring",
		FollowUpParams:  `{"check":"health"}`,
		Enabled:         true,
	}
}

// TestTrigger_Fire tests workflow fan-out.
func TestTrigger_Fire(t *testing.T) {
	ctx := context.Background()

	t.Run("MatchingRule_EnqueuesFollowUpWithMergedParams", func(t *testing.T) {
		ruleRepo := &mocks.MockWorkflowRuleRepository{}
		creator := &mocks.MockCommandCreator{}
		trigger := NewTrigger(&fakeTxManager{}, ruleRepo, creator, nil, nil)

		fixedNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		trigger.now = func() time.Time { return fixedNow }

		cmd := triggerCommand()
		rule := ruleFixture("VERIFY")

		ruleRepo.On("GetEnabledByTrigger", mock.Anything, "DEPLOY", "prod").
			Return([]*domain.WorkflowRule{rule}, nil).
			Once()

		var created *commandDomain.ExternalCommand
		creator.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExternalCommand")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*commandDomain.ExternalCommand)
			}).
			Return(nil).
			Once()

		err := trigger.Fire(ctx, cmd)

		assert.NoError(t, err)
		if assert.NotNil(t, created) {
			assert.Equal(t, "VERIFY", created.Command)
			assert.Equal(t, "monitoring", created.TargetSystem)
			assert.Equal(t, commandDomain.CommandStatusPending, created.Status)
			assert.Nil(t, created.ScheduledAt)

			var params map[string]any
			assert.NoError(t, json.Unmarshal([]byte(created.Parameters), &params))
			assert.Equal(t, "health", params["check"])
			assert.Equal(t, cmd.ID.String(), params["triggered_by_command_id"])
			assert.Equal(t, "2025-06-01T12:00:00Z", params["trigger_timestamp"])
		}
		ruleRepo.AssertExpectations(t)
		creator.AssertExpectations(t)
	})

	t.Run("DelaySeconds_SetsScheduledAt", func(t *testing.T) {
		ruleRepo := &mocks.MockWorkflowRuleRepository{}
		creator := &mocks.MockCommandCreator{}
		trigger := NewTrigger(&fakeTxManager{}, ruleRepo, creator, nil, nil)

		fixedNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		trigger.now = func() time.Time { return fixedNow }

		rule := ruleFixture("VERIFY")
		rule.DelaySeconds = 300

		ruleRepo.On("GetEnabledByTrigger", mock.Anything, "DEPLOY", "prod").
			Return([]*domain.WorkflowRule{rule}, nil).
			Once()
		creator.On("Create", mock.Anything, mock.MatchedBy(func(cmd *commandDomain.ExternalCommand) bool {
			return cmd.ScheduledAt != nil && cmd.ScheduledAt.Equal(fixedNow.Add(5*time.Minute))
		})).Return(nil).Once()

		assert.NoError(t, trigger.Fire(ctx, triggerCommand()))
		creator.AssertExpectations(t)
	})

	t.Run("MultipleRules_EachYieldsOneFollowUp", func(t *testing.T) {
		ruleRepo := &mocks.MockWorkflowRuleRepository{}
		creator := &mocks.MockCommandCreator{}
		trigger := NewTrigger(&fakeTxManager{}, ruleRepo, creator, nil, nil)

		ruleRepo.On("GetEnabledByTrigger", mock.Anything, "DEPLOY", "prod").
			Return([]*domain.WorkflowRule{ruleFixture("VERIFY"), ruleFixture("NOTIFY")}, nil).
			Once()

		var commands []string
		creator.On("Create", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				commands = append(commands, args.Get(1).(*commandDomain.ExternalCommand).Command)
			}).
			Return(nil).
			Twice()

		assert.NoError(t, trigger.Fire(ctx, triggerCommand()))
		assert.Equal(t, []string{"VERIFY", "NOTIFY"}, commands)
	})

	t.Run("NoMatchingRules_NoFollowUps", func(t *testing.T) {
		ruleRepo := &mocks.MockWorkflowRuleRepository{}
		creator := &mocks.MockCommandCreator{}
		trigger := NewTrigger(&fakeTxManager{}, ruleRepo, creator, nil, nil)

		ruleRepo.On("GetEnabledByTrigger", mock.Anything, "DEPLOY", "prod").
			Return([]*domain.WorkflowRule{}, nil).
			Once()

		assert.NoError(t, trigger.Fire(ctx, triggerCommand()))
		creator.AssertNotCalled(t, "Create")
	})

	t.Run("LookupFailure_Propagates", func(t *testing.T) {
		ruleRepo := &mocks.MockWorkflowRuleRepository{}
		trigger := NewTrigger(&fakeTxManager{}, ruleRepo, &mocks.MockCommandCreator{}, nil, nil)

		ruleRepo.On("GetEnabledByTrigger", mock.Anything, "DEPLOY", "prod").
			Return(nil, apperrors.New("connection refused")).
			Once()

		err := trigger.Fire(ctx, triggerCommand())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to look up workflow rules")
	})

	t.Run("PerRuleIsolation_FailingRuleDoesNotStopOthers", func(t *testing.T) {
		ruleRepo := &mocks.MockWorkflowRuleRepository{}
		creator := &mocks.MockCommandCreator{}
		trigger := NewTrigger(&fakeTxManager{}, ruleRepo, creator, nil, nil)

		broken := ruleFixture("VERIFY")
		broken.FollowUpParams = `{invalid json`
		healthy := ruleFixture("NOTIFY")

		ruleRepo.On("GetEnabledByTrigger", mock.Anything, "DEPLOY", "prod").
			Return([]*domain.WorkflowRule{broken, healthy}, nil).
			Once()
		creator.On("Create", mock.Anything, mock.MatchedBy(func(cmd *commandDomain.ExternalCommand) bool {
			return cmd.Command == "NOTIFY"
		})).Return(nil).Once()

		assert.NoError(t, trigger.Fire(ctx, triggerCommand()))
		creator.AssertExpectations(t)
	})
}

// TestTrigger_Fire_Metrics tests that each fan-out is counted with its status.
func TestTrigger_Fire_Metrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Recorded", func(t *testing.T) {
		ruleRepo := &mocks.MockWorkflowRuleRepository{}
		creator := &mocks.MockCommandCreator{}
		trigger := NewTrigger(&fakeTxManager{}, ruleRepo, creator, nil, nil)

		recorder := &metricsMocks.MockBusinessMetrics{}
		trigger.businessMetrics = recorder

		ruleRepo.On("GetEnabledByTrigger", mock.Anything, "DEPLOY", "prod").
			Return([]*domain.WorkflowRule{ruleFixture("VERIFY")}, nil).
			Once()
		creator.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		recorder.On("RecordOperation", mock.Anything, "workflow", "fire_trigger", "success").Once()
		recorder.On("RecordDuration", mock.Anything, "workflow", "fire_trigger", mock.Anything, "success").Once()

		assert.NoError(t, trigger.Fire(ctx, triggerCommand()))
		recorder.AssertExpectations(t)
	})

	t.Run("LookupFailure_RecordedAsError", func(t *testing.T) {
		ruleRepo := &mocks.MockWorkflowRuleRepository{}
		trigger := NewTrigger(&fakeTxManager{}, ruleRepo, &mocks.MockCommandCreator{}, nil, nil)

		recorder := &metricsMocks.MockBusinessMetrics{}
		trigger.businessMetrics = recorder

		ruleRepo.On("GetEnabledByTrigger", mock.Anything, "DEPLOY", "prod").
			Return(nil, apperrors.New("connection refused")).
			Once()
		recorder.On("RecordOperation", mock.Anything, "workflow", "fire_trigger", "error").Once()
		recorder.On("RecordDuration", mock.Anything, "workflow", "fire_trigger", mock.Anything, "error").Once()

		assert.Error(t, trigger.Fire(ctx, triggerCommand()))
		recorder.AssertExpectations(t)
	})
}
