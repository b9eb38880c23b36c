package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	calendarDomain "github.com/chronoshq/chronos/internal/calendar/domain"
	"github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/command/usecase/mocks"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	metricsMocks "github.com/chronoshq/chronos/internal/metrics/mocks"
)

// fakeTxManager executes transaction functions directly.
type fakeTxManager struct{}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTxManager) WithSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type pipelineFixture struct {
	pipeline    *CommandPipeline
	commandRepo *mocks.MockCommandRepository
	noteRepo    *mocks.MockNoteRepository
	urlRepo     *mocks.MockURLPayloadRepository
	trigger     *mocks.MockWorkflowTrigger
}

func newPipelineFixture(whitelisted ...string) *pipelineFixture {
	f := &pipelineFixture{
		commandRepo: &mocks.MockCommandRepository{},
		noteRepo:    &mocks.MockNoteRepository{},
		urlRepo:     &mocks.MockURLPayloadRepository{},
		trigger:     &mocks.MockWorkflowTrigger{},
	}
	f.pipeline = NewCommandPipeline(
		&fakeTxManager{},
		f.commandRepo,
		f.noteRepo,
		f.urlRepo,
		NewWhitelist(whitelisted),
		NewUndefinedGuard("local-cal", nil),
		f.trigger,
		nil,
		nil,
	)
	return f
}

func eventWithTitle(title string) *calendarDomain.Event {
	return &calendarDomain.Event{
		ID:         "evt-1",
		CalendarID: "local-cal",
		Title:      title,
		Attendees:  []string{"alice@example.com"},
		Tags:       []string{"work"},
		StartTime:  time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Origin:     calendarDomain.OriginUser,
		CreatedBy:  "alice",
	}
}

// TestCommandPipeline_ProcessEvent_Action tests the ACTION: flow including the
// whitelist gate.
func TestCommandPipeline_ProcessEvent_Action(t *testing.T) {
	ctx := context.Background()

	t.Run("WhitelistedCommand_CreatesCommandAndConsumes", func(t *testing.T) {
		f := newPipelineFixture("DEPLOY")
		event := eventWithTitle("ACTION: DEPLOY prod restart")

		var created *domain.ExternalCommand
		f.commandRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExternalCommand")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*domain.ExternalCommand)
			}).
			Return(nil).
			Once()
		f.trigger.On("Fire", mock.Anything, mock.Anything).Return(nil).Once()

		outcome := f.pipeline.ProcessEvent(ctx, event)

		assert.Equal(t, domain.OutcomeConsumed, outcome.Kind)
		if assert.NotNil(t, created) {
			assert.Equal(t, "DEPLOY", created.Command)
			assert.Equal(t, "prod", created.TargetSystem)
			assert.Equal(t, domain.CommandStatusPending, created.Status)

			var params map[string]any
			assert.NoError(t, json.Unmarshal([]byte(created.Parameters), &params))
			assert.Equal(t, []any{"restart"}, params["args"])
			assert.Equal(t, "evt-1", params["source_event_id"])
			assert.Equal(t, "local-cal", params["calendar_id"])
		}
		f.commandRepo.AssertExpectations(t)
		f.trigger.AssertExpectations(t)
	})

	t.Run("LowercaseCommandIsUppercased", func(t *testing.T) {
		f := newPipelineFixture("DEPLOY")
		event := eventWithTitle("ACTION: deploy prod")

		f.commandRepo.On("Create", mock.Anything, mock.MatchedBy(func(cmd *domain.ExternalCommand) bool {
			return cmd.Command == "DEPLOY"
		})).Return(nil).Once()
		f.trigger.On("Fire", mock.Anything, mock.Anything).Return(nil).Once()

		outcome := f.pipeline.ProcessEvent(ctx, event)

		assert.Equal(t, domain.OutcomeConsumed, outcome.Kind)
		f.commandRepo.AssertExpectations(t)
	})

	t.Run("NotWhitelisted_PreservesEventUntouched", func(t *testing.T) {
		f := newPipelineFixture("DEPLOY")
		event := eventWithTitle("ACTION: DESTROY prod")

		outcome := f.pipeline.ProcessEvent(ctx, event)

		assert.Equal(t, domain.OutcomePreserved, outcome.Kind)
		assert.Equal(t, "command not whitelisted", outcome.Reason)
		assert.Equal(t, "ACTION: DESTROY prod", outcome.Event.Title)
		f.commandRepo.AssertNotCalled(t, "Create")
		f.trigger.AssertNotCalled(t, "Fire")
	})

	t.Run("MalformedAction_Preserved", func(t *testing.T) {
		tests := []string{"ACTION:", "ACTION: DEPLOY", "ACTION:  "}
		for _, title := range tests {
			f := newPipelineFixture("DEPLOY")
			outcome := f.pipeline.ProcessEvent(ctx, eventWithTitle(title))

			assert.Equal(t, domain.OutcomePreserved, outcome.Kind, "title %q", title)
			f.commandRepo.AssertNotCalled(t, "Create")
		}
	})

	t.Run("CreateFailure_PreservesEvent", func(t *testing.T) {
		f := newPipelineFixture("DEPLOY")
		event := eventWithTitle("ACTION: DEPLOY prod")

		f.commandRepo.On("Create", mock.Anything, mock.Anything).
			Return(apperrors.New("constraint violation")).
			Once()

		outcome := f.pipeline.ProcessEvent(ctx, event)

		assert.Equal(t, domain.OutcomePreserved, outcome.Kind)
		f.trigger.AssertNotCalled(t, "Fire")
	})

	t.Run("TriggerFailure_DoesNotAffectOutcome", func(t *testing.T) {
		f := newPipelineFixture("DEPLOY")
		event := eventWithTitle("ACTION: DEPLOY prod")

		f.commandRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		f.trigger.On("Fire", mock.Anything, mock.Anything).
			Return(apperrors.New("rule lookup failed")).
			Once()

		outcome := f.pipeline.ProcessEvent(ctx, event)

		assert.Equal(t, domain.OutcomeConsumed, outcome.Kind)
		f.trigger.AssertExpectations(t)
	})
}

// TestCommandPipeline_ProcessEvent_Note tests the NOTIZ: flow.
func TestCommandPipeline_ProcessEvent_Note(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newPipelineFixture()
		event := eventWithTitle("NOTIZ: call the vendor back")
		event.Location = "office"

		var created *domain.Note
		f.noteRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Note")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*domain.Note)
			}).
			Return(nil).
			Once()

		outcome := f.pipeline.ProcessEvent(ctx, event)

		assert.Equal(t, domain.OutcomeConsumed, outcome.Kind)
		if assert.NotNil(t, created) {
			assert.Equal(t, "call the vendor back", created.Content)
			assert.Equal(t, "office", created.Location)
			assert.JSONEq(t, `["alice@example.com"]`, created.Attendees)
			assert.JSONEq(t, `["work"]`, created.Tags)
			assert.Equal(t, "evt-1", created.SourceEventID)
			assert.Equal(t, event.StartTime, *created.EventTime)
		}
		f.noteRepo.AssertExpectations(t)
	})

	t.Run("EmptyText_Preserved", func(t *testing.T) {
		f := newPipelineFixture()
		outcome := f.pipeline.ProcessEvent(ctx, eventWithTitle("NOTIZ: "))

		assert.Equal(t, domain.OutcomePreserved, outcome.Kind)
		f.noteRepo.AssertNotCalled(t, "Create")
	})

	t.Run("PersistFailure_Preserved", func(t *testing.T) {
		f := newPipelineFixture()
		f.noteRepo.On("Create", mock.Anything, mock.Anything).
			Return(apperrors.New("db down")).
			Once()

		outcome := f.pipeline.ProcessEvent(ctx, eventWithTitle("NOTIZ: text"))

		assert.Equal(t, domain.OutcomePreserved, outcome.Kind)
	})
}

// TestCommandPipeline_ProcessEvent_URL tests the URL: flow.
func TestCommandPipeline_ProcessEvent_URL(t *testing.T) {
	ctx := context.Background()

	t.Run("URLWithTitleOverride", func(t *testing.T) {
		f := newPipelineFixture()
		event := eventWithTitle("URL: https://example.com/doc Design Document")

		var created *domain.URLPayload
		f.urlRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.URLPayload")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*domain.URLPayload)
			}).
			Return(nil).
			Once()

		outcome := f.pipeline.ProcessEvent(ctx, event)

		assert.Equal(t, domain.OutcomeConsumed, outcome.Kind)
		if assert.NotNil(t, created) {
			assert.Equal(t, "https://example.com/doc", created.URL)
			assert.Equal(t, "Design Document", created.Title)
			assert.Equal(t, "evt-1", created.SourceEventID)
		}
	})

	t.Run("URLWithoutTitle", func(t *testing.T) {
		f := newPipelineFixture()
		f.urlRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.URLPayload) bool {
			return p.URL == "https://example.com" && p.Title == ""
		})).Return(nil).Once()

		outcome := f.pipeline.ProcessEvent(ctx, eventWithTitle("URL: https://example.com"))

		assert.Equal(t, domain.OutcomeConsumed, outcome.Kind)
		f.urlRepo.AssertExpectations(t)
	})

	t.Run("EmptyRemainder_Preserved", func(t *testing.T) {
		f := newPipelineFixture()
		outcome := f.pipeline.ProcessEvent(ctx, eventWithTitle("URL:"))

		assert.Equal(t, domain.OutcomePreserved, outcome.Kind)
		f.urlRepo.AssertNotCalled(t, "Create")
	})
}

// TestCommandPipeline_ProcessEvent_PassThrough tests unmatched titles and the
// guard hand-off.
func TestCommandPipeline_ProcessEvent_PassThrough(t *testing.T) {
	ctx := context.Background()

	t.Run("PlainTitle_PassedUnmodified", func(t *testing.T) {
		f := newPipelineFixture()
		event := eventWithTitle("Team standup")

		outcome := f.pipeline.ProcessEvent(ctx, event)

		assert.Equal(t, domain.OutcomePassed, outcome.Kind)
		assert.False(t, outcome.Modified)
		assert.Equal(t, "Team standup", outcome.Event.Title)
	})

	t.Run("NearMissTitle_RewrittenByGuard", func(t *testing.T) {
		f := newPipelineFixture()
		event := eventWithTitle("action: deploy prod")

		outcome := f.pipeline.ProcessEvent(ctx, event)

		assert.Equal(t, domain.OutcomePassed, outcome.Kind)
		assert.True(t, outcome.Modified)
		assert.Equal(t, "UNDEFINED: action: deploy prod", outcome.Event.Title)
	})

	t.Run("NilEvent_Preserved", func(t *testing.T) {
		f := newPipelineFixture()
		outcome := f.pipeline.ProcessEvent(ctx, nil)

		assert.Equal(t, domain.OutcomePreserved, outcome.Kind)
	})
}

// TestCommandPipeline_ProcessEvent_Metrics tests that each processed event is
// counted with its outcome and status.
func TestCommandPipeline_ProcessEvent_Metrics(t *testing.T) {
	ctx := context.Background()

	t.Run("ConsumedNote_CountsAsSuccess", func(t *testing.T) {
		f := newPipelineFixture()
		recorder := &metricsMocks.MockBusinessMetrics{}
		f.pipeline.businessMetrics = recorder

		f.noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		recorder.On("RecordOperation", mock.Anything, "command", "process_event", "success").Once()
		recorder.On("RecordDuration", mock.Anything, "command", "process_event", mock.Anything, "success").Once()
		recorder.On("RecordOutcome", mock.Anything, "consumed", false).Once()

		outcome := f.pipeline.ProcessEvent(ctx, eventWithTitle("NOTIZ: standup notes"))

		assert.Equal(t, domain.OutcomeConsumed, outcome.Kind)
		recorder.AssertExpectations(t)
	})

	t.Run("GuardRewrite_OutcomeCarriesModifiedFlag", func(t *testing.T) {
		f := newPipelineFixture()
		recorder := &metricsMocks.MockBusinessMetrics{}
		f.pipeline.businessMetrics = recorder

		recorder.On("RecordOperation", mock.Anything, "command", "process_event", "success").Once()
		recorder.On("RecordDuration", mock.Anything, "command", "process_event", mock.Anything, "success").Once()
		recorder.On("RecordOutcome", mock.Anything, "passed", true).Once()

		outcome := f.pipeline.ProcessEvent(ctx, eventWithTitle("action: deploy prod"))

		assert.Equal(t, domain.OutcomePassed, outcome.Kind)
		assert.True(t, outcome.Modified)
		recorder.AssertExpectations(t)
	})

	t.Run("RepositoryFailure_CountsAsError", func(t *testing.T) {
		f := newPipelineFixture()
		recorder := &metricsMocks.MockBusinessMetrics{}
		f.pipeline.businessMetrics = recorder

		f.noteRepo.On("Create", mock.Anything, mock.Anything).
			Return(apperrors.New("insert failed")).
			Once()
		recorder.On("RecordOperation", mock.Anything, "command", "process_event", "error").Once()
		recorder.On("RecordDuration", mock.Anything, "command", "process_event", mock.Anything, "error").Once()
		recorder.On("RecordOutcome", mock.Anything, "preserved", false).Once()

		outcome := f.pipeline.ProcessEvent(ctx, eventWithTitle("NOTIZ: standup notes"))

		assert.Equal(t, domain.OutcomePreserved, outcome.Kind)
		recorder.AssertExpectations(t)
	})

	t.Run("PolicyPreservation_CountsAsSuccess", func(t *testing.T) {
		f := newPipelineFixture()
		recorder := &metricsMocks.MockBusinessMetrics{}
		f.pipeline.businessMetrics = recorder

		recorder.On("RecordOperation", mock.Anything, "command", "process_event", "success").Once()
		recorder.On("RecordDuration", mock.Anything, "command", "process_event", mock.Anything, "success").Once()
		recorder.On("RecordOutcome", mock.Anything, "preserved", false).Once()

		outcome := f.pipeline.ProcessEvent(ctx, eventWithTitle("ACTION: DEPLOY prod"))

		assert.Equal(t, domain.OutcomePreserved, outcome.Kind)
		assert.Equal(t, "command not whitelisted", outcome.Reason)
		recorder.AssertExpectations(t)
	})
}
