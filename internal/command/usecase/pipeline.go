package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	calendarDomain "github.com/chronoshq/chronos/internal/calendar/domain"
	"github.com/chronoshq/chronos/internal/command/domain"
	"github.com/chronoshq/chronos/internal/database"
	"github.com/chronoshq/chronos/internal/metrics"
)

// CommandRepository defines external command repository operations
type CommandRepository interface {
	Create(ctx context.Context, cmd *domain.ExternalCommand) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExternalCommand, error)
	ClaimPending(ctx context.Context, targetSystem string, now time.Time, limit int) ([]*domain.ExternalCommand, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, result string, now time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, now time.Time) error
}

// NoteRepository defines note repository operations
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
}

// URLPayloadRepository defines url payload repository operations
type URLPayloadRepository interface {
	Create(ctx context.Context, payload *domain.URLPayload) error
}

// WorkflowTrigger fans a command out to its declarative follow-up rules.
// Fan-out is best-effort: the pipeline logs failures and moves on.
type WorkflowTrigger interface {
	Fire(ctx context.Context, cmd *domain.ExternalCommand) error
}

// CommandPipeline turns command-prefixed event titles into durable records.
// It is fail-safe per event: whatever goes wrong, the original event is
// preserved and the batch continues.
type CommandPipeline struct {
	txManager       database.TxManager
	commandRepo     CommandRepository
	noteRepo        NoteRepository
	urlRepo         URLPayloadRepository
	whitelist       *Whitelist
	guard           *UndefinedGuard
	trigger         WorkflowTrigger
	logger          *slog.Logger
	businessMetrics metrics.BusinessMetrics
	now             func() time.Time
}

// NewCommandPipeline creates a new CommandPipeline. A nil businessMetrics
// falls back to the no-op recorder.
func NewCommandPipeline(
	txManager database.TxManager,
	commandRepo CommandRepository,
	noteRepo NoteRepository,
	urlRepo URLPayloadRepository,
	whitelist *Whitelist,
	guard *UndefinedGuard,
	trigger WorkflowTrigger,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *CommandPipeline {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &CommandPipeline{
		txManager:       txManager,
		commandRepo:     commandRepo,
		noteRepo:        noteRepo,
		urlRepo:         urlRepo,
		whitelist:       whitelist,
		guard:           guard,
		trigger:         trigger,
		logger:          logger,
		businessMetrics: businessMetrics,
		now:             time.Now,
	}
}

// ProcessEvent evaluates one event title in a single pass. Proper prefixes
// produce records; unmatched titles go through the undefined guard; any
// processing error or panic preserves the original event untouched.
func (p *CommandPipeline) ProcessEvent(ctx context.Context, event *calendarDomain.Event) domain.ProcessingOutcome {
	start := time.Now()
	outcome := p.processEvent(ctx, event)

	// Events preserved by policy (not whitelisted, malformed syntax) count as
	// successes; only internal failures count as errors.
	status := "success"
	if outcome.Kind == domain.OutcomePreserved && outcome.Reason == "processing error" {
		status = "error"
	}
	p.businessMetrics.RecordOperation(ctx, "command", "process_event", status)
	p.businessMetrics.RecordDuration(ctx, "command", "process_event", time.Since(start), status)
	p.businessMetrics.RecordOutcome(ctx, string(outcome.Kind), outcome.Modified)

	return outcome
}

func (p *CommandPipeline) processEvent(ctx context.Context, event *calendarDomain.Event) (outcome domain.ProcessingOutcome) {
	if event == nil {
		return domain.Preserved(nil, "no event")
	}

	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.Error("event processing panicked, preserving event",
					slog.String("event_id", event.ID),
					slog.Any("panic", r),
				)
			}
			outcome = domain.Preserved(event, "processing error")
		}
	}()

	parsed := parseTitle(event.Title)

	switch parsed.prefix {
	case prefixNote:
		return p.processNote(ctx, event, parsed.remainder)
	case prefixURL:
		return p.processURL(ctx, event, parsed.remainder)
	case prefixAction:
		return p.processAction(ctx, event, parsed.remainder)
	}

	guarded, modified := p.guard.Apply(event)
	return domain.Passed(guarded, modified)
}

// processNote persists a note built from the title remainder plus the event's
// metadata and consumes the event.
func (p *CommandPipeline) processNote(ctx context.Context, event *calendarDomain.Event, content string) domain.ProcessingOutcome {
	if content == "" {
		return domain.Preserved(event, "empty note text")
	}

	attendees, err := json.Marshal(event.Attendees)
	if err != nil {
		return p.preserveOnError(event, err)
	}
	tags, err := json.Marshal(event.Tags)
	if err != nil {
		return p.preserveOnError(event, err)
	}

	eventTime := event.StartTime
	note := &domain.Note{
		ID:            uuid.Must(uuid.NewV7()),
		Content:       content,
		Location:      event.Location,
		Attendees:     string(attendees),
		Tags:          string(tags),
		EventTime:     &eventTime,
		CalendarID:    event.CalendarID,
		SourceEventID: event.ID,
	}

	err = p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return p.noteRepo.Create(txCtx, note)
	})
	if err != nil {
		return p.preserveOnError(event, err)
	}

	return domain.Consumed(event)
}

// processURL persists a url payload and consumes the event.
func (p *CommandPipeline) processURL(ctx context.Context, event *calendarDomain.Event, remainder string) domain.ProcessingOutcome {
	url, title := parseURL(remainder)
	if url == "" {
		return domain.Preserved(event, "empty url")
	}

	payload := &domain.URLPayload{
		ID:            uuid.Must(uuid.NewV7()),
		URL:           url,
		Title:         title,
		CalendarID:    event.CalendarID,
		SourceEventID: event.ID,
	}

	err := p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return p.urlRepo.Create(txCtx, payload)
	})
	if err != nil {
		return p.preserveOnError(event, err)
	}

	return domain.Consumed(event)
}

// processAction gates the command through the whitelist and, when allowed,
// persists a pending ExternalCommand and fires the workflow trigger.
func (p *CommandPipeline) processAction(ctx context.Context, event *calendarDomain.Event, remainder string) domain.ProcessingOutcome {
	action, ok := parseAction(remainder)
	if !ok {
		return domain.Preserved(event, "malformed action syntax")
	}

	// Not whitelisted is a normal outcome, not an error: the event stays in
	// the calendar untouched so a human can review it.
	if !p.whitelist.Contains(action.command) {
		if p.logger != nil {
			p.logger.Info("command not whitelisted, preserving event",
				slog.String("event_id", event.ID),
				slog.String("command", action.command),
			)
		}
		return domain.Preserved(event, "command not whitelisted")
	}

	eventStart := event.StartTime
	eventEnd := event.EndTime
	parameters, err := domain.CommandParameters{
		Args:          action.args,
		SourceEventID: event.ID,
		CalendarID:    event.CalendarID,
		EventStart:    &eventStart,
		EventEnd:      &eventEnd,
	}.Encode()
	if err != nil {
		return p.preserveOnError(event, err)
	}

	cmd := &domain.ExternalCommand{
		ID:           uuid.Must(uuid.NewV7()),
		Command:      action.command,
		TargetSystem: action.targetSystem,
		Parameters:   parameters,
		Status:       domain.CommandStatusPending,
	}

	err = p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return p.commandRepo.Create(txCtx, cmd)
	})
	if err != nil {
		return p.preserveOnError(event, err)
	}

	// Fan-out never affects the already-persisted command.
	if p.trigger != nil {
		if err := p.trigger.Fire(ctx, cmd); err != nil && p.logger != nil {
			p.logger.Error("workflow fan-out failed",
				slog.String("command_id", cmd.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	return domain.Consumed(event)
}

// preserveOnError logs the failure and preserves the original event.
func (p *CommandPipeline) preserveOnError(event *calendarDomain.Event, err error) domain.ProcessingOutcome {
	if p.logger != nil {
		p.logger.Error("failed to process command event, preserving event",
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)
	}
	return domain.Preserved(event, "processing error")
}
