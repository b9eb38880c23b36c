// Package http provides HTTP handlers for the command polling and event
// processing API consumed by external systems and calendar sync adapters.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/command/http/dto"
	commandUseCase "github.com/chronoshq/chronos/internal/command/usecase"
	"github.com/chronoshq/chronos/internal/httputil"
	customValidation "github.com/chronoshq/chronos/internal/validation"
)

// CommandHandler handles HTTP requests for command polling, completion, and
// event processing.
type CommandHandler struct {
	commandUseCase *commandUseCase.CommandUseCase
	pipeline       *commandUseCase.CommandPipeline
	logger         *slog.Logger
}

// NewCommandHandler creates a new command handler with required dependencies.
func NewCommandHandler(
	uc *commandUseCase.CommandUseCase,
	pipeline *commandUseCase.CommandPipeline,
	logger *slog.Logger,
) *CommandHandler {
	return &CommandHandler{
		commandUseCase: uc,
		pipeline:       pipeline,
		logger:         logger,
	}
}

// ListPendingHandler claims due pending commands for one external system.
// GET /v1/systems/:system_id/commands?limit=N
// Claimed commands are atomically flipped to processing before being returned.
func (h *CommandHandler) ListPendingHandler(c *gin.Context) {
	systemID := c.Param("system_id")
	if systemID == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("system id cannot be empty"), h.logger)
		return
	}

	pagination := httputil.ParsePagination(c)

	commands, err := h.commandUseCase.ClaimPending(c.Request.Context(), systemID, pagination.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCommandsToListResponse(commands))
}

// CompleteHandler records a successful execution result.
// POST /v1/commands/:id/complete
// Completion also fires the workflow trigger for follow-up chaining.
func (h *CommandHandler) CompleteHandler(c *gin.Context) {
	id, ok := h.parseCommandID(c)
	if !ok {
		return
	}

	var req dto.CompleteCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.commandUseCase.Complete(c.Request.Context(), id, req.Result); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// FailHandler records a failed execution.
// POST /v1/commands/:id/fail
func (h *CommandHandler) FailHandler(c *gin.Context) {
	id, ok := h.parseCommandID(c)
	if !ok {
		return
	}

	var req dto.FailCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.commandUseCase.Fail(c.Request.Context(), id, req.Error); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ProcessEventHandler runs one calendar event through the command pipeline.
// POST /v1/events/process
// Returns the outcome and the event, possibly rewritten by the undefined guard.
func (h *CommandHandler) ProcessEventHandler(c *gin.Context) {
	var req dto.ProcessEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	outcome := h.pipeline.ProcessEvent(c.Request.Context(), req.ToEvent())

	c.JSON(http.StatusOK, dto.MapOutcomeToResponse(outcome))
}

// parseCommandID extracts and validates the :id path parameter.
func (h *CommandHandler) parseCommandID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return uuid.Nil, false
	}
	return id, true
}
