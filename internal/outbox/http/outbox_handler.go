// Package http provides HTTP handlers for outbox administration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/httputil"
	outboxUseCase "github.com/chronoshq/chronos/internal/outbox/usecase"
)

// OutboxHandler handles HTTP requests for manual outbox intervention.
type OutboxHandler struct {
	outboxUseCase outboxUseCase.UseCase
	logger        *slog.Logger
}

// NewOutboxHandler creates a new outbox handler with required dependencies.
func NewOutboxHandler(uc outboxUseCase.UseCase, logger *slog.Logger) *OutboxHandler {
	return &OutboxHandler{
		outboxUseCase: uc,
		logger:        logger,
	}
}

// RetryHandler manually re-enters a failed or dead-letter entry into pending.
// POST /v1/outbox/:id/retry
func (h *OutboxHandler) RetryHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.outboxUseCase.RetryEntry(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
