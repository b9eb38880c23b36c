// Package http provides read-only HTTP access to workflow rules.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chronoshq/chronos/internal/httputil"
	"github.com/chronoshq/chronos/internal/workflow/domain"
	workflowUseCase "github.com/chronoshq/chronos/internal/workflow/usecase"
)

// WorkflowRuleResponse is one workflow rule in API form.
type WorkflowRuleResponse struct {
	ID              string          `json:"id"`
	TriggerCommand  string          `json:"trigger_command"`
	TriggerSystem   string          `json:"trigger_system"`
	FollowUpCommand string          `json:"follow_up_command"`
	FollowUpSystem  string          `json:"follow_up_system"`
	FollowUpParams  json.RawMessage `json:"follow_up_params,omitempty"`
	DelaySeconds    int             `json:"delay_seconds"`
	Enabled         bool            `json:"enabled"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ListWorkflowRulesResponse wraps a page of rules.
type ListWorkflowRulesResponse struct {
	Rules []WorkflowRuleResponse `json:"rules"`
}

// WorkflowHandler handles HTTP requests for workflow rule inspection.
type WorkflowHandler struct {
	ruleRepo workflowUseCase.WorkflowRuleRepository
	logger   *slog.Logger
}

// NewWorkflowHandler creates a new workflow handler with required dependencies.
func NewWorkflowHandler(ruleRepo workflowUseCase.WorkflowRuleRepository, logger *slog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		ruleRepo: ruleRepo,
		logger:   logger,
	}
}

// ListHandler lists workflow rules with pagination.
// GET /v1/workflow-rules?limit=N&offset=M
func (h *WorkflowHandler) ListHandler(c *gin.Context) {
	pagination := httputil.ParsePagination(c)

	rules, err := h.ruleRepo.List(c.Request.Context(), pagination.Limit, pagination.Offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapRulesToListResponse(rules))
}

func mapRulesToListResponse(rules []*domain.WorkflowRule) ListWorkflowRulesResponse {
	response := ListWorkflowRulesResponse{Rules: make([]WorkflowRuleResponse, 0, len(rules))}
	for _, rule := range rules {
		response.Rules = append(response.Rules, WorkflowRuleResponse{
			ID:              rule.ID.String(),
			TriggerCommand:  rule.TriggerCommand,
			TriggerSystem:   rule.TriggerSystem,
			FollowUpCommand: rule.FollowUpCommand,
			FollowUpSystem:  rule.FollowUpSystem,
			FollowUpParams:  json.RawMessage(rule.FollowUpParams),
			DelaySeconds:    rule.DelaySeconds,
			Enabled:         rule.Enabled,
			CreatedAt:       rule.CreatedAt,
		})
	}
	return response
}
