package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/workflow/domain"
	"github.com/chronoshq/chronos/internal/workflow/usecase/mocks"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func setupTestHandler(t *testing.T) (*WorkflowHandler, *mocks.MockWorkflowRuleRepository) {
	t.Helper()

	repo := &mocks.MockWorkflowRuleRepository{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewWorkflowHandler(repo, logger), repo
}

func createTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func TestWorkflowHandler_ListHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, repo := setupTestHandler(t)

		rule := &domain.WorkflowRule{
			ID:              uuid.Must(uuid.NewV7()),
			TriggerCommand:  "DEPLOY",
			TriggerSystem:   "n8n",
			FollowUpCommand: "NOTIFY",
			FollowUpSystem:  "telegram",
			FollowUpParams:  `{"channel":"ops"}`,
			DelaySeconds:    60,
			Enabled:         true,
			CreatedAt:       time.Now().UTC(),
		}
		repo.On("List", mock.Anything, 10, 0).
			Return([]*domain.WorkflowRule{rule}, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/workflow-rules?limit=10")

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response ListWorkflowRulesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Rules, 1)
		assert.Equal(t, rule.ID.String(), response.Rules[0].ID)
		assert.Equal(t, "DEPLOY", response.Rules[0].TriggerCommand)
		assert.Equal(t, "NOTIFY", response.Rules[0].FollowUpCommand)
		assert.Equal(t, 60, response.Rules[0].DelaySeconds)
		assert.True(t, response.Rules[0].Enabled)
		repo.AssertExpectations(t)
	})

	t.Run("Success_EmptyList", func(t *testing.T) {
		handler, repo := setupTestHandler(t)

		repo.On("List", mock.Anything, mock.Anything, mock.Anything).
			Return([]*domain.WorkflowRule{}, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/workflow-rules")

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"rules":[]`)
	})

	t.Run("Error_RepositoryFailure", func(t *testing.T) {
		handler, repo := setupTestHandler(t)

		repo.On("List", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.New("connection refused")).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/workflow-rules")

		handler.ListHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "internal_error")
	})
}
