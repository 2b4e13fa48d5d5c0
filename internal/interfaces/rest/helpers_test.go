package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/officeflow/backend/internal/application/services"
	"github.com/officeflow/backend/internal/interfaces/rest"
	"github.com/officeflow/backend/pkg/auth"
	"github.com/officeflow/backend/pkg/constants"
	"github.com/officeflow/backend/pkg/errors"
	"github.com/officeflow/backend/pkg/flowgraph"
)

func TestGetUserFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("user present", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(constants.ContextKeyUser, auth.UserSession{ID: "user-1", Name: "Alice"})

		user := rest.GetUserFromContext(c)
		require.NotNil(t, user)
		assert.Equal(t, "user-1", user.ID)
	})

	t.Run("no user", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Nil(t, rest.GetUserFromContext(c))
	})
}

func TestRespondAppError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", errors.NewNotFoundError("Workflow", "wf-1"), http.StatusNotFound},
		{"validation", errors.NewValidationError("name", "name is required"), http.StatusBadRequest},
		{"state conflict", errors.NewStateError("workflow", "already published"), http.StatusConflict},
		{"unauthorized", errors.NewUnauthorizedError("bad token"), http.StatusUnauthorized},
		{"internal", errors.NewInternalError("broken", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/test", nil)

			rest.RespondAppError(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.err.Error())
		})
	}
}

// SimulateWorkflow runs entirely in memory, so it can be exercised through
// the real handler without a database.
func TestWorkflowHandler_Simulate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := rest.NewWorkflowHandler(&services.ServiceManager{
		Simulation: services.NewSimulationService(nil),
	})

	body, err := json.Marshal(services.SimulateInput{
		Nodes: []flowgraph.FlowNode{
			{ID: "n1", Type: constants.NodeTypeStart, Data: flowgraph.NodeData{Label: "Start"}},
			{ID: "n2", Type: constants.NodeTypeEnd, Data: flowgraph.NodeData{Label: "End"}},
		},
		Edges: []flowgraph.FlowEdge{
			{ID: "e1", Source: "n1", Target: "n2"},
		},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/workflows/simulate", bytes.NewBuffer(body))

	handler.SimulateWorkflow(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result struct {
			Success bool `json:"success"`
			Path    []struct {
				NodeID string `json:"nodeId"`
			} `json:"path"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Result.Success)
	require.Len(t, resp.Result.Path, 2)
	assert.Equal(t, "n1", resp.Result.Path[0].NodeID)
	assert.Equal(t, "n2", resp.Result.Path[1].NodeID)
}
