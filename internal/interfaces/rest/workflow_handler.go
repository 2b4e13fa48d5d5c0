package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/officeflow/backend/internal/application/services"
	"github.com/officeflow/backend/pkg/constants"
	"github.com/officeflow/backend/pkg/errors"
	"github.com/officeflow/backend/pkg/flowgraph"
)

// WorkflowHandler exposes the definition lifecycle: CRUD, publish, default
// selection and dry-run simulation.
type WorkflowHandler struct {
	workflows  *services.WorkflowService
	simulation *services.SimulationService
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(svcMgr *services.ServiceManager) *WorkflowHandler {
	return &WorkflowHandler{
		workflows:  svcMgr.Workflows,
		simulation: svcMgr.Simulation,
	}
}

// ListWorkflows handles GET /api/workflows?entityType=...
func (h *WorkflowHandler) ListWorkflows(c *gin.Context) {
	entityType := c.Query("entityType")
	HandleGetEnvelope(c, "workflows", func() (interface{}, error) {
		return h.workflows.ListWorkflows(c.Request.Context(), entityType)
	})
}

// GetWorkflow handles GET /api/workflows/:id
func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	HandleGetEnvelope(c, "workflow", func() (interface{}, error) {
		return h.workflows.GetWorkflow(c.Request.Context(), c.Param("id"))
	})
}

// CreateWorkflow handles POST /api/workflows
func (h *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	var input services.CreateWorkflowInput
	if !BindJSON(c, &input) {
		return
	}

	w, err := h.workflows.CreateWorkflow(c.Request.Context(), input, user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Workflow created",
		"workflow":             w,
	})
}

// UpdateWorkflow handles PUT /api/workflows/:id
func (h *WorkflowHandler) UpdateWorkflow(c *gin.Context) {
	var input services.UpdateWorkflowInput
	if !BindJSON(c, &input) {
		return
	}

	w, err := h.workflows.UpdateWorkflow(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Workflow updated",
		"workflow":             w,
	})
}

// PublishWorkflow handles POST /api/workflows/:id/publish
func (h *WorkflowHandler) PublishWorkflow(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	res, err := h.workflows.PublishWorkflow(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Workflow published",
		"workflow":             res.Workflow,
		"warnings":             res.Warnings,
	})
}

// SetDefaultWorkflow handles POST /api/workflows/:id/default
func (h *WorkflowHandler) SetDefaultWorkflow(c *gin.Context) {
	w, err := h.workflows.SetDefaultWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Default workflow updated",
		"workflow":             w,
	})
}

// DeleteWorkflow handles DELETE /api/workflows/:id
func (h *WorkflowHandler) DeleteWorkflow(c *gin.Context) {
	HandleDeleteEnvelope(c, "Workflow deleted", func() error {
		return h.workflows.DeleteWorkflow(c.Request.Context(), c.Param("id"))
	})
}

// SimulateWorkflow handles POST /api/workflows/simulate. The graph comes
// from the request body so unsaved designer edits can be probed.
func (h *WorkflowHandler) SimulateWorkflow(c *gin.Context) {
	var input services.SimulateInput
	if !BindJSON(c, &input) {
		return
	}

	result := h.simulation.Simulate(input)
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// SimulateWorkflowByID handles POST /api/workflows/:id/simulate, dry-running
// a stored definition against the supplied test variables.
func (h *WorkflowHandler) SimulateWorkflowByID(c *gin.Context) {
	var input struct {
		Variables flowgraph.Variables `json:"variables,omitempty"`
	}
	if !BindJSON(c, &input) {
		return
	}

	result, err := h.simulation.SimulateWorkflow(c.Request.Context(), c.Param("id"), input.Variables)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
