package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/officeflow/backend/internal/application/services"
	"github.com/officeflow/backend/pkg/constants"
	"github.com/officeflow/backend/pkg/errors"
)

// InstanceHandler exposes live execution endpoints: starting instances and
// stepping them through approval actions.
type InstanceHandler struct {
	instances *services.InstanceService
}

// NewInstanceHandler creates a new InstanceHandler
func NewInstanceHandler(svcMgr *services.ServiceManager) *InstanceHandler {
	return &InstanceHandler{instances: svcMgr.Instances}
}

// StartInstance handles POST /api/workflows/instances/start
func (h *InstanceHandler) StartInstance(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	var input services.StartInstanceInput
	if !BindJSON(c, &input) {
		return
	}

	inst, err := h.instances.StartInstance(c.Request.Context(), input, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Workflow instance started",
		"instance":             inst,
	})
}

// GetInstance handles GET /api/workflows/instances/:id
func (h *InstanceHandler) GetInstance(c *gin.Context) {
	HandleGetEnvelope(c, "instance", func() (interface{}, error) {
		return h.instances.GetInstance(c.Request.Context(), c.Param("id"))
	})
}

// ProcessNode handles POST /api/workflows/instances/:id/process
func (h *InstanceHandler) ProcessNode(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	var input services.ProcessNodeInput
	if !BindJSON(c, &input) {
		return
	}

	inst, err := h.instances.ProcessNode(c.Request.Context(), c.Param("id"), input, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Node processed",
		"instance":             inst,
	})
}

// ListEntityInstances handles GET /api/workflows/instances/entity/:entityType/:entityId
func (h *InstanceHandler) ListEntityInstances(c *gin.Context) {
	HandleGetEnvelope(c, "instances", func() (interface{}, error) {
		return h.instances.ListEntityInstances(c.Request.Context(), c.Param("entityType"), c.Param("entityId"))
	})
}
