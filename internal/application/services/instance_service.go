package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/officeflow/backend/internal/domain"
	"github.com/officeflow/backend/internal/domain/models"
	"github.com/officeflow/backend/internal/domain/ports"
	"github.com/officeflow/backend/pkg/auth"
	"github.com/officeflow/backend/pkg/constants"
	"github.com/officeflow/backend/pkg/errors"
	"github.com/officeflow/backend/pkg/flowgraph"
	"github.com/officeflow/backend/pkg/utils"
)

// InstanceService drives live executions of published definitions: starting
// an instance for an entity and stepping it through approve/reject actions.
// Every step runs in a transaction with the instance row locked so two
// concurrent approvers cannot both advance the same instance.
type InstanceService struct {
	workflows ports.WorkflowStore
	instances ports.InstanceStore
	tx        ports.TxRunner
	states    *domain.InstanceStateMachine
}

// NewInstanceService creates a new InstanceService
func NewInstanceService(workflows ports.WorkflowStore, instances ports.InstanceStore, tx ports.TxRunner) *InstanceService {
	return &InstanceService{
		workflows: workflows,
		instances: instances,
		tx:        tx,
		states:    domain.NewInstanceStateMachine(),
	}
}

// StartInstanceInput is the payload for starting an execution. WorkflowID is
// optional; when empty the default definition for the entity type is used.
type StartInstanceInput struct {
	WorkflowID  string                 `json:"workflowId,omitempty"`
	EntityType  string                 `json:"entityType"`
	EntityID    string                 `json:"entityId"`
	Variables   flowgraph.Variables    `json:"variables,omitempty"`
	ContextData map[string]interface{} `json:"contextData,omitempty"`
}

// ProcessNodeInput is the payload for stepping an instance at its current
// node.
type ProcessNodeInput struct {
	Action  string `json:"action"` // approve, reject
	Comment string `json:"comment,omitempty"`
}

// StartInstance begins a new execution. The instance enters at the start
// node and immediately advances to the start node's first successor, so the
// history opens with two enter entries.
func (s *InstanceService) StartInstance(ctx context.Context, input StartInstanceInput, user *auth.UserSession) (*models.WorkflowInstance, error) {
	if input.EntityType == "" {
		return nil, errors.NewValidationError("entityType", "entity type is required")
	}
	if input.EntityID == "" {
		return nil, errors.NewValidationError("entityId", "entity id is required")
	}

	w, err := s.resolveWorkflow(ctx, input.WorkflowID, input.EntityType)
	if err != nil {
		return nil, err
	}

	graph := w.Graph()
	start, err := graph.StartNode()
	if err != nil {
		return nil, errors.NewValidationError("workflow", "workflow has no start node")
	}

	now := time.Now()
	inst := &models.WorkflowInstance{
		ID:            utils.GenerateID(),
		WorkflowID:    w.ID,
		EntityID:      input.EntityID,
		EntityType:    input.EntityType,
		CurrentNodeID: start.ID,
		Status:        constants.InstanceStatusRunning,
		Variables:     input.Variables,
		ContextData:   input.ContextData,
		NodeHistory: []models.NodeHistoryEntry{
			historyEntry(start, constants.HistoryActionEnter, user, "", now),
		},
		StartedAt: now,
	}

	// The start node never waits on anyone; move straight along its first
	// outgoing edge when it has one. Conditions are not consulted here,
	// branching only happens once the instance is stepped.
	if out := graph.OutgoingEdges(start.ID); len(out) > 0 {
		if node, ok := graph.Node(out[0].Target); ok {
			inst.CurrentNodeID = node.ID
			inst.NodeHistory = append(inst.NodeHistory,
				historyEntry(node, constants.HistoryActionEnter, user, "", now))
		}
	}

	if err := s.instances.Insert(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to start workflow instance: %w", err)
	}

	log.Printf("✅ Instance started: %s on workflow %s for %s/%s", inst.ID, w.ID, inst.EntityType, inst.EntityID)
	return s.instances.GetByID(ctx, inst.ID)
}

// resolveWorkflow loads the requested definition, or the entity type's
// default when no id is given. Only published definitions may run.
func (s *InstanceService) resolveWorkflow(ctx context.Context, workflowID, entityType string) (*models.Workflow, error) {
	if workflowID != "" {
		w, err := s.workflows.GetByID(ctx, workflowID)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, errors.NewNotFoundError("Workflow", workflowID)
		}
		if !w.IsPublished() {
			return nil, errors.NewStateError("workflow", "workflow is not published")
		}
		return w, nil
	}

	w, err := s.workflows.GetDefaultForEntityType(ctx, entityType)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errors.NewNotFoundError("Default workflow for entity type", entityType)
	}
	return w, nil
}

// ProcessNode applies an approve or reject action at the instance's current
// node. The whole step runs inside one transaction: the instance row is
// re-read with a row lock, so a concurrent step on the same instance blocks
// and then fails the status check.
func (s *InstanceService) ProcessNode(ctx context.Context, instanceID string, input ProcessNodeInput, user *auth.UserSession) (*models.WorkflowInstance, error) {
	if input.Action != constants.NodeActionApprove && input.Action != constants.NodeActionReject {
		return nil, errors.NewValidationError("action", "action must be approve or reject")
	}

	err := s.tx.WithTransaction(func(tx *sql.Tx) error {
		inst, err := s.instances.GetForUpdateTx(ctx, tx, instanceID)
		if err != nil {
			return err
		}
		if inst == nil {
			return errors.NewNotFoundError("Workflow instance", instanceID)
		}
		if !inst.IsRunning() {
			return errors.NewStateError("instance", "workflow instance is already finished")
		}

		w, err := s.workflows.GetByIDTx(ctx, tx, inst.WorkflowID)
		if err != nil {
			return err
		}
		if w == nil {
			return errors.NewNotFoundError("Workflow", inst.WorkflowID)
		}

		if input.Action == constants.NodeActionReject {
			if err := s.rejectInstance(inst, w, input.Comment, user); err != nil {
				return err
			}
		} else if err := s.advanceInstance(inst, w, input.Comment, user); err != nil {
			return err
		}

		return s.instances.UpdateTx(ctx, tx, inst)
	})
	if err != nil {
		return nil, err
	}

	return s.instances.GetByID(ctx, instanceID)
}

// rejectInstance terminates the instance at its current node. No traversal
// happens on reject. An instance pointing at a node the definition does not
// contain is corrupted and must not be terminated without an audit entry.
func (s *InstanceService) rejectInstance(inst *models.WorkflowInstance, w *models.Workflow, comment string, user *auth.UserSession) error {
	now := time.Now()
	graph := w.Graph()
	node, ok := graph.Node(inst.CurrentNodeID)
	if !ok {
		return errors.NewInternalError(fmt.Sprintf("instance %s references unknown node %s", inst.ID, inst.CurrentNodeID), nil)
	}

	inst.NodeHistory = append(inst.NodeHistory,
		historyEntry(node, constants.HistoryActionReject, user, comment, now))
	next, err := s.states.Transition(domain.InstanceState(inst.Status), domain.TransitionReject)
	if err != nil {
		return err
	}
	inst.Status = string(next)
	inst.CompletedAt = &now
	log.Printf("⚠️ Instance rejected: %s at node %s", inst.ID, inst.CurrentNodeID)
	return nil
}

// advanceInstance completes the current node and follows the first outgoing
// edge whose condition passes. A node with no passing edge ends the
// execution there; reaching an end node completes it with the full
// enter+complete trail.
func (s *InstanceService) advanceInstance(inst *models.WorkflowInstance, w *models.Workflow, comment string, user *auth.UserSession) error {
	now := time.Now()
	graph := w.Graph()

	current, ok := graph.Node(inst.CurrentNodeID)
	if !ok {
		return errors.NewInternalError(fmt.Sprintf("instance %s references unknown node %s", inst.ID, inst.CurrentNodeID), nil)
	}

	inst.NodeHistory = append(inst.NodeHistory,
		historyEntry(current, constants.HistoryActionComplete, user, comment, now))

	edge := graph.NextEdge(current.ID, inst.Variables)
	if edge == nil {
		// Dead end counts as a normal completion.
		next, err := s.states.Transition(domain.InstanceState(inst.Status), domain.TransitionComplete)
		if err != nil {
			return err
		}
		inst.Status = string(next)
		inst.CompletedAt = &now
		log.Printf("✅ Instance completed at dead end: %s node %s", inst.ID, current.ID)
		return nil
	}

	target, ok := graph.Node(edge.Target)
	if !ok {
		return errors.NewInternalError(fmt.Sprintf("edge %s targets unknown node %s", edge.ID, edge.Target), nil)
	}

	inst.CurrentNodeID = target.ID
	inst.NodeHistory = append(inst.NodeHistory,
		historyEntry(target, constants.HistoryActionEnter, user, "", now))

	if target.IsEnd() {
		inst.NodeHistory = append(inst.NodeHistory,
			historyEntry(target, constants.HistoryActionComplete, user, "", now))
		next, err := s.states.Transition(domain.InstanceState(inst.Status), domain.TransitionComplete)
		if err != nil {
			return err
		}
		inst.Status = string(next)
		inst.CompletedAt = &now
		log.Printf("✅ Instance completed: %s", inst.ID)
		return nil
	}

	next, err := s.states.Transition(domain.InstanceState(inst.Status), domain.TransitionAdvance)
	if err != nil {
		return err
	}
	inst.Status = string(next)
	return nil
}

// GetInstance retrieves an instance by id.
func (s *InstanceService) GetInstance(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	inst, err := s.instances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, errors.NewNotFoundError("Workflow instance", id)
	}
	return inst, nil
}

// ListEntityInstances lists all executions bound to one business entity,
// newest first.
func (s *InstanceService) ListEntityInstances(ctx context.Context, entityType, entityID string) ([]*models.WorkflowInstance, error) {
	return s.instances.ListByEntity(ctx, entityType, entityID)
}

func historyEntry(node *flowgraph.FlowNode, action string, user *auth.UserSession, comment string, at time.Time) models.NodeHistoryEntry {
	entry := models.NodeHistoryEntry{
		NodeID:    node.ID,
		NodeName:  node.Data.Label,
		Action:    action,
		Comment:   comment,
		Timestamp: at,
	}
	if user != nil {
		entry.UserID = user.ID
		entry.Username = user.Name
	}
	return entry
}
