package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/officeflow/backend/internal/domain/models"
	"github.com/officeflow/backend/internal/domain/ports"
	"github.com/officeflow/backend/pkg/constants"
	"github.com/officeflow/backend/pkg/errors"
	"github.com/officeflow/backend/pkg/flowgraph"
	"github.com/officeflow/backend/pkg/utils"
)

// WorkflowService owns the definition lifecycle: draft creation and editing,
// publishing with version forking, default selection and deletion. All graph
// writes are gated by the structural validator so a broken graph never
// reaches the store.
type WorkflowService struct {
	workflows ports.WorkflowStore
	instances ports.InstanceStore
	tx        ports.TxRunner
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(workflows ports.WorkflowStore, instances ports.InstanceStore, tx ports.TxRunner) *WorkflowService {
	return &WorkflowService{workflows: workflows, instances: instances, tx: tx}
}

// CreateWorkflowInput is the payload for creating a definition.
type CreateWorkflowInput struct {
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	EntityType  string               `json:"entityType"`
	Nodes       []flowgraph.FlowNode `json:"nodes"`
	Edges       []flowgraph.FlowEdge `json:"edges"`
}

// UpdateWorkflowInput is the payload for editing a draft. Nil slices leave
// the graph untouched; name/description/entityType follow the same rule.
type UpdateWorkflowInput struct {
	Name        *string              `json:"name,omitempty"`
	Description *string              `json:"description,omitempty"`
	EntityType  *string              `json:"entityType,omitempty"`
	Nodes       []flowgraph.FlowNode `json:"nodes,omitempty"`
	Edges       []flowgraph.FlowEdge `json:"edges,omitempty"`
}

// PublishResult carries the published definition plus non-blocking designer
// warnings (conditions that will always pass at runtime).
type PublishResult struct {
	Workflow *models.Workflow `json:"workflow"`
	Warnings []string         `json:"warnings,omitempty"`
}

// CreateWorkflow validates and persists a new DRAFT definition at version 1.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, input CreateWorkflowInput, userID string) (*models.Workflow, error) {
	if input.Name == "" {
		return nil, errors.NewValidationError("name", "workflow name is required")
	}
	if input.EntityType == "" {
		return nil, errors.NewValidationError("entityType", "entity type is required")
	}
	if errs := flowgraph.Validate(input.Nodes, input.Edges); len(errs) > 0 {
		return nil, errors.NewValidationError("", strings.Join(errs, "\n"))
	}

	w := &models.Workflow{
		ID:          utils.GenerateID(),
		Name:        input.Name,
		Description: input.Description,
		EntityType:  input.EntityType,
		Nodes:       input.Nodes,
		Edges:       input.Edges,
		Version:     1,
		Status:      constants.WorkflowStatusDraft,
		CreatedBy:   userID,
	}

	if err := s.workflows.Insert(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	log.Printf("✅ Workflow created: %s (%s) for entity type %s", w.Name, w.ID, w.EntityType)
	return s.workflows.GetByID(ctx, w.ID)
}

// UpdateWorkflow edits a DRAFT definition. Published definitions are
// immutable; callers must publish a new version instead.
func (s *WorkflowService) UpdateWorkflow(ctx context.Context, id string, input UpdateWorkflowInput) (*models.Workflow, error) {
	w, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errors.NewNotFoundError("Workflow", id)
	}
	if w.IsPublished() {
		return nil, errors.NewStateError("workflow", "published workflows cannot be edited, publish a new version instead")
	}

	if input.Name != nil {
		w.Name = *input.Name
	}
	if input.Description != nil {
		w.Description = input.Description
	}
	if input.EntityType != nil {
		w.EntityType = *input.EntityType
	}
	if input.Nodes != nil && input.Edges != nil {
		if errs := flowgraph.Validate(input.Nodes, input.Edges); len(errs) > 0 {
			return nil, errors.NewValidationError("", strings.Join(errs, "\n"))
		}
		w.Nodes = input.Nodes
		w.Edges = input.Edges
	}

	if err := s.workflows.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return s.workflows.GetByID(ctx, id)
}

// GetWorkflow retrieves a definition by id.
func (s *WorkflowService) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	w, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errors.NewNotFoundError("Workflow", id)
	}
	return w, nil
}

// ListWorkflows lists definitions, optionally filtered by entity type.
func (s *WorkflowService) ListWorkflows(ctx context.Context, entityType string) ([]*models.Workflow, error) {
	return s.workflows.List(ctx, entityType)
}

// PublishWorkflow freezes a definition so it can back live instances.
// A DRAFT flips to PUBLISHED in place. A definition that is already
// PUBLISHED is cloned as version+1 instead, carrying over the default flag
// after clearing it from the old version; the clone's createdBy is the
// publishing actor.
func (s *WorkflowService) PublishWorkflow(ctx context.Context, id, userID string) (*PublishResult, error) {
	current, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errors.NewNotFoundError("Workflow", id)
	}

	if errs := flowgraph.ValidateForPublish(current.Nodes, current.Edges); len(errs) > 0 {
		return nil, errors.NewValidationError("", strings.Join(errs, "\n"))
	}
	warnings := flowgraph.LintConditions(current.Edges)

	var resultID string
	err = s.tx.WithTransaction(func(tx *sql.Tx) error {
		w, err := s.workflows.GetByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return errors.NewNotFoundError("Workflow", id)
		}

		if !w.IsPublished() {
			resultID = w.ID
			return s.workflows.UpdateStatusTx(ctx, tx, w.ID, constants.WorkflowStatusPublished)
		}

		// Republish: fork a new version and move the default flag over.
		if w.IsDefault {
			if err := s.workflows.SetDefaultFlagTx(ctx, tx, w.ID, false); err != nil {
				return err
			}
		}

		clone := &models.Workflow{
			ID:          utils.GenerateID(),
			Name:        w.Name,
			Description: w.Description,
			EntityType:  w.EntityType,
			Nodes:       w.Nodes,
			Edges:       w.Edges,
			Version:     w.Version + 1,
			Status:      constants.WorkflowStatusPublished,
			IsDefault:   w.IsDefault,
			CreatedBy:   userID,
		}
		resultID = clone.ID
		return s.workflows.InsertTx(ctx, tx, clone)
	})
	if err != nil {
		return nil, err
	}

	published, err := s.workflows.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Workflow published: %s version %d", published.Name, published.Version)
	return &PublishResult{Workflow: published, Warnings: warnings}, nil
}

// SetDefaultWorkflow makes one published definition the default for its
// entity type. The clear-then-set runs in one transaction so there is never
// a window with zero or two defaults.
func (s *WorkflowService) SetDefaultWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	w, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errors.NewNotFoundError("Workflow", id)
	}
	if !w.IsPublished() {
		return nil, errors.NewStateError("workflow", "only published workflows can be the default")
	}

	err = s.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := s.workflows.ClearDefaultsTx(ctx, tx, w.EntityType); err != nil {
			return err
		}
		return s.workflows.SetDefaultFlagTx(ctx, tx, w.ID, true)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Default workflow for %s is now %s (%s)", w.EntityType, w.Name, w.ID)
	return s.workflows.GetByID(ctx, id)
}

// DeleteWorkflow removes a definition. Blocked while any instance of it is
// still RUNNING.
func (s *WorkflowService) DeleteWorkflow(ctx context.Context, id string) error {
	w, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return errors.NewNotFoundError("Workflow", id)
	}

	running, err := s.instances.CountRunning(ctx, id)
	if err != nil {
		return err
	}
	if running > 0 {
		return errors.NewStateError("workflow", "workflow has running instances and cannot be deleted")
	}

	if err := s.workflows.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	log.Printf("🗑️ Workflow deleted: %s", id)
	return nil
}
