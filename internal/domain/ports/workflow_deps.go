package ports

import (
	"context"
	"database/sql"

	"github.com/officeflow/backend/internal/domain/models"
)

// WorkflowStore provides persistence for workflow definitions.
// This interface lets the services be unit-tested without a live database.
type WorkflowStore interface {
	Insert(ctx context.Context, w *models.Workflow) error
	InsertTx(ctx context.Context, tx *sql.Tx, w *models.Workflow) error
	Update(ctx context.Context, w *models.Workflow) error
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*models.Workflow, error)
	List(ctx context.Context, entityType string) ([]*models.Workflow, error)
	GetDefaultForEntityType(ctx context.Context, entityType string) (*models.Workflow, error)
	Delete(ctx context.Context, id string) error
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, status string) error
	SetDefaultFlagTx(ctx context.Context, tx *sql.Tx, id string, isDefault bool) error
	ClearDefaultsTx(ctx context.Context, tx *sql.Tx, entityType string) error
}

// InstanceStore provides persistence for workflow instances.
type InstanceStore interface {
	Insert(ctx context.Context, inst *models.WorkflowInstance) error
	GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*models.WorkflowInstance, error)
	UpdateTx(ctx context.Context, tx *sql.Tx, inst *models.WorkflowInstance) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*models.WorkflowInstance, error)
	CountRunning(ctx context.Context, workflowID string) (int, error)
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTransaction(fn func(tx *sql.Tx) error) error
}
