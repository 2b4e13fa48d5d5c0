package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/officeflow/backend/internal/domain/models"
	"github.com/officeflow/backend/pkg/constants"
)

// InstanceRepository handles database operations for workflow instances.
type InstanceRepository struct {
	db *sql.DB
}

// NewInstanceRepository creates a new InstanceRepository
func NewInstanceRepository(db *sql.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

const instanceColumns = "id, workflow_id, entity_id, entity_type, current_node_id, status, variables, context_data, node_history, started_at, completed_at"

// Insert persists a new workflow instance.
func (r *InstanceRepository) Insert(ctx context.Context, inst *models.WorkflowInstance) error {
	variablesJSON, contextJSON, historyJSON, err := marshalInstanceBlobs(inst)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, workflow_id, entity_id, entity_type, current_node_id, status, variables, context_data, node_history, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		constants.TableWorkflowInstance)

	_, err = r.db.ExecContext(ctx, query,
		inst.ID,
		inst.WorkflowID,
		inst.EntityID,
		inst.EntityType,
		inst.CurrentNodeID,
		inst.Status,
		variablesJSON,
		contextJSON,
		historyJSON,
	)
	return err
}

// GetByID retrieves an instance by id, or nil when absent.
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", instanceColumns, constants.TableWorkflowInstance)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetForUpdateTx re-reads an instance inside a transaction with a row lock.
// Step processing relies on this to serialize concurrent actions on the same
// instance: the second caller blocks here and then observes the first
// caller's terminal status.
func (r *InstanceRepository) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*models.WorkflowInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1 FOR UPDATE", instanceColumns, constants.TableWorkflowInstance)
	return r.scanOne(tx.QueryRowContext(ctx, query, id))
}

// UpdateTx writes an instance's mutable fields inside a transaction.
func (r *InstanceRepository) UpdateTx(ctx context.Context, tx *sql.Tx, inst *models.WorkflowInstance) error {
	_, _, historyJSON, err := marshalInstanceBlobs(inst)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET current_node_id = ?, status = ?, node_history = ?, completed_at = ?
		WHERE id = ?`,
		constants.TableWorkflowInstance)

	_, err = tx.ExecContext(ctx, query,
		inst.CurrentNodeID,
		inst.Status,
		historyJSON,
		inst.CompletedAt,
		inst.ID,
	)
	return err
}

// ListByEntity returns the instances bound to one business entity, newest
// first.
func (r *InstanceRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*models.WorkflowInstance, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE entity_type = ? AND entity_id = ? ORDER BY started_at DESC",
		instanceColumns, constants.TableWorkflowInstance)

	rows, err := r.db.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*models.WorkflowInstance
	for rows.Next() {
		inst, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// CountRunning counts RUNNING instances of one definition. Deleting a
// definition is blocked while this is non-zero.
func (r *InstanceRepository) CountRunning(ctx context.Context, workflowID string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE workflow_id = ? AND status = ?", constants.TableWorkflowInstance)

	var count int
	err := r.db.QueryRowContext(ctx, query, workflowID, constants.InstanceStatusRunning).Scan(&count)
	return count, err
}

func (r *InstanceRepository) scanOne(row rowScanner) (*models.WorkflowInstance, error) {
	var inst models.WorkflowInstance
	var variablesJSON, contextJSON, historyJSON []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&inst.ID,
		&inst.WorkflowID,
		&inst.EntityID,
		&inst.EntityType,
		&inst.CurrentNodeID,
		&inst.Status,
		&variablesJSON,
		&contextJSON,
		&historyJSON,
		&inst.StartedAt,
		&completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if completedAt.Valid {
		inst.CompletedAt = &completedAt.Time
	}
	if len(variablesJSON) > 0 {
		if err := json.Unmarshal(variablesJSON, &inst.Variables); err != nil {
			return nil, fmt.Errorf("failed to decode instance variables: %w", err)
		}
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &inst.ContextData); err != nil {
			return nil, fmt.Errorf("failed to decode instance context data: %w", err)
		}
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &inst.NodeHistory); err != nil {
			return nil, fmt.Errorf("failed to decode instance node history: %w", err)
		}
	}
	return &inst, nil
}

func marshalInstanceBlobs(inst *models.WorkflowInstance) ([]byte, []byte, []byte, error) {
	variablesJSON, err := json.Marshal(inst.Variables)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode instance variables: %w", err)
	}
	contextJSON, err := json.Marshal(inst.ContextData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode instance context data: %w", err)
	}
	historyJSON, err := json.Marshal(inst.NodeHistory)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode instance node history: %w", err)
	}
	return variablesJSON, contextJSON, historyJSON, nil
}
