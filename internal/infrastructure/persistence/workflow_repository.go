package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/officeflow/backend/internal/domain/models"
	"github.com/officeflow/backend/pkg/constants"
	"github.com/officeflow/backend/pkg/flowgraph"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// WorkflowRepository handles database operations for workflow definitions.
// The nodes/edges JSON blobs are the durable wire contract; marshaling goes
// through encoding/json so slice order survives round-trips.
type WorkflowRepository struct {
	db *sql.DB
}

// NewWorkflowRepository creates a new WorkflowRepository
func NewWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

const workflowColumns = "id, name, description, entity_type, nodes, edges, version, status, is_default, created_by, created_date, last_modified_date"

// Insert persists a new workflow definition.
func (r *WorkflowRepository) Insert(ctx context.Context, w *models.Workflow) error {
	return r.insert(ctx, r.db, w)
}

// InsertTx persists a new workflow definition inside an existing transaction.
func (r *WorkflowRepository) InsertTx(ctx context.Context, tx *sql.Tx, w *models.Workflow) error {
	return r.insert(ctx, tx, w)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *WorkflowRepository) insert(ctx context.Context, q execer, w *models.Workflow) error {
	nodesJSON, edgesJSON, err := marshalGraph(w.Nodes, w.Edges)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, entity_type, nodes, edges, version, status, is_default, created_by, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		constants.TableWorkflow)

	_, err = q.ExecContext(ctx, query,
		w.ID,
		w.Name,
		w.Description,
		w.EntityType,
		nodesJSON,
		edgesJSON,
		w.Version,
		w.Status,
		w.IsDefault,
		w.CreatedBy,
	)
	return err
}

// Update rewrites a draft definition's editable fields.
func (r *WorkflowRepository) Update(ctx context.Context, w *models.Workflow) error {
	nodesJSON, edgesJSON, err := marshalGraph(w.Nodes, w.Edges)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET name = ?, description = ?, entity_type = ?, nodes = ?, edges = ?, last_modified_date = NOW()
		WHERE id = ?`,
		constants.TableWorkflow)

	_, err = r.db.ExecContext(ctx, query,
		w.Name,
		w.Description,
		w.EntityType,
		nodesJSON,
		edgesJSON,
		w.ID,
	)
	return err
}

// GetByID retrieves a definition by id, or nil when absent.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", workflowColumns, constants.TableWorkflow)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByIDTx retrieves a definition by id inside a transaction, locking the
// row for the duration.
func (r *WorkflowRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*models.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1 FOR UPDATE", workflowColumns, constants.TableWorkflow)
	return r.scanOne(tx.QueryRowContext(ctx, query, id))
}

// List returns definitions, optionally filtered by entity type, defaults
// first and then most recently modified.
func (r *WorkflowRepository) List(ctx context.Context, entityType string) ([]*models.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", workflowColumns, constants.TableWorkflow)
	var args []interface{}
	if entityType != "" {
		query += " WHERE entity_type = ?"
		args = append(args, entityType)
	}
	query += " ORDER BY is_default DESC, last_modified_date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		w, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

// GetDefaultForEntityType returns the published default definition for an
// entity type, or nil when none is configured.
func (r *WorkflowRepository) GetDefaultForEntityType(ctx context.Context, entityType string) (*models.Workflow, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE entity_type = ? AND status = ? AND is_default = 1 LIMIT 1",
		workflowColumns, constants.TableWorkflow)
	return r.scanOne(r.db.QueryRowContext(ctx, query, entityType, constants.WorkflowStatusPublished))
}

// Delete removes a definition.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", constants.TableWorkflow)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// UpdateStatusTx flips a definition's status inside a transaction.
func (r *WorkflowRepository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, status string) error {
	query := fmt.Sprintf("UPDATE %s SET status = ?, last_modified_date = NOW() WHERE id = ?", constants.TableWorkflow)
	_, err := tx.ExecContext(ctx, query, status, id)
	return err
}

// SetDefaultFlagTx sets or clears is_default on one definition.
func (r *WorkflowRepository) SetDefaultFlagTx(ctx context.Context, tx *sql.Tx, id string, isDefault bool) error {
	query := fmt.Sprintf("UPDATE %s SET is_default = ?, last_modified_date = NOW() WHERE id = ?", constants.TableWorkflow)
	_, err := tx.ExecContext(ctx, query, isDefault, id)
	return err
}

// ClearDefaultsTx clears is_default on every published definition of the
// entity type. Runs inside the same transaction as the subsequent set so
// there is never a window with two defaults.
func (r *WorkflowRepository) ClearDefaultsTx(ctx context.Context, tx *sql.Tx, entityType string) error {
	query := fmt.Sprintf("UPDATE %s SET is_default = 0 WHERE entity_type = ? AND is_default = 1", constants.TableWorkflow)
	_, err := tx.ExecContext(ctx, query, entityType)
	return err
}

func (r *WorkflowRepository) scanOne(row rowScanner) (*models.Workflow, error) {
	var w models.Workflow
	var description sql.NullString
	var nodesJSON, edgesJSON []byte

	err := row.Scan(
		&w.ID,
		&w.Name,
		&description,
		&w.EntityType,
		&nodesJSON,
		&edgesJSON,
		&w.Version,
		&w.Status,
		&w.IsDefault,
		&w.CreatedBy,
		&w.CreatedDate,
		&w.LastModifiedDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if description.Valid {
		w.Description = &description.String
	}
	if err := json.Unmarshal(nodesJSON, &w.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode workflow nodes: %w", err)
	}
	if err := json.Unmarshal(edgesJSON, &w.Edges); err != nil {
		return nil, fmt.Errorf("failed to decode workflow edges: %w", err)
	}
	return &w, nil
}

func marshalGraph(nodes []flowgraph.FlowNode, edges []flowgraph.FlowEdge) ([]byte, []byte, error) {
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode workflow nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode workflow edges: %w", err)
	}
	return nodesJSON, edgesJSON, nil
}
