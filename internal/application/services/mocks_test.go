package services

import (
	"context"
	"database/sql"

	"github.com/officeflow/backend/internal/domain/models"
)

// mockWorkflowStore is an in-memory WorkflowStore for service tests.
type mockWorkflowStore struct {
	workflows map[string]*models.Workflow
	insertErr error
}

func newMockWorkflowStore(seed ...*models.Workflow) *mockWorkflowStore {
	m := &mockWorkflowStore{workflows: make(map[string]*models.Workflow)}
	for _, w := range seed {
		m.workflows[w.ID] = w
	}
	return m
}

func (m *mockWorkflowStore) Insert(ctx context.Context, w *models.Workflow) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.workflows[w.ID] = w
	return nil
}

func (m *mockWorkflowStore) InsertTx(ctx context.Context, tx *sql.Tx, w *models.Workflow) error {
	return m.Insert(ctx, w)
}

func (m *mockWorkflowStore) Update(ctx context.Context, w *models.Workflow) error {
	m.workflows[w.ID] = w
	return nil
}

func (m *mockWorkflowStore) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	return m.workflows[id], nil
}

func (m *mockWorkflowStore) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*models.Workflow, error) {
	return m.workflows[id], nil
}

func (m *mockWorkflowStore) List(ctx context.Context, entityType string) ([]*models.Workflow, error) {
	var out []*models.Workflow
	for _, w := range m.workflows {
		if entityType == "" || w.EntityType == entityType {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockWorkflowStore) GetDefaultForEntityType(ctx context.Context, entityType string) (*models.Workflow, error) {
	for _, w := range m.workflows {
		if w.EntityType == entityType && w.IsDefault && w.IsPublished() {
			return w, nil
		}
	}
	return nil, nil
}

func (m *mockWorkflowStore) Delete(ctx context.Context, id string) error {
	delete(m.workflows, id)
	return nil
}

func (m *mockWorkflowStore) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, status string) error {
	if w, ok := m.workflows[id]; ok {
		w.Status = status
	}
	return nil
}

func (m *mockWorkflowStore) SetDefaultFlagTx(ctx context.Context, tx *sql.Tx, id string, isDefault bool) error {
	if w, ok := m.workflows[id]; ok {
		w.IsDefault = isDefault
	}
	return nil
}

func (m *mockWorkflowStore) ClearDefaultsTx(ctx context.Context, tx *sql.Tx, entityType string) error {
	for _, w := range m.workflows {
		if w.EntityType == entityType {
			w.IsDefault = false
		}
	}
	return nil
}

// mockInstanceStore is an in-memory InstanceStore for service tests.
type mockInstanceStore struct {
	instances map[string]*models.WorkflowInstance
	running   map[string]int
}

func newMockInstanceStore(seed ...*models.WorkflowInstance) *mockInstanceStore {
	m := &mockInstanceStore{
		instances: make(map[string]*models.WorkflowInstance),
		running:   make(map[string]int),
	}
	for _, inst := range seed {
		m.instances[inst.ID] = inst
	}
	return m
}

func (m *mockInstanceStore) Insert(ctx context.Context, inst *models.WorkflowInstance) error {
	m.instances[inst.ID] = inst
	return nil
}

func (m *mockInstanceStore) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return m.instances[id], nil
}

func (m *mockInstanceStore) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*models.WorkflowInstance, error) {
	return m.instances[id], nil
}

func (m *mockInstanceStore) UpdateTx(ctx context.Context, tx *sql.Tx, inst *models.WorkflowInstance) error {
	m.instances[inst.ID] = inst
	return nil
}

func (m *mockInstanceStore) ListByEntity(ctx context.Context, entityType, entityID string) ([]*models.WorkflowInstance, error) {
	var out []*models.WorkflowInstance
	for _, inst := range m.instances {
		if inst.EntityType == entityType && inst.EntityID == entityID {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (m *mockInstanceStore) CountRunning(ctx context.Context, workflowID string) (int, error) {
	return m.running[workflowID], nil
}

// mockTxRunner invokes the callback with a nil transaction. The mock stores
// ignore the tx argument, so transactional service paths run unchanged.
type mockTxRunner struct{}

func (m *mockTxRunner) WithTransaction(fn func(tx *sql.Tx) error) error {
	return fn(nil)
}
