package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/officeflow/backend/internal/domain/models"
	"github.com/officeflow/backend/pkg/constants"
	"github.com/officeflow/backend/pkg/flowgraph"
)

func instanceRow(t *testing.T, status string) *sqlmock.Rows {
	t.Helper()
	variablesJSON, err := json.Marshal(flowgraph.Variables{"amount": 500})
	require.NoError(t, err)
	historyJSON, err := json.Marshal([]models.NodeHistoryEntry{
		{NodeID: "n1", NodeName: "Start", Action: constants.HistoryActionEnter, Timestamp: time.Now()},
	})
	require.NoError(t, err)

	return sqlmock.NewRows([]string{
		"id", "workflow_id", "entity_id", "entity_type", "current_node_id",
		"status", "variables", "context_data", "node_history", "started_at", "completed_at",
	}).AddRow("inst-1", "wf-1", "exp-9", "expense", "n2",
		status, variablesJSON, nil, historyJSON, time.Now(), nil)
}

func TestInstanceRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+instanceColumns+" FROM "+constants.TableWorkflowInstance+" WHERE id = ? LIMIT 1")).
		WithArgs("inst-1").
		WillReturnRows(instanceRow(t, constants.InstanceStatusRunning))

	inst, err := repo.GetByID(context.Background(), "inst-1")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "n2", inst.CurrentNodeID)
	assert.Equal(t, float64(500), inst.Variables["amount"])
	assert.Nil(t, inst.ContextData)
	assert.Nil(t, inst.CompletedAt)
	require.Len(t, inst.NodeHistory, 1)
	assert.Equal(t, constants.HistoryActionEnter, inst.NodeHistory[0].Action)
}

func TestInstanceRepository_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+instanceColumns)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inst, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, inst)
}

func TestInstanceRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO "+constants.TableWorkflowInstance)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Insert(context.Background(), &models.WorkflowInstance{
		ID:            "inst-1",
		WorkflowID:    "wf-1",
		EntityID:      "exp-9",
		EntityType:    "expense",
		CurrentNodeID: "n2",
		Status:        constants.InstanceStatusRunning,
		Variables:     flowgraph.Variables{"amount": 500},
		NodeHistory: []models.NodeHistoryEntry{
			{NodeID: "n1", NodeName: "Start", Action: constants.HistoryActionEnter, Timestamp: time.Now()},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceRepository_StepLocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ? LIMIT 1 FOR UPDATE")).
		WithArgs("inst-1").
		WillReturnRows(instanceRow(t, constants.InstanceStatusRunning))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE "+constants.TableWorkflowInstance+" SET current_node_id = ?, status = ?, node_history = ?, completed_at = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = tm.WithTransaction(func(tx *sql.Tx) error {
		inst, err := repo.GetForUpdateTx(context.Background(), tx, "inst-1")
		if err != nil {
			return err
		}
		inst.CurrentNodeID = "n3"
		return repo.UpdateTx(context.Background(), tx, inst)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceRepository_ListByEntity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE entity_type = ? AND entity_id = ? ORDER BY started_at DESC")).
		WithArgs("expense", "exp-9").
		WillReturnRows(instanceRow(t, constants.InstanceStatusCompleted))

	instances, err := repo.ListByEntity(context.Background(), "expense", "exp-9")
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, constants.InstanceStatusCompleted, instances[0].Status)
}

func TestInstanceRepository_CountRunning(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM "+constants.TableWorkflowInstance+" WHERE workflow_id = ? AND status = ?")).
		WithArgs("wf-1", constants.InstanceStatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountRunning(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
