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

func testGraphJSON(t *testing.T) ([]byte, []byte, []flowgraph.FlowNode, []flowgraph.FlowEdge) {
	t.Helper()
	nodes := []flowgraph.FlowNode{
		{ID: "n1", Type: constants.NodeTypeStart, Data: flowgraph.NodeData{Label: "Start"}},
		{ID: "n2", Type: constants.NodeTypeEnd, Data: flowgraph.NodeData{Label: "End"}},
	}
	edges := []flowgraph.FlowEdge{
		{ID: "e1", Source: "n1", Target: "n2"},
	}
	nodesJSON, err := json.Marshal(nodes)
	require.NoError(t, err)
	edgesJSON, err := json.Marshal(edges)
	require.NoError(t, err)
	return nodesJSON, edgesJSON, nodes, edges
}

func workflowRow(t *testing.T) *sqlmock.Rows {
	nodesJSON, edgesJSON, _, _ := testGraphJSON(t)
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "description", "entity_type", "nodes", "edges",
		"version", "status", "is_default", "created_by", "created_date", "last_modified_date",
	}).AddRow("wf-1", "Leave Approval", nil, "leave_request", nodesJSON, edgesJSON,
		1, constants.WorkflowStatusPublished, true, "user-1", now, now)
}

func TestWorkflowRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+workflowColumns+" FROM "+constants.TableWorkflow+" WHERE id = ? LIMIT 1")).
		WithArgs("wf-1").
		WillReturnRows(workflowRow(t))

	w, err := repo.GetByID(context.Background(), "wf-1")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Leave Approval", w.Name)
	assert.Nil(t, w.Description)
	assert.Len(t, w.Nodes, 2)
	assert.Equal(t, "e1", w.Edges[0].ID)
	assert.True(t, w.IsDefault)
}

func TestWorkflowRepository_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+workflowColumns)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestWorkflowRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)
	nodesJSON, edgesJSON, nodes, edges := testGraphJSON(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO "+constants.TableWorkflow)).
		WithArgs("wf-1", "Leave Approval", nil, "leave_request", nodesJSON, edgesJSON,
			1, constants.WorkflowStatusDraft, false, "user-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Insert(context.Background(), &models.Workflow{
		ID:         "wf-1",
		Name:       "Leave Approval",
		EntityType: "leave_request",
		Nodes:      nodes,
		Edges:      edges,
		Version:    1,
		Status:     constants.WorkflowStatusDraft,
		CreatedBy:  "user-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepository_ListFiltersByEntityType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE entity_type = ? ORDER BY is_default DESC, last_modified_date DESC")).
		WithArgs("leave_request").
		WillReturnRows(workflowRow(t))

	workflows, err := repo.List(context.Background(), "leave_request")
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "wf-1", workflows[0].ID)
}

func TestWorkflowRepository_GetDefaultForEntityType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE entity_type = ? AND status = ? AND is_default = 1 LIMIT 1")).
		WithArgs("leave_request", constants.WorkflowStatusPublished).
		WillReturnRows(workflowRow(t))

	w, err := repo.GetDefaultForEntityType(context.Background(), "leave_request")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.True(t, w.IsDefault)
}

func TestWorkflowRepository_SetDefaultInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET is_default = 0 WHERE entity_type = ? AND is_default = 1")).
		WithArgs("leave_request").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("SET is_default = ?")).
		WithArgs(true, "wf-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = tm.WithTransaction(func(tx *sql.Tx) error {
		if err := repo.ClearDefaultsTx(context.Background(), tx, "leave_request"); err != nil {
			return err
		}
		return repo.SetDefaultFlagTx(context.Background(), tx, "wf-2", true)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkflowRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM "+constants.TableWorkflow+" WHERE id = ?")).
		WithArgs("wf-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
