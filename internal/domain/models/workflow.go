package models

import (
	"time"

	"github.com/officeflow/backend/pkg/constants"
	"github.com/officeflow/backend/pkg/flowgraph"
)

// Workflow is a named, versioned definition graph governing one entity type.
// Once published it is immutable; republishing forks a new version.
type Workflow struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Description      *string               `json:"description,omitempty"`
	EntityType       string                `json:"entityType"`
	Nodes            []flowgraph.FlowNode  `json:"nodes"`
	Edges            []flowgraph.FlowEdge  `json:"edges"`
	Version          int                   `json:"version"`
	Status           string                `json:"status"` // DRAFT, PUBLISHED
	IsDefault        bool                  `json:"isDefault"`
	CreatedBy        string                `json:"createdBy"`
	CreatedDate      time.Time             `json:"createdDate"`
	LastModifiedDate time.Time             `json:"lastModifiedDate"`
}

// IsPublished reports whether the definition may back live instances.
func (w *Workflow) IsPublished() bool {
	return w.Status == constants.WorkflowStatusPublished
}

// Graph builds the indexed traversal structure over the definition's nodes
// and edges.
func (w *Workflow) Graph() *flowgraph.Graph {
	return flowgraph.NewGraph(w.Nodes, w.Edges)
}

// NodeHistoryEntry is one line of an instance's audit trail. Entries are
// append-only; NodeName is denormalized at visit time so the history stays
// readable even if the definition later changes.
type NodeHistoryEntry struct {
	NodeID    string    `json:"nodeId"`
	NodeName  string    `json:"nodeName"`
	Action    string    `json:"action"` // enter, complete, reject
	UserID    string    `json:"userId,omitempty"`
	Username  string    `json:"username,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowInstance is one execution of a published definition bound to a
// business entity.
type WorkflowInstance struct {
	ID            string                 `json:"id"`
	WorkflowID    string                 `json:"workflowId"`
	EntityID      string                 `json:"entityId"`
	EntityType    string                 `json:"entityType"`
	CurrentNodeID string                 `json:"currentNodeId"`
	Status        string                 `json:"status"` // RUNNING, COMPLETED, REJECTED
	Variables     flowgraph.Variables    `json:"variables,omitempty"`
	ContextData   map[string]interface{} `json:"contextData,omitempty"`
	NodeHistory   []NodeHistoryEntry     `json:"nodeHistory"`
	StartedAt     time.Time              `json:"startedAt"`
	CompletedAt   *time.Time             `json:"completedAt,omitempty"`
}

// IsRunning reports whether the instance can still accept step actions.
func (i *WorkflowInstance) IsRunning() bool {
	return i.Status == constants.InstanceStatusRunning
}

// SimulationStep is one visited node in a dry-run path.
type SimulationStep struct {
	NodeID    string    `json:"nodeId"`
	NodeName  string    `json:"nodeName"`
	NodeType  string    `json:"nodeType"`
	Condition string    `json:"condition,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SimulationResult is the outcome of a definition dry-run.
type SimulationResult struct {
	Success  bool             `json:"success"`
	Errors   []string         `json:"errors,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Path     []SimulationStep `json:"path"`
}
