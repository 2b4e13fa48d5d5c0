package services

import (
	"context"
	"fmt"
	"time"

	"github.com/officeflow/backend/internal/domain/models"
	"github.com/officeflow/backend/internal/domain/ports"
	"github.com/officeflow/backend/pkg/constants"
	"github.com/officeflow/backend/pkg/errors"
	"github.com/officeflow/backend/pkg/flowgraph"
)

// SimulationService dry-runs a definition against hypothetical variables
// without touching instance state. It is stricter than the live engine: a
// node with no exit is reported as an error rather than treated as a
// completion, and revisiting a node fails the run instead of looping.
type SimulationService struct {
	workflows ports.WorkflowStore
}

// NewSimulationService creates a new SimulationService
func NewSimulationService(workflows ports.WorkflowStore) *SimulationService {
	return &SimulationService{workflows: workflows}
}

// SimulateInput is the payload for a dry-run. The graph comes from the
// caller, not the store, so designers can probe unsaved edits.
type SimulateInput struct {
	Nodes     []flowgraph.FlowNode `json:"nodes"`
	Edges     []flowgraph.FlowEdge `json:"edges"`
	Variables flowgraph.Variables  `json:"variables,omitempty"`
}

// SimulateWorkflow loads a stored definition and dry-runs its graph under
// the given variables.
func (s *SimulationService) SimulateWorkflow(ctx context.Context, id string, variables flowgraph.Variables) (*models.SimulationResult, error) {
	w, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errors.NewNotFoundError("Workflow", id)
	}
	return s.Simulate(SimulateInput{Nodes: w.Nodes, Edges: w.Edges, Variables: variables}), nil
}

// Simulate walks the graph from its start node under the given variables
// and reports the path taken. Publish-strength validation runs first and
// short-circuits the walk when it fails. Each path entry carries the
// condition of the edge the walk followed out of that node.
func (s *SimulationService) Simulate(input SimulateInput) *models.SimulationResult {
	result := &models.SimulationResult{Path: []models.SimulationStep{}}

	if errs := flowgraph.ValidateForPublish(input.Nodes, input.Edges); len(errs) > 0 {
		result.Errors = errs
		return result
	}
	result.Warnings = flowgraph.LintConditions(input.Edges)

	graph := flowgraph.NewGraph(input.Nodes, input.Edges)
	start, err := graph.StartNode()
	if err != nil {
		result.Errors = append(result.Errors, "workflow has no start node")
		return result
	}

	vars := input.Variables
	if vars == nil {
		vars = flowgraph.Variables{}
	}

	visited := make(map[string]bool)
	current := start
	for {
		if visited[current.ID] {
			result.Errors = append(result.Errors, fmt.Sprintf("cycle detected at node '%s'", current.Data.Label))
			return result
		}
		visited[current.ID] = true

		if current.IsEnd() {
			result.Path = append(result.Path, simulationStep(current, nil))
			result.Success = true
			return result
		}

		edge := s.pickEdge(graph, current, vars)
		result.Path = append(result.Path, simulationStep(current, edge))
		if edge == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("no exit from node '%s'", current.Data.Label))
			return result
		}

		next, ok := graph.Node(edge.Target)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("edge '%s' leads to a missing node", edge.ID))
			return result
		}
		current = next
	}
}

// pickEdge selects the outgoing edge the walk follows. Edge conditions only
// participate when leaving a condition node; on every other node type the
// first edge wins regardless of any condition text.
func (s *SimulationService) pickEdge(graph *flowgraph.Graph, node *flowgraph.FlowNode, vars flowgraph.Variables) *flowgraph.FlowEdge {
	edges := graph.OutgoingEdges(node.ID)
	if len(edges) == 0 {
		return nil
	}
	if node.Type != constants.NodeTypeCondition {
		return edges[0]
	}
	for _, e := range edges {
		if e.Condition == "" || flowgraph.Evaluate(e.Condition, vars) {
			return e
		}
	}
	return nil
}

func simulationStep(node *flowgraph.FlowNode, via *flowgraph.FlowEdge) models.SimulationStep {
	step := models.SimulationStep{
		NodeID:    node.ID,
		NodeName:  node.Data.Label,
		NodeType:  node.Type,
		Timestamp: time.Now(),
	}
	if via != nil {
		step.Condition = via.Condition
	}
	return step
}
