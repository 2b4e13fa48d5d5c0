package flowgraph

import "github.com/officeflow/backend/pkg/constants"

// Position is designer canvas layout data. It has no runtime meaning but must
// survive serialization round-trips for the designer UI.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the per-node payload. The wire shape is shared by all node
// types; which fields are meaningful depends on the node type and is enforced
// by the validator, not by the struct.
type NodeData struct {
	Label        string `json:"label"`
	Assignee     string `json:"assignee,omitempty"`
	AssigneeType string `json:"assigneeType,omitempty"`
	Condition    string `json:"condition,omitempty"`
	ParallelType string `json:"parallelType,omitempty"`
	Timeout      *int   `json:"timeout,omitempty"`
	Reminder     *int   `json:"reminder,omitempty"`
	Description  string `json:"description,omitempty"`
}

// FlowNode is a typed step in a workflow graph.
type FlowNode struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// IsStart reports whether the node is the entry node.
func (n *FlowNode) IsStart() bool { return n.Type == constants.NodeTypeStart }

// IsEnd reports whether the node is a terminal node.
func (n *FlowNode) IsEnd() bool { return n.Type == constants.NodeTypeEnd }

// RequiresAssignee reports whether the node type must carry an assignee
// before the definition may be published.
func (n *FlowNode) RequiresAssignee() bool {
	return n.Type == constants.NodeTypeApproval || n.Type == constants.NodeTypeParallel
}

// FlowEdge is a directed transition between two nodes. Condition, when set,
// is a branch label evaluated against instance variables; an empty condition
// is the default (unconditional) transition.
type FlowEdge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Label     string `json:"label,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// Variables is the evaluation context for edge conditions.
type Variables map[string]interface{}

// validNodeTypes is the closed set of node types the engine understands.
var validNodeTypes = map[string]bool{
	constants.NodeTypeStart:     true,
	constants.NodeTypeApproval:  true,
	constants.NodeTypeCondition: true,
	constants.NodeTypeParallel:  true,
	constants.NodeTypeEnd:       true,
}

// IsValidNodeType reports whether t is a recognized node type.
func IsValidNodeType(t string) bool { return validNodeTypes[t] }
