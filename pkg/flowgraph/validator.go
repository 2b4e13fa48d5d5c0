package flowgraph

import (
	"fmt"

	"github.com/officeflow/backend/pkg/constants"
)

// Validate checks the structural invariants of a node/edge graph and returns
// every violation found. Checks are independent so a designer can fix all
// problems in one pass; an empty result means the graph is structurally sound.
func Validate(nodes []FlowNode, edges []FlowEdge) []string {
	var errs []string

	startCount := 0
	endCount := 0
	for i := range nodes {
		switch nodes[i].Type {
		case constants.NodeTypeStart:
			startCount++
		case constants.NodeTypeEnd:
			endCount++
		}
	}
	if startCount == 0 {
		errs = append(errs, "workflow must contain a start node")
	} else if startCount > 1 {
		errs = append(errs, "workflow can only have one start node")
	}
	if endCount == 0 {
		errs = append(errs, "workflow must contain at least one end node")
	}

	nodeIDs := make(map[string]bool, len(nodes))
	for i := range nodes {
		node := &nodes[i]
		if node.ID == "" {
			errs = append(errs, fmt.Sprintf("node %d is missing an id", i+1))
		} else {
			nodeIDs[node.ID] = true
		}
		if node.Type == "" {
			errs = append(errs, fmt.Sprintf("node %s is missing a type", nodeRef(node, i)))
		} else if !IsValidNodeType(node.Type) {
			errs = append(errs, fmt.Sprintf("node %s has unknown type %q", nodeRef(node, i), node.Type))
		}
		if node.Data.Label == "" {
			errs = append(errs, fmt.Sprintf("node %s is missing a label", nodeRef(node, i)))
		}
	}

	for i := range edges {
		edge := &edges[i]
		if edge.Source == "" {
			errs = append(errs, fmt.Sprintf("edge %d is missing a source node", i+1))
		} else if !nodeIDs[edge.Source] {
			errs = append(errs, fmt.Sprintf("edge %d references a missing source node", i+1))
		}
		if edge.Target == "" {
			errs = append(errs, fmt.Sprintf("edge %d is missing a target node", i+1))
		} else if !nodeIDs[edge.Target] {
			errs = append(errs, fmt.Sprintf("edge %d references a missing target node", i+1))
		}
	}

	connected := make(map[string]bool)
	for i := range edges {
		connected[edges[i].Source] = true
		connected[edges[i].Target] = true
	}
	for i := range nodes {
		node := &nodes[i]
		if node.Type == constants.NodeTypeStart || node.Type == constants.NodeTypeEnd {
			continue
		}
		if !connected[node.ID] {
			errs = append(errs, fmt.Sprintf("node %q is not connected to the flow", node.Data.Label))
		}
	}

	return errs
}

// ValidateForPublish runs the structural checks plus the stricter rules a
// definition must satisfy before it may back live instances: approval and
// parallel nodes need an approver, and condition nodes need at least two
// outgoing branches with at most one default (unlabeled) branch.
func ValidateForPublish(nodes []FlowNode, edges []FlowEdge) []string {
	errs := Validate(nodes, edges)

	for i := range nodes {
		node := &nodes[i]
		if node.RequiresAssignee() && node.Data.Assignee == "" && node.Data.AssigneeType == "" {
			errs = append(errs, fmt.Sprintf("node %q is missing an approver", node.Data.Label))
		}
	}

	for i := range nodes {
		node := &nodes[i]
		if node.Type != constants.NodeTypeCondition {
			continue
		}
		outgoing := 0
		unlabeled := 0
		for j := range edges {
			if edges[j].Source != node.ID {
				continue
			}
			outgoing++
			if edges[j].Condition == "" {
				unlabeled++
			}
		}
		if outgoing < 2 {
			errs = append(errs, fmt.Sprintf("condition node %q needs at least two outgoing branches", node.Data.Label))
		}
		if unlabeled > 1 {
			errs = append(errs, fmt.Sprintf("condition node %q has more than one unlabeled branch", node.Data.Label))
		}
	}

	return errs
}

// LintConditions returns warnings for edge conditions the evaluator cannot
// split into a comparison. Such conditions are legal but always evaluate to
// true at runtime, which usually means a typo. Warnings never block a
// publish; they are surfaced to the designer alongside it.
func LintConditions(edges []FlowEdge) []string {
	var warnings []string
	for i := range edges {
		cond := edges[i].Condition
		if cond == "" {
			continue
		}
		if !IsComparison(cond) {
			warnings = append(warnings,
				fmt.Sprintf("edge condition %q is not a recognized comparison and will always pass", cond))
		}
	}
	return warnings
}

func nodeRef(node *FlowNode, index int) string {
	if node.ID != "" {
		return node.ID
	}
	return fmt.Sprintf("%d", index+1)
}
