package flowgraph

import (
	"fmt"

	"github.com/officeflow/backend/pkg/constants"
)

// Graph holds a definition's nodes and edges in their stored order plus
// id-keyed indexes built once per load, so traversal never rescans the raw
// slices. Edge order is significant: the instance engine picks the first
// matching outgoing edge, and that tie-break must match the stored order.
type Graph struct {
	nodes []FlowNode
	edges []FlowEdge

	nodeIndex map[string]int
	outEdges  map[string][]int
}

// NewGraph builds a Graph over the given node and edge slices. The slices are
// not copied; callers must not mutate them afterwards.
func NewGraph(nodes []FlowNode, edges []FlowEdge) *Graph {
	g := &Graph{
		nodes:     nodes,
		edges:     edges,
		nodeIndex: make(map[string]int, len(nodes)),
		outEdges:  make(map[string][]int),
	}
	for i := range nodes {
		g.nodeIndex[nodes[i].ID] = i
	}
	for i := range edges {
		g.outEdges[edges[i].Source] = append(g.outEdges[edges[i].Source], i)
	}
	return g
}

// Nodes returns the nodes in stored order.
func (g *Graph) Nodes() []FlowNode { return g.nodes }

// Edges returns the edges in stored order.
func (g *Graph) Edges() []FlowEdge { return g.edges }

// Node looks up a node by id.
func (g *Graph) Node(id string) (*FlowNode, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[i], true
}

// StartNode returns the single start node, or an error if the graph has none.
func (g *Graph) StartNode() (*FlowNode, error) {
	for i := range g.nodes {
		if g.nodes[i].Type == constants.NodeTypeStart {
			return &g.nodes[i], nil
		}
	}
	return nil, fmt.Errorf("workflow has no start node")
}

// OutgoingEdges returns the edges leaving the given node, preserving the
// definition's stored edge order.
func (g *Graph) OutgoingEdges(nodeID string) []*FlowEdge {
	idxs := g.outEdges[nodeID]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]*FlowEdge, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, &g.edges[i])
	}
	return out
}

// NextEdge scans the outgoing edges of nodeID in stored order and returns the
// first edge whose condition passes against vars. Unconditional edges always
// pass. Returns nil when no edge matches, which callers treat as a designed
// terminal point.
func (g *Graph) NextEdge(nodeID string, vars Variables) *FlowEdge {
	for _, e := range g.OutgoingEdges(nodeID) {
		if e.Condition != "" && vars != nil {
			if !Evaluate(e.Condition, vars) {
				continue
			}
		}
		return e
	}
	return nil
}
