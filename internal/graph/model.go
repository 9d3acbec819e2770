package graph

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mattjoyce/flowdeck/internal/plugin"
)

// Model owns the node/edge sequences of one pipeline and applies structural
// change batches. Every change either applies fully or is dropped, so the
// pipeline never straddles a half-applied batch: edges always reference
// present nodes and every edge honors the compatibility matrix at creation
// time.
type Model struct {
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewModel wraps p. The model mutates p in place for its whole lifetime.
func NewModel(p *Pipeline, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{pipeline: p, logger: logger}
}

// Pipeline returns the wrapped pipeline.
func (m *Model) Pipeline() *Pipeline {
	return m.pipeline
}

// ApplyNodeChanges applies a batch of node changes in order and returns the
// selection changes extracted from it. Node removal cascades to every edge
// referencing the removed node. Invalid entries (unknown ids, duplicate
// adds) are dropped; the rest of the batch still applies.
func (m *Model) ApplyNodeChanges(changes []NodeChange) []SelectionChange {
	var selections []SelectionChange

	for _, ch := range changes {
		switch ch.Kind {
		case NodeChangeAdd:
			if ch.Node == nil {
				continue
			}
			if err := m.AddNode(ch.Node); err != nil {
				m.logger.Warn("node add dropped from batch", "node_id", ch.Node.ID, "error", err)
			}
		case NodeChangeRemove:
			if !m.RemoveNode(ch.NodeID) {
				m.logger.Warn("node remove dropped from batch", "node_id", ch.NodeID)
			}
		case NodeChangeSetPosition:
			n, ok := m.pipeline.NodeByID(ch.NodeID)
			if !ok {
				m.logger.Warn("position update dropped from batch", "node_id", ch.NodeID)
				continue
			}
			n.Position = ch.Position
		case NodeChangeSelect:
			selections = append(selections, SelectionChange{NodeID: ch.NodeID, Selected: ch.Selected})
		default:
			m.logger.Warn("unknown node change kind", "kind", string(ch.Kind))
		}
	}

	return selections
}

// ApplyEdgeChanges applies a batch of edge changes in order. Adds rejected
// by the validator or naming a missing node are dropped from the batch and
// reported; other changes in the same batch still apply.
func (m *Model) ApplyEdgeChanges(changes []EdgeChange) []Rejection {
	var rejections []Rejection

	for _, ch := range changes {
		switch ch.Kind {
		case EdgeChangeAdd:
			if _, rej := m.Connect(ch.Proposal); rej != nil {
				rejections = append(rejections, *rej)
			}
		case EdgeChangeRemove:
			m.removeEdge(ch.EdgeID)
		default:
			m.logger.Warn("unknown edge change kind", "kind", string(ch.Kind))
		}
	}

	return rejections
}

// Connect creates the proposed edge if both endpoints resolve and the type
// pair is allowed by the compatibility matrix. Rejection is non-fatal: it
// blocks the edge and carries the reason; Connect never panics or errors.
func (m *Model) Connect(prop Proposal) (Edge, *Rejection) {
	src, ok := m.pipeline.NodeByID(prop.SourceNodeID)
	if !ok {
		return Edge{}, &Rejection{
			Proposal: prop,
			Reason:   ReasonNoSuchNode,
			Detail:   fmt.Sprintf("source node %q does not exist", prop.SourceNodeID),
		}
	}
	dst, ok := m.pipeline.NodeByID(prop.TargetNodeID)
	if !ok {
		return Edge{}, &Rejection{
			Proposal: prop,
			Reason:   ReasonNoSuchNode,
			Detail:   fmt.Sprintf("target node %q does not exist", prop.TargetNodeID),
		}
	}
	if prop.SourceNodeID == prop.TargetNodeID {
		return Edge{}, &Rejection{
			Proposal: prop,
			Reason:   ReasonSelfLoop,
			Detail:   "source and target must be distinct nodes",
		}
	}
	if !plugin.CanConnect(src.Type(), dst.Type()) {
		return Edge{}, &Rejection{
			Proposal: prop,
			Reason:   ReasonIncompatibleTypes,
			Detail:   fmt.Sprintf("%s cannot feed %s", src.Type(), dst.Type()),
		}
	}

	edge := Edge{
		ID:           uuid.NewString(),
		SourceNodeID: prop.SourceNodeID,
		TargetNodeID: prop.TargetNodeID,
	}
	m.pipeline.Edges = append(m.pipeline.Edges, edge)
	return edge, nil
}

// AddNode appends a node to the pipeline. The id must be fresh.
func (m *Model) AddNode(n *Node) error {
	if n.ID == "" {
		return fmt.Errorf("node id is empty")
	}
	if _, exists := m.pipeline.NodeByID(n.ID); exists {
		return fmt.Errorf("add node %q: %w", n.ID, ErrDuplicateNodeID)
	}
	if n.Params == nil {
		n.Params = map[string]any{}
	}
	m.pipeline.Nodes = append(m.pipeline.Nodes, n)
	return nil
}

// RemoveNode removes the node and every edge incident to it. Returns false
// if the node does not exist.
func (m *Model) RemoveNode(id string) bool {
	idx := -1
	for i, n := range m.pipeline.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	m.pipeline.Nodes = append(m.pipeline.Nodes[:idx], m.pipeline.Nodes[idx+1:]...)

	kept := m.pipeline.Edges[:0]
	for _, e := range m.pipeline.Edges {
		if e.SourceNodeID == id || e.TargetNodeID == id {
			continue
		}
		kept = append(kept, e)
	}
	m.pipeline.Edges = kept
	return true
}

// UpdateNodeParams replaces the node's params wholesale. The blob is not
// merged: the parameter-form collaborator owns the entire shape of its data.
func (m *Model) UpdateNodeParams(id string, params map[string]any) error {
	n, ok := m.pipeline.NodeByID(id)
	if !ok {
		return fmt.Errorf("update params for node %q: %w", id, ErrNodeNotFound)
	}
	if params == nil {
		params = map[string]any{}
	}
	n.Params = params
	return nil
}

func (m *Model) removeEdge(id string) {
	for i, e := range m.pipeline.Edges {
		if e.ID == id {
			m.pipeline.Edges = append(m.pipeline.Edges[:i], m.pipeline.Edges[i+1:]...)
			return
		}
	}
	m.logger.Warn("edge remove dropped from batch", "edge_id", id)
}
