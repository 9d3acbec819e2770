package graph

import (
	"errors"

	"github.com/mattjoyce/flowdeck/internal/plugin"
)

// Position is a node's canvas location.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is an instantiated use of a plugin inside one pipeline. Params are an
// opaque blob owned by the parameter-form collaborator; the model never
// inspects them.
type Node struct {
	ID       string
	Plugin   *plugin.Descriptor
	Position Position
	Params   map[string]any
}

// Type returns the plugin type of the node, or unknown for a nil descriptor.
func (n *Node) Type() plugin.Type {
	if n.Plugin == nil {
		return plugin.TypeUnknown
	}
	return n.Plugin.Type
}

// Edge is a directed data-flow link between two nodes of one pipeline.
type Edge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`
}

// Pipeline is one editable graph. Nodes and Edges keep insertion order.
type Pipeline struct {
	ID       string
	Name     string
	Schedule any
	Nodes    []*Node
	Edges    []Edge
}

// NodeByID returns the node with the given id, if present.
func (p *Pipeline) NodeByID(id string) (*Node, bool) {
	for _, n := range p.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// EdgeByID returns the edge with the given id, if present.
func (p *Pipeline) EdgeByID(id string) (Edge, bool) {
	for _, e := range p.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

var (
	// ErrNodeNotFound is returned when an operation names a node id absent
	// from the pipeline.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNodeID is returned when adding a node whose id is already
	// taken within the pipeline.
	ErrDuplicateNodeID = errors.New("duplicate node id")
)
