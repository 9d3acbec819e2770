package graph

// NodeChangeKind enumerates the structural node changes a batch may carry.
type NodeChangeKind string

const (
	NodeChangeAdd         NodeChangeKind = "add"
	NodeChangeRemove      NodeChangeKind = "remove"
	NodeChangeSetPosition NodeChangeKind = "set-position"
	NodeChangeSelect      NodeChangeKind = "select"
)

// NodeChange is one entry of a node change batch. The populated fields
// depend on Kind: add carries Node; the rest carry NodeID plus Position or
// Selected as applicable.
type NodeChange struct {
	Kind     NodeChangeKind
	Node     *Node
	NodeID   string
	Position Position
	Selected bool
}

// SelectionChange reports a select-kind change back to the caller. Selection
// is workspace-scoped, not pipeline-scoped, so the model extracts these
// instead of storing them.
type SelectionChange struct {
	NodeID   string
	Selected bool
}

// EdgeChangeKind enumerates the edge changes a batch may carry.
type EdgeChangeKind string

const (
	EdgeChangeAdd    EdgeChangeKind = "add"
	EdgeChangeRemove EdgeChangeKind = "remove"
)

// EdgeChange is one entry of an edge change batch. Add carries Proposal,
// remove carries EdgeID.
type EdgeChange struct {
	Kind     EdgeChangeKind
	Proposal Proposal
	EdgeID   string
}

// Proposal names the endpoints of an edge the caller wants created.
type Proposal struct {
	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`
}

// RejectionReason classifies why a connection proposal was refused.
type RejectionReason string

const (
	ReasonNoSuchNode        RejectionReason = "no-such-node"
	ReasonIncompatibleTypes RejectionReason = "incompatible-types"
	ReasonSelfLoop          RejectionReason = "self-loop"
)

// Rejection is the structured result for a refused connection. It is a
// value, not an error: rejections block only the offending edge and are
// meant to be shown to the user or asserted in tests.
type Rejection struct {
	Proposal Proposal        `json:"proposal"`
	Reason   RejectionReason `json:"reason"`
	Detail   string          `json:"detail"`
}
