package codec

// TargetInputName is the logical input slot every edge targets. The
// execution backend currently exposes a single fixed slot per node; this
// constant is part of its wire contract.
const TargetInputName = "input_data"

// RunRequest is the minimal DTO submitted to the execution backend for an
// immediate one-time run.
type RunRequest struct {
	Name  string    `json:"name"`
	Nodes []RunNode `json:"nodes"`
	Edges []RunEdge `json:"edges"`
}

// RunNode is one node of a run request.
type RunNode struct {
	ID     string         `json:"id"`
	Plugin string         `json:"plugin"`
	Params map[string]any `json:"params"`
}

// RunEdge is one edge of a run request.
type RunEdge struct {
	SourceNodeID    string `json:"source_node_id"`
	TargetNodeID    string `json:"target_node_id"`
	TargetInputName string `json:"target_input_name"`
}

// RunResponse is the backend's acknowledgement of a run submission.
type RunResponse struct {
	Message      string `json:"message"`
	PipelineName string `json:"pipeline_name"`
}

// PersistedPipeline is the richer DTO written to and read from pipeline
// files. It extends the run-request shape with UI layout and the schedule.
type PersistedPipeline struct {
	Name     string          `json:"name"`
	Schedule any             `json:"schedule"`
	Nodes    []PersistedNode `json:"nodes"`
	Edges    []RunEdge       `json:"edges"`
}

// PersistedNode is one node of a persisted pipeline file.
type PersistedNode struct {
	ID     string         `json:"id"`
	Plugin string         `json:"plugin"`
	Params map[string]any `json:"params"`
	UI     *NodeUI        `json:"_ui,omitempty"`
}

// NodeUI carries editor-only node state that the backend ignores.
type NodeUI struct {
	Position PersistedPosition `json:"position"`
}

// PersistedPosition is a node's canvas location in the file format.
type PersistedPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DiagnosticKind classifies a non-fatal rehydration finding.
type DiagnosticKind string

const (
	// DiagnosticUnknownPlugin marks a node whose plugin is absent from the
	// catalog and was substituted with an unknown stub.
	DiagnosticUnknownPlugin DiagnosticKind = "unknown-plugin"

	// DiagnosticDanglingEdge marks an edge dropped because an endpoint id
	// is absent from the rehydrated node set.
	DiagnosticDanglingEdge DiagnosticKind = "dangling-edge"
)

// Diagnostic reports a recoverable issue found while rehydrating a persisted
// pipeline. Diagnostics never abort the load.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Detail string         `json:"detail"`
}
