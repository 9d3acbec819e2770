package api

import (
	"github.com/mattjoyce/flowdeck/internal/codec"
	"github.com/mattjoyce/flowdeck/internal/graph"
)

// CreatePipelineRequest is the JSON body for POST /pipelines.
type CreatePipelineRequest struct {
	Name string `json:"name"`
}

// CreatePipelineResponse is returned on pipeline creation.
type CreatePipelineResponse struct {
	PipelineID string `json:"pipeline_id"`
	Name       string `json:"name"`
}

// RenameRequest is the JSON body for POST /pipelines/active/rename.
type RenameRequest struct {
	Name string `json:"name"`
}

// ScheduleRequest is the JSON body for POST /pipelines/active/schedule.
type ScheduleRequest struct {
	Schedule any `json:"schedule"`
}

// AddNodeRequest is the JSON body for POST /pipelines/active/nodes.
type AddNodeRequest struct {
	Plugin   string         `json:"plugin"`
	Position graph.Position `json:"position"`
}

// AddNodeResponse is returned on node placement.
type AddNodeResponse struct {
	NodeID string `json:"node_id"`
}

// PositionRequest is the JSON body for node position updates.
type PositionRequest struct {
	Position graph.Position `json:"position"`
}

// ParamsRequest is the JSON body for node param updates.
type ParamsRequest struct {
	Params map[string]any `json:"params"`
}

// SelectRequest is the JSON body for node selection. An empty node id on the
// selection endpoint clears the selection.
type SelectRequest struct {
	Selected bool `json:"selected"`
}

// ConnectRequest is the JSON body for POST /pipelines/active/connect.
type ConnectRequest struct {
	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`
}

// ConnectResponse is returned when a connection is accepted.
type ConnectResponse struct {
	Edge graph.Edge `json:"edge"`
}

// RejectionResponse is returned with 422 when a connection is rejected.
type RejectionResponse struct {
	Rejection graph.Rejection `json:"rejection"`
}

// OpenRequest is the JSON body for POST /pipelines/open.
type OpenRequest struct {
	File string `json:"file"`
}

// OpenResponse is returned on a successful open.
type OpenResponse struct {
	PipelineID  string             `json:"pipeline_id"`
	Diagnostics []codec.Diagnostic `json:"diagnostics"`
}

// SaveResponse is returned on a successful save.
type SaveResponse struct {
	Path string `json:"path"`
}

// PipelineSummary is one pipeline in the workspace summary.
type PipelineSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
	Active bool   `json:"active"`
	Dirty  bool   `json:"dirty"`
}

// WorkspaceResponse is returned by GET /workspace.
type WorkspaceResponse struct {
	Pipelines      []PipelineSummary `json:"pipelines"`
	ActiveID       string            `json:"active_id"`
	SelectedNodeID string            `json:"selected_node_id"`
	CatalogSize    int               `json:"catalog_size"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Pipelines     int    `json:"pipelines"`
	CatalogSize   int    `json:"catalog_size"`
}
