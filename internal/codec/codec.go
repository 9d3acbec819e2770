// Package codec converts between the editable pipeline graph and the wire
// and file formats consumed by the execution backend and persisted files.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mattjoyce/flowdeck/internal/graph"
	"github.com/mattjoyce/flowdeck/internal/plugin"
)

// ToRunRequest projects a pipeline into the run-request DTO sent to the
// execution backend. UI-only state (positions, selection) is stripped.
func ToRunRequest(p *graph.Pipeline) RunRequest {
	req := RunRequest{
		Name:  p.Name,
		Nodes: make([]RunNode, 0, len(p.Nodes)),
		Edges: make([]RunEdge, 0, len(p.Edges)),
	}

	for _, n := range p.Nodes {
		req.Nodes = append(req.Nodes, RunNode{
			ID:     n.ID,
			Plugin: pluginName(n),
			Params: paramsOrEmpty(n.Params),
		})
	}
	for _, e := range p.Edges {
		req.Edges = append(req.Edges, RunEdge{
			SourceNodeID:    e.SourceNodeID,
			TargetNodeID:    e.TargetNodeID,
			TargetInputName: TargetInputName,
		})
	}
	return req
}

// ToPersisted projects a pipeline into the persisted-file DTO: run-request
// shape plus per-node canvas position and the pipeline schedule.
func ToPersisted(p *graph.Pipeline) PersistedPipeline {
	dto := PersistedPipeline{
		Name:     p.Name,
		Schedule: p.Schedule,
		Nodes:    make([]PersistedNode, 0, len(p.Nodes)),
		Edges:    make([]RunEdge, 0, len(p.Edges)),
	}

	for _, n := range p.Nodes {
		dto.Nodes = append(dto.Nodes, PersistedNode{
			ID:     n.ID,
			Plugin: pluginName(n),
			Params: paramsOrEmpty(n.Params),
			UI:     &NodeUI{Position: PersistedPosition{X: n.Position.X, Y: n.Position.Y}},
		})
	}
	for _, e := range p.Edges {
		dto.Edges = append(dto.Edges, RunEdge{
			SourceNodeID:    e.SourceNodeID,
			TargetNodeID:    e.TargetNodeID,
			TargetInputName: TargetInputName,
		})
	}
	return dto
}

// MarshalPersisted serializes a persisted DTO as pretty-printed UTF-8 JSON,
// the on-disk pipeline file format.
func MarshalPersisted(dto PersistedPipeline) ([]byte, error) {
	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal pipeline file: %w", err)
	}
	return data, nil
}

// UnmarshalPersisted parses a pipeline file. Unknown fields are tolerated so
// files written by newer editors still open.
func UnmarshalPersisted(data []byte) (PersistedPipeline, error) {
	var dto PersistedPipeline
	if err := json.Unmarshal(data, &dto); err != nil {
		return PersistedPipeline{}, fmt.Errorf("parse pipeline file: %w", err)
	}
	if dto.Name == "" {
		return PersistedPipeline{}, fmt.Errorf("pipeline file missing required field: name")
	}
	return dto, nil
}

// FromPersisted rehydrates a persisted DTO into an editable pipeline using
// the current catalog snapshot. Nodes referencing plugins absent from the
// catalog get an unknown stub with params kept verbatim, so a round trip
// through an environment with a different catalog loses no user data. Edges
// referencing absent node ids are dropped with a diagnostic. The returned
// pipeline carries no id; the workspace mints a fresh one on insert.
func FromPersisted(dto PersistedPipeline, catalog *plugin.Catalog) (*graph.Pipeline, []Diagnostic) {
	p := &graph.Pipeline{
		Name:     dto.Name,
		Schedule: dto.Schedule,
		Nodes:    make([]*graph.Node, 0, len(dto.Nodes)),
		Edges:    make([]graph.Edge, 0, len(dto.Edges)),
	}

	var diags []Diagnostic
	present := make(map[string]bool, len(dto.Nodes))

	for _, pn := range dto.Nodes {
		descriptor, ok := catalog.Lookup(pn.Plugin)
		if !ok {
			descriptor = plugin.UnknownStub(pn.Plugin)
			diags = append(diags, Diagnostic{
				Kind:   DiagnosticUnknownPlugin,
				Detail: fmt.Sprintf("plugin %q is not in the catalog; node %q degraded to unknown", pn.Plugin, pn.ID),
			})
		}

		pos := graph.Position{}
		if pn.UI != nil {
			pos = graph.Position{X: pn.UI.Position.X, Y: pn.UI.Position.Y}
		}

		p.Nodes = append(p.Nodes, &graph.Node{
			ID:       pn.ID,
			Plugin:   descriptor,
			Position: pos,
			Params:   paramsOrEmpty(pn.Params),
		})
		present[pn.ID] = true
	}

	for _, pe := range dto.Edges {
		if !present[pe.SourceNodeID] || !present[pe.TargetNodeID] {
			diags = append(diags, Diagnostic{
				Kind:   DiagnosticDanglingEdge,
				Detail: fmt.Sprintf("edge %s -> %s references a missing node; dropped", pe.SourceNodeID, pe.TargetNodeID),
			})
			continue
		}
		p.Edges = append(p.Edges, graph.Edge{
			ID:           uuid.NewString(),
			SourceNodeID: pe.SourceNodeID,
			TargetNodeID: pe.TargetNodeID,
		})
	}

	return p, diags
}

func pluginName(n *graph.Node) string {
	if n.Plugin == nil {
		return ""
	}
	return n.Plugin.Name
}

func paramsOrEmpty(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	return params
}
