package codec

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/mattjoyce/flowdeck/internal/graph"
	"github.com/mattjoyce/flowdeck/internal/plugin"
)

type staticFetcher []plugin.Descriptor

func (f staticFetcher) FetchCatalog(ctx context.Context) ([]plugin.Descriptor, error) {
	return f, nil
}

func testCatalog(t *testing.T, descriptors ...plugin.Descriptor) *plugin.Catalog {
	t.Helper()
	c := plugin.NewCatalog(staticFetcher(descriptors))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("catalog load: %v", err)
	}
	return c
}

func testPipeline(catalog *plugin.Catalog) *graph.Pipeline {
	from, _ := catalog.Lookup("from_http")
	to, _ := catalog.Lookup("to_ftp")
	return &graph.Pipeline{
		ID:       "pipe-1",
		Name:     "nightly sync",
		Schedule: "0 2 * * *",
		Nodes: []*graph.Node{
			{
				ID:       "n1",
				Plugin:   from,
				Position: graph.Position{X: 120, Y: 40},
				Params:   map[string]any{"url": "https://example.com/data.csv", "retries": float64(3)},
			},
			{
				ID:       "n2",
				Plugin:   to,
				Position: graph.Position{X: 360, Y: 40},
				Params:   map[string]any{"host": "ftp.example.com"},
			},
		},
		Edges: []graph.Edge{
			{ID: "e1", SourceNodeID: "n1", TargetNodeID: "n2"},
		},
	}
}

func TestToRunRequestShape(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t,
		plugin.Descriptor{Name: "from_http", Type: plugin.TypeExtractor},
		plugin.Descriptor{Name: "to_ftp", Type: plugin.TypeLoader},
	)
	req := ToRunRequest(testPipeline(catalog))

	if req.Name != "nightly sync" {
		t.Fatalf("unexpected name: %q", req.Name)
	}
	if len(req.Nodes) != 2 || len(req.Edges) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d edges", len(req.Nodes), len(req.Edges))
	}
	if req.Nodes[0].Plugin != "from_http" {
		t.Fatalf("unexpected plugin ref: %q", req.Nodes[0].Plugin)
	}
	if req.Edges[0].TargetInputName != "input_data" {
		t.Fatalf("every edge must target the fixed input slot, got %q", req.Edges[0].TargetInputName)
	}

	// Wire field names are the backend contract.
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"source_node_id"`, `"target_node_id"`, `"target_input_name"`} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("run request missing field %s: %s", field, data)
		}
	}
}

func TestPersistedRoundTrip(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t,
		plugin.Descriptor{Name: "from_http", Type: plugin.TypeExtractor},
		plugin.Descriptor{Name: "to_ftp", Type: plugin.TypeLoader},
	)
	p := testPipeline(catalog)

	data, err := MarshalPersisted(ToPersisted(p))
	if err != nil {
		t.Fatalf("MarshalPersisted: %v", err)
	}
	dto, err := UnmarshalPersisted(data)
	if err != nil {
		t.Fatalf("UnmarshalPersisted: %v", err)
	}

	got, diags := FromPersisted(dto, catalog)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if got.Name != p.Name || got.Schedule != p.Schedule {
		t.Fatalf("name/schedule not preserved: %q %v", got.Name, got.Schedule)
	}
	if len(got.Nodes) != len(p.Nodes) {
		t.Fatalf("expected %d nodes, got %d", len(p.Nodes), len(got.Nodes))
	}
	for i, n := range got.Nodes {
		want := p.Nodes[i]
		if n.ID != want.ID {
			t.Fatalf("node %d id: got %q want %q", i, n.ID, want.ID)
		}
		if n.Plugin.Name != want.Plugin.Name {
			t.Fatalf("node %d plugin: got %q want %q", i, n.Plugin.Name, want.Plugin.Name)
		}
		if n.Position != want.Position {
			t.Fatalf("node %d position: got %v want %v", i, n.Position, want.Position)
		}
		if !reflect.DeepEqual(n.Params, want.Params) {
			t.Fatalf("node %d params: got %v want %v", i, n.Params, want.Params)
		}
	}
	if len(got.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(got.Edges))
	}
	if got.Edges[0].SourceNodeID != "n1" || got.Edges[0].TargetNodeID != "n2" {
		t.Fatalf("edge endpoints not preserved: %+v", got.Edges[0])
	}
}

func TestFromPersistedSubstitutesUnknownStub(t *testing.T) {
	t.Parallel()

	dto := PersistedPipeline{
		Name: "orphaned",
		Nodes: []PersistedNode{
			{
				ID:     "n1",
				Plugin: "retired_plugin",
				Params: map[string]any{"keep": "me", "nested": map[string]any{"deep": true}},
			},
		},
	}

	// Catalog does not contain retired_plugin.
	p, diags := FromPersisted(dto, testCatalog(t))

	if len(diags) != 1 || diags[0].Kind != DiagnosticUnknownPlugin {
		t.Fatalf("expected one unknown-plugin diagnostic, got %v", diags)
	}
	n := p.Nodes[0]
	if n.Plugin.Type != plugin.TypeUnknown {
		t.Fatalf("expected unknown stub, got %s", n.Plugin.Type)
	}
	if n.Plugin.Name != "retired_plugin" {
		t.Fatalf("stub must keep the plugin name, got %q", n.Plugin.Name)
	}
	// Params preserved verbatim even though they cannot be validated.
	if !reflect.DeepEqual(n.Params, dto.Nodes[0].Params) {
		t.Fatalf("params not preserved: %v", n.Params)
	}
}

func TestFromPersistedDropsDanglingEdges(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, plugin.Descriptor{Name: "from_http", Type: plugin.TypeExtractor})
	dto := PersistedPipeline{
		Name: "broken",
		Nodes: []PersistedNode{
			{ID: "n1", Plugin: "from_http"},
		},
		Edges: []RunEdge{
			{SourceNodeID: "n1", TargetNodeID: "deleted", TargetInputName: TargetInputName},
		},
	}

	p, diags := FromPersisted(dto, catalog)

	if len(p.Edges) != 0 {
		t.Fatalf("dangling edge must be dropped, got %d edges", len(p.Edges))
	}
	if len(diags) != 1 || diags[0].Kind != DiagnosticDanglingEdge {
		t.Fatalf("expected a dangling-edge diagnostic, got %v", diags)
	}
}

func TestFromPersistedDefaultsPositionToOrigin(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, plugin.Descriptor{Name: "from_http", Type: plugin.TypeExtractor})
	dto := PersistedPipeline{
		Name:  "no layout",
		Nodes: []PersistedNode{{ID: "n1", Plugin: "from_http"}},
	}

	p, _ := FromPersisted(dto, catalog)
	if p.Nodes[0].Position != (graph.Position{}) {
		t.Fatalf("expected origin position, got %v", p.Nodes[0].Position)
	}
}

func TestMarshalPersistedIsPrettyPrinted(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t,
		plugin.Descriptor{Name: "from_http", Type: plugin.TypeExtractor},
		plugin.Descriptor{Name: "to_ftp", Type: plugin.TypeLoader},
	)
	data, err := MarshalPersisted(ToPersisted(testPipeline(catalog)))
	if err != nil {
		t.Fatalf("MarshalPersisted: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"nodes\"") {
		t.Fatalf("pipeline file must be pretty-printed:\n%s", data)
	}
	if !strings.Contains(string(data), `"_ui"`) {
		t.Fatalf("pipeline file must carry node UI state:\n%s", data)
	}
}

func TestUnmarshalPersistedRequiresName(t *testing.T) {
	t.Parallel()

	if _, err := UnmarshalPersisted([]byte(`{"nodes":[],"edges":[]}`)); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if _, err := UnmarshalPersisted([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestDigestTracksContent(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t,
		plugin.Descriptor{Name: "from_http", Type: plugin.TypeExtractor},
		plugin.Descriptor{Name: "to_ftp", Type: plugin.TypeLoader},
	)

	a, err := Digest(testPipeline(catalog))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	b, err := Digest(testPipeline(catalog))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if a != b {
		t.Fatalf("equal pipelines must share a digest: %s vs %s", a, b)
	}

	changed := testPipeline(catalog)
	changed.Nodes[0].Params["url"] = "https://example.com/other.csv"
	c, err := Digest(changed)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if c == a {
		t.Fatalf("param change must change the digest")
	}
}
