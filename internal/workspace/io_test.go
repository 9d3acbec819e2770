package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/flowdeck/internal/codec"
	"github.com/mattjoyce/flowdeck/internal/graph"
	"github.com/mattjoyce/flowdeck/internal/plugin"
	"github.com/mattjoyce/flowdeck/internal/workspace/mocks"
)

func TestLoadPipelineMintsFreshID(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	dto := codec.PersistedPipeline{
		Name:  "from file",
		Nodes: []codec.PersistedNode{{ID: "n1", Plugin: "from_http", Params: map[string]any{}}},
	}

	first, diags := s.LoadPipeline(dto)
	require.Empty(t, diags)
	second, _ := s.LoadPipeline(dto)

	// Repeated loads of the same file coexist under distinct ids.
	assert.NotEqual(t, first, second)
	assert.Len(t, s.Pipelines(), 2)
	assert.Equal(t, second, s.ActiveID())
	assert.Empty(t, s.SelectedNodeID())

	// A freshly loaded pipeline matches its file content.
	dirty, err := s.Dirty(second)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dialog := mocks.NewMockDialog(ctrl)
	var saved []byte
	dialog.EXPECT().Save(gomock.Any(), gomock.Any(), "etl_demo.json").DoAndReturn(
		func(ctx context.Context, data []byte, defaultName string) (string, error) {
			saved = data
			return "/tmp/etl_demo.json", nil
		})

	s := NewStore(testCatalog(t), nil, dialog, nil, nil)
	s.CreatePipeline("etl demo")

	a, err := s.PlaceNode("from_http", graph.Position{X: 100, Y: 50})
	require.NoError(t, err)
	b, err := s.PlaceNode("to_ftp", graph.Position{X: 300, Y: 50})
	require.NoError(t, err)
	require.NoError(t, s.UpdateNodeParams(a, map[string]any{"url": "https://example.com/x.csv"}))

	_, rej := s.Connect(graph.Proposal{SourceNodeID: a, TargetNodeID: b})
	require.Nil(t, rej)
	// Loader has no output handle: the reverse direction must be rejected.
	_, rej = s.Connect(graph.Proposal{SourceNodeID: b, TargetNodeID: a})
	require.NotNil(t, rej)

	path, err := s.SavePipeline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/etl_demo.json", path)

	dirty, err := s.Dirty(s.ActiveID())
	require.NoError(t, err)
	assert.False(t, dirty, "just-saved pipeline must be clean")

	// Load the captured file into a fresh workspace with the same catalog.
	openDialog := mocks.NewMockDialog(ctrl)
	openDialog.EXPECT().Open(gomock.Any()).Return(saved, "/tmp/etl_demo.json", nil)

	fresh := NewStore(testCatalog(t), nil, openDialog, nil, nil)
	_, diags, err := fresh.OpenPipeline(context.Background())
	require.NoError(t, err)
	assert.Empty(t, diags)

	p := fresh.Active()
	require.NotNil(t, p)
	assert.Equal(t, "etl demo", p.Name)
	require.Len(t, p.Nodes, 2)
	require.Len(t, p.Edges, 1)

	gotA, ok := p.NodeByID(a)
	require.True(t, ok)
	assert.Equal(t, graph.Position{X: 100, Y: 50}, gotA.Position)
	assert.Equal(t, map[string]any{"url": "https://example.com/x.csv"}, gotA.Params)
	assert.Equal(t, a, p.Edges[0].SourceNodeID)
	assert.Equal(t, b, p.Edges[0].TargetNodeID)
}

func TestSavePipelineWithoutActive(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewStore(testCatalog(t), nil, mocks.NewMockDialog(ctrl), nil, nil)
	_, err := s.SavePipeline(context.Background())
	assert.True(t, errors.Is(err, ErrNoActivePipeline))
}

func TestSaveMarksPipelineCleanUntilNextEdit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dialog := mocks.NewMockDialog(ctrl)
	dialog.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return("/tmp/p.json", nil)

	s := NewStore(testCatalog(t), nil, dialog, nil, nil)
	id := s.CreatePipeline("p")
	_, err := s.PlaceNode("from_http", graph.Position{})
	require.NoError(t, err)

	_, err = s.SavePipeline(context.Background())
	require.NoError(t, err)

	dirty, err := s.Dirty(id)
	require.NoError(t, err)
	assert.False(t, dirty)

	_, err = s.PlaceNode("to_ftp", graph.Position{})
	require.NoError(t, err)

	dirty, err = s.Dirty(id)
	require.NoError(t, err)
	assert.True(t, dirty, "edit after save must mark the pipeline dirty")
}

func TestOpenPipelineCancelLeavesWorkspaceUnchanged(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dialog := mocks.NewMockDialog(ctrl)
	dialog.EXPECT().Open(gomock.Any()).Return(nil, "", ErrCancelled)

	s := NewStore(testCatalog(t), nil, dialog, nil, nil)
	before := s.CreatePipeline("keep me")

	_, _, err := s.OpenPipeline(context.Background())
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.Len(t, s.Pipelines(), 1)
	assert.Equal(t, before, s.ActiveID())
}

func TestOpenPipelineRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dialog := mocks.NewMockDialog(ctrl)
	dialog.EXPECT().Open(gomock.Any()).Return([]byte("not a pipeline"), "/tmp/bad.json", nil)

	s := NewStore(testCatalog(t), nil, dialog, nil, nil)
	_, _, err := s.OpenPipeline(context.Background())
	require.Error(t, err)
	assert.Empty(t, s.Pipelines(), "failed open must not touch the workspace")
}

func TestSubmitRun(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	backend := mocks.NewMockRunSubmitter(ctrl)
	backend.EXPECT().SubmitRun(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req codec.RunRequest) (codec.RunResponse, error) {
			assert.Equal(t, "runnable", req.Name)
			require.Len(t, req.Edges, 1)
			assert.Equal(t, codec.TargetInputName, req.Edges[0].TargetInputName)
			return codec.RunResponse{Message: "Immediate pipeline execution started.", PipelineName: req.Name}, nil
		})

	s := NewStore(testCatalog(t), backend, nil, nil, nil)
	s.CreatePipeline("runnable")
	a, _ := s.PlaceNode("from_http", graph.Position{})
	b, _ := s.PlaceNode("to_ftp", graph.Position{})
	_, rej := s.Connect(graph.Proposal{SourceNodeID: a, TargetNodeID: b})
	require.Nil(t, rej)

	resp, err := s.SubmitRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "runnable", resp.PipelineName)
}

func TestSubmitRunSurfacesBackendError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	backend := mocks.NewMockRunSubmitter(ctrl)
	backend.EXPECT().SubmitRun(gomock.Any(), gomock.Any()).Return(codec.RunResponse{}, errors.New("detail: spark cluster down"))

	s := NewStore(testCatalog(t), backend, nil, nil, nil)
	s.CreatePipeline("doomed")

	_, err := s.SubmitRun(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spark cluster down")
	// The workspace is untouched by a failed submission.
	assert.Len(t, s.Pipelines(), 1)
}

func TestSubmitRunWithoutActive(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewStore(testCatalog(t), mocks.NewMockRunSubmitter(ctrl), nil, nil, nil)
	_, err := s.SubmitRun(context.Background())
	assert.True(t, errors.Is(err, ErrNoActivePipeline))
}

func TestReloadCatalogFailureEmptiesCatalog(t *testing.T) {
	t.Parallel()

	fetcher := &staticFetcher{descriptors: []plugin.Descriptor{{Name: "from_http", Type: plugin.TypeExtractor}}}
	catalog := plugin.NewCatalog(fetcher)
	s := NewStore(catalog, nil, nil, nil, nil)

	require.NoError(t, s.ReloadCatalog(context.Background()))
	assert.Equal(t, 1, catalog.Len())

	fetcher.err = errors.New("backend unreachable")
	require.Error(t, s.ReloadCatalog(context.Background()))
	assert.Equal(t, 0, catalog.Len())
}

func TestLoadPipelineWithUnknownPluginKeepsParams(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	dto := codec.PersistedPipeline{
		Name: "legacy",
		Nodes: []codec.PersistedNode{
			{ID: "n1", Plugin: "retired", Params: map[string]any{"secret_sauce": true}},
		},
	}

	id, diags := s.LoadPipeline(dto)
	require.Len(t, diags, 1)
	assert.Equal(t, codec.DiagnosticUnknownPlugin, diags[0].Kind)

	p, _ := s.Pipeline(id)
	n, ok := p.NodeByID("n1")
	require.True(t, ok)
	assert.Equal(t, plugin.TypeUnknown, n.Plugin.Type)
	assert.Equal(t, map[string]any{"secret_sauce": true}, n.Params)
}
