// Package workspace owns the set of open pipelines, the active-pipeline
// pointer, and the single current node selection. It is the only component
// external collaborators talk to; graph mutations are delegated to the
// active pipeline's model and persistence to the codec.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mattjoyce/flowdeck/internal/codec"
	"github.com/mattjoyce/flowdeck/internal/events"
	"github.com/mattjoyce/flowdeck/internal/graph"
	"github.com/mattjoyce/flowdeck/internal/plugin"
)

var (
	// ErrPipelineNotFound is returned when an operation names a pipeline id
	// absent from the workspace.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrNoActivePipeline is returned by operations that must produce a
	// value but have no active pipeline to work on. Void mutations no-op
	// instead.
	ErrNoActivePipeline = errors.New("no active pipeline")

	// ErrPluginNotFound is returned when placing a node for a plugin name
	// the catalog cannot resolve.
	ErrPluginNotFound = errors.New("plugin not in catalog")
)

// DefaultPipelineName is used when a pipeline is created without a name.
const DefaultPipelineName = "Untitled Pipeline"

// Store is the workspace state machine. Every exported method is atomic;
// workspace invariants hold between any two calls. Collaborator-bound methods
// (save, open, run, catalog reload) release the lock while blocked so the
// workspace stays editable during slow I/O.
type Store struct {
	catalog *plugin.Catalog
	backend RunSubmitter
	dialog  Dialog
	hub     *events.Hub
	logger  *slog.Logger

	mu             sync.Mutex
	pipelines      map[string]*graph.Pipeline
	order          []string
	activeID       string
	selectedNodeID string
	savedDigests   map[string]string
}

// NewStore creates an empty workspace. backend, dialog and hub may be nil
// when the corresponding collaborator is not wired (tests, headless use).
func NewStore(catalog *plugin.Catalog, backend RunSubmitter, dialog Dialog, hub *events.Hub, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		catalog:      catalog,
		backend:      backend,
		dialog:       dialog,
		hub:          hub,
		logger:       logger,
		pipelines:    make(map[string]*graph.Pipeline),
		savedDigests: make(map[string]string),
	}
}

// CreatePipeline inserts a fresh empty pipeline, makes it active and clears
// the selection. Returns the new pipeline id.
func (s *Store) CreatePipeline(name string) string {
	if name == "" {
		name = DefaultPipelineName
	}

	s.mu.Lock()
	p := &graph.Pipeline{ID: uuid.NewString(), Name: name}
	s.insertLocked(p)
	s.mu.Unlock()

	s.publish(events.TypePipelineCreated, map[string]string{"pipeline_id": p.ID, "name": name})
	return p.ID
}

// SetActive makes the named pipeline active and clears the selection.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	if _, ok := s.pipelines[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("set active %q: %w", id, ErrPipelineNotFound)
	}
	s.activeID = id
	s.selectedNodeID = ""
	s.mu.Unlock()

	s.publish(events.TypePipelineActive, map[string]string{"pipeline_id": id})
	return nil
}

// RemovePipeline deletes a pipeline from the workspace. Removing the active
// pipeline clears the active pointer and the selection.
func (s *Store) RemovePipeline(id string) error {
	s.mu.Lock()
	if _, ok := s.pipelines[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("remove pipeline %q: %w", id, ErrPipelineNotFound)
	}
	delete(s.pipelines, id)
	delete(s.savedDigests, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = ""
		s.selectedNodeID = ""
	}
	s.mu.Unlock()

	s.publish(events.TypePipelineRemoved, map[string]string{"pipeline_id": id})
	return nil
}

// Rename sets the active pipeline's name. No-op when nothing is active.
func (s *Store) Rename(name string) {
	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return
	}
	p.Name = name
	id := p.ID
	s.mu.Unlock()

	s.publish(events.TypePipelineRenamed, map[string]string{"pipeline_id": id, "name": name})
}

// SetSchedule sets the active pipeline's schedule, an opaque value passed
// through to the persisted file. No-op when nothing is active.
func (s *Store) SetSchedule(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.activeLocked(); p != nil {
		p.Schedule = v
	}
}

// PlaceNode instantiates the named plugin as a node of the active pipeline
// at the given canvas position (the drag-drop entry point).
func (s *Store) PlaceNode(pluginName string, pos graph.Position) (string, error) {
	descriptor, ok := s.catalog.Lookup(pluginName)
	if !ok {
		return "", fmt.Errorf("place node: %q: %w", pluginName, ErrPluginNotFound)
	}

	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return "", ErrNoActivePipeline
	}
	node := &graph.Node{
		ID:       uuid.NewString(),
		Plugin:   descriptor,
		Position: pos,
		Params:   map[string]any{},
	}
	if err := graph.NewModel(p, s.logger).AddNode(node); err != nil {
		s.mu.Unlock()
		return "", err
	}
	pipelineID := p.ID
	s.mu.Unlock()

	s.publish(events.TypeNodeAdded, map[string]string{
		"pipeline_id": pipelineID,
		"node_id":     node.ID,
		"plugin":      pluginName,
	})
	return node.ID, nil
}

// RemoveNode removes a node from the active pipeline, cascading its edges.
// No-op (false) when nothing is active or the node is missing. A removed
// node that was selected clears the selection.
func (s *Store) RemoveNode(nodeID string) bool {
	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return false
	}
	removed := graph.NewModel(p, s.logger).RemoveNode(nodeID)
	if removed && s.selectedNodeID == nodeID {
		s.selectedNodeID = ""
	}
	pipelineID := p.ID
	s.mu.Unlock()

	if removed {
		s.publish(events.TypeNodeRemoved, map[string]string{"pipeline_id": pipelineID, "node_id": nodeID})
	}
	return removed
}

// MoveNode updates a node's canvas position. No-op when nothing is active.
func (s *Store) MoveNode(nodeID string, pos graph.Position) {
	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return
	}
	graph.NewModel(p, s.logger).ApplyNodeChanges([]graph.NodeChange{
		{Kind: graph.NodeChangeSetPosition, NodeID: nodeID, Position: pos},
	})
	pipelineID := p.ID
	s.mu.Unlock()

	s.publish(events.TypeNodeMoved, map[string]string{"pipeline_id": pipelineID, "node_id": nodeID})
}

// UpdateNodeParams replaces a node's params wholesale on the active
// pipeline. No-op when nothing is active.
func (s *Store) UpdateNodeParams(nodeID string, params map[string]any) error {
	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return nil
	}
	err := graph.NewModel(p, s.logger).UpdateNodeParams(nodeID, params)
	pipelineID := p.ID
	s.mu.Unlock()

	if err == nil {
		s.publish(events.TypeNodeParams, map[string]string{"pipeline_id": pipelineID, "node_id": nodeID})
	}
	return err
}

// Connect proposes an edge on the active pipeline. With no active pipeline
// the endpoints cannot resolve, so the proposal is rejected unconditionally.
func (s *Store) Connect(prop graph.Proposal) (graph.Edge, *graph.Rejection) {
	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return graph.Edge{}, &graph.Rejection{
			Proposal: prop,
			Reason:   graph.ReasonNoSuchNode,
			Detail:   "no active pipeline",
		}
	}
	edge, rej := graph.NewModel(p, s.logger).Connect(prop)
	pipelineID := p.ID
	s.mu.Unlock()

	if rej != nil {
		s.publish(events.TypeEdgeRejected, map[string]string{
			"pipeline_id": pipelineID,
			"source":      prop.SourceNodeID,
			"target":      prop.TargetNodeID,
			"reason":      string(rej.Reason),
		})
		return graph.Edge{}, rej
	}
	s.publish(events.TypeEdgeConnected, map[string]string{
		"pipeline_id": pipelineID,
		"edge_id":     edge.ID,
	})
	return edge, nil
}

// ApplyNodeChanges forwards a node change batch to the active pipeline and
// applies the extracted selection changes to the workspace selection. The
// most recent selection event wins (single-selection UI). No-op when
// nothing is active.
func (s *Store) ApplyNodeChanges(changes []graph.NodeChange) {
	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return
	}
	selections := graph.NewModel(p, s.logger).ApplyNodeChanges(changes)
	for _, sel := range selections {
		if sel.Selected {
			s.selectedNodeID = sel.NodeID
		} else if s.selectedNodeID == sel.NodeID {
			s.selectedNodeID = ""
		}
	}
	// A removed node cannot stay selected.
	if s.selectedNodeID != "" {
		if _, ok := p.NodeByID(s.selectedNodeID); !ok {
			s.selectedNodeID = ""
		}
	}
	selected := s.selectedNodeID
	pipelineID := p.ID
	s.mu.Unlock()

	if len(selections) > 0 {
		s.publish(events.TypeSelectionChanged, map[string]string{
			"pipeline_id": pipelineID,
			"node_id":     selected,
		})
	}
}

// ApplyEdgeChanges forwards an edge change batch to the active pipeline and
// publishes an event per edge the batch removed. Returns the rejections for
// dropped adds; nil when nothing is active.
func (s *Store) ApplyEdgeChanges(changes []graph.EdgeChange) []graph.Rejection {
	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return nil
	}

	var removed []string
	seen := make(map[string]bool)
	for _, ch := range changes {
		if ch.Kind != graph.EdgeChangeRemove || seen[ch.EdgeID] {
			continue
		}
		if _, ok := p.EdgeByID(ch.EdgeID); ok {
			seen[ch.EdgeID] = true
			removed = append(removed, ch.EdgeID)
		}
	}

	rejections := graph.NewModel(p, s.logger).ApplyEdgeChanges(changes)
	pipelineID := p.ID
	s.mu.Unlock()

	for _, edgeID := range removed {
		s.publish(events.TypeEdgeRemoved, map[string]string{
			"pipeline_id": pipelineID,
			"edge_id":     edgeID,
		})
	}
	return rejections
}

// SelectNode sets the workspace selection. The node must exist in the
// active pipeline (invariant: selection always names an active-pipeline
// node). An empty id clears the selection.
func (s *Store) SelectNode(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nodeID == "" {
		s.selectedNodeID = ""
		return nil
	}
	p := s.activeLocked()
	if p == nil {
		return ErrNoActivePipeline
	}
	if _, ok := p.NodeByID(nodeID); !ok {
		return fmt.Errorf("select node %q: %w", nodeID, graph.ErrNodeNotFound)
	}
	s.selectedNodeID = nodeID
	return nil
}

// Pipelines returns the open pipelines in creation/load order.
func (s *Store) Pipelines() []*graph.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*graph.Pipeline, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pipelines[id])
	}
	return out
}

// Active returns the active pipeline, or nil.
func (s *Store) Active() *graph.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// ActiveID returns the active pipeline id, or "".
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SelectedNodeID returns the selected node id, or "".
func (s *Store) SelectedNodeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedNodeID
}

// Pipeline returns a pipeline by id.
func (s *Store) Pipeline(id string) (*graph.Pipeline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pipelines[id]
	return p, ok
}

// Dirty reports whether a pipeline's content differs from its last save or
// load. A pipeline that was never saved is dirty.
func (s *Store) Dirty(id string) (bool, error) {
	s.mu.Lock()
	p, ok := s.pipelines[id]
	saved := s.savedDigests[id]
	s.mu.Unlock()

	if !ok {
		return false, fmt.Errorf("dirty check %q: %w", id, ErrPipelineNotFound)
	}
	current, err := codec.Digest(p)
	if err != nil {
		return false, err
	}
	return saved != current, nil
}

// insertLocked registers p, makes it active and clears the selection.
func (s *Store) insertLocked(p *graph.Pipeline) {
	s.pipelines[p.ID] = p
	s.order = append(s.order, p.ID)
	s.activeID = p.ID
	s.selectedNodeID = ""
}

func (s *Store) activeLocked() *graph.Pipeline {
	if s.activeID == "" {
		return nil
	}
	return s.pipelines[s.activeID]
}

func (s *Store) publish(eventType string, data any) {
	if s.hub != nil {
		s.hub.Publish(eventType, data)
	}
}
