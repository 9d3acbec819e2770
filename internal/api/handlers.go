package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/flowdeck/internal/codec"
	"github.com/mattjoyce/flowdeck/internal/graph"
	"github.com/mattjoyce/flowdeck/internal/workspace"
)

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Pipelines:     len(s.store.Pipelines()),
		CatalogSize:   s.catalog.Len(),
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleWorkspace handles GET /workspace.
func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	activeID := s.store.ActiveID()
	pipelines := s.store.Pipelines()

	summaries := make([]PipelineSummary, 0, len(pipelines))
	for _, p := range pipelines {
		dirty, err := s.store.Dirty(p.ID)
		if err != nil {
			// Pipeline removed between listing and dirty check; skip it.
			continue
		}
		summaries = append(summaries, PipelineSummary{
			ID:     p.ID,
			Name:   p.Name,
			Nodes:  len(p.Nodes),
			Edges:  len(p.Edges),
			Active: p.ID == activeID,
			Dirty:  dirty,
		})
	}

	respondJSON(w, http.StatusOK, WorkspaceResponse{
		Pipelines:      summaries,
		ActiveID:       activeID,
		SelectedNodeID: s.store.SelectedNodeID(),
		CatalogSize:    s.catalog.Len(),
	})
}

// handleCatalog handles GET /catalog.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalog.All())
}

// handleCatalogReload handles POST /catalog/reload.
func (s *Server) handleCatalogReload(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ReloadCatalog(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, "catalog reload failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"catalog_size": s.catalog.Len()})
}

// handleCreatePipeline handles POST /pipelines.
func (s *Server) handleCreatePipeline(w http.ResponseWriter, r *http.Request) {
	var req CreatePipelineRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	id := s.store.CreatePipeline(req.Name)
	p, _ := s.store.Pipeline(id)
	respondJSON(w, http.StatusCreated, CreatePipelineResponse{PipelineID: id, Name: p.Name})
}

// handleActivate handles POST /pipelines/{pipelineID}/activate.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "pipelineID")
	if err := s.store.SetActive(id); err != nil {
		s.writeNotFoundOr500(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"active_id": id})
}

// handleRemovePipeline handles DELETE /pipelines/{pipelineID}.
func (s *Server) handleRemovePipeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "pipelineID")
	if err := s.store.RemovePipeline(id); err != nil {
		s.writeNotFoundOr500(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActivePipeline handles GET /pipelines/active: the full document of
// the active pipeline in its persisted shape.
func (s *Server) handleActivePipeline(w http.ResponseWriter, r *http.Request) {
	p := s.store.Active()
	if p == nil {
		s.writeError(w, http.StatusNotFound, "no active pipeline")
		return
	}
	respondJSON(w, http.StatusOK, struct {
		PipelineID string `json:"pipeline_id"`
		codec.PersistedPipeline
	}{PipelineID: p.ID, PersistedPipeline: codec.ToPersisted(p)})
}

// handleRename handles POST /pipelines/active/rename.
func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.store.Rename(req.Name)
	w.WriteHeader(http.StatusNoContent)
}

// handleSchedule handles POST /pipelines/active/schedule.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.store.SetSchedule(req.Schedule)
	w.WriteHeader(http.StatusNoContent)
}

// handleAddNode handles POST /pipelines/active/nodes.
func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req AddNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	nodeID, err := s.store.PlaceNode(req.Plugin, req.Position)
	switch {
	case errors.Is(err, workspace.ErrPluginNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, workspace.ErrNoActivePipeline):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, AddNodeResponse{NodeID: nodeID})
}

// handleRemoveNode handles DELETE /pipelines/active/nodes/{nodeID}.
func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if !s.store.RemoveNode(nodeID) {
		s.writeError(w, http.StatusNotFound, "node not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNodePosition handles POST /pipelines/active/nodes/{nodeID}/position.
func (s *Server) handleNodePosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.store.MoveNode(chi.URLParam(r, "nodeID"), req.Position)
	w.WriteHeader(http.StatusNoContent)
}

// handleNodeParams handles POST /pipelines/active/nodes/{nodeID}/params.
func (s *Server) handleNodeParams(w http.ResponseWriter, r *http.Request) {
	var req ParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.store.UpdateNodeParams(chi.URLParam(r, "nodeID"), req.Params); err != nil {
		s.writeNotFoundOr500(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNodeSelect handles POST /pipelines/active/nodes/{nodeID}/select.
// Deselecting clears the workspace selection.
func (s *Server) handleNodeSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	if !req.Selected {
		nodeID = ""
	}
	if err := s.store.SelectNode(nodeID); err != nil {
		s.writeNotFoundOr500(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConnect handles POST /pipelines/active/connect: 200 with the created
// edge, or 422 with the structured rejection.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	edge, rej := s.store.Connect(graph.Proposal{
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
	})
	if rej != nil {
		respondJSON(w, http.StatusUnprocessableEntity, RejectionResponse{Rejection: *rej})
		return
	}
	respondJSON(w, http.StatusOK, ConnectResponse{Edge: edge})
}

// handleRun handles POST /pipelines/active/run.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	resp, err := s.store.SubmitRun(r.Context())
	if err != nil {
		if errors.Is(err, workspace.ErrNoActivePipeline) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, resp)
}

// handleSave handles POST /pipelines/active/save.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	path, err := s.store.SavePipeline(r.Context())
	if err != nil {
		if errors.Is(err, workspace.ErrNoActivePipeline) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, SaveResponse{Path: path})
}

// handleOpen handles POST /pipelines/open. The body names the workspace file
// to load.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if s.picker == nil {
		s.writeError(w, http.StatusNotImplemented, "no file picker configured")
		return
	}

	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.picker.Pick(req.File); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, diags, err := s.store.OpenPipeline(r.Context())
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if diags == nil {
		diags = []codec.Diagnostic{}
	}
	respondJSON(w, http.StatusOK, OpenResponse{PipelineID: id, Diagnostics: diags})
}

// handleListFiles handles GET /pipelines/files.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if s.picker == nil {
		s.writeError(w, http.StatusNotImplemented, "no file picker configured")
		return
	}
	names, err := s.picker.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"files": names})
}

// writeNotFoundOr500 maps the workspace and graph not-found sentinels to 404
// and anything else to 500.
func (s *Server) writeNotFoundOr500(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workspace.ErrPipelineNotFound),
		errors.Is(err, workspace.ErrNoActivePipeline),
		errors.Is(err, graph.ErrNodeNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
