package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mattjoyce/flowdeck/internal/codec"
	"github.com/mattjoyce/flowdeck/internal/events"
)

// LoadPipeline rehydrates a persisted DTO against the current catalog
// snapshot and inserts it under a fresh id, never the id embedded in the
// file, so repeated loads of the same file coexist. The loaded pipeline
// becomes active and the selection is cleared.
func (s *Store) LoadPipeline(dto codec.PersistedPipeline) (string, []codec.Diagnostic) {
	p, diags := codec.FromPersisted(dto, s.catalog)
	p.ID = uuid.NewString()

	digest, err := codec.Digest(p)
	if err != nil {
		// Digest failure only degrades dirty tracking; the load proceeds.
		s.logger.Warn("digest of loaded pipeline failed", "error", err)
	}

	s.mu.Lock()
	s.insertLocked(p)
	if err == nil {
		s.savedDigests[p.ID] = digest
	}
	s.mu.Unlock()

	for _, d := range diags {
		s.logger.Warn("rehydration diagnostic", "pipeline_id", p.ID, "kind", string(d.Kind), "detail", d.Detail)
	}
	s.publish(events.TypePipelineLoaded, map[string]any{
		"pipeline_id": p.ID,
		"name":        p.Name,
		"diagnostics": len(diags),
	})
	return p.ID, diags
}

// OpenPipeline asks the dialog collaborator for a pipeline file and loads
// it. The workspace is unchanged on read or parse failure, and on cancel.
func (s *Store) OpenPipeline(ctx context.Context) (string, []codec.Diagnostic, error) {
	if s.dialog == nil {
		return "", nil, fmt.Errorf("no file dialog configured")
	}

	data, path, err := s.dialog.Open(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("open pipeline: %w", err)
	}

	dto, err := codec.UnmarshalPersisted(data)
	if err != nil {
		return "", nil, fmt.Errorf("open pipeline %q: %w", path, err)
	}

	id, diags := s.LoadPipeline(dto)
	return id, diags, nil
}

// SavePipeline writes the active pipeline through the dialog collaborator
// and records its content digest for dirty tracking. Returns the chosen
// path.
func (s *Store) SavePipeline(ctx context.Context) (string, error) {
	if s.dialog == nil {
		return "", fmt.Errorf("no file dialog configured")
	}

	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return "", ErrNoActivePipeline
	}
	dto := codec.ToPersisted(p)
	pipelineID := p.ID
	defaultName := fileNameFor(p.Name)
	s.mu.Unlock()

	data, err := codec.MarshalPersisted(dto)
	if err != nil {
		return "", fmt.Errorf("save pipeline: %w", err)
	}

	path, err := s.dialog.Save(ctx, data, defaultName)
	if err != nil {
		return "", fmt.Errorf("save pipeline: %w", err)
	}

	if digest, err := codec.DigestPersisted(dto); err == nil {
		s.mu.Lock()
		s.savedDigests[pipelineID] = digest
		s.mu.Unlock()
	}

	s.publish(events.TypePipelineSaved, map[string]string{"pipeline_id": pipelineID, "path": path})
	return path, nil
}

// SubmitRun sends the active pipeline to the execution backend for an
// immediate one-time run. Workspace state is untouched either way.
func (s *Store) SubmitRun(ctx context.Context) (codec.RunResponse, error) {
	if s.backend == nil {
		return codec.RunResponse{}, fmt.Errorf("no execution backend configured")
	}

	s.mu.Lock()
	p := s.activeLocked()
	if p == nil {
		s.mu.Unlock()
		return codec.RunResponse{}, ErrNoActivePipeline
	}
	req := codec.ToRunRequest(p)
	pipelineID := p.ID
	s.mu.Unlock()

	resp, err := s.backend.SubmitRun(ctx, req)
	if err != nil {
		return codec.RunResponse{}, fmt.Errorf("submit run: %w", err)
	}

	s.publish(events.TypeRunSubmitted, map[string]string{
		"pipeline_id":   pipelineID,
		"pipeline_name": resp.PipelineName,
	})
	return resp, nil
}

// ReloadCatalog refreshes the plugin catalog from the backend. On failure
// the catalog is empty (never stale) and the error is surfaced.
func (s *Store) ReloadCatalog(ctx context.Context) error {
	if err := s.catalog.Load(ctx); err != nil {
		return err
	}
	s.publish(events.TypeCatalogLoaded, map[string]int{"plugins": s.catalog.Len()})
	return nil
}

// fileNameFor derives a filename-safe default from a pipeline name, the
// same way the backend names its definition files.
func fileNameFor(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "pipeline.json"
	}
	return b.String() + ".json"
}
