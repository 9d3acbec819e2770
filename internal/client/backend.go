// Package client talks to the execution backend's HTTP API: the plugin
// catalog and immediate run submission.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mattjoyce/flowdeck/internal/codec"
	"github.com/mattjoyce/flowdeck/internal/plugin"
)

const defaultTimeout = 30 * time.Second

// Backend is an HTTP client for the execution backend. It satisfies both
// plugin.Fetcher and workspace.RunSubmitter.
type Backend struct {
	baseURL string
	http    *http.Client
}

// New creates a backend client for baseURL (e.g. "http://localhost:8000").
func New(baseURL string) *Backend {
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// FetchCatalog retrieves the available plugin descriptors.
func (b *Backend) FetchCatalog(ctx context.Context) ([]plugin.Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/plugins/", nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: %s", errorDetail(resp))
	}

	var descriptors []plugin.Descriptor
	if err := json.NewDecoder(resp.Body).Decode(&descriptors); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return descriptors, nil
}

// SubmitRun posts a run request. The backend acknowledges with 202 and an
// echo of the pipeline name.
func (b *Backend) SubmitRun(ctx context.Context, runReq codec.RunRequest) (codec.RunResponse, error) {
	body, err := json.Marshal(runReq)
	if err != nil {
		return codec.RunResponse{}, fmt.Errorf("encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/pipelines/run", bytes.NewReader(body))
	if err != nil {
		return codec.RunResponse{}, fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return codec.RunResponse{}, fmt.Errorf("submit run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return codec.RunResponse{}, fmt.Errorf("submit run: %s", errorDetail(resp))
	}

	var out codec.RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return codec.RunResponse{}, fmt.Errorf("decode run response: %w", err)
	}
	return out, nil
}

// errorDetail extracts the backend's human-readable detail field from an
// error payload, falling back to the HTTP status.
func errorDetail(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Detail != "" {
			return fmt.Sprintf("%s (%s)", payload.Detail, resp.Status)
		}
	}
	return resp.Status
}
