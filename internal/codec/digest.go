package codec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/mattjoyce/flowdeck/internal/graph"
)

// Digest computes the BLAKE3 hash of a pipeline's canonical persisted form.
// Two pipelines with identical persisted content share a digest, so the
// workspace can compare against the digest recorded at the last save or load
// to detect unsaved changes.
func Digest(p *graph.Pipeline) (string, error) {
	return DigestPersisted(ToPersisted(p))
}

// DigestPersisted hashes a persisted DTO directly, for callers that already
// hold the projection.
func DigestPersisted(dto PersistedPipeline) (string, error) {
	// Compact encoding; map keys are sorted by encoding/json, which makes
	// the bytes canonical for equal content.
	data, err := json.Marshal(dto)
	if err != nil {
		return "", fmt.Errorf("encode pipeline for digest: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
