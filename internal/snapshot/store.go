package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattjoyce/flowdeck/internal/codec"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Info describes one stored snapshot without its document body.
type Info struct {
	PipelineID string
	Name       string
	Digest     string
	UpdatedAt  time.Time
}

// Store reads and writes pipeline snapshots keyed by workspace pipeline id.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Save upserts the snapshot for pipelineID.
func (s *Store) Save(ctx context.Context, pipelineID string, dto codec.PersistedPipeline) error {
	if pipelineID == "" {
		return fmt.Errorf("pipeline id is empty")
	}

	doc, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("marshal snapshot document: %w", err)
	}
	digest, err := codec.DigestPersisted(dto)
	if err != nil {
		return fmt.Errorf("digest snapshot document: %w", err)
	}

	nowS := s.now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
INSERT INTO pipeline_snapshot(pipeline_id, name, doc, digest, updated_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(pipeline_id) DO UPDATE SET
  name = excluded.name,
  doc = excluded.doc,
  digest = excluded.digest,
  updated_at = excluded.updated_at;
`, pipelineID, dto.Name, string(doc), digest, nowS)
	if err != nil {
		return fmt.Errorf("save snapshot for pipeline %q: %w", pipelineID, err)
	}
	return nil
}

// Load returns the snapshot document for pipelineID.
func (s *Store) Load(ctx context.Context, pipelineID string) (codec.PersistedPipeline, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
SELECT doc FROM pipeline_snapshot WHERE pipeline_id = ?;
`, pipelineID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return codec.PersistedPipeline{}, ErrSnapshotNotFound
	}
	if err != nil {
		return codec.PersistedPipeline{}, fmt.Errorf("load snapshot for pipeline %q: %w", pipelineID, err)
	}

	var dto codec.PersistedPipeline
	if err := json.Unmarshal([]byte(doc), &dto); err != nil {
		return codec.PersistedPipeline{}, fmt.Errorf("decode snapshot for pipeline %q: %w", pipelineID, err)
	}
	return dto, nil
}

// List returns snapshot metadata, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT pipeline_id, name, digest, updated_at
FROM pipeline_snapshot
ORDER BY updated_at DESC, pipeline_id;
`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var updatedAt string
		if err := rows.Scan(&info.PipelineID, &info.Name, &info.Digest, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		info.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot updated_at %q: %w", updatedAt, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return infos, nil
}

// Delete removes the snapshot for pipelineID. Deleting a missing snapshot
// reports ErrSnapshotNotFound.
func (s *Store) Delete(ctx context.Context, pipelineID string) error {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM pipeline_snapshot WHERE pipeline_id = ?;
`, pipelineID)
	if err != nil {
		return fmt.Errorf("delete snapshot for pipeline %q: %w", pipelineID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete snapshot for pipeline %q: %w", pipelineID, err)
	}
	if n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}
