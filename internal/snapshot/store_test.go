package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattjoyce/flowdeck/internal/codec"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testDoc(name string) codec.PersistedPipeline {
	return codec.PersistedPipeline{
		Name: name,
		Nodes: []codec.PersistedNode{
			{
				ID:     "n1",
				Plugin: "from_http",
				Params: map[string]any{"url": "https://example.com/data.csv"},
				UI:     &codec.NodeUI{Position: codec.PersistedPosition{X: 10, Y: 20}},
			},
		},
		Edges: []codec.RunEdge{},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(testDB(t))
	doc := testDoc("etl")

	if err := store.Save(context.Background(), "p1", doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "etl" || len(got.Nodes) != 1 {
		t.Fatalf("unexpected document: %+v", got)
	}
	if got.Nodes[0].Params["url"] != "https://example.com/data.csv" {
		t.Fatalf("params lost: %v", got.Nodes[0].Params)
	}
	if got.Nodes[0].UI == nil || got.Nodes[0].UI.Position.X != 10 {
		t.Fatalf("position lost: %+v", got.Nodes[0].UI)
	}
}

func TestSaveUpserts(t *testing.T) {
	t.Parallel()

	store := NewStore(testDB(t))
	if err := store.Save(context.Background(), "p1", testDoc("before")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(context.Background(), "p1", testDoc("after")); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	got, err := store.Load(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "after" {
		t.Fatalf("expected updated document, got %q", got.Name)
	}

	infos, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("upsert must not duplicate rows: %d", len(infos))
	}
}

func TestListOrdersByRecency(t *testing.T) {
	t.Parallel()

	store := NewStore(testDB(t))
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	if err := store.Save(context.Background(), "old", testDoc("old")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.now = func() time.Time { return base.Add(time.Minute) }
	if err := store.Save(context.Background(), "new", testDoc("new")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	infos, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 || infos[0].PipelineID != "new" || infos[1].PipelineID != "old" {
		t.Fatalf("unexpected order: %+v", infos)
	}
	if infos[0].Digest == "" {
		t.Fatalf("digest must be recorded")
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(testDB(t))
	if _, err := store.Load(context.Background(), "ghost"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store := NewStore(testDB(t))
	if err := store.Save(context.Background(), "p1", testDoc("p")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(context.Background(), "p1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}
