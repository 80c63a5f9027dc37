package logstore

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/loomworks/loom/pkg/objstore"
)

func newTestStore(t *testing.T) *ObjectStore {
	t.Helper()
	return NewObjectStore(objstore.NewLocalStore(t.TempDir()), "logs-test", "logs")
}

func TestAppendAndListPaths(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	recs := []Record{
		{RunID: "run-1", DatasetSlug: "issues", Op: "upsert", Kind: "node", ID: "n1", Hash: "abc123", Seq: 1, At: time.Now().UTC().Format(time.RFC3339)},
		{RunID: "run-1", DatasetSlug: "issues", Op: "upsert", Kind: "edge", ID: "e1", Hash: "def456", Seq: 2, At: time.Now().UTC().Format(time.RFC3339)},
	}
	loc, err := s.Append(ctx, "kbevents", "run-1", recs)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !strings.HasPrefix(loc, "minio://logs-test/logs/kbevents/run-1/") {
		t.Fatalf("unexpected location: %s", loc)
	}
	if !strings.HasSuffix(loc, ".events.jsonl") {
		t.Fatalf("unexpected suffix: %s", loc)
	}

	paths, err := s.ListPaths(ctx, "kbevents/run-1")
	if err != nil {
		t.Fatalf("ListPaths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(paths))
	}
}

func TestAppendEmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	loc, err := s.Append(context.Background(), "kbevents", "run-1", nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if loc != "" {
		t.Fatalf("empty append should return empty location, got %q", loc)
	}
}

func TestWriteSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	loc, err := s.WriteSnapshot(ctx, "kbevents", "run-9", []byte(`{"count":3}`))
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	want := "minio://logs-test/logs/kbevents/run-9.snapshot.json"
	if loc != want {
		t.Fatalf("location = %q, want %q", loc, want)
	}
}

func TestPruneDeletesOldEvents(t *testing.T) {
	ctx := context.Background()
	backend := objstore.NewLocalStore(t.TempDir())
	s := NewObjectStore(backend, "logs-test", "logs")

	old := time.Now().Add(-40 * 24 * time.Hour).UnixNano()
	fresh := time.Now().UnixNano()
	oldKey := fmt.Sprintf("logs/kbevents/run-a/%d.events.jsonl", old)
	freshKey := fmt.Sprintf("logs/kbevents/run-a/%d.events.jsonl", fresh)
	for _, k := range []string{oldKey, freshKey} {
		if err := backend.PutObject(ctx, "logs-test", k, []byte("{}\n")); err != nil {
			t.Fatalf("PutObject: %v", err)
		}
	}

	if err := s.Prune(ctx, "kbevents", 30); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	keys, err := backend.ListPrefix(ctx, "logs-test", "logs/kbevents")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(keys) != 1 || keys[0] != freshKey {
		t.Fatalf("prune kept %v, want only %s", keys, freshKey)
	}
}

func TestPruneDisabledByRetention(t *testing.T) {
	s := newTestStore(t)
	if err := s.Prune(context.Background(), "kbevents", 0); err != nil {
		t.Fatalf("Prune with retention<=0 should be a no-op, got %v", err)
	}
}
