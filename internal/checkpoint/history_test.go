package checkpoint

import (
	"context"
	"strings"
	"testing"

	"github.com/loomworks/loom/pkg/logstore"
	"github.com/loomworks/loom/pkg/objstore"
)

func TestHistoryArchiveAndList(t *testing.T) {
	ctx := context.Background()
	store := logstore.NewObjectStore(objstore.NewLocalStore(t.TempDir()), "logstore", "logs")
	h := NewHistory(store)

	key := IndexerKey("source.tracker.item.v1", "tracker-issues")
	ref, err := h.Archive(ctx, key, map[string]any{"watermark": "2026-01-01T00:00:00Z"}, 3)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !strings.Contains(ref, "-v3.snapshot.json") {
		t.Fatalf("ref = %q, want version suffix", ref)
	}

	if _, err := h.Archive(ctx, key, map[string]any{"watermark": "2026-01-02T00:00:00Z"}, 4); err != nil {
		t.Fatalf("Archive v4: %v", err)
	}

	entries, err := h.List(ctx, key, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Version != 4 || entries[1].Version != 3 {
		t.Fatalf("order = %v", entries)
	}
}
