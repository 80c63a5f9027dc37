package indexer

import (
	"context"
	"testing"

	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/embed"
	"github.com/loomworks/loom/pkg/kvstore"
	"github.com/loomworks/loom/pkg/staging"
	"github.com/loomworks/loom/pkg/vectorstore"
)

type fakeVectorStore struct {
	upserts []vectorstore.Entry
}

func (f *fakeVectorStore) UpsertEntries(entries []vectorstore.Entry) error {
	f.upserts = append(f.upserts, entries...)
	return nil
}

func (f *fakeVectorStore) Query(embedding []float32, filter vectorstore.QueryFilter, topK int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteByArtifact(tenantID, artifactID, runID string) error { return nil }

func (f *fakeVectorStore) ListEntries(filter vectorstore.QueryFilter, limit int) ([]vectorstore.Entry, error) {
	return nil, nil
}

type countingEmbedder struct {
	inner embed.Provider
	calls int
	texts int
}

func (c *countingEmbedder) EmbedText(ctx context.Context, model string, texts []string) ([][]float32, error) {
	c.calls++
	c.texts += len(texts)
	return c.inner.EmbedText(ctx, model, texts)
}

func (c *countingEmbedder) ModelName() string { return c.inner.ModelName() }

func stageVectorEnvelopes(t *testing.T, provider staging.Provider, envelopes []staging.RecordEnvelope) (string, []string) {
	t.Helper()
	res, err := provider.PutBatch(context.Background(), &staging.PutBatchRequest{
		SliceID: "full",
		Records: envelopes,
	})
	if err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	return res.StageRef, []string{res.BatchRef}
}

func vectorEnvelope(nodeID, text string) staging.RecordEnvelope {
	return staging.RecordEnvelope{
		RecordKind: "raw",
		EntityKind: "tracker-issues",
		Payload:    map[string]any{"logicalId": nodeID},
		VectorPayload: map[string]any{
			"nodeId":       nodeID,
			"profileId":    "source.tracker.item.v1",
			"entityKind":   "work.item",
			"text":         text,
			"sourceFamily": "tracker",
		},
	}
}

func newTestIndexer(mem *staging.MemoryProvider) (*Indexer, *fakeVectorStore, *countingEmbedder, *checkpoint.Engine) {
	store := &fakeVectorStore{}
	embedder := &countingEmbedder{inner: &embed.LocalProvider{Dim: 8}}
	engine := checkpoint.NewEngine(kvstore.NewMemoryStore())
	ix := New(nil, staging.NewRegistry(mem), store, engine, embedder, nil, nil)
	return ix, store, embedder, engine
}

func TestIndexArtifactFromStaging(t *testing.T) {
	mem := staging.NewMemoryProvider(0)
	stageRef, batchRefs := stageVectorEnvelopes(t, mem, []staging.RecordEnvelope{
		vectorEnvelope("node-1", "stale work item about deploys"),
		vectorEnvelope("node-2", "orphaned page about runbooks"),
	})
	ix, store, embedder, engine := newTestIndexer(mem)

	res, err := ix.IndexArtifact(context.Background(), Request{
		DatasetSlug:  "tracker-issues",
		SourceFamily: "tracker",
		RunID:        "run-1",
		StageRef:     stageRef,
		BatchRefs:    batchRefs,
	})
	if err != nil {
		t.Fatalf("IndexArtifact: %v", err)
	}

	if res.RecordsRead != 2 || res.RecordsIndexed != 2 || res.RecordsSkipped != 0 {
		t.Fatalf("counters = %+v", res)
	}
	if len(store.upserts) != 2 {
		t.Fatalf("upserts = %d", len(store.upserts))
	}
	for _, e := range store.upserts {
		if len(e.Embedding) != 8 {
			t.Fatalf("embedding dim = %d", len(e.Embedding))
		}
		if e.Metadata["embeddingModel"] != "local-fnv-hash" {
			t.Fatalf("embeddingModel = %v", e.Metadata["embeddingModel"])
		}
		if e.DatasetSlug != "tracker-issues" {
			t.Fatalf("datasetSlug = %q", e.DatasetSlug)
		}
	}
	if embedder.calls != 1 || embedder.texts != 2 {
		t.Fatalf("embedder calls = %d, texts = %d", embedder.calls, embedder.texts)
	}

	if res.Checkpoint["batchRef"] != batchRefs[0] {
		t.Fatalf("checkpoint = %v", res.Checkpoint)
	}
	persisted, _, err := engine.Load(context.Background(), "dev", "global",
		checkpoint.IndexerKey("source.tracker.item.v1", "tracker-issues"))
	if err != nil || persisted["batchRef"] != batchRefs[0] {
		t.Fatalf("persisted = %v, %v", persisted, err)
	}
}

func TestIndexArtifactDedupUnchangedContent(t *testing.T) {
	mem := staging.NewMemoryProvider(0)
	stageRef, batchRefs := stageVectorEnvelopes(t, mem, []staging.RecordEnvelope{
		vectorEnvelope("node-1", "same content"),
	})
	ix, store, embedder, _ := newTestIndexer(mem)

	req := Request{
		DatasetSlug:  "tracker-issues",
		SourceFamily: "tracker",
		RunID:        "run-1",
		StageRef:     stageRef,
		BatchRefs:    batchRefs,
	}
	if _, err := ix.IndexArtifact(context.Background(), req); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second pass over identical content must not call the embedder again.
	// The first run advanced the persisted checkpoint, so force a full replay
	// with an explicit empty position.
	req.Checkpoint = map[string]any{"batchRef": ""}
	req.RunID = "run-2"
	res, err := ix.IndexArtifact(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.RecordsSkipped != 1 {
		t.Fatalf("skipped = %d, want 1", res.RecordsSkipped)
	}
	if embedder.calls != 1 {
		t.Fatalf("embedder calls = %d, want 1", embedder.calls)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(store.upserts))
	}
}

func TestIndexArtifactFallbackNormalizer(t *testing.T) {
	mem := staging.NewMemoryProvider(0)
	stageRef, batchRefs := stageVectorEnvelopes(t, mem, []staging.RecordEnvelope{
		{
			RecordKind: "raw",
			EntityKind: "generic-objects",
			Payload:    map[string]any{"id": "obj-1", "text": "plain object text"},
		},
	})
	ix, store, _, _ := newTestIndexer(mem)

	res, err := ix.IndexArtifact(context.Background(), Request{
		DatasetSlug: "generic-objects",
		RunID:       "run-1",
		StageRef:    stageRef,
		BatchRefs:   batchRefs,
	})
	if err != nil {
		t.Fatalf("IndexArtifact: %v", err)
	}
	if res.VectorFallback != 1 || res.RecordsIndexed != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(store.upserts) != 1 || store.upserts[0].NodeID != "obj-1" {
		t.Fatalf("upserts = %+v", store.upserts)
	}
	if store.upserts[0].ProfileID != "source.generic.v1" {
		t.Fatalf("profile = %q", store.upserts[0].ProfileID)
	}
}

func TestIndexArtifactRequiresDataset(t *testing.T) {
	ix, _, _, _ := newTestIndexer(staging.NewMemoryProvider(0))
	if _, err := ix.IndexArtifact(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for missing datasetSlug")
	}
}
