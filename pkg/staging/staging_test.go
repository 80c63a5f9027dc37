package staging

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/loomworks/loom/pkg/objstore"
)

func testEnvelopes(n int) []RecordEnvelope {
	out := make([]RecordEnvelope, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, RecordEnvelope{
			RecordKind: "raw",
			EntityKind: "work.item",
			Payload:    map[string]any{"id": fmt.Sprintf("rec-%d", i), "title": fmt.Sprintf("Item %d", i)},
		})
	}
	return out
}

func newObjectProviderForTest(t *testing.T) *ObjectProvider {
	t.Helper()
	p, err := NewObjectProvider(ObjectConfig{
		Store:  objstore.NewLocalStore(t.TempDir()),
		Bucket: "staging-test",
	})
	if err != nil {
		t.Fatalf("NewObjectProvider: %v", err)
	}
	return p
}

func TestStageRefRoundTrip(t *testing.T) {
	ref := MakeStageRef(ProviderMemory, "stage-abc")
	provider, stageID := ParseStageRef(ref)
	if provider != ProviderMemory || stageID != "stage-abc" {
		t.Fatalf("ParseStageRef(%q) = %q, %q", ref, provider, stageID)
	}
	if _, id := ParseStageRef("bare-stage-id"); id != "bare-stage-id" {
		t.Fatalf("bare ref should keep stage id, got %q", id)
	}
}

func TestPutGetRoundTripOrdering(t *testing.T) {
	ctx := context.Background()
	providers := map[string]Provider{
		"memory": NewMemoryProvider(0),
		"object": newObjectProviderForTest(t),
	}

	for name, p := range providers {
		t.Run(name, func(t *testing.T) {
			records := testEnvelopes(25)
			const batchSize = 7

			var stageRef string
			var batchRefs []string
			seq := 0
			for i := 0; i < len(records); i += batchSize {
				end := i + batchSize
				if end > len(records) {
					end = len(records)
				}
				res, err := p.PutBatch(ctx, &PutBatchRequest{
					StageRef: stageRef,
					SliceID:  "slice-0",
					BatchSeq: seq,
					Records:  records[i:end],
				})
				if err != nil {
					t.Fatalf("PutBatch seq=%d: %v", seq, err)
				}
				stageRef = res.StageRef
				batchRefs = append(batchRefs, res.BatchRef)
				seq++
			}

			listed, err := p.ListBatches(ctx, stageRef, "slice-0")
			if err != nil {
				t.Fatalf("ListBatches: %v", err)
			}
			if len(listed) != len(batchRefs) {
				t.Fatalf("listed %d batches, want %d", len(listed), len(batchRefs))
			}
			for i := range listed {
				if listed[i] != batchRefs[i] {
					t.Fatalf("batch order mismatch at %d: %q vs %q", i, listed[i], batchRefs[i])
				}
			}

			var replayed []RecordEnvelope
			for _, ref := range listed {
				batch, err := p.GetBatch(ctx, stageRef, ref)
				if err != nil {
					t.Fatalf("GetBatch(%s): %v", ref, err)
				}
				replayed = append(replayed, batch...)
			}
			if len(replayed) != len(records) {
				t.Fatalf("replayed %d records, want %d", len(replayed), len(records))
			}
			for i := range records {
				want := records[i].Payload["id"]
				got := replayed[i].Payload["id"]
				if got != want {
					t.Fatalf("record %d out of order: got %v want %v", i, got, want)
				}
			}
		})
	}
}

func TestFinalizedStageRejectsWrites(t *testing.T) {
	ctx := context.Background()
	providers := map[string]Provider{
		"memory": NewMemoryProvider(0),
		"object": newObjectProviderForTest(t),
	}

	for name, p := range providers {
		t.Run(name, func(t *testing.T) {
			res, err := p.PutBatch(ctx, &PutBatchRequest{SliceID: "s", Records: testEnvelopes(2)})
			if err != nil {
				t.Fatalf("PutBatch: %v", err)
			}
			if err := p.FinalizeStage(ctx, res.StageRef); err != nil {
				t.Fatalf("FinalizeStage: %v", err)
			}

			_, err = p.PutBatch(ctx, &PutBatchRequest{StageRef: res.StageRef, SliceID: "s", BatchSeq: 1, Records: testEnvelopes(1)})
			var serr *Error
			if !errors.As(err, &serr) || serr.Code != CodeStageFinalized {
				t.Fatalf("expected E_STAGE_FINALIZED, got %v", err)
			}

			// Reads keep working after finalize.
			got, err := p.GetBatch(ctx, res.StageRef, res.BatchRef)
			if err != nil {
				t.Fatalf("GetBatch after finalize: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("got %d records after finalize, want 2", len(got))
			}
		})
	}
}

func TestMemoryProviderEnforcesCap(t *testing.T) {
	p := NewMemoryProvider(64)
	_, err := p.PutBatch(context.Background(), &PutBatchRequest{SliceID: "s", Records: testEnvelopes(10)})
	var serr *Error
	if !errors.As(err, &serr) || serr.Code != CodeStageTooLarge {
		t.Fatalf("expected E_STAGE_TOO_LARGE, got %v", err)
	}
	if serr.RetryableStatus() {
		t.Fatal("cap overflow must not be retryable")
	}
}

func TestSelectProvider(t *testing.T) {
	mem := NewMemoryProvider(0)
	obj := newObjectProviderForTest(t)

	t.Run("prefers explicit provider", func(t *testing.T) {
		reg := NewRegistry(mem, obj)
		p, err := reg.SelectProvider(ProviderObjectStore, 0, 0)
		if err != nil {
			t.Fatalf("SelectProvider: %v", err)
		}
		if p.ID() != ProviderObjectStore {
			t.Fatalf("got %s, want object", p.ID())
		}
	})

	t.Run("large runs require durable provider", func(t *testing.T) {
		reg := NewRegistry(mem, obj)
		p, err := reg.SelectProvider("", DefaultLargeRunThresholdBytes+1, 0)
		if err != nil {
			t.Fatalf("SelectProvider: %v", err)
		}
		if p.ID() != ProviderObjectStore {
			t.Fatalf("got %s, want object", p.ID())
		}
	})

	t.Run("large run without durable provider fails", func(t *testing.T) {
		reg := NewRegistry(mem)
		_, err := reg.SelectProvider("", DefaultLargeRunThresholdBytes+1, 0)
		var serr *Error
		if !errors.As(err, &serr) || serr.Code != CodeStagingUnavailable {
			t.Fatalf("expected E_STAGING_UNAVAILABLE, got %v", err)
		}
	})

	t.Run("defaults to memory", func(t *testing.T) {
		reg := NewRegistry(mem, obj)
		p, err := reg.SelectProvider("", 0, 0)
		if err != nil {
			t.Fatalf("SelectProvider: %v", err)
		}
		if p.ID() != ProviderMemory {
			t.Fatalf("got %s, want memory", p.ID())
		}
	})

	t.Run("empty registry fails", func(t *testing.T) {
		reg := NewRegistry()
		if _, err := reg.SelectProvider("", 0, 0); err == nil {
			t.Fatal("expected error from empty registry")
		}
	})
}

func TestListBatchesFiltersBySlice(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider(0)

	res, err := p.PutBatch(ctx, &PutBatchRequest{SliceID: "slice-a", Records: testEnvelopes(1)})
	if err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	if _, err := p.PutBatch(ctx, &PutBatchRequest{StageRef: res.StageRef, SliceID: "slice-b", BatchSeq: 1, Records: testEnvelopes(1)}); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}

	refs, err := p.ListBatches(ctx, res.StageRef, "slice-a")
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(refs) != 1 || refs[0] != "slice-a-000000" {
		t.Fatalf("unexpected refs: %v", refs)
	}
}
