package activities

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/cluster"
	"github.com/loomworks/loom/internal/embed"
	"github.com/loomworks/loom/internal/endpoint"
	"github.com/loomworks/loom/internal/graph"
	"github.com/loomworks/loom/internal/indexer"
	"github.com/loomworks/loom/internal/ingest"
	"github.com/loomworks/loom/internal/insight"
	"github.com/loomworks/loom/internal/orchestration"
	"github.com/loomworks/loom/internal/signals"
	"github.com/loomworks/loom/pkg/kvstore"
	"github.com/loomworks/loom/pkg/staging"
	"github.com/loomworks/loom/pkg/vectorstore"
)

type stubIterator struct {
	records []endpoint.Record
	idx     int
}

func (it *stubIterator) Next() bool {
	if it.idx >= len(it.records) {
		return false
	}
	it.idx++
	return true
}

func (it *stubIterator) Value() endpoint.Record           { return it.records[it.idx-1] }
func (it *stubIterator) Err() error                       { return nil }
func (it *stubIterator) Close() error                     { return nil }
func (it *stubIterator) Checkpoint() *endpoint.Checkpoint { return nil }

type stubSource struct {
	records []endpoint.Record
}

func (s *stubSource) ID() string { return "stub.source" }

func (s *stubSource) ValidateConfig(ctx context.Context, config map[string]any) (*endpoint.ValidationResult, error) {
	return &endpoint.ValidationResult{Valid: true}, nil
}

func (s *stubSource) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{SupportsFull: true}
}

func (s *stubSource) GetDescriptor() *endpoint.Descriptor { return &endpoint.Descriptor{} }
func (s *stubSource) Close() error                        { return nil }

func (s *stubSource) ListDatasets(ctx context.Context) ([]*endpoint.Dataset, error) {
	return nil, nil
}

func (s *stubSource) GetSchema(ctx context.Context, datasetID string) (*endpoint.Schema, error) {
	return nil, nil
}

func (s *stubSource) Read(ctx context.Context, req *endpoint.ReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	return &stubIterator{records: s.records}, nil
}

type noopVectorStore struct{}

func (noopVectorStore) UpsertEntries(entries []vectorstore.Entry) error { return nil }

func (noopVectorStore) Query(embedding []float32, filter vectorstore.QueryFilter, topK int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (noopVectorStore) DeleteByArtifact(tenantID, artifactID, runID string) error { return nil }

func (noopVectorStore) ListEntries(filter vectorstore.QueryFilter, limit int) ([]vectorstore.Entry, error) {
	return nil, nil
}

func newTestActivities(src endpoint.Endpoint, writer *graph.Memory) *Activities {
	endpoints := endpoint.NewRegistry()
	endpoints.Register("stub.source", func(config map[string]any) (endpoint.Endpoint, error) {
		return src, nil
	})
	stagingReg := staging.NewRegistry(staging.NewMemoryProvider(0))
	kv := kvstore.NewMemoryStore()
	checkpoints := checkpoint.NewEngine(kv)
	vectors := noopVectorStore{}
	embedder := &embed.LocalProvider{Dim: 8}

	a := &Activities{
		endpoints: endpoints,
		staging:   stagingReg,
		planner:   ingest.NewPlanner(endpoints),
		runner:    ingest.NewRunner(endpoints, stagingReg),
	}
	a.indexer = indexer.New(endpoints, stagingReg, vectors, checkpoints, embedder, nil, nil)
	a.clusters = cluster.NewBuilder(vectors, kv, checkpoints, writer, nil, nil)
	a.signals = signals.NewExtractor(endpoints, stagingReg, signals.NewMemory(), writer, nil)
	a.insights = insight.NewExtractor(endpoints, stagingReg, insight.NewRegistry(""), checkpoints, writer, nil, nil)
	return a
}

func pipelineParams(t *testing.T, req PipelineRequest) map[string]any {
	t.Helper()
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	return params
}

func waitOperation(t *testing.T, m *orchestration.Manager, id, want string) orchestration.Operation {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		op := m.Get(id)
		if op.Status == want {
			return op
		}
		if op.Status == orchestration.StatusFailed && want != orchestration.StatusFailed {
			t.Fatalf("operation failed: %+v", op.Error)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("operation %s never reached %s (last: %s)", id, want, m.Get(id).Status)
	return orchestration.Operation{}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	src := &stubSource{records: []endpoint.Record{
		{"id": "WORK-1", "_externalId": "WORK-1", "title": "Fix login", "summary": "Login fails on SSO"},
		{"id": "WORK-2", "_externalId": "WORK-2", "title": "Upgrade runtime", "summary": "Bump base image"},
	}}
	writer := graph.NewMemory()
	a := newTestActivities(src, writer)

	m := orchestration.NewManager()
	a.RegisterOperations(m)

	params := pipelineParams(t, PipelineRequest{
		Ingest: ingest.Request{
			TemplateID: "stub.source",
			EndpointID: "ep-1",
			UnitID:     "tracker-issues",
		},
		ArtifactID:   "art-1",
		DatasetSlug:  "tracker-issues",
		SourceFamily: "tracker",
		RunID:        "run-1",
	})
	op, err := m.Start(context.Background(), orchestration.StartRequest{
		Kind:   OpPipelineRun,
		Params: params,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := waitOperation(t, m, op.ID, orchestration.StatusSucceeded)

	if final.Stats["slicesTotal"] != "1" || final.Stats["slicesDone"] != "1" {
		t.Fatalf("stats = %+v", final.Stats)
	}
	if final.Stats["recordsStaged"] != "2" {
		t.Fatalf("recordsStaged = %q", final.Stats["recordsStaged"])
	}
	if final.Stats["stageRef"] == "" {
		t.Fatal("stageRef stat missing")
	}

	// Insight extraction ran over the staged batch: no completer configured,
	// so each entity gets a fallback insight node.
	if _, ok := writer.Node("insight:art-1:WORK-1:0"); !ok {
		t.Fatalf("insight node missing; %d nodes in graph", writer.NodeCount())
	}
	if _, ok := writer.Node("insight:art-1:WORK-2:0"); !ok {
		t.Fatal("second insight node missing")
	}
}

func TestPipelineRunRequiresDataset(t *testing.T) {
	a := newTestActivities(&stubSource{}, graph.NewMemory())
	m := orchestration.NewManager()
	a.RegisterOperations(m)

	op, err := m.Start(context.Background(), orchestration.StartRequest{
		Kind:   OpPipelineRun,
		Params: map[string]any{"ingest": map[string]any{"templateId": "stub.source"}},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := waitOperation(t, m, op.ID, orchestration.StatusFailed)
	if final.Error == nil || final.Error.Code != orchestration.CodeUnknown {
		t.Fatalf("error = %+v", final.Error)
	}
}
