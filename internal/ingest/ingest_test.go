package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/loomworks/loom/internal/endpoint"
	"github.com/loomworks/loom/pkg/cdm"
	"github.com/loomworks/loom/pkg/staging"
)

type recordIterator struct {
	records []endpoint.Record
	idx     int
	cp      *endpoint.Checkpoint
	err     error
}

func (it *recordIterator) Next() bool {
	if it.err != nil || it.idx >= len(it.records) {
		return false
	}
	it.idx++
	return true
}

func (it *recordIterator) Value() endpoint.Record           { return it.records[it.idx-1] }
func (it *recordIterator) Err() error                       { return it.err }
func (it *recordIterator) Close() error                     { return nil }
func (it *recordIterator) Checkpoint() *endpoint.Checkpoint { return it.cp }

type stubSource struct {
	records  []endpoint.Record
	cp       *endpoint.Checkpoint
	iterErr  error
	schema   *endpoint.Schema
	lastRead *endpoint.ReadRequest
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
	return s.schema, nil
}

func (s *stubSource) Read(ctx context.Context, req *endpoint.ReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	s.lastRead = req
	return &recordIterator{records: s.records, cp: s.cp, err: s.iterErr}, nil
}

type sliceSource struct {
	stubSource
	plan      *endpoint.IngestionPlan
	lastPlan  *endpoint.PlanRequest
	lastSlice *endpoint.SliceReadRequest
}

func (s *sliceSource) GetCheckpoint(ctx context.Context, datasetID string) (*endpoint.Checkpoint, error) {
	return s.cp, nil
}

func (s *sliceSource) PlanSlices(ctx context.Context, req *endpoint.PlanRequest) (*endpoint.IngestionPlan, error) {
	s.lastPlan = req
	return s.plan, nil
}

func (s *sliceSource) ReadSlice(ctx context.Context, req *endpoint.SliceReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	s.lastSlice = req
	return &recordIterator{records: s.records, cp: s.cp}, nil
}

func (s *sliceSource) CountBetween(ctx context.Context, datasetID, lower, upper string) (int64, error) {
	return int64(len(s.records)), nil
}

func newTestRegistry(ep endpoint.Endpoint) *endpoint.Registry {
	reg := endpoint.NewRegistry()
	reg.Register("stub.source", func(config map[string]any) (endpoint.Endpoint, error) {
		return ep, nil
	})
	return reg
}

func memoryRunner(ep endpoint.Endpoint) (*Runner, *staging.MemoryProvider) {
	mem := staging.NewMemoryProvider(0)
	return NewRunner(newTestRegistry(ep), staging.NewRegistry(mem)), mem
}

func TestPlanFallsBackToSingleSlice(t *testing.T) {
	planner := NewPlanner(newTestRegistry(&stubSource{}))

	plan, err := planner.Plan(context.Background(), Request{TemplateID: "stub.source", UnitID: "tracker-issues"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Slices) != 1 {
		t.Fatalf("slices = %d, want 1", len(plan.Slices))
	}
	if plan.Slices[0].SliceKey != "full" || plan.Slices[0].Sequence != 0 {
		t.Fatalf("slice = %+v", plan.Slices[0])
	}
	if plan.Strategy != endpoint.StrategyFull {
		t.Fatalf("strategy = %q", plan.Strategy)
	}
	if plan.Metadata["reason"] != "endpoint_not_slice_capable" {
		t.Fatalf("reason = %v", plan.Metadata["reason"])
	}
}

func TestPlanSliceCapable(t *testing.T) {
	src := &sliceSource{
		plan: &endpoint.IngestionPlan{
			Strategy: endpoint.StrategyIncremental,
			Slices: []*endpoint.IngestionSlice{
				{SliceID: "s0", Lower: "a", Upper: "b", EstimatedRows: 10},
				{SliceID: "s1", Lower: "b"},
			},
			Statistics: map[string]any{"rowCount": int64(20)},
		},
	}
	planner := NewPlanner(newTestRegistry(src))

	plan, err := planner.Plan(context.Background(), Request{
		TemplateID: "stub.source",
		UnitID:     "tracker-issues",
		Mode:       "incremental",
		CDMModelID: cdm.ModelWorkItem,
		Policy:     map[string]any{"parameters": map[string]any{"target_slice_size": 500}},
		Checkpoint: map[string]any{
			"cursor": map[string]any{
				"cursor": map[string]any{"watermark": "2026-01-01T00:00:00Z"},
			},
		},
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if src.lastPlan.TargetSliceSize != 500 {
		t.Fatalf("targetSliceSize = %d", src.lastPlan.TargetSliceSize)
	}
	if src.lastPlan.Strategy != endpoint.StrategyIncremental {
		t.Fatalf("strategy = %q", src.lastPlan.Strategy)
	}
	if src.lastPlan.Checkpoint == nil || src.lastPlan.Checkpoint.Watermark != "2026-01-01T00:00:00Z" {
		t.Fatalf("checkpoint not normalized: %+v", src.lastPlan.Checkpoint)
	}

	if len(plan.Slices) != 2 || plan.Slices[1].Sequence != 1 {
		t.Fatalf("slices = %+v", plan.Slices)
	}
	if plan.Metadata["sliceCount"] != 2 {
		t.Fatalf("sliceCount = %v", plan.Metadata["sliceCount"])
	}
	if plan.Metadata["cdmModelId"] != cdm.ModelWorkItem {
		t.Fatalf("cdmModelId = %v", plan.Metadata["cdmModelId"])
	}
	schema, ok := plan.Metadata["schema"].(*endpoint.Schema)
	if !ok || len(schema.Fields) != len(cdm.ModelSchema(cdm.ModelWorkItem)) {
		t.Fatalf("schema = %v", plan.Metadata["schema"])
	}
	if plan.Metadata["statistics"] == nil {
		t.Fatal("expected plan statistics")
	}
}

func TestResolveTargetSliceSize(t *testing.T) {
	cases := []struct {
		name   string
		policy map[string]any
		want   int64
	}{
		{"snake_top", map[string]any{"target_slice_size": 100}, 100},
		{"camel_top", map[string]any{"targetSliceSize": int64(200)}, 200},
		{"rows_camel", map[string]any{"targetRowsPerSlice": float64(250)}, 250},
		{"rows_snake", map[string]any{"target_rows_per_slice": 300}, 300},
		{"nested", map[string]any{"parameters": map[string]any{"target_slice_size": 400}}, 400},
		{"absent", map[string]any{"other": 1}, 0},
		{"nil", nil, 0},
	}
	for _, tc := range cases {
		if got := resolveTargetSliceSize(tc.policy); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestRunSliceStagesRecords(t *testing.T) {
	src := &stubSource{
		records: []endpoint.Record{
			{"_externalId": "A", "title": "First issue"},
			{"sha": "deadbeef"},
			{"number": 7},
		},
		cp: &endpoint.Checkpoint{
			Watermark: "2026-02-01T00:00:00Z",
			Metadata:  map[string]any{"cursor": map[string]any{"page": 3}},
		},
	}
	runner, mem := memoryRunner(src)

	res, err := runner.RunSlice(context.Background(), Request{
		TemplateID: "stub.source",
		EndpointID: "ep-1",
		UnitID:     "tracker-issues",
		Mode:       "full",
		Checkpoint: map[string]any{"watermark": "2026-01-01T00:00:00Z", "recordCount": 5},
	})
	if err != nil {
		t.Fatalf("RunSlice: %v", err)
	}

	if res.RecordsStaged != 3 || len(res.BatchRefs) != 1 {
		t.Fatalf("staged = %d, batches = %d", res.RecordsStaged, len(res.BatchRefs))
	}
	if res.StagingProviderID != staging.ProviderMemory || !strings.HasPrefix(res.StageRef, staging.ProviderMemory+":") {
		t.Fatalf("provider = %q, stageRef = %q", res.StagingProviderID, res.StageRef)
	}

	if res.NewCheckpoint["watermark"] != "2026-02-01T00:00:00Z" {
		t.Fatalf("watermark = %v", res.NewCheckpoint["watermark"])
	}
	if _, hasCursor := res.NewCheckpoint["cursor"]; hasCursor {
		t.Fatal("cursor object must not survive checkpoint rebuild")
	}
	if res.NewCheckpoint["recordCount"] != int64(3) {
		t.Fatalf("recordCount = %v", res.NewCheckpoint["recordCount"])
	}
	if res.NewCheckpoint["lastRunAt"] == nil {
		t.Fatal("lastRunAt not set")
	}

	envelopes, err := mem.GetBatch(context.Background(), res.StageRef, res.BatchRefs[0])
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(envelopes) != 3 {
		t.Fatalf("envelopes = %d", len(envelopes))
	}
	first := envelopes[0].Payload
	if first["logicalId"] != "A" || first["displayName"] != "First issue" {
		t.Fatalf("first payload = %v", first)
	}
	if envelopes[1].Payload["logicalId"] != "deadbeef" {
		t.Fatalf("second logicalId = %v", envelopes[1].Payload["logicalId"])
	}
	if envelopes[2].Payload["logicalId"] != "7" {
		t.Fatalf("third logicalId = %v", envelopes[2].Payload["logicalId"])
	}
}

func TestRunSliceEmpty(t *testing.T) {
	runner, _ := memoryRunner(&stubSource{})

	res, err := runner.RunSlice(context.Background(), Request{
		TemplateID: "stub.source",
		UnitID:     "tracker-issues",
		Mode:       "full",
	})
	if err != nil {
		t.Fatalf("RunSlice: %v", err)
	}
	if res.RecordsStaged != 0 || len(res.BatchRefs) != 0 || res.StageRef != "" {
		t.Fatalf("empty slice result = %+v", res)
	}
	if res.NewCheckpoint["recordCount"] != int64(0) || res.NewCheckpoint["lastRunAt"] == nil {
		t.Fatalf("checkpoint = %v", res.NewCheckpoint)
	}
}

func TestRunSlicePreviewInline(t *testing.T) {
	src := &stubSource{records: []endpoint.Record{{"id": 1}, {"id": 2}}}
	runner, _ := memoryRunner(src)

	res, err := runner.RunSlice(context.Background(), Request{
		TemplateID: "stub.source",
		UnitID:     "tracker-issues",
		Mode:       "PREVIEW",
	})
	if err != nil {
		t.Fatalf("RunSlice: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	if res.StageRef != "" || res.RecordsStaged != 0 {
		t.Fatalf("preview must not stage: %+v", res)
	}
}

func TestRunSlicePreviewSpillsToStaging(t *testing.T) {
	t.Setenv("UCL_MAX_PAYLOAD_BYTES", "16")
	src := &stubSource{records: []endpoint.Record{
		{"id": 1, "body": "some text that exceeds the cap"},
		{"id": 2, "body": "more text"},
	}}
	runner, mem := memoryRunner(src)

	res, err := runner.RunSlice(context.Background(), Request{
		TemplateID: "stub.source",
		UnitID:     "tracker-issues",
		Mode:       "PREVIEW",
	})
	if err != nil {
		t.Fatalf("RunSlice: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0]["_preview"] != "staged" {
		t.Fatalf("stub = %v", res.Records)
	}
	if res.Records[0]["rowCount"] != 2 {
		t.Fatalf("rowCount = %v", res.Records[0]["rowCount"])
	}
	if res.StageRef == "" {
		t.Fatal("expected staged preview ref")
	}
	refs, err := mem.ListBatches(context.Background(), res.StageRef, "preview")
	if err != nil || len(refs) != 1 {
		t.Fatalf("ListBatches = %v, %v", refs, err)
	}
}

func TestRunSliceResetDiscardsCheckpoint(t *testing.T) {
	src := &stubSource{}
	runner, _ := memoryRunner(src)

	_, err := runner.RunSlice(context.Background(), Request{
		TemplateID: "stub.source",
		UnitID:     "tracker-issues",
		DataMode:   "reset",
		Checkpoint: map[string]any{"watermark": "2026-01-01T00:00:00Z"},
	})
	if err != nil {
		t.Fatalf("RunSlice: %v", err)
	}
	if src.lastRead.Checkpoint != nil {
		t.Fatalf("reset must discard checkpoint, got %v", src.lastRead.Checkpoint)
	}
}

func TestRunSliceRoutesThroughReadSlice(t *testing.T) {
	src := &sliceSource{stubSource: stubSource{records: []endpoint.Record{{"_externalId": "X"}}}}
	runner, _ := memoryRunner(src)

	res, err := runner.RunSlice(context.Background(), Request{
		TemplateID: "stub.source",
		UnitID:     "tracker-issues",
		Slice:      &SliceDescriptor{SliceKey: "s0", Sequence: 0, Lower: "a", Upper: "b"},
	})
	if err != nil {
		t.Fatalf("RunSlice: %v", err)
	}
	if src.lastSlice == nil || src.lastSlice.Slice.SliceID != "s0" {
		t.Fatalf("slice read not routed: %+v", src.lastSlice)
	}
	if res.RecordsStaged != 1 {
		t.Fatalf("recordsStaged = %d", res.RecordsStaged)
	}
}

func TestRunSliceStagingConflict(t *testing.T) {
	runner, _ := memoryRunner(&stubSource{records: []endpoint.Record{{"id": 1}}})

	_, err := runner.RunSlice(context.Background(), Request{
		TemplateID:        "stub.source",
		UnitID:            "tracker-issues",
		StagingProviderID: staging.ProviderMinIO,
		Policy:            map[string]any{"disableObjectStore": true},
	})
	var se *staging.Error
	if !errors.As(err, &se) {
		t.Fatalf("expected staging error, got %v", err)
	}
	if se.Code != staging.CodeStagingUnavailable || se.RetryableStatus() {
		t.Fatalf("error = %+v", se)
	}
}

func TestRunSliceIteratorError(t *testing.T) {
	runner, _ := memoryRunner(&stubSource{iterErr: errors.New("corrupt page")})

	_, err := runner.RunSlice(context.Background(), Request{
		TemplateID: "stub.source",
		UnitID:     "tracker-issues",
	})
	var ee *endpoint.Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected coded error, got %v", err)
	}
	if ee.Code != endpoint.CodeUnknown || ee.RetryableStatus() {
		t.Fatalf("error = %+v", ee)
	}
}
