package signals

import (
	"context"
	"testing"
	"time"

	"github.com/loomworks/loom/internal/graph"
	"github.com/loomworks/loom/pkg/staging"
)

func TestParseSpecRejectsUnknownVersion(t *testing.T) {
	res := ParseSpec(map[string]any{
		"version": float64(2),
		"type":    string(TypeGenericFilter),
		"config":  map[string]any{},
	})
	if res.Valid {
		t.Fatal("version 2 must be rejected")
	}
}

func TestParseSpecGenericFilter(t *testing.T) {
	res := ParseSpec(map[string]any{
		"version": float64(1),
		"type":    string(TypeGenericFilter),
		"config": map[string]any{
			"cdmModelId":      "cdm.work.item",
			"where":           []any{map[string]any{"field": "status", "op": "EQ", "value": "open"}},
			"summaryTemplate": "open item",
		},
	})
	if !res.Valid {
		t.Fatalf("parse failed: %s", res.Reason)
	}
	cfg, ok := res.Spec.Config.(GenericFilterConfig)
	if !ok || len(cfg.Where) != 1 || cfg.Where[0].Op != OpEQ {
		t.Fatalf("config = %+v", res.Spec.Config)
	}
}

func TestParseSpecRequiresSummaryTemplate(t *testing.T) {
	res := ParseSpec(map[string]any{
		"version": float64(1),
		"type":    string(TypeGenericFilter),
		"config": map[string]any{
			"cdmModelId": "cdm.work.item",
			"where":      []any{},
		},
	})
	if res.Valid {
		t.Fatal("missing summaryTemplate must be rejected")
	}
}

func workStaleDef(maxAgeDays, errorAfterDays int) Definition {
	spec := map[string]any{
		"version": float64(1),
		"type":    string(TypeWorkStale),
		"config": map[string]any{
			"cdmModelId": "cdm.work.item",
			"maxAge":     map[string]any{"unit": "days", "value": float64(maxAgeDays)},
		},
	}
	if errorAfterDays > 0 {
		spec["config"].(map[string]any)["severityMapping"] = map[string]any{
			"errorAfter": map[string]any{"unit": "days", "value": float64(errorAfterDays)},
		}
	}
	return Definition{
		ID:             "def-stale",
		Slug:           "work.stale",
		Title:          "Stale work item",
		Severity:       "info",
		ImplMode:       "DSL",
		DefinitionSpec: spec,
	}
}

func TestEvalWorkStaleEscalatesSeverity(t *testing.T) {
	eng := newEngine([]Definition{workStaleDef(7, 21)})
	rec := map[string]any{
		"id":        "WORK-1",
		"status":    "open",
		"updatedAt": time.Now().AddDate(0, 0, -30).Format(time.RFC3339),
	}
	instances := eng.eval(rec, "tracker", "tracker-issues", "run-1")
	if len(instances) != 1 {
		t.Fatalf("instances = %d, want 1", len(instances))
	}
	if instances[0].Severity != "ERROR" {
		t.Fatalf("severity = %q, want ERROR", instances[0].Severity)
	}
	if instances[0].EntityRef != "WORK-1" {
		t.Fatalf("entityRef = %q", instances[0].EntityRef)
	}
}

func TestEvalWorkStaleIgnoresFreshRecords(t *testing.T) {
	eng := newEngine([]Definition{workStaleDef(7, 0)})
	rec := map[string]any{
		"id":        "WORK-2",
		"status":    "open",
		"updatedAt": time.Now().AddDate(0, 0, -2).Format(time.RFC3339),
	}
	if got := eng.eval(rec, "tracker", "tracker-issues", "run-1"); len(got) != 0 {
		t.Fatalf("fresh record matched: %+v", got)
	}
}

func TestEvalGenericFilterSeverityRules(t *testing.T) {
	def := Definition{
		ID:       "def-views",
		Severity: "info",
		ImplMode: "DSL",
		DefinitionSpec: map[string]any{
			"version": float64(1),
			"type":    string(TypeGenericFilter),
			"config": map[string]any{
				"cdmModelId":      "cdm.doc.item",
				"where":           []any{map[string]any{"field": "viewCount", "op": "LT", "value": float64(5)}},
				"summaryTemplate": "low-traffic doc",
				"severityRules": []any{
					map[string]any{
						"when":     []any{map[string]any{"field": "viewCount", "op": "LT", "value": float64(2)}},
						"severity": "error",
					},
				},
			},
		},
	}
	eng := newEngine([]Definition{def})

	hot := eng.eval(map[string]any{"id": "DOC-1", "viewCount": float64(10)}, "docs", "doc-pages", "run-1")
	if len(hot) != 0 {
		t.Fatalf("filtered record matched: %+v", hot)
	}
	warm := eng.eval(map[string]any{"id": "DOC-2", "viewCount": float64(4)}, "docs", "doc-pages", "run-1")
	if len(warm) != 1 || warm[0].Severity != "INFO" {
		t.Fatalf("warm = %+v", warm)
	}
	cold := eng.eval(map[string]any{"id": "DOC-3", "viewCount": float64(1)}, "docs", "doc-pages", "run-1")
	if len(cold) != 1 || cold[0].Severity != "ERROR" {
		t.Fatalf("cold = %+v", cold)
	}
	if cold[0].Summary != "low-traffic doc" {
		t.Fatalf("summary = %q", cold[0].Summary)
	}
}

func stageRecords(t *testing.T, provider staging.Provider, payloads []map[string]any) (string, []string) {
	t.Helper()
	envelopes := make([]staging.RecordEnvelope, 0, len(payloads))
	for _, p := range payloads {
		envelopes = append(envelopes, staging.RecordEnvelope{
			RecordKind: "raw",
			EntityKind: "signal-things",
			Payload:    p,
		})
	}
	res, err := provider.PutBatch(context.Background(), &staging.PutBatchRequest{
		SliceID: "full",
		Records: envelopes,
	})
	if err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	return res.StageRef, []string{res.BatchRef}
}

func TestExtractReconciliation(t *testing.T) {
	store := NewMemory()
	def := Definition{Slug: "catch-all", Title: "Catch all", ImplMode: "CODE", Severity: "INFO"}
	defID, _ := store.UpsertDefinition(context.Background(), def)
	_ = store.UpsertInstance(context.Background(), Instance{
		DefinitionID: defID, EntityRef: "gone", Status: StatusOpen, Severity: "INFO",
	})
	_ = store.UpsertInstance(context.Background(), Instance{
		DefinitionID: defID, EntityRef: "muted", Status: StatusSuppressed, Severity: "INFO",
	})

	mem := staging.NewMemoryProvider(0)
	stageRef, batchRefs := stageRecords(t, mem, []map[string]any{
		{"id": "item-1", "status": "open"},
	})

	g := graph.NewMemory()
	x := NewExtractor(nil, staging.NewRegistry(mem), store, g, nil)
	res, err := x.Extract(context.Background(), Request{
		DatasetSlug:  "signal-things",
		SourceFamily: "tracker",
		RunID:        "run-1",
		StageRef:     stageRef,
		BatchRefs:    batchRefs,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.RecordsRead != 1 || res.Created != 1 || res.Resolved != 1 {
		t.Fatalf("result = %+v", res)
	}

	if inst, _ := store.Instance(defID, "gone"); inst.Status != StatusResolved {
		t.Fatalf("gone status = %q, want RESOLVED", inst.Status)
	}
	if inst, _ := store.Instance(defID, "muted"); inst.Status != StatusSuppressed {
		t.Fatalf("muted status = %q, suppression must survive", inst.Status)
	}
	if inst, ok := store.Instance(defID, "item-1"); !ok || inst.Status != StatusOpen {
		t.Fatalf("item-1 = %+v, %v", inst, ok)
	}

	if _, ok := g.Node("signal:" + defID + ":item-1"); !ok {
		t.Fatal("signal node not written to graph")
	}
	flags := g.Edges("flags")
	if len(flags) != 1 || flags[0].ToID != "item-1" {
		t.Fatalf("flags edges = %+v", flags)
	}
}

func TestExtractSeedsAutoDefinition(t *testing.T) {
	store := NewMemory()
	mem := staging.NewMemoryProvider(0)
	stageRef, batchRefs := stageRecords(t, mem, []map[string]any{
		{"id": "item-9"},
	})

	x := NewExtractor(nil, staging.NewRegistry(mem), store, nil, nil)
	res, err := x.Extract(context.Background(), Request{
		DatasetSlug:  "signal-things",
		SourceFamily: "tracker",
		RunID:        "run-1",
		StageRef:     stageRef,
		BatchRefs:    batchRefs,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Created != 1 {
		t.Fatalf("created = %d, want 1", res.Created)
	}
	defs, _ := store.ListDefinitions(context.Background(), "tracker")
	if len(defs) != 1 || defs[0].Slug != "auto.signal-things" {
		t.Fatalf("defs = %+v", defs)
	}
	if inst, ok := store.Instance(defs[0].ID, "item-9"); !ok || inst.Severity != "INFO" {
		t.Fatalf("instance = %+v, %v", inst, ok)
	}
}

func TestUpdateInstanceStatusUnknownInstance(t *testing.T) {
	store := NewMemory()
	if err := store.UpdateInstanceStatus(context.Background(), "nope", "ref", StatusResolved); err == nil {
		t.Fatal("expected error for unknown instance")
	}
}
