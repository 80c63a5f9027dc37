package insight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/graph"
	"github.com/loomworks/loom/pkg/kvstore"
	"github.com/loomworks/loom/pkg/staging"
)

func TestSelectSkillID(t *testing.T) {
	cases := map[string]string{
		"docs":      SkillDoc,
		"tracker":   SkillWork,
		"work":      SkillWork,
		"warehouse": SkillGeneric,
	}
	for family, want := range cases {
		if got := SelectSkillID(family); got != want {
			t.Fatalf("SelectSkillID(%q) = %q, want %q", family, got, want)
		}
	}
}

func TestRegistryYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	yaml := `
id: work-insight.v1
template: "Custom template {{payload}}"
inputSchema:
  required: [summary, status]
model:
  provider: anthropic
  name: claude-3-haiku-20240307
  temperature: 0.5
cache:
  ttlSeconds: 3600
preferCdm: true
`
	if err := os.WriteFile(filepath.Join(dir, "work.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRegistry(dir)
	skill := r.Get(SkillWork)
	if skill.ModelProvider != "anthropic" || skill.ModelTemp != 0.5 {
		t.Fatalf("skill = %+v", skill)
	}
	if len(skill.RequiredFields) != 2 || skill.CacheTTLSeconds != 3600 {
		t.Fatalf("skill = %+v", skill)
	}
	if r.Get(SkillDoc).Template == "" {
		t.Fatal("builtin doc skill must survive overlay")
	}
}

func TestBuildParamsFlattensAndChecksRequired(t *testing.T) {
	payload := map[string]any{
		"id":     "WORK-1",
		"fields": map[string]any{"summary": "Fix login"},
		"count":  float64(3),
	}
	params, ok := BuildParams(payload, []string{"summary"})
	if !ok {
		t.Fatal("required field reachable via dotted alias")
	}
	if params["summary"] != "Fix login" || params["fields.summary"] != "Fix login" {
		t.Fatalf("params = %+v", params)
	}
	if params["count"] != "3" {
		t.Fatalf("count = %q", params["count"])
	}

	if _, ok := BuildParams(map[string]any{"id": "WORK-2"}, []string{"summary"}); ok {
		t.Fatal("missing required field must fail")
	}
}

func TestBuildPromptTruncatesPayload(t *testing.T) {
	skill := Skill{Template: "Title: {{title}}\n{{payload}}"}
	params := map[string]string{
		"title": "big doc",
		"body":  strings.Repeat("x", 5000),
	}
	prompt := BuildPrompt(skill, params)
	if !strings.Contains(prompt, "Title: big doc") {
		t.Fatalf("placeholder not rendered: %q", prompt[:80])
	}
	if !strings.Contains(prompt, "... (truncated)") {
		t.Fatal("oversized payload must be truncated")
	}
}

func TestSignatureIsDeterministic(t *testing.T) {
	a := Signature("s1", "e1", map[string]string{"b": "2", "a": "1"})
	b := Signature("s1", "e1", map[string]string{"a": "1", "b": "2"})
	if a != b {
		t.Fatal("signature must not depend on map order")
	}
	if a == Signature("s1", "e1", map[string]string{"a": "1", "b": "3"}) {
		t.Fatal("signature must change with params")
	}
}

func TestParseResponseFencedArray(t *testing.T) {
	raw := "```json\n[{\"summary\":{\"text\":\"one\"}},{\"summary\":{\"text\":\"two\"}},{\"summary\":{\"text\":\"three\"}},{\"summary\":{\"text\":\"four\"}}]\n```"
	insights, err := ParseResponse(raw, 3)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(insights) != 3 || insights[0].Summary.Text != "one" {
		t.Fatalf("insights = %+v", insights)
	}
}

func TestNormalizeNegativeSentiment(t *testing.T) {
	in := Normalize(Insight{
		Summary:   Summary{Text: "stuck"},
		Sentiment: Sentiment{Label: "Negative"},
		Signals:   []SignalHint{{Type: "blocker"}},
	})
	if in.Sentiment.Score != -0.1 {
		t.Fatalf("score = %v, want -0.1", in.Sentiment.Score)
	}
	if in.Signals[0].Severity != "low" {
		t.Fatalf("severity = %q", in.Signals[0].Severity)
	}
	if in.Tags == nil || in.WaitingOn == nil {
		t.Fatal("nil slices must be normalized")
	}
}

type fakeCompleter struct {
	calls    int
	response string
	err      error
}

func (f *fakeCompleter) Complete(ctx context.Context, skill Skill, prompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeCompleter) Provider() string { return "fake" }

func stageWorkItems(t *testing.T, provider staging.Provider, payloads []map[string]any) (string, []string) {
	t.Helper()
	envelopes := make([]staging.RecordEnvelope, 0, len(payloads))
	for _, p := range payloads {
		envelopes = append(envelopes, staging.RecordEnvelope{
			RecordKind: "raw",
			EntityKind: "work.item",
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

func TestExtractGeneratesAndCachesInsight(t *testing.T) {
	mem := staging.NewMemoryProvider(0)
	stageRef, batchRefs := stageWorkItems(t, mem, []map[string]any{
		{"id": "WORK-1", "summary": "Fix login", "status": "open"},
	})
	completer := &fakeCompleter{
		response: `{"summary":{"text":"Login fix is blocked","confidence":0.8},"sentiment":{"label":"negative"}}`,
	}
	engine := checkpoint.NewEngine(kvstore.NewMemoryStore())
	g := graph.NewMemory()
	x := NewExtractor(nil, staging.NewRegistry(mem), nil, engine, g, nil, completer)

	req := Request{
		ArtifactID:   "art-1",
		DatasetSlug:  "tracker-issues",
		SourceFamily: "tracker",
		RunID:        "run-1",
		StageRef:     stageRef,
		BatchRefs:    batchRefs,
	}
	res, err := x.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.RecordsRead != 1 || res.Parsed != 1 || res.CacheHits != 0 {
		t.Fatalf("result = %+v", res)
	}

	node, ok := g.Node("insight:art-1:WORK-1:0")
	if !ok {
		t.Fatal("insight node not written")
	}
	if node.Properties["summary.text"] != "Login fix is blocked" {
		t.Fatalf("props = %+v", node.Properties)
	}
	if node.Properties["sentiment.score"] != "-0.10" {
		t.Fatalf("sentiment.score = %q", node.Properties["sentiment.score"])
	}
	edges := g.Edges("INSIGHT_FOR")
	if len(edges) != 1 || edges[0].ToID != "WORK-1" {
		t.Fatalf("edges = %+v", edges)
	}

	res2, err := x.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}
	if res2.CacheHits != 1 || res2.Parsed != 0 {
		t.Fatalf("second result = %+v", res2)
	}
	if completer.calls != 1 {
		t.Fatalf("completer calls = %d, want 1", completer.calls)
	}
}

func TestExtractFallbackWithoutCompleter(t *testing.T) {
	mem := staging.NewMemoryProvider(0)
	stageRef, batchRefs := stageWorkItems(t, mem, []map[string]any{
		{"id": "WORK-2", "summary": "Stale ticket"},
	})
	engine := checkpoint.NewEngine(kvstore.NewMemoryStore())
	g := graph.NewMemory()
	x := NewExtractor(nil, staging.NewRegistry(mem), nil, engine, g, nil, nil)

	req := Request{
		ArtifactID:   "art-2",
		DatasetSlug:  "tracker-issues",
		SourceFamily: "tracker",
		RunID:        "run-1",
		StageRef:     stageRef,
		BatchRefs:    batchRefs,
	}
	res, err := x.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Fallbacks != 1 || res.Parsed != 1 {
		t.Fatalf("result = %+v", res)
	}
	node, ok := g.Node("insight:art-2:WORK-2:0")
	if !ok {
		t.Fatal("fallback node missing")
	}
	if node.Properties["provider"] != "fallback" {
		t.Fatalf("provider = %q", node.Properties["provider"])
	}

	// Fallbacks never persist a signature, so the next run regenerates.
	res2, err := x.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}
	if res2.CacheHits != 0 || res2.Fallbacks != 1 {
		t.Fatalf("second result = %+v", res2)
	}
}

func TestExtractSkipsRecordsMissingRequiredFields(t *testing.T) {
	mem := staging.NewMemoryProvider(0)
	stageRef, batchRefs := stageWorkItems(t, mem, []map[string]any{
		{"id": "WORK-3"},
	})
	completer := &fakeCompleter{response: `{"summary":{"text":"x"}}`}
	x := NewExtractor(nil, staging.NewRegistry(mem), nil, nil, nil, nil, completer)

	res, err := x.Extract(context.Background(), Request{
		DatasetSlug:  "tracker-issues",
		SourceFamily: "tracker",
		RunID:        "run-1",
		StageRef:     stageRef,
		BatchRefs:    batchRefs,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.MissingParams != 1 || res.Parsed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if completer.calls != 0 {
		t.Fatalf("completer calls = %d, want 0", completer.calls)
	}
}
