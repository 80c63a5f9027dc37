package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/endpoint"
	"github.com/loomworks/loom/internal/graph"
	"github.com/loomworks/loom/internal/kb"
	"github.com/loomworks/loom/internal/replay"
	"github.com/loomworks/loom/pkg/logstore"
	"github.com/loomworks/loom/pkg/staging"
)

// Request scopes an insight extraction run.
type Request struct {
	ArtifactID        string         `json:"artifactId,omitempty"`
	SinkEndpointID    string         `json:"sinkEndpointId,omitempty"`
	EndpointConfig    map[string]any `json:"endpointConfig,omitempty"`
	DatasetSlug       string         `json:"datasetSlug"`
	SourceFamily      string         `json:"sourceFamily,omitempty"`
	TenantID          string         `json:"tenantId,omitempty"`
	ProjectID         string         `json:"projectId,omitempty"`
	RunID             string         `json:"runId,omitempty"`
	Checkpoint        map[string]any `json:"checkpoint,omitempty"`
	StageRef          string         `json:"stageRef,omitempty"`
	BatchRefs         []string       `json:"batchRefs,omitempty"`
	StagingProviderID string         `json:"stagingProviderId,omitempty"`
}

// Result reports per-run insight counters.
type Result struct {
	RecordsRead     int64  `json:"recordsRead"`
	Parsed          int64  `json:"parsed"`
	CacheHits       int64  `json:"cacheHits"`
	MissingParams   int64  `json:"missingParams"`
	Fallbacks       int64  `json:"fallbacks"`
	Errors          int64  `json:"errors"`
	LogEventsPath   string `json:"logEventsPath,omitempty"`
	LogSnapshotPath string `json:"logSnapshotPath,omitempty"`
}

// Extractor generates insights for a run's records. graph, logs, checkpoints,
// and completer may each be nil; a nil completer produces fallback insights.
type Extractor struct {
	endpoints   *endpoint.Registry
	staging     *staging.Registry
	skills      *Registry
	checkpoints *checkpoint.Engine
	graph       graph.Writer
	logs        logstore.Store
	completer   Completer
}

func NewExtractor(endpoints *endpoint.Registry, stagingReg *staging.Registry, skills *Registry, checkpoints *checkpoint.Engine, writer graph.Writer, logs logstore.Store, completer Completer) *Extractor {
	if endpoints == nil {
		endpoints = endpoint.DefaultRegistry()
	}
	if skills == nil {
		skills = NewRegistry("")
	}
	return &Extractor{
		endpoints:   endpoints,
		staging:     stagingReg,
		skills:      skills,
		checkpoints: checkpoints,
		graph:       writer,
		logs:        logs,
		completer:   completer,
	}
}

// Extract streams the run's records, renders the family's skill for each
// entity, and emits insight nodes. Entities whose parameter signature matches
// the cached one are skipped without a model call; signatures are only saved
// after a real model reply parses, so fallback runs stay retryable.
func (x *Extractor) Extract(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.DatasetSlug) == "" {
		return nil, fmt.Errorf("datasetSlug is required")
	}
	useStaging := strings.TrimSpace(req.StageRef) != "" && len(req.BatchRefs) > 0
	if !useStaging && strings.TrimSpace(req.SinkEndpointID) == "" {
		return nil, fmt.Errorf("sinkEndpointId is required for live extraction")
	}
	tenant := req.TenantID
	if tenant == "" {
		tenant = "dev"
	}
	project := req.ProjectID
	if project == "" {
		project = "global"
	}

	iter, closeFn, err := x.openStream(ctx, req, useStaging)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	skill := x.skills.Get(SelectSkillID(req.SourceFamily))
	res := &Result{}
	var events []kb.Event
	var seq int64

	for iter.Next() {
		res.RecordsRead++
		rec := iter.Value()
		payload := recordPayload(rec)
		entityRef := deriveEntityRef(payload)
		if entityRef == "" {
			res.MissingParams++
			continue
		}
		params, ok := BuildParams(payload, skill.RequiredFields)
		if !ok {
			res.MissingParams++
			continue
		}

		signature := Signature(skill.ID, entityRef, params)
		cpKey := checkpoint.InsightKey(skill.ID, entityRef)
		if x.cached(ctx, tenant, project, cpKey, signature) {
			res.CacheHits++
			continue
		}

		insights, generated := x.generate(ctx, skill, params, payload, res)
		kept := insights[:0]
		for _, in := range insights {
			in = Normalize(in)
			if !Valid(in) {
				continue
			}
			kept = append(kept, in)
		}
		if len(kept) == 0 {
			continue
		}
		res.Parsed += int64(len(kept))

		for idx, in := range kept {
			nodeID := fmt.Sprintf("insight:%s:%s:%d", req.ArtifactID, entityRef, idx)
			if err := x.emitInsight(ctx, tenant, project, req, skill, nodeID, entityRef, in); err != nil {
				return nil, err
			}
			seq++
			events = append(events, kb.NewEvent(seq, req.RunID, req.DatasetSlug, "upsert_node", "insight",
				nodeID, skill.ID, entityRef, signature))
		}

		if generated && x.checkpoints != nil {
			_, err := x.checkpoints.Save(ctx, tenant, project, cpKey, map[string]any{
				"signature":   signature,
				"generatedAt": time.Now().UTC().Format(time.RFC3339),
			})
			if err != nil {
				return nil, fmt.Errorf("save insight signature: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	res.LogEventsPath, res.LogSnapshotPath = kb.Save(ctx, x.logs, req.DatasetSlug, req.RunID, events, seq)
	return res, nil
}

// generate returns the insights for one entity plus whether they came from a
// real model reply.
func (x *Extractor) generate(ctx context.Context, skill Skill, params map[string]string, payload map[string]any, res *Result) ([]Insight, bool) {
	if x.completer == nil {
		res.Fallbacks++
		return []Insight{Fallback(payload)}, false
	}
	prompt := BuildPrompt(skill, params)
	raw, err := x.completer.Complete(ctx, skill, prompt)
	if err != nil {
		res.Errors++
		res.Fallbacks++
		return []Insight{Fallback(payload)}, false
	}
	insights, err := ParseResponse(raw, skill.MaxInsights)
	if err != nil {
		res.Errors++
		res.Fallbacks++
		return []Insight{Fallback(payload)}, false
	}
	return insights, true
}

func (x *Extractor) cached(ctx context.Context, tenant, project, key, signature string) bool {
	if x.checkpoints == nil {
		return false
	}
	stored, _, err := x.checkpoints.Load(ctx, tenant, project, key)
	if err != nil || stored == nil {
		return false
	}
	prev, _ := stored["signature"].(string)
	return prev == signature
}

func (x *Extractor) emitInsight(ctx context.Context, tenant, project string, req Request, skill Skill, nodeID, entityRef string, in Insight) error {
	if x.graph == nil {
		return nil
	}
	provider := in.Provider
	if provider == "" && x.completer != nil {
		provider = x.completer.Provider()
	}
	if provider == "" {
		provider = "fallback"
	}
	props := map[string]string{
		"entityRef":          entityRef,
		"dataset":            req.DatasetSlug,
		"artifactId":         req.ArtifactID,
		"sourceFamily":       req.SourceFamily,
		"provider":           provider,
		"promptId":           skill.ID,
		"generatedAt":        time.Now().UTC().Format(time.RFC3339),
		"summary.text":       in.Summary.Text,
		"summary.confidence": fmt.Sprintf("%.2f", in.Summary.Confidence),
		"sentiment.label":    in.Sentiment.Label,
		"sentiment.score":    fmt.Sprintf("%.2f", in.Sentiment.Score),
		"escalationScore":    fmt.Sprintf("%.2f", in.EscalationScore),
		"requirement":        in.Requirement,
		"expiresAt":          in.ExpiresAt,
	}
	if len(in.Sentiment.Tones) > 0 {
		props["sentiment.tones"] = strings.Join(in.Sentiment.Tones, ",")
	}
	if len(in.WaitingOn) > 0 {
		props["waitingOn"] = strings.Join(in.WaitingOn, ",")
	}
	if len(in.Tags) > 0 {
		props["tags"] = strings.Join(in.Tags, ",")
	}
	if len(in.Signals) > 0 {
		raw, _ := json.Marshal(in.Signals)
		props["signals"] = string(raw)
	}
	if len(in.Metadata) > 0 {
		raw, _ := json.Marshal(in.Metadata)
		props["metadata"] = string(raw)
	}
	err := x.graph.UpsertNode(ctx, tenant, project, graph.Node{
		ID:         nodeID,
		Type:       "kg.insight",
		Properties: props,
	})
	if err != nil {
		return fmt.Errorf("upsert insight node %s: %w", nodeID, err)
	}
	err = x.graph.UpsertEdge(ctx, tenant, project, graph.Edge{
		ID:     fmt.Sprintf("insight_for:%s:%s", nodeID, entityRef),
		Type:   "INSIGHT_FOR",
		FromID: nodeID,
		ToID:   entityRef,
	})
	if err != nil {
		return fmt.Errorf("upsert INSIGHT_FOR edge: %w", err)
	}
	return nil
}

func (x *Extractor) openStream(ctx context.Context, req Request, useStaging bool) (endpoint.Iterator[endpoint.Record], func(), error) {
	if useStaging {
		iter, err := replay.FromStaging(ctx, x.staging, req.StagingProviderID, req.StageRef, "", req.DatasetSlug, req.Checkpoint, 0)
		if err != nil {
			return nil, nil, err
		}
		return iter, func() { _ = iter.Close() }, nil
	}
	ep, err := x.endpoints.Create(req.SinkEndpointID, req.EndpointConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("create endpoint: %w", err)
	}
	source, ok := ep.(endpoint.SourceEndpoint)
	if !ok {
		ep.Close()
		return nil, nil, fmt.Errorf("endpoint %s does not implement SourceEndpoint", req.SinkEndpointID)
	}
	iter, err := source.Read(ctx, &endpoint.ReadRequest{DatasetID: req.DatasetSlug, Checkpoint: req.Checkpoint})
	if err != nil {
		ep.Close()
		return nil, nil, fmt.Errorf("read dataset: %w", err)
	}
	return iter, func() {
		_ = iter.Close()
		ep.Close()
	}, nil
}

// recordPayload unwraps nested envelope layers (staging wraps the sink
// envelope, which wraps the source record) down to the innermost payload.
func recordPayload(rec map[string]any) map[string]any {
	for {
		payload, ok := rec["payload"].(map[string]any)
		if !ok {
			return rec
		}
		rec = payload
	}
}

func deriveEntityRef(rec map[string]any) string {
	for _, key := range []string{"entityRef", "id", "key", "logicalId"} {
		if v, ok := rec[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
