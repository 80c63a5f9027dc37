package signals

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomworks/loom/internal/endpoint"
	"github.com/loomworks/loom/internal/graph"
	"github.com/loomworks/loom/internal/kb"
	"github.com/loomworks/loom/internal/replay"
	"github.com/loomworks/loom/pkg/logstore"
	"github.com/loomworks/loom/pkg/staging"
)

// Request identifies the records to evaluate and the run scoping them.
type Request struct {
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

// Result reports per-run signal counters.
type Result struct {
	RecordsRead     int64  `json:"recordsRead"`
	Created         int64  `json:"created"`
	Updated         int64  `json:"updated"`
	Resolved        int64  `json:"resolved"`
	LogEventsPath   string `json:"logEventsPath,omitempty"`
	LogSnapshotPath string `json:"logSnapshotPath,omitempty"`
}

// Extractor evaluates definitions over a run's records and owns instance
// reconciliation. graph and logs may be nil.
type Extractor struct {
	endpoints *endpoint.Registry
	staging   *staging.Registry
	store     Store
	graph     graph.Writer
	logs      logstore.Store
}

func NewExtractor(endpoints *endpoint.Registry, stagingReg *staging.Registry, store Store, writer graph.Writer, logs logstore.Store) *Extractor {
	if endpoints == nil {
		endpoints = endpoint.DefaultRegistry()
	}
	return &Extractor{
		endpoints: endpoints,
		staging:   stagingReg,
		store:     store,
		graph:     writer,
		logs:      logs,
	}
}

// Extract streams the run's records through every applicable definition,
// upserts matching instances, and resolves previously-open instances that no
// longer match. Suppressed instances are never auto-resolved.
func (x *Extractor) Extract(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.DatasetSlug) == "" {
		return nil, fmt.Errorf("datasetSlug is required")
	}
	useStaging := strings.TrimSpace(req.StageRef) != "" && len(req.BatchRefs) > 0
	if !useStaging && strings.TrimSpace(req.SinkEndpointID) == "" {
		return nil, fmt.Errorf("sinkEndpointId is required for live extraction")
	}

	defs, err := x.loadDefinitions(ctx, req)
	if err != nil {
		return nil, err
	}

	// Preload instances per definition so reconciliation can spot pairs that
	// stopped matching.
	existing := make(map[string]map[string]Instance)
	for _, def := range defs {
		insts, err := x.store.ListInstances(ctx, def.ID)
		if err != nil {
			return nil, fmt.Errorf("list instances for %s: %w", def.ID, err)
		}
		byRef := make(map[string]Instance, len(insts))
		for _, inst := range insts {
			byRef[inst.EntityRef] = inst
		}
		existing[def.ID] = byRef
	}

	iter, closeFn, err := x.openStream(ctx, req, useStaging)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	eng := newEngine(defs)
	seen := make(map[string]map[string]bool)
	var recordsRead, created, updated int64
	var events []kb.Event
	var seq int64

	for iter.Next() {
		recordsRead++
		rec := evalRecord(iter.Value())
		for _, inst := range eng.eval(rec, req.SourceFamily, req.DatasetSlug, req.RunID) {
			if seen[inst.DefinitionID] == nil {
				seen[inst.DefinitionID] = make(map[string]bool)
			}
			if _, exists := existing[inst.DefinitionID][inst.EntityRef]; exists {
				updated++
			} else {
				created++
			}
			seen[inst.DefinitionID][inst.EntityRef] = true
			if err := x.store.UpsertInstance(ctx, inst); err != nil {
				return nil, fmt.Errorf("upsert signal instance: %w", err)
			}
			if err := x.emitSignal(ctx, req, defs, inst); err != nil {
				return nil, err
			}
			seq++
			events = append(events, kb.NewEvent(seq, req.RunID, req.DatasetSlug, "upsert_node", "signal",
				fmt.Sprintf("signal:%s:%s", inst.DefinitionID, inst.EntityRef),
				inst.DefinitionID, inst.EntityRef, req.RunID))
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	var resolved int64
	for defID, byRef := range existing {
		defSeen := seen[defID]
		for entityRef, inst := range byRef {
			if defSeen != nil && defSeen[entityRef] {
				continue
			}
			if inst.Status != StatusOpen {
				continue
			}
			if err := x.store.UpdateInstanceStatus(ctx, defID, entityRef, StatusResolved); err != nil {
				continue
			}
			resolved++
		}
	}

	eventsPath, snapPath := kb.Save(ctx, x.logs, req.DatasetSlug, req.RunID, events, seq)
	return &Result{
		RecordsRead:     recordsRead,
		Created:         created,
		Updated:         updated,
		Resolved:        resolved,
		LogEventsPath:   eventsPath,
		LogSnapshotPath: snapPath,
	}, nil
}

// loadDefinitions fetches the applicable definitions, seeding a catch-all
// CODE definition the first time a source family shows up.
func (x *Extractor) loadDefinitions(ctx context.Context, req Request) ([]Definition, error) {
	defs, err := x.store.ListDefinitions(ctx, req.SourceFamily)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	if len(defs) > 0 {
		return defs, nil
	}
	auto := Definition{
		Slug:         fmt.Sprintf("auto.%s", req.DatasetSlug),
		Title:        fmt.Sprintf("Auto signals for %s", req.DatasetSlug),
		Description:  "Auto-generated signals from ingestion artifacts",
		ImplMode:     "CODE",
		SourceFamily: req.SourceFamily,
		Severity:     "INFO",
	}
	id, err := x.store.UpsertDefinition(ctx, auto)
	if err != nil {
		return nil, fmt.Errorf("upsert signal definition: %w", err)
	}
	auto.ID = id
	return []Definition{auto}, nil
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

// evalRecord unwraps the staged envelope so definitions see the record fields
// directly; envelope-level entityKind is kept visible for kind filters.
func evalRecord(rec map[string]any) map[string]any {
	outer := rec
	for {
		payload, ok := rec["payload"].(map[string]any)
		if !ok {
			break
		}
		rec = payload
	}
	if rec == nil {
		return outer
	}
	out := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	if _, ok := out["entityKind"]; !ok {
		if kind, ok := outer["entityKind"].(string); ok && kind != "" {
			out["entityKind"] = kind
		}
	}
	return out
}

func (x *Extractor) emitSignal(ctx context.Context, req Request, defs []Definition, inst Instance) error {
	if x.graph == nil {
		return nil
	}
	tenant := req.TenantID
	if tenant == "" {
		tenant = "dev"
	}
	project := req.ProjectID
	if project == "" {
		project = "global"
	}
	title := inst.Summary
	for _, d := range defs {
		if d.ID == inst.DefinitionID && d.Title != "" {
			title = d.Title
			break
		}
	}
	nodeID := fmt.Sprintf("signal:%s:%s", inst.DefinitionID, inst.EntityRef)
	err := x.graph.UpsertNode(ctx, tenant, project, graph.Node{
		ID:   nodeID,
		Type: "signal",
		Properties: map[string]string{
			"definitionId": inst.DefinitionID,
			"entityRef":    inst.EntityRef,
			"entityKind":   inst.EntityKind,
			"severity":     inst.Severity,
			"title":        title,
		},
	})
	if err != nil {
		return fmt.Errorf("upsert signal node %s: %w", nodeID, err)
	}
	err = x.graph.UpsertEdge(ctx, tenant, project, graph.Edge{
		ID:         fmt.Sprintf("signal-def:%s:%s", inst.DefinitionID, inst.EntityRef),
		Type:       "instance_of",
		FromID:     nodeID,
		ToID:       inst.DefinitionID,
		Properties: map[string]string{"severity": inst.Severity},
	})
	if err != nil {
		return fmt.Errorf("upsert instance_of edge: %w", err)
	}
	err = x.graph.UpsertEdge(ctx, tenant, project, graph.Edge{
		ID:         fmt.Sprintf("signal-entity:%s:%s", inst.DefinitionID, inst.EntityRef),
		Type:       "flags",
		FromID:     nodeID,
		ToID:       inst.EntityRef,
		Properties: map[string]string{"severity": inst.Severity},
	})
	if err != nil {
		return fmt.Errorf("upsert flags edge: %w", err)
	}
	return nil
}
