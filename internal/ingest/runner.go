package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/endpoint"
	"github.com/loomworks/loom/pkg/staging"
)

// chunkSize bounds envelope buffers so large runs never hold a full
// dataset in memory.
const chunkSize = 10000

// defaultPreviewLimit applies when a PREVIEW request carries no limit.
const defaultPreviewLimit = 50

// Runner executes one planned slice: read, normalize, stage, checkpoint.
type Runner struct {
	endpoints *endpoint.Registry
	staging   *staging.Registry
}

// NewRunner builds a runner over an endpoint registry and a staging
// registry. Nil arguments fall back to process-wide defaults.
func NewRunner(endpoints *endpoint.Registry, stagingReg *staging.Registry) *Runner {
	if endpoints == nil {
		endpoints = endpoint.DefaultRegistry()
	}
	if stagingReg == nil {
		stagingReg = staging.NewRegistry(staging.NewMemoryProvider(staging.DefaultMemoryCapBytes))
	}
	return &Runner{endpoints: endpoints, staging: stagingReg}
}

// RunSlice reads the requested slice (or the whole unit), normalizes each
// record into an envelope, stages envelopes in batches, and returns the next
// checkpoint plus run stats. PREVIEW mode returns rows inline, spilling to
// staging past the payload cap.
func (r *Runner) RunSlice(ctx context.Context, req Request) (*Result, error) {
	templateID := resolveTemplateID(req)
	if templateID == "" {
		return nil, fmt.Errorf("templateId is required for ingestion execution")
	}
	params := resolveParameters(req.Policy)

	ep, err := r.endpoints.Create(templateID, params)
	if err != nil {
		return nil, err
	}
	defer ep.Close()

	src, ok := ep.(endpoint.SourceEndpoint)
	if !ok {
		return nil, fmt.Errorf("endpoint %s is not a source", templateID)
	}
	vectorProvider, supportsVectorProfile := ep.(endpoint.VectorProfileProvider)

	// dataMode reset/full means ignore any prior progress.
	cp := req.Checkpoint
	if strings.EqualFold(req.DataMode, "reset") || strings.EqualFold(req.DataMode, "full") {
		cp = nil
	}
	if cp != nil {
		cp = checkpoint.NormalizeForRead(cp)
	}

	isPreview := strings.EqualFold(req.Mode, "PREVIEW")

	limit := int64(req.Limit)
	if isPreview && limit <= 0 {
		limit = defaultPreviewLimit
	}

	sliceID := "full"
	if req.Slice != nil && req.Slice.SliceKey != "" {
		sliceID = req.Slice.SliceKey
	}

	var iter endpoint.Iterator[endpoint.Record]
	if req.Slice != nil {
		sliceCapable, ok := ep.(endpoint.SliceCapable)
		if !ok {
			return nil, fmt.Errorf("endpoint %s does not support slice operations", templateID)
		}
		iter, err = sliceCapable.ReadSlice(ctx, &endpoint.SliceReadRequest{
			DatasetID: req.UnitID,
			Slice: &endpoint.IngestionSlice{
				SliceID:  sliceID,
				Sequence: req.Slice.Sequence,
				Lower:    req.Slice.Lower,
				Upper:    req.Slice.Upper,
				Params:   req.Slice.Params,
			},
			Checkpoint: cp,
			Filter:     req.Filter,
		})
	} else {
		iter, err = src.Read(ctx, &endpoint.ReadRequest{
			DatasetID:  req.UnitID,
			Limit:      limit,
			Checkpoint: cp,
			Filter:     req.Filter,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	defer iter.Close()

	var provider staging.Provider
	stagingProviderID := ""
	if !isPreview {
		provider, err = r.selectProvider(req)
		if err != nil {
			return nil, err
		}
		stagingProviderID = provider.ID()
	}

	envelopes := make([]staging.RecordEnvelope, 0, chunkSize)
	var previewRecords []map[string]any
	var stageRef string
	var batchRefs []string
	var bytesStaged int64
	var recordCount int64
	batchSeq := 0

	flush := func() error {
		if len(envelopes) == 0 {
			return nil
		}
		res, err := provider.PutBatch(ctx, &staging.PutBatchRequest{
			StageRef: stageRef,
			SliceID:  sliceID,
			BatchSeq: batchSeq,
			Records:  envelopes,
		})
		if err != nil {
			return err
		}
		stageRef = res.StageRef
		batchRefs = append(batchRefs, res.BatchRef)
		bytesStaged += res.Stats.Bytes
		batchSeq++
		envelopes = envelopes[:0]
		return nil
	}

	for iter.Next() {
		record := iter.Value()
		recordCount++

		if isPreview {
			previewRecords = append(previewRecords, record)
			if limit > 0 && recordCount >= limit {
				break
			}
			continue
		}

		norm := normalizeRecord(record, req)

		var vectorPayload map[string]any
		if supportsVectorProfile {
			if vecRec, ok := vectorProvider.NormalizeForIndex(record); ok {
				vectorPayload = map[string]any{
					"nodeId":       vecRec.NodeID,
					"profileId":    vecRec.ProfileID,
					"entityKind":   vecRec.EntityKind,
					"text":         vecRec.Text,
					"sourceFamily": vecRec.SourceFamily,
					"tenantId":     vecRec.TenantID,
					"projectKey":   vecRec.ProjectKey,
					"sourceUrl":    vecRec.SourceURL,
					"externalId":   vecRec.ExternalID,
					"metadata":     vecRec.Metadata,
				}
			}
		}

		envelopes = append(envelopes, staging.RecordEnvelope{
			RecordKind: "raw",
			EntityKind: req.UnitID,
			Source: staging.SourceRef{
				EndpointID:   req.EndpointID,
				SourceFamily: templateID,
				SourceID:     req.UnitID,
			},
			Payload:       norm,
			VectorPayload: vectorPayload,
			ObservedAt:    time.Now().UTC().Format(time.RFC3339),
		})

		if len(envelopes) >= chunkSize {
			if err := flush(); err != nil {
				return nil, fmt.Errorf("failed to stage records chunk: %w", err)
			}
		}
	}

	if err := iter.Err(); err != nil {
		return nil, &endpoint.Error{Code: endpoint.CodeUnknown, Retryable: false, Err: fmt.Errorf("iteration error: %w", err)}
	}

	if !isPreview {
		if err := flush(); err != nil {
			return nil, fmt.Errorf("failed to stage final records: %w", err)
		}
		// Memory stages stay open so downstream consumers in this process
		// can still replay them.
		if stageRef != "" && provider.ID() != staging.ProviderMemory {
			_ = provider.FinalizeStage(ctx, stageRef)
		}
	}

	stagedRecords := recordCount
	if isPreview {
		stagedRecords = 0
	}

	stats := map[string]any{
		"recordCount":   recordCount,
		"recordsRead":   recordCount,
		"recordsStaged": stagedRecords,
		"unitId":        req.UnitID,
		"templateId":    templateID,
		"dataMode":      req.DataMode,
		"mode":          req.Mode,
		"stageRef":      stageRef,
		"bytesStaged":   bytesStaged,
		"batches":       len(batchRefs),
	}

	// Start from the incoming checkpoint so prior metadata survives, then
	// let the iterator's view win.
	newCheckpoint := checkpoint.Merge(req.Checkpoint, nil)
	if cpIter, ok := iter.(interface{ Checkpoint() *endpoint.Checkpoint }); ok {
		if iterCp := cpIter.Checkpoint(); iterCp != nil {
			newCheckpoint["watermark"] = iterCp.Watermark
			for k, v := range iterCp.Metadata {
				newCheckpoint[k] = v
			}
			// A leftover cursor object would shadow the watermark downstream.
			if cursorVal, hasCursor := newCheckpoint["cursor"]; hasCursor {
				if _, isObject := cursorVal.(map[string]any); isObject {
					delete(newCheckpoint, "cursor")
				}
			}
		}
	}
	newCheckpoint["lastRunAt"] = time.Now().UTC().Format(time.RFC3339)
	newCheckpoint["recordCount"] = recordCount
	if req.DataMode != "" {
		newCheckpoint["dataMode"] = req.DataMode
	}

	transientState := make(map[string]any, len(req.TransientState)+4)
	for k, v := range req.TransientState {
		transientState[k] = v
	}
	transientState["lastProcessedAt"] = time.Now().UTC().Format(time.RFC3339)
	transientState["recordsProcessed"] = recordCount
	transientState["templateId"] = templateID
	transientState["mode"] = req.Mode

	result := &Result{
		NewCheckpoint:     newCheckpoint,
		Stats:             stats,
		StageRef:          stageRef,
		BatchRefs:         batchRefs,
		BytesStaged:       bytesStaged,
		RecordsStaged:     stagedRecords,
		StagingProviderID: stagingProviderID,
		TransientState:    transientState,
	}

	if isPreview {
		if err := r.attachPreview(ctx, req, result, previewRecords); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// selectProvider applies the staging policy: an explicit provider that
// conflicts with a disabled object store is a configuration error, not a
// silent fallback. Otherwise prefer the explicit choice, then a durable
// provider, then size-based selection.
func (r *Runner) selectProvider(req Request) (staging.Provider, error) {
	registry := r.staging
	if disableObjectStore(req.Policy) {
		if req.StagingProviderID != "" && req.StagingProviderID != staging.ProviderMemory {
			return nil, &staging.Error{
				Code:      staging.CodeStagingUnavailable,
				Retryable: false,
				Err:       fmt.Errorf("stagingProviderId %q conflicts with disabled object store", req.StagingProviderID),
			}
		}
		registry = staging.NewRegistry(staging.NewMemoryProvider(staging.DefaultMemoryCapBytes))
	}

	preferred := req.StagingProviderID
	if preferred == "" {
		preferred = staging.ProviderMinIO
	}
	if p, ok := registry.Get(preferred); ok {
		return p, nil
	}
	if req.StagingProviderID != "" {
		return nil, &staging.Error{
			Code:      staging.CodeStagingUnavailable,
			Retryable: false,
			Err:       fmt.Errorf("stagingProviderId %q not available; registered providers: %v", req.StagingProviderID, registry.ProviderIDs()),
		}
	}
	if p, ok := registry.Get(staging.ProviderObjectStore); ok {
		return p, nil
	}

	estimatedBytes := resolveEstimatedBytes(req.Policy)
	if estimatedBytes <= 0 {
		estimatedBytes = staging.DefaultLargeRunThresholdBytes + 1
	}
	return registry.SelectProvider(preferred, estimatedBytes, staging.DefaultLargeRunThresholdBytes)
}

// attachPreview returns rows inline when they fit the payload cap and spills
// them to staging with a summary stub otherwise.
func (r *Runner) attachPreview(ctx context.Context, req Request, result *Result, rows []map[string]any) error {
	data, err := json.Marshal(rows)
	if err != nil {
		rows = stringifyRows(rows)
		data, err = json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("preview rows not serializable: %w", err)
		}
	}
	if len(data) <= maxPayloadBytes() {
		result.Records = rows
		return nil
	}

	provider, err := r.selectProvider(req)
	if err != nil {
		return err
	}
	envelopes := make([]staging.RecordEnvelope, 0, len(rows))
	for _, row := range rows {
		envelopes = append(envelopes, staging.RecordEnvelope{
			RecordKind: "raw",
			EntityKind: req.UnitID,
			Source:     staging.SourceRef{EndpointID: req.EndpointID, SourceID: req.UnitID},
			Payload:    row,
		})
	}
	res, err := provider.PutBatch(ctx, &staging.PutBatchRequest{
		SliceID: "preview",
		Records: envelopes,
	})
	if err != nil {
		return fmt.Errorf("failed to stage preview: %w", err)
	}
	if provider.ID() != staging.ProviderMemory {
		_ = provider.FinalizeStage(ctx, res.StageRef)
	}
	result.StageRef = res.StageRef
	result.StagingProviderID = provider.ID()
	result.Records = []map[string]any{{
		"_preview":    "staged",
		"rowCount":    len(rows),
		"recordsPath": fmt.Sprintf("%s/%s", res.StageRef, res.BatchRef),
	}}
	return nil
}

// normalizeRecord maps a connector record into the sink envelope shape:
// stable identity plus the raw payload under "payload".
func normalizeRecord(rec map[string]any, req Request) map[string]any {
	entity := req.UnitID
	if v, ok := rec["_entity"].(string); ok && v != "" {
		entity = v
	} else if v, ok := rec["_datasetType"].(string); ok && v != "" {
		entity = v
	}
	logical := ""
	switch {
	case isString(rec, "_externalId"):
		logical = rec["_externalId"].(string)
	case isString(rec, "sha"):
		logical = rec["sha"].(string)
	case isString(rec, "issueId"):
		logical = rec["issueId"].(string)
	case isNumber(rec, "number"):
		logical = fmt.Sprintf("%v", rec["number"])
	}
	if logical == "" {
		logical = fmt.Sprintf("%s-%d", req.UnitID, time.Now().UnixNano())
	}
	display := logical
	if v, ok := rec["title"].(string); ok && v != "" {
		display = v
	} else if v, ok := rec["path"].(string); ok && v != "" {
		display = v
	}
	return map[string]any{
		"entityType":  entity,
		"logicalId":   logical,
		"displayName": display,
		"scope": map[string]any{
			"orgId": "default",
		},
		"provenance": map[string]any{
			"endpointId": req.EndpointID,
			"vendor":     req.EndpointID,
		},
		"payload": rec,
	}
}

// stringifyRows degrades non-serializable cells to their string form.
func stringifyRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		clean := make(map[string]any, len(row))
		for k, v := range row {
			if _, err := json.Marshal(v); err != nil {
				clean[k] = fmt.Sprintf("%v", v)
			} else {
				clean[k] = v
			}
		}
		out = append(out, clean)
	}
	return out
}
