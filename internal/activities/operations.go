package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/loomworks/loom/internal/cluster"
	"github.com/loomworks/loom/internal/indexer"
	"github.com/loomworks/loom/internal/ingest"
	"github.com/loomworks/loom/internal/insight"
	"github.com/loomworks/loom/internal/orchestration"
	"github.com/loomworks/loom/internal/signals"
)

// OpPipelineRun executes the full pipeline for one dataset unit.
const OpPipelineRun = "pipeline.run"

// PipelineRequest is the operation parameter shape for pipeline.run: slice
// planning plus the identity fields the enrichment stages need.
type PipelineRequest struct {
	Ingest       ingest.Request `json:"ingest"`
	ArtifactID   string         `json:"artifactId,omitempty"`
	DatasetSlug  string         `json:"datasetSlug"`
	SourceFamily string         `json:"sourceFamily,omitempty"`
	TenantID     string         `json:"tenantId,omitempty"`
	ProjectID    string         `json:"projectId,omitempty"`
	RunID        string         `json:"runId,omitempty"`
	ProfileID    string         `json:"profileId,omitempty"`
	SkipEnrich   bool           `json:"skipEnrich,omitempty"`
}

// RegisterOperations binds the pipeline runners to the operation manager.
func (a *Activities) RegisterOperations(m *orchestration.Manager) {
	m.RegisterRunner(OpPipelineRun, a.runPipeline)
}

// runPipeline plans slices and runs each one end to end: ingest to staging,
// then index, cluster, signal, and insight stages over the staged batches.
// A slice counts as committed once its staging write lands; enrichment
// failures after that are surfaced as non-retryable.
func (a *Activities) runPipeline(ctx context.Context, h *orchestration.Handle, params map[string]any) error {
	req, err := decodePipelineRequest(params)
	if err != nil {
		return err
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	plan, err := a.planner.Plan(ctx, req.Ingest)
	if err != nil {
		return fmt.Errorf("plan slices: %w", err)
	}
	h.SetStat("slicesTotal", strconv.Itoa(len(plan.Slices)))
	h.SetStat("runId", req.RunID)

	// The fallback plan's single "full" slice maps to a plain unsliced read.
	sliceless := plan.Metadata["reason"] == "endpoint_not_slice_capable"

	var recordsStaged, bytesStaged int64
	slicesDone := 0
	checkpoint := req.Ingest.Checkpoint
	for i := range plan.Slices {
		sliceReq := req.Ingest
		if !sliceless {
			sliceReq.Slice = &plan.Slices[i]
		}
		sliceReq.Checkpoint = checkpoint

		res, err := a.runner.RunSlice(ctx, sliceReq)
		if err != nil {
			return fmt.Errorf("run slice %s: %w", plan.Slices[i].SliceKey, err)
		}
		h.SliceCommitted()
		recordsStaged += res.RecordsStaged
		bytesStaged += res.BytesStaged
		checkpoint = res.NewCheckpoint
		h.SetStat("recordsStaged", strconv.FormatInt(recordsStaged, 10))
		h.SetStat("bytesStaged", strconv.FormatInt(bytesStaged, 10))
		if res.StageRef != "" {
			h.SetStat("stageRef", res.StageRef)
			h.SetStat("batches", strconv.Itoa(len(res.BatchRefs)))
			h.SetStat("stagingProviderId", res.StagingProviderID)
		}

		if !req.SkipEnrich && res.StageRef != "" && len(res.BatchRefs) > 0 {
			if err := a.enrichSlice(ctx, req, res); err != nil {
				return err
			}
		}
		slicesDone++
		h.SetStat("slicesDone", strconv.Itoa(slicesDone))
	}
	return nil
}

func (a *Activities) enrichSlice(ctx context.Context, req PipelineRequest, staged *ingest.Result) error {
	idxRes, err := a.indexer.IndexArtifact(ctx, indexer.Request{
		ArtifactID:        req.ArtifactID,
		DatasetSlug:       req.DatasetSlug,
		SourceFamily:      req.SourceFamily,
		TenantID:          req.TenantID,
		ProjectID:         req.ProjectID,
		ProfileID:         req.ProfileID,
		RunID:             req.RunID,
		StageRef:          staged.StageRef,
		BatchRefs:         staged.BatchRefs,
		StagingProviderID: staged.StagingProviderID,
	})
	if err != nil {
		return fmt.Errorf("index artifact: %w", err)
	}
	if idxRes.RecordsIndexed > 0 {
		if _, err := a.clusters.BuildClusters(ctx, cluster.Request{
			ArtifactID:   req.ArtifactID,
			DatasetSlug:  req.DatasetSlug,
			SourceFamily: req.SourceFamily,
			TenantID:     req.TenantID,
			ProjectID:    req.ProjectID,
			RunID:        req.RunID,
		}); err != nil {
			return fmt.Errorf("build clusters: %w", err)
		}
	}
	if _, err := a.signals.Extract(ctx, signals.Request{
		DatasetSlug:       req.DatasetSlug,
		SourceFamily:      req.SourceFamily,
		TenantID:          req.TenantID,
		ProjectID:         req.ProjectID,
		RunID:             req.RunID,
		StageRef:          staged.StageRef,
		BatchRefs:         staged.BatchRefs,
		StagingProviderID: staged.StagingProviderID,
	}); err != nil {
		return fmt.Errorf("extract signals: %w", err)
	}
	if _, err := a.insights.Extract(ctx, insight.Request{
		ArtifactID:        req.ArtifactID,
		DatasetSlug:       req.DatasetSlug,
		SourceFamily:      req.SourceFamily,
		TenantID:          req.TenantID,
		ProjectID:         req.ProjectID,
		RunID:             req.RunID,
		StageRef:          staged.StageRef,
		BatchRefs:         staged.BatchRefs,
		StagingProviderID: staged.StagingProviderID,
	}); err != nil {
		return fmt.Errorf("extract insights: %w", err)
	}
	return nil
}

func decodePipelineRequest(params map[string]any) (PipelineRequest, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return PipelineRequest{}, fmt.Errorf("encode operation params: %w", err)
	}
	var req PipelineRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return PipelineRequest{}, fmt.Errorf("decode operation params: %w", err)
	}
	if req.DatasetSlug == "" {
		return PipelineRequest{}, fmt.Errorf("datasetSlug is required")
	}
	return req, nil
}
