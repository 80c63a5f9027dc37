package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/loomworks/loom/internal/cluster"
	"github.com/loomworks/loom/internal/indexer"
	"github.com/loomworks/loom/internal/ingest"
	"github.com/loomworks/loom/internal/insight"
	"github.com/loomworks/loom/internal/signals"
)

// PlanSlices plans bounded ingestion slices for a dataset unit.
func (a *Activities) PlanSlices(ctx context.Context, req ingest.Request) (*ingest.Plan, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("planning slices", "endpoint", req.EndpointID, "unit", req.UnitID, "mode", req.Mode)
	plan, err := a.planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Info("slice plan ready", "unit", req.UnitID, "slices", len(plan.Slices), "strategy", plan.Strategy)
	return plan, nil
}

// RunIngestionSlice executes one planned slice: read, normalize, stage.
func (a *Activities) RunIngestionSlice(ctx context.Context, req ingest.Request) (*ingest.Result, error) {
	logger := activity.GetLogger(ctx)
	sliceKey := ""
	if req.Slice != nil {
		sliceKey = req.Slice.SliceKey
	}
	logger.Info("running ingestion slice", "endpoint", req.EndpointID, "unit", req.UnitID, "slice", sliceKey)
	res, err := a.runner.RunSlice(ctx, req)
	if err != nil {
		logger.Error("ingestion slice failed", "unit", req.UnitID, "slice", sliceKey, "err", err)
		return nil, err
	}
	logger.Info("ingestion slice complete", "unit", req.UnitID, "slice", sliceKey,
		"records", res.RecordsStaged, "bytes", res.BytesStaged)
	return res, nil
}

// PreviewDataset reads a bounded sample of a dataset without staging it.
// Rows past the payload cap spill to staging and come back as a stub.
func (a *Activities) PreviewDataset(ctx context.Context, req ingest.Request) (*ingest.Result, error) {
	logger := activity.GetLogger(ctx)
	req.Mode = "PREVIEW"
	req.Slice = nil
	logger.Info("previewing dataset", "endpoint", req.EndpointID, "unit", req.UnitID, "limit", req.Limit)
	res, err := a.runner.RunSlice(ctx, req)
	if err != nil {
		logger.Error("preview failed", "unit", req.UnitID, "err", err)
		return nil, err
	}
	logger.Info("preview complete", "unit", req.UnitID, "rows", len(res.Records))
	return res, nil
}

// IndexArtifact embeds and upserts a run's records into the vector store.
func (a *Activities) IndexArtifact(ctx context.Context, req indexer.Request) (*indexer.Result, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("indexing artifact", "artifact", req.ArtifactID, "dataset", req.DatasetSlug, "run", req.RunID)
	res, err := a.indexer.IndexArtifact(ctx, req)
	if err != nil {
		logger.Error("indexing failed", "artifact", req.ArtifactID, "err", err)
		return nil, err
	}
	logger.Info("indexing complete", "artifact", req.ArtifactID,
		"read", res.RecordsRead, "indexed", res.RecordsIndexed, "skipped", res.RecordsSkipped)
	return res, nil
}

// BuildClusters groups a dataset's vector entries into similarity clusters.
func (a *Activities) BuildClusters(ctx context.Context, req cluster.Request) (*cluster.Result, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("building clusters", "dataset", req.DatasetSlug, "run", req.RunID)
	res, err := a.clusters.BuildClusters(ctx, req)
	if err != nil {
		logger.Error("clustering failed", "dataset", req.DatasetSlug, "err", err)
		return nil, err
	}
	logger.Info("clustering complete", "dataset", req.DatasetSlug,
		"clusters", res.ClustersCreated, "members", res.MembersLinked, "cacheHits", res.CacheHits)
	return res, nil
}

// ExtractSignals evaluates signal definitions over a run's records.
func (a *Activities) ExtractSignals(ctx context.Context, req signals.Request) (*signals.Result, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("extracting signals", "dataset", req.DatasetSlug, "run", req.RunID)
	res, err := a.signals.Extract(ctx, req)
	if err != nil {
		logger.Error("signal extraction failed", "dataset", req.DatasetSlug, "err", err)
		return nil, err
	}
	logger.Info("signal extraction complete", "dataset", req.DatasetSlug,
		"created", res.Created, "updated", res.Updated, "resolved", res.Resolved)
	return res, nil
}

// ExtractInsights generates per-entity insights for a run's records.
func (a *Activities) ExtractInsights(ctx context.Context, req insight.Request) (*insight.Result, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("extracting insights", "dataset", req.DatasetSlug, "run", req.RunID)
	res, err := a.insights.Extract(ctx, req)
	if err != nil {
		logger.Error("insight extraction failed", "dataset", req.DatasetSlug, "err", err)
		return nil, err
	}
	logger.Info("insight extraction complete", "dataset", req.DatasetSlug,
		"parsed", res.Parsed, "cacheHits", res.CacheHits, "fallbacks", res.Fallbacks)
	return res, nil
}
