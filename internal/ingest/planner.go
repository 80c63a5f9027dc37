package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/endpoint"
	"github.com/loomworks/loom/pkg/cdm"
)

// Planner turns a dataset unit into a bounded slice plan.
type Planner struct {
	endpoints *endpoint.Registry
}

// NewPlanner builds a planner over an endpoint registry. A nil registry
// falls back to the process-wide default.
func NewPlanner(endpoints *endpoint.Registry) *Planner {
	if endpoints == nil {
		endpoints = endpoint.DefaultRegistry()
	}
	return &Planner{endpoints: endpoints}
}

// Plan resolves the endpoint, picks a strategy, and returns serialized
// slices plus plan metadata. Endpoints without slice support get a single
// full slice.
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	templateID := resolveTemplateID(req)
	if templateID == "" {
		return nil, fmt.Errorf("templateId is required for ingestion planning")
	}
	params := resolveParameters(req.Policy)
	targetSliceSize := resolveTargetSliceSize(req.Policy)

	ep, err := p.endpoints.Create(templateID, params)
	if err != nil {
		return nil, err
	}
	defer ep.Close()

	sliceCapable, ok := ep.(endpoint.SliceCapable)
	if !ok {
		// Single full slice keeps non-sliceable sources on the same path.
		schema := p.resolveSchema(ctx, ep, req.UnitID, req.CDMModelID)
		return &Plan{
			Slices:   []SliceDescriptor{{SliceKey: "full", Sequence: 0}},
			Strategy: endpoint.StrategyFull,
			Metadata: map[string]any{
				"reason":          "endpoint_not_slice_capable",
				"datasetId":       req.UnitID,
				"templateId":      templateID,
				"sliceCount":      1,
				"targetSliceSize": targetSliceSize,
				"schema":          schema,
			},
		}, nil
	}

	schema := p.resolveSchema(ctx, ep, req.UnitID, req.CDMModelID)

	var cp *endpoint.Checkpoint
	if req.Checkpoint != nil {
		normalized := checkpoint.NormalizeForRead(req.Checkpoint)
		cp = &endpoint.Checkpoint{Metadata: normalized}
		if wm, ok := normalized["watermark"].(string); ok {
			cp.Watermark = wm
		}
	}

	strategy := endpoint.StrategyFull
	if strings.EqualFold(req.Mode, endpoint.StrategyIncremental) {
		strategy = endpoint.StrategyIncremental
	}
	if strings.EqualFold(getString(req.Policy, "strategy", ""), endpoint.StrategyAdaptive) {
		strategy = endpoint.StrategyAdaptive
	}

	plan, err := p.planSlices(ctx, ep, sliceCapable, req, strategy, cp, targetSliceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to plan slices: %w", err)
	}

	slices := make([]SliceDescriptor, 0, len(plan.Slices))
	for i, s := range plan.Slices {
		slices = append(slices, SliceDescriptor{
			SliceKey:      s.SliceID,
			Sequence:      i,
			Lower:         s.Lower,
			Upper:         s.Upper,
			EstimatedRows: s.EstimatedRows,
			Params:        s.Params,
		})
	}

	metadata := map[string]any{
		"datasetId":       req.UnitID,
		"templateId":      templateID,
		"sliceCount":      len(slices),
		"targetSliceSize": targetSliceSize,
	}
	if plan.Statistics != nil {
		metadata["statistics"] = plan.Statistics
	}
	if schema != nil {
		metadata["schema"] = schema
	}
	if req.CDMModelID != "" {
		metadata["cdmModelId"] = req.CDMModelID
	}

	return &Plan{Slices: slices, Strategy: plan.Strategy, Metadata: metadata}, nil
}

// planSlices dispatches by strategy. Adaptive sources are probed first so
// the plan can use row/byte estimates and candidate slice keys.
func (p *Planner) planSlices(
	ctx context.Context,
	ep endpoint.Endpoint,
	sliceCapable endpoint.SliceCapable,
	req Request,
	strategy string,
	cp *endpoint.Checkpoint,
	targetSliceSize int64,
) (*endpoint.IngestionPlan, error) {
	if strategy == endpoint.StrategyAdaptive {
		if adaptive, ok := ep.(endpoint.AdaptiveIngestion); ok {
			probe, err := adaptive.ProbeIngestion(ctx, &endpoint.ProbeRequest{
				DatasetID: req.UnitID,
				Filters:   req.Filter,
			})
			if err != nil {
				return nil, fmt.Errorf("probe failed: %w", err)
			}
			plan, err := adaptive.PlanIngestion(ctx, &endpoint.PlanIngestionRequest{
				DatasetID: req.UnitID,
				Filters:   req.Filter,
				Probe:     probe,
			})
			if err != nil {
				return nil, err
			}
			if plan.Strategy == "" {
				plan.Strategy = endpoint.StrategyAdaptive
			}
			return plan, nil
		}
		// No probe hooks; degrade to a full plan.
		strategy = endpoint.StrategyFull
	}

	plan, err := sliceCapable.PlanSlices(ctx, &endpoint.PlanRequest{
		DatasetID:       req.UnitID,
		Strategy:        strategy,
		Checkpoint:      cp,
		TargetSliceSize: targetSliceSize,
	})
	if err != nil {
		return nil, err
	}
	if plan.Strategy == "" {
		plan.Strategy = strategy
	}
	return plan, nil
}

// resolveSchema prefers a CDM-defined schema, then the endpoint's own.
func (p *Planner) resolveSchema(ctx context.Context, ep endpoint.Endpoint, unitID, cdmModelID string) *endpoint.Schema {
	if schema := schemaFromCDM(cdmModelID); schema != nil {
		return schema
	}
	src, ok := ep.(endpoint.SourceEndpoint)
	if !ok {
		return nil
	}
	schema, err := src.GetSchema(ctx, unitID)
	if err != nil || schema == nil || len(schema.Fields) == 0 {
		return nil
	}
	return schema
}

func schemaFromCDM(modelID string) *endpoint.Schema {
	cols := cdm.ModelSchema(modelID)
	if len(cols) == 0 {
		return nil
	}
	fields := make([]*endpoint.FieldDefinition, 0, len(cols))
	for idx, col := range cols {
		fields = append(fields, &endpoint.FieldDefinition{
			Name:     col.Name,
			DataType: col.Type,
			Nullable: col.Nullable,
			Position: idx + 1,
		})
	}
	return &endpoint.Schema{Fields: fields}
}
