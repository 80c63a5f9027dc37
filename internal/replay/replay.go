// Package replay streams staged record envelopes back out of a staging
// provider as endpoint records, resuming from a batch/offset checkpoint and
// applying CDM mapping on the way through.
package replay

import (
	"context"
	"fmt"

	"github.com/loomworks/loom/internal/endpoint"
	"github.com/loomworks/loom/pkg/staging"
)

// FromStaging opens a replay iterator over a staged run. The checkpoint
// convention is {"batchRef": string, "recordOffset": int}: batches before
// batchRef are skipped entirely, and within batchRef replay resumes after
// recordOffset. Batch refs sort lexicographically in write order.
func FromStaging(
	ctx context.Context,
	registry *staging.Registry,
	providerID string,
	stageRef string,
	sliceID string,
	datasetID string,
	checkpoint map[string]any,
	limit int64,
) (endpoint.Iterator[endpoint.Record], error) {
	if providerID == "" {
		providerID, _ = staging.ParseStageRef(stageRef)
	}
	if providerID == "" {
		providerID = staging.ProviderMemory
	}

	provider, ok := registry.Get(providerID)
	if !ok || provider == nil {
		return nil, fmt.Errorf("staging provider %s not found", providerID)
	}
	if stageRef == "" {
		return nil, fmt.Errorf("stageRef is required for replay")
	}

	batchRefs, err := provider.ListBatches(ctx, stageRef, sliceID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	cpBatch := ""
	cpOffset := -1
	if checkpoint != nil {
		if v, ok := checkpoint["batchRef"].(string); ok {
			cpBatch = v
		}
		if v, ok := checkpoint["recordOffset"].(int); ok {
			cpOffset = v
		} else if v, ok := checkpoint["recordOffset"].(float64); ok { // JSON numbers
			cpOffset = int(v)
		}
	}

	return &stagingIterator{
		ctx:              ctx,
		provider:         provider,
		stageRef:         stageRef,
		sliceID:          sliceID,
		batchRefs:        batchRefs,
		checkpointBatch:  cpBatch,
		checkpointOffset: cpOffset,
		limit:            limit,
		datasetID:        datasetID,
		cdm:              endpoint.DefaultCDMRegistry(),
	}, nil
}

type stagingIterator struct {
	ctx              context.Context
	provider         staging.Provider
	stageRef         string
	sliceID          string
	batchRefs        []string
	batchIdx         int
	records          []staging.RecordEnvelope
	recordIdx        int
	current          endpoint.Record
	err              error
	checkpointBatch  string
	checkpointOffset int
	limit            int64
	consumed         int64
	baseOffset       int
	datasetID        string
	cdm              *endpoint.CDMRegistry
}

func (it *stagingIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.limit > 0 && it.consumed >= it.limit {
		return false
	}

	for {
		if it.recordIdx < len(it.records) {
			env := it.records[it.recordIdx]
			it.recordIdx++
			it.consumed++
			offset := it.baseOffset + (it.recordIdx - 1)

			recordKind := env.RecordKind
			payload := env.Payload
			mapperKey := env.EntityKind
			if mapperKey == "" {
				mapperKey = it.datasetID
			}
			if mapperKey != "" && recordKind != "cdm" {
				if mapper, ok := it.cdm.GetMapper(mapperKey); ok {
					if mapped, mapErr := mapper(env.Payload); mapErr == nil {
						if m, ok := mapped.(map[string]any); ok {
							payload = m
							recordKind = "cdm"
						}
					}
				}
			}

			it.current = map[string]any{
				"recordKind":    recordKind,
				"entityKind":    env.EntityKind,
				"payload":       payload,
				"rawPayload":    env.Payload,
				"vectorPayload": env.VectorPayload,
				"source":        env.Source,
				"tenantId":      env.TenantID,
				"projectKey":    env.ProjectKey,
				"observedAt":    env.ObservedAt,
				"stageRef":      it.stageRef,
				"sliceId":       it.sliceID,
				"batchRef":      it.batchRefs[it.batchIdx-1],
				"recordOffset":  offset,
				"mapperKey":     mapperKey,
			}
			return true
		}

		if it.batchIdx >= len(it.batchRefs) {
			return false
		}
		batchRef := it.batchRefs[it.batchIdx]
		it.batchIdx++

		if it.checkpointBatch != "" && batchRef < it.checkpointBatch {
			continue
		}

		recs, err := it.provider.GetBatch(it.ctx, it.stageRef, batchRef)
		if err != nil {
			it.err = fmt.Errorf("get batch %s: %w", batchRef, err)
			return false
		}

		startOffset := 0
		if it.checkpointBatch != "" && batchRef == it.checkpointBatch && it.checkpointOffset >= 0 {
			if it.checkpointOffset < len(recs)-1 {
				recs = recs[it.checkpointOffset+1:]
				startOffset = it.checkpointOffset + 1
			} else {
				recs = nil
			}
		}

		if len(recs) == 0 {
			continue
		}

		it.records = recs
		it.recordIdx = 0
		it.baseOffset = startOffset
	}
}

func (it *stagingIterator) Value() endpoint.Record { return it.current }

func (it *stagingIterator) Err() error { return it.err }

func (it *stagingIterator) Close() error { return nil }
