package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/loomworks/loom/pkg/kvstore"
)

// centroidCacheEntry is the persisted per-cluster summary reused by the next
// incremental run when membership is unchanged.
type centroidCacheEntry struct {
	Centroid   []float32     `json:"centroid"`
	Size       int           `json:"size"`
	AvgSim     float32       `json:"avgSim"`
	MaxSim     float32       `json:"maxSim"`
	UpdatedAt  string        `json:"updatedAt"`
	EdgeDegree int           `json:"edgeDegree"`
	MemberHash string        `json:"memberHash"`
	TopRelated []edgeSummary `json:"topRelated,omitempty"`
	Dim        int           `json:"dim"`

	updatedAt time.Time
}

func centroidCacheKey(dataset string) string {
	return fmt.Sprintf("cluster:centroids:%s", dataset)
}

func (b *Builder) loadCentroidCache(ctx context.Context, tenant, project, dataset string) (map[string]centroidCacheEntry, int64, error) {
	if b.kv == nil {
		return map[string]centroidCacheEntry{}, 0, nil
	}
	rec, err := b.kv.Get(ctx, tenant, project, centroidCacheKey(dataset))
	if err != nil || rec == nil {
		return map[string]centroidCacheEntry{}, 0, err
	}
	var payload map[string]centroidCacheEntry
	if err := json.Unmarshal(rec.Value, &payload); err != nil {
		return map[string]centroidCacheEntry{}, rec.Version, err
	}
	for id, entry := range payload {
		if t, err := time.Parse(time.RFC3339, entry.UpdatedAt); err == nil {
			entry.updatedAt = t
			payload[id] = entry
		}
	}
	return payload, rec.Version, nil
}

// saveCentroidCache persists the run's cluster summaries under a CAS version.
// Losing the race just means the next run recomputes centroids.
func (b *Builder) saveCentroidCache(ctx context.Context, tenant, project, dataset string, clusters map[string]*clusterStats, currentVersion int64) {
	if b.kv == nil {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	payload := make(map[string]centroidCacheEntry, len(clusters))
	for id, cs := range clusters {
		dim := len(cs.centroid)
		payload[id] = centroidCacheEntry{
			Centroid:   cs.centroid,
			Size:       cs.size,
			AvgSim:     cs.avgSim,
			MaxSim:     cs.maxSim,
			UpdatedAt:  now,
			EdgeDegree: cs.edgeDegree,
			MemberHash: cs.memberHash,
			TopRelated: cs.topRelated,
			Dim:        dim,
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = b.kv.Put(ctx, kvstore.Record{
		TenantID:  tenant,
		ProjectID: project,
		Key:       centroidCacheKey(dataset),
		Value:     raw,
	}, currentVersion)
}
