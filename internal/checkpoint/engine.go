package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/loomworks/loom/pkg/kvstore"
)

// casRetries bounds re-read/re-merge attempts on concurrent writers.
const casRetries = 5

// Engine persists checkpoints through the KV store with CAS versioning.
type Engine struct {
	kv kvstore.Store
}

// NewEngine creates a checkpoint engine over the given KV store.
func NewEngine(kv kvstore.Store) *Engine {
	return &Engine{kv: kv}
}

// Load returns the checkpoint for key, or (nil, 0, nil) when absent.
func (e *Engine) Load(ctx context.Context, tenantID, projectID, key string) (map[string]any, int64, error) {
	rec, err := e.kv.Get(ctx, tenantID, projectID, key)
	if err != nil {
		return nil, 0, fmt.Errorf("load checkpoint %s: %w", key, err)
	}
	if rec == nil {
		return nil, 0, nil
	}
	var cp map[string]any
	if err := json.Unmarshal(rec.Value, &cp); err != nil {
		return nil, 0, fmt.Errorf("decode checkpoint %s: %w", key, err)
	}
	return cp, rec.Version, nil
}

// Save merges cp onto the stored checkpoint and writes it with CAS. On a
// version conflict it re-reads, re-merges, and retries.
func (e *Engine) Save(ctx context.Context, tenantID, projectID, key string, cp map[string]any) (int64, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		base, version, err := e.Load(ctx, tenantID, projectID, key)
		if err != nil {
			return 0, err
		}
		merged := Merge(base, cp)

		value, err := json.Marshal(merged)
		if err != nil {
			return 0, fmt.Errorf("encode checkpoint %s: %w", key, err)
		}
		newVersion, err := e.kv.Put(ctx, kvstore.Record{
			TenantID:  tenantID,
			ProjectID: projectID,
			Key:       key,
			Value:     value,
		}, version)
		if err == nil {
			return newVersion, nil
		}
		if !errors.Is(err, kvstore.ErrVersionMismatch) {
			return 0, fmt.Errorf("save checkpoint %s: %w", key, err)
		}
	}
	return 0, fmt.Errorf("save checkpoint %s: %w after %d attempts", key, kvstore.ErrVersionMismatch, casRetries)
}
