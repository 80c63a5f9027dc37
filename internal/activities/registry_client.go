package activities

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// registryClient mirrors artifact lifecycle status into the metadata registry.
// All mark* writes are best-effort so a registry outage never fails a run.
type registryClient struct {
	db *sql.DB
}

type materializedArtifact struct {
	ID             string
	TenantID       string
	SourceFamily   string
	SinkEndpointID string
	Handle         map[string]any
}

type runSummary struct {
	ArtifactID      string
	TenantID        string
	SourceFamily    string
	SinkEndpointID  string
	VersionHash     string
	NodesTouched    int64
	EdgesTouched    int64
	CacheHits       int64
	LogEventsPath   string
	LogSnapshotPath string
}

// newRegistryClient returns nil when no registry DSN is configured.
func newRegistryClient() (*registryClient, error) {
	dsn := registryDSN()
	if dsn == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &registryClient{db: db}, nil
}

func (c *registryClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *registryClient) MarkIndexing(ctx context.Context, artifactID string) error {
	if c == nil || c.db == nil || artifactID == "" {
		return nil
	}
	_, _ = c.db.ExecContext(ctx, `
UPDATE metadata.materialized_artifacts
SET status='INDEXING', index_status='INDEXING', index_last_error=NULL, updated_at=now()
WHERE id=$1`, artifactID)
	return nil
}

func (c *registryClient) MarkIndexed(ctx context.Context, artifactID string, stats map[string]any) error {
	if c == nil || c.db == nil || artifactID == "" {
		return nil
	}
	payload, _ := json.Marshal(stats)
	_, _ = c.db.ExecContext(ctx, `
UPDATE metadata.materialized_artifacts
SET status='INDEXED', index_status='INDEXED', index_counters=$2, index_last_error=NULL, updated_at=now()
WHERE id=$1`, artifactID, payload)
	return nil
}

func (c *registryClient) MarkIndexFailed(ctx context.Context, artifactID string, reason string) error {
	if c == nil || c.db == nil || artifactID == "" {
		return nil
	}
	payload, _ := json.Marshal(map[string]any{"error": reason})
	_, _ = c.db.ExecContext(ctx, `
UPDATE metadata.materialized_artifacts
SET status='FAILED', index_status='FAILED', index_last_error=$2, updated_at=now()
WHERE id=$1`, artifactID, payload)
	return nil
}

// MarkClustered merges clustering counters into index_counters so indexing
// stats survive.
func (c *registryClient) MarkClustered(ctx context.Context, artifactID string, stats map[string]any) error {
	if c == nil || c.db == nil || artifactID == "" {
		return nil
	}
	payload, _ := json.Marshal(stats)
	_, _ = c.db.ExecContext(ctx, `
UPDATE metadata.materialized_artifacts
SET index_counters = COALESCE(index_counters, '{}'::jsonb) || $2::jsonb,
    updated_at = now()
WHERE id = $1`, artifactID, payload)
	return nil
}

func (c *registryClient) getArtifact(ctx context.Context, artifactID string) (*materializedArtifact, error) {
	if c == nil || c.db == nil || artifactID == "" {
		return nil, fmt.Errorf("artifactID is required")
	}
	row := c.db.QueryRowContext(ctx, `
SELECT id, tenant_id, source_family, sink_endpoint_id, handle
FROM metadata.materialized_artifacts
WHERE id=$1`, artifactID)
	var art materializedArtifact
	var handleBytes []byte
	if err := row.Scan(&art.ID, &art.TenantID, &art.SourceFamily, &art.SinkEndpointID, &handleBytes); err != nil {
		return nil, err
	}
	if len(handleBytes) > 0 {
		_ = json.Unmarshal(handleBytes, &art.Handle)
	}
	return &art, nil
}

func (c *registryClient) getRunSummary(ctx context.Context, artifactID string) (*runSummary, error) {
	if c == nil || c.db == nil || artifactID == "" {
		return nil, fmt.Errorf("artifactID is required")
	}
	row := c.db.QueryRowContext(ctx, `
SELECT tenant_id, source_family, sink_endpoint_id, index_counters
FROM metadata.materialized_artifacts
WHERE id=$1`, artifactID)
	var tenantID, sourceFamily, sinkID string
	var countersBytes []byte
	if err := row.Scan(&tenantID, &sourceFamily, &sinkID, &countersBytes); err != nil {
		return nil, err
	}
	out := &runSummary{
		ArtifactID:     artifactID,
		TenantID:       tenantID,
		SourceFamily:   sourceFamily,
		SinkEndpointID: sinkID,
	}
	if len(countersBytes) > 0 {
		var counters map[string]any
		if err := json.Unmarshal(countersBytes, &counters); err == nil {
			out.VersionHash, _ = counters["versionHash"].(string)
			out.LogEventsPath, _ = counters["logEventsPath"].(string)
			out.LogSnapshotPath, _ = counters["logSnapshotPath"].(string)
			if v, ok := counters["nodesTouched"].(float64); ok {
				out.NodesTouched = int64(v)
			}
			if v, ok := counters["edgesTouched"].(float64); ok {
				out.EdgesTouched = int64(v)
			}
			if v, ok := counters["cacheHits"].(float64); ok {
				out.CacheHits = int64(v)
			}
		}
	}
	return out, nil
}
