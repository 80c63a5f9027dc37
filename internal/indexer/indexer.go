// Package indexer turns staged (or live) records into embedded vector store
// entries, deduplicating unchanged content by hash so embedding calls are
// only spent on new or modified text.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/endpoint"
	"github.com/loomworks/loom/internal/kb"
	"github.com/loomworks/loom/internal/embed"
	"github.com/loomworks/loom/internal/replay"
	"github.com/loomworks/loom/pkg/logstore"
	"github.com/loomworks/loom/pkg/staging"
	"github.com/loomworks/loom/pkg/vectorstore"
)

// Request identifies the artifact to index and where its records live.
// A non-empty StageRef with batch refs selects staged replay; otherwise the
// sink endpoint is read live.
type Request struct {
	ArtifactID        string         `json:"artifactId,omitempty"`
	SinkEndpointID    string         `json:"sinkEndpointId,omitempty"`
	EndpointConfig    map[string]any `json:"endpointConfig,omitempty"`
	DatasetSlug       string         `json:"datasetSlug"`
	SourceFamily      string         `json:"sourceFamily,omitempty"`
	TenantID          string         `json:"tenantId,omitempty"`
	ProjectID         string         `json:"projectId,omitempty"`
	ProfileID         string         `json:"profileId,omitempty"`
	CdmModelID        string         `json:"cdmModelId,omitempty"`
	RunID             string         `json:"runId,omitempty"`
	Checkpoint        map[string]any `json:"checkpoint,omitempty"`
	StageRef          string         `json:"stageRef,omitempty"`
	BatchRefs         []string       `json:"batchRefs,omitempty"`
	StagingProviderID string         `json:"stagingProviderId,omitempty"`
}

// Result reports indexing counters and the persisted checkpoint.
type Result struct {
	RecordsRead     int64          `json:"recordsRead"`
	RecordsIndexed  int64          `json:"recordsIndexed"`
	RecordsSkipped  int64          `json:"recordsSkipped"`
	VectorFallback  int64          `json:"vectorFallback"`
	Checkpoint      map[string]any `json:"checkpoint,omitempty"`
	Status          string         `json:"status"`
	LogEventsPath   string         `json:"logEventsPath,omitempty"`
	LogSnapshotPath string         `json:"logSnapshotPath,omitempty"`
}

// StatusRecorder mirrors artifact lifecycle status to the registry.
// All methods are best-effort; a nil recorder disables status mirroring.
type StatusRecorder interface {
	MarkIndexing(ctx context.Context, artifactID string) error
	MarkIndexed(ctx context.Context, artifactID string, stats map[string]any) error
	MarkIndexFailed(ctx context.Context, artifactID string, reason string) error
}

// Indexer wires the pipeline pieces needed to index one artifact.
type Indexer struct {
	endpoints   *endpoint.Registry
	staging     *staging.Registry
	vectors     vectorstore.Store
	checkpoints *checkpoint.Engine
	embedder    embed.Provider
	logs        logstore.Store
	recorder    StatusRecorder
}

// New builds an indexer. vectors, checkpoints, and embedder are required;
// logs and recorder may be nil.
func New(
	endpoints *endpoint.Registry,
	stagingReg *staging.Registry,
	vectors vectorstore.Store,
	checkpoints *checkpoint.Engine,
	embedder embed.Provider,
	logs logstore.Store,
	recorder StatusRecorder,
) *Indexer {
	if endpoints == nil {
		endpoints = endpoint.DefaultRegistry()
	}
	return &Indexer{
		endpoints:   endpoints,
		staging:     stagingReg,
		vectors:     vectors,
		checkpoints: checkpoints,
		embedder:    embedder,
		logs:        logs,
		recorder:    recorder,
	}
}

// IndexArtifact streams records, normalizes them into vector entries, embeds
// changed content in one batch, and upserts the results. Content hashes are
// saved only after a successful upsert.
func (ix *Indexer) IndexArtifact(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.DatasetSlug) == "" {
		return nil, fmt.Errorf("datasetSlug is required")
	}
	useStaging := strings.TrimSpace(req.StageRef) != "" && len(req.BatchRefs) > 0
	if !useStaging && strings.TrimSpace(req.SinkEndpointID) == "" {
		return nil, fmt.Errorf("sinkEndpointId is required for live indexing")
	}

	if ix.recorder != nil && req.ArtifactID != "" {
		_ = ix.recorder.MarkIndexing(ctx, req.ArtifactID)
	}

	tenantID := req.TenantID
	if tenantID == "" {
		tenantID = getenv("TENANT_ID", "dev")
	}
	projectID := req.ProjectID
	if projectID == "" {
		projectID = getenv("METADATA_DEFAULT_PROJECT", "global")
	}
	profileID := resolveProfileID(req)

	cp := map[string]any{}
	for k, v := range req.Checkpoint {
		cp[k] = v
	}
	key := checkpoint.IndexerKey(profileID, req.DatasetSlug)
	if len(cp) == 0 && ix.checkpoints != nil {
		if persisted, _, err := ix.checkpoints.Load(ctx, tenantID, projectID, key); err == nil {
			for k, v := range persisted {
				cp[k] = v
			}
		}
	}
	if req.RunID != "" {
		cp["runId"] = req.RunID
	}

	iter, closeFn, err := ix.openStream(ctx, req, cp, useStaging)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var (
		recordsRead    int64
		vectorFallback int64
		lastKey        string
		lastRun        string
		lastBatch      string
		lastOffset     int
		normalized     []vectorstore.Entry
		contents       []string
		events         []kb.Event
		seq            int64
	)

	for iter.Next() {
		rec := iter.Value()
		recordsRead++
		if v, ok := rec["objectKey"].(string); ok {
			lastKey = v
		}
		if v, ok := rec["runId"].(string); ok {
			lastRun = v
		}
		if v, ok := rec["batchRef"].(string); ok {
			lastBatch = v
		}
		if v, ok := rec["recordOffset"].(int); ok {
			lastOffset = v
		} else if v, ok := rec["recordOffset"].(float64); ok {
			lastOffset = int(v)
		}

		entry, content, ok := entryFromVectorPayload(rec, req, tenantID, projectID)
		if !ok {
			entry, content, ok = normalizeVectorRecord(rec, profileID, tenantID, projectID, req.DatasetSlug, req.SinkEndpointID)
			if ok {
				vectorFallback++
			}
		}
		if !ok {
			continue
		}

		entry.ArtifactID = req.ArtifactID
		entry.RunID = req.RunID
		normalized = append(normalized, entry)
		contents = append(contents, content)
		seq++
		events = append(events, kb.NewEvent(seq, req.RunID, req.DatasetSlug, "upsert_node", "vector_entry", entry.NodeID, entry.NodeID, req.RunID))
	}
	if err := iter.Err(); err != nil {
		ix.failArtifact(ctx, req, err)
		return nil, err
	}

	var skipped int64
	if len(normalized) > 0 {
		skipped, err = ix.embedAndUpsert(ctx, tenantID, projectID, profileID, normalized, contents)
		if err != nil {
			ix.failArtifact(ctx, req, err)
			return nil, err
		}
	}
	indexed := int64(len(normalized)) - skipped

	newCheckpoint := map[string]any{}
	if useStaging {
		if lastBatch != "" {
			newCheckpoint["batchRef"] = lastBatch
			newCheckpoint["recordOffset"] = lastOffset
		}
	} else {
		if lastKey != "" {
			newCheckpoint["cursor"] = lastKey
		}
		if lastRun != "" {
			newCheckpoint["runId"] = lastRun
		}
	}
	if ix.checkpoints != nil {
		if _, err := ix.checkpoints.Save(ctx, tenantID, projectID, key, newCheckpoint); err != nil {
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}
	}

	eventsPath, snapPath := kb.Save(ctx, ix.logs, req.DatasetSlug, req.RunID, events, seq)

	if ix.recorder != nil && req.ArtifactID != "" {
		_ = ix.recorder.MarkIndexed(ctx, req.ArtifactID, map[string]any{
			"recordsRead":     recordsRead,
			"recordsIndexed":  indexed,
			"recordsSkipped":  skipped,
			"vectorFallback":  vectorFallback,
			"sinkEndpointId":  req.SinkEndpointID,
			"sourceFamily":    req.SourceFamily,
			"runId":           req.RunID,
			"useStaging":      useStaging,
			"lastBatch":       lastBatch,
			"lastCursor":      lastKey,
			"lastRecordIndex": lastOffset,
			"kbEvents":        seq,
			"logEventsPath":   eventsPath,
			"logSnapshotPath": snapPath,
		})
	}

	return &Result{
		RecordsRead:     recordsRead,
		RecordsIndexed:  indexed,
		RecordsSkipped:  skipped,
		VectorFallback:  vectorFallback,
		Checkpoint:      newCheckpoint,
		Status:          "SUCCEEDED",
		LogEventsPath:   eventsPath,
		LogSnapshotPath: snapPath,
	}, nil
}

// embedAndUpsert hashes content, skips unchanged nodes, embeds the rest in
// one batch, upserts them, and then saves the new hashes. Returns the number
// of skipped entries.
func (ix *Indexer) embedAndUpsert(ctx context.Context, tenantID, projectID, profileID string, normalized []vectorstore.Entry, contents []string) (int64, error) {
	var needsEmbedding []vectorstore.Entry
	var needsContents []string
	var contentHashes []string
	var skipped int64

	for i, entry := range normalized {
		currentHash := hashContent(contents[i])
		if existing := ix.loadEmbeddingHash(ctx, tenantID, projectID, profileID, entry.NodeID); existing != "" && existing == currentHash {
			skipped++
			continue
		}
		if entry.Metadata == nil {
			entry.Metadata = make(map[string]any)
		}
		entry.Metadata["contentHash"] = currentHash
		needsEmbedding = append(needsEmbedding, entry)
		needsContents = append(needsContents, contents[i])
		contentHashes = append(contentHashes, currentHash)
	}

	if len(needsEmbedding) == 0 {
		return skipped, nil
	}

	embeddings, err := ix.embedder.EmbedText(ctx, "", needsContents)
	if err != nil {
		return skipped, fmt.Errorf("embed content: %w", err)
	}
	if len(embeddings) != len(needsEmbedding) {
		return skipped, fmt.Errorf("embedding count mismatch: %d != %d", len(embeddings), len(needsEmbedding))
	}
	for i := range needsEmbedding {
		needsEmbedding[i].Embedding = embeddings[i]
		needsEmbedding[i].Metadata["embeddingModel"] = ix.embedder.ModelName()
	}

	if err := ix.vectors.UpsertEntries(touchUpdatedAt(needsEmbedding)); err != nil {
		return skipped, fmt.Errorf("upsert entries: %w", err)
	}

	// Hashes persist only after the upsert succeeded; a failed run re-embeds.
	for i, entry := range needsEmbedding {
		ix.saveEmbeddingHash(ctx, tenantID, projectID, profileID, entry.NodeID, contentHashes[i])
	}
	return skipped, nil
}

func (ix *Indexer) openStream(ctx context.Context, req Request, cp map[string]any, useStaging bool) (endpoint.Iterator[endpoint.Record], func(), error) {
	if useStaging {
		iter, err := replay.FromStaging(ctx, ix.staging, req.StagingProviderID, req.StageRef, "", req.DatasetSlug, cp, 0)
		if err != nil {
			return nil, nil, err
		}
		return iter, func() { _ = iter.Close() }, nil
	}

	ep, err := ix.endpoints.Create(req.SinkEndpointID, req.EndpointConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("create endpoint: %w", err)
	}
	source, ok := ep.(endpoint.SourceEndpoint)
	if !ok {
		ep.Close()
		return nil, nil, fmt.Errorf("endpoint %s does not implement SourceEndpoint", req.SinkEndpointID)
	}
	iter, err := source.Read(ctx, &endpoint.ReadRequest{DatasetID: req.DatasetSlug, Checkpoint: cp})
	if err != nil {
		ep.Close()
		return nil, nil, fmt.Errorf("read dataset: %w", err)
	}
	return iter, func() {
		_ = iter.Close()
		ep.Close()
	}, nil
}

func (ix *Indexer) failArtifact(ctx context.Context, req Request, err error) {
	if ix.recorder != nil && req.ArtifactID != "" {
		_ = ix.recorder.MarkIndexFailed(ctx, req.ArtifactID, err.Error())
	}
}

func (ix *Indexer) loadEmbeddingHash(ctx context.Context, tenantID, projectID, profileID, nodeID string) string {
	if ix.checkpoints == nil {
		return ""
	}
	m, _, err := ix.checkpoints.Load(ctx, tenantID, projectID, checkpoint.EmbedHashKey(profileID, nodeID))
	if err != nil || m == nil {
		return ""
	}
	if hash, ok := m["contentHash"].(string); ok {
		return hash
	}
	return ""
}

func (ix *Indexer) saveEmbeddingHash(ctx context.Context, tenantID, projectID, profileID, nodeID, contentHash string) {
	if ix.checkpoints == nil {
		return
	}
	state := checkpoint.NewEmbeddingHashState(contentHash)
	_, _ = ix.checkpoints.Save(ctx, tenantID, projectID, checkpoint.EmbedHashKey(profileID, nodeID), checkpoint.ToMap(state))
}

// resolveProfileID prefers the explicit request profile, then a CDM-derived
// profile, then a source-family heuristic.
func resolveProfileID(req Request) string {
	if req.ProfileID != "" {
		return req.ProfileID
	}
	if req.CdmModelID != "" {
		return fmt.Sprintf("cdm.%s.v1", strings.TrimPrefix(req.CdmModelID, "cdm."))
	}
	switch strings.ToLower(req.SourceFamily) {
	case "tracker":
		return "source.tracker.item.v1"
	case "docs":
		return "source.docs.page.v1"
	case "scm":
		return "source.scm.change.v1"
	default:
		return "source.generic.v1"
	}
}

// hashContent computes the SHA256 hash of the content text.
func hashContent(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
