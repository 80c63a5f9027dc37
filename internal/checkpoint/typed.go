package checkpoint

import (
	"encoding/json"
	"time"
)

// Typed checkpoint shapes. The KV layer stores maps; these give the pipeline
// stages a stable schema on top.

// IndexerState is the checkpoint for the indexer stage.
type IndexerState struct {
	// BatchRef is the current staging batch being processed.
	BatchRef string `json:"batchRef,omitempty"`
	// RecordOffset is the position within the current batch.
	RecordOffset int `json:"recordOffset,omitempty"`
	// Cursor is a string cursor for non-staging mode.
	Cursor string `json:"cursor,omitempty"`
	// RunID is the run that last updated this checkpoint.
	RunID string `json:"runId,omitempty"`
	// LastRun is the last completed run timestamp (RFC3339).
	LastRun string `json:"lastRun,omitempty"`
	// Watermark is an RFC3339 timestamp for incremental processing.
	Watermark string `json:"watermark,omitempty"`
}

// EmbeddingHashState stores the content hash for one embedded node, used to
// skip re-embedding unchanged content.
type EmbeddingHashState struct {
	ContentHash string `json:"contentHash"`
	SavedAt     string `json:"savedAt"`
}

// InsightSignatureState caches the input signature of a generated insight.
type InsightSignatureState struct {
	Signature   string `json:"signature"`
	GeneratedAt string `json:"generatedAt"`
}

// ToMap converts a typed checkpoint to map[string]any for KV storage.
func ToMap(v any) map[string]any {
	data, _ := json.Marshal(v)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}

// FromMap converts a stored map back into a typed checkpoint.
func FromMap[T any](m map[string]any) (T, error) {
	var result T
	data, err := json.Marshal(m)
	if err != nil {
		return result, err
	}
	err = json.Unmarshal(data, &result)
	return result, err
}

// NewIndexerState creates a checkpoint stamped with the current time.
func NewIndexerState() *IndexerState {
	return &IndexerState{
		LastRun: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewEmbeddingHashState creates a hash checkpoint stamped with the current time.
func NewEmbeddingHashState(contentHash string) *EmbeddingHashState {
	return &EmbeddingHashState{
		ContentHash: contentHash,
		SavedAt:     time.Now().UTC().Format(time.RFC3339),
	}
}
