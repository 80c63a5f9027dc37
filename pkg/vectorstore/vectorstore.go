// Package vectorstore defines the canonical vector entry contract and a
// pgvector-backed implementation.
package vectorstore

import "time"

// Entry represents a normalized vector document ready for embedding/indexing.
type Entry struct {
	TenantID       string         `json:"tenantId"`
	ProjectID      string         `json:"projectId"`
	ProfileID      string         `json:"profileId"`
	NodeID         string         `json:"nodeId"`
	SourceFamily   string         `json:"sourceFamily,omitempty"`
	ArtifactID     string         `json:"artifactId,omitempty"`
	RunID          string         `json:"runId,omitempty"`
	SinkEndpointID string         `json:"sinkEndpointId,omitempty"`
	DatasetSlug    string         `json:"datasetSlug,omitempty"`
	EntityKind     string         `json:"entityKind,omitempty"`
	Labels         []string       `json:"labels,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	ContentText    string         `json:"contentText,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`   // profile-specific filterable fields
	RawPayload     map[string]any `json:"rawPayload,omitempty"` // for lineage/debug
	RawMetadata    map[string]any `json:"rawMetadata,omitempty"`
	Embedding      []float32      `json:"embedding,omitempty"`
	UpdatedAt      *time.Time     `json:"updatedAt,omitempty"`
}

// QueryFilter captures normalized filters plus optional metadata filters.
type QueryFilter struct {
	TenantID       string
	ProjectID      string
	ProfileIDs     []string
	SourceFamily   string
	ArtifactID     string
	RunID          string
	SinkEndpointID string
	DatasetSlug    string
	EntityKinds    []string
	Labels         []string
	Tags           []string
	MetadataEQ     map[string]any
	SinceUpdatedAt *time.Time
	Limit          int
}

// Store defines the minimal operations a vector store must support.
type Store interface {
	// UpsertEntries inserts or updates entries (embedding included).
	UpsertEntries(entries []Entry) error

	// Query performs a similarity search with filters.
	Query(embedding []float32, filter QueryFilter, topK int) ([]SearchResult, error)

	// DeleteByArtifact removes entries produced by a specific artifact/run.
	DeleteByArtifact(tenantID, artifactID, runID string) error

	// ListEntries returns recent entries matching the filter, sorted by
	// updated_at DESC (clustering seeds depend on the ordering).
	ListEntries(filter QueryFilter, limit int) ([]Entry, error)
}

// SearchResult captures a match returned by the store.
type SearchResult struct {
	NodeID      string
	ProfileID   string
	Score       float32
	ContentText string
	Metadata    map[string]any
	RawMetadata map[string]any
	RawPayload  map[string]any
}
