package endpoint

// VectorIndexRecord is a normalized record ready for embedding and storage.
type VectorIndexRecord struct {
	NodeID       string         `json:"nodeId"`       // stable unique identifier
	ProfileID    string         `json:"profileId"`    // vector profile ID (e.g., source.tracker.item.v1)
	EntityKind   string         `json:"entityKind"`   // entity type (e.g., work.item, doc.page)
	Text         string         `json:"text"`         // content to embed
	SourceFamily string         `json:"sourceFamily"` // source system
	TenantID     string         `json:"tenantId"`
	ProjectKey   string         `json:"projectKey"`
	SourceURL    string         `json:"sourceUrl"`
	ExternalID   string         `json:"externalId"`
	Metadata     map[string]any `json:"metadata"`
	RawPayload   map[string]any `json:"rawPayload"`
}

// VectorProfileProvider lets an endpoint declare vector indexing support.
// When implemented, the staging layer emits normalized VectorIndexRecords
// that the indexer can embed and store without source-specific knowledge.
type VectorProfileProvider interface {
	// GetVectorProfile returns the profile ID for a given entity kind.
	GetVectorProfile(entityKind string) string

	// NormalizeForIndex transforms a raw ingestion record into a normalized
	// VectorIndexRecord. Returns false if the record should not be indexed.
	NormalizeForIndex(rec Record) (VectorIndexRecord, bool)
}

// MultiRecordVectorProfileProvider extends VectorProfileProvider for sources
// whose records expand into several indexable units (e.g., a document split
// into chunks).
type MultiRecordVectorProfileProvider interface {
	VectorProfileProvider

	// NormalizeForIndexMulti transforms one raw record into zero or more
	// VectorIndexRecords.
	NormalizeForIndexMulti(rec Record) []VectorIndexRecord
}
