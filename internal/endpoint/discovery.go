package endpoint

import (
	"context"
	"sync"
	"time"
)

// Discovery traits: pattern-based extraction hooks that connectors implement.
// The enrichment layer complements these with LLM-based extraction.

// Mention represents an entity mention extracted from content.
type Mention struct {
	Text       string  // raw text, e.g., "@johndoe", "TRACK-123"
	Type       string  // "person", "issue", "channel", "system"
	EntityRef  string  // resolved canonical entity reference
	Confidence float32 // 1.0 for pattern-based matches
	Source     string  // "pattern" or "llm"
	Offset     int
	Length     int
}

// MentionExtractor extracts entity mentions from record content.
type MentionExtractor interface {
	ExtractMentions(ctx context.Context, payload Record) []Mention
}

// Relation represents a relationship between entities with temporal tracking.
type Relation struct {
	FromRef    string
	ToRef      string
	Type       string // "ASSIGNED_TO", "FIXES", "PARENT_OF", "MENTIONS"
	Direction  RelationDirection
	Properties map[string]any
	Explicit   bool    // true = source-provided, false = inferred
	Confidence float32 // 1.0 for explicit relations

	ValidFrom *time.Time // when established (nil = unknown)
	ValidTo   *time.Time // when expired (nil = still active)
}

// RelationDirection indicates edge traversal direction.
type RelationDirection string

const (
	RelationForward  RelationDirection = "forward"
	RelationBackward RelationDirection = "backward"
	RelationBoth     RelationDirection = "both"
)

// RelationExtractor extracts explicit relationships from record content.
type RelationExtractor interface {
	ExtractRelations(ctx context.Context, payload Record) []Relation
}

// EntityType classifies an entity for discovery.
type EntityType string

const (
	EntityTypeEntity  EntityType = "entity"
	EntityTypePolicy  EntityType = "policy"
	EntityTypeProcess EntityType = "process"
)

// EntityMapper maps raw records to canonical entities.
type EntityMapper interface {
	// MapToEntity maps a record to canonical entity format.
	MapToEntity(ctx context.Context, payload Record) Entity

	// GetQualifiers returns disambiguation qualifiers for the entity.
	GetQualifiers(ctx context.Context, payload Record) map[string]string

	// GetEntityType classifies the record. Empty string delegates to LLM.
	GetEntityType(ctx context.Context, payload Record) EntityType
}

// Entity is a canonical entity after mapping.
type Entity struct {
	ID         string
	Type       string
	Name       string
	Aliases    []string
	Qualifiers map[string]string
	Properties map[string]any
	Source     string
	SourceID   string
}

// EntityResolver resolves entities across sources to canonical IDs.
type EntityResolver interface {
	// Resolve maps an entity to its canonical ID, creating if new.
	Resolve(ctx context.Context, entity Entity) (canonicalID string, isNew bool, err error)

	// GetAliases returns all known aliases for a canonical entity.
	GetAliases(ctx context.Context, canonicalID string) ([]string, error)

	// Merge folds secondaryID's aliases and properties into primaryID.
	Merge(ctx context.Context, primaryID, secondaryID string) error
}

// RelationEvent represents a change to a relation over time.
type RelationEvent struct {
	EventType  RelationEventType
	Relation   Relation
	PreviousTo string // for REASSIGN: previous target reference
	Timestamp  time.Time
	Metadata   map[string]any
}

// RelationEventType indicates the type of relation change.
type RelationEventType string

const (
	RelationEventCreated  RelationEventType = "created"
	RelationEventUpdated  RelationEventType = "updated"
	RelationEventExpired  RelationEventType = "expired"
	RelationEventReassign RelationEventType = "reassign"
)

// RelationEventProcessor detects and emits relation changes over time.
type RelationEventProcessor interface {
	// ProcessRelations compares current relations against known state,
	// emitting events for new, updated, expired, or reassigned relations.
	ProcessRelations(
		ctx context.Context,
		entityRef string,
		previousRelations []Relation,
		currentRelations []Relation,
		timestamp time.Time,
	) ([]RelationEvent, error)
}

// EdgeKey uniquely identifies a relation for deduplication.
type EdgeKey struct {
	FromRef string
	ToRef   string
	Type    string
}

// Key returns the string key for deduplication lookups.
func (k EdgeKey) Key() string {
	return k.FromRef + "|" + k.Type + "|" + k.ToRef
}

// DiscoveryRegistry holds discovery trait implementations per endpoint.
type DiscoveryRegistry struct {
	mu                 sync.RWMutex
	mentionExtractors  map[string]MentionExtractor
	relationExtractors map[string]RelationExtractor
	entityMappers      map[string]EntityMapper
}

// NewDiscoveryRegistry creates an empty discovery registry.
func NewDiscoveryRegistry() *DiscoveryRegistry {
	return &DiscoveryRegistry{
		mentionExtractors:  make(map[string]MentionExtractor),
		relationExtractors: make(map[string]RelationExtractor),
		entityMappers:      make(map[string]EntityMapper),
	}
}

var defaultDiscoveryRegistry = NewDiscoveryRegistry()

// DefaultDiscoveryRegistry returns the global discovery registry.
func DefaultDiscoveryRegistry() *DiscoveryRegistry {
	return defaultDiscoveryRegistry
}

// RegisterMentionExtractor registers a mention extractor for an endpoint.
func (r *DiscoveryRegistry) RegisterMentionExtractor(endpointID string, extractor MentionExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mentionExtractors[endpointID] = extractor
}

// GetMentionExtractor gets the mention extractor for an endpoint.
func (r *DiscoveryRegistry) GetMentionExtractor(endpointID string) (MentionExtractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.mentionExtractors[endpointID]
	return e, ok
}

// RegisterRelationExtractor registers a relation extractor for an endpoint.
func (r *DiscoveryRegistry) RegisterRelationExtractor(endpointID string, extractor RelationExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relationExtractors[endpointID] = extractor
}

// GetRelationExtractor gets the relation extractor for an endpoint.
func (r *DiscoveryRegistry) GetRelationExtractor(endpointID string) (RelationExtractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.relationExtractors[endpointID]
	return e, ok
}

// RegisterEntityMapper registers an entity mapper for an endpoint.
func (r *DiscoveryRegistry) RegisterEntityMapper(endpointID string, mapper EntityMapper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entityMappers[endpointID] = mapper
}

// GetEntityMapper gets the entity mapper for an endpoint.
func (r *DiscoveryRegistry) GetEntityMapper(endpointID string) (EntityMapper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.entityMappers[endpointID]
	return m, ok
}
