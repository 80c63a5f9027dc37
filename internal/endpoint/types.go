package endpoint

// Record is a single raw data record as key-value pairs.
type Record = map[string]any

// Iterator provides streaming access to records.
type Iterator[T any] interface {
	// Next advances to the next record. Returns false when done or on error.
	Next() bool

	// Value returns the current record. Only valid after Next() returns true.
	Value() T

	// Err returns any error encountered during iteration.
	Err() error

	// Close releases resources. Must be called when done.
	Close() error
}

// ValidationResult is the outcome of ValidateConfig.
type ValidationResult struct {
	Valid           bool
	Message         string
	DetectedVersion string
}

// Capabilities is the advertised operation set for an endpoint.
type Capabilities struct {
	// Source capabilities
	SupportsFull        bool
	SupportsIncremental bool
	SupportsCountProbe  bool
	SupportsPreview     bool
	SupportsMetadata    bool

	// Sink capabilities
	SupportsWrite     bool
	SupportsFinalize  bool
	SupportsWatermark bool
	SupportsStaging   bool

	// Incremental details
	IncrementalLiteral string // "timestamp" | "epoch"
	DefaultFetchSize   int
}

// Dataset describes a readable dataset/table/collection.
type Dataset struct {
	ID                  string
	Name                string
	Kind                string // "table", "view", "stream", "topic"
	SupportsIncremental bool
	CdmModelID          string // e.g., "cdm.work.item"
	IngestionStrategy   string // "full", "scd1", "cdc"
	IncrementalColumn   string
	IncrementalLiteral  string // "timestamp", "epoch"
	PrimaryKeys         []string
}

// SemanticUnit extends Dataset with semantic-source metadata
// (project, space, drive, etc.).
type SemanticUnit struct {
	Dataset

	UnitID      string // e.g., projectKey, spaceKey, driveId
	UnitKind    string // "project", "space", "drive", "folder"
	DisplayName string
	Stats       *UnitStats
	CDMDomains  []string // declared emit domains
}

// UnitStats holds runtime statistics for a semantic unit.
type UnitStats struct {
	ItemCount     int64
	LastUpdatedAt string
	ErrorCount    int
}

// Schema describes the structure of a dataset.
type Schema struct {
	Fields      []*FieldDefinition
	Constraints []*Constraint
	Statistics  *DatasetStatistics
}

type FieldDefinition struct {
	Name     string
	DataType string
	Nullable bool
	Length   int
	Comment  string
	Position int
}

type Constraint struct {
	Name             string
	Type             string // "primary_key", "foreign_key", "unique"
	Fields           []string
	ReferencedTable  string
	ReferencedFields []string
}

type DatasetStatistics struct {
	RowCount       int64
	SizeBytes      int64
	LastAnalyzedAt string
}

// ReadRequest asks a source for records from one dataset.
type ReadRequest struct {
	DatasetID  string
	Limit      int64
	Slice      *IngestionSlice
	Checkpoint map[string]any // flattened checkpoint for incremental reads
	Filter     map[string]any
}

// IngestionSlice is one bounded unit of a plan.
type IngestionSlice struct {
	SliceID       string
	Sequence      int
	Lower         string
	Upper         string
	EstimatedRows int64
	Params        map[string]any
}

// WriteRequest asks a sink to persist records.
type WriteRequest struct {
	DatasetID string
	Mode      string // "append", "overwrite"
	LoadDate  string
	Records   []Record
}

type WriteResult struct {
	RowsWritten int64
	Path        string
}

type FinalizeResult struct {
	FinalPath string
}

// ActionDescriptor identifies one control-plane action.
type ActionDescriptor struct {
	ID           string
	Name         string
	Description  string
	Category     string // "create", "update", "delete", "execute"
	RequiresAuth bool
	Tags         []string
}

type ActionSchema struct {
	ActionID     string
	InputFields  []*ActionField
	OutputFields []*ActionField
}

type ActionField struct {
	Name        string
	Label       string
	DataType    string
	Required    bool
	Default     any
	Description string
	Enum        []string
}

type ActionRequest struct {
	ActionID   string
	Parameters map[string]any
	DryRun     bool
	Context    *ActionContext
}

type ActionContext struct {
	UserID    string
	RequestID string
	Timeout   int
	Metadata  map[string]any
}

type ActionResult struct {
	Success  bool
	Message  string
	Data     map[string]any
	Errors   []ActionError
	Warnings []string
}

type ActionError struct {
	Code    string
	Field   string
	Message string
}
