// Package ingest plans bounded slices for a dataset and executes them:
// read, normalize into envelopes, stage in batches, and produce the next
// checkpoint. Planning and execution share one request shape so workflow
// payloads stay small and serializable.
package ingest

// Request drives slice planning and slice execution for one dataset unit.
type Request struct {
	TemplateID        string           `json:"templateId,omitempty"`
	EndpointID        string           `json:"endpointId"`
	UnitID            string           `json:"unitId"`
	SinkID            string           `json:"sinkId,omitempty"`
	Mode              string           `json:"mode,omitempty"`     // "full", "incremental", "PREVIEW"
	DataMode          string           `json:"dataMode,omitempty"` // "raw", "full", "reset", ""
	Policy            map[string]any   `json:"policy,omitempty"`
	Checkpoint        map[string]any   `json:"checkpoint,omitempty"`
	CDMModelID        string           `json:"cdmModelId,omitempty"`
	Filter            map[string]any   `json:"filter,omitempty"`
	StagingProviderID string           `json:"stagingProviderId,omitempty"`
	TransientState    map[string]any   `json:"transientState,omitempty"`
	Slice             *SliceDescriptor `json:"slice,omitempty"`
	Limit             int              `json:"limit,omitempty"`
}

// SliceDescriptor is the workflow-serializable form of an ingestion slice.
type SliceDescriptor struct {
	SliceKey      string         `json:"slice_key"`
	Sequence      int            `json:"sequence"`
	Lower         string         `json:"lower,omitempty"`
	Upper         string         `json:"upper,omitempty"`
	EstimatedRows int64          `json:"estimatedRows,omitempty"`
	Params        map[string]any `json:"params,omitempty"`
}

// Plan is the output of slice planning.
type Plan struct {
	Slices   []SliceDescriptor `json:"slices,omitempty"`
	Strategy string            `json:"strategy,omitempty"`
	Metadata map[string]any    `json:"plan_metadata,omitempty"`
}

// Result is the output of executing one slice.
type Result struct {
	NewCheckpoint     map[string]any   `json:"newCheckpoint,omitempty"`
	Stats             map[string]any   `json:"stats,omitempty"`
	Records           []map[string]any `json:"records,omitempty"` // PREVIEW mode only
	StageRef          string           `json:"stageRef,omitempty"`
	BatchRefs         []string         `json:"batchRefs,omitempty"`
	BytesStaged       int64            `json:"bytesStaged,omitempty"`
	RecordsStaged     int64            `json:"recordsStaged,omitempty"`
	StagingProviderID string           `json:"stagingProviderId,omitempty"`
	TransientState    map[string]any   `json:"transientState,omitempty"`
}
