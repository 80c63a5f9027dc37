// Package endpoint defines the contracts every connector implements.
//
// The base contract covers identity, config validation, capabilities, and
// descriptor metadata. Everything else is capability composition: a connector
// implements whichever subset of Source/Sink/Action plus the trait interfaces
// in capabilities.go and discovery.go applies to it.
package endpoint

import "context"

// Endpoint is the base contract shared by all connectors.
type Endpoint interface {
	// ID returns the template identifier (e.g., "jdbc.postgres", "http.tracker").
	ID() string

	// ValidateConfig tests configuration validity and connectivity.
	ValidateConfig(ctx context.Context, config map[string]any) (*ValidationResult, error)

	// GetCapabilities returns the set of supported operations.
	GetCapabilities() *Capabilities

	// GetDescriptor returns metadata about this endpoint type.
	GetDescriptor() *Descriptor

	// Close releases any resources held by the endpoint.
	Close() error
}

// SourceEndpoint reads data from an external system.
type SourceEndpoint interface {
	Endpoint

	// ListDatasets returns available datasets/tables/collections.
	ListDatasets(ctx context.Context) ([]*Dataset, error)

	// GetSchema returns the schema for a specific dataset.
	GetSchema(ctx context.Context, datasetID string) (*Schema, error)

	// Read streams records from a dataset. The iterator must be closed.
	Read(ctx context.Context, req *ReadRequest) (Iterator[Record], error)
}

// SinkEndpoint writes data to an external system.
type SinkEndpoint interface {
	Endpoint

	// WriteRaw writes records to the sink.
	WriteRaw(ctx context.Context, req *WriteRequest) (*WriteResult, error)

	// Finalize completes a write (e.g., promotes staged files).
	Finalize(ctx context.Context, datasetID string, loadDate string) (*FinalizeResult, error)

	// GetLatestWatermark returns the last committed watermark for incremental syncs.
	GetLatestWatermark(ctx context.Context, datasetID string) (string, error)
}

// ActionEndpoint executes control-plane actions.
type ActionEndpoint interface {
	Endpoint

	// ListActions returns available actions for this endpoint.
	ListActions(ctx context.Context) ([]*ActionDescriptor, error)

	// GetActionSchema returns the input/output schema for an action.
	GetActionSchema(ctx context.Context, actionID string) (*ActionSchema, error)

	// ExecuteAction runs an action with the given parameters.
	ExecuteAction(ctx context.Context, req *ActionRequest) (*ActionResult, error)
}

// DataEndpoint supports both source and sink operations.
type DataEndpoint interface {
	SourceEndpoint
	SinkEndpoint
}
