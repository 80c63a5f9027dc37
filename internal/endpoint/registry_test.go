package endpoint

import (
	"context"
	"errors"
	"testing"
)

type stubEndpoint struct {
	id string
}

func (s *stubEndpoint) ID() string { return s.id }
func (s *stubEndpoint) ValidateConfig(ctx context.Context, config map[string]any) (*ValidationResult, error) {
	return &ValidationResult{Valid: true}, nil
}
func (s *stubEndpoint) GetCapabilities() *Capabilities {
	return &Capabilities{SupportsFull: true}
}
func (s *stubEndpoint) GetDescriptor() *Descriptor {
	return &Descriptor{ID: s.id, Family: "stub"}
}
func (s *stubEndpoint) Close() error { return nil }

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry()
	reg.Register("stub.basic", func(config map[string]any) (Endpoint, error) {
		return &stubEndpoint{id: "stub.basic"}, nil
	})

	ep, err := reg.Create("stub.basic", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ep.ID() != "stub.basic" {
		t.Fatalf("ID = %q", ep.ID())
	}
}

func TestRegistryUnknownTemplate(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Create("does.not.exist", nil)
	var coded *Error
	if !errors.As(err, &coded) {
		t.Fatalf("expected coded error, got %v", err)
	}
	if coded.Code != CodeEndpointNotFound {
		t.Fatalf("code = %q, want %q", coded.Code, CodeEndpointNotFound)
	}
	if coded.Retryable {
		t.Fatal("unknown template should not be retryable")
	}
}

func TestRegistryFactoryPanicSurfacesAsUnknown(t *testing.T) {
	reg := NewRegistry()
	reg.Register("stub.panics", func(config map[string]any) (Endpoint, error) {
		panic("boom")
	})

	ep, err := reg.Create("stub.panics", nil)
	if ep != nil {
		t.Fatal("expected nil endpoint on panic")
	}
	var coded *Error
	if !errors.As(err, &coded) {
		t.Fatalf("expected coded error, got %v", err)
	}
	if coded.Code != CodeUnknown || !coded.Retryable {
		t.Fatalf("got code=%q retryable=%v, want E_UNKNOWN retryable", coded.Code, coded.Retryable)
	}
}

func TestRegistryDuplicateRegistrationPanics(t *testing.T) {
	reg := NewRegistry()
	factory := func(config map[string]any) (Endpoint, error) {
		return &stubEndpoint{id: "stub.dup"}, nil
	}
	reg.Register("stub.dup", factory)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	reg.Register("stub.dup", factory)
}

func TestCDMRegistryGenericSourceHasNoMappings(t *testing.T) {
	cdm := NewCDMRegistry()

	if models := cdm.GetModels("jdbc.postgres"); len(models) > 0 {
		t.Fatalf("generic source should have no CDM models, got %v", models)
	}
	if cdm.HasCDM("jdbc.postgres") {
		t.Fatal("HasCDM should be false for generic sources")
	}
}

func TestCDMRegistryMapperDispatch(t *testing.T) {
	cdm := NewCDMRegistry()
	cdm.RegisterMappings("tracker", []CDMMapping{
		{DatasetID: "tracker.issues", CdmModelID: "cdm.work.item", Domains: []string{"entity.work.item"}},
	})
	cdm.RegisterMapper("tracker.issues", func(record Record) (any, error) {
		return map[string]any{"id": record["key"]}, nil
	})

	if !cdm.HasCDM("tracker") {
		t.Fatal("HasCDM should be true after registration")
	}
	models := cdm.GetModels("tracker")
	if len(models) != 1 || models[0] != "cdm.work.item" {
		t.Fatalf("models = %v", models)
	}

	mapper, ok := cdm.GetMapper("tracker.issues")
	if !ok {
		t.Fatal("mapper not found")
	}
	out, err := mapper(Record{"key": "TRACK-1"})
	if err != nil {
		t.Fatalf("mapper: %v", err)
	}
	if m, _ := out.(map[string]any); m["id"] != "TRACK-1" {
		t.Fatalf("mapped = %v", out)
	}
	if !cdm.SupportsDataset("tracker.issues") {
		t.Fatal("SupportsDataset should be true")
	}
}

func TestDiscoveryRegistryRoundTrip(t *testing.T) {
	reg := NewDiscoveryRegistry()
	if _, ok := reg.GetEntityMapper("tracker"); ok {
		t.Fatal("empty registry should have no mappers")
	}
	reg.RegisterMentionExtractor("tracker", mentionFunc(func(ctx context.Context, payload Record) []Mention {
		return []Mention{{Text: "@dev", Type: "person", Confidence: 1.0, Source: "pattern"}}
	}))
	ex, ok := reg.GetMentionExtractor("tracker")
	if !ok {
		t.Fatal("extractor not found")
	}
	mentions := ex.ExtractMentions(context.Background(), Record{"body": "ping @dev"})
	if len(mentions) != 1 || mentions[0].Source != "pattern" {
		t.Fatalf("mentions = %v", mentions)
	}
}

type mentionFunc func(ctx context.Context, payload Record) []Mention

func (f mentionFunc) ExtractMentions(ctx context.Context, payload Record) []Mention {
	return f(ctx, payload)
}
