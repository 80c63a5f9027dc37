package vectorprofile

import "testing"

func TestFallbackNormalizerUnwrapsNestedPayload(t *testing.T) {
	n := Resolve("missing.profile.v1")
	entry, content, ok := n.Normalize(map[string]any{
		"payload": map[string]any{
			"entityType": "work.item",
			"logicalId":  "WORK-7",
			"payload": map[string]any{
				"logicalId": "WORK-7",
				"text":      "stale item about deploys",
			},
		},
	})
	if !ok {
		t.Fatal("normalize failed")
	}
	if entry.NodeID != "WORK-7" || entry.ProfileID != "missing.profile.v1" {
		t.Fatalf("entry = %+v", entry)
	}
	if content != "stale item about deploys" {
		t.Fatalf("content = %q", content)
	}
}

func TestFallbackNormalizerRejectsAnonymousRecords(t *testing.T) {
	n := Resolve("missing.profile.v1")
	if _, _, ok := n.Normalize(map[string]any{"payload": map[string]any{"text": "no identity"}}); ok {
		t.Fatal("expected rejection without id")
	}
}

func TestRegisterOverridesFallback(t *testing.T) {
	Register("custom.v1", &FallbackNormalizer{ProfileID: "custom.v1"})
	if _, ok := Resolve("custom.v1").(*FallbackNormalizer); !ok {
		t.Fatal("registered normalizer not resolved")
	}
}
