package indexer

import (
	"fmt"
	"strings"
	"time"

	"github.com/loomworks/loom/pkg/vectorprofile"
	"github.com/loomworks/loom/pkg/vectorstore"
)

// entryFromVectorPayload builds a vector entry from a pre-normalized
// vectorPayload produced at staging time by a VectorProfileProvider endpoint.
func entryFromVectorPayload(rec map[string]any, req Request, tenantID, projectID string) (vectorstore.Entry, string, bool) {
	vp, ok := rec["vectorPayload"].(map[string]any)
	if !ok || vp == nil {
		return vectorstore.Entry{}, "", false
	}
	nodeID := asString(vp["nodeId"])
	text := asString(vp["text"])
	if nodeID == "" || text == "" {
		return vectorstore.Entry{}, "", false
	}

	entry := vectorstore.Entry{
		TenantID:       asString(vp["tenantId"]),
		ProjectID:      asString(vp["projectKey"]),
		ProfileID:      asString(vp["profileId"]),
		NodeID:         nodeID,
		SourceFamily:   asString(vp["sourceFamily"]),
		SinkEndpointID: req.SinkEndpointID,
		DatasetSlug:    req.DatasetSlug,
		EntityKind:     asString(vp["entityKind"]),
		ContentText:    text,
	}
	if meta, ok := vp["metadata"].(map[string]any); ok {
		entry.Metadata = meta
	}
	if entry.TenantID == "" {
		entry.TenantID = tenantID
	}
	if entry.ProjectID == "" {
		entry.ProjectID = projectID
	}
	if entry.SourceFamily == "" {
		entry.SourceFamily = req.SourceFamily
	}
	return entry, text, true
}

// normalizeVectorRecord runs the profile's legacy normalizer over the record
// payload, retrying with rawPayload when the mapped payload does not satisfy
// the profile.
func normalizeVectorRecord(rec map[string]any, profileID, tenantID, projectID, datasetSlug, sinkEndpointID string) (vectorstore.Entry, string, bool) {
	// Staging envelopes can wrap the original record under payload.payload.
	normRec := rec
	if payload, ok := rec["payload"].(map[string]any); ok {
		if inner, ok := payload["payload"].(map[string]any); ok {
			clone := make(map[string]any, len(rec))
			for k, v := range rec {
				clone[k] = v
			}
			clone["payload"] = inner
			normRec = clone
		}
	}

	n := vectorprofile.Resolve(profileID)
	entry, content, ok := n.Normalize(normRec)
	if !ok {
		if raw, hasRaw := rec["rawPayload"].(map[string]any); hasRaw {
			clone := make(map[string]any, len(rec))
			for k, v := range rec {
				clone[k] = v
			}
			clone["payload"] = raw
			entry, content, ok = n.Normalize(clone)
		}
	}
	if !ok {
		return vectorstore.Entry{}, "", false
	}

	if entry.TenantID == "" {
		entry.TenantID = tenantID
	}
	if entry.ProjectID == "" {
		entry.ProjectID = projectID
	}
	if entry.DatasetSlug == "" {
		entry.DatasetSlug = datasetSlug
	}
	if entry.SinkEndpointID == "" {
		entry.SinkEndpointID = sinkEndpointID
	}
	if entry.ProfileID == "" {
		entry.ProfileID = profileID
	}
	return entry, content, true
}

// touchUpdatedAt stamps entries missing an update time so ListEntries
// ordering reflects this run.
func touchUpdatedAt(entries []vectorstore.Entry) []vectorstore.Entry {
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].UpdatedAt == nil {
			t := now
			entries[i].UpdatedAt = &t
		}
	}
	return entries
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return ""
	}
}
