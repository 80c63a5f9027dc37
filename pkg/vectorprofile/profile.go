// Package vectorprofile maps raw records into vector entries per indexing
// profile.
package vectorprofile

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/loomworks/loom/pkg/vectorstore"
)

// Normalizer transforms a raw record (map) into a vector entry and content text.
type Normalizer interface {
	Normalize(record map[string]any) (vectorstore.Entry, string, bool)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Normalizer{}
)

// Register a normalizer for a profileId.
func Register(profileID string, n Normalizer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[profileID] = n
}

// Resolve returns a normalizer for profileId or a default fallback.
func Resolve(profileID string) Normalizer {
	registryMu.RLock()
	n, ok := registry[profileID]
	registryMu.RUnlock()
	if ok {
		return n
	}
	return &FallbackNormalizer{ProfileID: profileID}
}

// FallbackNormalizer derives content from payload.text (or a JSON dump of the
// record) and identity from payload.id, logicalId, or record["nodeId"]. It
// unwraps nested envelope payloads the same way the enrichment stages do.
type FallbackNormalizer struct {
	ProfileID string
}

func (f *FallbackNormalizer) Normalize(record map[string]any) (vectorstore.Entry, string, bool) {
	payload := innerPayload(record)

	content := asString(payload["text"])
	if content == "" {
		content = asString(record["content"])
	}
	if content == "" {
		if data, err := json.Marshal(record); err == nil && len(data) > 0 {
			content = string(data)
		}
	}

	nodeID := asString(payload["id"])
	if nodeID == "" {
		nodeID = asString(payload["logicalId"])
	}
	if nodeID == "" {
		nodeID = asString(record["nodeId"])
	}
	if content == "" || nodeID == "" {
		return vectorstore.Entry{}, "", false
	}

	return vectorstore.Entry{
		ProfileID:   f.ProfileID,
		NodeID:      nodeID,
		ContentText: content,
		RawPayload:  payload,
	}, content, true
}

// innerPayload follows "payload" keys down to the innermost map.
func innerPayload(record map[string]any) map[string]any {
	for {
		payload, ok := record["payload"].(map[string]any)
		if !ok {
			return record
		}
		record = payload
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}
