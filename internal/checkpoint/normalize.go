// Package checkpoint owns ingestion progress state: normalization of legacy
// cursor shapes, CAS-backed persistence, and snapshot archival.
package checkpoint

// carryKeys are checkpoint fields preserved while descending nested cursors.
var carryKeys = []string{"lastRunAt", "lastRunId", "recordCount", "dataMode"}

// FlattenCursor recursively unwraps nested cursor objects. Legacy checkpoints
// accumulated cursor-of-cursor wrapping to 35+ levels; this extracts the
// innermost useful value.
func FlattenCursor(cursor any) any {
	if cursor == nil {
		return nil
	}
	cursorMap, ok := cursor.(map[string]any)
	if !ok {
		// Scalar cursor (string, int, ...) terminates the descent.
		return cursor
	}
	if inner, hasInner := cursorMap["cursor"]; hasInner {
		return FlattenCursor(inner)
	}
	// No nested cursor. If this level only wraps a watermark, lift it.
	if wm, ok := cursorMap["watermark"]; ok {
		return wm
	}
	return cursorMap
}

// Merge shallow-merges updates onto base, then flattens the resulting cursor.
// A cursor-of-cursor never survives a merge.
func Merge(base map[string]any, updates map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range base {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	if _, hasCursor := out["cursor"]; hasCursor {
		flat := FlattenCursor(out["cursor"])
		if m, ok := flat.(map[string]any); ok {
			if wm, ok := m["watermark"].(string); ok && wm != "" {
				out["watermark"] = wm
			}
		}
		out["cursor"] = flat
	}
	return out
}

// NormalizeForRead flattens a deeply nested checkpoint into a shape connectors
// can consume: top-level watermark plus carried metadata. Idempotent; if no
// watermark can be extracted the input is returned unchanged.
func NormalizeForRead(cp map[string]any) map[string]any {
	if cp == nil {
		return nil
	}

	if wm, ok := cp["watermark"].(string); ok && wm != "" {
		return cp
	}

	flatCursor := FlattenCursor(cp["cursor"])
	if flatCursor == nil && cp["cursor"] != nil {
		flatCursor = FlattenCursor(cp)
	}

	normalized := make(map[string]any)

	switch v := flatCursor.(type) {
	case string:
		// The cursor itself is the watermark.
		normalized["watermark"] = v
		normalized["cursor"] = v
	case map[string]any:
		if wm, ok := v["watermark"].(string); ok && wm != "" {
			normalized["watermark"] = wm
		}
		if cursor, ok := v["cursor"]; ok {
			normalized["cursor"] = cursor
		}
		for _, key := range carryKeys {
			if val, ok := v[key]; ok {
				normalized[key] = val
			}
		}
	}

	// Watermark may also hide under a metadata wrapper.
	if meta, ok := cp["metadata"].(map[string]any); ok {
		if wm, ok := meta["watermark"].(string); ok && wm != "" {
			normalized["watermark"] = wm
		}
		for _, key := range carryKeys {
			if val, ok := meta[key]; ok && normalized[key] == nil {
				normalized[key] = val
			}
		}
	}

	if normalized["watermark"] == nil || normalized["watermark"] == "" {
		return cp
	}

	return normalized
}
