package ingest

import (
	"os"
	"strconv"

	"github.com/loomworks/loom/pkg/staging"
)

// resolveTemplateID prefers the explicit request field, then policy keys.
func resolveTemplateID(req Request) string {
	if req.TemplateID != "" {
		return req.TemplateID
	}
	for _, key := range []string{"templateId", "template_id", "template"} {
		if v, ok := req.Policy[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// resolveParameters extracts connector parameters from the policy. A nested
// "parameters" block wins; otherwise the policy itself is cloned so callers
// cannot mutate it.
func resolveParameters(policy map[string]any) map[string]any {
	if params, ok := policy["parameters"].(map[string]any); ok {
		return params
	}
	result := make(map[string]any, len(policy))
	for k, v := range policy {
		result[k] = v
	}
	return result
}

// resolveTargetSliceSize checks the accepted key spellings at top level and
// nested in "parameters". Zero means endpoint-default.
func resolveTargetSliceSize(policy map[string]any) int64 {
	if policy == nil {
		return 0
	}
	for _, key := range []string{"target_slice_size", "targetSliceSize", "target_rows_per_slice", "targetRowsPerSlice"} {
		if v, ok := policy[key]; ok {
			switch val := v.(type) {
			case int:
				return int64(val)
			case int64:
				return val
			case float64:
				return int64(val)
			}
		}
	}
	if params, ok := policy["parameters"].(map[string]any); ok {
		return resolveTargetSliceSize(params)
	}
	return 0
}

func disableObjectStore(policy map[string]any) bool {
	if policy == nil {
		return false
	}
	if v, ok := policy["disableObjectStore"].(bool); ok {
		return v
	}
	if v, ok := policy["disable_object_store"].(bool); ok {
		return v
	}
	if v, ok := policy["objectStoreEnabled"].(bool); ok {
		return !v
	}
	if v, ok := policy["object_store_enabled"].(bool); ok {
		return !v
	}
	return false
}

func resolveEstimatedBytes(policy map[string]any) int64 {
	if policy == nil {
		return 0
	}
	for _, key := range []string{"estimatedBytes", "estimated_bytes", "estimatedSizeBytes"} {
		if v, ok := policy[key]; ok {
			switch val := v.(type) {
			case int:
				return int64(val)
			case int64:
				return val
			case float64:
				return int64(val)
			case string:
				if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
					return parsed
				}
			}
		}
	}
	return 0
}

// maxPayloadBytes caps inline preview payloads, overridable via env.
func maxPayloadBytes() int {
	if envVal := os.Getenv("UCL_MAX_PAYLOAD_BYTES"); envVal != "" {
		if val, err := strconv.Atoi(envVal); err == nil && val > 0 {
			return val
		}
	}
	return staging.MaxPayloadBytes
}

func getString(m map[string]any, key, defaultVal string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return defaultVal
}

func isString(rec map[string]any, key string) bool {
	if v, ok := rec[key]; ok {
		_, ok := v.(string)
		return ok
	}
	return false
}

func isNumber(rec map[string]any, key string) bool {
	if v, ok := rec[key]; ok {
		switch v.(type) {
		case int, int64, float64:
			return true
		}
	}
	return false
}
