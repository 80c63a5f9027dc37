package insight

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const payloadCharLimit = 2000

// BuildParams flattens a record payload one level deep into template
// parameters and checks the skill's required fields. Nested maps contribute
// "parent.child" keys; a required field missing at the top level is satisfied
// by any dotted key ending in it (entity-kind prefixed payloads keep working).
func BuildParams(payload map[string]any, required []string) (map[string]string, bool) {
	params := make(map[string]string, len(payload))
	for k, v := range payload {
		if nested, ok := v.(map[string]any); ok {
			for ik, iv := range nested {
				params[k+"."+ik] = toString(iv)
			}
			continue
		}
		params[k] = toString(v)
	}
	for _, field := range required {
		if v, ok := params[field]; ok && strings.TrimSpace(v) != "" {
			continue
		}
		if alias, ok := findSuffix(params, field); ok {
			params[field] = alias
			continue
		}
		return nil, false
	}
	return params, true
}

func findSuffix(params map[string]string, field string) (string, bool) {
	suffix := "." + field
	for k, v := range params {
		if strings.HasSuffix(k, suffix) && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

// BuildPrompt renders a skill template: {{key}} placeholders are replaced from
// params, and {{payload}} expands to the full parameter set as indented JSON,
// truncated so long records cannot blow the model's context.
func BuildPrompt(skill Skill, params map[string]string) string {
	prompt := skill.Template
	for k, v := range params {
		prompt = strings.ReplaceAll(prompt, "{{"+k+"}}", v)
	}
	if strings.Contains(prompt, "{{payload}}") {
		raw, _ := json.MarshalIndent(params, "", "  ")
		body := string(raw)
		if len(body) > payloadCharLimit {
			body = body[:payloadCharLimit] + "\n... (truncated)"
		}
		prompt = strings.ReplaceAll(prompt, "{{payload}}", body)
	}
	return prompt
}

// Signature fingerprints a skill + entity + parameter set. map[string]string
// marshals with sorted keys, so the hash is deterministic.
func Signature(skillID, entityRef string, params map[string]string) string {
	raw, _ := json.Marshal(params)
	sum := sha256.Sum256([]byte(skillID + "|" + entityRef + "|" + string(raw)))
	return fmt.Sprintf("%x", sum)
}
