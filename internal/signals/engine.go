package signals

import (
	"fmt"
	"strings"
	"time"
)

// engine evaluates a fixed set of definitions against records.
type engine struct {
	defs []Definition
}

func newEngine(defs []Definition) *engine {
	return &engine{defs: defs}
}

// eval emits instances for a single record across every applicable definition.
func (e *engine) eval(rec map[string]any, sourceFamily, datasetSlug, runID string) []Instance {
	var out []Instance
	for _, def := range e.defs {
		if def.SourceFamily != "" && !strings.EqualFold(def.SourceFamily, sourceFamily) {
			continue
		}
		if def.EntityKind != "" {
			kind := deriveEntityKind(rec, datasetSlug, sourceFamily)
			if !strings.EqualFold(kind, def.EntityKind) {
				continue
			}
		}
		out = append(out, e.evalDefinition(def, rec, sourceFamily, datasetSlug, runID)...)
	}
	return out
}

// evalDefinition dispatches on the parsed spec; a missing or invalid spec
// falls back to CODE-mode instance construction from definition metadata.
func (e *engine) evalDefinition(def Definition, rec map[string]any, sourceFamily, datasetSlug, runID string) []Instance {
	if def.DefinitionSpec == nil {
		return asSlice(buildInstance(def, rec, sourceFamily, datasetSlug, runID))
	}
	res := ParseSpec(def.DefinitionSpec)
	if !res.Valid {
		return asSlice(buildInstance(def, rec, sourceFamily, datasetSlug, runID))
	}
	switch res.Spec.Type {
	case TypeWorkStale:
		return evalWorkStale(def, res.Spec.Config.(WorkStaleConfig), rec, sourceFamily, datasetSlug, runID)
	case TypeDocOrphan:
		return evalDocOrphan(def, res.Spec.Config.(DocOrphanConfig), rec, sourceFamily, datasetSlug, runID)
	case TypeGenericFilter:
		return evalGenericFilter(def, res.Spec.Config.(GenericFilterConfig), rec, sourceFamily, datasetSlug, runID)
	default:
		return asSlice(buildInstance(def, rec, sourceFamily, datasetSlug, runID))
	}
}

func asSlice(inst Instance, ok bool) []Instance {
	if !ok {
		return nil
	}
	return []Instance{inst}
}

func buildInstance(def Definition, rec map[string]any, sourceFamily, datasetSlug, runID string) (Instance, bool) {
	entityRef := deriveEntityRef(rec)
	if entityRef == "" {
		return Instance{}, false
	}
	return Instance{
		DefinitionID: def.ID,
		Status:       StatusOpen,
		EntityRef:    entityRef,
		EntityKind:   deriveEntityKind(rec, datasetSlug, sourceFamily),
		Severity:     strings.ToUpper(def.Severity),
		Summary:      def.Title,
		Details:      rec,
		SourceRunID:  runID,
	}, true
}

func evalWorkStale(def Definition, cfg WorkStaleConfig, rec map[string]any, sourceFamily, datasetSlug, runID string) []Instance {
	shape := normalizeShape(rec)
	if shape.AgeMs <= 0 {
		return nil
	}
	if shape.AgeMs < float64(intervalToMs(cfg.MaxAge)) {
		return nil
	}
	if len(cfg.StatusInclude) > 0 && !containsFold(cfg.StatusInclude, shape.Status) {
		return nil
	}
	if containsFold(cfg.StatusExclude, shape.Status) {
		return nil
	}
	if len(cfg.ProjectInclude) > 0 && !containsFold(cfg.ProjectInclude, shape.ProjectID) {
		return nil
	}
	if containsFold(cfg.ProjectExclude, shape.ProjectID) {
		return nil
	}
	severity := strings.ToUpper(def.Severity)
	if cfg.SeverityMapping != nil {
		if cfg.SeverityMapping.ErrorAfter != nil && shape.AgeMs >= float64(intervalToMs(*cfg.SeverityMapping.ErrorAfter)) {
			severity = "ERROR"
		} else if cfg.SeverityMapping.WarnAfter != nil && shape.AgeMs >= float64(intervalToMs(*cfg.SeverityMapping.WarnAfter)) {
			severity = "WARNING"
		}
	}
	inst, ok := buildInstance(def, rec, sourceFamily, datasetSlug, runID)
	if !ok {
		return nil
	}
	inst.Severity = severity
	if inst.Summary == "" {
		inst.Summary = fmt.Sprintf("Stale work item %s", inst.EntityRef)
	}
	return []Instance{inst}
}

func evalDocOrphan(def Definition, cfg DocOrphanConfig, rec map[string]any, sourceFamily, datasetSlug, runID string) []Instance {
	shape := normalizeShape(rec)
	if shape.AgeMs < float64(intervalToMs(cfg.MinAge)) {
		return nil
	}
	if cfg.MinViewCount != nil && shape.ViewCount >= float64(*cfg.MinViewCount) {
		return nil
	}
	if cfg.RequireProjectLink != nil && *cfg.RequireProjectLink && shape.ProjectID == "" {
		return nil
	}
	if len(cfg.SpaceInclude) > 0 && !containsFold(cfg.SpaceInclude, shape.SpaceID) {
		return nil
	}
	if containsFold(cfg.SpaceExclude, shape.SpaceID) {
		return nil
	}
	inst, ok := buildInstance(def, rec, sourceFamily, datasetSlug, runID)
	if !ok {
		return nil
	}
	if inst.Summary == "" {
		inst.Summary = fmt.Sprintf("Orphan doc %s", inst.EntityRef)
	}
	return []Instance{inst}
}

func evalGenericFilter(def Definition, cfg GenericFilterConfig, rec map[string]any, sourceFamily, datasetSlug, runID string) []Instance {
	shape := normalizeShape(rec)
	if cfg.CdmModelID != "" && shape.CdmModelID != "" && !strings.EqualFold(cfg.CdmModelID, shape.CdmModelID) {
		return nil
	}
	if len(cfg.Where) > 0 && !evalConditions(cfg.Where, rec) {
		return nil
	}
	severity := strings.ToUpper(def.Severity)
	for _, rule := range cfg.SeverityRules {
		if evalConditions(rule.When, rec) {
			severity = strings.ToUpper(rule.Severity)
			break
		}
	}
	inst, ok := buildInstance(def, rec, sourceFamily, datasetSlug, runID)
	if !ok {
		return nil
	}
	if inst.Summary == "" {
		inst.Summary = cfg.SummaryTemplate
	}
	inst.Severity = severity
	return []Instance{inst}
}

// evalConditions is a conjunction: every condition must hold.
func evalConditions(conds []Condition, rec map[string]any) bool {
	for _, cond := range conds {
		val := rec[cond.Field]
		switch cond.Op {
		case OpLT:
			if !compare(val, cond.Value, "<") {
				return false
			}
		case OpLTE:
			if !compare(val, cond.Value, "<=") {
				return false
			}
		case OpGT:
			if !compare(val, cond.Value, ">") {
				return false
			}
		case OpGTE:
			if !compare(val, cond.Value, ">=") {
				return false
			}
		case OpEQ:
			if !compare(val, cond.Value, "==") {
				return false
			}
		case OpNEQ:
			if !compare(val, cond.Value, "!=") {
				return false
			}
		case OpIN:
			if !valueIn(cond.Value, val) {
				return false
			}
		case OpNOTIN:
			if valueIn(cond.Value, val) {
				return false
			}
		case OpISNULL:
			if val != nil {
				return false
			}
		case OpISNOTNULL:
			if val == nil {
				return false
			}
		default:
			return false
		}
	}
	return true
}

type recordShape struct {
	AgeMs      float64
	Status     string
	ProjectID  string
	SpaceID    string
	ViewCount  float64
	Summary    string
	CdmModelID string
}

// normalizeShape lifts the handful of fields the DSL shapes care about out of
// a record, tolerating camelCase and snake_case keys. Age is measured from
// the most recent of createdAt/updatedAt.
func normalizeShape(rec map[string]any) recordShape {
	created := toTime(rec["createdAt"])
	if created.IsZero() {
		created = toTime(rec["created_at"])
	}
	updated := toTime(rec["updatedAt"])
	if updated.IsZero() {
		updated = toTime(rec["updated_at"])
	}
	now := time.Now()
	age := now.Sub(created)
	if updated.After(created) {
		age = now.Sub(updated)
	}
	status, _ := rec["status"].(string)
	projectID, _ := rec["projectId"].(string)
	if projectID == "" {
		projectID, _ = rec["project_id"].(string)
	}
	spaceID, _ := rec["spaceId"].(string)
	if spaceID == "" {
		spaceID, _ = rec["space_id"].(string)
	}
	view := toFloat(rec["viewCount"])
	if view == 0 {
		view = toFloat(rec["views"])
	}
	summary, _ := rec["summary"].(string)
	cdmModel, _ := rec["cdmModelId"].(string)
	return recordShape{
		AgeMs:      age.Seconds() * 1000,
		Status:     strings.ToLower(status),
		ProjectID:  strings.ToLower(projectID),
		SpaceID:    strings.ToLower(spaceID),
		ViewCount:  view,
		Summary:    summary,
		CdmModelID: cdmModel,
	}
}

func deriveEntityRef(rec map[string]any) string {
	for _, key := range []string{"entityRef", "id", "key"} {
		if v, ok := rec[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func deriveEntityKind(rec map[string]any, datasetSlug, sourceFamily string) string {
	if v, ok := rec["entityKind"].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if strings.TrimSpace(datasetSlug) != "" {
		return datasetSlug
	}
	return strings.ToLower(strings.TrimSpace(sourceFamily))
}

func intervalToMs(iv IntervalConfig) int64 {
	switch iv.Unit {
	case IntervalHours:
		return int64(iv.Value) * int64(time.Hour/time.Millisecond)
	case IntervalDays:
		return int64(iv.Value) * 24 * int64(time.Hour/time.Millisecond)
	default:
		return 0
	}
}

func containsFold(list []string, val string) bool {
	val = strings.ToLower(val)
	for _, item := range list {
		if strings.ToLower(item) == val {
			return true
		}
	}
	return false
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// compare falls back to string comparison for == and != when either side is
// not numeric.
func compare(a, b any, op string) bool {
	af, aok := toFloatMaybe(a)
	bf, bok := toFloatMaybe(b)
	if aok && bok {
		switch op {
		case "<":
			return af < bf
		case "<=":
			return af <= bf
		case ">":
			return af > bf
		case ">=":
			return af >= bf
		case "==":
			return af == bf
		case "!=":
			return af != bf
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch op {
	case "==":
		return as == bs
	case "!=":
		return as != bs
	}
	return false
}

func toFloatMaybe(v any) (float64, bool) {
	switch t := v.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func toFloat(v any) float64 {
	if f, ok := toFloatMaybe(v); ok {
		return f
	}
	return 0
}

func valueIn(hay, needle any) bool {
	arr, ok := hay.([]any)
	if !ok {
		return false
	}
	for _, item := range arr {
		if fmt.Sprint(item) == fmt.Sprint(needle) {
			return true
		}
	}
	return false
}
