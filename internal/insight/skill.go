// Package insight generates per-entity insights by rendering skill templates
// over record payloads and calling an LLM, with signature-based dedup so
// unchanged entities never pay for a second call.
package insight

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Skill is a template-driven extraction recipe. Skills ship compiled-in and
// can be overridden by YAML files in INSIGHT_SKILL_DIR.
type Skill struct {
	ID              string
	Template        string
	RequiredFields  []string
	CacheTTLSeconds int
	ModelProvider   string
	ModelName       string
	ModelTemp       float64
	MaxInsights     int
	PreferCDM       bool
}

// Built-in skill IDs, selected by source family.
const (
	SkillDoc     = "doc-insight.v1"
	SkillWork    = "work-insight.v1"
	SkillGeneric = "generic-insight.v1"
)

// Registry holds skills keyed by ID.
type Registry struct {
	skills map[string]Skill
}

// NewRegistry returns a registry seeded with the built-in skills and overlaid
// with any YAML skills found in dir (empty dir reads INSIGHT_SKILL_DIR).
func NewRegistry(dir string) *Registry {
	r := &Registry{skills: make(map[string]Skill)}
	for _, s := range builtinSkills() {
		r.skills[s.ID] = s
	}
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv("INSIGHT_SKILL_DIR"))
	}
	if dir != "" {
		r.loadDir(dir)
	}
	return r
}

func builtinSkills() []Skill {
	return []Skill{
		{
			ID:             SkillWork,
			Template:       "Summarize the state of this work item and call out blockers.\nTitle: {{summary}}\nStatus: {{status}}\nContext:\n{{payload}}\nRespond with a JSON insight object.",
			RequiredFields: []string{"summary"},
			ModelTemp:      0.2,
			MaxInsights:    3,
			PreferCDM:      true,
		},
		{
			ID:             SkillDoc,
			Template:       "Summarize this document and flag staleness or ownership gaps.\nTitle: {{title}}\nContext:\n{{payload}}\nRespond with a JSON insight object.",
			RequiredFields: []string{"title"},
			ModelTemp:      0.2,
			MaxInsights:    3,
			PreferCDM:      true,
		},
		{
			ID:          SkillGeneric,
			Template:    "Summarize this record.\n{{payload}}\nRespond with a JSON insight object.",
			ModelTemp:   0.2,
			MaxInsights: 3,
		},
	}
}

func (r *Registry) loadDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".yaml") {
			continue
		}
		if skill, err := parseSkillFile(filepath.Join(dir, ent.Name())); err == nil && skill.ID != "" {
			r.skills[skill.ID] = skill
		}
	}
}

func parseSkillFile(path string) (Skill, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, err
	}
	return parseSkillYAML(b)
}

func parseSkillYAML(b []byte) (Skill, error) {
	var raw struct {
		ID          string `yaml:"id"`
		Template    string `yaml:"template"`
		InputSchema struct {
			Required []string `yaml:"required"`
		} `yaml:"inputSchema"`
		Model struct {
			Provider    string   `yaml:"provider"`
			Name        string   `yaml:"name"`
			Temperature *float64 `yaml:"temperature"`
		} `yaml:"model"`
		Cache struct {
			Enabled    bool `yaml:"enabled"`
			TTLSeconds int  `yaml:"ttlSeconds"`
		} `yaml:"cache"`
		PreferCDM bool `yaml:"preferCdm"`
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Skill{}, err
	}
	skill := Skill{
		ID:              strings.TrimSpace(raw.ID),
		Template:        raw.Template,
		RequiredFields:  raw.InputSchema.Required,
		CacheTTLSeconds: raw.Cache.TTLSeconds,
		ModelProvider:   strings.TrimSpace(raw.Model.Provider),
		ModelName:       strings.TrimSpace(raw.Model.Name),
		ModelTemp:       0.2,
		MaxInsights:     3,
		PreferCDM:       raw.PreferCDM,
	}
	if raw.Model.Temperature != nil {
		skill.ModelTemp = *raw.Model.Temperature
	}
	return skill, nil
}

// Get returns a skill by ID, or a bare skill carrying just the ID so callers
// always have something renderable.
func (r *Registry) Get(id string) Skill {
	if s, ok := r.skills[id]; ok {
		return s
	}
	return Skill{ID: id, ModelTemp: 0.2, MaxInsights: 3}
}

// Len reports the number of registered skills.
func (r *Registry) Len() int { return len(r.skills) }

// SelectSkillID maps a source family to the skill that understands it.
func SelectSkillID(sourceFamily string) string {
	fam := strings.ToLower(sourceFamily)
	switch {
	case strings.Contains(fam, "doc"):
		return SkillDoc
	case strings.Contains(fam, "work"), strings.Contains(fam, "tracker"):
		return SkillWork
	default:
		return SkillGeneric
	}
}
