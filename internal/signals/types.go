// Package signals evaluates signal definitions (code-backed or declarative
// DSL) against pipeline records, reconciles instance lifecycles, and mirrors
// results into the knowledge graph.
package signals

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Instance lifecycle statuses.
const (
	StatusOpen       = "OPEN"
	StatusResolved   = "RESOLVED"
	StatusSuppressed = "SUPPRESSED"
)

// Definition is a signal rule. ImplMode CODE resolves behavior from the
// definition metadata alone; DSL carries a typed spec (see ParseSpec).
type Definition struct {
	ID             string         `json:"id"`
	Slug           string         `json:"slug"`
	Title          string         `json:"title,omitempty"`
	Description    string         `json:"description,omitempty"`
	SourceFamily   string         `json:"sourceFamily,omitempty"`
	EntityKind     string         `json:"entityKind,omitempty"`
	Severity       string         `json:"severity,omitempty"`
	ImplMode       string         `json:"implMode"` // CODE or DSL
	DefinitionSpec map[string]any `json:"definitionSpec,omitempty"`
}

// Instance is one occurrence of a signal on an entity, keyed uniquely by
// (definitionId, entityRef).
type Instance struct {
	DefinitionID string         `json:"definitionId"`
	EntityRef    string         `json:"entityRef"`
	EntityKind   string         `json:"entityKind,omitempty"`
	Severity     string         `json:"severity"`
	Status       string         `json:"status"`
	Summary      string         `json:"summary,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	SourceRunID  string         `json:"sourceRunId,omitempty"`
}

// Store persists definitions and instances. The production store sits behind
// the signal service; Memory backs tests and single-process setups.
type Store interface {
	ListDefinitions(ctx context.Context, sourceFamily string) ([]Definition, error)
	UpsertDefinition(ctx context.Context, def Definition) (string, error)
	ListInstances(ctx context.Context, definitionID string) ([]Instance, error)
	UpsertInstance(ctx context.Context, inst Instance) error
	UpdateInstanceStatus(ctx context.Context, definitionID, entityRef, status string) error
}

// Memory is an in-process Store.
type Memory struct {
	mu        sync.Mutex
	defs      map[string]Definition
	instances map[string]Instance // definitionID|entityRef
	defSeq    int
}

func NewMemory() *Memory {
	return &Memory{
		defs:      make(map[string]Definition),
		instances: make(map[string]Instance),
	}
}

func instanceKey(definitionID, entityRef string) string {
	return definitionID + "|" + entityRef
}

func (m *Memory) ListDefinitions(_ context.Context, sourceFamily string) ([]Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Definition, 0, len(m.defs))
	for _, def := range m.defs {
		if sourceFamily != "" && def.SourceFamily != "" && !strings.EqualFold(def.SourceFamily, sourceFamily) {
			continue
		}
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpsertDefinition(_ context.Context, def Definition) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if def.ID == "" {
		m.defSeq++
		def.ID = fmt.Sprintf("def-%d", m.defSeq)
	}
	m.defs[def.ID] = def
	return def.ID, nil
}

func (m *Memory) ListInstances(_ context.Context, definitionID string) ([]Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Instance
	for _, inst := range m.instances {
		if inst.DefinitionID == definitionID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityRef < out[j].EntityRef })
	return out, nil
}

func (m *Memory) UpsertInstance(_ context.Context, inst Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := instanceKey(inst.DefinitionID, inst.EntityRef)
	if existing, ok := m.instances[key]; ok && existing.Status == StatusSuppressed {
		// Manual suppression survives re-detection.
		inst.Status = StatusSuppressed
	}
	m.instances[key] = inst
	return nil
}

func (m *Memory) UpdateInstanceStatus(_ context.Context, definitionID, entityRef, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := instanceKey(definitionID, entityRef)
	inst, ok := m.instances[key]
	if !ok {
		return fmt.Errorf("signal instance %s not found", key)
	}
	inst.Status = status
	m.instances[key] = inst
	return nil
}

// Instance returns a stored instance for assertions.
func (m *Memory) Instance(definitionID, entityRef string) (Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[instanceKey(definitionID, entityRef)]
	return inst, ok
}
