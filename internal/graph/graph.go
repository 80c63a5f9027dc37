// Package graph abstracts the knowledge-graph write surface used by the
// clustering, signal, and insight stages. The production writer talks to the
// graph service over gRPC; Memory backs tests and single-process setups.
package graph

import (
	"context"
	"sort"
	"sync"
)

// Node is a knowledge-graph node upsert.
type Node struct {
	ID         string
	Type       string
	Properties map[string]string
}

// Edge is a directed knowledge-graph edge upsert.
type Edge struct {
	ID         string
	Type       string
	FromID     string
	ToID       string
	Properties map[string]string
}

// Writer upserts nodes and edges scoped by tenant and project.
type Writer interface {
	UpsertNode(ctx context.Context, tenantID, projectID string, node Node) error
	UpsertEdge(ctx context.Context, tenantID, projectID string, edge Edge) error
}

// Memory is an in-process Writer keyed by node/edge ID.
type Memory struct {
	mu    sync.Mutex
	nodes map[string]Node
	edges map[string]Edge
}

func NewMemory() *Memory {
	return &Memory{
		nodes: make(map[string]Node),
		edges: make(map[string]Edge),
	}
}

func (m *Memory) UpsertNode(_ context.Context, _, _ string, node Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[node.ID] = node
	return nil
}

func (m *Memory) UpsertEdge(_ context.Context, _, _ string, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[edge.ID] = edge
	return nil
}

// Node returns a stored node by ID.
func (m *Memory) Node(id string) (Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	return n, ok
}

// Edges returns stored edges of the given type, sorted by ID. An empty type
// returns everything.
func (m *Memory) Edges(edgeType string) []Edge {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Edge, 0, len(m.edges))
	for _, e := range m.edges {
		if edgeType != "" && e.Type != edgeType {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeCount reports the number of stored nodes.
func (m *Memory) NodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}
