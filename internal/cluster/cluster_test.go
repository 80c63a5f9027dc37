package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/graph"
	"github.com/loomworks/loom/pkg/kvstore"
	"github.com/loomworks/loom/pkg/vectorstore"
)

type listStore struct {
	entries []vectorstore.Entry
}

func (s *listStore) UpsertEntries(entries []vectorstore.Entry) error { return nil }

func (s *listStore) Query(embedding []float32, filter vectorstore.QueryFilter, topK int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (s *listStore) DeleteByArtifact(tenantID, artifactID, runID string) error { return nil }

func (s *listStore) ListEntries(filter vectorstore.QueryFilter, limit int) ([]vectorstore.Entry, error) {
	if limit > 0 && len(s.entries) > limit {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func entry(nodeID string, embedding []float32, updatedAt time.Time) vectorstore.Entry {
	t := updatedAt
	return vectorstore.Entry{
		TenantID:    "dev",
		ProjectID:   "global",
		NodeID:      nodeID,
		DatasetSlug: "tracker-issues",
		Embedding:   embedding,
		UpdatedAt:   &t,
	}
}

func newTestBuilder(entries []vectorstore.Entry) (*Builder, *graph.Memory, *checkpoint.Engine) {
	g := graph.NewMemory()
	engine := checkpoint.NewEngine(kvstore.NewMemoryStore())
	b := NewBuilder(&listStore{entries: entries}, kvstore.NewMemoryStore(), engine, g, nil, nil)
	return b, g, engine
}

func TestBuildClustersMergesSimilarEntries(t *testing.T) {
	updated := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	entries := []vectorstore.Entry{
		entry("node-a", []float32{1, 0, 0, 0}, updated),
		entry("node-b", []float32{0.95, 0.3, 0, 0}, updated),
		entry("node-c", []float32{0, 1, 0, 0}, updated),
	}
	b, g, engine := newTestBuilder(entries)

	res, err := b.BuildClusters(context.Background(), Request{
		DatasetSlug:  "tracker-issues",
		SourceFamily: "tracker",
		RunID:        "run-1",
	})
	if err != nil {
		t.Fatalf("BuildClusters: %v", err)
	}

	// node-a and node-b sit above the graph threshold and form the only
	// component of size >= 2, which overrides the greedy assignment.
	if res.ClustersCreated != 1 || res.MembersLinked != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.RelatedEdges != 1 {
		t.Fatalf("relatedEdges = %d, want 1", res.RelatedEdges)
	}

	wantID := stableClusterID("tracker-issues", "tracker", []string{"node-a", "node-b"})
	node, ok := g.Node(wantID)
	if !ok {
		t.Fatalf("cluster node %s not written", wantID)
	}
	if node.Properties["size"] != "2" {
		t.Fatalf("size = %q", node.Properties["size"])
	}
	if node.Properties["clusterKind"] != "tracker" {
		t.Fatalf("clusterKind = %q", node.Properties["clusterKind"])
	}

	members := g.Edges("IN_CLUSTER")
	if len(members) != 2 {
		t.Fatalf("IN_CLUSTER edges = %d", len(members))
	}
	for _, e := range members {
		if e.FromID != wantID {
			t.Fatalf("edge from %q, want %q", e.FromID, wantID)
		}
	}
	related := g.Edges("RELATED")
	if len(related) != 1 || related[0].FromID != "node-a" || related[0].ToID != "node-b" {
		t.Fatalf("related = %+v", related)
	}

	cp, _, err := engine.Load(context.Background(), "dev", "global", checkpoint.ClusterKey("tracker-issues"))
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if cp["lastUpdatedAt"] != updated.Format(time.RFC3339) {
		t.Fatalf("lastUpdatedAt = %v", cp["lastUpdatedAt"])
	}
}

func TestBuildClustersStableIDsAndCacheReuse(t *testing.T) {
	updated := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	entries := []vectorstore.Entry{
		entry("node-a", []float32{1, 0, 0, 0}, updated),
		entry("node-b", []float32{0.95, 0.3, 0, 0}, updated),
	}
	b, g, _ := newTestBuilder(entries)

	req := Request{DatasetSlug: "tracker-issues", SourceFamily: "tracker", RunID: "run-1"}
	first, err := b.BuildClusters(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.CacheHits != 0 {
		t.Fatalf("first cacheHits = %d", first.CacheHits)
	}

	req.RunID = "run-2"
	second, err := b.BuildClusters(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.CacheHits != 1 {
		t.Fatalf("second cacheHits = %d", second.CacheHits)
	}
	if second.VersionHash != first.VersionHash {
		t.Fatalf("version hash changed: %q vs %q", first.VersionHash, second.VersionHash)
	}

	wantID := stableClusterID("tracker-issues", "tracker", []string{"node-a", "node-b"})
	if _, ok := g.Node(wantID); !ok {
		t.Fatalf("stable cluster node %s missing after second run", wantID)
	}
	if g.NodeCount() != 1 {
		t.Fatalf("node count = %d, want 1", g.NodeCount())
	}
}

func TestBuildClustersNoEntries(t *testing.T) {
	b, g, _ := newTestBuilder(nil)
	res, err := b.BuildClusters(context.Background(), Request{DatasetSlug: "tracker-issues"})
	if err != nil {
		t.Fatalf("BuildClusters: %v", err)
	}
	if res.ClustersCreated != 0 || g.NodeCount() != 0 {
		t.Fatalf("expected no clusters, got %+v", res)
	}
}

func TestStableClusterIDIgnoresMemberOrder(t *testing.T) {
	a := stableClusterID("d", "f", []string{"x", "y", "z"})
	c := stableClusterID("d", "f", []string{"z", "x", "y"})
	if a != c {
		t.Fatalf("IDs differ: %q vs %q", a, c)
	}
	other := stableClusterID("d", "f", []string{"x", "y"})
	if a == other {
		t.Fatal("different member sets must hash differently")
	}
}
