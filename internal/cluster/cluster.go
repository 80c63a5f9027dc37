// Package cluster groups recently indexed vector entries into clusters using
// greedy centroid assignment refined by a similarity graph, then writes the
// cluster nodes and membership edges to the knowledge graph.
package cluster

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/graph"
	"github.com/loomworks/loom/internal/kb"
	"github.com/loomworks/loom/pkg/kvstore"
	"github.com/loomworks/loom/pkg/logstore"
	"github.com/loomworks/loom/pkg/vectorstore"
)

// listLimit caps how many entries one run considers.
const listLimit = 300

// relatedEdgeCap bounds RELATED edges emitted per cluster.
const relatedEdgeCap = 5

// Request scopes one clustering run.
type Request struct {
	ArtifactID     string         `json:"artifactId,omitempty"`
	SinkEndpointID string         `json:"sinkEndpointId,omitempty"`
	DatasetSlug    string         `json:"datasetSlug"`
	SourceFamily   string         `json:"sourceFamily,omitempty"`
	TenantID       string         `json:"tenantId,omitempty"`
	ProjectID      string         `json:"projectId,omitempty"`
	RunID          string         `json:"runId,omitempty"`
	Checkpoint     map[string]any `json:"checkpoint,omitempty"`
}

// Result reports clustering counters.
type Result struct {
	ClustersCreated int            `json:"clustersCreated"`
	MembersLinked   int            `json:"membersLinked"`
	RelatedEdges    int            `json:"relatedEdges"`
	CacheHits       int            `json:"cacheHits"`
	VersionHash     string         `json:"versionHash,omitempty"`
	Checkpoint      map[string]any `json:"checkpoint,omitempty"`
	LogEventsPath   string         `json:"logEventsPath,omitempty"`
	LogSnapshotPath string         `json:"logSnapshotPath,omitempty"`
}

// StatusRecorder mirrors clustering stats to the artifact registry.
type StatusRecorder interface {
	MarkClustered(ctx context.Context, artifactID string, stats map[string]any) error
}

// Builder wires the stores the clustering stage needs. kv holds the centroid
// cache; checkpoints holds the incremental watermark. logs and recorder may
// be nil.
type Builder struct {
	vectors     vectorstore.Store
	kv          kvstore.Store
	checkpoints *checkpoint.Engine
	graph       graph.Writer
	logs        logstore.Store
	recorder    StatusRecorder
}

func NewBuilder(vectors vectorstore.Store, kv kvstore.Store, checkpoints *checkpoint.Engine, writer graph.Writer, logs logstore.Store, recorder StatusRecorder) *Builder {
	return &Builder{
		vectors:     vectors,
		kv:          kv,
		checkpoints: checkpoints,
		graph:       writer,
		logs:        logs,
		recorder:    recorder,
	}
}

type clusterStats struct {
	centroid   []float32
	size       int
	avgSim     float32
	maxSim     float32
	memberIDs  []string
	cachedAt   string
	edgeDegree int
	memberHash string
	topRelated []edgeSummary
}

type edgeSummary struct {
	Src   string  `json:"src"`
	Dst   string  `json:"dst"`
	Score float32 `json:"score"`
}

// BuildClusters runs one clustering pass over entries updated since the last
// checkpoint. Cluster IDs are stable across runs: a hash of the sorted member
// set scoped by dataset and source family.
func (b *Builder) BuildClusters(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.DatasetSlug) == "" {
		return nil, fmt.Errorf("datasetSlug is required")
	}

	tenant := req.TenantID
	if tenant == "" {
		tenant = getenv("TENANT_ID", "dev")
	}
	project := req.ProjectID
	if project == "" {
		project = getenv("METADATA_DEFAULT_PROJECT", "global")
	}

	cp := req.Checkpoint
	if len(cp) == 0 && b.checkpoints != nil {
		cp, _, _ = b.checkpoints.Load(ctx, tenant, project, checkpoint.ClusterKey(req.DatasetSlug))
	}
	var since *time.Time
	if ts, ok := cp["lastUpdatedAt"].(string); ok && ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			since = &t
		}
	}

	entries, err := b.vectors.ListEntries(vectorstore.QueryFilter{
		TenantID:       tenant,
		ProjectID:      project,
		DatasetSlug:    req.DatasetSlug,
		SourceFamily:   req.SourceFamily,
		SinkEndpointID: req.SinkEndpointID,
		SinceUpdatedAt: since,
		Limit:          listLimit,
	}, listLimit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &Result{Checkpoint: cp}, nil
	}

	var latestUpdated time.Time
	dim := 0
	for _, e := range entries {
		if e.UpdatedAt != nil && e.UpdatedAt.After(latestUpdated) {
			latestUpdated = *e.UpdatedAt
		}
		if dim == 0 && len(e.Embedding) > 0 {
			dim = len(e.Embedding)
		}
	}

	simThreshold := getEnvFloat("CLUSTER_SIM_THRESHOLD", 0.35)
	graphThreshold := getEnvFloat("CLUSTER_GRAPH_THRESHOLD", 0.45)
	maxClusterSize := getEnvInt("CLUSTER_MAX_SIZE", 5)
	if maxClusterSize < 2 {
		maxClusterSize = 5
	}

	assignments := greedyAssign(entries, req.DatasetSlug, simThreshold, maxClusterSize)
	if len(assignments) == 0 {
		return &Result{Checkpoint: cp}, nil
	}

	// Connected components of size >= 2 in the similarity graph override the
	// greedy assignment, merging clusters the one-pass scan split.
	components, edgeMap := buildComponents(entries, graphThreshold)
	compAssignments := make(map[string]string)
	compSeq := 0
	for _, comp := range components {
		if len(comp) < 2 {
			continue
		}
		compSeq++
		cid := fmt.Sprintf("cluster:%s:cc%d", req.DatasetSlug, compSeq)
		for _, nodeID := range comp {
			compAssignments[nodeID] = cid
		}
	}
	if len(compAssignments) > 0 {
		assignments = compAssignments
	}

	// Rebuild IDs from member sets so clusters stay stable across runs.
	clusterMembers := make(map[string][]string)
	for node, cid := range assignments {
		clusterMembers[cid] = append(clusterMembers[cid], node)
	}
	stableIDs := make(map[string]string)
	finalClusters := make(map[string]*clusterStats)
	for cid, members := range clusterMembers {
		sid := stableClusterID(req.DatasetSlug, req.SourceFamily, members)
		stableIDs[cid] = sid
		cs := finalClusters[sid]
		if cs == nil {
			cs = &clusterStats{memberHash: sid}
			finalClusters[sid] = cs
		}
		cs.size += len(members)
		cs.memberIDs = append(cs.memberIDs, members...)
	}
	for _, cs := range finalClusters {
		sort.Strings(cs.memberIDs)
	}

	cacheEntries, cacheVersion, _ := b.loadCentroidCache(ctx, tenant, project, req.DatasetSlug)
	cacheHits := 0
	for sid, cs := range finalClusters {
		if entry, ok := cacheEntries[sid]; ok &&
			entry.MemberHash == cs.memberHash &&
			entry.Dim == dim && len(entry.Centroid) == dim &&
			(latestUpdated.IsZero() || !entry.updatedAt.Before(latestUpdated)) {
			cs.centroid = entry.Centroid
			cs.avgSim = entry.AvgSim
			cs.maxSim = entry.MaxSim
			cs.cachedAt = entry.UpdatedAt
			cacheHits++
			continue
		}
		computeCentroidStats(cs, entries)
	}

	related := relatedEdges(edgeMap, assignments, stableIDs, finalClusters, entries)

	res, err := b.emit(ctx, req, tenant, project, finalClusters, assignments, stableIDs, related)
	if err != nil {
		return nil, err
	}
	res.CacheHits = cacheHits

	cpTime := time.Now().UTC().Format(time.RFC3339)
	if !latestUpdated.IsZero() {
		cpTime = latestUpdated.UTC().Format(time.RFC3339)
	}
	newCp := map[string]any{"lastUpdatedAt": cpTime}
	if b.checkpoints != nil {
		if _, err := b.checkpoints.Save(ctx, tenant, project, checkpoint.ClusterKey(req.DatasetSlug), newCp); err != nil {
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}
	}
	res.Checkpoint = newCp

	b.saveCentroidCache(ctx, tenant, project, req.DatasetSlug, finalClusters, cacheVersion)

	if b.recorder != nil && req.ArtifactID != "" {
		_ = b.recorder.MarkClustered(ctx, req.ArtifactID, map[string]any{
			"clustersCreated": res.ClustersCreated,
			"membersLinked":   res.MembersLinked,
			"relatedEdges":    res.RelatedEdges,
			"cacheHits":       res.CacheHits,
			"dataset":         req.DatasetSlug,
			"runId":           req.RunID,
			"versionHash":     res.VersionHash,
			"logEventsPath":   res.LogEventsPath,
			"logSnapshotPath": res.LogSnapshotPath,
		})
	}
	return res, nil
}

// greedyAssign makes one pass over the entries, assigning each to the most
// similar open centroid (running average) or opening a new cluster. Ties in
// best similarity keep the earlier cluster.
func greedyAssign(entries []vectorstore.Entry, dataset string, simThreshold float32, maxClusterSize int) map[string]string {
	type centroid struct {
		vec []float32
		n   int
		id  string
	}
	var clusters []centroid
	assignments := make(map[string]string)
	clusterSeq := 0

	for _, e := range entries {
		if len(e.Embedding) == 0 {
			continue
		}
		bestIdx := -1
		bestSim := float32(-1)
		for idx, c := range clusters {
			if c.n >= maxClusterSize {
				continue
			}
			sim := cosineSim(e.Embedding, c.vec)
			if sim > bestSim {
				bestSim = sim
				bestIdx = idx
			}
		}
		if bestIdx >= 0 && bestSim >= simThreshold {
			assignments[e.NodeID] = clusters[bestIdx].id
			clusters[bestIdx].vec = avgVec(clusters[bestIdx].vec, e.Embedding, clusters[bestIdx].n+1)
			clusters[bestIdx].n++
		} else {
			clusterSeq++
			cid := fmt.Sprintf("cluster:%s:%d", dataset, clusterSeq)
			clusters = append(clusters, centroid{vec: e.Embedding, n: 1, id: cid})
			assignments[e.NodeID] = cid
		}
	}
	return assignments
}

func computeCentroidStats(cs *clusterStats, entries []vectorstore.Entry) {
	byNode := make(map[string][]float32, len(entries))
	for _, e := range entries {
		if len(e.Embedding) > 0 {
			byNode[e.NodeID] = e.Embedding
		}
	}
	count := 0
	for _, m := range cs.memberIDs {
		emb, ok := byNode[m]
		if !ok {
			continue
		}
		cs.centroid = avgVec(cs.centroid, emb, count+1)
		count++
	}
	if len(cs.centroid) == 0 {
		return
	}
	var sumSim float32
	simCount := 0
	for _, m := range cs.memberIDs {
		emb, ok := byNode[m]
		if !ok {
			continue
		}
		s := cosineSim(emb, cs.centroid)
		sumSim += s
		if s > cs.maxSim {
			cs.maxSim = s
		}
		simCount++
	}
	if simCount > 0 {
		cs.avgSim = sumSim / float32(simCount)
	}
}

// relatedEdges folds the similarity graph into per-cluster edge summaries:
// each undirected pair counts toward the degree of both endpoint clusters and
// each cluster keeps its top edges by score, ties breaking on (src, dst).
func relatedEdges(edgeMap map[string][]string, assignments, stableIDs map[string]string, finalClusters map[string]*clusterStats, entries []vectorstore.Entry) []edgeSummary {
	byNode := make(map[string][]float32, len(entries))
	for _, e := range entries {
		byNode[e.NodeID] = e.Embedding
	}

	seen := make(map[string]struct{})
	var pairs []edgeSummary
	for src, neighbors := range edgeMap {
		for _, dst := range neighbors {
			a, b := src, dst
			if a > b {
				a, b = b, a
			}
			key := a + "->" + b
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, edgeSummary{Src: a, Dst: b, Score: cosineSim(byNode[a], byNode[b])})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		if pairs[i].Src != pairs[j].Src {
			return pairs[i].Src < pairs[j].Src
		}
		return pairs[i].Dst < pairs[j].Dst
	})

	perCluster := make(map[string][]edgeSummary)
	for _, p := range pairs {
		for _, endpoint := range []string{p.Src, p.Dst} {
			cid, ok := assignments[endpoint]
			if !ok {
				continue
			}
			sid := stableIDs[cid]
			cs, ok := finalClusters[sid]
			if !ok {
				continue
			}
			cs.edgeDegree++
			perCluster[sid] = append(perCluster[sid], p)
		}
	}

	emitSeen := make(map[string]struct{})
	var emit []edgeSummary
	for _, sid := range sortedClusterIDs(finalClusters) {
		edges := perCluster[sid]
		if len(edges) > relatedEdgeCap {
			edges = edges[:relatedEdgeCap]
		}
		finalClusters[sid].topRelated = edges
		for _, e := range edges {
			key := e.Src + "->" + e.Dst
			if _, ok := emitSeen[key]; ok {
				continue
			}
			emitSeen[key] = struct{}{}
			emit = append(emit, e)
		}
	}
	return emit
}

func (b *Builder) emit(ctx context.Context, req Request, tenant, project string, finalClusters map[string]*clusterStats, assignments, stableIDs map[string]string, related []edgeSummary) (*Result, error) {
	clusterKind := "episode"
	if req.SourceFamily != "" {
		clusterKind = strings.ToLower(req.SourceFamily)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	var events []kb.Event
	seq := int64(0)

	for _, sid := range sortedClusterIDs(finalClusters) {
		cs := finalClusters[sid]
		seq++
		events = append(events, kb.NewEvent(seq, req.RunID, req.DatasetSlug, "upsert_node", "kg.cluster", sid,
			sid, strconv.Itoa(cs.size), cs.memberHash, cs.cachedAt, req.RunID))
		if b.graph != nil {
			err := b.graph.UpsertNode(ctx, tenant, project, graph.Node{
				ID:   sid,
				Type: "kg.cluster",
				Properties: map[string]string{
					"clusterKind":    clusterKind,
					"dataset":        req.DatasetSlug,
					"artifactId":     req.ArtifactID,
					"runId":          req.RunID,
					"sinkEndpointId": req.SinkEndpointID,
					"sourceFamily":   req.SourceFamily,
					"updatedAt":      now,
					"size":           strconv.Itoa(cs.size),
					"avgSim":         fmt.Sprintf("%.4f", cs.avgSim),
					"maxSim":         fmt.Sprintf("%.4f", cs.maxSim),
					"edgeDegree":     strconv.Itoa(cs.edgeDegree),
					"cacheAt":        cs.cachedAt,
					"memberHash":     cs.memberHash,
				},
			})
			if err != nil {
				return nil, fmt.Errorf("upsert cluster node %s: %w", sid, err)
			}
		}
	}

	nodeIDs := make([]string, 0, len(assignments))
	for nodeID := range assignments {
		nodeIDs = append(nodeIDs, nodeID)
	}
	sort.Strings(nodeIDs)
	for _, nodeID := range nodeIDs {
		sid := stableIDs[assignments[nodeID]]
		edgeID := fmt.Sprintf("in_cluster:%s:%s", sid, nodeID)
		seq++
		events = append(events, kb.NewEvent(seq, req.RunID, req.DatasetSlug, "upsert_edge", "IN_CLUSTER", edgeID, edgeID, req.RunID))
		if b.graph != nil {
			err := b.graph.UpsertEdge(ctx, tenant, project, graph.Edge{
				ID:     edgeID,
				Type:   "IN_CLUSTER",
				FromID: sid,
				ToID:   nodeID,
			})
			if err != nil {
				return nil, fmt.Errorf("upsert membership edge %s: %w", edgeID, err)
			}
		}
	}

	for _, e := range related {
		key := e.Src + "->" + e.Dst
		seq++
		events = append(events, kb.NewEvent(seq, req.RunID, req.DatasetSlug, "upsert_edge", "RELATED", key, key, req.RunID))
		if b.graph != nil {
			err := b.graph.UpsertEdge(ctx, tenant, project, graph.Edge{
				ID:     fmt.Sprintf("related:%s:%s", e.Src, e.Dst),
				Type:   "RELATED",
				FromID: e.Src,
				ToID:   e.Dst,
			})
			if err != nil {
				return nil, fmt.Errorf("upsert related edge %s: %w", key, err)
			}
		}
	}

	eventsPath, snapPath := kb.Save(ctx, b.logs, req.DatasetSlug, req.RunID, events, seq)

	return &Result{
		ClustersCreated: len(finalClusters),
		MembersLinked:   len(assignments),
		RelatedEdges:    len(related),
		VersionHash:     kb.Digest(strings.Join(sortedClusterIDs(finalClusters), "|")),
		LogEventsPath:   eventsPath,
		LogSnapshotPath: snapPath,
	}, nil
}

func sortedClusterIDs(clusters map[string]*clusterStats) []string {
	keys := make([]string, 0, len(clusters))
	for k := range clusters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float32 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return float32(f)
		}
	}
	return float32(def)
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}
