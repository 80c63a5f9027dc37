package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/loomworks/loom/internal/graph"
	"github.com/loomworks/loom/internal/signals"
	"github.com/loomworks/loom/pkg/kgpb"
	"github.com/loomworks/loom/pkg/kvpb"
	"github.com/loomworks/loom/pkg/kvstore"
	"github.com/loomworks/loom/pkg/signalpb"
	"github.com/loomworks/loom/pkg/vectorpb"
	"github.com/loomworks/loom/pkg/vectorstore"
)

// defaultStoreAddr is where the store gateway serves all four services.
const defaultStoreAddr = "127.0.0.1:9099"

func dialStore(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

// kvGRPCStore adapts the KV service to the kvstore.Store contract.
type kvGRPCStore struct {
	conn   *grpc.ClientConn
	client kvpb.KvServiceClient
}

func dialKVStore(addr string) (kvstore.Store, error) {
	conn, err := dialStore(addr)
	if err != nil {
		return nil, err
	}
	return &kvGRPCStore{conn: conn, client: kvpb.NewKvServiceClient(conn)}, nil
}

func (s *kvGRPCStore) Put(ctx context.Context, rec kvstore.Record, expectedVersion int64) (int64, error) {
	resp, err := s.client.Put(ctx, &kvpb.PutRequest{
		Scope:   &kvpb.Scope{TenantId: rec.TenantID, ProjectId: rec.ProjectID},
		Key:     rec.Key,
		Value:   rec.Value,
		Version: expectedVersion,
	})
	if err != nil {
		if code := status.Code(err); code == codes.FailedPrecondition || code == codes.Aborted {
			return 0, kvstore.ErrVersionMismatch
		}
		return 0, err
	}
	return resp.Version, nil
}

func (s *kvGRPCStore) Get(ctx context.Context, tenantID, projectID, key string) (*kvstore.Record, error) {
	resp, err := s.client.Get(ctx, &kvpb.GetRequest{
		Scope: &kvpb.Scope{TenantId: tenantID, ProjectId: projectID},
		Key:   key,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return &kvstore.Record{
		TenantID:  tenantID,
		ProjectID: projectID,
		Key:       key,
		Value:     resp.Value,
		Version:   resp.Version,
	}, nil
}

func (s *kvGRPCStore) Delete(ctx context.Context, tenantID, projectID, key string, expectedVersion int64) (bool, error) {
	resp, err := s.client.Delete(ctx, &kvpb.DeleteRequest{
		Scope:   &kvpb.Scope{TenantId: tenantID, ProjectId: projectID},
		Key:     key,
		Version: expectedVersion,
	})
	if err != nil {
		if code := status.Code(err); code == codes.FailedPrecondition || code == codes.Aborted {
			return false, kvstore.ErrVersionMismatch
		}
		return false, err
	}
	return resp.Deleted, nil
}

// ListKeys has no wire counterpart yet; callers that need it run against the
// Postgres or memory store.
func (s *kvGRPCStore) ListKeys(ctx context.Context, tenantID, projectID, prefix string, limit int) ([]string, error) {
	return nil, fmt.Errorf("kv grpc: ListKeys not supported")
}

func (s *kvGRPCStore) Close() error { return s.conn.Close() }

// vectorGRPCStore adapts the vector service to the vectorstore.Store contract.
type vectorGRPCStore struct {
	conn   *grpc.ClientConn
	client vectorpb.VectorServiceClient
}

func dialVectorStore(addr string) (vectorstore.Store, error) {
	conn, err := dialStore(addr)
	if err != nil {
		return nil, err
	}
	return &vectorGRPCStore{conn: conn, client: vectorpb.NewVectorServiceClient(conn)}, nil
}

func (s *vectorGRPCStore) UpsertEntries(entries []vectorstore.Entry) error {
	req := &vectorpb.UpsertEntriesRequest{Entries: make([]*vectorpb.Entry, 0, len(entries))}
	for _, e := range entries {
		req.Entries = append(req.Entries, entryToPB(e))
	}
	_, err := s.client.UpsertEntries(context.Background(), req)
	return err
}

func (s *vectorGRPCStore) Query(embedding []float32, filter vectorstore.QueryFilter, topK int) ([]vectorstore.SearchResult, error) {
	resp, err := s.client.Search(context.Background(), &vectorpb.SearchRequest{
		TenantId:       filter.TenantID,
		ProjectId:      filter.ProjectID,
		ProfileIds:     filter.ProfileIDs,
		SourceFamily:   filter.SourceFamily,
		ArtifactId:     filter.ArtifactID,
		RunId:          filter.RunID,
		SinkEndpointId: filter.SinkEndpointID,
		DatasetSlug:    filter.DatasetSlug,
		TopK:           int32(topK),
		Embedding:      embedding,
	})
	if err != nil {
		return nil, err
	}
	out := make([]vectorstore.SearchResult, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		res := vectorstore.SearchResult{
			NodeID:      hit.NodeId,
			ProfileID:   hit.ProfileId,
			Score:       hit.Score,
			ContentText: hit.ContentText,
		}
		if len(hit.MetadataJson) > 0 {
			_ = json.Unmarshal(hit.MetadataJson, &res.Metadata)
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *vectorGRPCStore) DeleteByArtifact(tenantID, artifactID, runID string) error {
	_, err := s.client.DeleteByArtifact(context.Background(), &vectorpb.DeleteByArtifactRequest{
		TenantId:   tenantID,
		ArtifactId: artifactID,
		RunId:      runID,
	})
	return err
}

func (s *vectorGRPCStore) ListEntries(filter vectorstore.QueryFilter, limit int) ([]vectorstore.Entry, error) {
	req := &vectorpb.ListEntriesRequest{
		TenantId:       filter.TenantID,
		ProjectId:      filter.ProjectID,
		ProfileIds:     filter.ProfileIDs,
		SourceFamily:   filter.SourceFamily,
		ArtifactId:     filter.ArtifactID,
		RunId:          filter.RunID,
		SinkEndpointId: filter.SinkEndpointID,
		DatasetSlug:    filter.DatasetSlug,
		EntityKinds:    filter.EntityKinds,
		Limit:          int32(limit),
	}
	if filter.SinceUpdatedAt != nil {
		req.SinceUpdatedMs = filter.SinceUpdatedAt.UnixMilli()
	}
	resp, err := s.client.ListEntries(context.Background(), req)
	if err != nil {
		return nil, err
	}
	out := make([]vectorstore.Entry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		out = append(out, entryFromPB(e))
	}
	return out, nil
}

func entryToPB(e vectorstore.Entry) *vectorpb.Entry {
	pb := &vectorpb.Entry{
		TenantId:       e.TenantID,
		ProjectId:      e.ProjectID,
		ProfileId:      e.ProfileID,
		NodeId:         e.NodeID,
		SourceFamily:   e.SourceFamily,
		ArtifactId:     e.ArtifactID,
		RunId:          e.RunID,
		SinkEndpointId: e.SinkEndpointID,
		DatasetSlug:    e.DatasetSlug,
		EntityKind:     e.EntityKind,
		Labels:         e.Labels,
		Tags:           e.Tags,
		ContentText:    e.ContentText,
		Embedding:      e.Embedding,
	}
	if len(e.Metadata) > 0 {
		pb.MetadataJson, _ = json.Marshal(e.Metadata)
	}
	if len(e.RawPayload) > 0 {
		pb.RawPayloadJson, _ = json.Marshal(e.RawPayload)
	}
	if e.UpdatedAt != nil {
		pb.UpdatedAtMs = e.UpdatedAt.UnixMilli()
	}
	return pb
}

func entryFromPB(pb *vectorpb.Entry) vectorstore.Entry {
	e := vectorstore.Entry{
		TenantID:       pb.TenantId,
		ProjectID:      pb.ProjectId,
		ProfileID:      pb.ProfileId,
		NodeID:         pb.NodeId,
		SourceFamily:   pb.SourceFamily,
		ArtifactID:     pb.ArtifactId,
		RunID:          pb.RunId,
		SinkEndpointID: pb.SinkEndpointId,
		DatasetSlug:    pb.DatasetSlug,
		EntityKind:     pb.EntityKind,
		Labels:         pb.Labels,
		Tags:           pb.Tags,
		ContentText:    pb.ContentText,
		Embedding:      pb.Embedding,
	}
	if len(pb.MetadataJson) > 0 {
		_ = json.Unmarshal(pb.MetadataJson, &e.Metadata)
	}
	if len(pb.RawPayloadJson) > 0 {
		_ = json.Unmarshal(pb.RawPayloadJson, &e.RawPayload)
	}
	if pb.UpdatedAtMs > 0 {
		t := time.UnixMilli(pb.UpdatedAtMs).UTC()
		e.UpdatedAt = &t
	}
	return e
}

// graphGRPC adapts the KG service to the graph.Writer contract.
type graphGRPC struct {
	conn   *grpc.ClientConn
	client kgpb.KgServiceClient
}

func dialGraphWriter(addr string) (graph.Writer, error) {
	conn, err := dialStore(addr)
	if err != nil {
		return nil, err
	}
	return &graphGRPC{conn: conn, client: kgpb.NewKgServiceClient(conn)}, nil
}

func (g *graphGRPC) UpsertNode(ctx context.Context, tenantID, projectID string, node graph.Node) error {
	_, err := g.client.UpsertNode(ctx, &kgpb.UpsertNodeRequest{
		TenantId:  tenantID,
		ProjectId: projectID,
		Node:      &kgpb.Node{Id: node.ID, Type: node.Type, Properties: node.Properties},
	})
	return err
}

func (g *graphGRPC) UpsertEdge(ctx context.Context, tenantID, projectID string, edge graph.Edge) error {
	_, err := g.client.UpsertEdge(ctx, &kgpb.UpsertEdgeRequest{
		TenantId:  tenantID,
		ProjectId: projectID,
		Edge: &kgpb.Edge{
			Id:         edge.ID,
			Type:       edge.Type,
			FromId:     edge.FromID,
			ToId:       edge.ToID,
			Properties: edge.Properties,
		},
	})
	return err
}

// signalGRPCStore adapts the signal service to the signals.Store contract.
// The wire Definition carries only kind/title/spec, so slug, family, kind,
// and severity ride inside SpecJson alongside the DSL spec.
type signalGRPCStore struct {
	conn    *grpc.ClientConn
	client  signalpb.SignalServiceClient
	tenant  string
	project string
}

type defEnvelope struct {
	Slug         string         `json:"slug,omitempty"`
	SourceFamily string         `json:"sourceFamily,omitempty"`
	EntityKind   string         `json:"entityKind,omitempty"`
	Severity     string         `json:"severity,omitempty"`
	Spec         map[string]any `json:"spec,omitempty"`
}

type instEnvelope struct {
	EntityKind  string         `json:"entityKind,omitempty"`
	SourceRunID string         `json:"sourceRunId,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

func dialSignalStore(addr string) (signals.Store, error) {
	conn, err := dialStore(addr)
	if err != nil {
		return nil, err
	}
	return &signalGRPCStore{
		conn:    conn,
		client:  signalpb.NewSignalServiceClient(conn),
		tenant:  getenv("TENANT_ID", "dev"),
		project: getenv("METADATA_DEFAULT_PROJECT", "global"),
	}, nil
}

func (s *signalGRPCStore) ListDefinitions(ctx context.Context, sourceFamily string) ([]signals.Definition, error) {
	resp, err := s.client.ListDefinitions(ctx, &signalpb.ListDefinitionsRequest{
		TenantId:    s.tenant,
		ProjectId:   s.project,
		EnabledOnly: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]signals.Definition, 0, len(resp.Definitions))
	for _, pb := range resp.Definitions {
		def := definitionFromPB(pb)
		if sourceFamily != "" && def.SourceFamily != "" && !strings.EqualFold(def.SourceFamily, sourceFamily) {
			continue
		}
		out = append(out, def)
	}
	return out, nil
}

func (s *signalGRPCStore) UpsertDefinition(ctx context.Context, def signals.Definition) (string, error) {
	env := defEnvelope{
		Slug:         def.Slug,
		SourceFamily: def.SourceFamily,
		EntityKind:   def.EntityKind,
		Severity:     def.Severity,
		Spec:         def.DefinitionSpec,
	}
	specJSON, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	resp, err := s.client.UpsertDefinition(ctx, &signalpb.UpsertDefinitionRequest{
		Definition: &signalpb.Definition{
			Id:          def.ID,
			TenantId:    s.tenant,
			ProjectId:   s.project,
			Kind:        def.ImplMode,
			Title:       def.Title,
			Description: def.Description,
			SpecJson:    specJSON,
			Enabled:     true,
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Definition.Id, nil
}

func (s *signalGRPCStore) ListInstances(ctx context.Context, definitionID string) ([]signals.Instance, error) {
	resp, err := s.client.ListInstancesForDefinition(ctx, &signalpb.ListInstancesForDefinitionRequest{
		TenantId:     s.tenant,
		ProjectId:    s.project,
		DefinitionId: definitionID,
	})
	if err != nil {
		return nil, err
	}
	out := make([]signals.Instance, 0, len(resp.Instances))
	for _, pb := range resp.Instances {
		out = append(out, instanceFromPB(pb))
	}
	return out, nil
}

func (s *signalGRPCStore) UpsertInstance(ctx context.Context, inst signals.Instance) error {
	env := instEnvelope{
		EntityKind:  inst.EntityKind,
		SourceRunID: inst.SourceRunID,
		Details:     inst.Details,
	}
	detailsJSON, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = s.client.UpsertInstance(ctx, &signalpb.UpsertInstanceRequest{
		Instance: &signalpb.Instance{
			Id:           instanceID(inst.DefinitionID, inst.EntityRef),
			DefinitionId: inst.DefinitionID,
			TenantId:     s.tenant,
			ProjectId:    s.project,
			EntityRef:    inst.EntityRef,
			DedupeKey:    instanceID(inst.DefinitionID, inst.EntityRef),
			Status:       inst.Status,
			Severity:     inst.Severity,
			Summary:      inst.Summary,
			DetailsJson:  detailsJSON,
		},
	})
	return err
}

func (s *signalGRPCStore) UpdateInstanceStatus(ctx context.Context, definitionID, entityRef, status string) error {
	_, err := s.client.UpdateInstanceStatus(ctx, &signalpb.UpdateInstanceStatusRequest{
		TenantId:   s.tenant,
		ProjectId:  s.project,
		InstanceId: instanceID(definitionID, entityRef),
		Status:     status,
	})
	return err
}

func instanceID(definitionID, entityRef string) string {
	return definitionID + "|" + entityRef
}

func definitionFromPB(pb *signalpb.Definition) signals.Definition {
	def := signals.Definition{
		ID:          pb.Id,
		Title:       pb.Title,
		Description: pb.Description,
		ImplMode:    pb.Kind,
	}
	if len(pb.SpecJson) > 0 {
		var env defEnvelope
		if err := json.Unmarshal(pb.SpecJson, &env); err == nil {
			def.Slug = env.Slug
			def.SourceFamily = env.SourceFamily
			def.EntityKind = env.EntityKind
			def.Severity = env.Severity
			def.DefinitionSpec = env.Spec
		}
	}
	return def
}

func instanceFromPB(pb *signalpb.Instance) signals.Instance {
	inst := signals.Instance{
		DefinitionID: pb.DefinitionId,
		EntityRef:    pb.EntityRef,
		Status:       pb.Status,
		Severity:     pb.Severity,
		Summary:      pb.Summary,
	}
	if len(pb.DetailsJson) > 0 {
		var env instEnvelope
		if err := json.Unmarshal(pb.DetailsJson, &env); err == nil {
			inst.EntityKind = env.EntityKind
			inst.SourceRunID = env.SourceRunID
			inst.Details = env.Details
		}
	}
	return inst
}
