// Code generated manually for bootstrap. Replace with protoc-generated code for production.
package vectorpb

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
	protoimpl "google.golang.org/protobuf/runtime/protoimpl"
)

const (
	// Verify that this generated code is sufficiently up-to-date.
	_ = protoimpl.EnforceVersion(20 - protoimpl.MinVersion)
	// Verify that runtime/protoimpl is sufficiently up-to-date.
	_ = protoimpl.EnforceVersion(protoimpl.MaxVersion - 20)
)

// Compile-time assertions.
var _ context.Context
var _ grpc.ClientConnInterface

const _ = grpc.SupportPackageIsVersion7

// Entry carries a normalized vector document over the wire. Structured
// metadata travels as JSON bytes so the bootstrap codec stays flat.
type Entry struct {
	TenantId       string    `protobuf:"bytes,1,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	ProjectId      string    `protobuf:"bytes,2,opt,name=project_id,json=projectId,proto3" json:"project_id,omitempty"`
	ProfileId      string    `protobuf:"bytes,3,opt,name=profile_id,json=profileId,proto3" json:"profile_id,omitempty"`
	NodeId         string    `protobuf:"bytes,4,opt,name=node_id,json=nodeId,proto3" json:"node_id,omitempty"`
	SourceFamily   string    `protobuf:"bytes,5,opt,name=source_family,json=sourceFamily,proto3" json:"source_family,omitempty"`
	ArtifactId     string    `protobuf:"bytes,6,opt,name=artifact_id,json=artifactId,proto3" json:"artifact_id,omitempty"`
	RunId          string    `protobuf:"bytes,7,opt,name=run_id,json=runId,proto3" json:"run_id,omitempty"`
	SinkEndpointId string    `protobuf:"bytes,8,opt,name=sink_endpoint_id,json=sinkEndpointId,proto3" json:"sink_endpoint_id,omitempty"`
	DatasetSlug    string    `protobuf:"bytes,9,opt,name=dataset_slug,json=datasetSlug,proto3" json:"dataset_slug,omitempty"`
	EntityKind     string    `protobuf:"bytes,10,opt,name=entity_kind,json=entityKind,proto3" json:"entity_kind,omitempty"`
	Labels         []string  `protobuf:"bytes,11,rep,name=labels,proto3" json:"labels,omitempty"`
	Tags           []string  `protobuf:"bytes,12,rep,name=tags,proto3" json:"tags,omitempty"`
	ContentText    string    `protobuf:"bytes,13,opt,name=content_text,json=contentText,proto3" json:"content_text,omitempty"`
	MetadataJson   []byte    `protobuf:"bytes,14,opt,name=metadata_json,json=metadataJson,proto3" json:"metadata_json,omitempty"`
	RawPayloadJson []byte    `protobuf:"bytes,15,opt,name=raw_payload_json,json=rawPayloadJson,proto3" json:"raw_payload_json,omitempty"`
	Embedding      []float32 `protobuf:"fixed32,16,rep,packed,name=embedding,proto3" json:"embedding,omitempty"`
	UpdatedAtMs    int64     `protobuf:"varint,17,opt,name=updated_at_ms,json=updatedAtMs,proto3" json:"updated_at_ms,omitempty"`
}

type UpsertEntriesRequest struct {
	Entries []*Entry `protobuf:"bytes,1,rep,name=entries,proto3" json:"entries,omitempty"`
}

type UpsertEntriesResponse struct {
	Upserted int64 `protobuf:"varint,1,opt,name=upserted,proto3" json:"upserted,omitempty"`
}

type ListEntriesRequest struct {
	TenantId       string   `protobuf:"bytes,1,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	ProjectId      string   `protobuf:"bytes,2,opt,name=project_id,json=projectId,proto3" json:"project_id,omitempty"`
	ProfileIds     []string `protobuf:"bytes,3,rep,name=profile_ids,json=profileIds,proto3" json:"profile_ids,omitempty"`
	SourceFamily   string   `protobuf:"bytes,4,opt,name=source_family,json=sourceFamily,proto3" json:"source_family,omitempty"`
	ArtifactId     string   `protobuf:"bytes,5,opt,name=artifact_id,json=artifactId,proto3" json:"artifact_id,omitempty"`
	RunId          string   `protobuf:"bytes,6,opt,name=run_id,json=runId,proto3" json:"run_id,omitempty"`
	SinkEndpointId string   `protobuf:"bytes,7,opt,name=sink_endpoint_id,json=sinkEndpointId,proto3" json:"sink_endpoint_id,omitempty"`
	DatasetSlug    string   `protobuf:"bytes,8,opt,name=dataset_slug,json=datasetSlug,proto3" json:"dataset_slug,omitempty"`
	EntityKinds    []string `protobuf:"bytes,9,rep,name=entity_kinds,json=entityKinds,proto3" json:"entity_kinds,omitempty"`
	SinceUpdatedMs int64    `protobuf:"varint,10,opt,name=since_updated_ms,json=sinceUpdatedMs,proto3" json:"since_updated_ms,omitempty"`
	Limit          int32    `protobuf:"varint,11,opt,name=limit,proto3" json:"limit,omitempty"`
}

type ListEntriesResponse struct {
	Entries []*Entry `protobuf:"bytes,1,rep,name=entries,proto3" json:"entries,omitempty"`
}

type DeleteByArtifactRequest struct {
	TenantId   string `protobuf:"bytes,1,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	ArtifactId string `protobuf:"bytes,2,opt,name=artifact_id,json=artifactId,proto3" json:"artifact_id,omitempty"`
	RunId      string `protobuf:"bytes,3,opt,name=run_id,json=runId,proto3" json:"run_id,omitempty"`
}

type DeleteByArtifactResponse struct {
	Deleted int64 `protobuf:"varint,1,opt,name=deleted,proto3" json:"deleted,omitempty"`
}

type SearchRequest struct {
	TenantId       string    `protobuf:"bytes,1,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	ProjectId      string    `protobuf:"bytes,2,opt,name=project_id,json=projectId,proto3" json:"project_id,omitempty"`
	ProfileIds     []string  `protobuf:"bytes,3,rep,name=profile_ids,json=profileIds,proto3" json:"profile_ids,omitempty"`
	SourceFamily   string    `protobuf:"bytes,4,opt,name=source_family,json=sourceFamily,proto3" json:"source_family,omitempty"`
	ArtifactId     string    `protobuf:"bytes,5,opt,name=artifact_id,json=artifactId,proto3" json:"artifact_id,omitempty"`
	RunId          string    `protobuf:"bytes,6,opt,name=run_id,json=runId,proto3" json:"run_id,omitempty"`
	SinkEndpointId string    `protobuf:"bytes,7,opt,name=sink_endpoint_id,json=sinkEndpointId,proto3" json:"sink_endpoint_id,omitempty"`
	DatasetSlug    string    `protobuf:"bytes,8,opt,name=dataset_slug,json=datasetSlug,proto3" json:"dataset_slug,omitempty"`
	TopK           int32     `protobuf:"varint,9,opt,name=top_k,json=topK,proto3" json:"top_k,omitempty"`
	Embedding      []float32 `protobuf:"fixed32,10,rep,packed,name=embedding,proto3" json:"embedding,omitempty"`
}

type SearchHit struct {
	NodeId       string  `protobuf:"bytes,1,opt,name=node_id,json=nodeId,proto3" json:"node_id,omitempty"`
	ProfileId    string  `protobuf:"bytes,2,opt,name=profile_id,json=profileId,proto3" json:"profile_id,omitempty"`
	Score        float32 `protobuf:"fixed32,3,opt,name=score,proto3" json:"score,omitempty"`
	ContentText  string  `protobuf:"bytes,4,opt,name=content_text,json=contentText,proto3" json:"content_text,omitempty"`
	MetadataJson []byte  `protobuf:"bytes,5,opt,name=metadata_json,json=metadataJson,proto3" json:"metadata_json,omitempty"`
}

type SearchResponse struct {
	Hits []*SearchHit `protobuf:"bytes,1,rep,name=hits,proto3" json:"hits,omitempty"`
}

// Client API
type VectorServiceClient interface {
	UpsertEntries(ctx context.Context, in *UpsertEntriesRequest, opts ...grpc.CallOption) (*UpsertEntriesResponse, error)
	ListEntries(ctx context.Context, in *ListEntriesRequest, opts ...grpc.CallOption) (*ListEntriesResponse, error)
	DeleteByArtifact(ctx context.Context, in *DeleteByArtifactRequest, opts ...grpc.CallOption) (*DeleteByArtifactResponse, error)
	Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error)
}

type vectorServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVectorServiceClient(cc grpc.ClientConnInterface) VectorServiceClient {
	return &vectorServiceClient{cc}
}

func (c *vectorServiceClient) UpsertEntries(ctx context.Context, in *UpsertEntriesRequest, opts ...grpc.CallOption) (*UpsertEntriesResponse, error) {
	out := new(UpsertEntriesResponse)
	err := c.cc.Invoke(ctx, "/vector.VectorService/UpsertEntries", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vectorServiceClient) ListEntries(ctx context.Context, in *ListEntriesRequest, opts ...grpc.CallOption) (*ListEntriesResponse, error) {
	out := new(ListEntriesResponse)
	err := c.cc.Invoke(ctx, "/vector.VectorService/ListEntries", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vectorServiceClient) DeleteByArtifact(ctx context.Context, in *DeleteByArtifactRequest, opts ...grpc.CallOption) (*DeleteByArtifactResponse, error) {
	out := new(DeleteByArtifactResponse)
	err := c.cc.Invoke(ctx, "/vector.VectorService/DeleteByArtifact", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vectorServiceClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	out := new(SearchResponse)
	err := c.cc.Invoke(ctx, "/vector.VectorService/Search", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Server API
type VectorServiceServer interface {
	UpsertEntries(context.Context, *UpsertEntriesRequest) (*UpsertEntriesResponse, error)
	ListEntries(context.Context, *ListEntriesRequest) (*ListEntriesResponse, error)
	DeleteByArtifact(context.Context, *DeleteByArtifactRequest) (*DeleteByArtifactResponse, error)
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
}

// UnimplementedVectorServiceServer can be embedded for forward compatibility.
type UnimplementedVectorServiceServer struct{}

func (*UnimplementedVectorServiceServer) UpsertEntries(context.Context, *UpsertEntriesRequest) (*UpsertEntriesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpsertEntries not implemented")
}
func (*UnimplementedVectorServiceServer) ListEntries(context.Context, *ListEntriesRequest) (*ListEntriesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListEntries not implemented")
}
func (*UnimplementedVectorServiceServer) DeleteByArtifact(context.Context, *DeleteByArtifactRequest) (*DeleteByArtifactResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DeleteByArtifact not implemented")
}
func (*UnimplementedVectorServiceServer) Search(context.Context, *SearchRequest) (*SearchResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Search not implemented")
}

func RegisterVectorServiceServer(s *grpc.Server, srv VectorServiceServer) {
	s.RegisterService(&_VectorService_serviceDesc, srv)
}

func _VectorService_UpsertEntries_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpsertEntriesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VectorServiceServer).UpsertEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/vector.VectorService/UpsertEntries",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VectorServiceServer).UpsertEntries(ctx, req.(*UpsertEntriesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _VectorService_ListEntries_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListEntriesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VectorServiceServer).ListEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/vector.VectorService/ListEntries",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VectorServiceServer).ListEntries(ctx, req.(*ListEntriesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _VectorService_DeleteByArtifact_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeleteByArtifactRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VectorServiceServer).DeleteByArtifact(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/vector.VectorService/DeleteByArtifact",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VectorServiceServer).DeleteByArtifact(ctx, req.(*DeleteByArtifactRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _VectorService_Search_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SearchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VectorServiceServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/vector.VectorService/Search",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VectorServiceServer).Search(ctx, req.(*SearchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _VectorService_serviceDesc = grpc.ServiceDesc{
	ServiceName: "vector.VectorService",
	HandlerType: (*VectorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UpsertEntries",
			Handler:    _VectorService_UpsertEntries_Handler,
		},
		{
			MethodName: "ListEntries",
			Handler:    _VectorService_ListEntries_Handler,
		},
		{
			MethodName: "DeleteByArtifact",
			Handler:    _VectorService_DeleteByArtifact_Handler,
		},
		{
			MethodName: "Search",
			Handler:    _VectorService_Search_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vector.proto",
}
