// Code generated manually for bootstrap. Replace with protoc-generated code for production.
package signalpb

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

// Definition describes a signal rule. SpecJson holds the declarative spec for
// DSL-kind definitions; CODE-kind definitions resolve by id.
type Definition struct {
	Id          string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	TenantId    string `protobuf:"bytes,2,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	ProjectId   string `protobuf:"bytes,3,opt,name=project_id,json=projectId,proto3" json:"project_id,omitempty"`
	Kind        string `protobuf:"bytes,4,opt,name=kind,proto3" json:"kind,omitempty"`
	Title       string `protobuf:"bytes,5,opt,name=title,proto3" json:"title,omitempty"`
	Description string `protobuf:"bytes,6,opt,name=description,proto3" json:"description,omitempty"`
	SpecJson    []byte `protobuf:"bytes,7,opt,name=spec_json,json=specJson,proto3" json:"spec_json,omitempty"`
	Enabled     bool   `protobuf:"varint,8,opt,name=enabled,proto3" json:"enabled,omitempty"`
}

// Instance is a concrete occurrence of a signal on an entity.
type Instance struct {
	Id           string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	DefinitionId string `protobuf:"bytes,2,opt,name=definition_id,json=definitionId,proto3" json:"definition_id,omitempty"`
	TenantId     string `protobuf:"bytes,3,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	ProjectId    string `protobuf:"bytes,4,opt,name=project_id,json=projectId,proto3" json:"project_id,omitempty"`
	EntityRef    string `protobuf:"bytes,5,opt,name=entity_ref,json=entityRef,proto3" json:"entity_ref,omitempty"`
	DedupeKey    string `protobuf:"bytes,6,opt,name=dedupe_key,json=dedupeKey,proto3" json:"dedupe_key,omitempty"`
	Status       string `protobuf:"bytes,7,opt,name=status,proto3" json:"status,omitempty"`
	Severity     string `protobuf:"bytes,8,opt,name=severity,proto3" json:"severity,omitempty"`
	Summary      string `protobuf:"bytes,9,opt,name=summary,proto3" json:"summary,omitempty"`
	DetailsJson  []byte `protobuf:"bytes,10,opt,name=details_json,json=detailsJson,proto3" json:"details_json,omitempty"`
	FirstSeenMs  int64  `protobuf:"varint,11,opt,name=first_seen_ms,json=firstSeenMs,proto3" json:"first_seen_ms,omitempty"`
	LastSeenMs   int64  `protobuf:"varint,12,opt,name=last_seen_ms,json=lastSeenMs,proto3" json:"last_seen_ms,omitempty"`
}

type UpsertDefinitionRequest struct {
	Definition *Definition `protobuf:"bytes,1,opt,name=definition,proto3" json:"definition,omitempty"`
}
type UpsertDefinitionResponse struct {
	Definition *Definition `protobuf:"bytes,1,opt,name=definition,proto3" json:"definition,omitempty"`
}

type ListDefinitionsRequest struct {
	TenantId    string `protobuf:"bytes,1,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	ProjectId   string `protobuf:"bytes,2,opt,name=project_id,json=projectId,proto3" json:"project_id,omitempty"`
	EnabledOnly bool   `protobuf:"varint,3,opt,name=enabled_only,json=enabledOnly,proto3" json:"enabled_only,omitempty"`
}
type ListDefinitionsResponse struct {
	Definitions []*Definition `protobuf:"bytes,1,rep,name=definitions,proto3" json:"definitions,omitempty"`
}

type ListInstancesForDefinitionRequest struct {
	TenantId     string   `protobuf:"bytes,1,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	ProjectId    string   `protobuf:"bytes,2,opt,name=project_id,json=projectId,proto3" json:"project_id,omitempty"`
	DefinitionId string   `protobuf:"bytes,3,opt,name=definition_id,json=definitionId,proto3" json:"definition_id,omitempty"`
	Statuses     []string `protobuf:"bytes,4,rep,name=statuses,proto3" json:"statuses,omitempty"`
	Limit        int32    `protobuf:"varint,5,opt,name=limit,proto3" json:"limit,omitempty"`
}
type ListInstancesForDefinitionResponse struct {
	Instances []*Instance `protobuf:"bytes,1,rep,name=instances,proto3" json:"instances,omitempty"`
}

type UpsertInstanceRequest struct {
	Instance *Instance `protobuf:"bytes,1,opt,name=instance,proto3" json:"instance,omitempty"`
}
type UpsertInstanceResponse struct {
	Instance *Instance `protobuf:"bytes,1,opt,name=instance,proto3" json:"instance,omitempty"`
}

type UpdateInstanceStatusRequest struct {
	TenantId   string `protobuf:"bytes,1,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	ProjectId  string `protobuf:"bytes,2,opt,name=project_id,json=projectId,proto3" json:"project_id,omitempty"`
	InstanceId string `protobuf:"bytes,3,opt,name=instance_id,json=instanceId,proto3" json:"instance_id,omitempty"`
	Status     string `protobuf:"bytes,4,opt,name=status,proto3" json:"status,omitempty"`
	Reason     string `protobuf:"bytes,5,opt,name=reason,proto3" json:"reason,omitempty"`
}
type UpdateInstanceStatusResponse struct {
	Instance *Instance `protobuf:"bytes,1,opt,name=instance,proto3" json:"instance,omitempty"`
}

// Client API
type SignalServiceClient interface {
	UpsertDefinition(ctx context.Context, in *UpsertDefinitionRequest, opts ...grpc.CallOption) (*UpsertDefinitionResponse, error)
	ListDefinitions(ctx context.Context, in *ListDefinitionsRequest, opts ...grpc.CallOption) (*ListDefinitionsResponse, error)
	ListInstancesForDefinition(ctx context.Context, in *ListInstancesForDefinitionRequest, opts ...grpc.CallOption) (*ListInstancesForDefinitionResponse, error)
	UpsertInstance(ctx context.Context, in *UpsertInstanceRequest, opts ...grpc.CallOption) (*UpsertInstanceResponse, error)
	UpdateInstanceStatus(ctx context.Context, in *UpdateInstanceStatusRequest, opts ...grpc.CallOption) (*UpdateInstanceStatusResponse, error)
}

type signalServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSignalServiceClient(cc grpc.ClientConnInterface) SignalServiceClient {
	return &signalServiceClient{cc}
}

func (c *signalServiceClient) UpsertDefinition(ctx context.Context, in *UpsertDefinitionRequest, opts ...grpc.CallOption) (*UpsertDefinitionResponse, error) {
	out := new(UpsertDefinitionResponse)
	err := c.cc.Invoke(ctx, "/signal.SignalService/UpsertDefinition", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *signalServiceClient) ListDefinitions(ctx context.Context, in *ListDefinitionsRequest, opts ...grpc.CallOption) (*ListDefinitionsResponse, error) {
	out := new(ListDefinitionsResponse)
	err := c.cc.Invoke(ctx, "/signal.SignalService/ListDefinitions", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *signalServiceClient) ListInstancesForDefinition(ctx context.Context, in *ListInstancesForDefinitionRequest, opts ...grpc.CallOption) (*ListInstancesForDefinitionResponse, error) {
	out := new(ListInstancesForDefinitionResponse)
	err := c.cc.Invoke(ctx, "/signal.SignalService/ListInstancesForDefinition", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *signalServiceClient) UpsertInstance(ctx context.Context, in *UpsertInstanceRequest, opts ...grpc.CallOption) (*UpsertInstanceResponse, error) {
	out := new(UpsertInstanceResponse)
	err := c.cc.Invoke(ctx, "/signal.SignalService/UpsertInstance", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *signalServiceClient) UpdateInstanceStatus(ctx context.Context, in *UpdateInstanceStatusRequest, opts ...grpc.CallOption) (*UpdateInstanceStatusResponse, error) {
	out := new(UpdateInstanceStatusResponse)
	err := c.cc.Invoke(ctx, "/signal.SignalService/UpdateInstanceStatus", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Server API
type SignalServiceServer interface {
	UpsertDefinition(context.Context, *UpsertDefinitionRequest) (*UpsertDefinitionResponse, error)
	ListDefinitions(context.Context, *ListDefinitionsRequest) (*ListDefinitionsResponse, error)
	ListInstancesForDefinition(context.Context, *ListInstancesForDefinitionRequest) (*ListInstancesForDefinitionResponse, error)
	UpsertInstance(context.Context, *UpsertInstanceRequest) (*UpsertInstanceResponse, error)
	UpdateInstanceStatus(context.Context, *UpdateInstanceStatusRequest) (*UpdateInstanceStatusResponse, error)
}

// UnimplementedSignalServiceServer can be embedded for forward compatibility.
type UnimplementedSignalServiceServer struct{}

func (*UnimplementedSignalServiceServer) UpsertDefinition(context.Context, *UpsertDefinitionRequest) (*UpsertDefinitionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpsertDefinition not implemented")
}
func (*UnimplementedSignalServiceServer) ListDefinitions(context.Context, *ListDefinitionsRequest) (*ListDefinitionsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListDefinitions not implemented")
}
func (*UnimplementedSignalServiceServer) ListInstancesForDefinition(context.Context, *ListInstancesForDefinitionRequest) (*ListInstancesForDefinitionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListInstancesForDefinition not implemented")
}
func (*UnimplementedSignalServiceServer) UpsertInstance(context.Context, *UpsertInstanceRequest) (*UpsertInstanceResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpsertInstance not implemented")
}
func (*UnimplementedSignalServiceServer) UpdateInstanceStatus(context.Context, *UpdateInstanceStatusRequest) (*UpdateInstanceStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpdateInstanceStatus not implemented")
}

func RegisterSignalServiceServer(s *grpc.Server, srv SignalServiceServer) {
	s.RegisterService(&_SignalService_serviceDesc, srv)
}

func _SignalService_UpsertDefinition_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpsertDefinitionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SignalServiceServer).UpsertDefinition(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/signal.SignalService/UpsertDefinition",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SignalServiceServer).UpsertDefinition(ctx, req.(*UpsertDefinitionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SignalService_ListDefinitions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListDefinitionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SignalServiceServer).ListDefinitions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/signal.SignalService/ListDefinitions",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SignalServiceServer).ListDefinitions(ctx, req.(*ListDefinitionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SignalService_ListInstancesForDefinition_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListInstancesForDefinitionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SignalServiceServer).ListInstancesForDefinition(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/signal.SignalService/ListInstancesForDefinition",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SignalServiceServer).ListInstancesForDefinition(ctx, req.(*ListInstancesForDefinitionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SignalService_UpsertInstance_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpsertInstanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SignalServiceServer).UpsertInstance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/signal.SignalService/UpsertInstance",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SignalServiceServer).UpsertInstance(ctx, req.(*UpsertInstanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SignalService_UpdateInstanceStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateInstanceStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SignalServiceServer).UpdateInstanceStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/signal.SignalService/UpdateInstanceStatus",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SignalServiceServer).UpdateInstanceStatus(ctx, req.(*UpdateInstanceStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _SignalService_serviceDesc = grpc.ServiceDesc{
	ServiceName: "signal.SignalService",
	HandlerType: (*SignalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UpsertDefinition",
			Handler:    _SignalService_UpsertDefinition_Handler,
		},
		{
			MethodName: "ListDefinitions",
			Handler:    _SignalService_ListDefinitions_Handler,
		},
		{
			MethodName: "ListInstancesForDefinition",
			Handler:    _SignalService_ListInstancesForDefinition_Handler,
		},
		{
			MethodName: "UpsertInstance",
			Handler:    _SignalService_UpsertInstance_Handler,
		},
		{
			MethodName: "UpdateInstanceStatus",
			Handler:    _SignalService_UpdateInstanceStatus_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "signal.proto",
}
