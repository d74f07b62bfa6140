package rpcpb

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const (
	SegmentServiceName                   = "rpcpb.SegmentService"
	SegmentService_FetchTableStat_Method = "/rpcpb.SegmentService/FetchTableStat"
	SegmentService_RelationSizeLocal_Method = "/rpcpb.SegmentService/RelationSizeLocal"
)

// SegmentServiceClient is the client API for SegmentService, the wire
// counterpart of §4.3.
type SegmentServiceClient interface {
	FetchTableStat(ctx context.Context, in *FetchTableStatRequest, opts ...grpc.CallOption) (*FetchTableStatResponse, error)
	RelationSizeLocal(ctx context.Context, in *RelationSizeLocalRequest, opts ...grpc.CallOption) (*RelationSizeLocalResponse, error)
}

type segmentServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSegmentServiceClient wraps cc as a SegmentServiceClient.
func NewSegmentServiceClient(cc grpc.ClientConnInterface) SegmentServiceClient {
	return &segmentServiceClient{cc}
}

func (c *segmentServiceClient) FetchTableStat(ctx context.Context, in *FetchTableStatRequest, opts ...grpc.CallOption) (*FetchTableStatResponse, error) {
	out := new(FetchTableStatResponse)
	if err := c.cc.Invoke(ctx, SegmentService_FetchTableStat_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *segmentServiceClient) RelationSizeLocal(ctx context.Context, in *RelationSizeLocalRequest, opts ...grpc.CallOption) (*RelationSizeLocalResponse, error) {
	out := new(RelationSizeLocalResponse)
	if err := c.cc.Invoke(ctx, SegmentService_RelationSizeLocal_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SegmentServiceServer is the server API for SegmentService.
type SegmentServiceServer interface {
	FetchTableStat(ctx context.Context, req *FetchTableStatRequest) (*FetchTableStatResponse, error)
	RelationSizeLocal(ctx context.Context, req *RelationSizeLocalRequest) (*RelationSizeLocalResponse, error)
}

// UnimplementedSegmentServiceServer can be embedded in a server
// implementation to satisfy SegmentServiceServer for methods not yet
// overridden, matching the forward-compatibility convention of
// protoc-gen-go-grpc output.
type UnimplementedSegmentServiceServer struct{}

func (UnimplementedSegmentServiceServer) FetchTableStat(context.Context, *FetchTableStatRequest) (*FetchTableStatResponse, error) {
	return nil, fmt.Errorf("rpcpb: method FetchTableStat not implemented")
}

func (UnimplementedSegmentServiceServer) RelationSizeLocal(context.Context, *RelationSizeLocalRequest) (*RelationSizeLocalResponse, error) {
	return nil, fmt.Errorf("rpcpb: method RelationSizeLocal not implemented")
}

// RegisterSegmentServiceServer registers srv with s.
func RegisterSegmentServiceServer(s grpc.ServiceRegistrar, srv SegmentServiceServer) {
	s.RegisterService(&segmentServiceServiceDesc, srv)
}

func segmentServiceFetchTableStatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FetchTableStatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SegmentServiceServer).FetchTableStat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SegmentService_FetchTableStat_Method}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SegmentServiceServer).FetchTableStat(ctx, req.(*FetchTableStatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func segmentServiceRelationSizeLocalHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RelationSizeLocalRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SegmentServiceServer).RelationSizeLocal(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SegmentService_RelationSizeLocal_Method}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SegmentServiceServer).RelationSizeLocal(ctx, req.(*RelationSizeLocalRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var segmentServiceServiceDesc = grpc.ServiceDesc{
	ServiceName: SegmentServiceName,
	HandlerType: (*SegmentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchTableStat", Handler: segmentServiceFetchTableStatHandler},
		{MethodName: "RelationSizeLocal", Handler: segmentServiceRelationSizeLocalHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpc.proto",
}
