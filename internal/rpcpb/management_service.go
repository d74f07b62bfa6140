package rpcpb

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const (
	ManagementServiceName = "rpcpb.ManagementService"

	ManagementService_SetSchemaQuota_Method           = "/rpcpb.ManagementService/SetSchemaQuota"
	ManagementService_SetRoleQuota_Method              = "/rpcpb.ManagementService/SetRoleQuota"
	ManagementService_SetSchemaTablespaceQuota_Method = "/rpcpb.ManagementService/SetSchemaTablespaceQuota"
	ManagementService_SetRoleTablespaceQuota_Method   = "/rpcpb.ManagementService/SetRoleTablespaceQuota"
	ManagementService_SetPerSegmentQuota_Method       = "/rpcpb.ManagementService/SetPerSegmentQuota"
	ManagementService_Pause_Method                    = "/rpcpb.ManagementService/Pause"
	ManagementService_Resume_Method                   = "/rpcpb.ManagementService/Resume"
	ManagementService_InitTableSizeTable_Method       = "/rpcpb.ManagementService/InitTableSizeTable"
	ManagementService_WaitForWorkerNewEpoch_Method     = "/rpcpb.ManagementService/WaitForWorkerNewEpoch"
)

// ManagementServiceClient is the client API for ManagementService, the
// wire counterpart of §6's management functions.
type ManagementServiceClient interface {
	SetSchemaQuota(ctx context.Context, in *SetSchemaQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error)
	SetRoleQuota(ctx context.Context, in *SetRoleQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error)
	SetSchemaTablespaceQuota(ctx context.Context, in *SetSchemaTablespaceQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error)
	SetRoleTablespaceQuota(ctx context.Context, in *SetRoleTablespaceQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error)
	SetPerSegmentQuota(ctx context.Context, in *SetPerSegmentQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error)
	Pause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*PauseResponse, error)
	Resume(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*PauseResponse, error)
	InitTableSizeTable(ctx context.Context, in *InitTableSizeTableRequest, opts ...grpc.CallOption) (*InitTableSizeTableResponse, error)
	WaitForWorkerNewEpoch(ctx context.Context, in *WaitForWorkerNewEpochRequest, opts ...grpc.CallOption) (*WaitForWorkerNewEpochResponse, error)
}

type managementServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewManagementServiceClient wraps cc as a ManagementServiceClient.
func NewManagementServiceClient(cc grpc.ClientConnInterface) ManagementServiceClient {
	return &managementServiceClient{cc}
}

func (c *managementServiceClient) SetSchemaQuota(ctx context.Context, in *SetSchemaQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error) {
	out := new(SetQuotaResponse)
	if err := c.cc.Invoke(ctx, ManagementService_SetSchemaQuota_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) SetRoleQuota(ctx context.Context, in *SetRoleQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error) {
	out := new(SetQuotaResponse)
	if err := c.cc.Invoke(ctx, ManagementService_SetRoleQuota_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) SetSchemaTablespaceQuota(ctx context.Context, in *SetSchemaTablespaceQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error) {
	out := new(SetQuotaResponse)
	if err := c.cc.Invoke(ctx, ManagementService_SetSchemaTablespaceQuota_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) SetRoleTablespaceQuota(ctx context.Context, in *SetRoleTablespaceQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error) {
	out := new(SetQuotaResponse)
	if err := c.cc.Invoke(ctx, ManagementService_SetRoleTablespaceQuota_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) SetPerSegmentQuota(ctx context.Context, in *SetPerSegmentQuotaRequest, opts ...grpc.CallOption) (*SetQuotaResponse, error) {
	out := new(SetQuotaResponse)
	if err := c.cc.Invoke(ctx, ManagementService_SetPerSegmentQuota_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) Pause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*PauseResponse, error) {
	out := new(PauseResponse)
	if err := c.cc.Invoke(ctx, ManagementService_Pause_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) Resume(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*PauseResponse, error) {
	out := new(PauseResponse)
	if err := c.cc.Invoke(ctx, ManagementService_Resume_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) InitTableSizeTable(ctx context.Context, in *InitTableSizeTableRequest, opts ...grpc.CallOption) (*InitTableSizeTableResponse, error) {
	out := new(InitTableSizeTableResponse)
	if err := c.cc.Invoke(ctx, ManagementService_InitTableSizeTable_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) WaitForWorkerNewEpoch(ctx context.Context, in *WaitForWorkerNewEpochRequest, opts ...grpc.CallOption) (*WaitForWorkerNewEpochResponse, error) {
	out := new(WaitForWorkerNewEpochResponse)
	if err := c.cc.Invoke(ctx, ManagementService_WaitForWorkerNewEpoch_Method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ManagementServiceServer is the server API for ManagementService.
type ManagementServiceServer interface {
	SetSchemaQuota(ctx context.Context, req *SetSchemaQuotaRequest) (*SetQuotaResponse, error)
	SetRoleQuota(ctx context.Context, req *SetRoleQuotaRequest) (*SetQuotaResponse, error)
	SetSchemaTablespaceQuota(ctx context.Context, req *SetSchemaTablespaceQuotaRequest) (*SetQuotaResponse, error)
	SetRoleTablespaceQuota(ctx context.Context, req *SetRoleTablespaceQuotaRequest) (*SetQuotaResponse, error)
	SetPerSegmentQuota(ctx context.Context, req *SetPerSegmentQuotaRequest) (*SetQuotaResponse, error)
	Pause(ctx context.Context, req *PauseRequest) (*PauseResponse, error)
	Resume(ctx context.Context, req *PauseRequest) (*PauseResponse, error)
	InitTableSizeTable(ctx context.Context, req *InitTableSizeTableRequest) (*InitTableSizeTableResponse, error)
	WaitForWorkerNewEpoch(ctx context.Context, req *WaitForWorkerNewEpochRequest) (*WaitForWorkerNewEpochResponse, error)
}

// UnimplementedManagementServiceServer can be embedded in a server
// implementation to satisfy ManagementServiceServer for methods not yet
// overridden.
type UnimplementedManagementServiceServer struct{}

func (UnimplementedManagementServiceServer) SetSchemaQuota(context.Context, *SetSchemaQuotaRequest) (*SetQuotaResponse, error) {
	return nil, fmt.Errorf("rpcpb: method SetSchemaQuota not implemented")
}
func (UnimplementedManagementServiceServer) SetRoleQuota(context.Context, *SetRoleQuotaRequest) (*SetQuotaResponse, error) {
	return nil, fmt.Errorf("rpcpb: method SetRoleQuota not implemented")
}
func (UnimplementedManagementServiceServer) SetSchemaTablespaceQuota(context.Context, *SetSchemaTablespaceQuotaRequest) (*SetQuotaResponse, error) {
	return nil, fmt.Errorf("rpcpb: method SetSchemaTablespaceQuota not implemented")
}
func (UnimplementedManagementServiceServer) SetRoleTablespaceQuota(context.Context, *SetRoleTablespaceQuotaRequest) (*SetQuotaResponse, error) {
	return nil, fmt.Errorf("rpcpb: method SetRoleTablespaceQuota not implemented")
}
func (UnimplementedManagementServiceServer) SetPerSegmentQuota(context.Context, *SetPerSegmentQuotaRequest) (*SetQuotaResponse, error) {
	return nil, fmt.Errorf("rpcpb: method SetPerSegmentQuota not implemented")
}
func (UnimplementedManagementServiceServer) Pause(context.Context, *PauseRequest) (*PauseResponse, error) {
	return nil, fmt.Errorf("rpcpb: method Pause not implemented")
}
func (UnimplementedManagementServiceServer) Resume(context.Context, *PauseRequest) (*PauseResponse, error) {
	return nil, fmt.Errorf("rpcpb: method Resume not implemented")
}
func (UnimplementedManagementServiceServer) InitTableSizeTable(context.Context, *InitTableSizeTableRequest) (*InitTableSizeTableResponse, error) {
	return nil, fmt.Errorf("rpcpb: method InitTableSizeTable not implemented")
}
func (UnimplementedManagementServiceServer) WaitForWorkerNewEpoch(context.Context, *WaitForWorkerNewEpochRequest) (*WaitForWorkerNewEpochResponse, error) {
	return nil, fmt.Errorf("rpcpb: method WaitForWorkerNewEpoch not implemented")
}

// RegisterManagementServiceServer registers srv with s.
func RegisterManagementServiceServer(s grpc.ServiceRegistrar, srv ManagementServiceServer) {
	s.RegisterService(&managementServiceServiceDesc, srv)
}

func managementServiceHandler(method string, call func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error), newReq func() interface{}) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, srv.(ManagementServiceServer), in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, srv.(ManagementServiceServer), req)
		}
		return interceptor(ctx, in, info, handler)
	}
}

var managementServiceServiceDesc = grpc.ServiceDesc{
	ServiceName: ManagementServiceName,
	HandlerType: (*ManagementServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SetSchemaQuota",
			Handler: managementServiceHandler(ManagementService_SetSchemaQuota_Method,
				func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error) {
					return srv.SetSchemaQuota(ctx, req.(*SetSchemaQuotaRequest))
				}, func() interface{} { return new(SetSchemaQuotaRequest) }),
		},
		{
			MethodName: "SetRoleQuota",
			Handler: managementServiceHandler(ManagementService_SetRoleQuota_Method,
				func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error) {
					return srv.SetRoleQuota(ctx, req.(*SetRoleQuotaRequest))
				}, func() interface{} { return new(SetRoleQuotaRequest) }),
		},
		{
			MethodName: "SetSchemaTablespaceQuota",
			Handler: managementServiceHandler(ManagementService_SetSchemaTablespaceQuota_Method,
				func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error) {
					return srv.SetSchemaTablespaceQuota(ctx, req.(*SetSchemaTablespaceQuotaRequest))
				}, func() interface{} { return new(SetSchemaTablespaceQuotaRequest) }),
		},
		{
			MethodName: "SetRoleTablespaceQuota",
			Handler: managementServiceHandler(ManagementService_SetRoleTablespaceQuota_Method,
				func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error) {
					return srv.SetRoleTablespaceQuota(ctx, req.(*SetRoleTablespaceQuotaRequest))
				}, func() interface{} { return new(SetRoleTablespaceQuotaRequest) }),
		},
		{
			MethodName: "SetPerSegmentQuota",
			Handler: managementServiceHandler(ManagementService_SetPerSegmentQuota_Method,
				func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error) {
					return srv.SetPerSegmentQuota(ctx, req.(*SetPerSegmentQuotaRequest))
				}, func() interface{} { return new(SetPerSegmentQuotaRequest) }),
		},
		{
			MethodName: "Pause",
			Handler: managementServiceHandler(ManagementService_Pause_Method,
				func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error) {
					return srv.Pause(ctx, req.(*PauseRequest))
				}, func() interface{} { return new(PauseRequest) }),
		},
		{
			MethodName: "Resume",
			Handler: managementServiceHandler(ManagementService_Resume_Method,
				func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error) {
					return srv.Resume(ctx, req.(*PauseRequest))
				}, func() interface{} { return new(PauseRequest) }),
		},
		{
			MethodName: "InitTableSizeTable",
			Handler: managementServiceHandler(ManagementService_InitTableSizeTable_Method,
				func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error) {
					return srv.InitTableSizeTable(ctx, req.(*InitTableSizeTableRequest))
				}, func() interface{} { return new(InitTableSizeTableRequest) }),
		},
		{
			MethodName: "WaitForWorkerNewEpoch",
			Handler: managementServiceHandler(ManagementService_WaitForWorkerNewEpoch_Method,
				func(ctx context.Context, srv ManagementServiceServer, req interface{}) (interface{}, error) {
					return srv.WaitForWorkerNewEpoch(ctx, req.(*WaitForWorkerNewEpochRequest))
				}, func() interface{} { return new(WaitForWorkerNewEpochRequest) }),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpc.proto",
}
