package torchservepb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	TorchServe_LoadModel_FullMethodName      = "/torchserve.v1.TorchServe/LoadModel"
	TorchServe_UnloadModel_FullMethodName    = "/torchserve.v1.TorchServe/UnloadModel"
	TorchServe_GetModelStatus_FullMethodName = "/torchserve.v1.TorchServe/GetModelStatus"
	TorchServe_Predict_FullMethodName        = "/torchserve.v1.TorchServe/Predict"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "torchserve.v1.TorchServe"

// TorchServeClient is the client API for the TorchServe service.
type TorchServeClient interface {
	LoadModel(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error)
	UnloadModel(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error)
	GetModelStatus(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error)
	Predict(ctx context.Context, in *PredictRequest, opts ...grpc.CallOption) (*PredictResponse, error)
}

type torchServeClient struct {
	cc grpc.ClientConnInterface
}

func NewTorchServeClient(cc grpc.ClientConnInterface) TorchServeClient {
	return &torchServeClient{cc}
}

func (c *torchServeClient) LoadModel(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error) {
	out := new(ModelStatus)
	if err := c.cc.Invoke(ctx, TorchServe_LoadModel_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *torchServeClient) UnloadModel(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error) {
	out := new(ModelStatus)
	if err := c.cc.Invoke(ctx, TorchServe_UnloadModel_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *torchServeClient) GetModelStatus(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error) {
	out := new(ModelStatus)
	if err := c.cc.Invoke(ctx, TorchServe_GetModelStatus_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *torchServeClient) Predict(ctx context.Context, in *PredictRequest, opts ...grpc.CallOption) (*PredictResponse, error) {
	out := new(PredictResponse)
	if err := c.cc.Invoke(ctx, TorchServe_Predict_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// TorchServeServer is the server API for the TorchServe service. Embed
// UnimplementedTorchServeServer for forward compatibility.
type TorchServeServer interface {
	LoadModel(context.Context, *ModelRequest) (*ModelStatus, error)
	UnloadModel(context.Context, *ModelRequest) (*ModelStatus, error)
	GetModelStatus(context.Context, *ModelRequest) (*ModelStatus, error)
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	mustEmbedUnimplementedTorchServeServer()
}

// UnimplementedTorchServeServer must be embedded to have forward compatible implementations.
type UnimplementedTorchServeServer struct{}

func (UnimplementedTorchServeServer) LoadModel(context.Context, *ModelRequest) (*ModelStatus, error) {
	return nil, status.Error(codes.Unimplemented, "method LoadModel not implemented")
}

func (UnimplementedTorchServeServer) UnloadModel(context.Context, *ModelRequest) (*ModelStatus, error) {
	return nil, status.Error(codes.Unimplemented, "method UnloadModel not implemented")
}

func (UnimplementedTorchServeServer) GetModelStatus(context.Context, *ModelRequest) (*ModelStatus, error) {
	return nil, status.Error(codes.Unimplemented, "method GetModelStatus not implemented")
}

func (UnimplementedTorchServeServer) Predict(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Predict not implemented")
}

func (UnimplementedTorchServeServer) mustEmbedUnimplementedTorchServeServer() {}

// RegisterTorchServeServer registers srv on s.
func RegisterTorchServeServer(s grpc.ServiceRegistrar, srv TorchServeServer) {
	s.RegisterService(&TorchServe_ServiceDesc, srv)
}

func _TorchServe_LoadModel_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ModelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TorchServeServer).LoadModel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TorchServe_LoadModel_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TorchServeServer).LoadModel(ctx, req.(*ModelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TorchServe_UnloadModel_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ModelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TorchServeServer).UnloadModel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TorchServe_UnloadModel_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TorchServeServer).UnloadModel(ctx, req.(*ModelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TorchServe_GetModelStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ModelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TorchServeServer).GetModelStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TorchServe_GetModelStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TorchServeServer).GetModelStatus(ctx, req.(*ModelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TorchServe_Predict_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PredictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TorchServeServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TorchServe_Predict_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TorchServeServer).Predict(ctx, req.(*PredictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// TorchServe_ServiceDesc is the grpc.ServiceDesc for the TorchServe service.
var TorchServe_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TorchServeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LoadModel", Handler: _TorchServe_LoadModel_Handler},
		{MethodName: "UnloadModel", Handler: _TorchServe_UnloadModel_Handler},
		{MethodName: "GetModelStatus", Handler: _TorchServe_GetModelStatus_Handler},
		{MethodName: "Predict", Handler: _TorchServe_Predict_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "torchserve/v1/torchserve.proto",
}
