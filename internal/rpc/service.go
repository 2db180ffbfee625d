// Package rpc defines the board.v1.BoardService gRPC service. Requests and
// responses travel as google.protobuf.Struct values carrying the JSON shapes
// declared in messages.go, so the service needs no generated code.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "board.v1.BoardService"

// Full method names.
const (
	MethodGetView      = "/" + ServiceName + "/GetView"
	MethodGetBoard     = "/" + ServiceName + "/GetBoard"
	MethodGetSelectors = "/" + ServiceName + "/GetSelectors"
	MethodSetSelectors = "/" + ServiceName + "/SetSelectors"
	MethodGetSnapshot  = "/" + ServiceName + "/GetSnapshot"
	MethodRefresh      = "/" + ServiceName + "/Refresh"
	MethodHealth       = "/" + ServiceName + "/Health"
)

// BoardServiceServer is the server API for BoardService.
type BoardServiceServer interface {
	GetView(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBoard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSelectors(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetSelectors(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(BoardServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(BoardServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes BoardService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BoardServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("GetView", BoardServiceServer.GetView),
		methodDesc("GetBoard", BoardServiceServer.GetBoard),
		methodDesc("GetSelectors", BoardServiceServer.GetSelectors),
		methodDesc("SetSelectors", BoardServiceServer.SetSelectors),
		methodDesc("GetSnapshot", BoardServiceServer.GetSnapshot),
		methodDesc("Refresh", BoardServiceServer.Refresh),
		methodDesc("Health", BoardServiceServer.Health),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "board/v1/board.proto",
}

// RegisterBoardServiceServer registers srv on s.
func RegisterBoardServiceServer(s grpc.ServiceRegistrar, srv BoardServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// BoardServiceClient calls BoardService over a client connection.
type BoardServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBoardServiceClient(cc grpc.ClientConnInterface) *BoardServiceClient {
	return &BoardServiceClient{cc: cc}
}

func (c *BoardServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BoardServiceClient) GetView(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetView, in, opts...)
}

func (c *BoardServiceClient) GetBoard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetBoard, in, opts...)
}

func (c *BoardServiceClient) GetSelectors(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetSelectors, in, opts...)
}

func (c *BoardServiceClient) SetSelectors(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSetSelectors, in, opts...)
}

func (c *BoardServiceClient) GetSnapshot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetSnapshot, in, opts...)
}

func (c *BoardServiceClient) Refresh(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRefresh, in, opts...)
}

func (c *BoardServiceClient) Health(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodHealth, in, opts...)
}
