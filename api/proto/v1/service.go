package basicv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	BasicService_Hello_FullMethodName      = "/basic.v1.BasicService/Hello"
	BasicService_Talk_FullMethodName       = "/basic.v1.BasicService/Talk"
	BasicService_Background_FullMethodName = "/basic.v1.BasicService/Background"
)

// BasicServiceClient is the client API for BasicService.
type BasicServiceClient interface {
	Hello(ctx context.Context, in *HelloRequest, opts ...grpc.CallOption) (*HelloResponse, error)
	Talk(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[TalkRequest, TalkResponse], error)
	Background(ctx context.Context, in *BackgroundRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[BackgroundResponse], error)
}

type basicServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewBasicServiceClient returns a client that sends every call with the
// json content-subtype.
func NewBasicServiceClient(cc grpc.ClientConnInterface) BasicServiceClient {
	return &basicServiceClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.StaticMethod(), grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *basicServiceClient) Hello(ctx context.Context, in *HelloRequest, opts ...grpc.CallOption) (*HelloResponse, error) {
	out := new(HelloResponse)
	err := c.cc.Invoke(ctx, BasicService_Hello_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *basicServiceClient) Talk(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[TalkRequest, TalkResponse], error) {
	stream, err := c.cc.NewStream(ctx, &BasicService_ServiceDesc.Streams[0], BasicService_Talk_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[TalkRequest, TalkResponse]{ClientStream: stream}, nil
}

func (c *basicServiceClient) Background(ctx context.Context, in *BackgroundRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[BackgroundResponse], error) {
	stream, err := c.cc.NewStream(ctx, &BasicService_ServiceDesc.Streams[1], BasicService_Background_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[BackgroundRequest, BackgroundResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// BasicServiceServer is the server API for BasicService.
// Implementations must embed UnimplementedBasicServiceServer.
type BasicServiceServer interface {
	Hello(context.Context, *HelloRequest) (*HelloResponse, error)
	Talk(grpc.BidiStreamingServer[TalkRequest, TalkResponse]) error
	Background(*BackgroundRequest, grpc.ServerStreamingServer[BackgroundResponse]) error
	mustEmbedUnimplementedBasicServiceServer()
}

// UnimplementedBasicServiceServer answers every method with Unimplemented.
type UnimplementedBasicServiceServer struct{}

func (UnimplementedBasicServiceServer) Hello(context.Context, *HelloRequest) (*HelloResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Hello not implemented")
}
func (UnimplementedBasicServiceServer) Talk(grpc.BidiStreamingServer[TalkRequest, TalkResponse]) error {
	return status.Errorf(codes.Unimplemented, "method Talk not implemented")
}
func (UnimplementedBasicServiceServer) Background(*BackgroundRequest, grpc.ServerStreamingServer[BackgroundResponse]) error {
	return status.Errorf(codes.Unimplemented, "method Background not implemented")
}
func (UnimplementedBasicServiceServer) mustEmbedUnimplementedBasicServiceServer() {}

// RegisterBasicServiceServer registers srv with s.
func RegisterBasicServiceServer(s grpc.ServiceRegistrar, srv BasicServiceServer) {
	s.RegisterService(&BasicService_ServiceDesc, srv)
}

func _BasicService_Hello_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HelloRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BasicServiceServer).Hello(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: BasicService_Hello_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BasicServiceServer).Hello(ctx, req.(*HelloRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BasicService_Talk_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(BasicServiceServer).Talk(&grpc.GenericServerStream[TalkRequest, TalkResponse]{ServerStream: stream})
}

func _BasicService_Background_Handler(srv any, stream grpc.ServerStream) error {
	m := new(BackgroundRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(BasicServiceServer).Background(m, &grpc.GenericServerStream[BackgroundRequest, BackgroundResponse]{ServerStream: stream})
}

// BasicService_ServiceDesc is the grpc.ServiceDesc for BasicService.
var BasicService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "basic.v1.BasicService",
	HandlerType: (*BasicServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Hello",
			Handler:    _BasicService_Hello_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Talk",
			Handler:       _BasicService_Talk_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
		{
			StreamName:    "Background",
			Handler:       _BasicService_Background_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "basic.proto",
}
