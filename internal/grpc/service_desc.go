package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chaincalc.ChainService"

const (
	SignupMethod     = "/" + ServiceName + "/Signup"
	LoginMethod      = "/" + ServiceName + "/Login"
	ListNodesMethod  = "/" + ServiceName + "/ListNodes"
	CreateRootMethod = "/" + ServiceName + "/CreateRoot"
	ReplyMethod      = "/" + ServiceName + "/Reply"
)

// ChainServiceServer is implemented by ChainService. Payloads are
// google.protobuf.Struct values carrying the same JSON shapes as the REST API.
type ChainServiceServer interface {
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListNodes(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	CreateRoot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reply(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterChainServiceServer attaches srv to s under ChainService_ServiceDesc.
func RegisterChainServiceServer(s grpc.ServiceRegistrar, srv ChainServiceServer) {
	s.RegisterService(&ChainServiceDesc, srv)
}

var ChainServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChainServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Signup", Handler: unaryHandler(SignupMethod, ChainServiceServer.Signup)},
		{MethodName: "Login", Handler: unaryHandler(LoginMethod, ChainServiceServer.Login)},
		{MethodName: "ListNodes", Handler: unaryHandler(ListNodesMethod, ChainServiceServer.ListNodes)},
		{MethodName: "CreateRoot", Handler: unaryHandler(CreateRootMethod, ChainServiceServer.CreateRoot)},
		{MethodName: "Reply", Handler: unaryHandler(ReplyMethod, ChainServiceServer.Reply)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chaincalc/chain.proto",
}

// unaryHandler is the body protoc-gen-go-grpc emits for every unary method.
func unaryHandler[Req any](
	fullMethod string,
	call func(ChainServiceServer, context.Context, *Req) (*structpb.Struct, error),
) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ChainServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ChainServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
