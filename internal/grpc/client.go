package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCChainClient is a thin client for ChainService. Callers pass the
// bearer token explicitly on each authenticated call.
type GRPCChainClient struct {
	conn *grpc.ClientConn
}

// NewGRPCChainClient dials address without transport security.
func NewGRPCChainClient(address string, opts ...grpc.DialOption) (*GRPCChainClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.Dial(address, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCChainClient{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *GRPCChainClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *GRPCChainClient) Signup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return c.invoke(ctx, SignupMethod, "", in)
}

func (c *GRPCChainClient) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return c.invoke(ctx, LoginMethod, "", in)
}

func (c *GRPCChainClient) ListNodes(ctx context.Context) (*structpb.Struct, error) {
	return c.invoke(ctx, ListNodesMethod, "", &emptypb.Empty{})
}

// CreateRoot and Reply send token in the authorization metadata.
func (c *GRPCChainClient) CreateRoot(ctx context.Context, token string, in *structpb.Struct) (*structpb.Struct, error) {
	return c.invoke(ctx, CreateRootMethod, token, in)
}

func (c *GRPCChainClient) Reply(ctx context.Context, token string, in *structpb.Struct) (*structpb.Struct, error) {
	return c.invoke(ctx, ReplyMethod, token, in)
}

func (c *GRPCChainClient) invoke(ctx context.Context, method, token string, in interface{}) (*structpb.Struct, error) {
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, AuthorizationKey, "Bearer "+token)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
