package client

import (
	"context"
	"encoding/json"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"chain-calculator/internal/auth"
	"chain-calculator/internal/db"
	chaingrpc "chain-calculator/internal/grpc"
)

// grpcClientAdapter adapts GRPCChainClient to ChainClient. The connection is
// opened on first use.
type grpcClientAdapter struct {
	address string
	client  *chaingrpc.GRPCChainClient
}

// NewGRPCClient talks to the gRPC service at address.
func NewGRPCClient(address string) ChainClient {
	return &grpcClientAdapter{address: address}
}

func (g *grpcClientAdapter) ensureClient() error {
	if g.client == nil {
		c, err := chaingrpc.NewGRPCChainClient(g.address)
		if err != nil {
			return err
		}
		g.client = c
	}
	return nil
}

func (g *grpcClientAdapter) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *grpcClientAdapter) Signup(ctx context.Context, username, password string) (int64, error) {
	var resp auth.SignupResponse
	err := g.call(&resp, auth.Credentials{Username: username, Password: password}, func(in *structpb.Struct) (*structpb.Struct, error) {
		return g.client.Signup(ctx, in)
	})
	return resp.UserID, err
}

func (g *grpcClientAdapter) Login(ctx context.Context, username, password string) (*Session, error) {
	var resp auth.LoginResponse
	err := g.call(&resp, auth.Credentials{Username: username, Password: password}, func(in *structpb.Struct) (*structpb.Struct, error) {
		return g.client.Login(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, Username: resp.Username, UserID: resp.UserID}, nil
}

func (g *grpcClientAdapter) ListNodes(ctx context.Context) ([]*db.Node, error) {
	var resp struct {
		Data []*db.Node `json:"data"`
	}
	err := g.call(&resp, nil, func(*structpb.Struct) (*structpb.Struct, error) {
		return g.client.ListNodes(ctx)
	})
	return resp.Data, err
}

func (g *grpcClientAdapter) CreateRoot(ctx context.Context, token, value string) (*db.Node, error) {
	var node db.Node
	err := g.call(&node, map[string]any{"value": value}, func(in *structpb.Struct) (*structpb.Struct, error) {
		return g.client.CreateRoot(ctx, token, in)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (g *grpcClientAdapter) Reply(ctx context.Context, token string, parentID int64, operation, value string) (*db.Node, error) {
	var node db.Node
	body := map[string]any{"parentId": parentID, "operation": operation, "value": value}
	err := g.call(&node, body, func(in *structpb.Struct) (*structpb.Struct, error) {
		return g.client.Reply(ctx, token, in)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// call converts in to a Struct, invokes fn and decodes its result into out.
func (g *grpcClientAdapter) call(out, in any, fn func(*structpb.Struct) (*structpb.Struct, error)) error {
	if err := g.ensureClient(); err != nil {
		return err
	}

	var req *structpb.Struct
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		req = &structpb.Struct{}
		if err := protojson.Unmarshal(data, req); err != nil {
			return err
		}
	}

	resp, err := fn(req)
	if err != nil {
		return statusToAPIError(err)
	}

	data, err := protojson.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func statusToAPIError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	code := http.StatusInternalServerError
	switch st.Code() {
	case codes.Unauthenticated:
		code = http.StatusUnauthorized
	case codes.NotFound:
		code = http.StatusNotFound
	case codes.InvalidArgument, codes.AlreadyExists:
		code = http.StatusBadRequest
	case codes.Unavailable:
		return err
	}
	return &APIError{Status: code, Message: st.Message()}
}
