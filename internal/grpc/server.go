package grpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"chain-calculator/internal/auth"
	"chain-calculator/internal/chain"
	"chain-calculator/internal/db"
	"chain-calculator/internal/logger"
	"chain-calculator/internal/posts"
)

// AuthorizationKey is the metadata key carrying "Bearer <token>".
const AuthorizationKey = "authorization"

// ChainService exposes the same operations as the REST API.
type ChainService struct {
	users  db.UserStore
	engine *chain.Engine
}

// NewChainService wires the service to store.
func NewChainService(store db.Store) *ChainService {
	return &ChainService{users: store, engine: chain.NewEngine(store)}
}

func (s *ChainService) Signup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var creds auth.Credentials
	if err := decodeStruct(req, &creds); err != nil {
		return nil, err
	}
	if err := creds.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, "username and password are required")
	}

	user, err := s.users.CreateUser(ctx, creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, db.ErrUserAlreadyExists) {
			return nil, status.Error(codes.AlreadyExists, "username already exists")
		}
		logger.LogERROR("gRPC: failed to create user: " + err.Error())
		return nil, status.Error(codes.Internal, "error creating user")
	}

	return encodeStruct(auth.SignupResponse{Message: "User created successfully", UserID: user.ID})
}

func (s *ChainService) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var creds auth.Credentials
	if err := decodeStruct(req, &creds); err != nil {
		return nil, err
	}
	if err := creds.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid credentials")
	}

	user, err := db.AuthenticateUser(ctx, s.users, creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) || errors.Is(err, db.ErrInvalidCredentials) {
			return nil, status.Error(codes.InvalidArgument, "invalid credentials")
		}
		logger.LogERROR("gRPC: failed to authenticate: " + err.Error())
		return nil, status.Error(codes.Internal, "error logging in")
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		return nil, status.Error(codes.Internal, "error logging in")
	}

	return encodeStruct(auth.LoginResponse{Token: token, Username: user.Username, UserID: user.ID})
}

func (s *ChainService) ListNodes(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	nodes, err := s.engine.ListNodes(ctx)
	if err != nil {
		logger.LogERROR("gRPC: " + err.Error())
		return nil, status.Error(codes.Internal, "failed to fetch posts")
	}
	return encodeStruct(posts.ListResponse{Data: nodes})
}

func (s *ChainService) CreateRoot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}

	var in posts.CreateRootRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, posts.DescribeValidation(err))
	}

	node, err := s.engine.CreateRoot(ctx, userID, in.Value.String())
	if err != nil {
		return nil, engineStatus(err)
	}
	return encodeStruct(node)
}

func (s *ChainService) Reply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}

	var in posts.ReplyRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, posts.DescribeValidation(err))
	}

	node, err := s.engine.ApplyOperation(ctx, userID, in.ParentID, in.Operation, in.Value.String())
	if err != nil {
		return nil, engineStatus(err)
	}
	return encodeStruct(node)
}

// callerID resolves the bearer token in the incoming metadata to a stored
// user. A token for a user that no longer exists is Unauthenticated.
func (s *ChainService) callerID(ctx context.Context) (int64, error) {
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(AuthorizationKey); len(values) > 0 {
			header = values[0]
		}
	}

	token, err := auth.ParseBearer(header)
	if err != nil {
		return 0, status.Error(codes.Unauthenticated, err.Error())
	}
	user, err := auth.GetUserFromToken(ctx, s.users, token)
	if err != nil {
		if auth.IsAuthError(err) {
			return 0, status.Error(codes.Unauthenticated, err.Error())
		}
		logger.LogERROR("gRPC: failed to resolve token user: " + err.Error())
		return 0, status.Error(codes.Internal, "internal server error")
	}
	return user.ID, nil
}

func engineStatus(err error) error {
	switch {
	case errors.Is(err, chain.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.Is(err, chain.ErrParentNotFound):
		return status.Error(codes.NotFound, "parent post not found")
	case errors.Is(err, chain.ErrDivisionByZero):
		return status.Error(codes.InvalidArgument, "division by zero")
	case errors.Is(err, chain.ErrInvalidOperation):
		return status.Error(codes.InvalidArgument, "invalid operation")
	case errors.Is(err, chain.ErrInvalidValue):
		return status.Error(codes.InvalidArgument, "invalid value")
	default:
		logger.LogERROR("gRPC: " + err.Error())
		return status.Error(codes.Internal, "internal server error")
	}
}

// decodeStruct converts a Struct payload into v through its JSON form, so the
// REST request types and their validation apply unchanged.
func decodeStruct(in *structpb.Struct, v any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, "invalid request")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return status.Error(codes.InvalidArgument, "invalid request body")
	}
	return nil
}

func encodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// loggingInterceptor logs every unary call with its status code.
func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	event := logger.Log.Info()
	if status.Code(err) == codes.Internal {
		event = logger.Log.Error()
	}
	event.
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Msg("gRPC call handled")

	return resp, err
}

// NewServer builds a grpc.Server with ChainService registered on it.
func NewServer(store db.Store) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor))
	RegisterChainServiceServer(s, NewChainService(store))
	return s
}

// StartGRPCServer listens on address and serves in the background.
func StartGRPCServer(address string, store db.Store) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}

	s := NewServer(store)
	logger.LogINFO("gRPC server listening on " + lis.Addr().String())

	go func() {
		if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.LogERROR("gRPC server stopped: " + err.Error())
		}
	}()

	return s, nil
}
