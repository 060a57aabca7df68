package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"chain-calculator/internal/auth"
	"chain-calculator/internal/config"
	"chain-calculator/internal/db"
)

// startBufconn serves ChainService in memory and returns a connected client.
func startBufconn(t *testing.T) (*GRPCChainClient, *db.SQLStore) {
	t.Helper()
	config.AppConfig = &config.Config{JWTSecret: "test-secret-key", JWTExpirationMinutes: 60}
	store := db.InitTest(t)

	lis := bufconn.Listen(1024 * 1024)
	srv := NewServer(store)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	client, err := NewGRPCChainClient("bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, store
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func loginToken(t *testing.T, client *GRPCChainClient, username string) string {
	t.Helper()
	ctx := context.Background()
	creds := mustStruct(t, map[string]interface{}{"username": username, "password": "pw"})

	_, err := client.Signup(ctx, creds)
	require.NoError(t, err)
	resp, err := client.Login(ctx, creds)
	require.NoError(t, err)
	return resp.Fields["token"].GetStringValue()
}

func TestSignupAndLogin(t *testing.T) {
	client, _ := startBufconn(t)
	ctx := context.Background()
	creds := mustStruct(t, map[string]interface{}{"username": "ann", "password": "pw"})

	resp, err := client.Signup(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, "User created successfully", resp.Fields["message"].GetStringValue())
	assert.Positive(t, resp.Fields["userId"].GetNumberValue())

	_, err = client.Signup(ctx, creds)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	login, err := client.Login(ctx, creds)
	require.NoError(t, err)
	assert.NotEmpty(t, login.Fields["token"].GetStringValue())
	assert.Equal(t, "ann", login.Fields["username"].GetStringValue())

	_, err = client.Login(ctx, mustStruct(t, map[string]interface{}{"username": "ann", "password": "bad"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Signup(ctx, mustStruct(t, map[string]interface{}{"username": "bob"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCreateRootAndReply(t *testing.T) {
	client, store := startBufconn(t)
	ctx := context.Background()
	token := loginToken(t, client, "ann")

	root, err := client.CreateRoot(ctx, token, mustStruct(t, map[string]interface{}{"value": 100}))
	require.NoError(t, err)
	assert.Equal(t, 100.0, root.Fields["result"].GetNumberValue())
	rootID := root.Fields["id"].GetNumberValue()

	reply, err := client.Reply(ctx, token, mustStruct(t, map[string]interface{}{
		"parentId": rootID, "operation": "/", "value": "2",
	}))
	require.NoError(t, err)
	assert.Equal(t, 50.0, reply.Fields["result"].GetNumberValue())
	assert.Equal(t, "ann", reply.Fields["author"].GetStructValue().Fields["username"].GetStringValue())

	tests := []struct {
		name  string
		token string
		body  map[string]interface{}
		code  codes.Code
	}{
		{"division by zero", token, map[string]interface{}{"parentId": rootID, "operation": "/", "value": 0}, codes.InvalidArgument},
		{"unknown parent", token, map[string]interface{}{"parentId": 999, "operation": "+", "value": 1}, codes.NotFound},
		{"bad operation", token, map[string]interface{}{"parentId": rootID, "operation": "^", "value": 1}, codes.InvalidArgument},
		{"no token", "", map[string]interface{}{"parentId": rootID, "operation": "+", "value": 1}, codes.Unauthenticated},
		{"bad token", "nope", map[string]interface{}{"parentId": rootID, "operation": "+", "value": 1}, codes.Unauthenticated},
		{"unknown field", token, map[string]interface{}{"parentId": rootID, "operation": "+", "value": 1, "x": 1}, codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Reply(ctx, tt.token, mustStruct(t, tt.body))
			assert.Equal(t, tt.code, status.Code(err))
		})
	}

	nodes, err := store.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestListNodes(t *testing.T) {
	client, _ := startBufconn(t)
	ctx := context.Background()

	resp, err := client.ListNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, resp.Fields["data"].GetListValue().GetValues())

	token := loginToken(t, client, "ann")
	_, err = client.CreateRoot(ctx, token, mustStruct(t, map[string]interface{}{"value": 1}))
	require.NoError(t, err)
	_, err = client.CreateRoot(ctx, token, mustStruct(t, map[string]interface{}{"value": 2}))
	require.NoError(t, err)

	resp, err = client.ListNodes(ctx)
	require.NoError(t, err)
	values := resp.Fields["data"].GetListValue().GetValues()
	require.Len(t, values, 2)
	assert.Equal(t, 2.0, values[0].GetStructValue().Fields["value"].GetNumberValue())
}

func TestTokenForMissingUserIsUnauthenticated(t *testing.T) {
	client, store := startBufconn(t)
	ctx := context.Background()

	ghost, err := auth.GenerateToken(&db.User{ID: 4242, Username: "ghost"})
	require.NoError(t, err)

	_, err = client.CreateRoot(ctx, ghost, mustStruct(t, map[string]interface{}{"value": 1}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.Reply(ctx, ghost, mustStruct(t, map[string]interface{}{"parentId": 1, "operation": "+", "value": 1}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	nodes, err := store.ListNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestCreateRootRequiresToken(t *testing.T) {
	client, _ := startBufconn(t)

	_, err := client.CreateRoot(context.Background(), "", mustStruct(t, map[string]interface{}{"value": 1}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
