package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"chain-calculator/internal/db"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrServer          = errors.New("server error")
)

// ChainClient talks to a chain server. Authenticated calls take the token
// explicitly; the client itself holds no session.
type ChainClient interface {
	Signup(ctx context.Context, username, password string) (int64, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	ListNodes(ctx context.Context) ([]*db.Node, error)
	CreateRoot(ctx context.Context, token, value string) (*db.Node, error)
	Reply(ctx context.Context, token string, parentID int64, operation, value string) (*db.Node, error)
	Close() error
}

// APIError is a failure reported by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Unwrap lets callers test the error class with errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthenticated
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= http.StatusInternalServerError:
		return ErrServer
	case e.Status >= http.StatusBadRequest:
		return ErrBadRequest
	default:
		return nil
	}
}
