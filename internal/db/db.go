package db

import (
	"context"
	"errors"
	"fmt"

	"chain-calculator/internal/config"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNodeNotFound       = errors.New("node not found")
)

// UserStore persists accounts.
type UserStore interface {
	// CreateUser hashes password and stores a new user.
	CreateUser(ctx context.Context, username, password string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// NodeStore persists calculation nodes.
type NodeStore interface {
	// CreateNode inserts node and returns the stored row with its author joined.
	// ID, CreatedAt and ChildCount on the input are ignored.
	CreateNode(ctx context.Context, node *Node) (*Node, error)
	GetNodeByID(ctx context.Context, id int64) (*Node, error)
	// ListNodes returns every node, newest first.
	ListNodes(ctx context.Context) ([]*Node, error)
}

// Store is the full persistence layer.
type Store interface {
	UserStore
	NodeStore
	Close() error
}

// Open picks the store implementation for cfg.DBDriver.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.DBDriver {
	case "", "sqlite":
		store, err := OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
