package chain

import (
	"context"
	"errors"
	"fmt"

	"chain-calculator/internal/db"
	"chain-calculator/internal/logger"
	"chain-calculator/internal/metrics"
)

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidValue     = errors.New("invalid value")
	ErrParentNotFound   = errors.New("parent node not found")
	ErrDivisionByZero   = errors.New("division by zero")
)

// Engine creates and lists nodes. It holds no state of its own; every call
// goes straight to the store.
type Engine struct {
	store db.NodeStore
}

// NewEngine returns an Engine that persists nodes to store.
func NewEngine(store db.NodeStore) *Engine {
	return &Engine{store: store}
}

// CreateRoot starts a new chain whose result is the value itself.
func (e *Engine) CreateRoot(ctx context.Context, authorID int64, rawValue string) (*db.Node, error) {
	if authorID <= 0 {
		return nil, reject(ErrUnauthenticated)
	}

	value, err := ParseValue(rawValue)
	if err != nil {
		return nil, reject(err)
	}

	node, err := e.store.CreateNode(ctx, &db.Node{
		Value:    value,
		Result:   value,
		AuthorID: authorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create root: %w", err)
	}

	metrics.NodesCreated.WithLabelValues("root").Inc()
	logger.Log.Info().Int64("node_id", node.ID).Int64("author_id", authorID).Float64("value", value).Msg("root created")

	return node, nil
}

// ApplyOperation replies to parentID with "op value", computing the result
// from the parent's stored result. Nothing is written if any check fails.
func (e *Engine) ApplyOperation(ctx context.Context, authorID, parentID int64, rawOp, rawValue string) (*db.Node, error) {
	if authorID <= 0 {
		return nil, reject(ErrUnauthenticated)
	}

	op, err := ParseOperation(rawOp)
	if err != nil {
		return nil, reject(err)
	}

	value, err := ParseValue(rawValue)
	if err != nil {
		return nil, reject(err)
	}

	parent, err := e.store.GetNodeByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, db.ErrNodeNotFound) {
			return nil, reject(fmt.Errorf("%w: %d", ErrParentNotFound, parentID))
		}
		return nil, fmt.Errorf("failed to load parent %d: %w", parentID, err)
	}

	result, err := Apply(parent.Result, op, value)
	if err != nil {
		return nil, reject(err)
	}

	opStr := op.String()
	node, err := e.store.CreateNode(ctx, &db.Node{
		ParentID:  &parent.ID,
		Operation: &opStr,
		Value:     value,
		Result:    result,
		AuthorID:  authorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	metrics.NodesCreated.WithLabelValues(opStr).Inc()
	logger.Log.Info().
		Int64("node_id", node.ID).
		Int64("parent_id", parent.ID).
		Int64("author_id", authorID).
		Str("operation", opStr).
		Float64("value", value).
		Float64("result", result).
		Msg("reply created")

	return node, nil
}

// ListNodes returns every node, newest first.
func (e *Engine) ListNodes(ctx context.Context) ([]*db.Node, error) {
	nodes, err := e.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nodes, nil
}

func reject(err error) error {
	metrics.NodeRejections.WithLabelValues(RejectionReason(err)).Inc()
	return err
}

// RejectionReason gives the metric label for a refused create.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, ErrParentNotFound):
		return "parent_not_found"
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	default:
		return "internal"
	}
}
