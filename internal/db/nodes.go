package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const selectNodes = `
	SELECT n.id, n.parent_id, n.operation, n.value, n.result, n.author_id, u.username, n.created_at,
	       (SELECT COUNT(*) FROM nodes c WHERE c.parent_id = n.id) AS child_count
	FROM nodes n
	JOIN users u ON u.id = n.author_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*Node, error) {
	var node Node
	var parentID sql.NullInt64
	var operation sql.NullString

	err := row.Scan(
		&node.ID, &parentID, &operation, &node.Value, &node.Result,
		&node.AuthorID, &node.Author.Username, &node.CreatedAt, &node.ChildCount,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		val := parentID.Int64
		node.ParentID = &val
	}
	if operation.Valid {
		val := operation.String
		node.Operation = &val
	}

	return &node, nil
}

func (s *SQLStore) CreateNode(ctx context.Context, node *Node) (*Node, error) {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO nodes (parent_id, operation, value, result, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		node.ParentID, node.Operation, node.Value, node.Result, node.AuthorID, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.GetNodeByID(ctx, id)
}

func (s *SQLStore) GetNodeByID(ctx context.Context, id int64) (*Node, error) {
	node, err := scanNode(s.DB.QueryRowContext(ctx, selectNodes+" WHERE n.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, err
	}
	return node, nil
}

func (s *SQLStore) ListNodes(ctx context.Context) ([]*Node, error) {
	rows, err := s.DB.QueryContext(ctx, selectNodes+" ORDER BY n.created_at DESC, n.id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := []*Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return nodes, nil
}
