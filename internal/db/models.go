package db

import (
	"time"
)

// User is a registered author.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialized
	CreatedAt    time.Time `json:"createdAt"`
}

// Author is the part of User joined onto a node for display.
type Author struct {
	Username string `json:"username"`
}

// Node is one calculation in a chain. Roots have ParentID == nil and
// Operation == nil, and their Result equals Value.
type Node struct {
	ID         int64     `json:"id"`
	ParentID   *int64    `json:"parentId"`
	Operation  *string   `json:"operation"`
	Value      float64   `json:"value"`
	Result     float64   `json:"result"`
	AuthorID   int64     `json:"authorId"`
	Author     Author    `json:"author"`
	CreatedAt  time.Time `json:"createdAt"`
	ChildCount int       `json:"childCount"` // computed at query time
}

// IsRoot reports whether the node starts a new chain.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}
