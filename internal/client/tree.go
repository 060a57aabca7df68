package client

import (
	"chain-calculator/internal/db"
)

// TreeNode is a node with its replies attached.
type TreeNode struct {
	*db.Node
	Children []*TreeNode
}

// Forest is the result of BuildTree. Orphans are nodes whose parent is not
// in the input; they are kept out of the tree.
type Forest struct {
	Roots   []*TreeNode
	Orphans []*TreeNode
}

// BuildTree links a flat node list into trees. Roots and children keep the
// order they had in nodes, so a newest-first list yields newest-first siblings.
func BuildTree(nodes []*db.Node) Forest {
	byID := make(map[int64]*TreeNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = &TreeNode{Node: n, Children: []*TreeNode{}}
	}

	forest := Forest{Roots: []*TreeNode{}}
	for _, n := range nodes {
		tn := byID[n.ID]
		if n.ParentID == nil {
			forest.Roots = append(forest.Roots, tn)
			continue
		}
		parent, ok := byID[*n.ParentID]
		if !ok {
			forest.Orphans = append(forest.Orphans, tn)
			continue
		}
		parent.Children = append(parent.Children, tn)
	}

	return forest
}

// Size counts every node reachable from the roots.
func (f Forest) Size() int {
	var count func([]*TreeNode) int
	count = func(nodes []*TreeNode) int {
		total := 0
		for _, n := range nodes {
			total += 1 + count(n.Children)
		}
		return total
	}
	return count(f.Roots)
}
