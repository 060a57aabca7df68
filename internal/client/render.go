package client

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const timeLayout = "02/01/2006 at 15:04"

// Render writes the forest depth-first, indenting each level by two spaces.
func Render(w io.Writer, forest Forest) error {
	if len(forest.Roots) == 0 && len(forest.Orphans) == 0 {
		_, err := fmt.Fprintln(w, "No calculations yet. Start one with `post <number>`.")
		return err
	}

	for _, root := range forest.Roots {
		if err := renderNode(w, root, 0); err != nil {
			return err
		}
	}

	if len(forest.Orphans) > 0 {
		if _, err := fmt.Fprintf(w, "\nwarning: %d node(s) reference a missing parent:\n", len(forest.Orphans)); err != nil {
			return err
		}
		for _, o := range forest.Orphans {
			if _, err := fmt.Fprintf(w, "  #%d -> parent #%d\n", o.ID, *o.ParentID); err != nil {
				return err
			}
		}
	}

	return nil
}

func renderNode(w io.Writer, node *TreeNode, depth int) error {
	if _, err := fmt.Fprintln(w, strings.Repeat("  ", depth)+FormatLine(node)); err != nil {
		return err
	}
	for _, child := range node.Children {
		if err := renderNode(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// FormatLine renders one node without indentation.
func FormatLine(node *TreeNode) string {
	var b strings.Builder

	if node.Operation == nil {
		b.WriteString(formatNumber(node.Result))
	} else {
		fmt.Fprintf(&b, "%s %s = %s", *node.Operation, formatNumber(node.Value), formatNumber(node.Result))
	}

	fmt.Fprintf(&b, "  [#%d by %s, %s", node.ID, node.Author.Username, node.CreatedAt.Local().Format(timeLayout))
	if n := node.ChildCount; n > 0 {
		if n == 1 {
			b.WriteString(", 1 reply")
		} else {
			fmt.Fprintf(&b, ", %d replies", n)
		}
	}
	b.WriteString("]")

	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
