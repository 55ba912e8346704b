// Package tree provides a minimal node tree that state.UpdatableNode and
// state.Attach can drive. It is used by the demo command and by tests to
// observe how attached children are placed, reordered and removed.
package tree

import (
	"fmt"
	"slices"
	"strings"
)

// Node is a named tree node with ordered children.
type Node struct {
	Name     string         // Display name
	Props    map[string]any // Free-form attributes
	Children []*Node        // Child nodes in presentation order

	parent *Node
}

// New creates a node named name.
func New(name string) *Node {
	return &Node{Name: name}
}

// Parent returns the node's parent, or nil for a detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Set stores a property and returns the node.
func (n *Node) Set(key string, value any) *Node {
	if n.Props == nil {
		n.Props = make(map[string]any)
	}
	n.Props[key] = value
	return n
}

// InsertChildAfter inserts child right after prev, or first when prev is nil.
// A child attached elsewhere is moved.
func (n *Node) InsertChildAfter(prev, child any) {
	c, ok := child.(*Node)
	if !ok || c == nil {
		panic(fmt.Sprintf("tree: cannot insert %T", child))
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	at := 0
	if p, ok := prev.(*Node); ok && p != nil {
		if i := slices.Index(n.Children, p); i >= 0 {
			at = i + 1
		} else {
			at = len(n.Children)
		}
	}
	n.Children = slices.Insert(n.Children, at, c)
	c.parent = n
}

// RemoveChild removes child if it is a child of n.
func (n *Node) RemoveChild(child any) {
	c, ok := child.(*Node)
	if !ok {
		return
	}
	if i := slices.Index(n.Children, c); i >= 0 {
		n.Children = slices.Delete(n.Children, i, i+1)
		c.parent = nil
	}
}

// Find returns the first descendant named name, depth-first.
func (n *Node) Find(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// Walk calls fn for n and every descendant, depth-first. Returning false
// skips the node's children.
func (n *Node) Walk(fn func(depth int, node *Node) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node) bool) {
	if !fn(depth, n) {
		return
	}
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// Hierarchy renders the tree as name(child,child(...)).
func (n *Node) Hierarchy() string {
	var b strings.Builder
	n.writeHierarchy(&b)
	return b.String()
}

func (n *Node) writeHierarchy(b *strings.Builder) {
	b.WriteString(n.Name)
	if len(n.Children) == 0 {
		return
	}
	b.WriteByte('(')
	for i, c := range n.Children {
		if i > 0 {
			b.WriteByte(',')
		}
		c.writeHierarchy(b)
	}
	b.WriteByte(')')
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return n.Hierarchy()
}

// Outline renders the tree one node per line, indented by depth.
func (n *Node) Outline() string {
	var b strings.Builder
	n.Walk(func(depth int, node *Node) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(node.Name)
		if len(node.Props) > 0 {
			keys := make([]string, 0, len(node.Props))
			for k := range node.Props {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%v", k, node.Props[k])
			}
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
