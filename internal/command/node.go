package command

import (
	"strings"

	"github.com/Levtastic/LevBot/internal/levels"
)

// unreachable sorts above every real level, so an empty node never wins
// a minimum.
const unreachable = levels.BotOwner + 1

// Node is one segment of the command trie. A node may carry handlers,
// children, or both.
type Node struct {
	segment  string
	children map[string]*Node
	handlers []Handler
}

func newNode(segment string) *Node {
	return &Node{
		segment:  segment,
		children: make(map[string]*Node),
	}
}

// Segment returns the word this node matches.
func (n *Node) Segment() string { return n.segment }

// Handlers returns a copy of the handlers registered directly on this
// node.
func (n *Node) Handlers() []Handler {
	out := make([]Handler, len(n.handlers))
	copy(out, n.handlers)
	return out
}

// Children returns a copy of the child map.
func (n *Node) Children() map[string]*Node {
	out := make(map[string]*Node, len(n.children))
	for k, v := range n.children {
		out[k] = v
	}
	return out
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// UserLevel returns the lowest level that can see this node: the minimum
// over its own handlers and, recursively, its children. Computed on every
// call; the trie is small and alias-independent memoization is not worth
// the invalidation it would need.
func (n *Node) UserLevel() levels.Level {
	min := unreachable
	for _, h := range n.handlers {
		if h.Level < min {
			min = h.Level
		}
	}
	for _, child := range n.children {
		if l := child.UserLevel(); l < min {
			min = l
		}
	}
	return min
}

// ensure returns the node at the space-separated path below n, creating
// missing nodes along the way.
func (n *Node) ensure(path string) *Node {
	if path == "" {
		return n
	}

	segment, rest := splitSegment(path)
	child, ok := n.children[segment]
	if !ok {
		child = newNode(segment)
		n.children[segment] = child
	}
	return child.ensure(rest)
}

// splitSegment cuts the first space-separated word off text.
func splitSegment(text string) (string, string) {
	segment, rest, found := strings.Cut(text, " ")
	if !found {
		return text, ""
	}
	return segment, rest
}
