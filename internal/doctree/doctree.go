package doctree

import (
	"strconv"
	"strings"
)

// Tree is the root of a rendered regdown document.
type Tree struct {
	Title    string  `json:"title,omitempty"` // Text of the first h1, if any
	Children []*Node `json:"children"`
}

// Node is one element or text run of the document. Text runs have no tag.
type Node struct {
	Tag        string            `json:"tag,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
	Children   []*Node           `json:"children,omitempty"`
}

// Label describes one labeled or hash-identified block.
type Label struct {
	ID    string `json:"id"`
	Label string `json:"label"` // empty for unlabeled paragraphs
	Level int    `json:"level"`
	Tag   string `json:"tag"`
}

// Attr returns the named attribute, or "".
func (n *Node) Attr(name string) string {
	return n.Attributes[name]
}

// IsText reports whether n is a text run.
func (n *Node) IsText() bool {
	return n.Tag == ""
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	var sb strings.Builder
	walk(n, 0, func(c *Node, _ int) bool {
		if c.IsText() {
			sb.WriteString(c.Text)
		}
		return true
	})
	return sb.String()
}

// Walk visits every node depth-first in document order. Returning false from
// fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	for _, c := range t.Children {
		walk(c, 0, fn)
	}
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Find returns the first element whose id is id, or nil.
func (t *Tree) Find(id string) *Node {
	var found *Node
	t.Walk(func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if !n.IsText() && n.Attr("id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Labels lists every element carrying a data-label attribute, in document
// order, including those inside quoted block references.
func (t *Tree) Labels() []Label {
	var labels []Label
	t.Walk(func(n *Node, _ int) bool {
		if n.IsText() {
			return false
		}
		if label, ok := n.Attributes["data-label"]; ok {
			labels = append(labels, Label{
				ID:    n.Attr("id"),
				Label: label,
				Level: levelFromClass(n.Attr("class")),
				Tag:   n.Tag,
			})
		}
		return true
	})
	return labels
}

func levelFromClass(class string) int {
	for _, f := range strings.Fields(class) {
		if rest, ok := strings.CutPrefix(f, "level-"); ok {
			if level, err := strconv.Atoi(rest); err == nil {
				return level
			}
		}
	}
	return 0
}
