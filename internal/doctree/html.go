package doctree

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FromHTML reads an HTML fragment, as produced by the regdown renderer, into
// a Tree. Whitespace-only text spanning lines is layout and is dropped.
func FromHTML(r io.Reader) (*Tree, error) {
	nodes, err := html.ParseFragment(r, &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &Tree{}
	for _, n := range nodes {
		if c := fromHTMLNode(n); c != nil {
			tree.Children = append(tree.Children, c)
		}
	}
	if h1 := findTag(tree, "h1"); h1 != nil {
		tree.Title = strings.TrimSpace(h1.TextContent())
	}
	return tree, nil
}

func fromHTMLNode(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		if isLayout(n.Data) {
			return nil
		}
		return &Node{Text: n.Data}
	case html.ElementNode:
		node := &Node{Tag: n.Data}
		if len(n.Attr) > 0 {
			node.Attributes = make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				node.Attributes[a.Key] = a.Val
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTMLNode(c); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	}
	return nil
}

func isLayout(s string) bool {
	return strings.TrimSpace(s) == "" && strings.Contains(s, "\n")
}

func findTag(t *Tree, tag string) *Node {
	var found *Node
	t.Walk(func(n *Node, _ int) bool {
		if found == nil && n.Tag == tag {
			found = n
		}
		return found == nil
	})
	return found
}

// WriteHTML serializes the tree back to HTML, one top-level element per line.
// Attributes are written in name order.
func (t *Tree) WriteHTML(w io.Writer) error {
	for _, c := range t.Children {
		if err := html.Render(w, toHTMLNode(c)); err != nil {
			return fmt.Errorf("render %s: %w", c.Tag, err)
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// HTML returns the tree serialized by WriteHTML.
func (t *Tree) HTML() (string, error) {
	var sb strings.Builder
	if err := t.WriteHTML(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func toHTMLNode(n *Node) *html.Node {
	if n.IsText() {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
	out := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
	}
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Attr = append(out.Attr, html.Attribute{Key: k, Val: n.Attributes[k]})
	}
	for _, c := range n.Children {
		out.AppendChild(toHTMLNode(c))
	}
	return out
}
