package doctree

import (
	"github.com/antchfx/xmlquery"
)

// FromXML converts a parsed XML element, such as a block reference
// fragment, into a Node. Non-element, non-text nodes are skipped.
func FromXML(n *xmlquery.Node) *Node {
	switch n.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode:
		if isLayout(n.Data) {
			return nil
		}
		return &Node{Text: n.Data}
	case xmlquery.ElementNode:
		node := &Node{Tag: n.Data}
		if len(n.Attr) > 0 {
			node.Attributes = make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				name := a.Name.Local
				if a.Name.Space != "" {
					name = a.Name.Space + ":" + name
				}
				node.Attributes[name] = a.Value
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := FromXML(c); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	}
	return nil
}
