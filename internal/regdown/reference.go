package regdown

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
)

var (
	// ErrReferenceDepth is returned when see(label) references nest deeper
	// than Config.MaxDepth, which in practice means a reference cycle.
	ErrReferenceDepth = errors.New("reference cycle depth exceeded")

	// ErrInvalidMarkup is returned when a block renderer produces markup that
	// is not a single well-formed element.
	ErrInvalidMarkup = errors.New("invalid block reference markup")
)

var seeLineRe = regexp.MustCompile(`^see\(([\w-]+)\)[ \t]*$`)

type depthKey struct{}

// Depth returns how many block references deep ctx is.
func Depth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

func withDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey{}, depth)
}

// blockReference claims a leading see(label) line. It runs ahead of
// labeledBlock so the directive never becomes a paragraph.
type blockReference struct {
	r *Regdown
}

func (c blockReference) Classify(pc parser.Context, b Block) (Claim, bool) {
	if len(b.Lines) == 0 || c.r.cfg.ContentsResolver == nil {
		return Claim{}, false
	}
	m := seeLineRe.FindStringSubmatch(b.line(0))
	if m == nil {
		return Claim{}, false
	}

	ref, err := c.r.resolveReference(requestContext(pc), m[1])
	if err != nil {
		setParseError(pc, err)
		return Claim{Lines: 1}, true
	}
	if ref == nil {
		return Claim{Lines: 1}, true
	}
	return Claim{Nodes: []ast.Node{ref}, Lines: 1}, true
}

func (r *Regdown) resolveReference(ctx context.Context, label string) (*BlockReference, error) {
	contents := r.cfg.ContentsResolver(ctx, label)
	if contents == "" {
		r.cfg.Logger.DebugContext(ctx, "unresolved block reference", "label", label)
		return nil, nil
	}

	depth := Depth(ctx) + 1
	if depth > r.cfg.MaxDepth {
		return nil, fmt.Errorf("see(%s): %w (max %d)", label, ErrReferenceDepth, r.cfg.MaxDepth)
	}

	url := r.cfg.URLResolver(ctx, label)
	markup, err := r.cfg.RenderBlockReference(withDepth(ctx, depth), contents, url)
	if err != nil {
		return nil, fmt.Errorf("render see(%s): %w", label, err)
	}
	frag, err := parseFragment(markup)
	if err != nil {
		return nil, fmt.Errorf("see(%s): %w", label, err)
	}

	return &BlockReference{
		Label:    label,
		URL:      url,
		Markup:   markup,
		Fragment: frag,
	}, nil
}

// Reference resolves label the way a see(label) line would, at the depth
// carried by ctx. It returns nil when the label resolves to nothing or no
// ContentsResolver is configured.
func (r *Regdown) Reference(ctx context.Context, label string) (*BlockReference, error) {
	if r.cfg.ContentsResolver == nil {
		return nil, nil
	}
	return r.resolveReference(ctx, label)
}

// renderQuoted is the default BlockRenderer: contents go through this same
// pipeline and come back wrapped in a blockquote.
func (r *Regdown) renderQuoted(ctx context.Context, contents, url string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("<blockquote>")
	if err := r.convert(ctx, r.xhtml, []byte(contents), &buf); err != nil {
		return "", err
	}
	buf.WriteString("</blockquote>")
	return buf.String(), nil
}

// parseFragment parses markup that must hold exactly one root element.
func parseFragment(markup string) (*xmlquery.Node, error) {
	doc, err := xmlquery.ParseWithOptions(strings.NewReader(markup), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict: true,
			Entity: xml.HTMLEntity,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMarkup, err)
	}

	var root *xmlquery.Node
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		switch n.Type {
		case xmlquery.ElementNode:
			if root != nil {
				return nil, fmt.Errorf("%w: more than one root element", ErrInvalidMarkup)
			}
			root = n
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(n.Data) != "" {
				return nil, fmt.Errorf("%w: text outside the root element", ErrInvalidMarkup)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrInvalidMarkup)
	}
	return root, nil
}
