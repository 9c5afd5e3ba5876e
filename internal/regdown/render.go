package regdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// htmlRenderer writes the regdown node kinds. Paragraph attributes are
// written by goldmark's own paragraph renderer.
type htmlRenderer struct{}

func (r *htmlRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindContainer, r.renderContainer)
	reg.Register(KindBlockReference, r.renderBlockReference)
	reg.Register(KindPseudoForm, r.renderPseudoForm)
	reg.Register(KindEmDash, r.renderEmDash)
	reg.Register(KindNonBreakingSpace, r.renderNonBreakingSpace)
}

func (r *htmlRenderer) renderContainer(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<div")
		html.RenderAttributes(w, node, nil)
		_, _ = w.WriteString("></div>\n")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderBlockReference(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*BlockReference)
		_, _ = w.WriteString(n.Markup)
		_ = w.WriteByte('\n')
	}
	return ast.WalkSkipChildren, nil
}

func (r *htmlRenderer) renderPseudoForm(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*PseudoForm)
	if entering {
		_, _ = w.WriteString(`<span class="`)
		_, _ = w.WriteString(n.Class())
		_, _ = w.WriteString(`">`)
		return ast.WalkContinue, nil
	}
	if n.Extend {
		_, _ = w.WriteString("<span></span>")
	}
	_, _ = w.WriteString("</span>")
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderEmDash(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("&mdash;")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderNonBreakingSpace(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("&#160;")
	}
	return ast.WalkContinue, nil
}
