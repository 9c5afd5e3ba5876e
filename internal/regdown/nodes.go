package regdown

import (
	"strconv"

	"github.com/antchfx/xmlquery"
	"github.com/dgallion1/regdown/internal/doctree"
	"github.com/yuin/goldmark/ast"
)

// KindContainer is the NodeKind of a labeled block without text.
var KindContainer = ast.NewNodeKind("RegdownContainer")

// Container is a labeled region with no direct text; rendered as a div.
type Container struct {
	ast.BaseBlock
	Label string
}

// Kind implements ast.Node.
func (n *Container) Kind() ast.NodeKind { return KindContainer }

// Dump implements ast.Node.
func (n *Container) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Label": n.Label}, nil)
}

// NewContainer returns a container carrying the standard label attributes.
func NewContainer(label string) *Container {
	n := &Container{Label: label}
	setLabelAttributes(n, label)
	return n
}

// KindBlockReference is the NodeKind of a resolved see(label) block.
var KindBlockReference = ast.NewNodeKind("RegdownBlockReference")

// BlockReference holds the markup produced for a see(label) directive.
type BlockReference struct {
	ast.BaseBlock
	Label    string
	URL      string
	Markup   string
	Fragment *xmlquery.Node // root element parsed from Markup
}

// Kind implements ast.Node.
func (n *BlockReference) Kind() ast.NodeKind { return KindBlockReference }

// IsRaw keeps the inline pass away from the rendered markup.
func (n *BlockReference) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *BlockReference) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Label": n.Label,
		"URL":   n.URL,
	}, nil)
}

// Tree returns the rendered markup as a document node.
func (n *BlockReference) Tree() *doctree.Node {
	return doctree.FromXML(n.Fragment)
}

// KindPseudoForm is the NodeKind of a fillable blank.
var KindPseudoForm = ast.NewNodeKind("RegdownPseudoForm")

// PseudoForm is a run of underscores standing in for a form field. Its only
// child is the text of the underscore run.
type PseudoForm struct {
	ast.BaseInline
	// Extend is set when the blank runs to the end of its line.
	Extend bool
}

// Kind implements ast.Node.
func (n *PseudoForm) Kind() ast.NodeKind { return KindPseudoForm }

// Dump implements ast.Node.
func (n *PseudoForm) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Extend": strconv.FormatBool(n.Extend)}, nil)
}

// Class returns the class attribute the blank renders with.
func (n *PseudoForm) Class() string {
	if n.Extend {
		return "regdown-form_extend"
	}
	return "regdown-form"
}

// KindEmDash is the NodeKind of a --- substitution.
var KindEmDash = ast.NewNodeKind("RegdownEmDash")

// EmDash renders as an em-dash character reference.
type EmDash struct {
	ast.BaseInline
}

// Kind implements ast.Node.
func (n *EmDash) Kind() ast.NodeKind { return KindEmDash }

// Dump implements ast.Node.
func (n *EmDash) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// KindNonBreakingSpace is the NodeKind of the space following a section symbol.
var KindNonBreakingSpace = ast.NewNodeKind("RegdownNonBreakingSpace")

// NonBreakingSpace replaces the whitespace after a section symbol.
type NonBreakingSpace struct {
	ast.BaseInline
}

// Kind implements ast.Node.
func (n *NonBreakingSpace) Kind() ast.NodeKind { return KindNonBreakingSpace }

// Dump implements ast.Node.
func (n *NonBreakingSpace) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}
