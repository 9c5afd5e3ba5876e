package regdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

const blockClass = "regdown-block"

// labelLineRe matches a {label} at the start of a line; the second group is
// the text that follows it on the same line.
var labelLineRe = regexp.MustCompile(`^\{([\w\-]+)\}\s?(.*)`)

var (
	requestContextKey = parser.NewContextKey()
	parseErrorKey     = parser.NewContextKey()
	listLabelsKey     = parser.NewContextKey()
)

// Block is one paragraph-like run of source lines, as split by the goldmark
// block parsers, handed to the BlockClassifiers in order.
type Block struct {
	Source []byte
	Lines  []text.Segment
	// InList is set when the block sits inside a list item.
	InList bool
}

// Text returns the raw block text without the final line terminator.
func (b Block) Text() string {
	var sb strings.Builder
	for _, seg := range b.Lines {
		sb.Write(seg.Value(b.Source))
	}
	return strings.TrimRight(sb.String(), "\r\n")
}

// Raw returns the block as written in the source, keeping the indentation
// goldmark strips from continuation lines. Gaps holding container markers,
// such as a blockquote's ">", are left out.
func (b Block) Raw() string {
	var sb strings.Builder
	for i, seg := range b.Lines {
		if i > 0 {
			prev := b.Lines[i-1].Stop
			if prev <= seg.Start {
				if gap := b.Source[prev:seg.Start]; strings.Trim(string(gap), " \t") == "" {
					sb.Write(gap)
				}
			}
		}
		sb.Write(seg.Value(b.Source))
	}
	if n := len(b.Lines); n > 0 {
		// Trailing blanks goldmark may have trimmed from the last line.
		for i := b.Lines[n-1].Stop; i < len(b.Source) && (b.Source[i] == ' ' || b.Source[i] == '\t'); i++ {
			sb.WriteByte(b.Source[i])
		}
	}
	return strings.TrimRight(sb.String(), "\r\n")
}

// Blank reports whether the block holds only whitespace.
func (b Block) Blank() bool {
	return strings.TrimSpace(b.Text()) == ""
}

func (b Block) line(i int) string {
	return strings.TrimRight(string(b.Lines[i].Value(b.Source)), "\r\n")
}

func (b Block) tail(from int) Block {
	return Block{Source: b.Source, Lines: b.Lines[from:], InList: b.InList}
}

// Claim is the outcome of a classifier accepting a block.
type Claim struct {
	// Nodes replace the claimed lines, in order. Empty means the lines are
	// consumed without output.
	Nodes []ast.Node
	// Lines is the number of leading lines consumed; zero consumes them all.
	// The remaining lines are classified again as a block of their own.
	Lines int
}

// BlockClassifier decides whether it owns a block.
type BlockClassifier interface {
	Classify(pc parser.Context, b Block) (Claim, bool)
}

// blockTransformer runs every closed paragraph through a fixed, ordered list
// of classifiers and swaps the paragraph for whatever the first claim yields.
type blockTransformer struct {
	classifiers []BlockClassifier
}

func (t *blockTransformer) Transform(node *ast.Paragraph, reader text.Reader, pc parser.Context) {
	lines := node.Lines()
	b := Block{
		Source: reader.Source(),
		Lines:  lines.Sliced(0, lines.Len()),
		InList: inList(node),
	}
	nodes, ok := t.classify(pc, b)
	if !ok {
		return
	}
	parent := node.Parent()
	for i, n := range nodes {
		if i == 0 {
			n.SetBlankPreviousLines(node.HasBlankPreviousLines())
		}
		if b.InList {
			keepListLabel(pc, n)
		}
		parent.InsertBefore(parent, node, n)
	}
	parent.RemoveChild(parent, node)
}

// keepListLabel remembers a labeled paragraph inside a list item. Tight
// lists replace their paragraphs with text blocks when they close, and
// listLabelTransformer puts the labeled ones back.
func keepListLabel(pc parser.Context, n ast.Node) {
	p, ok := n.(*ast.Paragraph)
	if !ok || p.Lines().Len() == 0 {
		return
	}
	if _, labeled := p.AttributeString("data-label"); !labeled {
		return
	}
	kept, _ := pc.Get(listLabelsKey).(map[int]*ast.Paragraph)
	if kept == nil {
		kept = map[int]*ast.Paragraph{}
		pc.Set(listLabelsKey, kept)
	}
	kept[p.Lines().At(0).Start] = p
}

// listLabelTransformer swaps text blocks that came from labeled paragraphs
// back for those paragraphs, inline children included.
type listLabelTransformer struct{}

func (listLabelTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	kept, _ := pc.Get(listLabelsKey).(map[int]*ast.Paragraph)
	if len(kept) == 0 {
		return
	}

	var blocks []*ast.TextBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if tb, ok := n.(*ast.TextBlock); ok {
			blocks = append(blocks, tb)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, tb := range blocks {
		if tb.Lines().Len() == 0 {
			continue
		}
		p, ok := kept[tb.Lines().At(0).Start]
		if !ok || p.Parent() != nil {
			continue
		}
		for c := tb.FirstChild(); c != nil; {
			next := c.NextSibling()
			p.AppendChild(p, c)
			c = next
		}
		parent := tb.Parent()
		parent.ReplaceChild(parent, tb, p)
	}
}

func (t *blockTransformer) classify(pc parser.Context, b Block) ([]ast.Node, bool) {
	for _, c := range t.classifiers {
		claim, ok := c.Classify(pc, b)
		if !ok {
			continue
		}
		nodes := claim.Nodes
		if claim.Lines > 0 && claim.Lines < len(b.Lines) {
			rest := b.tail(claim.Lines)
			more, ok := t.classify(pc, rest)
			if !ok {
				if p := newParagraph(rest.Lines, rest.Source); p != nil {
					more = []ast.Node{p}
				}
			}
			nodes = append(nodes, more...)
		}
		return nodes, true
	}
	return nil, false
}

// labeledBlock claims every block outside lists: {label} blocks become
// labeled paragraphs or containers, the rest get a content-addressed id.
type labeledBlock struct{}

func (labeledBlock) Classify(pc parser.Context, b Block) (Claim, bool) {
	if len(b.Lines) == 0 {
		return Claim{}, true
	}

	first := b.line(0)
	if m := labelLineRe.FindStringSubmatchIndex(first); m != nil {
		label := first[m[2]:m[3]]
		lines := make([]text.Segment, 0, len(b.Lines))
		lines = append(lines, b.Lines[0].WithStart(b.Lines[0].Start+m[4]))
		lines = append(lines, b.Lines[1:]...)

		p := newParagraph(lines, b.Source)
		if p == nil {
			return Claim{Nodes: []ast.Node{NewContainer(label)}}, true
		}
		setLabelAttributes(p, label)
		return Claim{Nodes: []ast.Node{p}}, true
	}

	if b.Blank() {
		return Claim{}, true
	}
	if b.InList {
		return Claim{}, false
	}

	p := newParagraph(b.Lines, b.Source)
	p.SetAttributeString("id", []byte(HashID(b.Raw())))
	p.SetAttributeString("class", []byte(blockClass))
	p.SetAttributeString("data-label", []byte(""))
	return Claim{Nodes: []ast.Node{p}}, true
}

// newParagraph builds a paragraph from lines, trimmed the way goldmark trims
// its own paragraphs. It returns nil when nothing but whitespace is left.
func newParagraph(lines []text.Segment, source []byte) *ast.Paragraph {
	trimmed := make([]text.Segment, 0, len(lines))
	for _, seg := range lines {
		seg = seg.TrimLeftSpace(source)
		if seg.IsEmpty() && len(trimmed) == 0 {
			continue
		}
		trimmed = append(trimmed, seg)
	}
	for len(trimmed) > 0 {
		last := trimmed[len(trimmed)-1].TrimRightSpace(source)
		if !last.IsEmpty() {
			trimmed[len(trimmed)-1] = last
			break
		}
		trimmed = trimmed[:len(trimmed)-1]
	}
	if len(trimmed) == 0 {
		return nil
	}

	p := ast.NewParagraph()
	for _, seg := range trimmed {
		p.Lines().Append(seg)
	}
	return p
}

func setLabelAttributes(n ast.Node, label string) {
	n.SetAttributeString("id", []byte(label))
	n.SetAttributeString("data-label", []byte(label))
	n.SetAttributeString("class", []byte(LevelClass(label)))
}

// AttributeValue returns a node attribute as a string, or "" when unset.
func AttributeValue(n ast.Node, name string) string {
	v, ok := n.AttributeString(name)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	}
	return ""
}

func inList(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == ast.KindListItem {
			return true
		}
	}
	return false
}

func requestContext(pc parser.Context) context.Context {
	if ctx, ok := pc.Get(requestContextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// setParseError records the first error raised during a parse; goldmark's
// transformer hooks have no error return of their own.
func setParseError(pc parser.Context, err error) {
	if pc.Get(parseErrorKey) == nil {
		pc.Set(parseErrorKey, err)
	}
}

func parseError(pc parser.Context) error {
	err, _ := pc.Get(parseErrorKey).(error)
	return err
}
