package regdown

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	minFormWidth = 2
	maxFormWidth = 50
)

var (
	emDashToken   = []byte("---")
	sectionSymbol = []byte("§")

	// ***strongem*** or ***em*strong**
	emStrongRe = regexp.MustCompile(`^\*{3}(.+?)\*(.*?)\*{2}`)
)

type emDashParser struct{}

func (emDashParser) Trigger() []byte { return []byte{'-'} }

func (emDashParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, emDashToken) {
		return nil
	}
	block.Advance(len(emDashToken))
	return &EmDash{}
}

// pseudoFormParser turns 2-50 underscores into a blank. A blank followed by
// nothing but whitespace up to the end of the paragraph is marked as
// extending to the end of the line, and the trailing whitespace is dropped.
type pseudoFormParser struct{}

func (pseudoFormParser) Trigger() []byte { return []byte{'_'} }

func (pseudoFormParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, seg := block.PeekLine()
	n := 0
	for n < len(line) && n < maxFormWidth && line[n] == '_' {
		n++
	}
	if n < minFormWidth {
		return nil
	}

	node := &PseudoForm{}
	node.AppendChild(node, ast.NewTextSegment(text.NewSegment(seg.Start, seg.Start+n)))
	advance := n
	if atBlockEnd(block, line[n:]) {
		node.Extend = true
		advance += len(line[n:]) - len(bytes.TrimLeft(line[n:], " \t"))
	}
	block.Advance(advance)
	return node
}

// atBlockEnd reports whether rest, the remainder of the current line, and
// every line after it are blank. The reader position is left unchanged.
func atBlockEnd(block text.Reader, rest []byte) bool {
	if !util.IsBlank(rest) {
		return false
	}
	line, pos := block.Position()
	defer block.SetPosition(line, pos)
	block.AdvanceLine()
	_, _, more := block.SkipBlankLines()
	return !more
}

// sectionSymbolParser runs on whitespace and claims it only when it directly
// follows a section symbol, which stays in the preceding text.
type sectionSymbolParser struct{}

func (sectionSymbolParser) Trigger() []byte { return []byte{' '} }

func (sectionSymbolParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, seg := block.PeekLine()
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	source := block.Source()
	if n == 0 {
		// Start of a continuation line.
		return sectionLineBreak(parent, source)
	}
	start := seg.Start - len(sectionSymbol)
	if start < 0 || !bytes.Equal(source[start:seg.Start], sectionSymbol) {
		return nil
	}
	if util.IsBlank(line[n:]) {
		// Trailing blanks: the line break goes too.
		n = len(line)
	}
	block.Advance(n)
	return &NonBreakingSpace{}
}

// sectionLineBreak replaces the line break after a line ending in a section
// symbol with a non-breaking space.
func sectionLineBreak(parent ast.Node, source []byte) ast.Node {
	prev, ok := parent.LastChild().(*ast.Text)
	if !ok || !(prev.SoftLineBreak() || prev.HardLineBreak()) {
		return nil
	}
	if !bytes.HasSuffix(prev.Segment.Value(source), sectionSymbol) {
		return nil
	}
	prev.SetSoftLineBreak(false)
	prev.SetHardLineBreak(false)
	return &NonBreakingSpace{}
}

// emStrongParser makes strong the outer element of ***text*** and
// ***text*suffix**, ahead of goldmark's own delimiter handling.
type emStrongParser struct{}

func (emStrongParser) Trigger() []byte { return []byte{'*'} }

func (emStrongParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, seg := block.PeekLine()
	m := emStrongRe.FindSubmatchIndex(line)
	if m == nil {
		return nil
	}

	em := ast.NewEmphasis(1)
	em.AppendChild(em, ast.NewTextSegment(text.NewSegment(seg.Start+m[2], seg.Start+m[3])))
	strong := ast.NewEmphasis(2)
	strong.AppendChild(strong, em)
	if m[5] > m[4] {
		strong.AppendChild(strong, ast.NewTextSegment(text.NewSegment(seg.Start+m[4], seg.Start+m[5])))
	}
	block.Advance(m[1])
	return strong
}
