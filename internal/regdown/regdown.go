// Package regdown implements regulation markdown: a goldmark dialect in which
// every paragraph carries a stable label, see(label) directives pull in
// externally resolved content, and a handful of inline tokens (form blanks,
// section marks, em-dashes) get dedicated markup.
package regdown

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/dgallion1/regdown/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DefaultMaxDepth bounds how deeply see(label) references may nest.
const DefaultMaxDepth = 16

// URLResolver returns the URL a referenced label links to.
type URLResolver func(ctx context.Context, label string) string

// ContentsResolver returns the regdown text for a label, or "" when the label
// is unknown. It must not fail; backends report their own errors.
type ContentsResolver func(ctx context.Context, label string) string

// BlockRenderer turns resolved contents into markup holding a single root
// element. ctx carries the reference depth; see Depth.
type BlockRenderer func(ctx context.Context, contents, url string) (string, error)

// NoURL is the default URLResolver.
func NoURL(context.Context, string) string { return "" }

// NoContents is the default ContentsResolver: every reference resolves to nothing.
func NoContents(context.Context, string) string { return "" }

// Config holds the resolution callbacks and output options of a Regdown.
type Config struct {
	URLResolver URLResolver
	// ContentsResolver nil leaves see(label) lines to the paragraph handling.
	ContentsResolver ContentsResolver
	// RenderBlockReference nil renders contents with this same Regdown,
	// wrapped in a blockquote.
	RenderBlockReference BlockRenderer
	MaxDepth             int
	DisableTables        bool
	XHTML                bool
	Logger               *slog.Logger
}

// DefaultConfig returns the no-op resolvers and the default renderer.
func DefaultConfig() Config {
	return Config{
		URLResolver:      NoURL,
		ContentsResolver: NoContents,
		MaxDepth:         DefaultMaxDepth,
	}
}

// Regdown parses and renders regdown text. It is safe for concurrent use.
type Regdown struct {
	cfg   Config
	md    goldmark.Markdown
	xhtml goldmark.Markdown // nested references are rendered as XML
}

// New builds a Regdown from cfg, filling unset fields with their defaults.
func New(cfg Config) *Regdown {
	if cfg.URLResolver == nil {
		cfg.URLResolver = NoURL
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	r := &Regdown{cfg: cfg}
	if r.cfg.RenderBlockReference == nil {
		r.cfg.RenderBlockReference = r.renderQuoted
	}
	r.md = r.newMarkdown(cfg.XHTML)
	r.xhtml = r.md
	if !cfg.XHTML {
		r.xhtml = r.newMarkdown(true)
	}
	return r
}

// classifiers is the block dispatch table, highest priority first.
func (r *Regdown) classifiers() []BlockClassifier {
	return []BlockClassifier{
		blockReference{r: r},
		labeledBlock{},
	}
}

func (r *Regdown) newMarkdown(xhtml bool) goldmark.Markdown {
	var opts []renderer.Option
	if xhtml {
		opts = append(opts, html.WithXHTML())
	}
	exts := []goldmark.Extender{&extender{r: r}}
	if !r.cfg.DisableTables {
		exts = append(exts, extension.Table)
	}
	return goldmark.New(
		goldmark.WithParser(newParser()),
		goldmark.WithRendererOptions(opts...),
		goldmark.WithExtensions(exts...),
	)
}

type extender struct {
	r *Regdown
}

func (e *extender) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithParagraphTransformers(
			util.Prioritized(&blockTransformer{classifiers: e.r.classifiers()}, 300),
		),
		parser.WithInlineParsers(
			util.Prioritized(emDashParser{}, 10),
			util.Prioritized(pseudoFormParser{}, 20),
			util.Prioritized(sectionSymbolParser{}, 30),
			util.Prioritized(emStrongParser{}, 40),
		),
		parser.WithASTTransformers(
			util.Prioritized(listLabelTransformer{}, 100),
		),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&htmlRenderer{}, 500),
	))
}

// newParser is goldmark's default parser with ordered lists and underscore
// emphasis turned off.
func newParser() parser.Parser {
	listType := reflect.TypeOf(parser.NewListParser())
	blocks := parser.DefaultBlockParsers()
	for i, v := range blocks {
		if reflect.TypeOf(v.Value) == listType {
			blocks[i] = util.Prioritized(unorderedListParser{v.Value.(parser.BlockParser)}, v.Priority)
		}
	}
	emphasisType := reflect.TypeOf(parser.NewEmphasisParser())
	inlines := parser.DefaultInlineParsers()
	for i, v := range inlines {
		if reflect.TypeOf(v.Value) == emphasisType {
			inlines[i] = util.Prioritized(asteriskEmphasisParser{v.Value.(parser.InlineParser)}, v.Priority)
		}
	}
	return parser.NewParser(
		parser.WithBlockParsers(blocks...),
		parser.WithInlineParsers(inlines...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
}

// unorderedListParser only opens lists on bullet markers, so "1." lines stay
// paragraph text.
type unorderedListParser struct {
	parser.BlockParser
}

func (unorderedListParser) Trigger() []byte {
	return []byte{'-', '+', '*'}
}

// asteriskEmphasisParser leaves underscores to the form blank parser.
type asteriskEmphasisParser struct {
	parser.InlineParser
}

func (asteriskEmphasisParser) Trigger() []byte {
	return []byte{'*'}
}

// Parse parses src into a goldmark document. Errors raised while resolving
// block references are returned instead of being rendered.
func (r *Regdown) Parse(ctx context.Context, src []byte) (ast.Node, error) {
	return r.parse(ctx, r.md, src)
}

// Convert renders src as HTML into w.
func (r *Regdown) Convert(ctx context.Context, src []byte, w io.Writer) error {
	return r.convert(ctx, r.md, src, w)
}

// Render returns src rendered as HTML.
func (r *Regdown) Render(ctx context.Context, src string) (string, error) {
	var buf bytes.Buffer
	if err := r.Convert(ctx, []byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Tree renders src and reads the markup back as a document tree.
func (r *Regdown) Tree(ctx context.Context, src string) (*doctree.Tree, error) {
	out, err := r.Render(ctx, src)
	if err != nil {
		return nil, err
	}
	return doctree.FromHTML(bytes.NewReader([]byte(out)))
}

func (r *Regdown) parse(ctx context.Context, md goldmark.Markdown, src []byte) (ast.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pc := parser.NewContext()
	pc.Set(requestContextKey, ctx)
	doc := md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))
	if err := parseError(pc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Regdown) convert(ctx context.Context, md goldmark.Markdown, src []byte, w io.Writer) error {
	doc, err := r.parse(ctx, md, src)
	if err != nil {
		return err
	}
	return md.Renderer().Render(w, src, doc)
}

var defaultRegdown = sync.OnceValue(func() *Regdown {
	return New(DefaultConfig())
})

// Render renders src with the default configuration.
func Render(ctx context.Context, src string) (string, error) {
	return defaultRegdown().Render(ctx, src)
}
