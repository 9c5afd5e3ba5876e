package source

import (
	"bufio"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// TextLoader handles plain text files: paragraphs are re-joined with single
// blank lines and line endings normalized.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Document{
		Title: titleFromFilename(filename),
		Text:  joinBlocks(paragraphs),
	}, nil
}

// MarkdownLoader handles regdown and markdown files. The text is kept as is
// apart from line endings; the first h1, if any, becomes the title.
type MarkdownLoader struct{}

func (l *MarkdownLoader) Load(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	normalized := strings.ReplaceAll(string(src), "\r\n", "\n")

	doc := &Document{
		Title: titleFromFilename(filename),
		Text:  normalized,
	}
	if title := firstHeading([]byte(normalized)); title != "" {
		doc.Title = title
	}
	return doc, nil
}

func firstHeading(src []byte) string {
	root := goldmark.New().Parser().Parse(text.NewReader(src))
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			return strings.TrimSpace(string(headingText(h, src)))
		}
	}
	return ""
}

func headingText(n ast.Node, src []byte) []byte {
	var buf []byte
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf = append(buf, t.Segment.Value(src)...)
		case *ast.String:
			buf = append(buf, t.Value...)
		}
		return ast.WalkContinue, nil
	})
	return buf
}
