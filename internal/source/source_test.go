package source

import (
	"strings"
	"testing"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"part.regdown", "*source.MarkdownLoader"},
		{"readme.md", "*source.MarkdownLoader"},
		{"notes.markdown", "*source.MarkdownLoader"},
		{"notes.txt", "*source.TextLoader"},
		{"rows.csv", "*source.CSVLoader"},
		{"page.HTML", "*source.HTMLLoader"},
		{"scan.pdf", "*source.PDFLoader"},
		{"letter.docx", "*source.DOCXLoader"},
	}
	for _, tt := range tests {
		l, err := ForFile(tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if got := typeName(l); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
		if !IsSupportedExtension(tt.filename) {
			t.Errorf("%s: expected supported extension", tt.filename)
		}
	}

	if _, err := ForFile("image.png"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("image.png") {
		t.Error("expected .png to be unsupported")
	}
}

func typeName(l Loader) string {
	switch l.(type) {
	case *MarkdownLoader:
		return "*source.MarkdownLoader"
	case *TextLoader:
		return "*source.TextLoader"
	case *CSVLoader:
		return "*source.CSVLoader"
	case *HTMLLoader:
		return "*source.HTMLLoader"
	case *PDFLoader:
		return "*source.PDFLoader"
	case *DOCXLoader:
		return "*source.DOCXLoader"
	}
	return "unknown"
}

func TestTextLoader_BasicParagraphSplitting(t *testing.T) {
	input := "{a} First paragraph line one.\r\nFirst paragraph line two.\n\n\n\n{b} Second.\n   \nThird paragraph."
	doc, err := (&TextLoader{}).Load(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	want := "{a} First paragraph line one.\nFirst paragraph line two.\n\n{b} Second.\n\nThird paragraph.\n"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
}

func TestTextLoader_EmptyInput(t *testing.T) {
	doc, err := (&TextLoader{}).Load(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}

func TestMarkdownLoader(t *testing.T) {
	input := "# Part 1026 Truth in Lending\r\n\r\n{1026-1} Authority.\r\n\r\n    indented stays\r\n"
	doc, err := (&MarkdownLoader{}).Load(strings.NewReader(input), "dir/part.regdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Part 1026 Truth in Lending" {
		t.Errorf("expected heading title, got %q", doc.Title)
	}
	want := "# Part 1026 Truth in Lending\n\n{1026-1} Authority.\n\n    indented stays\n"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
}

func TestMarkdownLoader_TitleFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"dir/part-1026.regdown", "part-1026"},
	}
	for _, tt := range tests {
		doc, err := (&MarkdownLoader{}).Load(strings.NewReader("## Not a title\n\ntext"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if doc.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, doc.Title)
		}
	}
}

func TestHTMLLoader(t *testing.T) {
	input := `<html><head><title>Reg Z</title><style>p{}</style></head><body>
<nav>skip me</nav>
<h2>Subpart A</h2>
<p>{1026-1} Authority, <em>purpose</em>.</p>
<div><div>{1026-2} Definitions.</div></div>
<ul><li>{1026-2-a} Item.</li></ul>
</body></html>`
	doc, err := (&HTMLLoader{}).Load(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Reg Z" {
		t.Errorf("expected title %q, got %q", "Reg Z", doc.Title)
	}
	want := "## Subpart A\n\n{1026-1} Authority, purpose.\n\n{1026-2} Definitions.\n\n{1026-2-a} Item.\n"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
}

func TestCSVLoader(t *testing.T) {
	input := "label,text\na,Scope of the part.\na-1,\"Applies, with exceptions.\"\nb,\n,Unlabeled row.\n"
	doc, err := (&CSVLoader{}).Load(strings.NewReader(input), "rows.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{a} Scope of the part.\n\n{a-1} Applies, with exceptions.\n\n{b}\n\nUnlabeled row.\n"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
	if doc.Title != "rows" {
		t.Errorf("expected title %q, got %q", "rows", doc.Title)
	}
}

func TestPDFBlocks(t *testing.T) {
	got := pdfBlocks("{a} Page one.\n\n{b} Still one.\f{c} Page two.\r\n")
	want := "{a} Page one.\n\n{b} Still one.\n\n{c} Page two.\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDOCXLoaderRejectsGarbage(t *testing.T) {
	if _, err := (&DOCXLoader{}).Load(strings.NewReader("not a zip"), "bad.docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}
