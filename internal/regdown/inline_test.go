package regdown

import (
	"strings"
	"testing"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

func TestEmDash(t *testing.T) {
	got := render(t, New(DefaultConfig()), "{a} one---two")
	if !strings.Contains(got, "one&mdash;two") {
		t.Errorf("expected em-dash, got %q", got)
	}

	n := emDashParser{}.Parse(nil, text.NewReader([]byte("---")), parser.NewContext())
	if _, ok := n.(*EmDash); !ok {
		t.Fatalf("expected *EmDash, got %T", n)
	}
	if n := (emDashParser{}).Parse(nil, text.NewReader([]byte("--")), parser.NewContext()); n != nil {
		t.Errorf("expected no match for two hyphens, got %T", n)
	}
}

func TestPseudoFormParser(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		match  bool
		extend bool
		width  int
	}{
		{"end of text", "____", true, true, 4},
		{"line end", "____\n", true, true, 4},
		{"trailing blanks", "____ \t\n", true, true, 4},
		{"crlf", "__\r\n", true, true, 2},
		{"line follows", "____ \t\nnext", true, false, 4},
		{"blank lines follow", "____\n  \n", true, true, 4},
		{"text follows", "____ name", true, false, 4},
		{"single", "_", false, false, 0},
		{"capped", strings.Repeat("_", 60), true, false, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := text.NewReader([]byte(tt.input))
			n := pseudoFormParser{}.Parse(nil, reader, parser.NewContext())
			if !tt.match {
				if n != nil {
					t.Fatalf("expected no match, got %T", n)
				}
				return
			}
			form, ok := n.(*PseudoForm)
			if !ok {
				t.Fatalf("expected *PseudoForm, got %T", n)
			}
			if form.Extend != tt.extend {
				t.Errorf("expected extend=%v, got %v", tt.extend, form.Extend)
			}
			txt, ok := form.FirstChild().(*ast.Text)
			if !ok {
				t.Fatalf("expected text child, got %T", form.FirstChild())
			}
			if txt.Segment.Len() != tt.width {
				t.Errorf("expected %d underscores, got %d", tt.width, txt.Segment.Len())
			}
		})
	}
}

func TestPseudoFormRender(t *testing.T) {
	r := New(DefaultConfig())
	want := `<p id="a" data-label="a" class="regdown-block level-0">Name <span class="regdown-form_extend">____<span></span></span></p>` + "\n"
	for _, src := range []string{"{a} Name ____", "{a} Name ____\n", "{a} Name ____  \n"} {
		if got := render(t, r, src); got != want {
			t.Errorf("%q: expected %q, got %q", src, want, got)
		}
	}

	got := render(t, r, "{a} Name ____\nDate ____")
	if !strings.Contains(got, `Name <span class="regdown-form">____</span>`) {
		t.Errorf("expected plain blank before a following line, got %q", got)
	}
	if !strings.Contains(got, `Date <span class="regdown-form_extend">____<span></span></span></p>`) {
		t.Errorf("expected extended blank at paragraph end, got %q", got)
	}

	got = render(t, r, "{a} Name ____ here")
	if !strings.Contains(got, `<span class="regdown-form">____</span> here`) {
		t.Errorf("expected plain blank before text, got %q", got)
	}
}

func TestSectionSymbol(t *testing.T) {
	got := render(t, New(DefaultConfig()), "{a} See § 1026.1 and §§ 2.")
	if !strings.Contains(got, "§&#160;1026.1") {
		t.Errorf("expected non-breaking space after section symbol, got %q", got)
	}
	if !strings.Contains(got, "§§&#160;2.") {
		t.Errorf("expected non-breaking space after double section symbol, got %q", got)
	}
	if strings.Contains(got, "See&#160;") {
		t.Errorf("expected ordinary spaces left alone, got %q", got)
	}
}

func TestSectionSymbolLineBreak(t *testing.T) {
	r := New(DefaultConfig())
	for _, src := range []string{"{a} See §\n1026.1", "{a} See § \n1026.1"} {
		got := render(t, r, src)
		if !strings.Contains(got, "See §&#160;1026.1") {
			t.Errorf("%q: expected line joined with a non-breaking space, got %q", src, got)
		}
	}

	got := render(t, r, "{a} See\n1026.1")
	if !strings.Contains(got, "See\n1026.1") {
		t.Errorf("expected ordinary line break kept, got %q", got)
	}
}

func TestUnderscoreEmphasisDisabled(t *testing.T) {
	r := New(DefaultConfig())
	got := render(t, r, "{a} some _em_ text")
	if !strings.Contains(got, "some _em_ text") {
		t.Errorf("expected underscores kept literal, got %q", got)
	}
	got = render(t, r, "{a} some *em* text")
	if !strings.Contains(got, "some <em>em</em> text") {
		t.Errorf("expected asterisk emphasis, got %q", got)
	}
}

func TestEmStrong(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"{a} ***both***", "<strong><em>both</em></strong>"},
		{"{a} ***em*strong**", "<strong><em>em</em>strong</strong>"},
	}
	r := New(DefaultConfig())
	for _, tt := range tests {
		got := render(t, r, tt.input)
		if !strings.Contains(got, tt.want) {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestPseudoFormClass(t *testing.T) {
	if got := (&PseudoForm{}).Class(); got != "regdown-form" {
		t.Errorf("expected %q, got %q", "regdown-form", got)
	}
	if got := (&PseudoForm{Extend: true}).Class(); got != "regdown-form_extend" {
		t.Errorf("expected %q, got %q", "regdown-form_extend", got)
	}
}
