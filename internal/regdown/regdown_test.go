package regdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/regdown/internal/doctree"
)

const regulation = `# Part 1026

{1026-1}

{1026-1-a} **Authority.** This part is issued under 15 U.S.C. 1604.

{1026-1-a-1} Each form shall state the name ____

Text without a label, citing § 1026.2---the definitions.

{6-a-Interp-1} Comment on paragraph (a).

see(appendix-a)
`

func refsConfig() Config {
	cfg := DefaultConfig()
	cfg.ContentsResolver = contentsFrom(map[string]string{
		"appendix-a": "{A-1-a} Model form.",
	})
	cfg.URLResolver = func(_ context.Context, label string) string {
		return "/appendix/" + label
	}
	return cfg
}

func TestTreeLabels(t *testing.T) {
	tree, err := New(refsConfig()).Tree(context.Background(), regulation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Part 1026" {
		t.Errorf("expected title %q, got %q", "Part 1026", tree.Title)
	}

	want := []doctree.Label{
		{ID: "1026-1", Label: "1026-1", Level: 1, Tag: "div"},
		{ID: "1026-1-a", Label: "1026-1-a", Level: 2, Tag: "p"},
		{ID: "1026-1-a-1", Label: "1026-1-a-1", Level: 3, Tag: "p"},
		{ID: HashID("Text without a label, citing § 1026.2---the definitions."), Label: "", Level: 0, Tag: "p"},
		{ID: "6-a-Interp-1", Label: "6-a-Interp-1", Level: 0, Tag: "p"},
		{ID: "A-1-a", Label: "A-1-a", Level: 0, Tag: "p"},
	}
	got := tree.Labels()
	if len(got) != len(want) {
		t.Fatalf("expected %d labels, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	quote := tree.Find("A-1-a")
	if quote == nil || quote.TextContent() != "Model form." {
		t.Errorf("expected quoted appendix paragraph, got %+v", quote)
	}
}

func TestRenderIdempotentAttributes(t *testing.T) {
	r := New(refsConfig())
	first, err := r.Tree(context.Background(), regulation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := first.HTML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := doctree.FromHTML(strings.NewReader(out))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var before, after []map[string]string
	collect := func(dst *[]map[string]string) func(*doctree.Node, int) bool {
		return func(n *doctree.Node, _ int) bool {
			if _, ok := n.Attributes["data-label"]; ok {
				*dst = append(*dst, map[string]string{
					"id":         n.Attr("id"),
					"data-label": n.Attr("data-label"),
					"class":      n.Attr("class"),
				})
			}
			return true
		}
	}
	first.Walk(collect(&before))
	second.Walk(collect(&after))

	if len(before) == 0 || len(before) != len(after) {
		t.Fatalf("expected matching labeled nodes, got %d and %d", len(before), len(after))
	}
	for i := range before {
		for k, v := range before[i] {
			if after[i][k] != v {
				t.Errorf("node %d %s: expected %q, got %q", i, k, v, after[i][k])
			}
		}
	}
}

func TestPackageRender(t *testing.T) {
	out, err := Render(context.Background(), "{a} x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `id="a"`) {
		t.Errorf("expected labeled paragraph, got %q", out)
	}
}

func TestXHTMLOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.XHTML = true
	out := render(t, New(cfg), "{a} line one  \nline two")
	if !strings.Contains(out, "<br />") {
		t.Errorf("expected XHTML line break, got %q", out)
	}
}

func TestParseCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultConfig()).Render(ctx, "{a} x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConcurrentRender(t *testing.T) {
	r := New(refsConfig())
	want := render(t, r, regulation)

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Render(context.Background(), regulation)
			if err != nil {
				errs <- err.Error()
				return
			}
			if got != want {
				errs <- "output differs"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
