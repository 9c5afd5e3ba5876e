package labelstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type countingStore struct {
	MapStore
	calls int
	err   error
}

func (s *countingStore) Lookup(ctx context.Context, label string) (*Entry, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.MapStore.Lookup(ctx, label)
}

func TestResolver(t *testing.T) {
	store := &countingStore{MapStore: MapStore{
		"a":    {Label: "a", Contents: "{a} Text.", URL: "/own/a"},
		"b-12": {Label: "b-12", Contents: "{b-12} Other."},
	}}
	r := NewResolver(store, NewCache(time.Minute), "/regs/{label}#top", nil)
	ctx := context.Background()

	if got := r.Contents(ctx, "a"); got != "{a} Text." {
		t.Errorf("expected %q, got %q", "{a} Text.", got)
	}
	if got := r.URL(ctx, "a"); got != "/own/a" {
		t.Errorf("expected entry url, got %q", got)
	}
	if got := r.URL(ctx, "b-12"); got != "/regs/b-12#top" {
		t.Errorf("expected templated url, got %q", got)
	}
	if got := r.Contents(ctx, "missing"); got != "" {
		t.Errorf("expected empty contents, got %q", got)
	}
	r.Contents(ctx, "missing")

	if store.calls != 3 {
		t.Errorf("expected 3 store lookups with caching, got %d", store.calls)
	}
}

func TestResolverStoreFailure(t *testing.T) {
	store := &countingStore{err: errors.New("down")}
	r := NewResolver(store, NewCache(time.Minute), "", nil)
	ctx := context.Background()

	if got := r.Contents(ctx, "a"); got != "" {
		t.Errorf("expected empty contents on failure, got %q", got)
	}
	r.Contents(ctx, "a")
	if store.calls != 2 {
		t.Errorf("expected failures not to be cached, got %d lookups", store.calls)
	}
	if got := r.URL(ctx, "a"); got != "" {
		t.Errorf("expected empty url without template, got %q", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", &Entry{Contents: "x"})
	c.Set("missing", nil)
	if e, ok := c.Get("a"); !ok || e.Contents != "x" {
		t.Fatalf("expected cached entry, got %+v %v", e, ok)
	}
	if e, ok := c.Get("missing"); !ok || e != nil {
		t.Fatalf("expected cached miss, got %+v %v", e, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expected expired entry to be dropped")
	}
	if c.Len() != 1 {
		t.Errorf("expected lazy expiry to remove one entry, got len %d", c.Len())
	}

	c.Invalidate("missing")
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got len %d", c.Len())
	}
}

func TestLoadYAML(t *testing.T) {
	input := `appendix-a:
  url: /appendix-a
  contents: |
    {A-1} Model form.
12-a: "{12-a} Plain contents."
`
	m, err := LoadYAML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m))
	}
	a := m["appendix-a"]
	if a.Label != "appendix-a" || a.URL != "/appendix-a" || a.Contents != "{A-1} Model form.\n" {
		t.Errorf("unexpected entry: %+v", a)
	}
	if got := m["12-a"].Contents; got != "{12-a} Plain contents." {
		t.Errorf("expected %q, got %q", "{12-a} Plain contents.", got)
	}
	if labels := m.Labels(); labels[0] != "12-a" || labels[1] != "appendix-a" {
		t.Errorf("expected sorted labels, got %v", labels)
	}
}

func TestLoadYAMLEmpty(t *testing.T) {
	m, err := LoadYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty store, got %d entries", len(m))
	}
}

func TestLoadCSV(t *testing.T) {
	input := "label,contents,url\na,\"{a} Text, with comma.\",/a\nb,{b} Other.\n"
	m, err := LoadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m))
	}
	if m["a"].Contents != "{a} Text, with comma." || m["a"].URL != "/a" {
		t.Errorf("unexpected entry: %+v", m["a"])
	}
	if m["b"].URL != "" {
		t.Errorf("expected no url, got %q", m["b"].URL)
	}

	if _, err := LoadCSV(strings.NewReader("only-label\n")); err == nil {
		t.Error("expected error for a row without contents")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.yml")
	if err := os.WriteFile(path, []byte("x: \"{x} body\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["x"].Contents != "{x} body" {
		t.Errorf("unexpected entry: %+v", m["x"])
	}

	bad := filepath.Join(dir, "refs.json")
	if err := os.WriteFile(bad, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestResolverInvalidate(t *testing.T) {
	store := &countingStore{MapStore: MapStore{}}
	r := NewResolver(store, NewCache(time.Minute), "", nil)
	ctx := context.Background()

	if got := r.Contents(ctx, "late"); got != "" {
		t.Fatalf("expected empty contents, got %q", got)
	}
	store.MapStore["late"] = Entry{Contents: "{late} Added."}
	if got := r.Contents(ctx, "late"); got != "" {
		t.Fatalf("expected cached miss, got %q", got)
	}

	r.Invalidate("late")
	if got := r.Contents(ctx, "late"); got != "{late} Added." {
		t.Errorf("expected fresh contents after invalidate, got %q", got)
	}
	if store.calls != 2 {
		t.Errorf("expected 2 store lookups, got %d", store.calls)
	}
}

func TestMapStoreList(t *testing.T) {
	m := MapStore{"b": {Contents: "B"}, "a": {Contents: "A"}, "c": {Contents: "C"}}

	all, err := m.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].Label != "a" || all[2].Label != "c" {
		t.Errorf("expected all entries in label order, got %+v", all)
	}

	two, _ := m.List(context.Background(), 2)
	if len(two) != 2 || two[1].Label != "b" {
		t.Errorf("expected first two entries, got %+v", two)
	}
}
