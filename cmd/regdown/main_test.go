package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/regdown/internal/labelstore"
	"github.com/dgallion1/regdown/internal/regdown"
)

type countingStore struct {
	mu      sync.Mutex
	entries labelstore.MapStore
	lookups map[string]int
}

func (s *countingStore) Lookup(ctx context.Context, label string) (*labelstore.Entry, error) {
	s.mu.Lock()
	s.lookups[label]++
	s.mu.Unlock()
	return s.entries.Lookup(ctx, label)
}

func TestResolverReadsStoreOncePerLabel(t *testing.T) {
	store := &countingStore{
		entries: labelstore.MapStore{"appendix-a": {Contents: "{A-1} Form."}},
		lookups: map[string]int{},
	}
	refs := newResolver(store, "/appendix/{label}", slog.New(slog.DiscardHandler))

	cfg := regdown.DefaultConfig()
	cfg.URLResolver = refs.URL
	cfg.ContentsResolver = refs.Contents
	cfg.RenderBlockReference = func(_ context.Context, contents, url string) (string, error) {
		return `<aside data-url="` + url + `">` + contents + `</aside>`, nil
	}

	out, err := regdown.New(cfg).Render(context.Background(), "see(appendix-a)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "/appendix/appendix-a") {
		t.Errorf("expected templated url in %q", out)
	}
	if !strings.Contains(out, "{A-1} Form.") {
		t.Errorf("expected referenced contents in %q", out)
	}
	if n := store.lookups["appendix-a"]; n != 1 {
		t.Errorf("expected 1 store lookup, got %d", n)
	}
}
