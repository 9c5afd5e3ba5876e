package labelstore

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// Resolver adapts a Store to the resolver callbacks of the regdown pipeline.
// Lookups are cached; store failures are logged and resolve to "".
type Resolver struct {
	store       Store
	cache       *Cache
	urlTemplate string
	log         *slog.Logger
}

// NewResolver wraps store. urlTemplate, when set, builds URLs for entries
// that carry none; "{label}" in it is replaced by the path-escaped label.
// A nil cache disables caching.
func NewResolver(store Store, cache *Cache, urlTemplate string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		store:       store,
		cache:       cache,
		urlTemplate: urlTemplate,
		log:         log,
	}
}

// Lookup returns the entry for label, going through the cache.
func (r *Resolver) Lookup(ctx context.Context, label string) (*Entry, error) {
	if r.cache != nil {
		if e, ok := r.cache.Get(label); ok {
			return e, nil
		}
	}
	e, err := r.store.Lookup(ctx, label)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(label, e)
	}
	return e, nil
}

func (r *Resolver) lookup(ctx context.Context, label string) *Entry {
	e, err := r.Lookup(ctx, label)
	if err != nil {
		r.log.WarnContext(ctx, "label lookup failed", "label", label, "error", err)
		return nil
	}
	return e
}

// Contents returns the regdown text for label, or "".
func (r *Resolver) Contents(ctx context.Context, label string) string {
	if e := r.lookup(ctx, label); e != nil {
		return e.Contents
	}
	return ""
}

// URL returns the entry's own URL, else the templated one, else "".
func (r *Resolver) URL(ctx context.Context, label string) string {
	if e := r.lookup(ctx, label); e != nil && e.URL != "" {
		return e.URL
	}
	return r.TemplateURL(label)
}

// TemplateURL fills the URL template for label.
func (r *Resolver) TemplateURL(label string) string {
	if r.urlTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(r.urlTemplate, "{label}", url.PathEscape(label))
}

// Invalidate drops any cached lookup of label.
func (r *Resolver) Invalidate(label string) {
	if r.cache != nil {
		r.cache.Invalidate(label)
	}
}
