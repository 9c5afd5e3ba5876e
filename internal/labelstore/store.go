// Package labelstore supplies the contents and URLs that see(label)
// directives resolve to.
package labelstore

import (
	"context"
)

// Entry is what a label resolves to.
type Entry struct {
	Label    string `json:"label" yaml:"-"`
	Contents string `json:"contents" yaml:"contents"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Store looks labels up. A missing label is (nil, nil), not an error.
type Store interface {
	Lookup(ctx context.Context, label string) (*Entry, error)
}

// Editor is a Store whose entries can be changed.
type Editor interface {
	Store
	Put(ctx context.Context, e Entry) error
	Delete(ctx context.Context, label string) error
}

// Lister is a Store that can enumerate its entries.
type Lister interface {
	Store
	List(ctx context.Context, limit int) ([]Entry, error)
}
