package labelstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MapStore is an in-memory Store, typically loaded from a references file.
type MapStore map[string]Entry

// Lookup implements Store.
func (m MapStore) Lookup(_ context.Context, label string) (*Entry, error) {
	e, ok := m[label]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Labels returns the stored labels in sorted order.
func (m MapStore) Labels() []string {
	labels := make([]string, 0, len(m))
	for l := range m {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// List returns up to limit entries in label order; limit <= 0 means all.
func (m MapStore) List(_ context.Context, limit int) ([]Entry, error) {
	labels := m.Labels()
	if limit > 0 && len(labels) > limit {
		labels = labels[:limit]
	}
	entries := make([]Entry, 0, len(labels))
	for _, l := range labels {
		e := m[l]
		e.Label = l
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadFile reads a references file, choosing the format by extension:
// .yaml/.yml or .csv.
func LoadFile(path string) (MapStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open references: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".csv":
		return LoadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported references format: %s", ext)
	}
}

// yamlEntry accepts either a plain string of contents or a mapping with
// contents and url.
type yamlEntry Entry

func (y *yamlEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		y.Contents = value.Value
		return nil
	}
	var e struct {
		Contents string `yaml:"contents"`
		URL      string `yaml:"url"`
	}
	if err := value.Decode(&e); err != nil {
		return err
	}
	y.Contents, y.URL = e.Contents, e.URL
	return nil
}

// LoadYAML reads a mapping of label to contents:
//
//	appendix-a:
//	  url: /appendix-a
//	  contents: |
//	    {A-1} Model form.
//	12-a: "{12-a} Plain contents."
func LoadYAML(r io.Reader) (MapStore, error) {
	var raw map[string]yamlEntry
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return MapStore{}, nil
		}
		return nil, fmt.Errorf("parse yaml references: %w", err)
	}
	m := make(MapStore, len(raw))
	for label, y := range raw {
		e := Entry(y)
		e.Label = label
		m[label] = e
	}
	return m, nil
}

// LoadCSV reads label,contents[,url] rows. A first row whose first cell is
// "label" is treated as a header.
func LoadCSV(r io.Reader) (MapStore, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv references: %w", err)
	}
	if len(records) > 0 && strings.EqualFold(records[0][0], "label") {
		records = records[1:]
	}

	m := make(MapStore, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("csv references row %d: expected label,contents[,url]", i+1)
		}
		e := Entry{Label: rec[0], Contents: rec[1]}
		if len(rec) > 2 {
			e.URL = rec[2]
		}
		m[e.Label] = e
	}
	return m, nil
}
