package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var csvLabelRe = regexp.MustCompile(`^[\w\-]+$`)

// CSVLoader handles label,text spreadsheets: each row becomes a {label}
// paragraph. Rows with an empty or malformed label keep only their text.
// A first row of "label,text" is treated as a header.
type CSVLoader struct{}

func (l *CSVLoader) Load(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "label") {
		records = records[1:]
	}

	var blocks []string
	for _, row := range records {
		label := strings.TrimSpace(row[0])
		text := ""
		if len(row) > 1 {
			text = strings.TrimSpace(strings.Join(row[1:], ", "))
		}
		switch {
		case csvLabelRe.MatchString(label) && text != "":
			blocks = append(blocks, "{"+label+"} "+text)
		case csvLabelRe.MatchString(label):
			blocks = append(blocks, "{"+label+"}")
		default:
			blocks = append(blocks, text)
		}
	}

	return &Document{
		Title: titleFromFilename(filename),
		Text:  joinBlocks(blocks),
	}, nil
}
