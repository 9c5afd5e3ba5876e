package regdown

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/sha3"
)

var (
	// Inline interpretations, e.g. 6-a-Interp-1 or 12-b-interp-2-i.
	interpPrefixRe = regexp.MustCompile(`(?i)^(\w+-)+interp-`)

	// Appendix paragraphs, e.g. A-1-a or A2-intro-.
	appendixPrefixRe = regexp.MustCompile(`^[A-Z]\d?-\w+-?`)
)

// Level returns the nesting depth of a label: the number of hyphens left
// after the interpretation and appendix prefixes are stripped.
//
//	6-a-Interp-1     -> 0
//	12-b-Interp-2-i  -> 1
//	A-2-d-1          -> 1
func Level(label string) int {
	label = stripInterpPrefix(label)
	label = stripAppendixPrefix(label)
	return strings.Count(label, "-")
}

func stripInterpPrefix(label string) string {
	return interpPrefixRe.ReplaceAllLiteralString(label, "")
}

func stripAppendixPrefix(label string) string {
	return appendixPrefixRe.ReplaceAllLiteralString(label, "")
}

// LevelClass returns the CSS class list for a labeled block.
func LevelClass(label string) string {
	return fmt.Sprintf("%s level-%d", blockClass, Level(label))
}

// HashID returns the content-addressed id given to unlabeled paragraphs:
// the hex SHA3-224 digest of the text with leading whitespace removed.
func HashID(text string) string {
	h := sha3.Sum224([]byte(strings.TrimLeftFunc(text, unicode.IsSpace)))
	return fmt.Sprintf("%x", h[:])
}
