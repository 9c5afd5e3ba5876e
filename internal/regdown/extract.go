package regdown

import (
	"strings"
)

// ExtractLabeledParagraph returns the raw text of the region labeled label:
// its {label} line and every following line up to the next line carrying a
// different label. With exact unset, labels that merely start with label are
// part of the region too. It returns "" when no line carries the label.
func ExtractLabeledParagraph(label, text string, exact bool) string {
	var sb strings.Builder
	started := false
	for _, line := range strings.SplitAfter(text, "\n") {
		m := labelLineRe.FindStringSubmatch(line)
		if m == nil {
			if started {
				sb.WriteString(line)
			}
			continue
		}
		if matchesLabel(m[1], label, exact) {
			started = true
			sb.WriteString(line)
			continue
		}
		if started {
			break
		}
	}
	return sb.String()
}

func matchesLabel(found, label string, exact bool) bool {
	if exact {
		return found == label
	}
	return strings.HasPrefix(found, label)
}
