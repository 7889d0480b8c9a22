package assignment

import (
	"strings"
)

// ParseHeadings turns free text (one heading per line) into an ordered list of
// unique, trimmed, non-blank headings. The first occurrence wins.
func ParseHeadings(text string) []string {
	return uniqueHeadings(strings.Split(text, "\n"))
}

func uniqueHeadings(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
