package ocr

import (
	"regexp"
	"strings"
)

// JoinLines concatenates the non-empty line texts of all pages, in engine
// order, separated by newlines.
func JoinLines(pages []Page) string {
	var lines []string
	for _, page := range pages {
		for _, line := range page {
			if line.Text != "" {
				lines = append(lines, line.Text)
			}
		}
	}
	return strings.Join(lines, "\n")
}

var reSpaceRun = regexp.MustCompile(`[ \t]+`)

// NormalizeText collapses noisy whitespace while keeping line structure:
// runs of spaces and tabs become one space, lines are trimmed, repeated
// blank lines collapse to one and the result is trimmed.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	compact := make([]string, 0, len(lines))
	for _, ln := range lines {
		ln = strings.TrimSpace(reSpaceRun.ReplaceAllString(ln, " "))
		if ln == "" && len(compact) > 0 && compact[len(compact)-1] == "" {
			continue
		}
		compact = append(compact, ln)
	}
	return strings.TrimSpace(strings.Join(compact, "\n"))
}
