package vision

import (
	"regexp"
	"strings"
)

var (
	// "1. ", "2) ", "10: " at the start of a line.
	listMarker = regexp.MustCompile(`^\s*\d+[.:)]\s*`)
	// "0 : ", "1 :" with spacing around the colon.
	spacedColonMarker = regexp.MustCompile(`^\s*\d+\s*:\s*`)
)

// StripNumbering removes leading list numbering that generative models add
// to their answers, line by line. Leading indentation is consumed along with
// the marker; lines without a marker are returned unchanged.
//
// The cleanup is best effort: a line that legitimately starts with a number
// followed by a period (a decimal, a year in a sentence) loses that prefix.
func StripNumbering(text string) string {
	if text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = listMarker.ReplaceAllString(line, "")
		lines[i] = spacedColonMarker.ReplaceAllString(line, "")
	}
	return strings.Join(lines, "\n")
}
