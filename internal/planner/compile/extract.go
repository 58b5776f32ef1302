package compile

import "strings"

// stripMarkdownFences removes a single leading/trailing ```json or ```
// fence pair, tolerating a language tag and surrounding whitespace. It
// leaves the input untouched if no fence is present, since well-behaved
// models sometimes already return bare JSON.
func stripMarkdownFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	lines := strings.Split(t, "\n")
	if len(lines) < 2 {
		return s
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		return s
	}
	last := len(lines) - 1
	if strings.TrimSpace(lines[last]) != "```" {
		return s
	}
	return strings.Join(lines[1:last], "\n")
}
