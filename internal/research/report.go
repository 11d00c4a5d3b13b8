package research

import (
	"fmt"
	"strings"

	"github.com/researchkit/deep-research-mcp/internal/agents"
	"github.com/researchkit/deep-research-mcp/internal/models"
)

// AssembleReport turns the final agent message into a markdown document:
// all text segments trimmed and joined by blank lines, followed by a
// References section when the message carries citation annotations.
// A nil message yields an empty report, which callers treat as "no content"
// rather than an error.
func AssembleReport(msg *agents.Message) string {
	if msg == nil {
		return ""
	}

	segs := msg.TextSegments()
	trimmed := make([]string, 0, len(segs))
	for _, s := range segs {
		trimmed = append(trimmed, strings.TrimSpace(s))
	}
	report := strings.Join(trimmed, "\n\n")

	cits := msg.URLCitations()
	if len(cits) == 0 {
		return report
	}

	var b strings.Builder
	b.WriteString(report)
	b.WriteString("\n\n## References\n")
	seen := make(map[string]bool, len(cits))
	for _, c := range cits {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		title := c.Title
		if title == "" {
			title = c.URL
		}
		fmt.Fprintf(&b, "- [%s](%s)\n", title, c.URL)
	}
	return b.String()
}

// DedupCitations returns the message's URL citations with each URL listed
// once, keeping the first-seen title and order. Used when persisting the
// report document.
func DedupCitations(msg *agents.Message) []models.Citation {
	if msg == nil {
		return nil
	}
	var out []models.Citation
	seen := make(map[string]bool)
	for _, c := range msg.URLCitations() {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		title := c.Title
		if title == "" {
			title = c.URL
		}
		out = append(out, models.Citation{Title: title, URL: c.URL})
	}
	return out
}
