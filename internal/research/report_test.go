package research

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchkit/deep-research-mcp/internal/agents"
)

func textPart(value string, anns ...agents.Annotation) agents.ContentPart {
	return agents.ContentPart{
		Type: "text",
		Text: &agents.TextContent{Value: value, Annotations: anns},
	}
}

func citation(title, url string) agents.Annotation {
	return agents.Annotation{
		Type:        "url_citation",
		URLCitation: &agents.URLCitation{Title: title, URL: url},
	}
}

func TestAssembleReport_JoinsTrimmedSegments(t *testing.T) {
	msg := &agents.Message{
		ID:   "msg_1",
		Role: agents.RoleAgent,
		Content: []agents.ContentPart{
			textPart("  First paragraph.  "),
			textPart("\nSecond paragraph.\n"),
			textPart("Third."),
		},
	}

	got := AssembleReport(msg)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.\n\nThird.", got)
}

func TestAssembleReport_DeduplicatesCitationsFirstTitleWins(t *testing.T) {
	msg := &agents.Message{
		ID:   "msg_1",
		Role: agents.RoleAgent,
		Content: []agents.ContentPart{
			textPart("Body.",
				citation("First Title", "https://example.com/a"),
				citation("Second Title", "https://example.com/a"),
				citation("Other", "https://example.com/b"),
			),
		},
	}

	got := AssembleReport(msg)
	require.Contains(t, got, "## References")
	assert.Contains(t, got, "- [First Title](https://example.com/a)\n")
	assert.NotContains(t, got, "Second Title")
	assert.Contains(t, got, "- [Other](https://example.com/b)\n")
	// Each URL exactly once.
	assert.Equal(t, 1, strings.Count(got, "https://example.com/a"))
}

func TestAssembleReport_TitleFallsBackToURL(t *testing.T) {
	msg := &agents.Message{
		Content: []agents.ContentPart{
			textPart("Body.", citation("", "https://example.com/untitled")),
		},
	}

	got := AssembleReport(msg)
	assert.Contains(t, got, "- [https://example.com/untitled](https://example.com/untitled)\n")
}

func TestAssembleReport_NoCitationsNoReferencesSection(t *testing.T) {
	msg := &agents.Message{
		Content: []agents.ContentPart{textPart("Just prose.")},
	}

	got := AssembleReport(msg)
	assert.Equal(t, "Just prose.", got)
	assert.NotContains(t, got, "## References")
}

func TestAssembleReport_NilMessage(t *testing.T) {
	assert.Equal(t, "", AssembleReport(nil))
}

func TestAssembleReport_PreservesFirstSeenOrder(t *testing.T) {
	msg := &agents.Message{
		Content: []agents.ContentPart{
			textPart("Body.",
				citation("B", "https://example.com/b"),
				citation("A", "https://example.com/a"),
				citation("B again", "https://example.com/b"),
			),
		},
	}

	got := AssembleReport(msg)
	ib := strings.Index(got, "https://example.com/b")
	ia := strings.Index(got, "https://example.com/a")
	require.GreaterOrEqual(t, ib, 0)
	require.GreaterOrEqual(t, ia, 0)
	assert.Less(t, ib, ia, "first-seen citation should come first")
}

func TestDedupCitations(t *testing.T) {
	msg := &agents.Message{
		Content: []agents.ContentPart{
			textPart("Body.",
				citation("One", "https://example.com/1"),
				citation("", "https://example.com/2"),
				citation("Dup", "https://example.com/1"),
			),
		},
	}

	cits := DedupCitations(msg)
	require.Len(t, cits, 2)
	assert.Equal(t, "One", cits[0].Title)
	assert.Equal(t, "https://example.com/2", cits[1].Title, "empty title falls back to URL")
	assert.Nil(t, DedupCitations(nil))
}
