package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// MarkdownExporter renders each session as a readable recipe
type MarkdownExporter struct{}

// Export exports bundles to Markdown format
func (e *MarkdownExporter) Export(bundles []*Bundle, w io.Writer) error {
	for i, b := range bundles {
		if i > 0 {
			_, _ = fmt.Fprintf(w, "\n---\n\n")
		}

		_, _ = fmt.Fprintf(w, "# Session %s\n\n", b.SessionID)

		if meta := b.Metadata; meta != nil {
			if meta.Goal != "" {
				_, _ = fmt.Fprintf(w, "**Goal:** %s  \n", escapeMarkdown(meta.Goal))
			}
			_, _ = fmt.Fprintf(w, "**Created:** %s  \n", meta.CreatedAt.UTC().Format(time.RFC3339))
			if len(meta.FlowTags) > 0 {
				_, _ = fmt.Fprintf(w, "**Flow tags:** %s  \n", strings.Join(meta.FlowTags, ", "))
			}
			if len(meta.Tags) > 0 {
				_, _ = fmt.Fprintf(w, "**Tags:** %s  \n", strings.Join(meta.Tags, ", "))
			}
			if meta.Git != nil && meta.Git.Branch != "" {
				_, _ = fmt.Fprintf(w, "**Branch:** %s  \n", meta.Git.Branch)
			}
		}
		_, _ = fmt.Fprintf(w, "**Steps:** %d\n\n", len(b.Steps))

		_, _ = fmt.Fprintf(w, "## Recipe\n\n")
		if b.Recipe == nil || len(b.Recipe.Recipe) == 0 {
			_, _ = fmt.Fprintf(w, "_No steps recorded._\n")
			continue
		}
		for _, rs := range b.Recipe.Recipe {
			_, _ = fmt.Fprintf(w, "%d. `%s` %s\n", rs.StepNumber, rs.Tool, escapeMarkdown(rs.Notes))
		}
	}

	return nil
}

// escapeMarkdown escapes emphasis markers in free text
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	text = strings.ReplaceAll(text, "__", "\\_\\_")
	return text
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
