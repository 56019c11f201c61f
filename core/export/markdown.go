package export

import (
	"fmt"
	"strings"
)

// MarkdownExporter writes the Markdown under an optional title heading.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a MarkdownExporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// Export returns the Markdown bytes.
func (e *MarkdownExporter) Export(doc Document) ([]byte, error) {
	var b strings.Builder
	if doc.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	}
	b.WriteString(strings.TrimSpace(doc.Markdown))
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (e *MarkdownExporter) Extension() string {
	return ".md"
}
