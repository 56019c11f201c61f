// Package export turns a rendered post into files for archiving: Markdown,
// a JSON manifest, or a PDF.
package export

import (
	"fmt"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/markup"
)

// Document is one post ready for export.
type Document struct {
	Title      string
	Source     string
	ExportedAt time.Time
	// HTML is the reader full view.
	HTML     string
	Markdown string
	Text     string
	Media    []core.MediaReference
}

// Exporter writes a Document in one format.
type Exporter interface {
	Export(doc Document) ([]byte, error)
	Extension() string
}

// NewDocument converts the reader full view to Markdown and plain text.
func NewDocument(title, source, fullHTML string, media []core.MediaReference) (Document, error) {
	md, err := htmltomarkdown.ConvertString(fullHTML)
	if err != nil {
		return Document{}, fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return Document{
		Title:      title,
		Source:     source,
		ExportedAt: time.Now().UTC(),
		HTML:       fullHTML,
		Markdown:   md,
		Text:       markup.Parse(fullHTML).PlainText(),
		Media:      media,
	}, nil
}
