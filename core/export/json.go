package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gaurav-prasanna/postpipe/core"
)

// Manifest is the JSON export: the post's text and structure plus every
// media reference it carries.
type Manifest struct {
	Metadata  ManifestMetadata      `json:"metadata"`
	Content   ManifestContent       `json:"content"`
	Structure ManifestStructure     `json:"structure"`
	Media     []core.MediaReference `json:"media"`
}

type ManifestMetadata struct {
	Title      string `json:"title,omitempty"`
	Source     string `json:"source,omitempty"`
	ExportedAt string `json:"exported_at"`
	MediaCount int    `json:"media_count"`
}

type ManifestContent struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
}

type ManifestStructure struct {
	Headings []Heading `json:"headings"`
	Links    []Link    `json:"links"`
}

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// JSONExporter produces the JSON manifest.
type JSONExporter struct{}

// NewJSONExporter creates a JSONExporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export marshals the manifest with two-space indentation.
func (e *JSONExporter) Export(doc Document) ([]byte, error) {
	media := doc.Media
	if media == nil {
		media = []core.MediaReference{}
	}
	m := Manifest{
		Metadata: ManifestMetadata{
			Title:      doc.Title,
			Source:     doc.Source,
			ExportedAt: doc.ExportedAt.UTC().Format(time.RFC3339),
			MediaCount: len(media),
		},
		Content: ManifestContent{
			Text:     doc.Text,
			Markdown: doc.Markdown,
		},
		Structure: ManifestStructure{
			Headings: extractHeadings(doc.Markdown),
			Links:    extractLinks(doc.Markdown),
		},
		Media: media,
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (e *JSONExporter) Extension() string {
	return ".json"
}

var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

func extractHeadings(md string) []Heading {
	matches := headingRegex.FindAllStringSubmatch(md, -1)
	headings := make([]Heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, Heading{Level: len(m[1]), Text: strings.TrimSpace(m[2])})
	}
	return headings
}

// linkRegex matches Markdown links [text](url), but not images.
var linkRegex = regexp.MustCompile(`(^|[^!])\[([^\]]*)\]\(([^)\s]+)[^)]*\)`)

func extractLinks(md string) []Link {
	matches := linkRegex.FindAllStringSubmatch(md, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, Link{Text: m[2], Href: m[3]})
	}
	return links
}
