// Package render provides the two reader-facing renderers of the pipeline.
// This file implements the feed-card preview: media folded into one
// placeholder per kind, plus a "read more" marker for long posts.
package render

import (
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/extract"
	"github.com/gaurav-prasanna/postpipe/core/markup"
)

const (
	// DefaultMaxChars is the plain-text budget of a feed card.
	DefaultMaxChars = 200
	// DefaultMarker is appended when a post exceeds the budget.
	DefaultMarker = "... (read more)"
)

// PreviewOptions configures a PreviewRenderer.
type PreviewOptions struct {
	MaxChars int
	Policy   core.PlaceholderPolicy
	Marker   string
}

// PreviewRenderer produces the truncated feed-card markup.
type PreviewRenderer struct {
	opts PreviewOptions
}

// NewPreviewRenderer creates a PreviewRenderer, filling in defaults.
func NewPreviewRenderer(opts PreviewOptions) *PreviewRenderer {
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.Policy == nil {
		opts.Policy = core.DefaultPlaceholderPolicy()
	}
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	return &PreviewRenderer{opts: opts}
}

// Render returns the preview markup for a normalized tree. The input tree
// is not modified.
//
// The first node of each policy kind becomes a placeholder and later nodes
// of that kind are dropped; this happens before, and regardless of, the
// length check. Markup is never clipped: a long post only gets the marker
// appended after the serialized fragment.
func (r *PreviewRenderer) Render(tree *markup.Tree) string {
	t := tree.Clone()

	placed := make(map[core.MediaKind]bool)
	extract.Walk(t.Root(), func(n *html.Node, kind core.MediaKind) {
		ph, ok := r.opts.Policy[kind]
		if !ok {
			return
		}
		if placed[kind] {
			markup.Detach(n)
			return
		}
		placed[kind] = true
		markup.Replace(n, placeholderNode(n.Parent, kind, ph))
	})

	out := t.String()
	if utf8.RuneCountInString(t.PlainText()) > r.opts.MaxChars {
		out += markup.Render(markup.Append(
			markup.Element("span", "class", markup.ClassReadMore),
			markup.Text(r.opts.Marker),
		))
	}
	return out
}

// placeholderNode builds the stand-in for kind. Inside phrasing content it
// is a <span> so the result re-parses to the same structure.
func placeholderNode(parent *html.Node, kind core.MediaKind, ph core.Placeholder) *html.Node {
	tag := "div"
	if !flowContainer(parent) {
		tag = "span"
	}
	class := markup.ClassPlaceholder
	if ph.Class != "" {
		class += " " + ph.Class
	}
	return markup.Append(
		markup.Element(tag, "class", class, "data-media-kind", string(kind)),
		markup.Append(markup.Element("span"), markup.Text(ph.Caption)),
	)
}

// flowContainers may hold a block-level <div>.
var flowContainers = map[atom.Atom]bool{
	atom.Body: true, atom.Div: true, atom.Figure: true, atom.Section: true,
	atom.Article: true, atom.Aside: true, atom.Main: true, atom.Header: true,
	atom.Footer: true, atom.Li: true, atom.Td: true, atom.Th: true,
	atom.Blockquote: true, atom.Dd: true, atom.Nav: true, atom.Details: true,
}

func flowContainer(n *html.Node) bool {
	return n == nil || (n.Type == html.ElementNode && flowContainers[n.DataAtom])
}
