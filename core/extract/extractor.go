// Package extract implements the Extractor interface.
// It enumerates the media embedded in a normalized tree by:
//  1. Classifying each element with a fixed, ordered rule table
//  2. Resolving the URL, storage key and attachment details of every match
//
// The walk is depth-first in document order and never descends into a
// classified node, so one media element always yields one reference.
package extract

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/markup"
)

// MediaExtractor resolves media references against a set of upload prefixes.
type MediaExtractor struct {
	prefixes assets.Prefixes
}

// New creates a MediaExtractor. No prefixes means the default /uploads/.
func New(prefixes assets.Prefixes) *MediaExtractor {
	if len(prefixes) == 0 {
		prefixes = assets.NewPrefixes()
	}
	return &MediaExtractor{prefixes: prefixes}
}

// Extract returns every media reference in first-seen, depth-first order.
func (e *MediaExtractor) Extract(tree *markup.Tree) []core.MediaReference {
	var refs []core.MediaReference
	Walk(tree.Root(), func(n *html.Node, kind core.MediaKind) {
		refs = append(refs, e.Reference(n, kind))
	})
	return refs
}

// Walk calls fn for each classified media node under root, in document
// order, without descending into matches.
func Walk(root *html.Node, fn func(n *html.Node, kind core.MediaKind)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == html.ElementNode {
				if kind := Classify(c); kind != core.KindNone {
					fn(c, kind)
				} else {
					walk(c)
				}
			}
			c = next
		}
	}
	walk(root)
}

// Reference builds the MediaReference for a node already classified as kind.
func (e *MediaExtractor) Reference(n *html.Node, kind core.MediaKind) core.MediaReference {
	ref := core.MediaReference{Kind: kind}
	switch kind {
	case core.KindImage:
		ref.URL = markup.AttrOr(n, "src", "")
	case core.KindVideo:
		ref.URL, ref.MimeType = videoSource(n)
	case core.KindAudio:
		ref.URL, ref.MimeType = playableSource(n, atom.Audio)
	case core.KindEmbed:
		ref.URL = markup.AttrOr(n, "src", markup.AttrOr(n, "data", ""))
	case core.KindFile:
		e.fillFile(n, &ref)
	}
	ref.URL = strings.TrimSpace(ref.URL)
	if ref.Resolvable() {
		ref.StorageKey = e.prefixes.StorageKey(ref.URL)
		if k, ok := markup.Attr(n, "data-storage-key"); ok && k != "" {
			ref.StorageKey = k
		}
	}
	if ref.Kind != core.KindFile {
		ref.FileType = assets.FileType(ref.URL)
		if ref.FileType == assets.FileTypeOther {
			ref.FileType = string(kind)
		}
	}
	ref.Previewable = assets.Previewable(ref.FileType)
	return ref
}

func (e *MediaExtractor) fillFile(n *html.Node, ref *core.MediaReference) {
	holder := n
	if _, ok := markup.Attr(n, "data-file-url"); !ok {
		if d := markup.FindFirst(n, func(c *html.Node) bool {
			_, ok := markup.Attr(c, "data-file-url")
			return ok
		}); d != nil {
			holder = d
		}
	}
	ref.URL = markup.AttrOr(holder, "data-file-url", "")
	if ref.URL == "" && markup.IsElement(n, atom.A) {
		ref.URL = markup.AttrOr(n, "href", "")
	}

	ref.DisplayName = markup.AttrOr(n, "data-file-name", "")
	if ref.DisplayName == "" {
		if nameNode := markup.FindFirst(n, func(c *html.Node) bool {
			return markup.HasClass(c, markup.ClassFileName)
		}); nameNode != nil {
			ref.DisplayName = markup.CollapseSpace(markup.TextContent(nameNode))
		}
	}
	if ref.DisplayName == "" {
		ref.DisplayName = assets.BaseName(ref.URL)
	}

	ref.SizeBytes = fileSize(n)

	ref.FileType = markup.AttrOr(n, "data-file-type", "")
	if ref.FileType == "" {
		ref.FileType = assets.FileType(ref.DisplayName)
		if ref.FileType == assets.FileTypeOther {
			ref.FileType = assets.FileType(ref.URL)
		}
	}
}

// fileSize prefers the exact data-file-bytes count. The human-readable
// data-file-size is rounded and only read for older markup.
func fileSize(n *html.Node) int64 {
	if v, ok := markup.Attr(n, "data-file-bytes"); ok {
		if b, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && b >= 0 {
			return b
		}
	}
	if v, ok := markup.Attr(n, "data-file-size"); ok {
		if b, err := humanize.ParseBytes(v); err == nil {
			return int64(b)
		}
	}
	return 0
}

// Keys returns the unique, non-empty storage keys of refs in first-seen order.
func Keys(refs []core.MediaReference) []string {
	set := assets.NewKeySet()
	for _, r := range refs {
		set.Add(r.StorageKey)
	}
	return set.All()
}
