package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/markup"
)

// Classify returns the media kind of n, or KindNone. Rules are checked in a
// fixed order and depend only on n and its attributes:
//  1. authoring controls and generated placeholders/fallbacks → none
//  2. .file-attachment → file
//  3. .video-container, .video-wrapper, <video> → video
//  4. <audio> → audio
//  5. <iframe>, <embed>, <object> → embed
//  6. <img> → image
//  7. <a href> to a document, text or archive file → file
func Classify(n *html.Node) core.MediaKind {
	if n == nil || n.Type != html.ElementNode {
		return core.KindNone
	}
	switch {
	case markup.AuthoringControls.Match(n), markup.Generated.Match(n):
		return core.KindNone
	case markup.FileAttachments.Match(n):
		return core.KindFile
	case markup.VideoContainers.Match(n), n.DataAtom == atom.Video:
		return core.KindVideo
	case n.DataAtom == atom.Audio:
		return core.KindAudio
	case n.DataAtom == atom.Iframe, n.DataAtom == atom.Embed, n.DataAtom == atom.Object:
		return core.KindEmbed
	case n.DataAtom == atom.Img:
		return core.KindImage
	case n.DataAtom == atom.A:
		if href, ok := markup.Attr(n, "href"); ok && assets.IsDocumentExt(assets.Ext(href)) {
			return core.KindFile
		}
	}
	return core.KindNone
}

// videoSource resolves the playable URL of a video node or container,
// falling back to the backup attributes written at upload time.
func videoSource(n *html.Node) (url, mimeType string) {
	url, mimeType = playableSource(n, atom.Video)
	if usable(url) {
		return url, mimeType
	}
	backup := BackupHolder(n)
	if backup == nil {
		return url, mimeType
	}
	url = markup.AttrOr(backup, "data-video-url", url)
	if t, ok := markup.Attr(backup, "data-video-type"); ok && t != "" {
		mimeType = t
	}
	return url, mimeType
}

// playableSource reads the first <source src> or the element's own src.
func playableSource(n *html.Node, tag atom.Atom) (url, mimeType string) {
	media := n
	if !markup.IsElement(n, tag) {
		media = markup.FindFirst(n, func(c *html.Node) bool { return markup.IsElement(c, tag) })
		if media == nil {
			return "", ""
		}
	}
	if src, ok := markup.Attr(media, "src"); ok && usable(src) {
		return src, markup.AttrOr(media, "type", "")
	}
	source := markup.FindFirst(media, func(c *html.Node) bool { return markup.IsElement(c, atom.Source) })
	if source == nil {
		return "", ""
	}
	return markup.AttrOr(source, "src", ""), markup.AttrOr(source, "type", "")
}

// maxBackupDepth is how many ancestors are searched for backup attributes.
const maxBackupDepth = 3

// BackupHolder finds the element carrying data-video-url for a video node:
// the node itself, a descendant (.video-data), or an ancestor container.
func BackupHolder(n *html.Node) *html.Node {
	has := func(c *html.Node) bool {
		v, ok := markup.Attr(c, "data-video-url")
		return ok && usable(v)
	}
	if has(n) {
		return n
	}
	if d := markup.FindFirst(n, has); d != nil {
		return d
	}
	for depth, p := 0, n.Parent; depth < maxBackupDepth && p != nil && p.Type == html.ElementNode && p.DataAtom != atom.Body; depth, p = depth+1, p.Parent {
		if has(p) {
			return p
		}
		if d := markup.FindFirst(p, func(c *html.Node) bool {
			return markup.HasClass(c, markup.ClassVideoData) && has(c)
		}); d != nil {
			return d
		}
		if markup.VideoContainers.Match(p) || p.DataAtom == atom.Figure {
			break
		}
	}
	return nil
}

// usable reports whether a URL attribute value can actually be loaded.
func usable(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "undefined" && v != "null"
}
