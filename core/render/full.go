// Package render — full single-document renderer.
// Rebuilds interactive media (video playback, attachment links) while
// keeping authoring controls in the tree, hidden, so the output can be
// loaded back into the editor.
package render

import (
	"errors"
	"log/slog"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/extract"
	"github.com/gaurav-prasanna/postpipe/core/markup"
	"github.com/gaurav-prasanna/postpipe/core/normalize"
)

var errMissingURL = errors.New("media node has no usable URL")

// Action is a link the full view attaches to a file attachment.
type Action struct {
	Label    string
	Href     string
	Download string
	Target   string
}

// Hooks is the callback table a FullRenderer is built with.
type Hooks struct {
	// FileAction builds the link shown in an attachment's actions bar.
	FileAction func(ref core.MediaReference) Action
	// OnUnresolved is told about every media node rendered as a fallback.
	OnUnresolved func(ref core.MediaReference)
}

// DefaultFileAction links straight to the file: "Preview" for types a
// browser shows inline, "Download" otherwise.
func DefaultFileAction(ref core.MediaReference) Action {
	label := "Download"
	if ref.Previewable {
		label = "Preview"
	}
	name := ref.DisplayName
	if name == "" {
		name = "download"
	}
	return Action{Label: label, Href: ref.URL, Download: name, Target: "_blank"}
}

// FullOptions configures a FullRenderer.
type FullOptions struct {
	BaseURL  string
	Prefixes assets.Prefixes
	Hooks    Hooks
	Logger   *slog.Logger
}

// FullRenderer produces the single-document markup.
type FullRenderer struct {
	opts      FullOptions
	extractor *extract.MediaExtractor
}

// NewFullRenderer creates a FullRenderer, filling in defaults.
func NewFullRenderer(opts FullOptions) *FullRenderer {
	if len(opts.Prefixes) == 0 {
		opts.Prefixes = assets.NewPrefixes()
	}
	if opts.Hooks.FileAction == nil {
		opts.Hooks.FileAction = DefaultFileAction
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &FullRenderer{opts: opts, extractor: extract.New(opts.Prefixes)}
}

// Render returns the full view of a normalized tree without modifying it.
// Running it on its own output (re-normalized) yields the same markup.
func (r *FullRenderer) Render(tree *markup.Tree) string {
	t := tree.Clone()
	normalize.RewriteAssetURLs(t, r.opts.BaseURL, r.opts.Prefixes)

	extract.Walk(t.Root(), func(n *html.Node, kind core.MediaKind) {
		switch kind {
		case core.KindVideo:
			r.video(n)
		case core.KindAudio:
			r.audio(n)
		case core.KindImage, core.KindEmbed:
			r.fallbackIfUnresolved(n, kind)
		case core.KindFile:
			r.file(n)
		}
	})

	hide(t.Root(), markup.AuthoringControls)
	return t.String()
}

// video repopulates a missing <source> from the backup attributes and makes
// sure the player has controls.
func (r *FullRenderer) video(n *html.Node) {
	ref := r.extractor.Reference(n, core.KindVideo)
	if !ref.Resolvable() {
		r.fallback(n, ref)
		return
	}
	src := r.opts.Prefixes.Absolutize(ref.URL, r.opts.BaseURL)

	player := n
	if !markup.IsElement(n, atom.Video) {
		player = markup.FindFirst(n, func(c *html.Node) bool { return markup.IsElement(c, atom.Video) })
		if player == nil {
			player = markup.Element("video")
			n.AppendChild(player)
		}
	}
	ensureControls(player)

	if own, ok := markup.Attr(player, "src"); ok {
		if (core.MediaReference{URL: own}).Resolvable() {
			return
		}
		// A present src wins over <source> children, even when unusable.
		markup.RemoveAttr(player, "src")
	}
	source := markup.FindFirst(player, func(c *html.Node) bool { return markup.IsElement(c, atom.Source) })
	if source == nil {
		source = markup.Element("source")
		player.InsertBefore(source, player.FirstChild)
	}
	if cur := markup.AttrOr(source, "src", ""); cur != src {
		markup.SetAttr(source, "src", src)
	}
	if _, ok := markup.Attr(source, "type"); !ok && ref.MimeType != "" {
		markup.SetAttr(source, "type", ref.MimeType)
	}
}

func (r *FullRenderer) audio(n *html.Node) {
	if r.fallbackIfUnresolved(n, core.KindAudio) {
		return
	}
	ensureControls(n)
}

// fallbackIfUnresolved swaps n for a fallback when it has no usable URL and
// reports whether it did. An iframe with inline srcdoc content needs no URL.
func (r *FullRenderer) fallbackIfUnresolved(n *html.Node, kind core.MediaKind) bool {
	ref := r.extractor.Reference(n, kind)
	if ref.Resolvable() {
		return false
	}
	if _, ok := markup.Attr(n, "srcdoc"); ok && kind == core.KindEmbed {
		return false
	}
	r.fallback(n, ref)
	return true
}

// file regenerates the attachment's action link from the FileAction hook.
func (r *FullRenderer) file(n *html.Node) {
	ref := r.extractor.Reference(n, core.KindFile)
	ref.URL = r.opts.Prefixes.Absolutize(ref.URL, r.opts.BaseURL)

	if markup.IsElement(n, atom.A) {
		if href := markup.AttrOr(n, "href", ""); href != ref.URL && ref.Resolvable() {
			markup.SetAttr(n, "href", ref.URL)
		}
		return
	}

	actions := markup.FindFirst(n, func(c *html.Node) bool { return markup.HasClass(c, markup.ClassFileActions) })
	if actions == nil {
		actions = markup.Element("div", "class", markup.ClassFileActions)
		n.AppendChild(actions)
	}
	for c := actions.FirstChild; c != nil; {
		next := c.NextSibling
		if markup.HasClass(c, markup.ClassDownloadButton) || markup.HasClass(c, markup.ClassFallback) {
			actions.RemoveChild(c)
		}
		c = next
	}

	if !ref.Resolvable() {
		r.unresolved(ref)
		actions.AppendChild(markup.Append(
			markup.Element("span", "class", markup.ClassFallback, "data-media-kind", string(core.KindFile)),
			markup.Text("File unavailable"),
		))
		return
	}

	a := r.opts.Hooks.FileAction(ref)
	link := markup.Element("a", "class", markup.ClassDownloadButton, "href", a.Href)
	if a.Download != "" {
		markup.SetAttr(link, "download", a.Download)
	}
	if a.Target != "" {
		markup.SetAttr(link, "target", a.Target)
		markup.SetAttr(link, "rel", "noopener")
	}
	actions.AppendChild(markup.Append(link, markup.Text(a.Label)))
}

// fallback swaps an unresolvable media node for a generic stand-in so the
// reader still sees that something was embedded there.
func (r *FullRenderer) fallback(n *html.Node, ref core.MediaReference) {
	r.unresolved(ref)
	label := map[core.MediaKind]string{
		core.KindVideo: "Video unavailable",
		core.KindImage: "Image unavailable",
		core.KindAudio: "Audio unavailable",
		core.KindEmbed: "Embedded content unavailable",
	}[ref.Kind]
	if label == "" {
		label = "Media unavailable"
	}
	tag := "div"
	if !flowContainer(n.Parent) {
		tag = "span"
	}
	markup.Replace(n, markup.Append(
		markup.Element(tag, "class", markup.ClassFallback, "data-media-kind", string(ref.Kind)),
		markup.Append(markup.Element("span", "class", "media-fallback-icon"), markup.Text(assets.Icon(string(ref.Kind)))),
		markup.Text(" "),
		markup.Append(markup.Element("span"), markup.Text(label)),
	))
}

func (r *FullRenderer) unresolved(ref core.MediaReference) {
	r.opts.Logger.Debug("media reference unresolvable",
		"kind", ref.Kind,
		"err", core.Classify(core.ReferenceUnresolvable, "render", errMissingURL))
	if r.opts.Hooks.OnUnresolved != nil {
		r.opts.Hooks.OnUnresolved(ref)
	}
}

func ensureControls(n *html.Node) {
	if _, ok := markup.Attr(n, "controls"); !ok {
		markup.SetAttr(n, "controls", "")
	}
}

// hide marks every match as hidden without removing it.
func hide(root *html.Node, m cascadia.Matcher) {
	for _, n := range cascadia.QueryAll(root, m) {
		if _, ok := markup.Attr(n, "hidden"); !ok {
			markup.SetAttr(n, "hidden", "")
		}
		markup.SetAttr(n, "aria-hidden", "true")
	}
}
