package normalize

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/markup"
)

// assetAttributes are the attributes known to carry an asset reference.
var assetAttributes = []struct {
	selector string
	attr     string
}{
	{"img[src]", "src"},
	{"video[src]", "src"},
	{"video source[src]", "src"},
	{"audio[src]", "src"},
	{"audio source[src]", "src"},
	{"[data-file-url]", "data-file-url"},
	{"[data-video-url]", "data-video-url"},
}

// RewriteAssetURLs prefixes root-relative upload URLs with base. Absolute
// URLs and paths outside the upload prefixes are left alone, so applying it
// twice is the same as applying it once.
func RewriteAssetURLs(tree *markup.Tree, base string, prefixes assets.Prefixes) {
	if base == "" {
		return
	}
	root := tree.Selection()
	for _, a := range assetAttributes {
		root.Find(a.selector).Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(a.attr)
			if abs := prefixes.Absolutize(v, base); abs != v {
				s.SetAttr(a.attr, abs)
			}
		})
	}
}

// StripAuthoringControls removes editor-only elements from the tree.
func StripAuthoringControls(tree *markup.Tree) {
	tree.Selection().Find(markup.AuthoringControlSelector).Remove()
}
