package normalize

import (
	"fmt"
	"regexp"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/postpipe/core/markup"
)

var (
	// tagLike matches anything shaped like a start or end tag, raw or
	// entity-encoded any number of times.
	tagLike = regexp.MustCompile(`(?:<|&(?:amp;)*lt;)/?[a-zA-Z][^<>]*?(?:>|&(?:amp;)*gt;)`)
	// mediaMention matches media markup, raw or entity-encoded.
	mediaMention = regexp.MustCompile(`(?i)(?:<|&(?:amp;)*lt;)\s*(?:video|audio|source|iframe|img|figure|embed)\b|file-attachment|data-file-url|data-video-url`)
)

// verbatim elements whose text is shown as written and never repaired.
var verbatim = map[atom.Atom]bool{
	atom.Pre: true, atom.Code: true, atom.Textarea: true,
	atom.Script: true, atom.Style: true, atom.Title: true,
}

// looksSerialized reports whether a text run is media markup that was
// escaped on a round trip through storage.
func looksSerialized(s string) bool {
	return tagLike.MatchString(s) && mediaMention.MatchString(s)
}

// RepairEncoding re-parses text runs that hold serialized media markup and
// splices the resulting elements in place. It repeats until a pass changes
// nothing or maxPasses is reached, and returns the number of passes run and
// the fragments that could not be parsed (left as text). A repaired tree is
// re-parsed once so block elements never stay nested in phrasing content.
func RepairEncoding(tree *markup.Tree, maxPasses int) (int, []error) {
	var failures []error
	passes, repaired := 0, false
	for passes < maxPasses {
		passes++
		changed, errs := repairPass(tree.Root())
		failures = append(failures, errs...)
		if !changed {
			break
		}
		repaired = true
	}
	if repaired {
		tree.Reparse()
	}
	return passes, failures
}

func repairPass(root *html.Node) (bool, []error) {
	var candidates []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && verbatim[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode && looksSerialized(n.Data) {
			candidates = append(candidates, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	changed := false
	var failures []error
	for _, text := range candidates {
		parent := text.Parent
		nodes, err := markup.ParseIn(text.Data, parent)
		if err != nil {
			failures = append(failures, fmt.Errorf("re-parsing text run: %w", err))
			continue
		}
		if len(nodes) == 1 && nodes[0].Type == html.TextNode && nodes[0].Data == text.Data {
			continue
		}
		for _, n := range nodes {
			parent.InsertBefore(n, text)
		}
		parent.RemoveChild(text)
		changed = true
	}
	return changed, failures
}
