// Package markup wraps golang.org/x/net/html as the scratch tree for every
// pipeline pass. A Tree is a body-context fragment: its root is a synthetic
// <body> element whose children are the parsed content nodes.
package markup

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tree is a parsed RichContent fragment. It is not safe for concurrent mutation.
type Tree struct {
	root *html.Node
	err  error
}

func newBody() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

// Parse parses raw as a body-context fragment. It never fails: when the
// parser errors or panics the tree degrades to one escaped text leaf and
// Err reports why. <plaintext> and <xmp> elements come back as <pre>.
func Parse(raw string) (t *Tree) {
	root := newBody()
	defer func() {
		if r := recover(); r != nil {
			t = degraded(raw, fmt.Errorf("parser panic: %v", r))
		}
	}()

	nodes, err := html.ParseFragment(strings.NewReader(raw), root)
	if err != nil {
		return degraded(raw, fmt.Errorf("parsing fragment: %w", err))
	}
	for _, n := range nodes {
		defuseRawText(n)
		root.AppendChild(n)
	}
	return &Tree{root: root}
}

func degraded(raw string, err error) *Tree {
	root := newBody()
	root.AppendChild(Text(raw))
	return &Tree{root: root, err: err}
}

// ParseIn parses raw in the context of the given element, as the browser
// does for innerHTML assignment. Callers must handle the error themselves.
func ParseIn(raw string, context *html.Node) (nodes []*html.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			nodes, err = nil, fmt.Errorf("parser panic: %v", r)
		}
	}()
	if context == nil || context.Type != html.ElementNode {
		context = newBody()
	}
	if nodes, err = html.ParseFragment(strings.NewReader(raw), context); err != nil {
		return nil, err
	}
	for _, n := range nodes {
		defuseRawText(n)
	}
	return nodes, nil
}

// Reparse replaces t with a parse of its own serialization, moving nodes
// spliced in by hand to where the parser would have put them.
func (t *Tree) Reparse() {
	fresh := Parse(t.String())
	if fresh.Degraded() {
		return
	}
	t.root = fresh.root
}

// Err returns the reason the tree degraded to text, if it did.
func (t *Tree) Err() error { return t.err }

// Degraded reports whether the input could not be parsed as markup.
func (t *Tree) Degraded() bool { return t.err != nil }

// Root returns the synthetic body element.
func (t *Tree) Root() *html.Node { return t.root }

// Selection returns a goquery selection rooted at the body element.
func (t *Tree) Selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(t.root).Selection
}

// Clone returns a deep copy that shares no nodes with t.
func (t *Tree) Clone() *Tree {
	return &Tree{root: CloneNode(t.root), err: t.err}
}

// String serializes the fragment (the body's children, not the body itself).
func (t *Tree) String() string {
	var b strings.Builder
	for c := t.root.FirstChild; c != nil; c = c.NextSibling {
		// Parse leaves no <plaintext> behind and a Builder never fails, so
		// Render cannot stop early here.
		_ = html.Render(&b, c)
	}
	return b.String()
}

// PlainText returns the visible text with whitespace runs collapsed.
func (t *Tree) PlainText() string {
	return CollapseSpace(TextContent(t.root))
}

// CloneNode deep-copies n and its descendants.
func CloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(CloneNode(ch))
	}
	return c
}

// TextContent concatenates the text nodes under n, skipping script and style.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
