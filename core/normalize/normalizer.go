// Package normalize implements the Normalizer interface.
// It turns raw editor markup into a repaired content tree by:
//  1. Re-parsing text runs that are themselves serialized markup
//  2. Absolutizing root-relative upload URLs against the asset host
//  3. Optionally stripping editor-only controls (reader-only contexts)
package normalize

import (
	"log/slog"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/markup"
)

// DefaultMaxRepairPasses bounds RepairEncoding on adversarial input.
const DefaultMaxRepairPasses = 8

// Options configures a Normalizer.
type Options struct {
	BaseURL                string
	Prefixes               assets.Prefixes
	MaxRepairPasses        int
	StripAuthoringControls bool
	Logger                 *slog.Logger
}

// Normalizer repairs raw markup. It holds no mutable state and is safe for
// concurrent use.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer, filling in defaults for zero-valued options.
func New(opts Options) *Normalizer {
	if opts.MaxRepairPasses <= 0 {
		opts.MaxRepairPasses = DefaultMaxRepairPasses
	}
	if len(opts.Prefixes) == 0 {
		opts.Prefixes = assets.NewPrefixes()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Normalizer{opts: opts}
}

// Normalize parses raw and applies repair, URL rewriting and (when enabled)
// authoring-control stripping. It never fails; unparseable input comes back
// as an escaped text leaf.
func (n *Normalizer) Normalize(raw string) *markup.Tree {
	tree := markup.Parse(raw)
	if tree.Degraded() {
		n.opts.Logger.Debug("content degraded to text",
			"err", core.Classify(core.ParseRecoverable, "parse", tree.Err()))
		return tree
	}

	passes, failures := RepairEncoding(tree, n.opts.MaxRepairPasses)
	for _, err := range failures {
		n.opts.Logger.Debug("embedded markup left as text",
			"err", core.Classify(core.ParseRecoverable, "repair", err))
	}
	if passes >= n.opts.MaxRepairPasses {
		n.opts.Logger.Debug("repair pass limit reached", "passes", passes)
	}

	RewriteAssetURLs(tree, n.opts.BaseURL, n.opts.Prefixes)
	if n.opts.StripAuthoringControls {
		StripAuthoringControls(tree)
	}
	return tree
}

// NormalizeString is Normalize followed by serialization.
func (n *Normalizer) NormalizeString(raw string) string {
	return n.Normalize(raw).String()
}
