// Package pipeline wires the content stages together:
// raw markup → normalize → extract → {preview | full}.
//
// A Pipeline holds only read-only configuration and may be shared by every
// goroutine rendering a feed.
package pipeline

import (
	"log/slog"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/extract"
	"github.com/gaurav-prasanna/postpipe/core/normalize"
	"github.com/gaurav-prasanna/postpipe/core/render"
)

var (
	_ core.Normalizer = (*normalize.Normalizer)(nil)
	_ core.Extractor  = (*extract.MediaExtractor)(nil)
	_ core.Renderer   = (*render.PreviewRenderer)(nil)
	_ core.Renderer   = (*render.FullRenderer)(nil)
)

// Options configures a Pipeline.
type Options struct {
	BaseURL         string
	Prefixes        assets.Prefixes
	MaxRepairPasses int
	PreviewMaxChars int
	Policy          core.PlaceholderPolicy
	Hooks           render.Hooks
	Logger          *slog.Logger
}

// Pipeline renders RichContent for both reader contexts.
type Pipeline struct {
	reader    *normalize.Normalizer // strips authoring controls
	author    *normalize.Normalizer // keeps them for the editable full view
	extractor *extract.MediaExtractor
	preview   *render.PreviewRenderer
	full      *render.FullRenderer
}

// New builds a Pipeline from opts.
func New(opts Options) *Pipeline {
	if len(opts.Prefixes) == 0 {
		opts.Prefixes = assets.NewPrefixes()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	nopts := normalize.Options{
		BaseURL:         opts.BaseURL,
		Prefixes:        opts.Prefixes,
		MaxRepairPasses: opts.MaxRepairPasses,
		Logger:          opts.Logger,
	}
	readerOpts := nopts
	readerOpts.StripAuthoringControls = true

	return &Pipeline{
		reader:    normalize.New(readerOpts),
		author:    normalize.New(nopts),
		extractor: extract.New(opts.Prefixes),
		preview: render.NewPreviewRenderer(render.PreviewOptions{
			MaxChars: opts.PreviewMaxChars,
			Policy:   opts.Policy,
		}),
		full: render.NewFullRenderer(render.FullOptions{
			BaseURL:  opts.BaseURL,
			Prefixes: opts.Prefixes,
			Hooks:    opts.Hooks,
			Logger:   opts.Logger,
		}),
	}
}

// Normalize returns the reader-context normalized markup.
func (p *Pipeline) Normalize(raw string) string {
	return p.reader.NormalizeString(raw)
}

// Preview renders the feed-card markup.
func (p *Pipeline) Preview(raw string) string {
	return p.preview.Render(p.reader.Normalize(raw))
}

// Full renders the single-document markup.
func (p *Pipeline) Full(raw string) string {
	return p.full.Render(p.author.Normalize(raw))
}

// Published renders the full view with authoring controls removed rather
// than hidden, for output that never returns to the editor.
func (p *Pipeline) Published(raw string) string {
	return p.full.Render(p.reader.Normalize(raw))
}

// Media lists the media references of raw in document order.
func (p *Pipeline) Media(raw string) []core.MediaReference {
	return p.extractor.Extract(p.author.Normalize(raw))
}

// Keys lists the unique storage keys raw references.
func (p *Pipeline) Keys(raw string) []string {
	return extract.Keys(p.Media(raw))
}
