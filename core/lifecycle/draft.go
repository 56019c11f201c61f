package lifecycle

import (
	"context"
	"sync"

	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/extract"
	"github.com/gaurav-prasanna/postpipe/core/markup"
)

// Draft is one editing session over a persisted document. Removals are
// staged until Save, so cancelling the edit never loses media the persisted
// version still shows.
type Draft struct {
	m *Manager

	mu        sync.Mutex
	persisted string
	content   string
	uploaded  *assets.KeySet
	staged    *assets.KeySet
	deleted   *assets.KeySet
}

// Open starts a Draft over the persisted content.
func (m *Manager) Open(persisted string) *Draft {
	d := &Draft{m: m, persisted: persisted, content: persisted}
	d.reset()
	return d
}

func (d *Draft) reset() {
	d.uploaded = assets.NewKeySet()
	d.staged = assets.NewKeySet()
	d.deleted = assets.NewKeySet()
}

// InsertContent appends fragment at the end of the draft.
func (d *Draft) InsertContent(fragment string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content += fragment
}

// Content returns the current draft markup.
func (d *Draft) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content
}

// SetContent replaces the draft markup, as when the editor saves its buffer.
func (d *Draft) SetContent(content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content = content
}

// Upload stores a file and inserts it into the draft.
func (d *Draft) Upload(ctx context.Context, up Upload, kind core.MediaKind) (core.MediaReference, error) {
	ref, err := d.m.UploadMedia(ctx, d, up, kind)
	if err != nil {
		return ref, err
	}
	d.mu.Lock()
	d.uploaded.Add(ref.StorageKey)
	d.mu.Unlock()
	return ref, nil
}

// Remove drops every media node referencing urlOrKey from the draft and
// stages the key for deletion. It reports whether a node was removed.
func (d *Draft) Remove(ctx context.Context, urlOrKey string) bool {
	key := d.m.cfg.Prefixes.KeyFor(urlOrKey)
	if key == "" {
		return false
	}

	d.mu.Lock()
	tree := markup.Parse(d.content)
	var hits []*html.Node
	extract.Walk(tree.Root(), func(n *html.Node, kind core.MediaKind) {
		if d.m.extractor.Reference(n, kind).StorageKey == key {
			hits = append(hits, n)
		}
	})
	for _, n := range hits {
		markup.Detach(n)
	}
	if len(hits) > 0 {
		d.content = tree.String()
	}
	immediate := !d.m.cfg.DeferDeletes
	if immediate {
		d.deleted.Add(key)
	} else {
		d.staged.Add(key)
	}
	d.mu.Unlock()

	if immediate {
		d.m.delete(ctx, key)
	}
	return len(hits) > 0
}

// Save makes the draft the persisted version and deletes the media no longer
// referenced by it: keys of the previous version, uploads of this session and
// staged removals. It returns the deleted keys.
func (d *Draft) Save(ctx context.Context) []string {
	d.mu.Lock()
	candidates := assets.NewKeySet(d.m.Keys(d.persisted)...)
	for _, k := range d.uploaded.All() {
		candidates.Add(k)
	}
	for _, k := range d.staged.All() {
		candidates.Add(k)
	}
	for _, k := range d.deleted.All() {
		candidates.Remove(k)
	}
	content := d.content
	d.persisted = content
	d.reset()
	d.mu.Unlock()

	return d.m.release(ctx, candidates, content)
}

// Cancel discards the draft, restoring the persisted content, and deletes
// only what this session uploaded and the persisted version doesn't use.
func (d *Draft) Cancel(ctx context.Context) []string {
	d.mu.Lock()
	candidates := assets.NewKeySet(d.uploaded.All()...)
	persisted := d.persisted
	d.content = persisted
	d.reset()
	d.mu.Unlock()

	return d.m.release(ctx, candidates, persisted)
}
