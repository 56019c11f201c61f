// Package lifecycle keeps the Asset Store consistent with what documents
// reference. Uploads happen at authoring time and insert markup at the
// author's cursor; removals delete the stored object on a best-effort basis.
//
// Operations run to completion once started: the caller's cancellation is
// detached with context.WithoutCancel, and timeouts come from the store's
// own client.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/extract"
	"github.com/gaurav-prasanna/postpipe/core/normalize"
)

// DefaultMaxUploadBytes caps a single upload at 100 MB.
const DefaultMaxUploadBytes = 100 << 20

// DefaultVideoTypes are the video containers browsers play natively.
var DefaultVideoTypes = []string{"video/mp4", "video/webm", "video/ogg"}

// Cursor is where the editor inserts uploaded media.
type Cursor interface {
	InsertContent(fragment string)
}

// Upload is one file picked by the author.
type Upload struct {
	Owner       string
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
	// Progress, if set, is called as the body is read.
	Progress func(sent, total int64)
}

// Config configures a Manager.
type Config struct {
	BaseURL        string
	Prefixes       assets.Prefixes
	MaxUploadBytes int64
	VideoTypes     []string
	// DeferDeletes makes Draft.Remove stage deletions until Save instead of
	// deleting immediately.
	DeferDeletes bool
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics records operations on the given metrics.
func WithMetrics(mt *Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// Manager orchestrates uploads and deletions against an AssetStore.
type Manager struct {
	store      core.AssetStore
	cfg        Config
	logger     *slog.Logger
	metrics    *Metrics
	normalizer *normalize.Normalizer
	extractor  *extract.MediaExtractor
}

// New creates a Manager backed by store.
func New(store core.AssetStore, cfg Config, opts ...Option) *Manager {
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = assets.NewPrefixes()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(cfg.VideoTypes) == 0 {
		cfg.VideoTypes = DefaultVideoTypes
	}
	m := &Manager{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.normalizer = normalize.New(normalize.Options{Prefixes: cfg.Prefixes, Logger: m.logger})
	m.extractor = extract.New(cfg.Prefixes)
	return m
}

// UploadMedia stores the file and inserts its markup at the cursor. Failures
// are returned to the caller, who decides whether to offer a retry.
func (m *Manager) UploadMedia(ctx context.Context, at Cursor, up Upload, kind core.MediaKind) (core.MediaReference, error) {
	ctx = context.WithoutCancel(ctx)

	if err := m.validate(&up, kind); err != nil {
		m.metrics.upload(kind, "rejected", 0)
		return core.MediaReference{}, err
	}

	capped := &capReader{r: io.LimitReader(up.Body, m.cfg.MaxUploadBytes+1), limit: m.cfg.MaxUploadBytes}
	var body io.Reader = capped
	if up.Progress != nil {
		body = &progressReader{r: capped, total: up.Size, fn: up.Progress}
	}

	stored, err := m.store.Upload(ctx, core.UploadRequest{
		Owner:       up.Owner,
		Name:        up.Name,
		ContentType: up.ContentType,
		Size:        up.Size,
		Body:        body,
	})
	if capped.exceeded {
		m.metrics.upload(kind, "rejected", 0)
		if err == nil && stored != nil && stored.StorageKey != "" {
			// The store accepted a truncated body; drop it.
			m.delete(ctx, stored.StorageKey)
		}
		return core.MediaReference{}, fmt.Errorf("uploading %q (over %d bytes): %w",
			up.Name, m.cfg.MaxUploadBytes, core.ErrUploadTooLarge)
	}
	if err != nil {
		m.metrics.upload(kind, "failed", 0)
		m.logger.Error("media upload failed", "kind", kind, "name", up.Name, "err", err)
		return core.MediaReference{}, core.Classify(core.AssetOperationFailed, "upload",
			fmt.Errorf("uploading %s: %w", up.Name, err))
	}
	if up.Size <= 0 {
		up.Size = capped.n
	}
	m.metrics.upload(kind, "ok", up.Size)

	fileType := assets.FileType(up.Name)
	ref := core.MediaReference{
		Kind:        kind,
		URL:         stored.URL,
		StorageKey:  stored.StorageKey,
		DisplayName: up.Name,
		SizeBytes:   up.Size,
		MimeType:    up.ContentType,
		FileType:    fileType,
		Previewable: assets.Previewable(fileType),
	}
	if ref.StorageKey == "" {
		ref.StorageKey = m.cfg.Prefixes.StorageKey(ref.URL)
	}

	if at != nil {
		at.InsertContent(Fragment(ref, m.cfg.BaseURL, m.cfg.Prefixes))
	}
	m.logger.Info("media uploaded", "kind", kind, "storage_key", ref.StorageKey, "size", up.Size)
	return ref, nil
}

func (m *Manager) validate(up *Upload, kind core.MediaKind) error {
	switch kind {
	case core.KindImage, core.KindVideo, core.KindAudio, core.KindFile:
	default:
		return fmt.Errorf("uploading %q as %q: %w", up.Name, kind, core.ErrUnsupportedKind)
	}
	if up.Body == nil {
		return fmt.Errorf("uploading %q: empty body", up.Name)
	}
	if up.Size > m.cfg.MaxUploadBytes {
		return fmt.Errorf("uploading %q (%d bytes, limit %d): %w",
			up.Name, up.Size, m.cfg.MaxUploadBytes, core.ErrUploadTooLarge)
	}
	if up.ContentType == "" {
		up.ContentType = mime.TypeByExtension("." + assets.Ext(up.Name))
	}
	if up.ContentType == "" {
		up.ContentType = "application/octet-stream"
	}
	if kind == core.KindVideo && !m.videoTypeAllowed(up.ContentType) {
		return fmt.Errorf("uploading %q as %s: %w", up.Name, up.ContentType, core.ErrUnsupportedMediaType)
	}
	return nil
}

func (m *Manager) videoTypeAllowed(contentType string) bool {
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		base = contentType
	}
	for _, t := range m.cfg.VideoTypes {
		if strings.EqualFold(t, base) {
			return true
		}
	}
	return false
}

// RemoveMedia deletes the stored object behind a URL or storage key. It is
// best-effort: failures are logged and counted, never returned.
func (m *Manager) RemoveMedia(ctx context.Context, urlOrStorageKey string) {
	key := m.cfg.Prefixes.KeyFor(urlOrStorageKey)
	if key == "" {
		m.metrics.delete("skipped")
		m.logger.Warn("media not under an upload prefix", "ref", urlOrStorageKey)
		return
	}
	m.delete(ctx, key)
}

func (m *Manager) delete(ctx context.Context, key string) bool {
	if err := m.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		m.metrics.delete("failed")
		m.logger.Warn("media delete failed", "storage_key", key,
			"err", core.Classify(core.AssetOperationFailed, "delete", err))
		return false
	}
	m.metrics.delete("ok")
	m.logger.Info("media deleted", "storage_key", key)
	return true
}

// Keys returns the unique storage keys content references.
func (m *Manager) Keys(content string) []string {
	return extract.Keys(m.extractor.Extract(m.normalizer.Normalize(content)))
}

// Reconcile deletes every object before references that after no longer
// does, and returns the keys it deleted. Passing after == "" releases all of
// a tombstoned document's media.
func (m *Manager) Reconcile(ctx context.Context, before, after string) []string {
	return m.release(ctx, assets.NewKeySet(m.Keys(before)...), after)
}

// release deletes the keys in candidates not referenced by content.
func (m *Manager) release(ctx context.Context, candidates *assets.KeySet, content string) []string {
	live := assets.NewKeySet(m.Keys(content)...)
	var deleted []string
	for _, key := range candidates.Minus(live) {
		if m.delete(ctx, key) {
			deleted = append(deleted, key)
		}
	}
	return deleted
}

// capReader fails the read once more than limit bytes have come through,
// whatever size the caller declared.
type capReader struct {
	r        io.Reader
	n        int64
	limit    int64
	exceeded bool
}

func (c *capReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	if c.n > c.limit {
		c.exceeded = true
		return 0, core.ErrUploadTooLarge
	}
	return n, err
}

// progressReader reports bytes read to a callback.
type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}
