package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
)

const base = "https://cdn.example.com"

var errBackend = errors.New("backend unavailable")

// fakeStore keys objects as owner/name and serves them under /uploads/.
type fakeStore struct {
	mu         sync.Mutex
	uploads    []core.UploadRequest
	bodies     map[string]string
	deleted    []string
	uploadErr  error
	deleteErrs map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{bodies: map[string]string{}, deleteErrs: map[string]error{}}
}

func (s *fakeStore) Upload(ctx context.Context, req core.UploadRequest) (*core.StoredAsset, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	key := req.Owner + "/" + req.Name
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, req)
	s.bodies[key] = string(data)
	return &core.StoredAsset{URL: "/uploads/" + key, StorageKey: key}, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteErrs[key]; err != nil {
		return err
	}
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// buffer is a Cursor collecting inserted fragments.
type buffer struct{ strings.Builder }

func (b *buffer) InsertContent(fragment string) { b.WriteString(fragment) }

func newManager(t *testing.T, store core.AssetStore, cfg Config) (*Manager, *Metrics) {
	t.Helper()
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	if cfg.BaseURL == "" {
		cfg.BaseURL = base
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, cfg, WithLogger(logger), WithMetrics(metrics)), metrics
}

func upload(owner, name, contentType, body string) Upload {
	return Upload{
		Owner:       owner,
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestUploadMediaVideo(t *testing.T) {
	store := newFakeStore()
	m, metrics := newManager(t, store, Config{})

	var sent []int64
	up := upload("7", "clip.mp4", "video/mp4", "0123456789")
	up.Progress = func(n, total int64) {
		assert.Equal(t, int64(10), total)
		sent = append(sent, n)
	}

	var cur buffer
	ref, err := m.UploadMedia(context.Background(), &cur, up, core.KindVideo)
	require.NoError(t, err)

	assert.Equal(t, core.MediaReference{
		Kind: core.KindVideo, URL: "/uploads/7/clip.mp4", StorageKey: "7/clip.mp4",
		DisplayName: "clip.mp4", SizeBytes: 10, MimeType: "video/mp4",
		FileType: "video", Previewable: true,
	}, ref)
	assert.Equal(t, "0123456789", store.bodies["7/clip.mp4"])
	require.NotEmpty(t, sent)
	assert.Equal(t, int64(10), sent[len(sent)-1])

	assert.Equal(t,
		`<figure class="video-container" contenteditable="false" data-video-url="/uploads/7/clip.mp4" data-video-type="video/mp4" data-storage-key="7/clip.mp4">`+
			`<video controls="" width="100%"><source src="https://cdn.example.com/uploads/7/clip.mp4" type="video/mp4"/>Your browser does not support the video tag.</video>`+
			`<div class="editor-only-control"><button type="button" class="video-delete-btn" data-video-url="/uploads/7/clip.mp4" data-action="remove-media">×</button></div></figure>`,
		cur.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Uploads.WithLabelValues("video", "ok")))
	assert.Equal(t, 10.0, testutil.ToFloat64(metrics.UploadBytes.WithLabelValues("video")))
}

func TestUploadMediaRejects(t *testing.T) {
	tests := []struct {
		name string
		up   Upload
		kind core.MediaKind
		want error
	}{
		{"embed kind", upload("1", "x.html", "text/html", "x"), core.KindEmbed, core.ErrUnsupportedKind},
		{"no kind", upload("1", "x.png", "image/png", "x"), core.KindNone, core.ErrUnsupportedKind},
		{"too large", upload("1", "big.png", "image/png", strings.Repeat("x", 11)), core.KindImage, core.ErrUploadTooLarge},
		{"video container", upload("1", "clip.mov", "video/quicktime", "x"), core.KindVideo, core.ErrUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			m, metrics := newManager(t, store, Config{MaxUploadBytes: 10})

			var cur buffer
			_, err := m.UploadMedia(context.Background(), &cur, tt.up, tt.kind)

			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, store.uploads, "rejected before reaching the store")
			assert.Empty(t, cur.String(), "nothing inserted")
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Uploads.WithLabelValues(string(tt.kind), "rejected")))
		})
	}
}

func TestUploadMediaEnforcesLimitOnBody(t *testing.T) {
	tests := []struct {
		name string
		up   Upload
	}{
		{"undeclared size", Upload{Owner: "1", Name: "big.png", ContentType: "image/png", Body: strings.NewReader(strings.Repeat("x", 11))}},
		{"understated size", Upload{Owner: "1", Name: "big.png", ContentType: "image/png", Size: 4, Body: strings.NewReader(strings.Repeat("x", 11))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			m, metrics := newManager(t, store, Config{MaxUploadBytes: 10})

			var cur buffer
			_, err := m.UploadMedia(context.Background(), &cur, tt.up, core.KindImage)

			assert.ErrorIs(t, err, core.ErrUploadTooLarge)
			assert.Empty(t, store.bodies, "nothing stored")
			assert.Empty(t, cur.String())
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Uploads.WithLabelValues("image", "rejected")))
		})
	}
}

func TestUploadMediaAtLimitWithoutDeclaredSize(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{MaxUploadBytes: 10})

	ref, err := m.UploadMedia(context.Background(), nil,
		Upload{Owner: "1", Name: "ok.png", ContentType: "image/png", Body: strings.NewReader("0123456789")}, core.KindImage)

	require.NoError(t, err)
	assert.Equal(t, int64(10), ref.SizeBytes, "size comes from the bytes read")
	assert.Equal(t, "0123456789", store.bodies["1/ok.png"])
}

func TestUploadMediaNilBody(t *testing.T) {
	m, _ := newManager(t, newFakeStore(), Config{})
	_, err := m.UploadMedia(context.Background(), nil, Upload{Name: "a.png"}, core.KindImage)
	assert.Error(t, err)
}

func TestUploadMediaContentTypeFallback(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{})

	ref, err := m.UploadMedia(context.Background(), nil, upload("1", "notes.pdf", "", "%PDF"), core.KindFile)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ref.MimeType)

	ref, err = m.UploadMedia(context.Background(), nil, upload("1", "blob.unknownext", "", "x"), core.KindFile)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", ref.MimeType)
}

func TestUploadMediaStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.uploadErr = errBackend
	m, metrics := newManager(t, store, Config{})

	var cur buffer
	_, err := m.UploadMedia(context.Background(), &cur, upload("1", "a.png", "image/png", "x"), core.KindImage)

	require.Error(t, err)
	assert.True(t, core.IsAssetOperationFailed(err))
	assert.ErrorIs(t, err, errBackend)
	assert.Empty(t, cur.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Uploads.WithLabelValues("image", "failed")))
}

func TestUploadMediaIgnoresCancellation(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.UploadMedia(ctx, nil, upload("1", "a.png", "image/png", "x"), core.KindImage)
	require.NoError(t, err)
	assert.Len(t, store.uploads, 1)
}

func TestRemoveMedia(t *testing.T) {
	store := newFakeStore()
	store.deleteErrs["9/broken.pdf"] = errBackend
	m, metrics := newManager(t, store, Config{})
	ctx := context.Background()

	m.RemoveMedia(ctx, "https://host/uploads/42/doc.pdf")
	m.RemoveMedia(ctx, "7/clip.mp4")
	m.RemoveMedia(ctx, "/static/logo.png")
	m.RemoveMedia(ctx, "")
	assert.NotPanics(t, func() { m.RemoveMedia(ctx, "/uploads/9/broken.pdf") })

	assert.Equal(t, []string{"42/doc.pdf", "7/clip.mp4"}, store.Deleted())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Deletes.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Deletes.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Deletes.WithLabelValues("failed")))
}

func TestKeysAndReconcile(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{})

	before := `<p><img src="/uploads/1/a.png"></p>` +
		`<div class="file-attachment" data-file-url="https://cdn.example.com/uploads/1/b.pdf"></div>` +
		`<img src="https://elsewhere.org/c.png">`
	after := `<p><img src="/uploads/1/a.png"></p><p>file removed</p>`

	assert.Equal(t, []string{"1/a.png", "1/b.pdf"}, m.Keys(before))

	assert.Equal(t, []string{"1/b.pdf"}, m.Reconcile(context.Background(), before, after))
	assert.Equal(t, []string{"1/b.pdf"}, store.Deleted())

	assert.Empty(t, m.Reconcile(context.Background(), after, after))

	assert.Equal(t, []string{"1/a.png"}, m.Reconcile(context.Background(), after, ""), "tombstone releases everything")
}

func TestReconcileSkipsFailedDeletes(t *testing.T) {
	store := newFakeStore()
	store.deleteErrs["1/a.png"] = errBackend
	m, _ := newManager(t, store, Config{})

	before := `<img src="/uploads/1/a.png"><img src="/uploads/1/b.png">`
	assert.Equal(t, []string{"1/b.png"}, m.Reconcile(context.Background(), before, ""))
}

const persisted = `<p>hello</p><img src="/uploads/1/old.png">`

func TestDraftDeferredSave(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{DeferDeletes: true})
	ctx := context.Background()

	d := m.Open(persisted)
	assert.True(t, d.Remove(ctx, "https://cdn.example.com/uploads/1/old.png"))
	assert.Equal(t, "<p>hello</p>", d.Content())
	assert.Empty(t, store.Deleted(), "removal is staged until save")

	_, err := d.Upload(ctx, upload("1", "new.png", "image/png", "png"), core.KindImage)
	require.NoError(t, err)
	assert.Contains(t, d.Content(), `data-storage-key="1/new.png"`)

	assert.Equal(t, []string{"1/old.png"}, d.Save(ctx))
	assert.Equal(t, []string{"1/old.png"}, store.Deleted())

	assert.Empty(t, d.Save(ctx), "a second save has nothing left to release")
}

func TestDraftCancelKeepsPersistedMedia(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{DeferDeletes: true})
	ctx := context.Background()

	d := m.Open(persisted)
	d.Remove(ctx, "1/old.png")
	_, err := d.Upload(ctx, upload("1", "new.png", "image/png", "png"), core.KindImage)
	require.NoError(t, err)

	assert.Equal(t, []string{"1/new.png"}, d.Cancel(ctx))
	assert.Equal(t, persisted, d.Content())
	assert.Equal(t, []string{"1/new.png"}, store.Deleted())
}

func TestDraftSaveReleasesEditorDeletions(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{DeferDeletes: true})
	ctx := context.Background()

	d := m.Open(persisted)
	_, err := d.Upload(ctx, upload("1", "tmp.pdf", "application/pdf", "%PDF"), core.KindFile)
	require.NoError(t, err)

	// The author deletes everything in the editor without using the remove buttons.
	d.SetContent("<p>hello</p>")

	assert.ElementsMatch(t, []string{"1/old.png", "1/tmp.pdf"}, d.Save(ctx))
}

func TestDraftImmediateRemove(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{DeferDeletes: false})
	ctx := context.Background()

	d := m.Open(persisted)
	assert.True(t, d.Remove(ctx, "/uploads/1/old.png"))
	assert.Equal(t, []string{"1/old.png"}, store.Deleted())

	assert.Empty(t, d.Save(ctx), "already deleted")
	assert.Equal(t, []string{"1/old.png"}, store.Deleted())
}

func TestDraftRemoveUnknown(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{DeferDeletes: true})

	d := m.Open(persisted)
	assert.False(t, d.Remove(context.Background(), "/uploads/2/missing.png"))
	assert.False(t, d.Remove(context.Background(), "https://elsewhere.org/x.png"))
	assert.Equal(t, persisted, d.Content())
}

func TestDraftConcurrentUploads(t *testing.T) {
	store := newFakeStore()
	m, _ := newManager(t, store, Config{DeferDeletes: true})
	ctx := context.Background()
	d := m.Open("")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Upload(ctx, upload("1", fmt.Sprintf("f%d.png", i), "image/png", "x"), core.KindImage)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, m.Keys(d.Content()), 8)
	assert.Empty(t, d.Save(ctx))
}

func TestFragment(t *testing.T) {
	tests := []struct {
		name string
		ref  core.MediaReference
		want string
	}{
		{
			"image",
			core.MediaReference{Kind: core.KindImage, URL: "/uploads/1/a.png", DisplayName: "a.png"},
			`<img src="https://cdn.example.com/uploads/1/a.png" alt="a.png"/>`,
		},
		{
			"audio",
			core.MediaReference{Kind: core.KindAudio, URL: "/uploads/1/s.mp3", StorageKey: "1/s.mp3", MimeType: "audio/mpeg"},
			`<audio controls="" data-storage-key="1/s.mp3"><source src="https://cdn.example.com/uploads/1/s.mp3" type="audio/mpeg"/></audio>`,
		},
		{
			"file",
			core.MediaReference{Kind: core.KindFile, URL: "/uploads/42/doc.pdf", StorageKey: "42/doc.pdf", DisplayName: "doc.pdf", SizeBytes: 2_500_000},
			`<div class="mceNonEditable file-attachment" data-file-url="/uploads/42/doc.pdf" data-file-name="doc.pdf" data-file-size="2.5 MB" data-file-bytes="2500000" data-file-type="pdf" data-storage-key="42/doc.pdf">` +
				`<div class="file-icon">📄</div>` +
				`<div class="file-info"><div class="file-name">doc.pdf</div><div class="file-size">2.5 MB</div></div>` +
				`<div class="file-actions"><button class="remove-btn editor-only" type="button" data-file-url="/uploads/42/doc.pdf" data-action="remove-media">Remove</button></div></div>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fragment(tt.ref, base, assets.NewPrefixes()))
		})
	}
}

func TestFragmentKeepsExactFileSize(t *testing.T) {
	ref := core.MediaReference{Kind: core.KindFile, URL: "/uploads/9/big.zip", DisplayName: "big.zip", SizeBytes: 1_234_567}
	m, _ := newManager(t, newFakeStore(), Config{})

	refs := m.extractor.Extract(m.normalizer.Normalize(Fragment(ref, base, assets.NewPrefixes())))

	require.Len(t, refs, 1)
	assert.Equal(t, int64(1_234_567), refs[0].SizeBytes)
}

func TestNewMetricsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)

	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, m)

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.upload(core.KindImage, "ok", 1)
		nilMetrics.delete("ok")
	})
}
