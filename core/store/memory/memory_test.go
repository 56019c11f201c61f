package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
)

func TestStore(t *testing.T) {
	s := New("https://cdn.example.com", nil)
	ctx := context.Background()

	stored, err := s.Upload(ctx, core.UploadRequest{
		Owner: "7", Name: "clip.mp4", ContentType: "video/mp4", Body: strings.NewReader("data"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.StorageKey, "7/"))
	assert.True(t, strings.HasSuffix(stored.StorageKey, "-clip.mp4"))
	assert.Equal(t, "https://cdn.example.com/uploads/"+stored.StorageKey, stored.URL)
	assert.Equal(t, stored.StorageKey, assets.NewPrefixes().StorageKey(stored.URL))

	obj, ok := s.Get(stored.StorageKey)
	require.True(t, ok)
	assert.Equal(t, "data", string(obj.Data))
	assert.Equal(t, "video/mp4", obj.ContentType)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, stored.StorageKey))
	assert.Zero(t, s.Len())
	assert.ErrorIs(t, s.Delete(ctx, stored.StorageKey), core.ErrObjectNotFound)
	assert.ErrorIs(t, s.Delete(ctx, ""), core.ErrEmptyStorageKey)
}

func TestPut(t *testing.T) {
	s := New("", nil)
	s.Put("42/doc.pdf", []byte("%PDF"), "application/pdf")

	obj, ok := s.Get("42/doc.pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.NoError(t, s.Delete(context.Background(), "42/doc.pdf"))
}
