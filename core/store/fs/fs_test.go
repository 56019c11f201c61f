package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/postpipe/core"
)

func TestUploadOpenDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{BaseDir: dir, BaseURL: "https://cdn.example.com"})
	require.NoError(t, err)
	ctx := context.Background()

	stored, err := s.Upload(ctx, core.UploadRequest{Owner: "7", Name: "my notes.txt", Body: strings.NewReader("hello")})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored.StorageKey, "-my_notes.txt"))
	assert.Equal(t, "https://cdn.example.com/uploads/"+stored.StorageKey, stored.URL)

	f, err := s.Open(stored.StorageKey)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, stored.StorageKey))
	_, err = os.Stat(filepath.Join(dir, "7"))
	assert.True(t, os.IsNotExist(err), "emptied owner directory is pruned")
	_, err = os.Stat(dir)
	assert.NoError(t, err, "base directory is kept")

	assert.ErrorIs(t, s.Delete(ctx, stored.StorageKey), core.ErrObjectNotFound)
	_, err = s.Open(stored.StorageKey)
	assert.ErrorIs(t, err, core.ErrObjectNotFound)
}

func TestDeleteKeepsNonEmptyDirectories(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	a, err := s.Upload(ctx, core.UploadRequest{Owner: "7", Name: "a.png", Body: strings.NewReader("a")})
	require.NoError(t, err)
	_, err = s.Upload(ctx, core.UploadRequest{Owner: "7", Name: "b.png", Body: strings.NewReader("b")})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, a.StorageKey))
	entries, err := os.ReadDir(filepath.Join(dir, "7"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{BaseDir: filepath.Join(dir, "uploads")})
	require.NoError(t, err)

	outside := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	for _, key := range []string{"../secret.txt", "a/../../secret.txt", "."} {
		err := s.Delete(context.Background(), key)
		assert.Error(t, err, key)
		assert.NotErrorIs(t, err, core.ErrObjectNotFound, key)
	}
	assert.ErrorIs(t, s.Delete(context.Background(), ""), core.ErrEmptyStorageKey)

	_, err = os.Stat(outside)
	assert.NoError(t, err, "file outside the base directory survives")
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
