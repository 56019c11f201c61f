// Package fs stores assets as files under a base directory, with the storage
// key as the relative path.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
)

// Config options for the filesystem store.
type Config struct {
	BaseDir  string
	BaseURL  string
	Prefixes assets.Prefixes
}

// Store is a filesystem Asset Store.
type Store struct {
	baseDir  string
	baseURL  string
	prefixes assets.Prefixes
}

// New creates the base directory if needed and returns a Store over it.
func New(cfg Config) (*Store, error) {
	if cfg.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = assets.NewPrefixes()
	}
	return &Store{baseDir: cfg.BaseDir, baseURL: cfg.BaseURL, prefixes: cfg.Prefixes}, nil
}

// path maps key into the base directory, rejecting keys that escape it.
func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", core.ErrEmptyStorageKey
	}
	p := filepath.Join(s.baseDir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.baseDir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("storage key %q escapes base directory", key)
	}
	return p, nil
}

// Upload writes the body to a new file.
func (s *Store) Upload(ctx context.Context, req core.UploadRequest) (*core.StoredAsset, error) {
	key := assets.NewKey(req.Owner, req.Name)
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	if _, err := io.Copy(f, req.Body); err != nil {
		f.Close()
		os.Remove(p)
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing file: %w", err)
	}

	return &core.StoredAsset{URL: s.prefixes.PublicURL(s.baseURL, key), StorageKey: key}, nil
}

// Open returns the file stored under key.
func (s *Store) Open(key string) (*os.File, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("opening %s: %w", key, core.ErrObjectNotFound)
	}
	return f, err
}

// Delete removes the file under key and prunes emptied directories.
func (s *Store) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("deleting %s: %w", key, core.ErrObjectNotFound)
		}
		return fmt.Errorf("deleting file: %w", err)
	}
	s.cleanupEmptyDirectories(filepath.Dir(p))
	return nil
}

// cleanupEmptyDirectories removes empty directories up to, not including,
// the base directory.
func (s *Store) cleanupEmptyDirectories(dir string) {
	base := filepath.Clean(s.baseDir)
	for dir = filepath.Clean(dir); dir != base && strings.HasPrefix(dir, base); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}
