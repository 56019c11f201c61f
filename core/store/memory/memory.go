// Package memory is an in-process Asset Store, used by tests and as the CLI
// default when no storage URL is configured.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
)

// Object is one stored upload.
type Object struct {
	Data        []byte
	ContentType string
}

// Store keeps objects in a map.
type Store struct {
	mu       sync.RWMutex
	objects  map[string]Object
	baseURL  string
	prefixes assets.Prefixes
}

// New creates an empty Store. URLs it returns are built from baseURL and the
// first upload prefix; an empty baseURL yields root-relative URLs.
func New(baseURL string, prefixes assets.Prefixes) *Store {
	if len(prefixes) == 0 {
		prefixes = assets.NewPrefixes()
	}
	return &Store{
		objects:  make(map[string]Object),
		baseURL:  baseURL,
		prefixes: prefixes,
	}
}

// Upload reads the body fully and stores it under a fresh key.
func (s *Store) Upload(ctx context.Context, req core.UploadRequest) (*core.StoredAsset, error) {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upload body: %w", err)
	}
	key := assets.NewKey(req.Owner, req.Name)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: data, ContentType: req.ContentType}

	return &core.StoredAsset{URL: s.prefixes.PublicURL(s.baseURL, key), StorageKey: key}, nil
}

// Put stores data under an explicit key.
func (s *Store) Put(key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: data, ContentType: contentType}
}

// Get returns the object stored under key.
func (s *Store) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Delete removes the object under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return core.ErrEmptyStorageKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("deleting %s: %w", key, core.ErrObjectNotFound)
	}
	delete(s.objects, key)
	return nil
}
