// Package httpstore talks to the blog's upload API:
// POST {api}/api/upload (multipart, field "file") and
// DELETE {api}/api/upload/{key}.
package httpstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "postpipe/1.0 (https://github.com/gaurav-prasanna/postpipe)"
)

// Config options for the HTTP store.
type Config struct {
	APIBase  string // e.g. http://localhost:8000
	Token    string // bearer token, optional
	Timeout  time.Duration
	Prefixes assets.Prefixes
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// Store uploads to and deletes from the remote API.
type Store struct {
	client   *http.Client
	base     string
	token    string
	prefixes assets.Prefixes
}

// uploadResponse is what POST /api/upload returns.
type uploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// New creates a Store. APIBase is required.
func New(cfg Config) (*Store, error) {
	if cfg.APIBase == "" {
		return nil, errors.New("upload API base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = assets.NewPrefixes()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Store{
		client:   client,
		base:     strings.TrimSuffix(cfg.APIBase, "/"),
		token:    cfg.Token,
		prefixes: cfg.Prefixes,
	}, nil
}

func (s *Store) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return req, nil
}

// Upload streams the body as a multipart form. The server picks the storage
// path; the key is derived from the URL it returns.
func (s *Store) Upload(ctx context.Context, up core.UploadRequest) (*core.StoredAsset, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, up))
	}()

	req, err := s.newRequest(ctx, http.MethodPost, s.base+"/api/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("uploading %s: %w", up.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d uploading %s: %s", resp.StatusCode, up.Name, errorDetail(resp.Body))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	if out.URL == "" {
		return nil, errors.New("upload response has no url")
	}
	return &core.StoredAsset{URL: out.URL, StorageKey: s.prefixes.StorageKey(out.URL)}, nil
}

func writeForm(form *multipart.Writer, up core.UploadRequest) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, assets.SanitizeName(up.Name)))
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := form.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, up.Body); err != nil {
		return err
	}
	return form.Close()
}

// Delete asks the API to remove key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return core.ErrEmptyStorageKey
	}
	req, err := s.newRequest(ctx, http.MethodDelete, s.base+"/api/upload/"+strings.TrimPrefix(key, "/"), nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("deleting %s: %w", key, core.ErrObjectNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("unexpected status %d deleting %s: %s", resp.StatusCode, key, errorDetail(resp.Body))
	}
	return nil
}

// errorDetail pulls the "detail" field out of an error body, falling back to
// the first bytes of the raw body.
func errorDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Detail != "" {
		return body.Detail
	}
	return strings.TrimSpace(string(raw))
}
