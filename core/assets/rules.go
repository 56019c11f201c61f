// Package assets — upload URL rules.
// Provides helpers to recognize upload paths, absolutize them against the
// asset host, and derive Asset Store keys from them.
package assets

import (
	"net/url"
	"path"
	"strings"
)

// DefaultUploadPrefix is the root-relative path the Asset Store serves from.
const DefaultUploadPrefix = "/uploads/"

// Prefixes is an ordered list of upload path prefixes, each starting and
// ending with a slash.
type Prefixes []string

// NewPrefixes cleans raw prefixes. An empty input yields the default prefix.
func NewPrefixes(raw ...string) Prefixes {
	var out Prefixes
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if !strings.HasSuffix(p, "/") {
			p += "/"
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		out = Prefixes{DefaultUploadPrefix}
	}
	return out
}

// match returns the prefix p starts with, if any.
func (ps Prefixes) match(p string) (string, bool) {
	for _, prefix := range ps {
		if strings.HasPrefix(p, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// IsRootRelativeUpload reports whether raw is a root-relative upload path
// such as /uploads/7/b.mp4.
func (ps Prefixes) IsRootRelativeUpload(raw string) bool {
	if strings.HasPrefix(raw, "//") {
		return false
	}
	_, ok := ps.match(raw)
	return ok
}

// Absolutize prefixes a root-relative upload path with base. Anything else,
// including an already absolute URL, is returned unchanged.
func (ps Prefixes) Absolutize(raw, base string) string {
	v := strings.TrimSpace(raw)
	if base == "" || !ps.IsRootRelativeUpload(v) {
		return raw
	}
	return strings.TrimSuffix(base, "/") + v
}

// StorageKey derives the Asset Store key from an upload URL by dropping the
// scheme, host and upload prefix. It returns "" when the URL is not under a
// known prefix.
// Example: https://host/uploads/42/doc.pdf → 42/doc.pdf
func (ps Prefixes) StorageKey(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		p = parsed.Path
		if parsed.RawPath != "" {
			if unescaped, err := url.PathUnescape(parsed.RawPath); err == nil {
				p = unescaped
			}
		}
	}
	prefix, ok := ps.match(p)
	if !ok {
		return ""
	}
	return strings.TrimPrefix(p, prefix)
}

// KeyFor resolves either a URL or a bare storage key into a storage key.
// Bare keys (no scheme, no leading slash) are returned as they are.
func (ps Prefixes) KeyFor(urlOrKey string) string {
	v := strings.TrimSpace(urlOrKey)
	if v == "" {
		return ""
	}
	if k := ps.StorageKey(v); k != "" {
		return k
	}
	if strings.HasPrefix(v, "/") || strings.Contains(v, "://") {
		return ""
	}
	return v
}

// PublicURL joins base, the first prefix and key into the URL readers load.
func (ps Prefixes) PublicURL(base, key string) string {
	prefix := DefaultUploadPrefix
	if len(ps) > 0 {
		prefix = ps[0]
	}
	return strings.TrimSuffix(base, "/") + prefix + strings.TrimPrefix(key, "/")
}

// Ext returns the lower-cased extension of a URL or file name, without the dot.
func Ext(rawURL string) string {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		p = parsed.Path
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}

// BaseName returns the last path segment of a URL or file name.
func BaseName(rawURL string) string {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		p = parsed.Path
	}
	b := path.Base(p)
	if b == "." || b == "/" {
		return ""
	}
	return b
}
