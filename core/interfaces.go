// Package core defines the shared types and stage interfaces for PostPipe.
// Each stage of the content pipeline is a clean, testable interface:
// raw markup → Normalizer → Extractor → {preview | full} renderer.
package core

import (
	"context"
	"io"
	"strings"

	"github.com/gaurav-prasanna/postpipe/core/markup"
)

// MediaKind classifies an embedded media element.
type MediaKind string

const (
	KindNone  MediaKind = ""
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindFile  MediaKind = "file"
	KindAudio MediaKind = "audio"
	KindEmbed MediaKind = "embed"
)

// MediaKinds lists every real kind in a fixed order.
var MediaKinds = []MediaKind{KindImage, KindVideo, KindFile, KindAudio, KindEmbed}

// ParseMediaKind maps a user-supplied string onto a MediaKind.
func ParseMediaKind(s string) MediaKind {
	switch k := MediaKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindImage, KindVideo, KindFile, KindAudio, KindEmbed:
		return k
	default:
		return KindNone
	}
}

// MediaReference describes one embedded media element found in RichContent.
// It is derived from the markup on demand and never stored on its own.
type MediaReference struct {
	Kind        MediaKind `json:"kind"`
	URL         string    `json:"url"`
	StorageKey  string    `json:"storage_key,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	MimeType    string    `json:"mime_type,omitempty"`
	FileType    string    `json:"file_type,omitempty"` // pdf, text, word, excel, powerpoint, archive, other
	Previewable bool      `json:"previewable"`
}

// Resolvable reports whether the reference carries a usable URL.
func (r MediaReference) Resolvable() bool {
	u := strings.TrimSpace(r.URL)
	return u != "" && u != "undefined" && u != "null"
}

// Placeholder is the stand-in shown on a feed card for one media kind.
type Placeholder struct {
	Caption string
	Class   string
}

// PlaceholderPolicy maps media kinds to their preview placeholder.
// Only the first occurrence of each kind gets a placeholder; kinds
// missing from the policy pass through the preview untouched.
type PlaceholderPolicy map[MediaKind]Placeholder

// DefaultPlaceholderPolicy keeps images visible and folds every other kind.
func DefaultPlaceholderPolicy() PlaceholderPolicy {
	return PlaceholderPolicy{
		KindVideo: {Caption: "[View post to see video content]", Class: "video-placeholder"},
		KindFile:  {Caption: "[View post to see attached files]", Class: "file-placeholder"},
		KindAudio: {Caption: "[View post to see audio content]", Class: "audio-placeholder"},
		KindEmbed: {Caption: "[View post to see embedded content]", Class: "embed-placeholder"},
	}
}

// Normalizer repairs raw editor markup into a content tree.
type Normalizer interface {
	Normalize(raw string) *markup.Tree
}

// Extractor enumerates media references in document order.
type Extractor interface {
	Extract(tree *markup.Tree) []MediaReference
}

// Renderer turns a normalized tree into markup for one render sink.
type Renderer interface {
	Render(tree *markup.Tree) string
}

// UploadRequest is a single binary handed to the Asset Store.
type UploadRequest struct {
	Owner       string
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredAsset is what the Asset Store returns for an upload.
type StoredAsset struct {
	URL        string
	StorageKey string
}

// AssetStore is the external binary-object service.
type AssetStore interface {
	Upload(ctx context.Context, req UploadRequest) (*StoredAsset, error)
	Delete(ctx context.Context, storageKey string) error
}
