package markup

import "github.com/andybalholm/cascadia"

// Reserved class markers written by the editor and by the renderers.
const (
	ClassFileAttachment = "file-attachment"
	ClassFileActions    = "file-actions"
	ClassFileName       = "file-name"
	ClassVideoContainer = "video-container"
	ClassVideoWrapper   = "video-wrapper"
	ClassVideoData      = "video-data"
	ClassPlaceholder    = "media-placeholder"
	ClassFallback       = "media-fallback"
	ClassReadMore       = "read-more"
	ClassDownloadButton = "download-btn"
)

// AuthoringControlSelector matches editor-only controls. These never reach a
// reader untouched: the Normalizer strips them, the full view hides them.
const AuthoringControlSelector = ".editor-only, .editor-only-control, .video-delete-btn, .video-delete-overlay, .remove-btn"

var (
	// AuthoringControls matches editor-only elements.
	AuthoringControls = cascadia.MustCompile(AuthoringControlSelector)
	// Generated matches nodes the renderers emit themselves.
	Generated = cascadia.MustCompile("." + ClassPlaceholder + ", ." + ClassFallback + ", ." + ClassReadMore)
	// FileAttachments matches attachment containers.
	FileAttachments = cascadia.MustCompile("." + ClassFileAttachment)
	// VideoContainers matches the wrappers the editor puts around <video>.
	VideoContainers = cascadia.MustCompile("." + ClassVideoContainer + ", ." + ClassVideoWrapper)
)
